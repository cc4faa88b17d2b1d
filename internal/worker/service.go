package worker

import (
	"context"
	"errors"
	"time"

	"github.com/h5craft/internal/config"
	"github.com/h5craft/internal/logger"
	"github.com/h5craft/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	expiredSweepInterval = time.Minute
	expiredSweepLimit    = 200
)

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.OrderService != nil {
		go s.runExpiredSweepLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// runExpiredSweepLoop 周期性兜底关闭超时订单。
// 延迟任务在队列故障时可能丢失，扫描保证最终关闭
func (s *Service) runExpiredSweepLoop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.OrderService == nil {
		return
	}
	runOnce := func() {
		closed, err := s.consumer.OrderService.CloseExpired(time.Now(), expiredSweepLimit)
		if err != nil {
			logger.Warnw("worker_expired_sweep_failed", "error", err)
			return
		}
		if closed > 0 {
			logger.Infow("worker_expired_sweep_closed", "count", closed)
		}
	}
	runOnce()

	ticker := time.NewTicker(expiredSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
