package repository

import "time"

// PageListFilter 查询页面列表的过滤条件
type PageListFilter struct {
	Page          int
	PageSize      int
	Status        string
	Search        string
	AuthorID      uint
	OnlyPublished bool
	OrderBy       string
}

// AssetListFilter 查询素材列表的过滤条件
type AssetListFilter struct {
	Page       int
	PageSize   int
	MimeType   string
	UploaderID uint
	Search     string
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	PageID      uint
	Status      string
	OrderNo     string
	OpenID      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// PaymentListFilter 查询支付列表的过滤条件
type PaymentListFilter struct {
	Page        int
	PageSize    int
	OrderID     uint
	ChannelID   uint
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// RefundListFilter 查询退款列表的过滤条件
type RefundListFilter struct {
	Page        int
	PageSize    int
	OrderID     uint
	PaymentID   uint
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// PaymentChannelListFilter 查询支付渠道列表的过滤条件
type PaymentChannelListFilter struct {
	Page       int
	PageSize   int
	Type       string
	ActiveOnly bool
}

// AuthzAuditLogListFilter 查询权限审计日志列表的过滤条件
type AuthzAuditLogListFilter struct {
	Page            int
	PageSize        int
	OperatorAdminID uint
	TargetAdminID   uint
	Action          string
	Role            string
	Object          string
	Method          string
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
}
