package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/h5craft/internal/models"
	"github.com/h5craft/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupPageServiceTest(t *testing.T) (*PageService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:page_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Asset{}, &models.Page{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	svc := NewPageService(repository.NewPageRepository(db), repository.NewAssetRepository(db))
	return svc, db
}

func TestPageServiceCreateGeneratesSlug(t *testing.T) {
	svc, _ := setupPageServiceTest(t)
	page, err := svc.Create(PageInput{
		Title:    "活动落地页",
		Price:    models.NewMoneyFromDecimal(decimal.Zero),
		AuthorID: 1,
	})
	if err != nil {
		t.Fatalf("create page failed: %v", err)
	}
	if len(page.Slug) != 12 {
		t.Fatalf("expected generated slug of length 12, got %q", page.Slug)
	}
	if page.Status != models.PageStatusDraft {
		t.Fatalf("expected draft status, got %s", page.Status)
	}
	if page.Currency != "CNY" {
		t.Fatalf("expected CNY currency, got %s", page.Currency)
	}
}

func TestPageServiceCreateRejectsDuplicateSlug(t *testing.T) {
	svc, _ := setupPageServiceTest(t)
	input := PageInput{
		Slug:     "spring-sale",
		Title:    "页面一",
		Price:    models.NewMoneyFromDecimal(decimal.Zero),
		AuthorID: 1,
	}
	if _, err := svc.Create(input); err != nil {
		t.Fatalf("create page failed: %v", err)
	}
	input.Title = "页面二"
	if _, err := svc.Create(input); !errors.Is(err, ErrPageSlugTaken) {
		t.Fatalf("expected ErrPageSlugTaken, got %v", err)
	}
}

func TestPageServiceCreateRejectsInvalidSlug(t *testing.T) {
	svc, _ := setupPageServiceTest(t)
	_, err := svc.Create(PageInput{
		Slug:     "Bad Slug!",
		Title:    "页面",
		Price:    models.NewMoneyFromDecimal(decimal.Zero),
		AuthorID: 1,
	})
	if !errors.Is(err, ErrPageInvalid) {
		t.Fatalf("expected ErrPageInvalid, got %v", err)
	}
}

func TestPageServicePublishAndPublicAccess(t *testing.T) {
	svc, _ := setupPageServiceTest(t)
	page, err := svc.Create(PageInput{
		Slug:     "launch-page",
		Title:    "发布页",
		Price:    models.NewMoneyFromDecimal(decimal.RequireFromString("1.00")),
		AuthorID: 1,
	})
	if err != nil {
		t.Fatalf("create page failed: %v", err)
	}

	if _, err := svc.GetPublishedBySlug("launch-page"); !errors.Is(err, ErrPageNotPublished) {
		t.Fatalf("draft page must not be public, got %v", err)
	}

	published, err := svc.Publish(page.ID)
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if published.PublishedAt == nil {
		t.Fatal("expected published_at to be set")
	}

	got, err := svc.GetPublishedBySlug("launch-page")
	if err != nil {
		t.Fatalf("public access failed: %v", err)
	}
	if !got.RequiresPayment() {
		t.Fatal("expected paid page")
	}

	// 公开访问累计浏览量
	if _, err := svc.GetPublishedBySlug("launch-page"); err != nil {
		t.Fatalf("public access failed: %v", err)
	}
	stored, err := svc.GetByID(page.ID)
	if err != nil {
		t.Fatalf("load page failed: %v", err)
	}
	if stored.ViewCount != 2 {
		t.Fatalf("expected view count 2, got %d", stored.ViewCount)
	}

	archived, err := svc.Archive(page.ID)
	if err != nil {
		t.Fatalf("archive failed: %v", err)
	}
	if archived.Status != models.PageStatusArchived {
		t.Fatalf("expected archived status, got %s", archived.Status)
	}
	if _, err := svc.GetPublishedBySlug("launch-page"); !errors.Is(err, ErrPageNotPublished) {
		t.Fatalf("archived page must not be public, got %v", err)
	}
}

func TestPageServiceCreateRejectsMissingCoverAsset(t *testing.T) {
	svc, _ := setupPageServiceTest(t)
	missing := uint(999)
	_, err := svc.Create(PageInput{
		Title:        "页面",
		Price:        models.NewMoneyFromDecimal(decimal.Zero),
		AuthorID:     1,
		CoverAssetID: &missing,
	})
	if !errors.Is(err, ErrAssetNotFound) {
		t.Fatalf("expected ErrAssetNotFound, got %v", err)
	}
}
