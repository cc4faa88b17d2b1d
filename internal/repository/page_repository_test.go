package repository

import (
	"testing"

	"github.com/h5craft/internal/models"
)

func createTestPage(t *testing.T, repo *GormPageRepository, slug, title, status string) models.Page {
	t.Helper()
	page := models.Page{
		Slug:     slug,
		Title:    title,
		Status:   status,
		Currency: "CNY",
		AuthorID: 1,
	}
	if err := repo.Create(&page); err != nil {
		t.Fatalf("create page failed: %v", err)
	}
	return page
}

func TestPageRepositoryGetBySlug(t *testing.T) {
	db := setupRepositoryTest(t)
	repo := NewPageRepository(db)

	created := createTestPage(t, repo, "spring-fair", "春日集市", models.PageStatusPublished)

	got, err := repo.GetBySlug("spring-fair")
	if err != nil {
		t.Fatalf("get by slug failed: %v", err)
	}
	if got == nil || got.ID != created.ID {
		t.Fatalf("expected page %d, got %+v", created.ID, got)
	}

	missing, err := repo.GetBySlug("missing")
	if err != nil {
		t.Fatalf("get missing slug failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("missing slug should be nil, got %+v", missing)
	}
}

func TestPageRepositoryListFiltersAndSearch(t *testing.T) {
	db := setupRepositoryTest(t)
	repo := NewPageRepository(db)

	createTestPage(t, repo, "spring-fair", "春日集市", models.PageStatusPublished)
	createTestPage(t, repo, "autumn-sale", "秋季特卖", models.PageStatusDraft)

	published, total, err := repo.List(PageListFilter{OnlyPublished: true, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list published failed: %v", err)
	}
	if total != 1 || len(published) != 1 || published[0].Slug != "spring-fair" {
		t.Fatalf("published filter mismatch: total=%d pages=%+v", total, published)
	}

	matched, total, err := repo.List(PageListFilter{Search: "autumn", Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list search failed: %v", err)
	}
	if total != 1 || len(matched) != 1 || matched[0].Slug != "autumn-sale" {
		t.Fatalf("search filter mismatch: total=%d pages=%+v", total, matched)
	}
}

func TestPageRepositoryCounters(t *testing.T) {
	db := setupRepositoryTest(t)
	repo := NewPageRepository(db)

	page := createTestPage(t, repo, "spring-fair", "春日集市", models.PageStatusPublished)

	if err := repo.IncrementViewCount(page.ID); err != nil {
		t.Fatalf("increment view failed: %v", err)
	}
	if err := repo.IncrementViewCount(page.ID); err != nil {
		t.Fatalf("increment view failed: %v", err)
	}
	if err := repo.IncrementPaidCount(page.ID); err != nil {
		t.Fatalf("increment paid failed: %v", err)
	}

	reloaded, err := repo.GetByID(page.ID)
	if err != nil {
		t.Fatalf("reload page failed: %v", err)
	}
	if reloaded.ViewCount != 2 {
		t.Fatalf("view count want 2 got %d", reloaded.ViewCount)
	}
	if reloaded.PaidCount != 1 {
		t.Fatalf("paid count want 1 got %d", reloaded.PaidCount)
	}
}
