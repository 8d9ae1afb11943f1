package pages

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/storeadmin/blocklayer/internal/app/blocks"
	"github.com/storeadmin/blocklayer/internal/app/domain/block"
	"github.com/storeadmin/blocklayer/internal/app/domain/page"
	"github.com/storeadmin/blocklayer/internal/app/storage/memory"
)

// fakeCache is an in-process RenderCache for tests.
type fakeCache struct {
	mu      sync.Mutex
	values  map[string]string
	deletes []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string]string)}
}

func (c *fakeCache) Get(_ context.Context, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok
}

func (c *fakeCache) Set(_ context.Context, key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

func (c *fakeCache) DeletePrefix(_ context.Context, prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes = append(c.deletes, prefix)
	for k := range c.values {
		if strings.HasPrefix(k, prefix) {
			delete(c.values, k)
		}
	}
}

func newService(t *testing.T, cache RenderCache) *Service {
	t.Helper()
	return New(memory.New(), blocks.NewStorefrontRegistry(nil), cache, nil)
}

func TestCreateValidatesInput(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateInput{Slug: "ok", Title: " "}); err == nil {
		t.Fatal("expected title validation error")
	}
	if _, err := svc.Create(ctx, CreateInput{Slug: "Bad Slug!", Title: "T"}); err == nil {
		t.Fatal("expected slug validation error")
	}

	p, err := svc.Create(ctx, CreateInput{Slug: "summer-sale", Title: "Summer sale"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Status != page.StatusDraft {
		t.Fatalf("expected draft status, got %q", p.Status)
	}
	if p.Locale != "en" {
		t.Fatalf("expected default locale, got %q", p.Locale)
	}
	if p.Blocks == nil {
		t.Fatal("expected empty block list, got nil")
	}
}

func TestUpdateValidatesStatus(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()

	p, _ := svc.Create(ctx, CreateInput{Slug: "home", Title: "Home"})

	bogus := "archived"
	if _, err := svc.Update(ctx, p.ID, UpdateInput{Status: &bogus}); err == nil {
		t.Fatal("expected invalid status rejection")
	}

	published := page.StatusPublished
	updated, err := svc.Update(ctx, p.ID, UpdateInput{Status: &published})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != page.StatusPublished {
		t.Fatalf("status not applied: %q", updated.Status)
	}
}

func TestSetBlocksAssignsIDsAndRejectsDuplicates(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()

	p, _ := svc.Create(ctx, CreateInput{Slug: "home", Title: "Home"})

	updated, err := svc.SetBlocks(ctx, p.ID, []block.PageBlockItem{
		{Type: blocks.TypeHeading, Data: map[string]any{"text": "Hi"}},
		{ID: "fixed", Type: blocks.TypeText},
	})
	if err != nil {
		t.Fatalf("set blocks: %v", err)
	}
	if updated.Blocks[0].ID == "" {
		t.Fatal("expected generated id for first block")
	}
	if updated.Blocks[1].ID != "fixed" {
		t.Fatalf("explicit id lost: %+v", updated.Blocks[1])
	}
	if updated.Blocks[1].Settings == nil || updated.Blocks[1].Data == nil {
		t.Fatal("expected empty bags restored from wire form")
	}

	_, err = svc.SetBlocks(ctx, p.ID, []block.PageBlockItem{
		{ID: "dup", Type: blocks.TypeText},
		{ID: "dup", Type: blocks.TypeDivider},
	})
	if err == nil {
		t.Fatal("expected duplicate id rejection")
	}

	_, err = svc.SetBlocks(ctx, p.ID, []block.PageBlockItem{{ID: "x", Type: ""}})
	if err == nil {
		t.Fatal("expected missing type rejection")
	}
}

func TestRenderProducesBlockMarkup(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()

	p, _ := svc.Create(ctx, CreateInput{Slug: "home", Title: "Home"})
	_, err := svc.SetBlocks(ctx, p.ID, []block.PageBlockItem{
		{ID: "h", Type: blocks.TypeHeading, Data: map[string]any{"text": "Welcome"}},
		{ID: "d", Type: blocks.TypeDivider},
	})
	if err != nil {
		t.Fatalf("set blocks: %v", err)
	}

	html, err := svc.Render(ctx, RenderInput{PageID: p.ID})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	out := string(html)
	if !strings.Contains(out, "Welcome") || !strings.Contains(out, "divider-block") {
		t.Fatalf("unexpected render output: %s", out)
	}
}

func TestRenderUsesCacheInViewMode(t *testing.T) {
	cache := newFakeCache()
	svc := newService(t, cache)
	ctx := context.Background()

	p, _ := svc.Create(ctx, CreateInput{Slug: "home", Title: "Home"})
	if _, err := svc.SetBlocks(ctx, p.ID, []block.PageBlockItem{{ID: "d", Type: blocks.TypeDivider}}); err != nil {
		t.Fatalf("set blocks: %v", err)
	}

	first, err := svc.Render(ctx, RenderInput{PageID: p.ID})
	if err != nil {
		t.Fatalf("first render: %v", err)
	}
	if len(cache.values) != 1 {
		t.Fatalf("expected render cached, cache=%v", cache.values)
	}

	// Poison the cache to prove the second call reads it.
	for k := range cache.values {
		cache.values[k] = "cached-sentinel"
	}
	second, err := svc.Render(ctx, RenderInput{PageID: p.ID})
	if err != nil {
		t.Fatalf("second render: %v", err)
	}
	if string(second) != "cached-sentinel" {
		t.Fatalf("expected cached value, got %s (first was %s)", second, first)
	}
}

func TestEditRenderBypassesCache(t *testing.T) {
	cache := newFakeCache()
	svc := newService(t, cache)
	ctx := context.Background()

	p, _ := svc.Create(ctx, CreateInput{Slug: "home", Title: "Home"})

	if _, err := svc.Render(ctx, RenderInput{PageID: p.ID, Editing: true}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(cache.values) != 0 {
		t.Fatalf("edit render polluted the cache: %v", cache.values)
	}
}

func TestMutationsInvalidateCache(t *testing.T) {
	cache := newFakeCache()
	svc := newService(t, cache)
	ctx := context.Background()

	p, _ := svc.Create(ctx, CreateInput{Slug: "home", Title: "Home"})
	if _, err := svc.Render(ctx, RenderInput{PageID: p.ID}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(cache.values) != 1 {
		t.Fatal("expected cached render before mutation")
	}

	if _, err := svc.SetBlocks(ctx, p.ID, []block.PageBlockItem{{ID: "d", Type: blocks.TypeDivider}}); err != nil {
		t.Fatalf("set blocks: %v", err)
	}
	if len(cache.values) != 0 {
		t.Fatalf("cache not invalidated on block change: %v", cache.values)
	}

	if err := svc.Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(cache.deletes) != 2 {
		t.Fatalf("expected 2 invalidations, got %v", cache.deletes)
	}
}
