// Package pages manages storefront pages: CRUD over the page store, block
// list replacement, and cached rendering through the storefront registry.
package pages

import (
	"context"
	"fmt"
	"html/template"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/storeadmin/blocklayer/internal/app/domain/block"
	"github.com/storeadmin/blocklayer/internal/app/domain/page"
	"github.com/storeadmin/blocklayer/internal/app/metrics"
	"github.com/storeadmin/blocklayer/internal/app/registry"
	"github.com/storeadmin/blocklayer/internal/app/render"
	"github.com/storeadmin/blocklayer/internal/app/storage"
	"github.com/storeadmin/blocklayer/pkg/logger"
)

// RenderCache caches rendered page HTML. Implementations are best-effort;
// a miss on failure is acceptable.
type RenderCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string)
	DeletePrefix(ctx context.Context, prefix string)
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Service manages storefront pages.
type Service struct {
	store    storage.PageStore
	registry *registry.Registry
	renderer *render.Renderer
	cache    RenderCache
	log      *logger.Logger
}

// New constructs a page service rendering through the given storefront
// registry. The cache may be nil, in which case every render is computed.
func New(store storage.PageStore, reg *registry.Registry, cache RenderCache, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("pages")
	}
	return &Service{
		store:    store,
		registry: reg,
		renderer: render.New(reg.Lookup(), log),
		cache:    cache,
		log:      log,
	}
}

// CreateInput is the caller-supplied part of a new page.
type CreateInput struct {
	Slug   string
	Title  string
	Locale string
}

// Create makes a new draft page with no blocks.
func (s *Service) Create(ctx context.Context, in CreateInput) (page.Page, error) {
	in.Slug = strings.TrimSpace(in.Slug)
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return page.Page{}, fmt.Errorf("page title is required")
	}
	if !slugPattern.MatchString(in.Slug) {
		return page.Page{}, fmt.Errorf("invalid page slug %q", in.Slug)
	}
	if in.Locale == "" {
		in.Locale = "en"
	}

	p, err := s.store.CreatePage(ctx, page.Page{
		ID:     uuid.NewString(),
		Slug:   in.Slug,
		Title:  in.Title,
		Status: page.StatusDraft,
		Locale: in.Locale,
		Blocks: []block.Config{},
	})
	if err != nil {
		return page.Page{}, err
	}
	s.log.WithField("page_id", p.ID).WithField("slug", p.Slug).Info("page created")
	return p, nil
}

// UpdateInput carries the optional metadata fields a page update may set.
// Nil fields keep their current value.
type UpdateInput struct {
	Slug   *string
	Title  *string
	Status *string
	Locale *string
}

// Update patches page metadata. Blocks are untouched; use SetBlocks.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (page.Page, error) {
	p, err := s.store.GetPage(ctx, id)
	if err != nil {
		return page.Page{}, err
	}

	if in.Slug != nil {
		slug := strings.TrimSpace(*in.Slug)
		if !slugPattern.MatchString(slug) {
			return page.Page{}, fmt.Errorf("invalid page slug %q", slug)
		}
		p.Slug = slug
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return page.Page{}, fmt.Errorf("page title is required")
		}
		p.Title = title
	}
	if in.Status != nil {
		switch *in.Status {
		case page.StatusDraft, page.StatusPublished:
			p.Status = *in.Status
		default:
			return page.Page{}, fmt.Errorf("invalid page status %q", *in.Status)
		}
	}
	if in.Locale != nil && *in.Locale != "" {
		p.Locale = *in.Locale
	}

	updated, err := s.store.UpdatePage(ctx, p)
	if err != nil {
		return page.Page{}, err
	}
	s.invalidate(ctx, id)
	return updated, nil
}

// Get returns a page by id.
func (s *Service) Get(ctx context.Context, id string) (page.Page, error) {
	return s.store.GetPage(ctx, id)
}

// GetBySlug returns a page by its slug.
func (s *Service) GetBySlug(ctx context.Context, slug string) (page.Page, error) {
	return s.store.GetPageBySlug(ctx, slug)
}

// List returns all pages.
func (s *Service) List(ctx context.Context) ([]page.Page, error) {
	return s.store.ListPages(ctx)
}

// Delete removes a page and drops its cached renders.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeletePage(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	s.log.WithField("page_id", id).Info("page deleted")
	return nil
}

// SetBlocks replaces the page's block list from its wire form. Items with
// no id get one assigned; duplicate ids are rejected.
func (s *Service) SetBlocks(ctx context.Context, id string, items []block.PageBlockItem) (page.Page, error) {
	p, err := s.store.GetPage(ctx, id)
	if err != nil {
		return page.Page{}, err
	}

	seen := make(map[string]bool, len(items))
	for i := range items {
		if items[i].Type == "" {
			return page.Page{}, fmt.Errorf("block at index %d has no type", i)
		}
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
		}
		if seen[items[i].ID] {
			return page.Page{}, fmt.Errorf("duplicate block id %s", items[i].ID)
		}
		seen[items[i].ID] = true
	}

	p.Blocks = block.FromWire(items)
	updated, err := s.store.UpdatePage(ctx, p)
	if err != nil {
		return page.Page{}, err
	}
	s.invalidate(ctx, id)
	s.log.WithField("page_id", id).WithField("blocks", len(items)).Info("page blocks replaced")
	return updated, nil
}

// RenderInput selects the page and render variant.
type RenderInput struct {
	PageID  string
	Locale  string
	Editing bool
}

// Render renders the page's blocks to HTML. View-mode renders are served
// from the cache when available; edit-mode renders never touch the cache.
func (s *Service) Render(ctx context.Context, in RenderInput) (template.HTML, error) {
	p, err := s.store.GetPage(ctx, in.PageID)
	if err != nil {
		return "", err
	}

	locale := in.Locale
	if locale == "" {
		locale = p.Locale
	}

	start := time.Now()
	key := renderKey(p.ID, locale)
	if !in.Editing && s.cache != nil {
		if cached, ok := s.cache.Get(ctx, key); ok {
			metrics.RecordPageRender(time.Since(start), true)
			return template.HTML(cached), nil
		}
	}

	html, err := s.renderer.Render(ctx, render.Input{
		Blocks:  p.Blocks,
		Locale:  locale,
		Editing: in.Editing,
	})
	if err != nil {
		return "", err
	}
	metrics.RecordPageRender(time.Since(start), false)

	if !in.Editing && s.cache != nil {
		s.cache.Set(ctx, key, string(html))
	}
	return html, nil
}

func (s *Service) invalidate(ctx context.Context, pageID string) {
	if s.cache != nil {
		s.cache.DeletePrefix(ctx, renderPrefix(pageID))
	}
}

func renderPrefix(pageID string) string {
	return "render:page:" + pageID + ":"
}

func renderKey(pageID, locale string) string {
	return renderPrefix(pageID) + locale
}
