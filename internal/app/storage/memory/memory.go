// Package memory provides an in-memory implementation of the storage
// interfaces. It is safe for concurrent use and is primarily intended for
// tests and local development.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/storeadmin/blocklayer/internal/app/domain/block"
	"github.com/storeadmin/blocklayer/internal/app/domain/page"
	"github.com/storeadmin/blocklayer/internal/app/domain/stats"
	"github.com/storeadmin/blocklayer/internal/app/storage"
)

// Store is the in-memory store.
type Store struct {
	mu       sync.RWMutex
	nextID   int64
	settings map[string]map[string]json.RawMessage
	pages    map[string]page.Page
	bySlug   map[string]string

	stats  stats.Snapshot
	daily  []stats.DailyCount
	orders []stats.Order
	stock  []stats.StockItem
}

var _ storage.SettingsStore = (*Store)(nil)
var _ storage.PageStore = (*Store)(nil)
var _ storage.StatsStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:   1,
		settings: make(map[string]map[string]json.RawMessage),
		pages:    make(map[string]page.Page),
		bySlug:   make(map[string]string),
	}
}

func (s *Store) nextIDLocked() string {
	id := s.nextID
	s.nextID++
	return fmt.Sprintf("%d", id)
}

// SettingsStore implementation ------------------------------------------------

func (s *Store) GetSetting(_ context.Context, userID, key string) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values, ok := s.settings[userID]
	if !ok {
		return nil, fmt.Errorf("setting %s for user %s not found", key, userID)
	}
	value, ok := values[key]
	if !ok {
		return nil, fmt.Errorf("setting %s for user %s not found", key, userID)
	}
	return cloneRaw(value), nil
}

func (s *Store) SetSetting(_ context.Context, userID, key string, value json.RawMessage) error {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(key) == "" {
		return fmt.Errorf("user id and key are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	values, ok := s.settings[userID]
	if !ok {
		values = make(map[string]json.RawMessage)
		s.settings[userID] = values
	}
	values[key] = cloneRaw(value)
	return nil
}

func (s *Store) ListSettings(_ context.Context, userID string) (map[string]json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]json.RawMessage, len(s.settings[userID]))
	for k, v := range s.settings[userID] {
		out[k] = cloneRaw(v)
	}
	return out, nil
}

// PageStore implementation ----------------------------------------------------

func (s *Store) CreatePage(_ context.Context, p page.Page) (page.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = s.nextIDLocked()
	} else if _, exists := s.pages[p.ID]; exists {
		return page.Page{}, fmt.Errorf("page %s already exists", p.ID)
	}
	if p.Slug != "" {
		if _, exists := s.bySlug[p.Slug]; exists {
			return page.Page{}, fmt.Errorf("page slug %s already in use", p.Slug)
		}
	}

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.Blocks = block.CloneList(p.Blocks)

	s.pages[p.ID] = p
	if p.Slug != "" {
		s.bySlug[p.Slug] = p.ID
	}
	return clonePage(p), nil
}

func (s *Store) UpdatePage(_ context.Context, p page.Page) (page.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.pages[p.ID]
	if !ok {
		return page.Page{}, fmt.Errorf("page %s not found", p.ID)
	}
	if p.Slug != original.Slug {
		if owner, exists := s.bySlug[p.Slug]; exists && owner != p.ID {
			return page.Page{}, fmt.Errorf("page slug %s already in use", p.Slug)
		}
		delete(s.bySlug, original.Slug)
		if p.Slug != "" {
			s.bySlug[p.Slug] = p.ID
		}
	}

	p.CreatedAt = original.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	p.Blocks = block.CloneList(p.Blocks)

	s.pages[p.ID] = p
	return clonePage(p), nil
}

func (s *Store) GetPage(_ context.Context, id string) (page.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.pages[id]
	if !ok {
		return page.Page{}, fmt.Errorf("page %s not found", id)
	}
	return clonePage(p), nil
}

func (s *Store) GetPageBySlug(_ context.Context, slug string) (page.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.bySlug[slug]
	if !ok {
		return page.Page{}, fmt.Errorf("page with slug %s not found", slug)
	}
	return clonePage(s.pages[id]), nil
}

func (s *Store) ListPages(_ context.Context) ([]page.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]page.Page, 0, len(s.pages))
	for _, p := range s.pages {
		result = append(result, clonePage(p))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *Store) DeletePage(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pages[id]
	if !ok {
		return fmt.Errorf("page %s not found", id)
	}
	delete(s.pages, id)
	delete(s.bySlug, p.Slug)
	return nil
}

// StatsStore implementation ---------------------------------------------------

func (s *Store) StoreStats(_ context.Context) (stats.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats, nil
}

func (s *Store) DailyOrders(_ context.Context, days int) ([]stats.DailyCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.daily
	if days > 0 && len(out) > days {
		out = out[len(out)-days:]
	}
	result := make([]stats.DailyCount, len(out))
	copy(result, out)
	return result, nil
}

func (s *Store) RecentOrders(_ context.Context, limit int) ([]stats.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.orders
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	result := make([]stats.Order, len(out))
	copy(result, out)
	return result, nil
}

func (s *Store) LowStock(_ context.Context, threshold int) ([]stats.StockItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []stats.StockItem
	for _, item := range s.stock {
		if threshold <= 0 || item.Quantity <= int64(threshold) {
			result = append(result, item)
		}
	}
	return result, nil
}

// Seed helpers for tests and local development --------------------------------

// SeedStats sets the headline counters.
func (s *Store) SeedStats(snap stats.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = snap
}

// SeedDailyOrders sets the daily order series, oldest first.
func (s *Store) SeedDailyOrders(daily []stats.DailyCount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.daily = append([]stats.DailyCount(nil), daily...)
}

// SeedOrders sets the recent order list, newest first.
func (s *Store) SeedOrders(orders []stats.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append([]stats.Order(nil), orders...)
}

// SeedStock sets the inventory list.
func (s *Store) SeedStock(items []stats.StockItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stock = append([]stats.StockItem(nil), items...)
}

func cloneRaw(in json.RawMessage) json.RawMessage {
	if in == nil {
		return nil
	}
	out := make(json.RawMessage, len(in))
	copy(out, in)
	return out
}

func clonePage(p page.Page) page.Page {
	out := p
	out.Blocks = block.CloneList(p.Blocks)
	return out
}
