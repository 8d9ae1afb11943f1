// Package storage defines the persistence interfaces for the block service.
package storage

import (
	"context"
	"encoding/json"

	"github.com/storeadmin/blocklayer/internal/app/domain/page"
	"github.com/storeadmin/blocklayer/internal/app/domain/stats"
)

// SettingsStore persists per-user settings values. Each value is an opaque
// JSON document under a string key; writes replace the whole value.
type SettingsStore interface {
	GetSetting(ctx context.Context, userID, key string) (json.RawMessage, error)
	SetSetting(ctx context.Context, userID, key string, value json.RawMessage) error
	ListSettings(ctx context.Context, userID string) (map[string]json.RawMessage, error)
}

// PageStore persists CMS pages, blocks included.
type PageStore interface {
	CreatePage(ctx context.Context, p page.Page) (page.Page, error)
	UpdatePage(ctx context.Context, p page.Page) (page.Page, error)
	GetPage(ctx context.Context, id string) (page.Page, error)
	GetPageBySlug(ctx context.Context, slug string) (page.Page, error)
	ListPages(ctx context.Context) ([]page.Page, error)
	DeletePage(ctx context.Context, id string) error
}

// StatsStore reads store metrics for the dashboard blocks. The figures come
// from the commerce schema; this service only reads them.
type StatsStore interface {
	StoreStats(ctx context.Context) (stats.Snapshot, error)
	DailyOrders(ctx context.Context, days int) ([]stats.DailyCount, error)
	RecentOrders(ctx context.Context, limit int) ([]stats.Order, error)
	LowStock(ctx context.Context, threshold int) ([]stats.StockItem, error)
}
