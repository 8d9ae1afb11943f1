// Package layouts manages per-user dashboard layouts: loading and
// normalizing the persisted value, saving whole layouts, and resolving the
// derived data dashboard blocks render from.
package layouts

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/storeadmin/blocklayer/internal/app/blocks"
	"github.com/storeadmin/blocklayer/internal/app/domain/block"
	"github.com/storeadmin/blocklayer/internal/app/metrics"
	"github.com/storeadmin/blocklayer/internal/app/storage"
	"github.com/storeadmin/blocklayer/pkg/logger"
)

// SettingKey is the user-settings key the dashboard layout lives under.
const SettingKey = "dashboard_layout"

// Service loads and saves dashboard layouts.
type Service struct {
	settings storage.SettingsStore
	stats    storage.StatsStore
	log      *logger.Logger
}

// New constructs a layout service. The stats store may be nil; resolution
// is skipped without it.
func New(settings storage.SettingsStore, stats storage.StatsStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("layouts")
	}
	return &Service{
		settings: settings,
		stats:    stats,
		log:      log,
	}
}

// Get returns the user's dashboard layout. A missing or uninterpretable
// persisted value falls back to the default layout; Get never fails the
// caller over a load problem.
func (s *Service) Get(ctx context.Context, userID string) (block.DashboardLayout, error) {
	if strings.TrimSpace(userID) == "" {
		return block.DashboardLayout{}, fmt.Errorf("user id is required")
	}

	raw, err := s.settings.GetSetting(ctx, userID, SettingKey)
	if err != nil {
		s.log.WithField("user_id", userID).Debug("no stored dashboard layout, using default")
		return block.DefaultDashboardLayout(), nil
	}
	return block.Normalize(raw), nil
}

// Save replaces the user's dashboard layout. The write is whole-value;
// the layout is always persisted in the two-column shape.
func (s *Service) Save(ctx context.Context, userID string, layout block.DashboardLayout) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("user id is required")
	}
	if layout.Left == nil {
		layout.Left = []block.Config{}
	}
	if layout.Right == nil {
		layout.Right = []block.Config{}
	}
	if err := validateLayout(layout); err != nil {
		metrics.RecordLayoutSave(err)
		return err
	}

	// ResolvedData is derived; strip it so it never round-trips through
	// the settings store.
	layout = stripResolved(layout)

	raw, err := json.Marshal(layout)
	if err != nil {
		metrics.RecordLayoutSave(err)
		return fmt.Errorf("encode layout: %w", err)
	}

	err = s.settings.SetSetting(ctx, userID, SettingKey, raw)
	metrics.RecordLayoutSave(err)
	if err != nil {
		return err
	}

	s.log.WithField("user_id", userID).
		WithField("left_blocks", len(layout.Left)).
		WithField("right_blocks", len(layout.Right)).
		Info("dashboard layout saved")
	return nil
}

// Resolve attaches server-resolved data to the stats-backed dashboard
// blocks. Blocks whose data cannot be fetched keep a nil ResolvedData and
// render their empty state; one failed widget never fails the dashboard.
func (s *Service) Resolve(ctx context.Context, layout block.DashboardLayout) block.DashboardLayout {
	if s.stats == nil {
		return layout
	}
	out := layout.Clone()
	s.resolveList(ctx, out.Left)
	s.resolveList(ctx, out.Right)
	return out
}

func (s *Service) resolveList(ctx context.Context, list []block.Config) {
	for i := range list {
		resolved, err := s.resolveBlock(ctx, list[i])
		if err != nil {
			s.log.WithError(err).
				WithField("block_id", list[i].ID).
				WithField("block_type", list[i].Type).
				Warn("resolve block data")
			continue
		}
		list[i].ResolvedData = resolved
	}
}

func (s *Service) resolveBlock(ctx context.Context, blk block.Config) (any, error) {
	switch blk.Type {
	case blocks.TypeStoreStats:
		return s.stats.StoreStats(ctx)
	case blocks.TypeStoreOrdersChart:
		return s.stats.DailyOrders(ctx, settingInt(blk.Settings, "days", 14))
	case blocks.TypeRecentOrders:
		return s.stats.RecentOrders(ctx, settingInt(blk.Settings, "limit", 5))
	case blocks.TypeLowStock:
		return s.stats.LowStock(ctx, settingInt(blk.Settings, "threshold", 5))
	default:
		return nil, nil
	}
}

func validateLayout(layout block.DashboardLayout) error {
	seen := make(map[string]bool, len(layout.Left)+len(layout.Right))
	for _, list := range [][]block.Config{layout.Left, layout.Right} {
		for _, blk := range list {
			if blk.ID == "" {
				return fmt.Errorf("block of type %s has no id", blk.Type)
			}
			if seen[blk.ID] {
				return fmt.Errorf("duplicate block id %s", blk.ID)
			}
			seen[blk.ID] = true
		}
	}
	return nil
}

// stripResolved copies the columns so the caller's blocks keep their
// resolved data.
func stripResolved(layout block.DashboardLayout) block.DashboardLayout {
	left := make([]block.Config, len(layout.Left))
	copy(left, layout.Left)
	right := make([]block.Config, len(layout.Right))
	copy(right, layout.Right)
	for i := range left {
		left[i].ResolvedData = nil
	}
	for i := range right {
		right[i].ResolvedData = nil
	}
	return block.DashboardLayout{Left: left, Right: right}
}

// settingInt reads a numeric setting, tolerating the float64 values JSON
// decoding produces.
func settingInt(settings map[string]any, key string, fallback int) int {
	switch v := settings[key].(type) {
	case int:
		if v > 0 {
			return v
		}
	case float64:
		if v > 0 {
			return int(v)
		}
	case json.Number:
		if n, err := v.Int64(); err == nil && n > 0 {
			return int(n)
		}
	}
	return fallback
}
