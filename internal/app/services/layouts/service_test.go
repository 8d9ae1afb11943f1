package layouts

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/storeadmin/blocklayer/internal/app/blocks"
	"github.com/storeadmin/blocklayer/internal/app/domain/block"
	"github.com/storeadmin/blocklayer/internal/app/domain/stats"
	"github.com/storeadmin/blocklayer/internal/app/storage/memory"
)

func newService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	return New(store, store, nil), store
}

func TestGetReturnsDefaultForNewUser(t *testing.T) {
	svc, _ := newService(t)

	layout, err := svc.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	want := block.DefaultDashboardLayout()
	if len(layout.Left) != len(want.Left) {
		t.Fatalf("expected default layout, got %+v", layout)
	}
}

func TestGetRequiresUserID(t *testing.T) {
	svc, _ := newService(t)
	if _, err := svc.Get(context.Background(), "  "); err == nil {
		t.Fatal("expected error for blank user id")
	}
}

func TestSaveThenGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	saved := block.DashboardLayout{
		Left:  []block.Config{{ID: "a", Type: blocks.TypeRecentOrders, Settings: map[string]any{"limit": 3}, Data: map[string]any{}}},
		Right: []block.Config{{ID: "b", Type: blocks.TypeLowStock, Settings: map[string]any{}, Data: map[string]any{}}},
	}
	if err := svc.Save(ctx, "u1", saved); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := svc.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(loaded.Left) != 1 || loaded.Left[0].ID != "a" {
		t.Fatalf("left column lost: %+v", loaded.Left)
	}
	if len(loaded.Right) != 1 || loaded.Right[0].ID != "b" {
		t.Fatalf("right column lost: %+v", loaded.Right)
	}
}

func TestSaveNormalizesNilColumns(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	if err := svc.Save(ctx, "u1", block.DashboardLayout{}); err != nil {
		t.Fatalf("save: %v", err)
	}

	raw, err := store.GetSetting(ctx, "u1", SettingKey)
	if err != nil {
		t.Fatalf("raw read: %v", err)
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(decoded["left"]) != "[]" || string(decoded["right"]) != "[]" {
		t.Fatalf("expected empty arrays persisted, got %s", raw)
	}
}

func TestSaveRejectsDuplicateBlockIDs(t *testing.T) {
	svc, _ := newService(t)

	err := svc.Save(context.Background(), "u1", block.DashboardLayout{
		Left:  []block.Config{{ID: "same", Type: "store_stats"}},
		Right: []block.Config{{ID: "same", Type: "low_stock"}},
	})
	if err == nil {
		t.Fatal("expected duplicate id rejection")
	}
}

func TestSaveStripsResolvedData(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	layout := block.DashboardLayout{
		Left: []block.Config{{
			ID:           "a",
			Type:         blocks.TypeStoreStats,
			Settings:     map[string]any{},
			Data:         map[string]any{},
			ResolvedData: stats.Snapshot{Orders: 9},
		}},
	}
	if err := svc.Save(ctx, "u1", layout); err != nil {
		t.Fatalf("save: %v", err)
	}

	raw, _ := store.GetSetting(ctx, "u1", SettingKey)
	if !json.Valid(raw) {
		t.Fatalf("bad persisted value: %s", raw)
	}
	if strings.Contains(string(raw), "resolvedData") {
		t.Fatalf("resolved data persisted with layout: %s", raw)
	}
}

func TestGetNormalizesLegacyValue(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	legacy := json.RawMessage(`[{"id":"a","type":"store_stats"}]`)
	if err := store.SetSetting(ctx, "u1", SettingKey, legacy); err != nil {
		t.Fatalf("seed: %v", err)
	}

	layout, err := svc.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(layout.Left) != 1 || layout.Left[0].ID != "a" {
		t.Fatalf("legacy list not migrated to left column: %+v", layout)
	}
	if layout.Right == nil {
		t.Fatal("right column should be empty, not nil")
	}
}

func TestResolveAttachesStatsData(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	store.SeedStats(stats.Snapshot{Orders: 42, Revenue: 1000, Customers: 10, Currency: "USD"})
	store.SeedOrders([]stats.Order{{ID: "o1"}, {ID: "o2"}, {ID: "o3"}})
	store.SeedStock([]stats.StockItem{{ProductID: "p1", Quantity: 1}})

	layout := block.DashboardLayout{
		Left: []block.Config{
			{ID: "a", Type: blocks.TypeStoreStats, Settings: map[string]any{}},
			{ID: "b", Type: blocks.TypeRecentOrders, Settings: map[string]any{"limit": float64(2)}},
		},
		Right: []block.Config{
			{ID: "c", Type: blocks.TypeLowStock, Settings: map[string]any{}},
			{ID: "d", Type: "custom_widget", Settings: map[string]any{}},
		},
	}

	resolved := svc.Resolve(ctx, layout)

	snap, ok := resolved.Left[0].ResolvedData.(stats.Snapshot)
	if !ok || snap.Orders != 42 {
		t.Fatalf("store stats not resolved: %+v", resolved.Left[0].ResolvedData)
	}
	orders, ok := resolved.Left[1].ResolvedData.([]stats.Order)
	if !ok || len(orders) != 2 {
		t.Fatalf("recent orders not resolved with limit: %+v", resolved.Left[1].ResolvedData)
	}
	if _, ok := resolved.Right[0].ResolvedData.([]stats.StockItem); !ok {
		t.Fatalf("low stock not resolved: %+v", resolved.Right[0].ResolvedData)
	}
	if resolved.Right[1].ResolvedData != nil {
		t.Fatal("non-stats block should keep nil resolved data")
	}

	// The input layout is untouched.
	if layout.Left[0].ResolvedData != nil {
		t.Fatal("resolve mutated the input layout")
	}
}
