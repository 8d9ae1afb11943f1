package blocks

import (
	"context"
	"html/template"

	"github.com/storeadmin/blocklayer/internal/app/domain/block"
	"github.com/storeadmin/blocklayer/internal/app/domain/stats"
	"github.com/storeadmin/blocklayer/internal/app/registry"
	"github.com/storeadmin/blocklayer/internal/app/render"
)

// Dashboard block types.
const (
	TypeStoreStats       = "store_stats"
	TypeStoreOrdersChart = "store_orders_chart"
	TypeRecentOrders     = "recent_orders"
	TypeLowStock         = "low_stock"
)

// DashboardEntries returns the core entry set for the dashboard registry.
func DashboardEntries() []registry.Entry {
	return []registry.Entry{
		storeStatsEntry(),
		ordersChartEntry(),
		recentOrdersEntry(),
		lowStockEntry(),
	}
}

// --- store_stats -------------------------------------------------------------

type storeStatsSettings struct {
	Title  string `json:"title"`
	Period string `json:"period"`
}

var storeStatsTemplate = mustTemplate("store_stats", `<section class="stats-block">
<h2>{{.Title}}</h2>
{{- if .Resolved}}
<dl class="stats-grid">
<div><dt>Orders</dt><dd>{{.Stats.Orders}}</dd></div>
<div><dt>Revenue</dt><dd>{{.Stats.Currency}} {{printf "%.2f" .Stats.Revenue}}</dd></div>
<div><dt>Customers</dt><dd>{{.Stats.Customers}}</dd></div>
</dl>
{{- else}}
<p class="stats-loading">Statistics unavailable.</p>
{{- end}}
</section>`)

type storeStatsBlock struct{}

func (storeStatsBlock) RenderBlock(_ context.Context, rc render.Context) (template.HTML, error) {
	var cfg storeStatsSettings
	if err := decodeSettings(rc.Settings, &cfg); err != nil {
		return "", err
	}
	if cfg.Title == "" {
		cfg.Title = "Store statistics"
	}

	snap, resolved := rc.ResolvedData.(stats.Snapshot)
	return renderTemplate(storeStatsTemplate, map[string]any{
		"Title":    cfg.Title,
		"Resolved": resolved,
		"Stats":    snap,
	})
}

func storeStatsEntry() registry.Entry {
	def := block.Definition{
		Type:        TypeStoreStats,
		Name:        "Store statistics",
		Description: "Headline order, revenue, and customer counters.",
		Category:    "analytics",
		SettingsSchema: map[string]block.SettingsField{
			"title":  {Kind: "text", Label: "Title"},
			"period": {Kind: "text", Label: "Period", Help: "Reporting period, e.g. 30d."},
		},
		DefaultSettings: map[string]any{"title": "Store statistics", "period": "30d"},
	}
	return registry.Entry{Definition: def, Renderer: storeStatsBlock{}, SettingsEditor: NewSchemaEditor(def)}
}

// --- store_orders_chart ------------------------------------------------------

type ordersChartSettings struct {
	Title string `json:"title"`
	Days  int    `json:"days"`
}

var ordersChartTemplate = mustTemplate("store_orders_chart", `<section class="orders-chart-block">
<h2>{{.Title}}</h2>
{{- if .Points}}
<ol class="chart-bars" data-days="{{.Days}}">
{{- range .Points}}
<li data-date="{{.Date}}" data-orders="{{.Orders}}">{{.Date}}: {{.Orders}}</li>
{{- end}}
</ol>
{{- else}}
<p class="chart-empty">No orders in this period.</p>
{{- end}}
</section>`)

type ordersChartBlock struct{}

func (ordersChartBlock) RenderBlock(_ context.Context, rc render.Context) (template.HTML, error) {
	var cfg ordersChartSettings
	if err := decodeSettings(rc.Settings, &cfg); err != nil {
		return "", err
	}
	if cfg.Title == "" {
		cfg.Title = "Orders"
	}
	if cfg.Days <= 0 {
		cfg.Days = 14
	}

	points, _ := rc.ResolvedData.([]stats.DailyCount)
	return renderTemplate(ordersChartTemplate, map[string]any{
		"Title":  cfg.Title,
		"Days":   cfg.Days,
		"Points": points,
	})
}

func ordersChartEntry() registry.Entry {
	def := block.Definition{
		Type:        TypeStoreOrdersChart,
		Name:        "Orders chart",
		Description: "Daily order volume over a rolling window.",
		Category:    "analytics",
		SettingsSchema: map[string]block.SettingsField{
			"title": {Kind: "text", Label: "Title"},
			"days":  {Kind: "number", Label: "Days", Help: "Window length in days."},
		},
		DefaultSettings: map[string]any{"title": "Orders", "days": 14},
	}
	return registry.Entry{Definition: def, Renderer: ordersChartBlock{}, SettingsEditor: NewSchemaEditor(def)}
}

// --- recent_orders -----------------------------------------------------------

type recentOrdersSettings struct {
	Title string `json:"title"`
	Limit int    `json:"limit"`
}

var recentOrdersTemplate = mustTemplate("recent_orders", `<section class="recent-orders-block">
<h2>{{.Title}}</h2>
{{- if .Orders}}
<table class="orders-table">
<thead><tr><th>Order</th><th>Customer</th><th>Total</th><th>Status</th></tr></thead>
<tbody>
{{- range .Orders}}
<tr data-order-id="{{.ID}}"><td>{{.Number}}</td><td>{{.CustomerName}}</td><td>{{printf "%.2f" .Total}}</td><td>{{.Status}}</td></tr>
{{- end}}
</tbody>
</table>
{{- else}}
<p class="orders-empty">No recent orders.</p>
{{- end}}
</section>`)

type recentOrdersBlock struct{}

func (recentOrdersBlock) RenderBlock(_ context.Context, rc render.Context) (template.HTML, error) {
	var cfg recentOrdersSettings
	if err := decodeSettings(rc.Settings, &cfg); err != nil {
		return "", err
	}
	if cfg.Title == "" {
		cfg.Title = "Recent orders"
	}

	orders, _ := rc.ResolvedData.([]stats.Order)
	return renderTemplate(recentOrdersTemplate, map[string]any{
		"Title":  cfg.Title,
		"Orders": orders,
	})
}

func recentOrdersEntry() registry.Entry {
	def := block.Definition{
		Type:        TypeRecentOrders,
		Name:        "Recent orders",
		Description: "The most recently placed orders.",
		Category:    "orders",
		SettingsSchema: map[string]block.SettingsField{
			"title": {Kind: "text", Label: "Title"},
			"limit": {Kind: "number", Label: "Limit", Help: "Number of orders to show."},
		},
		DefaultSettings: map[string]any{"title": "Recent orders", "limit": 5},
	}
	return registry.Entry{Definition: def, Renderer: recentOrdersBlock{}, SettingsEditor: NewSchemaEditor(def)}
}

// --- low_stock ---------------------------------------------------------------

type lowStockSettings struct {
	Title     string `json:"title"`
	Threshold int    `json:"threshold"`
}

var lowStockTemplate = mustTemplate("low_stock", `<section class="low-stock-block">
<h2>{{.Title}}</h2>
{{- if .Items}}
<ul class="stock-list">
{{- range .Items}}
<li data-product-id="{{.ProductID}}">{{.Name}} ({{.SKU}}): {{.Quantity}} left</li>
{{- end}}
</ul>
{{- else}}
<p class="stock-ok">All products sufficiently stocked.</p>
{{- end}}
</section>`)

type lowStockBlock struct{}

func (lowStockBlock) RenderBlock(_ context.Context, rc render.Context) (template.HTML, error) {
	var cfg lowStockSettings
	if err := decodeSettings(rc.Settings, &cfg); err != nil {
		return "", err
	}
	if cfg.Title == "" {
		cfg.Title = "Low stock"
	}

	items, _ := rc.ResolvedData.([]stats.StockItem)
	return renderTemplate(lowStockTemplate, map[string]any{
		"Title": cfg.Title,
		"Items": items,
	})
}

func lowStockEntry() registry.Entry {
	def := block.Definition{
		Type:        TypeLowStock,
		Name:        "Low stock",
		Description: "Products at or below the inventory threshold.",
		Category:    "inventory",
		SettingsSchema: map[string]block.SettingsField{
			"title":     {Kind: "text", Label: "Title"},
			"threshold": {Kind: "number", Label: "Threshold", Help: "Alert when quantity is at or below this value."},
		},
		DefaultSettings: map[string]any{"title": "Low stock", "threshold": 5},
	}
	return registry.Entry{Definition: def, Renderer: lowStockBlock{}, SettingsEditor: NewSchemaEditor(def)}
}
