package block

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// DashboardLayout arranges dashboard blocks in two named columns: left is
// the wide column, right the narrow one.
type DashboardLayout struct {
	Left  []Config `json:"left"`
	Right []Config `json:"right"`
}

// Clone copies the layout and every block in it.
func (l DashboardLayout) Clone() DashboardLayout {
	return DashboardLayout{Left: CloneList(l.Left), Right: CloneList(l.Right)}
}

// DefaultDashboardLayout is the layout used when a user has never saved one
// or the persisted value cannot be interpreted.
func DefaultDashboardLayout() DashboardLayout {
	return DashboardLayout{
		Left: []Config{
			{ID: "default-store-stats", Type: "store_stats", Settings: map[string]any{}, Data: map[string]any{}},
			{ID: "default-orders-chart", Type: "store_orders_chart", Settings: map[string]any{}, Data: map[string]any{}},
		},
		Right: []Config{},
	}
}

// Normalize interprets a persisted layout value of any historical shape.
//
// Precedence: an object carrying both "left" and "right" keys is the current
// two-column shape (non-array columns become empty lists); a non-empty array
// is the legacy flat shape and becomes the left column; anything else falls
// back to the default layout. Normalize is total and never returns an error;
// the next save always writes the two-column shape.
func Normalize(raw []byte) DashboardLayout {
	parsed := gjson.ParseBytes(raw)

	if parsed.IsObject() {
		left := parsed.Get("left")
		right := parsed.Get("right")
		if left.Exists() && right.Exists() {
			return DashboardLayout{
				Left:  coerceList(left),
				Right: coerceList(right),
			}
		}
		return DefaultDashboardLayout()
	}

	if parsed.IsArray() {
		legacy := coerceList(parsed)
		if len(legacy) > 0 {
			return DashboardLayout{Left: legacy, Right: []Config{}}
		}
	}

	return DefaultDashboardLayout()
}

func coerceList(value gjson.Result) []Config {
	if !value.IsArray() {
		return []Config{}
	}
	var list []Config
	if err := json.Unmarshal([]byte(value.Raw), &list); err != nil {
		return []Config{}
	}
	for i := range list {
		if list[i].Settings == nil {
			list[i].Settings = map[string]any{}
		}
		if list[i].Data == nil {
			list[i].Data = map[string]any{}
		}
	}
	if list == nil {
		list = []Config{}
	}
	return list
}
