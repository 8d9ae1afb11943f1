package block

// PageBlockItem is the on-wire form of a placed block inside a page
// resource. Empty settings and data bags are omitted entirely to keep
// payloads small.
type PageBlockItem struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Settings map[string]any `json:"settings,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// ToWire converts a block list to its page wire form.
func ToWire(blocks []Config) []PageBlockItem {
	items := make([]PageBlockItem, 0, len(blocks))
	for _, b := range blocks {
		item := PageBlockItem{ID: b.ID, Type: b.Type}
		if len(b.Settings) > 0 {
			item.Settings = cloneBag(b.Settings)
		}
		if len(b.Data) > 0 {
			item.Data = cloneBag(b.Data)
		}
		items = append(items, item)
	}
	return items
}

// FromWire converts page wire items back to block configs, restoring empty
// bags so downstream code never sees nil maps.
func FromWire(items []PageBlockItem) []Config {
	blocks := make([]Config, 0, len(items))
	for _, item := range items {
		b := Config{ID: item.ID, Type: item.Type, Settings: item.Settings, Data: item.Data}
		if b.Settings == nil {
			b.Settings = map[string]any{}
		}
		if b.Data == nil {
			b.Data = map[string]any{}
		}
		blocks = append(blocks, b)
	}
	return blocks
}
