// Package block defines the block composition model: block type metadata,
// placed block instances, and the dashboard layout shape.
package block

// SettingsField describes one settings entry for auto-generated editor UIs.
// It is advisory only; settings bags are not validated against it.
type SettingsField struct {
	Kind  string `json:"kind"`
	Label string `json:"label"`
	Help  string `json:"help,omitempty"`
}

// Definition is the static, registry-side metadata for one block type.
type Definition struct {
	Type            string                   `json:"type"`
	Name            string                   `json:"name"`
	Description     string                   `json:"description,omitempty"`
	Category        string                   `json:"category,omitempty"`
	SettingsSchema  map[string]SettingsField `json:"settings_schema,omitempty"`
	DefaultSettings map[string]any           `json:"default_settings,omitempty"`
	DefaultData     map[string]any           `json:"default_data,omitempty"`
}

// Config is one placed instance of a block within a page or column. Order
// within the containing list is the only position concept.
type Config struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Settings     map[string]any `json:"settings"`
	Data         map[string]any `json:"data"`
	ResolvedData any            `json:"resolvedData,omitempty"`
}

// Clone returns a copy of the config with its settings and data bags copied
// one level deep. ResolvedData is shared; it is derived, never edited.
func (c Config) Clone() Config {
	out := c
	out.Settings = cloneBag(c.Settings)
	out.Data = cloneBag(c.Data)
	return out
}

// NewConfig seeds a fresh instance from a definition, copying its defaults.
func NewConfig(id string, def Definition) Config {
	return Config{
		ID:       id,
		Type:     def.Type,
		Settings: cloneBag(def.DefaultSettings),
		Data:     cloneBag(def.DefaultData),
	}
}

func cloneBag(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// CloneList copies a block list, cloning each element.
func CloneList(in []Config) []Config {
	out := make([]Config, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}
