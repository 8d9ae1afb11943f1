// Package blocks provides the built-in block types for the dashboard and
// storefront registries. Each block type decodes its settings bag into its
// own record type and renders through html/template.
package blocks

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"sort"
	"strings"

	"github.com/storeadmin/blocklayer/internal/app/domain/block"
	"github.com/storeadmin/blocklayer/internal/app/registry"
	"github.com/storeadmin/blocklayer/internal/app/render"
	"github.com/storeadmin/blocklayer/pkg/logger"
)

// NewDashboardRegistry returns a registry pre-populated with the built-in
// dashboard blocks plus any extension entries.
func NewDashboardRegistry(log *logger.Logger, extensions ...registry.Entry) *registry.Registry {
	r := registry.New("dashboard", DashboardEntries(), log)
	if len(extensions) > 0 {
		r.Build(extensions)
	}
	return r
}

// NewStorefrontRegistry returns a registry pre-populated with the built-in
// storefront blocks plus any extension entries.
func NewStorefrontRegistry(log *logger.Logger, extensions ...registry.Entry) *registry.Registry {
	r := registry.New("storefront", StorefrontEntries(), log)
	if len(extensions) > 0 {
		r.Build(extensions)
	}
	return r
}

// decodeSettings maps a free-form settings bag onto a block's own settings
// record. Unknown keys are dropped, missing keys keep zero values.
func decodeSettings(bag map[string]any, dst any) error {
	raw, err := json.Marshal(bag)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode settings: %w", err)
	}
	return nil
}

func mustTemplate(name, text string) *template.Template {
	return template.Must(template.New(name).Parse(text))
}

func renderTemplate(t *template.Template, data any) (template.HTML, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return template.HTML(b.String()), nil
}

// schemaEditor generates a settings form from a definition's settings
// schema. Fields render in name order; the current value comes from the
// block's settings bag.
type schemaEditor struct {
	def block.Definition
}

// NewSchemaEditor returns the editor used by most built-in blocks.
func NewSchemaEditor(def block.Definition) render.SettingsEditor {
	return schemaEditor{def: def}
}

var settingsFormTemplate = mustTemplate("settings_form", `<form class="block-settings" data-block-id="{{.BlockID}}" data-block-type="{{.BlockType}}">
{{- range .Fields}}
<label class="settings-field settings-field-{{.Kind}}">
<span>{{.Label}}</span>
{{- if eq .Kind "toggle"}}
<input type="checkbox" name="{{.Name}}"{{if .Checked}} checked{{end}}>
{{- else if eq .Kind "number"}}
<input type="number" name="{{.Name}}" value="{{.Value}}">
{{- else if eq .Kind "textarea"}}
<textarea name="{{.Name}}">{{.Value}}</textarea>
{{- else}}
<input type="text" name="{{.Name}}" value="{{.Value}}">
{{- end}}
{{- if .Help}}
<small>{{.Help}}</small>
{{- end}}
</label>
{{- end}}
</form>`)

type settingsFormField struct {
	Name    string
	Kind    string
	Label   string
	Help    string
	Value   string
	Checked bool
}

func (e schemaEditor) RenderEditor(_ context.Context, rc render.Context) (template.HTML, error) {
	names := make([]string, 0, len(e.def.SettingsSchema))
	for name := range e.def.SettingsSchema {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]settingsFormField, 0, len(names))
	for _, name := range names {
		desc := e.def.SettingsSchema[name]
		field := settingsFormField{Name: name, Kind: desc.Kind, Label: desc.Label, Help: desc.Help}
		if field.Kind == "" {
			field.Kind = "text"
		}
		if current, ok := rc.Settings[name]; ok {
			switch v := current.(type) {
			case bool:
				field.Checked = v
			case string:
				field.Value = v
			default:
				field.Value = fmt.Sprintf("%v", v)
			}
		}
		fields = append(fields, field)
	}

	return renderTemplate(settingsFormTemplate, map[string]any{
		"BlockID":   rc.Block.ID,
		"BlockType": rc.Block.Type,
		"Fields":    fields,
	})
}
