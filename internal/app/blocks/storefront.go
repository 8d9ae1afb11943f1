package blocks

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/storeadmin/blocklayer/internal/app/domain/block"
	"github.com/storeadmin/blocklayer/internal/app/registry"
	"github.com/storeadmin/blocklayer/internal/app/render"
)

// Storefront block types.
const (
	TypeHeading          = "heading"
	TypeText             = "text"
	TypeImage            = "image"
	TypeHero             = "hero"
	TypeProductGrid      = "product_grid"
	TypeDivider          = "divider"
	TypeNewsletterSignup = "newsletter_signup"
	TypeRawHTML          = "raw_html"
)

// StorefrontEntries returns the core entry set for the storefront registry.
func StorefrontEntries() []registry.Entry {
	return []registry.Entry{
		headingEntry(),
		textEntry(),
		imageEntry(),
		heroEntry(),
		productGridEntry(),
		dividerEntry(),
		newsletterEntry(),
		rawHTMLEntry(),
	}
}

func splitParagraphs(body string) []string {
	var out []string
	for _, p := range strings.Split(body, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func dataString(data map[string]any, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}

// --- heading -----------------------------------------------------------------

type headingSettings struct {
	Level int    `json:"level"`
	Align string `json:"align"`
}

type headingBlock struct{}

func (headingBlock) RenderBlock(_ context.Context, rc render.Context) (template.HTML, error) {
	var cfg headingSettings
	if err := decodeSettings(rc.Settings, &cfg); err != nil {
		return "", err
	}
	if cfg.Level < 1 || cfg.Level > 6 {
		cfg.Level = 2
	}
	if cfg.Align == "" {
		cfg.Align = "left"
	}
	text := dataString(rc.Data, "text")
	return template.HTML(fmt.Sprintf(`<h%d class="heading-block align-%s">%s</h%d>`,
		cfg.Level, template.HTMLEscapeString(cfg.Align), template.HTMLEscapeString(text), cfg.Level)), nil
}

func headingEntry() registry.Entry {
	def := block.Definition{
		Type:     TypeHeading,
		Name:     "Heading",
		Category: "content",
		SettingsSchema: map[string]block.SettingsField{
			"level": {Kind: "number", Label: "Level", Help: "Heading level 1-6."},
			"align": {Kind: "text", Label: "Alignment"},
		},
		DefaultSettings: map[string]any{"level": 2, "align": "left"},
		DefaultData:     map[string]any{"text": "Heading"},
	}
	return registry.Entry{Definition: def, Renderer: headingBlock{}, SettingsEditor: NewSchemaEditor(def)}
}

// --- text --------------------------------------------------------------------

var textTemplate = mustTemplate("text", `<div class="text-block">{{range .Paragraphs}}<p>{{.}}</p>{{end}}</div>`)

type textBlock struct{}

func (textBlock) RenderBlock(_ context.Context, rc render.Context) (template.HTML, error) {
	paragraphs := splitParagraphs(dataString(rc.Data, "body"))
	return renderTemplate(textTemplate, map[string]any{"Paragraphs": paragraphs})
}

func textEntry() registry.Entry {
	def := block.Definition{
		Type:        TypeText,
		Name:        "Text",
		Description: "Plain text content split into paragraphs.",
		Category:    "content",
		DefaultData: map[string]any{"body": ""},
	}
	return registry.Entry{Definition: def, Renderer: textBlock{}, SettingsEditor: NewSchemaEditor(def)}
}

// --- image -------------------------------------------------------------------

type imageSettings struct {
	Width string `json:"width"`
}

var imageTemplate = mustTemplate("image", `<figure class="image-block" style="max-width:{{.Width}}">
<img src="{{.Src}}" alt="{{.Alt}}">
{{- if .Caption}}
<figcaption>{{.Caption}}</figcaption>
{{- end}}
</figure>`)

type imageBlock struct{}

func (imageBlock) RenderBlock(_ context.Context, rc render.Context) (template.HTML, error) {
	var cfg imageSettings
	if err := decodeSettings(rc.Settings, &cfg); err != nil {
		return "", err
	}
	if cfg.Width == "" {
		cfg.Width = "100%"
	}
	return renderTemplate(imageTemplate, map[string]any{
		"Width":   cfg.Width,
		"Src":     dataString(rc.Data, "src"),
		"Alt":     dataString(rc.Data, "alt"),
		"Caption": dataString(rc.Data, "caption"),
	})
}

func imageEntry() registry.Entry {
	def := block.Definition{
		Type:     TypeImage,
		Name:     "Image",
		Category: "content",
		SettingsSchema: map[string]block.SettingsField{
			"width": {Kind: "text", Label: "Width", Help: "CSS width, e.g. 100% or 640px."},
		},
		DefaultSettings: map[string]any{"width": "100%"},
		DefaultData:     map[string]any{"src": "", "alt": "", "caption": ""},
	}
	return registry.Entry{Definition: def, Renderer: imageBlock{}, SettingsEditor: NewSchemaEditor(def)}
}

// --- hero --------------------------------------------------------------------

type heroSettings struct {
	Align   string `json:"align"`
	CTALink string `json:"cta_link"`
	CTAText string `json:"cta_text"`
}

var heroTemplate = mustTemplate("hero", `<section class="hero-block align-{{.Align}}"{{if .Image}} style="background-image:url('{{.Image}}')"{{end}}>
<h1>{{.Heading}}</h1>
{{- if .Subheading}}
<p>{{.Subheading}}</p>
{{- end}}
{{- if .CTAText}}
<a class="hero-cta" href="{{.CTALink}}">{{.CTAText}}</a>
{{- end}}
</section>`)

type heroBlock struct{}

func (heroBlock) RenderBlock(_ context.Context, rc render.Context) (template.HTML, error) {
	var cfg heroSettings
	if err := decodeSettings(rc.Settings, &cfg); err != nil {
		return "", err
	}
	if cfg.Align == "" {
		cfg.Align = "center"
	}
	return renderTemplate(heroTemplate, map[string]any{
		"Align":      cfg.Align,
		"Heading":    dataString(rc.Data, "heading"),
		"Subheading": dataString(rc.Data, "subheading"),
		"Image":      dataString(rc.Data, "image"),
		"CTALink":    cfg.CTALink,
		"CTAText":    cfg.CTAText,
	})
}

func heroEntry() registry.Entry {
	def := block.Definition{
		Type:        TypeHero,
		Name:        "Hero",
		Description: "Full-width banner with heading and call to action.",
		Category:    "marketing",
		SettingsSchema: map[string]block.SettingsField{
			"align":    {Kind: "text", Label: "Alignment"},
			"cta_link": {Kind: "text", Label: "CTA link"},
			"cta_text": {Kind: "text", Label: "CTA text"},
		},
		DefaultSettings: map[string]any{"align": "center", "cta_link": "", "cta_text": ""},
		DefaultData:     map[string]any{"heading": "Welcome", "subheading": "", "image": ""},
	}
	return registry.Entry{Definition: def, Renderer: heroBlock{}, SettingsEditor: NewSchemaEditor(def)}
}

// --- product_grid ------------------------------------------------------------

type productGridSettings struct {
	Collection string `json:"collection"`
	Columns    int    `json:"columns"`
	Limit      int    `json:"limit"`
}

type productGridBlock struct{}

// The storefront hydrates the grid client-side from the catalog API; the
// block emits the query attributes only.
func (productGridBlock) RenderBlock(_ context.Context, rc render.Context) (template.HTML, error) {
	var cfg productGridSettings
	if err := decodeSettings(rc.Settings, &cfg); err != nil {
		return "", err
	}
	if cfg.Columns <= 0 {
		cfg.Columns = 4
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 8
	}
	return template.HTML(fmt.Sprintf(
		`<div class="product-grid-block" data-collection="%s" data-columns="%d" data-limit="%d"></div>`,
		template.HTMLEscapeString(cfg.Collection), cfg.Columns, cfg.Limit)), nil
}

func productGridEntry() registry.Entry {
	def := block.Definition{
		Type:        TypeProductGrid,
		Name:        "Product grid",
		Description: "Products from a collection in a responsive grid.",
		Category:    "commerce",
		SettingsSchema: map[string]block.SettingsField{
			"collection": {Kind: "text", Label: "Collection", Help: "Collection handle to display."},
			"columns":    {Kind: "number", Label: "Columns"},
			"limit":      {Kind: "number", Label: "Limit"},
		},
		DefaultSettings: map[string]any{"collection": "", "columns": 4, "limit": 8},
	}
	return registry.Entry{Definition: def, Renderer: productGridBlock{}, SettingsEditor: NewSchemaEditor(def)}
}

// --- divider -----------------------------------------------------------------

type dividerBlock struct{}

func (dividerBlock) RenderBlock(_ context.Context, _ render.Context) (template.HTML, error) {
	return `<hr class="divider-block">`, nil
}

func dividerEntry() registry.Entry {
	def := block.Definition{
		Type:     TypeDivider,
		Name:     "Divider",
		Category: "content",
	}
	return registry.Entry{Definition: def, Renderer: dividerBlock{}, SettingsEditor: NewSchemaEditor(def)}
}

// --- newsletter_signup -------------------------------------------------------

type newsletterSettings struct {
	Title      string `json:"title"`
	ButtonText string `json:"button_text"`
	ListID     string `json:"list_id"`
}

var newsletterTemplate = mustTemplate("newsletter_signup", `<section class="newsletter-block" data-list-id="{{.ListID}}">
<h3>{{.Title}}</h3>
<form class="newsletter-form" method="post" action="/newsletter/subscribe">
<input type="email" name="email" required placeholder="you@example.com">
<button type="submit">{{.ButtonText}}</button>
</form>
</section>`)

type newsletterBlock struct{}

func (newsletterBlock) RenderBlock(_ context.Context, rc render.Context) (template.HTML, error) {
	var cfg newsletterSettings
	if err := decodeSettings(rc.Settings, &cfg); err != nil {
		return "", err
	}
	if cfg.Title == "" {
		cfg.Title = "Subscribe to our newsletter"
	}
	if cfg.ButtonText == "" {
		cfg.ButtonText = "Subscribe"
	}
	return renderTemplate(newsletterTemplate, map[string]any{
		"Title":      cfg.Title,
		"ButtonText": cfg.ButtonText,
		"ListID":     cfg.ListID,
	})
}

func newsletterEntry() registry.Entry {
	def := block.Definition{
		Type:        TypeNewsletterSignup,
		Name:        "Newsletter signup",
		Description: "Email capture form wired to a newsletter list.",
		Category:    "marketing",
		SettingsSchema: map[string]block.SettingsField{
			"title":       {Kind: "text", Label: "Title"},
			"button_text": {Kind: "text", Label: "Button text"},
			"list_id":     {Kind: "text", Label: "List", Help: "Newsletter list identifier."},
		},
		DefaultSettings: map[string]any{"title": "Subscribe to our newsletter", "button_text": "Subscribe", "list_id": ""},
	}
	return registry.Entry{Definition: def, Renderer: newsletterBlock{}, SettingsEditor: NewSchemaEditor(def)}
}

// --- raw_html ----------------------------------------------------------------

type rawHTMLBlock struct{}

func (rawHTMLBlock) RenderBlock(_ context.Context, rc render.Context) (template.HTML, error) {
	// Trusted admin-authored markup, passed through verbatim.
	return template.HTML(dataString(rc.Data, "html")), nil
}

// rawHTMLEntry registers no settings editor; the builder falls back to the
// raw structured-data editor for this type.
func rawHTMLEntry() registry.Entry {
	def := block.Definition{
		Type:        TypeRawHTML,
		Name:        "Custom HTML",
		Description: "Verbatim HTML authored in the admin.",
		Category:    "advanced",
		DefaultData: map[string]any{"html": ""},
	}
	return registry.Entry{Definition: def, Renderer: rawHTMLBlock{}}
}
