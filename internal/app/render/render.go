// Package render turns an ordered list of block configs into HTML. Each
// block renders inside its own failure boundary so one broken block never
// blanks the rest of the page.
package render

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/storeadmin/blocklayer/internal/app/domain/block"
	"github.com/storeadmin/blocklayer/internal/app/metrics"
	"github.com/storeadmin/blocklayer/pkg/logger"
)

// Context carries everything a block renderer receives for one instance.
type Context struct {
	Block        block.Config
	Settings     map[string]any
	Data         map[string]any
	ResolvedData any
	Locale       string
	Editing      bool
}

// BlockRenderer renders one block instance.
type BlockRenderer interface {
	RenderBlock(ctx context.Context, rc Context) (template.HTML, error)
}

// BlockRendererFunc adapts a function to the BlockRenderer interface.
type BlockRendererFunc func(ctx context.Context, rc Context) (template.HTML, error)

// RenderBlock implements BlockRenderer.
func (f BlockRendererFunc) RenderBlock(ctx context.Context, rc Context) (template.HTML, error) {
	return f(ctx, rc)
}

// SettingsEditor renders the settings form for one block instance.
type SettingsEditor interface {
	RenderEditor(ctx context.Context, rc Context) (template.HTML, error)
}

// Input is one render pass over an ordered block list.
type Input struct {
	Blocks  []block.Config
	Locale  string
	Editing bool
}

// Renderer renders block lists. The component lookup is injected so the
// same renderer serves both the dashboard and storefront registries.
type Renderer struct {
	lookup func(blockType string) (BlockRenderer, bool)
	log    *logger.Logger
}

// New constructs a renderer. The lookup function is required; there is no
// implicit registry fallback.
func New(lookup func(string) (BlockRenderer, bool), log *logger.Logger) *Renderer {
	if lookup == nil {
		panic("render: lookup function is required")
	}
	if log == nil {
		log = logger.NewDefault("render")
	}
	return &Renderer{lookup: lookup, log: log}
}

// Render renders every block in order. Unknown types show a placeholder in
// edit mode and are skipped in view mode. A block whose renderer returns an
// error or panics is replaced by an inline error notice; its siblings still
// render. The only error Render itself returns is context cancellation.
func (r *Renderer) Render(ctx context.Context, in Input) (template.HTML, error) {
	if len(in.Blocks) == 0 {
		if in.Editing {
			return emptyPlaceholder, nil
		}
		return "", nil
	}

	var out strings.Builder
	for _, blk := range in.Blocks {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		renderer, ok := r.lookup(blk.Type)
		if !ok {
			metrics.RecordBlockRender(blk.Type, "unknown")
			if in.Editing {
				out.WriteString(unknownPlaceholder(blk))
			}
			continue
		}

		rc := Context{
			Block:        blk,
			Settings:     blk.Settings,
			Data:         blk.Data,
			ResolvedData: blk.ResolvedData,
			Locale:       in.Locale,
			Editing:      in.Editing,
		}
		if rc.Settings == nil {
			rc.Settings = map[string]any{}
		}
		if rc.Data == nil {
			rc.Data = map[string]any{}
		}

		html, err := r.renderOne(ctx, renderer, rc)
		if err != nil {
			metrics.RecordBlockRender(blk.Type, "error")
			r.log.WithError(err).
				WithField("block_id", blk.ID).
				WithField("block_type", blk.Type).
				Warn("block render failed")
			out.WriteString(errorNotice(blk))
			continue
		}

		metrics.RecordBlockRender(blk.Type, "ok")
		fmt.Fprintf(&out, `<div class="block" data-block-id="%s" data-block-type="%s">`,
			template.HTMLEscapeString(blk.ID), template.HTMLEscapeString(blk.Type))
		out.WriteString(string(html))
		out.WriteString(`</div>`)
	}
	return template.HTML(out.String()), nil
}

// renderOne is the failure boundary around a single block.
func (r *Renderer) renderOne(ctx context.Context, renderer BlockRenderer, rc Context) (html template.HTML, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("block renderer panic: %v", p)
		}
	}()
	return renderer.RenderBlock(ctx, rc)
}

const emptyPlaceholder = template.HTML(
	`<div class="blocks-empty"><p>No blocks yet. Add a block to get started.</p></div>`)

func unknownPlaceholder(blk block.Config) string {
	return fmt.Sprintf(
		`<div class="block block-unknown" data-block-id="%s">unknown block type: %s</div>`,
		template.HTMLEscapeString(blk.ID), template.HTMLEscapeString(blk.Type))
}

func errorNotice(blk block.Config) string {
	return fmt.Sprintf(
		`<div class="block block-error" data-block-id="%s" data-block-type="%s">This block failed to render.</div>`,
		template.HTMLEscapeString(blk.ID), template.HTMLEscapeString(blk.Type))
}
