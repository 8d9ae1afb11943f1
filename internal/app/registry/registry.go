// Package registry maintains the table mapping block type strings to their
// definition, renderer, and settings editor. Two registries exist in the
// system (dashboard and storefront); both are explicit constructed objects,
// never package-level state.
package registry

import (
	"sync/atomic"

	"github.com/storeadmin/blocklayer/internal/app/domain/block"
	"github.com/storeadmin/blocklayer/internal/app/metrics"
	"github.com/storeadmin/blocklayer/internal/app/render"
	"github.com/storeadmin/blocklayer/pkg/logger"
)

// FallbackCategory groups definitions that declare no category of their own.
const FallbackCategory = "general"

// Entry binds a block definition to its renderer and optional settings
// editor.
type Entry struct {
	Definition     block.Definition
	Renderer       render.BlockRenderer
	SettingsEditor render.SettingsEditor
}

// snapshot is an immutable view of the registry contents. Rebuilds create a
// fresh snapshot and swap it in atomically, so a render pass that started
// before a rebuild keeps reading a complete table.
type snapshot struct {
	entries map[string]Entry
	order   []string
}

// Registry is the block type table for one context (dashboard/storefront).
type Registry struct {
	name    string
	core    []Entry
	current atomic.Pointer[snapshot]
	log     *logger.Logger
}

// New builds a registry seeded with the given core entries and no
// extensions.
func New(name string, core []Entry, log *logger.Logger) *Registry {
	if log == nil {
		log = logger.NewDefault("registry")
	}
	r := &Registry{name: name, core: core, log: log}
	r.Build(nil)
	return r
}

// Name identifies the registry in logs and metrics.
func (r *Registry) Name() string { return r.name }

// Build replaces the registry contents with the core set followed by the
// supplied extension entries, in order. Entries with an empty type are
// skipped. A later entry with an already-registered type overwrites the
// earlier one (last write wins) but keeps the original registration order
// slot. Rebuilding is wholesale; there is no incremental update.
func (r *Registry) Build(extensions []Entry) {
	next := &snapshot{entries: make(map[string]Entry, len(r.core)+len(extensions))}

	register := func(e Entry) {
		t := e.Definition.Type
		if t == "" {
			r.log.WithField("registry", r.name).
				WithField("name", e.Definition.Name).
				Warn("skipping block entry without a type")
			return
		}
		if _, seen := next.entries[t]; !seen {
			next.order = append(next.order, t)
		}
		next.entries[t] = e
	}

	for _, e := range r.core {
		register(e)
	}
	for _, e := range extensions {
		register(e)
	}

	r.current.Store(next)
	metrics.RecordRegistryRebuild(r.name)
	r.log.WithField("registry", r.name).
		WithField("types", len(next.order)).
		Info("block registry rebuilt")
}

func (r *Registry) load() *snapshot {
	return r.current.Load()
}

// Definition returns the definition for a type, if registered.
func (r *Registry) Definition(blockType string) (block.Definition, bool) {
	e, ok := r.load().entries[blockType]
	return e.Definition, ok
}

// Renderer returns the renderer for a type, if registered.
func (r *Registry) Renderer(blockType string) (render.BlockRenderer, bool) {
	e, ok := r.load().entries[blockType]
	if !ok || e.Renderer == nil {
		return nil, false
	}
	return e.Renderer, true
}

// SettingsEditor returns the settings editor for a type. Registered types
// without an editor report false; callers fall back to raw editing.
func (r *Registry) SettingsEditor(blockType string) (render.SettingsEditor, bool) {
	e, ok := r.load().entries[blockType]
	if !ok || e.SettingsEditor == nil {
		return nil, false
	}
	return e.SettingsEditor, true
}

// Types returns every registered type in registration order.
func (r *Registry) Types() []string {
	snap := r.load()
	out := make([]string, len(snap.order))
	copy(out, snap.order)
	return out
}

// DefinitionsByCategory groups all registered definitions by category,
// preserving registration order within each group. Definitions without a
// category land in FallbackCategory.
func (r *Registry) DefinitionsByCategory() map[string][]block.Definition {
	snap := r.load()
	grouped := make(map[string][]block.Definition)
	for _, t := range snap.order {
		def := snap.entries[t].Definition
		cat := def.Category
		if cat == "" {
			cat = FallbackCategory
		}
		grouped[cat] = append(grouped[cat], def)
	}
	return grouped
}

// Lookup returns the renderer lookup function in the shape the renderer
// expects, so the renderer itself carries no registry dependency.
func (r *Registry) Lookup() func(string) (render.BlockRenderer, bool) {
	return r.Renderer
}
