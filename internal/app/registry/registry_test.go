package registry

import (
	"context"
	"html/template"
	"testing"

	"github.com/storeadmin/blocklayer/internal/app/domain/block"
	"github.com/storeadmin/blocklayer/internal/app/render"
)

func staticRenderer(out string) render.BlockRenderer {
	return render.BlockRendererFunc(func(ctx context.Context, rc render.Context) (template.HTML, error) {
		return template.HTML(out), nil
	})
}

func entry(blockType, category, out string) Entry {
	return Entry{
		Definition: block.Definition{Type: blockType, Name: blockType, Category: category},
		Renderer:   staticRenderer(out),
	}
}

func TestRegistryRegistrationOrder(t *testing.T) {
	r := New("test", []Entry{
		entry("heading", "content", "<h1/>"),
		entry("text", "content", "<p/>"),
		entry("image", "media", "<img/>"),
	}, nil)

	types := r.Types()
	want := []string{"heading", "text", "image"}
	if len(types) != len(want) {
		t.Fatalf("expected %d types, got %v", len(want), types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, types)
		}
	}
}

func TestRegistryLastWriteWins(t *testing.T) {
	r := New("test", []Entry{entry("heading", "content", "core")}, nil)
	r.Build([]Entry{
		entry("text", "content", "<p/>"),
		entry("heading", "content", "override"),
	})

	renderer, ok := r.Renderer("heading")
	if !ok {
		t.Fatal("heading not registered")
	}
	html, err := renderer.RenderBlock(context.Background(), render.Context{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if html != "override" {
		t.Fatalf("expected extension entry to win, got %q", html)
	}

	// Overriding keeps the original order slot.
	types := r.Types()
	if types[0] != "heading" || types[1] != "text" {
		t.Fatalf("expected heading to keep first slot, got %v", types)
	}
}

func TestRegistryRebuildIsWholesale(t *testing.T) {
	r := New("test", []Entry{entry("heading", "content", "<h1/>")}, nil)
	r.Build([]Entry{entry("promo", "marketing", "<div/>")})
	r.Build(nil)

	if _, ok := r.Definition("promo"); ok {
		t.Fatal("extension survived a rebuild without extensions")
	}
	if _, ok := r.Definition("heading"); !ok {
		t.Fatal("core entry lost on rebuild")
	}
}

func TestRegistrySkipsEmptyType(t *testing.T) {
	r := New("test", []Entry{
		entry("", "content", "<x/>"),
		entry("text", "content", "<p/>"),
	}, nil)

	if len(r.Types()) != 1 {
		t.Fatalf("expected only the typed entry, got %v", r.Types())
	}
}

func TestRegistryUnknownLookups(t *testing.T) {
	r := New("test", []Entry{entry("text", "content", "<p/>")}, nil)

	if _, ok := r.Definition("missing"); ok {
		t.Fatal("expected unknown definition lookup to report false")
	}
	if _, ok := r.Renderer("missing"); ok {
		t.Fatal("expected unknown renderer lookup to report false")
	}
	if _, ok := r.SettingsEditor("text"); ok {
		t.Fatal("expected missing settings editor to report false")
	}
}

func TestDefinitionsByCategory(t *testing.T) {
	r := New("test", []Entry{
		entry("heading", "content", "<h1/>"),
		entry("text", "content", "<p/>"),
		entry("mystery", "", "<x/>"),
	}, nil)

	grouped := r.DefinitionsByCategory()
	if len(grouped["content"]) != 2 {
		t.Fatalf("expected 2 content definitions, got %d", len(grouped["content"]))
	}
	if grouped["content"][0].Type != "heading" {
		t.Fatalf("registration order not preserved within category: %+v", grouped["content"])
	}
	if len(grouped[FallbackCategory]) != 1 {
		t.Fatalf("expected uncategorized definition under %q, got %+v", FallbackCategory, grouped)
	}
}
