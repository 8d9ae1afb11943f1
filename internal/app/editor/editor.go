// Package editor implements interactive mutation of block lists: the
// two-column dashboard editor and the single-list page builder share one
// core. Every mutation replaces the affected list and emits the entire
// updated model through the owner's change callback; persistence and
// debouncing are the owner's concern.
package editor

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/storeadmin/blocklayer/internal/app/domain/block"
)

// Column names.
const (
	ColumnLeft  = "left"
	ColumnRight = "right"
	ColumnMain  = "main"
)

// Editor mutates an in-memory block model and tracks the block selection.
// It is not safe for concurrent use; callers serialize access.
type Editor struct {
	columns  map[string][]block.Config
	order    []string
	selected string
	emit     func()
}

// NewDashboard returns an editor over a two-column dashboard layout.
// onChange receives the whole updated layout after every mutation; it may
// be nil.
func NewDashboard(layout block.DashboardLayout, onChange func(block.DashboardLayout)) *Editor {
	e := &Editor{
		columns: map[string][]block.Config{
			ColumnLeft:  block.CloneList(layout.Left),
			ColumnRight: block.CloneList(layout.Right),
		},
		order: []string{ColumnLeft, ColumnRight},
	}
	e.emit = func() {
		if onChange != nil {
			onChange(e.Layout())
		}
	}
	return e
}

// NewPage returns an editor over a flat page block list. onChange receives
// the whole updated list after every mutation; it may be nil.
func NewPage(blocks []block.Config, onChange func([]block.Config)) *Editor {
	e := &Editor{
		columns: map[string][]block.Config{ColumnMain: block.CloneList(blocks)},
		order:   []string{ColumnMain},
	}
	e.emit = func() {
		if onChange != nil {
			onChange(e.Blocks())
		}
	}
	return e
}

// Layout returns the current model as a dashboard layout.
func (e *Editor) Layout() block.DashboardLayout {
	return block.DashboardLayout{
		Left:  block.CloneList(e.columns[ColumnLeft]),
		Right: block.CloneList(e.columns[ColumnRight]),
	}
}

// Blocks returns the current model as a flat list (page mode).
func (e *Editor) Blocks() []block.Config {
	return block.CloneList(e.columns[ColumnMain])
}

// Column returns a copy of one column's list.
func (e *Editor) Column(name string) []block.Config {
	return block.CloneList(e.columns[name])
}

// Selected returns the currently selected block, if any.
func (e *Editor) Selected() (block.Config, bool) {
	if e.selected == "" {
		return block.Config{}, false
	}
	if blk, _, _, ok := e.find(e.selected); ok {
		return blk.Clone(), true
	}
	return block.Config{}, false
}

// SelectedID returns the selected block id, empty when nothing is selected.
func (e *Editor) SelectedID() string { return e.selected }

// Select marks a block as selected. Selecting an unknown id is a no-op and
// reports false.
func (e *Editor) Select(id string) bool {
	if _, _, _, ok := e.find(id); !ok {
		return false
	}
	e.selected = id
	return true
}

// Deselect returns the side panel to the block list.
func (e *Editor) Deselect() { e.selected = "" }

// AddBlock constructs a new instance of the definition and inserts it into
// the named column immediately after afterIndex; afterIndex -1 (or any
// out-of-range anchor) appends. The new block is selected.
func (e *Editor) AddBlock(column string, afterIndex int, def block.Definition) (block.Config, error) {
	list, ok := e.columns[column]
	if !ok {
		return block.Config{}, fmt.Errorf("unknown column %q", column)
	}

	blk := block.NewConfig(uuid.NewString(), def)

	pos := len(list)
	if afterIndex >= 0 && afterIndex+1 < len(list) {
		pos = afterIndex + 1
	}

	next := make([]block.Config, 0, len(list)+1)
	next = append(next, list[:pos]...)
	next = append(next, blk)
	next = append(next, list[pos:]...)
	e.columns[column] = next

	e.selected = blk.ID
	e.emit()
	return blk.Clone(), nil
}

// MoveUp swaps the block with its previous sibling. Already first: no-op.
func (e *Editor) MoveUp(id string) { e.move(id, -1) }

// MoveDown swaps the block with its next sibling. Already last: no-op.
func (e *Editor) MoveDown(id string) { e.move(id, +1) }

func (e *Editor) move(id string, delta int) {
	_, column, idx, ok := e.find(id)
	if !ok {
		return
	}
	target := idx + delta
	list := e.columns[column]
	if target < 0 || target >= len(list) {
		return
	}

	next := block.CloneList(list)
	next[idx], next[target] = next[target], next[idx]
	e.columns[column] = next
	e.emit()
}

// Delete removes a block by id. A missing id is a no-op. Deleting the
// selected block clears the selection.
func (e *Editor) Delete(id string) {
	_, column, idx, ok := e.find(id)
	if !ok {
		return
	}

	list := e.columns[column]
	next := make([]block.Config, 0, len(list)-1)
	next = append(next, list[:idx]...)
	next = append(next, list[idx+1:]...)
	e.columns[column] = next

	if e.selected == id {
		e.selected = ""
	}
	e.emit()
}

// UpdateSettings replaces a block's settings bag.
func (e *Editor) UpdateSettings(id string, settings map[string]any) error {
	return e.update(id, func(blk *block.Config) {
		blk.Settings = copyBag(settings)
	})
}

// UpdateData replaces a block's data bag.
func (e *Editor) UpdateData(id string, data map[string]any) error {
	return e.update(id, func(blk *block.Config) {
		blk.Data = copyBag(data)
	})
}

// rawPayload is the shape accepted by the fallback structured-data editor.
type rawPayload struct {
	Settings map[string]any `json:"settings"`
	Data     map[string]any `json:"data"`
}

// ApplyRaw applies a raw settings+data JSON document to a block, as used by
// the fallback editor for types without a registered settings editor. A
// parse failure leaves the model untouched and is returned to the caller
// for inline display.
func (e *Editor) ApplyRaw(id string, raw []byte) error {
	var payload rawPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("invalid block JSON: %w", err)
	}
	return e.update(id, func(blk *block.Config) {
		if payload.Settings != nil {
			blk.Settings = payload.Settings
		}
		if payload.Data != nil {
			blk.Data = payload.Data
		}
	})
}

func (e *Editor) update(id string, apply func(*block.Config)) error {
	_, column, idx, ok := e.find(id)
	if !ok {
		return fmt.Errorf("block %s not found", id)
	}

	next := block.CloneList(e.columns[column])
	apply(&next[idx])
	e.columns[column] = next
	e.emit()
	return nil
}

func (e *Editor) find(id string) (block.Config, string, int, bool) {
	for _, column := range e.order {
		for i, blk := range e.columns[column] {
			if blk.ID == id {
				return blk, column, i, true
			}
		}
	}
	return block.Config{}, "", 0, false
}

func copyBag(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
