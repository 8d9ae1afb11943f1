// Package page defines the CMS page resource.
package page

import (
	"time"

	"github.com/storeadmin/blocklayer/internal/app/domain/block"
)

// Status values for a page.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Page is one CMS page composed of an ordered list of blocks.
type Page struct {
	ID        string         `json:"id"`
	Slug      string         `json:"slug"`
	Title     string         `json:"title"`
	Status    string         `json:"status"`
	Locale    string         `json:"locale,omitempty"`
	Blocks    []block.Config `json:"blocks"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
