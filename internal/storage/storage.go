// Package storage keeps a history of render outcomes.
//
// The Store interface is the primary abstraction. SQLiteStore is the default
// implementation using pure-Go SQLite (modernc.org/sqlite). The render core
// never writes here; the CLI and HTTP host record results after the fact.
package storage

import (
	"context"
	"time"

	"github.com/overhuman/overlay/internal/render"
)

// Entry is one recorded render.
type Entry struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	Template   string    `json:"template,omitempty"` // empty when classification failed
	Confidence float64   `json:"confidence"`
	Score      float64   `json:"score"`
	Valid      bool      `json:"valid"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	Repairs    int       `json:"repairs"`
	Language   string    `json:"language,omitempty"`
	RenderMS   float64   `json:"render_ms"`
	Source     string    `json:"source,omitempty"` // cli, http, ...
	CreatedAt  time.Time `json:"created_at"`
}

// Store is the render history interface.
type Store interface {
	// Save records an entry. An empty ID is filled with a new UUID.
	Save(ctx context.Context, e Entry) (string, error)

	// Get retrieves an entry by ID. Returns nil if not found.
	Get(ctx context.Context, id string) (*Entry, error)

	// Recent returns the newest entries first.
	Recent(ctx context.Context, limit int) ([]Entry, error)

	// Search finds entries whose content or template matches query.
	Search(ctx context.Context, query string, limit int) ([]Entry, error)

	// CountByTemplate returns how many successful renders used each template.
	CountByTemplate(ctx context.Context) (map[string]int, error)

	// Count returns the total number of entries.
	Count(ctx context.Context) (int, error)

	// Close shuts down the store.
	Close() error
}

// EntryFrom builds a history entry from a render result. The ID of the
// result is reused so history rows and API responses line up.
func EntryFrom(content, source string, res *render.RenderResult) Entry {
	e := Entry{
		ID:      res.ID,
		Content: content,
		Success: res.Success,
		Error:   res.Error,
		Repairs: len(res.Repairs),
		Source:  source,
	}
	if res.Template != nil {
		e.Template = res.Template.Type.String()
		e.Confidence = res.Template.Confidence
		e.Language = res.Template.Content.Metadata.Language
	}
	if res.Validation != nil {
		e.Score = res.Validation.Score
		e.Valid = res.Validation.IsValid
	}
	e.RenderMS = float64(res.Performance.RenderTime) / float64(time.Millisecond)
	return e
}
