// Package domain defines the core domain models for law tracking. A law moves
// through three states: new (not yet in the store), unprocessed (stored with
// isProcessed=false) and processed (terminal). Processed records are never
// reset by this system.
package domain

import (
	"strings"
	"time"
)

// Record is the persisted tracking entry for one legal text, keyed by textId.
type Record struct {
	// TextID is the stable unique identifier of the legal text.
	TextID string `docstore:"textId" json:"textId"`
	// Date is the registry's last-update timestamp for the text, RFC 3339.
	// Oldest-unprocessed selection sorts on this field, so the format must
	// stay lexicographically ordered.
	Date string `docstore:"date" json:"date"`
	// IsProcessed marks a record whose content has been published. Once true
	// it is never reset to false.
	IsProcessed bool `docstore:"isProcessed" json:"isProcessed"`
}

// Candidate is one law returned by a registry listing, the input to a sync pass.
type Candidate struct {
	// TextID is the stable unique identifier of the legal text.
	TextID string
	// LastUpdate is the registry's last-update timestamp for the text.
	LastUpdate time.Time
}

// NewRecord builds an unprocessed Record from a listing candidate.
func NewRecord(c Candidate) Record {
	return Record{
		TextID:      c.TextID,
		Date:        c.LastUpdate.UTC().Format(time.RFC3339),
		IsProcessed: false,
	}
}

// SyncStats summarizes one synchronization pass.
type SyncStats struct {
	// Inserted counts candidates stored as new unprocessed records.
	Inserted int
	// Skipped counts candidates already present in the store.
	Skipped int
	// Errored counts candidates whose insert failed.
	Errored int
}

// Article is one article body within a legal text.
type Article struct {
	ID       string
	Cid      string
	Num      string
	IntOrdre int
	Etat     string
	Content  string
}

// LawDetail is the full content of one legal text. It is transient: owned by
// the caller for the duration of one processing cycle and discarded after use.
type LawDetail struct {
	ID           string
	Cid          string
	Title        string
	Nor          string
	JorfText     string
	Signers      string
	Nature       string
	DateParution *time.Time
	Articles     []Article
}

// HasContent reports whether the detail is meaningfully populated: a non-empty
// title and at least one article with a non-empty body. An empty detail is a
// valid-but-useless response, not an error; callers skip it.
func (d *LawDetail) HasContent() bool {
	if strings.TrimSpace(d.Title) == "" {
		return false
	}
	for _, article := range d.Articles {
		if strings.TrimSpace(article.Content) != "" {
			return true
		}
	}
	return false
}

// CombinedContent joins all article bodies in order, separated by blank lines.
func (d *LawDetail) CombinedContent() string {
	parts := make([]string, 0, len(d.Articles))
	for _, article := range d.Articles {
		if strings.TrimSpace(article.Content) == "" {
			continue
		}
		parts = append(parts, article.Content)
	}
	return strings.Join(parts, "\n\n")
}
