// Package usecase defines business logic interfaces for law tracking and
// processing.
package usecase

import (
	"context"
	"time"

	lawDomain "github.com/lawgram/lawgram/internal/law/domain"
)

// LawRepository defines persistence operations for law tracking records.
type LawRepository interface {
	// Create stores a new record. Returns domain.ErrRecordExists when the
	// textId is already tracked; the stored record is left untouched.
	Create(ctx context.Context, record *lawDomain.Record) error

	// Get retrieves a record by textId. Returns domain.ErrRecordNotFound if
	// not found.
	Get(ctx context.Context, textID string) (*lawDomain.Record, error)

	// MarkProcessed flips the record's isProcessed flag to true. Idempotent.
	MarkProcessed(ctx context.Context, textID string) error

	// Delete removes a record. Deleting an absent record is not an error.
	Delete(ctx context.Context, textID string) error

	// ListUnprocessed returns every record with isProcessed=false, in no
	// particular order.
	ListUnprocessed(ctx context.Context) ([]*lawDomain.Record, error)
}

// LawRegistry defines the read operations against the legal text registry.
type LawRegistry interface {
	// ListLawsOfYear returns every law published in the given year.
	ListLawsOfYear(ctx context.Context, year, pageSize int) ([]lawDomain.Candidate, error)

	// FetchLawDetail fetches the full content of one legal text as of the
	// given date.
	FetchLawDetail(ctx context.Context, textID string, asOf time.Time) (*lawDomain.LawDetail, error)
}

// PostPublisher defines the publishing operations the processing cycle needs.
type PostPublisher interface {
	// Publish runs the full publish protocol and returns the confirmed post
	// id.
	Publish(ctx context.Context, imageURL, caption string) (string, error)

	// CommentOnPost adds a comment under a published post.
	CommentOnPost(ctx context.Context, postID, message string) error
}

// SyncUseCase defines the synchronization of registry listings into the
// tracking store.
type SyncUseCase interface {
	// SyncNewEntries inserts each candidate that is not yet tracked. Already
	// tracked candidates are skipped, never overwritten; per-candidate insert
	// failures are counted and logged without aborting the pass.
	SyncNewEntries(ctx context.Context, candidates []lawDomain.Candidate) (lawDomain.SyncStats, error)

	// SyncYear lists every law of the year from the registry and syncs it.
	SyncYear(ctx context.Context, year int) (lawDomain.SyncStats, error)
}

// ProcessResult reports what one processing cycle did.
type ProcessResult struct {
	// TextID of the processed record.
	TextID string
	// PostID of the confirmed publish, empty when the record was skipped.
	PostID string
	// Skipped is true when the record had no usable content and was marked
	// processed without publishing.
	Skipped bool
}

// ProcessingUseCase drives one full processing cycle over the oldest tracked
// unprocessed law.
type ProcessingUseCase interface {
	// SelectOldestUnprocessed picks the unprocessed record with the smallest
	// date, breaking ties on textId. The second return is false when nothing
	// is unprocessed; that outcome is not an error.
	SelectOldestUnprocessed(ctx context.Context) (*lawDomain.Record, bool, error)

	// ProcessNext runs select, fetch, generate, publish and mark-processed
	// for one record. The second return is false when nothing was
	// unprocessed. A record is marked processed only after a confirmed
	// publish, except empty-content records which are marked and skipped.
	ProcessNext(ctx context.Context) (*ProcessResult, bool, error)
}
