// Package repository implements persistence for law tracking records.
//
// Records live in a document collection opened through a portable docstore
// URL, so the same code runs against DynamoDB in production and an in-memory
// collection in tests.
package repository

import (
	"context"
	"io"

	"gocloud.dev/docstore"
	_ "gocloud.dev/docstore/awsdynamodb/v2"
	"gocloud.dev/gcerrors"

	apperrors "github.com/lawgram/lawgram/internal/errors"
	lawDomain "github.com/lawgram/lawgram/internal/law/domain"
)

// OpenCollection opens the law record collection from a docstore URL, e.g.
// "dynamodb://law-posts?partition_key=textId".
func OpenCollection(ctx context.Context, storeURL string) (*docstore.Collection, error) {
	collection, err := docstore.OpenCollection(ctx, storeURL)
	if err != nil {
		return nil, apperrors.New(apperrors.KindConfig,
			"failed to open law record collection",
			apperrors.WithCause(err),
			apperrors.WithDetail("store_url", storeURL),
		)
	}
	return collection, nil
}

// DocstoreLawRepository implements law record persistence over a document
// collection keyed by textId.
type DocstoreLawRepository struct {
	collection *docstore.Collection
}

// NewDocstoreLawRepository creates a DocstoreLawRepository.
func NewDocstoreLawRepository(collection *docstore.Collection) *DocstoreLawRepository {
	return &DocstoreLawRepository{collection: collection}
}

// Create inserts a new unprocessed record. Returns domain.ErrRecordExists when
// a record with the same textId is already stored, leaving it untouched.
func (d *DocstoreLawRepository) Create(ctx context.Context, record *lawDomain.Record) error {
	if err := d.collection.Create(ctx, record); err != nil {
		if gcerrors.Code(err) == gcerrors.AlreadyExists {
			return lawDomain.ErrRecordExists
		}
		return apperrors.New(apperrors.KindStore,
			"failed to create law record",
			apperrors.WithCause(err),
			apperrors.WithDetail("text_id", record.TextID),
		)
	}
	return nil
}

// Get retrieves the record for the given textId.
func (d *DocstoreLawRepository) Get(ctx context.Context, textID string) (*lawDomain.Record, error) {
	record := lawDomain.Record{TextID: textID}
	if err := d.collection.Get(ctx, &record); err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, lawDomain.ErrRecordNotFound
		}
		return nil, apperrors.New(apperrors.KindStore,
			"failed to get law record",
			apperrors.WithCause(err),
			apperrors.WithDetail("text_id", textID),
		)
	}
	return &record, nil
}

// MarkProcessed flips the record's isProcessed flag to true. The write is
// idempotent: marking an already-processed record is a no-op that succeeds.
func (d *DocstoreLawRepository) MarkProcessed(ctx context.Context, textID string) error {
	record := lawDomain.Record{TextID: textID}
	mods := docstore.Mods{"isProcessed": true}
	if err := d.collection.Update(ctx, &record, mods); err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return lawDomain.ErrRecordNotFound
		}
		return apperrors.New(apperrors.KindStore,
			"failed to mark law record as processed",
			apperrors.WithCause(err),
			apperrors.WithDetail("text_id", textID),
		)
	}
	return nil
}

// Delete removes the record for the given textId. Deleting an absent record
// is not an error.
func (d *DocstoreLawRepository) Delete(ctx context.Context, textID string) error {
	record := lawDomain.Record{TextID: textID}
	if err := d.collection.Delete(ctx, &record); err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil
		}
		return apperrors.New(apperrors.KindStore,
			"failed to delete law record",
			apperrors.WithCause(err),
			apperrors.WithDetail("text_id", textID),
		)
	}
	return nil
}

// ListUnprocessed returns every record whose isProcessed flag is false. Order
// is driver-dependent; callers sort as needed.
func (d *DocstoreLawRepository) ListUnprocessed(ctx context.Context) ([]*lawDomain.Record, error) {
	iter := d.collection.Query().Where("isProcessed", "=", false).Get(ctx)
	defer iter.Stop()

	var records []*lawDomain.Record
	for {
		var record lawDomain.Record
		err := iter.Next(ctx, &record)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.New(apperrors.KindStore,
				"failed to list unprocessed law records",
				apperrors.WithCause(err),
			)
		}
		records = append(records, &record)
	}
	return records, nil
}
