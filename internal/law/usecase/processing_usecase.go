package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/lawgram/lawgram/internal/errors"
	"github.com/lawgram/lawgram/internal/generation"
	lawDomain "github.com/lawgram/lawgram/internal/law/domain"
	"github.com/lawgram/lawgram/internal/registry"
)

// processingUseCase implements ProcessingUseCase.
type processingUseCase struct {
	lawRepo   LawRepository
	registry  LawRegistry
	generator generation.Generator
	publisher PostPublisher
	logger    *slog.Logger
}

// NewProcessingUseCase creates a ProcessingUseCase.
func NewProcessingUseCase(
	lawRepo LawRepository,
	lawRegistry LawRegistry,
	generator generation.Generator,
	publisher PostPublisher,
	logger *slog.Logger,
) ProcessingUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &processingUseCase{
		lawRepo:   lawRepo,
		registry:  lawRegistry,
		generator: generator,
		publisher: publisher,
		logger:    logger,
	}
}

// SelectOldestUnprocessed picks the unprocessed record with the smallest date.
// Dates are RFC 3339 strings, so lexicographic order is chronological order;
// ties break on textId to keep the pick deterministic.
func (p *processingUseCase) SelectOldestUnprocessed(
	ctx context.Context,
) (*lawDomain.Record, bool, error) {
	records, err := p.lawRepo.ListUnprocessed(ctx)
	if err != nil {
		return nil, false, err
	}
	if len(records) == 0 {
		return nil, false, nil
	}

	oldest := records[0]
	for _, record := range records[1:] {
		if record.Date < oldest.Date ||
			(record.Date == oldest.Date && record.TextID < oldest.TextID) {
			oldest = record
		}
	}
	return oldest, true, nil
}

// ProcessNext runs one full processing cycle. Every error escaping this
// method names the textId it happened on.
func (p *processingUseCase) ProcessNext(ctx context.Context) (*ProcessResult, bool, error) {
	record, found, err := p.SelectOldestUnprocessed(ctx)
	if err != nil {
		return nil, false, err
	}
	if !found {
		p.logger.Info("no unprocessed laws to pick up")
		return nil, false, nil
	}

	logger := p.logger.With(slog.String("text_id", record.TextID))
	logger.Info("processing law", slog.String("date", record.Date))

	detail, err := p.registry.FetchLawDetail(ctx, record.TextID, recordDate(record))
	if err != nil {
		return nil, true, wrapWithTextID(err, record.TextID)
	}

	if !detail.HasContent() {
		// The registry answered but the text carries nothing postable. Mark
		// it processed so it never blocks the queue again.
		logger.Warn("law has no usable content, marking processed without publishing")
		if err := p.lawRepo.MarkProcessed(ctx, record.TextID); err != nil {
			return nil, true, wrapWithTextID(err, record.TextID)
		}
		return &ProcessResult{TextID: record.TextID, Skipped: true}, true, nil
	}

	output, err := p.generator.SummarizeAndIllustrate(ctx, generation.Input{
		Title:           detail.Title,
		PublicationDate: detail.DateParution,
		Signatories:     generation.CleanSignatories(detail.Signers),
		Content:         generation.CleanContent(detail.CombinedContent()),
	})
	if err != nil {
		return nil, true, wrapWithTextID(err, record.TextID)
	}
	if !output.Usable() {
		return nil, true, apperrors.New(apperrors.KindGeneration,
			"generated output is missing an image URL or caption",
			apperrors.WithDetail("text_id", record.TextID),
		)
	}

	postID, err := p.publisher.Publish(ctx, output.ImageURL, output.Caption)
	if err != nil {
		return nil, true, wrapWithTextID(err, record.TextID)
	}
	logger.Info("published law post", slog.String("post_id", postID))

	p.commentDocumentURL(ctx, logger, detail, postID)

	if err := p.lawRepo.MarkProcessed(ctx, record.TextID); err != nil {
		return nil, true, wrapWithTextID(err, record.TextID)
	}
	logger.Info("law marked as processed")

	return &ProcessResult{TextID: record.TextID, PostID: postID}, true, nil
}

// commentDocumentURL adds the official document URL as a comment under the
// post. A failure here never fails the cycle: the post is already live.
func (p *processingUseCase) commentDocumentURL(
	ctx context.Context,
	logger *slog.Logger,
	detail *lawDomain.LawDetail,
	postID string,
) {
	documentURL, err := registry.DocumentURL(detail)
	if err != nil {
		logger.Warn("skipping document URL comment", slog.Any("error", err))
		return
	}
	if err := p.publisher.CommentOnPost(ctx, postID, documentURL); err != nil {
		logger.Warn("failed to comment document URL", slog.Any("error", err))
		return
	}
	logger.Info("commented document URL", slog.String("url", documentURL))
}

// recordDate parses the record's stored date, falling back to now when the
// stored value is unreadable.
func recordDate(record *lawDomain.Record) time.Time {
	t, err := time.Parse(time.RFC3339, record.Date)
	if err != nil {
		return time.Now().UTC()
	}
	return t
}

func wrapWithTextID(err error, textID string) error {
	return apperrors.Wrap(err, fmt.Sprintf("processing law %s", textID))
}
