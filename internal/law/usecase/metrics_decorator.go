package usecase

import (
	"context"
	"time"

	lawDomain "github.com/lawgram/lawgram/internal/law/domain"
	"github.com/lawgram/lawgram/internal/metrics"
)

// syncUseCaseWithMetrics decorates SyncUseCase with metrics instrumentation.
type syncUseCaseWithMetrics struct {
	next    SyncUseCase
	metrics metrics.BusinessMetrics
}

// NewSyncUseCaseWithMetrics wraps a SyncUseCase with metrics recording.
func NewSyncUseCaseWithMetrics(useCase SyncUseCase, m metrics.BusinessMetrics) SyncUseCase {
	return &syncUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// SyncNewEntries records metrics for sync passes.
func (s *syncUseCaseWithMetrics) SyncNewEntries(
	ctx context.Context,
	candidates []lawDomain.Candidate,
) (lawDomain.SyncStats, error) {
	start := time.Now()
	stats, err := s.next.SyncNewEntries(ctx, candidates)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "law", "sync_new_entries", status)
	s.metrics.RecordDuration(ctx, "law", "sync_new_entries", time.Since(start), status)

	return stats, err
}

// SyncYear records metrics for year syncs.
func (s *syncUseCaseWithMetrics) SyncYear(ctx context.Context, year int) (lawDomain.SyncStats, error) {
	start := time.Now()
	stats, err := s.next.SyncYear(ctx, year)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "law", "sync_year", status)
	s.metrics.RecordDuration(ctx, "law", "sync_year", time.Since(start), status)

	return stats, err
}

// processingUseCaseWithMetrics decorates ProcessingUseCase with metrics
// instrumentation.
type processingUseCaseWithMetrics struct {
	next    ProcessingUseCase
	metrics metrics.BusinessMetrics
}

// NewProcessingUseCaseWithMetrics wraps a ProcessingUseCase with metrics
// recording.
func NewProcessingUseCaseWithMetrics(useCase ProcessingUseCase, m metrics.BusinessMetrics) ProcessingUseCase {
	return &processingUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// SelectOldestUnprocessed records metrics for record selection.
func (p *processingUseCaseWithMetrics) SelectOldestUnprocessed(
	ctx context.Context,
) (*lawDomain.Record, bool, error) {
	start := time.Now()
	record, found, err := p.next.SelectOldestUnprocessed(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}

	p.metrics.RecordOperation(ctx, "law", "select_oldest_unprocessed", status)
	p.metrics.RecordDuration(ctx, "law", "select_oldest_unprocessed", time.Since(start), status)

	return record, found, err
}

// ProcessNext records metrics for full processing cycles.
func (p *processingUseCaseWithMetrics) ProcessNext(ctx context.Context) (*ProcessResult, bool, error) {
	start := time.Now()
	result, found, err := p.next.ProcessNext(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}

	p.metrics.RecordOperation(ctx, "law", "process_next", status)
	p.metrics.RecordDuration(ctx, "law", "process_next", time.Since(start), status)

	return result, found, err
}
