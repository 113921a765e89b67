package usecase

import (
	"context"
	"errors"
	"log/slog"

	lawDomain "github.com/lawgram/lawgram/internal/law/domain"
)

// defaultSyncPageSize is the registry page size used when none is configured.
const defaultSyncPageSize = 20

// syncUseCase implements SyncUseCase.
type syncUseCase struct {
	lawRepo  LawRepository
	registry LawRegistry
	pageSize int
	logger   *slog.Logger
}

// NewSyncUseCase creates a SyncUseCase. pageSize controls registry listing
// pagination; values below 1 fall back to the default.
func NewSyncUseCase(lawRepo LawRepository, registry LawRegistry, pageSize int, logger *slog.Logger) SyncUseCase {
	if pageSize < 1 {
		pageSize = defaultSyncPageSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &syncUseCase{
		lawRepo:  lawRepo,
		registry: registry,
		pageSize: pageSize,
		logger:   logger,
	}
}

// SyncNewEntries inserts every candidate not yet tracked. The pass is
// idempotent: re-running it with the same candidates only produces skips.
func (s *syncUseCase) SyncNewEntries(
	ctx context.Context,
	candidates []lawDomain.Candidate,
) (lawDomain.SyncStats, error) {
	var stats lawDomain.SyncStats

	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		record := lawDomain.NewRecord(candidate)
		err := s.lawRepo.Create(ctx, &record)
		switch {
		case err == nil:
			stats.Inserted++
		case errors.Is(err, lawDomain.ErrRecordExists):
			stats.Skipped++
		default:
			// One bad candidate must not abort the pass.
			stats.Errored++
			s.logger.Error("failed to sync law candidate",
				slog.String("text_id", candidate.TextID),
				slog.Any("error", err),
			)
		}
	}

	s.logger.Info("law sync pass finished",
		slog.Int("inserted", stats.Inserted),
		slog.Int("skipped", stats.Skipped),
		slog.Int("errored", stats.Errored),
	)

	return stats, nil
}

// SyncYear lists every law of the year from the registry and syncs it.
func (s *syncUseCase) SyncYear(ctx context.Context, year int) (lawDomain.SyncStats, error) {
	candidates, err := s.registry.ListLawsOfYear(ctx, year, s.pageSize)
	if err != nil {
		return lawDomain.SyncStats{}, err
	}
	return s.SyncNewEntries(ctx, candidates)
}
