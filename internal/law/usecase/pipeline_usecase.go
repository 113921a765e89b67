package usecase

import (
	"context"
	"log/slog"
	"time"

	lawDomain "github.com/lawgram/lawgram/internal/law/domain"
)

// PipelineResult reports one full pipeline pass.
type PipelineResult struct {
	// Stats of the sync phase.
	Stats lawDomain.SyncStats
	// Result of the processing phase, nil when nothing was unprocessed.
	Result *ProcessResult
	// Processed is false when the queue was empty after the sync.
	Processed bool
}

// PipelineUseCase runs the full pass: sync the current year's laws, then
// process the oldest unprocessed one.
type PipelineUseCase interface {
	Run(ctx context.Context) (*PipelineResult, error)
}

// pipelineUseCase implements PipelineUseCase.
type pipelineUseCase struct {
	sync       SyncUseCase
	processing ProcessingUseCase
	now        func() time.Time
	logger     *slog.Logger
}

// NewPipelineUseCase creates a PipelineUseCase.
func NewPipelineUseCase(
	sync SyncUseCase,
	processing ProcessingUseCase,
	logger *slog.Logger,
) PipelineUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &pipelineUseCase{
		sync:       sync,
		processing: processing,
		now:        time.Now,
		logger:     logger,
	}
}

// Run syncs the current year's registry listing into the store, then runs one
// processing cycle. An empty queue after the sync is a successful pass.
func (p *pipelineUseCase) Run(ctx context.Context) (*PipelineResult, error) {
	year := p.now().UTC().Year()

	stats, err := p.sync.SyncYear(ctx, year)
	if err != nil {
		return nil, err
	}

	result, found, err := p.processing.ProcessNext(ctx)
	if err != nil {
		return nil, err
	}

	p.logger.Info("pipeline pass finished",
		slog.Int("year", year),
		slog.Int("inserted", stats.Inserted),
		slog.Bool("processed", found),
	)

	return &PipelineResult{
		Stats:     stats,
		Result:    result,
		Processed: found,
	}, nil
}
