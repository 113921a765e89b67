package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	lawDomain "github.com/lawgram/lawgram/internal/law/domain"
	lawUsecase "github.com/lawgram/lawgram/internal/law/usecase"
)

// RunSync lists every law the registry published in the given year and inserts
// the ones not yet tracked. Useful for backfilling the store without touching
// the publishing side.
func RunSync(
	ctx context.Context,
	syncUseCase lawUsecase.SyncUseCase,
	logger *slog.Logger,
	writer io.Writer,
	year int,
	format string,
) error {
	if year < 1800 {
		return fmt.Errorf("year must be a four-digit publication year, got: %d", year)
	}

	logger.Info("syncing registry listing", slog.Int("year", year))

	stats, err := syncUseCase.SyncYear(ctx, year)
	if err != nil {
		logPipelineError(logger, err)
		return err
	}

	if format == "json" {
		outputSyncJSON(writer, year, stats)
	} else {
		outputSyncText(writer, year, stats)
	}

	return nil
}

// outputSyncText outputs the result in human-readable text format.
func outputSyncText(w io.Writer, year int, stats lawDomain.SyncStats) {
	fmt.Fprintf(w, "Synced laws of %d: %d inserted, %d skipped, %d errored\n",
		year, stats.Inserted, stats.Skipped, stats.Errored)
}

// outputSyncJSON outputs the result in JSON format for machine consumption.
func outputSyncJSON(w io.Writer, year int, stats lawDomain.SyncStats) {
	out := map[string]interface{}{
		"year":     year,
		"inserted": stats.Inserted,
		"skipped":  stats.Skipped,
		"errored":  stats.Errored,
	}

	jsonBytes, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintf(w, "failed to marshal JSON: %v\n", err)
		return
	}

	fmt.Fprintln(w, string(jsonBytes))
}
