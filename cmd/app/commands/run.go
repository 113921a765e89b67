package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	apperrors "github.com/lawgram/lawgram/internal/errors"
	lawUsecase "github.com/lawgram/lawgram/internal/law/usecase"
)

// RunPipeline executes one full pipeline pass: sync the current year's laws
// from the registry, then publish the oldest unprocessed one. An empty queue
// after the sync is a successful pass, not an error.
func RunPipeline(
	ctx context.Context,
	pipeline lawUsecase.PipelineUseCase,
	logger *slog.Logger,
	writer io.Writer,
	format string,
) error {
	logger.Info("starting pipeline pass")

	result, err := pipeline.Run(ctx)
	if err != nil {
		logPipelineError(logger, err)
		return err
	}

	if format == "json" {
		outputPipelineJSON(writer, result)
	} else {
		outputPipelineText(writer, result)
	}

	return nil
}

// logPipelineError logs classified failures with their kind and details so
// operators can tell an expired token from a registry outage; anything outside
// the taxonomy is logged as unexpected.
func logPipelineError(logger *slog.Logger, err error) {
	var appErr *apperrors.Error
	if apperrors.As(err, &appErr) {
		logger.Error("pipeline pass failed",
			slog.String("kind", string(appErr.Kind)),
			slog.Any("details", appErr.Details),
			slog.Any("error", err),
		)
		return
	}

	logger.Error("unexpected pipeline error", slog.Any("error", err))
}

// outputPipelineText outputs the result in human-readable text format.
func outputPipelineText(w io.Writer, result *lawUsecase.PipelineResult) {
	fmt.Fprintf(w, "Synced registry listing: %d inserted, %d skipped, %d errored\n",
		result.Stats.Inserted, result.Stats.Skipped, result.Stats.Errored)

	switch {
	case !result.Processed:
		fmt.Fprintln(w, "Nothing to process: every tracked law is already published")
	case result.Result.Skipped:
		fmt.Fprintf(w, "Skipped law %s: no usable content\n", result.Result.TextID)
	default:
		fmt.Fprintf(w, "Published law %s as post %s\n", result.Result.TextID, result.Result.PostID)
	}
}

// outputPipelineJSON outputs the result in JSON format for machine consumption.
func outputPipelineJSON(w io.Writer, result *lawUsecase.PipelineResult) {
	out := map[string]interface{}{
		"inserted":  result.Stats.Inserted,
		"skipped":   result.Stats.Skipped,
		"errored":   result.Stats.Errored,
		"processed": result.Processed,
	}
	if result.Result != nil {
		out["text_id"] = result.Result.TextID
		out["post_id"] = result.Result.PostID
		out["content_skipped"] = result.Result.Skipped
	}

	jsonBytes, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintf(w, "failed to marshal JSON: %v\n", err)
		return
	}

	fmt.Fprintln(w, string(jsonBytes))
}
