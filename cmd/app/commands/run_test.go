package commands

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lawgram/lawgram/internal/errors"
	lawDomain "github.com/lawgram/lawgram/internal/law/domain"
	lawUsecase "github.com/lawgram/lawgram/internal/law/usecase"
)

type mockPipelineUseCase struct {
	mock.Mock
}

func (m *mockPipelineUseCase) Run(ctx context.Context) (*lawUsecase.PipelineResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lawUsecase.PipelineResult), args.Error(1)
}

func TestRunPipeline(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("text-output", func(t *testing.T) {
		mockPipeline := &mockPipelineUseCase{}
		mockPipeline.On("Run", ctx).Return(&lawUsecase.PipelineResult{
			Stats:     lawDomain.SyncStats{Inserted: 3, Skipped: 2},
			Result:    &lawUsecase.ProcessResult{TextID: "JORFTEXT000051186804", PostID: "post-1"},
			Processed: true,
		}, nil)

		var out bytes.Buffer
		err := RunPipeline(ctx, mockPipeline, logger, &out, "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "3 inserted, 2 skipped, 0 errored")
		require.Contains(t, out.String(), "Published law JORFTEXT000051186804 as post post-1")
		mockPipeline.AssertExpectations(t)
	})

	t.Run("json-output", func(t *testing.T) {
		mockPipeline := &mockPipelineUseCase{}
		mockPipeline.On("Run", ctx).Return(&lawUsecase.PipelineResult{
			Stats:     lawDomain.SyncStats{Inserted: 1},
			Result:    &lawUsecase.ProcessResult{TextID: "JORFTEXT000051186804", PostID: "post-1"},
			Processed: true,
		}, nil)

		var out bytes.Buffer
		err := RunPipeline(ctx, mockPipeline, logger, &out, "json")

		require.NoError(t, err)
		require.Contains(t, out.String(), `"inserted": 1`)
		require.Contains(t, out.String(), `"post_id": "post-1"`)
		mockPipeline.AssertExpectations(t)
	})

	t.Run("empty-queue", func(t *testing.T) {
		mockPipeline := &mockPipelineUseCase{}
		mockPipeline.On("Run", ctx).Return(&lawUsecase.PipelineResult{
			Stats:     lawDomain.SyncStats{Skipped: 5},
			Processed: false,
		}, nil)

		var out bytes.Buffer
		err := RunPipeline(ctx, mockPipeline, logger, &out, "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "Nothing to process")
		mockPipeline.AssertExpectations(t)
	})

	t.Run("skipped-record", func(t *testing.T) {
		mockPipeline := &mockPipelineUseCase{}
		mockPipeline.On("Run", ctx).Return(&lawUsecase.PipelineResult{
			Result:    &lawUsecase.ProcessResult{TextID: "JORFTEXT000051186804", Skipped: true},
			Processed: true,
		}, nil)

		var out bytes.Buffer
		err := RunPipeline(ctx, mockPipeline, logger, &out, "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "Skipped law JORFTEXT000051186804")
		mockPipeline.AssertExpectations(t)
	})

	t.Run("classified-error", func(t *testing.T) {
		mockPipeline := &mockPipelineUseCase{}
		runErr := apperrors.New(apperrors.KindAuthentication, "token refresh rejected")
		mockPipeline.On("Run", ctx).Return(nil, runErr)

		var out bytes.Buffer
		err := RunPipeline(ctx, mockPipeline, logger, &out, "text")

		require.Error(t, err)
		require.True(t, apperrors.IsKind(err, apperrors.KindAuthentication))
		require.Empty(t, out.String())
		mockPipeline.AssertExpectations(t)
	})
}
