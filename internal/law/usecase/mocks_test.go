package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/lawgram/lawgram/internal/generation"
	lawDomain "github.com/lawgram/lawgram/internal/law/domain"
)

type mockLawRepository struct {
	mock.Mock
}

func (m *mockLawRepository) Create(ctx context.Context, record *lawDomain.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *mockLawRepository) Get(ctx context.Context, textID string) (*lawDomain.Record, error) {
	args := m.Called(ctx, textID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lawDomain.Record), args.Error(1)
}

func (m *mockLawRepository) MarkProcessed(ctx context.Context, textID string) error {
	args := m.Called(ctx, textID)
	return args.Error(0)
}

func (m *mockLawRepository) Delete(ctx context.Context, textID string) error {
	args := m.Called(ctx, textID)
	return args.Error(0)
}

func (m *mockLawRepository) ListUnprocessed(ctx context.Context) ([]*lawDomain.Record, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*lawDomain.Record), args.Error(1)
}

type mockLawRegistry struct {
	mock.Mock
}

func (m *mockLawRegistry) ListLawsOfYear(
	ctx context.Context,
	year, pageSize int,
) ([]lawDomain.Candidate, error) {
	args := m.Called(ctx, year, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]lawDomain.Candidate), args.Error(1)
}

func (m *mockLawRegistry) FetchLawDetail(
	ctx context.Context,
	textID string,
	asOf time.Time,
) (*lawDomain.LawDetail, error) {
	args := m.Called(ctx, textID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lawDomain.LawDetail), args.Error(1)
}

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) SummarizeAndIllustrate(
	ctx context.Context,
	input generation.Input,
) (*generation.Output, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*generation.Output), args.Error(1)
}

type mockPostPublisher struct {
	mock.Mock
}

func (m *mockPostPublisher) Publish(ctx context.Context, imageURL, caption string) (string, error) {
	args := m.Called(ctx, imageURL, caption)
	return args.String(0), args.Error(1)
}

func (m *mockPostPublisher) CommentOnPost(ctx context.Context, postID, message string) error {
	args := m.Called(ctx, postID, message)
	return args.Error(0)
}
