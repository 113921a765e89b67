package generation

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/lawgram/lawgram/internal/errors"
	"github.com/lawgram/lawgram/internal/httpx"
)

// generateEndpoint is the generation service's single operation.
const generateEndpoint = "/generate"

// RemoteGenerator talks to the generation service over HTTP. The service owns
// the summarization and illustration internals; this client only moves the
// prepared input over and checks the answer is usable.
type RemoteGenerator struct {
	http    *httpx.Client
	baseURL string
	logger  *slog.Logger
}

// NewRemoteGenerator creates a RemoteGenerator.
func NewRemoteGenerator(httpClient *httpx.Client, baseURL string, logger *slog.Logger) (*RemoteGenerator, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, apperrors.New(apperrors.KindConfig, "generation service URL is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoteGenerator{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}, nil
}

// generateRequest is the wire form of the generation input.
type generateRequest struct {
	Title           string `json:"title"`
	PublicationDate string `json:"publication_date,omitempty"`
	Signatories     string `json:"signatories,omitempty"`
	Content         string `json:"content"`
}

// generateResponse is the wire form of the generation output.
type generateResponse struct {
	Summary          string `json:"summary"`
	ImageURL         string `json:"image_url"`
	ImageDescription string `json:"image_description"`
	Caption          string `json:"caption"`
}

// SummarizeAndIllustrate sends the prepared law to the generation service and
// returns its output. An answer without a usable image URL or caption is a
// generation failure.
func (g *RemoteGenerator) SummarizeAndIllustrate(ctx context.Context, input Input) (*Output, error) {
	request := generateRequest{
		Title:       input.Title,
		Signatories: input.Signatories,
		Content:     input.Content,
	}
	if input.PublicationDate != nil {
		request.PublicationDate = input.PublicationDate.UTC().Format(time.RFC3339)
	}

	resp, err := g.http.SendRetry(ctx, http.MethodPost, g.baseURL+generateEndpoint,
		httpx.WithJSONBody(request))
	if err != nil {
		return nil, err
	}

	var generated generateResponse
	if err := resp.DecodeJSON(&generated); err != nil {
		return nil, err
	}

	output := &Output{
		Summary:          generated.Summary,
		ImageURL:         generated.ImageURL,
		ImageDescription: generated.ImageDescription,
		Caption:          generated.Caption,
	}
	if !output.Usable() {
		return nil, apperrors.New(apperrors.KindGeneration,
			"generation service returned no usable image URL or caption",
			apperrors.WithDetail("title", input.Title),
		)
	}

	g.logger.Info("generated post material", slog.String("image_url", output.ImageURL))
	return output, nil
}
