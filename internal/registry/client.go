package registry

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/lawgram/lawgram/internal/errors"
	"github.com/lawgram/lawgram/internal/httpx"
	lawDomain "github.com/lawgram/lawgram/internal/law/domain"
)

// Endpoints of the registry API, relative to the base URL.
const (
	listEndpoint    = "/list/loda"
	consultEndpoint = "/consult/legiPart"
)

// documentHost is the public host where registry documents are browsable.
const documentHost = "https://www.legifrance.gouv.fr"

// Client is the typed wrapper over the registry API. Every call goes through
// the resilient HTTP client's retry policy and carries a fresh bearer token.
type Client struct {
	http    *httpx.Client
	baseURL string
	logger  *slog.Logger
}

// NewClient creates a registry client. The httpx client is expected to carry
// the token manager's header func and the outbound rate limiter.
func NewClient(http *httpx.Client, baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		http:    http,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// ListLaws fetches one page of laws matching the criteria.
func (c *Client) ListLaws(ctx context.Context, criteria ListCriteria) (*LawList, error) {
	if err := criteria.Validate(); err != nil {
		return nil, apperrors.New(apperrors.KindValidation,
			"invalid law list criteria",
			apperrors.WithCause(err),
		)
	}

	resp, err := c.http.SendRetry(ctx, http.MethodPost, c.baseURL+listEndpoint,
		httpx.WithJSONBody(criteria))
	if err != nil {
		return nil, err
	}

	var list LawList
	if err := resp.DecodeJSON(&list); err != nil {
		return nil, err
	}
	if err := list.Validate(); err != nil {
		return nil, apperrors.New(apperrors.KindDataParsing,
			"law list response failed schema validation",
			apperrors.WithCause(err),
			apperrors.WithDetail("response_text", resp.Text()),
		)
	}

	return &list, nil
}

// ListLawsOfYear pages through all laws published in the given year and
// returns them as sync candidates. Paging stops at the first short page.
func (c *Client) ListLawsOfYear(ctx context.Context, year, pageSize int) ([]lawDomain.Candidate, error) {
	var candidates []lawDomain.Candidate

	for pageNumber := 1; ; pageNumber++ {
		list, err := c.ListLaws(ctx, LawsOfYearCriteria(year, pageNumber, pageSize))
		if err != nil {
			return nil, err
		}
		if len(list.Results) == 0 {
			break
		}

		for _, result := range list.Results {
			candidates = append(candidates, lawDomain.Candidate{
				TextID:     result.ID,
				LastUpdate: result.LastUpdate,
			})
		}

		if len(list.Results) < pageSize {
			break
		}
	}

	c.logger.Info("listed laws for year",
		slog.Int("year", year),
		slog.Int("count", len(candidates)),
	)

	return candidates, nil
}

// FetchLawDetail fetches the full detail of one legal text as of the given
// date. A registry "no content" answer surfaces as a not-found error; a
// structurally valid but empty detail is returned as-is, and callers must
// check HasContent before use.
func (c *Client) FetchLawDetail(ctx context.Context, textID string, asOf time.Time) (*lawDomain.LawDetail, error) {
	payload := consultRequest{
		Date:   asOf.UTC().Format("2006-01-02"),
		TextID: textID,
	}

	resp, err := c.http.SendRetry(ctx, http.MethodPost, c.baseURL+consultEndpoint,
		httpx.WithJSONBody(payload))
	if err != nil {
		return nil, apperrors.Wrap(err, fmt.Sprintf("fetching law detail for %s", textID))
	}

	var consult consultResponse
	if err := resp.DecodeJSON(&consult); err != nil {
		return nil, err
	}
	if err := consult.Validate(); err != nil {
		return nil, apperrors.New(apperrors.KindDataParsing,
			"law detail response failed schema validation",
			apperrors.WithCause(err),
			apperrors.WithDetail("text_id", textID),
			apperrors.WithDetail("response_text", resp.Text()),
		)
	}

	return consult.toDomain(), nil
}

// toDomain converts the wire representation into the transient domain detail.
func (r *consultResponse) toDomain() *lawDomain.LawDetail {
	detail := &lawDomain.LawDetail{
		ID:       r.ID,
		Cid:      r.Cid,
		Title:    r.Title,
		Nor:      r.Nor,
		JorfText: r.JorfText,
		Signers:  r.Signers,
		Nature:   r.Nature,
	}
	if r.DateParution != nil {
		t := time.UnixMilli(*r.DateParution).UTC()
		detail.DateParution = &t
	}
	for _, a := range r.Articles {
		detail.Articles = append(detail.Articles, lawDomain.Article{
			ID:       a.ID,
			Cid:      a.Cid,
			Num:      a.Num,
			IntOrdre: a.IntOrdre,
			Etat:     a.Etat,
			Content:  a.Content,
		})
	}
	return detail
}

// DocumentURL derives the public document URL for a fetched detail. The cid
// cross-reference is required; its absence is a data-integrity failure.
func DocumentURL(detail *lawDomain.LawDetail) (string, error) {
	if detail == nil || strings.TrimSpace(detail.Cid) == "" {
		return "", apperrors.New(apperrors.KindDataIntegrity,
			"law detail is missing the cid cross-reference identifier")
	}
	return fmt.Sprintf("%s/jorf/id/%s", documentHost, detail.Cid), nil
}
