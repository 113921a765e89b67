// Package integration provides end-to-end tests for the publishing pipeline,
// running the real container against fake registry, generation and social
// platform servers with an in-memory document store.
package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "gocloud.dev/docstore/memdocstore"

	"github.com/lawgram/lawgram/internal/app"
	"github.com/lawgram/lawgram/internal/config"
)

const testTextID = "JORFTEXT000051186804"

// newTokenServer fakes the OAuth2 client-credentials endpoint.
func newTokenServer(t *testing.T) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.FormValue("grant_type"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token": "integration-token", "expires_in": 3600}`))
	}))
}

// newRegistryServer fakes the legal-text registry: one law on the first
// listing page, full detail on consult.
func newRegistryServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("/list/loda", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer integration-token", r.Header.Get("Authorization"))

		var criteria struct {
			PageNumber int `json:"pageNumber"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&criteria))

		w.Header().Set("Content-Type", "application/json")
		if criteria.PageNumber > 1 {
			_, _ = w.Write([]byte(`{"results": [], "totalResultNumber": 1}`))
			return
		}
		_, _ = w.Write([]byte(`{
			"results": [
				{
					"id": "` + testTextID + `",
					"cid": "` + testTextID + `",
					"etat": "VIGUEUR",
					"titre": "LOI relative au renforcement de la surete",
					"lastUpdate": "2025-02-01T10:00:00Z"
				}
			],
			"totalResultNumber": 1
		}`))
	})

	mux.HandleFunc("/consult/legiPart", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer integration-token", r.Header.Get("Authorization"))

		var payload struct {
			Date   string `json:"date"`
			TextID string `json:"textId"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, testTextID, payload.TextID)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "` + testTextID + `",
			"cid": "` + testTextID + `",
			"title": "LOI relative au renforcement de la surete",
			"nor": "INTX2500001L",
			"signers": "<p>Le President de la Republique,</p><p>Le Premier ministre,</p>",
			"nature": "LOI",
			"dateParution": 1738368000000,
			"articles": [
				{
					"id": "art-1",
					"cid": "art-1",
					"num": "1",
					"intOrdre": 1,
					"etat": "VIGUEUR",
					"content": "<p>Article premier.</p>"
				}
			]
		}`))
	})

	return httptest.NewServer(mux)
}

// newGenerationServer fakes the summary and illustration service.
func newGenerationServer(t *testing.T) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/generate", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"summary": "A new public safety law.",
			"image_url": "https://cdn.example.com/law.jpg",
			"image_description": "A courthouse at dawn",
			"caption": "A new public safety law was promulgated."
		}`))
	}))
}

// newGraphServer fakes the social graph API: account resolution, the
// three-step publish protocol and the comment endpoint.
func newGraphServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("/v22.0/me", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "acct-1"}`))
	})
	mux.HandleFunc("/v22.0/acct-1/media", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "creation-1"}`))
	})
	mux.HandleFunc("/v22.0/creation-1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status_code": "FINISHED"}`))
	})
	mux.HandleFunc("/v22.0/acct-1/media_publish", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "post-1"}`))
	})
	mux.HandleFunc("/v22.0/post-1/comments", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Contains(t, r.FormValue("message"), testTextID)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "comment-1"}`))
	})

	return httptest.NewServer(mux)
}

func newIntegrationConfig(tokenURL, registryURL, generationURL, graphURL string) *config.Config {
	return &config.Config{
		LogLevel:                 "error",
		RegistryBaseURL:          registryURL,
		RegistryTokenURL:         tokenURL,
		RegistryClientID:         "client-id",
		RegistryClientSecret:     "client-secret",
		RegistryPageSize:         20,
		RegistryRequestsPerSec:   100,
		RegistryBurst:            10,
		PublisherAccessToken:     "graph-token",
		PublisherGraphURL:        graphURL,
		PublisherAPIVersion:      "v22.0",
		PublisherPollInterval:    time.Millisecond,
		PublisherPollMaxAttempts: 3,
		GenerationServiceURL:     generationURL,
		StoreURL:                 "mem://law-posts/textId",
		HTTPTimeout:              5 * time.Second,
		RetryMaxAttempts:         2,
		ServerHost:               "localhost",
		ServerPort:               8080,
	}
}

// TestPipelineEndToEnd drives one full pass through the trigger server: sync
// the listing, fetch the detail, generate the post, publish it, comment the
// document URL and mark the record processed. A second pass must find an
// empty queue.
func TestPipelineEndToEnd(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	tokenServer := newTokenServer(t)
	defer tokenServer.Close()
	registryServer := newRegistryServer(t)
	defer registryServer.Close()
	generationServer := newGenerationServer(t)
	defer generationServer.Close()
	graphServer := newGraphServer(t)
	defer graphServer.Close()

	cfg := newIntegrationConfig(
		tokenServer.URL,
		registryServer.URL,
		generationServer.URL,
		graphServer.URL,
	)
	container := app.NewContainer(cfg)
	defer func() {
		require.NoError(t, container.Shutdown(ctx))
	}()

	server, err := container.TriggerServer()
	require.NoError(t, err)

	t.Run("first pass publishes the law", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/run", nil)
		server.GetHandler().ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var body struct {
			Inserted  int    `json:"inserted"`
			Processed bool   `json:"processed"`
			TextID    string `json:"textId"`
			PostID    string `json:"postId"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, 1, body.Inserted)
		assert.True(t, body.Processed)
		assert.Equal(t, testTextID, body.TextID)
		assert.Equal(t, "post-1", body.PostID)
	})

	t.Run("record is marked processed", func(t *testing.T) {
		repo, err := container.LawRepository()
		require.NoError(t, err)

		record, err := repo.Get(ctx, testTextID)
		require.NoError(t, err)
		assert.True(t, record.IsProcessed)
		assert.Equal(t, "2025-02-01T10:00:00Z", record.Date)
	})

	t.Run("second pass finds an empty queue", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/run", nil)
		server.GetHandler().ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var body struct {
			Inserted  int  `json:"inserted"`
			Skipped   int  `json:"skipped"`
			Processed bool `json:"processed"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, 0, body.Inserted)
		assert.Equal(t, 1, body.Skipped)
		assert.False(t, body.Processed)
	})
}

// TestPipelineHealthz exercises the liveness endpoint on the assembled server.
func TestPipelineHealthz(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tokenServer := newTokenServer(t)
	defer tokenServer.Close()
	registryServer := newRegistryServer(t)
	defer registryServer.Close()
	generationServer := newGenerationServer(t)
	defer generationServer.Close()
	graphServer := newGraphServer(t)
	defer graphServer.Close()

	cfg := newIntegrationConfig(
		tokenServer.URL,
		registryServer.URL,
		generationServer.URL,
		graphServer.URL,
	)
	container := app.NewContainer(cfg)
	defer func() {
		require.NoError(t, container.Shutdown(context.Background()))
	}()

	server, err := container.TriggerServer()
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	server.GetHandler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}
