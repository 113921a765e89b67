package publisher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lawgram/lawgram/internal/errors"
	"github.com/lawgram/lawgram/internal/httpx"
	"github.com/lawgram/lawgram/internal/retry"
)

func newPublisherClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	policy := retry.DefaultPolicy()
	policy.InitialDelay = time.Millisecond
	httpClient := httpx.NewClient("Publisher", httpx.WithRetrier(retry.New(policy, nil)))

	client, err := NewClient(context.Background(), httpClient, Config{
		GraphURL:        server.URL,
		APIVersion:      "v22.0",
		AccessToken:     "publisher-token",
		PollInterval:    time.Millisecond,
		PollMaxAttempts: 3,
	}, nil)
	require.NoError(t, err)
	return client
}

func accountHandler(t *testing.T, w http.ResponseWriter, r *http.Request) bool {
	t.Helper()
	if r.URL.Path != "/v22.0/me" {
		return false
	}
	assert.Equal(t, "id", r.URL.Query().Get("fields"))
	assert.Equal(t, "publisher-token", r.URL.Query().Get("access_token"))
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"id":"17841400000000001"}`))
	return true
}

func TestNewClient_ResolvesAccountID(t *testing.T) {
	client := newPublisherClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.True(t, accountHandler(t, w, r))
	})

	assert.Equal(t, "17841400000000001", client.AccountID())
}

func TestNewClient_MissingAccountID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(server.Close)

	httpClient := httpx.NewClient("Publisher")
	_, err := NewClient(context.Background(), httpClient, Config{
		GraphURL:    server.URL,
		APIVersion:  "v22.0",
		AccessToken: "publisher-token",
	}, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindPublishing))
}

func TestNewClient_MissingToken(t *testing.T) {
	_, err := NewClient(context.Background(), httpx.NewClient("Publisher"), Config{
		GraphURL:   "https://graph.example.com",
		APIVersion: "v22.0",
	}, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConfig))
}

func TestCreateMedia(t *testing.T) {
	client := newPublisherClient(t, func(w http.ResponseWriter, r *http.Request) {
		if accountHandler(t, w, r) {
			return
		}
		assert.Equal(t, "/v22.0/17841400000000001/media", r.URL.Path)
		assert.Equal(t, "publisher-token", r.URL.Query().Get("access_token"))

		var payload MediaPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "https://img.example.com/law.png", payload.ImageURL)
		assert.Equal(t, "Nouvelle loi", payload.Caption)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"creation-1"}`))
	})

	creationID, err := client.CreateMedia(context.Background(), "https://img.example.com/law.png", "Nouvelle loi")
	require.NoError(t, err)
	assert.Equal(t, "creation-1", creationID)
}

func TestCreateMedia_InvalidPayload(t *testing.T) {
	var mediaCalls int
	client := newPublisherClient(t, func(w http.ResponseWriter, r *http.Request) {
		if accountHandler(t, w, r) {
			return
		}
		mediaCalls++
	})

	tests := []struct {
		name     string
		imageURL string
		caption  string
	}{
		{"non-image URL", "https://img.example.com/law.pdf", "caption"},
		{"empty caption", "https://img.example.com/law.png", ""},
		{"empty image URL", "", "caption"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.CreateMedia(context.Background(), tt.imageURL, tt.caption)
			require.Error(t, err)
			assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
		})
	}
	assert.Zero(t, mediaCalls)
}

func TestCreateMedia_MissingCreationID(t *testing.T) {
	client := newPublisherClient(t, func(w http.ResponseWriter, r *http.Request) {
		if accountHandler(t, w, r) {
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":{"message":"media type unsupported","code":9004}}`))
	})

	_, err := client.CreateMedia(context.Background(), "https://img.example.com/law.png", "caption")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindPublishing))

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "media type unsupported", appErr.Details["platform_message"])
}

func TestWaitForProcessing(t *testing.T) {
	var polls int
	client := newPublisherClient(t, func(w http.ResponseWriter, r *http.Request) {
		if accountHandler(t, w, r) {
			return
		}
		assert.Equal(t, "/v22.0/creation-1", r.URL.Path)
		assert.Equal(t, "status_code", r.URL.Query().Get("fields"))

		polls++
		w.Header().Set("Content-Type", "application/json")
		if polls < 3 {
			_, _ = w.Write([]byte(`{"status_code":"IN_PROGRESS"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status_code":"FINISHED"}`))
	})

	require.NoError(t, client.WaitForProcessing(context.Background(), "creation-1"))
	assert.Equal(t, 3, polls)
}

func TestWaitForProcessing_ErrorStatus(t *testing.T) {
	client := newPublisherClient(t, func(w http.ResponseWriter, r *http.Request) {
		if accountHandler(t, w, r) {
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status_code":"ERROR"}`))
	})

	err := client.WaitForProcessing(context.Background(), "creation-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindPublishing))
}

func TestWaitForProcessing_Timeout(t *testing.T) {
	var polls int
	client := newPublisherClient(t, func(w http.ResponseWriter, r *http.Request) {
		if accountHandler(t, w, r) {
			return
		}
		polls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status_code":"IN_PROGRESS"}`))
	})

	err := client.WaitForProcessing(context.Background(), "creation-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindPublishing))
	assert.Equal(t, 3, polls)

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Details, "elapsed")
}

func TestPublishPost(t *testing.T) {
	client := newPublisherClient(t, func(w http.ResponseWriter, r *http.Request) {
		if accountHandler(t, w, r) {
			return
		}
		assert.Equal(t, "/v22.0/17841400000000001/media_publish", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "creation-1", r.PostForm.Get("creation_id"))
		assert.Equal(t, "publisher-token", r.PostForm.Get("access_token"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"post-1"}`))
	})

	postID, err := client.PublishPost(context.Background(), "creation-1")
	require.NoError(t, err)
	assert.Equal(t, "post-1", postID)
}

func TestPublish_FullProtocol(t *testing.T) {
	var order []string
	client := newPublisherClient(t, func(w http.ResponseWriter, r *http.Request) {
		if accountHandler(t, w, r) {
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/v22.0/17841400000000001/media":
			order = append(order, "create")
			_, _ = w.Write([]byte(`{"id":"creation-1"}`))
		case r.URL.Path == "/v22.0/creation-1":
			order = append(order, "status")
			_, _ = w.Write([]byte(`{"status_code":"FINISHED"}`))
		case r.URL.Path == "/v22.0/17841400000000001/media_publish":
			order = append(order, "publish")
			_, _ = w.Write([]byte(`{"id":"post-1"}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	postID, err := client.Publish(context.Background(), "https://img.example.com/law.png", "caption")
	require.NoError(t, err)
	assert.Equal(t, "post-1", postID)
	assert.Equal(t, []string{"create", "status", "publish"}, order)
}

func TestCommentOnPost(t *testing.T) {
	var commented bool
	client := newPublisherClient(t, func(w http.ResponseWriter, r *http.Request) {
		if accountHandler(t, w, r) {
			return
		}
		assert.Equal(t, "/v22.0/post-1/comments", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "https://www.legifrance.gouv.fr/jorf/id/JORFTEXT000051186804", r.PostForm.Get("message"))
		commented = true

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"comment-1"}`))
	})

	err := client.CommentOnPost(context.Background(), "post-1",
		"https://www.legifrance.gouv.fr/jorf/id/JORFTEXT000051186804")
	require.NoError(t, err)
	assert.True(t, commented)
}
