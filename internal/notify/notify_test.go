package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amz-risk/docflow-cli/internal/config"
)

func TestWebhookNotify(t *testing.T) {
	t.Parallel()

	var got Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	n := NewWebhook(config.NotifyConfig{
		WebhookURL: srv.URL,
		Recipient:  "ops@example.com",
	})
	n.now = func() time.Time { return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) }

	n.Notify(context.Background(), "NDA Copy Timeout", "Copy timed out for Acme Corp", map[string]any{
		"company": "Acme Corp",
	})

	assert.Equal(t, "NDA Copy Timeout", got.Subject)
	assert.Equal(t, "Copy timed out for Acme Corp", got.Body)
	assert.Equal(t, "ops@example.com", got.Recipient)
	assert.Equal(t, "Acme Corp", got.Details["company"])
	assert.Equal(t, 2026, got.Timestamp.Year())
}

func TestWebhookNoURLConfigured(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	n := NewWebhook(config.NotifyConfig{})
	n.Notify(context.Background(), "Subject", "Body", nil)

	assert.Equal(t, int64(0), calls.Load())
}

func TestWebhookServerErrorSwallowed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewWebhook(config.NotifyConfig{WebhookURL: srv.URL})

	// Delivery failures must never propagate.
	n.Notify(context.Background(), "Subject", "Body", nil)
}
