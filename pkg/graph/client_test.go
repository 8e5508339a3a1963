package graph

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amz-risk/docflow-cli/internal/resilience"
)

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
		JitterFraction: 0,
	}
}

func newTestClient(srv *httptest.Server, ts TokenSource) Client {
	if ts == nil {
		ts = StaticTokenSource("tok")
	}
	return NewClient("site-1", ts, WithBaseURL(srv.URL), WithRetry(fastRetry()))
}

func TestListChildrenDecodesFolderFacet(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sites/site-1/drive/items/root-1/children", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"value": [
			{"id": "f1", "name": "Acme Corp", "folder": {"childCount": 3}},
			{"id": "d1", "name": "ClientData.xlsx", "file": {}}
		]}`))
	}))
	defer srv.Close()

	items, err := newTestClient(srv, nil).ListChildren(context.Background(), "root-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.True(t, items[0].Folder)
	assert.Equal(t, "Acme Corp", items[0].Name)
	assert.False(t, items[1].Folder)
}

type countingSource struct {
	issued atomic.Int32
}

func (s *countingSource) Token(ctx context.Context) (string, error) {
	n := s.issued.Add(1)
	if n == 1 {
		return "stale", nil
	}
	return "fresh", nil
}

func (s *countingSource) Invalidate() {}

func TestTokenReacquiredOn401(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer stale" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"value": []}`))
	}))
	defer srv.Close()

	src := &countingSource{}
	items, err := newTestClient(srv, src).ListChildren(context.Background(), "x")
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, int32(2), src.issued.Load())
}

func TestCreateFolderConflict(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error": {"code": "nameAlreadyExists"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv, nil).CreateFolder(context.Background(), "parent", "Acme Corp")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrFolderConflict))
}

func TestCreateFolderPermanentErrorKeepsStatus(t *testing.T) {
	t.Parallel()

	// Permanent failures short-circuit the retry loop, which returns the
	// zero result; the status must still reach the caller so only a real
	// 409 maps to ErrFolderConflict.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"code": "invalidRequest"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv, nil).CreateFolder(context.Background(), "parent", "Acme Corp")
	require.Error(t, err)
	assert.False(t, eris.Is(err, ErrFolderConflict))
	assert.Contains(t, err.Error(), "status 400")
}

func TestCreateFolderReturnsID(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "Acme Corp", payload["name"])
		assert.Equal(t, "fail", payload["@microsoft.graph.conflictBehavior"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": "new-folder", "name": "Acme Corp", "folder": {}}`))
	}))
	defer srv.Close()

	id, err := newTestClient(srv, nil).CreateFolder(context.Background(), "parent", "Acme Corp")
	require.NoError(t, err)
	assert.Equal(t, "new-folder", id)
}

func TestCopyAccepted(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sites/site-1/drive/items/tpl-1/copy", r.URL.Path)

		var payload struct {
			ParentReference map[string]string `json:"parentReference"`
			Name            string            `json:"name"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "target", payload.ParentReference["id"])
		assert.Equal(t, "out.docx", payload.Name)

		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	err := newTestClient(srv, nil).Copy(context.Background(), "tpl-1", "target", "out.docx")
	require.NoError(t, err)
}

func TestCopyRejected(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": {"code": "itemNotFound"}}`))
	}))
	defer srv.Close()

	err := newTestClient(srv, nil).Copy(context.Background(), "gone", "target", "out.docx")
	require.Error(t, err)
}

func TestUploadPutsContentByName(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Contains(t, r.URL.Path, "/sites/site-1/drive/items/folder-1:/")
		assert.Contains(t, r.URL.Path, ":/content")

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, []byte("docx-bytes"), body)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": "uploaded"}`))
	}))
	defer srv.Close()

	err := newTestClient(srv, nil).Upload(context.Background(), "folder-1", "AMZ Risk - MSA - Acme - 20260831.docx", []byte("docx-bytes"))
	require.NoError(t, err)
}

func TestDownloadReturnsBytes(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sites/site-1/drive/items/file-1/content", r.URL.Path)
		_, _ = w.Write([]byte("raw"))
	}))
	defer srv.Close()

	data, err := newTestClient(srv, nil).Download(context.Background(), "file-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("raw"), data)
}

func TestClientCredentialsSourceCachesToken(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/tid/oauth2/v2.0/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "cid", r.PostForm.Get("client_id"))
		_, _ = w.Write([]byte(`{"access_token": "abc", "expires_in": 3600}`))
	}))
	defer srv.Close()

	src := NewClientCredentialsSource("tid", "cid", "secret", srv.URL, srv.Client())

	tok, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	tok, err = src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)
	assert.Equal(t, int32(1), calls.Load())

	src.Invalidate()
	_, err = src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClientCredentialsSourceAuthFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "invalid_client"}`))
	}))
	defer srv.Close()

	src := NewClientCredentialsSource("tid", "cid", "bad", srv.URL, srv.Client())
	_, err := src.Token(context.Background())
	require.Error(t, err)

	c := NewClient("site", src, WithBaseURL(srv.URL))
	require.Error(t, c.Authenticate(context.Background()))
}
