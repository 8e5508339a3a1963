// Package graph provides a Microsoft Graph drive client scoped to one
// SharePoint site.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/amz-risk/docflow-cli/internal/resilience"
)

// DriveItem is a file or folder entry in the site drive.
type DriveItem struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Folder bool   `json:"-"`
}

// UnmarshalJSON derives the Folder flag from the presence of the facet.
func (d *DriveItem) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID     string          `json:"id"`
		Name   string          `json:"name"`
		Folder json.RawMessage `json:"folder"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.ID = raw.ID
	d.Name = raw.Name
	d.Folder = len(raw.Folder) > 0
	return nil
}

// ErrFolderConflict is returned when folder creation hits an existing name.
var ErrFolderConflict = eris.New("graph: folder name conflict")

// Client defines the drive operations used by the document flows.
type Client interface {
	// Authenticate acquires a token up front so auth failures abort a run
	// before any entity processing.
	Authenticate(ctx context.Context) error
	// ListChildren lists the entries directly under a drive item.
	ListChildren(ctx context.Context, itemID string) ([]DriveItem, error)
	// CreateFolder creates a folder under a parent; an existing name is a
	// conflict, not an overwrite.
	CreateFolder(ctx context.Context, parentID, name string) (string, error)
	// Copy requests an asynchronous server-side copy of an item into a
	// target folder under a new name. Acceptance does not imply completion.
	Copy(ctx context.Context, itemID, targetParentID, newName string) error
	// Download fetches the raw bytes of a file item.
	Download(ctx context.Context, itemID string) ([]byte, error)
	// Upload writes bytes as a named child of a folder, overwriting any
	// existing file of that name.
	Upload(ctx context.Context, parentID, name string, data []byte) error
}

// Option configures the Graph client.
type Option func(*httpClient)

// WithBaseURL sets a custom API base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithRetry overrides the retry policy for transient failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) { c.retry = cfg }
}

type httpClient struct {
	siteID  string
	baseURL string
	tokens  TokenSource
	http    *http.Client
	retry   resilience.RetryConfig
}

// NewClient creates a drive client for the given site using tokens from ts.
func NewClient(siteID string, ts TokenSource, opts ...Option) Client {
	c := &httpClient{
		siteID:  siteID,
		baseURL: "https://graph.microsoft.com/v1.0",
		tokens:  ts,
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		retry: resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Authenticate(ctx context.Context) error {
	if _, err := c.tokens.Token(ctx); err != nil {
		return eris.Wrap(err, "graph: authenticate")
	}
	return nil
}

// itemPath builds a drive item path under the configured site.
func (c *httpClient) itemPath(itemID, suffix string) string {
	p := fmt.Sprintf("/sites/%s/drive/items/%s", c.siteID, itemID)
	if suffix != "" {
		p += suffix
	}
	return p
}

// apiError is a permanent (non-retried) API failure. The status lives on
// the error because retries return the zero value, not the failed result.
type apiError struct {
	status int
	body   []byte
	msg    string
}

func (e *apiError) Error() string { return e.msg }

// do performs one request, re-acquiring the token once on 401 and retrying
// transient statuses. Returns the body and status code.
func (c *httpClient) do(ctx context.Context, method, path string, contentType string, payload []byte) ([]byte, int, error) {
	type result struct {
		body   []byte
		status int
	}

	res, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (result, error) {
		refreshed := false
		for {
			token, err := c.tokens.Token(ctx)
			if err != nil {
				return result{}, eris.Wrap(err, "graph: acquire token")
			}

			var body io.Reader
			if payload != nil {
				body = bytes.NewReader(payload)
			}
			req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
			if err != nil {
				return result{}, eris.Wrap(err, "graph: create request")
			}
			req.Header.Set("Authorization", "Bearer "+token)
			if contentType != "" {
				req.Header.Set("Content-Type", contentType)
			}

			resp, err := c.http.Do(req)
			if err != nil {
				return result{}, eris.Wrap(err, "graph: request")
			}
			data, readErr := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if readErr != nil {
				return result{}, eris.Wrap(readErr, "graph: read response")
			}

			// Token may have been revoked or expired server-side; re-acquire
			// once and replay the call.
			if resp.StatusCode == http.StatusUnauthorized && !refreshed {
				refreshed = true
				c.tokens.Invalidate()
				continue
			}

			if resp.StatusCode >= 400 {
				msg := fmt.Sprintf("graph: %s %s: status %d: %s", method, path, resp.StatusCode, string(data))
				if resilience.IsTransientHTTPStatus(resp.StatusCode) {
					return result{}, resilience.NewTransientError(eris.New(msg), resp.StatusCode)
				}
				return result{}, &apiError{status: resp.StatusCode, body: data, msg: msg}
			}

			return result{body: data, status: resp.StatusCode}, nil
		}
	})
	if err != nil {
		var apiErr *apiError
		if eris.As(err, &apiErr) {
			return apiErr.body, apiErr.status, err
		}
		return nil, 0, err
	}
	return res.body, res.status, nil
}

func (c *httpClient) ListChildren(ctx context.Context, itemID string) ([]DriveItem, error) {
	data, _, err := c.do(ctx, http.MethodGet, c.itemPath(itemID, "/children"), "", nil)
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("graph: list children %s", itemID))
	}

	var resp struct {
		Value []DriveItem `json:"value"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, eris.Wrap(err, "graph: decode children")
	}
	return resp.Value, nil
}

func (c *httpClient) CreateFolder(ctx context.Context, parentID, name string) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"name":                              name,
		"folder":                            map[string]any{},
		"@microsoft.graph.conflictBehavior": "fail",
	})
	if err != nil {
		return "", eris.Wrap(err, "graph: marshal folder payload")
	}

	data, status, doErr := c.do(ctx, http.MethodPost, c.itemPath(parentID, "/children"), "application/json", payload)
	if doErr != nil {
		if status == http.StatusConflict {
			return "", eris.Wrap(ErrFolderConflict, fmt.Sprintf("graph: create folder %q under %s", name, parentID))
		}
		return "", eris.Wrap(doErr, fmt.Sprintf("graph: create folder %q under %s", name, parentID))
	}

	var item DriveItem
	if err := json.Unmarshal(data, &item); err != nil {
		return "", eris.Wrap(err, "graph: decode created folder")
	}
	return item.ID, nil
}

func (c *httpClient) Copy(ctx context.Context, itemID, targetParentID, newName string) error {
	payload, err := json.Marshal(map[string]any{
		"parentReference": map[string]string{"id": targetParentID},
		"name":            newName,
	})
	if err != nil {
		return eris.Wrap(err, "graph: marshal copy payload")
	}

	_, _, doErr := c.do(ctx, http.MethodPost, c.itemPath(itemID, "/copy"), "application/json", payload)
	if doErr != nil {
		return eris.Wrap(doErr, fmt.Sprintf("graph: copy %s into %s as %q", itemID, targetParentID, newName))
	}
	return nil
}

func (c *httpClient) Download(ctx context.Context, itemID string) ([]byte, error) {
	data, _, err := c.do(ctx, http.MethodGet, c.itemPath(itemID, "/content"), "", nil)
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("graph: download %s", itemID))
	}
	return data, nil
}

func (c *httpClient) Upload(ctx context.Context, parentID, name string, data []byte) error {
	path := c.itemPath(parentID, ":/"+url.PathEscape(name)+":/content")
	_, _, err := c.do(ctx, http.MethodPut, path, "application/octet-stream", data)
	if err != nil {
		return eris.Wrap(err, fmt.Sprintf("graph: upload %q into %s", name, parentID))
	}
	return nil
}
