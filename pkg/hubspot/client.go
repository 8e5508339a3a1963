// Package hubspot provides a client for the HubSpot CRM v3 REST API.
package hubspot

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
	"golang.org/x/time/rate"

	"github.com/amz-risk/docflow-cli/internal/resilience"
)

// Client defines the CRM operations used by the sync and generation flows.
type Client interface {
	// Properties returns the names of all defined properties for an object type.
	Properties(ctx context.Context, objectType string) ([]string, error)
	// ListAll fetches every record of an object type, following pagination.
	ListAll(ctx context.Context, objectType string, properties []string) ([]Record, error)
	// Get fetches a single record by id with the given properties.
	Get(ctx context.Context, objectType, id string, properties []string) (*Record, error)
	// Update patches property values on a record.
	Update(ctx context.Context, objectType, id string, properties map[string]string) error
	// Associations returns the ids of related records, in API order.
	Associations(ctx context.Context, fromType, id, toType string) ([]string, error)
	// Owner fetches a CRM owner by id.
	Owner(ctx context.Context, ownerID string) (*Owner, error)
}

// Option configures the HubSpot client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithRateLimit sets a per-second rate limit for API calls.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

// WithPageSize overrides the page size used when listing objects.
func WithPageSize(n int) Option {
	return func(c *httpClient) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithRetry overrides the retry policy for transient failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) { c.retry = cfg }
}

type httpClient struct {
	token    string
	baseURL  string
	pageSize int
	http     *http.Client
	limiter  *rate.Limiter
	retry    resilience.RetryConfig
}

// NewClient creates a new HubSpot client authenticated with a private app token.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:    token,
		baseURL:  "https://api.hubapi.com",
		pageSize: 100,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(8, 8),
		retry:   resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do performs one authenticated request with rate limiting and transient
// retries, returning the response body.
func (c *httpClient) do(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, eris.Wrap(err, "hubspot: rate limit")
			}
		}

		reqURL := c.baseURL + path
		if len(query) > 0 {
			reqURL += "?" + query.Encode()
		}

		var body io.Reader
		if payload != nil {
			data, err := json.Marshal(payload)
			if err != nil {
				return nil, eris.Wrap(err, "hubspot: marshal payload")
			}
			body = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
		if err != nil {
			return nil, eris.Wrap(err, "hubspot: create request")
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "hubspot: request")
		}
		defer resp.Body.Close() //nolint:errcheck

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrap(err, "hubspot: read response")
		}

		if resp.StatusCode >= 400 {
			apiErr := eris.Errorf("hubspot: %s %s: status %d: %s", method, path, resp.StatusCode, string(data))
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				return nil, resilience.NewTransientError(apiErr, resp.StatusCode)
			}
			return nil, apiErr
		}

		return data, nil
	})
}

func (c *httpClient) Properties(ctx context.Context, objectType string) ([]string, error) {
	data, err := c.do(ctx, http.MethodGet, "/crm/v3/properties/"+objectType, nil, nil)
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("hubspot: properties %s", objectType))
	}

	var resp propertiesResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, eris.Wrap(err, "hubspot: decode properties")
	}

	names := make([]string, 0, len(resp.Results))
	for _, p := range resp.Results {
		names = append(names, p.Name)
	}
	return names, nil
}

func (c *httpClient) ListAll(ctx context.Context, objectType string, properties []string) ([]Record, error) {
	var all []Record
	after := ""

	for {
		q := url.Values{}
		q.Set("limit", fmt.Sprint(c.pageSize))
		if len(properties) > 0 {
			q.Set("properties", strings.Join(properties, ","))
		}
		if after != "" {
			q.Set("after", after)
		}

		data, err := c.do(ctx, http.MethodGet, "/crm/v3/objects/"+objectType, q, nil)
		if err != nil {
			return nil, eris.Wrap(err, fmt.Sprintf("hubspot: list %s", objectType))
		}

		var page listResponse
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, eris.Wrap(err, fmt.Sprintf("hubspot: decode %s page", objectType))
		}

		all = append(all, page.Results...)
		after = page.Paging.Next.After
		if after == "" {
			return all, nil
		}
	}
}

func (c *httpClient) Get(ctx context.Context, objectType, id string, properties []string) (*Record, error) {
	q := url.Values{}
	if len(properties) > 0 {
		q.Set("properties", strings.Join(properties, ","))
	}

	data, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/crm/v3/objects/%s/%s", objectType, id), q, nil)
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("hubspot: get %s %s", objectType, id))
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("hubspot: decode %s %s", objectType, id))
	}
	return &rec, nil
}

func (c *httpClient) Update(ctx context.Context, objectType, id string, properties map[string]string) error {
	payload := map[string]any{"properties": properties}
	_, err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/crm/v3/objects/%s/%s", objectType, id), nil, payload)
	if err != nil {
		return eris.Wrap(err, fmt.Sprintf("hubspot: update %s %s", objectType, id))
	}
	return nil
}

func (c *httpClient) Associations(ctx context.Context, fromType, id, toType string) ([]string, error) {
	path := fmt.Sprintf("/crm/v3/objects/%s/%s/associations/%s", fromType, id, toType)
	data, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("hubspot: associations %s %s -> %s", fromType, id, toType))
	}

	var resp associationsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, eris.Wrap(err, "hubspot: decode associations")
	}

	ids := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

func (c *httpClient) Owner(ctx context.Context, ownerID string) (*Owner, error) {
	data, err := c.do(ctx, http.MethodGet, "/crm/v3/owners/"+ownerID, nil, nil)
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("hubspot: owner %s", ownerID))
	}

	var owner Owner
	if err := json.Unmarshal(data, &owner); err != nil {
		return nil, eris.Wrap(err, "hubspot: decode owner")
	}
	return &owner, nil
}
