package graph

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// TokenSource supplies bearer tokens for Graph API calls. Implementations
// cache tokens; Invalidate forces re-acquisition after a 401.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

// clientCredentialsSource acquires tokens via the OAuth2 client-credentials
// grant and caches them until shortly before expiry.
type clientCredentialsSource struct {
	tenantID     string
	clientID     string
	clientSecret string
	loginURL     string
	scope        string
	http         *http.Client

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewClientCredentialsSource creates a TokenSource for an app registration.
func NewClientCredentialsSource(tenantID, clientID, clientSecret, loginURL string, hc *http.Client) TokenSource {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &clientCredentialsSource{
		tenantID:     tenantID,
		clientID:     clientID,
		clientSecret: clientSecret,
		loginURL:     strings.TrimRight(loginURL, "/"),
		scope:        "https://graph.microsoft.com/.default",
		http:         hc,
	}
}

func (s *clientCredentialsSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && time.Now().Before(s.expires) {
		return s.token, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {s.clientID},
		"client_secret": {s.clientSecret},
		"scope":         {s.scope},
	}

	tokenURL := s.loginURL + "/" + s.tenantID + "/oauth2/v2.0/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", eris.Wrap(err, "graph: create token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "graph: token request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "graph: read token response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("graph: token endpoint status %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", eris.Wrap(err, "graph: decode token response")
	}
	if payload.AccessToken == "" {
		return "", eris.New("graph: token endpoint returned no access_token")
	}

	s.token = payload.AccessToken
	// Refresh a minute early so in-flight calls never ride an expiring token.
	ttl := time.Duration(payload.ExpiresIn) * time.Second
	if ttl > 2*time.Minute {
		ttl -= time.Minute
	}
	s.expires = time.Now().Add(ttl)

	return s.token, nil
}

func (s *clientCredentialsSource) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.expires = time.Time{}
}

// StaticTokenSource returns a TokenSource that always yields the same token.
// Intended for tests.
func StaticTokenSource(token string) TokenSource {
	return staticSource(token)
}

type staticSource string

func (s staticSource) Token(ctx context.Context) (string, error) { return string(s), nil }
func (s staticSource) Invalidate()                               {}
