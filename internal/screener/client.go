package screener

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/trogers1052/stock-insights/internal/config"
)

const (
	loginPath   = "/login/"
	resultsPath = "/screen/raw/"

	// maxPageBytes caps how much of an upstream page is read
	maxPageBytes = 10 << 20
)

var csrfPattern = regexp.MustCompile(`name=['"]csrfmiddlewaretoken['"] value=['"]([^'"]*)['"]`)

// Client talks to the upstream screening site. Redirects are never followed so
// the login outcome can be read from the Location header.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewClient creates a client for the configured upstream site
func NewClient(cfg config.ScreenerConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
	}
}

// BaseURL returns the upstream origin used to resolve result links
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ExtractCSRFToken finds the anti-forgery token in the login form
func ExtractCSRFToken(html string) (string, error) {
	m := csrfPattern.FindStringSubmatch(html)
	if m == nil {
		return "", ErrCSRFTokenMissing
	}
	return m[1], nil
}

// Login performs the form login and returns the cookie header to replay on later requests
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	loginURL := c.baseURL + loginPath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loginURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamFetch, err)
	}
	page, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	resp.Body.Close()
	if err != nil {
		return "", fmt.Errorf("%w: read login page: %v", ErrUpstreamFetch, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("%w: login page returned status %d", ErrUpstreamFetch, resp.StatusCode)
	}

	token, err := ExtractCSRFToken(string(page))
	if err != nil {
		return "", err
	}
	jar := newCookieSet(resp.Cookies())

	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	form.Set("csrfmiddlewaretoken", token)

	req, err = http.NewRequestWithContext(ctx, http.MethodPost, loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", loginURL)
	req.Header.Set("User-Agent", c.userAgent)
	if header := jar.Header(); header != "" {
		req.Header.Set("Cookie", header)
	}

	resp, err = c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamFetch, err)
	}
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxPageBytes))
	resp.Body.Close()

	if !isRedirect(resp.StatusCode) || strings.Contains(resp.Header.Get("Location"), loginPath) {
		log.Debug().
			Int("status", resp.StatusCode).
			Str("location", resp.Header.Get("Location")).
			Msg("Screener login rejected")
		return "", ErrInvalidCredentials
	}

	jar.Merge(resp.Cookies())
	return jar.Header(), nil
}

// FetchResults downloads the raw results page for the given query
func (c *Client) FetchResults(ctx context.Context, cookie string, query url.Values) ([]byte, error) {
	target := c.baseURL + resultsPath
	if encoded := query.Encode(); encoded != "" {
		target += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFetch, err)
	}
	defer resp.Body.Close()

	if isRedirect(resp.StatusCode) && strings.Contains(resp.Header.Get("Location"), loginPath) {
		return nil, fmt.Errorf("%w: upstream login expired", ErrSessionNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrUpstreamFetch, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read results: %v", ErrUpstreamFetch, err)
	}
	return body, nil
}

func isRedirect(status int) bool {
	return status >= 300 && status < 400
}

// cookieSet is an insertion-ordered name=value set; later values replace earlier ones
type cookieSet struct {
	names  []string
	values map[string]string
}

func newCookieSet(cookies []*http.Cookie) *cookieSet {
	s := &cookieSet{values: make(map[string]string)}
	s.Merge(cookies)
	return s
}

func (s *cookieSet) Merge(cookies []*http.Cookie) {
	for _, c := range cookies {
		if _, seen := s.values[c.Name]; !seen {
			s.names = append(s.names, c.Name)
		}
		s.values[c.Name] = c.Value
	}
}

func (s *cookieSet) Header() string {
	parts := make([]string, 0, len(s.names))
	for _, name := range s.names {
		parts = append(parts, name+"="+s.values[name])
	}
	return strings.Join(parts, "; ")
}
