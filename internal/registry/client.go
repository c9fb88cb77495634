package registry

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxResponseSize = 10 << 20 // 10 MB

// DefaultRawBaseURL serves raw file contents for public GitHub repositories.
const DefaultRawBaseURL = "https://raw.githubusercontent.com"

// metadataDir is where category metadata documents live inside the registry repository.
const metadataDir = "cli/src/registry/github-registry"

const userAgent = "hax-cli"

// Option configures a Client.
type Option func(*Client)

// Client fetches metadata documents and files from registry hosts.
type Client struct {
	rawBaseURL string
	repo       string
	token      string
	httpClient *http.Client
	cache      *Cache
}

// NewClient creates a new registry client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		rawBaseURL: DefaultRawBaseURL,
		repo:       DefaultGitHubRepo,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cache:      NewCache(5 * time.Minute),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithRawBaseURL replaces https://raw.githubusercontent.com.
// This is primarily useful for testing with httptest servers.
func WithRawBaseURL(baseURL string) Option {
	return func(c *Client) { c.rawBaseURL = strings.TrimRight(baseURL, "/") }
}

// WithRepo sets the owner/repo used by GitHub sources that do not name one.
func WithRepo(repo string) Option {
	return func(c *Client) {
		if repo != "" {
			c.repo = repo
		}
	}
}

// WithToken sets the default GitHub token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithCacheTTL sets how long metadata documents are reused.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) { c.cache = NewCache(ttl) }
}

// target is a fully defaulted GitHub location.
type target struct {
	base   string // raw content base or enterprise host, no trailing slash
	repo   string
	branch string
	token  string
	// enterprise hosts are read through the Contents API instead of raw URLs.
	enterprise bool
}

func (c *Client) target(spec GitHubSpec) target {
	t := target{
		base:   c.rawBaseURL,
		repo:   spec.Repo,
		branch: spec.Branch,
		token:  spec.Token,
	}
	if t.repo == "" {
		t.repo = c.repo
	}
	if t.branch == "" {
		t.branch = DefaultBranch
	}
	if t.token == "" {
		t.token = c.token
	}
	if spec.BaseURL != "" {
		t.base = strings.TrimRight(spec.BaseURL, "/")
		t.enterprise = isEnterpriseHost(t.base)
	}
	return t
}

func isEnterpriseHost(base string) bool {
	u, err := url.Parse(base)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host != "github.com" && host != "raw.githubusercontent.com" && !strings.HasSuffix(host, ".github.com")
}

// fileURL builds the URL for a path inside the repository at the target branch.
// Public hosts use <base>/<repo>/<branch>/<path>; enterprise hosts use the
// Contents API where the branch is a query parameter.
func (t target) fileURL(filePath string) string {
	if t.enterprise {
		return fmt.Sprintf("%s/api/v3/repos/%s/contents/%s?ref=%s",
			t.base, t.repo, filePath, url.QueryEscape(t.branch))
	}
	return fmt.Sprintf("%s/%s/%s/%s", t.base, t.repo, t.branch, filePath)
}

// MetadataURL returns the URL of a category metadata document.
func (c *Client) MetadataURL(spec GitHubSpec, cat Category) string {
	return c.target(spec).fileURL(metadataDir + "/" + cat.MetadataFile())
}

// FileURL returns the URL of a registry file.
func (c *Client) FileURL(spec GitHubSpec, filePath string) string {
	return c.target(spec).fileURL(filePath)
}

// Attribution is the human-readable origin recorded on items resolved from spec.
func (c *Client) Attribution(spec GitHubSpec) string {
	t := c.target(spec)
	if spec.BaseURL != "" {
		return t.base + "/" + t.repo + "@" + t.branch
	}
	return t.repo + "@" + t.branch
}

// FetchMetadata fetches and parses a category metadata document.
// Results, including failures, are cached so one walk fetches each document once.
func (c *Client) FetchMetadata(ctx context.Context, spec GitHubSpec, cat Category) (Metadata, error) {
	metaURL := c.MetadataURL(spec, cat)
	// Credentials are part of the key: an auth failure for one token says
	// nothing about another.
	key := metaURL + "\x00" + c.target(spec).token
	if md, err, ok := c.cache.GetMetadata(key); ok {
		return md, err
	}

	md, err := c.fetchMetadata(ctx, spec, metaURL)
	if ctx.Err() == nil {
		c.cache.SetMetadata(key, md, err)
	}
	return md, err
}

func (c *Client) fetchMetadata(ctx context.Context, spec GitHubSpec, metaURL string) (Metadata, error) {
	data, err := c.getFile(ctx, c.target(spec), metaURL)
	if err != nil {
		return nil, fmt.Errorf("fetching metadata: %w", err)
	}

	var md Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, &ParseError{URL: metaURL, Err: err}
	}
	return md, nil
}

// FetchFile downloads a single registry file.
func (c *Client) FetchFile(ctx context.Context, spec GitHubSpec, filePath string) ([]byte, error) {
	t := c.target(spec)
	return c.getFile(ctx, t, t.fileURL(filePath))
}

// FetchItem downloads a complete item document from a CDN base.
func (c *Client) FetchItem(ctx context.Context, spec CDNSpec, name string) (*Item, error) {
	itemURL := strings.TrimRight(spec.BaseURL, "/") + "/" + url.PathEscape(name) + ".json"
	data, err := c.get(ctx, itemURL, "")
	if err != nil {
		return nil, err
	}

	var item Item
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, &ParseError{URL: itemURL, Err: err}
	}
	if item.Name == "" {
		item.Name = name
	}
	if !item.Type.Valid() {
		return nil, &ParseError{URL: itemURL, Err: fmt.Errorf("unknown item type %q", item.Type)}
	}
	return &item, nil
}

// contentsResponse is the subset of the GitHub Contents API response we read.
type contentsResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

func (c *Client) getFile(ctx context.Context, t target, fileURL string) ([]byte, error) {
	data, err := c.get(ctx, fileURL, t.token)
	if err != nil || !t.enterprise {
		return data, err
	}

	var cr contentsResponse
	if err := json.Unmarshal(data, &cr); err != nil {
		return nil, &ParseError{URL: fileURL, Err: err}
	}
	if cr.Encoding != "base64" {
		return nil, fmt.Errorf("unexpected content encoding %q from %s", cr.Encoding, fileURL)
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(cr.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", fileURL, err)
	}
	return decoded, nil
}

func (c *Client) get(ctx context.Context, url, token string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", userAgent)
	if token != "" {
		req.Header.Set("Authorization", "token "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{URL: url, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", url, err)
	}
	if len(data) > maxResponseSize {
		return nil, fmt.Errorf("response from %s exceeds %d bytes", url, maxResponseSize)
	}

	ct := resp.Header.Get("Content-Type")
	if strings.Contains(ct, "text/html") {
		return nil, fmt.Errorf("received HTML response from %s; check the repository and branch", url)
	}

	return data, nil
}
