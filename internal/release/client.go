package release

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	cleanhttp "github.com/hashicorp/go-cleanhttp"
	"golang.org/x/oauth2"
)

const (
	// DefaultBaseURL is the public GitHub REST API endpoint.
	DefaultBaseURL = "https://api.github.com"

	// MaxPerPage is the largest page size the releases API honours.
	MaxPerPage = 100

	apiVersion = "2022-11-28"
	mediaType  = "application/vnd.github+json"
)

// ErrNotFound is returned when the API answers 404 for a release lookup.
var ErrNotFound = errors.New("release not found")

// APIError is a non-2xx response from the GitHub API.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("GET %s: status %d", e.URL, e.StatusCode)
	}

	return fmt.Sprintf("GET %s: status %d: %s", e.URL, e.StatusCode, e.Message)
}

// ClientOpts configures a Client.
type ClientOpts struct {
	// BaseURL is the API root. Defaults to DefaultBaseURL.
	BaseURL string
	// Token is sent as a bearer credential when set.
	Token string
	// UserAgent identifies this tool to the API.
	UserAgent string
	// HTTPClient is the transport underneath the token source.
	// Defaults to a pooled go-cleanhttp client.
	HTTPClient *http.Client
	// Logger for debug output.
	Logger *slog.Logger
}

// Client reads release metadata from the GitHub REST API.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	logger    *slog.Logger
}

// NewClient builds a Client. The token, when present, is attached to every
// request through an oauth2 static token source.
func NewClient(ctx context.Context, opts ClientOpts) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	base := opts.HTTPClient
	if base == nil {
		base = cleanhttp.DefaultPooledClient()
	}

	httpClient := base
	if opts.Token != "" {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}))
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "setup-kustomize"
	}

	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		http:      httpClient,
		logger:    logger,
	}
}

// ListReleases fetches a single page of releases for owner/repo.
func (c *Client) ListReleases(ctx context.Context, owner, repo string, perPage int) ([]Release, error) {
	if perPage <= 0 || perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	endpoint := fmt.Sprintf("%s/repos/%s/%s/releases?per_page=%s",
		c.baseURL, url.PathEscape(owner), url.PathEscape(repo), strconv.Itoa(perPage))

	var releases []Release
	if err := c.get(ctx, endpoint, &releases); err != nil {
		return nil, fmt.Errorf("listing releases for %s/%s: %w", owner, repo, err)
	}

	return releases, nil
}

// GetReleaseByTag fetches the release with the exact tag. A missing release
// yields an error wrapping ErrNotFound.
func (c *Client) GetReleaseByTag(ctx context.Context, owner, repo, tag string) (*Release, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/releases/tags/%s",
		c.baseURL, url.PathEscape(owner), url.PathEscape(repo), url.PathEscape(tag))

	var rel Release
	if err := c.get(ctx, endpoint, &rel); err != nil {
		return nil, fmt.Errorf("getting release %s for %s/%s: %w", tag, owner, repo, err)
	}

	return &rel, nil
}

func (c *Client) get(ctx context.Context, endpoint string, into any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", mediaType)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("github api request", "url", endpoint)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, endpoint)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp, endpoint)
	}

	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return fmt.Errorf("decoding response from %s: %w", endpoint, err)
	}

	return nil
}

func decodeAPIError(resp *http.Response, endpoint string) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, URL: endpoint}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return apiErr
	}

	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		apiErr.Message = payload.Message
	}

	return apiErr
}
