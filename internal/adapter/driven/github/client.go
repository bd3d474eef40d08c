// Package github implements the ContentClient port against the GitHub
// contents API and the raw-content host, using the go-github library.
package github

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/ericfisherdev/tomeboard/internal/domain/model"
	"github.com/ericfisherdev/tomeboard/internal/domain/port/driven"
	"gopkg.in/yaml.v3"
)

// Compile-time interface satisfaction check.
var _ driven.ContentClient = (*Client)(nil)

const defaultRawBaseURL = "https://raw.githubusercontent.com"

// Client implements the driven.ContentClient port with the following
// transport stack for the contents API:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client, unauthenticated for public repos)
//
// Raw file bodies go through a plain http.Client with a per-fetch timeout,
// fronted by a URL-keyed RequestCache for in-flight dedup with expiry.
type Client struct {
	gh         *gh.Client
	raw        *http.Client
	rawBaseURL string
	cache      *RequestCache
}

// NewClient creates a Client for production use. fetchTimeout bounds every
// raw-content request; cacheTTL controls how long identical fetches within a
// session are served from the request cache.
func NewClient(fetchTimeout, cacheTTL time.Duration) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)

	return &Client{
		gh:         gh.NewClient(rateLimitClient),
		raw:        &http.Client{Timeout: fetchTimeout},
		rawBaseURL: defaultRawBaseURL,
		cache:      NewRequestCache(cacheTTL, nil),
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and
// base URLs for the contents API and the raw-content host. This constructor
// is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, apiBaseURL, rawBaseURL string, cacheTTL time.Duration, now func() time.Time) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(apiBaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing API base URL: %w", err)
	}
	client.BaseURL = u

	return &Client{
		gh:         client,
		raw:        httpClient,
		rawBaseURL: strings.TrimSuffix(rawBaseURL, "/"),
		cache:      NewRequestCache(cacheTTL, now),
	}, nil
}

// FetchYAML retrieves the raw file at path on the given ref and decodes it
// into out. The body passes through the request cache, so two surfaces
// asking for the same URL in the same session share one network call.
func (c *Client) FetchYAML(ctx context.Context, repo model.RepositoryRef, ref, path string, out any) error {
	rawURL := fmt.Sprintf("%s/%s/%s/%s/%s", c.rawBaseURL, repo.Owner, repo.Name, ref, strings.TrimPrefix(path, "/"))

	body, err := c.cache.Do(rawURL, func() ([]byte, error) {
		return c.fetchRaw(ctx, rawURL)
	})
	if err != nil {
		return err
	}

	// Reject bodies that technically parse but carry no document, such as
	// an empty file or a bare "---" separator.
	var probe any
	if err := yaml.Unmarshal(body, &probe); err != nil {
		return &driven.ParseError{URL: rawURL, Err: err}
	}
	if probe == nil {
		return &driven.ParseError{URL: rawURL}
	}

	if err := yaml.Unmarshal(body, out); err != nil {
		return &driven.ParseError{URL: rawURL, Err: err}
	}

	return nil
}

// fetchRaw performs a single GET for a raw-content URL.
func (c *Client) fetchRaw(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", rawURL, err)
	}

	resp, err := c.raw.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &driven.FetchError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rawURL, err)
	}

	return body, nil
}

// ListDirectory lists YAML file names directly inside dir on the given ref.
// Every failure mode degrades to an empty list: a repository with only
// training files or only evaluation files is still a valid tome, so
// discovery must never abort the overall load.
func (c *Client) ListDirectory(ctx context.Context, repo model.RepositoryRef, ref, dir string) []string {
	opts := &gh.RepositoryContentGetOptions{Ref: ref}

	fileContent, dirContent, resp, err := c.gh.Repositories.GetContents(ctx, repo.Owner, repo.Name, dir, opts)
	if err != nil {
		slog.Debug("directory listing failed",
			"repo", repo.FullName(),
			"dir", dir,
			"error", err,
		)
		return []string{}
	}

	logRateLimit(resp, repo.FullName()+"/"+dir, len(dirContent))

	if fileContent != nil {
		// Path resolved to a file, not a directory.
		return []string{}
	}

	names := make([]string, 0, len(dirContent))
	for _, entry := range dirContent {
		if entry.GetType() != "file" {
			continue
		}
		name := entry.GetName()
		if isYAMLFile(name) {
			names = append(names, name)
		}
	}

	return names
}

// isYAMLFile reports whether name carries a .yaml or .yml extension.
func isYAMLFile(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, endpoint string, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Remaining < 10 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}
