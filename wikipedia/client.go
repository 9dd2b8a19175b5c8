// Package wikipedia implements the benchmark's link graph source on the
// MediaWiki API: outbound links, rendered pages, creation dates, and
// random article sampling. Requests are paced and retried; Wikipedia is
// treated as a rate-limited, occasionally-failing remote service.
package wikipedia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const (
	defaultAPIURL  = "https://en.wikipedia.org/w/api.php"
	defaultBaseURL = "https://en.wikipedia.org/wiki/"

	// Wikipedia requires a descriptive User-Agent.
	defaultUserAgent = "WikiBench/1.0 (https://github.com/wikibench; wikibench@example.com)"

	maxRequestTries = 3
	requestInterval = 200 * time.Millisecond
	maxInFlight     = 3
)

// ErrNotFound reports a page that does not exist. Fatal for the query;
// not worth retrying.
var ErrNotFound = errors.New("wikipedia: page not found")

// Client is a MediaWiki API client. At most three requests are in
// flight at once, paced 200ms apart, matching what Wikipedia tolerates
// from a well-behaved bot.
type Client struct {
	httpClient *http.Client
	apiURL     string
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
	inflight   *semaphore.Weighted
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client, e.g. to change the timeout
// or to point tests at a local server.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithAPIURL points the client at a different MediaWiki endpoint.
func WithAPIURL(apiURL string) ClientOption {
	return func(c *Client) { c.apiURL = apiURL }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient constructs a Client for the English Wikipedia.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiURL:     defaultAPIURL,
		baseURL:    defaultBaseURL,
		userAgent:  defaultUserAgent,
		limiter:    rate.NewLimiter(rate.Every(requestInterval), 1),
		inflight:   semaphore.NewWeighted(maxInFlight),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ArticleURL returns the canonical page URL for a title.
func (c *Client) ArticleURL(title string) string {
	return c.baseURL + strings.ReplaceAll(title, " ", "_")
}

type apiPage struct {
	Title     string            `json:"title"`
	Missing   json.RawMessage   `json:"missing"`
	Links     []struct{ Title string `json:"title"` } `json:"links"`
	Revisions []struct{ Timestamp string `json:"timestamp"` } `json:"revisions"`
	PageProps map[string]string `json:"pageprops"`
}

type apiResponse struct {
	Continue map[string]string `json:"continue"`
	Query    struct {
		Pages map[string]apiPage `json:"pages"`
	} `json:"query"`
	Parse struct {
		Text map[string]string `json:"text"`
	} `json:"parse"`
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

// get performs one paced, retried API call with the given parameters.
func (c *Client) get(ctx context.Context, params url.Values) (apiResponse, error) {
	params.Set("format", "json")

	var lastErr error
	for try := 0; try < maxRequestTries; try++ {
		if try > 0 {
			// Linear backoff between tries, as a courtesy to the API.
			select {
			case <-ctx.Done():
				return apiResponse{}, ctx.Err()
			case <-time.After(time.Duration(try) * 500 * time.Millisecond):
			}
		}
		resp, err := c.do(ctx, params)
		if err == nil {
			return resp, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return apiResponse{}, err
		}
		lastErr = err
	}
	return apiResponse{}, fmt.Errorf("wikipedia: query failed after %d tries: %w", maxRequestTries, lastErr)
}

func (c *Client) do(ctx context.Context, params url.Values) (apiResponse, error) {
	if err := c.inflight.Acquire(ctx, 1); err != nil {
		return apiResponse{}, err
	}
	defer c.inflight.Release(1)
	if err := c.limiter.Wait(ctx); err != nil {
		return apiResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return apiResponse{}, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apiResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiResponse{}, fmt.Errorf("wikipedia http %d", resp.StatusCode)
	}

	var decoded apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return apiResponse{}, err
	}
	return decoded, nil
}

// OutboundLinks returns every namespace-0 link of a page, following API
// continuation until exhausted. The API normalizes the queried title
// (case, underscores) and the redirects parameter resolves redirect
// pages, so variant titles answer for the canonical article.
// Implements wikibench.LinkSource.
func (c *Client) OutboundLinks(ctx context.Context, title string) ([]string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("titles", title)
	params.Set("redirects", "1")
	params.Set("prop", "links")
	params.Set("pllimit", "max")
	params.Set("plnamespace", "0")

	var links []string
	for {
		resp, err := c.get(ctx, params)
		if err != nil {
			return nil, err
		}
		if resp.Error != nil {
			return nil, fmt.Errorf("wikipedia: %s: %s", resp.Error.Code, resp.Error.Info)
		}
		for _, page := range resp.Query.Pages {
			if len(page.Missing) > 0 {
				return nil, fmt.Errorf("%w: %s", ErrNotFound, title)
			}
			for _, link := range page.Links {
				links = append(links, link.Title)
			}
		}
		next, ok := resp.Continue["plcontinue"]
		if !ok {
			break
		}
		params.Set("plcontinue", next)
	}
	return links, nil
}

// PageHTML returns the rendered HTML body of a page.
func (c *Client) PageHTML(ctx context.Context, title string) (string, error) {
	params := url.Values{}
	params.Set("action", "parse")
	params.Set("page", title)
	params.Set("prop", "text")
	params.Set("disableeditsection", "true")

	resp, err := c.get(ctx, params)
	if err != nil {
		return "", err
	}
	if resp.Error != nil {
		if resp.Error.Code == "missingtitle" {
			return "", fmt.Errorf("%w: %s", ErrNotFound, title)
		}
		return "", fmt.Errorf("wikipedia: parse %q: %s", title, resp.Error.Info)
	}
	return resp.Parse.Text["*"], nil
}

// CreationDate returns the timestamp of a page's first revision. The
// second return is false for missing pages.
func (c *Client) CreationDate(ctx context.Context, title string) (time.Time, bool, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("titles", title)
	params.Set("prop", "revisions")
	params.Set("rvdir", "newer")
	params.Set("rvlimit", "1")
	params.Set("rvprop", "timestamp")

	resp, err := c.get(ctx, params)
	if err != nil {
		return time.Time{}, false, err
	}
	for _, page := range resp.Query.Pages {
		if len(page.Missing) > 0 {
			return time.Time{}, false, nil
		}
		if len(page.Revisions) > 0 {
			ts, err := time.Parse(time.RFC3339, page.Revisions[0].Timestamp)
			if err != nil {
				return time.Time{}, false, fmt.Errorf("wikipedia: bad timestamp %q: %w", page.Revisions[0].Timestamp, err)
			}
			return ts, true, nil
		}
	}
	return time.Time{}, false, nil
}

// IsDisambiguation reports whether a page is a disambiguation page.
func (c *Client) IsDisambiguation(ctx context.Context, title string) (bool, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("titles", title)
	params.Set("prop", "pageprops")
	params.Set("ppprop", "disambiguation")

	resp, err := c.get(ctx, params)
	if err != nil {
		return false, err
	}
	for _, page := range resp.Query.Pages {
		if _, ok := page.PageProps["disambiguation"]; ok {
			return true, nil
		}
	}
	return false, nil
}

// RandomTitles returns up to count random namespace-0 article titles.
func (c *Client) RandomTitles(ctx context.Context, count int) ([]string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("generator", "random")
	params.Set("grnnamespace", "0")
	params.Set("grnlimit", fmt.Sprintf("%d", count))

	resp, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}
	var titles []string
	for _, page := range resp.Query.Pages {
		if page.Title != "" {
			titles = append(titles, page.Title)
		}
	}
	return titles, nil
}
