package scholar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/chemcanvas/scholar-gateway/internal/domain"
	"github.com/chemcanvas/scholar-gateway/internal/observability"
)

const (
	// DefaultBaseURL is the default base URL for the scholarly proxy API.
	DefaultBaseURL = "http://localhost:8090/api/v1"

	// DefaultRateLimit is the default sustained request rate. The proxy
	// scrapes Google Scholar, so the default is deliberately conservative.
	DefaultRateLimit = 1.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 2

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultPageSize is the number of records fetched per proxy page.
	DefaultPageSize = 20

	// apiKeyHeader is the header name for the scholarly proxy API key.
	apiKeyHeader = "X-API-Key"

	// sourceName is the human-readable name for this source.
	sourceName = "Google Scholar"

	// maxResponseBytes caps decoded response bodies.
	maxResponseBytes = 10 << 20
)

// ErrIteratorDone is returned by iterators when no more results are available.
var ErrIteratorDone = errors.New("scholar: no more results")

// PublicationIterator streams raw publication records one at a time. Each
// Next call may trigger a page fetch against the proxy; iteration stops with
// ErrIteratorDone once the result stream is exhausted.
type PublicationIterator interface {
	Next(ctx context.Context) (*RawPublication, error)
}

// AuthorIterator streams raw author records one at a time.
type AuthorIterator interface {
	Next(ctx context.Context) (*RawAuthor, error)
}

// Provider is the boundary to the external scholar capability. The HTTP
// client below implements it against the scholarly proxy; tests substitute
// fakes.
type Provider interface {
	// SearchPublications returns an iterator over publications matching
	// the free-text query.
	SearchPublications(query string) PublicationIterator

	// SearchAuthors returns an iterator over author profiles matching
	// the name query.
	SearchAuthors(name string) AuthorIterator

	// Fill performs detail expansion on a search-result stub, returning
	// the enriched record. The input record is not modified.
	Fill(ctx context.Context, pub *RawPublication) (*RawPublication, error)

	// CitedBy returns an iterator over the papers citing pub. The
	// iterator is empty when the publication has no citation token.
	CitedBy(pub *RawPublication) PublicationIterator

	// Name returns a human-readable name for this source.
	Name() string
}

// Config contains configuration options for the scholarly proxy client.
type Config struct {
	// BaseURL is the base URL for the proxy API.
	// Defaults to DefaultBaseURL if empty.
	BaseURL string

	// APIKey is the optional API key for authenticated requests.
	APIKey string

	// Timeout is the HTTP request timeout.
	// Defaults to DefaultTimeout if zero.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	// Defaults to DefaultRateLimit if zero.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	// Defaults to DefaultBurstSize if zero.
	BurstSize int

	// PageSize is the number of records fetched per page.
	// Defaults to DefaultPageSize if zero.
	PageSize int

	// MaxRetries is the number of transport-level retries on 429/5xx.
	// Defaults to 0 so upstream failures surface immediately.
	MaxRetries int

	// Metrics receives per-request proxy counters. May be nil, in which
	// case no metrics are recorded.
	Metrics *observability.Metrics
}

// Client implements Provider against the scholarly proxy HTTP API.
type Client struct {
	httpClient *HTTPClient
	config     Config
	metrics    *observability.Metrics
}

// Compile-time check that Client implements Provider.
var _ Provider = (*Client)(nil)

// NewClient creates a new scholarly proxy client with the given configuration.
// If httpClient is nil, a new one will be created with the configuration settings.
func NewClient(cfg Config, httpClient *HTTPClient) *Client {
	// Apply defaults
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.BurstSize == 0 {
		cfg.BurstSize = DefaultBurstSize
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = DefaultPageSize
	}

	if httpClient == nil {
		httpClient = NewHTTPClient(HTTPClientConfig{
			Timeout:      cfg.Timeout,
			RateLimit:    cfg.RateLimit,
			BurstSize:    cfg.BurstSize,
			MaxRetries:   cfg.MaxRetries,
			APIKey:       cfg.APIKey,
			APIKeyHeader: apiKeyHeader,
		})
	}

	return &Client{
		httpClient: httpClient,
		config:     cfg,
		metrics:    cfg.Metrics,
	}
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// SearchPublications returns an iterator over publications matching query.
func (c *Client) SearchPublications(query string) PublicationIterator {
	params := url.Values{}
	params.Set("q", query)
	return &pubIterator{client: c, path: "/publications/search", params: params}
}

// SearchAuthors returns an iterator over author profiles matching name.
func (c *Client) SearchAuthors(name string) AuthorIterator {
	params := url.Values{}
	params.Set("q", name)
	return &authorIterator{client: c, path: "/authors/search", params: params}
}

// CitedBy returns an iterator over the papers citing pub.
func (c *Client) CitedBy(pub *RawPublication) PublicationIterator {
	if pub == nil || pub.CitedByToken == "" {
		return &pubIterator{done: true}
	}
	params := url.Values{}
	params.Set("token", pub.CitedByToken)
	return &pubIterator{client: c, path: "/publications/citations", params: params}
}

// Fill performs detail expansion by posting the stub record to the proxy and
// decoding the enriched record it returns.
func (c *Client) Fill(ctx context.Context, pub *RawPublication) (*RawPublication, error) {
	body, err := json.Marshal(pub)
	if err != nil {
		return nil, fmt.Errorf("encoding publication: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/publications/fill", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordProxyFailure("fill", "transport")
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()
	c.recordProxyRequest("fill", start)

	if resp.StatusCode == http.StatusNotFound {
		c.recordProxyFailure("fill", "not_found")
		return nil, domain.NewNotFoundError("publication", pub.Title())
	}
	if err := c.handleErrorResponse(resp); err != nil {
		c.recordProxyFailure("fill", errorTypeForStatus(resp.StatusCode))
		return nil, err
	}

	var filled RawPublication
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&filled); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	filled.Filled = true
	return &filled, nil
}

// fetchPublicationPage retrieves one page of publications from the proxy.
func (c *Client) fetchPublicationPage(ctx context.Context, path string, params url.Values, start int) (*publicationPage, error) {
	op := opForPath(path)
	began := time.Now()
	resp, err := c.get(ctx, path, params, start)
	if err != nil {
		c.recordProxyFailure(op, "transport")
		return nil, err
	}
	defer resp.Body.Close()
	c.recordProxyRequest(op, began)

	if err := c.handleErrorResponse(resp); err != nil {
		c.recordProxyFailure(op, errorTypeForStatus(resp.StatusCode))
		return nil, err
	}

	var page publicationPage
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&page); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &page, nil
}

// fetchAuthorPage retrieves one page of author profiles from the proxy.
func (c *Client) fetchAuthorPage(ctx context.Context, path string, params url.Values, start int) (*authorPage, error) {
	op := opForPath(path)
	began := time.Now()
	resp, err := c.get(ctx, path, params, start)
	if err != nil {
		c.recordProxyFailure(op, "transport")
		return nil, err
	}
	defer resp.Body.Close()
	c.recordProxyRequest(op, began)

	if err := c.handleErrorResponse(resp); err != nil {
		c.recordProxyFailure(op, errorTypeForStatus(resp.StatusCode))
		return nil, err
	}

	var page authorPage
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&page); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &page, nil
}

// get issues a paged GET request against the proxy.
func (c *Client) get(ctx context.Context, path string, params url.Values, start int) (*http.Response, error) {
	q := url.Values{}
	for k, vs := range params {
		q[k] = vs
	}
	q.Set("limit", strconv.Itoa(c.config.PageSize))
	if start > 0 {
		q.Set("start", strconv.Itoa(start))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	return resp, nil
}

// handleErrorResponse checks for API errors and returns appropriate error types.
func (c *Client) handleErrorResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		c.recordProxyRateLimited()
		return domain.NewRateLimitError(sourceName, retryAfterDuration(resp))
	}

	// Read the error body (limit to 1MB to prevent resource exhaustion)
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.NewExternalAPIError(sourceName, resp.StatusCode, "failed to read error response", err)
	}

	// Try to parse as JSON error
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		message := errResp.Error
		if message == "" {
			message = errResp.Message
		}
		if message == "" {
			message = string(body)
		}
		return domain.NewExternalAPIError(sourceName, resp.StatusCode, message, nil)
	}

	// Return raw body as error message
	return domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body), nil)
}

// retryAfterDuration reads the Retry-After header as integer seconds.
// Returns zero when the header is absent or not a plain seconds value.
func retryAfterDuration(resp *http.Response) time.Duration {
	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

// opForPath maps proxy paths to metric operation labels.
func opForPath(path string) string {
	switch path {
	case "/publications/search":
		return "search_publications"
	case "/authors/search":
		return "search_authors"
	case "/publications/citations":
		return "citations"
	default:
		return "other"
	}
}

// errorTypeForStatus maps HTTP statuses to metric error-type labels.
func errorTypeForStatus(status int) string {
	switch {
	case status == http.StatusTooManyRequests:
		return "rate_limited"
	case status == http.StatusNotFound:
		return "not_found"
	case status >= 500:
		return "server_error"
	default:
		return "api_error"
	}
}

func (c *Client) recordProxyRequest(op string, start time.Time) {
	if c.metrics != nil {
		c.metrics.RecordProxyRequest(op, time.Since(start).Seconds())
	}
}

func (c *Client) recordProxyFailure(op, errorType string) {
	if c.metrics != nil {
		c.metrics.RecordProxyRequestFailed(op, errorType)
	}
}

func (c *Client) recordProxyRateLimited() {
	if c.metrics != nil {
		c.metrics.RecordProxyRateLimited()
	}
}

// pubIterator pages through publication results lazily.
type pubIterator struct {
	client *Client
	path   string
	params url.Values

	buf   []RawPublication
	pos   int
	start int
	done  bool
}

// Next returns the next publication record, fetching the next page from the
// proxy when the local buffer is exhausted. Returns ErrIteratorDone at the
// end of the stream.
func (it *pubIterator) Next(ctx context.Context) (*RawPublication, error) {
	for it.pos >= len(it.buf) {
		if it.done {
			return nil, ErrIteratorDone
		}
		page, err := it.client.fetchPublicationPage(ctx, it.path, it.params, it.start)
		if err != nil {
			return nil, err
		}
		it.buf = page.Results
		it.pos = 0
		if page.Next > it.start && len(page.Results) > 0 {
			it.start = page.Next
		} else {
			it.done = true
		}
		if len(page.Results) == 0 {
			return nil, ErrIteratorDone
		}
	}

	pub := it.buf[it.pos]
	it.pos++
	return &pub, nil
}

// authorIterator pages through author results lazily.
type authorIterator struct {
	client *Client
	path   string
	params url.Values

	buf   []RawAuthor
	pos   int
	start int
	done  bool
}

// Next returns the next author record, or ErrIteratorDone at the end of the
// stream.
func (it *authorIterator) Next(ctx context.Context) (*RawAuthor, error) {
	for it.pos >= len(it.buf) {
		if it.done {
			return nil, ErrIteratorDone
		}
		page, err := it.client.fetchAuthorPage(ctx, it.path, it.params, it.start)
		if err != nil {
			return nil, err
		}
		it.buf = page.Results
		it.pos = 0
		if page.Next > it.start && len(page.Results) > 0 {
			it.start = page.Next
		} else {
			it.done = true
		}
		if len(page.Results) == 0 {
			return nil, ErrIteratorDone
		}
	}

	author := it.buf[it.pos]
	it.pos++
	return &author, nil
}
