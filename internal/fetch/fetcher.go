package fetch

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"golang.org/x/crypto/sha3"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"
)

// Defaults used by NewHTTPFetcher.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultUserAgent   = "casetally/1.0 (+https://github.com/nao1215/casetally)"
	DefaultMaxBodySize = 5 * 1024 * 1024
)

// Document is a fetched and parsed source page.
type Document struct {
	// URL is the address the document was requested from.
	URL string

	// Root is the parsed HTML tree.
	Root *html.Node

	// StatusCode is the HTTP status, 0 for file:// sources.
	StatusCode int

	// Hash is the hex SHA3-256 of the body bytes.
	Hash string

	// Size is the number of body bytes read.
	Size int

	// FetchedAt is when the body finished downloading.
	FetchedAt time.Time
}

// Fetcher retrieves a URL and parses it into a Document.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Document, error)
}

// HTTPFetcher fetches pages over HTTP(S) or from the local filesystem.
// It is safe for concurrent use.
type HTTPFetcher struct {
	client       *http.Client
	timeout      time.Duration
	userAgent    string
	maxBodySize  int64
	limiter      *rate.Limiter
	proxyAddress string
	logger       *slog.Logger
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *HTTPFetcher) {
		f.timeout = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize caps the number of bytes read from a response.
func WithMaxBodySize(n int64) Option {
	return func(f *HTTPFetcher) {
		f.maxBodySize = n
	}
}

// WithRequestDelay enforces a minimum delay between request starts.
// A zero or negative delay disables pacing.
func WithRequestDelay(d time.Duration) Option {
	return func(f *HTTPFetcher) {
		if d <= 0 {
			f.limiter = nil
			return
		}
		f.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithProxy routes requests through the SOCKS5 proxy at address.
func WithProxy(address string) Option {
	return func(f *HTTPFetcher) {
		f.proxyAddress = address
	}
}

// WithHTTPClient replaces the HTTP client. WithTimeout and WithProxy are
// ignored when a client is supplied.
func WithHTTPClient(c *http.Client) Option {
	return func(f *HTTPFetcher) {
		f.client = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *HTTPFetcher) {
		f.logger = logger
	}
}

// NewHTTPFetcher creates an HTTPFetcher. It fails only when the proxy
// address is malformed.
func NewHTTPFetcher(opts ...Option) (*HTTPFetcher, error) {
	f := &HTTPFetcher{
		timeout:     DefaultTimeout,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.client == nil {
		f.client = &http.Client{
			Timeout: f.timeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		}
		if f.proxyAddress != "" {
			transport, err := newProxyTransport(f.proxyAddress)
			if err != nil {
				return nil, err
			}
			f.client.Transport = transport
		}
	}

	return f, nil
}

// Fetch retrieves rawURL and parses the body as HTML.
// Non-2xx responses return ErrUnexpectedStatus.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Document, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var (
		body       []byte
		statusCode int
	)
	switch u.Scheme {
	case "http", "https":
		body, statusCode, err = f.fetchHTTP(ctx, rawURL)
	case "file":
		body, err = f.readFile(u)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	if err != nil {
		return nil, err
	}

	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML from %s: %w", rawURL, err)
	}

	sum := sha3.Sum256(body)
	doc := &Document{
		URL:        rawURL,
		Root:       root,
		StatusCode: statusCode,
		Hash:       hex.EncodeToString(sum[:]),
		Size:       len(body),
		FetchedAt:  time.Now(),
	}

	f.logger.Debug("fetched document",
		"url", rawURL,
		"status", statusCode,
		"bytes", doc.Size,
	)
	return doc, nil
}

func (f *HTTPFetcher) fetchHTTP(ctx context.Context, rawURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, &StatusError{StatusCode: resp.StatusCode, URL: rawURL}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read body from %s: %w", rawURL, err)
	}
	return body, resp.StatusCode, nil
}

func (f *HTTPFetcher) readFile(u *url.URL) ([]byte, error) {
	path := u.Path
	if path == "" {
		path = u.Opaque
	}
	file, err := os.Open(path) //nolint:gosec // path comes from user configuration
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(io.LimitReader(file, f.maxBodySize))
}
