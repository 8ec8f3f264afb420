package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout bounds one page fetch.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxBodySize is the most bytes read from a response body.
	DefaultMaxBodySize int64 = 2 << 20

	// DefaultMaxRunes is the sample length before the ellipsis is added.
	DefaultMaxRunes = 500

	// DefaultUserAgent is sent with every request. Some phishing kits serve
	// an empty page to non-browser agents.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

	ellipsis = "..."
)

// Doer sends an HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Sampler fetches pages and reduces them to a short text sample.
// It is safe for concurrent use.
type Sampler struct {
	client      Doer
	timeout     time.Duration
	maxBodySize int64
	maxRunes    int
	userAgent   string
	limiter     *rate.Limiter
	logger      *slog.Logger
}

// Option configures a Sampler.
type Option func(*Sampler)

// WithTimeout sets the per-fetch timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Sampler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMaxBodySize limits how many body bytes are read.
func WithMaxBodySize(n int64) Option {
	return func(s *Sampler) {
		if n > 0 {
			s.maxBodySize = n
		}
	}
}

// WithMaxRunes sets the sample length.
func WithMaxRunes(n int) Option {
	return func(s *Sampler) {
		if n > 0 {
			s.maxRunes = n
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(s *Sampler) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithRateLimit spaces fetches to at most r per second with the given burst.
// A non-positive r disables limiting.
func WithRateLimit(r float64, burst int) Option {
	return func(s *Sampler) {
		if r <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(r), max(burst, 1))
	}
}

// WithLogger sets the logger used for fetch failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sampler) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSampler returns a Sampler using client.
func NewSampler(client Doer, opts ...Option) *Sampler {
	s := &Sampler{
		client:      client,
		timeout:     DefaultTimeout,
		maxBodySize: DefaultMaxBodySize,
		maxRunes:    DefaultMaxRunes,
		userAgent:   DefaultUserAgent,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sample returns the truncated visible text of the page at url. On any
// failure it returns url itself.
func (s *Sampler) Sample(ctx context.Context, url string) string {
	text, err := s.Fetch(ctx, url)
	if err != nil {
		s.logger.Debug("page text unavailable", "url", url, "error", err)
		return url
	}
	return Truncate(text, s.maxRunes)
}

// Fetch returns the full cleaned text of the page at url.
func (s *Sampler) Fetch(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	body := io.LimitReader(resp.Body, s.maxBodySize)
	reader, err := charset.NewReader(body, resp.Header.Get("Content-Type"))
	if errors.Is(err, io.EOF) {
		// Empty body: the page has no text.
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to decode body: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}
	doc.Find("script, style, noscript, template").Remove()

	return CleanText(doc.Text()), nil
}

// CleanText collapses runs of whitespace to a single space, trims the
// result and normalizes it to NFC.
func CleanText(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

// Truncate cuts text to n code points and appends "..." when it was longer.
func Truncate(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	i := 0
	for pos := range text {
		if i == n {
			return text[:pos] + ellipsis
		}
		i++
	}
	return text
}
