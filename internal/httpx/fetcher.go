package httpx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"golang.org/x/time/rate"
)

// defaultAgents is a small rotating pool of real browser user agents.
// Marketplace listing pages serve stripped-down markup to obvious bots.
var defaultAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
}

// Fetcher wraps Colly for polite marketplace fetching: rotating user
// agents, per-host rate limits, and backoff on throttling responses.
type Fetcher struct {
	agents       []string
	nextAgent    uint64
	timeout      time.Duration
	defaultRate  rate.Limit
	defaultBurst int

	mu    sync.Mutex
	hosts map[string]*hostPolicy
}

type hostPolicy struct {
	limiter     *rate.Limiter
	mu          sync.Mutex
	nextAllowed time.Time
}

// FetchError carries the HTTP status of a failed fetch.
type FetchError struct {
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch error (status %d)", e.Status)
	}
	return fmt.Sprintf("fetch error (status %d): %v", e.Status, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NewFetcher builds a fetcher with the default agent pool. Pass agents to
// override the pool, e.g. a single identifying UA in tests.
func NewFetcher(agents ...string) *Fetcher {
	if len(agents) == 0 {
		agents = defaultAgents
	}
	return &Fetcher{
		agents:       agents,
		timeout:      15 * time.Second,
		defaultRate:  rate.Every(2 * time.Second),
		defaultBurst: 1,
		hosts:        make(map[string]*hostPolicy),
	}
}

// FetchDocument retrieves and parses one page. The returned document is
// ready for the extractor.
func (f *Fetcher) FetchDocument(ctx context.Context, rawURL string) (*goquery.Document, error) {
	body, _, err := f.FetchBytes(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rawURL, err)
	}
	return doc, nil
}

// FetchBytes retrieves the raw body, honoring host rate limits and backing
// off on 429/5xx before giving up.
func (f *Fetcher) FetchBytes(ctx context.Context, rawURL string) ([]byte, int, error) {
	target, err := normalizeURL(rawURL)
	if err != nil {
		return nil, 0, err
	}
	host := hostKey(target)

	var (
		body    []byte
		status  int
		lastErr error
	)
	for attempt := 0; attempt < 3; attempt++ {
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		if err := f.waitForHost(ctx, host); err != nil {
			return nil, 0, err
		}
		body, status, lastErr = f.fetchOnce(ctx, target)
		if lastErr == nil {
			return body, status, nil
		}
		if !shouldBackoff(status) {
			break
		}
		f.applyBackoff(host, attempt)
	}

	if lastErr == nil {
		lastErr = errors.New("fetch failed")
	}
	return nil, status, &FetchError{Status: status, Err: lastErr}
}

func (f *Fetcher) fetchOnce(ctx context.Context, target string) ([]byte, int, error) {
	c := colly.NewCollector(colly.UserAgent(f.rotateAgent()))
	c.SetRequestTimeout(f.timeout)

	var body []byte
	status := 0
	var reqErr error

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = append([]byte(nil), r.Body...)
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		reqErr = err
	})

	if err := c.Visit(target); err != nil {
		return nil, status, err
	}
	if reqErr != nil {
		return nil, status, reqErr
	}
	if status >= 400 {
		return nil, status, fmt.Errorf("status %d", status)
	}
	return body, status, nil
}

func (f *Fetcher) rotateAgent() string {
	n := atomic.AddUint64(&f.nextAgent, 1)
	return f.agents[int(n-1)%len(f.agents)]
}

func (f *Fetcher) waitForHost(ctx context.Context, host string) error {
	policy := f.hostPolicy(host)
	if err := policy.waitBackoff(ctx); err != nil {
		return err
	}
	return policy.limiter.Wait(ctx)
}

func (f *Fetcher) hostPolicy(host string) *hostPolicy {
	f.mu.Lock()
	defer f.mu.Unlock()
	if policy, ok := f.hosts[host]; ok {
		return policy
	}
	policy := &hostPolicy{limiter: rate.NewLimiter(f.defaultRate, f.defaultBurst)}
	f.hosts[host] = policy
	return policy
}

func (f *Fetcher) applyBackoff(host string, attempt int) {
	if attempt < 0 {
		attempt = 0
	}
	policy := f.hostPolicy(host)
	delay := time.Duration(500*(1<<attempt)) * time.Millisecond
	policy.mu.Lock()
	if next := time.Now().Add(delay); next.After(policy.nextAllowed) {
		policy.nextAllowed = next
	}
	policy.mu.Unlock()
}

func (p *hostPolicy) waitBackoff(ctx context.Context) error {
	for {
		p.mu.Lock()
		next := p.nextAllowed
		p.mu.Unlock()
		now := time.Now()
		if !now.Before(next) {
			return nil
		}
		if err := sleepWithContext(ctx, next.Sub(now)); err != nil {
			return err
		}
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func shouldBackoff(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status <= 599)
}

func normalizeURL(rawURL string) (string, error) {
	if rawURL == "" {
		return "", errors.New("empty url")
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		rawURL = "https://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func hostKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "default"
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}
