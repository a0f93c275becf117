package httpx

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// RobotsGate answers whether a URL may be fetched under the host's
// robots.txt, caching the parsed rules per host. An unreachable or missing
// robots.txt permits fetching; only an explicit disallow blocks.
type RobotsGate struct {
	client *http.Client
	ua     string

	mu    sync.Mutex
	cache map[string]*robotstxt.RobotsData
}

func NewRobotsGate(userAgent string) *RobotsGate {
	if userAgent == "" {
		userAgent = defaultAgents[0]
	}
	return &RobotsGate{
		client: &http.Client{Timeout: 10 * time.Second},
		ua:     userAgent,
		cache:  make(map[string]*robotstxt.RobotsData),
	}
}

// Allowed reports whether fetching rawURL is permitted. Network errors are
// returned so callers can distinguish "blocked" from "unreachable".
func (g *RobotsGate) Allowed(ctx context.Context, rawURL string) (bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, err
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}

	data, err := g.robotsFor(ctx, u)
	if err != nil {
		return false, err
	}
	if data == nil {
		return true, nil
	}
	return data.TestAgent(u.Path, g.ua), nil
}

func (g *RobotsGate) robotsFor(ctx context.Context, u *url.URL) (*robotstxt.RobotsData, error) {
	host := u.Host

	g.mu.Lock()
	if data, ok := g.cache[host]; ok {
		g.mu.Unlock()
		return data, nil
	}
	g.mu.Unlock()

	robotsURL := u.Scheme + "://" + host + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", g.ua)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil, err
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		// Unparseable robots.txt: fail open, cache the permissive verdict.
		data = nil
	}

	g.mu.Lock()
	g.cache[host] = data
	g.mu.Unlock()
	return data, nil
}
