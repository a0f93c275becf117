package source

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Source describes one marketplace the aggregator can query. SearchURL
// contains a {query} placeholder.
type Source struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	BaseURL     string `yaml:"base_url" json:"base_url"`
	SearchURL   string `yaml:"search_url" json:"-"`
	Status      string `yaml:"status" json:"status"`
	Description string `yaml:"description" json:"description"`
}

// SearchFor renders the search URL for a category phrase. Spaces become
// plus signs, matching how the marketplaces encode multi-word queries.
func (s Source) SearchFor(category string) string {
	query := strings.ReplaceAll(strings.TrimSpace(category), " ", "+")
	return strings.ReplaceAll(s.SearchURL, "{query}", query)
}

// Registry holds the ordered set of known sources. Listing order is the
// order sources were registered in; the aggregator honors the caller's
// ordering, not the registry's.
type Registry struct {
	mu       sync.Mutex
	sources  []Source
	baseline map[string]string // configured status per id, restored on healthy probes
}

// Defaults returns the built-in marketplace registry.
func Defaults() *Registry {
	return newRegistry([]Source{
		{
			ID:          "tradeindia",
			Name:        "TradeIndia",
			BaseURL:     "https://www.tradeindia.com",
			SearchURL:   "https://www.tradeindia.com/search.html?ss={query}",
			Status:      "active",
			Description: "Indian B2B marketplace - Reliable",
		},
		{
			ID:          "alibaba",
			Name:        "Alibaba",
			BaseURL:     "https://www.alibaba.com",
			SearchURL:   "https://www.alibaba.com/trade/search?SearchText={query}",
			Status:      "active",
			Description: "Global B2B platform - Partial access",
		},
		{
			ID:          "dhgate",
			Name:        "DHgate",
			BaseURL:     "https://www.dhgate.com",
			SearchURL:   "https://www.dhgate.com/wholesale/{query}.html",
			Status:      "active",
			Description: "Wholesale marketplace - Good access",
		},
		{
			ID:          "exportersindia",
			Name:        "ExportersIndia",
			BaseURL:     "https://www.exportersindia.com",
			SearchURL:   "https://www.exportersindia.com/search.htm?keyword={query}",
			Status:      "testing",
			Description: "Indian exporters directory - Under evaluation",
		},
	})
}

func newRegistry(sources []Source) *Registry {
	baseline := make(map[string]string, len(sources))
	for _, s := range sources {
		baseline[s.ID] = s.Status
	}
	return &Registry{sources: sources, baseline: baseline}
}

type registryFile struct {
	Sources []Source `yaml:"sources"`
}

// Load reads a YAML registry file. Entries with a known id replace the
// built-in definition; new ids are appended in file order.
func Load(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source registry: %w", err)
	}

	var file registryFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse source registry: %w", err)
	}

	reg := Defaults()
	for _, src := range file.Sources {
		if src.ID == "" {
			return nil, fmt.Errorf("source registry: entry without id")
		}
		if src.Status == "" {
			src.Status = "active"
		}
		reg.upsert(src)
	}
	return reg, nil
}

func (r *Registry) upsert(src Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.sources {
		if existing.ID == src.ID {
			r.sources[i] = src
			r.baseline[src.ID] = src.Status
			return
		}
	}
	r.sources = append(r.sources, src)
	r.baseline[src.ID] = src.Status
}

// Get looks a source up by id.
func (r *Registry) Get(id string) (Source, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sources {
		if s.ID == id {
			return s, true
		}
	}
	return Source{}, false
}

// List returns a copy of the registered sources.
func (r *Registry) List() []Source {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Source, len(r.sources))
	copy(out, r.sources)
	return out
}

// Prober answers whether a marketplace root may be fetched at all.
type Prober interface {
	Allowed(ctx context.Context, rawURL string) (bool, error)
}

// Refresh probes every source and downgrades the status of hosts that are
// unreachable or robots-blocked. Healthy sources return to their configured
// status. Probe failures never propagate to the caller.
func (r *Registry) Refresh(ctx context.Context, prober Prober) {
	for _, src := range r.List() {
		status := r.baselineStatus(src.ID)
		allowed, err := prober.Allowed(ctx, src.BaseURL)
		switch {
		case err != nil:
			log.Printf("source registry: probe failed for %s: %v", src.ID, err)
			status = "unreachable"
		case !allowed:
			status = "blocked"
		}
		r.setStatus(src.ID, status)
	}
}

func (r *Registry) baselineStatus(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.baseline[id]; ok {
		return s
	}
	return "active"
}

func (r *Registry) setStatus(id, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.sources {
		if r.sources[i].ID == id {
			r.sources[i].Status = status
			return
		}
	}
}
