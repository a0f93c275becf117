package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsSearchFor(t *testing.T) {
	reg := Defaults()

	src, ok := reg.Get("tradeindia")
	if !ok {
		t.Fatal("tradeindia missing from defaults")
	}
	got := src.SearchFor("industrial machinery")
	want := "https://www.tradeindia.com/search.html?ss=industrial+machinery"
	if got != want {
		t.Errorf("SearchFor = %q; want %q", got, want)
	}

	if src, _ := reg.Get("dhgate"); src.SearchFor("safety equipment") != "https://www.dhgate.com/wholesale/safety+equipment.html" {
		t.Errorf("dhgate SearchFor = %q", src.SearchFor("safety equipment"))
	}
}

func TestLoadOverridesAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	raw := `sources:
  - id: alibaba
    name: Alibaba
    base_url: https://www.alibaba.com
    search_url: https://www.alibaba.com/trade/search?SearchText={query}
    status: testing
  - id: indiamart
    name: IndiaMART
    base_url: https://www.indiamart.com
    search_url: https://dir.indiamart.com/search.mp?ss={query}
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	reg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if src, _ := reg.Get("alibaba"); src.Status != "testing" {
		t.Errorf("alibaba status = %q; want testing", src.Status)
	}
	src, ok := reg.Get("indiamart")
	if !ok {
		t.Fatal("appended source missing")
	}
	if src.Status != "active" {
		t.Errorf("appended source status = %q; want default active", src.Status)
	}
	if len(reg.List()) != 5 {
		t.Errorf("expected 5 sources, got %d", len(reg.List()))
	}
}

type fakeProber struct {
	allowed map[string]bool
	err     map[string]bool
}

func (f fakeProber) Allowed(_ context.Context, rawURL string) (bool, error) {
	if f.err[rawURL] {
		return false, errors.New("connect timeout")
	}
	return f.allowed[rawURL], nil
}

func TestRefreshDowngradesAndRestores(t *testing.T) {
	reg := Defaults()
	prober := fakeProber{
		allowed: map[string]bool{
			"https://www.tradeindia.com":     true,
			"https://www.alibaba.com":        false,
			"https://www.dhgate.com":         true,
			"https://www.exportersindia.com": true,
		},
		err: map[string]bool{"https://www.dhgate.com": true},
	}

	reg.Refresh(context.Background(), prober)

	if src, _ := reg.Get("tradeindia"); src.Status != "active" {
		t.Errorf("tradeindia = %q; want active", src.Status)
	}
	if src, _ := reg.Get("alibaba"); src.Status != "blocked" {
		t.Errorf("alibaba = %q; want blocked", src.Status)
	}
	if src, _ := reg.Get("dhgate"); src.Status != "unreachable" {
		t.Errorf("dhgate = %q; want unreachable", src.Status)
	}
	if src, _ := reg.Get("exportersindia"); src.Status != "testing" {
		t.Errorf("exportersindia = %q; want configured testing", src.Status)
	}

	// A later healthy probe restores the configured status.
	prober.err["https://www.dhgate.com"] = false
	reg.Refresh(context.Background(), prober)
	if src, _ := reg.Get("dhgate"); src.Status != "active" {
		t.Errorf("dhgate after recovery = %q; want active", src.Status)
	}
}
