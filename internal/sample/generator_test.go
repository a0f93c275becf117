package sample

import (
	"reflect"
	"strings"
	"testing"

	"github.com/avisingh/tradescan/internal/model"
)

func TestGenerateDeterministicForSeed(t *testing.T) {
	a := New(42).Generate("safety equipment", 10)
	b := New(42).Generate("safety equipment", 10)

	if len(a) != 10 || len(b) != 10 {
		t.Fatalf("expected 10 records each, got %d and %d", len(a), len(b))
	}
	for i := range a {
		a[i].ScrapedAt = b[i].ScrapedAt
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("same seed produced different records")
	}
}

func TestGenerateFieldShape(t *testing.T) {
	records := New(7).Generate("industrial machinery", 20)
	if len(records) != 20 {
		t.Fatalf("expected 20 records, got %d", len(records))
	}

	for _, r := range records {
		if r.Category != "industrial machinery" {
			t.Errorf("category = %q", r.Category)
		}
		if r.Source != model.SampleSource {
			t.Errorf("source = %q; want %q", r.Source, model.SampleSource)
		}
		if !strings.HasPrefix(r.PriceText, "₹ ") {
			t.Errorf("price text = %q", r.PriceText)
		}
		if r.PriceNumeric == nil || *r.PriceNumeric < 1000 || *r.PriceNumeric > 500000 {
			t.Errorf("price numeric out of range: %v", r.PriceNumeric)
		}
		if r.Rating != "" && !strings.HasSuffix(r.Rating, " ★") {
			t.Errorf("rating = %q", r.Rating)
		}
	}
}

func TestGenerateCapsAtTemplatePool(t *testing.T) {
	// safety equipment has 9 templates, so the cap is 36.
	records := New(1).Generate("safety equipment", 500)
	if len(records) != 36 {
		t.Errorf("expected pool cap of 36, got %d", len(records))
	}
}

func TestGenerateUnknownCategory(t *testing.T) {
	if records := New(1).Generate("quantum flux capacitors", 10); records != nil {
		t.Errorf("expected nil for unknown category, got %d records", len(records))
	}
	if records := New(1).Generate("safety equipment", 0); records != nil {
		t.Errorf("expected nil for zero count")
	}
}

func TestGroupDigits(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{7, "7"},
		{950, "950"},
		{1000, "1,000"},
		{45000, "45,000"},
		{500000, "500,000"},
		{1234567, "1,234,567"},
	}
	for _, tt := range tests {
		if got := groupDigits(tt.in); got != tt.want {
			t.Errorf("groupDigits(%d) = %q; want %q", tt.in, got, tt.want)
		}
	}
}
