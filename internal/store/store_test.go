package store

import (
	"strings"
	"testing"
)

func TestListQueryFilters(t *testing.T) {
	query, args, err := listQuery(Filter{
		Category:   "safety equipment",
		State:      "Maharashtra",
		MinQuality: 60,
		Limit:      25,
		Offset:     50,
	})
	if err != nil {
		t.Fatalf("listQuery: %v", err)
	}

	for _, fragment := range []string{
		"FROM products",
		"category = $1",
		"state = $2",
		"quality_score >= $3",
		"ORDER BY updated_at DESC, id DESC",
		"LIMIT 25",
		"OFFSET 50",
	} {
		if !strings.Contains(query, fragment) {
			t.Errorf("query missing %q:\n%s", fragment, query)
		}
	}
	if len(args) != 3 {
		t.Fatalf("args = %v, want 3 values", args)
	}
	if args[0] != "safety equipment" || args[1] != "Maharashtra" || args[2] != 60 {
		t.Errorf("args = %v", args)
	}
}

func TestListQueryNoFilter(t *testing.T) {
	query, args, err := listQuery(Filter{})
	if err != nil {
		t.Fatalf("listQuery: %v", err)
	}
	if strings.Contains(query, "WHERE") {
		t.Errorf("unfiltered query should carry no WHERE clause:\n%s", query)
	}
	if !strings.Contains(query, "LIMIT 100") {
		t.Errorf("default limit missing:\n%s", query)
	}
	if len(args) != 0 {
		t.Errorf("args = %v, want none", args)
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		limit int
		want  int
	}{
		{0, 100},
		{-5, 100},
		{25, 25},
		{1000, 1000},
		{5000, 1000},
	}
	for _, tt := range tests {
		if got := clampLimit(tt.limit, 100, 1000); got != tt.want {
			t.Errorf("clampLimit(%d) = %d, want %d", tt.limit, got, tt.want)
		}
	}
}
