package config

import "testing"

func TestGetEnv(t *testing.T) {
	t.Setenv("TRADESCAN_TEST_STR", "set")
	if got := getEnv("TRADESCAN_TEST_STR", "fallback"); got != "set" {
		t.Errorf("getEnv = %q, want set", got)
	}
	if got := getEnv("TRADESCAN_TEST_MISSING", "fallback"); got != "fallback" {
		t.Errorf("getEnv = %q, want fallback", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("TRADESCAN_TEST_INT", "40")
	if got := getEnvInt("TRADESCAN_TEST_INT", 15); got != 40 {
		t.Errorf("getEnvInt = %d, want 40", got)
	}
	t.Setenv("TRADESCAN_TEST_BAD", "not-a-number")
	if got := getEnvInt("TRADESCAN_TEST_BAD", 15); got != 15 {
		t.Errorf("getEnvInt = %d, want fallback 15", got)
	}
}
