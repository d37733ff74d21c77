package config

import (
	"os"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP:  HTTPConfig{Port: 8080},
		Store: StoreConfig{Addrs: []string{"localhost:6379"}},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_BadPort(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		cfg := validConfig()
		cfg.HTTP.Port = port
		if err := cfg.Validate(); err == nil {
			t.Errorf("expected error for port %d", port)
		}
	}
}

func TestValidate_MissingAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Addrs = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing store.addrs")
	}
}

func TestValidate_PageSizeOrdering(t *testing.T) {
	cfg := validConfig()
	cfg.Search.DefaultPageSize = 50
	cfg.Search.MaxPageSize = 20
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when max_page_size < default_page_size")
	}
}

func TestValidate_QuizLimitsMustNarrow(t *testing.T) {
	cfg := validConfig()
	cfg.Quiz.EarlyStepLimit = 10
	cfg.Quiz.MidStepLimit = 30
	cfg.Quiz.LateStepLimit = 50
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for widening quiz limits")
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Search.DefaultPageSize != 20 {
		t.Errorf("default page size = %d, want 20", cfg.Search.DefaultPageSize)
	}
	if cfg.Search.FacetSampleCap != 1000 {
		t.Errorf("facet sample cap = %d, want 1000", cfg.Search.FacetSampleCap)
	}
	if cfg.Search.FacetCacheTTLSec != 60 {
		t.Errorf("facet cache ttl = %d, want 60", cfg.Search.FacetCacheTTLSec)
	}
	if cfg.Store.KeyPrefix != "prop:" {
		t.Errorf("key prefix = %q, want %q", cfg.Store.KeyPrefix, "prop:")
	}
	if cfg.Quiz.EarlyStepLimit != 50 || cfg.Quiz.MidStepLimit != 30 || cfg.Quiz.LateStepLimit != 10 {
		t.Errorf("quiz limits = %d/%d/%d, want 50/30/10",
			cfg.Quiz.EarlyStepLimit, cfg.Quiz.MidStepLimit, cfg.Quiz.LateStepLimit)
	}
}

func TestExpandEnvVars(t *testing.T) {
	os.Setenv("SEARCHCORE_TEST_PASS", "secret")
	defer os.Unsetenv("SEARCHCORE_TEST_PASS")

	tests := []struct {
		in, want string
	}{
		{"password: ${SEARCHCORE_TEST_PASS}", "password: secret"},
		{"password: ${SEARCHCORE_TEST_MISSING:-fallback}", "password: fallback"},
		{"port: 8080", "port: 8080"},
	}
	for _, tc := range tests {
		got := string(expandEnvVars([]byte(tc.in)))
		if got != tc.want {
			t.Errorf("expandEnvVars(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
