package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestNewConfig tests that default values are sensible.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	if cfg.MaxPages != DefaultMaxPages {
		t.Errorf("expected MaxPages %d, got %d", DefaultMaxPages, cfg.MaxPages)
	}
	if cfg.MaxDepth != DefaultMaxDepth {
		t.Errorf("expected MaxDepth %d, got %d", DefaultMaxDepth, cfg.MaxDepth)
	}
	if !cfg.SameDomainOnly {
		t.Error("expected SameDomainOnly to default to true")
	}
	if !cfg.RespectRobots {
		t.Error("expected RespectRobots to default to true")
	}
	if !cfg.Deduplicate {
		t.Error("expected Deduplicate to default to true")
	}
	if cfg.Delay != DefaultDelay {
		t.Errorf("expected Delay %v, got %v", DefaultDelay, cfg.Delay)
	}
	if cfg.Format != FormatDocs {
		t.Errorf("expected default format %q, got %q", FormatDocs, cfg.Format)
	}
	if cfg.UserAgent == "" {
		t.Error("expected a non-empty default user agent")
	}
}

// TestConfigValidate tests configuration validation.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		cfg := NewConfig()
		cfg.Seeds = []string{"https://example.com"}
		return cfg
	}

	t.Run("valid defaults pass", func(t *testing.T) {
		t.Parallel()

		if err := valid().Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"no seeds", func(c *Config) { c.Seeds = nil }, ErrNoSeed},
		{"zero max pages", func(c *Config) { c.MaxPages = 0 }, ErrInvalidMaxPages},
		{"negative max depth", func(c *Config) { c.MaxDepth = -1 }, ErrInvalidMaxDepth},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }, ErrInvalidConcurrency},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, ErrInvalidTimeout},
		{"negative delay", func(c *Config) { c.Delay = -time.Second }, ErrInvalidDelay},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, ErrInvalidRetries},
		{"negative body size", func(c *Config) { c.MaxBodySize = -1 }, ErrInvalidMaxBodySize},
		{"negative global rate", func(c *Config) { c.GlobalRate = -0.5 }, ErrInvalidGlobalRate},
		{"unknown format", func(c *Config) { c.Format = "xml" }, ErrUnknownFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	t.Run("zero depth and zero retries are valid", func(t *testing.T) {
		t.Parallel()

		cfg := valid()
		cfg.MaxDepth = 0
		cfg.MaxRetries = 0
		if err := cfg.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

// TestGetSiteConfig tests merging host entries over defaults.
func TestGetSiteConfig(t *testing.T) {
	t.Parallel()

	cf := &File{
		Defaults: SiteConfig{
			Delay:   2 * time.Second,
			Headers: map[string]string{"Accept-Language": "en"},
		},
		Sites: map[string]SiteConfig{
			"docs.example.com": {
				Delay:    5 * time.Second,
				MaxDepth: 2,
				Headers:  map[string]string{"Authorization": "Bearer abc"},
			},
		},
	}

	t.Run("unknown host gets defaults", func(t *testing.T) {
		t.Parallel()

		sc := cf.GetSiteConfig("other.example.com")
		if sc.Delay != 2*time.Second {
			t.Errorf("expected default delay, got %v", sc.Delay)
		}
		if sc.MaxDepth != 0 {
			t.Errorf("expected zero depth override, got %d", sc.MaxDepth)
		}
		if sc.Headers["Accept-Language"] != "en" {
			t.Error("expected default headers")
		}
	})

	t.Run("host entry overrides defaults", func(t *testing.T) {
		t.Parallel()

		sc := cf.GetSiteConfig("docs.example.com")
		if sc.Delay != 5*time.Second {
			t.Errorf("expected overridden delay, got %v", sc.Delay)
		}
		if sc.MaxDepth != 2 {
			t.Errorf("expected overridden depth, got %d", sc.MaxDepth)
		}
	})

	t.Run("headers merge rather than replace", func(t *testing.T) {
		t.Parallel()

		sc := cf.GetSiteConfig("docs.example.com")
		if sc.Headers["Authorization"] != "Bearer abc" {
			t.Error("expected site header")
		}
		if sc.Headers["Accept-Language"] != "en" {
			t.Error("expected default header to survive the merge")
		}
	})

	t.Run("merge does not mutate defaults", func(t *testing.T) {
		t.Parallel()

		_ = cf.GetSiteConfig("docs.example.com")
		if _, ok := cf.Defaults.Headers["Authorization"]; ok {
			t.Error("defaults were mutated by the merge")
		}
	})
}

// TestLoadConfigFile tests YAML config loading.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("loads sites and defaults", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		content := `defaults:
  delay: 1s
sites:
  docs.example.com:
    delay: 3s
    maxDepth: 4
    headers:
      Authorization: Bearer xyz
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}
		if cf.Defaults.Delay != time.Second {
			t.Errorf("expected 1s default delay, got %v", cf.Defaults.Delay)
		}
		site := cf.Sites["docs.example.com"]
		if site.Delay != 3*time.Second {
			t.Errorf("expected 3s site delay, got %v", site.Delay)
		}
		if site.MaxDepth != 4 {
			t.Errorf("expected depth 4, got %d", site.MaxDepth)
		}
		if site.Headers["Authorization"] != "Bearer xyz" {
			t.Error("expected site header")
		}
	})

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("malformed YAML returns an error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte("sites: {unclosed"), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected error for malformed YAML")
		}
	})

	t.Run("empty file gets a non-nil sites map", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, nil, 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}
		if cf.Sites == nil {
			t.Error("expected initialized sites map")
		}
	})
}

// TestFindConfigFile tests the configuration search order.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit path wins when it exists", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "custom.yml")
		if err := os.WriteFile(path, []byte("sites: {}"), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if got := FindConfigFile(path); got != path {
			t.Errorf("expected %q, got %q", path, got)
		}
	})

	t.Run("missing explicit path returns empty", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile(filepath.Join(t.TempDir(), "absent")); got != "" {
			t.Errorf("expected empty result, got %q", got)
		}
	})
}
