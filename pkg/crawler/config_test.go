package crawler

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	crawlerrors "github.com/PentesterFlow/icscrawl/internal/errors"
)

// =============================================================================
// DefaultConfig Tests
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config == nil {
		t.Fatal("DefaultConfig returned nil")
	}
	if len(config.Seeds) != len(DefaultSeeds) {
		t.Errorf("Seeds = %v, want %v", config.Seeds, DefaultSeeds)
	}
	if config.Workers != 1 {
		t.Errorf("Workers = %d, want 1", config.Workers)
	}
	if config.PolitenessDelay != 500*time.Millisecond {
		t.Errorf("PolitenessDelay = %v, want 500ms", config.PolitenessDelay)
	}
	if config.MinWords != 100 {
		t.Errorf("MinWords = %d, want 100", config.MinWords)
	}
	if config.PrimaryDomain != "ics.uci.edu" {
		t.Errorf("PrimaryDomain = %q, want ics.uci.edu", config.PrimaryDomain)
	}
	if config.Scope.TrapDepth != 0 {
		t.Errorf("Scope.TrapDepth = %d, want 0", config.Scope.TrapDepth)
	}
	if len(config.StopWords) == 0 {
		t.Error("StopWords should not be empty")
	}
	if err := config.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() error = %v", err)
	}
}

func TestDefaultConfig_SeedsNotShared(t *testing.T) {
	config := DefaultConfig()
	config.Seeds[0] = "https://changed.example"

	if DefaultSeeds[0] == "https://changed.example" {
		t.Error("DefaultConfig should copy DefaultSeeds")
	}
}

// =============================================================================
// Validate Tests
// =============================================================================

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"no seeds", func(c *Config) { c.Seeds = nil }, "seeds"},
		{"relative seed", func(c *Config) { c.Seeds = []string{"/about"} }, "seeds"},
		{"ftp seed", func(c *Config) { c.Seeds = []string{"ftp://ics.uci.edu/"} }, "seeds"},
		{"empty user agent", func(c *Config) { c.UserAgent = "" }, "user_agent"},
		{"zero workers", func(c *Config) { c.Workers = 0 }, "workers"},
		{"negative delay", func(c *Config) { c.PolitenessDelay = -time.Second }, "politeness_delay"},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, "timeout"},
		{"zero min words", func(c *Config) { c.MinWords = 0 }, "min_words"},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, "max_retries"},
		{"negative trap depth", func(c *Config) { c.Scope.TrapDepth = -1 }, "scope.trap_depth"},
		{"no domains", func(c *Config) {
			c.Scope.AllowedDomains = nil
			c.Scope.PathScoped = nil
		}, "scope.allowed_domains"},
		{"persistent frontier without path", func(c *Config) {
			c.Frontier.Persistent = true
			c.Frontier.Path = ""
		}, "frontier.path"},
		{"state without path", func(c *Config) {
			c.State.Enabled = true
			c.State.Path = ""
		}, "state.path"},
		{"unknown format", func(c *Config) { c.Output.Format = "xml" }, "output.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(config)

			err := config.Validate()
			if err == nil {
				t.Fatal("Validate() should fail")
			}

			var crawlErr *crawlerrors.CrawlError
			if !errors.As(err, &crawlErr) || crawlErr.Type != crawlerrors.Config {
				t.Fatalf("Validate() error = %v, want a config error", err)
			}
			if crawlErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", crawlErr.Field, tt.field)
			}
		})
	}
}

func TestConfig_ValidateMemoryFrontierWithoutPath(t *testing.T) {
	config := DefaultConfig()
	config.Frontier = FrontierConfig{Persistent: false}
	config.State = StateConfig{Enabled: false}

	if err := config.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

// =============================================================================
// File Tests
// =============================================================================

func TestLoadFromFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
seeds:
  - https://www.ics.uci.edu
workers: 4
politeness_delay: 250ms
min_words: 50
scope:
  allowed_domains: [ics.uci.edu]
  trap_depth: 6
frontier:
  persistent: false
output:
  format: markdown
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	config, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if config.Workers != 4 {
		t.Errorf("Workers = %d, want 4", config.Workers)
	}
	if config.PolitenessDelay != 250*time.Millisecond {
		t.Errorf("PolitenessDelay = %v, want 250ms", config.PolitenessDelay)
	}
	if config.MinWords != 50 {
		t.Errorf("MinWords = %d, want 50", config.MinWords)
	}
	if len(config.Scope.AllowedDomains) != 1 || config.Scope.TrapDepth != 6 {
		t.Errorf("Scope = %+v", config.Scope)
	}
	if config.Frontier.Persistent {
		t.Error("Frontier.Persistent should be false")
	}
	if config.Output.Format != "markdown" {
		t.Errorf("Output.Format = %q, want markdown", config.Output.Format)
	}
	// untouched fields keep their defaults
	if config.UserAgent != DefaultConfig().UserAgent {
		t.Errorf("UserAgent = %q, want default", config.UserAgent)
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadFromFile() should fail for a missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("workers: [not, a, number"), 0644)
	if _, err := LoadFromFile(path); err == nil {
		t.Error("LoadFromFile() should fail for invalid content")
	}
}

func TestConfig_SaveAndLoad(t *testing.T) {
	for _, name := range []string{"config.yaml", "config.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)

			config := DefaultConfig()
			config.Workers = 7
			config.PolitenessDelay = 2 * time.Second
			config.Scope.TrapDepth = 3

			if err := config.SaveToFile(path); err != nil {
				t.Fatalf("SaveToFile() error = %v", err)
			}

			loaded, err := LoadFromFile(path)
			if err != nil {
				t.Fatalf("LoadFromFile() error = %v", err)
			}
			if loaded.Workers != 7 || loaded.PolitenessDelay != 2*time.Second || loaded.Scope.TrapDepth != 3 {
				t.Errorf("loaded = %+v", loaded)
			}
		})
	}
}

// =============================================================================
// Clone Tests
// =============================================================================

func TestConfig_Clone(t *testing.T) {
	config := DefaultConfig()
	clone := config.Clone()

	clone.Workers = 99
	clone.Seeds[0] = "https://other.example"
	clone.Scope.AllowedDomains[0] = "example.com"

	if config.Workers == 99 {
		t.Error("Clone shares Workers")
	}
	if config.Seeds[0] == "https://other.example" {
		t.Error("Clone shares Seeds")
	}
	if config.Scope.AllowedDomains[0] == "example.com" {
		t.Error("Clone shares Scope.AllowedDomains")
	}
	if clone.PolitenessDelay != config.PolitenessDelay {
		t.Errorf("Clone PolitenessDelay = %v, want %v", clone.PolitenessDelay, config.PolitenessDelay)
	}
}
