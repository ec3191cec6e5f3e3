package crawler

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/PentesterFlow/icscrawl/internal/analytics"
	crawlerrors "github.com/PentesterFlow/icscrawl/internal/errors"
	"github.com/PentesterFlow/icscrawl/internal/output"
	"github.com/PentesterFlow/icscrawl/internal/scope"
)

// DefaultSeeds are the department home pages the crawl starts from.
var DefaultSeeds = []string{
	"https://www.ics.uci.edu",
	"https://www.cs.uci.edu",
	"https://www.informatics.uci.edu",
	"https://www.stat.uci.edu",
}

// Config holds all crawler configuration.
type Config struct {
	// Start URLs
	Seeds []string `json:"seeds" yaml:"seeds"`

	// User-Agent sent with every request
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// Number of concurrent workers
	Workers int `json:"workers" yaml:"workers"`

	// Pause between consecutive fetches of one worker
	PolitenessDelay time.Duration `json:"politeness_delay" yaml:"politeness_delay"`

	// Request timeout
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// Largest response body read, in bytes
	MaxBodyBytes int64 `json:"max_body_bytes" yaml:"max_body_bytes"`

	// Downloader retries for network failures and timeouts
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Pages with fewer words are analysed but not link-extracted
	MinWords int `json:"min_words" yaml:"min_words"`

	// Domain whose subdomains are counted in the summary
	PrimaryDomain string `json:"primary_domain" yaml:"primary_domain"`

	// Admission rules
	Scope scope.Rules `json:"scope" yaml:"scope"`

	// Words excluded from the frequency table
	StopWords []string `json:"stop_words" yaml:"stop_words"`

	// Frontier configuration
	Frontier FrontierConfig `json:"frontier" yaml:"frontier"`

	// State persistence
	State StateConfig `json:"state" yaml:"state"`

	// Summary output
	Output output.Config `json:"output" yaml:"output"`

	// Directory for the diagnostic channel logs; empty sends them to stderr
	LogDir string `json:"log_dir" yaml:"log_dir"`

	// Verbose logging
	Verbose bool `json:"verbose" yaml:"verbose"`

	// Debug mode
	Debug bool `json:"debug" yaml:"debug"`
}

// FrontierConfig selects the frontier implementation.
type FrontierConfig struct {
	Persistent bool   `json:"persistent" yaml:"persistent"`
	Path       string `json:"path" yaml:"path"`
	// Restart discards a saved frontier instead of resuming it.
	Restart bool `json:"restart" yaml:"restart"`
}

// StateConfig configures the run snapshot store.
type StateConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Seeds:           append([]string(nil), DefaultSeeds...),
		UserAgent:       "IR UW25 icscrawl",
		Workers:         1,
		PolitenessDelay: 500 * time.Millisecond,
		Timeout:         30 * time.Second,
		MaxBodyBytes:    5 * 1024 * 1024,
		MaxRetries:      0,
		MinWords:        analytics.DefaultMinWords,
		PrimaryDomain:   "ics.uci.edu",
		Scope:           scope.DefaultRules(),
		StopWords:       append([]string(nil), analytics.DefaultStopWords...),
		Frontier: FrontierConfig{
			Persistent: true,
			Path:       "data/frontier.db",
		},
		State: StateConfig{
			Enabled: true,
			Path:    "data/state.db",
		},
		Output: output.Config{
			Format: output.FormatJSON,
			Pretty: true,
		},
		LogDir: "logs",
	}
}

// LoadFromFile loads configuration from a file (JSON or YAML).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()

	// Try YAML first, then JSON
	if err := yaml.Unmarshal(data, config); err != nil {
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	return config, nil
}

// SaveToFile saves configuration to a file.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".json") {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Seeds) == 0 {
		return crawlerrors.NewConfigError("seeds", "at least one seed URL is required")
	}
	for _, seed := range c.Seeds {
		u, err := url.Parse(seed)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return crawlerrors.NewConfigError("seeds", fmt.Sprintf("invalid seed URL %q", seed))
		}
	}

	if c.UserAgent == "" {
		return crawlerrors.NewConfigError("user_agent", "must not be empty")
	}

	if c.Workers < 1 {
		return crawlerrors.NewConfigError("workers", "must be at least 1")
	}

	if c.PolitenessDelay < 0 {
		return crawlerrors.NewConfigError("politeness_delay", "must not be negative")
	}

	if c.Timeout <= 0 {
		return crawlerrors.NewConfigError("timeout", "must be positive")
	}

	if c.MinWords < 1 {
		return crawlerrors.NewConfigError("min_words", "must be at least 1")
	}

	if c.MaxRetries < 0 {
		return crawlerrors.NewConfigError("max_retries", "must not be negative")
	}

	if c.Scope.TrapDepth < 0 {
		return crawlerrors.NewConfigError("scope.trap_depth", "must not be negative")
	}

	if len(c.Scope.AllowedDomains) == 0 && len(c.Scope.PathScoped) == 0 {
		return crawlerrors.NewConfigError("scope.allowed_domains", "no domain is in scope")
	}

	if c.Frontier.Persistent && c.Frontier.Path == "" {
		return crawlerrors.NewConfigError("frontier.path", "required for a persistent frontier")
	}

	if c.State.Enabled && c.State.Path == "" {
		return crawlerrors.NewConfigError("state.path", "required when state is enabled")
	}

	if !output.ValidFormat(c.Output.Format) {
		return crawlerrors.NewConfigError("output.format", fmt.Sprintf("unknown format %q", c.Output.Format))
	}

	return nil
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	data, _ := json.Marshal(c)
	clone := &Config{}
	json.Unmarshal(data, clone)
	return clone
}
