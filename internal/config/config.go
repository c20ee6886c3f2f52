// Package config loads the persistent Texy configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/texyhq/texy/internal/analysis"
	"github.com/texyhq/texy/internal/brain"
	"github.com/texyhq/texy/internal/coord"
	"github.com/texyhq/texy/internal/fetch"
	"github.com/texyhq/texy/internal/newsletter"
)

// Config is the persistent application configuration
type Config struct {
	// Server
	Addr    string `json:"addr" yaml:"addr"`
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Logging
	LogLevel string `json:"log_level" yaml:"log_level"`
	LogDir   string `json:"log_dir,omitempty" yaml:"log_dir,omitempty"`

	// AI Models
	Models ModelConfig `json:"models" yaml:"models"`

	// Chat relay settings
	Chat ChatConfig `json:"chat" yaml:"chat"`

	// Article analysis run after each refresh
	Analysis AnalysisConfig `json:"analysis" yaml:"analysis"`

	// Daily digest email
	Newsletter NewsletterConfig `json:"newsletter" yaml:"newsletter"`

	// Article sources refreshed in the background
	Sources  []fetch.Source `json:"sources" yaml:"sources"`
	Schedule string         `json:"schedule" yaml:"schedule"`

	// Collection is an articles.json location (URL or path) the tui reads
	// when no store is available.
	Collection string `json:"collection,omitempty" yaml:"collection,omitempty"`
}

// ModelConfig holds AI model settings
type ModelConfig struct {
	OpenAI ModelSettings `json:"openai" yaml:"openai"`
	Claude ModelSettings `json:"claude" yaml:"claude"`
	Gemini ModelSettings `json:"gemini" yaml:"gemini"`
	Grok   ModelSettings `json:"grok" yaml:"grok"`
	Ollama ModelSettings `json:"ollama" yaml:"ollama"`
}

// ModelSettings for a single AI provider
type ModelSettings struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	APIKey   string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"` // For Ollama or custom endpoints
	Model    string `json:"model,omitempty" yaml:"model,omitempty"`
	Priority int    `json:"priority" yaml:"priority"` // Lower = higher priority for fallback
}

// ChatConfig holds chat relay preferences
type ChatConfig struct {
	Provider string  `json:"provider" yaml:"provider"` // preferred provider name
	Rate     float64 `json:"rate" yaml:"rate"`         // outbound calls per second, 0 = unpaced
	Burst    int     `json:"burst" yaml:"burst"`
}

// AnalysisConfig holds article analysis settings
type AnalysisConfig struct {
	Enabled   bool    `json:"enabled" yaml:"enabled"`
	Provider  string  `json:"provider" yaml:"provider"` // preferred provider name
	Rate      float64 `json:"rate" yaml:"rate"`         // LLM calls per second, 0 = unpaced
	Burst     int     `json:"burst" yaml:"burst"`
	BatchSize int     `json:"batch_size" yaml:"batch_size"` // articles per scheduled run
	Scrape    bool    `json:"scrape" yaml:"scrape"`         // read full article pages
	Trends    bool    `json:"trends" yaml:"trends"`         // query Hacker News and Reddit
}

// NewsletterConfig holds digest email settings
type NewsletterConfig struct {
	ResendAPIKey string `json:"resend_api_key,omitempty" yaml:"resend_api_key,omitempty"`
	From         string `json:"from,omitempty" yaml:"from,omitempty"`
	AdminKey     string `json:"admin_key,omitempty" yaml:"admin_key,omitempty"` // empty disables admin routes
	BaseURL      string `json:"base_url,omitempty" yaml:"base_url,omitempty"`   // prefix of unsubscribe links
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Addr:     ":8000",
		DataDir:  defaultDataDir(),
		LogLevel: "info",
		Models: ModelConfig{
			OpenAI: ModelSettings{
				Enabled:  true,
				Priority: 1,
				Model:    brain.DefaultOpenAIModel,
			},
			Claude: ModelSettings{
				Enabled:  false,
				Priority: 2,
				Model:    brain.DefaultClaudeModel,
			},
			Gemini: ModelSettings{
				Enabled:  false,
				Priority: 3,
				Model:    brain.DefaultGeminiModel,
			},
			Grok: ModelSettings{
				Enabled:  false,
				Priority: 4,
				Model:    brain.DefaultGrokModel,
			},
			Ollama: ModelSettings{
				Enabled:  false,
				Priority: 5,
				Endpoint: brain.DefaultOllamaHost,
				Model:    brain.DefaultOllamaModel,
			},
		},
		Chat: ChatConfig{
			Provider: brain.OpenAI,
			Rate:     1,
			Burst:    3,
		},
		Analysis: AnalysisConfig{
			Enabled:   true,
			Provider:  brain.OpenAI,
			Rate:      analysis.DefaultRate,
			Burst:     analysis.DefaultBurst,
			BatchSize: coord.DefaultAnalyzeBatch,
			Scrape:    true,
			Trends:    true,
		},
		Newsletter: NewsletterConfig{
			BaseURL: newsletter.DefaultBaseURL,
		},
		Sources:  fetch.DefaultSources(),
		Schedule: coord.DefaultSchedule,
	}
}

func defaultDataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".texy")
}

// ConfigPath returns the path to the config file. A config.yaml in the data
// directory wins over config.json.
func ConfigPath() string {
	dir := defaultDataDir()
	for _, name := range []string{"config.yaml", "config.yml"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return filepath.Join(dir, "config.json")
}

// DBPath is the article database inside the data directory.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "texy.db")
}

// Load reads the config at ConfigPath, or returns defaults.
func Load() (*Config, error) {
	return LoadFile(ConfigPath())
}

// LoadFile reads config from path, choosing JSON or YAML by extension.
// A missing file yields defaults. Environment variables are applied last.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := unmarshal(path, data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.AutoPopulateFromEnv()
	return cfg, nil
}

func unmarshal(path string, data []byte, cfg *Config) error {
	if isYAML(path) {
		return yaml.Unmarshal(data, cfg)
	}
	return json.Unmarshal(data, cfg)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Save writes config to ConfigPath.
func (c *Config) Save() error {
	return c.SaveFile(ConfigPath())
}

// SaveFile writes config to path in the format its extension names.
func (c *Config) SaveFile(path string) error {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600) // Restrictive permissions for API keys
}

// AutoPopulateFromEnv fills in API keys and overrides from environment variables
func (c *Config) AutoPopulateFromEnv() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.Models.OpenAI.APIKey = key
		c.Models.OpenAI.Enabled = true
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		c.Models.Claude.APIKey = key
		c.Models.Claude.Enabled = true
	}
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		c.Models.Gemini.APIKey = key
		c.Models.Gemini.Enabled = true
	}
	if key := os.Getenv("XAI_API_KEY"); key != "" {
		c.Models.Grok.APIKey = key
		c.Models.Grok.Enabled = true
	}
	if addr := os.Getenv("TEXY_ADDR"); addr != "" {
		c.Addr = addr
	}
	if dir := os.Getenv("TEXY_DATA_DIR"); dir != "" {
		c.DataDir = dir
	}
	if key := os.Getenv("RESEND_API_KEY"); key != "" {
		c.Newsletter.ResendAPIKey = key
	}
	if from := os.Getenv("FROM_EMAIL"); from != "" {
		c.Newsletter.From = from
	}
	if key := os.Getenv("NEWSLETTER_ADMIN_KEY"); key != "" {
		c.Newsletter.AdminKey = key
	}
}

// LoadKeysFromFile loads keys from a shell script (like keys.sh)
func (c *Config) LoadKeysFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimPrefix(strings.TrimSpace(line), "export ")
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.Trim(value, `"'`)

		switch key {
		case "OPENAI_API_KEY":
			c.Models.OpenAI.APIKey = value
			c.Models.OpenAI.Enabled = true
		case "ANTHROPIC_API_KEY", "CLAUDE_API_KEY":
			c.Models.Claude.APIKey = value
			c.Models.Claude.Enabled = true
		case "GOOGLE_API_KEY":
			c.Models.Gemini.APIKey = value
			c.Models.Gemini.Enabled = true
		case "XAI_API_KEY":
			c.Models.Grok.APIKey = value
			c.Models.Grok.Enabled = true
		}
	}

	return nil
}

// settings pairs each provider name with its settings.
func (c *Config) settings() map[string]ModelSettings {
	return map[string]ModelSettings{
		brain.OpenAI: c.Models.OpenAI,
		brain.Claude: c.Models.Claude,
		brain.Gemini: c.Models.Gemini,
		brain.Grok:   c.Models.Grok,
		brain.Ollama: c.Models.Ollama,
	}
}

// GetEnabledModels returns enabled providers ordered by priority.
func (c *Config) GetEnabledModels() []string {
	all := c.settings()
	var names []string
	for name, s := range all {
		if s.Enabled {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		pi, pj := all[names[i]].Priority, all[names[j]].Priority
		if pi != pj {
			return pi < pj
		}
		return names[i] < names[j]
	})
	return names
}

// Providers builds a manager over the enabled providers, preferring
// Chat.Provider. Providers without a key are registered but unavailable.
func (c *Config) Providers() *brain.ProviderManager {
	return c.providers(c.Chat.Provider)
}

// AnalysisProviders is Providers preferring Analysis.Provider.
func (c *Config) AnalysisProviders() *brain.ProviderManager {
	return c.providers(c.Analysis.Provider)
}

func (c *Config) providers(preferred string) *brain.ProviderManager {
	all := c.settings()
	pm := brain.NewProviderManager()
	for _, name := range c.GetEnabledModels() {
		s := all[name]
		p, err := brain.NewProvider(name, brain.Options{
			APIKey:   s.APIKey,
			Model:    s.Model,
			Endpoint: s.Endpoint,
		})
		if err != nil {
			continue
		}
		pm.AddProvider(p)
	}
	pm.SetPreferred(preferred)
	return pm
}
