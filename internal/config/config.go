// Package config handles configuration for genaiprobe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/diogo/genaiprobe/internal/extract"
)

// ThemePlaceholder is replaced by the theme in PromptTemplate
const ThemePlaceholder = "{theme}"

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style"`              // "dark", "light", "notty" or path to JSON theme
	EnableEmoji      bool   `json:"enable_emoji"`       // Convert :emoji: to unicode
	PreserveNewLines bool   `json:"preserve_newlines"`  // Preserve original line breaks
	TableWrap        bool   `json:"table_wrap"`         // Enable word wrap in table cells
	InlineTableLinks bool   `json:"inline_table_links"` // Render links inline in tables
}

// ExtractionConfig tunes the image search
type ExtractionConfig struct {
	// MaxDepth bounds recursion into nested containers.
	MaxDepth int `json:"max_depth"`
	// MaxVisits bounds the nodes entered per search.
	MaxVisits int `json:"max_visits"`
	// FetchTimeout is the per-URL timeout in seconds.
	FetchTimeout int `json:"fetch_timeout"`
	// Extra names are probed after the built-in candidates.
	Extra extract.Candidates `json:"extra,omitempty"`
}

// Config represents the user configuration
type Config struct {
	DefaultModel   string `json:"default_model"`
	DefaultTheme   string `json:"default_theme"`
	PromptTemplate string `json:"prompt_template"`
	// Modalities requested from the model; empty uses TEXT and IMAGE.
	Modalities []string `json:"modalities,omitempty"`
	// Verbose enables detailed logging output during operations.
	// When enabled, shows model info, request timing and the extractor trace.
	Verbose         bool             `json:"verbose"`
	CopyToClipboard bool             `json:"copy_to_clipboard"`
	OutputDir       string           `json:"output_dir,omitempty"` // Directory for saving images
	Extraction      ExtractionConfig `json:"extraction"`
	Markdown        MarkdownConfig   `json:"markdown,omitempty"`
}

// Env holds settings read from the environment. The API key only ever
// comes from here or from flags; it is never written to the config file.
type Env struct {
	APIKey       string `env:"GEMINI_API_KEY"`
	GoogleAPIKey string `env:"GOOGLE_API_KEY"`
	Model        string `env:"GENAIPROBE_MODEL"`
	Verbose      *bool  `env:"GENAIPROBE_VERBOSE"`
	OutputDir    string `env:"GENAIPROBE_OUTPUT_DIR"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		EnableEmoji:      false,
		PreserveNewLines: true,
		TableWrap:        true,
		InlineTableLinks: false,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	homeDir, _ := os.UserHomeDir()
	return Config{
		DefaultModel:    "gemini-2.0-flash-exp",
		DefaultTheme:    "Cyberpunk Street Food Stall",
		PromptTemplate:  "Generate an image of a " + ThemePlaceholder + " scene in bold line cartoon, bright colors. FULL BLEED, NO BORDERS.",
		Verbose:         false,
		CopyToClipboard: false,
		OutputDir:       filepath.Join(homeDir, ".genaiprobe", "images"),
		Extraction: ExtractionConfig{
			MaxDepth:     extract.DefaultMaxDepth,
			MaxVisits:    extract.DefaultMaxVisits,
			FetchTimeout: 120,
		},
		Markdown: DefaultMarkdownConfig(),
	}
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".genaiprobe"), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// LoadConfig loads the configuration from disk
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults if config doesn't exist
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadEnv reads environment overrides
func LoadEnv() (Env, error) {
	e, err := env.ParseAs[Env]()
	if err != nil {
		return Env{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return e, nil
}

// Credential returns the API key, preferring GEMINI_API_KEY
func (e Env) Credential() string {
	if e.APIKey != "" {
		return e.APIKey
	}
	return e.GoogleAPIKey
}

// Apply overlays non-empty environment values onto cfg
func (e Env) Apply(cfg Config) Config {
	if e.Model != "" {
		cfg.DefaultModel = e.Model
	}
	if e.Verbose != nil {
		cfg.Verbose = *e.Verbose
	}
	if e.OutputDir != "" {
		cfg.OutputDir = e.OutputDir
	}
	return cfg
}

// Candidates returns the extractor candidates with configured extras appended
func (c Config) Candidates() extract.Candidates {
	return extract.DefaultCandidates().Extend(c.Extraction.Extra)
}

// FormatPrompt fills the prompt template with theme
func (c Config) FormatPrompt(theme string) string {
	template := c.PromptTemplate
	if template == "" {
		template = DefaultConfig().PromptTemplate
	}
	return strings.ReplaceAll(template, ThemePlaceholder, theme)
}

// setters maps settable keys to their parsers
var setters = map[string]func(cfg *Config, value string) error{
	"default_model":   func(cfg *Config, v string) error { cfg.DefaultModel = v; return nil },
	"default_theme":   func(cfg *Config, v string) error { cfg.DefaultTheme = v; return nil },
	"prompt_template": func(cfg *Config, v string) error { cfg.PromptTemplate = v; return nil },
	"output_dir":      func(cfg *Config, v string) error { cfg.OutputDir = v; return nil },
	"markdown.style":  func(cfg *Config, v string) error { cfg.Markdown.Style = v; return nil },
	"verbose":         boolSetter(func(cfg *Config) *bool { return &cfg.Verbose }),
	"copy_to_clipboard": boolSetter(func(cfg *Config) *bool {
		return &cfg.CopyToClipboard
	}),
	"extraction.max_depth": intSetter(func(cfg *Config) *int {
		return &cfg.Extraction.MaxDepth
	}),
	"extraction.max_visits": intSetter(func(cfg *Config) *int {
		return &cfg.Extraction.MaxVisits
	}),
	"extraction.fetch_timeout": intSetter(func(cfg *Config) *int {
		return &cfg.Extraction.FetchTimeout
	}),
	"modalities": func(cfg *Config, v string) error {
		cfg.Modalities = nil
		for _, m := range strings.Split(v, ",") {
			if m = strings.ToUpper(strings.TrimSpace(m)); m != "" {
				cfg.Modalities = append(cfg.Modalities, m)
			}
		}
		return nil
	},
}

func boolSetter(field func(*Config) *bool) func(*Config, string) error {
	return func(cfg *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid boolean %q", v)
		}
		*field(cfg) = b
		return nil
	}
}

func intSetter(field func(*Config) *int) func(*Config, string) error {
	return func(cfg *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid non-negative integer %q", v)
		}
		*field(cfg) = n
		return nil
	}
}

// Set assigns value to the named key
func Set(cfg *Config, key, value string) error {
	setter, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(SettableKeys(), ", "))
	}
	return setter(cfg, value)
}

// SettableKeys returns the keys accepted by Set, sorted
func SettableKeys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AvailableModels returns a list of image-capable model names
func AvailableModels() []string {
	return []string{
		"gemini-2.0-flash-exp",
		"gemini-2.0-flash-preview-image-generation",
		"gemini-2.5-flash-image-preview",
		"gemini-2.5-flash-image",
	}
}
