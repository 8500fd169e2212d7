// Package config loads the publisher configuration: secrets and paths from
// environment variables, slots, filter rules and sources from a YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/upliftnews/uplift/internal/schedule"
)

// KeywordBoost assigns a positive weight to one boost keyword.
type KeywordBoost struct {
	Keyword string `yaml:"keyword"`
	Weight  int    `yaml:"weight"`
}

// Filter holds the scoring and selection rules. Keyword order is preserved
// from the YAML file; the first matching exclude keyword names the rejection.
type Filter struct {
	MinUpliftScore  int            `yaml:"min_uplift_score"`
	MaxPerSource    int            `yaml:"max_per_source"`
	ExcludeKeywords []string       `yaml:"exclude_keywords"`
	BoostKeywords   []KeywordBoost `yaml:"boost_keywords"`
}

// Source is one configured feed.
type Source struct {
	Name       string   `yaml:"name"`
	URL        string   `yaml:"url"`
	Priority   int      `yaml:"priority"`
	ToneBoost  int      `yaml:"tone_boost"`
	Categories []string `yaml:"categories"`
}

type Config struct {
	// Environment
	StatePath      string
	DatabaseURL    string // when set, state lives in Postgres instead of the JSON file
	BlogAPIURL     string
	BlogAPIToken   string
	TelegramToken  string
	TelegramChatID string
	GeminiAPIKey   string
	OpenAIAPIKey   string
	ForceSlot      string // bypass the slot gate for manual runs
	DryRun         bool
	Debug          bool

	RequestTimeout   time.Duration
	FetchConcurrency int
	MaxAIRequests    int // per provider per day, 0 = unlimited

	// YAML file
	Timezone          string          `yaml:"timezone"`
	LatenessTolerance int             `yaml:"lateness_tolerance_minutes"`
	Slots             []schedule.Slot `yaml:"slots"`
	ShortlistSize     int             `yaml:"shortlist_size"`
	ExcerptMaxRunes   int             `yaml:"excerpt_max_runes"`
	Filter            Filter          `yaml:"filter"`
	Sources           []Source        `yaml:"sources"`
	ImageProviders    []string        `yaml:"image_providers"`

	loc *time.Location
}

// Load reads the environment, then the YAML file named by UPLIFT_CONFIG, and
// validates the result. Any error here is fatal for the run: nothing has
// touched the network or the state store yet.
func Load() (*Config, error) {
	cfg := &Config{
		StatePath:        getEnvOrDefault("STATE_PATH", "uplift_state.json"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		BlogAPIURL:       os.Getenv("BLOG_API_URL"),
		BlogAPIToken:     os.Getenv("BLOG_API_TOKEN"),
		TelegramToken:    os.Getenv("TELEGRAM_TOKEN"),
		TelegramChatID:   os.Getenv("TELEGRAM_CHAT_ID"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		ForceSlot:        os.Getenv("FORCE_SLOT"),
		DryRun:           os.Getenv("DRY_RUN") == "true",
		Debug:            os.Getenv("DEBUG") == "true",
		RequestTimeout:   time.Duration(getEnvIntOrDefault("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
		FetchConcurrency: getEnvIntOrDefault("FETCH_CONCURRENCY", 4),
		MaxAIRequests:    getEnvIntOrDefault("MAX_AI_REQUESTS", 20),
	}

	path := getEnvOrDefault("UPLIFT_CONFIG", "configs/uplift.yaml")
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	return cfg, cfg.Validate()
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// Validate checks everything the run depends on. A malformed slot time, an
// unknown timezone or an empty source list must stop the process before any
// network activity.
func (c *Config) Validate() error {
	if c.BlogAPIURL == "" && !c.DryRun {
		return fmt.Errorf("BLOG_API_URL is required (or set DRY_RUN=true)")
	}
	if c.TelegramToken != "" && c.TelegramChatID == "" {
		return fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_TOKEN is set")
	}

	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	c.loc = loc

	if c.LatenessTolerance < 0 {
		return fmt.Errorf("lateness_tolerance_minutes must not be negative")
	}
	if len(c.Slots) == 0 {
		return fmt.Errorf("at least one slot is required")
	}
	seen := make(map[string]bool, len(c.Slots))
	for _, slot := range c.Slots {
		if slot.Name == "" {
			return fmt.Errorf("slot with time %q has no name", slot.Time)
		}
		if seen[slot.Name] {
			return fmt.Errorf("duplicate slot name %q", slot.Name)
		}
		seen[slot.Name] = true
		if _, err := schedule.ParseClock(slot.Time); err != nil {
			return fmt.Errorf("slot %q: %w", slot.Name, err)
		}
	}

	if c.ShortlistSize <= 0 {
		c.ShortlistSize = 3
	}
	if c.ExcerptMaxRunes <= 0 {
		c.ExcerptMaxRunes = 300
	}
	if c.FetchConcurrency <= 0 {
		c.FetchConcurrency = 4
	}

	if c.Filter.MinUpliftScore < 0 {
		return fmt.Errorf("filter.min_uplift_score must not be negative")
	}
	if c.Filter.MaxPerSource <= 0 {
		return fmt.Errorf("filter.max_per_source must be positive")
	}
	for _, b := range c.Filter.BoostKeywords {
		if b.Keyword == "" {
			return fmt.Errorf("boost keyword with weight %d is empty", b.Weight)
		}
		if b.Weight <= 0 {
			return fmt.Errorf("boost keyword %q must have a positive weight", b.Keyword)
		}
	}

	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}
	for _, s := range c.Sources {
		if s.Name == "" || s.URL == "" {
			return fmt.Errorf("source entries need both name and url")
		}
		if s.Priority < 1 {
			return fmt.Errorf("source %q: priority must be at least 1", s.Name)
		}
		if s.ToneBoost < 0 {
			return fmt.Errorf("source %q: tone_boost must not be negative", s.Name)
		}
	}

	return nil
}

// Location returns the validated publishing timezone.
func (c *Config) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}
