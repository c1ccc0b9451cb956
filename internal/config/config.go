package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Schedule configuration
	Schedule string // cron expression with a seconds field
	TimeZone string

	// Analysis request defaults
	Query         string
	DefaultSource string
	Communities   []string
	FixturePath   string

	// Fetch limits
	PostLimit       int
	CommentLimit    int
	MinCommentScore int

	// Pipeline bounds
	SourceTimeout        time.Duration
	RunTimeout           time.Duration
	MaxConcurrentSources int
	CommentWorkers       int
	ScorerRPS            float64
	TaggerRPS            float64

	// Entity extraction
	ContextWindow       int
	MinEntityConfidence float64

	// Consolidation and output
	RecomputeMergedSentiment bool
	MaxGraphEntities         int
	ReportTopEntities        int

	// Storage configuration
	StorageAccount   string
	StorageContainer string
	LocalStorageDir  string

	// Notification configuration
	TeamsWebhookURL   string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string

	// API Keys and credentials
	RedditClientID          string
	RedditClientSecret      string
	RedditUserAgent         string
	RedditRequestsPerMinute int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		Debug:    getBoolEnv("DEBUG", false),
		Schedule: getEnv("SCHEDULE", "0 0 9 * * *"),
		TimeZone: getEnv("TIMEZONE", "UTC"),

		Query:         getEnv("QUERY", ""),
		DefaultSource: getEnv("SOURCE", "reddit"),
		Communities:   getSliceEnv("SUBREDDITS", []string{"technology", "programming"}),
		FixturePath:   getEnv("FIXTURE_PATH", ""),

		PostLimit:       getIntEnv("POST_LIMIT", 25),
		CommentLimit:    getIntEnv("COMMENT_LIMIT", 200),
		MinCommentScore: getIntEnv("MIN_COMMENT_SCORE", 0),

		SourceTimeout:        getDurationEnv("SOURCE_TIMEOUT", 5*time.Minute),
		RunTimeout:           getDurationEnv("RUN_TIMEOUT", 30*time.Minute),
		MaxConcurrentSources: getIntEnv("MAX_CONCURRENT_SOURCES", 4),
		CommentWorkers:       getIntEnv("COMMENT_WORKERS", 8),
		ScorerRPS:            getFloatEnv("SCORER_RPS", 0),
		TaggerRPS:            getFloatEnv("TAGGER_RPS", 0),

		ContextWindow:       getIntEnv("CONTEXT_WINDOW", 50),
		MinEntityConfidence: getFloatEnv("MIN_ENTITY_CONFIDENCE", 0.5),

		RecomputeMergedSentiment: getBoolEnv("RECOMPUTE_MERGED_SENTIMENT", false),
		MaxGraphEntities:         getIntEnv("MAX_GRAPH_ENTITIES", 25),
		ReportTopEntities:        getIntEnv("REPORT_TOP_ENTITIES", 10),

		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "insights"),
		LocalStorageDir:  getEnv("LOCAL_STORAGE_DIR", "./data"),

		TeamsWebhookURL:   getEnv("TEAMS_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),

		RedditClientID:          getEnv("REDDIT_CLIENT_ID", ""),
		RedditClientSecret:      getEnv("REDDIT_CLIENT_SECRET", ""),
		RedditUserAgent:         getEnv("REDDIT_USER_AGENT", "discussion-insights/1.0"),
		RedditRequestsPerMinute: getIntEnv("REDDIT_REQUESTS_PER_MINUTE", 100),
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.Schedule); err != nil {
		return fmt.Errorf("SCHEDULE is not a valid cron expression: %w", err)
	}

	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("TIMEZONE is invalid: %w", err)
	}

	if len(c.Communities) == 0 {
		return fmt.Errorf("SUBREDDITS must name at least one community")
	}

	if c.PostLimit < 1 {
		return fmt.Errorf("POST_LIMIT must be positive")
	}

	if c.CommentLimit < 0 {
		return fmt.Errorf("COMMENT_LIMIT must not be negative")
	}

	if c.SourceTimeout <= 0 || c.RunTimeout <= 0 {
		return fmt.Errorf("SOURCE_TIMEOUT and RUN_TIMEOUT must be positive")
	}

	if c.MaxConcurrentSources < 1 {
		return fmt.Errorf("MAX_CONCURRENT_SOURCES must be at least 1")
	}

	if c.MinEntityConfidence < 0 || c.MinEntityConfidence > 1 {
		return fmt.Errorf("MIN_ENTITY_CONFIDENCE must be between 0 and 1")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	return nil
}

// Location returns the configured schedule time zone
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return defaultValue
}
