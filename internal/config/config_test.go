package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "reddit", cfg.DefaultSource)
	assert.Equal(t, []string{"technology", "programming"}, cfg.Communities)
	assert.Equal(t, 25, cfg.PostLimit)
	assert.Equal(t, 5*time.Minute, cfg.SourceTimeout)
	assert.Equal(t, 50, cfg.ContextWindow)
	assert.False(t, cfg.RecomputeMergedSentiment)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SUBREDDITS", " golang, rust ,,")
	t.Setenv("QUERY", "openai")
	t.Setenv("SOURCE_TIMEOUT", "90s")
	t.Setenv("MIN_COMMENT_SCORE", "3")
	t.Setenv("RECOMPUTE_MERGED_SENTIMENT", "true")
	t.Setenv("SCORER_RPS", "2.5")
	t.Setenv("POST_LIMIT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"golang", "rust"}, cfg.Communities)
	assert.Equal(t, "openai", cfg.Query)
	assert.Equal(t, 90*time.Second, cfg.SourceTimeout)
	assert.Equal(t, 3, cfg.MinCommentScore)
	assert.True(t, cfg.RecomputeMergedSentiment)
	assert.Equal(t, 2.5, cfg.ScorerRPS)
	assert.Equal(t, 25, cfg.PostLimit, "unparsable values fall back to the default")
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "Invalid schedule", env: map[string]string{"SCHEDULE": "every day"}},
		{name: "Invalid time zone", env: map[string]string{"TIMEZONE": "Mars/Olympus"}},
		{name: "No communities", env: map[string]string{"SUBREDDITS": " , "}},
		{name: "Zero post limit", env: map[string]string{"POST_LIMIT": "0"}},
		{name: "Negative comment limit", env: map[string]string{"COMMENT_LIMIT": "-1"}},
		{name: "Zero concurrency", env: map[string]string{"MAX_CONCURRENT_SOURCES": "0"}},
		{name: "Confidence out of range", env: map[string]string{"MIN_ENTITY_CONFIDENCE": "1.5"}},
		{name: "Email without SMTP", env: map[string]string{"NOTIFICATION_EMAIL": "team@example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load()
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestLoad_DescriptorSchedule(t *testing.T) {
	t.Setenv("SCHEDULE", "@hourly")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "@hourly", cfg.Schedule)
}
