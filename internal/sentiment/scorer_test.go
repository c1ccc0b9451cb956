package sentiment

import (
	"context"
	"testing"

	"github.com/azure/discussion-insights/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestVaderScorer_Score(t *testing.T) {
	scorer := NewVaderScorer(true)

	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{
			name:     "Positive content",
			text:     "I love this library, it is great and works perfectly!",
			expected: "positive",
		},
		{
			name:     "Negative content",
			text:     "This is terrible and broken, I hate it.",
			expected: "negative",
		},
		{
			name:     "Neutral content",
			text:     "The release ships on Tuesday.",
			expected: "neutral",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores, err := scorer.Score(context.Background(), tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, scores.Label())
			assert.GreaterOrEqual(t, scores.Compound, -1.0)
			assert.LessOrEqual(t, scores.Compound, 1.0)
		})
	}
}

func TestVaderScorer_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewVaderScorer(false).Score(ctx, "great")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Markdown emphasis",
			input:    "This is **really** good",
			expected: "This is really good",
		},
		{
			name:     "Markdown link keeps text",
			input:    "See [the docs](https://example.com/docs) for more",
			expected: "See the docs for more",
		},
		{
			name:     "Bare URL removed",
			input:    "Source: https://example.com/a?b=c",
			expected: "Source:",
		},
		{
			name:     "Plain text untouched",
			input:    "Plain text content",
			expected: "Plain text content",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PlainText(tt.input))
		})
	}
}

func TestLimitedScorer(t *testing.T) {
	next := &MockScorer{}
	next.On("Score", mock.Anything, "hello").Return(models.SentimentScores{Compound: 0.1}, nil).Once()

	limited := NewLimitedScorer(next, 0, 1)
	scores, err := limited.Score(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, 0.1, scores.Compound)
	next.AssertExpectations(t)
}

func TestLimitedScorer_CancelledWait(t *testing.T) {
	next := &MockScorer{}
	limited := NewLimitedScorer(next, 0.001, 1)

	// drain the single burst token
	next.On("Score", mock.Anything, "first").Return(models.SentimentScores{}, nil).Once()
	_, err := limited.Score(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = limited.Score(ctx, "second")
	assert.Error(t, err)
	next.AssertNotCalled(t, "Score", mock.Anything, "second")
}
