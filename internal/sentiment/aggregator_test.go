package sentiment

import (
	"context"
	"errors"
	"testing"

	"github.com/azure/discussion-insights/internal/models"
	"github.com/azure/discussion-insights/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockScorer is a mock implementation of the Scorer interface
type MockScorer struct {
	mock.Mock
}

func (m *MockScorer) Score(ctx context.Context, text string) (models.SentimentScores, error) {
	args := m.Called(ctx, text)
	return args.Get(0).(models.SentimentScores), args.Error(1)
}

// tableScorer returns fixed compounds keyed by text
func tableScorer(table map[string]float64) Scorer {
	return ScorerFunc(func(ctx context.Context, text string) (models.SentimentScores, error) {
		c, ok := table[text]
		if !ok {
			return models.SentimentScores{}, errors.New("unexpected text")
		}
		return models.SentimentScores{Compound: c, Positive: c, Neutral: 1 - c, Negative: -c}, nil
	})
}

func commentWith(score int, compound float64) *models.Comment {
	s := models.SentimentScores{Compound: compound, Positive: compound * 2, Neutral: 0.5, Negative: compound / 2}
	return &models.Comment{
		Score:     score,
		Sentiment: &models.SentimentAnalysis{Original: s, Overall: s, Label: s.Label()},
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		name     string
		compound float64
		expected string
	}{
		{name: "Positive threshold is inclusive", compound: 0.05, expected: "positive"},
		{name: "Negative threshold is inclusive", compound: -0.05, expected: "negative"},
		{name: "Zero is neutral", compound: 0.0, expected: "neutral"},
		{name: "Just below positive threshold", compound: 0.049999, expected: "neutral"},
		{name: "Just above negative threshold", compound: -0.049999, expected: "neutral"},
		{name: "Strongly positive", compound: 0.9, expected: "positive"},
		{name: "Strongly negative", compound: -1, expected: "negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Label(tt.compound))
		})
	}
}

func TestAnalyzer_ScoreTextSkipsBlankText(t *testing.T) {
	scorer := &MockScorer{}
	analyzer := NewAnalyzer(scorer, 1)

	for _, text := range []string{"", "   ", "\n\t"} {
		scores, err := analyzer.ScoreText(context.Background(), text)
		require.NoError(t, err)
		assert.Equal(t, models.SentimentScores{}, scores)
	}

	scorer.AssertNotCalled(t, "Score", mock.Anything, mock.Anything)
}

func TestAnalyzer_ScoreComment(t *testing.T) {
	scorer := &MockScorer{}
	scorer.On("Score", mock.Anything, "great stuff").
		Return(models.SentimentScores{Compound: 0.6, Positive: 0.7, Neutral: 0.3}, nil)

	analyzer := NewAnalyzer(scorer, 1)
	analysis, err := analyzer.ScoreComment(context.Background(), &models.Comment{Text: "great stuff"})

	require.NoError(t, err)
	assert.Equal(t, 0.6, analysis.Original.Compound)
	assert.Equal(t, analysis.Original, analysis.Overall)
	assert.Equal(t, "positive", analysis.Label)
	scorer.AssertExpectations(t)
}

func TestAnalyzer_ScoreTreeIncludesNestedReplies(t *testing.T) {
	roots := tree.NewRedditBuilder().Build([]models.RawComment{
		{ID: "a", Text: "root", ParentID: "t3_p", Score: 1},
		{ID: "b", Text: "reply", ParentID: "t1_a", Score: 1},
		{ID: "c", Text: "deep", ParentID: "t1_b", Score: 1},
	})

	analyzer := NewAnalyzer(tableScorer(map[string]float64{"root": 0.3, "reply": 0.6, "deep": 0.9}), 2)
	scored, failed := analyzer.ScoreTree(context.Background(), roots)

	assert.Equal(t, 3, scored)
	assert.Equal(t, 0, failed)
	for _, c := range tree.Flatten(roots) {
		require.NotNil(t, c.Sentiment, "comment %s", c.ID)
	}
	assert.InDelta(t, 0.9, roots[0].Replies[0].Replies[0].Sentiment.Overall.Compound, 1e-9)
	assert.InDelta(t, 0.6, WeightedAverage(tree.Flatten(roots)).Compound, 1e-9)
}

func TestAnalyzer_ScoreTreeSkipsFailingComments(t *testing.T) {
	roots := tree.NewRedditBuilder().Build([]models.RawComment{
		{ID: "a", Text: "fine", Score: 4},
		{ID: "b", Text: "boom", ParentID: "t1_a", Score: 100},
	})

	analyzer := NewAnalyzer(tableScorer(map[string]float64{"fine": 0.5}), 1)
	scored, failed := analyzer.ScoreTree(context.Background(), roots)

	assert.Equal(t, 1, scored)
	assert.Equal(t, 1, failed)
	assert.NotNil(t, roots[0].Sentiment)
	assert.Nil(t, roots[0].Replies[0].Sentiment)
	assert.InDelta(t, 0.5, WeightedAverage(tree.Flatten(roots)).Compound, 1e-9)
}

func TestAnalyzer_ScoreTreeCancelled(t *testing.T) {
	roots := tree.NewRedditBuilder().Build([]models.RawComment{{ID: "a", Text: "x"}, {ID: "b", Text: "y"}})

	scorer := &MockScorer{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scored, failed := NewAnalyzer(scorer, 1).ScoreTree(ctx, roots)
	assert.Equal(t, 0, scored)
	assert.Equal(t, 2, failed)
	scorer.AssertNotCalled(t, "Score", mock.Anything, mock.Anything)
}

func TestWeightedAverage(t *testing.T) {
	t.Run("Empty list is the zero vector", func(t *testing.T) {
		assert.Equal(t, models.SentimentScores{}, WeightedAverage(nil))
		assert.Equal(t, models.SentimentScores{}, WeightedAverage([]*models.Comment{}))
	})

	t.Run("Comments without sentiment are the zero vector", func(t *testing.T) {
		assert.Equal(t, models.SentimentScores{}, WeightedAverage([]*models.Comment{{Score: 5}}))
	})

	t.Run("All non-positive scores fall back to unweighted mean", func(t *testing.T) {
		comments := []*models.Comment{commentWith(0, 0.2), commentWith(-3, -0.6), commentWith(-10, 0.7)}
		got := WeightedAverage(comments)

		assert.InDelta(t, (0.2-0.6+0.7)/3, got.Compound, 1e-9)
		assert.InDelta(t, (0.4-1.2+1.4)/3, got.Positive, 1e-9)
		assert.InDelta(t, 0.5, got.Neutral, 1e-9)
		assert.InDelta(t, (0.1-0.3+0.35)/3, got.Negative, 1e-9)
	})

	t.Run("Positive scores are weighted", func(t *testing.T) {
		comments := []*models.Comment{commentWith(1, 0.0), commentWith(3, 0.8)}
		got := WeightedAverage(comments)

		assert.InDelta(t, (0*1+0.8*3)/4.0, got.Compound, 1e-9)
		assert.InDelta(t, (0*1+1.6*3)/4.0, got.Positive, 1e-9)
	})

	t.Run("Non-positive scores do not move the weighted result", func(t *testing.T) {
		base := []*models.Comment{commentWith(2, 0.4), commentWith(6, 0.1)}
		withExtremes := append([]*models.Comment{commentWith(0, -1), commentWith(-500, 1)}, base...)

		assert.InDelta(t, WeightedAverage(base).Compound, WeightedAverage(withExtremes).Compound, 1e-12)
		assert.InDelta(t, (0.4*2+0.1*6)/8, WeightedAverage(withExtremes).Compound, 1e-9)
	})
}

func TestDiscussionSentiment_OnlyPositiveScoreCounts(t *testing.T) {
	analyzer := NewAnalyzer(tableScorer(map[string]float64{"ten": 0.5, "minus five": 0.8, "zero": -0.9}), 3)

	discussion := &models.Discussion{
		ID: "p",
		Comments: tree.NewRedditBuilder().Build([]models.RawComment{
			{ID: "a", Text: "ten", Score: 10, ParentID: "t3_p"},
			{ID: "b", Text: "minus five", Score: -5, ParentID: "t3_p"},
			{ID: "c", Text: "zero", Score: 0, ParentID: "t3_p"},
		}),
	}

	scored, failed := analyzer.ScoreDiscussion(context.Background(), discussion)
	require.Equal(t, 3, scored)
	require.Equal(t, 0, failed)
	require.NotNil(t, discussion.Sentiment)
	assert.InDelta(t, 0.5, discussion.Sentiment.Compound, 1e-9)
	assert.Equal(t, "positive", discussion.Sentiment.Label)
}

func TestSourceSentiment_SpansDiscussions(t *testing.T) {
	d1 := models.Discussion{Comments: []*models.Comment{commentWith(1, 0.2)}}
	d2 := models.Discussion{Comments: []*models.Comment{commentWith(3, -0.6)}}
	d2.Comments[0].Replies = []*models.Comment{commentWith(4, 0.9)}

	got := SourceSentiment([]models.Discussion{d1, d2})
	assert.InDelta(t, (0.2*1-0.6*3+0.9*4)/8, got.Compound, 1e-9)
	assert.Equal(t, got.SentimentScores.Label(), got.Label)
}
