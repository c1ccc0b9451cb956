package entities

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/azure/discussion-insights/internal/models"
	"github.com/azure/discussion-insights/internal/sentiment"
	"github.com/azure/discussion-insights/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingScorer returns a fixed compound and remembers every scored text
type recordingScorer struct {
	mu       sync.Mutex
	compound float64
	texts    []string
}

func (r *recordingScorer) Score(ctx context.Context, text string) (models.SentimentScores, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return models.SentimentScores{Compound: r.compound, Positive: r.compound}, nil
}

func newTestExtractor(tagger Tagger, scorer sentiment.Scorer) *Extractor {
	return NewExtractor(tagger, sentiment.NewAnalyzer(scorer, 1), DefaultContextWindow, 0)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Lowercases", input: "OpenAI", expected: "openai"},
		{name: "Strips punctuation and collapses spaces", input: "  Elon   Musk! ", expected: "elon musk"},
		{name: "Ampersand removed", input: "AT&T", expected: "att"},
		{name: "Dotted acronym", input: "U.S.A.", expected: "usa"},
		{name: "Apostrophe removed", input: "O'Brien", expected: "obrien"},
		{name: "Newlines collapse", input: "New\nYork", expected: "new york"},
		{name: "Combining accent composed", input: "Café", expected: "café"},
		{name: "Digits kept", input: "Area 51", expected: "area 51"},
		{name: "Only punctuation", input: "!!!", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestExtractor_ExtractDeduplicatesOverlappingDetectors(t *testing.T) {
	extractor := newTestExtractor(NewHeuristicTagger(), &recordingScorer{})

	found, err := extractor.Extract(context.Background(), "I think OpenAI is doing great work.")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "OpenAI", found[0].Text)
	assert.Equal(t, "openai", found[0].NormalizedText)
	assert.Equal(t, models.EntityOrganization, found[0].Type)
	assert.Equal(t, 8, found[0].StartIndex)
	assert.Equal(t, 14, found[0].EndIndex)
	assert.Equal(t, 0.95, found[0].Confidence)
}

func TestExtractor_ExtractFiltersSpans(t *testing.T) {
	text := "Alice met Bob at Acme in Paris"
	tagger := TaggerFunc(func(ctx context.Context, text string) ([]Span, error) {
		return []Span{
			{Text: "Alice", Type: "PERSON", Start: 0, End: 5, Confidence: 0.9},
			{Text: "alice!", Type: "person", Start: 0, End: 5, Confidence: 0.4},
			{Text: "Bob", Type: "MISC", Start: 10, End: 13, Confidence: 0.9},
			{Text: "Acme", Type: "ORGANIZATION", Start: 17, End: 21, Confidence: 0.2},
			{Text: "Paris", Type: "LOCATION", Start: 25, End: 300, Confidence: 0.9},
			{Text: "", Type: "LOCATION", Start: 25, End: 30, Confidence: 0.9},
			{Text: "Alice", Type: "ORGANIZATION", Start: 0, End: 5, Confidence: 0.9},
		}, nil
	})

	extractor := NewExtractor(tagger, sentiment.NewAnalyzer(&recordingScorer{}, 1), 0, 0.3)
	found, err := extractor.Extract(context.Background(), text)
	require.NoError(t, err)

	require.Len(t, found, 3)
	assert.Equal(t, models.Entity{Text: "Alice", NormalizedText: "alice", Type: models.EntityPerson, StartIndex: 0, EndIndex: 5, Confidence: 0.9}, found[0])
	assert.Equal(t, "Paris", found[1].Text)
	assert.Equal(t, models.EntityLocation, found[1].Type)
	assert.Equal(t, models.EntityOrganization, found[2].Type)
	assert.Equal(t, "alice", found[2].NormalizedText)
}

func TestExtractor_ExtractEmptyTextSkipsTagger(t *testing.T) {
	called := false
	tagger := TaggerFunc(func(ctx context.Context, text string) ([]Span, error) {
		called = true
		return nil, nil
	})

	found, err := newTestExtractor(tagger, &recordingScorer{}).Extract(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, found)
	assert.False(t, called)
}

func TestHeuristicTagger(t *testing.T) {
	extractor := newTestExtractor(NewHeuristicTagger(), &recordingScorer{})

	type want struct {
		normalized string
		typ        models.EntityType
	}

	tests := []struct {
		name     string
		text     string
		expected []want
	}{
		{
			name: "Lexicon person, organization and gazetteer location",
			text: "Elon Musk said Tesla will open a factory in Berlin.",
			expected: []want{
				{"elon musk", models.EntityPerson},
				{"tesla", models.EntityOrganization},
				{"berlin", models.EntityLocation},
			},
		},
		{
			name: "Acronyms with shorthand ignored",
			text: "NASA and the FBI disagree, LOL.",
			expected: []want{
				{"nasa", models.EntityOrganization},
				{"fbi", models.EntityOrganization},
			},
		},
		{
			name: "Title marks a person",
			text: "Yesterday Dr. Jane Goodall visited the park.",
			expected: []want{
				{"jane goodall", models.EntityPerson},
			},
		},
		{
			name: "Organization with connector",
			text: "Bank of America raised fees again.",
			expected: []want{
				{"bank of america", models.EntityOrganization},
			},
		},
		{
			name: "Leading article dropped and suffix marks organization",
			text: "The Washington Post ran the story.",
			expected: []want{
				{"washington post", models.EntityOrganization},
			},
		},
		{
			name: "Possessive dropped",
			text: "I like Google's new phone.",
			expected: []want{
				{"google", models.EntityOrganization},
			},
		},
		{
			name:     "No entities in lowercase chatter",
			text:     "this thread is wild, lol",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := extractor.Extract(context.Background(), tt.text)
			require.NoError(t, err)

			var got []want
			for _, e := range found {
				got = append(got, want{e.NormalizedText, e.Type})
				runes := []rune(tt.text)
				assert.Equal(t, e.Text, string(runes[e.StartIndex:e.EndIndex]))
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestHeuristicTagger_CustomClassifierAndLexicon(t *testing.T) {
	classifier := ClassifierFunc(func(phrase string, words []string, prev string) (models.EntityType, float64, bool) {
		if phrase == "Gopher Works" {
			return models.EntityOrganization, 0.5, true
		}
		return "", 0, false
	})
	tagger := NewHeuristicTagger(
		WithClassifier(classifier),
		WithLexicon(map[string]models.EntityType{"Rob Pike": models.EntityPerson}),
	)

	found, err := newTestExtractor(tagger, &recordingScorer{}).Extract(context.Background(), "Rob Pike joined Gopher Works today")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "rob pike", found[0].NormalizedText)
	assert.Equal(t, models.EntityPerson, found[0].Type)
	assert.Equal(t, "gopher works", found[1].NormalizedText)
	assert.Equal(t, models.EntityOrganization, found[1].Type)
}

func TestContextWindow(t *testing.T) {
	text := strings.Repeat("a", 100) + "ENTITY" + strings.Repeat("b", 100)
	entity := models.Entity{StartIndex: 100, EndIndex: 106}

	window := ContextWindow(entity, text, 50)
	assert.Equal(t, strings.Repeat("a", 50)+"ENTITY"+strings.Repeat("b", 50), window)

	// clamped at both ends
	short := models.Entity{StartIndex: 2, EndIndex: 4}
	assert.Equal(t, "xxABxx", ContextWindow(short, "xxABxx", 50))

	// rune offsets, not bytes
	unicodeText := "\u00e9\u00e9\u00e9 Zo\u00eb \u00e9\u00e9\u00e9"
	zoe := models.Entity{StartIndex: 4, EndIndex: 7}
	assert.Equal(t, "\u00e9 Zo\u00eb \u00e9", ContextWindow(zoe, unicodeText, 2))
}

func TestExtractor_EntitySentimentScoresWindowOnly(t *testing.T) {
	scorer := &recordingScorer{compound: 0.4}
	extractor := newTestExtractor(NewHeuristicTagger(), scorer)

	text := strings.Repeat("x ", 60) + "Microsoft" + strings.Repeat(" y", 60)
	entity := models.Entity{StartIndex: 120, EndIndex: 129}

	scores, err := extractor.EntitySentiment(context.Background(), entity, text)
	require.NoError(t, err)
	assert.Equal(t, 0.4, scores.Compound)
	require.Len(t, scorer.texts, 1)
	assert.Equal(t, []rune(text)[70:179], []rune(scorer.texts[0]))
}

func TestExtractor_MentionsForDiscussion(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	discussion := &models.Discussion{
		ID: "post1",
		Comments: tree.NewRedditBuilder().Build([]models.RawComment{
			{ID: "a", Text: "OpenAI shipped again", Score: 12, Timestamp: ts, ParentID: "t3_post1"},
			{ID: "b", Text: "", Score: 3, ParentID: "t1_a"},
			{ID: "c", Text: "Microsoft and OpenAI are partners", Score: -2, Timestamp: ts.Add(time.Hour), ParentID: "t1_b"},
			{ID: "d", Text: "broken comment", Score: 1, ParentID: "t3_post1"},
		}),
	}

	base := NewHeuristicTagger()
	tagger := TaggerFunc(func(ctx context.Context, text string) ([]Span, error) {
		if text == "broken comment" {
			return nil, errors.New("tagger crashed")
		}
		return base.Tag(ctx, text)
	})

	extractor := newTestExtractor(tagger, &recordingScorer{compound: 0.3})
	mentions := extractor.MentionsForDiscussion(context.Background(), discussion)

	require.Len(t, mentions, 3)
	assert.Equal(t, "openai", mentions[0].Entity.NormalizedText)
	assert.Equal(t, 12, mentions[0].Score)
	assert.Equal(t, "post1", mentions[0].PostID)
	assert.Equal(t, "a", mentions[0].CommentID)
	assert.Equal(t, ts, mentions[0].Timestamp)

	assert.Equal(t, "microsoft", mentions[1].Entity.NormalizedText)
	assert.Equal(t, -2, mentions[1].Score)
	assert.Equal(t, "c", mentions[1].CommentID)
	assert.Equal(t, "openai", mentions[2].Entity.NormalizedText)
	assert.Equal(t, 0.3, mentions[2].Sentiment.Compound)

	nested := discussion.Comments[0].Replies[0].Replies[0]
	assert.Len(t, nested.Entities, 2)
	require.Len(t, discussion.Entities, 2)
	assert.Equal(t, "openai", discussion.Entities[0].NormalizedText)
	assert.Equal(t, "microsoft", discussion.Entities[1].NormalizedText)
}

func TestLimitedTagger(t *testing.T) {
	calls := 0
	next := TaggerFunc(func(ctx context.Context, text string) ([]Span, error) {
		calls++
		return []Span{{Text: text}}, nil
	})

	limited := NewLimitedTagger(next, 0, 0)
	spans, err := limited.Tag(context.Background(), "x")
	require.NoError(t, err)
	assert.Len(t, spans, 1)
	assert.Equal(t, 1, calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	strict := NewLimitedTagger(next, 0.001, 1)
	_, _ = strict.Tag(context.Background(), "drain")
	_, err = strict.Tag(ctx, "y")
	assert.Error(t, err)
	assert.Equal(t, 2, calls)
}
