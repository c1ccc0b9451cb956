package entities

import (
	"context"
	"strings"

	"github.com/azure/discussion-insights/internal/models"
	"github.com/azure/discussion-insights/internal/sentiment"
	"github.com/azure/discussion-insights/internal/tree"
	"github.com/sirupsen/logrus"
)

// DefaultContextWindow is the number of runes scored on each side of a mention
const DefaultContextWindow = 50

// Extractor turns tagger output into normalized, deduplicated entities and mentions
type Extractor struct {
	tagger        Tagger
	analyzer      *sentiment.Analyzer
	window        int
	minConfidence float64
}

// NewExtractor creates an extractor. A non-positive window uses DefaultContextWindow.
func NewExtractor(tagger Tagger, analyzer *sentiment.Analyzer, window int, minConfidence float64) *Extractor {
	if window <= 0 {
		window = DefaultContextWindow
	}
	return &Extractor{
		tagger:        tagger,
		analyzer:      analyzer,
		window:        window,
		minConfidence: minConfidence,
	}
}

// Extract tags text and returns its entities in first-seen order, one per (type, normalized text)
func (e *Extractor) Extract(ctx context.Context, text string) ([]models.Entity, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	spans, err := e.tagger.Tag(ctx, text)
	if err != nil {
		return nil, err
	}

	runes := []rune(text)
	length := len(runes)
	seen := make(map[models.EntityKey]bool, len(spans))
	var out []models.Entity

	for _, span := range spans {
		typ := models.EntityType(strings.ToUpper(strings.TrimSpace(span.Type)))
		if !typ.IsSupported() {
			continue
		}
		if span.Start < 0 || span.End > length || span.End <= span.Start {
			continue
		}
		if span.Confidence < e.minConfidence {
			continue
		}

		surface := span.Text
		if surface == "" {
			surface = string(runes[span.Start:span.End])
		}
		normalized := Normalize(surface)
		if normalized == "" {
			continue
		}

		entity := models.Entity{
			Text:           surface,
			NormalizedText: normalized,
			Type:           typ,
			StartIndex:     span.Start,
			EndIndex:       span.End,
			Confidence:     span.Confidence,
		}
		if seen[entity.Key()] {
			continue
		}
		seen[entity.Key()] = true
		out = append(out, entity)
	}

	return out, nil
}

// ContextWindow returns the runes of fullText within window of the entity span
func ContextWindow(entity models.Entity, fullText string, window int) string {
	runes := []rune(fullText)
	start := entity.StartIndex - window
	if start < 0 {
		start = 0
	}
	end := entity.EndIndex + window
	if end > len(runes) {
		end = len(runes)
	}
	if start >= end {
		return ""
	}
	return string(runes[start:end])
}

// EntitySentiment scores the text surrounding the mention rather than the whole comment
func (e *Extractor) EntitySentiment(ctx context.Context, entity models.Entity, fullText string) (models.SentimentScores, error) {
	return e.analyzer.ScoreText(ctx, ContextWindow(entity, fullText, e.window))
}

// MentionsForDiscussion extracts entities from every comment in the discussion tree and
// returns one mention event per entity per comment. A comment whose tagging fails is
// skipped; so is a mention whose context scoring fails.
func (e *Extractor) MentionsForDiscussion(ctx context.Context, discussion *models.Discussion) []models.MentionEvent {
	var (
		mentions []models.MentionEvent
		distinct []models.Entity
	)
	seen := make(map[models.EntityKey]bool)

	for _, comment := range tree.Flatten(discussion.Comments) {
		if ctx.Err() != nil {
			break
		}
		if strings.TrimSpace(comment.Text) == "" {
			continue
		}

		found, err := e.Extract(ctx, comment.Text)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"discussion_id": discussion.ID,
				"comment_id":    comment.ID,
			}).Warnf("Skipping entities for comment: %v", err)
			continue
		}
		comment.Entities = found

		for _, entity := range found {
			scores, err := e.EntitySentiment(ctx, entity, comment.Text)
			if err != nil {
				logrus.WithFields(logrus.Fields{
					"comment_id": comment.ID,
					"entity":     entity.NormalizedText,
				}).Warnf("Skipping entity mention: %v", err)
				continue
			}

			mentions = append(mentions, models.MentionEvent{
				Entity:    entity,
				Sentiment: scores,
				Score:     comment.Score,
				Timestamp: comment.Timestamp,
				PostID:    discussion.ID,
				CommentID: comment.ID,
			})

			if !seen[entity.Key()] {
				seen[entity.Key()] = true
				distinct = append(distinct, entity)
			}
		}
	}

	discussion.Entities = distinct
	return mentions
}
