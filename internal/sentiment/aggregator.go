package sentiment

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/azure/discussion-insights/internal/models"
	"github.com/azure/discussion-insights/internal/tree"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const defaultWorkers = 8

// Analyzer computes per-comment sentiment and score-weighted roll-ups
type Analyzer struct {
	scorer  Scorer
	workers int
}

// NewAnalyzer creates an analyzer that scores up to workers comments concurrently
func NewAnalyzer(scorer Scorer, workers int) *Analyzer {
	if workers < 1 {
		workers = defaultWorkers
	}
	return &Analyzer{
		scorer:  scorer,
		workers: workers,
	}
}

// Label classifies a compound score
func Label(compound float64) string {
	return models.LabelFor(compound)
}

// ScoreText scores text, returning the zero vector for blank text without calling the scorer
func (a *Analyzer) ScoreText(ctx context.Context, text string) (models.SentimentScores, error) {
	if strings.TrimSpace(text) == "" {
		return models.SentimentScores{}, nil
	}
	return a.scorer.Score(ctx, text)
}

// ScoreComment scores one comment's text
func (a *Analyzer) ScoreComment(ctx context.Context, comment *models.Comment) (*models.SentimentAnalysis, error) {
	scores, err := a.ScoreText(ctx, comment.Text)
	if err != nil {
		return nil, err
	}
	return &models.SentimentAnalysis{
		Original: scores,
		Overall:  scores,
		Label:    scores.Label(),
	}, nil
}

// ScoreTree scores every comment in the trees, including nested replies.
// A comment whose scoring fails keeps a nil Sentiment and is counted in failed.
func (a *Analyzer) ScoreTree(ctx context.Context, roots []*models.Comment) (scored, failed int) {
	comments := tree.Flatten(roots)
	if len(comments) == 0 {
		return 0, 0
	}

	var okCount, errCount int64
	g := new(errgroup.Group)
	g.SetLimit(a.workers)

	for _, comment := range comments {
		if ctx.Err() != nil {
			atomic.AddInt64(&errCount, 1)
			continue
		}
		c := comment
		g.Go(func() error {
			analysis, err := a.ScoreComment(ctx, c)
			if err != nil {
				logrus.WithFields(logrus.Fields{
					"comment_id": c.ID,
				}).Warnf("Skipping sentiment for comment: %v", err)
				atomic.AddInt64(&errCount, 1)
				return nil
			}
			c.Sentiment = analysis
			atomic.AddInt64(&okCount, 1)
			return nil
		})
	}
	_ = g.Wait()

	return int(atomic.LoadInt64(&okCount)), int(atomic.LoadInt64(&errCount))
}

// ScoreDiscussion scores the discussion's tree and sets its aggregate sentiment
func (a *Analyzer) ScoreDiscussion(ctx context.Context, discussion *models.Discussion) (scored, failed int) {
	scored, failed = a.ScoreTree(ctx, discussion.Comments)
	agg := DiscussionSentiment(discussion)
	discussion.Sentiment = &agg
	return scored, failed
}

// WeightedAverage averages comment sentiment weighted by comment score.
// Only comments with a positive score carry weight; when none has one the result is
// the unweighted mean over all comments. Comments without sentiment are ignored.
func WeightedAverage(comments []*models.Comment) models.SentimentScores {
	var (
		weighted    models.SentimentScores
		unweighted  models.SentimentScores
		totalWeight float64
		counted     int
	)

	for _, c := range comments {
		if c == nil || c.Sentiment == nil {
			continue
		}
		s := c.Sentiment.Overall
		counted++
		unweighted = add(unweighted, s, 1)

		if c.Score > 0 {
			w := float64(c.Score)
			weighted = add(weighted, s, w)
			totalWeight += w
		}
	}

	if counted == 0 {
		return models.SentimentScores{}
	}
	if totalWeight > 0 {
		return divide(weighted, totalWeight)
	}
	return divide(unweighted, float64(counted))
}

// DiscussionSentiment aggregates every comment of the discussion's tree
func DiscussionSentiment(discussion *models.Discussion) models.LabeledSentiment {
	return WeightedAverage(tree.Flatten(discussion.Comments)).Labeled()
}

// SourceSentiment aggregates every comment across the discussions of one source
func SourceSentiment(discussions []models.Discussion) models.LabeledSentiment {
	return WeightedAverage(tree.FlattenDiscussions(discussions)).Labeled()
}

func add(acc, s models.SentimentScores, w float64) models.SentimentScores {
	acc.Compound += s.Compound * w
	acc.Positive += s.Positive * w
	acc.Neutral += s.Neutral * w
	acc.Negative += s.Negative * w
	return acc
}

func divide(s models.SentimentScores, d float64) models.SentimentScores {
	return models.SentimentScores{
		Compound: s.Compound / d,
		Positive: s.Positive / d,
		Neutral:  s.Neutral / d,
		Negative: s.Negative / d,
	}
}
