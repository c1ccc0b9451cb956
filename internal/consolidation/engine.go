package consolidation

import (
	"errors"
	"time"

	"github.com/azure/discussion-insights/internal/chains"
	"github.com/azure/discussion-insights/internal/models"
	"github.com/azure/discussion-insights/internal/sentiment"
	"github.com/azure/discussion-insights/internal/tree"
	"github.com/sirupsen/logrus"
)

// ErrNoData is returned when no source produced a result
var ErrNoData = errors.New("no data for this request")

// Engine merges per-source results into one consolidated result
type Engine struct {
	// RecomputeMergedSentiment re-weights a merged chain's average over its full
	// cross-source trend instead of keeping the first source's average.
	RecomputeMergedSentiment bool

	now func() time.Time
}

// NewEngine creates a consolidation engine
func NewEngine(recompute bool) *Engine {
	return &Engine{
		RecomputeMergedSentiment: recompute,
		now:                      time.Now,
	}
}

// Consolidate merges the results in the given order. Inputs are not modified.
func (e *Engine) Consolidate(query string, results []models.SourceResult, failures []models.SourceFailure) (*models.ConsolidatedResult, error) {
	if len(results) == 0 {
		return nil, ErrNoData
	}

	now := time.Now
	if e.now != nil {
		now = e.now
	}

	consolidated := &models.ConsolidatedResult{
		Query:         query,
		GeneratedAt:   now(),
		FailedSources: failures,
	}

	for _, result := range results {
		for _, d := range result.Discussions {
			d.Source = result.Source
			consolidated.Discussions = append(consolidated.Discussions, d)
		}
		consolidated.Sources = append(consolidated.Sources, models.SourceSummary{
			Source:      result.Source,
			Discussions: len(result.Discussions),
			Comments:    result.CommentCount,
			Sentiment:   result.Sentiment,
		})
	}

	consolidated.Sentiment = sentiment.WeightedAverage(tree.FlattenDiscussions(consolidated.Discussions)).Labeled()
	consolidated.EntityChains = e.MergeChains(results)
	consolidated.Summary = Summarize(consolidated.EntityChains)

	logrus.WithFields(logrus.Fields{
		"query":          query,
		"sources":        len(results),
		"failed_sources": len(failures),
		"discussions":    len(consolidated.Discussions),
		"entity_chains":  len(consolidated.EntityChains),
	}).Info("Consolidated source results")

	return consolidated, nil
}

// MergeChains re-keys chains across all results by (type, normalized text). Mentions and
// scores are summed and trends concatenated in result order.
func (e *Engine) MergeChains(results []models.SourceResult) []models.EntityChain {
	index := make(map[models.EntityKey]int)
	var merged []models.EntityChain

	for _, result := range results {
		for _, chain := range result.EntityChains {
			key := chain.Key()
			i, ok := index[key]
			if !ok {
				index[key] = len(merged)
				fresh := chain
				fresh.SentimentTrend = append([]models.TrendPoint(nil), chain.SentimentTrend...)
				fresh.Sources = nil
				merged = append(merged, fresh)
				i = len(merged) - 1
			} else {
				target := &merged[i]
				target.TotalMentions += chain.TotalMentions
				target.TotalScore += chain.TotalScore
				target.SentimentTrend = append(target.SentimentTrend, chain.SentimentTrend...)
			}
			merged[i].Sources = appendSources(merged[i].Sources, chain.Sources, result.Source)
		}
	}

	for i := range merged {
		merged[i].UniquePosts = chains.UniquePosts(merged[i].SentimentTrend)
		if e.RecomputeMergedSentiment {
			merged[i].AverageSentiment = chains.AverageSentiment(merged[i].SentimentTrend)
		}
	}

	chains.SortByTotalScore(merged)
	return merged
}

// Summarize recomputes entity counters from a merged chain list
func Summarize(merged []models.EntityChain) models.EntitySummary {
	summary := models.EntitySummary{
		TotalEntities: len(merged),
		ByType:        make(map[models.EntityType]int),
	}
	for _, c := range merged {
		summary.TotalMentions += c.TotalMentions
		summary.TotalScore += c.TotalScore
		summary.ByType[c.Type]++
	}
	return summary
}

func appendSources(have, from []string, fallback string) []string {
	if len(from) == 0 && fallback != "" {
		from = []string{fallback}
	}
	for _, s := range from {
		found := false
		for _, h := range have {
			if h == s {
				found = true
				break
			}
		}
		if !found {
			have = append(have, s)
		}
	}
	return have
}
