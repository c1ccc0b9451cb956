package chains

import (
	"sort"

	"github.com/azure/discussion-insights/internal/models"
)

// Build groups mention events by (type, normalized text) into entity chains ranked by
// total score. Trends keep event order and are never deduplicated. Display text is the
// first surface form seen for the entity.
func Build(mentions []models.MentionEvent, source string) []models.EntityChain {
	if len(mentions) == 0 {
		return nil
	}

	index := make(map[models.EntityKey]int)
	var chains []models.EntityChain

	for _, m := range mentions {
		key := m.Entity.Key()
		i, ok := index[key]
		if !ok {
			i = len(chains)
			index[key] = i
			chains = append(chains, models.EntityChain{
				Text:           m.Entity.Text,
				NormalizedText: m.Entity.NormalizedText,
				Type:           m.Entity.Type,
			})
			if source != "" {
				chains[i].Sources = []string{source}
			}
		}

		chain := &chains[i]
		chain.TotalMentions++
		chain.TotalScore += m.Score
		chain.SentimentTrend = append(chain.SentimentTrend, models.TrendPoint{
			Timestamp: m.Timestamp,
			Sentiment: m.Sentiment,
			Score:     m.Score,
			PostID:    m.PostID,
			CommentID: m.CommentID,
			Source:    source,
		})
	}

	for i := range chains {
		chains[i].UniquePosts = UniquePosts(chains[i].SentimentTrend)
		chains[i].AverageSentiment = AverageSentiment(chains[i].SentimentTrend)
	}

	SortByTotalScore(chains)
	return chains
}

// AverageSentiment is the score-weighted mean of the trend's sentiment. When the scores
// do not sum to a positive weight the result is neutral; there is no unweighted fallback.
func AverageSentiment(trend []models.TrendPoint) models.LabeledSentiment {
	total := 0
	for _, p := range trend {
		total += p.Score
	}
	if total <= 0 {
		return models.NeutralSentiment()
	}

	var acc models.SentimentScores
	sum := float64(total)
	for _, p := range trend {
		w := float64(p.Score) / sum
		acc.Compound += p.Sentiment.Compound * w
		acc.Positive += p.Sentiment.Positive * w
		acc.Neutral += p.Sentiment.Neutral * w
		acc.Negative += p.Sentiment.Negative * w
	}
	return acc.Labeled()
}

// UniquePosts counts the distinct discussions a trend was mentioned in
func UniquePosts(trend []models.TrendPoint) int {
	seen := make(map[string]struct{}, len(trend))
	for _, p := range trend {
		seen[p.Source+"\x00"+p.PostID] = struct{}{}
	}
	return len(seen)
}

// SortByTotalScore orders chains by descending total score, keeping first-seen order on ties
func SortByTotalScore(chains []models.EntityChain) {
	sort.SliceStable(chains, func(i, j int) bool {
		return chains[i].TotalScore > chains[j].TotalScore
	})
}

// ForDiscussion builds the chains of the mentions that belong to one discussion
func ForDiscussion(mentions []models.MentionEvent, discussionID, source string) []models.EntityChain {
	var own []models.MentionEvent
	for _, m := range mentions {
		if m.PostID == discussionID {
			own = append(own, m)
		}
	}
	return Build(own, source)
}
