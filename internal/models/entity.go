package models

import "time"

// EntityType is the kind of a named entity
type EntityType string

const (
	EntityPerson       EntityType = "PERSON"
	EntityOrganization EntityType = "ORGANIZATION"
	EntityLocation     EntityType = "LOCATION"
)

// IsSupported reports whether the type is one the pipeline tracks
func (t EntityType) IsSupported() bool {
	switch t {
	case EntityPerson, EntityOrganization, EntityLocation:
		return true
	}
	return false
}

// Entity is one entity mention inside a text. Offsets are rune offsets.
type Entity struct {
	Text           string     `json:"text"`
	NormalizedText string     `json:"normalized_text"`
	Type           EntityType `json:"type"`
	StartIndex     int        `json:"start_index"`
	EndIndex       int        `json:"end_index"`
	Confidence     float64    `json:"confidence"`
}

// Key returns the identity used to group mentions into chains
func (e Entity) Key() EntityKey {
	return EntityKey{Type: e.Type, NormalizedText: e.NormalizedText}
}

// EntityKey identifies an entity across comments and sources
type EntityKey struct {
	Type           EntityType
	NormalizedText string
}

func (k EntityKey) String() string {
	return string(k.Type) + ":" + k.NormalizedText
}

// MentionEvent is one occurrence of an entity in one comment
type MentionEvent struct {
	Entity    Entity          `json:"entity"`
	Sentiment SentimentScores `json:"sentiment"`
	Score     int             `json:"score"`
	Timestamp time.Time       `json:"timestamp"`
	PostID    string          `json:"post_id"`
	CommentID string          `json:"comment_id"`
}

// TrendPoint is one entry of a chain's sentiment history
type TrendPoint struct {
	Timestamp time.Time       `json:"timestamp"`
	Sentiment SentimentScores `json:"sentiment"`
	Score     int             `json:"score"`
	PostID    string          `json:"post_id"`
	CommentID string          `json:"comment_id,omitempty"`
	Source    string          `json:"source,omitempty"`
}

// EntityChain aggregates every mention of one entity.
// TotalMentions always equals len(SentimentTrend) and TotalScore the sum of its scores.
type EntityChain struct {
	Text             string           `json:"text"`
	NormalizedText   string           `json:"normalized_text"`
	Type             EntityType       `json:"type"`
	TotalMentions    int              `json:"total_mentions"`
	UniquePosts      int              `json:"unique_posts"`
	TotalScore       int              `json:"total_score"`
	AverageSentiment LabeledSentiment `json:"average_sentiment"`
	SentimentTrend   []TrendPoint     `json:"sentiment_trend"`
	Sources          []string         `json:"sources,omitempty"`
}

// Key returns the chain's identity
func (c EntityChain) Key() EntityKey {
	return EntityKey{Type: c.Type, NormalizedText: c.NormalizedText}
}
