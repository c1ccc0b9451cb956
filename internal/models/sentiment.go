package models

// Sentiment labels derived from a compound score
const (
	LabelPositive = "positive"
	LabelNegative = "negative"
	LabelNeutral  = "neutral"
)

// Compound thresholds for classification; both bounds are inclusive.
const (
	PositiveThreshold = 0.05
	NegativeThreshold = -0.05
)

// SentimentScores is the polarity vector produced by a scorer
type SentimentScores struct {
	Compound float64 `json:"compound"`
	Positive float64 `json:"pos"`
	Neutral  float64 `json:"neu"`
	Negative float64 `json:"neg"`
}

// Label classifies the scores by their compound value
func (s SentimentScores) Label() string {
	return LabelFor(s.Compound)
}

// Labeled attaches the derived label
func (s SentimentScores) Labeled() LabeledSentiment {
	return LabeledSentiment{SentimentScores: s, Label: s.Label()}
}

// LabelFor maps a compound score to a label
func LabelFor(compound float64) string {
	switch {
	case compound >= PositiveThreshold:
		return LabelPositive
	case compound <= NegativeThreshold:
		return LabelNegative
	default:
		return LabelNeutral
	}
}

// LabeledSentiment is an aggregate score vector with its label
type LabeledSentiment struct {
	SentimentScores
	Label string `json:"label"`
}

// NeutralSentiment is the zero vector labelled neutral
func NeutralSentiment() LabeledSentiment {
	return LabeledSentiment{Label: LabelNeutral}
}

// SentimentAnalysis is the per-comment sentiment result
type SentimentAnalysis struct {
	Original SentimentScores `json:"original"`
	Overall  SentimentScores `json:"overall"`
	Label    string          `json:"label"`
}
