package models

import "time"

// RawComment is a comment as delivered by a source, before the reply tree is rebuilt.
// ParentID is the source's opaque parent reference (for Reddit "t3_<post>" or "t1_<comment>").
type RawComment struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	Score     int       `json:"score"`
	Timestamp time.Time `json:"timestamp"`
	ParentID  string    `json:"parent_id,omitempty"`
}

// Comment is one node of a rebuilt reply tree
type Comment struct {
	ID        string             `json:"id"`
	Text      string             `json:"text"`
	Author    string             `json:"author"`
	Score     int                `json:"score"`
	Timestamp time.Time          `json:"timestamp"`
	Depth     int                `json:"depth"`
	Replies   []*Comment         `json:"replies"`
	Sentiment *SentimentAnalysis `json:"sentiment,omitempty"`
	Entities  []Entity           `json:"entities,omitempty"`

	// ParentRef keeps the raw parent reference for debugging only.
	ParentRef string `json:"-"`
}

// Discussion is one source post together with its comment tree
type Discussion struct {
	ID           string            `json:"id"`
	Source       string            `json:"source"`
	Title        string            `json:"title"`
	URL          string            `json:"url"`
	Author       string            `json:"author,omitempty"`
	Text         string            `json:"text,omitempty"`
	Timestamp    time.Time         `json:"timestamp"`
	Score        int               `json:"score"`
	CommentCount int               `json:"comment_count"`
	RawComments  []RawComment      `json:"-"`
	Comments     []*Comment        `json:"comments"`
	Sentiment    *LabeledSentiment `json:"sentiment,omitempty"`
	Entities     []Entity          `json:"entities,omitempty"`
	EntityChains []EntityChain     `json:"entity_chains,omitempty"`
}

// SourceResult is the output of one source's pipeline run
type SourceResult struct {
	Source       string           `json:"source"`
	Discussions  []Discussion     `json:"discussions"`
	EntityChains []EntityChain    `json:"entity_chains"`
	Sentiment    LabeledSentiment `json:"sentiment"`
	CommentCount int              `json:"comment_count"`
	FetchedAt    time.Time        `json:"fetched_at"`
	Duration     string           `json:"duration"`
}

// SourceFailure records a source that could not be processed
type SourceFailure struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// SourceSummary is the per-source breakdown carried by a consolidated result
type SourceSummary struct {
	Source      string           `json:"source"`
	Discussions int              `json:"discussions"`
	Comments    int              `json:"comments"`
	Sentiment   LabeledSentiment `json:"sentiment"`
}

// EntitySummary holds counters recomputed from a merged chain list
type EntitySummary struct {
	TotalEntities int                `json:"total_entities"`
	TotalMentions int                `json:"total_mentions"`
	TotalScore    int                `json:"total_score"`
	ByType        map[EntityType]int `json:"by_type"`
}

// ConsolidatedResult merges every successful source of one query
type ConsolidatedResult struct {
	Query         string           `json:"query"`
	GeneratedAt   time.Time        `json:"generated_at"`
	Discussions   []Discussion     `json:"discussions"`
	Sentiment     LabeledSentiment `json:"sentiment"`
	EntityChains  []EntityChain    `json:"entity_chains"`
	Summary       EntitySummary    `json:"summary"`
	Sources       []SourceSummary  `json:"sources"`
	FailedSources []SourceFailure  `json:"failed_sources,omitempty"`
}

// Report represents a periodic analysis report
type Report struct {
	GeneratedAt   time.Time        `json:"generated_at"`
	Query         string           `json:"query"`
	Discussions   int              `json:"discussions"`
	Comments      int              `json:"comments"`
	Sentiment     LabeledSentiment `json:"sentiment"`
	Sources       []SourceSummary  `json:"sources"`
	TopEntities   []EntityChain    `json:"top_entities"`
	Summary       EntitySummary    `json:"summary"`
	FailedSources []SourceFailure  `json:"failed_sources,omitempty"`
}

// Alert represents an urgent notification
type Alert struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"` // "critical", "warning", "info"
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
