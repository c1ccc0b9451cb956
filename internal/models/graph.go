package models

// Graph node types
const (
	NodeQuery      = "query"
	NodeSource     = "source"
	NodeDiscussion = "discussion"
	NodeComment    = "comment"
	NodeEntity     = "entity"
)

// Graph link types
const (
	LinkContains = "contains"
	LinkReply    = "reply"
	LinkMentions = "mentions"
)

// Graph is a hierarchical node/link structure for visualization
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Links []GraphLink `json:"links"`
}

// GraphNode is one vertex of the graph
type GraphNode struct {
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	Type      string   `json:"type"`
	Group     string   `json:"group,omitempty"`
	Value     int      `json:"value"`
	Compound  *float64 `json:"compound,omitempty"`
	Sentiment string   `json:"sentiment,omitempty"`
}

// GraphLink is one directed edge of the graph
type GraphLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
	Weight int    `json:"weight"`
}
