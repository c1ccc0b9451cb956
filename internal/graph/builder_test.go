package graph

import (
	"testing"

	"github.com/azure/discussion-insights/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *models.ConsolidatedResult {
	reply := &models.Comment{ID: "c2", Author: "bob", Score: 3, Depth: 1}
	root := &models.Comment{
		ID:        "c1",
		Author:    "alice",
		Score:     10,
		Replies:   []*models.Comment{reply},
		Sentiment: &models.SentimentAnalysis{Overall: models.SentimentScores{Compound: 0.5}, Label: models.LabelPositive},
	}
	second := models.LabeledSentiment{SentimentScores: models.SentimentScores{Compound: -0.3}, Label: models.LabelNegative}

	return &models.ConsolidatedResult{
		Query:     "openai",
		Sentiment: models.SentimentScores{Compound: 0.2}.Labeled(),
		Sources: []models.SourceSummary{
			{Source: "technology", Discussions: 2, Comments: 3},
		},
		Discussions: []models.Discussion{
			{ID: "p1", Source: "technology", Title: "First", Score: 100, Comments: []*models.Comment{root}},
			{ID: "p2", Source: "technology", Title: "Second", Score: 5, Sentiment: &second,
				Comments: []*models.Comment{{ID: "c1", Author: "carol", Score: 1}}},
		},
		EntityChains: []models.EntityChain{
			{
				Text:           "OpenAI",
				NormalizedText: "openai",
				Type:           models.EntityOrganization,
				TotalScore:     14,
				SentimentTrend: []models.TrendPoint{
					{PostID: "p1", Source: "technology", Score: 10},
					{PostID: "p1", Source: "technology", Score: 3},
					{PostID: "p2", Source: "technology", Score: 1},
				},
			},
			{
				Text:           "Berlin",
				NormalizedText: "berlin",
				Type:           models.EntityLocation,
				TotalScore:     2,
				SentimentTrend: []models.TrendPoint{{PostID: "p9", Source: "technology", Score: 2}},
			},
		},
	}
}

func nodeByID(g *models.Graph, id string) *models.GraphNode {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

func linksOfType(g *models.Graph, linkType string) []models.GraphLink {
	var out []models.GraphLink
	for _, l := range g.Links {
		if l.Type == linkType {
			out = append(out, l)
		}
	}
	return out
}

func TestBuild_Hierarchy(t *testing.T) {
	g := Build(sampleResult(), Options{IncludeComments: true})

	root := nodeByID(g, "query:openai")
	require.NotNil(t, root)
	assert.Equal(t, models.NodeQuery, root.Type)
	assert.Equal(t, 2, root.Value)

	require.NotNil(t, nodeByID(g, "source:technology"))

	first := nodeByID(g, "discussion:technology/p1")
	require.NotNil(t, first)
	assert.Equal(t, 100, first.Value)
	assert.Nil(t, first.Compound)

	second := nodeByID(g, "discussion:technology/p2")
	require.NotNil(t, second)
	require.NotNil(t, second.Compound)
	assert.Equal(t, -0.3, *second.Compound)
	assert.Equal(t, models.LabelNegative, second.Sentiment)

	comment := nodeByID(g, "comment:technology/c1")
	require.NotNil(t, comment)
	assert.Equal(t, models.LabelPositive, comment.Sentiment)

	assert.Contains(t, g.Links, models.GraphLink{Source: "discussion:technology/p1", Target: "comment:technology/c1", Type: models.LinkContains, Weight: 10})
	assert.Contains(t, g.Links, models.GraphLink{Source: "comment:technology/c1", Target: "comment:technology/c2", Type: models.LinkReply, Weight: 3})
	assert.Contains(t, g.Links, models.GraphLink{Source: "query:openai", Target: "source:technology", Type: models.LinkContains, Weight: 2})
}

func TestBuild_UniqueNodeIDs(t *testing.T) {
	g := Build(sampleResult(), Options{IncludeComments: true})

	ids := make(map[string]bool)
	for _, n := range g.Nodes {
		assert.False(t, ids[n.ID], "duplicate node id %s", n.ID)
		ids[n.ID] = true
	}
	// c1 appears in both discussions
	assert.True(t, ids["comment:technology/c1#1"])

	for _, l := range g.Links {
		assert.True(t, ids[l.Source], "dangling link source %s", l.Source)
		assert.True(t, ids[l.Target], "dangling link target %s", l.Target)
	}
}

func TestBuild_MentionWeights(t *testing.T) {
	g := Build(sampleResult(), Options{})

	mentions := linksOfType(g, models.LinkMentions)
	require.Len(t, mentions, 2)
	assert.Equal(t, models.GraphLink{Source: "discussion:technology/p1", Target: "entity:ORGANIZATION:openai", Type: models.LinkMentions, Weight: 13}, mentions[0])
	assert.Equal(t, 1, mentions[1].Weight)

	// a chain whose posts are not in the result still gets a node
	berlin := nodeByID(g, "entity:LOCATION:berlin")
	require.NotNil(t, berlin)
	assert.Equal(t, "Berlin", berlin.Label)
	assert.Equal(t, 2, berlin.Value)
}

func TestBuild_Limits(t *testing.T) {
	tests := []struct {
		name         string
		opts         Options
		wantEntities int
		wantComments int
	}{
		{name: "no comments", opts: Options{}, wantEntities: 2, wantComments: 0},
		{name: "all comments", opts: Options{IncludeComments: true}, wantEntities: 2, wantComments: 3},
		{name: "comment cap", opts: Options{IncludeComments: true, MaxCommentsPerDiscussion: 1}, wantEntities: 2, wantComments: 2},
		{name: "entity cap", opts: Options{MaxEntities: 1}, wantEntities: 1, wantComments: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := Build(sampleResult(), tt.opts)

			counts := make(map[string]int)
			for _, n := range g.Nodes {
				counts[n.Type]++
			}
			assert.Equal(t, tt.wantEntities, counts[models.NodeEntity])
			assert.Equal(t, tt.wantComments, counts[models.NodeComment])
		})
	}
}

func TestBuild_NilAndEmptyQuery(t *testing.T) {
	empty := Build(nil, Options{})
	assert.Empty(t, empty.Nodes)
	assert.NotNil(t, empty.Links)

	g := Build(&models.ConsolidatedResult{}, Options{})
	require.Len(t, g.Nodes, 1)
	assert.Equal(t, "all discussions", g.Nodes[0].Label)
}
