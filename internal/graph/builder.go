package graph

import (
	"fmt"

	"github.com/azure/discussion-insights/internal/models"
)

// Options bounds the size of a built graph
type Options struct {
	// MaxEntities keeps only the highest ranked chains. Zero keeps all.
	MaxEntities int
	// MaxCommentsPerDiscussion caps comment nodes per discussion. Zero keeps all.
	MaxCommentsPerDiscussion int
	IncludeComments          bool
}

type builder struct {
	opts  Options
	graph *models.Graph
	seen  map[string]int
}

// Build turns a consolidated result into query, source, discussion and comment nodes
// linked along the hierarchy, plus entity nodes linked to the discussions that
// mention them. Node ids are prefixed with their type and unique.
func Build(result *models.ConsolidatedResult, opts Options) *models.Graph {
	b := &builder{
		opts:  opts,
		graph: &models.Graph{Nodes: []models.GraphNode{}, Links: []models.GraphLink{}},
		seen:  make(map[string]int),
	}
	if result == nil {
		return b.graph
	}

	rootID := b.addNode(models.GraphNode{
		ID:        "query:" + result.Query,
		Label:     queryLabel(result.Query),
		Type:      models.NodeQuery,
		Value:     len(result.Discussions),
		Compound:  compound(result.Sentiment.SentimentScores),
		Sentiment: result.Sentiment.Label,
	})

	sourceIDs := make(map[string]string)
	for _, src := range result.Sources {
		id := b.addNode(models.GraphNode{
			ID:        "source:" + src.Source,
			Label:     src.Source,
			Type:      models.NodeSource,
			Group:     src.Source,
			Value:     src.Comments,
			Compound:  compound(src.Sentiment.SentimentScores),
			Sentiment: src.Sentiment.Label,
		})
		sourceIDs[src.Source] = id
		b.link(rootID, id, models.LinkContains, src.Discussions)
	}

	discussionIDs := make(map[string]string)
	for _, d := range result.Discussions {
		parent, ok := sourceIDs[d.Source]
		if !ok {
			parent = b.addNode(models.GraphNode{
				ID:    "source:" + d.Source,
				Label: d.Source,
				Type:  models.NodeSource,
				Group: d.Source,
			})
			sourceIDs[d.Source] = parent
			b.link(rootID, parent, models.LinkContains, 0)
		}

		node := models.GraphNode{
			ID:    fmt.Sprintf("discussion:%s/%s", d.Source, d.ID),
			Label: d.Title,
			Type:  models.NodeDiscussion,
			Group: d.Source,
			Value: d.Score,
		}
		if d.Sentiment != nil {
			node.Compound = compound(d.Sentiment.SentimentScores)
			node.Sentiment = d.Sentiment.Label
		}
		id := b.addNode(node)
		if _, dup := discussionIDs[postKey(d.Source, d.ID)]; !dup {
			discussionIDs[postKey(d.Source, d.ID)] = id
		}
		b.link(parent, id, models.LinkContains, d.Score)

		if opts.IncludeComments {
			count := 0
			b.addComments(id, d.Source, d.Comments, &count)
		}
	}

	for i, chain := range result.EntityChains {
		if opts.MaxEntities > 0 && i >= opts.MaxEntities {
			break
		}
		id := b.addNode(models.GraphNode{
			ID:        fmt.Sprintf("entity:%s:%s", chain.Type, chain.NormalizedText),
			Label:     chain.Text,
			Type:      models.NodeEntity,
			Group:     string(chain.Type),
			Value:     chain.TotalScore,
			Compound:  compound(chain.AverageSentiment.SentimentScores),
			Sentiment: chain.AverageSentiment.Label,
		})

		// one link per discussion, weighted by the summed mention score
		weights := make(map[string]int)
		var order []string
		for _, p := range chain.SentimentTrend {
			target, ok := discussionIDs[postKey(p.Source, p.PostID)]
			if !ok {
				continue
			}
			if _, seen := weights[target]; !seen {
				order = append(order, target)
			}
			weights[target] += p.Score
		}
		for _, target := range order {
			b.link(target, id, models.LinkMentions, weights[target])
		}
	}

	return b.graph
}

func (b *builder) addComments(parentID, source string, comments []*models.Comment, count *int) {
	for _, c := range comments {
		if c == nil {
			continue
		}
		if b.opts.MaxCommentsPerDiscussion > 0 && *count >= b.opts.MaxCommentsPerDiscussion {
			return
		}
		*count++

		node := models.GraphNode{
			ID:    fmt.Sprintf("comment:%s/%s", source, c.ID),
			Label: c.Author,
			Type:  models.NodeComment,
			Group: source,
			Value: c.Score,
		}
		if c.Sentiment != nil {
			node.Compound = compound(c.Sentiment.Overall)
			node.Sentiment = c.Sentiment.Label
		}
		id := b.addNode(node)

		linkType := models.LinkReply
		if c.Depth == 0 {
			linkType = models.LinkContains
		}
		b.link(parentID, id, linkType, c.Score)
		b.addComments(id, source, c.Replies, count)
	}
}

// addNode appends the node, suffixing its id when it is already taken
func (b *builder) addNode(node models.GraphNode) string {
	base := node.ID
	if n, ok := b.seen[base]; ok {
		for {
			n++
			candidate := fmt.Sprintf("%s#%d", base, n)
			if _, taken := b.seen[candidate]; !taken {
				b.seen[base] = n
				node.ID = candidate
				break
			}
		}
	}
	b.seen[node.ID] = 0
	b.graph.Nodes = append(b.graph.Nodes, node)
	return node.ID
}

func (b *builder) link(source, target, linkType string, weight int) {
	b.graph.Links = append(b.graph.Links, models.GraphLink{
		Source: source,
		Target: target,
		Type:   linkType,
		Weight: weight,
	})
}

func postKey(source, id string) string {
	return source + "\x00" + id
}

func compound(s models.SentimentScores) *float64 {
	v := s.Compound
	return &v
}

func queryLabel(query string) string {
	if query == "" {
		return "all discussions"
	}
	return query
}
