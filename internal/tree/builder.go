package tree

import (
	"strings"

	"github.com/azure/discussion-insights/internal/models"
	"github.com/sirupsen/logrus"
)

// Reddit fullname prefixes for links (posts) and comments
const (
	RedditDiscussionPrefix = "t3_"
	RedditCommentPrefix    = "t1_"
)

// Builder rebuilds reply trees from flat comment records
type Builder struct {
	// DiscussionPrefix marks a parent reference that points at the discussion itself.
	DiscussionPrefix string
	// CommentPrefix is stripped from a parent reference to get the parent comment id.
	CommentPrefix string
}

// NewRedditBuilder creates a builder for Reddit parent references
func NewRedditBuilder() *Builder {
	return &Builder{
		DiscussionPrefix: RedditDiscussionPrefix,
		CommentPrefix:    RedditCommentPrefix,
	}
}

const noParent = -1

// Build links raw comments into reply trees and returns the roots in input order.
// Comments whose parent is the discussion, absent, or not in the input become roots.
// Every input record appears exactly once in the result.
func (b *Builder) Build(raw []models.RawComment) []*models.Comment {
	if len(raw) == 0 {
		return nil
	}

	nodes := make([]*models.Comment, len(raw))
	index := make(map[string]int, len(raw))
	for i, rc := range raw {
		nodes[i] = &models.Comment{
			ID:        rc.ID,
			Text:      rc.Text,
			Author:    rc.Author,
			Score:     rc.Score,
			Timestamp: rc.Timestamp,
			ParentRef: rc.ParentID,
		}
		if _, exists := index[rc.ID]; !exists {
			index[rc.ID] = i
		}
	}

	parents := make([]int, len(raw))
	orphans := 0
	for i, rc := range raw {
		parents[i] = b.resolveParent(rc, i, index)
		if parents[i] == noParent && b.isOrphan(rc) {
			orphans++
		}
	}

	breakCycles(parents)

	var roots []*models.Comment
	for i, node := range nodes {
		if p := parents[i]; p != noParent {
			nodes[p].Replies = append(nodes[p].Replies, node)
			continue
		}
		roots = append(roots, node)
	}

	Walk(roots, func(c *models.Comment) bool {
		for _, reply := range c.Replies {
			reply.Depth = c.Depth + 1
		}
		return true
	})

	if orphans > 0 {
		logrus.Debugf("Promoted %d orphaned comments to root", orphans)
	}

	return roots
}

func (b *Builder) resolveParent(rc models.RawComment, self int, index map[string]int) int {
	ref := strings.TrimSpace(rc.ParentID)
	if ref == "" {
		return noParent
	}
	if b.DiscussionPrefix != "" && strings.HasPrefix(ref, b.DiscussionPrefix) {
		return noParent
	}

	candidate := strings.TrimPrefix(ref, b.CommentPrefix)
	p, ok := index[candidate]
	if !ok || p == self {
		return noParent
	}
	return p
}

// isOrphan reports whether the record referenced a parent comment that could not be linked
func (b *Builder) isOrphan(rc models.RawComment) bool {
	ref := strings.TrimSpace(rc.ParentID)
	if ref == "" {
		return false
	}
	return b.DiscussionPrefix == "" || !strings.HasPrefix(ref, b.DiscussionPrefix)
}

// breakCycles detaches the node where a parent cycle closes, making it a root.
func breakCycles(parents []int) {
	const (
		unvisited = iota
		inProgress
		done
	)
	state := make([]int, len(parents))

	for start := range parents {
		if state[start] != unvisited {
			continue
		}

		var path []int
		node := start
		for node != noParent && state[node] == unvisited {
			state[node] = inProgress
			path = append(path, node)
			next := parents[node]
			if next != noParent && state[next] == inProgress {
				parents[node] = noParent
				break
			}
			node = next
		}

		for _, n := range path {
			state[n] = done
		}
	}
}
