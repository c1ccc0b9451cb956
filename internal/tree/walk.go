package tree

import "github.com/azure/discussion-insights/internal/models"

// Walk visits every comment depth-first in pre-order.
// Returning false from fn skips that comment's replies.
func Walk(roots []*models.Comment, fn func(*models.Comment) bool) {
	stack := make([]*models.Comment, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, roots[i])
	}

	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if c == nil || !fn(c) {
			continue
		}
		for i := len(c.Replies) - 1; i >= 0; i-- {
			stack = append(stack, c.Replies[i])
		}
	}
}

// Flatten returns every comment of the trees, parents before their replies
func Flatten(roots []*models.Comment) []*models.Comment {
	var out []*models.Comment
	Walk(roots, func(c *models.Comment) bool {
		out = append(out, c)
		return true
	})
	return out
}

// Count returns the number of comments in the trees
func Count(roots []*models.Comment) int {
	n := 0
	Walk(roots, func(*models.Comment) bool {
		n++
		return true
	})
	return n
}

// FlattenDiscussions returns every comment across the discussions, in discussion order
func FlattenDiscussions(discussions []models.Discussion) []*models.Comment {
	var out []*models.Comment
	for i := range discussions {
		out = append(out, Flatten(discussions[i].Comments)...)
	}
	return out
}
