package sources

import (
	"context"

	"github.com/azure/discussion-insights/internal/models"
)

// FetchRequest describes one community to pull discussions from
type FetchRequest struct {
	Community       string
	Query           string
	PostLimit       int
	CommentLimit    int
	MinCommentScore int
}

// Source interface defines the contract for all discussion sources
type Source interface {
	GetName() string
	// FetchDiscussions returns posts with their flat RawComments populated.
	// Comment trees are rebuilt downstream.
	FetchDiscussions(ctx context.Context, req FetchRequest) ([]models.Discussion, error)
	IsEnabled() bool
}

// keepComment applies the minimum score threshold. A zero threshold keeps everything.
func keepComment(score, minScore int) bool {
	return minScore == 0 || score >= minScore
}
