package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/azure/discussion-insights/internal/models"
)

// Fixture is the JSON layout read by LoadFixture
type Fixture struct {
	Name        string                         `json:"name"`
	Communities map[string][]FixtureDiscussion `json:"communities"`
}

// FixtureDiscussion is a post with its flat comment records
type FixtureDiscussion struct {
	ID        string              `json:"id"`
	Title     string              `json:"title"`
	URL       string              `json:"url"`
	Author    string              `json:"author"`
	Text      string              `json:"text"`
	Timestamp time.Time           `json:"timestamp"`
	Score     int                 `json:"score"`
	Comments  []models.RawComment `json:"comments"`
}

// StaticSource serves discussions from memory. It backs offline runs and tests.
type StaticSource struct {
	name        string
	communities map[string][]FixtureDiscussion
	failures    map[string]error
}

// NewStaticSource creates a source that serves the given communities
func NewStaticSource(name string, communities map[string][]FixtureDiscussion) *StaticSource {
	if name == "" {
		name = "static"
	}
	return &StaticSource{
		name:        name,
		communities: communities,
		failures:    make(map[string]error),
	}
}

// LoadFixture reads a JSON fixture file into a StaticSource
func LoadFixture(path string) (*StaticSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}

	var fixture Fixture
	if err := json.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("failed to parse fixture %s: %w", path, err)
	}

	return NewStaticSource(fixture.Name, fixture.Communities), nil
}

// FailCommunity makes every fetch of community return err
func (s *StaticSource) FailCommunity(community string, err error) {
	s.failures[community] = err
}

// Communities lists the fixture's community names
func (s *StaticSource) Communities() []string {
	names := make([]string, 0, len(s.communities))
	for name := range s.communities {
		names = append(names, name)
	}
	return names
}

func (s *StaticSource) GetName() string {
	return s.name
}

func (s *StaticSource) IsEnabled() bool {
	return true
}

// FetchDiscussions applies the query filter and limits the way the live sources do
func (s *StaticSource) FetchDiscussions(ctx context.Context, req FetchRequest) ([]models.Discussion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := s.failures[req.Community]; ok {
		return nil, err
	}

	posts, ok := s.communities[req.Community]
	if !ok {
		return nil, fmt.Errorf("%s: unknown community %q", s.name, req.Community)
	}

	query := strings.ToLower(strings.TrimSpace(req.Query))
	var discussions []models.Discussion

	for _, post := range posts {
		if req.PostLimit > 0 && len(discussions) >= req.PostLimit {
			break
		}
		if query != "" && !strings.Contains(strings.ToLower(post.Title+" "+post.Text), query) {
			continue
		}

		var comments []models.RawComment
		for _, c := range post.Comments {
			if req.CommentLimit > 0 && len(comments) >= req.CommentLimit {
				break
			}
			if keepComment(c.Score, req.MinCommentScore) {
				comments = append(comments, c)
			}
		}

		discussions = append(discussions, models.Discussion{
			ID:           post.ID,
			Source:       req.Community,
			Title:        post.Title,
			URL:          post.URL,
			Author:       post.Author,
			Text:         post.Text,
			Timestamp:    post.Timestamp,
			Score:        post.Score,
			CommentCount: len(post.Comments),
			RawComments:  comments,
		})
	}

	return discussions, nil
}
