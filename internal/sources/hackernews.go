package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/azure/discussion-insights/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

const (
	hackerNewsAPIURL = "https://hacker-news.firebaseio.com/v0"

	// stories inspected per list when filtering by query
	hackerNewsScanLimit = 500
)

var hackerNewsLists = map[string]bool{
	"top": true, "new": true, "best": true, "ask": true, "show": true,
}

// HackerNewsSource implements Hacker News API source. Communities are story lists
// ("top", "new", "best", "ask", "show").
type HackerNewsSource struct {
	client *resty.Client
	apiURL string
}

type hackerNewsItem struct {
	ID          int    `json:"id"`
	Type        string `json:"type"`
	By          string `json:"by"`
	Time        int64  `json:"time"`
	Text        string `json:"text"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Score       int    `json:"score"`
	Descendants int    `json:"descendants"`
	Parent      int    `json:"parent"`
	Kids        []int  `json:"kids"`
	Deleted     bool   `json:"deleted"`
	Dead        bool   `json:"dead"`
}

// NewHackerNewsSource creates a new Hacker News source
func NewHackerNewsSource() *HackerNewsSource {
	return &HackerNewsSource{
		client: resty.New().
			SetTimeout(30 * time.Second).
			SetHeader("User-Agent", defaultRedditUserAgent),
		apiURL: hackerNewsAPIURL,
	}
}

// WithBaseURL points the source at a different API root
func (h *HackerNewsSource) WithBaseURL(apiURL string) *HackerNewsSource {
	h.apiURL = strings.TrimSuffix(apiURL, "/")
	return h
}

func (h *HackerNewsSource) GetName() string {
	return "hackernews"
}

func (h *HackerNewsSource) IsEnabled() bool {
	return true // Hacker News API doesn't require authentication
}

// FetchDiscussions reads a story list and keeps stories whose title or text contains the
// query. Comments are collected breadth first up to the comment limit. Hacker News does
// not expose comment scores, so every comment weighs zero.
func (h *HackerNewsSource) FetchDiscussions(ctx context.Context, req FetchRequest) ([]models.Discussion, error) {
	list := strings.ToLower(req.Community)
	if list == "" {
		list = "top"
	}
	if !hackerNewsLists[list] {
		return nil, fmt.Errorf("hackernews: unknown story list %q", req.Community)
	}

	itemIDs, err := h.getStoryIDs(ctx, list)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s stories: %w", list, err)
	}
	if len(itemIDs) > hackerNewsScanLimit {
		itemIDs = itemIDs[:hackerNewsScanLimit]
	}

	query := strings.ToLower(strings.TrimSpace(req.Query))
	var discussions []models.Discussion

	for _, itemID := range itemIDs {
		if req.PostLimit > 0 && len(discussions) >= req.PostLimit {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		item, err := h.getItem(ctx, itemID)
		if err != nil {
			logrus.Debugf("Failed to get HN item %d: %v", itemID, err)
			continue
		}
		if item == nil || item.Deleted || item.Dead || item.Type != "story" {
			continue
		}

		text := htmlText(item.Text)
		content := strings.ToLower(item.Title + " " + text)
		if query != "" && !strings.Contains(content, query) {
			continue
		}

		discussion := models.Discussion{
			ID:           strconv.Itoa(item.ID),
			Source:       list,
			Title:        item.Title,
			URL:          fmt.Sprintf("https://news.ycombinator.com/item?id=%d", item.ID),
			Author:       item.By,
			Text:         text,
			Timestamp:    time.Unix(item.Time, 0).UTC(),
			Score:        item.Score,
			CommentCount: item.Descendants,
		}

		comments, err := h.getComments(ctx, item, req)
		if err != nil {
			return nil, err
		}
		discussion.RawComments = comments
		discussions = append(discussions, discussion)
	}

	logrus.WithFields(logrus.Fields{
		"list":        list,
		"query":       req.Query,
		"discussions": len(discussions),
	}).Info("Fetched discussions from Hacker News")

	return discussions, nil
}

// getComments walks the kids of a story. Top-level comments get an empty parent
// reference; replies reference their parent comment id.
func (h *HackerNewsSource) getComments(ctx context.Context, story *hackerNewsItem, req FetchRequest) ([]models.RawComment, error) {
	var out []models.RawComment
	queue := append([]int(nil), story.Kids...)

	for len(queue) > 0 {
		if req.CommentLimit > 0 && len(out) >= req.CommentLimit {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		id := queue[0]
		queue = queue[1:]

		item, err := h.getItem(ctx, id)
		if err != nil {
			logrus.Debugf("Failed to get HN comment %d: %v", id, err)
			continue
		}
		if item == nil || item.Type != "comment" {
			continue
		}
		queue = append(queue, item.Kids...)
		if item.Deleted || item.Dead {
			continue
		}

		parent := ""
		if item.Parent != story.ID {
			parent = strconv.Itoa(item.Parent)
		}
		out = append(out, models.RawComment{
			ID:        strconv.Itoa(item.ID),
			Text:      htmlText(item.Text),
			Author:    item.By,
			Timestamp: time.Unix(item.Time, 0).UTC(),
			ParentID:  parent,
		})
	}

	return out, nil
}

func (h *HackerNewsSource) getStoryIDs(ctx context.Context, list string) ([]int, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		Get(fmt.Sprintf("%s/%sstories.json", h.apiURL, list))

	if err != nil {
		return nil, err
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("hacker news API returned status %d", resp.StatusCode())
	}

	var itemIDs []int
	if err := json.Unmarshal(resp.Body(), &itemIDs); err != nil {
		return nil, err
	}

	return itemIDs, nil
}

func (h *HackerNewsSource) getItem(ctx context.Context, itemID int) (*hackerNewsItem, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		Get(fmt.Sprintf("%s/item/%d.json", h.apiURL, itemID))

	if err != nil {
		return nil, err
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("hacker news API returned status %d for item %d", resp.StatusCode(), itemID)
	}

	// missing items decode as JSON null
	var item *hackerNewsItem
	if err := json.Unmarshal(resp.Body(), &item); err != nil {
		return nil, err
	}

	return item, nil
}

// htmlText converts the HTML fragment the API returns for item text into plain
// text. Paragraphs become line breaks and entities are unescaped.
func htmlText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return fragment
	}

	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(sb.String())
		case html.TextToken:
			sb.Write(z.Text())
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if (string(name) == "p" || string(name) == "br") && sb.Len() > 0 {
				sb.WriteString("\n")
			}
		}
	}
}
