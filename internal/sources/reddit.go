package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/azure/discussion-insights/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	redditAPIURL  = "https://oauth.reddit.com"
	redditAuthURL = "https://www.reddit.com/api/v1/access_token"

	defaultRedditUserAgent   = "discussion-insights/1.0"
	defaultRequestsPerMinute = 100
	maxRedditLimit           = 100
)

// RedditSource implements Reddit API source
type RedditSource struct {
	clientID     string
	clientSecret string
	userAgent    string
	apiURL       string
	authURL      string
	client       *resty.Client
	limiter      *rate.Limiter

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// RedditOption configures a RedditSource
type RedditOption func(*RedditSource)

// WithRedditBaseURLs points the source at different API and token endpoints
func WithRedditBaseURLs(apiURL, authURL string) RedditOption {
	return func(r *RedditSource) {
		r.apiURL = apiURL
		r.authURL = authURL
	}
}

// WithRedditUserAgent sets the User-Agent sent on every request
func WithRedditUserAgent(userAgent string) RedditOption {
	return func(r *RedditSource) {
		if userAgent != "" {
			r.userAgent = userAgent
		}
	}
}

// WithRequestsPerMinute paces requests to stay under Reddit's allocation
func WithRequestsPerMinute(rpm int) RedditOption {
	return func(r *RedditSource) {
		if rpm <= 0 {
			r.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		r.limiter = newRedditLimiter(rpm)
	}
}

type redditAuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type redditListing struct {
	Kind string `json:"kind"`
	Data struct {
		After    string        `json:"after"`
		Children []redditThing `json:"children"`
	} `json:"data"`
}

type redditThing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type redditPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Author      string  `json:"author"`
	Subreddit   string  `json:"subreddit"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
	Created     float64 `json:"created_utc"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
}

type redditComment struct {
	ID       string          `json:"id"`
	Body     string          `json:"body"`
	Author   string          `json:"author"`
	Score    int             `json:"score"`
	Created  float64         `json:"created_utc"`
	ParentID string          `json:"parent_id"`
	Replies  json.RawMessage `json:"replies"`
}

// NewRedditSource creates a new Reddit source
func NewRedditSource(clientID, clientSecret string, opts ...RedditOption) *RedditSource {
	r := &RedditSource{
		clientID:     clientID,
		clientSecret: clientSecret,
		userAgent:    defaultRedditUserAgent,
		apiURL:       redditAPIURL,
		authURL:      redditAuthURL,
		client:       resty.New().SetTimeout(30 * time.Second),
		limiter:      newRedditLimiter(defaultRequestsPerMinute),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// newRedditLimiter allows 95% of the per-minute allocation with no burst
func newRedditLimiter(rpm int) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(float64(rpm)/60.0*0.95), 1)
}

func (r *RedditSource) GetName() string {
	return "reddit"
}

func (r *RedditSource) IsEnabled() bool {
	return r.clientID != "" && r.clientSecret != ""
}

// FetchDiscussions searches one subreddit (or lists its hot posts when the query is
// empty) and loads the comment listing of every post found
func (r *RedditSource) FetchDiscussions(ctx context.Context, req FetchRequest) ([]models.Discussion, error) {
	if !r.IsEnabled() {
		return nil, fmt.Errorf("reddit source disabled: missing credentials")
	}
	if req.Community == "" {
		return nil, fmt.Errorf("reddit: subreddit is required")
	}

	if err := r.authenticate(ctx); err != nil {
		return nil, fmt.Errorf("reddit authentication failed: %w", err)
	}

	posts, err := r.fetchPosts(ctx, req)
	if err != nil {
		return nil, err
	}

	discussions := make([]models.Discussion, 0, len(posts))
	for _, post := range posts {
		discussion := models.Discussion{
			ID:           post.ID,
			Source:       req.Community,
			Title:        post.Title,
			URL:          fmt.Sprintf("https://reddit.com%s", post.Permalink),
			Author:       post.Author,
			Text:         post.Selftext,
			Timestamp:    time.Unix(int64(post.Created), 0).UTC(),
			Score:        post.Score,
			CommentCount: post.NumComments,
		}

		comments, err := r.fetchComments(ctx, req, post.ID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("reddit: fetching comments for %s: %w", post.ID, ctx.Err())
			}
			logrus.Errorf("Failed to fetch comments for post %s in r/%s: %v", post.ID, req.Community, err)
		}
		discussion.RawComments = comments
		discussions = append(discussions, discussion)
	}

	logrus.WithFields(logrus.Fields{
		"subreddit":   req.Community,
		"query":       req.Query,
		"discussions": len(discussions),
	}).Info("Fetched discussions from Reddit")

	return discussions, nil
}

func (r *RedditSource) authenticate(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.accessToken != "" && time.Now().Before(r.tokenExpiry) {
		return nil
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}

	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", r.userAgent).
		SetBasicAuth(r.clientID, r.clientSecret).
		SetFormData(map[string]string{
			"grant_type": "client_credentials",
		}).
		Post(r.authURL)

	if err != nil {
		return err
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode(), resp.String())
	}

	var authResp redditAuthResponse
	if err := json.Unmarshal(resp.Body(), &authResp); err != nil {
		return fmt.Errorf("failed to decode auth response: %w", err)
	}
	if authResp.AccessToken == "" {
		return fmt.Errorf("token endpoint returned no access token")
	}

	r.accessToken = authResp.AccessToken
	// refresh a minute early
	r.tokenExpiry = time.Now().Add(time.Duration(authResp.ExpiresIn)*time.Second - time.Minute)
	logrus.Debug("Authenticated with Reddit API")
	return nil
}

func (r *RedditSource) token() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accessToken
}

func (r *RedditSource) get(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := r.client.R().
		SetContext(ctx).
		SetAuthToken(r.token()).
		SetHeader("User-Agent", r.userAgent).
		SetQueryParams(params).
		Get(r.apiURL + path)

	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"path":      path,
		"used":      headerInt(resp.Header().Get("X-Ratelimit-Used")),
		"reset_sec": headerInt(resp.Header().Get("X-Ratelimit-Reset")),
	}).Debug("Reddit API request")

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("reddit API returned status %d", resp.StatusCode())
	}
	return resp.Body(), nil
}

func (r *RedditSource) fetchPosts(ctx context.Context, req FetchRequest) ([]redditPost, error) {
	params := map[string]string{
		"limit":    strconv.Itoa(clampLimit(req.PostLimit)),
		"raw_json": "1",
	}
	path := fmt.Sprintf("/r/%s/hot.json", req.Community)
	if req.Query != "" {
		path = fmt.Sprintf("/r/%s/search.json", req.Community)
		params["q"] = req.Query
		params["restrict_sr"] = "1"
		params["sort"] = "relevance"
	}

	body, err := r.get(ctx, path, params)
	if err != nil {
		return nil, fmt.Errorf("reddit: listing r/%s: %w", req.Community, err)
	}

	var listing redditListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("reddit: decoding listing for r/%s: %w", req.Community, err)
	}

	var posts []redditPost
	for _, child := range listing.Data.Children {
		if child.Kind != "t3" {
			continue
		}
		var post redditPost
		if err := json.Unmarshal(child.Data, &post); err != nil {
			logrus.Debugf("Skipping undecodable post in r/%s: %v", req.Community, err)
			continue
		}
		posts = append(posts, post)
		if req.PostLimit > 0 && len(posts) >= req.PostLimit {
			break
		}
	}
	return posts, nil
}

func (r *RedditSource) fetchComments(ctx context.Context, req FetchRequest, postID string) ([]models.RawComment, error) {
	params := map[string]string{
		"raw_json": "1",
		"sort":     "top",
	}
	if req.CommentLimit > 0 {
		params["limit"] = strconv.Itoa(req.CommentLimit)
	}

	body, err := r.get(ctx, fmt.Sprintf("/r/%s/comments/%s.json", req.Community, postID), params)
	if err != nil {
		return nil, err
	}

	// the response is [post listing, comment listing]
	var listings []redditListing
	if err := json.Unmarshal(body, &listings); err != nil {
		return nil, fmt.Errorf("decoding comments: %w", err)
	}
	if len(listings) < 2 {
		return nil, nil
	}

	return flattenComments(listings[1].Data.Children, req.MinCommentScore, req.CommentLimit), nil
}

// flattenComments walks a nested comment listing depth first. "more" stubs are skipped.
// Comments below minScore are dropped but their replies are kept, so those replies
// reference a parent that is no longer present.
func flattenComments(children []redditThing, minScore, limit int) []models.RawComment {
	var out []models.RawComment

	var walk func(things []redditThing)
	walk = func(things []redditThing) {
		for _, thing := range things {
			if limit > 0 && len(out) >= limit {
				return
			}
			if thing.Kind != "t1" {
				continue
			}

			var c redditComment
			if err := json.Unmarshal(thing.Data, &c); err != nil {
				logrus.Debugf("Skipping undecodable comment: %v", err)
				continue
			}

			if keepComment(c.Score, minScore) {
				out = append(out, models.RawComment{
					ID:        c.ID,
					Text:      c.Body,
					Author:    c.Author,
					Score:     c.Score,
					Timestamp: time.Unix(int64(c.Created), 0).UTC(),
					ParentID:  c.ParentID,
				})
			}

			// replies is "" for leaf comments
			replies := bytes.TrimSpace(c.Replies)
			if len(replies) == 0 || replies[0] != '{' {
				continue
			}
			var nested redditListing
			if err := json.Unmarshal(replies, &nested); err != nil {
				continue
			}
			walk(nested.Data.Children)
		}
	}
	walk(children)

	return out
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > maxRedditLimit {
		return maxRedditLimit
	}
	return limit
}

func headerInt(value string) int {
	if value == "" {
		return 0
	}
	// Reddit reports fractional values for some headers
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return int(f)
}
