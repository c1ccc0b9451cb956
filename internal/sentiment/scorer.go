package sentiment

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/azure/discussion-insights/internal/models"
	"github.com/jonreiter/govader"
	"github.com/russross/blackfriday/v2"
	"golang.org/x/time/rate"
)

// Scorer turns text into a polarity vector
type Scorer interface {
	Score(ctx context.Context, text string) (models.SentimentScores, error)
}

// ScorerFunc adapts a function to the Scorer interface
type ScorerFunc func(ctx context.Context, text string) (models.SentimentScores, error)

func (f ScorerFunc) Score(ctx context.Context, text string) (models.SentimentScores, error) {
	return f(ctx, text)
}

var (
	markdownLinkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	urlPattern          = regexp.MustCompile(`https?://\S+|www\.\S+`)
	htmlTagPattern      = regexp.MustCompile(`<[^>]*>`)
)

// RemoveLinks keeps link text and drops bare URLs
func RemoveLinks(input string) string {
	input = markdownLinkPattern.ReplaceAllString(input, "$1")
	return urlPattern.ReplaceAllString(input, "")
}

// PlainText renders markdown and strips markup, links and extra whitespace
func PlainText(input string) string {
	output := blackfriday.Run([]byte(RemoveLinks(input)),
		blackfriday.WithNoExtensions(),
		blackfriday.WithRenderer(plainRenderer()),
	)
	stripped := htmlTagPattern.ReplaceAllString(string(output), " ")
	return strings.Join(strings.Fields(html.UnescapeString(stripped)), " ")
}

// plainRenderer renders without smartypants so apostrophes and quotes stay ASCII
func plainRenderer() blackfriday.Renderer {
	return blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.UseXHTML,
	})
}

// VaderScorer scores text with the VADER lexicon
type VaderScorer struct {
	analyzer      *govader.SentimentIntensityAnalyzer
	stripMarkdown bool
}

// NewVaderScorer creates a VADER scorer. With stripMarkdown the text is flattened
// from markdown before scoring.
func NewVaderScorer(stripMarkdown bool) *VaderScorer {
	return &VaderScorer{
		analyzer:      govader.NewSentimentIntensityAnalyzer(),
		stripMarkdown: stripMarkdown,
	}
}

func (v *VaderScorer) Score(ctx context.Context, text string) (scores models.SentimentScores, err error) {
	if err := ctx.Err(); err != nil {
		return scores, err
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("vader analyzer panicked: %v", r)
		}
	}()

	if v.stripMarkdown {
		text = PlainText(text)
	}

	result := v.analyzer.PolarityScores(text)
	return models.SentimentScores{
		Compound: result.Compound,
		Positive: result.Positive,
		Neutral:  result.Neutral,
		Negative: result.Negative,
	}, nil
}

// LimitedScorer bounds the call rate of a shared scorer
type LimitedScorer struct {
	next    Scorer
	limiter *rate.Limiter
}

// NewLimitedScorer wraps next with a limiter of rps calls per second.
// A non-positive rps disables limiting.
func NewLimitedScorer(next Scorer, rps float64, burst int) *LimitedScorer {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst < 1 {
		burst = 1
	}
	return &LimitedScorer{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (l *LimitedScorer) Score(ctx context.Context, text string) (models.SentimentScores, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return models.SentimentScores{}, fmt.Errorf("scorer rate limit: %w", err)
	}
	return l.next.Score(ctx, text)
}
