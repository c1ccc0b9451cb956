package entities

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Span is one raw tagger hit. Start and End are rune offsets, End exclusive.
type Span struct {
	Text       string  `json:"text"`
	Type       string  `json:"type"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
}

// Tagger finds named-entity spans in text
type Tagger interface {
	Tag(ctx context.Context, text string) ([]Span, error)
}

// TaggerFunc adapts a function to the Tagger interface
type TaggerFunc func(ctx context.Context, text string) ([]Span, error)

func (f TaggerFunc) Tag(ctx context.Context, text string) ([]Span, error) {
	return f(ctx, text)
}

// LimitedTagger bounds the call rate of a shared tagger
type LimitedTagger struct {
	next    Tagger
	limiter *rate.Limiter
}

// NewLimitedTagger wraps next with a limiter of rps calls per second.
// A non-positive rps disables limiting.
func NewLimitedTagger(next Tagger, rps float64, burst int) *LimitedTagger {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst < 1 {
		burst = 1
	}
	return &LimitedTagger{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (l *LimitedTagger) Tag(ctx context.Context, text string) ([]Span, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("tagger rate limit: %w", err)
	}
	return l.next.Tag(ctx, text)
}
