package entities

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/azure/discussion-insights/internal/models"
)

// Confidence values reported by the built-in detectors
const (
	lexiconConfidence = 0.95
	acronymConfidence = 0.6
)

const maxLexiconTokens = 4

// Classifier decides what kind of entity a proper-noun phrase is
type Classifier interface {
	// Classify returns the type and confidence for phrase, or false when the phrase
	// should not be reported. prev is the word right before the phrase, if any.
	Classify(phrase string, words []string, prev string) (models.EntityType, float64, bool)
}

// ClassifierFunc adapts a function to the Classifier interface
type ClassifierFunc func(phrase string, words []string, prev string) (models.EntityType, float64, bool)

func (f ClassifierFunc) Classify(phrase string, words []string, prev string) (models.EntityType, float64, bool) {
	return f(phrase, words, prev)
}

// HeuristicTagger is a lexicon and capitalization based tagger. It runs several
// independent detectors whose hits may overlap.
type HeuristicTagger struct {
	lexicon    map[string]models.EntityType
	classifier Classifier
}

// HeuristicOption configures a HeuristicTagger
type HeuristicOption func(*HeuristicTagger)

// WithLexicon adds known names; keys are matched after Normalize
func WithLexicon(entries map[string]models.EntityType) HeuristicOption {
	return func(h *HeuristicTagger) {
		for name, typ := range entries {
			h.lexicon[Normalize(name)] = typ
		}
	}
}

// WithClassifier replaces the proper-noun classifier
func WithClassifier(c Classifier) HeuristicOption {
	return func(h *HeuristicTagger) {
		h.classifier = c
	}
}

// NewHeuristicTagger creates a tagger seeded with the default lexicon and classifier
func NewHeuristicTagger(opts ...HeuristicOption) *HeuristicTagger {
	h := &HeuristicTagger{
		lexicon:    make(map[string]models.EntityType, len(defaultLexicon)),
		classifier: DefaultClassifier{},
	}
	for name, typ := range defaultLexicon {
		h.lexicon[name] = typ
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Tag returns the hits of every detector ordered by start offset
func (h *HeuristicTagger) Tag(ctx context.Context, text string) ([]Span, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	runes := []rune(text)
	tokens := tokenize(runes)
	if len(tokens) == 0 {
		return nil, nil
	}

	var spans []Span
	spans = append(spans, h.lexiconSpans(runes, tokens)...)
	spans = append(spans, h.properNounSpans(runes, tokens)...)
	spans = append(spans, acronymSpans(runes, tokens)...)

	sort.SliceStable(spans, func(i, j int) bool {
		return spans[i].Start < spans[j].Start
	})
	return spans, nil
}

func (h *HeuristicTagger) lexiconSpans(runes []rune, tokens []token) []Span {
	var spans []Span
	for i := 0; i < len(tokens); {
		matched := 0
		for n := maxLexiconTokens; n >= 1; n-- {
			if i+n > len(tokens) || !contiguous(runes, tokens[i:i+n]) {
				continue
			}
			// single lowercase words are too ambiguous ("meta", "apple")
			if n == 1 && !tokens[i].capitalized() {
				continue
			}
			phrase := string(runes[tokens[i].start:tokens[i+n-1].end])
			if typ, ok := h.lexicon[Normalize(phrase)]; ok {
				spans = append(spans, Span{
					Text:       phrase,
					Type:       string(typ),
					Start:      tokens[i].start,
					End:        tokens[i+n-1].end,
					Confidence: lexiconConfidence,
				})
				matched = n
				break
			}
		}
		if matched == 0 {
			matched = 1
		}
		i += matched
	}
	return spans
}

func (h *HeuristicTagger) properNounSpans(runes []rune, tokens []token) []Span {
	var spans []Span
	for i := 0; i < len(tokens); {
		if !tokens[i].capitalized() {
			i++
			continue
		}

		// extend over capitalized words and inner connectors ("Bank of America")
		j := i + 1
		for j < len(tokens) && contiguous(runes, tokens[j-1:j+1]) {
			if tokens[j].capitalized() {
				j++
				continue
			}
			if connectors[strings.ToLower(tokens[j].text)] && j+1 < len(tokens) &&
				tokens[j+1].capitalized() && contiguous(runes, tokens[j:j+2]) {
				j += 2
				continue
			}
			break
		}

		group := tokens[i:j]
		prev := ""
		if i > 0 {
			prev = strings.ToLower(tokens[i-1].text)
		}
		i = j

		// leading sentence words and titles are context, not part of the name
		for len(group) > 0 && commonWords[strings.ToLower(group[0].text)] {
			prev = strings.ToLower(group[0].text)
			group = group[1:]
		}
		for len(group) > 1 && titles[strings.ToLower(strings.TrimSuffix(group[0].text, "."))] {
			prev = strings.ToLower(strings.TrimSuffix(group[0].text, "."))
			group = group[1:]
		}
		if len(group) == 0 || allAcronyms(group) {
			continue
		}

		words := make([]string, len(group))
		for k, t := range group {
			words[k] = t.text
		}
		phrase := string(runes[group[0].start:group[len(group)-1].end])

		typ, confidence, ok := h.classifier.Classify(phrase, words, prev)
		if !ok {
			continue
		}
		spans = append(spans, Span{
			Text:       phrase,
			Type:       string(typ),
			Start:      group[0].start,
			End:        group[len(group)-1].end,
			Confidence: confidence,
		})
	}
	return spans
}

func acronymSpans(runes []rune, tokens []token) []Span {
	var spans []Span
	for _, t := range tokens {
		if !t.acronym() || acronymStopwords[t.text] {
			continue
		}
		typ := models.EntityOrganization
		if locations[strings.ToLower(t.text)] {
			typ = models.EntityLocation
		}
		spans = append(spans, Span{
			Text:       string(runes[t.start:t.end]),
			Type:       string(typ),
			Start:      t.start,
			End:        t.end,
			Confidence: acronymConfidence,
		})
	}
	return spans
}

// DefaultClassifier classifies phrases with a location gazetteer, organization
// suffixes, CamelCase brand names and person title/shape rules.
type DefaultClassifier struct{}

func (DefaultClassifier) Classify(phrase string, words []string, prev string) (models.EntityType, float64, bool) {
	lower := Normalize(phrase)
	first := strings.ToLower(words[0])
	last := strings.ToLower(strings.TrimSuffix(words[len(words)-1], "."))

	switch {
	case locations[lower]:
		return models.EntityLocation, 0.85, true
	case len(words) > 1 && (orgSuffixes[last] || orgSuffixes[first]):
		return models.EntityOrganization, 0.8, true
	case len(words) == 1 && camelCase(words[0]):
		return models.EntityOrganization, 0.7, true
	case titles[prev]:
		return models.EntityPerson, 0.75, true
	case locationPrepositions[prev] && len(words) <= 2:
		return models.EntityLocation, 0.5, true
	case len(words) >= 2 && len(words) <= 3 && allAlpha(words):
		return models.EntityPerson, 0.65, true
	}
	return "", 0, false
}

type token struct {
	text  string
	start int
	end   int
}

func (t token) capitalized() bool {
	for _, r := range t.text {
		return unicode.IsUpper(r)
	}
	return false
}

// acronym reports 2-6 rune all-caps words such as "NASA" or "AT&T"
func (t token) acronym() bool {
	n, letters := 0, 0
	for _, r := range t.text {
		n++
		switch {
		case unicode.IsUpper(r):
			letters++
		case unicode.IsDigit(r) || r == '&':
		default:
			return false
		}
	}
	return n >= 2 && n <= 6 && letters >= 2
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isJoiner(r rune) bool {
	switch r {
	case '.', '&', '\'', '’', '-':
		return true
	}
	return false
}

// tokenize splits text into words with rune offsets. Possessive 's is dropped.
func tokenize(runes []rune) []token {
	var tokens []token
	for i := 0; i < len(runes); {
		if !isWordRune(runes[i]) {
			i++
			continue
		}
		start := i
		for i < len(runes) && (isWordRune(runes[i]) ||
			(isJoiner(runes[i]) && i+1 < len(runes) && isWordRune(runes[i+1]))) {
			i++
		}
		end := i
		if end-start > 2 && (runes[end-1] == 's' || runes[end-1] == 'S') &&
			(runes[end-2] == '\'' || runes[end-2] == '’') {
			end -= 2
		}
		tokens = append(tokens, token{text: string(runes[start:end]), start: start, end: end})
	}
	return tokens
}

// contiguous reports whether the tokens are separated only by horizontal spaces
func contiguous(runes []rune, tokens []token) bool {
	for k := 1; k < len(tokens); k++ {
		gap := runes[tokens[k-1].end:tokens[k].start]
		if len(gap) == 0 {
			return false
		}
		for _, r := range gap {
			if r != ' ' && r != '\t' {
				return false
			}
		}
	}
	return true
}

func camelCase(word string) bool {
	upper, lower := 0, 0
	for i, r := range []rune(word) {
		switch {
		case unicode.IsUpper(r):
			if i > 0 {
				upper++
			}
		case unicode.IsLower(r):
			lower++
		}
	}
	return upper > 0 && lower > 0
}

func allAlpha(words []string) bool {
	for _, w := range words {
		for _, r := range w {
			if !unicode.IsLetter(r) && r != '\'' && r != '-' && r != '.' {
				return false
			}
		}
	}
	return true
}

func allAcronyms(group []token) bool {
	for _, t := range group {
		if !t.acronym() {
			return false
		}
	}
	return true
}
