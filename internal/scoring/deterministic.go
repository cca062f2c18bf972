package scoring

import (
	"context"
	"strings"

	"github.com/evalpipe/evalpipe/internal/domain"
)

// ResponseLength scores how well the response length fits a target
// word range. Responses inside [MinWords, MaxWords] score 1.0; outside
// the range the score decays linearly toward 0.
type ResponseLength struct {
	MinWords int
	MaxWords int
}

// NewResponseLength creates a response length capability with default bounds
func NewResponseLength() *ResponseLength {
	return &ResponseLength{MinWords: 10, MaxWords: 300}
}

func (c *ResponseLength) Evaluate(_ context.Context, trace domain.NormalizedTrace) (Outcome, error) {
	words := len(strings.Fields(trace.Response))
	if words == 0 {
		return scoreOf(0), nil
	}

	switch {
	case words < c.MinWords:
		return scoreOf(float64(words) / float64(c.MinWords)), nil
	case words > c.MaxWords:
		overshoot := float64(words-c.MaxWords) / float64(c.MaxWords)
		if overshoot > 1 {
			overshoot = 1
		}
		return scoreOf(1 - overshoot), nil
	default:
		return scoreOf(1), nil
	}
}

// ContextRecall measures how much of the retrieved context is carried
// into the response, as the fraction of context terms present in the
// response.
type ContextRecall struct{}

func (c *ContextRecall) Evaluate(_ context.Context, trace domain.NormalizedTrace) (Outcome, error) {
	contextTerms := termSet(trace.Context)
	if len(contextTerms) == 0 {
		return scoreOf(0), nil
	}

	responseTerms := termSet(trace.Response)
	matched := 0
	for term := range contextTerms {
		if _, ok := responseTerms[term]; ok {
			matched++
		}
	}

	return scoreOf(float64(matched) / float64(len(contextTerms))), nil
}

// KeywordPresence scores the fraction of required keywords that appear
// in the response. Matching is case-insensitive on whole terms.
type KeywordPresence struct {
	Keywords []string
}

func (c *KeywordPresence) Evaluate(_ context.Context, trace domain.NormalizedTrace) (Outcome, error) {
	keywords := c.Keywords
	if len(keywords) == 0 {
		// No configured list: fall back to the input terms, which
		// approximates "did the response address the question".
		for term := range termSet(trace.Input) {
			keywords = append(keywords, term)
		}
	}
	if len(keywords) == 0 {
		return scoreOf(0), nil
	}

	responseTerms := termSet(trace.Response)
	matched := 0
	for _, kw := range keywords {
		if _, ok := responseTerms[strings.ToLower(kw)]; ok {
			matched++
		}
	}

	return scoreOf(float64(matched) / float64(len(keywords))), nil
}

// termSet tokenizes text into a set of lowercased terms, dropping
// short stopword-like tokens.
func termSet(text string) map[string]struct{} {
	terms := make(map[string]struct{})
	for _, field := range strings.Fields(strings.ToLower(text)) {
		term := strings.Trim(field, ".,;:!?\"'()[]{}")
		if len(term) < 3 {
			continue
		}
		terms[term] = struct{}{}
	}
	return terms
}
