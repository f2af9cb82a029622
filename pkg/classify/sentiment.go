package classify

import (
	"math"

	"github.com/jonreiter/govader"
)

// Scorer returns the sentiment polarity of a text in [-1, 1]. Implementations
// must be deterministic.
type Scorer interface {
	Score(text string) float64
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc func(text string) float64

func (f ScorerFunc) Score(text string) float64 { return f(text) }

// Neutral scores every text 0.
type Neutral struct{}

func (Neutral) Score(string) float64 { return 0 }

// Vader scores text with the VADER lexicon and uses the compound score as
// polarity.
type Vader struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVader creates a VADER scorer.
func NewVader() *Vader {
	return &Vader{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (v *Vader) Score(text string) float64 {
	if text == "" {
		return 0
	}
	return clamp(v.analyzer.PolarityScores(text).Compound)
}

func clamp(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return 0
	case p < -1:
		return -1
	case p > 1:
		return 1
	}
	return p
}
