package classify

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// BadNewsThreshold is the polarity below which a title counts as bad news
// even without a keyword hit.
const BadNewsThreshold = -0.2

// DefaultBadKeywords returns the crisis vocabulary used when no list is configured.
func DefaultBadKeywords() []string {
	return []string{
		"earthquake", "war", "killed", "crash", "explosion", "riot", "terror",
		"bomb", "injury", "injuries", "injured", "fatal", "fatality", "emergency",
		"deadly", "attack", "violence", "warfare",
		"abduction", "assault", "homicide", "catastrophe", "evacuation",
		"public harm", "rigging", "forgery", "bribery",
		"scam", "collision", "oil company", "oil spill",
		"riot police", "death toll", "death", "deaths", "police clash",
		"fatalities", "hostage", "drought", "cyclone", "famine", "arson",
		"assassination", "crimes", "poison", "tragic", "tragedy", "explosions",
		"earthquakes", "shootings", "have died", "has died", "been killed",
		"deceased", "murder", "crisis", "disaster",
		"pandemic", "starvation", "disease", "outbreak", "terrorism", "hurricane",
		"tornado", "felony", "fire",
		"dictator", "scandal", "corruption", "pollution", "poverty", "fraud",
		"human trafficking", "racism", "rascist", "unemployment", "suicide", "North Korea",
	}
}

// DefaultExcludeKeywords returns the arts and entertainment terms that veto a
// keyword match.
func DefaultExcludeKeywords() []string {
	return []string{
		"film", "movie", "review", "trailer", "episode", "series",
		"plot", "music", "concert", "festival", "art", "exhibition",
		"author", "fiction",
	}
}

// Verdict holds everything the selector needs to know about one title.
type Verdict struct {
	Polarity   float64
	BadKeyword bool
	Excluded   bool
}

// BadNews reports whether the title is strict bad news: a keyword hit or a
// clearly negative tone, and no exclusion term.
func (v Verdict) BadNews() bool {
	return (v.BadKeyword || v.Polarity < BadNewsThreshold) && !v.Excluded
}

// OddMatch is the looser test applied to odd-news feeds.
func (v Verdict) OddMatch() bool {
	return v.BadKeyword
}

// Negative reports whether the title qualifies for the sentiment fallback.
func (v Verdict) Negative() bool {
	return v.Polarity < 0 && !v.Excluded
}

// Classifier matches titles against keyword lists and a polarity scorer.
// Bad keywords match as case-insensitive substrings, so "fire" also hits
// "firefighters". Exclude terms must start a word: "films" is excluded,
// "earthquake" is not vetoed by "art".
type Classifier struct {
	keywords []string
	exclude  []string
	scorer   Scorer
}

// New creates a classifier. Nil keyword lists fall back to the defaults; an
// empty non-nil list disables that set. A nil scorer scores everything 0.
func New(keywords, exclude []string, scorer Scorer) *Classifier {
	if keywords == nil {
		keywords = DefaultBadKeywords()
	}
	if exclude == nil {
		exclude = DefaultExcludeKeywords()
	}
	if scorer == nil {
		scorer = Neutral{}
	}
	return &Classifier{
		keywords: lowerAll(keywords),
		exclude:  lowerAll(exclude),
		scorer:   scorer,
	}
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, kw := range in {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// Classify scores the title once and evaluates both keyword sets.
func (c *Classifier) Classify(title string) Verdict {
	lower := strings.ToLower(title)
	return Verdict{
		Polarity:   c.Polarity(title),
		BadKeyword: containsAny(lower, c.keywords),
		Excluded:   startsAnyWord(lower, c.exclude),
	}
}

// IsBadNews reports whether title qualifies as strict bad news.
func (c *Classifier) IsBadNews(title string) bool {
	return c.Classify(title).BadNews()
}

// IsOddMatch reports whether title contains any bad keyword.
func (c *Classifier) IsOddMatch(title string) bool {
	return containsAny(strings.ToLower(title), c.keywords)
}

// Polarity returns the scorer's polarity for title, clamped to [-1, 1].
func (c *Classifier) Polarity(title string) float64 {
	return clamp(c.scorer.Score(title))
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// startsAnyWord reports whether some keyword occurs in lower at the start of a
// word.
func startsAnyWord(lower string, keywords []string) bool {
	for _, kw := range keywords {
		for offset := 0; offset < len(lower); {
			i := strings.Index(lower[offset:], kw)
			if i < 0 {
				break
			}
			at := offset + i
			if at == 0 {
				return true
			}
			prev, _ := utf8.DecodeLastRuneInString(lower[:at])
			if !unicode.IsLetter(prev) && !unicode.IsDigit(prev) {
				return true
			}
			offset = at + 1
		}
	}
	return false
}
