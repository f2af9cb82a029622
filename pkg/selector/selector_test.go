package selector

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/elonfeng/toughnews/pkg/classify"
	"github.com/elonfeng/toughnews/pkg/source"
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// scorer returns -0.1 for titles starting with "neg", -0.5 for "grim" and 0 otherwise.
var scorer = classify.ScorerFunc(func(title string) float64 {
	switch {
	case strings.HasPrefix(title, "neg"):
		return -0.1
	case strings.HasPrefix(title, "grim"):
		return -0.5
	}
	return 0
})

func cand(title string, minutes int) Candidate {
	ts := base.Add(time.Duration(minutes) * time.Minute)
	return Candidate{
		Article:  source.Article{Title: title, URL: "https://example.com/" + strings.ReplaceAll(title, " ", "-"), PublishedAt: &ts},
		SortTime: ts,
	}
}

func group(name string, tier source.Tier, cands ...Candidate) Group {
	return Group{Feed: source.Feed{Name: name, Tier: tier}, Candidates: cands}
}

func titles(arts []source.Article) []string {
	out := make([]string, len(arts))
	for i, a := range arts {
		out[i] = a.Title
	}
	return out
}

func newSelector(capacity int) *Selector {
	return New(classify.New(nil, nil, scorer), capacity)
}

func TestSelect_FillsFromSentimentAndOddTiers(t *testing.T) {
	var normal []Candidate
	for i := 0; i < 5; i++ {
		normal = append(normal, cand(fmt.Sprintf("neg story %d", i), i))
	}
	normal = append(normal, cand("pleasant picnic", 10))

	groups := []Group{
		group("Wire", source.TierNormal, normal...),
		group("Odd", source.TierOdd,
			cand("dog learns to surf", 1),
			cand("giant pumpkin", 2),
			cand("cat elected mayor", 3)),
	}

	got := newSelector(20).Select(groups)
	assert.Equal(t, 8, len(got))
}

func TestSelect_NeverExceedsCapacity(t *testing.T) {
	var cands []Candidate
	for i := 0; i < 30; i++ {
		cands = append(cands, cand(fmt.Sprintf("earthquake report %d", i), i))
	}
	got := newSelector(20).Select([]Group{group("Wire", source.TierNormal, cands...)})
	assert.Equal(t, 20, len(got))
	// newest first
	assert.Equal(t, "earthquake report 29", got[0].Title)
	assert.Equal(t, "earthquake report 10", got[19].Title)
}

func TestSelect_StrictTierFirst(t *testing.T) {
	groups := []Group{
		group("Wire", source.TierNormal,
			cand("neg mild gloom", 50),
			cand("grim outlook", 40),
			cand("earthquake strikes", 30)),
		group("Odd", source.TierOdd,
			cand("bizarre crash of llamas", 20),
			cand("two-headed turtle", 60)),
	}

	got := newSelector(3).Select(groups)
	assert.Equal(t, []string{"grim outlook", "earthquake strikes", "bizarre crash of llamas"}, titles(got))
}

func TestSelect_OddTierUsesKeywordOnly(t *testing.T) {
	groups := []Group{
		group("Odd", source.TierOdd,
			cand("grim but quirky", 5),
			cand("fire festival chaos", 4)),
	}
	sel := newSelector(1)
	got := sel.Select(groups)
	// Exclusion terms do not apply to odd feeds in the strict tier.
	assert.Equal(t, []string{"fire festival chaos"}, titles(got))
}

func TestSelect_FallbackTiersSkipDuplicateTitles(t *testing.T) {
	groups := []Group{
		group("A", source.TierNormal, cand("neg same headline", 3)),
		group("B", source.TierNormal, cand("neg same headline", 2)),
		group("Odd", source.TierOdd,
			cand("neg same headline", 1),
			cand("unique odd", 0)),
	}
	got := newSelector(20).Select(groups)
	assert.Equal(t, []string{"neg same headline", "unique odd"}, titles(got))
}

func TestSelect_ExcludedNegativeNotUsedAsFallback(t *testing.T) {
	groups := []Group{
		group("Wire", source.TierNormal, cand("grim film review", 1), cand("neg movie", 2)),
	}
	got := newSelector(20).Select(groups)
	assert.Equal(t, 0, len(got))
}

func TestSelect_RecordsPolarity(t *testing.T) {
	groups := []Group{
		group("Wire", source.TierNormal, cand("grim outlook", 2), cand("neg drizzle", 1)),
		group("Odd", source.TierOdd, cand("grim oddity", 0)),
	}
	got := newSelector(20).Select(groups)
	assert.Equal(t, 3, len(got))
	assert.Equal(t, -0.5, *got[0].Polarity)
	assert.Equal(t, -0.1, *got[1].Polarity)
	// odd filler is recorded as neutral
	assert.Equal(t, 0.0, *got[2].Polarity)
}

func TestSelect_UndatedEntriesSortLast(t *testing.T) {
	undated := Candidate{Article: source.Article{Title: "earthquake undated"}}
	groups := []Group{
		group("A", source.TierNormal, undated, cand("earthquake old", -600)),
		group("B", source.TierNormal, cand("earthquake new", 5)),
	}
	got := newSelector(20).Select(groups)
	assert.Equal(t, []string{"earthquake new", "earthquake old", "earthquake undated"}, titles(got))
}

func TestSelect_DoesNotMutateInput(t *testing.T) {
	g := group("A", source.TierNormal, cand("earthquake one", 1), cand("earthquake two", 2))
	newSelector(20).Select([]Group{g})
	assert.Equal(t, "earthquake one", g.Candidates[0].Article.Title)
	assert.Equal(t, true, g.Candidates[0].Article.Polarity == nil)
}

func TestFromBatches(t *testing.T) {
	pub := base
	fetched := base.Add(time.Hour)
	batches := []source.Batch{
		{
			Feed: source.Feed{Name: "Wire", Tier: source.TierNormal},
			Entries: []source.RawEntry{
				{Title: "earthquake", Link: "https://e/1", Published: &pub},
				{},
			},
		},
		{Feed: source.Feed{Name: "Down", Tier: source.TierNormal}, Err: fmt.Errorf("boom")},
	}

	groups := FromBatches(batches, fetched)
	assert.Equal(t, 2, len(groups))
	assert.Equal(t, 2, len(groups[0].Candidates))
	assert.Equal(t, 0, len(groups[1].Candidates))

	assert.Equal(t, pub, groups[0].Candidates[0].SortTime)
	assert.Equal(t, true, groups[0].Candidates[1].SortTime.IsZero())
	assert.Equal(t, source.DefaultTitle, groups[0].Candidates[1].Article.Title)
	assert.Equal(t, fetched, *groups[0].Candidates[1].Article.PublishedAt)
}
