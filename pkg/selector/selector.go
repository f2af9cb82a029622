package selector

import (
	"sort"
	"time"

	"github.com/elonfeng/toughnews/pkg/classify"
	"github.com/elonfeng/toughnews/pkg/source"
)

// DefaultCapacity is the size of the result set.
const DefaultCapacity = 20

// Candidate is a normalized entry waiting for selection.
type Candidate struct {
	Article source.Article
	// SortTime is the entry's published time; zero sorts last.
	SortTime time.Time
}

// Group holds the candidates of one feed.
type Group struct {
	Feed       source.Feed
	Candidates []Candidate
}

// FromBatches normalizes fetched batches into groups, preserving feed order.
// Failed batches produce empty groups.
func FromBatches(batches []source.Batch, fetchedAt time.Time) []Group {
	groups := make([]Group, 0, len(batches))
	for _, b := range batches {
		g := Group{Feed: b.Feed}
		if b.Err == nil {
			g.Candidates = make([]Candidate, 0, len(b.Entries))
			for _, e := range b.Entries {
				g.Candidates = append(g.Candidates, Candidate{
					Article:  source.Normalize(e, b.Feed.Name, fetchedAt),
					SortTime: source.SortTime(e),
				})
			}
		}
		groups = append(groups, g)
	}
	return groups
}

// Selector fills a fixed-size result from three passes over the feeds:
// strict bad news, then negative-sentiment fallback from normal feeds, then
// anything from odd feeds.
type Selector struct {
	classifier *classify.Classifier
	capacity   int
}

// New creates a selector. A capacity <= 0 means DefaultCapacity.
func New(c *classify.Classifier, capacity int) *Selector {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Selector{classifier: c, capacity: capacity}
}

// Capacity returns the maximum number of selected articles.
func (s *Selector) Capacity() int { return s.capacity }

type picked struct {
	cand     Candidate
	polarity float64
}

// selection tracks the result of one Select call.
type selection struct {
	items  []picked
	titles map[string]bool
	limit  int
}

func (sel *selection) full() bool { return len(sel.items) >= sel.limit }

func (sel *selection) add(c Candidate, polarity float64) {
	sel.items = append(sel.items, picked{cand: c, polarity: polarity})
	sel.titles[c.Article.Title] = true
}

// Select runs the three tiers over groups and returns at most Capacity
// articles, newest first. Polarity is recorded on every returned article.
func (s *Selector) Select(groups []Group) []source.Article {
	sorted := make([]Group, len(groups))
	verdicts := make([][]*classify.Verdict, len(groups))
	for i, g := range groups {
		cands := make([]Candidate, len(g.Candidates))
		copy(cands, g.Candidates)
		sort.SliceStable(cands, func(a, b int) bool {
			return cands[a].SortTime.After(cands[b].SortTime)
		})
		sorted[i] = Group{Feed: g.Feed, Candidates: cands}
		verdicts[i] = make([]*classify.Verdict, len(cands))
	}

	verdict := func(gi, ci int) classify.Verdict {
		if v := verdicts[gi][ci]; v != nil {
			return *v
		}
		v := s.classifier.Classify(sorted[gi].Candidates[ci].Article.Title)
		verdicts[gi][ci] = &v
		return v
	}

	sel := &selection{titles: make(map[string]bool), limit: s.capacity}

	// Tier 1: strict.
	for gi, g := range sorted {
		if sel.full() {
			break
		}
		for ci, c := range g.Candidates {
			if sel.full() {
				break
			}
			v := verdict(gi, ci)
			match := v.BadNews()
			if g.Feed.Tier == source.TierOdd {
				match = v.OddMatch()
			}
			if match {
				sel.add(c, v.Polarity)
			}
		}
	}

	// Tier 2: negative tone from normal feeds.
	if !sel.full() {
		for gi, g := range sorted {
			if g.Feed.Tier == source.TierOdd {
				continue
			}
			for ci, c := range g.Candidates {
				if sel.full() {
					break
				}
				if sel.titles[c.Article.Title] {
					continue
				}
				if v := verdict(gi, ci); v.Negative() {
					sel.add(c, v.Polarity)
				}
			}
		}
	}

	// Tier 3: odd feeds as filler.
	if !sel.full() {
		for _, g := range sorted {
			if g.Feed.Tier != source.TierOdd {
				continue
			}
			for _, c := range g.Candidates {
				if sel.full() {
					break
				}
				if !sel.titles[c.Article.Title] {
					sel.add(c, 0)
				}
			}
		}
	}

	items := sel.items
	if len(items) > s.capacity {
		items = items[:s.capacity]
	}
	sort.SliceStable(items, func(a, b int) bool {
		return items[a].cand.SortTime.After(items[b].cand.SortTime)
	})

	out := make([]source.Article, len(items))
	for i, p := range items {
		a := p.cand.Article
		polarity := p.polarity
		a.Polarity = &polarity
		out[i] = a
	}
	return out
}
