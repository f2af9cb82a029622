// Package merge reconciles a freshly selected batch with the stored articles.
package merge

import (
	"fmt"

	"github.com/elonfeng/toughnews/pkg/source"
)

// Policy selects how a batch is reconciled with stored articles.
type Policy string

const (
	// Additive keeps every stored article and appends unseen ones. New
	// articles start unreviewed (shown=false). This is the default.
	Additive Policy = "additive"
	// Replace makes the batch the current set. New articles start shown.
	Replace Policy = "replace"
)

// ParsePolicy maps a config value to a Policy. Empty means Additive.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", Additive:
		return Additive, nil
	case Replace:
		return Replace, nil
	}
	return "", fmt.Errorf("unknown merge policy %q (want %q or %q)", s, Additive, Replace)
}

// Result is the outcome of a merge.
type Result struct {
	Articles []source.Article
	// Added lists batch articles whose identity key was not stored before.
	Added []source.Article
}

// Merge reconciles batch with existing using policy. capacity bounds the
// Replace result and is ignored by Additive.
func Merge(policy Policy, existing, batch []source.Article, capacity int) Result {
	if policy == Replace {
		return replaceBatch(existing, batch, capacity)
	}
	return additive(existing, batch)
}

func additive(existing, batch []source.Article) Result {
	merged := make([]source.Article, len(existing), len(existing)+len(batch))
	copy(merged, existing)

	seen := make(map[string]bool, len(existing)+len(batch))
	for _, a := range existing {
		seen[a.Key()] = true
	}

	var added []source.Article
	for _, a := range batch {
		k := a.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		a.Shown = false
		merged = append(merged, a)
		added = append(added, a)
	}
	return Result{Articles: merged, Added: added}
}

func replaceBatch(existing, batch []source.Article, capacity int) Result {
	stored := make(map[string]bool, len(existing))
	shown := make(map[string]bool, len(existing))
	for _, a := range existing {
		stored[a.Key()] = true
		shown[a.Key()] = a.Shown
	}

	seen := make(map[string]bool, len(batch))
	var merged, added []source.Article
	for _, a := range batch {
		if capacity > 0 && len(merged) >= capacity {
			break
		}
		k := a.Key()
		if seen[k] {
			continue
		}
		seen[k] = true

		if stored[k] {
			a.Shown = shown[k]
		} else {
			a.Shown = true
			added = append(added, a)
		}
		merged = append(merged, a)
	}
	return Result{Articles: merged, Added: added}
}
