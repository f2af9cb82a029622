package merge

import (
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/elonfeng/toughnews/pkg/source"
)

func art(url, title string, shown bool) source.Article {
	return source.Article{Source: "Test", URL: url, Title: title, Shown: shown}
}

func keys(arts []source.Article) []string {
	out := make([]string, len(arts))
	for i, a := range arts {
		out[i] = a.Key()
	}
	return out
}

func TestAdditive_PreservesShown(t *testing.T) {
	existing := []source.Article{art("a", "Old title", true)}
	batch := []source.Article{art("a", "New title", false), art("b", "Other", true)}

	res := Merge(Additive, existing, batch, 20)
	assert.Equal(t, []string{"a", "b"}, keys(res.Articles))
	assert.Equal(t, true, res.Articles[0].Shown)
	assert.Equal(t, "Old title", res.Articles[0].Title)

	// new articles start unreviewed
	assert.Equal(t, false, res.Articles[1].Shown)
	assert.Equal(t, []string{"b"}, keys(res.Added))
}

func TestAdditive_Idempotent(t *testing.T) {
	existing := []source.Article{art("a", "A", true)}
	batch := []source.Article{art("b", "B", false), art("", "Title only", false), art("b", "B again", false)}

	once := Merge(Additive, existing, batch, 20)
	twice := Merge(Additive, once.Articles, batch, 20)

	assert.Equal(t, once.Articles, twice.Articles)
	assert.Equal(t, 0, len(twice.Added))
	assert.Equal(t, []string{"a", "b", "Title only"}, keys(once.Articles))
}

func TestAdditive_NeverDropsExisting(t *testing.T) {
	var existing []source.Article
	for _, k := range []string{"x", "y", "z"} {
		existing = append(existing, art(k, k, false))
	}
	res := Merge(Additive, existing, nil, 1)
	assert.Equal(t, existing, res.Articles)
}

func TestAdditive_DoesNotMutateExisting(t *testing.T) {
	existing := []source.Article{art("a", "A", true)}
	res := Merge(Additive, existing, []source.Article{art("b", "B", true)}, 20)
	res.Articles[0].Shown = false
	assert.Equal(t, true, existing[0].Shown)
}

func TestReplace_BatchBecomesCurrentSet(t *testing.T) {
	existing := []source.Article{art("a", "A", false), art("old", "Old", true)}
	batch := []source.Article{art("a", "A", true), art("b", "B", false), art("c", "C", false), art("b", "B dup", false)}

	res := Merge(Replace, existing, batch, 2)
	assert.Equal(t, []string{"a", "b"}, keys(res.Articles))
	// curated flag of a stored article survives
	assert.Equal(t, false, res.Articles[0].Shown)
	// new articles default to shown
	assert.Equal(t, true, res.Articles[1].Shown)
	assert.Equal(t, []string{"b"}, keys(res.Added))
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	assert.Equal(t, nil, err)
	assert.Equal(t, Additive, p)

	p, err = ParsePolicy("replace")
	assert.Equal(t, nil, err)
	assert.Equal(t, Replace, p)

	_, err = ParsePolicy("overwrite")
	assert.NotEqual(t, nil, err)
}
