package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/elonfeng/toughnews/pkg/source"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	fs, err := NewFileStore(filepath.Join(dir, "files"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	db, err := New(filepath.Join(dir, "toughnews.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return map[string]Store{"json": fs, "sqlite": db}
}

func TestStore_GetPutUpdate(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "missing")
			if !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}

			if err := s.Put(ctx, "doc", []byte(`[1]`)); err != nil {
				t.Fatalf("Put: %v", err)
			}
			if err := s.Put(ctx, "doc", []byte(`[1,2]`)); err != nil {
				t.Fatalf("Put overwrite: %v", err)
			}
			got, err := s.Get(ctx, "doc")
			assert.Equal(t, nil, err)
			assert.Equal(t, `[1,2]`, string(got))

			err = s.Update(ctx, "doc", func(cur []byte) ([]byte, error) {
				return append(cur[:len(cur)-1], []byte(",3]")...), nil
			})
			assert.Equal(t, nil, err)
			got, _ = s.Get(ctx, "doc")
			assert.Equal(t, `[1,2,3]`, string(got))

			var sawNil bool
			err = s.Update(ctx, "fresh", func(cur []byte) ([]byte, error) {
				sawNil = cur == nil
				return []byte("x"), nil
			})
			assert.Equal(t, nil, err)
			assert.Equal(t, true, sawNil)
		})
	}
}

func TestStore_FailedUpdateWritesNothing(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_ = s.Put(ctx, "doc", []byte("keep"))
			err := s.Update(ctx, "doc", func([]byte) ([]byte, error) { return []byte("lost"), boom })
			if !errors.Is(err, boom) {
				t.Fatalf("expected boom, got %v", err)
			}
			got, _ := s.Get(ctx, "doc")
			assert.Equal(t, "keep", string(got))
		})
	}
}

func TestFileStore_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := s.Put(context.Background(), "articles", []byte("[]")); err != nil {
			t.Fatal(err)
		}
	}
	entries, _ := os.ReadDir(dir)
	assert.Equal(t, 1, len(entries))
	assert.Equal(t, "articles.json", entries[0].Name())
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("mongo", t.TempDir())
	assert.NotEqual(t, nil, err)
}

func TestLoadArticles_MissingAndCorrupt(t *testing.T) {
	ctx := context.Background()
	s, _ := NewFileStore(t.TempDir())

	arts, err := LoadArticles(ctx, s, "articles", nil)
	assert.Equal(t, nil, err)
	assert.Equal(t, 0, len(arts))

	_ = s.Put(ctx, "articles", []byte("{not json"))
	arts, err = LoadArticles(ctx, s, "articles", nil)
	assert.Equal(t, nil, err)
	assert.Equal(t, 0, len(arts))
}

func TestArticles_RoundTripAndLegacyFields(t *testing.T) {
	ctx := context.Background()
	s, _ := NewFileStore(t.TempDir())

	pub := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	pol := -0.4
	in := []source.Article{
		{Source: "BBC", Title: "Storm", URL: "https://a", PublishedAt: &pub, Polarity: &pol, Shown: true},
		{Source: "CBC", Title: "No link"},
	}
	assert.Equal(t, nil, SaveArticles(ctx, s, "articles", in))

	out, err := LoadArticles(ctx, s, "articles", nil)
	assert.Equal(t, nil, err)
	assert.Equal(t, in, out)

	legacy := `[{"title":"Old","link":"https://old","date":"Mon, 02 Jan 2006 15:04:05 +0000","shown":false}]`
	_ = s.Put(ctx, "legacy", []byte(legacy))
	out, _ = LoadArticles(ctx, s, "legacy", nil)
	assert.Equal(t, 1, len(out))
	assert.Equal(t, "https://old", out[0].URL)
	assert.Equal(t, time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC), *out[0].PublishedAt)
}

func TestSetShown(t *testing.T) {
	ctx := context.Background()
	s, _ := NewFileStore(t.TempDir())
	_ = SaveArticles(ctx, s, "articles", []source.Article{
		{Title: "a", URL: "https://a"},
		{Title: "untitled-url"},
	})

	assert.Equal(t, nil, SetShown(ctx, s, "articles", "https://a", true, nil))
	assert.Equal(t, nil, SetShown(ctx, s, "articles", "untitled-url", true, nil))

	err := SetShown(ctx, s, "articles", "https://nope", true, nil)
	if !errors.Is(err, ErrArticleNotFound) {
		t.Fatalf("expected ErrArticleNotFound, got %v", err)
	}

	out, _ := LoadArticles(ctx, s, "articles", nil)
	assert.Equal(t, true, out[0].Shown)
	assert.Equal(t, true, out[1].Shown)
}
