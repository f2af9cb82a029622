package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/elonfeng/toughnews/pkg/source"
)

// DecodeArticles parses a stored article list. Empty or malformed data yields
// an empty list; malformed data is logged as a warning.
func DecodeArticles(data []byte, key string, logger *log.Logger) []source.Article {
	if len(data) == 0 {
		return nil
	}
	var articles []source.Article
	if err := json.Unmarshal(data, &articles); err != nil {
		if logger != nil {
			logger.Warn("stored articles unreadable, starting empty", "key", key, "err", err)
		}
		return nil
	}
	return articles
}

// EncodeArticles renders articles in the canonical indented form.
func EncodeArticles(articles []source.Article) ([]byte, error) {
	if articles == nil {
		articles = []source.Article{}
	}
	data, err := json.MarshalIndent(articles, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal articles: %w", err)
	}
	return data, nil
}

// LoadArticles reads the article list under key. A missing or corrupted
// document is an empty list, not an error.
func LoadArticles(ctx context.Context, s Store, key string, logger *log.Logger) ([]source.Article, error) {
	data, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load articles: %w", err)
	}
	return DecodeArticles(data, key, logger), nil
}

// SaveArticles replaces the article list under key.
func SaveArticles(ctx context.Context, s Store, key string, articles []source.Article) error {
	data, err := EncodeArticles(articles)
	if err != nil {
		return err
	}
	if err := s.Put(ctx, key, data); err != nil {
		return fmt.Errorf("save articles: %w", err)
	}
	return nil
}

// UpdateArticles runs fn over the stored list inside a single Update.
func UpdateArticles(ctx context.Context, s Store, key string, logger *log.Logger, fn func([]source.Article) ([]source.Article, error)) error {
	return s.Update(ctx, key, func(current []byte) ([]byte, error) {
		next, err := fn(DecodeArticles(current, key, logger))
		if err != nil {
			return nil, err
		}
		return EncodeArticles(next)
	})
}

// ErrArticleNotFound is returned by SetShown for an unknown identity key.
var ErrArticleNotFound = errors.New("article not found")

// SetShown sets the curation flag of the article whose identity key is
// articleKey.
func SetShown(ctx context.Context, s Store, key, articleKey string, shown bool, logger *log.Logger) error {
	return UpdateArticles(ctx, s, key, logger, func(articles []source.Article) ([]source.Article, error) {
		for i := range articles {
			if articles[i].Key() == articleKey {
				articles[i].Shown = shown
				return articles, nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrArticleNotFound, articleKey)
	})
}
