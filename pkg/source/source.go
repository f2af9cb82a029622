package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Tier tells the selector how a feed's entries are judged.
type Tier string

const (
	TierNormal Tier = "normal"
	TierOdd    Tier = "odd"
)

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	return t == TierNormal || t == TierOdd
}

// Feed is a configured RSS/Atom source.
type Feed struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
	Tier Tier   `json:"tier" yaml:"tier"`
}

// Media is a media:content style attachment.
type Media struct {
	URL  string
	Type string
}

// Enclosure is an RSS enclosure.
type Enclosure struct {
	Href string
	Type string
}

// Link is a typed link as found in Atom entries.
type Link struct {
	Href string
	Rel  string
	Type string
}

// RawEntry is a feed entry as delivered by a Fetcher. Every field is optional.
type RawEntry struct {
	Title        string
	Link         string
	Published    *time.Time
	Updated      *time.Time
	MediaContent []Media
	Enclosures   []Enclosure
	Links        []Link
	Summary      string
	Thumbnail    string
}

// Article is the canonical record that is classified, merged and persisted.
// Its identity is the URL, or the title when the URL is empty.
type Article struct {
	Source      string     `json:"source"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Image       string     `json:"image,omitempty"`
	Polarity    *float64   `json:"polarity,omitempty"`
	Shown       bool       `json:"shown"`
}

// Key returns the dedup identity of the article.
func (a Article) Key() string {
	if a.URL != "" {
		return a.URL
	}
	return a.Title
}

// UnmarshalJSON accepts the canonical shape as well as the older "link"/"date"
// field names used by earlier versions of the articles file.
func (a *Article) UnmarshalJSON(data []byte) error {
	type canonical Article
	var aux struct {
		canonical
		Link string `json:"link"`
		Date string `json:"date"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*a = Article(aux.canonical)
	if a.URL == "" {
		a.URL = aux.Link
	}
	if a.PublishedAt == nil && aux.Date != "" {
		if t, ok := parseLegacyDate(aux.Date); ok {
			a.PublishedAt = &t
		}
	}
	return nil
}

var legacyDateLayouts = []string{
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
}

func parseLegacyDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range legacyDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Fetcher retrieves the raw entries of a single feed URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]RawEntry, error)
}

// Batch is the outcome of fetching one feed.
type Batch struct {
	Feed    Feed
	Entries []RawEntry
	Err     error
}

func (b Batch) String() string {
	if b.Err != nil {
		return fmt.Sprintf("%s: error: %v", b.Feed.Name, b.Err)
	}
	return fmt.Sprintf("%s: %d entries", b.Feed.Name, len(b.Entries))
}
