package source

import (
	"regexp"
	"strings"
	"time"
)

// DefaultTitle is used for entries that arrive without a title.
const DefaultTitle = "No Title"

// Normalize converts a raw entry into an article. fetchedAt dates entries that
// carry neither a published nor an updated timestamp.
func Normalize(entry RawEntry, sourceName string, fetchedAt time.Time) Article {
	title := strings.TrimSpace(entry.Title)
	if title == "" {
		title = DefaultTitle
	}

	published := fetchedAt.UTC()
	if t := EntryTime(entry); !t.IsZero() {
		published = t
	}

	return Article{
		Source:      sourceName,
		Title:       title,
		URL:         strings.TrimSpace(entry.Link),
		PublishedAt: &published,
		Image:       ResolveImage(entry),
	}
}

// EntryTime returns the entry's own timestamp, published before updated, or
// the zero time when it has neither.
func EntryTime(entry RawEntry) time.Time {
	if entry.Published != nil && !entry.Published.IsZero() {
		return entry.Published.UTC()
	}
	if entry.Updated != nil && !entry.Updated.IsZero() {
		return entry.Updated.UTC()
	}
	return time.Time{}
}

// SortTime is the recency sort key: the published time only. Entries without
// one sort last, even when they carry an updated time.
func SortTime(entry RawEntry) time.Time {
	if entry.Published != nil {
		return entry.Published.UTC()
	}
	return time.Time{}
}

var imgSrcPattern = regexp.MustCompile(`<img[^>]+src="([^">]+)"`)

// ResolveImage picks a representative image URL for the entry, or "".
func ResolveImage(entry RawEntry) string {
	if len(entry.MediaContent) > 0 {
		return entry.MediaContent[0].URL
	}
	if len(entry.Enclosures) > 0 {
		return entry.Enclosures[0].Href
	}
	for _, l := range entry.Links {
		if l.Rel == "enclosure" && strings.Contains(l.Type, "image") {
			return l.Href
		}
	}
	if strings.Contains(entry.Summary, "img") {
		if m := imgSrcPattern.FindStringSubmatch(entry.Summary); m != nil {
			return m[1]
		}
	}
	return entry.Thumbnail
}
