package source

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

const userAgent = "Mozilla/5.0 (compatible; toughnews/1.0)"

// RSS fetches RSS/Atom feeds over HTTP and parses them with gofeed.
type RSS struct {
	client *http.Client
	parser *gofeed.Parser
}

// NewRSS creates a new RSS fetcher. A zero timeout means 30 seconds.
func NewRSS(timeout time.Duration) *RSS {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RSS{
		client: &http.Client{Timeout: timeout},
		parser: gofeed.NewParser(),
	}
}

func (r *RSS) Fetch(ctx context.Context, url string) ([]RawEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create feed request %s: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s status %d", url, resp.StatusCode)
	}

	parsed, err := r.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", url, err)
	}

	entries := make([]RawEntry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		entries = append(entries, fromGofeed(item))
	}
	return entries, nil
}

func fromGofeed(item *gofeed.Item) RawEntry {
	entry := RawEntry{
		Title:     item.Title,
		Link:      item.Link,
		Published: item.PublishedParsed,
		Updated:   item.UpdatedParsed,
		Summary:   item.Description,
	}
	if entry.Link == "" && len(item.Links) > 0 {
		entry.Link = item.Links[0]
	}
	if entry.Summary == "" {
		entry.Summary = item.Content
	}

	// gofeed already turns rel="enclosure" links into Enclosures and keeps
	// only hrefs in Links, so typed Links are left to other fetchers.
	for _, enc := range item.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		entry.Enclosures = append(entry.Enclosures, Enclosure{Href: enc.URL, Type: enc.Type})
	}

	if media, ok := item.Extensions["media"]; ok {
		for _, c := range media["content"] {
			if u := c.Attrs["url"]; u != "" {
				entry.MediaContent = append(entry.MediaContent, Media{URL: u, Type: c.Attrs["type"]})
			}
		}
		for _, th := range media["thumbnail"] {
			if u := th.Attrs["url"]; u != "" {
				entry.Thumbnail = u
				break
			}
		}
	}
	if entry.Thumbnail == "" && item.Image != nil {
		entry.Thumbnail = item.Image.URL
	}

	return entry
}
