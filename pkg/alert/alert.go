package alert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/elonfeng/toughnews/pkg/source"
)

// maxListed caps the headlines rendered into chat messages.
const maxListed = 5

// Notification is the data sent to alert destinations after a run.
type Notification struct {
	Title    string           `json:"title"`
	Body     string           `json:"body"`
	Added    int              `json:"added"`
	Total    int              `json:"total"`
	Articles []source.Article `json:"articles"`
}

// ForRun builds the notification for a run that added articles.
func ForRun(added []source.Article, total int) *Notification {
	return &Notification{
		Title:    fmt.Sprintf("%d new tough news %s", len(added), plural(len(added), "story", "stories")),
		Body:     fmt.Sprintf("%d added, %d stored in total", len(added), total),
		Added:    len(added),
		Total:    total,
		Articles: added,
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// listed returns the first few articles for chat rendering.
func (n *Notification) listed() []source.Article {
	if len(n.Articles) <= maxListed {
		return n.Articles
	}
	return n.Articles[:maxListed]
}

// Notifier delivers alerts to a specific destination.
type Notifier interface {
	Name() string
	Send(ctx context.Context, n *Notification) error
}

// Manager broadcasts notifications to all registered notifiers.
type Manager struct {
	notifiers []Notifier
}

// NewManager creates a new alert manager.
func NewManager(notifiers []Notifier) *Manager {
	return &Manager{notifiers: notifiers}
}

// HasNotifiers returns true if at least one notifier is configured.
func (m *Manager) HasNotifiers() bool {
	return m != nil && len(m.notifiers) > 0
}

// Broadcast sends a notification to all registered notifiers.
func (m *Manager) Broadcast(ctx context.Context, n *Notification) error {
	if m == nil {
		return nil
	}
	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func postJSON(ctx context.Context, client *http.Client, name, url string, body []byte, header http.Header) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "toughnews/1.0")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s status %d", name, resp.StatusCode)
	}
	return nil
}
