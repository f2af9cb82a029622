package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Slack sends notifications via Slack incoming webhook.
type Slack struct {
	client     *http.Client
	webhookURL string
}

// NewSlack creates a new Slack notifier.
func NewSlack(webhookURL string) *Slack {
	return &Slack{
		client:     &http.Client{Timeout: 10 * time.Second},
		webhookURL: webhookURL,
	}
}

func (s *Slack) Name() string { return "slack" }

func (s *Slack) Send(ctx context.Context, n *Notification) error {
	blocks := []map[string]any{
		{
			"type": "header",
			"text": map[string]any{"type": "plain_text", "text": n.Title},
		},
		{
			"type": "section",
			"text": map[string]any{"type": "mrkdwn", "text": n.Body},
		},
	}

	if listed := n.listed(); len(listed) > 0 {
		var elements []map[string]any
		for _, a := range listed {
			text := fmt.Sprintf("%s [%s]", a.Title, a.Source)
			if a.URL != "" {
				text = fmt.Sprintf("<%s|%s> [%s]", a.URL, a.Title, a.Source)
			}
			elements = append(elements, map[string]any{"type": "mrkdwn", "text": text})
		}
		blocks = append(blocks, map[string]any{"type": "context", "elements": elements})
	}

	body, err := json.Marshal(map[string]any{"blocks": blocks})
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}
	return postJSON(ctx, s.client, "slack webhook", s.webhookURL, body, nil)
}
