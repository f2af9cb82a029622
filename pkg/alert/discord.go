package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Discord sends notifications via Discord webhook.
type Discord struct {
	client     *http.Client
	webhookURL string
}

// NewDiscord creates a new Discord notifier.
func NewDiscord(webhookURL string) *Discord {
	return &Discord{
		client:     &http.Client{Timeout: 10 * time.Second},
		webhookURL: webhookURL,
	}
}

func (d *Discord) Name() string { return "discord" }

func (d *Discord) Send(ctx context.Context, n *Notification) error {
	var lines []string
	for _, a := range n.listed() {
		lines = append(lines, fmt.Sprintf("• [%s](%s) [%s]", a.Title, a.URL, a.Source))
	}

	embed := map[string]any{
		"title":       n.Title,
		"description": strings.TrimSpace(n.Body + "\n\n" + strings.Join(lines, "\n")),
		"color":       0xB22222,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	}
	if len(n.Articles) > 0 && n.Articles[0].Image != "" {
		embed["thumbnail"] = map[string]any{"url": n.Articles[0].Image}
	}

	body, err := json.Marshal(map[string]any{"embeds": []map[string]any{embed}})
	if err != nil {
		return fmt.Errorf("marshal discord payload: %w", err)
	}
	return postJSON(ctx, d.client, "discord webhook", d.webhookURL, body, nil)
}
