package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/elonfeng/toughnews/internal/config"
	"github.com/elonfeng/toughnews/pkg/source"
)

func TestBuildAlertManager(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, false, buildAlertManager(cfg).HasNotifiers())

	cfg.Alerts.Webhook.Enabled = true
	assert.Equal(t, false, buildAlertManager(cfg).HasNotifiers())

	cfg.Alerts.Webhook.URL = "https://hooks.test"
	assert.Equal(t, true, buildAlertManager(cfg).HasNotifiers())
}

func TestBuildClassifier(t *testing.T) {
	cfg := config.Default()
	cfg.Filter.Sentiment = "none"
	c := buildClassifier(cfg)
	assert.Equal(t, true, c.IsBadNews("Earthquake kills 50 in region"))
	assert.Equal(t, 0.0, c.Polarity("Horrible, terrible, awful tragedy"))
}

func TestPrintArticles(t *testing.T) {
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	err := printArticles(&buf, []source.Article{
		{Source: "BBC News", Title: "Earthquake hits coast", URL: "https://bbc.test/1", PublishedAt: &ts, Shown: true},
		{Source: "Odd", Title: "Untitled link"},
	})
	assert.Equal(t, nil, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, 3, len(lines))
	if !strings.Contains(lines[1], "2025-03-01T12:00:00Z") || !strings.HasPrefix(lines[1], "yes") {
		t.Errorf("unexpected row: %q", lines[1])
	}
	if !strings.HasSuffix(lines[2], "Untitled link") {
		t.Errorf("expected title as key for link-less article: %q", lines[2])
	}
}
