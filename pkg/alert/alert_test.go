package alert

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/elonfeng/toughnews/pkg/source"
)

func sampleNotification() *Notification {
	return ForRun([]source.Article{
		{Source: "BBC News", Title: "Earthquake hits coast", URL: "https://bbc.test/1", Image: "https://img.test/1.jpg"},
		{Source: "CBC", Title: "Wildfire spreads", URL: "https://cbc.test/2"},
	}, 10)
}

func capture(t *testing.T, status int) (*httptest.Server, *[]byte, *http.Header) {
	t.Helper()
	var body []byte
	var header http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		header = r.Header.Clone()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &body, &header
}

func TestForRun(t *testing.T) {
	n := sampleNotification()
	assert.Equal(t, "2 new tough news stories", n.Title)
	assert.Equal(t, 2, n.Added)
	assert.Equal(t, 10, n.Total)

	one := ForRun([]source.Article{{Title: "x"}}, 1)
	assert.Equal(t, "1 new tough news story", one.Title)
}

func TestWebhook_SignsBody(t *testing.T) {
	srv, body, header := capture(t, http.StatusOK)

	err := NewWebhook(srv.URL, "s3cret").Send(context.Background(), sampleNotification())
	assert.Equal(t, nil, err)

	var got Notification
	assert.Equal(t, nil, json.Unmarshal(*body, &got))
	assert.Equal(t, 2, len(got.Articles))
	assert.Equal(t, "sha256="+Sign("s3cret", *body), header.Get(SignatureHeader))
	assert.Equal(t, "application/json", header.Get("Content-Type"))
}

func TestSlack_ListsHeadlines(t *testing.T) {
	srv, body, _ := capture(t, http.StatusOK)

	err := NewSlack(srv.URL).Send(context.Background(), sampleNotification())
	assert.Equal(t, nil, err)

	var payload struct {
		Blocks []struct {
			Type     string `json:"type"`
			Elements []struct {
				Text string `json:"text"`
			} `json:"elements"`
		} `json:"blocks"`
	}
	assert.Equal(t, nil, json.Unmarshal(*body, &payload))
	assert.Equal(t, 3, len(payload.Blocks))
	assert.Equal(t, "context", payload.Blocks[2].Type)
	assert.Equal(t, 2, len(payload.Blocks[2].Elements))
	assert.Equal(t, "<https://bbc.test/1|Earthquake hits coast> [BBC News]", payload.Blocks[2].Elements[0].Text)
}

func TestDiscord_StatusError(t *testing.T) {
	srv, _, _ := capture(t, http.StatusBadRequest)

	err := NewDiscord(srv.URL).Send(context.Background(), sampleNotification())
	assert.NotEqual(t, nil, err)
}

type failing struct{}

func (failing) Name() string { return "failing" }

func (failing) Send(context.Context, *Notification) error {
	return io.ErrUnexpectedEOF
}

func TestManager_BroadcastJoinsErrors(t *testing.T) {
	srv, body, _ := capture(t, http.StatusNoContent)
	m := NewManager([]Notifier{failing{}, NewWebhook(srv.URL, "")})
	assert.Equal(t, true, m.HasNotifiers())

	err := m.Broadcast(context.Background(), sampleNotification())
	if err == nil || !strings.Contains(err.Error(), "failing") {
		t.Fatalf("expected joined error naming the notifier, got %v", err)
	}
	// the healthy notifier still ran
	assert.NotEqual(t, 0, len(*body))

	var empty *Manager
	assert.Equal(t, false, empty.HasNotifiers())
	assert.Equal(t, nil, empty.Broadcast(context.Background(), sampleNotification()))
}
