// Package archive keeps an append-only log of every run's merged articles.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/elonfeng/toughnews/internal/store"
	"github.com/elonfeng/toughnews/pkg/source"
)

// Snapshot is one archived run.
type Snapshot struct {
	Timestamp string           `json:"timestamp"`
	Articles  []source.Article `json:"articles"`
}

// Archiver appends snapshots to the log stored under a single key.
type Archiver struct {
	store  store.Store
	key    string
	logger *log.Logger
	now    func() time.Time
}

// New creates an archiver writing to key in s.
func New(s store.Store, key string, logger *log.Logger) *Archiver {
	if key == "" {
		key = "archive"
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Archiver{store: s, key: key, logger: logger, now: time.Now}
}

// Append adds a snapshot of articles stamped with the current time. A
// corrupted log is replaced by a fresh one after logging a warning.
func (a *Archiver) Append(ctx context.Context, articles []source.Article) (Snapshot, error) {
	snap := Snapshot{
		Timestamp: a.now().Format(time.RFC3339),
		Articles:  append([]source.Article{}, articles...),
	}

	err := a.store.Update(ctx, a.key, func(current []byte) ([]byte, error) {
		entries := a.decode(current)
		entries = append(entries, snap)
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal archive: %w", err)
		}
		return data, nil
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("append archive: %w", err)
	}
	return snap, nil
}

// Load returns every snapshot, oldest first.
func (a *Archiver) Load(ctx context.Context) ([]Snapshot, error) {
	data, err := a.store.Get(ctx, a.key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load archive: %w", err)
	}
	return a.decode(data), nil
}

// Recent returns up to limit snapshots, newest first. limit <= 0 means all.
func (a *Archiver) Recent(ctx context.Context, limit int) ([]Snapshot, error) {
	all, err := a.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Snapshot, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, all[i])
	}
	return out, nil
}

func (a *Archiver) decode(data []byte) []Snapshot {
	if len(data) == 0 {
		return nil
	}
	var entries []Snapshot
	if err := json.Unmarshal(data, &entries); err != nil {
		a.logger.Warn("archive unreadable, starting a new log", "key", a.key, "err", err)
		return nil
	}
	return entries
}
