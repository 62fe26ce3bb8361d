// Package history keeps the keys of notifications already delivered so a
// re-run for the same draw or ticket email can be skipped.
package history

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"lottery-hub/internal/apperr"
)

const defaultFile = "lottery-hub-history.json"

type entry struct {
	Key    string    `json:"key"`
	SentAt time.Time `json:"sent_at"`
}

type fileFormat struct {
	Entries []entry `json:"entries"`
}

// Ledger is a JSON file of delivered notification keys.
type Ledger struct {
	mu      sync.Mutex
	path    string
	entries map[string]time.Time
	now     func() time.Time
	logger  *zap.Logger
}

// Open loads the ledger at path, or the default file under the system temp
// directory when path is empty. A missing file is an empty ledger.
func Open(path string, logger *zap.Logger) (*Ledger, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path == "" {
		path = filepath.Join(os.TempDir(), defaultFile)
	}

	l := &Ledger{
		path:    path,
		entries: make(map[string]time.Time),
		now:     time.Now,
		logger:  logger,
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return l, nil
	}
	if err != nil {
		return nil, apperr.Configuration(err, "read history file %s", path)
	}
	if len(raw) == 0 {
		return l, nil
	}

	var stored fileFormat
	if err := sonic.Unmarshal(raw, &stored); err != nil {
		return nil, apperr.Parse(err, "decode history file %s", path)
	}
	for _, e := range stored.Entries {
		l.entries[e.Key] = e.SentAt
	}

	logger.Debug("History loaded", zap.String("path", path), zap.Int("entries", len(l.entries)))
	return l, nil
}

func (l *Ledger) Seen(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.entries[key]
	return ok
}

// Record stores key and rewrites the file atomically.
func (l *Ledger) Record(key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries[key] = l.now().UTC()

	stored := fileFormat{Entries: make([]entry, 0, len(l.entries))}
	for k, sentAt := range l.entries {
		stored.Entries = append(stored.Entries, entry{Key: k, SentAt: sentAt})
	}
	sort.Slice(stored.Entries, func(i, j int) bool {
		return stored.Entries[i].Key < stored.Entries[j].Key
	})

	raw, err := sonic.ConfigStd.MarshalIndent(stored, "", "  ")
	if err != nil {
		return apperr.Parse(err, "encode history")
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return apperr.Configuration(err, "create history directory")
	}
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return apperr.Configuration(err, "write history file %s", tmp)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return apperr.Configuration(err, "replace history file %s", l.path)
	}

	l.logger.Debug("Notification recorded", zap.String("key", key))
	return nil
}
