package auth

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// flushInterval debounces ledger writes; the in-memory map is the source
// of truth between flushes.
const flushInterval = 30 * time.Second

// usageEntry is one identifier's stored counter.
type usageEntry struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// UsageLedger tracks per-identifier monthly query counts. Counters live
// in memory and flush to disk at most once per interval, last writer
// wins. Rollover is checked against the current UTC month on every call.
type UsageLedger struct {
	mu        sync.Mutex
	path      string
	month     string
	counts    map[string]int
	lastFlush time.Time
	dirty     bool
	logger    *slog.Logger

	// now is swappable in tests.
	now func() time.Time
}

// NewUsageLedger opens (or will create) the usage file at path.
func NewUsageLedger(path string, logger *slog.Logger) *UsageLedger {
	if logger == nil {
		logger = slog.Default()
	}
	return &UsageLedger{
		path:   path,
		counts: map[string]int{},
		logger: logger,
		now:    time.Now,
	}
}

func currentMonth(t time.Time) string { return t.UTC().Format("2006-01") }

// CheckAndIncrement enforces the monthly quota for identifier at the
// given tier. The returned count is post-increment when allowed and the
// untouched count when the quota is exhausted.
func (u *UsageLedger) CheckAndIncrement(identifier string, tier Tier) (allowed bool, count, limit int) {
	limit = QuotaLimit(tier)

	u.mu.Lock()
	defer u.mu.Unlock()

	month := currentMonth(u.now())
	if u.month != month {
		u.counts = map[string]int{}
		u.month = month
		u.dirty = true
	}

	c, ok := u.counts[identifier]
	if !ok {
		c = u.loadFromDisk(identifier, month)
		u.counts[identifier] = c
	}

	if c >= limit {
		return false, c, limit
	}

	c++
	u.counts[identifier] = c
	u.dirty = true
	u.maybeFlush()
	return true, c, limit
}

// Counts returns a copy of the current month's counters.
func (u *UsageLedger) Counts() (string, map[string]int) {
	u.mu.Lock()
	defer u.mu.Unlock()

	month := currentMonth(u.now())
	if u.month != month {
		u.counts = map[string]int{}
		u.month = month
	}

	// Merge on-disk identifiers not yet touched this process.
	for id, e := range u.readFile() {
		if e.Month != month {
			continue
		}
		if _, ok := u.counts[id]; !ok {
			u.counts[id] = e.Count
		}
	}

	out := make(map[string]int, len(u.counts))
	for id, c := range u.counts {
		out[id] = c
	}
	return month, out
}

// loadFromDisk fetches one identifier's stored count for month. Caller
// holds the lock.
func (u *UsageLedger) loadFromDisk(identifier, month string) int {
	e, ok := u.readFile()[identifier]
	if !ok || e.Month != month {
		return 0
	}
	return e.Count
}

func (u *UsageLedger) readFile() map[string]usageEntry {
	data, err := os.ReadFile(u.path)
	if err != nil {
		return nil
	}
	entries := map[string]usageEntry{}
	if err := json.Unmarshal(data, &entries); err != nil {
		u.logger.Warn("usage file unreadable, treating as empty",
			slog.String("error", err.Error()))
		return nil
	}
	return entries
}

// maybeFlush writes the map when dirty and the debounce window elapsed.
// Caller holds the lock.
func (u *UsageLedger) maybeFlush() {
	if !u.dirty || u.now().Sub(u.lastFlush) < flushInterval {
		return
	}
	if err := u.flushLocked(); err != nil {
		u.logger.Warn("usage flush failed", slog.String("error", err.Error()))
	}
}

// Flush forces a write regardless of the debounce window.
func (u *UsageLedger) Flush() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.dirty {
		return nil
	}
	return u.flushLocked()
}

func (u *UsageLedger) flushLocked() error {
	entries := make(map[string]usageEntry, len(u.counts))
	for id, c := range u.counts {
		entries[id] = usageEntry{Month: u.month, Count: c}
	}

	if err := os.MkdirAll(filepath.Dir(u.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	tmp := u.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, u.path); err != nil {
		return fmt.Errorf("replace usage file: %w", err)
	}

	u.lastFlush = u.now()
	u.dirty = false
	return nil
}
