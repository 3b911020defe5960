package capture

import (
	"sync"

	"github.com/probeops/pagetap/pkg/metrics"
)

// Store owns the three capped telemetry sequences for one session.
//
// Logs are kept oldest-first (append, trim front); clicks and
// navigations are kept newest-first (prepend, trim end) because they
// are read most-recent-first during live debugging. Insertion never
// fails: capacity is enforced by evicting the logically oldest records,
// not by rejecting new ones.
//
// CDP events arrive on their own goroutines while queries read
// concurrently, so the store is mutex-guarded and every read method
// returns a copy. A query therefore describes a stable snapshot even
// when enrichment suspends on a page round-trip mid-request.
type Store struct {
	mu          sync.RWMutex
	logs        []LogRecord
	clicks      []ClickRecord
	navigations []NavigationRecord

	logEvictions   int64
	clickEvictions int64
	navEvictions   int64
}

// NewStore returns an empty store. Sequences live for the process
// lifetime; there is no way to clear or destroy them.
func NewStore() *Store {
	return &Store{}
}

// AppendLog appends rec to the log sequence, evicting from the front
// when the sequence would exceed MaxLogs.
func (s *Store) AppendLog(rec LogRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logs = append(s.logs, rec)
	if n := len(s.logs) - MaxLogs; n > 0 {
		s.logs = append(s.logs[:0], s.logs[n:]...)
		s.logEvictions += int64(n)
		metrics.AddEvicted("log", n)
	}
	metrics.IncCaptured("log")
}

// PushClick prepends rec to the click sequence so index 0 is always the
// most recent click, evicting from the end (the oldest records) when
// the sequence would exceed MaxClicks.
func (s *Store) PushClick(rec ClickRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clicks = append([]ClickRecord{rec}, s.clicks...)
	if n := len(s.clicks) - MaxClicks; n > 0 {
		s.clicks = s.clicks[:MaxClicks]
		s.clickEvictions += int64(n)
		metrics.AddEvicted("click", n)
	}
	metrics.IncCaptured("click")
}

// PushNavigation records a navigation with the same discipline as
// clicks: newest-first, capped at MaxNavigations.
func (s *Store) PushNavigation(rec NavigationRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.navigations = append([]NavigationRecord{rec}, s.navigations...)
	if n := len(s.navigations) - MaxNavigations; n > 0 {
		s.navigations = s.navigations[:MaxNavigations]
		s.navEvictions += int64(n)
		metrics.AddEvicted("navigation", n)
	}
	metrics.IncCaptured("navigation")
}

// Logs returns a snapshot copy of the log sequence, oldest first.
func (s *Store) Logs() []LogRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]LogRecord, len(s.logs))
	copy(out, s.logs)
	return out
}

// Clicks returns a snapshot copy of the click sequence, newest first.
func (s *Store) Clicks() []ClickRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ClickRecord, len(s.clicks))
	copy(out, s.clicks)
	return out
}

// Navigations returns a snapshot copy of the navigation sequence,
// newest first.
func (s *Store) Navigations() []NavigationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]NavigationRecord, len(s.navigations))
	copy(out, s.navigations)
	return out
}

// BufferStats reports the occupancy of one capped sequence.
type BufferStats struct {
	Length   int   `json:"length"`
	Capacity int   `json:"capacity"`
	Evicted  int64 `json:"evicted"`
}

// Stats describes all three sequences for the status endpoint.
type Stats struct {
	Logs        BufferStats `json:"logs"`
	Clicks      BufferStats `json:"clicks"`
	Navigations BufferStats `json:"navigations"`
}

// Stats returns current buffer occupancy and lifetime eviction totals.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Logs:        BufferStats{Length: len(s.logs), Capacity: MaxLogs, Evicted: s.logEvictions},
		Clicks:      BufferStats{Length: len(s.clicks), Capacity: MaxClicks, Evicted: s.clickEvictions},
		Navigations: BufferStats{Length: len(s.navigations), Capacity: MaxNavigations, Evicted: s.navEvictions},
	}
}
