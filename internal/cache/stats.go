package cache

import (
	"sync"
	"time"
)

// latencyWindowSize bounds the retrieval latency sample window so stats
// never grow with the number of lookups.
const latencyWindowSize = 500

// Stats tracks cache effectiveness counters and a rolling retrieval
// latency window. Safe for concurrent use.
type Stats struct {
	mu        sync.Mutex
	hits      int64
	misses    int64
	writes    int64
	evictions int64

	latencies []time.Duration
	next      int
	filled    bool
}

// StatsSnapshot is an immutable copy of cache statistics.
type StatsSnapshot struct {
	Hits             int64         `json:"hits"`
	Misses           int64         `json:"misses"`
	Writes           int64         `json:"writes"`
	Evictions        int64         `json:"evictions"`
	HitRate          float64       `json:"hit_rate"`
	AvgRetrievalTime time.Duration `json:"avg_retrieval_time"`
}

func newStats() *Stats {
	return &Stats{latencies: make([]time.Duration, latencyWindowSize)}
}

func (s *Stats) hit() {
	s.mu.Lock()
	s.hits++
	s.mu.Unlock()
}

func (s *Stats) miss() {
	s.mu.Lock()
	s.misses++
	s.mu.Unlock()
}

func (s *Stats) write() {
	s.mu.Lock()
	s.writes++
	s.mu.Unlock()
}

func (s *Stats) evict() {
	s.mu.Lock()
	s.evictions++
	s.mu.Unlock()
}

// observeLatency records one retrieval duration into the ring buffer.
func (s *Stats) observeLatency(d time.Duration) {
	s.mu.Lock()
	s.latencies[s.next] = d
	s.next++
	if s.next == len(s.latencies) {
		s.next = 0
		s.filled = true
	}
	s.mu.Unlock()
}

// snapshot copies the current counters and derives hit rate and average
// retrieval latency over the bounded window.
func (s *Stats) snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := StatsSnapshot{
		Hits:      s.hits,
		Misses:    s.misses,
		Writes:    s.writes,
		Evictions: s.evictions,
	}
	if total := s.hits + s.misses; total > 0 {
		snap.HitRate = float64(s.hits) / float64(total)
	}

	n := s.next
	if s.filled {
		n = len(s.latencies)
	}
	if n > 0 {
		var sum time.Duration
		for i := 0; i < n; i++ {
			sum += s.latencies[i]
		}
		snap.AvgRetrievalTime = sum / time.Duration(n)
	}
	return snap
}
