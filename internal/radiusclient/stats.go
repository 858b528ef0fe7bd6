package radiusclient

import "sync/atomic"

// Stats holds process-wide scheduler counters, grounded on the teacher's
// internal/server/stats.go DNSStats: atomic.Uint64 fields updated off
// the hot path's lock, snapshotted into a plain value for reporting.
type Stats struct {
	QueriesSent    atomic.Uint64
	Retransmits    atomic.Uint64
	Failovers      atomic.Uint64
	TimedOut       atomic.Uint64
	Completed      atomic.Uint64
	Dropped        atomic.Uint64 // spurious datagrams: unknown id, wrong source, bad signature
	LatencyTotalNs atomic.Uint64
}

// StatsSnapshot is an immutable point-in-time copy of Stats, safe to hand
// to the management API.
type StatsSnapshot struct {
	QueriesSent   uint64
	Retransmits   uint64
	Failovers     uint64
	TimedOut      uint64
	Completed     uint64
	Dropped       uint64
	AvgLatencyMs  float64
}

// Snapshot reads all counters and computes the derived average latency.
func (s *Stats) Snapshot() StatsSnapshot {
	completed := s.Completed.Load()
	totalNs := s.LatencyTotalNs.Load()
	var avgMs float64
	if completed > 0 {
		avgMs = float64(totalNs) / float64(completed) / 1e6
	}
	return StatsSnapshot{
		QueriesSent:  s.QueriesSent.Load(),
		Retransmits:  s.Retransmits.Load(),
		Failovers:    s.Failovers.Load(),
		TimedOut:     s.TimedOut.Load(),
		Completed:    s.Completed.Load(),
		Dropped:      s.Dropped.Load(),
		AvgLatencyMs: avgMs,
	}
}

func (s *Stats) recordLatency(ns int64) {
	s.Completed.Add(1)
	s.LatencyTotalNs.Add(uint64(ns))
}
