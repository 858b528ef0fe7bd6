package store

import (
	"fmt"
	"time"

	"github.com/hydraradius/hydraradius/internal/radiusclient"
)

// StatsHistoryEntry is one recorded Stats snapshot.
type StatsHistoryEntry struct {
	RecordedAt time.Time
	radiusclient.StatsSnapshot
}

// RecordStatsSnapshot appends a Stats snapshot to the rolling history
// table, grounded on the teacher's version-counter trigger pattern in
// database/db.go — repurposed here as a plain timestamped append-only
// table instead of a single-row config version.
func (s *Store) RecordStatsSnapshot(at time.Time, snap radiusclient.StatsSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.conn.Exec(
		`INSERT INTO stats_history (recorded_at, queries_sent, retransmits, failovers,
			timed_out, completed, dropped, avg_latency_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		at.UTC().Format(time.RFC3339Nano),
		snap.QueriesSent, snap.Retransmits, snap.Failovers, snap.TimedOut,
		snap.Completed, snap.Dropped, snap.AvgLatencyMs,
	)
	if err != nil {
		return fmt.Errorf("failed to record stats snapshot: %w", err)
	}
	return nil
}

// StatsHistory returns up to limit of the most recent snapshots, newest
// first.
func (s *Store) StatsHistory(limit int) ([]StatsHistoryEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.conn.Query(
		`SELECT recorded_at, queries_sent, retransmits, failovers, timed_out, completed,
			dropped, avg_latency_ms
		 FROM stats_history ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats history: %w", err)
	}
	defer rows.Close()

	var out []StatsHistoryEntry
	for rows.Next() {
		var e StatsHistoryEntry
		var recordedAt string
		if err := rows.Scan(&recordedAt, &e.QueriesSent, &e.Retransmits, &e.Failovers,
			&e.TimedOut, &e.Completed, &e.Dropped, &e.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("failed to scan stats history row: %w", err)
		}
		e.RecordedAt, _ = time.Parse(time.RFC3339Nano, recordedAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

// PruneStatsHistory deletes all but the keep most recent rows; callers
// run this periodically to bound table growth.
func (s *Store) PruneStatsHistory(keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.conn.Exec(
		`DELETE FROM stats_history WHERE id NOT IN (
			SELECT id FROM stats_history ORDER BY id DESC LIMIT ?
		)`, keep,
	)
	return err
}
