package store

import (
	"fmt"

	"github.com/hydraradius/hydraradius/internal/config"
)

// ServerRecord is a persisted server-table entry, grounded on the
// teacher's database.UpstreamServer shape.
type ServerRecord struct {
	ID                   int64
	Address              string
	Secret               string
	RetransTimeInitMs    int64
	RetransTimeMaxMs     int64
	RetransDurationMaxMs int64
	RetransCountMax      int
	Enabled              bool
	Priority             int
}

// AddServer inserts a new server-table entry.
func (s *Store) AddServer(rec ServerRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.conn.Exec(
		`INSERT INTO servers (address, secret, retrans_time_init_ms, retrans_time_max_ms,
			retrans_duration_max_ms, retrans_count_max, enabled, priority)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Address, rec.Secret, rec.RetransTimeInitMs, rec.RetransTimeMaxMs,
		rec.RetransDurationMaxMs, rec.RetransCountMax, boolToInt(rec.Enabled), rec.Priority,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to add server: %w", err)
	}
	return result.LastInsertId()
}

// ListServers returns every configured server, in priority order.
func (s *Store) ListServers() ([]ServerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.conn.Query(
		`SELECT id, address, secret, retrans_time_init_ms, retrans_time_max_ms,
			retrans_duration_max_ms, retrans_count_max, enabled, priority
		 FROM servers ORDER BY priority ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}
	defer rows.Close()

	var out []ServerRecord
	for rows.Next() {
		var rec ServerRecord
		var enabled int
		if err := rows.Scan(&rec.ID, &rec.Address, &rec.Secret, &rec.RetransTimeInitMs,
			&rec.RetransTimeMaxMs, &rec.RetransDurationMaxMs, &rec.RetransCountMax,
			&enabled, &rec.Priority); err != nil {
			return nil, fmt.Errorf("failed to scan server row: %w", err)
		}
		rec.Enabled = enabled != 0
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteServerByAddress removes a server-table entry by address.
func (s *Store) DeleteServerByAddress(addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.conn.Exec(`DELETE FROM servers WHERE address = ?`, addr)
	if err != nil {
		return fmt.Errorf("failed to delete server: %w", err)
	}
	return nil
}

// SeedFromConfig populates the server table from a loaded Config,
// skipping addresses already present — the store-from-config bootstrap
// path a fresh database takes on first run, grounded on the teacher's
// database.MigrateFromConfig.
func (s *Store) SeedFromConfig(cfg *config.Config) error {
	existing, err := s.ListServers()
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(existing))
	for _, e := range existing {
		seen[e.Address] = true
	}

	for i, entry := range cfg.ServerList {
		if seen[entry.Address] {
			continue
		}
		_, err := s.AddServer(ServerRecord{
			Address:              entry.Address,
			Secret:               entry.Secret,
			RetransTimeInitMs:    entry.RetransTimeInitMs,
			RetransTimeMaxMs:     entry.RetransTimeMaxMs,
			RetransDurationMaxMs: entry.RetransDurationMaxMs,
			RetransCountMax:      entry.RetransCountMax,
			Enabled:              entry.Enabled,
			Priority:             i,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
