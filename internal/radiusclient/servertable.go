package radiusclient

import (
	"net"
	"sync"
)

// server is the resolved, in-memory form of a ServerSettings entry.
type server struct {
	addr    *net.UDPAddr
	secret  []byte
	retrans RetransPolicy
	enabled bool
}

// serverTable is the process-wide, mutex-guarded ordered list of
// configured upstream servers (spec.md section 4.1). Position is
// priority: lower index is tried first. Reads are short O(n) scans over
// a small (tens) list; writes are rare (add/remove via the management
// API, never from the hot path).
type serverTable struct {
	mu      sync.Mutex
	servers []*server
	max     int // capacity, rounded up to a multiple of 4
}

func newServerTable(maxCapacity int) *serverTable {
	if maxCapacity <= 0 {
		maxCapacity = 4
	}
	if rem := maxCapacity % 4; rem != 0 {
		maxCapacity += 4 - rem
	}
	return &serverTable{max: maxCapacity}
}

// add appends a new server, marking it enabled. Returns ErrTooManyLinks
// if the table is already at capacity.
func (t *serverTable) add(ss ServerSettings) (*server, error) {
	addr, err := net.ResolveUDPAddr("udp", ss.Address)
	if err != nil {
		return nil, &IOError{Op: "resolve", Err: err}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.servers) >= t.max {
		return nil, ErrTooManyLinks
	}
	s := &server{addr: addr, secret: ss.Secret, retrans: ss.Retrans, enabled: true}
	t.servers = append(t.servers, s)
	return s, nil
}

// remove deletes s from the table, shifting the tail left to preserve
// relative order of survivors. The boundary fix for the empty-table case
// (spec.md section 9, Open Question 2) is: when the removal empties the
// table, the zero-out-tail step is simply the append-based shrink below,
// which has no out-of-bounds access to skip — Go slices make the C-style
// "zero srv[count-1] after decrement" bookkeeping unnecessary, but the
// *semantic* boundary (never touch an index that no longer exists) is
// preserved by bounding the loop to len(t.servers) before trimming.
func (t *serverTable) remove(s *server) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.removeLocked(s)
}

func (t *serverTable) removeLocked(s *server) {
	for i, cur := range t.servers {
		if cur == s {
			t.servers = append(t.servers[:i], t.servers[i+1:]...)
			return
		}
	}
}

// removeByAddr removes the first server matching addr, if any.
func (t *serverTable) removeByAddr(addr string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, cur := range t.servers {
		if cur.addr.String() == addr {
			t.servers = append(t.servers[:i], t.servers[i+1:]...)
			return true
		}
	}
	return false
}

// nextEnabled scans forward from idx (inclusive) for the first enabled
// server, returning its resolved pointer and table index. Returns
// ErrConnectionRefused if none is found.
func (t *serverTable) nextEnabled(idx int) (*server, int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := idx; i < len(t.servers); i++ {
		if t.servers[i].enabled {
			return t.servers[i], i, nil
		}
	}
	return nil, 0, ErrConnectionRefused
}

func (t *serverTable) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.servers)
}

// snapshot returns a copy of the table for read-only display (the
// management API's GET /api/v1/servers).
func (t *serverTable) snapshot() []ServerSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]ServerSnapshot, len(t.servers))
	for i, s := range t.servers {
		out[i] = ServerSnapshot{
			Address: s.addr.String(),
			Enabled: s.enabled,
			Retrans: s.retrans,
		}
	}
	return out
}

// ServerSnapshot is the read-only view of a configured server exposed to
// callers outside the package (e.g. the management API).
type ServerSnapshot struct {
	Address string
	Enabled bool
	Retrans RetransPolicy
}
