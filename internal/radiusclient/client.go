// Package radiusclient implements an asynchronous, multi-server RADIUS
// client: per-thread socket pools, 256-slot identifier tables keyed by
// the RADIUS identifier byte, a per-query retransmission state machine
// with jittered backoff, and cross-thread completion dispatch. See
// client.go for the process-wide entry points and reactor.go for the
// cooperative single-threaded event loop each I/O thread runs.
package radiusclient

import (
	"log/slog"
	"sync/atomic"
)

// Client is the process-wide singleton-instance described in spec.md
// section 3: immutable settings, a mutex-guarded server table, and one
// I/O thread descriptor per configured worker.
type Client struct {
	settings Settings
	table    *serverTable
	threads  []*ioThread
	next     atomic.Uint64 // round-robin cursor over threads

	stats  *Stats
	logger *slog.Logger
}

// Create builds a Client and starts its I/O reactors. Each reactor runs
// in its own goroutine until Destroy is called.
func Create(settings Settings, logger *slog.Logger) (*Client, error) {
	if settings.Threads <= 0 {
		settings.Threads = 1
	}
	if settings.ThrSocketsMin <= 0 {
		settings.ThrSocketsMin = 1
	}
	if settings.ThrSocketsMax < settings.ThrSocketsMin {
		settings.ThrSocketsMax = settings.ThrSocketsMin
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		settings: settings,
		table:    newServerTable(settings.ServersMax),
		stats:    &Stats{},
		logger:   logger,
	}

	c.threads = make([]*ioThread, settings.Threads)
	for i := range c.threads {
		t := newIOThread(i, c)
		c.threads[i] = t
		go t.run()
	}
	return c, nil
}

// Destroy broadcasts a synchronous shutdown to every I/O thread: each
// completes its bound queries with ErrInterrupted and closes its
// sockets before Destroy returns (spec.md section 5, "Shutdown"). No
// query outlives the client.
func (c *Client) Destroy() {
	dones := make([]chan struct{}, len(c.threads))
	for i, t := range c.threads {
		done := make(chan struct{})
		dones[i] = done
		t.events <- shutdownEvent{done: done}
	}
	for _, done := range dones {
		<-done
	}
}

// Stats returns the process-wide scheduler counters.
func (c *Client) Stats() *Stats { return c.stats }

// ServerAdd appends a new upstream to the server table.
func (c *Client) ServerAdd(ss ServerSettings) error {
	_, err := c.table.add(ss)
	return err
}

// ServerRemoveByAddr removes the first configured server matching addr.
func (c *Client) ServerRemoveByAddr(addr string) bool {
	return c.table.removeByAddr(addr)
}

// Servers returns a read-only snapshot of the configured server table.
func (c *Client) Servers() []ServerSnapshot { return c.table.snapshot() }

// Query submits request for delivery, returning a handle that Cancel can
// later act on. id is either an explicit identifier in [0,255] or
// QueryIDAuto. disp, if non-nil, is used to hop the completion callback
// back onto the originator's own event loop; if nil, the callback runs
// inline on the owning I/O reactor goroutine.
//
// Synchronous errors (ErrInvalidArgument, ErrTryAgain,
// ErrConnectionRefused, IOError) are returned directly, matching
// spec.md section 7's propagation policy; everything after submission
// is delivered only via cb.
func (c *Client) Query(disp Dispatcher, id int, request []byte, cb CompletionFunc, udata any) (*Query, error) {
	if cb == nil || request == nil {
		return nil, ErrInvalidArgument
	}
	if id != QueryIDAuto && (id < 0 || id > 255) {
		return nil, ErrInvalidArgument
	}

	t := c.threads[c.next.Add(1)%uint64(len(c.threads))]

	q := &Query{
		client:     c,
		originator: t,
		queryIDAny: id == QueryIDAuto,
		request:    request,
		cb:         cb,
		udata:      udata,
		dispatcher: disp,
	}
	if !q.queryIDAny {
		q.queryID = uint8(id)
	}

	result := make(chan error, 1)
	t.events <- submitEvent{q: q, result: result}
	if err := <-result; err != nil {
		return nil, err
	}
	return q, nil
}

// Cancel clears q's callback atomically (spec.md section 4.7). It never
// blocks; the slot is released on the query's next state transition.
func Cancel(q *Query) { q.cancel() }
