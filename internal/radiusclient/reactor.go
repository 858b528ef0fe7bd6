package radiusclient

import (
	"crypto/rand"
	"log/slog"
	"net"
	"time"

	"github.com/hydraradius/hydraradius/internal/pool"
	"github.com/hydraradius/hydraradius/internal/radius"
)

const maxDatagramSize = 4096

// ioThread is one cooperative single-threaded reactor (spec.md section
// 5): it owns its socket pools, their slot tables, and the retransmit
// timers for queries bound to its sockets. Nothing outside the thread's
// own run() goroutine touches that state; the only cross-goroutine
// entry point is events, which carries submissions, timer firings, and
// received datagrams onto the thread's own queue.
type ioThread struct {
	idx    int
	client *Client

	pools   [2]*socketPool // index 0 = IPv4, 1 = IPv6
	events  chan any
	bufPool *pool.Pool[*[]byte]

	logger *slog.Logger
}

type submitEvent struct {
	q      *Query
	result chan error
}

type timeoutEvent struct {
	q          *Query
	generation uint64
}

type packetEvent struct {
	sock *socket
	buf  *[]byte
	n    int
	addr *net.UDPAddr
}

type shutdownEvent struct {
	done chan struct{}
}

func newIOThread(idx int, c *Client) *ioThread {
	t := &ioThread{
		idx:    idx,
		client: c,
		events: make(chan any, 256),
		logger: c.logger,
	}
	t.pools[0] = newSocketPool(t, 4, c.settings.ThrSocketsMin, c.settings.ThrSocketsMax)
	t.pools[1] = newSocketPool(t, 6, c.settings.ThrSocketsMin, c.settings.ThrSocketsMax)
	t.bufPool = pool.New(func() *[]byte {
		b := make([]byte, maxDatagramSize)
		return &b
	})
	return t
}

// run is the reactor loop: one goroutine, no locks, run-to-completion
// handlers (spec.md section 5, "Suspension points: none within a
// handler").
func (t *ioThread) run() {
	for ev := range t.events {
		switch e := ev.(type) {
		case submitEvent:
			e.result <- t.sendNew(e.q)
		case timeoutEvent:
			t.handleTimeout(e.q, e.generation)
		case packetEvent:
			t.handlePacket(e.sock, (*e.buf)[:e.n], e.addr)
			t.bufPool.Put(e.buf)
		case shutdownEvent:
			t.shutdown()
			close(e.done)
			return
		}
	}
}

func familyIndex(addr *net.UDPAddr) int {
	if addr.IP.To4() != nil {
		return 0
	}
	return 1
}

// recvLoop reads datagrams off s's socket and posts them to the owning
// thread's event queue. One goroutine per bound socket, grounded on the
// teacher's UDPServer.recvLoop — adapted so hand-off lands on the
// reactor that owns the slot table instead of a shared worker pool.
func (t *ioThread) recvLoop(s *socket) {
	for {
		bufPtr := t.bufPool.Get()
		n, addr, err := s.conn.ReadFromUDP(*bufPtr)
		if err != nil {
			t.bufPool.Put(bufPtr)
			return
		}
		select {
		case t.events <- packetEvent{sock: s, buf: bufPtr, n: n, addr: addr}:
		default:
			// Reactor backed up; drop rather than block the socket read.
			t.client.stats.Dropped.Add(1)
			t.bufPool.Put(bufPtr)
		}
	}
}

// sendNew implements spec.md section 4.4 send_new: resolve the next
// enabled server, bind a slot (growing the pool if needed), sign, and
// transmit.
func (t *ioThread) sendNew(q *Query) error {
	srv, idx, err := t.client.table.nextEnabled(q.curSrvIdx)
	if err != nil {
		return err
	}
	q.curSrvIdx = idx

	fam := familyIndex(srv.addr)
	p := t.pools[fam]

	if q.socket == nil || familyIndexOfSocket(q.socket) != fam {
		if q.socket != nil {
			t.releaseSlot(q)
		}
		if err := t.bindSlot(p, q); err != nil {
			return err
		}
	}

	if err := t.armTimer(q, srv.retrans); err != nil {
		t.releaseSlot(q)
		return err
	}

	if err := t.sign(q, srv); err != nil {
		q.timer.Stop()
		t.releaseSlot(q)
		return err
	}

	if err := t.transmit(q, srv); err != nil {
		q.timer.Stop()
		t.releaseSlot(q)
		return err
	}

	t.client.stats.QueriesSent.Add(1)
	return nil
}

func familyIndexOfSocket(s *socket) int {
	if s.family == 4 {
		return 0
	}
	return 1
}

// bindSlot allocates a slot for q in pool p, growing the pool once if
// every existing socket is identifier-saturated (spec.md section 4.2).
func (t *ioThread) bindSlot(p *socketPool, q *Query) error {
	if q.queryIDAny {
		if s := p.findAutoSocket(); s != nil {
			s.bindAuto(q)
			return nil
		}
	} else {
		if s := p.findSlot(q.queryID); s != nil {
			s.bindExplicit(q.queryID, q)
			return nil
		}
	}

	s, err := p.grow(t.client.settings.SktSndBuf, t.client.settings.SktRcvBuf)
	if err != nil {
		return err
	}
	go t.recvLoop(s)

	if q.queryIDAny {
		if _, ok := s.bindAuto(q); !ok {
			return ErrTryAgain
		}
	} else {
		if s.slots[q.queryID] != nil {
			return ErrTryAgain
		}
		s.bindExplicit(q.queryID, q)
	}
	return nil
}

func (t *ioThread) armTimer(q *Query, policy RetransPolicy) error {
	ms, ok := q.nextInterval(policy, time.Now().UnixNano())
	if !ok {
		return ErrTimedOut
	}
	q.retransTime = ms
	gen := q.generation
	q.timer = time.AfterFunc(time.Duration(ms)*time.Millisecond, func() {
		t.events <- timeoutEvent{q: q, generation: gen}
	})
	return nil
}

func (t *ioThread) sign(q *Query, srv *server) error {
	if q.signed {
		return nil
	}
	p, err := radius.Unmarshal(q.request)
	if err != nil {
		return err
	}
	if q.queryIDAny {
		p.Identifier = q.slotID
	}
	var random16 [16]byte
	if _, err := rand.Read(random16[:]); err != nil {
		return err
	}
	if err := radius.SignRequest(p, srv.secret, random16); err != nil {
		return err
	}
	raw, err := p.Marshal()
	if err != nil {
		return err
	}
	q.request = raw
	q.reqAuthenticator = p.Authenticator
	q.signed = true
	return nil
}

func (t *ioThread) transmit(q *Query, srv *server) error {
	n, err := q.socket.conn.WriteToUDP(q.request, srv.addr)
	if err != nil {
		return &IOError{Op: "sendto", Err: err}
	}
	if n != len(q.request) {
		return &IOError{Op: "sendto", Err: net.ErrClosed}
	}
	return nil
}

// handleTimeout implements spec.md section 4.3's failure transitions in
// order: count attempt, check exhaustion, compute next interval,
// retransmit, and on error fail over to the next enabled server.
//
// A timeoutEvent and a packetEvent for the same query can both be
// in-flight on t.events at once (the timer fires via its own goroutine
// right as a reply arrives via recvLoop); whichever is processed first
// wins, and the loser must be a no-op rather than act on a slot that has
// since been released. generation, stamped when this timer was armed, is
// checked against the query's current generation (bumped by releaseSlot
// on every unbind) to detect exactly that case.
func (t *ioThread) handleTimeout(q *Query, generation uint64) {
	if generation != q.generation || q.socket == nil {
		return
	}

	srv, _, err := t.client.table.nextEnabled(q.curSrvIdx)
	if err != nil {
		t.finish(q, nil, ErrConnectionRefused)
		return
	}

	if exhausted := q.recordAttempt(srv.retrans); exhausted {
		t.failover(q)
		return
	}

	ms, ok := q.nextInterval(srv.retrans, time.Now().UnixNano())
	if !ok {
		t.failover(q)
		return
	}
	q.retransTime = ms
	gen := q.generation
	q.timer = time.AfterFunc(time.Duration(ms)*time.Millisecond, func() {
		t.events <- timeoutEvent{q: q, generation: gen}
	})

	if err := t.transmit(q, srv); err != nil {
		q.timer.Stop()
		t.failover(q)
		return
	}
	t.client.stats.Retransmits.Add(1)
}

// failover advances cur_srv_idx and retries the send on the next
// enabled server, or gives up with TIMED_OUT when none remain.
func (t *ioThread) failover(q *Query) {
	for q.curSrvIdx+1 < t.client.table.count() {
		q.curSrvIdx++
		q.retransCount = 0
		q.retransDuration = 0
		q.signed = false
		q.state = stateFailover
		t.client.stats.Failovers.Add(1)
		if err := t.sendNew(q); err == nil {
			return
		}
	}
	t.client.stats.TimedOut.Add(1)
	t.finish(q, nil, ErrTimedOut)
}

// handlePacket implements spec.md section 4.5's receive path.
func (t *ioThread) handlePacket(s *socket, buf []byte, addr *net.UDPAddr) {
	resp, err := radius.Unmarshal(buf)
	if err != nil {
		t.client.stats.Dropped.Add(1)
		return
	}

	q := s.slots[resp.Identifier]
	if q == nil || q.socket != s {
		// Unlike a timer closure, this is a fresh lookup through the slot
		// table rather than a captured pointer, so it cannot observe a
		// generation that has since been superseded; q.socket != s still
		// catches the degenerate case where the slot was rebound to a
		// query that is not (yet) actually bound to this socket.
		t.client.stats.Dropped.Add(1)
		return
	}

	srv, _, err := t.client.table.nextEnabled(q.curSrvIdx)
	if err != nil || srv.addr.String() != addr.String() {
		t.client.stats.Dropped.Add(1)
		return
	}

	if err := radius.VerifyResponse(resp, q.reqAuthenticator, srv.secret); err != nil {
		t.client.stats.Dropped.Add(1)
		return
	}

	payload := make([]byte, len(buf))
	copy(payload, buf)
	t.finish(q, payload, nil)
}

// releaseSlot unbinds q from its socket and evicts the socket if it is
// now an idle tail beyond the pool floor. It bumps q.generation so any
// retransmit timer already queued against the binding being torn down is
// recognized as stale when it is eventually dequeued.
func (t *ioThread) releaseSlot(q *Query) {
	s := q.socket
	if s == nil {
		return
	}
	s.unbind(q)
	q.generation++
	fam := familyIndexOfSocket(s)
	t.pools[fam].maybeEvictTail()
}

// finish completes q exactly once: stop its timer, release its slot,
// and dispatch the callback to the originator (spec.md section 4.6).
func (t *ioThread) finish(q *Query, payload []byte, err error) {
	q.doneOnce.Do(func() {
		if q.timer != nil {
			q.timer.Stop()
		}
		t.releaseSlot(q)

		if err == nil {
			t.client.stats.recordLatency(int64(q.retransDuration))
		}

		cb, udata := q.snapshot()
		if cb == nil {
			return
		}
		if q.dispatcher != nil {
			q.dispatcher.Post(func() { cb(payload, err, udata) })
		} else {
			inlineDispatch(func() { cb(payload, err, udata) })
		}
	})
}

func (t *ioThread) shutdown() {
	for _, p := range t.pools {
		for _, s := range p.sockets {
			for _, q := range s.slots {
				if q != nil {
					t.finish(q, nil, ErrInterrupted)
				}
			}
			_ = s.close()
		}
		p.sockets = nil
	}
}
