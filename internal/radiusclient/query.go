package radiusclient

import (
	"sync"
	"time"
)

// QueryIDAuto is the sentinel passed to Query() meaning "let the core
// choose the identifier" (spec.md section 6).
const QueryIDAuto = -1

// CompletionFunc is the capability invoked exactly once when a query
// reaches a terminal state: success (err == nil), timeout, failover
// exhaustion, or interruption. It is not invoked for a canceled query.
// It is handed to the query's Dispatcher when one was given to Query;
// otherwise it runs inline on the I/O reactor goroutine that owns the
// query. udata is opaque to the core.
type CompletionFunc func(payload []byte, err error, udata any)

// queryState is the query's place in the ARMED/DONE/FAILOVER/FAILED
// state machine (spec.md section 4.3).
type queryState int

const (
	stateArmed queryState = iota
	stateDone
	stateFailover
	stateFailed
)

// Query is a single in-flight request (spec.md section 3, "Query"). All
// fields except the cancel latch are owned exclusively by the ioThread
// that the query is bound to; the cancel latch is the one piece of state
// that may be touched from the caller's thread.
type Query struct {
	client     *Client
	originator *ioThread

	curSrvIdx int

	retransCount    int
	retransTime     int64 // ms, the interval most recently armed
	retransDuration time.Duration
	state           queryState

	queryIDAny bool
	queryID    uint8

	request          []byte // owned by caller, borrowed for the query's lifetime
	reqAuthenticator [16]byte
	signed           bool // Open Question 1: cache and reuse the Request Authenticator on retry

	socket     *socket
	slotID     uint8
	timer      *time.Timer
	dispatcher Dispatcher

	// generation is bumped by releaseSlot every time the query's
	// (socket, slotID) binding is torn down. A retransmit timer stamps
	// the generation current at arm time into its timeoutEvent; handleTimeout
	// compares that stamp against the query's current generation and
	// drops the event if they differ, so a timer that was already queued
	// behind a completing packetEvent can never act on a released slot
	// (spec.md section 9, arena-and-index back-pointer scheme).
	generation uint64

	mu       sync.Mutex
	cb       CompletionFunc
	udata    any
	canceled bool

	doneOnce sync.Once
}

// cancel clears the callback and user-data pointers atomically
// (spec.md section 4.7). It never blocks on in-flight I/O; the actual
// slot release happens on the query's next state transition.
func (q *Query) cancel() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cb = nil
	q.udata = nil
	q.canceled = true
}

// snapshot returns the callback/udata pair to invoke at completion time,
// or (nil, nil) if the query was cancelled.
func (q *Query) snapshot() (CompletionFunc, any) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.cb, q.udata
}

// recordAttempt advances the retransmission counters (spec.md section
// 4.3 step 1) and reports whether the per-server budget is exhausted.
func (q *Query) recordAttempt(policy RetransPolicy) (exhausted bool) {
	q.retransCount++
	q.retransDuration += time.Duration(q.retransTime) * time.Millisecond
	if policy.countExceeded(q.retransCount) {
		return true
	}
	if policy.durationExceeded(q.retransDuration) {
		return true
	}
	return false
}

// nextInterval computes the next retransmit interval with jitter applied
// and clamps it to the remaining duration budget, per spec.md section
// 4.3. ok is false when the clamped remainder falls below the policy's
// init interval, meaning the server should be abandoned.
func (q *Query) nextInterval(policy RetransPolicy, nowNanos int64) (ms int64, ok bool) {
	nominal := policy.nextInterval(q.retransTime, q.retransCount)
	withJitter := jitteredInterval(nowNanos, nominal)

	if policy.DurationMaxMs != 0 {
		remaining := policy.DurationMaxMs - q.retransDuration.Milliseconds()
		if withJitter > remaining {
			withJitter = remaining
		}
		if withJitter < policy.InitMs {
			return 0, false
		}
	}
	return withJitter, true
}
