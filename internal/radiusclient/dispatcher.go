package radiusclient

// Dispatcher is the "reactor / thread pool" external collaborator named
// in spec.md section 6: it provides cross-thread message send, direct-
// call when already on the target thread, queued otherwise. Callers
// that submit a query from their own event loop implement Post to hop
// the completion callback back onto that loop; callers with no such
// loop may omit it, in which case the completion runs inline on the
// owning I/O reactor goroutine (the degraded, but crash-free, path
// spec.md section 7 documents as "bad on fail but no choice").
type Dispatcher interface {
	Post(func())
}

// inlineDispatch runs fn directly; used when a query carries no
// Dispatcher.
func inlineDispatch(fn func()) { fn() }
