package tagging

// Clock is the tick source the host simulator provides. Access
// compares a ready-block's when_ready tick against Clock.Now() to
// decide whether it must report extra latency; the tag store never
// advances time itself; the surrounding event-driven kernel is out of
// scope for this core and is treated as an opaque collaborator.
type Clock interface {
	Now() uint64
}

// zeroClock is the default Clock, used by hosts that do not model
// fill latency and only care about the OPT replacement decisions.
type zeroClock struct{}

func (zeroClock) Now() uint64 { return 0 }
