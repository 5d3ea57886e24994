package tagging

import "fmt"

// ConfigError reports a constructor precondition violated when
// building an OptTagStore or one of its sets.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("tagging: %s", e.Reason)
}

// InvariantViolation is panicked when a runtime assertion the tag
// store's correctness depends on is broken - an FIFO head that names
// no slot, an insert target outside SC, an invalidate of a block that
// is already invalid. There is no local recovery: the simulator cannot
// proceed with a corrupted replacement state, so these are always
// fatal. A broken sc_ptr permutation is not panicked on the access
// path; Set.CheckInvariants reports it as an error.
type InvariantViolation struct {
	Set     int
	Slot    int
	Field   string
	Message string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf(
		"tagging: invariant violation in set %d slot %d field %q: %s",
		e.Set, e.Slot, e.Field, e.Message,
	)
}
