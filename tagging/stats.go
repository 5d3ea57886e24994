package tagging

// StatsHost is the statistics surface the tag store increments and
// reads through. Ownership of the counters lives with whatever hosts
// the tag store; the core only ever mutates them through this
// injected interface, never persists them, and never decides how they
// are reported.
type StatsHost interface {
	// IncTagsInUse adjusts the count of blocks in use: raised when an
	// untouched block is filled, lowered when a block is invalidated.
	IncTagsInUse(delta int)
	// TagsInUse returns the current count.
	TagsInUse() int

	// IncReplacements adjusts the replacement counter for the given
	// replacement kind (always 0 for this tag store; the parameter is
	// kept for symmetry with hosts that track several kinds).
	IncReplacements(kind int, delta int)

	// IncOccupancy adjusts the number of resident lines owned by
	// owner.
	IncOccupancy(owner int, delta int)
	// Occupancy returns the current count for owner.
	Occupancy(owner int) int

	// AddTotalRefs and AddSampledRefs accumulate reference-count
	// statistics at replacement and at cleanup time.
	AddTotalRefs(delta int)
	AddSampledRefs(delta int)

	// MarkWarmedUp latches the warmup flag and records the tick at
	// which it happened. Called at most once.
	MarkWarmedUp(cycle uint64)
	// WarmedUp reports whether MarkWarmedUp has ever been called.
	WarmedUp() bool
}

// DefaultStats is the in-memory StatsHost used when a tag store is
// not given one explicitly. It is not persisted anywhere; the
// recording package can snapshot a DefaultStats into SQLite.
type DefaultStats struct {
	tagsInUse    int
	replacements map[int]int
	occupancies  map[int]int
	totalRefs    int
	sampledRefs  int
	warmedUp     bool
	warmupCycle  uint64
}

// NewDefaultStats creates an empty DefaultStats.
func NewDefaultStats() *DefaultStats {
	return &DefaultStats{
		replacements: make(map[int]int),
		occupancies:  make(map[int]int),
	}
}

// IncTagsInUse implements StatsHost.
func (s *DefaultStats) IncTagsInUse(delta int) {
	s.tagsInUse += delta
}

// TagsInUse implements StatsHost.
func (s *DefaultStats) TagsInUse() int {
	return s.tagsInUse
}

// IncReplacements implements StatsHost.
func (s *DefaultStats) IncReplacements(kind int, delta int) {
	s.replacements[kind] += delta
}

// Replacements returns the replacement counter for kind.
func (s *DefaultStats) Replacements(kind int) int {
	return s.replacements[kind]
}

// IncOccupancy implements StatsHost.
func (s *DefaultStats) IncOccupancy(owner int, delta int) {
	s.occupancies[owner] += delta
}

// Occupancy implements StatsHost.
func (s *DefaultStats) Occupancy(owner int) int {
	return s.occupancies[owner]
}

// Occupancies returns a copy of the per-owner occupancy map.
func (s *DefaultStats) Occupancies() map[int]int {
	out := make(map[int]int, len(s.occupancies))
	for k, v := range s.occupancies {
		out[k] = v
	}

	return out
}

// AddTotalRefs implements StatsHost.
func (s *DefaultStats) AddTotalRefs(delta int) {
	s.totalRefs += delta
}

// TotalRefs returns the accumulated reference count.
func (s *DefaultStats) TotalRefs() int {
	return s.totalRefs
}

// AddSampledRefs implements StatsHost.
func (s *DefaultStats) AddSampledRefs(delta int) {
	s.sampledRefs += delta
}

// SampledRefs returns the number of samples behind TotalRefs.
func (s *DefaultStats) SampledRefs() int {
	return s.sampledRefs
}

// MarkWarmedUp implements StatsHost.
func (s *DefaultStats) MarkWarmedUp(cycle uint64) {
	if s.warmedUp {
		return
	}

	s.warmedUp = true
	s.warmupCycle = cycle
}

// WarmedUp implements StatsHost.
func (s *DefaultStats) WarmedUp() bool {
	return s.warmedUp
}

// WarmupCycle returns the tick recorded by MarkWarmedUp, or 0 if the
// tag store has not warmed up yet.
func (s *DefaultStats) WarmupCycle() uint64 {
	return s.warmupCycle
}
