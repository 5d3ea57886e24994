// Package tagging implements the Shepherd Cache / OPT tag store: a
// set-associative replacement core that approximates Belady's
// optimal policy by partitioning each set into a small Shepherd Cache
// (SC), which observes future reference order among recently admitted
// lines, and a larger Main Cache (MC), which holds lines promoted
// from SC. A Next-Value-Counter / Count-Matrix mechanism records, per
// resident line, an imminence stamp relative to each SC column, and
// drives eviction.
//
// The store interacts with its host only through Block values and the
// address-decoding pair in the addr package; everything else -
// packet transport, MSHRs, coherence, the event loop, serialization,
// statistics persistence - is an external collaborator.
package tagging

import (
	"github.com/sarchlab/shepherdtags/addr"
)

// Writeback names a block that must be written back. FindVictim takes
// a list of them, but the OPT core never populates this list itself - the
// caller inspects the returned victim's Dirty bit - but the parameter
// is kept for API symmetry with hosts that enqueue writebacks from
// other replacement policies.
type Writeback struct {
	Block *Block
}

// OptTagStore orchestrates Access, FindVictim, InsertBlock, and
// Invalidate over a set-associative array of Blocks, partitioned per
// set into a Shepherd Cache and a Main Cache.
type OptTagStore struct {
	decoder *addr.Decoder

	numSetsTotal int
	assoc        int
	scAssoc      int
	mcAssoc      int
	hitLatency   int

	blocks []Block
	data   []byte
	sets   []*Set

	stats StatsHost
	clock Clock
}

// NewOptTagStore constructs a tag store with numSetsTotal sets, each
// of the given associativity, blockSize bytes per line, hitLatency
// cycles for a hit, and numSetsSC of the associativity carved out as
// Shepherd Cache. Returns a ConfigError if any precondition is
// violated: block_size >= 4 and a power of two, num_sets_total > 0
// and a power of two, assoc > 0, hit_latency > 0, 0 < num_sets_sc <
// assoc.
func NewOptTagStore(
	numSetsTotal, blockSize, assoc, hitLatency, numSetsSC int,
) (*OptTagStore, error) {
	if assoc <= 0 {
		return nil, &ConfigError{Reason: "associativity must be greater than zero"}
	}

	if hitLatency <= 0 {
		return nil, &ConfigError{Reason: "hit latency must be greater than zero"}
	}

	if numSetsSC <= 0 || numSetsSC >= assoc {
		return nil, &ConfigError{
			Reason: "number of shepherd-cache sets must be strictly between 0 and associativity",
		}
	}

	decoder, err := addr.NewDecoder(uint64(blockSize), uint64(numSetsTotal))
	if err != nil {
		if ce, ok := err.(*addr.ConfigError); ok {
			return nil, &ConfigError{Reason: ce.Reason}
		}

		return nil, err
	}

	store := &OptTagStore{
		decoder:      decoder,
		numSetsTotal: numSetsTotal,
		assoc:        assoc,
		scAssoc:      numSetsSC,
		mcAssoc:      assoc - numSetsSC,
		hitLatency:   hitLatency,
		stats:        NewDefaultStats(),
		clock:        zeroClock{},
	}

	store.blocks = make([]Block, numSetsTotal*assoc)
	store.data = make([]byte, numSetsTotal*assoc*blockSize)
	store.sets = make([]*Set, numSetsTotal)

	for i := 0; i < numSetsTotal; i++ {
		setBlocks := store.blocks[i*assoc : (i+1)*assoc]

		for j := range setBlocks {
			blkIndex := i*assoc + j
			setBlocks[j].Data = store.data[blkIndex*blockSize : (blkIndex+1)*blockSize]
		}

		store.sets[i] = newSet(i, assoc, numSetsSC, setBlocks)
	}

	return store, nil
}

// SetStatsHost overrides the StatsHost the tag store reads and writes
// through. Call before any other operation; the default is an
// in-memory DefaultStats.
func (store *OptTagStore) SetStatsHost(h StatsHost) {
	store.stats = h
}

// Stats returns the tag store's current StatsHost.
func (store *OptTagStore) Stats() StatsHost {
	return store.stats
}

// SetClock overrides the tick source Access reads when_ready against.
// The default Clock always reports tick 0.
func (store *OptTagStore) SetClock(c Clock) {
	store.clock = c
}

// GetBlockSize returns the number of bytes in a block.
func (store *OptTagStore) GetBlockSize() int {
	return int(store.decoder.BlockSize())
}

// GetSubBlockSize returns the sub-block size, always equal to the
// block size for this tag store.
func (store *OptTagStore) GetSubBlockSize() int {
	return store.GetBlockSize()
}

// GetHitLatency returns the configured hit latency in cycles.
func (store *OptTagStore) GetHitLatency() int {
	return store.hitLatency
}

// ExtractTag returns the tag component of addr.
func (store *OptTagStore) ExtractTag(address uint64) uint64 {
	return store.decoder.ExtractTag(address)
}

// ExtractSet returns the set-index component of addr.
func (store *OptTagStore) ExtractSet(address uint64) int {
	return store.decoder.ExtractSet(address)
}

// ExtractOffset returns the block-offset component of addr.
func (store *OptTagStore) ExtractOffset(address uint64) uint64 {
	return store.decoder.ExtractOffset(address)
}

// BlockAlign rounds addr down to the start of its containing block.
func (store *OptTagStore) BlockAlign(address uint64) uint64 {
	return store.decoder.BlockAlign(address)
}

// RegenerateBlockAddr reconstructs a block address from a tag and set.
func (store *OptTagStore) RegenerateBlockAddr(tag uint64, set int) uint64 {
	return store.decoder.RegenerateBlockAddr(tag, set)
}

// NumSets returns the total number of sets in the tag store.
func (store *OptTagStore) NumSets() int {
	return store.numSetsTotal
}

// SetAt returns the set with the given index, for callers (tests, the
// monitor package) that need to inspect SC/MC/CM state directly.
func (store *OptTagStore) SetAt(id int) *Set {
	return store.sets[id]
}

// FindBlock looks up addr with no side effects: it does not touch the
// count matrix, the FIFO head, or any statistics. Returns the block
// and true on a tag match, or nil and false on a miss.
func (store *OptTagStore) FindBlock(address uint64) (*Block, bool) {
	tag := store.decoder.ExtractTag(address)
	setID := store.decoder.ExtractSet(address)

	return store.sets[setID].Find(tag)
}

// Access looks up addr, updates replacement state on a hit, and
// returns the block along with the latency the host should report. A
// miss returns (nil, GetHitLatency()).
//
// The count-matrix update on a hit is keyed to the current SC FIFO
// head slot, not to the hit block's own slot: every still-unfilled
// entry (-1) in the FIFO head's row is stamped with its column's next
// counter value, so each stamp records how many stamps that column had
// already handed out since it was opened.
func (store *OptTagStore) Access(address uint64, owner int) (*Block, int) {
	tag := store.decoder.ExtractTag(address)
	setID := store.decoder.ExtractSet(address)
	set := store.sets[setID]

	blk, ok := set.Find(tag)
	if !ok {
		return nil, store.hitLatency
	}

	hitSlot := set.SCFIFOHead().WayID

	for k := 0; k < set.SCAssoc; k++ {
		if set.CM(hitSlot, k) == CMFreshEmpty {
			set.setCM(hitSlot, k, set.NVC[k])
			set.NVC[k]++
		}
	}

	blk.RefCount++

	lat := store.hitLatency
	now := store.clock.Now()

	if blk.WhenReady > now && blk.WhenReady-now > uint64(store.hitLatency) {
		lat = int(blk.WhenReady - now)
	}

	return blk, lat
}

// FindVictim selects a block to evict to make room for addr. Stage A
// picks an SC victim candidate: an invalid SC slot if one exists,
// otherwise the SC FIFO head (guaranteed valid at that point). Stage B
// decides where that candidate's column ends up: an invalid MC slot
// is reclassified as SC to receive it; failing that,
// find_least_imminent names the actual victim, which may be any SC
// slot (returned as is, no swap) or an MC slot (swapped with the
// candidate). writebacks is never appended to here - the tag store
// itself knows nothing about dirty-line writeback policy - but is
// accepted for symmetry with other replacement policies' APIs.
func (store *OptTagStore) FindVictim(address uint64, writebacks *[]Writeback) *Block {
	_ = writebacks

	setID := store.decoder.ExtractSet(address)
	set := store.sets[setID]

	if blk, ok := findEmptySC(set); ok {
		// An empty SC slot exists: use it directly, no MC involvement.
		return blk
	}

	// Every SC slot is valid: the FIFO head is the SC victim
	// candidate, and must now be moved to MC to make room in SC.
	scCandidate := set.SCFIFOHead()

	return store.findVictimInMC(set, scCandidate)
}

func findEmptySC(set *Set) (*Block, bool) {
	for i := 0; i < set.Assoc; i++ {
		if set.SCFlag[i] && !set.Blocks[i].Valid {
			return &set.Blocks[i], true
		}
	}

	return nil, false
}

func (store *OptTagStore) findVictimInMC(set *Set, scCandidate *Block) *Block {
	scIndex := scCandidate.WayID

	for i := 0; i < set.Assoc; i++ {
		if !set.SCFlag[i] && !set.Blocks[i].Valid {
			swapSCColumn(set, i, scIndex)
			return &set.Blocks[i]
		}
	}

	victim := set.FindLeastImminent()
	victimIndex := victim.WayID

	if set.SCFlag[victimIndex] {
		// An SC slot is itself least imminent; the caller
		// invalidates and overwrites it directly, no MC<->SC swap.
		return victim
	}

	swapSCColumn(set, victimIndex, scIndex)

	return victim
}

// swapSCColumn reclassifies slot dst (currently MC) as SC, handing it
// the SC column owned by slot src, and demotes src to MC.
func swapSCColumn(set *Set, dst, src int) {
	set.SCFlag[dst] = true
	set.SCPtr[dst] = set.SCPtr[src]
	set.SCFlag[src] = false
	set.SCPtr[src] = -1
}

// InsertBlock writes addr into blk, which must be the slot FindVictim
// just returned - and therefore must currently be an SC slot, since
// new lines always enter SC. Panics with an InvariantViolation if
// that precondition is violated.
func (store *OptTagStore) InsertBlock(address uint64, blk *Block, owner int) {
	set := store.sets[blk.SetIndex]
	slot := blk.WayID

	if !set.SCFlag[slot] {
		panic(&InvariantViolation{
			Set:     blk.SetIndex,
			Slot:    slot,
			Field:   "sc_flag",
			Message: "insert target must be an SC slot",
		})
	}

	if !blk.Touched {
		store.stats.IncTagsInUse(1)
		blk.Touched = true
		store.checkWarmup()
	}

	if blk.Valid {
		store.stats.IncReplacements(0, 1)
		store.stats.AddTotalRefs(blk.RefCount)
		store.stats.AddSampledRefs(1)
		store.stats.IncOccupancy(blk.Owner, -1)

		blk.RefCount = 0
		blk.Valid = false
		blk.Dirty = false
	}

	blk.Tag = store.decoder.ExtractTag(address)
	blk.Touched = true
	blk.Owner = owner
	store.stats.IncOccupancy(owner, 1)

	col := set.SCPtr[slot]
	set.NVC[col] = 0

	// Reset this SC column to the empty marker across every slot.
	for i := 0; i < set.Assoc; i++ {
		set.setCM(i, col, CMFreshEmpty)
	}

	// Prime the newly-inserted column's own row (indexed, like the
	// original, by the column id itself): only an entry that is
	// already a fresh-empty marker gets the dummy stamp. An untracked
	// column or one that already carries a real stamp is left alone.
	for m := 0; m < set.SCAssoc; m++ {
		if m == col {
			continue
		}

		if set.CM(col, m) != CMFreshEmpty {
			continue
		}

		set.setCM(col, m, 0)
	}

	// Seed the new column's initial ordering with every currently
	// resident line, in slot order. blk itself is not yet marked
	// valid, so it is excluded here exactly as it would be if an
	// external caller (rather than this same call) were responsible
	// for flipping its valid bit, matching the original design's
	// "caller sets status after insertBlock returns" contract.
	for i := 0; i < set.Assoc; i++ {
		if set.Blocks[i].Valid {
			set.setCM(i, col, set.NVC[col])
			set.NVC[col]++
		}
	}

	blk.Valid = true

	set.RotateForward()
}

func (store *OptTagStore) checkWarmup() {
	if store.stats.WarmedUp() {
		return
	}

	bound := store.numSetsTotal * store.assoc
	if store.stats.TagsInUse() >= bound {
		store.stats.MarkWarmedUp(store.clock.Now())
	}
}

// Invalidate marks blk invalid and untouched, so the next fill of this
// block counts it in tags-in-use again, and rotates the SC FIFO
// backward so the vacated column is the next one insert fills.
func (store *OptTagStore) Invalidate(blk *Block) {
	if !blk.Valid {
		panic(&InvariantViolation{
			Set:     blk.SetIndex,
			Slot:    blk.WayID,
			Field:   "valid",
			Message: "cannot invalidate an already-invalid block",
		})
	}

	store.stats.IncTagsInUse(-1)
	store.stats.IncOccupancy(blk.Owner, -1)

	blk.Valid = false
	blk.Dirty = false
	blk.Touched = false

	store.sets[blk.SetIndex].RotateBackward()
}

// ClearLocks clears the load-linked tracking flag on every block.
func (store *OptTagStore) ClearLocks() {
	for i := range store.blocks {
		store.blocks[i].Locked = false
	}
}

// CleanupRefs sums the reference counts of every still-valid block
// into the stats host's total/sampled reference counters. Called once
// at simulator shutdown.
func (store *OptTagStore) CleanupRefs() {
	for i := range store.blocks {
		if store.blocks[i].Valid {
			store.stats.AddTotalRefs(store.blocks[i].RefCount)
			store.stats.AddSampledRefs(1)
		}
	}
}
