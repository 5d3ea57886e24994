package tagging

import "fmt"

// Count-matrix sentinels. Untracked is the construction-time default
// before a column has ever been reset by an insert; FreshEmpty marks a
// column entry that insert has reset and that is waiting for its
// first re-hit or repopulation stamp.
const (
	CMUntracked  = -2
	CMFreshEmpty = -1
)

// A Set is one row of the cache: assoc slots, partitioned into
// sc_assoc Shepherd Cache slots and mc_assoc Main Cache slots, plus
// the parallel arrays the OPT replacement algorithm needs to track
// imminence. Kept as a structure-of-arrays deliberately: the hot
// eviction loop scans these arrays directly, and the count-matrix
// column updates are contiguous stores with this layout.
type Set struct {
	Index   int
	Assoc   int
	SCAssoc int
	MCAssoc int

	// Blocks is a slice into the tag store's single shared backing
	// array; mutating Blocks[i] mutates the store's block directly.
	Blocks []Block

	// SCFlag[i] is true iff slot i currently belongs to the Shepherd
	// Cache.
	SCFlag []bool

	// SCPtr[i] is slot i's SC column id when SCFlag[i], else -1.
	SCPtr []int

	// NVC[k] is the next stamp to hand out for SC column k.
	NVC []int

	// SCQueue records SC column ids in FIFO order. Mirrors the
	// original design's companion array; the actual rotation is done
	// arithmetically on LeastImmSCPtr (see RotateForward/Backward),
	// so SCQueue itself is never walked - it stays the identity
	// permutation for the lifetime of the set. See DESIGN.md.
	SCQueue []int

	// LeastImmSCPtr names the SC column admitted earliest among those
	// currently present in SC; its column of the count matrix drives
	// the next eviction.
	LeastImmSCPtr int

	// cm is the flat assoc x sc_assoc count matrix, stored
	// column-major (cmIndex(slot, col) = col*Assoc + slot) so that a
	// full column - the unit the eviction algorithm scans - is a
	// contiguous run.
	cm []int

	// order is the traversal order find_least_imminent uses to break
	// ties among equally-imminent slots. The original implementation
	// exposes a companion LRU_Order array for this but never wires a
	// real recency tracker into the eviction path; per the
	// specification's instruction to treat that as an optional
	// tie-break only, order is initialized to slot index and never
	// mutated, i.e. ties resolve by first-seen slot index.
	order []int
}

func newSet(index, assoc, scAssoc int, blocks []Block) *Set {
	s := &Set{
		Index:   index,
		Assoc:   assoc,
		SCAssoc: scAssoc,
		MCAssoc: assoc - scAssoc,
		Blocks:  blocks,
		SCFlag:  make([]bool, assoc),
		SCPtr:   make([]int, assoc),
		NVC:     make([]int, scAssoc),
		SCQueue: make([]int, scAssoc),
		cm:      make([]int, assoc*scAssoc),
		order:   make([]int, assoc),
	}

	for k := 0; k < scAssoc; k++ {
		s.SCQueue[k] = k
	}

	scCol := 0

	for i := 0; i < assoc; i++ {
		s.order[i] = i

		blocks[i].SetIndex = index
		blocks[i].WayID = i

		if i < scAssoc {
			s.SCFlag[i] = true
			s.SCPtr[i] = scCol
			scCol++
		} else {
			s.SCFlag[i] = false
			s.SCPtr[i] = -1
		}
	}

	for i := range s.cm {
		s.cm[i] = CMUntracked
	}

	return s
}

func (s *Set) cmIndex(slot, col int) int {
	return col*s.Assoc + slot
}

// CM returns the count-matrix entry for slot and SC column col.
func (s *Set) CM(slot, col int) int {
	return s.cm[s.cmIndex(slot, col)]
}

func (s *Set) setCM(slot, col, v int) {
	s.cm[s.cmIndex(slot, col)] = v
}

// Find returns the valid block in the set matching tag, if any.
func (s *Set) Find(tag uint64) (*Block, bool) {
	for i := range s.Blocks {
		if s.Blocks[i].Valid && s.Blocks[i].Tag == tag {
			return &s.Blocks[i], true
		}
	}

	return nil, false
}

// SCFIFOHead returns the SC slot that owns the current FIFO head
// column. It panics with an InvariantViolation if invariants 1-3 are
// broken and no such slot exists.
func (s *Set) SCFIFOHead() *Block {
	for i := range s.Blocks {
		if s.SCFlag[i] && s.SCPtr[i] == s.LeastImmSCPtr {
			return &s.Blocks[i]
		}
	}

	panic(&InvariantViolation{
		Set:     s.Index,
		Slot:    -1,
		Field:   "sc_fifo_head",
		Message: "no SC slot owns the current FIFO head column",
	})
}

// FindLeastImminent returns the slot whose count-matrix entry in the
// FIFO head column is largest, with an empty-marker entry (-1)
// short-circuiting as the highest eviction priority. Ties are broken
// by slot traversal order (first-seen order; see the order field).
func (s *Set) FindLeastImminent() *Block {
	col := s.LeastImmSCPtr

	maxCount := CMUntracked
	maxPos := s.order[0]

	for _, i := range s.order {
		v := s.CM(i, col)

		if v == CMFreshEmpty {
			maxPos = i
			break
		}

		if v > maxCount {
			maxCount = v
			maxPos = i
		}
	}

	return &s.Blocks[maxPos]
}

// RotateForward moves the FIFO head to the next SC column, called by
// insert once it has opened a fresh column.
func (s *Set) RotateForward() {
	s.LeastImmSCPtr = (s.LeastImmSCPtr + 1) % s.SCAssoc
}

// RotateBackward moves the FIFO head back to the previous SC column,
// called by invalidate so the vacated column fills next.
func (s *Set) RotateBackward() {
	s.LeastImmSCPtr = (s.LeastImmSCPtr - 1 + s.SCAssoc) % s.SCAssoc
}

// CheckInvariants verifies invariants 1-4 from the specification over
// this set. Intended for tests, not the access path.
func (s *Set) CheckInvariants() error {
	scCount := 0
	seenCols := make(map[int]bool, s.SCAssoc)

	for i := 0; i < s.Assoc; i++ {
		if s.SCFlag[i] {
			scCount++

			col := s.SCPtr[i]
			if col < 0 || col >= s.SCAssoc {
				return fmt.Errorf(
					"set %d slot %d: sc_ptr %d out of range", s.Index, i, col,
				)
			}

			if seenCols[col] {
				return fmt.Errorf(
					"set %d: sc column %d claimed by more than one slot",
					s.Index, col,
				)
			}

			seenCols[col] = true
		} else if s.SCPtr[i] != -1 {
			return fmt.Errorf(
				"set %d slot %d: mc slot has sc_ptr %d, want -1",
				s.Index, i, s.SCPtr[i],
			)
		}
	}

	if scCount != s.SCAssoc {
		return fmt.Errorf(
			"set %d: %d sc slots, want %d", s.Index, scCount, s.SCAssoc,
		)
	}

	for k := 0; k < s.SCAssoc; k++ {
		if !seenCols[k] {
			return fmt.Errorf("set %d: sc column %d has no owner", s.Index, k)
		}
	}

	for i := 0; i < s.Assoc; i++ {
		if !s.Blocks[i].Valid {
			continue
		}

		for k := 0; k < s.SCAssoc; k++ {
			v := s.CM(i, k)

			// Untracked means column k has never been opened for this
			// slot; a valid block can carry that sentinel in any column
			// it has not yet been stamped in, per the CM sentinel
			// encoding (untracked / empty / stamp), not just -1.
			if v == CMUntracked {
				continue
			}

			// Row-prime writes a dummy 0 into a column whose nvc has
			// just been reset and not yet bumped by any real stamp;
			// that 0 sits right at the column's current nvc rather than
			// below it.
			if v == 0 && s.NVC[k] == 0 {
				continue
			}

			if v < CMFreshEmpty || v >= s.NVC[k] {
				return fmt.Errorf(
					"set %d slot %d col %d: cm value %d out of range for nvc %d",
					s.Index, i, k, v, s.NVC[k],
				)
			}
		}
	}

	return nil
}
