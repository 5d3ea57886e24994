// Package addr implements the address-decoding pair used by the
// Shepherd Cache / OPT tag store to split a block address into a tag
// and a set index, and to regenerate a block address from the two.
package addr

import (
	"fmt"
	"math/bits"
)

// ConfigError reports a precondition violated at Decoder construction.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("addr: %s", e.Reason)
}

// Decoder splits a byte address into (tag, set, offset) and back,
// given a fixed block size and a fixed number of sets. Both must be
// powers of two.
type Decoder struct {
	blockSize  uint64
	numSets    uint64
	setShift   uint
	tagShift   uint
	setMask    uint64
	offsetMask uint64
}

// NewDecoder builds a Decoder for the given block size (bytes, power
// of two, >= 4) and number of sets (power of two, > 0).
func NewDecoder(blockSize, numSets uint64) (*Decoder, error) {
	if blockSize < 4 || !isPowerOfTwo(blockSize) {
		return nil, &ConfigError{
			Reason: "block size must be at least 4 and a power of 2",
		}
	}

	if numSets == 0 || !isPowerOfTwo(numSets) {
		return nil, &ConfigError{
			Reason: "number of sets must be non-zero and a power of 2",
		}
	}

	setShift := uint(bits.TrailingZeros64(blockSize))
	tagShift := setShift + uint(bits.TrailingZeros64(numSets))

	return &Decoder{
		blockSize:  blockSize,
		numSets:    numSets,
		setShift:   setShift,
		tagShift:   tagShift,
		setMask:    numSets - 1,
		offsetMask: blockSize - 1,
	}, nil
}

func isPowerOfTwo(v uint64) bool {
	return v != 0 && v&(v-1) == 0
}

// ExtractTag returns the tag component of addr.
func (d *Decoder) ExtractTag(addr uint64) uint64 {
	return addr >> d.tagShift
}

// ExtractSet returns the set-index component of addr.
func (d *Decoder) ExtractSet(addr uint64) int {
	return int((addr >> d.setShift) & d.setMask)
}

// ExtractOffset returns the block-offset component of addr.
func (d *Decoder) ExtractOffset(addr uint64) uint64 {
	return addr & d.offsetMask
}

// BlockAlign rounds addr down to the start of its containing block.
func (d *Decoder) BlockAlign(addr uint64) uint64 {
	return addr &^ d.offsetMask
}

// RegenerateBlockAddr reconstructs the block address that decodes to
// the given tag and set.
func (d *Decoder) RegenerateBlockAddr(tag uint64, set int) uint64 {
	return (tag << d.tagShift) | (uint64(set) << d.setShift)
}

// BlockSize returns the configured block size in bytes.
func (d *Decoder) BlockSize() uint64 {
	return d.blockSize
}

// NumSets returns the configured number of sets.
func (d *Decoder) NumSets() uint64 {
	return d.numSets
}
