// Package snowflake implements the 64-bit identifier used throughout the
// platform's entity model: a timestamp plus worker/process/increment bits.
package snowflake

import (
	"time"

	"github.com/corvidkit/corvid/errs"
)

const (
	minBitLength = 51
	maxBitLength = 111
	// discordEpochMs is the fixed epoch (2015-01-01T00:00:00Z) added to the
	// timestamp bits before rendering a wall-clock time.
	discordEpochMs int64 = 1420070400000
)

// ID is an immutable 64-bit platform identifier.
type ID uint64

// New validates v's bit length and returns an ID, or ErrBadValue if v falls
// outside the inclusive [51, 111] bit-length range required by the platform.
func New(v uint64) (ID, error) {
	bits := bitLength(v)
	if bits < minBitLength || bits > maxBitLength {
		return 0, errs.ErrBadValue
	}
	return ID(v), nil
}

func bitLength(v uint64) int {
	n := 0
	for v != 0 {
		n++
		v >>= 1
	}
	return n
}

// Time decodes the millisecond timestamp embedded in the high bits and
// returns it as a UTC time.
func (id ID) Time() time.Time {
	ms := int64(id>>22) + discordEpochMs
	return time.UnixMilli(ms).UTC()
}

// WorkerID returns the 5-bit worker id (bits 17-21).
func (id ID) WorkerID() uint64 {
	return (uint64(id) & 0x3E0000) >> 17
}

// ProcessID returns the 5-bit process id (bits 12-16).
func (id ID) ProcessID() uint64 {
	return (uint64(id) & 0x1F000) >> 12
}

// Increment returns the 12-bit per-millisecond increment (bits 0-11).
func (id ID) Increment() uint64 {
	return uint64(id) & 0xFFF
}

// Uint64 exposes the raw identifier value.
func (id ID) Uint64() uint64 {
	return uint64(id)
}
