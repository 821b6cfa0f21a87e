// SPDX-License-Identifier: MIT

package backref

import "errors"

// Sentinel errors returned by the backward-reference core. Callers can use
// errors.Is(err, backref.ErrOutOfMemory) etc.
var (
	// ErrOutOfMemory is returned when Options.MemoryLimiter rejects an
	// allocation. No partial command stream is produced alongside it.
	ErrOutOfMemory = errors.New("backref: out of memory")

	// ErrInvalidBlock is returned for malformed call parameters (negative
	// lengths, a window that does not fit the ring buffer's mask, and the
	// like). These are API misuse, not the infeasible-edge cases the search
	// itself skips silently.
	ErrInvalidBlock = errors.New("backref: invalid block parameters")
)
