// SPDX-License-Identifier: MIT

package backref

import "math"

// nodeNextSentinel terminates the forward-linked command chain produced by
// ComputeShortestPathFromNodes.
const nodeNextSentinel = math.MaxUint32

// ZopfliNode is one entry of the shortest-path DP table, one per stream
// position in [0, N]. During search, Cost holds the best known total cost
// (in fractional bits) to reach this position; after
// ComputeShortestPathFromNodes runs, Cost is no longer meaningful and next
// holds the chosen command's length instead (spec.md §3's tagged union,
// modeled here as two fields with disjoint validity windows rather than an
// untyped union).
type ZopfliNode struct {
	InsertLength       uint32
	CopyLength         uint32
	LengthCodeModifier uint8 // len_code - CopyLength + 9, see LengthCode.
	Distance           uint32
	ShortCode          uint8 // 0 = raw distance code (Distance+15); 1..16 = last-distance short code 0..15.

	Cost float32
	next uint32
}

// LengthCode recovers the length value the wire-level copy-length code is
// derived from for the copy ending at this node (via CopyLengthCode), which
// can differ from CopyLength when a dictionary match imposed a synthetic
// value (spec.md §3).
func (n *ZopfliNode) LengthCode() uint32 {
	modifier := uint32(n.LengthCodeModifier)
	return n.CopyLength + modifier - 9
}

// SetLengthCode stores lenCode so LengthCode() recovers it later.
func (n *ZopfliNode) SetLengthCode(lenCode uint32) {
	n.LengthCodeModifier = uint8(lenCode - n.CopyLength + 9) //nolint:gosec // G115: modifier fits a byte for realistic lengths
}

// CommandLength is insert_length + copy_length, the number of source bytes
// the command spanning up to this node consumes.
func (n *ZopfliNode) CommandLength() uint32 {
	return n.InsertLength + n.CopyLength
}

// Next returns the command length stored by ComputeShortestPathFromNodes, or
// (0, false) if this node was never visited by the reconstructed path.
func (n *ZopfliNode) Next() (uint32, bool) {
	if n.next == nodeNextSentinel {
		return 0, false
	}
	return n.next, true
}

func (n *ZopfliNode) setNext(v uint32) {
	n.next = v
}

// NewNodes allocates a fresh node array of size numBytes+1 with node[0]
// initialized to the start-of-block state (cost 0, zero-length incoming
// command) and every other node unreached (cost +Inf). allowAlloc, if
// non-nil, gates the allocation the way Options.MemoryLimiter does.
func NewNodes(numBytes int, allowAlloc func(int) bool) ([]ZopfliNode, error) {
	if numBytes < 0 {
		return nil, ErrInvalidBlock
	}

	size := numBytes + 1
	if allowAlloc != nil && !allowAlloc(size * int(nodeSizeBytes)) {
		return nil, ErrOutOfMemory
	}

	nodes := make([]ZopfliNode, size)
	resetNodes(nodes)
	return nodes, nil
}

// resetNodes reinitializes an existing node array in place, as the block
// driver does between passes (spec.md §4.6 step 1) to avoid reallocating.
func resetNodes(nodes []ZopfliNode) {
	inf := float32(math.Inf(1))
	for i := range nodes {
		nodes[i] = ZopfliNode{Cost: inf, next: nodeNextSentinel}
	}
	if len(nodes) > 0 {
		nodes[0] = ZopfliNode{Cost: 0, next: nodeNextSentinel}
	}
}

// nodeSizeBytes is used only to size MemoryLimiter accounting; it need not
// match the compiler's actual struct layout exactly.
const nodeSizeBytes = 32
