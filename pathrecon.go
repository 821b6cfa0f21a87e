// SPDX-License-Identifier: MIT

package backref

// ComputeShortestPathFromNodes walks the finished node array backward from
// the last position with finite cost, following each node's
// (InsertLength+CopyLength) back to its predecessor, and rewrites the
// predecessor's `next` field to the command length (spec.md §4.5). The
// descriptive fields of a command (InsertLength, CopyLength, Distance,
// ShortCode, LengthCodeModifier) live on the node at the command's *arrival*
// position; after this call nodes[p].Next() gives the length of the command
// that starts at p, and its fields are found at nodes[p+length].
//
// Reconstruction writes only the next fields (Cost is left as it was) and
// runs once per pass. Returns the number of commands on the path.
//
// Unreached nodes keep a zero CommandLength. The walk skips back over any
// such nodes at the end of the block, so when no edge ends exactly at
// numBytes the path stops at the last reached position and CreateCommands
// folds the bytes after it into a residual literal run. If no position was
// reached at all, ComputeShortestPathFromNodes returns 0 and leaves
// nodes[0].next at its sentinel, so the entire block becomes that run.
func ComputeShortestPathFromNodes(nodes []ZopfliNode, numBytes int) int {
	index := numBytes
	for index > 0 && nodes[index].CommandLength() == 0 {
		index--
	}
	numCommands := 0

	for index > 0 {
		length := int(nodes[index].CommandLength())
		if length == 0 {
			break
		}
		prev := index - length
		nodes[prev].setNext(uint32(length)) //nolint:gosec // G115: length bounded by block size
		index = prev
		numCommands++
	}

	return numCommands
}
