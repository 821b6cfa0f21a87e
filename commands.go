// SPDX-License-Identifier: MIT

package backref

// Command is one emitted backward reference: copy InsertLength literal bytes
// from the current position, then copy CopyLength bytes from Distance bytes
// earlier (spec.md glossary). LengthCode is the prefix length code, which
// for dictionary matches differs from CopyLength (the node's
// LengthCodeModifier makes this recoverable). ShortCode is 0 for a raw
// distance or 1..16 for last-distance short code 0..15; IsDictionary marks a
// match whose Distance points past MaxBackward into the (unmodeled) static
// dictionary, which never updates the rolling distance cache.
type Command struct {
	InsertLength uint32
	CopyLength   uint32
	LengthCode   uint32
	Distance     uint32
	ShortCode    uint8
	IsDictionary bool
}

// DistanceCode returns the wire-level distance code: the short code index
// (0..15) if ShortCode is set, otherwise the raw code Distance+15.
func (c Command) DistanceCode() uint32 {
	if c.ShortCode == 0 {
		return rawDistanceCode(c.Distance)
	}
	return uint32(c.ShortCode) - 1
}

// CmdCode returns the combined command symbol for cost/histogram purposes.
func (c Command) CmdCode() uint32 {
	insCode := InsertLengthCode(c.InsertLength)
	copyCode := CopyLengthCode(c.LengthCode)
	useLastDistance := c.ShortCode == 1 && !c.IsDictionary
	return CombineLengthCodes(insCode, copyCode, useLastDistance)
}

// updatesDistanceCache reports whether materializing this command should
// shift a new value into the rolling distance cache (spec.md §4.7: real,
// non-dictionary, non-last-distance-reuse commands only).
func (c Command) updatesDistanceCache() bool {
	return c.CopyLength > 0 && !c.IsDictionary && c.ShortCode == 0
}

// CreateCommands walks the forward-linked node array nodes[0:numBytes+1]
// (already populated by ComputeShortestPathFromNodes) and materializes the
// chosen commands, folding lastInsertLen into the first command's insert
// length and updating the rolling distanceCache and numLiterals in place
// (spec.md §4.7). Any residual bytes after the last chosen command are
// accumulated into the returned lastInsertLen for the caller's next block.
func CreateCommands(nodes []ZopfliNode, numBytes, maxBackward int, distanceCache *[4]uint32, lastInsertLen int, numLiterals *int) ([]Command, int) {
	if numBytes == 0 {
		return nil, lastInsertLen
	}

	var commands []Command
	first := true

	pos := 0
	for pos < numBytes {
		length, ok := nodes[pos].Next()
		if !ok {
			break
		}

		// The command starting at pos arrives at pos+length; its descriptive
		// fields live on the arrival node, not the start node (spec.md §3,
		// §4.5 — see pathrecon.go).
		n := &nodes[pos+int(length)]
		insertLength := n.InsertLength
		if first {
			insertLength += uint32(lastInsertLen) //nolint:gosec // G115: lastInsertLen bounded by caller block sizes
			lastInsertLen = 0
			first = false
		}

		cmd := Command{
			InsertLength: insertLength,
			CopyLength:   n.CopyLength,
			LengthCode:   n.LengthCode(),
			Distance:     n.Distance,
			ShortCode:    n.ShortCode,
			IsDictionary: n.Distance > uint32(maxBackward) && n.CopyLength > 0, //nolint:gosec // G115: maxBackward non-negative by construction
		}

		*numLiterals += int(cmd.InsertLength)

		if cmd.updatesDistanceCache() {
			copy(distanceCache[1:], distanceCache[:3])
			distanceCache[0] = cmd.Distance
		}

		commands = append(commands, cmd)
		pos += int(length)
	}

	residual := numBytes - pos
	lastInsertLen += residual
	*numLiterals += residual

	return commands, lastInsertLen
}
