// SPDX-License-Identifier: MIT

package backref

// ComputeDistanceCache reconstructs the last-four-distances cache at
// position p by walking the node array backward via command lengths
// (spec.md §4.4). Only real copies count: not a dictionary reference, not a
// last-distance reuse (short_code == 0), and distance within max_backward.
// The walk stops after four entries or at node 0; remaining slots are
// filled from the caller-provided starting cache. Every command consumes
// at least two positions, so this terminates in at most ceil(p/2) steps.
func ComputeDistanceCache(p int, nodes []ZopfliNode, startingCache [4]uint32, maxBackward int) [4]uint32 {
	var out [4]uint32
	have := 0

	index := p
	for index > 0 && have < 4 {
		n := &nodes[index]
		length := int(n.CommandLength())
		if length == 0 {
			break
		}
		start := index - length

		if n.ShortCode == 0 && n.CopyLength > 0 && int(n.Distance) <= maxBackward && !isDictionaryDistance(n.Distance, n.CopyLength, maxBackward) {
			out[have] = n.Distance
			have++
		}

		index = start
	}

	for i := have; i < 4; i++ {
		out[i] = startingCache[i-have]
	}
	return out
}

func isDictionaryDistance(distance uint32, copyLength uint32, maxBackward int) bool {
	return copyLength > 0 && int(distance) > maxBackward
}
