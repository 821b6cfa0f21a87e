// SPDX-License-Identifier: MIT

package backref

import "testing"

// nodesForPath builds a minimal node array with descriptive fields set on
// each arrival node, as pathrecon.go documents: the command landing at index
// i describes itself via nodes[i], not via its start position.
func nodesForPath(size int, arrivals map[int]ZopfliNode) []ZopfliNode {
	nodes := make([]ZopfliNode, size)
	for i, n := range arrivals {
		nodes[i] = n
	}
	return nodes
}

func TestComputeDistanceCache_WalksRealCopiesOnly(t *testing.T) {
	nodes := nodesForPath(7, map[int]ZopfliNode{
		3: {InsertLength: 0, CopyLength: 3, Distance: 7, ShortCode: 0},
		6: {InsertLength: 0, CopyLength: 3, Distance: 5, ShortCode: 0},
	})

	starting := [4]uint32{100, 200, 300, 400}
	got := ComputeDistanceCache(6, nodes, starting, 1<<20)

	want := [4]uint32{5, 7, 100, 200}
	if got != want {
		t.Fatalf("ComputeDistanceCache = %v, want %v", got, want)
	}
}

func TestComputeDistanceCache_SkipsLastDistanceReuse(t *testing.T) {
	nodes := nodesForPath(5, map[int]ZopfliNode{
		// ShortCode != 0: a last-distance reuse, must not contribute its
		// own distance to the reconstructed cache (spec.md §4.4).
		4: {InsertLength: 0, CopyLength: 4, Distance: 3, ShortCode: 1},
	})

	starting := [4]uint32{9, 9, 9, 9}
	got := ComputeDistanceCache(4, nodes, starting, 1<<20)
	if got != starting {
		t.Fatalf("ComputeDistanceCache = %v, want unchanged starting cache %v", got, starting)
	}
}

func TestComputeDistanceCache_SkipsDictionaryDistances(t *testing.T) {
	nodes := nodesForPath(10, map[int]ZopfliNode{
		9: {InsertLength: 0, CopyLength: 9, Distance: 1000, ShortCode: 0},
	})

	starting := [4]uint32{1, 2, 3, 4}
	got := ComputeDistanceCache(9, nodes, starting, 100) // maxBackward=100 < distance 1000
	if got != starting {
		t.Fatalf("ComputeDistanceCache = %v, want unchanged starting cache %v (dictionary distance skipped)", got, starting)
	}
}

func TestComputeDistanceCache_StopsAtFourEntries(t *testing.T) {
	arrivals := map[int]ZopfliNode{}
	// Five 2-byte copies back to back: positions 2,4,6,8,10, each a fresh
	// real distance. Only the four nearest should survive.
	for i, pos := range []int{2, 4, 6, 8, 10} {
		arrivals[pos] = ZopfliNode{InsertLength: 0, CopyLength: 2, Distance: uint32(100 + i), ShortCode: 0}
	}
	nodes := nodesForPath(11, arrivals)

	got := ComputeDistanceCache(10, nodes, [4]uint32{}, 1<<20)
	want := [4]uint32{104, 103, 102, 101}
	if got != want {
		t.Fatalf("ComputeDistanceCache = %v, want %v", got, want)
	}
}
