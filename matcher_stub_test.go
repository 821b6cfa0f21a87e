// SPDX-License-Identifier: MIT

package backref

// stubMatcher is a scripted Matcher used by the end-to-end scenario tests in
// scenarios_test.go: it returns exactly the candidate lists the test wires
// up per position instead of discovering them from the ring's content,
// mirroring spec.md §6's "Matcher contract" as an injectable collaborator.
type stubMatcher struct {
	matchesByPos map[int][]Match

	storeRangeCalls [][2]uint32
	storeCalls      []uint32
}

func (m *stubMatcher) Init(*RingBuffer, int) {}

func (m *stubMatcher) Release() {}

func (m *stubMatcher) FindAllMatches(pos, _, _ uint32) []Match {
	cands := m.matchesByPos[int(pos)]
	out := make([]Match, len(cands))
	copy(out, cands)
	return out
}

func (m *stubMatcher) Store(pos uint32) {
	m.storeCalls = append(m.storeCalls, pos)
}

func (m *stubMatcher) StoreRange(lo, hi uint32) {
	m.storeRangeCalls = append(m.storeRangeCalls, [2]uint32{lo, hi})
}

func (m *stubMatcher) HashTypeLength() int { return 3 }
func (m *stubMatcher) StoreLookahead() int { return 3 }

// BackwardMatchLengthCode echoes the scripted LenCode a test attached to a
// dictionary match, standing in for a real static dictionary's synthetic
// length-code lookup (spec.md §6).
func (m *stubMatcher) BackwardMatchLengthCode(match Match) uint32 {
	return match.LenCode
}
