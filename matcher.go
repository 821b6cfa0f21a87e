// SPDX-License-Identifier: MIT

package backref

import "sync"

// MaxNumMatchesH10 is the per-position candidate count named by the Matcher
// contract (spec.md §6). h10Matcher.FindAllMatches does not check it; its
// result length is bounded only by the h10MaxChain chain walk.
const MaxNumMatchesH10 = 64

// h10HashBits/h10HashSize size the 3-byte hash table; h10MaxChain bounds
// how many chain links a single FindAllMatches call follows. The table size
// mirrors the teacher's hcMatch3Table bucket count
// (swdHashSize in sliding_window.go) but using a power of two so the index
// is a mask instead of a modulo.
const (
	h10HashBits    = 15
	h10HashSize    = 1 << h10HashBits
	h10MaxChain    = 2048
	h10MinMatchLen = 3
)

// Match is one backward-reference candidate FindAllMatches returns.
// LenCode is meaningful only when IsDictionary is set: it is the matcher's
// synthetic length code (spec.md §6's BackwardMatchLengthCode) stood in for
// the real Length when deriving the wire-level copy-length code, since a
// dictionary word's on-wire length code need not equal how many bytes it
// actually spans.
type Match struct {
	Distance     uint32
	Length       uint32
	LenCode      uint32
	IsDictionary bool
}

// Matcher is the capability set spec.md §6's "macro-instantiated matchers"
// design note asks a clean reimplementation to abstract over: Init, finding
// matches, telling the matcher which positions were consumed, and the two
// hasher-identifying constants CreateBackwardReferences needs. Only the H10
// variant (the one the Zopfli core actually drives) is implemented here;
// H2..H9 are acknowledged in spec.md but out of scope. Release lets a caller
// return a pooled implementation's resources once it is done with a block;
// an implementation with nothing to recycle can make it a no-op.
type Matcher interface {
	Init(ring *RingBuffer, numBytes int)
	FindAllMatches(pos, maxDistance, maxLength uint32) []Match
	Store(pos uint32)
	StoreRange(lo, hi uint32)
	HashTypeLength() int
	StoreLookahead() int
	BackwardMatchLengthCode(m Match) uint32
	Release()
}

// h10Matcher is a 3-byte hash-chain match finder adapted from the teacher's
// hcMatch3Table/hcMatch2Table (sliding_window.go's head3/head2 hashing and
// chain walk, match.go's advanceMatchFinder), generalized to return a
// sorted candidate list instead of driving LZO opcode selection directly.
type h10Matcher struct {
	ring *RingBuffer
	n    int

	head3 [h10HashSize]int32 // -1 = empty, else most recent position with this hash
	chain []int32            // chain[pos & mask] = previous position with the same hash

	head2 map[uint32]int32 // cheap 2-byte seed table, teacher's hashHead2

	dictMatch *Match // test-only seed for scenario 5 of spec.md §8
}

// h10MatcherPool recycles h10Matcher values across blocks so repeated
// CreateBackwardReferences calls on a stream of small blocks don't
// reallocate the 3-byte hash table every time, the same tradeoff the
// teacher's slidingWindowDictPool/hcDictPool make for their own dictionary
// structs (sliding_window_pool.go, compress_1x_999.go's hcDictPool).
var h10MatcherPool = sync.Pool{
	New: func() any {
		m := &h10Matcher{head2: make(map[uint32]int32)}
		for i := range m.head3 {
			m.head3[i] = -1
		}
		return m
	},
}

// NewH10Matcher returns the package's default Matcher implementation. Callers
// must call Release when done with it so the pool can recycle its hash
// tables, the same acquire/release pairing the teacher's
// acquireSlidingWindowDict/releaseSlidingWindowDict use around their one call
// site (compress9x.go).
func NewH10Matcher() Matcher {
	return h10MatcherPool.Get().(*h10Matcher) //nolint:forcetypeassert // pool only ever holds *h10Matcher
}

// Release returns m to the shared pool after a caller is done with it.
// Without a matching Release call per NewH10Matcher, the pool never recycles
// anything and every call allocates a fresh hash table.
func (m *h10Matcher) Release() {
	m.ring = nil
	m.n = 0
	m.chain = nil
	m.dictMatch = nil
	for k := range m.head2 {
		delete(m.head2, k)
	}
	for i := range m.head3 {
		m.head3[i] = -1
	}
	h10MatcherPool.Put(m)
}

func (m *h10Matcher) Init(ring *RingBuffer, numBytes int) {
	m.ring = ring
	m.n = numBytes
	size := 1
	for size < numBytes+h10MinMatchLen+1 {
		size <<= 1
	}
	m.chain = make([]int32, size)
	for i := range m.chain {
		m.chain[i] = -1
	}
}

func hash3(a, b, c byte) uint32 {
	key := uint32(a)
	key = (key << 5) ^ uint32(b)
	key = (key << 5) ^ uint32(c)
	return (key * 0x9f5f) >> (32 - h10HashBits) & (h10HashSize - 1)
}

func hash2(a, b byte) uint32 {
	return uint32(a) | uint32(b)<<8
}

// SeedDictionaryMatch makes FindAllMatches additionally report a synthetic
// dictionary match at every position, for exercising spec.md §8 scenario 5
// (no real static dictionary is modeled, per SPEC_FULL.md §4.8).
func (m *h10Matcher) SeedDictionaryMatch(distance, length uint32) {
	m.dictMatch = &Match{Distance: distance, Length: length, IsDictionary: true}
}

// FindAllMatches scans the hash chain rooted at pos's 3-byte hash, keeping
// the best (longest) candidate found at each new best-length threshold, so
// the hash-chain candidates are sorted by ascending length as spec.md §6
// requires; a match seeded by SeedDictionaryMatch is appended after them
// whatever its length. It also
// contributes a 2-byte candidate when no 3-byte match reaches distance-worthy
// length, then inserts pos into both tables (Store semantics folded in,
// matching the teacher's findBestMatch updating the chains it just read).
func (m *h10Matcher) FindAllMatches(pos, maxDistance, maxLength uint32) []Match {
	var out []Match
	if maxLength < h10MinMatchLen || int(pos)+h10MinMatchLen > m.n {
		m.Store(pos)
		if m.dictMatch != nil {
			out = append(out, *m.dictMatch)
		}
		return out
	}

	a, b, c := m.ring.At(pos), m.ring.At(pos+1), m.ring.At(pos+2)
	key := hash3(a, b, c)

	node := m.head3[key]
	best := uint32(0)
	chainLen := 0
	for node >= 0 && chainLen < h10MaxChain {
		dist := pos - uint32(node)
		if dist == 0 || dist > maxDistance {
			break
		}
		length := m.matchLength(uint32(node), pos, maxLength)
		if length > best && length >= h10MinMatchLen {
			best = length
			out = append(out, Match{Distance: dist, Length: length})
		}
		node = m.chain[uint32(node)&uint32(len(m.chain)-1)]
		chainLen++
	}

	if best == 0 && maxLength >= 2 {
		if seed, ok := m.head2[hash2(a, b)]; ok && uint32(seed) != pos {
			dist := pos - uint32(seed)
			if dist > 0 && dist <= maxDistance {
				out = append(out, Match{Distance: dist, Length: 2})
			}
		}
	}

	m.Store(pos)
	if m.dictMatch != nil {
		out = append(out, *m.dictMatch)
	}
	return out
}

// matchLength compares the bytes at `from` and `at` forward through the ring
// buffer, capped at maxLength, mirroring the teacher's searchBestMatch inner
// comparison loop but operating on RingBuffer addressing instead of a raw
// lookahead array.
func (m *h10Matcher) matchLength(from, at, maxLength uint32) uint32 {
	var l uint32
	for l < maxLength && m.ring.At(from+l) == m.ring.At(at+l) {
		l++
	}
	return l
}

func (m *h10Matcher) Store(pos uint32) {
	if int(pos)+h10MinMatchLen > m.n {
		return
	}
	a, b, c := m.ring.At(pos), m.ring.At(pos+1), m.ring.At(pos+2)
	key := hash3(a, b, c)
	m.chain[pos&uint32(len(m.chain)-1)] = m.head3[key]
	m.head3[key] = int32(pos) //nolint:gosec // G115: pos bounded by block size
	m.head2[hash2(a, b)] = int32(pos) //nolint:gosec // G115: pos bounded by block size
}

func (m *h10Matcher) StoreRange(lo, hi uint32) {
	for p := lo; p < hi; p++ {
		m.Store(p)
	}
}

func (m *h10Matcher) HashTypeLength() int { return h10MinMatchLen }
func (m *h10Matcher) StoreLookahead() int { return h10MinMatchLen }

// BackwardMatchLengthCode returns the synthetic length a dictionary match's
// wire-level copy-length code should be derived from in place of its real
// Length (spec.md §6). A real static dictionary stores words pre-split into
// fixed transform classes whose on-wire length rarely equals the number of
// bytes the transform expands to; without one (SPEC_FULL.md §4.8), this
// matcher reports the match's own Length unchanged, so a dictionary match
// behaves like an ordinary one except for never updating the distance
// cache (Command.updatesDistanceCache in commands.go).
func (m *h10Matcher) BackwardMatchLengthCode(match Match) uint32 {
	return match.Length
}
