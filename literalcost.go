// SPDX-License-Identifier: MIT

package backref

// EstimateLiteralCosts seeds the first Zopfli pass's literal_costs, the
// "external literal-cost estimator" spec.md §4.1 calls for. It builds an
// order-1 (previous-byte-conditioned) histogram over the block, as a real
// literal-cost estimator would do to capture local structure a flat
// byte histogram misses, and converts counts to bit costs with the same
// Shannon formula the histogram-based cost model refinement uses
// (costsFromHistogram in costmodel.go), adapted in spirit from Brotli's
// BrotliEstimateBitCostsForLiterals (named, not sourced, in SPEC_FULL.md
// §4.9: no Brotli encoder source was present in the retrieved corpus).
// allowAlloc, if non-nil, gates the output allocation the way
// Options.MemoryLimiter does.
func EstimateLiteralCosts(ring *RingBuffer, pos uint32, n int, allowAlloc func(int) bool) ([]float32, error) {
	if allowAlloc != nil && !allowAlloc(n * 4) {
		return nil, ErrOutOfMemory
	}

	var hist [256][256]uint32
	var totals [256]uint32

	prev := byte(0)
	if pos > 0 {
		prev = ring.At(pos - 1)
	}
	for i := 0; i < n; i++ {
		b := ring.At(pos + uint32(i)) //nolint:gosec // G115: i bounded by n
		hist[prev][b]++
		totals[prev]++
		prev = b
	}

	var ctxCost [256][]float32
	for ctx := range hist {
		if totals[ctx] == 0 {
			continue
		}
		ctxCost[ctx] = costsFromHistogram(hist[ctx][:])
	}

	out := make([]float32, n)
	prev = 0
	if pos > 0 {
		prev = ring.At(pos - 1)
	}
	for i := 0; i < n; i++ {
		b := ring.At(pos + uint32(i)) //nolint:gosec // G115: i bounded by n
		if ctxCost[prev] != nil {
			out[i] = ctxCost[prev][b]
		} else {
			out[i] = 8
		}
		prev = b
	}
	return out, nil
}
