// SPDX-License-Identifier: MIT

package backref

import "math"

// ZopfliCostModel holds the per-symbol bit-cost tables UpdateNodes relaxes
// edges against, plus the cumulative literal-cost prefix sum (spec.md §3).
type ZopfliCostModel struct {
	cmdCost  [BrotliNumCommandSymbols]float32
	distCost []float32

	// literalCosts[j]-literalCosts[i] is the literal cost of [i,j).
	literalCosts []float32

	minCostCmd float32

	numDistanceSymbols int

	// allowLastDistance replaces the process-wide toggle named in spec.md
	// §9: when false, UpdateNodes skips all last-distance short-code
	// candidates regardless of what the distance cache holds.
	allowLastDistance bool
}

// costModelSizeBytes is used only to size MemoryLimiter accounting; it need
// not match unsafe.Sizeof exactly.
const costModelSizeBytes = 4

func newCostModel(numDistanceSymbols int, allowLastDistance bool, allowAlloc func(int) bool) (*ZopfliCostModel, error) {
	if allowAlloc != nil && !allowAlloc(numDistanceSymbols * costModelSizeBytes) {
		return nil, ErrOutOfMemory
	}
	return &ZopfliCostModel{
		distCost:           make([]float32, numDistanceSymbols),
		numDistanceSymbols: numDistanceSymbols,
		allowLastDistance:  allowLastDistance,
	}, nil
}

// SetFromLiteralCosts initializes the model with a distance-independent
// logarithmic shape for commands and distances, and literalCosts from the
// caller's estimate (spec.md §4.1, "Literal-cost-only initialization").
// perByteCost must have length numBytes and is consumed, not retained.
// allowAlloc, if non-nil, gates the literalCosts allocation the way
// Options.MemoryLimiter does.
func (m *ZopfliCostModel) SetFromLiteralCosts(numBytes int, perByteCost []float32, allowAlloc func(int) bool) error {
	if allowAlloc != nil && !allowAlloc((numBytes + 1) * costModelSizeBytes) {
		return ErrOutOfMemory
	}

	m.literalCosts = make([]float32, numBytes+1)
	var sum float32
	for i := 0; i < numBytes; i++ {
		sum += perByteCost[i]
		m.literalCosts[i+1] = sum
	}

	for i := range m.cmdCost {
		m.cmdCost[i] = log2f(float32(11 + i))
	}
	for i := range m.distCost {
		m.distCost[i] = log2f(float32(20 + i))
	}
	m.minCostCmd = log2f(11)
	return nil
}

// SetFromCommands rebuilds the model from histograms of the commands a prior
// pass emitted, as spec.md §4.1's "Histogram-based refinement" describes.
// ring/mask address the source bytes that the insert runs covered. allowAlloc,
// if non-nil, gates the literalCosts allocation the way SetFromLiteralCosts
// does.
func (m *ZopfliCostModel) SetFromCommands(numBytes, position int, ring *RingBuffer, commands []Command, lastInsertLen int, allowAlloc func(int) bool) error {
	if allowAlloc != nil && !allowAlloc((numBytes + 1) * costModelSizeBytes) {
		return ErrOutOfMemory
	}

	var histLit [256]uint32
	var histCmd [BrotliNumCommandSymbols]uint32
	histDist := make([]uint32, m.numDistanceSymbols)

	pos := position
	for _, c := range commands {
		for i := uint32(0); i < c.InsertLength; i++ {
			histLit[ring.At(uint32(pos) + i)]++
		}
		pos += int(c.InsertLength)

		cmdCode := c.CmdCode()
		histCmd[cmdCode]++
		if CmdCodeHasExplicitDistance(cmdCode) {
			sym := distanceSymbol(c.ShortCode, c.Distance, m.numDistanceSymbols)
			histDist[sym]++
		}

		pos += int(c.CopyLength)
	}
	for i := uint32(0); i < uint32(lastInsertLen); i++ { //nolint:gosec // G115: lastInsertLen bounded by block size
		histLit[ring.At(uint32(pos) + i)]++
	}

	litCost := costsFromHistogram(histLit[:])
	cmdCostTable := costsFromHistogram(histCmd[:])
	distCostTable := costsFromHistogram(histDist)

	copy(m.cmdCost[:], cmdCostTable)
	m.distCost = distCostTable

	m.minCostCmd = m.cmdCost[0]
	for _, c := range m.cmdCost {
		if c < m.minCostCmd {
			m.minCostCmd = c
		}
	}

	m.literalCosts = make([]float32, numBytes+1)
	var sum float32
	for i := 0; i < numBytes; i++ {
		sum += litCost[ring.At(uint32(position + i))] //nolint:gosec // G115: position+i bounded by block size
		m.literalCosts[i+1] = sum
	}
	return nil
}

// LiteralCost returns the literal cost of the half-open range [from, to).
func (m *ZopfliCostModel) LiteralCost(from, to int) float32 {
	return m.literalCosts[to] - m.literalCosts[from]
}

// TotalLiteralCost returns LiteralCost(0, n).
func (m *ZopfliCostModel) TotalLiteralCost(n int) float32 {
	return m.literalCosts[n]
}

func (m *ZopfliCostModel) CmdCost(code uint32) float32 {
	return m.cmdCost[code]
}

func (m *ZopfliCostModel) DistCost(symbol uint32) float32 {
	if int(symbol) >= len(m.distCost) {
		symbol = uint32(len(m.distCost) - 1)
	}
	return m.distCost[symbol]
}

func (m *ZopfliCostModel) MinCostCmd() float32 {
	return m.minCostCmd
}

// costsFromHistogram converts symbol counts to Shannon-style bit costs
// (spec.md §4.1): unseen symbols cost log2(sum)+2, seen symbols cost
// max(1, log2(sum)-log2(count)).
func costsFromHistogram(hist []uint32) []float32 {
	var total uint32
	for _, c := range hist {
		total += c
	}

	costs := make([]float32, len(hist))
	if total == 0 {
		for i := range costs {
			costs[i] = log2f(float32(len(hist)))
		}
		return costs
	}

	log2sum := log2f(float32(total))
	for i, c := range hist {
		if c == 0 {
			costs[i] = log2sum + 2
			continue
		}
		costs[i] = float32(math.Max(1.0, float64(log2sum-log2f(float32(c)))))
	}
	return costs
}

func log2f(x float32) float32 {
	if x <= 0 {
		return 0
	}
	return float32(math.Log2(float64(x)))
}
