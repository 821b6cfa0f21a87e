// SPDX-License-Identifier: MIT

package backref

// copyLenCodeBoundaries are the copy-length-code bucket boundaries Step B of
// UpdateNodes crosses while widening the minimum useful copy length: each
// boundary doubles the previous bucket size (spec.md §4.3 step B).
var copyLenCodeBoundaries = [...]int{10, 14, 22, 38, 70, 134, 2118}

// UpdateNodes performs one position's worth of edge relaxation (spec.md
// §4.3): it enqueues p as a future start candidate if it is reachable no
// worse than an all-literal path, computes the minimum copy length worth
// trying from the current best candidate, then relaxes edges from up to
// maxIters best start positions, last-distance short codes first and then
// (for the two best starts only) fresh matcher candidates.
//
// matches must be sorted by ascending Length, as the Matcher contract
// requires; a fresh candidate longer than maxZopfliLen is tried only at its
// full length.
func UpdateNodes(numBytes, position int, nodes []ZopfliNode, model *ZopfliCostModel, queue *startPosQueue, p int, matches []Match, distCache [4]uint32, maxBackward, maxZopfliLen, maxIters int, ring *RingBuffer) {
	if nodes[p].Cost <= model.LiteralCost(0, p) {
		startCache := ComputeDistanceCache(p, nodes, distCache, maxBackward)
		queue.push(startPosEntry{
			pos:           p,
			distanceCache: startCache,
			costDiff:      nodes[p].Cost - model.LiteralCost(0, p),
		})
	}

	if queue.size() == 0 {
		return
	}

	minLen := ComputeMinimumCopyLength(nodes, model, queue, p, numBytes)
	// Lengths below minLen are provably unable to beat any future node's
	// current best cost (spec.md §4.3 step B), so both relaxation passes
	// start their length scan there instead of at 2.
	floor := uint32(minLen - 1) //nolint:gosec // G115: minLen >= 2 by construction

	iters := maxIters
	if queue.size() < iters {
		iters = queue.size()
	}

	for k := 0; k < iters; k++ {
		entry := *queue.at(k)
		start := entry.pos
		insertLength := uint32(p - start) //nolint:gosec // G115: p-start non-negative, bounded by block size
		inscode := InsertLengthCode(insertLength)
		baseCost := entry.costDiff + float32(InsertExtraBits(inscode)) + model.LiteralCost(0, p)

		bestLen := relaxLastDistanceCandidates(nodes, model, p, position, numBytes, insertLength, inscode, baseCost, entry.distanceCache, maxBackward, ring, floor)

		if k < 2 {
			if bestLen < floor {
				bestLen = floor
			}
			relaxFreshMatches(nodes, model, p, insertLength, inscode, baseCost, matches, bestLen, maxZopfliLen)
		}
	}
}

// ComputeMinimumCopyLength implements spec.md §4.3 step B: starting from
// len=2, it widens len while a copy of that length starting at p could still
// beat node[p+len]'s current best cost, crossing a +1.0 bit penalty at each
// copy-length-code bucket boundary. The result is the smallest copy length
// that could possibly improve any future node; shorter copies are provably
// unhelpful and the caller skips trying them.
func ComputeMinimumCopyLength(nodes []ZopfliNode, model *ZopfliCostModel, queue *startPosQueue, p, numBytes int) int {
	q0 := queue.at(0).pos
	minCost := nodes[q0].Cost + model.LiteralCost(0, p) - model.LiteralCost(0, q0) + model.MinCostCmd()

	minLen := 2
	boundary := 0
	for p+minLen <= numBytes && nodes[p+minLen].Cost <= minCost {
		for boundary < len(copyLenCodeBoundaries) && minLen >= copyLenCodeBoundaries[boundary] {
			minCost += 1.0
			boundary++
		}
		minLen++
	}
	return minLen
}

// relaxLastDistanceCandidates implements spec.md §4.3 step C.2: for each of
// the 16 last-distance short codes, recover the candidate distance from the
// start's distance-cache snapshot, find its match length by comparison, and
// relax every length between the running best and that match length.
// Returns the best length reached across all 16 codes, the floor
// relaxFreshMatches continues from.
func relaxLastDistanceCandidates(nodes []ZopfliNode, model *ZopfliCostModel, p, position, numBytes int, insertLength, inscode uint32, baseCost float32, distCache [4]uint32, maxBackward int, ring *RingBuffer, floor uint32) uint32 {
	if !model.allowLastDistance {
		return floor
	}

	curIx := uint32(position + p) //nolint:gosec // G115: position+p bounded by input size
	maxLen := uint32(numBytes - p) //nolint:gosec // G115: numBytes-p non-negative by loop bound
	bestLen := floor

	for j := 0; j < BrotliNumDistanceShortCodes; j++ {
		idx := kDistanceCacheIndex[j]
		cand := int64(distCache[idx]) + int64(kDistanceCacheOffset[j])
		if cand <= 0 {
			continue
		}
		distance := uint32(cand)

		maxDistance := p
		if maxDistance > maxBackward {
			maxDistance = maxBackward
		}
		if maxDistance < 0 || distance > uint32(maxDistance) { //nolint:gosec // G115: maxDistance checked non-negative
			continue
		}
		if distance < kLimits[j] {
			continue
		}
		if curIx < distance {
			continue
		}

		srcPos := curIx - distance
		if bestLen > 0 && ring.At(curIx+bestLen) != ring.At(srcPos+bestLen) {
			continue
		}

		length := matchLengthAt(ring, srcPos, curIx, maxLen)
		if length <= bestLen {
			continue
		}

		for l := bestLen + 1; l <= length; l++ {
			copycode := CopyLengthCode(l)
			cmdcode := CombineLengthCodes(inscode, copycode, j == 0)

			cost := baseCost + float32(CopyExtraBits(copycode)) + model.CmdCost(cmdcode)
			if CmdCodeHasExplicitDistance(cmdcode) {
				sym := distanceSymbol(uint8(j+1), distance, model.numDistanceSymbols) //nolint:gosec // G115: j in [0,16)
				cost += model.DistCost(sym)
			}

			dst := &nodes[uint32(p)+l] //nolint:gosec // G115: p, l bounded by block size
			if cost < dst.Cost {
				dst.Cost = cost
				dst.InsertLength = insertLength
				dst.CopyLength = l
				dst.SetLengthCode(l)
				dst.Distance = distance
				dst.ShortCode = uint8(j + 1) //nolint:gosec // G115: j in [0,16)
			}
		}

		bestLen = length
	}

	return bestLen
}

func matchLengthAt(ring *RingBuffer, from, at, maxLen uint32) uint32 {
	var l uint32
	for l < maxLen && ring.At(from+l) == ring.At(at+l) {
		l++
	}
	return l
}

// relaxFreshMatches implements spec.md §4.3 step C.3: iterate the matcher's
// candidates in ascending-length order, skipping lengths already covered by
// the last-distance pass (floorLen). A dictionary candidate is tried only at
// its own maximum length, with the matcher's synthetic length code in place
// of the real copy length; a candidate past maxZopfliLen is likewise tried
// only at its own length. Each candidate then becomes the running floor, so
// later candidates start past it.
func relaxFreshMatches(nodes []ZopfliNode, model *ZopfliCostModel, p int, insertLength, inscode uint32, baseCost float32, matches []Match, floorLen uint32, maxZopfliLen int) {
	length := floorLen

	for _, match := range matches {
		if match.IsDictionary {
			relaxOneCopy(nodes, model, p, insertLength, inscode, baseCost, match.Distance, match.Length, match.LenCode)
			length = match.Length
			continue
		}

		if match.Length <= length {
			continue
		}
		if match.Length > uint32(maxZopfliLen) { //nolint:gosec // G115: maxZopfliLen non-negative
			length = match.Length - 1
		}

		for l := length + 1; l <= match.Length; l++ {
			relaxOneCopy(nodes, model, p, insertLength, inscode, baseCost, match.Distance, l, l)
		}

		length = match.Length
	}
}

// relaxOneCopy relaxes the single edge node[p+copyLength] via a fresh
// (non-last-distance) candidate. lenCode is the stored length code, which
// for a dictionary match is the matcher's synthetic code rather than
// copyLength itself.
func relaxOneCopy(nodes []ZopfliNode, model *ZopfliCostModel, p int, insertLength, inscode uint32, baseCost float32, distance, copyLength, lenCode uint32) {
	copycode := CopyLengthCode(lenCode)
	cmdcode := CombineLengthCodes(inscode, copycode, false)
	sym := distanceSymbol(0, distance, model.numDistanceSymbols)
	cost := baseCost + float32(CopyExtraBits(copycode)) + model.DistCost(sym) + float32(DistExtraBits(distance)) + model.CmdCost(cmdcode)

	dst := &nodes[uint32(p)+copyLength] //nolint:gosec // G115: p, copyLength bounded by block size
	if cost >= dst.Cost {
		return
	}
	dst.Cost = cost
	dst.InsertLength = insertLength
	dst.CopyLength = copyLength
	dst.SetLengthCode(lenCode)
	dst.Distance = distance
	dst.ShortCode = 0
}
