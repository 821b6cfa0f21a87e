// SPDX-License-Identifier: MIT

package backref

// ZopfliCoreState bundles the per-block working set the optimizer owns for
// the duration of one call (spec.md §5): the node array, the cost model, the
// start-position queue, and the caller's ring buffer and pre-built matches.
// It exists so ComputeShortestPath can be driven directly by tests or by a
// caller that wants to manage multi-block continuation itself, alongside the
// higher-level CreateBackwardReferences below.
type ZopfliCoreState struct {
	Nodes   []ZopfliNode
	Model   *ZopfliCostModel
	Ring    *RingBuffer
	Matches [][]Match

	MaxBackward  int
	MaxZopfliLen int
	MaxIters     int

	queue startPosQueue
}

// ComputeShortestPath runs one optimization pass over state.Nodes[0:numBytes]
// (spec.md §4.2-§4.5): it relaxes edges at every position in increasing
// order, then reconstructs the chosen path. It returns the number of
// commands on the path and the modeled total cost stored at
// state.Nodes[numBytes], which is +Inf when no copy ends exactly at numBytes.
func ComputeShortestPath(state *ZopfliCoreState, numBytes, position int, distCache [4]uint32) (numCommands int, totalCost float32) {
	state.queue.reset()

	for p := 0; p < numBytes; p++ {
		var matches []Match
		if p < len(state.Matches) {
			matches = state.Matches[p]
		}
		UpdateNodes(numBytes, position, state.Nodes, state.Model, &state.queue, p, matches, distCache, state.MaxBackward, state.MaxZopfliLen, state.MaxIters, state.Ring)
	}

	totalCost = state.Nodes[numBytes].Cost
	numCommands = ComputeShortestPathFromNodes(state.Nodes, numBytes)
	return numCommands, totalCost
}

// BlockStats reports the outcome of one CreateBackwardReferences call: the
// counts a caller needs to carry into entropy coding, plus the modeled total
// bit cost of each pass as ComputeShortestPath returned it (one entry at
// quality 10, two at quality 11, each under that pass's own cost model).
type BlockStats struct {
	NumLiterals   int
	NumCommands   int
	LastInsertLen int
	PassCosts     []float32
}

// matchesSliceHeaderBytes is used only to size MemoryLimiter accounting for
// the per-position [][]Match backbone; it need not match unsafe.Sizeof
// exactly.
const matchesSliceHeaderBytes = 24

// prebuildMatches runs the matcher across the whole block up front (spec.md
// §4.6): a match exceeding maxZopfliLen collapses its position to that one
// candidate, the positions it spans are skipped, and the matcher's
// StoreRange keeps its internal hash state consistent with the skip.
// allowAlloc, if non-nil, gates the result backbone's allocation the way
// Options.MemoryLimiter does.
func prebuildMatches(matcher Matcher, numBytes, position, maxBackward, maxZopfliLen int, allowAlloc func(int) bool) ([][]Match, error) {
	if allowAlloc != nil && !allowAlloc(numBytes * matchesSliceHeaderBytes) {
		return nil, ErrOutOfMemory
	}

	result := make([][]Match, numBytes)

	i := 0
	for i < numBytes {
		maxDistance := i
		if maxDistance > maxBackward {
			maxDistance = maxBackward
		}
		maxLength := numBytes - i

		cands := matcher.FindAllMatches(uint32(position+i), uint32(maxDistance), uint32(maxLength)) //nolint:gosec // G115: position+i, maxDistance, maxLength bounded by block size
		for idx := range cands {
			if cands[idx].IsDictionary {
				cands[idx].LenCode = matcher.BackwardMatchLengthCode(cands[idx])
			}
		}

		longest := uint32(0)
		if len(cands) > 0 {
			longest = cands[len(cands)-1].Length
		}
		if int(longest) > maxZopfliLen {
			result[i] = cands[len(cands)-1:]
			end := i + int(longest)
			if end > numBytes {
				end = numBytes
			}
			matcher.StoreRange(uint32(position+i+1), uint32(position+end)) //nolint:gosec // G115: bounded by block size
			i = end
			continue
		}

		result[i] = cands
		i++
	}

	return result, nil
}

// CreateBackwardReferences is the package's top-level entry point (spec.md
// §4.6): at quality 10 it runs the optimizer once with a literal-only cost
// model; at quality 11 it runs it twice, rebuilding the cost model from the
// first pass's command histogram before the second. distCache is read for
// the block's starting state and updated in place to the state after the
// chosen commands, as spec.md §4.7 describes. Each call treats ring[position:
// position+numBytes] as one independent block starting with no residual
// insert length; a caller chaining blocks manually should use
// ComputeShortestPath/CreateCommands directly and carry BlockStats.LastInsertLen
// itself.
func CreateBackwardReferences(ring *RingBuffer, numBytes, position int, matcher Matcher, distCache *[4]uint32, opts *Options) ([]Command, BlockStats, error) {
	o := normalizeOptions(opts)

	if numBytes < 0 {
		return nil, BlockStats{}, ErrInvalidBlock
	}
	if numBytes == 0 {
		return nil, BlockStats{}, nil
	}
	if numBytes > ring.Len() {
		return nil, BlockStats{}, ErrInvalidBlock
	}

	matcher.Init(ring, numBytes)
	matches, err := prebuildMatches(matcher, numBytes, position, o.MaxBackward, o.maxZopfliLen(), o.allowAlloc)
	if err != nil {
		return nil, BlockStats{}, err
	}

	nodes, err := NewNodes(numBytes, o.allowAlloc)
	if err != nil {
		return nil, BlockStats{}, err
	}

	model, err := newCostModel(o.numDistanceSymbols(), o.AllowLastDistance, o.allowAlloc)
	if err != nil {
		return nil, BlockStats{}, err
	}
	perByteCost, err := EstimateLiteralCosts(ring, uint32(position), numBytes, o.allowAlloc) //nolint:gosec // G115: position bounded by caller
	if err != nil {
		return nil, BlockStats{}, err
	}
	if err := model.SetFromLiteralCosts(numBytes, perByteCost, o.allowAlloc); err != nil {
		return nil, BlockStats{}, err
	}

	state := &ZopfliCoreState{
		Nodes:        nodes,
		Model:        model,
		Ring:         ring,
		Matches:      matches,
		MaxBackward:  o.MaxBackward,
		MaxZopfliLen: o.maxZopfliLen(),
		MaxIters:     o.maxItersForQuality(),
	}

	passCosts := make([]float32, 0, 2)

	numCommands, cost := ComputeShortestPath(state, numBytes, position, *distCache)
	passCosts = append(passCosts, cost)
	log.WithFields(map[string]interface{}{
		"quality": o.Quality, "pass": 0, "num_commands": numCommands, "total_cost_bits": cost,
	}).Debug("zopfli pass complete")

	if o.Quality < 11 {
		scratchCache := *distCache
		var numLiterals int
		commands, lastInsertLen := CreateCommands(nodes, numBytes, o.MaxBackward, &scratchCache, 0, &numLiterals)
		*distCache = scratchCache
		return commands, BlockStats{
			NumLiterals:   numLiterals,
			NumCommands:   len(commands),
			LastInsertLen: lastInsertLen,
			PassCosts:     passCosts,
		}, nil
	}

	// Quality 11: materialize pass 0's commands (against a scratch copy of
	// the distance cache) purely to build the histogram-refined model for
	// pass 1; pass 0's commands and distance-cache mutation are discarded.
	scratchCache := *distCache
	var scratchLiterals int
	commands0, lastInsertLen0 := CreateCommands(nodes, numBytes, o.MaxBackward, &scratchCache, 0, &scratchLiterals)

	model1, err := newCostModel(o.numDistanceSymbols(), o.AllowLastDistance, o.allowAlloc)
	if err != nil {
		return nil, BlockStats{}, err
	}
	if err := model1.SetFromCommands(numBytes, position, ring, commands0, lastInsertLen0, o.allowAlloc); err != nil {
		return nil, BlockStats{}, err
	}

	resetNodes(nodes)
	state.Model = model1

	numCommands1, cost1 := ComputeShortestPath(state, numBytes, position, *distCache)
	passCosts = append(passCosts, cost1)
	log.WithFields(map[string]interface{}{
		"quality": o.Quality, "pass": 1, "num_commands": numCommands1, "total_cost_bits": cost1,
	}).Debug("zopfli pass complete")

	var numLiterals int
	commands, lastInsertLen := CreateCommands(nodes, numBytes, o.MaxBackward, distCache, 0, &numLiterals)

	return commands, BlockStats{
		NumLiterals:   numLiterals,
		NumCommands:   len(commands),
		LastInsertLen: lastInsertLen,
		PassCosts:     passCosts,
	}, nil
}
