// SPDX-License-Identifier: MIT

/*
Package backref implements the Zopfli-style backward-reference selection
core of a Brotli-like compressor: given a window of input bytes and a set of
candidate (distance, length) matches, it finds the minimum-cost sequence of
literal runs and copy commands under a fractional-bit symbol cost model.

It does not do entropy coding, stream framing, or bit output; it produces a
list of Command values for a downstream encoder.

# Quality tiers

Quality 10 runs the shortest-path optimizer once with a literal-only cost
model. Quality 11 runs it twice: the first pass uses the same literal-only
model, and the second rebuilds the cost model from the histograms of the
commands the first pass chose.

	refs, stats, err := backref.CreateBackwardReferences(ring, numBytes, position, matcher, &distCache, backref.DefaultOptions())

# Matcher

CreateBackwardReferences needs a Matcher implementation to supply candidate
matches per position; NewH10Matcher returns the package's default hash-chain
matcher, adapted from a classic LZ77 chained hash table.
*/
package backref
