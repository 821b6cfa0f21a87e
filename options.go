// SPDX-License-Identifier: MIT

package backref

// Options configures one call to CreateBackwardReferences.
// A nil *Options is equivalent to DefaultOptions().
type Options struct {
	// Quality selects the optimizer tier: 10 runs one pass with a
	// literal-only cost model, 11 runs two passes (literal-cost model, then
	// a histogram-refined model built from pass one's commands). Any other
	// value is clamped to the nearest of {10, 11}.
	Quality int

	// MaxBackward is the largest backward distance the block may reference
	// (distances beyond it are treated as dictionary matches).
	MaxBackward int

	// MaxZopfliLen caps how long a single relaxed match may be before the
	// block driver collapses that position to one forced copy instead of
	// letting the optimizer consider shorter alternatives there (spec.md
	// §4.6, §8 scenario 4). Zero selects the quality-appropriate default
	// (150 at quality 10, 325 at quality 11).
	MaxZopfliLen int

	// NumDistanceSymbols sizes the per-symbol distance cost table. Zero
	// selects DefaultNumDistanceSymbols.
	NumDistanceSymbols int

	// AllowLastDistance disables last-distance short-code reuse when false.
	// This replaces the process-wide "brotlirep" toggle the original source
	// reads from inside distance-code computation (spec.md §9's
	// global-state-leak note): here it is a field on the call, not a global.
	AllowLastDistance bool

	// MemoryLimiter, if non-nil, is consulted before growing any
	// per-call allocation (node array, matches buffer, cost tables) with the
	// number of additional bytes requested; returning false aborts the
	// block with ErrOutOfMemory and produces no commands. A nil limiter
	// never refuses.
	MemoryLimiter func(additionalBytes int) bool
}

// maxItersForQuality returns how many best start positions UpdateNodes
// relaxes edges from (spec.md §4.3 step C).
func (o Options) maxItersForQuality() int {
	if o.Quality >= 11 {
		return 5
	}
	return 1
}

func (o Options) maxZopfliLen() int {
	if o.MaxZopfliLen > 0 {
		return o.MaxZopfliLen
	}
	if o.Quality >= 11 {
		return 325
	}
	return 150
}

func (o Options) numDistanceSymbols() int {
	if o.NumDistanceSymbols > 0 {
		return o.NumDistanceSymbols
	}
	return DefaultNumDistanceSymbols
}

func (o Options) allowAlloc(additionalBytes int) bool {
	if o.MemoryLimiter == nil {
		return true
	}
	return o.MemoryLimiter(additionalBytes)
}

// DefaultOptions returns quality-11 options with a 16MiB max backward
// distance and no memory limiter.
func DefaultOptions() *Options {
	return &Options{
		Quality:           11,
		MaxBackward:       1 << 24,
		AllowLastDistance: true,
	}
}

func normalizeOptions(opts *Options) Options {
	if opts == nil {
		return *DefaultOptions()
	}
	o := *opts
	if o.Quality < 11 {
		o.Quality = 10
	} else {
		o.Quality = 11
	}
	if o.MaxBackward <= 0 {
		o.MaxBackward = 1 << 24
	}
	return o
}
