// SPDX-License-Identifier: MIT

package backref

import (
	"bytes"
	"fmt"
	"testing"
)

func benchmarkInputSets() map[string][]byte {
	return map[string][]byte{
		"small-text-4k":   bytes.Repeat([]byte("zopfli benchmark text payload "), 140),
		"pattern-128k":    bytes.Repeat([]byte("ABCDEF0123456789"), 8192),
		"byte-cycle-256k": bytes.Repeat([]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, 26214),
	}
}

func benchRingFor(data []byte) *RingBuffer {
	size := uint32(1)
	for int(size) < len(data) {
		size <<= 1
	}
	ring := NewRingBuffer(size)
	ring.Write(0, data)
	return ring
}

func BenchmarkCreateBackwardReferences(b *testing.B) {
	qualities := []int{10, 11}
	for inputName, inputData := range benchmarkInputSets() {
		ring := benchRingFor(inputData)
		for _, quality := range qualities {
			name := fmt.Sprintf("%s/quality-%d", inputName, quality)
			b.Run(name, func(b *testing.B) {
				opts := DefaultOptions()
				opts.Quality = quality

				b.ReportAllocs()
				b.SetBytes(int64(len(inputData)))
				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					matcher := NewH10Matcher()
					var distCache [4]uint32
					_, _, err := CreateBackwardReferences(ring, len(inputData), 0, matcher, &distCache, opts)
					matcher.Release()
					if err != nil {
						b.Fatalf("CreateBackwardReferences failed: %v", err)
					}
				}
			})
		}
	}
}

func BenchmarkEstimateLiteralCosts(b *testing.B) {
	for inputName, inputData := range benchmarkInputSets() {
		ring := benchRingFor(inputData)
		b.Run(inputName, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(inputData)))
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				if _, err := EstimateLiteralCosts(ring, 0, len(inputData), nil); err != nil {
					b.Fatalf("EstimateLiteralCosts failed: %v", err)
				}
			}
		})
	}
}
