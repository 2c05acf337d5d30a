// Package testdata generates reproducible pseudo-random inputs for tests:
// raw byte buffers, bit sequences, and simple PCM test tones.
package testdata

import (
	"math"
	"math/rand"
)

// fixedSeed must stay constant so GenPredictableBytes reproduces the same
// sequence across test runs.
const fixedSeed = 0x1234

// GenPredictableBytes returns size pseudo-random bytes generated from a
// fixed seed, so repeated calls across test runs produce identical data.
func GenPredictableBytes(size int) []byte {
	gen := rand.New(rand.NewSource(fixedSeed))
	out := make([]byte, size)
	for i := range out {
		out[i] = byte(gen.Intn(256))
	}
	return out
}

// GenSeededBytes returns size pseudo-random bytes generated from seed,
// for tests that want several independent but still reproducible buffers.
func GenSeededBytes(seed int64, size int) []byte {
	gen := rand.New(rand.NewSource(seed))
	out := make([]byte, size)
	for i := range out {
		out[i] = byte(gen.Intn(256))
	}
	return out
}

// GenSineTone returns n samples of a sine wave at freqHz sampled at
// sampleRate, scaled to amplitude (0, 1].
func GenSineTone(n int, freqHz, sampleRate float64, amplitude float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		t := float64(i) / sampleRate
		out[i] = amplitude * float32(math.Sin(2*math.Pi*freqHz*t))
	}
	return out
}

// FirstN returns at most the first n elements of b.
func FirstN(n int, b []float32) []float32 {
	if len(b) > n {
		return b[:n]
	}
	return b
}
