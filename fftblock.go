package zcac

import (
	"math"
	"math/cmplx"

	"github.com/ZealanL/ZCAC/internal/fft"
)

const (
	// fftSize is the number of time-domain samples transformed per
	// block.
	fftSize = 1024
	// fftPad is the number of samples each block overlaps the next by,
	// crossfaded on reconstruction.
	fftPad = fftSize / 32
	// componentBits is the number of bits each stored real/imaginary
	// component is quantized to.
	componentBits = 9
	// maxComponentVal is the largest value a quantized component can
	// hold.
	maxComponentVal = (1 << componentBits) - 1
	// storageSize is the number of FFT bins actually stored per block;
	// the rest are reconstructed from the Hermitian symmetry of a
	// real-valued input signal.
	storageSize = fftSize/2 + 1
)

// FFTBlock holds one quantized frame of a channel's spectrum: the real
// and imaginary parts of its first storageSize frequency bins, each
// packed into componentBits-wide unsigned integers via an affine mapping
// from [RangeMin, RangeMax] to [0, maxComponentVal].
type FFTBlock struct {
	Real [storageSize]uint16
	Imag [storageSize]uint16
	// RangeMin and RangeMax bound every real and imaginary component
	// actually produced by the forward transform, not just the stored
	// subset; they are the affine map's domain.
	RangeMin, RangeMax float32
	// MaxAmplitude records the largest |sample| seen in the source
	// block, floored at 0.01. It is diagnostic only and does not affect
	// quantization or reconstruction.
	MaxAmplitude float32
}

// FFTBlockFromAudio runs the forward transform over samples, which must
// have length fftSize, and quantizes the result into a new FFTBlock.
func FFTBlockFromAudio(samples []float32) *FFTBlock {
	if len(samples) != fftSize {
		panic("zcac: FFTBlockFromAudio requires exactly fftSize samples")
	}

	maxAmplitude := float32(0.01)
	buf := make([]complex128, fftSize)
	for i, s := range samples {
		a := s
		if a < 0 {
			a = -a
		}
		if a > maxAmplitude {
			maxAmplitude = a
		}
		buf[i] = complex(float64(s), 0)
	}
	fft.Transform(buf)

	rangeMin := float32(math.Inf(1))
	rangeMax := float32(math.Inf(-1))
	for _, c := range buf {
		r, im := float32(real(c)), float32(imag(c))
		if r < rangeMin {
			rangeMin = r
		}
		if r > rangeMax {
			rangeMax = r
		}
		if im < rangeMin {
			rangeMin = im
		}
		if im > rangeMax {
			rangeMax = im
		}
	}

	b := &FFTBlock{RangeMin: rangeMin, RangeMax: rangeMax, MaxAmplitude: maxAmplitude}
	scale := rangeMax - rangeMin
	for i := 0; i < storageSize; i++ {
		b.Real[i] = quantizeComponent(float32(real(buf[i])), rangeMin, scale)
		b.Imag[i] = quantizeComponent(float32(imag(buf[i])), rangeMin, scale)
	}
	return b
}

func quantizeComponent(v, rangeMin, scale float32) uint16 {
	var norm float32
	if scale != 0 {
		norm = (v - rangeMin) / scale
	}
	if norm < 0 {
		norm = 0
	}
	if norm > 1 {
		norm = 1
	}
	return uint16(math.Round(float64(norm * maxComponentVal)))
}

// ToAudio inverts the quantization and FFT, returning fftSize
// time-domain samples. Reconstruction mirrors the stored bins into the
// upper half of the spectrum via Hermitian symmetry, conjugates the
// whole spectrum, and reruns the forward transform as a stand-in for an
// inverse one, recovering magnitude and sign per bin.
func (b *FFTBlock) ToAudio() []float32 {
	scale := b.RangeMax - b.RangeMin
	buf := make([]complex128, fftSize)
	for i := 0; i < storageSize; i++ {
		real64 := float64(b.Real[i])/float64(maxComponentVal)*float64(scale) + float64(b.RangeMin)
		imag64 := float64(b.Imag[i])/float64(maxComponentVal)*float64(scale) + float64(b.RangeMin)
		buf[i] = complex(real64, imag64)
		if i > 0 {
			// storageSize == fftSize/2+1, so when i == fftSize/2 this
			// mirrors the Nyquist bin onto itself, overwriting it with
			// its own conjugate.
			buf[fftSize-i] = cmplx.Conj(buf[i])
		}
	}
	for i := range buf {
		buf[i] = cmplx.Conj(buf[i])
	}
	fft.Transform(buf)

	out := make([]float32, fftSize)
	for i, c := range buf {
		mag := cmplx.Abs(c) / fftSize
		if real(c) > 0 {
			out[i] = float32(mag)
		} else {
			out[i] = float32(-mag)
		}
	}
	return out
}

// ZeroVolF returns the normalized [0,1] value that corresponds to a
// signal amplitude of exactly zero, i.e. the affine map's value at 0.
func (b *FFTBlock) ZeroVolF() float32 {
	scale := b.RangeMax - b.RangeMin
	if scale == 0 {
		return 0
	}
	return (0 - b.RangeMin) / scale
}

// AverageF returns the mean of every stored component, normalized to
// [0,1].
func (b *FFTBlock) AverageF() float32 {
	var total float64
	for i := 0; i < storageSize; i++ {
		total += float64(b.Real[i]) / float64(maxComponentVal)
		total += float64(b.Imag[i]) / float64(maxComponentVal)
	}
	return float32(total / float64(storageSize*2))
}

// StandardDeviationF returns the standard deviation of every stored
// component, normalized to [0,1], about AverageF.
func (b *FFTBlock) StandardDeviationF() float32 {
	avg := float64(b.AverageF())
	var sumSq float64
	for i := 0; i < storageSize; i++ {
		dr := float64(b.Real[i])/float64(maxComponentVal) - avg
		di := float64(b.Imag[i])/float64(maxComponentVal) - avg
		sumSq += dr*dr + di*di
	}
	return float32(math.Sqrt(sumSq / float64(storageSize*2)))
}
