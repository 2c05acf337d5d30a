// Package valuearray encodes and decodes a fixed-length array of
// fixed-width integers using a single Huffman tree built over the
// array's own value frequencies.
//
// This supersedes the project's original approach (compressing the
// packed bytes with zlib) with one tailored to small, skewed alphabets
// such as quantized FFT components, where most values cluster close to
// the zero-signal level and a frequency-driven code beats general-purpose
// byte compression.
package valuearray

import (
	"errors"

	"github.com/ZealanL/ZCAC/internal/bitstream"
	"github.com/ZealanL/ZCAC/internal/huffman"
)

// ErrInvalidBitsPerVal is returned when bitsPerVal falls outside [1, 32].
var ErrInvalidBitsPerVal = errors.New("valuearray: bitsPerVal out of range")

// ErrOverflow is returned when the input reader runs out of bits before
// valAmount values have been read.
var ErrOverflow = errors.New("valuearray: reader overflow")

// Encode reads valAmount values, each bitsPerVal bits wide, from r,
// builds a frequency map over them, and writes the map followed by each
// value's Huffman code to w. w is aligned to a byte boundary before
// anything is written, so the frequency map always starts on a byte.
func Encode(r *bitstream.Reader, bitsPerVal, valAmount int, w *bitstream.Writer) error {
	if bitsPerVal < 1 || bitsPerVal > 32 {
		return ErrInvalidBitsPerVal
	}

	values := make([]uint64, valAmount)
	freq := make(huffman.FrequencyMap)
	for i := 0; i < valAmount; i++ {
		v := r.ReadBits(bitsPerVal)
		values[i] = v
		freq[v]++
	}
	if r.Overflowed() {
		return ErrOverflow
	}

	w.AlignToByte()
	if err := huffman.SerializeFrequencyMap(freq, w); err != nil {
		return err
	}
	tree, err := huffman.Build(freq)
	if err != nil {
		return err
	}
	for _, v := range values {
		if err := tree.EncodeValue(w, v); err != nil {
			return err
		}
	}
	return nil
}

// Decode reads a frequency map and valAmount Huffman-coded values from r,
// and writes each value back out as bitsPerVal raw bits to w. r is
// aligned to a byte boundary before the frequency map is read.
func Decode(r *bitstream.Reader, bitsPerVal, valAmount int, w *bitstream.Writer) error {
	if bitsPerVal < 1 || bitsPerVal > 32 {
		return ErrInvalidBitsPerVal
	}

	r.AlignToByte()
	freq, err := huffman.DeserializeFrequencyMap(r)
	if err != nil {
		return err
	}
	tree, err := huffman.Build(freq)
	if err != nil {
		return err
	}
	for i := 0; i < valAmount; i++ {
		v, err := tree.Decode(r)
		if err != nil {
			return err
		}
		w.WriteBits(v, bitsPerVal)
	}
	return nil
}
