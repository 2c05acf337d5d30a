// Package bitrepeater implements an adaptive run-length code for long
// runs of a single repeated bit, the kind produced by an FFT-value
// omission mask where most of a spectrum is flagged the same way.
//
// A run's length is coded either with an adaptive, self-describing
// unary-prefixed binary code, or, when there are few enough distinct run
// lengths, with a Huffman code built over the run-length frequencies.
// Encode tries the whole thing and only commits to the result if it ends
// up smaller than the input; callers always get a usable writer back from
// Decode, and a failed Encode simply means the caller should keep the
// original bits.
package bitrepeater

import (
	"errors"

	"github.com/ZealanL/ZCAC/internal/bitstream"
	"github.com/ZealanL/ZCAC/internal/huffman"
)

var (
	// ErrInvalidRun is returned by Decode when a length-class prefix
	// requests a width wider than the format allows.
	ErrInvalidRun = errors.New("bitrepeater: invalid run length prefix")
	// ErrOverflow is returned by Decode when the reader runs out of bits
	// before all runs have been read. When the run lengths are
	// Huffman-coded, an overflow while reading the frequency map or a
	// length surfaces as the huffman package's own error instead.
	ErrOverflow = errors.New("bitrepeater: reader overflow during decode")
)

const (
	lengthBitCountMin  = 1
	lengthBitCountMax  = 31
	lengthBitCountStep = 3
	// maxSeqLength is the longest single run Encode will represent; a run
	// that would exceed this causes Encode to report failure.
	maxSeqLength = 1 << 31
)

type run struct {
	bit    bool
	length uint64
}

// Encode scans the bits currently held by w, replaces them with a
// run-length encoded form, and reports whether it succeeded. It fails,
// leaving w untouched, if any run would exceed the format's maximum
// length or if the encoded form would not end up smaller than the input.
func Encode(w *bitstream.Writer) bool {
	bitCount := w.BitSize()
	if bitCount == 0 {
		return false
	}

	var runs []run
	for i := 0; i < bitCount; i++ {
		bit := w.BitAt(i)
		if len(runs) == 0 || runs[len(runs)-1].bit != bit {
			runs = append(runs, run{bit: bit, length: 1})
			continue
		}
		runs[len(runs)-1].length++
		if runs[len(runs)-1].length > maxSeqLength {
			return false
		}
	}

	encoded := bitstream.NewWriter()
	encoded.WriteUint32(uint32(len(runs)))

	freq := make(huffman.FrequencyMap)
	for _, r := range runs {
		freq[r.length]++
	}
	useHuffman := uint64(len(freq)) < uint64(len(runs))/4

	encoded.WriteBit(useHuffman)

	var tree *huffman.Tree
	if useHuffman {
		var err error
		tree, err = huffman.Build(freq)
		if err != nil {
			return false
		}
		if err := huffman.SerializeFrequencyMap(freq, encoded); err != nil {
			return false
		}
	}

	encoded.WriteBit(runs[0].bit)
	for _, r := range runs {
		if useHuffman {
			if err := tree.EncodeValue(encoded, r.length); err != nil {
				return false
			}
			continue
		}
		if !writeLength(encoded, r.length) {
			return false
		}
	}

	if encoded.BitSize() >= bitCount {
		return false
	}
	*w = *encoded
	return true
}

// Decode reads a run-length encoded form from r and returns a writer
// holding the expanded bits.
func Decode(r *bitstream.Reader) (*bitstream.Writer, error) {
	count := r.ReadUint32()
	if r.Overflowed() {
		return nil, ErrOverflow
	}
	out := bitstream.NewWriter()
	if count == 0 {
		return out, nil
	}

	useHuffman := r.ReadBit()
	var tree *huffman.Tree
	if useHuffman {
		freq, err := huffman.DeserializeFrequencyMap(r)
		if err != nil {
			return nil, err
		}
		tree, err = huffman.Build(freq)
		if err != nil {
			return nil, err
		}
	}

	curBit := r.ReadBit()
	for i := uint32(0); i < count; i++ {
		var length uint64
		if useHuffman {
			l, err := tree.Decode(r)
			if err != nil {
				return nil, err
			}
			length = l
		} else {
			l, ok := readLength(r)
			if !ok {
				return nil, ErrInvalidRun
			}
			length = l
		}
		if r.Overflowed() {
			return nil, ErrOverflow
		}
		for j := uint64(0); j < length; j++ {
			out.WriteBit(curBit)
		}
		curBit = !curBit
	}
	return out, nil
}

// writeLength writes length-1 using a self-describing code: a unary
// prefix of k extra STEP-bit groups (each a 1 bit) terminated by a 0 bit,
// followed by the value in lengthBitCountMin+k*STEP bits.
func writeLength(w *bitstream.Writer, length uint64) bool {
	if length == 0 || length > maxSeqLength {
		return false
	}
	length--
	minBits := bitstream.MinBitsNeeded(length)
	bitCount := lengthBitCountMin
	for bitCount < minBits {
		bitCount += lengthBitCountStep
		w.WriteBit(true)
	}
	w.WriteBit(false)
	w.WriteBits(length, bitCount)
	return true
}

func readLength(r *bitstream.Reader) (uint64, bool) {
	bitCount := lengthBitCountMin
	for r.ReadBit() {
		bitCount += lengthBitCountStep
		if bitCount > lengthBitCountMax {
			return 0, false
		}
	}
	return r.ReadBits(bitCount) + 1, true
}
