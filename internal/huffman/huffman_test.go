package huffman

import (
	"testing"

	"github.com/ZealanL/ZCAC/internal/bitstream"
)

func TestBuildRejectsEmptyMap(t *testing.T) {
	if _, err := Build(FrequencyMap{}); err != ErrEmptyFrequencyMap {
		t.Fatalf("Build(empty) = %v, want ErrEmptyFrequencyMap", err)
	}
}

func TestBuildRejectsZeroCount(t *testing.T) {
	if _, err := Build(FrequencyMap{1: 0}); err != ErrZeroCount {
		t.Fatalf("Build() = %v, want ErrZeroCount", err)
	}
}

func TestCodeLengthsMatchReference(t *testing.T) {
	freq := FrequencyMap{1: 5, 2: 9, 3: 12, 4: 13, 5: 16, 6: 45}
	want := map[uint64]int{1: 4, 2: 4, 3: 3, 4: 3, 5: 3, 6: 1}

	tree, err := Build(freq)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	for v, wantLen := range want {
		c, ok := tree.Code(v)
		if !ok {
			t.Fatalf("no code assigned for value %d", v)
		}
		if c.length != wantLen {
			t.Errorf("code length for %d = %d, want %d", v, c.length, wantLen)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	freq := FrequencyMap{10: 1, 20: 2, 30: 3, 40: 100}
	tree, err := Build(freq)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	values := []uint64{10, 20, 30, 40, 40, 40, 20, 10}
	w := bitstream.NewWriter()
	for _, v := range values {
		if err := tree.EncodeValue(w, v); err != nil {
			t.Fatalf("EncodeValue(%d) failed: %v", v, err)
		}
	}
	r := bitstream.NewReader(w.Bytes())
	for _, want := range values {
		got, err := tree.Decode(r)
		if err != nil {
			t.Fatalf("Decode() failed: %v", err)
		}
		if got != want {
			t.Errorf("Decode() = %d, want %d", got, want)
		}
	}
}

func TestSingleValueAlphabet(t *testing.T) {
	tree, err := Build(FrequencyMap{7: 3})
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	w := bitstream.NewWriter()
	if err := tree.EncodeValue(w, 7); err != nil {
		t.Fatalf("EncodeValue() failed: %v", err)
	}
	if got, want := w.BitSize(), 1; got != want {
		t.Fatalf("BitSize() = %d, want %d", got, want)
	}
	r := bitstream.NewReader(w.Bytes())
	got, err := tree.Decode(r)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if got != 7 {
		t.Errorf("Decode() = %d, want 7", got)
	}
}

func TestEncodeValueRejectsUnknownValue(t *testing.T) {
	tree, err := Build(FrequencyMap{1: 1, 2: 1})
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	w := bitstream.NewWriter()
	if err := tree.EncodeValue(w, 99); err != ErrValueNotInAlphabet {
		t.Fatalf("EncodeValue() = %v, want ErrValueNotInAlphabet", err)
	}
}

func TestFrequencyMapSerializationRoundTrip(t *testing.T) {
	freq := FrequencyMap{0: 1, 1: 2, 255: 3, 1000: 4}
	w := bitstream.NewWriter()
	if err := SerializeFrequencyMap(freq, w); err != nil {
		t.Fatalf("SerializeFrequencyMap() failed: %v", err)
	}
	r := bitstream.NewReader(w.Bytes())
	got, err := DeserializeFrequencyMap(r)
	if err != nil {
		t.Fatalf("DeserializeFrequencyMap() failed: %v", err)
	}
	if len(got) != len(freq) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(freq))
	}
	for v, c := range freq {
		if got[v] != c {
			t.Errorf("got[%d] = %d, want %d", v, got[v], c)
		}
	}
}

func TestFrequencyMapSerializationIsCanonical(t *testing.T) {
	freq := FrequencyMap{5: 1, 1: 2, 3: 3}
	a := bitstream.NewWriter()
	b := bitstream.NewWriter()
	if err := SerializeFrequencyMap(freq, a); err != nil {
		t.Fatalf("SerializeFrequencyMap() failed: %v", err)
	}
	if err := SerializeFrequencyMap(freq, b); err != nil {
		t.Fatalf("SerializeFrequencyMap() failed: %v", err)
	}
	ab, bb := a.Bytes(), b.Bytes()
	if len(ab) != len(bb) {
		t.Fatalf("lengths differ: %d vs %d", len(ab), len(bb))
	}
	for i := range ab {
		if ab[i] != bb[i] {
			t.Fatalf("byte %d differs: %#x vs %#x", i, ab[i], bb[i])
		}
	}
}

func TestDeserializeRejectsDuplicateValue(t *testing.T) {
	w := bitstream.NewWriter()
	w.WriteBit(false)
	w.WriteBits(2, 16) // count = 2
	w.WriteUint8(4)    // valueBits
	w.WriteBits(1, 4)
	w.WriteBits(10, 16)
	w.WriteBits(1, 4)
	w.WriteBits(20, 16)

	r := bitstream.NewReader(w.Bytes())
	if _, err := DeserializeFrequencyMap(r); err != ErrDuplicateValue {
		t.Fatalf("DeserializeFrequencyMap() = %v, want ErrDuplicateValue", err)
	}
}

func TestDeserializeRejectsZeroCount(t *testing.T) {
	w := bitstream.NewWriter()
	w.WriteBit(false)
	w.WriteBits(1, 16)
	w.WriteUint8(4)
	w.WriteBits(1, 4)
	w.WriteBits(0, 16)

	r := bitstream.NewReader(w.Bytes())
	if _, err := DeserializeFrequencyMap(r); err != ErrZeroCount {
		t.Fatalf("DeserializeFrequencyMap() = %v, want ErrZeroCount", err)
	}
}
