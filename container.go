package zcac

import (
	"github.com/ZealanL/ZCAC/internal/bitstream"
)

// magic identifies a ZCAC container.
var magic = [4]byte{'Z', 'C', 'A', 'C'}

const (
	versionMajor = 0
	versionMinor = 1
	versionNum   = uint32(versionMajor)<<16 | uint32(versionMinor)
)

// header is the fixed-layout prefix of a ZCAC container, written as
// plain big-picture fields ahead of the per-channel framed body.
type header struct {
	Version           uint32
	ChannelCount      uint8
	SampleRate        uint32
	SamplesPerChannel uint64
	Flags             Flags
}

func writeHeader(w *bitstream.Writer, h header) {
	w.WriteBytes(magic[:])
	w.WriteUint32(h.Version)
	w.WriteUint8(h.ChannelCount)
	w.WriteUint32(h.SampleRate)
	w.WriteUint64(h.SamplesPerChannel)
	w.WriteUint32(uint32(h.Flags))
}

func readHeader(r *bitstream.Reader) (header, error) {
	var h header
	got := r.ReadBytes(4)
	if r.Overflowed() || got[0] != magic[0] || got[1] != magic[1] || got[2] != magic[2] || got[3] != magic[3] {
		return h, StructuralError("bad magic")
	}
	h.Version = r.ReadUint32()
	h.ChannelCount = r.ReadUint8()
	h.SampleRate = r.ReadUint32()
	h.SamplesPerChannel = r.ReadUint64()
	h.Flags = Flags(r.ReadUint32())
	if r.Overflowed() {
		return h, StructuralError("truncated header")
	}
	if h.Version != versionNum {
		return h, StructuralError("unsupported version")
	}
	return h, nil
}
