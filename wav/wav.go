// Package wav implements minimal reading and writing of uncompressed
// PCM WAV sound files, enough to get samples in and out of the codec.
// More on the format: http://soundfile.sapp.org/doc/WaveFormat/.
package wav

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

const (
	riffID   = "RIFF"
	waveID   = "WAVE"
	fmtID    = "fmt "
	dataID   = "data"
	fmtPCM   = 1
	fmtFloat = 3
)

// SubChunk is the common four-byte ID plus four-byte little-endian size
// prefix every WAV chunk starts with.
type SubChunk struct {
	ID   [4]byte
	Size uint32
}

func (s SubChunk) idString() string { return string(s.ID[:]) }

// fmtBody is the fixed-layout part of a "fmt " chunk, read and written in
// one shot since every field is little-endian.
type fmtBody struct {
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// Format describes a WAV file's sample layout.
type Format struct {
	SampleRate    uint32
	NumChannels   uint16
	BitsPerSample uint16
	Float         bool
}

// Reader reads a WAV file's header once and then reads every sample,
// de-interleaved into one slice per channel, with ReadAll.
type Reader struct {
	Format            Format
	SamplesPerChannel uint32

	r            *bufio.Reader
	bytesPerSamp int
}

func readSubChunk(r io.Reader) (SubChunk, error) {
	var s SubChunk
	if err := binary.Read(r, binary.BigEndian, &s.ID); err != nil {
		return s, err
	}
	if err := binary.Read(r, binary.LittleEndian, &s.Size); err != nil {
		return s, err
	}
	return s, nil
}

// NewReader parses the RIFF/WAVE header and "fmt "/"data" chunks from r,
// returning a Reader positioned at the start of the sample data.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)

	riff, err := readSubChunk(br)
	if err != nil {
		return nil, fmt.Errorf("wav: reading RIFF chunk: %w", err)
	}
	if riff.idString() != riffID {
		return nil, fmt.Errorf("wav: bad chunk id %q, want %q", riff.idString(), riffID)
	}
	var format [4]byte
	if err := binary.Read(br, binary.BigEndian, &format); err != nil {
		return nil, fmt.Errorf("wav: reading format field: %w", err)
	}
	if string(format[:]) != waveID {
		return nil, fmt.Errorf("wav: bad format %q, want %q", format, waveID)
	}

	fc, err := readSubChunk(br)
	if err != nil {
		return nil, fmt.Errorf("wav: reading fmt chunk: %w", err)
	}
	if fc.idString() != fmtID {
		return nil, fmt.Errorf("wav: bad chunk id %q, want %q", fc.idString(), fmtID)
	}
	var fb fmtBody
	if err := binary.Read(br, binary.LittleEndian, &fb); err != nil {
		return nil, fmt.Errorf("wav: reading fmt body: %w", err)
	}
	if extra := int64(fc.Size) - 16; extra > 0 {
		if _, err := io.CopyN(io.Discard, br, extra); err != nil {
			return nil, fmt.Errorf("wav: skipping fmt extension: %w", err)
		}
	}
	if fb.AudioFormat != fmtPCM && fb.AudioFormat != fmtFloat {
		return nil, fmt.Errorf("wav: unsupported audio format %d", fb.AudioFormat)
	}

	dc, err := readSubChunk(br)
	if err != nil {
		return nil, fmt.Errorf("wav: reading data chunk: %w", err)
	}
	if dc.idString() != dataID {
		return nil, fmt.Errorf("wav: bad chunk id %q, want %q", dc.idString(), dataID)
	}

	bytesPerSamp := int(fb.BitsPerSample) / 8
	if bytesPerSamp == 0 || fb.NumChannels == 0 {
		return nil, fmt.Errorf("wav: invalid fmt chunk: %d channels, %d bits per sample", fb.NumChannels, fb.BitsPerSample)
	}
	frameSize := bytesPerSamp * int(fb.NumChannels)
	samplesPerChannel := uint32(0)
	if frameSize > 0 {
		samplesPerChannel = dc.Size / uint32(frameSize)
	}

	return &Reader{
		Format: Format{
			SampleRate:    fb.SampleRate,
			NumChannels:   fb.NumChannels,
			BitsPerSample: fb.BitsPerSample,
			Float:         fb.AudioFormat == fmtFloat,
		},
		SamplesPerChannel: samplesPerChannel,
		r:                 br,
		bytesPerSamp:      bytesPerSamp,
	}, nil
}

// ReadAll reads every remaining frame and returns one []float32 per
// channel, each sample scaled to [-1, 1].
func (r *Reader) ReadAll() ([][]float32, error) {
	channels := make([][]float32, r.Format.NumChannels)
	for i := range channels {
		channels[i] = make([]float32, 0, r.SamplesPerChannel)
	}

	buf := make([]byte, r.bytesPerSamp)
	for frame := uint32(0); frame < r.SamplesPerChannel; frame++ {
		for ch := 0; ch < int(r.Format.NumChannels); ch++ {
			if _, err := io.ReadFull(r.r, buf); err != nil {
				return nil, fmt.Errorf("wav: reading sample at frame %d, channel %d: %w", frame, ch, err)
			}
			channels[ch] = append(channels[ch], r.decodeSample(buf))
		}
	}
	return channels, nil
}

func (r *Reader) decodeSample(buf []byte) float32 {
	switch {
	case r.Format.Float && r.Format.BitsPerSample == 32:
		return math.Float32frombits(binary.LittleEndian.Uint32(buf))
	case r.Format.BitsPerSample == 8:
		return (float32(buf[0]) - 128) / 128
	case r.Format.BitsPerSample == 16:
		return float32(int16(binary.LittleEndian.Uint16(buf))) / 32768
	case r.Format.BitsPerSample == 24:
		v := int32(buf[0]) | int32(buf[1])<<8 | int32(buf[2])<<16
		if v&0x800000 != 0 {
			v |= -1 << 24
		}
		return float32(v) / 8388608
	case r.Format.BitsPerSample == 32:
		return float32(int32(binary.LittleEndian.Uint32(buf))) / 2147483648
	default:
		return 0
	}
}

// Writer emits a 32-bit PCM WAV file: the RIFF/fmt header is written
// first with a placeholder size, then every sample, then Close seeks back
// and patches the sizes in.
type Writer struct {
	w             io.WriteSeeker
	sampleRate    uint32
	numChannels   uint16
	dataBytes     uint32
	headerWritten bool
}

// NewWriter writes the RIFF/fmt header for a 32-bit PCM WAV file with
// sampleRate and numChannels, and returns a Writer ready for WriteChannels
// calls.
func NewWriter(w io.WriteSeeker, sampleRate uint32, numChannels uint16) (*Writer, error) {
	const bitsPerSample = 32
	fb := fmtBody{
		AudioFormat:   fmtPCM,
		NumChannels:   numChannels,
		SampleRate:    sampleRate,
		ByteRate:      sampleRate * uint32(numChannels) * bitsPerSample / 8,
		BlockAlign:    numChannels * bitsPerSample / 8,
		BitsPerSample: bitsPerSample,
	}

	var buf bytes.Buffer
	buf.WriteString(riffID)
	binary.Write(&buf, binary.LittleEndian, uint32(36))
	buf.WriteString(waveID)
	buf.WriteString(fmtID)
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, fb)
	buf.WriteString(dataID)
	binary.Write(&buf, binary.LittleEndian, uint32(0))

	if _, err := w.Write(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("wav: writing header: %w", err)
	}
	return &Writer{w: w, sampleRate: sampleRate, numChannels: numChannels}, nil
}

// WriteChannels writes len(channels[0]) frames, interleaving one sample
// per channel, each expected in [-1, 1].
func (w *Writer) WriteChannels(channels [][]float32) error {
	if len(channels) == 0 {
		return nil
	}
	n := len(channels[0])
	buf := make([]byte, 4*len(channels))
	for frame := 0; frame < n; frame++ {
		for ch, samples := range channels {
			v := samples[frame]
			if v > 1 {
				v = 1
			}
			if v < -1 {
				v = -1
			}
			binary.LittleEndian.PutUint32(buf[ch*4:], uint32(int32(float64(v)*2147483647)))
		}
		if _, err := w.w.Write(buf); err != nil {
			return fmt.Errorf("wav: writing frame %d: %w", frame, err)
		}
		w.dataBytes += uint32(len(buf))
	}
	return nil
}

// Close patches the RIFF and data chunk sizes now that every frame has
// been written.
func (w *Writer) Close() error {
	if _, err := w.w.Seek(4, io.SeekStart); err != nil {
		return err
	}
	if err := binary.Write(w.w, binary.LittleEndian, uint32(36)+w.dataBytes); err != nil {
		return err
	}
	if _, err := w.w.Seek(40, io.SeekStart); err != nil {
		return err
	}
	return binary.Write(w.w, binary.LittleEndian, w.dataBytes)
}
