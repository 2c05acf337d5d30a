// Package zcac implements the ZCAC lossy audio codec: a per-channel,
// block-wise FFT with quantized components, an optional omission mask
// for perceptually unimportant frequencies, a Huffman-coded value array,
// and an optional outer DEFLATE pass, wrapped in a small fixed-layout
// container.
//
// The pipeline is strictly single-threaded: one channel's blocks are
// encoded or decoded in sequence, and one channel is processed after
// another, the way the reference encoder itself runs.
package zcac

import (
	"github.com/ZealanL/ZCAC/internal/bitrepeater"
	"github.com/ZealanL/ZCAC/internal/bitstream"
	"github.com/ZealanL/ZCAC/internal/valuearray"
)

const blockStep = fftSize - fftPad

// AudioInfo is the in-memory representation of decoded (or
// about-to-be-encoded) audio: one []float32 per channel, each sample
// scaled to [-1, 1].
type AudioInfo struct {
	SampleRate        uint32
	SamplesPerChannel uint64
	Channels          [][]float32
}

// Encoder encodes AudioInfo into a ZCAC container.
type Encoder struct {
	cfg  Config
	opts options
}

// NewEncoder returns an Encoder configured by cfg and any ambient opts.
func NewEncoder(cfg Config, opts ...Option) *Encoder {
	return &Encoder{cfg: cfg, opts: buildOptions(opts)}
}

// Encode encodes audio into a ZCAC container.
func (e *Encoder) Encode(audio AudioInfo) ([]byte, error) {
	if len(audio.Channels) == 0 || len(audio.Channels) > 255 {
		return nil, ErrInvalidChannelCount
	}

	flags := e.cfg.flags()
	body := bitstream.NewWriter()
	for i, channel := range audio.Channels {
		e.opts.trace("encoding channel %d/%d (%d samples)", i+1, len(audio.Channels), len(channel))
		if err := e.encodeChannel(channel, flags, body); err != nil {
			return nil, err
		}
	}

	if flags&FlagOuterCompression != 0 {
		body.AlignToByte()
		if !body.Compress() {
			return nil, ErrCompressionFailure
		}
	}

	out := bitstream.NewWriter()
	writeHeader(out, header{
		Version:           versionNum,
		ChannelCount:      uint8(len(audio.Channels)),
		SampleRate:        audio.SampleRate,
		SamplesPerChannel: audio.SamplesPerChannel,
		Flags:             flags,
	})
	out.Append(body)
	return out.Bytes(), nil
}

func (e *Encoder) encodeChannel(channel []float32, flags Flags, body *bitstream.Writer) error {
	blocks := splitIntoBlocks(channel)

	body.WriteUint32(uint32(len(blocks)))
	for _, b := range blocks {
		body.WriteFloat32(b.RangeMin)
		body.WriteFloat32(b.RangeMax)
	}

	var omit []bool
	if flags&FlagOmitFFTVals != 0 {
		omit = buildOmissionMask(blocks, e.cfg.stdvDivisor())
		if err := writeOmissionMask(body, omit); err != nil {
			return err
		}
	}

	values := bitstream.NewWriter()
	var count int
	forEachSlot(blocks, func(slotIndex int, v uint16) {
		if len(omit) > 0 && omit[slotIndex] {
			return
		}
		values.WriteBits(uint64(v), componentBits)
		count++
	})

	valuesReader := bitstream.NewReader(values.Bytes())
	return valuearray.Encode(valuesReader, componentBits, count, body)
}

// Decoder decodes a ZCAC container into AudioInfo.
type Decoder struct {
	opts options
}

// NewDecoder returns a Decoder configured by any ambient opts.
func NewDecoder(opts ...Option) *Decoder {
	return &Decoder{opts: buildOptions(opts)}
}

// Decode decodes data, a full ZCAC container, into AudioInfo.
func (d *Decoder) Decode(data []byte) (AudioInfo, error) {
	r := bitstream.NewReader(data)
	h, err := readHeader(r)
	if err != nil {
		return AudioInfo{}, err
	}

	if h.Flags&FlagOuterCompression != 0 {
		decompressed, ok := r.Decompress()
		if !ok {
			return AudioInfo{}, ErrCompressionFailure
		}
		r = bitstream.NewReader(decompressed)
	}

	audio := AudioInfo{SampleRate: h.SampleRate, SamplesPerChannel: h.SamplesPerChannel}
	for i := 0; i < int(h.ChannelCount); i++ {
		d.opts.trace("decoding channel %d/%d", i+1, h.ChannelCount)
		samples, err := d.decodeChannel(r, h.Flags, h.SamplesPerChannel)
		if err != nil {
			return AudioInfo{}, err
		}
		audio.Channels = append(audio.Channels, samples)
	}
	return audio, nil
}

func (d *Decoder) decodeChannel(r *bitstream.Reader, flags Flags, samplesPerChannel uint64) ([]float32, error) {
	blockCount := r.ReadUint32()
	if r.Overflowed() {
		return nil, StructuralError("truncated channel header")
	}
	if samplesPerChannel == 0 || samplesPerChannel > uint64(blockCount)*fftSize {
		return nil, ErrInvalidSampleCount
	}

	blocks := make([]*FFTBlock, blockCount)
	for i := range blocks {
		b := &FFTBlock{}
		b.RangeMin = r.ReadFloat32()
		b.RangeMax = r.ReadFloat32()
		blocks[i] = b
	}

	totalSlots := uint64(blockCount) * storageSize * 2
	var omit []bool
	if flags&FlagOmitFFTVals != 0 {
		var err error
		omit, err = readOmissionMask(r, totalSlots)
		if err != nil {
			return nil, err
		}
	}

	valsToRead := int(totalSlots)
	for _, o := range omit {
		if o {
			valsToRead--
		}
	}

	decodedValues := bitstream.NewWriter()
	if err := valuearray.Decode(r, componentBits, valsToRead, decodedValues); err != nil {
		return nil, err
	}
	valuesReader := bitstream.NewReader(decodedValues.Bytes())
	assignSlots(blocks, omit, valuesReader)

	return reconstructChannel(blocks, samplesPerChannel), nil
}

func splitIntoBlocks(channel []float32) []*FFTBlock {
	var blocks []*FFTBlock
	for i := 0; i < len(channel); i += blockStep {
		end := i + fftSize
		var frame []float32
		if end <= len(channel) {
			frame = channel[i:end]
		} else {
			padded := make([]float32, fftSize)
			copy(padded, channel[i:])
			frame = padded
		}
		blocks = append(blocks, FFTBlockFromAudio(frame))
		if end >= len(channel) {
			break
		}
	}
	if len(blocks) == 0 {
		padded := make([]float32, fftSize)
		blocks = append(blocks, FFTBlockFromAudio(padded))
	}
	return blocks
}

// buildOmissionMask flags each (part, block, slot) position whose
// normalized value sits within one standard-deviation band (scaled by
// stdvDivisor) of its block's zero-signal level.
func buildOmissionMask(blocks []*FFTBlock, stdvDivisor float32) []bool {
	mask := make([]bool, 0, len(blocks)*storageSize*2)
	for part := 0; part < 2; part++ {
		for _, b := range blocks {
			zero := b.ZeroVolF()
			threshold := b.StandardDeviationF() / stdvDivisor
			for slot := 0; slot < storageSize; slot++ {
				var raw uint16
				if part == 0 {
					raw = b.Real[slot]
				} else {
					raw = b.Imag[slot]
				}
				norm := float32(raw) / maxComponentVal
				d := norm - zero
				if d < 0 {
					d = -d
				}
				mask = append(mask, d < threshold)
			}
		}
	}
	return mask
}

func writeOmissionMask(body *bitstream.Writer, mask []bool) error {
	maskWriter := bitstream.NewWriter()
	for _, m := range mask {
		maskWriter.WriteBit(m)
	}
	compressed := bitrepeater.Encode(maskWriter)
	body.WriteBit(compressed)
	body.Append(maskWriter)
	return nil
}

func readOmissionMask(r *bitstream.Reader, totalSlots uint64) ([]bool, error) {
	compressed := r.ReadBit()
	var maskWriter *bitstream.Writer
	if compressed {
		w, err := bitrepeater.Decode(r)
		if err != nil {
			return nil, err
		}
		maskWriter = w
	} else {
		maskWriter = bitstream.NewWriter()
		for i := uint64(0); i < totalSlots; i++ {
			maskWriter.WriteBit(r.ReadBit())
		}
	}
	if uint64(maskWriter.BitSize()) != totalSlots {
		return nil, StructuralError("omission mask size mismatch")
	}
	mask := make([]bool, totalSlots)
	for i := range mask {
		mask[i] = maskWriter.BitAt(i)
	}
	return mask, nil
}

// forEachSlot visits every (part, block, slot) position in the same
// order the omission mask and value array use: part outer, block middle,
// slot inner.
func forEachSlot(blocks []*FFTBlock, fn func(slotIndex int, v uint16)) {
	idx := 0
	for part := 0; part < 2; part++ {
		for _, b := range blocks {
			for slot := 0; slot < storageSize; slot++ {
				var v uint16
				if part == 0 {
					v = b.Real[slot]
				} else {
					v = b.Imag[slot]
				}
				fn(idx, v)
				idx++
			}
		}
	}
}

func assignSlots(blocks []*FFTBlock, omit []bool, values *bitstream.Reader) {
	idx := 0
	for part := 0; part < 2; part++ {
		for _, b := range blocks {
			for slot := 0; slot < storageSize; slot++ {
				var v uint16
				if len(omit) > 0 && omit[idx] {
					v = uint16(b.ZeroVolF() * maxComponentVal)
				} else {
					v = uint16(values.ReadBits(componentBits))
				}
				if part == 0 {
					b.Real[slot] = v
				} else {
					b.Imag[slot] = v
				}
				idx++
			}
		}
	}
}

func reconstructChannel(blocks []*FFTBlock, samplesPerChannel uint64) []float32 {
	out := make([]float32, samplesPerChannel+fftSize)
	for i, b := range blocks {
		frame := b.ToAudio()
		offset := i * blockStep
		if i > 0 {
			for j := 0; j < fftPad; j++ {
				ratio := float32(j) / float32(fftPad)
				out[offset+j] = frame[j]*ratio + out[offset+j]*(1-ratio)
			}
			copy(out[offset+fftPad:offset+fftSize], frame[fftPad:])
		} else {
			copy(out[offset:offset+fftSize], frame)
		}
	}
	if uint64(len(out)) > samplesPerChannel {
		out = out[:samplesPerChannel]
	}
	return out
}

// Encode encodes audio using cfg, a convenience wrapper over
// NewEncoder(cfg).Encode(audio).
func Encode(audio AudioInfo, cfg Config) ([]byte, error) {
	return NewEncoder(cfg).Encode(audio)
}

// Decode decodes data, a convenience wrapper over
// NewDecoder().Decode(data).
func Decode(data []byte) (AudioInfo, error) {
	return NewDecoder().Decode(data)
}
