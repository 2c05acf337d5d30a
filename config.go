package zcac

// Quality is a convenience alias over the 1..10 range accepted by
// Config.Quality. It is not a closed enum: any int in [1, 10] is a valid
// quality, these are just named points on that scale, matching the
// reference encoder's named presets.
type Quality = int

// Named quality presets, matching the reference encoder's Worst/Bad/
// Medium/High/Best constants.
const (
	QualityWorst   Quality = 1
	QualityBad     Quality = 3
	QualityMedium  Quality = 5
	QualityHigh    Quality = 7
	QualityBest    Quality = 10
	QualityDefault         = QualityMedium
)

// Flags records the per-container feature bits written to the header.
type Flags uint32

const (
	// FlagOuterCompression indicates the channel body was DEFLATE
	// compressed as a whole after framing.
	FlagOuterCompression Flags = 1 << 0
	// FlagOmitFFTVals indicates unimportant FFT components were omitted
	// and the body carries an omission mask ahead of the value array.
	FlagOmitFFTVals Flags = 1 << 1
)

// Config controls the encoder's quality/size tradeoffs.
type Config struct {
	// Quality is 1 (worst, smallest) to 10 (best, largest).
	Quality int
	// OmitUnimportantFreqs drops FFT components close to the
	// zero-signal level, recording which were dropped in a
	// run-length-coded omission mask.
	OmitUnimportantFreqs bool
	// OuterCompression DEFLATE-compresses the whole framed body, every
	// channel together, before it is written to the container.
	OuterCompression bool
}

// DefaultConfig returns the reference encoder's default settings:
// medium quality, omission and outer compression both enabled.
func DefaultConfig() Config {
	return Config{
		Quality:              QualityDefault,
		OmitUnimportantFreqs: true,
		OuterCompression:     true,
	}
}

func (c Config) flags() Flags {
	var f Flags
	if c.OmitUnimportantFreqs {
		f |= FlagOmitFFTVals
	}
	if c.OuterCompression {
		f |= FlagOuterCompression
	}
	return f
}

// stdvDivisor scales the omission threshold: higher quality keeps more
// of the spectrum by dividing the standard deviation by a larger number,
// shrinking the band of values treated as "close enough to zero to drop".
func (c Config) stdvDivisor() float32 {
	return 4 + float32(c.Quality)*1.7
}
