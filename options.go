package zcac

import "log"

// options holds ambient, non-codec settings configured through
// functional options, in the same style the teacher uses for its
// ScannerOption/DecompressorOption/ReaderOption types.
type options struct {
	verbose bool
}

// Option configures ambient Encoder/Decoder behavior.
type Option func(*options)

// Verbose enables trace logging of per-channel progress via the standard
// log package.
func Verbose(v bool) Option {
	return func(o *options) {
		o.verbose = v
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) trace(format string, args ...interface{}) {
	if o.verbose {
		log.Printf(format, args...)
	}
}
