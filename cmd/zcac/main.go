package main

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v2"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/ssh/terminal"

	"github.com/ZealanL/ZCAC"
	"github.com/ZealanL/ZCAC/wav"
)

const (
	encodedFileName = "test_encoded.zcac"
	decodedFileName = "test_decoded.wav"
)

var (
	quality      int
	omitUnimp    bool
	outerCompess bool
	verbose      bool
)

func progressBar(w io.Writer, total int64) *progressbar.ProgressBar {
	bar := progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetPredictTime(true))
	bar.RenderBlank()
	return bar
}

func run(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	progressWr := os.Stdout
	showBar := terminal.IsTerminal(int(os.Stdout.Fd()))

	in, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", inputPath, err)
	}
	defer in.Close()

	reader, err := wav.NewReader(in)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", inputPath, err)
	}
	channels, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("reading samples from %s: %w", inputPath, err)
	}

	audio := zcac.AudioInfo{
		SampleRate:        reader.Format.SampleRate,
		SamplesPerChannel: uint64(reader.SamplesPerChannel),
		Channels:          channels,
	}

	cfg := zcac.DefaultConfig()
	cfg.Quality = quality
	cfg.OmitUnimportantFreqs = omitUnimp
	cfg.OuterCompression = outerCompess

	var bar *progressbar.ProgressBar
	if showBar {
		bar = progressBar(progressWr, int64(len(channels)))
	}

	encoded, err := zcac.NewEncoder(cfg, zcac.Verbose(verbose)).Encode(audio)
	if err != nil {
		return fmt.Errorf("encoding: %w", err)
	}
	if bar != nil {
		bar.Add(len(channels))
		fmt.Fprintln(progressWr)
	}

	if err := os.WriteFile(encodedFileName, encoded, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", encodedFileName, err)
	}

	decoded, err := zcac.NewDecoder(zcac.Verbose(verbose)).Decode(encoded)
	if err != nil {
		return fmt.Errorf("decoding: %w", err)
	}

	out, err := os.Create(decodedFileName)
	if err != nil {
		return fmt.Errorf("creating %s: %w", decodedFileName, err)
	}
	defer out.Close()

	writer, err := wav.NewWriter(out, decoded.SampleRate, uint16(len(decoded.Channels)))
	if err != nil {
		return fmt.Errorf("writing %s header: %w", decodedFileName, err)
	}
	if err := writer.WriteChannels(decoded.Channels); err != nil {
		return fmt.Errorf("writing %s samples: %w", decodedFileName, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalizing %s: %w", decodedFileName, err)
	}

	fmt.Printf("wrote %s and %s\n", encodedFileName, decodedFileName)
	return nil
}

func main() {
	root := &cobra.Command{
		Use:   "zcac <input.wav>",
		Short: "encode and decode a WAV file with the ZCAC codec",
		Args:  cobra.ExactArgs(1),
		RunE:  run,
	}
	root.Flags().IntVar(&quality, "quality", zcac.QualityDefault, "encode quality, 1 (worst) to 10 (best)")
	root.Flags().BoolVar(&omitUnimp, "omit-unimportant", true, "omit perceptually unimportant frequency components")
	root.Flags().BoolVar(&outerCompess, "outer-compression", true, "apply an outer DEFLATE pass over the encoded body")
	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "trace per-channel progress")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
