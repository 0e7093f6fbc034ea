// Command marlinutil compresses and decompresses 8-bit PGM images with
// the Marlin image codec.
//
// Usage:
//
//	marlinutil c [options] input.pgm output.mar
//	marlinutil d input.mar output.pgm
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/marlincodec/marlin/imagecodec"
	"github.com/marlincodec/marlin/pgm"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("marlinutil: ")
	if len(os.Args) < 2 {
		usage()
	}
	switch os.Args[1] {
	case "c":
		compress(os.Args[2:])
	case "d":
		decompress(os.Args[2:])
	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage:
  marlinutil c [options] input.pgm output.mar
  marlinutil d input.mar output.pgm

Options for c:
  -qstep n      quantization step, 1..8 (default 1, lossless)
  -blocksize n  block side in pixels (default 64)
  -deadzone     use the deadzone quantizer
  -midpoint     midpoint reconstruction (default; -midpoint=false for low)`)
	os.Exit(1)
}

func compress(args []string) {
	fs := flag.NewFlagSet("c", flag.ExitOnError)
	qstep := fs.Int("qstep", 1, "quantization step, 1..8")
	blocksize := fs.Int("blocksize", 64, "block side in pixels")
	deadzone := fs.Bool("deadzone", false, "use the deadzone quantizer")
	midpoint := fs.Bool("midpoint", true, "midpoint reconstruction")
	fs.Parse(args)
	if fs.NArg() != 2 {
		usage()
	}

	in, err := os.Open(fs.Arg(0))
	if err != nil {
		log.Fatalf("open: %v", err)
	}
	defer in.Close()
	img, err := pgm.Decode(in)
	if err != nil {
		log.Fatalf("read %s: %v", fs.Arg(0), err)
	}

	opts := imagecodec.DefaultOptions()
	opts.QStep = *qstep
	opts.BlockSize = *blocksize
	if *deadzone {
		opts.Quantizer = imagecodec.Deadzone
	}
	if !*midpoint {
		opts.Reconstruction = imagecodec.Low
	}
	data, err := imagecodec.Compress(img, opts)
	if err != nil {
		log.Fatalf("compress: %v", err)
	}
	if err := os.WriteFile(fs.Arg(1), data, 0644); err != nil {
		log.Fatalf("write: %v", err)
	}
	raw := len(img.Pix)
	fmt.Fprintf(os.Stderr, "%s: %d -> %d bytes (%.3f bits/sample)\n",
		fs.Arg(0), raw, len(data), float64(len(data)*8)/float64(raw))
}

func decompress(args []string) {
	fs := flag.NewFlagSet("d", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 2 {
		usage()
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		log.Fatalf("read: %v", err)
	}
	img, err := imagecodec.Decompress(data)
	if err != nil {
		log.Fatalf("decompress %s: %v", fs.Arg(0), err)
	}
	out, err := os.Create(fs.Arg(1))
	if err != nil {
		log.Fatalf("create: %v", err)
	}
	if err := pgm.Encode(out, img); err != nil {
		out.Close()
		log.Fatalf("write %s: %v", fs.Arg(1), err)
	}
	if err := out.Close(); err != nil {
		log.Fatalf("close: %v", err)
	}
}
