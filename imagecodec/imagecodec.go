// Package imagecodec compresses 8-bit grayscale images with a north
// predictor, an optional scalar quantizer and per-block Marlin entropy
// coding.
//
// The image is cut into square blocks. Each block keeps its top-left
// pixel as side information; the first row predicts from the left
// neighbor and the remaining rows from the pixel above. The prediction
// residuals of every block are entropy coded independently with a codec
// picked from a small family trained on two-sided geometric distributions
// at graded entropy levels, so block statistics select the dictionary.
package imagecodec

import (
	"encoding/binary"
	"fmt"

	"github.com/marlincodec/marlin/pgm"
)

// QuantizerKind selects how sample values are mapped to quantization
// indices when QStep is above 1.
type QuantizerKind uint8

const (
	// Uniform divides the sample range into equal intervals.
	Uniform QuantizerKind = iota
	// Deadzone rounds samples to the nearest multiple of the step.
	Deadzone
)

// ReconstructionKind selects the sample reconstructed for a uniform
// quantization index.
type ReconstructionKind uint8

const (
	// Midpoint reconstructs the center of the interval.
	Midpoint ReconstructionKind = iota
	// Low reconstructs the lowest sample of the interval.
	Low
)

// Options configure compression. The zero value is not valid; use
// DefaultOptions as a base.
type Options struct {
	BlockSize      int
	QStep          int
	Quantizer      QuantizerKind
	Reconstruction ReconstructionKind
}

// DefaultOptions returns lossless coding with 64x64 blocks.
func DefaultOptions() Options {
	return Options{BlockSize: 64, QStep: 1, Quantizer: Uniform, Reconstruction: Midpoint}
}

const (
	minBlockSize = 2
	maxBlockSize = 1024
	minQStep     = 1
	maxQStep     = 8
)

func (o Options) validate() error {
	if o.BlockSize < minBlockSize || o.BlockSize > maxBlockSize {
		return fmt.Errorf("imagecodec: block size %d out of range [%d,%d]", o.BlockSize, minBlockSize, maxBlockSize)
	}
	if o.QStep < minQStep || o.QStep > maxQStep {
		return fmt.Errorf("imagecodec: qstep %d out of range [%d,%d]", o.QStep, minQStep, maxQStep)
	}
	if o.Quantizer > Deadzone {
		return fmt.Errorf("imagecodec: unknown quantizer %d", o.Quantizer)
	}
	if o.Reconstruction > Low {
		return fmt.Errorf("imagecodec: unknown reconstruction %d", o.Reconstruction)
	}
	return nil
}

// Header describes a compressed image. It is stored as fixed
// little-endian fields after a 4-byte magic.
type Header struct {
	Rows           uint32
	Cols           uint32
	Channels       uint8
	BlockSize      uint16
	QStep          uint8
	Quantizer      QuantizerKind
	Reconstruction ReconstructionKind
}

var fileMagic = [4]byte{'M', 'L', 'N', '1'}

const headerSize = 4 + 4 + 4 + 1 + 2 + 1 + 1 + 1

func (h *Header) append(dst []byte) []byte {
	dst = append(dst, fileMagic[:]...)
	dst = binary.LittleEndian.AppendUint32(dst, h.Rows)
	dst = binary.LittleEndian.AppendUint32(dst, h.Cols)
	dst = append(dst, h.Channels)
	dst = binary.LittleEndian.AppendUint16(dst, uint16(h.BlockSize))
	dst = append(dst, h.QStep, byte(h.Quantizer), byte(h.Reconstruction))
	return dst
}

func parseHeader(src []byte) (Header, error) {
	var h Header
	if len(src) < headerSize {
		return h, fmt.Errorf("imagecodec: truncated header, %d bytes", len(src))
	}
	if [4]byte(src[:4]) != fileMagic {
		return h, fmt.Errorf("imagecodec: bad magic %q", src[:4])
	}
	h.Rows = binary.LittleEndian.Uint32(src[4:])
	h.Cols = binary.LittleEndian.Uint32(src[8:])
	h.Channels = src[12]
	h.BlockSize = binary.LittleEndian.Uint16(src[13:])
	h.QStep = src[15]
	h.Quantizer = QuantizerKind(src[16])
	h.Reconstruction = ReconstructionKind(src[17])
	if h.Channels != 1 {
		return h, fmt.Errorf("imagecodec: %d channels not supported", h.Channels)
	}
	opts := Options{
		BlockSize:      int(h.BlockSize),
		QStep:          int(h.QStep),
		Quantizer:      h.Quantizer,
		Reconstruction: h.Reconstruction,
	}
	if err := opts.validate(); err != nil {
		return h, err
	}
	if h.Rows == 0 || h.Cols == 0 ||
		h.Rows%uint32(h.BlockSize) != 0 || h.Cols%uint32(h.BlockSize) != 0 {
		return h, fmt.Errorf("imagecodec: bad geometry %dx%d for block size %d", h.Rows, h.Cols, h.BlockSize)
	}
	return h, nil
}

// Compress encodes img and returns the compressed representation.
// Width and height must both be multiples of the block size.
func Compress(img *pgm.Image, opts Options) ([]byte, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if img.Width <= 0 || img.Height <= 0 || len(img.Pix) != img.Width*img.Height {
		return nil, fmt.Errorf("imagecodec: invalid image %dx%d with %d samples", img.Width, img.Height, len(img.Pix))
	}
	bs := opts.BlockSize
	if img.Width%bs != 0 || img.Height%bs != 0 {
		return nil, fmt.Errorf("imagecodec: %dx%d not a multiple of block size %d", img.Width, img.Height, bs)
	}

	q := quantizeSamples(img.Pix, opts.QStep, opts.Quantizer)
	side, res := transformDirect(q, img.Height, img.Width, bs)

	h := Header{
		Rows:           uint32(img.Height),
		Cols:           uint32(img.Width),
		Channels:       1,
		BlockSize:      uint16(bs),
		QStep:          uint8(opts.QStep),
		Quantizer:      opts.Quantizer,
		Reconstruction: opts.Reconstruction,
	}
	out := make([]byte, 0, headerSize+len(side)+len(res)/2)
	out = h.append(out)
	out = append(out, side...)

	blockLen := bs * bs
	payload := make([]byte, blockLen)
	for off := 0; off < len(res); off += blockLen {
		block := res[off : off+blockLen]
		level := entropyLevel(block)
		codec, err := familyCodec(level)
		if err != nil {
			return nil, err
		}
		n, err := codec.Encode(payload, block)
		if err != nil {
			return nil, err
		}
		out = append(out, byte(level), byte(n), byte(n>>8), byte(n>>16))
		out = append(out, payload[:n]...)
	}
	return out, nil
}

// Decompress decodes data produced by Compress.
func Decompress(data []byte) (*pgm.Image, error) {
	h, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	rows, cols, bs := int(h.Rows), int(h.Cols), int(h.BlockSize)
	brows, bcols := rows/bs, cols/bs
	nSide := brows * bcols
	body := data[headerSize:]
	if len(body) < nSide {
		return nil, fmt.Errorf("imagecodec: truncated side information")
	}
	side := body[:nSide]
	body = body[nSide:]

	blockLen := bs * bs
	res := make([]byte, rows*cols)
	for off := 0; off < len(res); off += blockLen {
		if len(body) < 4 {
			return nil, fmt.Errorf("imagecodec: truncated block header")
		}
		level := int(body[0])
		n := int(body[1]) | int(body[2])<<8 | int(body[3])<<16
		body = body[4:]
		if level >= familySize {
			return nil, fmt.Errorf("imagecodec: codec index %d out of range", level)
		}
		if n > len(body) {
			return nil, fmt.Errorf("imagecodec: block payload %d exceeds remaining %d", n, len(body))
		}
		codec, err := familyCodec(level)
		if err != nil {
			return nil, err
		}
		if _, err := codec.Decode(res[off:off+blockLen], body[:n]); err != nil {
			return nil, fmt.Errorf("imagecodec: block at %d: %w", off, err)
		}
		body = body[n:]
	}

	q := transformInverse(side, res, rows, cols, bs)
	pix := reconstructSamples(q, int(h.QStep), h.Quantizer, h.Reconstruction)
	return &pgm.Image{Width: cols, Height: rows, Pix: pix}, nil
}
