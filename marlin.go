// Package marlin implements the Marlin variable-to-fixed entropy codec.
//
// Marlin codes memoryless byte sources with strongly skewed distributions,
// such as the residuals of a simple image predictor. A Codec is built once
// from a probability mass function and then encodes and decodes independent
// blocks. Frequent byte groups are parsed into dictionary words and emitted
// as fixed-width codewords, the low bits of every byte can be routed past
// the dictionary into a packed residual plane, and bytes outside the kept
// alphabet are escaped through a small patch list.
//
// The decoder is a flat table lookup emitting several bytes per codeword,
// which is where Marlin gains its speed over Huffman-style coders.
//
// Use New to build a Codec, Encode and Decode for blocks. The frame does
// not store the block length; Decode must be given a destination of the
// original size.
package marlin

import (
	"fmt"
	"math"
)

const (
	minK = 4
	maxK = 12
	maxO = 4

	// jump table indices carry the key plus the emit flag in 32 bits
	maxTableBits = 16

	flagNextWord = uint32(1) << 31
)

// Codec is an immutable Marlin codec handle built for one source
// distribution. It is safe for concurrent use by multiple goroutines.
type Codec struct {
	k, o        uint8
	shift       uint8
	maxWordSize uint8
	nSyms       int

	alphabet []symbolProb
	rareProb float64
	entropy  float64
	meanLen  float64
	eff      float64

	// src2marlin maps a source byte's high bits to its alphabet index.
	// Unrepresented groups map to nSyms.
	src2marlin [256]uint16
	mostCommon byte

	words []word   // 2^o chapters of 2^k slots
	jump  []uint32 // nSyms+1 columns of 2^(k+o) cells, symbol-major
	start []uint32 // chapter-0 slot of each single-symbol word

	// Decoder emission table. Exactly one of the three is populated,
	// selected by maxWordSize.
	dec32      []uint32
	dec64      []uint64
	decWide    []byte
	wideStride int
}

type options struct {
	k, o        uint8
	shift       int8 // -1 selects by sweep
	maxWordSize int  // 0 selects by sweep
	iterations  int
	purge       float64
}

func defaultOptions() options {
	return options{k: 8, o: 2, shift: -1, maxWordSize: 0, iterations: 3, purge: 1e-5}
}

// An Option configures a Codec under construction.
type Option func(*options) error

// WithKO sets the codeword width k and the overlap bits o.
// k must be in [4,12], o in [0,4] and k+o at most 16.
// The default is k=8, o=2; k=8 enables the byte-aligned encoder.
func WithKO(k, o int) Option {
	return func(cfg *options) error {
		if k < minK || k > maxK {
			return fmt.Errorf("marlin: k must be in [%d,%d], got %d", minK, maxK, k)
		}
		if o < 0 || o > maxO {
			return fmt.Errorf("marlin: o must be in [0,%d], got %d", maxO, o)
		}
		if k+o > maxTableBits {
			return fmt.Errorf("marlin: k+o must be at most %d, got %d", maxTableBits, k+o)
		}
		cfg.k, cfg.o = uint8(k), uint8(o)
		return nil
	}
}

// WithShift fixes the number of low bits per byte stored verbatim in the
// residual plane. s must be in [0,7]. By default the largest shift that
// does not reduce estimated efficiency is chosen from {0..5}.
func WithShift(s int) Option {
	return func(cfg *options) error {
		if s < 0 || s > 7 {
			return fmt.Errorf("marlin: shift must be in [0,7], got %d", s)
		}
		cfg.shift = int8(s)
		return nil
	}
}

// WithMaxWordSize fixes the longest dictionary word in source symbols.
// Supported values are 3, 7, 15, 31 and 63; they select the decoder record
// width. By default the size starts at 3 and steps up through 7 and 15
// for as long as each step raises the estimated efficiency by more than
// 0.01%.
func WithMaxWordSize(n int) Option {
	return func(cfg *options) error {
		switch n {
		case 3, 7, 15, 31, 63:
			cfg.maxWordSize = n
			return nil
		}
		return fmt.Errorf("marlin: maxWordSize %d: %w", n, ErrUnsupported)
	}
}

// WithIterations sets how many times the dictionary is rebuilt towards the
// steady-state chapter probabilities. The default of 3 is within a fraction
// of a percent of the fixed point for typical sources.
func WithIterations(n int) Option {
	return func(cfg *options) error {
		if n < 1 {
			return fmt.Errorf("marlin: iterations must be at least 1, got %d", n)
		}
		cfg.iterations = n
		return nil
	}
}

// WithPurgeThreshold sets the probability below which tail symbols are
// folded into the rare escape path. The default is 1e-5.
func WithPurgeThreshold(t float64) Option {
	return func(cfg *options) error {
		if math.IsNaN(t) || t < 0 {
			return fmt.Errorf("marlin: invalid purge threshold %g", t)
		}
		cfg.purge = t
		return nil
	}
}

// New builds a Codec for the given distribution. pmf holds one relative
// weight per source byte, index 0 first; it is normalized internally and
// may have up to 256 entries. At least two symbols must carry mass.
func New(pmf []float64, opts ...Option) (*Codec, error) {
	if len(pmf) == 0 || len(pmf) > 256 {
		return nil, fmt.Errorf("marlin: distribution must have 1 to 256 entries, got %d", len(pmf))
	}
	cfg := defaultOptions()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	var sum float64
	positive := 0
	for i, p := range pmf {
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
			return nil, fmt.Errorf("marlin: invalid probability %g for symbol %d", p, i)
		}
		if p > 0 {
			positive++
		}
		sum += p
	}
	if positive < 2 {
		return nil, fmt.Errorf("marlin: degenerate distribution, %d symbols carry mass", positive)
	}
	dist := make([]float64, 256)
	for i, p := range pmf {
		dist[i] = p / sum
	}
	entropy := shannonBits(dist)

	resolve := func(shift int) (*Codec, error) {
		if cfg.maxWordSize != 0 {
			return buildCodec(dist, entropy, cfg, shift, cfg.maxWordSize)
		}
		best, err := buildCodec(dist, entropy, cfg, shift, 3)
		if err != nil {
			return nil, err
		}
		for _, mws := range []int{7, 15} {
			cand, err := buildCodec(dist, entropy, cfg, shift, mws)
			if err != nil {
				return nil, err
			}
			if cand.eff <= best.eff*1.0001 {
				break
			}
			best = cand
		}
		return best, nil
	}

	var c *Codec
	var err error
	if cfg.shift >= 0 {
		c, err = resolve(int(cfg.shift))
	} else {
		c, err = resolve(0)
		for s := 1; err == nil && s <= 5; s++ {
			var cand *Codec
			cand, err = resolve(s)
			if err != nil || cand.eff+1e-12 < c.eff {
				break
			}
			c = cand
		}
	}
	if err != nil {
		return nil, err
	}
	c.buildJumpTable()
	if err := c.buildDecoderTable(); err != nil {
		return nil, err
	}
	return c, nil
}

func buildCodec(dist []float64, entropy float64, cfg options, shift, mws int) (*Codec, error) {
	c := &Codec{
		k:           cfg.k,
		o:           cfg.o,
		shift:       uint8(shift),
		maxWordSize: uint8(mws),
		entropy:     entropy,
	}
	c.buildAlphabet(dist, cfg.purge)
	if c.nSyms == 0 {
		return nil, fmt.Errorf("marlin: empty alphabet after purge")
	}
	c.buildDictionary(cfg.iterations)
	return c, nil
}

// Efficiency reports the estimated ratio between the source entropy and
// the bits this Codec spends per source byte. 1 is optimal.
func (c *Codec) Efficiency() float64 { return c.eff }

// Shift reports the number of low bits per byte carried by the residual
// plane, either fixed by WithShift or chosen during construction.
func (c *Codec) Shift() int { return int(c.shift) }

// MaxWordSize reports the longest dictionary word in source symbols.
func (c *Codec) MaxWordSize() int { return int(c.maxWordSize) }

// AlphabetSize reports the number of kept symbol groups.
func (c *Codec) AlphabetSize() int { return c.nSyms }

func shannonBits(dist []float64) float64 {
	var h float64
	for _, p := range dist {
		if p > 0 {
			h -= p * math.Log2(p)
		}
	}
	return h
}
