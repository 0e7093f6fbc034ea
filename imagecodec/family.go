package imagecodec

import (
	"math"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/marlincodec/marlin"
)

// The entropy coding layer keeps a small family of codecs trained on
// two-sided geometric residual distributions at graded entropy levels.
// Every block measures its sample entropy and picks the nearest family
// member; the chosen index is stored with the block so the decoder builds
// the same dictionary.
const familySize = 8

// Dictionary construction is the expensive part of a codec, so built
// handles are kept in a process-wide cache shared by all images.
var codecCache *lru.Cache[int, *marlin.Codec]

func init() {
	codecCache, _ = lru.New[int, *marlin.Codec](familySize)
}

func familyCodec(level int) (*marlin.Codec, error) {
	if c, ok := codecCache.Get(level); ok {
		return c, nil
	}
	c, err := marlin.New(twoSidedGeometric(levelTheta(level)))
	if err != nil {
		return nil, err
	}
	codecCache.Add(level, c)
	return c, nil
}

// entropyLevel buckets a residual block by its sample entropy.
func entropyLevel(block []byte) int {
	level := marlin.ShannonEntropyBits(block) * familySize / (8 * len(block))
	if level >= familySize {
		level = familySize - 1
	}
	return level
}

func levelTheta(level int) float64 {
	target := (float64(level) + 0.5) * 8 / familySize
	return thetaForEntropy(target)
}

// twoSidedGeometric returns a byte distribution for signed prediction
// residuals stored mod 256: p(v) proportional to theta^|v|.
func twoSidedGeometric(theta float64) []float64 {
	pmf := make([]float64, 256)
	for b := range pmf {
		v := b
		if v >= 128 {
			v = 256 - v
		}
		pmf[b] = math.Pow(theta, float64(v))
	}
	return pmf
}

// thetaForEntropy solves for the geometric parameter whose distribution
// entropy matches the target in bits. Entropy grows monotonically with
// theta, so a bisection converges.
func thetaForEntropy(bits float64) float64 {
	lo, hi := 1e-9, 1-1e-9
	for i := 0; i < 60; i++ {
		mid := (lo + hi) / 2
		if pmfEntropy(twoSidedGeometric(mid)) < bits {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

func pmfEntropy(pmf []float64) float64 {
	var sum float64
	for _, p := range pmf {
		sum += p
	}
	var h float64
	for _, p := range pmf {
		if p > 0 {
			p /= sum
			h -= p * math.Log2(p)
		}
	}
	return h
}
