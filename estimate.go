package marlin

import "math"

// Estimate returns a rough compressibility score for block b in [0,1].
// Scores near zero mean Encode is likely to fall back to verbatim
// storage; higher scores mean entropy coding should pay. Blocks shorter
// than 16 bytes score 0.
func Estimate(b []byte) float64 {
	if len(b) < 16 {
		return 0
	}
	n := float64(len(b))

	// Order-1 predictability. A hit needs two correct predictions in a
	// row so isolated coincidences do not count.
	var pred [256]byte
	var hist [256]int
	hits := 0
	streak := false
	prev := byte(0)
	for _, c := range b {
		if pred[prev] == c {
			if streak {
				hits++
			}
			streak = true
		} else {
			streak = false
		}
		pred[prev] = c
		prev = c
		hist[c]++
	}
	order1 := math.Pow(float64(hits)/n, 0.6)

	// Histogram skew above the sampling noise a uniform source shows.
	mean := n / 256
	var variance float64
	for _, v := range hist {
		d := float64(v) - mean
		variance += d * d
	}
	skew := math.Sqrt(variance) / n
	noise := math.Sqrt(1 / n)
	skew -= noise
	if skew < 0 {
		skew = 0
	}
	skew *= 1 + noise
	skew = math.Pow(skew, 0.4)

	return math.Pow((order1+skew)/2, 0.9)
}

// ShannonEntropyBits returns the minimum whole number of bits an entropy
// coder needs to represent b.
func ShannonEntropyBits(b []byte) int {
	if len(b) == 0 {
		return 0
	}
	var hist [256]int
	for _, c := range b {
		hist[c]++
	}
	inv := 1.0 / float64(len(b))
	var bits float64
	for _, v := range hist {
		if v > 0 {
			n := float64(v)
			bits += math.Ceil(-math.Log2(n*inv) * n)
		}
	}
	return int(math.Ceil(bits))
}
