package marlin

import "sort"

// symbolProb is one kept alphabet entry: the representative source byte of
// a high-bit group and the group's total probability.
type symbolProb struct {
	src byte
	p   float64
}

// buildAlphabet groups source bytes by their high bits under the configured
// shift, sorts groups by descending probability, and folds the tail into
// the rare escape path.
func (c *Codec) buildAlphabet(dist []float64, purge float64) {
	shift := int(c.shift)
	buckets := make([]float64, 256>>shift)
	for s, p := range dist {
		buckets[s>>shift] += p
	}
	alph := make([]symbolProb, 0, len(buckets))
	for b, p := range buckets {
		if p > 0 {
			alph = append(alph, symbolProb{src: byte(b << shift), p: p})
		}
	}
	sort.Slice(alph, func(i, j int) bool {
		if alph[i].p != alph[j].p {
			return alph[i].p > alph[j].p
		}
		return alph[i].src < alph[j].src
	})

	minKept := 1 << c.o
	if minKept < 8 {
		minKept = 8
	}
	maxKept := (1 << c.k) - 1
	var rare float64
	for len(alph) > minKept && (len(alph) > maxKept || alph[len(alph)-1].p < purge) {
		rare += alph[len(alph)-1].p
		alph = alph[:len(alph)-1]
	}

	c.alphabet = alph
	c.rareProb = rare
	c.nSyms = len(alph)
	for i := range c.src2marlin {
		c.src2marlin[i] = uint16(c.nSyms)
	}
	for m, e := range alph {
		c.src2marlin[int(e.src)>>shift] = uint16(m)
	}
	if c.nSyms > 0 {
		c.mostCommon = alph[0].src
	}
}
