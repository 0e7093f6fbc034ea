package marlin

import (
	"bytes"
	"container/heap"
	"math"
	"sort"
)

// word is one dictionary entry: a parse of Marlin symbols, its steady-state
// probability, and the out-degree its tree node had when the dictionary was
// frozen. The state routes the follow-up symbol distribution: a word is
// only emitted when the next symbol is not among its first `state` ones.
type word struct {
	symbols []byte
	p       float64
	state   uint16
}

// dictNode is a tree node in the chapter builder arena. The word it stands
// for is the symbol path from the root.
type dictNode struct {
	parent int32
	sym    byte
	size   uint8
	degree uint16
	p      float64
}

// chapterBuilder grows one chapter tree. The queue is a max-heap of arena
// indices ordered by node probability.
type chapterBuilder struct {
	arena []dictNode
	queue []int32
}

func (b *chapterBuilder) Len() int { return len(b.queue) }
func (b *chapterBuilder) Less(i, j int) bool {
	return b.arena[b.queue[i]].p > b.arena[b.queue[j]].p
}
func (b *chapterBuilder) Swap(i, j int) { b.queue[i], b.queue[j] = b.queue[j], b.queue[i] }
func (b *chapterBuilder) Push(x any)    { b.queue = append(b.queue, x.(int32)) }
func (b *chapterBuilder) Pop() any {
	n := len(b.queue) - 1
	x := b.queue[n]
	b.queue = b.queue[:n]
	return x
}

// buildChapterWords grows one chapter's parse tree for the given state
// probabilities and returns its words sorted for packing, the empty word
// first.
func (c *Codec) buildChapterWords(pstates []float64) []word {
	a := c.nSyms

	// Suffix mass per state; the rare mass rides on the last symbol.
	pn := make([]float64, a)
	acc := c.rareProb
	for s := a - 1; s >= 0; s-- {
		acc += c.alphabet[s].p
		pn[s] = acc
	}
	pchild := make([]float64, a)
	for s := range pchild {
		pchild[s] = c.alphabet[s].p / pn[s]
	}

	factor := 1e-10
	for _, p := range pstates {
		factor += p
	}
	norm := make([]float64, a)
	for s, p := range pstates {
		v := p / factor
		if v < 1e-4 {
			v = 0
		} else if v > 1-1e-4 {
			v = 1
		}
		norm[s] = v
	}

	b := &chapterBuilder{arena: make([]dictNode, 0, 1<<c.k)}
	b.arena = append(b.arena, dictNode{parent: -1, degree: uint16(a), p: 1})
	var cum, childSum float64
	for s := 0; s < a; s++ {
		cum += norm[s] / pn[s]
		cp := cum * c.alphabet[s].p
		b.arena = append(b.arena, dictNode{parent: 0, sym: byte(s), size: 1, p: cp})
		childSum += cp
	}
	b.arena[0].p = 1 - childSum
	retired := 1 // the root holds all its children already
	for s := 0; s < a; s++ {
		b.queue = append(b.queue, int32(s+1))
	}
	heap.Init(b)

	for len(b.queue) > 0 && len(b.queue)+retired < 1<<c.k {
		ni := heap.Pop(b).(int32)
		deg := b.arena[ni].degree
		childP := b.arena[ni].p * pchild[deg]
		b.arena[ni].p -= childP
		b.arena[ni].degree++
		ci := int32(len(b.arena))
		b.arena = append(b.arena, dictNode{
			parent: ni,
			sym:    byte(deg),
			size:   b.arena[ni].size + 1,
			p:      childP,
		})
		if int(b.arena[ni].degree) >= a {
			retired++
		} else {
			heap.Push(b, ni)
		}
		if b.arena[ci].size >= c.maxWordSize {
			retired++
		} else {
			heap.Push(b, ci)
		}
	}

	words := make([]word, len(b.arena))
	for i := range b.arena {
		n := &b.arena[i]
		syms := make([]byte, n.size)
		for j, at := int(n.size)-1, int32(i); at > 0; j, at = j-1, b.arena[at].parent {
			syms[j] = b.arena[at].sym
		}
		words[i] = word{symbols: syms, p: n.p * factor, state: n.degree}
	}

	rest := words[1:]
	sort.SliceStable(rest, func(i, j int) bool {
		wi, wj := &rest[i], &rest[j]
		if wi.state != wj.state {
			return wi.state < wj.state
		}
		if wi.p != wj.p && math.Abs(wi.p-wj.p) > 1e-10*(wi.p+wj.p) {
			return wi.p > wj.p
		}
		return bytes.Compare(wi.symbols, wj.symbols) < 0
	})
	return words
}

// buildDictionary builds all chapters, packs them so the low o bits of a
// slot select the next chapter, and iterates towards the steady-state
// chapter probabilities.
func (c *Codec) buildDictionary(iterations int) {
	nCh := 1 << c.o
	chSize := 1 << c.k
	a := c.nSyms

	pstates := make([][]float64, nCh)
	for ci := range pstates {
		pstates[ci] = make([]float64, a)
		pstates[ci][0] = 1 / float64(nCh)
	}

	var flat []word
	for it := 0; it < iterations; it++ {
		flat = make([]word, nCh*chSize)
		for ci := 0; ci < nCh; ci++ {
			ws := c.buildChapterWords(pstates[ci])
			// Column-major fill by residue mod 2^o.
			for i, j, k := 0, 0, 0; i < len(ws); j += nCh {
				if j >= chSize {
					k++
					j = k
				}
				flat[ci*chSize+j] = ws[i]
				i++
			}
		}

		next := make([][]float64, nCh)
		for ci := range next {
			next[ci] = make([]float64, a)
		}
		for i := range flat {
			st := int(flat[i].state)
			if st >= a {
				st = a - 1
			}
			next[i%nCh][st] += flat[i].p
		}
		pstates = next
	}
	c.words = flat

	var mean float64
	for i := range flat {
		mean += flat[i].p * float64(len(flat[i].symbols))
	}
	c.meanLen = mean
	if mean <= 0 {
		c.eff = 0
		return
	}
	bits := float64(c.k)/mean*(1-c.rareProb) + float64(c.shift) + 2*float64(c.k)*c.rareProb
	c.eff = c.entropy / bits
}
