package marlin

// undefJump marks a jump cell not yet assigned. It is never a valid entry:
// real targets fit in k+o bits plus the emit flag.
const undefJump = ^uint32(0)

// buildJumpTable flattens the dictionary into the encoder transition table.
// Cell [m<<(k+o) | j] holds the slot reached from slot j on symbol m; the
// high bit flags that j's word is emitted and the machine restarts on the
// single-symbol word of m in the chapter selected by j's low o bits.
func (c *Codec) buildJumpTable() {
	nCh := 1 << c.o
	chSize := 1 << c.k
	total := nCh * chSize
	a := c.nSyms

	pos := make([]map[string]uint32, nCh)
	for ci := range pos {
		pos[ci] = make(map[string]uint32, chSize)
		for s := 0; s < chSize; s++ {
			w := &c.words[ci*chSize+s]
			if len(w.symbols) == 0 && s != 0 {
				continue // unused slot, not the empty word
			}
			pos[ci][string(w.symbols)] = uint32(ci*chSize + s)
		}
	}

	c.jump = make([]uint32, (a+1)*total)
	for i := range c.jump {
		c.jump[i] = undefJump
	}

	// Link every word to the prefix chain that builds it up.
	for i := 0; i < total; i++ {
		w := &c.words[i]
		if len(w.symbols) < 2 {
			continue
		}
		ci := i / chSize
		cur := uint32(i)
		syms := w.symbols
		for len(syms) > 1 {
			t := syms[len(syms)-1]
			syms = syms[:len(syms)-1]
			p, ok := pos[ci][string(syms)]
			if !ok {
				break
			}
			c.jump[int(t)*total+int(p)] = cur
			cur = p
		}
	}

	// Remaining transitions emit the current word and restart.
	single := [1]byte{}
	for i := 0; i < total; i++ {
		nextCh := i % nCh
		for m := 0; m < a; m++ {
			cell := &c.jump[m*total+i]
			if *cell == undefJump {
				single[0] = byte(m)
				*cell = pos[nextCh][string(single[:])] | flagNextWord
			}
		}
	}

	// The unrepresented-symbol column behaves exactly like symbol 0: rare
	// input is coerced there and patched after decode.
	copy(c.jump[a*total:], c.jump[:total])

	c.start = make([]uint32, a+1)
	for m := 0; m < a; m++ {
		single[0] = byte(m)
		c.start[m] = pos[0][string(single[:])]
	}
	c.start[a] = c.start[0]
}
