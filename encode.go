package marlin

import (
	"github.com/marlincodec/marlin/internal/le"
)

// encodeMargin is the output headroom below which the codeword loop gives
// up and lets the block be stored raw.
const encodeMargin = 16

// maxRare caps the rare patch list; its length is framed as one byte.
const maxRare = 255

type rarePair struct {
	off int
	val byte
}

// Encode compresses src into dst and returns the number of bytes written.
// dst must hold at least len(src) bytes. When coding does not beat raw
// storage the source bytes are copied verbatim and len(src) is returned;
// the caller can tell the two apart by comparing the returned length with
// the block size. Decode needs a destination of exactly len(src) bytes.
func (c *Codec) Encode(dst, src []byte) (int, error) {
	n := len(src)
	if len(dst) < n {
		return 0, ErrInsufficientBuffer
	}
	if n == 0 {
		return 0, nil
	}
	constant := true
	for _, b := range src[1:] {
		if b != src[0] {
			constant = false
			break
		}
	}
	if constant {
		dst[0] = src[0]
		return 1, nil
	}

	padding := n % 8
	m := n - padding
	if m == 0 {
		copy(dst, src)
		return n, nil
	}
	copy(dst, src[:padding])
	body := src[padding:]

	var (
		streamLen int
		rares     []rarePair
		ok        bool
	)
	if c.k == 8 {
		streamLen, rares, ok = c.encodeAligned(dst[padding+1:], body)
	} else {
		streamLen, rares, ok = c.encodePacked(dst[padding+1:], body)
	}
	offW := offsetWidth(m)
	residSize := m * int(c.shift) / 8
	total := padding + 1 + streamLen + len(rares)*(1+offW) + residSize
	if !ok || total >= n {
		copy(dst, src)
		return n, nil
	}

	dst[padding] = byte(len(rares))
	w := padding + 1 + streamLen
	for _, r := range rares {
		putOffset(dst[w:], r.off, offW)
		w += offW
		dst[w] = r.val
		w++
	}
	if s := int(c.shift); s > 0 {
		for g := 0; g < m; g += 8 {
			packed := packLow(le.Load64(body, g), s)
			for b := 0; b < s; b++ {
				dst[w] = byte(packed >> (8 * b))
				w++
			}
		}
	}
	return w, nil
}

// encodeAligned is the k=8 codeword loop: every emitted codeword is one
// output byte, written speculatively and kept when the transition flags an
// emission.
func (c *Codec) encodeAligned(dst, src []byte) (int, []rarePair, bool) {
	shift := c.shift
	rare := uint32(c.nSyms)
	ko := c.k + c.o

	var rares []rarePair
	m := uint32(c.src2marlin[src[0]>>shift])
	if m == rare {
		rares = append(rares, rarePair{0, src[0]})
	}
	j := c.start[m]
	out := 0
	lim := len(dst) - encodeMargin
	for i := 1; i < len(src); i++ {
		if out > lim || len(rares) > maxRare {
			return 0, nil, false
		}
		b := src[i]
		m = uint32(c.src2marlin[b>>shift])
		if m == rare {
			rares = append(rares, rarePair{i, b})
		}
		dst[out] = byte(j)
		j = c.jump[m<<ko|j]
		if j&flagNextWord != 0 {
			out++
			j &^= flagNextWord
		}
	}
	if out >= len(dst) || len(rares) > maxRare {
		return 0, nil, false
	}
	dst[out] = byte(j)
	return out + 1, rares, true
}

// encodePacked is the general-k loop: emitted codewords are folded into a
// bit accumulator MSB first and drained bytewise.
func (c *Codec) encodePacked(dst, src []byte) (int, []rarePair, bool) {
	shift := c.shift
	rare := uint32(c.nSyms)
	ko := c.k + c.o
	k := uint(c.k)
	kMask := uint32(1)<<k - 1

	var rares []rarePair
	m := uint32(c.src2marlin[src[0]>>shift])
	if m == rare {
		rares = append(rares, rarePair{0, src[0]})
	}
	j := c.start[m]
	var acc uint64
	var nBits uint
	out := 0
	lim := len(dst) - encodeMargin
	for i := 1; i < len(src); i++ {
		if out > lim || len(rares) > maxRare {
			return 0, nil, false
		}
		b := src[i]
		m = uint32(c.src2marlin[b>>shift])
		if m == rare {
			rares = append(rares, rarePair{i, b})
		}
		next := c.jump[m<<ko|j]
		if next&flagNextWord != 0 {
			acc = acc<<k | uint64(j&kMask)
			nBits += k
			for nBits >= 8 {
				nBits -= 8
				dst[out] = byte(acc >> nBits)
				out++
			}
			next &^= flagNextWord
		}
		j = next
	}
	acc = acc<<k | uint64(j&kMask)
	nBits += k
	for nBits >= 8 {
		nBits -= 8
		if out >= len(dst) {
			return 0, nil, false
		}
		dst[out] = byte(acc >> nBits)
		out++
	}
	if nBits > 0 {
		if out >= len(dst) {
			return 0, nil, false
		}
		dst[out] = byte(acc << (8 - nBits))
		out++
	}
	if len(rares) > maxRare {
		return 0, nil, false
	}
	return out, rares, true
}
