package marlin

import (
	"bytes"
	"sync"
	"testing"
)

var fuzzCodecs = sync.OnceValue(func() []*Codec {
	cs := make([]*Codec, 0, 3)
	for _, opts := range [][]Option{
		{WithKO(8, 2), WithShift(0), WithMaxWordSize(7)},
		{WithShift(2)},
		{WithKO(10, 2)},
	} {
		c, err := New(geometricPMF(0.6), opts...)
		if err != nil {
			panic(err)
		}
		cs = append(cs, c)
	}
	return cs
})

func FuzzRoundTrip(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{0})
	f.Add(bytes.Repeat([]byte{0x42}, 300))
	f.Add(samplePMF(geometricPMF(0.6), 1000, 1))
	f.Add(samplePMF(twoSidedPMF(0.9), 4096, 2))
	f.Add([]byte("the quick brown fox jumps over the lazy dog"))
	seq := make([]byte, 256)
	for i := range seq {
		seq[i] = byte(i)
	}
	f.Add(seq)

	f.Fuzz(func(t *testing.T, data []byte) {
		for i, c := range fuzzCodecs() {
			dst := make([]byte, len(data))
			n, err := c.Encode(dst, data)
			if err != nil {
				t.Fatalf("codec %d: Encode: %v", i, err)
			}
			got := make([]byte, len(data))
			if _, err := c.Decode(got, dst[:n]); err != nil {
				t.Fatalf("codec %d: Decode: %v", i, err)
			}
			if !bytes.Equal(data, got) {
				t.Fatalf("codec %d: round trip mismatch on %d bytes", i, len(data))
			}
		}

		// A codec trained on the block's own histogram covers arbitrary
		// distributions.
		if len(data) < 64 {
			return
		}
		var hist [256]float64
		positive := 0
		for _, b := range data {
			if hist[b] == 0 {
				positive++
			}
			hist[b]++
		}
		if positive < 2 {
			return
		}
		c, err := New(hist[:], WithIterations(1), WithShift(0), WithMaxWordSize(7))
		if err != nil {
			t.Fatalf("New from histogram: %v", err)
		}
		dst := make([]byte, len(data))
		n, err := c.Encode(dst, data)
		if err != nil {
			t.Fatalf("trained codec: Encode: %v", err)
		}
		got := make([]byte, len(data))
		if _, err := c.Decode(got, dst[:n]); err != nil {
			t.Fatalf("trained codec: Decode: %v", err)
		}
		if !bytes.Equal(data, got) {
			t.Fatal("trained codec: round trip mismatch")
		}
	})
}

// FuzzDecode feeds arbitrary bytes to the decoder. Any frame may be
// rejected, but none may panic or write outside dst.
func FuzzDecode(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{0})
	f.Add([]byte{7, 255, 0, 0})
	f.Add(bytes.Repeat([]byte{0xff}, 64))
	c := fuzzCodecs()[0]
	enc := make([]byte, 1024)
	n, err := c.Encode(enc, samplePMF(geometricPMF(0.6), 1024, 3))
	if err != nil {
		f.Fatal(err)
	}
	f.Add(enc[:n])

	f.Fuzz(func(t *testing.T, data []byte) {
		for _, c := range fuzzCodecs() {
			for _, m := range []int{0, 1, 17, 256, 1024} {
				dst := make([]byte, m+16)
				for i := range dst {
					dst[i] = 0xa5
				}
				c.Decode(dst[:m], data)
				for i := m; i < len(dst); i++ {
					if dst[i] != 0xa5 {
						t.Fatalf("decode wrote past %d byte output", m)
					}
				}
			}
		}
	})
}
