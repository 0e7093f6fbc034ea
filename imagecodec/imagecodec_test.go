package imagecodec

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/marlincodec/marlin/pgm"
)

func gradientImage(w, h int) *pgm.Image {
	pix := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pix[y*w+x] = byte((x + 2*y) % 256)
		}
	}
	return &pgm.Image{Width: w, Height: h, Pix: pix}
}

func noiseImage(w, h int, seed uint64) *pgm.Image {
	pix := make([]byte, w*h)
	s := seed
	for i := range pix {
		s ^= s << 13
		s ^= s >> 7
		s ^= s << 17
		pix[i] = byte(s)
	}
	return &pgm.Image{Width: w, Height: h, Pix: pix}
}

func TestCompressLossless(t *testing.T) {
	images := map[string]*pgm.Image{
		"gradient":    gradientImage(128, 128),
		"noise":       noiseImage(128, 128, 1),
		"rectangular": gradientImage(192, 64),
		"flat":        {Width: 64, Height: 64, Pix: make([]byte, 64*64)},
	}
	for name, img := range images {
		t.Run(name, func(t *testing.T) {
			data, err := Compress(img, DefaultOptions())
			if err != nil {
				t.Fatalf("Compress: %v", err)
			}
			got, err := Decompress(data)
			if err != nil {
				t.Fatalf("Decompress: %v", err)
			}
			if diff := cmp.Diff(img, got); diff != "" {
				t.Errorf("lossless round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCompressRatioOnSmoothImage(t *testing.T) {
	img := gradientImage(256, 256)
	data, err := Compress(img, DefaultOptions())
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if len(data) >= len(img.Pix) {
		t.Errorf("smooth image grew: %d -> %d bytes", len(img.Pix), len(data))
	}
}

func TestCompressLossy(t *testing.T) {
	img := gradientImage(128, 128)
	for _, qstep := range []int{2, 4, 8} {
		for _, quant := range []QuantizerKind{Uniform, Deadzone} {
			opts := DefaultOptions()
			opts.QStep = qstep
			opts.Quantizer = quant
			data, err := Compress(img, opts)
			if err != nil {
				t.Fatalf("qstep=%d quant=%d: Compress: %v", qstep, quant, err)
			}
			got, err := Decompress(data)
			if err != nil {
				t.Fatalf("qstep=%d quant=%d: Decompress: %v", qstep, quant, err)
			}
			maxErr := 0
			for i := range img.Pix {
				d := int(img.Pix[i]) - int(got.Pix[i])
				if d < 0 {
					d = -d
				}
				if d > maxErr {
					maxErr = d
				}
			}
			if maxErr > qstep {
				t.Errorf("qstep=%d quant=%d: max error %d exceeds step", qstep, quant, maxErr)
			}
		}
	}
}

func TestLossySmallerThanLossless(t *testing.T) {
	img := gradientImage(256, 256)
	lossless, err := Compress(img, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	opts := DefaultOptions()
	opts.QStep = 8
	lossy, err := Compress(img, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(lossy) >= len(lossless) {
		t.Errorf("qstep 8 output %d not smaller than lossless %d", len(lossy), len(lossless))
	}
}

func TestCompressValidation(t *testing.T) {
	img := gradientImage(64, 64)
	cases := []struct {
		name string
		opts func(*Options)
		img  *pgm.Image
	}{
		{"blocksize too small", func(o *Options) { o.BlockSize = 1 }, img},
		{"blocksize too large", func(o *Options) { o.BlockSize = 2048 }, img},
		{"qstep zero", func(o *Options) { o.QStep = 0 }, img},
		{"qstep too large", func(o *Options) { o.QStep = 9 }, img},
		{"not block aligned", nil, gradientImage(65, 64)},
		{"empty image", nil, &pgm.Image{}},
		{"pix mismatch", nil, &pgm.Image{Width: 64, Height: 64, Pix: make([]byte, 10)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := DefaultOptions()
			if tc.opts != nil {
				tc.opts(&opts)
			}
			if _, err := Compress(tc.img, opts); err == nil {
				t.Error("Compress succeeded on invalid input")
			}
		})
	}
}

func TestDecompressErrors(t *testing.T) {
	img := gradientImage(64, 64)
	data, err := Compress(img, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	t.Run("bad magic", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[0] = 'X'
		if _, err := Decompress(bad); err == nil {
			t.Error("Decompress accepted bad magic")
		}
	})
	t.Run("truncated header", func(t *testing.T) {
		if _, err := Decompress(data[:headerSize-1]); err == nil {
			t.Error("Decompress accepted truncated header")
		}
	})
	t.Run("truncated side info", func(t *testing.T) {
		if _, err := Decompress(data[:headerSize]); err == nil {
			t.Error("Decompress accepted missing side information")
		}
	})
	t.Run("truncated block", func(t *testing.T) {
		if _, err := Decompress(data[:len(data)-1]); err == nil {
			t.Error("Decompress accepted truncated block payload")
		}
	})
	t.Run("bad codec index", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[headerSize+1] = familySize // first block level byte
		if _, err := Decompress(bad); err == nil {
			t.Error("Decompress accepted out of range codec index")
		}
	})
}

func TestTransformRoundTrip(t *testing.T) {
	img := noiseImage(96, 64, 7)
	for _, bs := range []int{8, 16, 32} {
		side, res := transformDirect(img.Pix, 64, 96, bs)
		got := transformInverse(side, res, 64, 96, bs)
		if diff := cmp.Diff(img.Pix, got); diff != "" {
			t.Fatalf("bs=%d: transform mismatch (-want +got):\n%s", bs, diff)
		}
	}
}

func TestQuantizerErrorBound(t *testing.T) {
	for _, step := range []int{2, 3, 4, 5, 8} {
		for _, kind := range []QuantizerKind{Uniform, Deadzone} {
			pix := make([]byte, 256)
			for i := range pix {
				pix[i] = byte(i)
			}
			q := quantizeSamples(pix, step, kind)
			rec := reconstructSamples(q, step, kind, Midpoint)
			for i := range pix {
				d := int(pix[i]) - int(rec[i])
				if d < 0 {
					d = -d
				}
				if d > step {
					t.Fatalf("step=%d kind=%d: sample %d error %d", step, kind, i, d)
				}
			}
		}
	}
}

func TestEntropyLevelBuckets(t *testing.T) {
	flat := make([]byte, 4096)
	if lvl := entropyLevel(flat); lvl != 0 {
		t.Errorf("constant block level %d, want 0", lvl)
	}
	noisy := noiseImage(64, 64, 3).Pix
	if lvl := entropyLevel(noisy); lvl != familySize-1 {
		t.Errorf("uniform noise level %d, want %d", lvl, familySize-1)
	}
}

func TestLevelThetaMonotone(t *testing.T) {
	prev := -1.0
	for lvl := 0; lvl < familySize; lvl++ {
		theta := levelTheta(lvl)
		if theta <= prev {
			t.Fatalf("theta not increasing at level %d: %g <= %g", lvl, theta, prev)
		}
		prev = theta
	}
}

func TestThetaForEntropy(t *testing.T) {
	for _, bits := range []float64{1, 3, 5, 7} {
		theta := thetaForEntropy(bits)
		if h := pmfEntropy(twoSidedGeometric(theta)); math.Abs(h-bits) > 0.01 {
			t.Errorf("target %g bits: solved theta %g gives %g bits", bits, theta, h)
		}
	}
}
