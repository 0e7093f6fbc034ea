package imagecodec

// quantizeSamples maps samples to quantization indices. Power-of-two
// steps reduce to shifts. The prediction loop runs in index space, so
// lossy settings never drift between encoder and decoder.
func quantizeSamples(pix []byte, step int, kind QuantizerKind) []byte {
	if step == 1 {
		out := make([]byte, len(pix))
		copy(out, pix)
		return out
	}
	out := make([]byte, len(pix))
	half := 0
	if kind == Deadzone {
		half = step / 2
	}
	switch step {
	case 2, 4, 8:
		sh := uint(1)
		if step == 4 {
			sh = 2
		} else if step == 8 {
			sh = 3
		}
		for i, v := range pix {
			out[i] = byte((int(v) + half) >> sh)
		}
	default:
		for i, v := range pix {
			out[i] = byte((int(v) + half) / step)
		}
	}
	return out
}

// reconstructSamples maps quantization indices back to samples. The last
// interval is clamped so midpoint reconstruction never leaves the sample
// range.
func reconstructSamples(q []byte, step int, kind QuantizerKind, rec ReconstructionKind) []byte {
	if step == 1 {
		out := make([]byte, len(q))
		copy(out, q)
		return out
	}
	out := make([]byte, len(q))
	add := 0
	if kind == Uniform && rec == Midpoint {
		add = step / 2
	}
	for i, v := range q {
		r := int(v)*step + add
		if r > 255 {
			r = 255
		}
		out[i] = byte(r)
	}
	return out
}
