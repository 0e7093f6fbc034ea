package imagecodec

// transformDirect applies the north predictor per block. The top-left
// sample of every block goes to the side information; the first block row
// predicts from the left neighbor, later rows from the sample above.
// Residuals are differences mod 256, written block after block.
func transformDirect(pix []byte, rows, cols, bs int) (side, res []byte) {
	brows, bcols := rows/bs, cols/bs
	side = make([]byte, brows*bcols)
	res = make([]byte, rows*cols)
	ri := 0
	for by := 0; by < brows; by++ {
		for bx := 0; bx < bcols; bx++ {
			y0, x0 := by*bs, bx*bs
			side[by*bcols+bx] = pix[y0*cols+x0]
			for y := 0; y < bs; y++ {
				row := pix[(y0+y)*cols+x0:]
				if y == 0 {
					res[ri] = 0 // seed carried by side information
					ri++
					for x := 1; x < bs; x++ {
						res[ri] = row[x] - row[x-1]
						ri++
					}
					continue
				}
				north := pix[(y0+y-1)*cols+x0:]
				for x := 0; x < bs; x++ {
					res[ri] = row[x] - north[x]
					ri++
				}
			}
		}
	}
	return side, res
}

// transformInverse rebuilds the sample plane from side information and
// block residuals.
func transformInverse(side, res []byte, rows, cols, bs int) []byte {
	bcols := cols / bs
	pix := make([]byte, rows*cols)
	ri := 0
	for by := 0; by < rows/bs; by++ {
		for bx := 0; bx < bcols; bx++ {
			y0, x0 := by*bs, bx*bs
			seed := side[by*bcols+bx]
			for y := 0; y < bs; y++ {
				row := pix[(y0+y)*cols+x0:]
				if y == 0 {
					row[0] = seed + res[ri]
					ri++
					for x := 1; x < bs; x++ {
						row[x] = row[x-1] + res[ri]
						ri++
					}
					continue
				}
				north := pix[(y0+y-1)*cols+x0:]
				for x := 0; x < bs; x++ {
					row[x] = north[x] + res[ri]
					ri++
				}
			}
		}
	}
	return pix
}
