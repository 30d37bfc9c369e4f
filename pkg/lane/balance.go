package lane

import "math"

// Balance compares the fraction of lane pixels in a left and right band of
// the mask and returns round((right - left) * 100).
//
// Band width is two fifths of the frame width each (integer division), and
// both bands count every row of the frame. A mask narrower than 5 columns
// has empty bands and is rejected.
func Balance(mask Frame) (float64, error) {
	return balance(mask, mask.Height)
}

// BalanceCropped is Balance restricted to the top two thirds of the rows.
func BalanceCropped(mask Frame) (float64, error) {
	return balance(mask, mask.Height*2/3)
}

func balance(mask Frame, rows int) (float64, error) {
	if err := mask.Check("balance"); err != nil {
		return 0, err
	}
	if mask.Width < 5 {
		return 0, &ShapeError{Op: "balance", Width: mask.Width, Height: mask.Height, Channels: mask.Channels,
			Reason: "width below 5 leaves empty bands"}
	}
	if rows <= 0 {
		return 0, &ShapeError{Op: "balance", Width: mask.Width, Height: mask.Height, Channels: mask.Channels,
			Reason: "no rows to measure"}
	}

	band := 2 * (mask.Width / 5)
	left := countWhite(mask, 0, band, rows)
	right := countWhite(mask, mask.Width-band, mask.Width, rows)

	area := float64(band * rows)
	leftPct := float64(left) / area
	rightPct := float64(right) / area
	return math.Round((rightPct - leftPct) * 100), nil
}

func countWhite(mask Frame, x0, x1, rows int) int {
	n := 0
	for y := 0; y < rows; y++ {
		for x := x0; x < x1; x++ {
			if mask.At(x, y) != 0 {
				n++
			}
		}
	}
	return n
}
