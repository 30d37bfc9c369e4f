package lane

import "math"

// Centroid computes the normalized lateral error on the default 0.6-0.8
// band. See CentroidBand.
func Centroid(mask Frame, defaultErr float64) (float64, error) {
	v, _, err := CentroidBand(mask, 0.6, 0.8, defaultErr)
	return v, err
}

// CentroidBand takes rows [floor(H*top), floor(H*bottom)) of the mask and
// returns the intensity-weighted centroid column mapped to [-1, 1], where
// column 0 is -1 and column W-1 is +1. When the band holds no intensity the
// default is returned and found is false.
func CentroidBand(mask Frame, top, bottom, defaultErr float64) (errVal float64, found bool, err error) {
	if err := mask.Check("centroid"); err != nil {
		return 0, false, err
	}

	y0 := int(math.Floor(float64(mask.Height) * top))
	y1 := int(math.Floor(float64(mask.Height) * bottom))
	if y0 < 0 {
		y0 = 0
	}
	if y1 > mask.Height {
		y1 = mask.Height
	}

	var total, moment float64
	for y := y0; y < y1; y++ {
		for x := 0; x < mask.Width; x++ {
			v := float64(mask.At(x, y))
			total += v
			moment += v * float64(x)
		}
	}
	if total == 0 {
		return defaultErr, false, nil
	}

	half := float64(mask.Width-1) / 2
	if half == 0 {
		return 0, true, nil
	}
	cx := moment / total
	return clamp((cx-half)/half, -1, 1), true, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
