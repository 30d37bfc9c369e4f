package lane

import (
	"fmt"
	"math"
	"strings"
)

// SliderWidth is the number of cells in the Slider gauge.
const SliderWidth = 25

// Slider renders a steering value as a text gauge with a single '|'
// indicator, e.g. "<............|............> {0.00}". The value is
// divided by scale and clamped to [-1, 1]; the normalized value is what
// is printed. Half-way positions round to even.
func Slider(value, scale float64) string {
	if scale <= 0 {
		scale = 1
	}
	v := clamp(value/scale, -1, 1)
	pos := int(math.RoundToEven((v + 1) / 2 * (SliderWidth - 1)))

	bar := []byte(strings.Repeat(".", SliderWidth))
	bar[pos] = '|'
	return fmt.Sprintf("<%s> {%.2f}", bar, v)
}
