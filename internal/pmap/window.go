package pmap

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Window is the display window advertised in the frame VOI LUT: the center
// and width of the value range of interest.
type Window struct {
	Center float64
	Width  float64
}

// SuggestWindow derives a display window from the array's value
// distribution, spanning the 1st to 99th percentile. This clips hot
// pixels that would otherwise flatten the display range. The width never
// collapses below 1 so the window stays valid for constant arrays.
func SuggestWindow(arr *Array) Window {
	values := arr.Float64s()
	sort.Float64s(values)
	lo := stat.Quantile(0.01, stat.Empirical, values, nil)
	hi := stat.Quantile(0.99, stat.Empirical, values, nil)
	width := hi - lo
	if width < 1 {
		width = 1
	}
	return Window{Center: (hi + lo) / 2, Width: width}
}
