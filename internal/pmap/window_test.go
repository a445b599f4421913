package pmap

import "testing"

func TestSuggestWindow(t *testing.T) {
	data := make([]uint16, 100)
	for i := range data {
		data[i] = uint16(i)
	}
	arr, _ := NewUint16Array(data, []int{10, 10})

	w := SuggestWindow(arr)
	if w.Width <= 0 {
		t.Fatalf("width = %g, want > 0", w.Width)
	}
	if w.Center < 0 || w.Center > 99 {
		t.Errorf("center = %g, want within the value range", w.Center)
	}
	// The window clips the extremes of the distribution.
	if w.Width >= 99 {
		t.Errorf("width = %g, want below the full range", w.Width)
	}
}

func TestSuggestWindow_ConstantArray(t *testing.T) {
	arr, _ := NewFloat32Array(make([]float32, 16), []int{4, 4})
	w := SuggestWindow(arr)
	if w.Width < 1 {
		t.Errorf("width = %g, want at least 1", w.Width)
	}
}
