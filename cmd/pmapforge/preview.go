package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	xdraw "golang.org/x/image/draw"

	"github.com/mrsinham/pmapforge/internal/pmap"
)

// writePreview renders the first plane of the first channel as a windowed
// grayscale PNG, scaled so its longest edge is size pixels.
func writePreview(path string, arr *pmap.Array, window pmap.Window, size int) error {
	shape := arr.Shape()
	var rows, cols int
	switch len(shape) {
	case 2:
		rows, cols = shape[0], shape[1]
	default:
		rows, cols = shape[1], shape[2]
	}

	values := arr.Float64s()
	// For rank 3 the first rows*cols values are the first plane. For rank 4
	// channel 0 samples sit every m-th value of the first plane.
	stride := 1
	if len(shape) == 4 {
		stride = shape[3]
	}

	lo := window.Center - window.Width/2
	img := image.NewGray(image.Rect(0, 0, cols, rows))
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			v := values[(y*cols+x)*stride]
			level := (v - lo) / window.Width * 255
			if level < 0 {
				level = 0
			}
			if level > 255 {
				level = 255
			}
			img.SetGray(x, y, color.Gray{Y: uint8(level)})
		}
	}

	scaled := scaleToFit(img, size)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, scaled); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return nil
}

// scaleToFit resizes the image so its longest edge equals size, keeping
// the aspect ratio.
func scaleToFit(img *image.Gray, size int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w >= h {
		h = h * size / w
		w = size
	} else {
		w = w * size / h
		h = size
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewGray(image.Rect(0, 0, w, h))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}
