// Package raster provides the in-memory image type scripts read from and
// write to. Pixels are float64 band values; reads outside the image
// bounds yield NaN, which is the language's missing-data value.
package raster

import "math"

// Image is a single-band float64 raster.
type Image struct {
	width  int
	height int
	pix    []float64
}

// New creates a zero-filled image.
func New(width, height int) *Image {
	return &Image{
		width:  width,
		height: height,
		pix:    make([]float64, width*height),
	}
}

// NewFilled creates an image with every pixel set to v.
func NewFilled(width, height int, v float64) *Image {
	img := New(width, height)
	for i := range img.pix {
		img.pix[i] = v
	}
	return img
}

// Width returns the image width in pixels.
func (img *Image) Width() int { return img.width }

// Height returns the image height in pixels.
func (img *Image) Height() int { return img.height }

// Get returns the pixel value at (x, y), or NaN outside the bounds.
func (img *Image) Get(x, y int) float64 {
	if x < 0 || y < 0 || x >= img.width || y >= img.height {
		return math.NaN()
	}
	return img.pix[y*img.width+x]
}

// Set writes the pixel value at (x, y). Writes outside the bounds are
// dropped.
func (img *Image) Set(x, y int, v float64) {
	if x < 0 || y < 0 || x >= img.width || y >= img.height {
		return
	}
	img.pix[y*img.width+x] = v
}
