package raster

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	img := New(3, 2)
	assert.Equal(t, 3, img.Width())
	assert.Equal(t, 2, img.Height())
	assert.Equal(t, 0.0, img.Get(0, 0))
	assert.Equal(t, 0.0, img.Get(2, 1))
}

func TestNewFilled(t *testing.T) {
	img := NewFilled(2, 2, 1.5)
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			assert.Equal(t, 1.5, img.Get(x, y))
		}
	}
}

func TestSetGet(t *testing.T) {
	img := New(4, 4)
	img.Set(1, 2, 7.25)
	assert.Equal(t, 7.25, img.Get(1, 2))
	assert.Equal(t, 0.0, img.Get(2, 1))
}

func TestGetOutOfBounds(t *testing.T) {
	img := New(2, 2)
	for _, p := range [][2]int{{-1, 0}, {0, -1}, {2, 0}, {0, 2}, {-5, -5}, {10, 10}} {
		assert.True(t, math.IsNaN(img.Get(p[0], p[1])), "Get(%d, %d)", p[0], p[1])
	}
}

func TestSetOutOfBoundsDropped(t *testing.T) {
	img := New(2, 2)
	img.Set(-1, 0, 9)
	img.Set(0, 5, 9)
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			assert.Equal(t, 0.0, img.Get(x, y))
		}
	}
}
