// Package api provides the public API for compiling and running
// map-algebra scripts.
//
// This package is intended for programmatic use. For CLI usage, see
// cmd/mapalg.
package api

import (
	"errors"

	"github.com/rasterkit/mapalg/internal/compiler"
	"github.com/rasterkit/mapalg/internal/diag"
	"github.com/rasterkit/mapalg/internal/raster"
)

// Image is a single-band float64 raster bound to a script variable.
type Image = raster.Image

// NewImage creates a zero-filled image.
func NewImage(width, height int) *Image {
	return raster.New(width, height)
}

// NewFilledImage creates an image with every pixel set to v.
func NewFilledImage(width, height int, v float64) *Image {
	return raster.NewFilled(width, height, v)
}

// Program is a compiled script together with its image bindings and
// variable metadata. It is immutable and safe for concurrent execution.
type Program = compiler.Program

// Compile compiles a script against the given image bindings. The map
// relates variable names in the script to image objects; variables read
// before assignment must be bound here, and bound variables assigned by
// the script become its outputs.
func Compile(source string, images map[string]*Image) (*Program, error) {
	return compiler.New().Compile(source, images)
}

// CompileFile reads a script from a file and compiles it.
func CompileFile(path string, images map[string]*Image) (*Program, error) {
	return compiler.New().CompileFile(path, images)
}

// Run compiles a script and executes it once over its bound images.
func Run(source string, images map[string]*Image) error {
	program, err := Compile(source, images)
	if err != nil {
		return err
	}
	return program.Run()
}

// Report renders a compilation failure for display: the aggregated
// diagnostic lines for script-level errors, or the error text otherwise.
func Report(err error) string {
	var cerr *diag.CompileError
	if errors.As(err, &cerr) {
		return cerr.Log.Report()
	}
	return err.Error() + "\n"
}
