// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package preview renders a false-color PNG of a gridded plane -- a
// diagnostic tool, out of the core's scope per spec.md §1 ("external
// collaborators"), the same role the teacher's JPEG/TIFF export helpers
// play for a stacked FITS image.
package preview

import (
	"bufio"
	"errors"
	"image"
	"image/png"
	"io"
	"math"
	"os"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"
)

// RenderPlane renders one (Ny, Nx) plane of float64 values as a false-color
// image, mapping [min,max] onto an HSV hue sweep from blue (240 degrees)
// down to red (0 degrees) with brightness rising along it; NaN maps to min.
func RenderPlane(plane []float64, ny, nx int, min, max float64) (image.Image, error) {
	if len(plane) != ny*nx {
		return nil, errors.New("preview: plane length does not match ny*nx")
	}
	img := image.NewRGBA(image.Rect(0, 0, nx, ny))
	scale := 1.0
	if max > min {
		scale = 1.0 / (max - min)
	}
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			v := plane[y*nx+x]
			var t float64
			if math.IsNaN(v) {
				t = 0
			} else {
				t = (v - min) * scale
				if t < 0 {
					t = 0
				} else if t > 1 {
					t = 1
				}
			}
			col := colorful.Hsv(240*(1-t), 0.85, 0.2+0.8*t)
			img.Set(x, y, col)
		}
	}
	return img, nil
}

// Thumbnail resamples img down to at most maxDim on its longer side using
// x/image/draw, the same "small opaque bitmap out" role the teacher gives
// x/image/tiff for 16-bit export.
func Thumbnail(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}
	scale := float64(maxDim) / float64(w)
	if hScale := float64(maxDim) / float64(h); hScale < scale {
		scale = hScale
	}
	dw, dh := int(float64(w)*scale), int(float64(h)*scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// WritePNGToFile writes img as a PNG file.
func WritePNGToFile(img image.Image, fileName string) error {
	file, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer file.Close()
	w := bufio.NewWriter(file)
	defer w.Flush()
	return WritePNG(w, img)
}

// WritePNG writes img as a PNG to w.
func WritePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}
