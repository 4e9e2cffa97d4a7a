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

package gridder

import (
	"math"

	"github.com/mlnoga/skygrid/internal/sphere"
)

// PixelToWorld maps flat arrays of 1-based pixel indices (x, y) to sky
// coordinates in degrees. Non-finite entries in the returned slices signal
// "outside the projection's legal domain" (spec.md §4.6). This is the
// caller-supplied WCS projection callback; the core never parses a WCS
// header itself (spec.md §1).
type PixelToWorld func(x, y []float64) (lonDeg, latDeg []float64)

// NewProjectionGridder builds a Gridder over a rectangular (C, Ny, Nx)
// image cube, materializing the 2D array of pixel sky coordinates via
// toWorld and filtering out any pixel whose projection is non-finite.
// datacube and weightscube are optional caller-owned buffers (nil
// allocates fresh ones); if given, they must already match (c, ny, nx).
func NewProjectionGridder(c, ny, nx int, toWorld PixelToWorld, dtype DType, datacube, weightscube interface{}) (*Gridder, error) {
	if c <= 0 || ny <= 0 || nx <= 0 {
		return nil, newGridError(KindShapeMismatch, "projection target shape (%d,%d,%d) must be positive", c, ny, nx)
	}
	if ny >= maxY {
		return nil, newGridError(KindShapeMismatch, "ny=%d exceeds the y < 2^30 packing constraint", ny)
	}

	n := ny * nx
	xs := make([]float64, n)
	ys := make([]float64, n)
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			i := y*nx + x
			xs[i] = float64(x + 1) // 1-based pixel convention, per spec.md §4.6
			ys[i] = float64(y + 1)
		}
	}
	lonDeg, latDeg := toWorld(xs, ys)
	if len(lonDeg) != n || len(latDeg) != n {
		return nil, newGridError(KindShapeMismatch, "pixel_to_world returned %d/%d coordinates for %d pixels", len(lonDeg), len(latDeg), n)
	}

	outputs := make([]outputPixel, 0, n)
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			i := y*nx + x
			lon, lat := lonDeg[i], latDeg[i]
			if !isFinite(lon) || !isFinite(lat) {
				continue // outside the projection's legal domain -- silently filtered per spec.md §7
			}
			outputs = append(outputs, outputPixel{
				Packed: packPixel(x, y),
				X:      x, Y: y,
				LonRad: sphere.DegToRad(lon),
				LatRad: sphere.DegToRad(lat),
			})
		}
	}

	return newGridderFromOutputs(outputs, c, ny, nx, dtype, datacube, weightscube)
}

// NewSightlineGridder builds a Gridder over an unordered flat list of
// sight-line positions, treated as shape (C, 1, N) per spec.md §4.6. The
// x*maxY+y packing still applies, with y always 0.
func NewSightlineGridder(lonsDeg, latsDeg []float64, c int, dtype DType, datacube, weightscube interface{}) (*Gridder, error) {
	if len(lonsDeg) != len(latsDeg) {
		return nil, newGridError(KindShapeMismatch, "lons (%d) and lats (%d) length mismatch", len(lonsDeg), len(latsDeg))
	}
	if c <= 0 {
		return nil, newGridError(KindShapeMismatch, "spectral length must be positive, got %d", c)
	}

	n := len(lonsDeg)
	outputs := make([]outputPixel, 0, n)
	for i := 0; i < n; i++ {
		lon, lat := lonsDeg[i], latsDeg[i]
		if !isFinite(lon) || !isFinite(lat) {
			continue
		}
		outputs = append(outputs, outputPixel{
			Packed: packPixel(i, 0),
			X:      i, Y: 0,
			LonRad: sphere.DegToRad(lon),
			LatRad: sphere.DegToRad(lat),
		})
	}

	return newGridderFromOutputs(outputs, c, 1, n, dtype, datacube, weightscube)
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
