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

// Package gridder is the convolution-based resampling core: the HEALPix
// hash tables that link output pixels to their contributing samples, and
// the parallel accumulation loop that turns a cloud of angular samples
// into a flux-conserving (C,Ny,Nx) cube. It performs no I/O and knows
// nothing about FITS or WCS -- those are the caller's job (spec.md §1).
package gridder

import (
	"math"
	"sync"

	"github.com/mlnoga/skygrid/internal/healpix"
	"github.com/mlnoga/skygrid/internal/kernel"
	"github.com/mlnoga/skygrid/internal/sphere"
)

// kernelGeometryTolRad is the tolerance below which a changed support
// radius or hpx_max_resolution is treated as unchanged, per spec.md §3
// ("tolerance 3e-5 rad ~= 0.1 arcsec"): SetKernel is then a no-op that
// skips rebuilding the HEALPix hash tables.
const kernelGeometryTolRad = 3e-5

// Gridder accumulates angular samples into a fixed target pixel geometry.
// Constructed once via NewProjectionGridder or NewSightlineGridder; SetKernel
// is called before each gridding campaign; Grid may be called repeatedly and
// accumulates into the same cubes.
type Gridder struct {
	mu sync.Mutex // guards configuration; Grid's accumulation phase is lock-free by pixel disjointness

	outputs   []outputPixel
	c, ny, nx int

	dtype     DType
	cube32    *cubeF32
	cube64    *cubeF64
	weights32 *cubeF32
	weights64 *cubeF64

	numThreads int

	kernelSet        bool
	k                *kernel.Kernel
	supportRadiusRad float64
	hpxMaxResRad     float64
	nside            int
	discSizeRad      float64

	targetIdx *targetIndex
	cache     *discCache
}

func newGridderFromOutputs(outputs []outputPixel, c, ny, nx int, dtype DType, datacube, weightscube interface{}) (*Gridder, error) {
	g := &Gridder{
		outputs:    outputs,
		c:          c,
		ny:         ny,
		nx:         nx,
		dtype:      dtype,
		numThreads: defaultNumThreads(),
	}
	if err := g.attachCubes(dtype, datacube, weightscube); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Gridder) attachCubes(dtype DType, datacube, weightscube interface{}) error {
	switch dtype {
	case Float32:
		var dataSlice, weightSlice []float32
		if datacube != nil {
			s, ok := datacube.([]float32)
			if !ok {
				return newGridError(KindDtypeMismatch, "datacube must be []float32 for dtype float32")
			}
			dataSlice = s
		}
		if weightscube != nil {
			s, ok := weightscube.([]float32)
			if !ok {
				return newGridError(KindDtypeMismatch, "weightscube must be []float32 for dtype float32")
			}
			weightSlice = s
		}
		if err := checkCubeLen(dataSlice, weightSlice, g.c*g.ny*g.nx); err != nil {
			return err
		}
		g.cube32 = newCubeF32(g.c, g.ny, g.nx, dataSlice)
		g.weights32 = newCubeF32(g.c, g.ny, g.nx, weightSlice)
	case Float64:
		var dataSlice, weightSlice []float64
		if datacube != nil {
			s, ok := datacube.([]float64)
			if !ok {
				return newGridError(KindDtypeMismatch, "datacube must be []float64 for dtype float64")
			}
			dataSlice = s
		}
		if weightscube != nil {
			s, ok := weightscube.([]float64)
			if !ok {
				return newGridError(KindDtypeMismatch, "weightscube must be []float64 for dtype float64")
			}
			weightSlice = s
		}
		if err := checkCubeLen(dataSlice, weightSlice, g.c*g.ny*g.nx); err != nil {
			return err
		}
		g.cube64 = newCubeF64(g.c, g.ny, g.nx, dataSlice)
		g.weights64 = newCubeF64(g.c, g.ny, g.nx, weightSlice)
	default:
		return newGridError(KindInvalidDtype, "unrecognized dtype %v", dtype)
	}
	return nil
}

func checkCubeLen[T any](data, weights []T, want int) error {
	if data != nil && len(data) != want {
		return newGridError(KindGeometryError, "pre-allocated datacube has %d elements, want %d", len(data), want)
	}
	if weights != nil && len(weights) != want {
		return newGridError(KindGeometryError, "pre-allocated weightscube has %d elements, want %d", len(weights), want)
	}
	return nil
}

// SetNumThreads overrides the worker count used by Grid. A Gridder-scoped
// setting rather than a process-wide singleton, per spec.md §9's Design Notes.
func (g *Gridder) SetNumThreads(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if n < 1 {
		n = 1
	}
	g.numThreads = n
}

// GetNumThreads reports the worker count Grid will use. Supplemented beyond
// spec.md's read-back list (SPEC_FULL.md §12) for telemetry purposes.
func (g *Gridder) GetNumThreads() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.numThreads
}

// SetKernel selects the kernel family and geometry for subsequent Grid
// calls. Rebuilds the HEALPix hash tables only if the resolution or support
// radius actually changed by more than kernelGeometryTolRad; calling
// SetKernel twice with identical arguments is therefore a no-op that
// performs no cache invalidation (spec.md §8's idempotence property).
func (g *Gridder) SetKernel(spec kernel.Spec, supportRadiusDeg, hpxMaxResolutionDeg float64) error {
	k, err := kernel.New(spec)
	if err != nil {
		return newGridError(KindUnknownKernel, "%v", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	supportRadiusRad := sphere.DegToRad(supportRadiusDeg)
	hpxMaxResRad := sphere.DegToRad(hpxMaxResolutionDeg)

	geometryChanged := !g.kernelSet ||
		math.Abs(supportRadiusRad-g.supportRadiusRad) > kernelGeometryTolRad ||
		math.Abs(hpxMaxResRad-g.hpxMaxResRad) > kernelGeometryTolRad

	g.k = k
	g.supportRadiusRad = supportRadiusRad
	g.hpxMaxResRad = hpxMaxResRad
	g.kernelSet = true

	if !geometryChanged {
		return nil
	}

	nside := healpix.NsideForResolution(hpxMaxResRad)
	discSizeRad := supportRadiusRad + healpix.Resolution(nside)

	g.nside = nside
	g.discSizeRad = discSizeRad
	g.targetIdx = buildTargetIndex(nside, g.outputs)
	g.cache = newDiscCache(nside, discSizeRad)
	return nil
}

// Grid accumulates one batch of angular samples into the cubes. lons/lats
// are in degrees; data and weights are (sample, channel) slices of slices,
// all of length C per sample; weights may be nil to default to all-ones.
// Repeated calls accumulate (spec.md §5's "Ordering").
func (g *Gridder) Grid(lonsDeg, latsDeg []float64, data, weights [][]float64) error {
	g.mu.Lock()
	if !g.kernelSet {
		g.mu.Unlock()
		return ErrKernelNotSet
	}
	k := g.k
	bearingNeeded := k.BearingNeeded()
	supportRadiusDeg := sphere.RadToDeg(g.supportRadiusRad)
	targetIdx := g.targetIdx
	cache := g.cache
	numThreads := g.numThreads
	c := g.c
	g.mu.Unlock()

	n := len(lonsDeg)
	if len(latsDeg) != n || len(data) != n {
		return newGridError(KindShapeMismatch, "lons (%d), lats (%d), data (%d) must have equal length", n, len(latsDeg), len(data))
	}
	if weights != nil && len(weights) != n {
		return newGridError(KindShapeMismatch, "weights (%d) must match sample count (%d)", len(weights), n)
	}
	for i := 0; i < n; i++ {
		if len(data[i]) != c {
			return newGridError(KindShapeMismatch, "sample %d has %d channels, want %d", i, len(data[i]), c)
		}
		if weights != nil && len(weights[i]) != c {
			return newGridError(KindShapeMismatch, "sample %d weights has %d channels, want %d", i, len(weights[i]), c)
		}
	}

	lonsRad := make([]float64, n)
	latsRad := make([]float64, n)
	for i := 0; i < n; i++ {
		lonsRad[i] = sphere.DegToRad(lonsDeg[i])
		latsRad[i] = sphere.DegToRad(latsDeg[i])
	}

	outputToInputs := buildOutputToInputs(targetIdx, cache, g.outputs, lonsRad, latsRad)

	touched := make([]int, 0, len(outputToInputs))
	for outIdx := range outputToInputs {
		touched = append(touched, outIdx)
	}

	accumulate := g.accumulatorFor(k, bearingNeeded, supportRadiusDeg, data, weights, lonsRad, latsRad)
	parallelForPixels(len(touched), numThreads, func(i int) {
		outIdx := touched[i]
		accumulate(outIdx, outputToInputs[outIdx])
	})
	return nil
}

// accumulatorFor closes over the selected cube's element type so the hot
// loop only branches on dtype once per Grid call, not per pixel.
func (g *Gridder) accumulatorFor(k *kernel.Kernel, bearingNeeded bool, supportRadiusDeg float64, data, weights [][]float64, lonsRad, latsRad []float64) func(outIdx int, candidates []int) {
	o := g.outputs
	if g.dtype == Float32 {
		return func(outIdx int, candidates []int) {
			out := o[outIdx]
			for _, i := range candidates {
				d := sphere.RadToDeg(sphere.TrueAngularDistance(out.LonRad, out.LatRad, lonsRad[i], latsRad[i]))
				if d >= supportRadiusDeg {
					continue
				}
				var bearing float64
				if bearingNeeded {
					bearing = sphere.GreatCircleBearing(out.LonRad, out.LatRad, lonsRad[i], latsRad[i])
				}
				ws := k.Evaluate(d, bearing)
				for z := 0; z < g.c; z++ {
					w := weightAt(weights, i, z)
					idx := g.cube32.index(z, out.Y, out.X)
					g.cube32.data[idx] += float32(data[i][z] * w * ws)
					g.weights32.data[idx] += float32(w * ws)
				}
			}
		}
	}
	return func(outIdx int, candidates []int) {
		out := o[outIdx]
		for _, i := range candidates {
			d := sphere.RadToDeg(sphere.TrueAngularDistance(out.LonRad, out.LatRad, lonsRad[i], latsRad[i]))
			if d >= supportRadiusDeg {
				continue
			}
			var bearing float64
			if bearingNeeded {
				bearing = sphere.GreatCircleBearing(out.LonRad, out.LatRad, lonsRad[i], latsRad[i])
			}
			ws := k.Evaluate(d, bearing)
			for z := 0; z < g.c; z++ {
				w := weightAt(weights, i, z)
				idx := g.cube64.index(z, out.Y, out.X)
				g.cube64.data[idx] += data[i][z] * w * ws
				g.weights64.data[idx] += w * ws
			}
		}
	}
}

func weightAt(weights [][]float64, i, z int) float64 {
	if weights == nil {
		return 1.0
	}
	return weights[i][z]
}

// GetUnweightedDatacube returns the raw numerator accumulator, before
// normalization by the weight cube.
func (g *Gridder) GetUnweightedDatacube() interface{} {
	if g.dtype == Float32 {
		return g.cube32.data
	}
	return g.cube64.data
}

// GetWeights returns the weight accumulator.
func (g *Gridder) GetWeights() interface{} {
	if g.dtype == Float32 {
		return g.weights32.data
	}
	return g.weights64.data
}

// GetDatacube returns the element-wise ratio datacube/weightscube. Pixels
// with zero accumulated weight yield NaN, consistent with an ordinary
// floating-point 0/0 division; spec.md §8 only guarantees finiteness for
// pixels that received at least one nonzero-weight contribution.
func (g *Gridder) GetDatacube() interface{} {
	if g.dtype == Float32 {
		out := make([]float32, len(g.cube32.data))
		for i := range out {
			out[i] = g.cube32.data[i] / g.weights32.data[i]
		}
		return out
	}
	out := make([]float64, len(g.cube64.data))
	for i := range out {
		out[i] = g.cube64.data[i] / g.weights64.data[i]
	}
	return out
}

// Shape returns the (C, Ny, Nx) target geometry.
func (g *Gridder) Shape() (c, ny, nx int) { return g.c, g.ny, g.nx }
