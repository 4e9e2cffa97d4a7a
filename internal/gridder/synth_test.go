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
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/valyala/fastrand"

	"github.com/mlnoga/skygrid/internal/kernel"
)

// TestGridSyntheticSamplesConserveProperties throws a cloud of random
// samples at a small image and checks the two invariants spec.md §8
// guarantees independent of kernel choice: weightscube never goes
// negative, and every pixel touched by at least one sample ends up finite.
func TestGridSyntheticSamplesConserveProperties(t *testing.T) {
	const nx, ny, c = 16, 16, 2
	toWorld := func(xs, ys []float64) (lonDeg, latDeg []float64) {
		lonDeg = make([]float64, len(xs))
		latDeg = make([]float64, len(ys))
		for i := range xs {
			lonDeg[i] = 45 + (xs[i]-float64(nx)/2)*0.02
			latDeg[i] = 10 + (ys[i]-float64(ny)/2)*0.02
		}
		return
	}
	g, err := NewProjectionGridder(c, ny, nx, toWorld, Float64, nil, nil)
	require.NoError(t, err)
	require.NoError(t, g.SetKernel(kernel.Gauss1DParams{SigmaDeg: 0.03}, 0.1, 0.01))

	const n = 2000
	lonsDeg := make([]float64, n)
	latsDeg := make([]float64, n)
	data := make([][]float64, n)
	for i := 0; i < n; i++ {
		du := float64(fastrand.Uint32n(1<<20))/(1<<20) - 0.5
		dv := float64(fastrand.Uint32n(1<<20))/(1<<20) - 0.5
		lonsDeg[i] = 45 + du*float64(nx)*0.02
		latsDeg[i] = 10 + dv*float64(ny)*0.02
		row := make([]float64, c)
		for z := range row {
			row[z] = 1.0 + float64(fastrand.Uint32n(100))/100.0
		}
		data[i] = row
	}

	require.NoError(t, g.Grid(lonsDeg, latsDeg, data, nil))

	weights := g.GetWeights().([]float64)
	datacube := g.GetDatacube().([]float64)
	touched := 0
	for i, w := range weights {
		require.GreaterOrEqual(t, w, 0.0)
		if w > 0 {
			touched++
			require.False(t, math.IsNaN(datacube[i]) || math.IsInf(datacube[i], 0))
		}
	}
	require.Greater(t, touched, 0)
}

// TestGridDeterministicAcrossThreadCounts checks that the accumulated
// weights are the same (within floating-point summation-order tolerance)
// whether Grid runs single-threaded or with many workers, since output
// pixels are partitioned disjointly across goroutines (spec.md §5).
func TestGridDeterministicAcrossThreadCounts(t *testing.T) {
	const nx, ny = 12, 12
	toWorld := func(xs, ys []float64) (lonDeg, latDeg []float64) {
		lonDeg = make([]float64, len(xs))
		latDeg = make([]float64, len(ys))
		for i := range xs {
			lonDeg[i] = 200 + (xs[i]-float64(nx)/2)*0.02
			latDeg[i] = -5 + (ys[i]-float64(ny)/2)*0.02
		}
		return
	}

	const n = 500
	lonsDeg := make([]float64, n)
	latsDeg := make([]float64, n)
	data := make([][]float64, n)
	for i := 0; i < n; i++ {
		du := float64(fastrand.Uint32n(1<<20))/(1<<20) - 0.5
		dv := float64(fastrand.Uint32n(1<<20))/(1<<20) - 0.5
		lonsDeg[i] = 200 + du*float64(nx)*0.02
		latsDeg[i] = -5 + dv*float64(ny)*0.02
		data[i] = []float64{1.0}
	}

	run := func(threads int) []float64 {
		g, err := NewProjectionGridder(1, ny, nx, toWorld, Float64, nil, nil)
		require.NoError(t, err)
		require.NoError(t, g.SetKernel(kernel.Gauss1DParams{SigmaDeg: 0.03}, 0.1, 0.01))
		g.SetNumThreads(threads)
		require.NoError(t, g.Grid(lonsDeg, latsDeg, data, nil))
		return g.GetWeights().([]float64)
	}

	w1 := run(1)
	w8 := run(8)
	require.Equal(t, len(w1), len(w8))
	for i := range w1 {
		require.InDelta(t, w1[i], w8[i], 1e-9)
	}
}
