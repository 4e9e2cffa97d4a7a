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

package kernel

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestGauss1DPeaksAtZero(t *testing.T) {
	k, err := New(Gauss1DParams{SigmaDeg: 0.1})
	require.NoError(t, err)
	require.InDelta(t, 1.0, k.Evaluate(0, 0), 1e-12)
	require.Less(t, k.Evaluate(0.1, 0), k.Evaluate(0.05, 0))
}

func TestGauss1DRejectsNonPositiveSigma(t *testing.T) {
	_, err := New(Gauss1DParams{SigmaDeg: 0})
	require.Error(t, err)
}

func TestGauss2DIsEllipticalAlongPA(t *testing.T) {
	k, err := New(Gauss2DParams{SigmaMajDeg: 0.2, SigmaMinDeg: 0.05, PARad: 0})
	require.NoError(t, err)
	// at PA=0, bearing 0 (along major axis) decays slower than bearing pi/2 (minor axis)
	wMajor := k.Evaluate(0.1, 0)
	wMinor := k.Evaluate(0.1, math.Pi/2)
	require.Greater(t, wMajor, wMinor)
}

func TestGauss2DBearingNeeded(t *testing.T) {
	k, err := New(Gauss2DParams{SigmaMajDeg: 0.1, SigmaMinDeg: 0.1, PARad: 0})
	require.NoError(t, err)
	require.True(t, k.BearingNeeded())
}

func TestGauss1DBearingNotNeeded(t *testing.T) {
	k, err := New(Gauss1DParams{SigmaDeg: 0.1})
	require.NoError(t, err)
	require.False(t, k.BearingNeeded())
}

func TestTaperedSincPeaksAtZero(t *testing.T) {
	k, err := New(TaperedSincParams{SigmaDeg: 0.1, A: 1, B: 2})
	require.NoError(t, err)
	require.InDelta(t, 1.0, k.Evaluate(0, 0), 1e-9)
}

func TestVector1DInterpolatesTable(t *testing.T) {
	k, err := New(Vector1DParams{Vector: []float64{0, 1, 0}, RefPix: 1, DxDeg: 0.1})
	require.NoError(t, err)
	require.InDelta(t, 1.0, k.Evaluate(0, 0), 1e-9)
	require.InDelta(t, 0.5, k.Evaluate(0.05, 0), 1e-9)
}

func TestVector1DRejectsTooFewSamples(t *testing.T) {
	_, err := New(Vector1DParams{Vector: []float64{1}, RefPix: 0, DxDeg: 0.1})
	require.Error(t, err)
}

func TestMatrix2DBilinearInterp(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{0, 1, 1, 0})
	k, err := New(Matrix2DParams{Matrix: m, RefX: 0, RefY: 0, DxDeg: 1, DyDeg: 1})
	require.NoError(t, err)
	require.True(t, k.BearingNeeded())
	// center of the 2x2 block averages all four corners
	v := k.Evaluate(math.Sqrt(0.5), math.Pi/4)
	require.InDelta(t, 0.5, v, 1e-6)
}

func TestFromFloatsArity(t *testing.T) {
	_, err := FromFloats(Gauss1D, []float64{0.1, 0.2})
	require.True(t, errors.Is(err, ErrArityMismatch))

	spec, err := FromFloats(Gauss1D, []float64{0.1})
	require.NoError(t, err)
	require.Equal(t, Gauss1D, spec.kind())
}

func TestFromFloatsGauss2DUsesThirdElementAsPA(t *testing.T) {
	spec, err := FromFloats(Gauss2D, []float64{0.2, 0.1, 0.5})
	require.NoError(t, err)
	p, ok := spec.(Gauss2DParams)
	require.True(t, ok)
	require.Equal(t, 0.5, p.PARad)
}

func TestFromFloatsUnknownKind(t *testing.T) {
	_, err := FromFloats(Kind("bogus"), nil)
	require.True(t, errors.Is(err, ErrUnknownKernel))
}

func TestFromFloatsRejectsTabulatedKinds(t *testing.T) {
	_, err := FromFloats(Vector1D, []float64{1, 2, 3})
	require.Error(t, err)
}
