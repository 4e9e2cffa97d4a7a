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

// Package kernel implements the closed registry of convolution kernels the
// gridder can dispatch to: gauss1d, gauss2d, tapered_sinc, vector1d and
// matrix2d. The set is fixed at compile time and selected by a Kind tag,
// per the "tagged variant, not a runtime class hierarchy" design note.
package kernel

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/mat"
)

// Kind identifies one of the closed set of supported kernel families.
type Kind string

const (
	Gauss1D      Kind = "gauss1d"
	Gauss2D      Kind = "gauss2d"
	TaperedSinc  Kind = "tapered_sinc"
	Vector1D     Kind = "vector1d"
	Matrix2D     Kind = "matrix2d"
)

// ErrUnknownKernel is returned when Kind is outside the closed registry.
var ErrUnknownKernel = errors.New("kernel: unknown kind")

// ErrArityMismatch is returned when a raw parameter slice has the wrong
// length for the requested kernel kind.
var ErrArityMismatch = errors.New("kernel: parameter arity mismatch")

// Spec is a tagged parameter block for one of the closed kernel kinds.
// Concrete implementations: Gauss1DParams, Gauss2DParams, TaperedSincParams,
// Vector1DParams, Matrix2DParams.
type Spec interface {
	kind() Kind
	bearingNeeded() bool
}

// Gauss1DParams parametrizes the radial Gaussian: exp(-0.5*d^2/sigma^2), d in degrees.
type Gauss1DParams struct {
	SigmaDeg float64
}

func (Gauss1DParams) kind() Kind          { return Gauss1D }
func (Gauss1DParams) bearingNeeded() bool { return false }

// Gauss2DParams parametrizes the elliptical Gaussian in the frame rotated
// by the position angle PA (radians east of north). The corresponding
// parameter tuple has arity 3: (sigmaMaj, sigmaMin, PA); PA is the third
// element, not the fourth (spec.md Open Question, resolved: index 2, not 3).
type Gauss2DParams struct {
	SigmaMajDeg float64
	SigmaMinDeg float64
	PARad       float64
}

func (Gauss2DParams) kind() Kind          { return Gauss2D }
func (Gauss2DParams) bearingNeeded() bool { return true }

// TaperedSincParams parametrizes sinc(d/(a*sigma)) * exp(-(d/(b*sigma))^2).
type TaperedSincParams struct {
	SigmaDeg float64
	A        float64
	B        float64
}

func (TaperedSincParams) kind() Kind          { return TaperedSinc }
func (TaperedSincParams) bearingNeeded() bool { return false }

// Vector1DParams parametrizes a discrete tabulated radial kernel, linearly
// interpolated. Vector[i] is sampled at distance (i-RefPix)*DxDeg degrees.
type Vector1DParams struct {
	Vector []float64
	RefPix float64
	DxDeg  float64
}

func (Vector1DParams) kind() Kind          { return Vector1D }
func (Vector1DParams) bearingNeeded() bool { return false }

// Matrix2DParams parametrizes a discrete tabulated 2D kernel, bilinearly
// interpolated at (d*cos(bearing), d*sin(bearing)): each offset is divided
// by the per-axis pixel scale and the reference pixel is added, giving
// column d*cos(bearing)/DxDeg+RefX and row d*sin(bearing)/DyDeg+RefY.
type Matrix2DParams struct {
	Matrix    *mat.Dense // rows indexed by y, columns by x
	RefX      float64
	RefY      float64
	DxDeg     float64
	DyDeg     float64
}

func (Matrix2DParams) kind() Kind          { return Matrix2D }
func (Matrix2DParams) bearingNeeded() bool { return true }

// Kernel is the constructed, validated, ready-to-evaluate form of a Spec.
type Kernel struct {
	spec          Spec
	bearingNeeded bool
	vecInterp     *interp.PiecewiseLinear // lazily fit for Vector1D
}

// New validates spec's internal consistency and returns a ready-to-evaluate
// Kernel. It returns ErrUnknownKernel only for a Spec type outside the
// closed registry, and never ErrArityMismatch -- arity is checked by
// FromFloats, which builds a Spec from a raw parameter slice (the shape
// user-facing configuration, e.g. a CLI flag or REST payload, naturally
// arrives in).
func New(spec Spec) (*Kernel, error) {
	k := &Kernel{spec: spec, bearingNeeded: spec.bearingNeeded()}
	switch p := spec.(type) {
	case Gauss1DParams:
		if p.SigmaDeg <= 0 {
			return nil, fmt.Errorf("kernel: gauss1d requires sigma > 0, got %g", p.SigmaDeg)
		}
	case Gauss2DParams:
		if p.SigmaMajDeg <= 0 || p.SigmaMinDeg <= 0 {
			return nil, fmt.Errorf("kernel: gauss2d requires sigmaMaj, sigmaMin > 0, got %g, %g", p.SigmaMajDeg, p.SigmaMinDeg)
		}
	case TaperedSincParams:
		if p.SigmaDeg <= 0 || p.A <= 0 || p.B <= 0 {
			return nil, fmt.Errorf("kernel: tapered_sinc requires sigma, a, b > 0")
		}
	case Vector1DParams:
		if len(p.Vector) < 2 {
			return nil, errors.New("kernel: vector1d requires at least 2 samples")
		}
		if p.DxDeg <= 0 {
			return nil, errors.New("kernel: vector1d requires dx > 0")
		}
		xs := make([]float64, len(p.Vector))
		for i := range p.Vector {
			xs[i] = (float64(i) - p.RefPix) * p.DxDeg
		}
		pl := &interp.PiecewiseLinear{}
		if err := pl.Fit(xs, p.Vector); err != nil {
			return nil, fmt.Errorf("kernel: vector1d fit failed: %w", err)
		}
		k.vecInterp = pl
	case Matrix2DParams:
		if p.Matrix == nil {
			return nil, errors.New("kernel: matrix2d requires a non-nil matrix")
		}
		if p.DxDeg <= 0 || p.DyDeg <= 0 {
			return nil, errors.New("kernel: matrix2d requires dx, dy > 0")
		}
	default:
		return nil, ErrUnknownKernel
	}
	return k, nil
}

// FromFloats builds a Spec for the scalar-parameter kernel kinds (gauss1d,
// gauss2d, tapered_sinc) from a flat parameter slice, the shape a CLI flag
// or a REST JSON payload naturally delivers. vector1d and matrix2d carry
// non-scalar payloads (a vector or matrix) and are constructed directly via
// their typed Params structs instead.
func FromFloats(kind Kind, params []float64) (Spec, error) {
	switch kind {
	case Gauss1D:
		if len(params) != 1 {
			return nil, ErrArityMismatch
		}
		return Gauss1DParams{SigmaDeg: params[0]}, nil
	case Gauss2D:
		if len(params) != 3 {
			return nil, ErrArityMismatch
		}
		return Gauss2DParams{SigmaMajDeg: params[0], SigmaMinDeg: params[1], PARad: params[2]}, nil
	case TaperedSinc:
		if len(params) != 3 {
			return nil, ErrArityMismatch
		}
		return TaperedSincParams{SigmaDeg: params[0], A: params[1], B: params[2]}, nil
	case Vector1D, Matrix2D:
		return nil, fmt.Errorf("kernel: %s requires typed Params, not a flat float slice", kind)
	default:
		return nil, ErrUnknownKernel
	}
}

// Kind returns the kernel's tag.
func (k *Kernel) Kind() Kind { return k.spec.kind() }

// BearingNeeded reports whether Evaluate's bearing argument is consulted by
// this kernel; the accumulation loop uses this to skip bearing computation
// for radial (non-elliptical) kernels.
func (k *Kernel) BearingNeeded() bool { return k.bearingNeeded }

// Evaluate returns the kernel weight at angular separation dDeg (degrees)
// and, for direction-dependent kernels, bearing bearingRad (radians, east
// of north). Callers should have already rejected dDeg >= support radius.
func (k *Kernel) Evaluate(dDeg, bearingRad float64) float64 {
	switch p := k.spec.(type) {
	case Gauss1DParams:
		x := dDeg / p.SigmaDeg
		return math.Exp(-0.5 * x * x)
	case Gauss2DParams:
		da := bearingRad - p.PARad
		sinDA, cosDA := math.Sincos(da)
		u := dDeg * cosDA // along major axis
		v := dDeg * sinDA // along minor axis
		return math.Exp(-0.5 * ((u*u)/(p.SigmaMajDeg*p.SigmaMajDeg) + (v*v)/(p.SigmaMinDeg*p.SigmaMinDeg)))
	case TaperedSincParams:
		return sinc(dDeg/(p.A*p.SigmaDeg)) * math.Exp(-sq(dDeg/(p.B*p.SigmaDeg)))
	case Vector1DParams:
		return k.vecInterp.Predict(dDeg)
	case Matrix2DParams:
		x := dDeg*math.Cos(bearingRad)/p.DxDeg + p.RefX
		y := dDeg*math.Sin(bearingRad)/p.DyDeg + p.RefY
		return bilinear(p.Matrix, x, y)
	default:
		return 0
	}
}

func sq(x float64) float64 { return x * x }

// sinc returns the normalized sinc function sin(pi*x)/(pi*x), with sinc(0)=1.
func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}

// bilinear samples m at fractional row y, column x, returning 0 outside the
// matrix's extent (the kernel support-radius check in the caller is what
// normally keeps evaluations inside bounds; this is a safety net).
func bilinear(m *mat.Dense, x, y float64) float64 {
	rows, cols := m.Dims()
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	if x0 < 0 || y0 < 0 || x0+1 >= cols || y0+1 >= rows {
		if x0 >= 0 && y0 >= 0 && x0 < cols && y0 < rows {
			return m.At(y0, x0)
		}
		return 0
	}
	fx, fy := x-float64(x0), y-float64(y0)
	v00 := m.At(y0, x0)
	v10 := m.At(y0, x0+1)
	v01 := m.At(y0+1, x0)
	v11 := m.At(y0+1, x0+1)
	return v00*(1-fx)*(1-fy) + v10*fx*(1-fy) + v01*(1-fx)*fy + v11*fx*fy
}
