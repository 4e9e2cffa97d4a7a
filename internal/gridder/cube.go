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

// DType selects the element type of the accumulated cubes. Sample
// coordinates and spectra are always ordinary float64 -- only the cubes,
// which can be large enough to matter, get a choice.
type DType int

const (
	Float32 DType = iota
	Float64
)

func (d DType) String() string {
	if d == Float32 {
		return "float32"
	}
	return "float64"
}

// cubeF32 and cubeF64 hold the two element-type flavors of a (C,Ny,Nx)
// cube. Two hand-written types rather than one generic Cube[T]: the
// teacher's internal/pool.go makes the identical choice ("Don't you wish
// for generic types in golang?") for its per-type array pools, and
// spec.md's own numerical notes single out float32 vs float64 summation as
// having materially different error characteristics worth keeping visibly
// distinct types for.
type cubeF32 struct {
	c, ny, nx int
	data      []float32
}

func newCubeF32(c, ny, nx int, data []float32) *cubeF32 {
	if data == nil {
		data = make([]float32, c*ny*nx)
	}
	return &cubeF32{c: c, ny: ny, nx: nx, data: data}
}

func (cu *cubeF32) index(z, y, x int) int { return (z*cu.ny+y)*cu.nx + x }

func (cu *cubeF32) len() int { return len(cu.data) }

type cubeF64 struct {
	c, ny, nx int
	data      []float64
}

func newCubeF64(c, ny, nx int, data []float64) *cubeF64 {
	if data == nil {
		data = make([]float64, c*ny*nx)
	}
	return &cubeF64{c: c, ny: ny, nx: nx, data: data}
}

func (cu *cubeF64) index(z, y, x int) int { return (z*cu.ny+y)*cu.nx + x }

func (cu *cubeF64) len() int { return len(cu.data) }
