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

import "fmt"

// Kind classifies the closed set of gridder error conditions a caller might
// want to branch on, distinct from the ad hoc errors.New/fmt.Errorf used
// for anything the caller cannot usefully act on beyond logging.
type Kind int

const (
	KindShapeMismatch Kind = iota
	KindDtypeMismatch
	KindInvalidDtype
	KindKernelNotSet
	KindUnknownKernel
	KindArityMismatch
	KindGeometryError
)

func (k Kind) String() string {
	switch k {
	case KindShapeMismatch:
		return "ShapeMismatch"
	case KindDtypeMismatch:
		return "DtypeMismatch"
	case KindInvalidDtype:
		return "InvalidDtype"
	case KindKernelNotSet:
		return "KernelNotSet"
	case KindUnknownKernel:
		return "UnknownKernel"
	case KindArityMismatch:
		return "ArityMismatch"
	case KindGeometryError:
		return "GeometryError"
	default:
		return "Unknown"
	}
}

// GridError is a classified gridder error. Callers branch on it with
// errors.Is(err, gridder.ErrShapeMismatch) etc., the structured-error idiom
// hupe1980-vecgo uses for its ErrNotFound/ErrConcurrentModification.
type GridError struct {
	Kind Kind
	Msg  string
}

func (e *GridError) Error() string { return fmt.Sprintf("gridder: %s: %s", e.Kind, e.Msg) }

// Is reports whether target is a GridError sentinel with the same Kind,
// ignoring Msg -- so errors.Is(err, ErrShapeMismatch) matches any
// ShapeMismatch instance, not just that exact message.
func (e *GridError) Is(target error) bool {
	t, ok := target.(*GridError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newGridError(kind Kind, format string, args ...interface{}) *GridError {
	return &GridError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Sentinel errors for errors.Is comparisons. Only Kind is compared.
var (
	ErrShapeMismatch  = &GridError{Kind: KindShapeMismatch}
	ErrDtypeMismatch  = &GridError{Kind: KindDtypeMismatch}
	ErrInvalidDtype   = &GridError{Kind: KindInvalidDtype}
	ErrKernelNotSet   = &GridError{Kind: KindKernelNotSet}
	ErrUnknownKernel  = &GridError{Kind: KindUnknownKernel}
	ErrArityMismatch  = &GridError{Kind: KindArityMismatch}
	ErrGeometryError  = &GridError{Kind: KindGeometryError}
)
