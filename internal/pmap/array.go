package pmap

import (
	"fmt"
)

// ElementKind identifies the numeric type of the array elements.
type ElementKind int

const (
	kindInvalid ElementKind = iota
	KindInt8
	KindInt16
	KindUint8
	KindUint16
	KindFloat32
	KindFloat64
)

// String returns a short name for the element kind.
func (k ElementKind) String() string {
	switch k {
	case KindInt8:
		return "int8"
	case KindInt16:
		return "int16"
	case KindUint8:
		return "uint8"
	case KindUint16:
		return "uint16"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	}
	return "invalid"
}

// IsInteger reports whether the kind is a signed or unsigned integer type.
func (k ElementKind) IsInteger() bool {
	switch k {
	case KindInt8, KindInt16, KindUint8, KindUint16:
		return true
	}
	return false
}

// IsSigned reports whether the kind is a signed integer type.
func (k ElementKind) IsSigned() bool {
	return k == KindInt8 || k == KindInt16
}

// Array is an immutable numeric array of rank 2 to 4 with a tagged element
// type. A rank-4 array has shape (positions, rows, columns, channels);
// lower ranks omit the position and/or channel dimensions.
type Array struct {
	kind  ElementKind
	shape []int

	i8  []int8
	i16 []int16
	u8  []uint8
	u16 []uint16
	f32 []float32
	f64 []float64
}

// NewInt8Array wraps signed 8-bit data.
func NewInt8Array(data []int8, shape []int) (*Array, error) {
	if err := checkShape(shape, len(data)); err != nil {
		return nil, err
	}
	return &Array{kind: KindInt8, shape: shape, i8: data}, nil
}

// NewInt16Array wraps signed 16-bit data.
func NewInt16Array(data []int16, shape []int) (*Array, error) {
	if err := checkShape(shape, len(data)); err != nil {
		return nil, err
	}
	return &Array{kind: KindInt16, shape: shape, i16: data}, nil
}

// NewUint8Array wraps unsigned 8-bit data.
func NewUint8Array(data []uint8, shape []int) (*Array, error) {
	if err := checkShape(shape, len(data)); err != nil {
		return nil, err
	}
	return &Array{kind: KindUint8, shape: shape, u8: data}, nil
}

// NewUint16Array wraps unsigned 16-bit data.
func NewUint16Array(data []uint16, shape []int) (*Array, error) {
	if err := checkShape(shape, len(data)); err != nil {
		return nil, err
	}
	return &Array{kind: KindUint16, shape: shape, u16: data}, nil
}

// NewFloat32Array wraps single-precision data.
func NewFloat32Array(data []float32, shape []int) (*Array, error) {
	if err := checkShape(shape, len(data)); err != nil {
		return nil, err
	}
	return &Array{kind: KindFloat32, shape: shape, f32: data}, nil
}

// NewFloat64Array wraps double-precision data.
func NewFloat64Array(data []float64, shape []int) (*Array, error) {
	if err := checkShape(shape, len(data)); err != nil {
		return nil, err
	}
	return &Array{kind: KindFloat64, shape: shape, f64: data}, nil
}

func checkShape(shape []int, n int) error {
	if len(shape) < 2 || len(shape) > 4 {
		return fmt.Errorf("%w: got rank %d", ErrInvalidRank, len(shape))
	}
	total := 1
	for _, dim := range shape {
		if dim < 1 {
			return fmt.Errorf("%w: dimension %v", ErrInvalidRank, shape)
		}
		total *= dim
	}
	if total != n {
		return fmt.Errorf("%w: shape %v requires %d elements, got %d", ErrShapeMismatch, shape, total, n)
	}
	return nil
}

// Kind returns the element kind.
func (a *Array) Kind() ElementKind { return a.kind }

// Rank returns the number of dimensions.
func (a *Array) Rank() int { return len(a.shape) }

// Shape returns a copy of the dimensions.
func (a *Array) Shape() []int {
	out := make([]int, len(a.shape))
	copy(out, a.shape)
	return out
}

// Len returns the total number of elements.
func (a *Array) Len() int {
	total := 1
	for _, dim := range a.shape {
		total *= dim
	}
	return total
}

// reshape4D views the array with shape (n, r, c, m): rank-2 input becomes a
// single position with a single channel, rank-3 input multiple positions
// with a single channel. The backing data is shared.
func (a *Array) reshape4D() *Array {
	out := *a
	switch len(a.shape) {
	case 2:
		out.shape = []int{1, a.shape[0], a.shape[1], 1}
	case 3:
		out.shape = []int{a.shape[0], a.shape[1], a.shape[2], 1}
	default:
		out.shape = a.Shape()
	}
	return &out
}

// Plane extracts the 2D sample plane at position i, channel j of a rank-4
// array. The plane's data is copied.
func (a *Array) Plane(i, j int) (*Array, error) {
	if len(a.shape) != 4 {
		return nil, fmt.Errorf("%w: rank %d array", ErrInvalidRank, len(a.shape))
	}
	n, r, c, m := a.shape[0], a.shape[1], a.shape[2], a.shape[3]
	if i < 0 || i >= n || j < 0 || j >= m {
		return nil, fmt.Errorf("plane (%d, %d) out of range for shape %v", i, j, a.shape)
	}

	out := &Array{kind: a.kind, shape: []int{r, c}}
	switch a.kind {
	case KindInt8:
		out.i8 = gatherPlane(a.i8, r, c, m, i, j)
	case KindInt16:
		out.i16 = gatherPlane(a.i16, r, c, m, i, j)
	case KindUint8:
		out.u8 = gatherPlane(a.u8, r, c, m, i, j)
	case KindUint16:
		out.u16 = gatherPlane(a.u16, r, c, m, i, j)
	case KindFloat32:
		out.f32 = gatherPlane(a.f32, r, c, m, i, j)
	case KindFloat64:
		out.f64 = gatherPlane(a.f64, r, c, m, i, j)
	}
	return out, nil
}

// gatherPlane copies the r*c samples of channel j at position i out of a
// position-major, channel-minor layout.
func gatherPlane[T any](src []T, r, c, m, i, j int) []T {
	out := make([]T, r*c)
	base := i * r * c * m
	for k := range out {
		out[k] = src[base+k*m+j]
	}
	return out
}

// Float64s returns every element converted to float64, in storage order.
func (a *Array) Float64s() []float64 {
	out := make([]float64, a.Len())
	switch a.kind {
	case KindInt8:
		for i, v := range a.i8 {
			out[i] = float64(v)
		}
	case KindInt16:
		for i, v := range a.i16 {
			out[i] = float64(v)
		}
	case KindUint8:
		for i, v := range a.u8 {
			out[i] = float64(v)
		}
	case KindUint16:
		for i, v := range a.u16 {
			out[i] = float64(v)
		}
	case KindFloat32:
		for i, v := range a.f32 {
			out[i] = float64(v)
		}
	case KindFloat64:
		copy(out, a.f64)
	}
	return out
}
