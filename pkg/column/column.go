// Package column implements the typed value buffer backing one staged
// column. Twelve logical types share two concrete buffer
// implementations (a generic fixed-width arm and a string arm) behind
// the Buffer interface, so every multi-type operation in the engine has
// a single dispatch site: NewBuffer.
package column

import (
	"io"

	"github.com/alireza-moradi/libfastbit/pkg/bitmap"
	"github.com/alireza-moradi/libfastbit/pkg/types"
)

// Buffer is the uniform surface of a typed value buffer. Lengths are
// element counts, not bytes.
type Buffer interface {
	Len() int
	Cap() int
	// Reserve grows the underlying capacity to at least n elements
	// without changing the length.
	Reserve(n int)
	// Renew discards the buffer content and replaces the storage with a
	// fresh allocation of exactly n elements of capacity.
	Renew(n int)
	// PadTo appends the type's null sentinel until the length reaches n.
	PadTo(n int)
	// Truncate shortens the buffer to n elements.
	Truncate(n int)
	Clear()
	// Push appends a single value of the buffer's native element type.
	// It returns false when the value has a different dynamic type.
	Push(v any) bool
	// PushInt appends an integer after narrowing it to the element
	// width. It returns false when the buffer is not integer-typed or
	// the value does not survive the round trip.
	PushInt(v int64) bool
	// PushFloat appends a floating-point value; NaN is legal and kept.
	// It returns false when the buffer is not float-typed.
	PushFloat(v float64) bool
	// PushString appends a string; empty strings are treated as missing
	// and rejected.
	PushString(s string) bool
	// SetRange copies a native slice into positions [begin, end),
	// sentinel-padding any gap below begin and extending the buffer as
	// needed. It returns false when values is not a slice of the native
	// element type or is shorter than end-begin.
	SetRange(values any, begin, end int) bool
	// WriteTo writes the first min(Len, n) elements in the on-disk
	// encoding, then sentinel-pads the output up to n elements.
	WriteTo(w io.Writer, n int) (int64, error)
	// Value returns element i for inspection.
	Value(i int) any
}

// Column is one staged column: schema metadata, the value buffer and
// the presence bitmap that records which positions hold real values.
type Column struct {
	Name      string
	Desc      string
	IndexSpec string
	Type      types.Type
	Data      Buffer
	Mask      *bitmap.Bitmap
}

// NewBuffer allocates the buffer arm for a type tag. It returns nil
// for an unknown tag.
func NewBuffer(t types.Type) Buffer {
	switch t {
	case types.Byte:
		return newFixed[int8](types.NullByte, intConv[int8](), nil)
	case types.UByte:
		return newFixed[uint8](types.NullUByte, intConv[uint8](), nil)
	case types.Short:
		return newFixed[int16](types.NullShort, intConv[int16](), nil)
	case types.UShort:
		return newFixed[uint16](types.NullUShort, intConv[uint16](), nil)
	case types.Int:
		return newFixed[int32](types.NullInt, intConv[int32](), nil)
	case types.UInt:
		return newFixed[uint32](types.NullUInt, intConv[uint32](), nil)
	case types.Long:
		return newFixed[int64](types.NullLong, wideConv[int64](), nil)
	case types.ULong:
		return newFixed[uint64](types.NullULong, wideConv[uint64](), nil)
	case types.Float:
		return newFixed[float32](types.NullFloat(), nil, func(v float64) float32 { return float32(v) })
	case types.Double:
		return newFixed[float64](types.NullDouble(), nil, func(v float64) float64 { return v })
	case types.Text, types.Category:
		return &stringBuffer{}
	default:
		return nil
	}
}

// intConv builds the narrowing conversion for an integer element type:
// the int64 intermediate must round-trip through T.
func intConv[T int8 | uint8 | int16 | uint16 | int32 | uint32]() func(int64) (T, bool) {
	return func(v int64) (T, bool) {
		t := T(v)
		return t, int64(t) == v
	}
}

// wideConv covers the 64-bit integers, which take the intermediate
// verbatim (unsigned by reinterpretation, as the text parser reads
// through the signed reader).
func wideConv[T int64 | uint64]() func(int64) (T, bool) {
	return func(v int64) (T, bool) { return T(v), true }
}
