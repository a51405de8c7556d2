package column

import (
	"encoding/binary"
	"io"
)

// elem is the set of native element types of the fixed-width columns.
type elem interface {
	int8 | uint8 | int16 | uint16 | int32 | uint32 | int64 | uint64 | float32 | float64
}

// fixed is the buffer arm shared by all fixed-width types. The on-disk
// encoding is native order; every supported target is little-endian.
type fixed[T elem] struct {
	vals      []T
	sentinel  T
	fromInt   func(int64) (T, bool)
	fromFloat func(float64) T
}

func newFixed[T elem](sentinel T, fromInt func(int64) (T, bool), fromFloat func(float64) T) *fixed[T] {
	return &fixed[T]{sentinel: sentinel, fromInt: fromInt, fromFloat: fromFloat}
}

func (f *fixed[T]) Len() int { return len(f.vals) }
func (f *fixed[T]) Cap() int { return cap(f.vals) }

func (f *fixed[T]) Reserve(n int) {
	if cap(f.vals) < n {
		nv := make([]T, len(f.vals), n)
		copy(nv, f.vals)
		f.vals = nv
	}
}

func (f *fixed[T]) Renew(n int) { f.vals = make([]T, 0, n) }

func (f *fixed[T]) PadTo(n int) {
	for len(f.vals) < n {
		f.vals = append(f.vals, f.sentinel)
	}
}

func (f *fixed[T]) Truncate(n int) {
	if len(f.vals) > n {
		f.vals = f.vals[:n]
	}
}

func (f *fixed[T]) Clear() { f.vals = f.vals[:0] }

func (f *fixed[T]) Push(v any) bool {
	t, ok := v.(T)
	if ok {
		f.vals = append(f.vals, t)
	}
	return ok
}

func (f *fixed[T]) PushInt(v int64) bool {
	if f.fromInt == nil {
		return false
	}
	t, ok := f.fromInt(v)
	if !ok {
		return false
	}
	f.vals = append(f.vals, t)
	return true
}

func (f *fixed[T]) PushFloat(v float64) bool {
	if f.fromFloat == nil {
		return false
	}
	f.vals = append(f.vals, f.fromFloat(v))
	return true
}

func (f *fixed[T]) PushString(string) bool { return false }

func (f *fixed[T]) SetRange(values any, begin, end int) bool {
	in, ok := values.([]T)
	if !ok || len(in) < end-begin {
		return false
	}
	f.PadTo(begin)
	for len(f.vals) < end {
		f.vals = append(f.vals, f.sentinel)
	}
	copy(f.vals[begin:end], in[:end-begin])
	return true
}

func (f *fixed[T]) WriteTo(w io.Writer, n int) (int64, error) {
	k := len(f.vals)
	if k > n {
		k = n
	}
	width := int64(binary.Size(f.sentinel))
	if err := binary.Write(w, binary.LittleEndian, f.vals[:k]); err != nil {
		return 0, err
	}
	written := int64(k) * width
	for i := k; i < n; i++ {
		if err := binary.Write(w, binary.LittleEndian, f.sentinel); err != nil {
			return written, err
		}
		written += width
	}
	return written, nil
}

func (f *fixed[T]) Value(i int) any { return f.vals[i] }
