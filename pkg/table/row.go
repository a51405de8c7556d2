package table

import (
	"github.com/alireza-moradi/libfastbit/pkg/column"
	"github.com/alireza-moradi/libfastbit/pkg/types"
)

// Row carries one heterogeneous row as parallel name/value sequences
// grouped by type. An empty name targets the i-th column of that type
// in declaration order; a non-empty name targets the column it names.
type Row struct {
	BytesNames   []string
	Bytes        []int8
	UBytesNames  []string
	UBytes       []uint8
	ShortsNames  []string
	Shorts       []int16
	UShortsNames []string
	UShorts      []uint16
	IntsNames    []string
	Ints         []int32
	UIntsNames   []string
	UInts        []uint32
	LongsNames   []string
	Longs        []int64
	ULongsNames  []string
	ULongs       []uint64
	FloatsNames  []string
	Floats       []float32
	DoublesNames []string
	Doubles      []float64
	CatsNames    []string
	Cats         []string
	TextsNames   []string
	Texts        []string
}

// NumColumns returns the total number of values the row carries.
func (r *Row) NumColumns() int {
	return len(r.Bytes) + len(r.UBytes) + len(r.Shorts) + len(r.UShorts) +
		len(r.Ints) + len(r.UInts) + len(r.Longs) + len(r.ULongs) +
		len(r.Floats) + len(r.Doubles) + len(r.Cats) + len(r.Texts)
}

// locate returns the columns of one type in declaration order.
func (t *Table) locate(ct types.Type) []*column.Column {
	var out []*column.Column
	for _, c := range t.order {
		if c.Type == ct {
			out = append(out, c)
		}
	}
	return out
}

// rowTargets caches the per-type column lists so batch appends resolve
// each type once rather than once per row.
type rowTargets struct {
	byType map[types.Type][]*column.Column
}

func (t *Table) targets() *rowTargets {
	rt := &rowTargets{byType: make(map[types.Type][]*column.Column, 12)}
	for _, ct := range []types.Type{
		types.Byte, types.UByte, types.Short, types.UShort,
		types.Int, types.UInt, types.Long, types.ULong,
		types.Float, types.Double, types.Category, types.Text,
	} {
		rt.byType[ct] = t.locate(ct)
	}
	return rt
}

// appendVals pushes one row's values for a single type. Unnamed values
// go to the positionally matching column of that type; named values
// resolve through the table and replace the cached positional target
// for subsequent rows.
func appendVals[T any](t *Table, names []string, vals []T, cache []*column.Column) []*column.Column {
	n1 := len(names)
	if len(vals) < n1 {
		n1 = len(vals)
	}
	for i := 0; i < n1; i++ {
		if names[i] == "" {
			if i < len(cache) && cache[i] != nil {
				cache[i].Data.Push(vals[i])
				cache[i].Mask.Add1()
			}
			continue
		}
		c, ok := t.cols[names[i]]
		if !ok {
			continue
		}
		for len(cache) <= i {
			cache = append(cache, nil)
		}
		cache[i] = c
		c.Data.Push(vals[i])
		c.Mask.Add1()
	}
	n2 := len(vals)
	if len(cache) < n2 {
		n2 = len(cache)
	}
	for i := n1; i < n2; i++ {
		if cache[i] != nil {
			cache[i].Data.Push(vals[i])
			cache[i].Mask.Add1()
		}
	}
	return cache
}

// appendTo pushes the row into the cached targets and returns the
// number of values the row supplied.
func (r *Row) appendTo(t *Table, rt *rowTargets) int {
	cnt := 0
	push := func(ct types.Type, n int, f func(cache []*column.Column) []*column.Column) {
		if n == 0 {
			return
		}
		cnt += n
		rt.byType[ct] = f(rt.byType[ct])
	}
	push(types.Byte, len(r.Bytes), func(c []*column.Column) []*column.Column {
		return appendVals(t, r.BytesNames, r.Bytes, c)
	})
	push(types.UByte, len(r.UBytes), func(c []*column.Column) []*column.Column {
		return appendVals(t, r.UBytesNames, r.UBytes, c)
	})
	push(types.Short, len(r.Shorts), func(c []*column.Column) []*column.Column {
		return appendVals(t, r.ShortsNames, r.Shorts, c)
	})
	push(types.UShort, len(r.UShorts), func(c []*column.Column) []*column.Column {
		return appendVals(t, r.UShortsNames, r.UShorts, c)
	})
	push(types.Int, len(r.Ints), func(c []*column.Column) []*column.Column {
		return appendVals(t, r.IntsNames, r.Ints, c)
	})
	push(types.UInt, len(r.UInts), func(c []*column.Column) []*column.Column {
		return appendVals(t, r.UIntsNames, r.UInts, c)
	})
	push(types.Long, len(r.Longs), func(c []*column.Column) []*column.Column {
		return appendVals(t, r.LongsNames, r.Longs, c)
	})
	push(types.ULong, len(r.ULongs), func(c []*column.Column) []*column.Column {
		return appendVals(t, r.ULongsNames, r.ULongs, c)
	})
	push(types.Float, len(r.Floats), func(c []*column.Column) []*column.Column {
		return appendVals(t, r.FloatsNames, r.Floats, c)
	})
	push(types.Double, len(r.Doubles), func(c []*column.Column) []*column.Column {
		return appendVals(t, r.DoublesNames, r.Doubles, c)
	})
	push(types.Category, len(r.Cats), func(c []*column.Column) []*column.Column {
		return appendVals(t, r.CatsNames, r.Cats, c)
	})
	push(types.Text, len(r.Texts), func(c []*column.Column) []*column.Column {
		return appendVals(t, r.TextsNames, r.Texts, c)
	})
	return cnt
}

// AppendRow appends one typed row. When the row supplies at least as
// many values as the table has columns, the table is normalized first
// to clear any preceding partial row. The declared row count advances
// according to the table's RowCountPolicy. Returns the number of
// values the row supplied.
func (t *Table) AppendRow(r *Row) int {
	if r.NumColumns() >= len(t.order) {
		t.Normalize()
	}
	cnt := r.appendTo(t, t.targets())
	if t.countsAsRow(cnt) {
		t.mrows++
	}
	return cnt
}

// AppendRows appends a batch of typed rows, resolving the per-type
// column lists once. A row following a partial row triggers a
// normalize. Returns the number of rows that supplied any value.
func (t *Table) AppendRows(rows []Row) int {
	if len(rows) == 0 {
		return 0
	}
	rt := t.targets()
	ncols := len(t.order)
	cnt := 0
	jnew := 0
	for i := range rows {
		if cnt < ncols {
			t.Normalize()
		}
		cnt = rows[i].appendTo(t, rt)
		if cnt > 0 {
			t.mrows++
			jnew++
		}
	}
	return jnew
}

// countsAsRow applies the row-count policy to one append's value count.
func (t *Table) countsAsRow(cnt int) bool {
	if t.policy == CountAny {
		return cnt > 0
	}
	return cnt >= len(t.order) && cnt > 0
}
