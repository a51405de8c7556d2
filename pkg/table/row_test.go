package table_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alireza-moradi/libfastbit/pkg/table"
	"github.com/alireza-moradi/libfastbit/pkg/types"
)

func TestAppendRowPositional(t *testing.T) {
	tbl := table.New()
	require.Equal(t, 0, tbl.AddColumn("id", types.Int, "", ""))
	require.Equal(t, 0, tbl.AddColumn("name", types.Text, "", ""))

	r := table.Row{
		IntsNames:  []string{""},
		Ints:       []int32{42},
		TextsNames: []string{""},
		Texts:      []string{"alice"},
	}
	assert.Equal(t, 2, tbl.AppendRow(&r))

	assert.Equal(t, uint32(1), tbl.Rows())
	assert.Equal(t, int32(42), tbl.Column("id").Data.Value(0))
	assert.Equal(t, "alice", tbl.Column("name").Data.Value(0))
	assert.True(t, tbl.Column("id").Mask.Get(0))
	assert.True(t, tbl.Column("name").Mask.Get(0))
}

func TestAppendRowNamed(t *testing.T) {
	tbl := table.New()
	require.Equal(t, 0, tbl.AddColumn("x", types.Double, "", ""))
	require.Equal(t, 0, tbl.AddColumn("y", types.Double, "", ""))

	r := table.Row{
		DoublesNames: []string{"y", "x"},
		Doubles:      []float64{1.5, 2.5},
	}
	assert.Equal(t, 2, tbl.AppendRow(&r))

	assert.Equal(t, uint32(1), tbl.Rows())
	assert.Equal(t, 2.5, tbl.Column("x").Data.Value(0))
	assert.Equal(t, 1.5, tbl.Column("y").Data.Value(0))
}

func TestAppendRowPartialDoesNotCount(t *testing.T) {
	tbl := table.New()
	require.Equal(t, 0, tbl.AddColumn("a", types.Int, "", ""))
	require.Equal(t, 0, tbl.AddColumn("b", types.Int, "", ""))

	r := table.Row{IntsNames: []string{"a"}, Ints: []int32{1}}
	assert.Equal(t, 1, tbl.AppendRow(&r))
	assert.Equal(t, uint32(0), tbl.Rows(), "partial row does not advance the count")

	// the partial push is still staged and normalizes into a real row
	tbl.Normalize()
	assert.Equal(t, uint32(1), tbl.Rows())
	assert.True(t, tbl.Column("a").Mask.Get(0))
	assert.False(t, tbl.Column("b").Mask.Get(0))
}

func TestAppendRowCountAnyPolicy(t *testing.T) {
	tbl := table.New(table.WithRowCountPolicy(table.CountAny))
	require.Equal(t, 0, tbl.AddColumn("a", types.Int, "", ""))
	require.Equal(t, 0, tbl.AddColumn("b", types.Int, "", ""))

	r := table.Row{IntsNames: []string{"a"}, Ints: []int32{1}}
	assert.Equal(t, 1, tbl.AppendRow(&r))
	assert.Equal(t, uint32(1), tbl.Rows(), "CountAny advances on any push")
}

func TestAppendRowNormalizesBeforeCompleteRow(t *testing.T) {
	tbl := table.New()
	require.Equal(t, 0, tbl.AddColumn("a", types.Int, "", ""))
	require.Equal(t, 0, tbl.AddColumn("b", types.Text, "", ""))

	partial := table.Row{IntsNames: []string{"a"}, Ints: []int32{1}}
	require.Equal(t, 1, tbl.AppendRow(&partial))

	full := table.Row{
		IntsNames:  []string{"a"},
		Ints:       []int32{2},
		TextsNames: []string{"b"},
		Texts:      []string{"two"},
	}
	require.Equal(t, 2, tbl.AppendRow(&full))

	assert.Equal(t, uint32(2), tbl.Rows())
	b := tbl.Column("b")
	assert.False(t, b.Mask.Get(0), "hole from the partial row")
	assert.True(t, b.Mask.Get(1))
	assert.Equal(t, "two", b.Data.Value(1))
}

func TestAppendRowUnknownNameIgnored(t *testing.T) {
	tbl := table.New()
	require.Equal(t, 0, tbl.AddColumn("a", types.Int, "", ""))

	r := table.Row{IntsNames: []string{"ghost"}, Ints: []int32{1}}
	// the value counts as supplied even though nothing stored it
	assert.Equal(t, 1, tbl.AppendRow(&r))
	assert.Equal(t, 0, tbl.Column("a").Data.Len())
}

func TestAppendRows(t *testing.T) {
	tbl := table.New()
	require.Equal(t, 0, tbl.AddColumn("n", types.Long, "", ""))
	require.Equal(t, 0, tbl.AddColumn("s", types.Category, "", ""))

	rows := []table.Row{
		{LongsNames: []string{""}, Longs: []int64{10}, CatsNames: []string{""}, Cats: []string{"x"}},
		{LongsNames: []string{""}, Longs: []int64{20}, CatsNames: []string{""}, Cats: []string{"y"}},
		{},
		{LongsNames: []string{""}, Longs: []int64{30}, CatsNames: []string{""}, Cats: []string{"z"}},
	}
	assert.Equal(t, 3, tbl.AppendRows(rows))
	assert.Equal(t, uint32(3), tbl.Rows())
	assert.Equal(t, int64(30), tbl.Column("n").Data.Value(2))
	assert.Equal(t, "z", tbl.Column("s").Data.Value(2))
}

func TestAppendRowsMixedTypes(t *testing.T) {
	tbl := table.New()
	require.Equal(t, 0, tbl.AddColumn("b", types.Byte, "", ""))
	require.Equal(t, 0, tbl.AddColumn("u", types.UShort, "", ""))
	require.Equal(t, 0, tbl.AddColumn("f", types.Float, "", ""))

	rows := []table.Row{
		{
			BytesNames:   []string{""},
			Bytes:        []int8{-5},
			UShortsNames: []string{""},
			UShorts:      []uint16{7},
			FloatsNames:  []string{""},
			Floats:       []float32{1.5},
		},
	}
	assert.Equal(t, 1, tbl.AppendRows(rows))
	assert.Equal(t, int8(-5), tbl.Column("b").Data.Value(0))
	assert.Equal(t, uint16(7), tbl.Column("u").Data.Value(0))
	assert.Equal(t, float32(1.5), tbl.Column("f").Data.Value(0))
}
