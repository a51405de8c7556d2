package table_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alireza-moradi/libfastbit/pkg/table"
	"github.com/alireza-moradi/libfastbit/pkg/types"
)

func newIDNameTable(t *testing.T) *table.Table {
	t.Helper()
	tbl := table.New()
	require.Equal(t, 0, tbl.AddColumn("id", types.Int, "", ""))
	require.Equal(t, 0, tbl.AddColumn("name", types.Text, "", ""))
	return tbl
}

func TestAppendLine(t *testing.T) {
	tbl := newIDNameTable(t)
	assert.Equal(t, 2, tbl.AppendLine("42,alice", ","))

	assert.Equal(t, uint32(1), tbl.Rows())
	assert.Equal(t, int32(42), tbl.Column("id").Data.Value(0))
	assert.True(t, tbl.Column("id").Mask.Get(0))
	assert.Equal(t, "alice", tbl.Column("name").Data.Value(0))
	assert.True(t, tbl.Column("name").Mask.Get(0))
}

func TestAppendLineSkipsCommentsAndBlanks(t *testing.T) {
	tbl := newIDNameTable(t)
	assert.Equal(t, 0, tbl.AppendLine("", ","))
	assert.Equal(t, 0, tbl.AppendLine("   ", ","))
	assert.Equal(t, 0, tbl.AppendLine("# id,name", ","))
	assert.Equal(t, 0, tbl.AppendLine("-- sql style", ","))
	assert.Equal(t, uint32(0), tbl.Rows())
}

func TestAppendLineQuotedStrings(t *testing.T) {
	tbl := newIDNameTable(t)
	assert.Equal(t, 2, tbl.AppendLine(`7,"de la cruz, maria"`, ","))
	assert.Equal(t, "de la cruz, maria", tbl.Column("name").Data.Value(0))
}

func TestAppendLineShortLinePadsRest(t *testing.T) {
	tbl := newIDNameTable(t)
	require.Equal(t, 1, tbl.AppendLine("5", ","))
	assert.Equal(t, uint32(0), tbl.Rows(), "partial line does not advance the count")

	tbl.Normalize()
	assert.Equal(t, uint32(1), tbl.Rows())
	assert.False(t, tbl.Column("name").Mask.Get(0))
	assert.Equal(t, "", tbl.Column("name").Data.Value(0))
}

func TestAppendLineFloatNaN(t *testing.T) {
	tbl := table.New()
	require.Equal(t, 0, tbl.AddColumn("x", types.Double, "", ""))
	assert.Equal(t, 1, tbl.AppendLine("NaN", ","))
	assert.True(t, math.IsNaN(tbl.Column("x").Data.Value(0).(float64)))
	assert.True(t, tbl.Column("x").Mask.Get(0), "NaN is a legal parsed value")
}

func TestAppendLineOverflowSkipsColumn(t *testing.T) {
	tbl := table.New()
	require.Equal(t, 0, tbl.AddColumn("b", types.Byte, "", ""))
	require.Equal(t, 0, tbl.AddColumn("s", types.Text, "", ""))

	assert.Equal(t, 1, tbl.AppendLine("300,bar", ","))
	tbl.Normalize()

	b := tbl.Column("b")
	s := tbl.Column("s")
	assert.Equal(t, types.NullByte, b.Data.Value(0))
	assert.False(t, b.Mask.Get(0))
	assert.Equal(t, "bar", s.Data.Value(0))
	assert.True(t, s.Mask.Get(0))
}

func TestAppendLineMalformedTokenSkipsColumn(t *testing.T) {
	tbl := newIDNameTable(t)
	assert.Equal(t, 1, tbl.AppendLine("oops,bob", ","))
	tbl.Normalize()

	assert.False(t, tbl.Column("id").Mask.Get(0))
	assert.Equal(t, "bob", tbl.Column("name").Data.Value(0))
}

func TestAppendLineAlternateDelimiters(t *testing.T) {
	tbl := newIDNameTable(t)
	assert.Equal(t, 2, tbl.AppendLine("9|carol", "|;"))
	assert.Equal(t, int32(9), tbl.Column("id").Data.Value(0))
	assert.Equal(t, "carol", tbl.Column("name").Data.Value(0))
}

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadCSV(t *testing.T) {
	tbl := table.New()
	require.Equal(t, 0, tbl.AddColumn("n", types.UInt, "", ""))
	require.Equal(t, 0, tbl.AddColumn("s", types.Text, "", ""))

	path := writeTempCSV(t, "# comment\n\n1,foo\n")
	assert.Equal(t, 0, tbl.ReadCSV(path, 0, ","))

	assert.Equal(t, uint32(1), tbl.Rows())
	assert.Equal(t, uint32(1), tbl.Column("n").Data.Value(0))
	assert.Equal(t, "foo", tbl.Column("s").Data.Value(0))
}

func TestReadCSVPartialLines(t *testing.T) {
	tbl := table.New()
	require.Equal(t, 0, tbl.AddColumn("a", types.Int, "", ""))
	require.Equal(t, 0, tbl.AddColumn("b", types.Int, "", ""))

	path := writeTempCSV(t, "1,2\n3\n5,6\n")
	require.Equal(t, 0, tbl.ReadCSV(path, 0, ","))
	tbl.Normalize()

	assert.Equal(t, uint32(3), tbl.Rows())
	b := tbl.Column("b")
	assert.True(t, b.Mask.Get(0))
	assert.False(t, b.Mask.Get(1), "short middle line leaves a hole")
	assert.True(t, b.Mask.Get(2))
	assert.Equal(t, int32(6), b.Data.Value(2))
}

func TestReadCSVWithReserve(t *testing.T) {
	tbl := table.New()
	require.Equal(t, 0, tbl.AddColumn("a", types.Long, "", ""))

	path := writeTempCSV(t, "1\n2\n3\n")
	require.Equal(t, 0, tbl.ReadCSV(path, 100, ","))
	assert.Equal(t, uint32(3), tbl.Rows())
	assert.GreaterOrEqual(t, tbl.Capacity(), uint32(100))
}

func TestReadCSVErrors(t *testing.T) {
	tbl := table.New()
	assert.Equal(t, -1, tbl.ReadCSV("", 0, ","))
	assert.Equal(t, -2, tbl.ReadCSV("somefile.csv", 0, ","), "no declared columns")

	require.Equal(t, 0, tbl.AddColumn("a", types.Int, "", ""))
	assert.Equal(t, -3, tbl.ReadCSV(filepath.Join(t.TempDir(), "absent.csv"), 0, ","))
}
