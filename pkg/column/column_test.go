package column_test

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alireza-moradi/libfastbit/pkg/column"
	"github.com/alireza-moradi/libfastbit/pkg/types"
)

func TestNewBufferCoversAllTypes(t *testing.T) {
	for _, ct := range []types.Type{
		types.Byte, types.UByte, types.Short, types.UShort,
		types.Int, types.UInt, types.Long, types.ULong,
		types.Float, types.Double, types.Category, types.Text,
	} {
		assert.NotNil(t, column.NewBuffer(ct), ct.String())
	}
	assert.Nil(t, column.NewBuffer(types.Unknown))
}

func TestPushIntNarrowing(t *testing.T) {
	b := column.NewBuffer(types.Byte)
	assert.True(t, b.PushInt(100))
	assert.False(t, b.PushInt(300), "value outside int8 must be rejected")
	assert.False(t, b.PushInt(-200))
	assert.Equal(t, 1, b.Len())
	assert.Equal(t, int8(100), b.Value(0))

	ub := column.NewBuffer(types.UByte)
	assert.True(t, ub.PushInt(255))
	assert.False(t, ub.PushInt(256))
	assert.False(t, ub.PushInt(-1))

	// the 64-bit types take the intermediate verbatim
	ul := column.NewBuffer(types.ULong)
	assert.True(t, ul.PushInt(-1))
	assert.Equal(t, uint64(0xFFFFFFFFFFFFFFFF), ul.Value(0))
}

func TestPushFloatKeepsNaN(t *testing.T) {
	b := column.NewBuffer(types.Double)
	assert.True(t, b.PushFloat(math.NaN()))
	assert.True(t, math.IsNaN(b.Value(0).(float64)))

	f := column.NewBuffer(types.Float)
	assert.True(t, f.PushFloat(2.5))
	assert.Equal(t, float32(2.5), f.Value(0))

	i := column.NewBuffer(types.Int)
	assert.False(t, i.PushFloat(1.0), "integer buffers reject the float path")
}

func TestPushStringRejectsEmpty(t *testing.T) {
	b := column.NewBuffer(types.Text)
	assert.False(t, b.PushString(""))
	assert.True(t, b.PushString("alice"))
	assert.Equal(t, 1, b.Len())
}

func TestPadTruncateRenew(t *testing.T) {
	b := column.NewBuffer(types.Short)
	require.True(t, b.PushInt(7))
	b.PadTo(4)
	assert.Equal(t, 4, b.Len())
	assert.Equal(t, types.NullShort, b.Value(3))

	b.Truncate(2)
	assert.Equal(t, 2, b.Len())

	b.Renew(16)
	assert.Equal(t, 0, b.Len())
	assert.GreaterOrEqual(t, b.Cap(), 16)
}

func TestSetRange(t *testing.T) {
	b := column.NewBuffer(types.Int)
	require.True(t, b.SetRange([]int32{1, 2, 3}, 0, 3))
	require.True(t, b.SetRange([]int32{9, 9}, 5, 7))

	assert.Equal(t, 7, b.Len())
	want := []any{int32(1), int32(2), int32(3), types.NullInt, types.NullInt, int32(9), int32(9)}
	for i, v := range want {
		assert.Equal(t, v, b.Value(i), "element %d", i)
	}

	assert.False(t, b.SetRange([]int64{1}, 0, 1), "wrong element type")
	assert.False(t, b.SetRange([]int32{1}, 0, 2), "slice shorter than range")
}

func TestFixedWriteTo(t *testing.T) {
	b := column.NewBuffer(types.UShort)
	require.True(t, b.PushInt(0x0102))

	var buf bytes.Buffer
	n, err := b.WriteTo(&buf, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)

	got := buf.Bytes()
	assert.Equal(t, uint16(0x0102), binary.LittleEndian.Uint16(got[0:2]))
	assert.Equal(t, uint16(0xFFFF), binary.LittleEndian.Uint16(got[2:4]), "sentinel pad")
	assert.Equal(t, uint16(0xFFFF), binary.LittleEndian.Uint16(got[4:6]))
}

func TestStringWriteTo(t *testing.T) {
	b := column.NewBuffer(types.Text)
	require.True(t, b.PushString("ab"))

	var buf bytes.Buffer
	n, err := b.WriteTo(&buf, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	assert.Equal(t, []byte{'a', 'b', 0, 0, 0}, buf.Bytes())
}
