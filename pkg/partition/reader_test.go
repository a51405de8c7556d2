package partition_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alireza-moradi/libfastbit/pkg/partition"
	"github.com/alireza-moradi/libfastbit/pkg/types"
)

const sampleMeta = `# meta data for data partition events written by hand

BEGIN HEADER
Name = events
Description = test partition
Number_of_rows = 42
Number_of_columns = 2
Timestamp = 1700000000
index = bitmap
END HEADER

Begin Column
name = id
data_type = INT
description = event id
index = relic
End Column

Begin Column
name = label
data_type = TEXT
index=none
End Column
`

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, partition.MetaFileName), []byte(sampleMeta), 0o644))

	p, err := partition.Open(dir)
	require.NoError(t, err)

	assert.Equal(t, "events", p.Name)
	assert.Equal(t, "test partition", p.Desc)
	assert.Equal(t, uint64(42), p.NRows)
	assert.Equal(t, int64(1700000000), p.Timestamp)
	assert.Equal(t, "bitmap", p.IndexSpec)
	require.Len(t, p.Columns, 2)

	id := p.Column("id")
	require.NotNil(t, id)
	assert.Equal(t, types.Int, id.Type)
	assert.Equal(t, "event id", id.Desc)
	assert.Equal(t, "relic", id.IndexSpec)

	label := p.Column("label")
	require.NotNil(t, label)
	assert.Equal(t, types.Text, label.Type)
	assert.Equal(t, "none", label.IndexSpec, "the compact index=none variant parses too")

	assert.Nil(t, p.Column("ghost"))
}

func TestOpenMissingMetadata(t *testing.T) {
	p, err := partition.Open(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), p.NRows)
	assert.Empty(t, p.Columns)
}
