// Package partition reads and writes the on-disk layout of a data
// partition: one raw data file per column, an optional .msk presence
// sidecar per column and a plain-text -part.txt metadata file.
package partition

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alireza-moradi/libfastbit/pkg/types"
)

// MetaFileName is the partition metadata file inside a partition
// directory. The leading dash sorts it ahead of the column files.
const MetaFileName = "-part.txt"

// ColumnMeta describes one column of an existing partition.
type ColumnMeta struct {
	Name      string
	Type      types.Type
	Desc      string
	IndexSpec string
}

// Part is the metadata of an on-disk partition.
type Part struct {
	Name      string
	Desc      string
	IndexSpec string
	NRows     uint64
	Timestamp int64
	Columns   []ColumnMeta

	byName map[string]*ColumnMeta
}

// Column returns the named column's metadata, or nil.
func (p *Part) Column(name string) *ColumnMeta { return p.byName[name] }

// Open reads the metadata of the partition in dir. A directory without
// a -part.txt yields an empty Part and no error; the writer treats that
// as a fresh partition.
func Open(dir string) (*Part, error) {
	p := &Part{byName: make(map[string]*ColumnMeta)}
	f, err := os.Open(filepath.Join(dir, MetaFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return p, nil
		}
		return nil, err
	}
	defer f.Close()

	var (
		inHeader bool
		cur      *ColumnMeta
	)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "" || line[0] == '#':
			continue
		case line == "BEGIN HEADER":
			inHeader = true
			continue
		case line == "END HEADER":
			inHeader = false
			continue
		case line == "Begin Column":
			cur = &ColumnMeta{}
			continue
		case line == "End Column":
			if cur != nil && cur.Name != "" {
				p.Columns = append(p.Columns, *cur)
				p.byName[cur.Name] = &p.Columns[len(p.Columns)-1]
			}
			cur = nil
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		switch {
		case cur != nil:
			switch key {
			case "name":
				cur.Name = val
			case "data_type":
				cur.Type = types.FromName(val)
			case "description":
				cur.Desc = val
			case "index":
				cur.IndexSpec = val
			}
		case inHeader:
			switch key {
			case "Name":
				p.Name = val
			case "Description":
				p.Desc = val
			case "Number_of_rows":
				p.NRows, _ = strconv.ParseUint(val, 10, 64)
			case "Timestamp":
				p.Timestamp, _ = strconv.ParseInt(val, 10, 64)
			case "index":
				p.IndexSpec = val
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	// the byName pointers must survive the append loop above
	p.byName = make(map[string]*ColumnMeta, len(p.Columns))
	for i := range p.Columns {
		p.byName[p.Columns[i].Name] = &p.Columns[i]
	}
	return p, nil
}
