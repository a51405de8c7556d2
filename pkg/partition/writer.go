package partition

import (
	"bufio"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alireza-moradi/libfastbit/pkg/bitmap"
	"github.com/alireza-moradi/libfastbit/pkg/column"
	"github.com/alireza-moradi/libfastbit/pkg/logger"
	"github.com/alireza-moradi/libfastbit/pkg/params"
	"github.com/alireza-moradi/libfastbit/pkg/types"
)

// Writer appends a staged chunk of columns to a partition directory.
// Params supplies default index hints; Flush receives invalidation
// notices for every rewritten file.
type Writer struct {
	Params params.Registry
	Flush  FileFlusher
	Log    *zap.Logger
}

func (w *Writer) init() {
	if w.Params == nil {
		w.Params = params.Global()
	}
	if w.Flush == nil {
		w.Flush = NopFlusher{}
	}
	if w.Log == nil {
		w.Log = logger.Get()
	}
}

// compatible reports whether a staged type may append onto an existing
// column of type old. Within each signed/unsigned pair of equal width
// either member is acceptable; otherwise the types must match.
func compatible(old, staged types.Type) bool {
	if old == staged {
		return true
	}
	pair := func(a, b types.Type) bool {
		return (old == a || old == b) && (staged == a || staged == b)
	}
	return pair(types.Byte, types.UByte) ||
		pair(types.Short, types.UShort) ||
		pair(types.Int, types.UInt) ||
		pair(types.Long, types.ULong)
}

// tableName derives a partition name from the directory path, falling
// back to a base-36 checksum of the description forced to open with a
// letter.
func tableName(dir, desc string) string {
	trimmed := strings.TrimRight(dir, "/"+string(filepath.Separator))
	if base := filepath.Base(trimmed); base != "" && base != "." &&
		base != "/" && base != string(filepath.Separator) {
		return base
	}
	sum := crc32.ChecksumIEEE([]byte(desc))
	name := strconv.FormatUint(uint64(sum), 36)
	if name[0] < 'a' || name[0] > 'z' {
		name = string(rune('a'+(name[0]%26))) + name[1:]
	}
	return name
}

// columnIndexSpec resolves the index line for one column: the explicit
// spec, "none" for TEXT, then the per-column registry default.
func (w *Writer) columnIndexSpec(tname string, c *column.Column) string {
	if c.IndexSpec != "" {
		return c.IndexSpec
	}
	if c.Type == types.Text {
		return "none"
	}
	return w.Params.Lookup("ibis." + tname + "." + c.Name + ".index")
}

// writeHeader emits the comment line and the BEGIN/END HEADER block.
func writeHeader(md io.Writer, tname, tdesc, idx string, nrows uint64, ncols int, now time.Time, by string) {
	stamp := now.Format(time.ANSIC)
	fmt.Fprintf(md, "# meta data for data partition %s written by %s on %s\n\n", tname, by, stamp)
	fmt.Fprintf(md, "BEGIN HEADER\nName = %s\nDescription = %s\nNumber_of_rows = %d\nNumber_of_columns = %d\nTimestamp = %d",
		tname, tdesc, nrows, ncols, now.Unix())
	if idx != "" {
		fmt.Fprintf(md, "\nindex = %s", idx)
	}
	fmt.Fprint(md, "\nEND HEADER\n")
}

// writeColumnBlock emits one Begin Column/End Column block.
func (w *Writer) writeColumnBlock(md io.Writer, tname string, c *column.Column) {
	fmt.Fprintf(md, "\nBegin Column\nname = %s\ndata_type = %s", c.Name, c.Type)
	if c.Desc != "" {
		fmt.Fprintf(md, "\ndescription = %s", c.Desc)
	}
	if idx := w.columnIndexSpec(tname, c); idx != "" {
		fmt.Fprintf(md, "\nindex = %s", idx)
	}
	fmt.Fprint(md, "\nEnd Column\n")
}

// WriteMetaData writes the -part.txt file when none exists yet. It
// returns the column count on success, 0 when a metadata file is
// already present (or there are no columns), -1 without a directory and
// -3 when the file cannot be created.
func (w *Writer) WriteMetaData(dir, tname, tdesc, idx string, cols []*column.Column) int {
	w.init()
	if len(cols) == 0 {
		return 0
	}
	if dir == "" {
		w.Log.Warn("writeMetaData needs a valid output directory name")
		return -1
	}
	mdPath := filepath.Join(dir, MetaFileName)
	if fi, err := os.Stat(mdPath); err == nil && fi.Size() > 0 {
		w.Log.Debug("writeMetaData detected an existing metadata file", zap.String("dir", dir))
		return 0
	}

	now := time.Now()
	if tdesc == "" {
		tdesc = fmt.Sprintf("Metadata written with tablex.WriteMetaData on %s with %d column%s",
			now.Format(time.ANSIC), len(cols), plural(len(cols)))
	}
	if tname == "" {
		tname = tableName(dir, tdesc)
	}
	if idx == "" {
		idx = w.Params.Lookup("ibis." + tname + ".index")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		w.Log.Error("writeMetaData failed to create the output directory",
			zap.String("dir", dir), zap.Error(err))
		return -3
	}
	f, err := os.Create(mdPath)
	if err != nil {
		w.Log.Error("writeMetaData failed to open the metadata file",
			zap.String("dir", dir), zap.Error(err))
		return -3
	}
	md := bufio.NewWriter(f)
	writeHeader(md, tname, tdesc, idx, 0, len(cols), now, "tablex.WriteMetaData")
	for _, c := range cols {
		w.writeColumnBlock(md, tname, c)
	}
	if err := md.Flush(); err == nil {
		err = f.Close()
	} else {
		f.Close()
	}
	if err != nil {
		w.Log.Error("writeMetaData failed to finish the metadata file",
			zap.String("dir", dir), zap.Error(err))
		return -3
	}
	w.Flush.FlushDir(dir)
	w.Log.Info("writeMetaData completed",
		zap.String("partition", tname), zap.String("dir", dir), zap.Int("columns", len(cols)))
	return len(cols)
}

// Write appends the staged columns to the partition in dir, creating it
// if needed. The staged types are reconciled against any existing
// partition, every column data file grows by mrows elements (existing
// files shorter than the prior row count are sentinel-padded first),
// the mask sidecars are merged and the metadata file is rewritten.
// Returns 0 on success, -1 without a directory, -2 on a type conflict,
// -3 when the metadata file cannot be written, -4 when a column file
// cannot be opened and -5 on a short write.
func (w *Writer) Write(dir, tname, tdesc, idx string, cols []*column.Column, mrows uint32) int {
	w.init()
	if len(cols) == 0 || mrows == 0 {
		return 0
	}
	if dir == "" {
		w.Log.Warn("write needs a valid output directory name")
		return -1
	}

	var nold uint32
	old, err := Open(dir)
	if err != nil {
		w.Log.Warn("write could not read the existing partition metadata",
			zap.String("dir", dir), zap.Error(err))
		old = &Part{}
	}
	if old.NRows > 0 && len(old.Columns) > 0 {
		if tname == "" {
			tname = old.Name
		}
		if tdesc == "" {
			tdesc = old.Desc
		}
		if idx == "" {
			idx = old.IndexSpec
		}
		conflicts := 0
		for _, c := range cols {
			prev := old.Column(c.Name)
			if prev != nil && !compatible(prev.Type, c.Type) {
				conflicts++
				w.Log.Error("write: column has conflicting types",
					zap.String("column", c.Name),
					zap.Stringer("previous", prev.Type), zap.Stringer("current", c.Type))
			}
		}
		if conflicts > 0 {
			return -2
		}
		nold = uint32(old.NRows)
		w.Log.Debug("write found an existing data partition",
			zap.String("partition", old.Name), zap.Uint64("rows", old.NRows),
			zap.Uint32("appending", mrows))
	}

	now := time.Now()
	if tdesc == "" {
		tdesc = fmt.Sprintf("Data partition constructed with the tablex interface on %s with %d column%s and %d row%s",
			now.Format(time.ANSIC), len(cols), plural(len(cols)),
			nold+mrows, plural(int(nold+mrows)))
	}
	if tname == "" {
		tname = tableName(dir, tdesc)
	}
	if idx == "" {
		idx = w.Params.Lookup("ibis." + tname + ".index")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		w.Log.Error("write failed to create the output directory",
			zap.String("dir", dir), zap.Error(err))
		return -3
	}
	mdPath := filepath.Join(dir, MetaFileName)
	mdFile, err := os.Create(mdPath)
	if err != nil {
		w.Log.Error("write failed to open the metadata file", zap.String("dir", dir), zap.Error(err))
		return -3
	}
	defer mdFile.Close()
	md := bufio.NewWriter(mdFile)
	writeHeader(md, tname, tdesc, idx, uint64(nold)+uint64(mrows), len(cols), now, "tablex.Write")

	for _, c := range cols {
		if ierr := w.writeColumn(dir, c, nold, mrows); ierr < 0 {
			w.Log.Error("write failed to write column",
				zap.String("column", c.Name), zap.Stringer("type", c.Type), zap.Int("code", ierr))
			return ierr
		}
		w.writeColumnBlock(md, tname, c)
	}

	if err := md.Flush(); err != nil {
		w.Log.Error("write failed to finish the metadata file", zap.String("dir", dir), zap.Error(err))
		return -3
	}
	w.Flush.FlushDir(dir)
	w.Log.Info("write completed",
		zap.String("partition", tname), zap.String("dir", dir),
		zap.Int("columns", len(cols)), zap.Uint32("rows", mrows),
		zap.Uint64("total", uint64(nold)+uint64(mrows)))
	return 0
}

// writeColumn appends one column's staged values and reconciles its
// mask sidecar. Returns 0, -3 on a seek failure, -4 when the data file
// cannot be opened and -5 on a short write.
func (w *Writer) writeColumn(dir string, c *column.Column, nold, mrows uint32) int {
	path := filepath.Join(dir, c.Name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		w.Log.Error("write failed to open the column data file",
			zap.String("file", path), zap.Error(err))
		return -4
	}
	defer f.Close()
	w.Log.Debug("write opened column data file", zap.String("file", path))

	mskPath := path + ".msk"
	totmask, err := bitmap.ReadFile(mskPath)
	if err != nil {
		w.Log.Warn("write could not read the mask sidecar, assuming all valid",
			zap.String("file", mskPath), zap.Error(err))
		totmask = bitmap.New()
	}

	pos, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return -3
	}
	var ierr int
	if elem := int64(c.Type.ElemSize()); elem > 0 {
		ierr = w.writeFixed(f, c, pos, elem, nold, mrows, totmask)
	} else {
		ierr = w.writeStrings(f, c, nold, mrows, totmask)
	}
	if ierr < 0 {
		return ierr
	}
	if err := f.Close(); err != nil {
		w.Log.Error("write failed to close the column data file",
			zap.String("file", path), zap.Error(err))
		return -5
	}

	totmask.AdjustSize(totmask.Size(), nold+mrows)
	if totmask.Cardinality() == totmask.Size() {
		os.Remove(mskPath)
	} else if err := totmask.WriteFile(mskPath); err != nil {
		w.Log.Error("write failed to write the mask sidecar",
			zap.String("file", mskPath), zap.Error(err))
		return -5
	}
	w.Flush.FlushFile(path)
	w.Flush.FlushFile(mskPath)
	return 0
}

// writeFixed handles the fixed-stride types: sentinel-pad or rewind the
// file to exactly nold elements, then append mrows elements.
func (w *Writer) writeFixed(f *os.File, c *column.Column, pos, elem int64, nold, mrows uint32, totmask *bitmap.Bitmap) int {
	want := int64(nold) * elem
	switch {
	case pos < want:
		n1 := uint32(pos / elem)
		totmask.AdjustSize(n1, nold)
		pad := column.NewBuffer(c.Type)
		if _, err := pad.WriteTo(f, int(nold-n1)); err != nil {
			return -5
		}
	case pos > want:
		if _, err := f.Seek(want, io.SeekStart); err != nil {
			return -3
		}
		totmask.AdjustSize(nold, nold)
	default:
		totmask.AdjustSize(nold, nold)
	}

	bw := bufio.NewWriter(f)
	n, err := c.Data.WriteTo(bw, int(mrows))
	if err == nil {
		err = bw.Flush()
	}
	totmask.Append(c.Mask)
	if err != nil || n != int64(mrows)*elem {
		return -5
	}
	return 0
}

// writeStrings handles TEXT and CATEGORY: rows are appended at the end
// of the file as NUL-terminated runs, missing rows as single NUL bytes.
func (w *Writer) writeStrings(f *os.File, c *column.Column, nold, mrows uint32, totmask *bitmap.Bitmap) int {
	totmask.AdjustSize(nold, nold)
	bw := bufio.NewWriter(f)
	_, err := c.Data.WriteTo(bw, int(mrows))
	if err == nil {
		err = bw.Flush()
	}
	totmask.Append(c.Mask)
	if err != nil {
		return -5
	}
	return 0
}

func plural[T int | uint32](n T) string {
	if n == 1 {
		return ""
	}
	return "s"
}
