// Package table implements the in-memory staging area for building a
// column-oriented data partition. A Table holds an ordered set of typed
// columns; values arrive row-by-row, as column chunks or as parsed text
// lines, and Write drains the staged content into a partition
// directory.
package table

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/alireza-moradi/libfastbit/pkg/bitmap"
	"github.com/alireza-moradi/libfastbit/pkg/column"
	"github.com/alireza-moradi/libfastbit/pkg/logger"
	"github.com/alireza-moradi/libfastbit/pkg/params"
	"github.com/alireza-moradi/libfastbit/pkg/partition"
	"github.com/alireza-moradi/libfastbit/pkg/types"
)

// maxReserve caps any single space reservation at 2^30 rows.
const maxReserve = 0x40000000

// RowCountPolicy decides when AppendRow and AppendLine advance the
// declared row count. AppendRows and ReadCSV do not consult it: they
// count every row or line that pushed at least one value.
type RowCountPolicy int

const (
	// CountComplete advances the row count only when the append supplied
	// at least as many values as the table has columns.
	CountComplete RowCountPolicy = iota
	// CountAny advances the row count whenever the append supplied any
	// value at all.
	CountAny
)

// Table is the staging area. Columns are reachable both by name and in
// declaration order. All methods require exclusive access; a Table is
// not safe for concurrent use.
type Table struct {
	cols   map[string]*column.Column
	order  []*column.Column
	mrows  uint32
	policy RowCountPolicy
	reg    params.Registry
	alloc  func(rows int) error
	log    *zap.Logger
}

// Option configures a Table.
type Option func(*Table)

// WithLogger overrides the default logger.
func WithLogger(l *zap.Logger) Option { return func(t *Table) { t.log = l } }

// WithRowCountPolicy selects when AppendRow and AppendLine advance the
// row count. The default, CountComplete, matches the historical behavior of
// counting only complete rows.
func WithRowCountPolicy(p RowCountPolicy) Option { return func(t *Table) { t.policy = p } }

// WithParams injects the key/value registry consulted for default index
// hints during Write.
func WithParams(r params.Registry) Option { return func(t *Table) { t.reg = r } }

// WithAllocProbe installs a hook invoked before each column reservation
// with the requested row count. A non-nil return makes the reservation
// attempt fail, which exercises the retry ladder of ReserveSpace.
func WithAllocProbe(f func(rows int) error) Option { return func(t *Table) { t.alloc = f } }

// New creates an empty staging table.
func New(opts ...Option) *Table {
	t := &Table{
		cols: make(map[string]*column.Column),
		reg:  params.Global(),
		log:  logger.Get(),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Rows returns the declared row count.
func (t *Table) Rows() uint32 { return t.mrows }

// NumColumns returns the number of declared columns.
func (t *Table) NumColumns() int { return len(t.order) }

// Column returns the named column, or nil.
func (t *Table) Column(name string) *column.Column { return t.cols[name] }

// Columns returns the columns in declaration order. The slice is shared
// with the table and must not be modified.
func (t *Table) Columns() []*column.Column { return t.order }

// AddColumn declares a column. When a column of that name already
// exists, a non-empty desc or indexSpec overwrites the stored ones and
// the return value reports whether the requested type matches: +1 same
// type, -1 different type. A fresh column returns 0; an empty name or
// unknown type returns -2.
func (t *Table) AddColumn(name string, ct types.Type, desc, indexSpec string) int {
	if name == "" || ct == types.Unknown {
		t.log.Warn("addColumn expects a valid name and type",
			zap.String("name", name), zap.Stringer("type", ct))
		return -2
	}
	if c, ok := t.cols[name]; ok {
		t.log.Debug("addColumn: name already in the data partition", zap.String("name", name))
		if desc != "" {
			c.Desc = desc
		}
		if indexSpec != "" {
			c.IndexSpec = indexSpec
		}
		if ct == c.Type {
			return 1
		}
		return -1
	}
	if desc == "" {
		desc = name
	}
	c := &column.Column{
		Name:      name,
		Desc:      desc,
		IndexSpec: indexSpec,
		Type:      ct,
		Data:      column.NewBuffer(ct),
		Mask:      bitmap.New(),
	}
	t.cols[name] = c
	t.order = append(t.order, c)
	return 0
}

// Append copies values into rows [begin, end) of the named column. The
// values argument must be a slice of the column's native element type
// with at least end-begin elements. Rows below begin that do not exist
// yet are filled with the null sentinel and left absent in the presence
// mask. Returns 0 on success, -1 on invalid arguments and -2 when the
// column does not exist.
func (t *Table) Append(name string, begin, end uint64, values any) int {
	be := uint32(begin)
	en := uint32(end)
	if uint64(be) != begin || uint64(en) != end || be >= en || name == "" || values == nil {
		t.log.Warn("append: invalid parameters",
			zap.String("column", name), zap.Uint64("begin", begin), zap.Uint64("end", end))
		return -1
	}
	c, ok := t.cols[name]
	if !ok {
		t.log.Warn("append: not a column of this data partition", zap.String("column", name))
		return -2
	}

	prior := uint32(c.Data.Len())
	inmsk := bitmap.New()
	inmsk.AppendFill(false, be)
	inmsk.AppendFill(true, en-be)
	if prior > en {
		inmsk.AppendFill(false, prior-en)
	}
	if !c.Data.SetRange(values, int(be), int(en)) {
		t.log.Warn("append: values do not match the column type",
			zap.String("column", name), zap.Stringer("type", c.Type))
		return -1
	}
	if prior < en {
		c.Mask.AdjustSize(0, en)
	}
	c.Mask.Or(inmsk)
	if en > t.mrows {
		t.mrows = en
	}
	return 0
}

// Normalize aligns every value buffer and presence mask to the declared
// row count, first raising the count to the longest buffer or mask,
// then sentinel-padding short buffers (their new mask bits stay zero)
// and truncating long ones. It is idempotent.
func (t *Table) Normalize() {
	if len(t.order) == 0 {
		return
	}
	mrows := t.mrows
	need2nd := false
	for _, c := range t.order {
		n := uint32(c.Data.Len())
		if n > mrows {
			mrows = n
			need2nd = true
		} else if n < mrows {
			need2nd = true
		}
		if c.Mask.Size() > mrows {
			t.log.Warn("normalize: mask longer than any value buffer",
				zap.String("column", c.Name),
				zap.Uint32("cardinality", c.Mask.Cardinality()),
				zap.Uint32("size", c.Mask.Size()))
			mrows = c.Mask.Size()
			need2nd = true
		} else if c.Mask.Size() < mrows {
			need2nd = true
		}
	}
	t.mrows = mrows
	if !need2nd {
		return
	}
	for _, c := range t.order {
		n := uint32(c.Data.Len())
		switch {
		case n < mrows:
			c.Mask.AdjustSize(n, mrows)
			c.Data.PadTo(int(mrows))
		case n > mrows:
			c.Mask.AdjustSize(mrows, mrows)
			c.Data.Truncate(int(mrows))
		default:
			c.Mask.AdjustSize(mrows, mrows)
		}
	}
}

// ClearData drops every staged value and mask but keeps the schema.
func (t *Table) ClearData() {
	t.mrows = 0
	for _, c := range t.order {
		c.Mask.Clear()
		c.Data.Clear()
	}
}

// Clear drops the schema and all staged content.
func (t *Table) Clear() {
	t.cols = make(map[string]*column.Column)
	t.order = nil
	t.mrows = 0
}

// ReserveSpace attempts to reserve buffer capacity for maxRows rows in
// every column, shrinking grossly over-provisioned buffers when the
// table is empty. On an allocation failure it retries with maxRows
// shifted down (>>1, >>2, >>2, >>2, five attempts in total) unless the
// table already held rows, in which case the staged content is declared
// lost, the row count resets to zero and -2 is returned. Exhausting the
// retries returns -1; otherwise the minimum capacity attained across
// all columns.
func (t *Table) ReserveSpace(maxRows uint32) int64 {
	if len(t.order) == 0 {
		return int64(maxRows)
	}
	if t.mrows >= maxRows {
		return int64(t.mrows)
	}
	if maxRows > maxReserve {
		maxRows = maxReserve
	}

	ret, err := t.doReserve(maxRows)
	if err == nil {
		return int64(ret)
	}
	if t.mrows > 0 {
		t.log.Error("reserveSpace failed with staged rows, existing content has been lost",
			zap.Uint32("maxRows", maxRows), zap.Uint32("mrows", t.mrows), zap.Error(err))
		t.mrows = 0
		return -2
	}
	for _, shift := range []uint{1, 2, 2, 2} {
		maxRows >>= shift
		if ret, err = t.doReserve(maxRows); err == nil {
			return int64(ret)
		}
	}
	t.log.Error("reserveSpace failed after 5 tries", zap.Uint32("maxRows", maxRows), zap.Error(err))
	return -1
}

// doReserve performs one reservation pass and reports the minimum
// capacity attained.
func (t *Table) doReserve(maxRows uint32) (uint32, error) {
	if t.mrows >= maxRows {
		return t.mrows, nil
	}
	ret := uint32(0x7FFFFFFF)
	for _, c := range t.order {
		if t.alloc != nil {
			if err := t.alloc(int(maxRows)); err != nil {
				return 0, err
			}
		}
		c.Mask.Clear()
		cur := uint32(c.Data.Cap())
		switch {
		case t.mrows == 0 && cur > (maxRows>>1)*3:
			c.Data.Renew(int(maxRows))
			ret = maxRows
		case cur < maxRows:
			c.Data.Reserve(int(maxRows))
			ret = maxRows
		case ret > cur:
			ret = cur
		}
	}
	t.log.Debug("doReserve completed", zap.Uint32("maxRows", maxRows), zap.Uint32("capacity", ret))
	return ret, nil
}

// Capacity returns the minimum buffer capacity across all columns, or
// zero when the table has no columns or any buffer is missing.
func (t *Table) Capacity() uint32 {
	if len(t.order) == 0 {
		return 0
	}
	minCap := uint32(0xFFFFFFFF)
	for _, c := range t.order {
		if c.Data == nil {
			c.Mask.Clear()
			return 0
		}
		n := uint32(c.Data.Cap())
		if n < minCap {
			minCap = n
		}
		if n == 0 {
			return 0
		}
	}
	return minCap
}

// Describe writes a human-readable summary of the staged content.
func (t *Table) Describe(w io.Writer) {
	fmt.Fprintf(w, "An extensible (in-memory) table with %d row%s and %d column%s",
		t.mrows, plural(uint64(t.mrows)), len(t.order), plural(uint64(len(t.order))))
	for _, c := range t.order {
		fmt.Fprintf(w, "\n  %s, %s, mask(%d out of %d)",
			c.Name, c.Type, c.Mask.Cardinality(), c.Mask.Size())
	}
	fmt.Fprintln(w)
}

func plural(n uint64) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// Write drains the staged chunk into the partition directory,
// reconciling with any partition already there. Return codes follow the
// partition writer: 0 success, -1 no directory, -2 type conflict, -3
// metadata failure, -4 column file not openable, -5 short write.
func (t *Table) Write(dir, tname, tdesc, idx string) int {
	w := &partition.Writer{Params: t.reg, Log: t.log}
	return w.Write(dir, tname, tdesc, idx, t.order, t.mrows)
}

// WriteMetaData writes only the -part.txt metadata file, skipping the
// write when one already exists. It returns the column count on
// success, 0 when skipped, -1 without a directory and -3 when the file
// cannot be created.
func (t *Table) WriteMetaData(dir, tname, tdesc, idx string) int {
	w := &partition.Writer{Params: t.reg, Log: t.log}
	return w.WriteMetaData(dir, tname, tdesc, idx, t.order)
}
