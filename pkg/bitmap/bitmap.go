// Package bitmap provides the presence bitmap used to track which rows
// of a staged column carry valid values. It wraps a Roaring bitmap with
// an explicit logical bit length so that an ordered, sized bit vector
// can be built by appending runs of bits.
package bitmap

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"os"

	"github.com/RoaringBitmap/roaring/v2"
)

// Bitmap is an ordered sequence of bits of a known logical length.
// Position i corresponds to row i of the owning column.
type Bitmap struct {
	bits *roaring.Bitmap
	n    uint32
}

// New returns an empty bitmap of length zero.
func New() *Bitmap {
	return &Bitmap{bits: roaring.New()}
}

// Size returns the logical bit length.
func (b *Bitmap) Size() uint32 { return b.n }

// Cardinality returns the number of set bits.
func (b *Bitmap) Cardinality() uint32 { return uint32(b.bits.GetCardinality()) }

// Get reports whether bit i is set. Positions at or beyond Size are
// zero.
func (b *Bitmap) Get(i uint32) bool { return b.bits.Contains(i) }

// AppendFill appends count copies of the given bit.
func (b *Bitmap) AppendFill(bit bool, count uint32) {
	if bit && count > 0 {
		b.bits.AddRange(uint64(b.n), uint64(b.n)+uint64(count))
	}
	b.n += count
}

// Add1 appends a single set bit.
func (b *Bitmap) Add1() {
	b.bits.Add(b.n)
	b.n++
}

// AdjustSize resizes the bitmap to total bits: bits are padded with
// ones up to populated, with zeros up to total, and truncated when the
// current length exceeds total. An absent mask sidecar read back as an
// empty bitmap therefore becomes all-valid once adjusted to the row
// count of its column file.
func (b *Bitmap) AdjustSize(populated, total uint32) {
	if b.n < populated {
		b.bits.AddRange(uint64(b.n), uint64(populated))
		b.n = populated
	}
	if b.n > total {
		b.bits.RemoveRange(uint64(total), uint64(b.n))
	}
	b.n = total
}

// Or unions another bitmap into this one. The logical length becomes
// the larger of the two.
func (b *Bitmap) Or(other *Bitmap) {
	b.bits.Or(other.bits)
	if other.n > b.n {
		b.n = other.n
	}
}

// Append concatenates other's bits after this bitmap's current length.
func (b *Bitmap) Append(other *Bitmap) {
	it := other.bits.Iterator()
	for it.HasNext() {
		b.bits.Add(b.n + it.Next())
	}
	b.n += other.n
}

// Clear resets the bitmap to length zero.
func (b *Bitmap) Clear() {
	b.bits.Clear()
	b.n = 0
}

// Clone returns a deep copy.
func (b *Bitmap) Clone() *Bitmap {
	return &Bitmap{bits: b.bits.Clone(), n: b.n}
}

// WriteTo serializes the bitmap: a 4-byte little-endian logical length
// followed by the roaring stream.
func (b *Bitmap) WriteTo(w io.Writer) (int64, error) {
	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], b.n)
	if _, err := w.Write(hdr[:]); err != nil {
		return 0, err
	}
	n, err := b.bits.WriteTo(w)
	return n + 4, err
}

// ReadFrom replaces the bitmap content with a previously serialized
// stream.
func (b *Bitmap) ReadFrom(r io.Reader) (int64, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, err
	}
	b.bits = roaring.New()
	n, err := b.bits.ReadFrom(r)
	if err != nil {
		return n + 4, err
	}
	b.n = binary.LittleEndian.Uint32(hdr[:])
	return n + 4, nil
}

// WriteFile serializes the bitmap to the named file, replacing any
// previous content.
func (b *Bitmap) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if _, err := b.WriteTo(w); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile loads a bitmap from the named file. A missing file yields an
// empty bitmap and no error, matching the convention that an absent
// mask sidecar means every row is valid.
func ReadFile(path string) (*Bitmap, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(), nil
		}
		return nil, err
	}
	defer f.Close()
	b := New()
	if _, err := b.ReadFrom(bufio.NewReader(f)); err != nil {
		return nil, err
	}
	return b, nil
}
