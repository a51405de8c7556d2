package column

import "io"

// stringBuffer backs the TEXT and CATEGORY types. Rows are written as
// NUL-terminated UTF-8 runs; a missing row is a single NUL byte.
type stringBuffer struct {
	vals []string
}

func (s *stringBuffer) Len() int { return len(s.vals) }
func (s *stringBuffer) Cap() int { return cap(s.vals) }

func (s *stringBuffer) Reserve(n int) {
	if cap(s.vals) < n {
		nv := make([]string, len(s.vals), n)
		copy(nv, s.vals)
		s.vals = nv
	}
}

func (s *stringBuffer) Renew(n int) { s.vals = make([]string, 0, n) }

func (s *stringBuffer) PadTo(n int) {
	for len(s.vals) < n {
		s.vals = append(s.vals, "")
	}
}

func (s *stringBuffer) Truncate(n int) {
	if len(s.vals) > n {
		s.vals = s.vals[:n]
	}
}

func (s *stringBuffer) Clear() { s.vals = s.vals[:0] }

func (s *stringBuffer) Push(v any) bool {
	t, ok := v.(string)
	if ok {
		s.vals = append(s.vals, t)
	}
	return ok
}

func (s *stringBuffer) PushInt(int64) bool     { return false }
func (s *stringBuffer) PushFloat(float64) bool { return false }

func (s *stringBuffer) PushString(v string) bool {
	if v == "" {
		return false
	}
	s.vals = append(s.vals, v)
	return true
}

func (s *stringBuffer) SetRange(values any, begin, end int) bool {
	in, ok := values.([]string)
	if !ok || len(in) < end-begin {
		return false
	}
	s.PadTo(begin)
	for len(s.vals) < end {
		s.vals = append(s.vals, "")
	}
	copy(s.vals[begin:end], in[:end-begin])
	return true
}

var nul = []byte{0}

func (s *stringBuffer) WriteTo(w io.Writer, n int) (int64, error) {
	var written int64
	k := len(s.vals)
	if k > n {
		k = n
	}
	for i := 0; i < k; i++ {
		m, err := io.WriteString(w, s.vals[i])
		written += int64(m)
		if err != nil {
			return written, err
		}
		m, err = w.Write(nul)
		written += int64(m)
		if err != nil {
			return written, err
		}
	}
	for i := k; i < n; i++ {
		m, err := w.Write(nul)
		written += int64(m)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

func (s *stringBuffer) Value(i int) any { return s.vals[i] }
