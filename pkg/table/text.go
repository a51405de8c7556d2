package table

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// defaultDelimiters is used when a caller passes no delimiter set.
const defaultDelimiters = ","

// csvProgressInterval controls how often ReadCSV logs progress.
const csvProgressInterval = 1000000

// nextToken extracts the next field from s. Leading whitespace is
// skipped; a field opening with a single or double quote runs to the
// matching quote, otherwise it runs to the first delimiter and is
// trimmed of trailing whitespace. The returned rest begins at the
// character after the field (the delimiter is not consumed).
func nextToken(s, del string) (tok, rest string) {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	if i < len(s) && (s[i] == '"' || s[i] == '\'') {
		q := s[i]
		j := i + 1
		for j < len(s) && s[j] != q {
			j++
		}
		if j < len(s) {
			return s[i+1 : j], s[j+1:]
		}
		return s[i+1:], ""
	}
	j := i
	for j < len(s) && !strings.ContainsRune(del, rune(s[j])) {
		j++
	}
	return strings.TrimRight(s[i:j], " \t"), s[j:]
}

// skipDelimiter consumes trailing whitespace and at most one delimiter
// character.
func skipDelimiter(s, del string) string {
	s = strings.TrimLeft(s, " \t")
	if s != "" && strings.ContainsRune(del, rune(s[0])) {
		s = s[1:]
	}
	return s
}

// parseLine walks the columns in declaration order, coercing one field
// per column. A field that fails to parse, overflows the column width
// or is an empty string skips that column; its buffer and mask stay
// untouched and the next normalize pads the hole. Returns the number of
// values pushed.
func (t *Table) parseLine(line, del, id string) int {
	cnt := 0
	for i, c := range t.order {
		tok, rest := nextToken(line, del)
		switch {
		case c.Type.IsInteger():
			v, err := strconv.ParseInt(tok, 10, 64)
			if err != nil {
				t.log.Debug("parseLine: field does not parse as an integer",
					zap.Int("column", i+1), zap.String("row", id))
			} else if !c.Data.PushInt(v) {
				t.log.Debug("parseLine: value does not fit the column width",
					zap.Int("column", i+1), zap.String("row", id), zap.Int64("value", v))
			} else {
				c.Mask.Add1()
				cnt++
			}
		case c.Type.IsString():
			if c.Data.PushString(tok) {
				c.Mask.Add1()
				cnt++
			}
		default: // FLOAT, DOUBLE; NaN parses and is kept literally
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				t.log.Debug("parseLine: field does not parse as a floating-point number",
					zap.Int("column", i+1), zap.String("row", id))
			} else if c.Data.PushFloat(v) {
				c.Mask.Add1()
				cnt++
			}
		}
		line = skipDelimiter(rest, del)
		if line == "" {
			break
		}
	}
	return cnt
}

// linePreview builds the opaque row identifier used in parse warnings.
func linePreview(line string) string {
	p := line
	if len(p) > 10 {
		p = p[:10]
	}
	return "string " + p + " ..."
}

// AppendLine parses one delimited text line into the columns. Blank
// lines and lines opening with # or -- are no-ops returning 0. The
// table is normalized before parsing and the row count advances
// according to the RowCountPolicy. Returns the number of values
// pushed.
func (t *Table) AppendLine(line, del string) int {
	line = strings.TrimSpace(line)
	if line == "" {
		return 0
	}
	if line[0] == '#' || strings.HasPrefix(line, "--") {
		return 0
	}
	if del == "" {
		del = defaultDelimiters
	}
	t.Normalize()
	cnt := t.parseLine(line, del, linePreview(line))
	if t.countsAsRow(cnt) {
		t.mrows++
	}
	return cnt
}

// ReadCSV imports a delimited text file. Blank and comment lines are
// skipped; each remaining line goes through parseLine, with a normalize
// whenever the previous line was partial, and the row count advances
// for every line that pushed at least one value. When maxRows > 1 the
// column buffers are reserved up front. Returns 0 on success, -1 for an
// empty path, -2 when no columns are declared, -3 when the file cannot
// be opened and -4 when the reservation fails.
func (t *Table) ReadCSV(path string, maxRows int, del string) int {
	if path == "" {
		t.log.Warn("readCSV needs a filename to proceed")
		return -1
	}
	if len(t.order) == 0 {
		t.log.Warn("readCSV can not proceed without declared columns", zap.String("file", path))
		return -2
	}
	if del == "" {
		del = defaultDelimiters
	}
	f, err := os.Open(path)
	if err != nil {
		t.log.Error("readCSV failed to open the named file", zap.String("file", path), zap.Error(err))
		return -3
	}
	defer f.Close()
	if maxRows > 1 {
		if t.ReserveSpace(uint32(maxRows)) < 0 {
			t.log.Error("readCSV failed to reserve space",
				zap.String("file", path), zap.Int("maxRows", maxRows))
			return -4
		}
	}

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	ncols := len(t.order)
	cnt := 0
	iline := 0
	for sc.Scan() {
		iline++
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' || strings.HasPrefix(line, "--") {
			continue
		}
		if cnt != ncols {
			t.Normalize()
		}
		cnt = t.parseLine(line, del, "row "+strconv.Itoa(iline))
		if cnt > 0 {
			t.mrows++
		}
		if iline%csvProgressInterval == 0 {
			t.log.Debug("readCSV progress", zap.String("file", path), zap.Int("line", iline))
		}
	}
	if err := sc.Err(); err != nil {
		t.log.Warn("readCSV stopped before end of file", zap.String("file", path), zap.Error(err))
	}
	t.log.Info("readCSV completed",
		zap.String("file", path), zap.Int("lines", iline), zap.Uint32("rows", t.mrows))
	return 0
}
