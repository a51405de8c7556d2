package table

import (
	"bufio"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/alireza-moradi/libfastbit/pkg/types"
)

func isNameStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isNameByte(b byte) bool {
	return isNameStart(b) || (b >= '0' && b <= '9')
}

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isCommentAt(s string, i int) bool {
	return s[i] == '#' || (s[i] == '-' && i+1 < len(s) && s[i+1] == '-')
}

// ParseNamesAndTypes extracts "name:type" pairs from a line of text and
// declares a column for each. A name starts with a letter or an
// underscore and runs over alphanumerics and underscores; a type is one
// or two alphabetic words, where a leading "unsigned" or "signed"
// pulls in a second word and "signed" is dropped. Arbitrary
// punctuation may separate the pairs. Text after # or -- is a comment.
// The type of a name is the next alphabetic word after it, whatever
// punctuation lies between them, so a name followed directly by another
// name takes that name as its type word; only a name with no word after
// it on the line defaults to INT. Returns the number of pairs
// declared, or -1 for an empty input.
func (t *Table) ParseNamesAndTypes(txt string) int {
	if txt == "" {
		t.log.Debug("parseNamesAndTypes received an empty string")
		return -1
	}
	ret := 0
	i := 0
	for i < len(txt) {
		// find the start of a name, stopping at a comment
		for i < len(txt) {
			if isCommentAt(txt, i) {
				return ret
			}
			if isNameStart(txt[i]) {
				break
			}
			i++
		}
		j := i
		for j < len(txt) && isNameByte(txt[j]) {
			j++
		}
		name := txt[i:j]
		i = j
		if name == "" {
			return ret
		}

		// find the type word; a comment here discards the rest of the
		// line and leaves the type empty
		for i < len(txt) {
			if isCommentAt(txt, i) {
				i = len(txt)
				break
			}
			if isAlpha(txt[i]) {
				break
			}
			i++
		}
		j = i
		for j < len(txt) && isAlpha(txt[j]) {
			j++
		}
		first := txt[i:j]
		i = j
		var second string
		if lw := strings.ToLower(first); lw == "unsigned" || lw == "signed" {
			for i < len(txt) && (txt[i] == ' ' || txt[i] == '\t') {
				i++
			}
			j = i
			for j < len(txt) && isAlpha(txt[j]) {
				j++
			}
			second = txt[i:j]
			i = j
		}

		ct := types.ParseWord(first, second)
		t.log.Debug("parseNamesAndTypes processing pair",
			zap.String("name", name), zap.String("type", first+" "+second))
		t.AddColumn(name, ct, "", "")
		ret++
	}
	return ret
}

// ReadNamesAndTypes reads a schema-declaration file line by line and
// feeds each line through ParseNamesAndTypes. Returns the total number
// of declared pairs, -1 for an empty path and -3 when the file cannot
// be opened.
func (t *Table) ReadNamesAndTypes(path string) int {
	if path == "" {
		t.log.Warn("readNamesAndTypes needs a filename to proceed")
		return -1
	}
	f, err := os.Open(path)
	if err != nil {
		t.log.Error("readNamesAndTypes failed to open the named file",
			zap.String("file", path), zap.Error(err))
		return -3
	}
	defer f.Close()

	ret := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	for sc.Scan() {
		if n := t.ParseNamesAndTypes(sc.Text()); n > 0 {
			ret += n
		}
	}
	t.log.Debug("readNamesAndTypes parsed pairs", zap.String("file", path), zap.Int("pairs", ret))
	return ret
}
