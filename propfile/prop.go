// Package propfile reads and appends Java .properties resource bundles.
//
// ddtr never rewrites a bundle: every translation is appended as a new
// key=value line (see Append). Reading follows the usual .properties
// convention that the last occurrence of a key wins, so a key that was
// translated twice resolves to the newer value.
//
// Bundle naming:
//
//	{dir}/{base}.properties           default-language bundle
//	{dir}/{base}_{suffix}.properties  one per target language
//
// Lines starting with '#' or '!' are comments. Multi-line values
// (backslash continuation) are not supported.
package propfile

import (
	"fmt"
	"os"
	"strings"
)

// ---------------------------------------------------------------------------
// File model
// ---------------------------------------------------------------------------

// lineKind classifies each line in the file.
type lineKind int

const (
	lineBlank   lineKind = iota // blank / whitespace-only line
	lineComment                 // comment line (starts with # or !)
	lineEntry                   // key=value pair
)

type line struct {
	kind  lineKind
	raw   string
	key   string
	value string
}

// File is a parsed bundle. Keys keep the position of their first
// occurrence and the value of their last.
type File struct {
	lines []line
	index map[string]int
	// dups counts entries that repeated an earlier key.
	dups int
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// ParseFile reads and parses a .properties file from disk.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses .properties content from a byte slice.
func Parse(data []byte) (*File, error) {
	f := &File{index: make(map[string]int)}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	rawLines := strings.Split(text, "\n")
	if len(rawLines) > 0 && rawLines[len(rawLines)-1] == "" {
		rawLines = rawLines[:len(rawLines)-1]
	}

	for _, raw := range rawLines {
		trimmed := strings.TrimSpace(raw)

		switch {
		case trimmed == "":
			f.lines = append(f.lines, line{kind: lineBlank, raw: raw})

		case strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "!"):
			f.lines = append(f.lines, line{kind: lineComment, raw: raw})

		default:
			k, v := splitKeyValue(trimmed)
			if k == "" {
				// Malformed line, kept as a comment.
				f.lines = append(f.lines, line{kind: lineComment, raw: raw})
				continue
			}
			v = unescape(v)
			if idx, exists := f.index[k]; exists {
				f.lines[idx].value = v
				f.dups++
				continue
			}
			f.index[k] = len(f.lines)
			f.lines = append(f.lines, line{kind: lineEntry, key: k, value: v})
		}
	}

	return f, nil
}

// splitKeyValue splits "key = value" or "key=value" into key and value.
// The separator may be '=' or ':'. Surrounding whitespace is stripped.
func splitKeyValue(s string) (key, value string) {
	for i, ch := range s {
		if ch == '=' || ch == ':' {
			return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:])
		}
	}
	return strings.TrimSpace(s), ""
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Keys returns all keys in order of first appearance.
func (f *File) Keys() []string {
	keys := make([]string, 0, len(f.index))
	for _, ln := range f.lines {
		if ln.kind == lineEntry {
			keys = append(keys, ln.key)
		}
	}
	return keys
}

// Get returns the effective (last written) value for key.
func (f *File) Get(key string) (string, bool) {
	if idx, ok := f.index[key]; ok {
		return f.lines[idx].value, true
	}
	return "", false
}

// Stats returns the number of distinct keys and the number of entries that
// repeated an earlier key.
func (f *File) Stats() (keys, duplicates int) {
	return len(f.index), f.dups
}
