package propfile

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Ext is the bundle file extension.
const Ext = ".properties"

// Appender appends one entry to a bundle and returns the path it wrote to.
// The returned path is set even when err is non-nil.
type Appender interface {
	Append(dir, base, suffix, key, value string) (string, error)
}

// FileAppender is the Appender used outside of tests.
type FileAppender struct{}

// Append implements Appender.
func (FileAppender) Append(dir, base, suffix, key, value string) (string, error) {
	return Append(dir, base, suffix, key, value)
}

// Path resolves the bundle path. An empty suffix names the default bundle.
func Path(dir, base, suffix string) string {
	name := base
	if suffix != "" {
		name += "_" + suffix
	}
	return filepath.Join(dir, name+Ext)
}

// Append writes "key=value\n" to the end of the bundle, creating the file if
// needed. The file is opened, flushed and closed within the call. Writing
// the same key twice leaves two lines; Parse resolves to the last one.
func Append(dir, base, suffix, key, value string) (path string, err error) {
	path = Path(dir, base, suffix)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return path, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()

	w := bufio.NewWriter(f)
	if _, err := w.WriteString(FormatEntry(key, value)); err != nil {
		return path, fmt.Errorf("writing %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		return path, fmt.Errorf("flushing %s: %w", path, err)
	}
	return path, nil
}

// FormatEntry renders a single entry line including the trailing newline.
func FormatEntry(key, value string) string {
	return escape(key) + "=" + escape(value) + "\n"
}

var (
	escaper   = strings.NewReplacer(`\`, `\\`, "\n", `\n`, "\r", `\r`)
	unescaper = strings.NewReplacer(`\\`, `\`, `\n`, "\n", `\r`, "\r")
)

// escape keeps an entry on one line.
func escape(s string) string { return escaper.Replace(s) }

func unescape(s string) string { return unescaper.Replace(s) }
