package propfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse_Basic(t *testing.T) {
	data := []byte("greeting=Hello\nfarewell=Goodbye\n")
	f, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := f.Get("greeting"); got != "Hello" {
		t.Errorf("greeting = %q, want %q", got, "Hello")
	}
	if got, _ := f.Get("farewell"); got != "Goodbye" {
		t.Errorf("farewell = %q, want %q", got, "Goodbye")
	}
}

func TestParse_CommentsAndBlanks(t *testing.T) {
	data := []byte("# This is a comment\n\n! another\nkey=value\n")
	f, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Keys()) != 1 {
		t.Errorf("expected 1 key, got %d", len(f.Keys()))
	}
	if got, _ := f.Get("key"); got != "value" {
		t.Errorf("key = %q, want %q", got, "value")
	}
}

func TestParse_ColonSeparator(t *testing.T) {
	f, err := Parse([]byte("name: World\n"))
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := f.Get("name"); got != "World" {
		t.Errorf("name = %q, want %q", got, "World")
	}
}

func TestParse_ValueWithEquals(t *testing.T) {
	f, err := Parse([]byte("url=http://example.com?a=1&b=2\n"))
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := f.Get("url"); got != "http://example.com?a=1&b=2" {
		t.Errorf("url = %q", got)
	}
}

func TestParse_LastOccurrenceWins(t *testing.T) {
	f, err := Parse([]byte("a=1\nb=2\na=3\n"))
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := f.Get("a"); got != "3" {
		t.Errorf("a = %q, want 3", got)
	}
	keys := f.Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("keys = %v, want [a b]", keys)
	}
	if n, dups := f.Stats(); n != 2 || dups != 1 {
		t.Errorf("Stats() = %d, %d, want 2, 1", n, dups)
	}
}

func TestPath(t *testing.T) {
	if got := Path("out", "bundle", "en"); got != filepath.Join("out", "bundle_en.properties") {
		t.Errorf("Path with suffix = %q", got)
	}
	if got := Path("out", "bundle", ""); got != filepath.Join("out", "bundle.properties") {
		t.Errorf("Path without suffix = %q", got)
	}
}

func TestAppend_CreatesAndAppends(t *testing.T) {
	dir := t.TempDir()

	path, err := Append(dir, "bundle", "en", "greeting", "Hello")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if path != filepath.Join(dir, "bundle_en.properties") {
		t.Fatalf("path = %q", path)
	}
	if _, err := Append(dir, "bundle", "en", "greeting", "Hello"); err != nil {
		t.Fatalf("second Append: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "greeting=Hello\ngreeting=Hello\n" {
		t.Fatalf("content = %q", data)
	}
}

func TestAppend_KeepsExistingContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bundle.properties")
	if err := os.WriteFile(path, []byte("# header\nold=value\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Append(dir, "bundle", "", "greeting", "你好"); err != nil {
		t.Fatalf("Append: %v", err)
	}

	f, err := ParseFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := f.Get("old"); got != "value" {
		t.Errorf("old = %q", got)
	}
	if got, _ := f.Get("greeting"); got != "你好" {
		t.Errorf("greeting = %q", got)
	}
}

func TestAppend_MissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")
	path, err := Append(dir, "bundle", "ja", "k", "v")
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error %q does not name %q", err, path)
	}
}

func TestAppend_MultilineValueStaysOnOneLine(t *testing.T) {
	dir := t.TempDir()
	path, err := Append(dir, "bundle", "en", "msg", "line one\nline two \\ end")
	if err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if strings.Count(string(data), "\n") != 1 {
		t.Fatalf("entry spans several lines: %q", data)
	}

	f, err := ParseFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := f.Get("msg"); got != "line one\nline two \\ end" {
		t.Errorf("msg = %q", got)
	}
}
