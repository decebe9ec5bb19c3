package langcode

import (
	"errors"
	"testing"
)

func TestParseWireCodes(t *testing.T) {
	cases := []struct {
		in   string
		wire string
	}{
		{in: "auto", wire: "auto"},
		{in: "zh", wire: "zh"},
		{in: "ja", wire: "jp"},
		{in: "ko", wire: "kor"},
		{in: "hk", wire: "cht"},
		{in: "vie", wire: "vie"},
	}

	for _, tc := range cases {
		c, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", tc.in, err)
		}
		if c.String() != tc.in {
			t.Fatalf("Parse(%q).String() = %q", tc.in, c.String())
		}
		if c.Wire() != tc.wire {
			t.Fatalf("Parse(%q).Wire() = %q, want %q", tc.in, c.Wire(), tc.wire)
		}
	}
}

func TestParseUnknown(t *testing.T) {
	for _, in := range []string{"", "JA", "jp", "klingon", " en"} {
		_, err := Parse(in)
		if err == nil {
			t.Fatalf("Parse(%q) expected error", in)
		}
		if !errors.Is(err, ErrUnknown) {
			t.Fatalf("Parse(%q) error %v is not ErrUnknown", in, err)
		}
		var ue *UnknownError
		if !errors.As(err, &ue) || ue.Value != in {
			t.Fatalf("Parse(%q) error does not name the value: %v", in, err)
		}
	}
}

func TestParseTargets(t *testing.T) {
	codes, err := ParseTargets([]string{"en", "hk", "ja"})
	if err != nil {
		t.Fatalf("ParseTargets error: %v", err)
	}
	got := make([]string, len(codes))
	for i, c := range codes {
		got[i] = c.String()
	}
	if got[0] != "en" || got[1] != "hk" || got[2] != "ja" {
		t.Fatalf("ParseTargets order = %v", got)
	}

	if _, err := ParseTargets([]string{"en", "xx"}); !errors.Is(err, ErrUnknown) {
		t.Fatalf("ParseTargets with unknown code: err = %v", err)
	}
	if _, err := ParseTargets([]string{"auto"}); err == nil {
		t.Fatal("auto accepted as a target")
	}
	if codes, err := ParseTargets(nil); err != nil || len(codes) != 0 {
		t.Fatalf("ParseTargets(nil) = %v, %v", codes, err)
	}
}

func TestAllIsClosedSet(t *testing.T) {
	all := All()
	if len(all) != 29 {
		t.Fatalf("len(All()) = %d, want 29", len(all))
	}
	seen := make(map[string]bool)
	for _, c := range all {
		if seen[c.String()] {
			t.Fatalf("duplicate code %q", c)
		}
		seen[c.String()] = true
		if got, err := Parse(c.String()); err != nil || got != c {
			t.Fatalf("round trip of %q failed: %v", c, err)
		}
	}
}

func TestNames(t *testing.T) {
	de, _ := Parse("de")
	if got := de.NativeName(); got != "Deutsch" {
		t.Fatalf("de.NativeName() = %q", got)
	}
	ja, _ := Parse("ja")
	if got := ja.NativeName(); got != "日本語" {
		t.Fatalf("ja.NativeName() = %q", got)
	}
	if got := ja.EnglishName(); got != "Japanese" {
		t.Fatalf("ja.EnglishName() = %q", got)
	}
	if got := Auto.NativeName(); got != "Auto-detect" {
		t.Fatalf("Auto.NativeName() = %q", got)
	}
	for _, c := range All() {
		if c.NativeName() == "" {
			t.Fatalf("%q has no display name", c)
		}
	}
}
