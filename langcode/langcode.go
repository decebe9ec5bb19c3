// Package langcode defines the closed set of language codes accepted by ddtr.
//
// Each code has three spellings:
//
//	config name  the string used in .ddtr.json, on the command line and in
//	             bundle file suffixes (pluginBundle_ja.properties)
//	wire code    the string the Baidu Fanyi API expects (jp, kor, cht, ...)
//	BCP 47 tag   used only for display names
//
// A string that is not in the table is a configuration error, never a
// skipped item.
package langcode

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// ErrUnknown is matched by every *UnknownError.
var ErrUnknown = errors.New("unknown language code")

// UnknownError names the offending string.
type UnknownError struct {
	Value string
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("unknown language code %q", e.Value)
}

// Is reports whether target is ErrUnknown.
func (e *UnknownError) Is(target error) bool {
	return target == ErrUnknown
}

// Code is a member of the supported language set. The zero Code is invalid.
type Code struct {
	name string
	wire string
	tag  string
	// label is the English name used when CLDR has no entry for tag.
	label string
}

// Auto asks the service to detect the source language.
var Auto = Code{name: "auto", wire: "auto", tag: "und", label: "Auto-detect"}

// table is ordered the way `ddtr langs` prints it.
var table = []Code{
	Auto,
	{name: "zh", wire: "zh", tag: "zh-Hans", label: "Chinese (Simplified)"},
	{name: "en", wire: "en", tag: "en", label: "English"},
	{name: "yue", wire: "yue", tag: "yue", label: "Cantonese"},
	{name: "wyw", wire: "wyw", tag: "lzh", label: "Classical Chinese"},
	{name: "ja", wire: "jp", tag: "ja", label: "Japanese"},
	{name: "ko", wire: "kor", tag: "ko", label: "Korean"},
	{name: "fra", wire: "fra", tag: "fr", label: "French"},
	{name: "spa", wire: "spa", tag: "es", label: "Spanish"},
	{name: "th", wire: "th", tag: "th", label: "Thai"},
	{name: "ara", wire: "ara", tag: "ar", label: "Arabic"},
	{name: "ru", wire: "ru", tag: "ru", label: "Russian"},
	{name: "pt", wire: "pt", tag: "pt", label: "Portuguese"},
	{name: "de", wire: "de", tag: "de", label: "German"},
	{name: "it", wire: "it", tag: "it", label: "Italian"},
	{name: "el", wire: "el", tag: "el", label: "Greek"},
	{name: "nl", wire: "nl", tag: "nl", label: "Dutch"},
	{name: "pl", wire: "pl", tag: "pl", label: "Polish"},
	{name: "bul", wire: "bul", tag: "bg", label: "Bulgarian"},
	{name: "est", wire: "est", tag: "et", label: "Estonian"},
	{name: "dan", wire: "dan", tag: "da", label: "Danish"},
	{name: "fin", wire: "fin", tag: "fi", label: "Finnish"},
	{name: "cs", wire: "cs", tag: "cs", label: "Czech"},
	{name: "rom", wire: "rom", tag: "ro", label: "Romanian"},
	{name: "slo", wire: "slo", tag: "sl", label: "Slovenian"},
	{name: "swe", wire: "swe", tag: "sv", label: "Swedish"},
	{name: "hu", wire: "hu", tag: "hu", label: "Hungarian"},
	{name: "hk", wire: "cht", tag: "zh-Hant", label: "Chinese (Traditional)"},
	{name: "vie", wire: "vie", tag: "vi", label: "Vietnamese"},
}

var byName = func() map[string]Code {
	m := make(map[string]Code, len(table))
	for _, c := range table {
		m[c.name] = c
	}
	return m
}()

// Parse looks s up by config name. The match is exact: "JA" is not "ja".
func Parse(s string) (Code, error) {
	if c, ok := byName[s]; ok {
		return c, nil
	}
	return Code{}, &UnknownError{Value: s}
}

// ParseTarget is Parse for translation targets, where Auto makes no sense.
func ParseTarget(s string) (Code, error) {
	c, err := Parse(s)
	if err != nil {
		return Code{}, err
	}
	if c == Auto {
		return Code{}, fmt.Errorf("%q can only be used as a source language", s)
	}
	return c, nil
}

// ParseTargets parses every element of list, preserving order. The first
// bad element aborts the whole list.
func ParseTargets(list []string) ([]Code, error) {
	codes := make([]Code, 0, len(list))
	for _, s := range list {
		c, err := ParseTarget(s)
		if err != nil {
			return nil, err
		}
		codes = append(codes, c)
	}
	return codes, nil
}

// All returns the supported codes in display order.
func All() []Code {
	out := make([]Code, len(table))
	copy(out, table)
	return out
}

// String returns the config name.
func (c Code) String() string { return c.name }

// Wire returns the code sent to the translation API.
func (c Code) Wire() string { return c.wire }

// IsZero reports whether c is the invalid zero Code.
func (c Code) IsZero() bool { return c.name == "" }

// Tag returns the BCP 47 tag for c. Auto maps to language.Und.
func (c Code) Tag() language.Tag {
	t, err := language.Parse(c.tag)
	if err != nil {
		return language.Und
	}
	return t
}

// EnglishName returns the English display name.
func (c Code) EnglishName() string {
	if c == Auto {
		return c.label
	}
	if name := display.English.Tags().Name(c.Tag()); name != "" && !strings.EqualFold(name, "unknown language") {
		return name
	}
	return c.label
}

// NativeName returns the name of the language in itself, falling back to
// the English name when CLDR has no self-name for it.
func (c Code) NativeName() string {
	if c == Auto {
		return c.label
	}
	if name := display.Self.Name(c.Tag()); name != "" {
		return name
	}
	return c.EnglishName()
}
