// Package i18n translates ddtr's own messages.
//
// Catalogues are embedded under locales/<lang>/LC_MESSAGES/ddtr.po. The
// message language comes from --lang, which takes the same names as the
// language table (zh, hk, en, ...) or a POSIX locale (zh_CN.UTF-8), or
// from the GNU gettext environment variables. Any regional or script
// variant falls back to the catalogue for its base language, so zh_TW and
// hk both read the zh catalogue. Without a catalogue, messages pass
// through untranslated.
package i18n

import (
	"embed"
	"io/fs"
	"os"
	"strings"

	"github.com/leonelquinteros/gotext"
	"golang.org/x/text/language"

	"github.com/minios-linux/ddtr/langcode"
)

//go:embed all:locales
var locales embed.FS

const domain = "ddtr"

var english, _ = language.English.Base()

var (
	po      *gotext.Locale
	current string
)

// Init selects the catalogue for lang, or for the environment when lang is
// empty. It is called once before any T or N.
func Init(lang string) {
	current = ""
	if lang != "" {
		current = Resolve(lang)
	} else {
		for _, candidate := range envCandidates() {
			tag, ok := parseTag(candidate)
			if !ok {
				continue
			}
			// Messages are written in English.
			if base, _ := tag.Base(); base == english {
				break
			}
			if current = match(tag); current != "" {
				break
			}
		}
	}

	if current == "" {
		po = nil
		return
	}
	po = gotext.NewLocaleFSWithPath(current, locales, "locales")
	po.AddDomain(domain)
	po.SetDomain(domain)
}

// Current returns the catalogue in use, or "" when messages pass through.
func Current() string { return current }

// Resolve returns the embedded catalogue that serves lang, or "".
func Resolve(lang string) string {
	tag, ok := parseTag(lang)
	if !ok {
		return ""
	}
	return match(tag)
}

func match(tag language.Tag) string {
	base, _ := tag.Base()
	for _, name := range catalogues() {
		if b, _ := language.Make(name).Base(); b == base {
			return name
		}
	}
	return ""
}

// T returns the translation of msgid, or msgid itself.
func T(msgid string) string {
	if po == nil {
		return msgid
	}
	return po.Get(msgid)
}

// N is T with plural forms.
func N(singular, plural string, n int) string {
	if po == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return po.GetN(singular, plural, n)
}

func catalogues() []string {
	entries, err := fs.ReadDir(locales, "locales")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names
}

// parseTag accepts a language table name or a POSIX locale such as
// zh_CN.UTF-8@pinyin.
func parseTag(s string) (language.Tag, bool) {
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	if s == "" || s == "C" || s == "POSIX" {
		return language.Und, false
	}
	if c, err := langcode.Parse(s); err == nil && c != langcode.Auto {
		return c.Tag(), true
	}
	tag, err := language.Parse(strings.ReplaceAll(s, "_", "-"))
	if err != nil {
		return language.Und, false
	}
	return tag, true
}

// envCandidates lists the locale names in GNU gettext priority order:
// every entry of LANGUAGE, then LC_ALL, LC_MESSAGES and LANG.
func envCandidates() []string {
	var out []string
	if v := os.Getenv("LANGUAGE"); v != "" {
		for _, part := range strings.Split(v, ":") {
			if part != "" {
				out = append(out, part)
			}
		}
	}
	for _, env := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(env); v != "" {
			out = append(out, v)
		}
	}
	return out
}
