package language

import (
	"strings"

	textlang "golang.org/x/text/language"
)

// Language is a resolved content language.
type Language struct {
	tag textlang.Tag
}

// Invariant means "no specific language". Test variations never apply to it.
var Invariant = Language{tag: textlang.Und}

// TryParse parses a language code such as "en" or "da-DK". Empty or
// malformed codes report false.
func TryParse(code string) (Language, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Invariant, false
	}
	tag, err := textlang.Parse(code)
	if err != nil {
		return Invariant, false
	}
	return Language{tag: tag}, true
}

// MustParse is like TryParse but panics on malformed input. Intended for
// tests and static defaults.
func MustParse(code string) Language {
	l, ok := TryParse(code)
	if !ok {
		panic("language: cannot parse " + code)
	}
	return l
}

// IsInvariant reports whether l is the Invariant sentinel.
func (l Language) IsInvariant() bool {
	return l.tag == textlang.Und
}

// String returns the canonical BCP 47 form, e.g. "en-US".
func (l Language) String() string {
	return l.tag.String()
}

// Tag exposes the underlying BCP 47 tag.
func (l Language) Tag() textlang.Tag {
	return l.tag
}
