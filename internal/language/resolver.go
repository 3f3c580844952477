package language

import (
	"net/http"
)

// PreferenceKey is the per-site preference that stores a visitor's chosen
// language.
const PreferenceKey = "lang"

// Strategy yields a language candidate, or false when it has none.
type Strategy func() (Language, bool)

// Resolve walks strategies in order and returns the first candidate that is
// present and not Invariant.
func Resolve(strategies ...Strategy) (Language, bool) {
	for _, s := range strategies {
		if s == nil {
			continue
		}
		l, ok := s()
		if !ok || l.IsInvariant() {
			continue
		}
		return l, true
	}
	return Invariant, false
}

// FromQuery tries an explicit language code taken from a request parameter.
func FromQuery(code string) Strategy {
	return func() (Language, bool) {
		return TryParse(code)
	}
}

// FromFilePath yields the language the platform resolved from the item path.
// A nil pointer means the request was not routed by language.
func FromFilePath(l *Language) Strategy {
	return func() (Language, bool) {
		if l == nil {
			return Invariant, false
		}
		return *l, true
	}
}

// FromPreference reads the visitor's stored language for site and falls back
// to defaultCode when the store holds nothing for it.
func FromPreference(prefs PreferenceStore, site, defaultCode string) Strategy {
	return func() (Language, bool) {
		value := defaultCode
		if prefs != nil {
			if v, ok := prefs.Lookup(site, PreferenceKey); ok && v != "" {
				value = v
			}
		}
		return TryParse(value)
	}
}

// PreferenceStore holds visitor preferences scoped per site.
type PreferenceStore interface {
	Lookup(site, key string) (string, bool)
}

// CookiePreferences reads preferences from request cookies named "<site>#<key>".
type CookiePreferences struct {
	Request *http.Request
}

func (c CookiePreferences) Lookup(site, key string) (string, bool) {
	if c.Request == nil {
		return "", false
	}
	cookie, err := c.Request.Cookie(CookieName(site, key))
	if err != nil {
		return "", false
	}
	return cookie.Value, true
}

// CookieName returns the cookie that stores key for site.
func CookieName(site, key string) string {
	return site + "#" + key
}

// MapPreferences is an in-memory PreferenceStore keyed by site then key.
type MapPreferences map[string]map[string]string

func (m MapPreferences) Lookup(site, key string) (string, bool) {
	v, ok := m[site][key]
	return v, ok
}
