// Package locales knows the closed set of content locales and how to map
// arbitrary language tags onto it.
package locales

import (
	"strings"

	"golang.org/x/text/language"
)

const Default = "pt-BR"

// Supported is ordered; the first entry is the fallback of the matcher.
var Supported = []string{"pt-BR", "en", "es"}

var (
	supportedTags = func() []language.Tag {
		tags := make([]language.Tag, len(Supported))
		for i, s := range Supported {
			tags[i] = language.MustParse(s)
		}
		return tags
	}()
	matcher = language.NewMatcher(supportedTags)
)

func IsSupported(locale string) bool {
	for _, s := range Supported {
		if s == locale {
			return true
		}
	}
	return false
}

// Normalize maps tags like "pt", "pt-br" or "en-US" onto a supported locale.
func Normalize(tag string) (string, bool) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return "", false
	}
	for _, s := range Supported {
		if strings.EqualFold(s, tag) {
			return s, true
		}
	}

	parsed, err := language.Parse(tag)
	if err != nil {
		return "", false
	}
	_, idx, conf := matcher.Match(parsed)
	if conf == language.No {
		return "", false
	}
	return Supported[idx], true
}

// Negotiate picks the best supported locale for an Accept-Language header value.
func Negotiate(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	return Supported[idx]
}

// APICode returns the base language code understood by the translation API.
func APICode(locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		return locale
	}
	base, _ := tag.Base()
	return base.String()
}

// Others returns every supported locale except the given one, in list order.
func Others(locale string) []string {
	out := make([]string, 0, len(Supported))
	for _, s := range Supported {
		if s != locale {
			out = append(out, s)
		}
	}
	return out
}

func Tag(locale string) language.Tag {
	tag, err := language.Parse(locale)
	if err != nil {
		return language.MustParse(Default)
	}
	return tag
}
