package evaluation

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"podo/internal/services"
)

// Type is an evaluation type.
type Type string

const (
	NMOS Type = "NMOS"
	QMOS Type = "QMOS"
	P808 Type = "P808"
	SMOS Type = "SMOS"
	PREF Type = "PREF"
	CMOS Type = "CMOS"
	DMOS Type = "DMOS"
)

var allTypes = []Type{NMOS, QMOS, P808, SMOS, PREF, CMOS, DMOS}

// AllTypes returns every supported evaluation type.
func AllTypes() []Type {
	return append([]Type(nil), allTypes...)
}

// ParseType resolves a case-insensitive type name.
func ParseType(value string) (Type, error) {
	candidate := Type(strings.ToUpper(strings.TrimSpace(value)))
	for _, t := range allTypes {
		if t == candidate {
			return t, nil
		}
	}
	return "", services.Wrap(services.ErrValidation, "evaluation", "parse type",
		fmt.Sprintf("%q must be one of %s", value, JoinTypes(allTypes)), nil)
}

// UsesScript reports whether raters see a script for this type, which is
// what makes annotation possible.
func (t Type) UsesScript() bool {
	switch t {
	case NMOS, QMOS, P808:
		return true
	}
	return false
}

// BackendType is the evaluation_type value the backend expects.
func (t Type) BackendType() string {
	if t == PREF {
		return "SPEECH_PREFERENCE"
	}
	return "SPEECH_" + string(t)
}

func (t Type) String() string { return string(t) }

// JoinTypes renders types as {A, B, C} for error messages.
func JoinTypes(types []Type) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return "{" + strings.Join(names, ", ") + "}"
}

// Language is a rater language code.
type Language string

const (
	EnglishAmerican   Language = "en-us"
	EnglishBritish    Language = "en-gb"
	EnglishAustralian Language = "en-au"
	EnglishCanadian   Language = "en-ca"
	Korean            Language = "ko-kr"
	Mandarin          Language = "zh-cn"
	SpanishSpain      Language = "es-es"
	SpanishMexico     Language = "es-mx"
	French            Language = "fr-fr"
	German            Language = "de-de"
	Japanese          Language = "ja-jp"
	Italian           Language = "it-it"
	Polish            Language = "pl-pl"
	// Audio marks non-speech audio evaluations.
	Audio Language = "audio"
)

var allLanguages = []Language{
	EnglishAmerican, EnglishBritish, EnglishAustralian, EnglishCanadian,
	Korean, Mandarin, SpanishSpain, SpanishMexico, French, German,
	Japanese, Italian, Polish, Audio,
}

// AllLanguages returns every supported language code.
func AllLanguages() []Language {
	return append([]Language(nil), allLanguages...)
}

// ParseLanguage canonicalizes a BCP 47 tag (en_US, EN-us, ...) to the
// lower-case form used by the backend and checks it against the supported set.
func ParseLanguage(value string) (Language, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	candidate := Language(trimmed)
	if trimmed != string(Audio) {
		tag, err := language.Parse(trimmed)
		if err != nil {
			return "", services.Wrap(services.ErrValidation, "evaluation", "parse language",
				fmt.Sprintf("%q is not a language tag", value), err)
		}
		candidate = Language(strings.ToLower(tag.String()))
	}
	for _, l := range allLanguages {
		if l == candidate {
			return l, nil
		}
	}
	return "", services.Wrap(services.ErrValidation, "evaluation", "parse language",
		fmt.Sprintf("%q is not a supported language", value), nil)
}

func (l Language) String() string { return string(l) }
