package newslate

import (
	"os"
	"strings"

	"golang.org/x/text/language"
)

// DefaultLanguage is the fallback for unknown or missing language codes.
const DefaultLanguage = "en"

// AutoDetect stands in for an unknown source language in cache keys.
const AutoDetect = "auto"

// Language is a language offered in the reader-facing language picker.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"` // Native name
}

// SupportedLanguages are the languages readers can pick.
var SupportedLanguages = []Language{
	{Code: "ko", Name: "한국어"},
	{Code: "en", Name: "English"},
	{Code: "ja", Name: "日本語"},
	{Code: "zh", Name: "中文"},
	{Code: "es", Name: "Español"},
	{Code: "fr", Name: "Français"},
	{Code: "de", Name: "Deutsch"},
	{Code: "ru", Name: "Русский"},
}

// LanguageNames maps canonical ISO 639-1 codes to English names. Every key
// is a valid normalization target; news feeds carry more languages than the
// picker offers.
var LanguageNames = map[string]string{
	"ar": "Arabic",
	"bg": "Bulgarian",
	"bn": "Bengali",
	"ca": "Catalan",
	"cs": "Czech",
	"da": "Danish",
	"de": "German",
	"el": "Greek",
	"en": "English",
	"es": "Spanish",
	"fa": "Persian",
	"fi": "Finnish",
	"fr": "French",
	"he": "Hebrew",
	"hi": "Hindi",
	"hr": "Croatian",
	"hu": "Hungarian",
	"id": "Indonesian",
	"it": "Italian",
	"ja": "Japanese",
	"ko": "Korean",
	"lt": "Lithuanian",
	"lv": "Latvian",
	"ms": "Malay",
	"nb": "Norwegian Bokmål",
	"nl": "Dutch",
	"pl": "Polish",
	"pt": "Portuguese",
	"ro": "Romanian",
	"ru": "Russian",
	"sk": "Slovak",
	"sl": "Slovenian",
	"sr": "Serbian",
	"sv": "Swedish",
	"sw": "Swahili",
	"th": "Thai",
	"tl": "Tagalog",
	"tr": "Turkish",
	"uk": "Ukrainian",
	"ur": "Urdu",
	"vi": "Vietnamese",
	"zh": "Chinese",
}

// languageAliases maps accepted spellings to canonical codes. Keys are
// lower case with '-' separators.
var languageAliases = map[string]string{
	// ISO 639-2 and legacy codes
	"ara": "ar", "deu": "de", "ger": "de", "eng": "en", "spa": "es",
	"fra": "fr", "fre": "fr", "heb": "he", "iw": "he", "in": "id",
	"ind": "id", "ita": "it", "jpn": "ja", "kor": "ko", "no": "nb",
	"nob": "nb", "por": "pt", "rus": "ru", "tur": "tr", "ukr": "uk",
	"vie": "vi", "zho": "zh", "chi": "zh", "fil": "tl",

	// English names
	"arabic": "ar", "chinese": "zh", "english": "en", "french": "fr",
	"german": "de", "hebrew": "he", "italian": "it", "japanese": "ja",
	"korean": "ko", "portuguese": "pt", "russian": "ru", "spanish": "es",
	"turkish": "tr", "ukrainian": "uk", "vietnamese": "vi",

	// Native names used by the language picker
	"한국어": "ko", "日本語": "ja", "中文": "zh", "español": "es",
	"français": "fr", "deutsch": "de", "русский": "ru",

	// Script subtags the base-code split would otherwise lose
	"zh-hans": "zh", "zh-hant": "zh", "zh-cn": "zh", "zh-tw": "zh",
	"sr-latn": "sr", "sr-cyrl": "sr",
}

// LookupLanguage maps a language code, locale, or alias to its canonical
// ISO 639-1 code. It accepts forms like "ko", "ko-KR", "ko_KR.UTF-8",
// "kor" and "Korean". ok is false when the input is not recognized.
func LookupLanguage(code string) (canonical string, ok bool) {
	s := strings.ToLower(strings.TrimSpace(code))
	if s == "" {
		return "", false
	}

	// Drop POSIX encoding and modifier: "ko_kr.utf-8@euro" -> "ko_kr"
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	s = strings.ReplaceAll(s, "_", "-")

	if c, ok := languageAliases[s]; ok {
		return c, true
	}
	if _, ok := LanguageNames[s]; ok {
		return s, true
	}

	base := strings.SplitN(s, "-", 2)[0]
	if c, ok := languageAliases[base]; ok {
		return c, true
	}
	if _, ok := LanguageNames[base]; ok {
		return base, true
	}
	return "", false
}

// NormalizeLanguage is LookupLanguage with DefaultLanguage as the fallback.
func NormalizeLanguage(code string) string {
	if c, ok := LookupLanguage(code); ok {
		return c
	}
	return DefaultLanguage
}

// SourceLanguage canonicalizes a source language code. Unknown, empty and
// "auto" codes return "", which asks the provider to detect the language.
func SourceLanguage(code string) string {
	c, _ := LookupLanguage(code)
	return c
}

// IsSupported reports whether code normalizes to a picker language.
func IsSupported(code string) bool {
	c, ok := LookupLanguage(code)
	if !ok {
		return false
	}
	for _, l := range SupportedLanguages {
		if l.Code == c {
			return true
		}
	}
	return false
}

// GetLanguageName returns the English name for a language code.
// Falls back to the code itself if not found.
func GetLanguageName(code string) string {
	if c, ok := LookupLanguage(code); ok {
		return LanguageNames[c]
	}
	return code
}

// GetDirection returns "rtl" for right-to-left languages, "ltr" otherwise.
func GetDirection(code string) string {
	if c, ok := LookupLanguage(code); ok && RTLLanguages[c] {
		return "rtl"
	}
	return "ltr"
}

// IsRTL returns true if the language uses right-to-left text direction.
func IsRTL(code string) bool {
	return GetDirection(code) == "rtl"
}

// localeEnvVars are consulted in gettext priority order.
var localeEnvVars = []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"}

// EnvironmentLanguage derives the reader language from the process locale.
func EnvironmentLanguage() (string, bool) {
	for _, name := range localeEnvVars {
		value := os.Getenv(name)
		// LANGUAGE is a colon separated preference list
		for _, candidate := range strings.Split(value, ":") {
			if lang, ok := localeLanguage(candidate); ok {
				return lang, true
			}
		}
	}
	return "", false
}

// localeLanguage parses a POSIX locale such as "pt_BR.UTF-8".
func localeLanguage(locale string) (string, bool) {
	if i := strings.IndexAny(locale, ".@"); i >= 0 {
		locale = locale[:i]
	}
	if locale == "" || locale == "C" || locale == "POSIX" {
		return "", false
	}

	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return LookupLanguage(locale)
	}
	base, _ := tag.Base()
	return LookupLanguage(base.String())
}

// AcceptLanguage picks the highest weighted recognized language from an
// HTTP Accept-Language header.
func AcceptLanguage(header string) (string, bool) {
	if strings.TrimSpace(header) == "" {
		return "", false
	}

	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil {
		return "", false
	}

	for _, tag := range tags {
		base, _ := tag.Base()
		if lang, ok := LookupLanguage(base.String()); ok {
			return lang, true
		}
	}
	return "", false
}

// SameLanguage reports whether two codes normalize to the same language.
func SameLanguage(a, b string) bool {
	return NormalizeLanguage(a) == NormalizeLanguage(b)
}
