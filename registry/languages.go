package registry

import "strings"

// languages maps base language codes to their English names. Right-to-left
// scripts are listed in rtl.
var languages = map[string]string{
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
	"nb": "Norwegian Bokmål",
	"nl": "Dutch",
	"pl": "Polish",
	"pt": "Portuguese",
	"ro": "Romanian",
	"ru": "Russian",
	"sk": "Slovak",
	"sr": "Serbian",
	"sv": "Swedish",
	"th": "Thai",
	"tr": "Turkish",
	"uk": "Ukrainian",
	"ur": "Urdu",
	"vi": "Vietnamese",
	"zh": "Chinese",
}

var rtl = map[string]bool{
	"ar": true,
	"fa": true,
	"he": true,
	"ps": true,
	"ug": true,
	"ur": true,
	"yi": true,
}

// NormalizeLocale converts a Language header value to the locale form used
// in catalog file names ("pt-br" becomes "pt_BR").
func NormalizeLocale(lang string) string {
	lang = strings.TrimSpace(strings.ReplaceAll(lang, "-", "_"))
	base, region, ok := strings.Cut(lang, "_")
	if !ok {
		return strings.ToLower(base)
	}
	return strings.ToLower(base) + "_" + strings.ToUpper(region)
}

func baseLanguage(locale string) string {
	base, _, _ := strings.Cut(NormalizeLocale(locale), "_")
	return base
}

// LanguageName returns the English name of a locale, or the locale itself
// when it is unknown.
func LanguageName(locale string) string {
	if name, ok := languages[baseLanguage(locale)]; ok {
		return name
	}
	return locale
}

// Direction returns "rtl" for right-to-left locales and "ltr" otherwise.
func Direction(locale string) string {
	if rtl[baseLanguage(locale)] {
		return "rtl"
	}
	return "ltr"
}

// Locale returns the normalized Language header of a domain's catalog, or
// "" when the domain is not loaded or declares no language.
func (r *Registry) Locale(domain string) string {
	c, ok := r.Catalog(domain)
	if !ok {
		return ""
	}
	return NormalizeLocale(c.Headers["Language"])
}

// IsRTL reports whether a domain's catalog is written right to left.
func (r *Registry) IsRTL(domain string) bool {
	locale := r.Locale(domain)
	return locale != "" && Direction(locale) == "rtl"
}
