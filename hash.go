package newslate

// CacheKey builds the translation cache key for text translated from
// sourceLang to targetLang. Both codes are normalized, an unknown source
// becomes AutoDetect. The text is used verbatim so only exact matches hit.
func CacheKey(sourceLang, targetLang, text string) string {
	source := SourceLanguage(sourceLang)
	if source == "" {
		source = AutoDetect
	}
	return source + ":" + NormalizeLanguage(targetLang) + ":" + text
}

// CacheKeyExtended prefixes the key with a namespace, typically the provider
// name. Use this when one cache is shared by providers whose output differs.
func CacheKeyExtended(namespace, sourceLang, targetLang, text string) string {
	if namespace == "" {
		return CacheKey(sourceLang, targetLang, text)
	}
	return namespace + ":" + CacheKey(sourceLang, targetLang, text)
}
