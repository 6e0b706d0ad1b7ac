package newslate

import "testing"

func TestCacheKey(t *testing.T) {
	tests := []struct {
		name   string
		source string
		target string
		text   string
		want   string
	}{
		{"plain", "es", "en", "Hola", "es:en:Hola"},
		{"locales normalize", "es-MX", "ko_KR.UTF-8", "Hola", "es:ko:Hola"},
		{"aliases normalize", "Spanish", "kor", "Hola", "es:ko:Hola"},
		{"unknown target falls back", "es", "xx", "Hola", "es:en:Hola"},
		{"empty source detects", "", "ko", "Hola", "auto:ko:Hola"},
		{"unknown source detects", "zz", "ko", "Hola", "auto:ko:Hola"},
		{"auto source", "AUTO", "ko", "Hola", "auto:ko:Hola"},
		{"text is verbatim", "es", "en", "  Hola ", "es:en:  Hola "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CacheKey(tt.source, tt.target, tt.text); got != tt.want {
				t.Errorf("CacheKey(%q, %q, %q) = %q, want %q", tt.source, tt.target, tt.text, got, tt.want)
			}
		})
	}
}

func TestCacheKey_ExactMatchOnly(t *testing.T) {
	if CacheKey("es", "en", "Hola") == CacheKey("es", "en", "hola") {
		t.Error("Keys should be case sensitive")
	}
	if CacheKey("es", "en", "Hola") == CacheKey("es", "fr", "Hola") {
		t.Error("Target language must be part of the key")
	}
	if CacheKey("es", "en", "Hola") == CacheKey("pt", "en", "Hola") {
		t.Error("Source language must be part of the key")
	}
}

func TestCacheKeyExtended(t *testing.T) {
	if got := CacheKeyExtended("", "es", "en", "Hola"); got != "es:en:Hola" {
		t.Errorf("empty namespace should match CacheKey, got %q", got)
	}
	if got := CacheKeyExtended("libre", "es", "en", "Hola"); got != "libre:es:en:Hola" {
		t.Errorf("unexpected namespaced key %q", got)
	}
}
