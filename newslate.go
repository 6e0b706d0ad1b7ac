// Package newslate provides the translation core of a news aggregator.
//
// Newslate translates news articles into the reader's language through a
// pluggable translation provider (LibreTranslate, a newslate backend,
// OpenAI), with a bounded TTL cache in front of it and a resolver that
// decides which language the reader wants.
//
// Basic usage:
//
//	import (
//	    "context"
//	    "github.com/ZaguanLabs/newslate"
//	    "github.com/ZaguanLabs/newslate/cache"
//	    "github.com/ZaguanLabs/newslate/prefs"
//	    "github.com/ZaguanLabs/newslate/provider"
//	)
//
//	func main() {
//	    p := provider.NewLibreTranslateProvider(provider.LibreTranslateConfig{
//	        URL: os.Getenv("LIBRE_TRANSLATE_URL"),
//	    })
//
//	    lang := newslate.NewLanguageResolver(context.Background(),
//	        newslate.WithChoiceStore(prefs.NewFileStore("preferences.json")),
//	    )
//
//	    t := newslate.NewTranslator(p,
//	        newslate.WithCache(cache.NewMemoryCache(cache.DefaultMemoryConfig())),
//	        newslate.WithLanguage(lang),
//	    )
//
//	    translated, err := t.TranslateArticle(context.Background(), article)
//	    if err != nil {
//	        log.Printf("some fields kept their original text: %v", err)
//	    }
//	    fmt.Println(translated.Title)
//	}
package newslate
