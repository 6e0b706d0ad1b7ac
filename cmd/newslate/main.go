// Command newslate translates news articles into the reader's language.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ZaguanLabs/newslate"
	"github.com/ZaguanLabs/newslate/cache"
	"github.com/ZaguanLabs/newslate/logging"
	"github.com/ZaguanLabs/newslate/prefs"
	"github.com/ZaguanLabs/newslate/provider"
)

// Build-time variables (can be overridden with ldflags)
var (
	version   = newslate.Version
	commit    = newslate.GitCommit
	buildDate = newslate.BuildDate
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	targetLang   string
	sourceLang   string
	providerName string
	endpoint     string
	apiKey       string
	model        string
	text         string
	cacheTTL     int
	cacheSize    int
	cacheFile    string
	prefsFile    string
	setLang      string
	output       string
	dryRun       bool
	jsonOutput   bool
	quiet        bool
	verbose      bool
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("newslate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var o options
	fs.StringVar(&o.targetLang, "lang", "", "Target language (default: saved choice, then locale)")
	fs.StringVar(&o.sourceLang, "source", "", "Source language for --text, or for articles without one")
	fs.StringVar(&o.providerName, "provider", "libre", "Translation provider: libre, backend or openai")
	fs.StringVar(&o.endpoint, "endpoint", "", "LibreTranslate URL or newslate server URL")
	fs.StringVar(&o.apiKey, "api-key", "", "Provider API key (default: LIBRE_TRANSLATE_API_KEY or OPENAI_API_KEY env)")
	fs.StringVar(&o.model, "model", "gpt-4o-mini", "OpenAI model to use")
	fs.StringVar(&o.text, "text", "", "Translate a single text instead of articles")
	fs.IntVar(&o.cacheTTL, "cache-ttl", 3600, "Cache TTL in seconds (0 to disable)")
	fs.IntVar(&o.cacheSize, "cache-size", cache.DefaultMaxEntries, "Maximum cached translations")
	fs.StringVar(&o.cacheFile, "cache-file", "", "Load the cache from this file and save it back afterwards")
	fs.StringVar(&o.prefsFile, "prefs", "", "Language preference file (default: user config dir)")
	fs.StringVar(&o.setLang, "set-lang", "", "Save the default target language and exit")
	fs.StringVar(&o.output, "output", "", "Output file (default: stdout)")
	outputShort := fs.String("o", "", "Output file (short for --output)")
	fs.BoolVar(&o.dryRun, "dry-run", false, "Show what would be translated without calling the provider")
	fs.BoolVar(&o.jsonOutput, "json", false, "Output a JSON report")
	fs.BoolVar(&o.quiet, "quiet", false, "Suppress progress output")
	fs.BoolVar(&o.verbose, "verbose", false, "Log cache and provider activity")
	showVersion := fs.Bool("version", false, "Show version")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Fprintf(stdout, "%s %s\n", newslate.Name, version)
		if commit != "unknown" && commit != "" {
			fmt.Fprintf(stdout, "  commit:  %s\n", commit)
		}
		if buildDate != "unknown" && buildDate != "" {
			fmt.Fprintf(stdout, "  built:   %s\n", buildDate)
		}
		return nil
	}

	// Handle -o alias for --output
	if *outputShort != "" && o.output == "" {
		o.output = *outputShort
	}

	setupLogging(o, stderr)

	store, err := preferenceStore(o.prefsFile)
	if err != nil {
		return err
	}

	if o.setLang != "" {
		lang, ok := newslate.LookupLanguage(o.setLang)
		if !ok {
			return fmt.Errorf("unknown language %q", o.setLang)
		}
		if err := store.Save(context.Background(), lang); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Default language set to %s (%s)\n", lang, newslate.GetLanguageName(lang))
		return nil
	}

	target := resolveTarget(o.targetLang, store)

	// Get input
	var input []byte
	inputName := "stdin"
	if o.text == "" {
		if fs.NArg() == 0 {
			input, err = io.ReadAll(stdin)
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
		} else {
			// Read from file - user-provided path is intentional for CLI
			inputPath := fs.Arg(0)
			input, err = os.ReadFile(inputPath) // #nosec G304 - CLI tool reads user-specified files
			if err != nil {
				return fmt.Errorf("reading file: %w", err)
			}
			inputName = filepath.Base(inputPath)
		}
	}

	var articles []newslate.Article
	var isList bool
	if o.text == "" {
		articles, isList, err = parseArticles(input)
		if err != nil {
			return err
		}
		for i := range articles {
			if articles[i].Language == "" && o.sourceLang != "" {
				articles[i].Language = o.sourceLang
			}
		}
	}

	// Handle dry-run mode
	if o.dryRun {
		if o.text != "" {
			articles = []newslate.Article{{ID: "text", Title: o.text, Language: orDefault(o.sourceLang, newslate.DefaultLanguage)}}
		}
		return runDryRun(articles, inputName, target, stdout, o.jsonOutput)
	}

	p, name, err := buildProvider(o)
	if err != nil {
		return err
	}

	var memCache *cache.MemoryCache
	opts := []newslate.TranslatorOption{
		newslate.WithLanguage(newslate.StaticLanguage(target)),
		newslate.WithCacheNamespace(name),
		newslate.WithLogger(logging.NewLogger("translator")),
	}
	if o.cacheTTL > 0 {
		memCache = cache.NewMemoryCache(cache.MemoryConfig{
			TTL:        time.Duration(o.cacheTTL) * time.Second,
			MaxEntries: o.cacheSize,
		})
		opts = append(opts, newslate.WithCache(memCache))
		if err := loadCache(memCache, o.cacheFile, stderr, o.quiet); err != nil {
			return err
		}
	}

	translator := newslate.NewTranslator(p, opts...)

	out, closeOut, err := openOutput(stdout, o.output)
	if err != nil {
		return err
	}

	start := time.Now()
	if o.text != "" {
		err = translateText(translator, o, target, out)
	} else {
		if !o.quiet {
			fmt.Fprintf(stderr, "Translating %d article(s) from %s to %s...\n", len(articles), inputName, target)
		}
		err = translateArticles(translator, articles, isList, target, out, stderr, o, start)
	}
	if closeErr := closeOut(); err == nil {
		err = closeErr
	}

	if memCache != nil && o.cacheFile != "" {
		meta := map[string]string{"provider": name, "version": newslate.FullVersion()}
		if saveErr := cache.NewExporter(memCache).ExportToFile(o.cacheFile, meta); saveErr != nil {
			fmt.Fprintf(stderr, "warning: saving cache: %v\n", saveErr)
		}
	}

	return err
}

func setupLogging(o options, stderr io.Writer) {
	level := logging.LevelWarn
	switch {
	case o.verbose:
		level = logging.LevelDebug
	case o.quiet:
		level = "disabled"
	}
	logging.Setup(logging.Config{Level: level, Pretty: true, Output: stderr})
}

func preferenceStore(path string) (*prefs.FileStore, error) {
	if path == "" {
		var err error
		if path, err = prefs.DefaultFilePath(); err != nil {
			return nil, fmt.Errorf("locating preference file: %w", err)
		}
	}
	return prefs.NewFileStore(path), nil
}

// resolveTarget returns --lang when given, otherwise the saved choice,
// then the locale, then the default language. An unrecognized --lang
// normalizes to the default language.
func resolveTarget(flagLang string, store newslate.PreferenceStore) string {
	if flagLang != "" {
		flagLang = newslate.NormalizeLanguage(flagLang)
	}
	// --lang applies to this run only and is never written back.
	r := newslate.NewLanguageResolver(context.Background(),
		newslate.WithChoiceStore(prefs.NewMemoryStore(flagLang)),
		newslate.WithAccountStore(store),
	)
	return r.Language()
}

func buildProvider(o options) (newslate.Provider, string, error) {
	var p newslate.Provider

	switch o.providerName {
	case "libre":
		endpoint := orDefault(o.endpoint, os.Getenv("LIBRE_TRANSLATE_URL"))
		key := orDefault(o.apiKey, os.Getenv("LIBRE_TRANSLATE_API_KEY"))
		p = provider.NewLibreTranslateProvider(provider.LibreTranslateConfig{URL: endpoint, APIKey: key})
	case "backend":
		endpoint := orDefault(o.endpoint, os.Getenv("NEWSLATE_ENDPOINT"))
		if endpoint == "" {
			return nil, "", fmt.Errorf("backend provider requires --endpoint or NEWSLATE_ENDPOINT")
		}
		p = provider.NewBackendProvider(provider.BackendConfig{BaseURL: endpoint})
	case "openai":
		key := orDefault(o.apiKey, os.Getenv("OPENAI_API_KEY"))
		if key == "" {
			return nil, "", fmt.Errorf("OpenAI API key required (--api-key or OPENAI_API_KEY env)")
		}
		p = provider.NewOpenAIProvider(provider.OpenAIConfig{APIKey: key, Model: o.model, BaseURL: o.endpoint})
	default:
		return nil, "", fmt.Errorf("unknown provider %q (want libre, backend or openai)", o.providerName)
	}

	return newslate.NewRetryableProvider(p, newslate.DefaultRetryConfig()), o.providerName, nil
}

func loadCache(c *cache.MemoryCache, path string, stderr io.Writer, quiet bool) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	res, err := cache.NewImporter(c).ImportFromFile(path)
	if err != nil {
		return fmt.Errorf("loading cache: %w", err)
	}
	if !quiet {
		fmt.Fprintf(stderr, "Loaded %d cached translations\n", res.Imported)
	}
	return nil
}

// parseArticles accepts one article object or an array of them.
func parseArticles(input []byte) ([]newslate.Article, bool, error) {
	trimmed := bytes.TrimSpace(input)
	if len(trimmed) == 0 {
		return nil, false, fmt.Errorf("no input")
	}

	if trimmed[0] == '[' {
		var list []newslate.Article
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, false, fmt.Errorf("parsing articles: %w", err)
		}
		return list, true, nil
	}

	var a newslate.Article
	if err := json.Unmarshal(trimmed, &a); err != nil {
		return nil, false, fmt.Errorf("parsing article: %w", err)
	}
	return []newslate.Article{a}, false, nil
}

func openOutput(stdout io.Writer, path string) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path) // #nosec G304 - CLI tool writes user-specified files
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	w := bufio.NewWriter(f)
	return w, func() error {
		flushErr := w.Flush()
		closeErr := f.Close()
		if flushErr != nil {
			return fmt.Errorf("writing output file: %w", flushErr)
		}
		if closeErr != nil {
			return fmt.Errorf("closing output file: %w", closeErr)
		}
		return nil
	}, nil
}

// TextOutput is the JSON output of --text.
type TextOutput struct {
	OriginalText   string `json:"originalText"`
	TranslatedText string `json:"translatedText"`
	SourceLanguage string `json:"sourceLanguage"`
	TargetLanguage string `json:"targetLanguage"`
}

func translateText(t *newslate.Translator, o options, target string, out io.Writer) error {
	source := orDefault(o.sourceLang, newslate.DefaultLanguage)

	translated, err := t.TranslateText(context.Background(), o.text, source)
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}

	if o.jsonOutput {
		return writeJSON(out, TextOutput{
			OriginalText:   o.text,
			TranslatedText: translated,
			SourceLanguage: newslate.NormalizeLanguage(source),
			TargetLanguage: target,
		})
	}
	fmt.Fprintln(out, translated)
	return nil
}

// JSONOutput is the --json report for article translation.
type JSONOutput struct {
	Language   string                       `json:"language"`
	Articles   []newslate.Article           `json:"articles"`
	Failures   map[string]map[string]string `json:"failures,omitempty"`
	Translated int                          `json:"translated"`
	Skipped    int                          `json:"skipped"`
	ElapsedMs  int64                        `json:"elapsed_ms"`
}

func translateArticles(t *newslate.Translator, articles []newslate.Article, isList bool, target string, out, stderr io.Writer, o options, start time.Time) error {
	results := t.TranslateArticles(context.Background(), articles)
	elapsed := time.Since(start)

	report := JSONOutput{
		Language:  target,
		Articles:  make([]newslate.Article, len(results)),
		ElapsedMs: elapsed.Milliseconds(),
	}
	failedFields := 0
	for i, r := range results {
		report.Articles[i] = r.Article
		if r.Article.IsTranslated && !articles[i].IsTranslated {
			report.Translated++
		} else {
			report.Skipped++
		}

		var artErr *newslate.ArticleError
		if errors.As(r.Err, &artErr) {
			if report.Failures == nil {
				report.Failures = make(map[string]map[string]string)
			}
			fields := make(map[string]string, len(artErr.Fields))
			for f, err := range artErr.Fields {
				fields[string(f)] = err.Error()
				failedFields++
			}
			report.Failures[r.Article.ID] = fields
		} else if r.Err != nil {
			return fmt.Errorf("translating %s: %w", articles[i].ID, r.Err)
		}
	}

	var err error
	switch {
	case o.jsonOutput:
		err = writeJSON(out, report)
	case isList:
		err = writeJSON(out, report.Articles)
	default:
		err = writeJSON(out, report.Articles[0])
	}
	if err != nil {
		return err
	}

	// Stats
	if !o.quiet {
		fmt.Fprintf(stderr, "\nDone in %v\n", elapsed.Round(time.Millisecond))
		fmt.Fprintf(stderr, "  Articles:      %d\n", len(articles))
		fmt.Fprintf(stderr, "  Translated:    %d\n", report.Translated)
		fmt.Fprintf(stderr, "  Skipped:       %d\n", report.Skipped)
		fmt.Fprintf(stderr, "  Failed fields: %d\n", failedFields)
		for _, id := range sortedKeys(report.Failures) {
			fmt.Fprintf(stderr, "    %s: %s\n", id, strings.Join(sortedKeys(report.Failures[id]), ", "))
		}
	}
	return nil
}

// DryRunOutput is the --dry-run --json report.
type DryRunOutput struct {
	InputFile  string        `json:"input_file"`
	TargetLang string        `json:"target_lang"`
	Articles   []DryRunEntry `json:"articles"`
	FieldCount int           `json:"field_count"`
}

// DryRunEntry describes what would happen to one article.
type DryRunEntry struct {
	ID     string   `json:"id"`
	Skip   string   `json:"skip,omitempty"`
	Fields []string `json:"fields,omitempty"`
}

// runDryRun shows what would be translated without calling the provider.
func runDryRun(articles []newslate.Article, inputName, target string, stdout io.Writer, jsonOut bool) error {
	report := DryRunOutput{InputFile: inputName, TargetLang: target}

	for _, a := range articles {
		entry := DryRunEntry{ID: a.ID}
		switch {
		case a.IsTranslated:
			entry.Skip = "already translated"
		case newslate.SameLanguage(a.Language, target):
			entry.Skip = "already in " + newslate.NormalizeLanguage(a.Language)
		default:
			for _, f := range newslate.TranslatableFields {
				if strings.TrimSpace(a.Text(f)) != "" {
					entry.Fields = append(entry.Fields, string(f))
				}
			}
			report.FieldCount += len(entry.Fields)
		}
		report.Articles = append(report.Articles, entry)
	}

	if jsonOut {
		return writeJSON(stdout, report)
	}

	fmt.Fprintf(stdout, "Dry run: %s -> %s\n", inputName, target)
	fmt.Fprintf(stdout, "Found %d translatable fields in %d article(s):\n\n", report.FieldCount, len(articles))
	for i, e := range report.Articles {
		if e.Skip != "" {
			fmt.Fprintf(stdout, "%3d. %s: skip (%s)\n", i+1, e.ID, e.Skip)
			continue
		}
		fmt.Fprintf(stdout, "%3d. %s: %s\n", i+1, e.ID, strings.Join(e.Fields, ", "))
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
