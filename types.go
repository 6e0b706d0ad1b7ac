package newslate

// Source identifies the outlet an article was published by.
type Source struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Article is a normalized news article as served to the presentation layer.
// Translation never mutates an Article; it returns a new value.
type Article struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Content      string `json:"content"`
	URL          string `json:"url"`
	Image        string `json:"image"`
	PublishedAt  string `json:"publishedAt"`
	Source       Source `json:"source"`
	Category     string `json:"category"`
	Language     string `json:"language"`
	IsTranslated bool   `json:"isTranslated,omitempty"`
}

// Field names a translatable article field.
type Field string

const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldContent     Field = "content"
)

// TranslatableFields lists the article fields the orchestrator translates.
var TranslatableFields = []Field{FieldTitle, FieldDescription, FieldContent}

// Text returns the value of field f.
func (a Article) Text(f Field) string {
	switch f {
	case FieldTitle:
		return a.Title
	case FieldDescription:
		return a.Description
	case FieldContent:
		return a.Content
	}
	return ""
}

// WithText returns a copy of a with field f replaced.
func (a Article) WithText(f Field, text string) Article {
	switch f {
	case FieldTitle:
		a.Title = text
	case FieldDescription:
		a.Description = text
	case FieldContent:
		a.Content = text
	}
	return a
}

// ArticleResult pairs a translated article with its per-field failures.
type ArticleResult struct {
	Article Article
	Err     error // nil or *ArticleError
}

// RTLLanguages contains language codes that use right-to-left text direction.
var RTLLanguages = map[string]bool{
	"ar": true, // Arabic
	"he": true, // Hebrew
	"fa": true, // Persian/Farsi
	"ur": true, // Urdu
	"ps": true, // Pashto
	"sd": true, // Sindhi
	"ug": true, // Uyghur
}
