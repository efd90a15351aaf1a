package render

import (
	"bytes"
	"html/template"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeHTML neutralises & < > " and ' for use in markup.
func EscapeHTML(s string) string {
	if s == "" {
		return ""
	}
	return htmlEscaper.Replace(s)
}

// Truncate shortens s to n runes plus an ellipsis; n <= 0 means 60.
func Truncate(s string, n int) string {
	if n <= 0 {
		n = 60
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "…"
}

var (
	upper = cases.Upper(language.Und)
	lower = cases.Lower(language.Und)
)

// Capitalize upper-cases the first letter and lower-cases the rest.
func Capitalize(s string) string {
	if s == "" {
		return ""
	}
	_, size := utf8.DecodeRuneInString(s)
	return upper.String(s[:size]) + lower.String(s[size:])
}

// Label turns a snake_case key into a display label: "db_pool" -> "Db pool".
func Label(key string) string {
	return Capitalize(strings.ReplaceAll(key, "_", " "))
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases s and joins alphanumeric runs with dashes.
func Slugify(s string) string {
	return strings.Trim(slugRe.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

var markdown = goldmark.New(goldmark.WithRendererOptions(html.WithHardWraps()))

// AIText renders model-generated text. Markdown emphasis is honoured, raw
// HTML in the input is dropped and newlines become line breaks.
func AIText(s string) template.HTML {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(s), &buf); err != nil {
		return template.HTML(strings.ReplaceAll(EscapeHTML(s), "\n", "<br>"))
	}
	return template.HTML(buf.String())
}
