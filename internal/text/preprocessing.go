// Package text normalizes user text before it is quoted into a prompt.
//
// Normalization is conservative: words, numbers and punctuation reach the
// model untouched. Only layout whitespace, typographic characters and the
// spelling of control tags are canonicalized.
package text

import (
	"regexp"
	"strings"
)

const (
	whitespaceRegexPattern = `\s+`
	tagRegexPattern        = `(?i)\[\s*(pausa|risa|grito|llanto)\s*\]`
)

const (
	emDash       = "—"
	enDash       = "–"
	figureDash   = "‒"
	ellipsis     = "..."
	ellipsisChar = "…"
)

// Preprocessor holds precompiled patterns.
type Preprocessor struct {
	whitespacePattern *regexp.Regexp
	tagPattern        *regexp.Regexp
	typography        *strings.Replacer
}

// NewPreprocessor creates a preprocessor.
func NewPreprocessor() *Preprocessor {
	return &Preprocessor{
		whitespacePattern: regexp.MustCompile(whitespaceRegexPattern),
		tagPattern:        regexp.MustCompile(tagRegexPattern),
		typography: strings.NewReplacer(
			emDash, "-",
			enDash, "-",
			figureDash, "-",
			ellipsisChar, ellipsis,
			"“", "'", "”", "'",
			`"`, "'",
			"‘", "'", "’", "'",
		),
	}
}

// Normalize collapses whitespace, lowercases control tags, and turns double
// quotes into single quotes so the text cannot close the prompt's quoting.
func (p *Preprocessor) Normalize(text string) string {
	if text == "" {
		return text
	}

	normalized := p.tagPattern.ReplaceAllStringFunc(text, func(match string) string {
		inner := strings.TrimSpace(strings.Trim(match, "[]"))

		return "[" + strings.ToLower(inner) + "]"
	})

	normalized = p.typography.Replace(normalized)
	normalized = p.whitespacePattern.ReplaceAllString(normalized, " ")

	return strings.TrimSpace(normalized)
}

var defaultPreprocessor = NewPreprocessor()

// Normalize uses a shared preprocessor.
func Normalize(text string) string {
	return defaultPreprocessor.Normalize(text)
}
