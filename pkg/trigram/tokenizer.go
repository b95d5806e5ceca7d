package trigram

import (
	"regexp"
)

// Tokenizer splits source text into tokens and decides how generated tokens
// are joined back together.
type Tokenizer interface {
	// Tokenize returns the tokens of text in order. It never fails; empty
	// or whitespace-only text yields no tokens.
	Tokenize(text string) []string
	// Separator returns the string written between prev and next in
	// generated output.
	Separator(prev, next string) string
}

// whitespace matches what separates tokens: ASCII whitespace, vertical tab,
// every Unicode separator and the byte order mark.
const whitespace = `\s\x0B\x{FEFF}\pZ`

// DefaultTokenizer is the standard Tokenizer. Words start with a letter and
// continue with letters, digits, apostrophes or hyphens ("mökki", "don't",
// "x-12"); digit runs are numbers; any other non-whitespace character is a
// token of its own.
type DefaultTokenizer struct {
	separator  string
	tokenRegex *regexp.Regexp
}

// TokenizerOption configures a DefaultTokenizer.
type TokenizerOption func(*DefaultTokenizer)

// WithSeparator sets the string written between tokens that are not
// punctuation. Default: " "
func WithSeparator(sep string) TokenizerOption {
	return func(t *DefaultTokenizer) {
		t.separator = sep
	}
}

// NewDefaultTokenizer creates a tokenizer with the default rules.
func NewDefaultTokenizer(opts ...TokenizerOption) *DefaultTokenizer {
	t := &DefaultTokenizer{
		separator:  " ",
		tokenRegex: regexp.MustCompile(`\p{L}[\p{L}\p{N}'-]*|\p{N}+|[^` + whitespace + `\p{L}\p{N}]`),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Tokenize scans text left to right, taking the longest match at each position.
func (t *DefaultTokenizer) Tokenize(text string) []string {
	return t.tokenRegex.FindAllString(text, -1)
}

// Separator returns "" before punctuation and the configured separator otherwise.
func (t *DefaultTokenizer) Separator(_, next string) string {
	if IsPunctuation(next) {
		return ""
	}
	return t.separator
}

// punctuationRegex matches tokens made only of symbols. They attach to the
// previous token in generated output.
var punctuationRegex = regexp.MustCompile(`^[^` + whitespace + `\p{L}\p{N}]+$`)

// IsPunctuation reports whether token consists of one or more characters,
// none of which is whitespace, a letter or a digit.
func IsPunctuation(token string) bool {
	return punctuationRegex.MatchString(token)
}
