package trigram

import (
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"strings"
)

// generateOptions is used by the generate functions to configure default options.
type generateOptions struct {
	maxTokens int
}

// GenerateOption is a function that configures generation parameters. It's used
// as a variadic argument in Generate and Tokens.
type GenerateOption func(*generateOptions)

// WithMaxTokens sets the maximum number of tokens to generate. The start
// pair is always emitted whole, so any positive value yields at least two
// tokens. A value of 0 or less produces no output.
func WithMaxTokens(n int) GenerateOption {
	return func(o *generateOptions) { o.maxTokens = n }
}

func newGenerateOptions(opts []GenerateOption) *generateOptions {
	options := &generateOptions{maxTokens: 100}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// Generate walks the finalized table from the start pair and returns the
// formatted text. It returns "" when no pair was ever recorded or the max
// token count is not positive, and ErrInvalidState before Finalize.
func (g *Generator) Generate(opts ...GenerateOption) (string, error) {
	tokens, err := g.Tokens(opts...)
	if err != nil {
		return "", err
	}
	return join(g.tokenizer, tokens), nil
}

// Tokens returns the generated token sequence as an iterator. The walk runs
// synchronously while the iterator is consumed, and every call to the
// iterator starts again from the start pair with fresh cursors.
func (g *Generator) Tokens(opts ...GenerateOption) (iter.Seq[string], error) {
	if !g.finalized {
		return nil, fmt.Errorf("%w: sources must be finalized before generating", ErrInvalidState)
	}
	options := newGenerateOptions(opts)
	return func(yield func(string) bool) {
		g.walk(options.maxTokens, yield)
	}, nil
}

// walk contains the main generation loop. Each pair owns a cursor that
// advances through its successors on every visit, wrapping at the end.
// Cursors live only for the duration of one walk.
func (g *Generator) walk(maxTokens int, yield func(string) bool) {
	if !g.hasStart || maxTokens <= 0 {
		return
	}

	pair := g.start
	if !yield(g.dict.TokenFor(pair.First())) || !yield(g.dict.TokenFor(pair.Second())) {
		return
	}

	cursors := make(map[Pair]int)
	generated := 2
	for generated < maxTokens {
		choices := g.frozen.Successors(pair)
		if len(choices) == 0 { // Dead end in chain
			g.logger.Debug("Generation terminated due to dead-end",
				slog.String("last_pair", g.dict.TokenFor(pair.First())+" "+g.dict.TokenFor(pair.Second())),
				slog.Int("generated_length", generated),
			)
			return
		}

		cursor := cursors[pair]
		next := choices[cursor]
		cursors[pair] = (cursor + 1) % len(choices)

		if !yield(g.dict.TokenFor(next)) {
			return
		}
		pair = pair.Next(next)
		generated++
	}

	g.logger.Debug("Generation terminated by reaching maxTokens",
		slog.Int("max_tokens", maxTokens),
		slog.Int("generated_length", generated),
	)
}

// Format joins tokens with single spaces, attaching punctuation tokens to
// the token before them.
func Format(tokens []string) string {
	return join(NewDefaultTokenizer(), slices.Values(tokens))
}

func join(t Tokenizer, tokens iter.Seq[string]) string {
	var builder strings.Builder
	var prev string
	first := true
	for token := range tokens {
		if !first {
			builder.WriteString(t.Separator(prev, token))
		}
		builder.WriteString(token)
		prev = token
		first = false
	}
	return builder.String()
}
