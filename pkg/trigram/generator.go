package trigram

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
)

// transitions is the read surface shared by Table and FrozenTable.
type transitions interface {
	Successors(pair Pair) []TokenID
	Pairs() []Pair
	Len() int
	Observations() int
}

// Generator is the main entry point of the package. It owns the dictionary
// and transition table built from every added source.
//
// AddSource and Finalize must not be called concurrently. Once finalized,
// Generate, Tokens, Transitions and Stats may be called from any number of
// goroutines.
type Generator struct {
	tokenizer Tokenizer
	dict      *Dictionary
	table     *Table
	frozen    *FrozenTable
	seed      int64
	seeded    bool
	start     Pair
	hasStart  bool
	finalized bool
	logger    *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed makes start pair selection deterministic: the start pair is the
// pair at index |seed| mod pairCount in first-seen order.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.seed = seed
		g.seeded = true
	}
}

// WithTokenizer replaces the DefaultTokenizer.
func WithTokenizer(t Tokenizer) Option {
	return func(g *Generator) {
		if t != nil {
			g.tokenizer = t
		}
	}
}

// WithLogger sets the logger used by the Generator.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		g.SetLogger(logger)
	}
}

// NewGenerator returns a Generator in the building state.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		tokenizer: NewDefaultTokenizer(),
		dict:      NewDictionary(),
		table:     NewTable(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SetLogger sets the logger for the Generator. By default, all logs are discarded.
func (g *Generator) SetLogger(logger *slog.Logger) {
	if logger != nil {
		g.logger = logger
	}
}

// AddSource tokenizes text and records every three-token window of it.
// Windows never span two sources. Text with fewer than three tokens is
// ignored. It returns ErrInvalidState once the generator is finalized.
func (g *Generator) AddSource(text string) error {
	if g.finalized {
		return fmt.Errorf("%w: cannot add source after finalize", ErrInvalidState)
	}

	tokens := g.tokenizer.Tokenize(text)
	if len(tokens) < windowSize {
		return nil
	}

	ids := make([]TokenID, len(tokens))
	for i, token := range tokens {
		ids[i] = g.dict.IDFor(token)
	}
	g.table.Add(ids)
	return nil
}

// Finalize freezes the transition table and chooses the start pair. Calling
// it again has no effect.
func (g *Generator) Finalize() {
	if g.finalized {
		return
	}

	g.frozen = g.table.Freeze()
	g.table = nil
	g.start, g.hasStart = g.chooseStart()
	g.finalized = true

	attrs := []any{
		slog.Int("pairs", g.frozen.Len()),
		slog.Int("vocab_size", g.dict.Len()),
		slog.Bool("seeded", g.seeded),
	}
	if g.hasStart {
		attrs = append(attrs, slog.String("start_pair", g.dict.TokenFor(g.start.First())+" "+g.dict.TokenFor(g.start.Second())))
	}
	g.logger.Debug("Generator finalized", attrs...)
}

// chooseStart picks the start pair from the first-seen pair order.
func (g *Generator) chooseStart() (Pair, bool) {
	pairs := g.frozen.Pairs()
	if len(pairs) == 0 {
		return 0, false
	}
	if g.seeded {
		return pairs[seedIndex(g.seed, len(pairs))], true
	}
	return pairs[rand.IntN(len(pairs))], true
}

// seedIndex returns |seed| mod n without overflowing on math.MinInt64.
func seedIndex(seed int64, n int) int {
	idx := seed % int64(n)
	if idx < 0 {
		idx = -idx
	}
	return int(idx)
}

// Finalized reports whether Finalize has been called.
func (g *Generator) Finalized() bool {
	return g.finalized
}

func (g *Generator) transitions() transitions {
	if g.finalized {
		return g.frozen
	}
	return g.table
}

// Transition is one entry of the transition table in its external shape.
type Transition struct {
	Pair       [2]string `json:"pair"`
	NextTokens []string  `json:"nextTokens"`
}

// Transitions returns a snapshot of the transition table in pair first-seen
// order. NextTokens are in observation order and keep duplicates. It is
// available in both states.
func (g *Generator) Transitions() []Transition {
	table := g.transitions()
	list := make([]Transition, 0, table.Len())
	for _, pair := range table.Pairs() {
		successors := table.Successors(pair)
		next := make([]string, len(successors))
		for i, id := range successors {
			next[i] = g.dict.TokenFor(id)
		}
		list = append(list, Transition{
			Pair:       [2]string{g.dict.TokenFor(pair.First()), g.dict.TokenFor(pair.Second())},
			NextTokens: next,
		})
	}
	return list
}
