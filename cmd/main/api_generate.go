package main

import (
	"cmp"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/CTAG07/trigram/pkg/corpus"
	"github.com/CTAG07/trigram/pkg/trigram"
	"github.com/dustin/go-humanize"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// GenerateAPI holds the dependencies for the model inspection and generation handlers.
type GenerateAPI struct {
	store  *corpus.Store
	cm     *ConfigManager
	usage  *UsageAPI
	logger *slog.Logger
}

// NewGenerateAPI creates a new instance of the GenerateAPI. usage may be nil.
func NewGenerateAPI(store *corpus.Store, cm *ConfigManager, usage *UsageAPI, logger *slog.Logger) *GenerateAPI {
	return &GenerateAPI{
		store:  store,
		cm:     cm,
		usage:  usage,
		logger: logger,
	}
}

// RegisterRoutes sets up the routing for the transitions, stats and generate endpoints.
func (g *GenerateAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/transitions", g.handleTransitions)
	mux.HandleFunc("/api/stats", g.handleStats)
	mux.HandleFunc("/api/generate", g.handleGenerate)
}

// GenerateRequest is the expected JSON body for generating text. Seed and
// MaxTokens are kept raw so that strings and non-integers can be rejected.
type GenerateRequest struct {
	Seed      json.RawMessage `json:"seed"`
	MaxTokens json.RawMessage `json:"maxTokens"`
}

// numberLiteral returns the text of a JSON number field, or "" when the field
// is absent or null. Any other JSON type is an error.
func numberLiteral(field string, raw json.RawMessage) (string, error) {
	literal := strings.TrimSpace(string(raw))
	if literal == "" || literal == "null" {
		return "", nil
	}
	switch literal[0] {
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return literal, nil
	default:
		return "", fmt.Errorf("%w: %s must be a JSON number, got %s", trigram.ErrInvalidArgument, field, literal)
	}
}

// GenerateResponse is the JSON response of a generation.
type GenerateResponse struct {
	Text      string `json:"text"`
	Seed      *int64 `json:"seed,omitempty"`
	MaxTokens int    `json:"maxTokens"`
	Sources   int    `json:"sources"`
	Pairs     int    `json:"pairs"`
	Status    string `json:"status"`
}

// TokenCount is how often a token followed a pair.
type TokenCount struct {
	Token string `json:"token"`
	Count int    `json:"count"`
}

// TransitionView is one transition pair as shown to a user.
type TransitionView struct {
	trigram.Transition
	Counts []TokenCount `json:"counts"`
}

// TransitionsResponse is the JSON response for listing transition pairs.
type TransitionsResponse struct {
	Summary string           `json:"summary"`
	Shown   int              `json:"shown"`
	Total   int              `json:"total"`
	Pairs   []TransitionView `json:"pairs"`
}

// StatsResponse aggregates source and model statistics.
type StatsResponse struct {
	Sources   int           `json:"sources"`
	TotalSize string        `json:"total_size"`
	Model     trigram.Stats `json:"model"`
}

// handleTransitions returns the transition table of the current sources.
func (g *GenerateAPI) handleTransitions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !requireScope(w, r, scopeSourcesRead) {
		return
	}

	limit := g.cm.Get().Generator.MaxTransitionPairs
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	gen, err := g.store.Build(r.Context(), trigram.WithLogger(g.logger))
	if err != nil {
		g.logger.Error("Failed to build generator", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to build generator: %v", err))
		return
	}

	respondWithJSON(w, http.StatusOK, summarizeTransitions(gen.Transitions(), limit))
}

// summarizeTransitions caps the list at limit pairs (0 means no cap) and
// counts the next tokens of each pair, most frequent first.
func summarizeTransitions(transitions []trigram.Transition, limit int) TransitionsResponse {
	total := len(transitions)
	shown := total
	if limit > 0 && limit < total {
		shown = limit
	}

	coll := collate.New(language.Und)
	views := make([]TransitionView, 0, shown)
	for _, tr := range transitions[:shown] {
		views = append(views, TransitionView{Transition: tr, Counts: countTokens(coll, tr.NextTokens)})
	}

	var summary string
	switch {
	case total == 0:
		summary = "No transition pairs available."
	case shown < total:
		summary = fmt.Sprintf("Showing %s of %s transition pairs.", humanize.Comma(int64(shown)), humanize.Comma(int64(total)))
	default:
		summary = fmt.Sprintf("Showing all %s transition pairs.", humanize.Comma(int64(total)))
	}

	return TransitionsResponse{Summary: summary, Shown: shown, Total: total, Pairs: views}
}

// countTokens tallies tokens, most frequent first. Ties are ordered by the
// Unicode collation of coll, so "a" sorts before "B" and "é" before "f".
func countTokens(coll *collate.Collator, tokens []string) []TokenCount {
	counts := make(map[string]int, len(tokens))
	for _, token := range tokens {
		counts[token]++
	}
	list := make([]TokenCount, 0, len(counts))
	for token, count := range counts {
		list = append(list, TokenCount{Token: token, Count: count})
	}
	slices.SortFunc(list, func(a, b TokenCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		if c := coll.CompareString(a.Token, b.Token); c != 0 {
			return c
		}
		return cmp.Compare(a.Token, b.Token)
	})
	return list
}

// handleStats returns source and model statistics.
func (g *GenerateAPI) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !requireScope(w, r, scopeSourcesRead) {
		return
	}

	stats, err := g.store.Stats(r.Context())
	if err != nil {
		g.logger.Error("Failed to read source stats", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to read source stats: %v", err))
		return
	}
	gen, err := g.store.Build(r.Context())
	if err != nil {
		g.logger.Error("Failed to build generator", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to build generator: %v", err))
		return
	}

	respondWithJSON(w, http.StatusOK, StatsResponse{
		Sources:   stats.Sources,
		TotalSize: humanize.Bytes(uint64(stats.TotalBytes)),
		Model:     gen.Stats(),
	})
}

// handleGenerate builds a generator from every stored source, finalizes it
// and returns one generation.
func (g *GenerateAPI) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !requireScope(w, r, scopeGenerate) {
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
		return
	}

	rawSeed, err := numberLiteral("seed", req.Seed)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	seed, seeded, err := trigram.ParseSeed(rawSeed)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	rawMaxTokens, err := numberLiteral("maxTokens", req.MaxTokens)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	maxTokens := g.cm.Get().Generator.DefaultMaxTokens
	if rawMaxTokens != "" {
		if maxTokens, err = trigram.ParseMaxTokens(rawMaxTokens); err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	stats, err := g.store.Stats(r.Context())
	if err != nil {
		g.logger.Error("Failed to read source stats", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to read source stats: %v", err))
		return
	}
	if stats.Sources == 0 {
		respondWithError(w, http.StatusBadRequest, "Add at least one non-empty source.")
		return
	}

	opts := []trigram.Option{trigram.WithLogger(g.logger)}
	if seeded {
		opts = append(opts, trigram.WithSeed(seed))
	}
	gen, err := g.store.Build(r.Context(), opts...)
	if err != nil {
		g.logger.Error("Failed to build generator", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to build generator: %v", err))
		return
	}
	pairs := gen.Stats().Pairs
	gen.Finalize()

	text, err := gen.Generate(trigram.WithMaxTokens(maxTokens))
	if err != nil {
		g.logger.Error("Generation failed", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Generation failed: %v", err))
		return
	}

	resp := GenerateResponse{
		Text:      text,
		MaxTokens: maxTokens,
		Sources:   stats.Sources,
		Pairs:     pairs,
		Status: fmt.Sprintf("Generated with %s source(s), %s transition pair(s).",
			humanize.Comma(int64(stats.Sources)), humanize.Comma(int64(pairs))),
	}
	if seeded {
		resp.Seed = &seed
	}
	if g.usage != nil {
		if err = g.usage.Record(r.Context(), clientIP(g.cm, r), r.UserAgent(), len(text)); err != nil {
			g.logger.Warn("Failed to record generation usage", "error", err)
		}
	}
	g.logger.Info("Text generated",
		slog.Int("sources", stats.Sources),
		slog.Int("pairs", pairs),
		slog.Int("max_tokens", maxTokens),
		slog.Bool("seeded", seeded),
	)
	respondWithJSON(w, http.StatusOK, resp)
}
