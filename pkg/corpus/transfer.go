package corpus

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/CTAG07/trigram/pkg/trigram"
)

// ExportedSource is the serializable representation of a stored source.
type ExportedSource struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// ExportedCorpus is the serializable representation of all stored sources,
// used for JSON-based import and export.
type ExportedCorpus struct {
	Sources []ExportedSource `json:"sources"`
}

// Export writes every source, in order, as JSON to w.
func (s *Store) Export(ctx context.Context, w io.Writer) error {
	sources, err := s.Sources(ctx)
	if err != nil {
		return fmt.Errorf("could not load sources for export: %w", err)
	}

	exported := ExportedCorpus{Sources: make([]ExportedSource, 0, len(sources))}
	for _, src := range sources {
		exported.Sources = append(exported.Sources, ExportedSource{Label: src.Label, Text: src.Text})
	}

	s.logger.InfoContext(ctx, "Sources exported", slog.Int("sources_exported", len(sources)))

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(exported)
}

// Import reads a JSON corpus from r and appends its sources after the
// existing ones, in file order. The operation is transactional: either every
// source is added or none is.
func (s *Store) Import(ctx context.Context, r io.Reader) (int, error) {
	var imported ExportedCorpus
	if err := json.NewDecoder(r).Decode(&imported); err != nil {
		return 0, fmt.Errorf("%w: failed to decode json corpus: %v", trigram.ErrInvalidArgument, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("could not begin transaction for import: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	stmtInsert := tx.StmtContext(ctx, s.stmtInsert)
	for i, src := range imported.Sources {
		if _, err = s.addSource(ctx, stmtInsert, src.Label, src.Text); err != nil {
			return 0, fmt.Errorf("failed to import source %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("could not commit import: %w", err)
	}

	s.logger.InfoContext(ctx, "Sources imported", slog.Int("sources_imported", len(imported.Sources)))
	return len(imported.Sources), nil
}
