package corpus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/CTAG07/trigram/pkg/trigram"
	"github.com/google/uuid"
)

// ErrSourceNotFound is returned when a source id does not exist.
var ErrSourceNotFound = errors.New("source not found")

// Source is one stored source text.
type Source struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// SetupSchema initializes the sources table in the provided database. It is
// idempotent and safe to call on an already-initialized database.
func SetupSchema(db *sql.DB) error {
	const schemaSources = `
CREATE TABLE IF NOT EXISTS corpus_sources (
    position   INTEGER PRIMARY KEY AUTOINCREMENT,
    source_id  TEXT    NOT NULL UNIQUE,
    label      TEXT    NOT NULL,
    body       TEXT    NOT NULL,
    created_at INTEGER NOT NULL
);
`
	if _, err := db.Exec(schemaSources); err != nil {
		return fmt.Errorf("could not create sources schema: %w", err)
	}
	return nil
}

// Store holds the database connection and prepared statements for the
// sources table. All methods are safe for concurrent use.
type Store struct {
	db         *sql.DB
	stmtInsert *sql.Stmt
	stmtList   *sql.Stmt
	stmtGet    *sql.Stmt
	stmtDelete *sql.Stmt
	stmtClear  *sql.Stmt
	stmtBodies *sql.Stmt
	stmtStats  *sql.Stmt
	logger     *slog.Logger
}

// NewStore prepares all statements used by the Store. SetupSchema must have
// been called on db first.
func NewStore(db *sql.DB) (*Store, error) {
	stmtInsert, err := db.Prepare(`INSERT INTO corpus_sources (source_id, label, body, created_at) VALUES (?, ?, ?, ?);`)
	if err != nil {
		return nil, err
	}

	stmtList, err := db.Prepare(`SELECT source_id, label, body, created_at FROM corpus_sources ORDER BY position;`)
	if err != nil {
		return nil, err
	}

	stmtGet, err := db.Prepare(`SELECT source_id, label, body, created_at FROM corpus_sources WHERE source_id = ?;`)
	if err != nil {
		return nil, err
	}

	stmtDelete, err := db.Prepare(`DELETE FROM corpus_sources WHERE source_id = ?;`)
	if err != nil {
		return nil, err
	}

	stmtClear, err := db.Prepare(`DELETE FROM corpus_sources;`)
	if err != nil {
		return nil, err
	}

	stmtBodies, err := db.Prepare(`SELECT body FROM corpus_sources ORDER BY position;`)
	if err != nil {
		return nil, err
	}

	stmtStats, err := db.Prepare(`SELECT COUNT(*), coalesce(SUM(length(CAST(body AS BLOB))), 0) FROM corpus_sources;`)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:         db,
		stmtInsert: stmtInsert,
		stmtList:   stmtList,
		stmtGet:    stmtGet,
		stmtDelete: stmtDelete,
		stmtClear:  stmtClear,
		stmtBodies: stmtBodies,
		stmtStats:  stmtStats,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// Close releases all prepared statements held by the Store.
func (s *Store) Close() {
	_ = s.stmtInsert.Close()
	_ = s.stmtList.Close()
	_ = s.stmtGet.Close()
	_ = s.stmtDelete.Close()
	_ = s.stmtClear.Close()
	_ = s.stmtBodies.Close()
	_ = s.stmtStats.Close()
}

// SetLogger sets the logger for the Store. By default, all logs are discarded.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// AddSource appends a source. Text that is empty after trimming whitespace
// is rejected with trigram.ErrInvalidArgument.
func (s *Store) AddSource(ctx context.Context, label, text string) (Source, error) {
	src, err := s.addSource(ctx, s.stmtInsert, label, text)
	if err != nil {
		return Source{}, err
	}
	s.logger.InfoContext(ctx, "Source added",
		slog.String("source_id", src.ID),
		slog.String("label", src.Label),
		slog.Int("bytes", len(src.Text)),
	)
	return src, nil
}

// addSource validates and inserts one source through stmt without logging.

func (s *Store) addSource(ctx context.Context, stmt *sql.Stmt, label, text string) (Source, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Source{}, fmt.Errorf("%w: source text is empty", trigram.ErrInvalidArgument)
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return Source{}, fmt.Errorf("could not generate source id: %w", err)
	}

	src := Source{
		ID:        id.String(),
		Label:     label,
		Text:      text,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	if _, err = stmt.ExecContext(ctx, src.ID, src.Label, src.Text, src.CreatedAt.Unix()); err != nil {
		return Source{}, fmt.Errorf("could not insert source: %w", err)
	}
	return src, nil
}

// Sources returns all stored sources in the order they were added.
func (s *Store) Sources(ctx context.Context) ([]Source, error) {
	rows, err := s.stmtList.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not query sources: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	sources := make([]Source, 0)
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return sources, nil
}

// Source returns a single source by id.
func (s *Store) Source(ctx context.Context, id string) (Source, error) {
	src, err := scanSource(s.stmtGet.QueryRowContext(ctx, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Source{}, fmt.Errorf("%w: %s", ErrSourceNotFound, id)
	}
	return src, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSource(row scanner) (Source, error) {
	var src Source
	var created int64
	if err := row.Scan(&src.ID, &src.Label, &src.Text, &created); err != nil {
		return Source{}, err
	}
	src.CreatedAt = time.Unix(created, 0).UTC()
	return src, nil
}

// RemoveSource deletes a source by id.
func (s *Store) RemoveSource(ctx context.Context, id string) error {
	res, err := s.stmtDelete.ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("could not remove source %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrSourceNotFound, id)
	}
	s.logger.InfoContext(ctx, "Source removed", slog.String("source_id", id))
	return nil
}

// Clear deletes every source.
func (s *Store) Clear(ctx context.Context) error {
	res, err := s.stmtClear.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("could not clear sources: %w", err)
	}
	removed, _ := res.RowsAffected()
	s.logger.InfoContext(ctx, "Sources cleared", slog.Int64("sources_removed", removed))
	return nil
}

// Build returns a new, unfinalized generator with every stored source added
// in order.
func (s *Store) Build(ctx context.Context, opts ...trigram.Option) (*trigram.Generator, error) {
	rows, err := s.stmtBodies.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not query sources: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	g := trigram.NewGenerator(opts...)
	var count int
	for rows.Next() {
		var body string
		if err = rows.Scan(&body); err != nil {
			return nil, err
		}
		if err = g.AddSource(body); err != nil {
			return nil, err
		}
		count++
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	stats := g.Stats()
	s.logger.DebugContext(ctx, "Generator built from sources",
		slog.Int("sources", count),
		slog.Int("pairs", stats.Pairs),
		slog.Int("vocab_size", stats.VocabSize),
	)
	return g, nil
}

// Stats holds aggregated statistics for the stored sources.
type Stats struct {
	Sources    int   `json:"sources"`
	TotalBytes int64 `json:"total_bytes"`
}

// Stats returns the number of stored sources and their total size in bytes.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	if err := s.stmtStats.QueryRowContext(ctx).Scan(&stats.Sources, &stats.TotalBytes); err != nil {
		return Stats{}, fmt.Errorf("could not query source stats: %w", err)
	}
	return stats, nil
}
