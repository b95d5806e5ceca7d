package corpus

import (
	"bytes"
	"context"
	"database/sql"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/CTAG07/trigram/pkg/trigram"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// setupTestStore creates a new SQLite database in a temp dir and a Store for testing.
// It uses t.Cleanup to ensure resources are released.
func setupTestStore(t *testing.T) (*sql.DB, *Store) {
	t.Helper()
	dbFile := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", dbFile+"?_pragma=journal_mode(WAL)")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, SetupSchema(db))
	// Calling it twice must be harmless.
	require.NoError(t, SetupSchema(db))

	s, err := NewStore(db)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return db, s
}

func TestAddAndListSources(t *testing.T) {
	_, s := setupTestStore(t)
	ctx := context.Background()

	first, err := s.AddSource(ctx, "rhyme", "  I wish I may I wish I might \n")
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "I wish I may I wish I might", first.Text, "text is trimmed")

	second, err := s.AddSource(ctx, "", "I wish I could")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	sources, err := s.Sources(ctx)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, first.ID, sources[0].ID)
	assert.Equal(t, "rhyme", sources[0].Label)
	assert.Equal(t, second.ID, sources[1].ID)
	assert.Equal(t, first.CreatedAt, sources[0].CreatedAt)

	got, err := s.Source(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestAddSource_Empty(t *testing.T) {
	_, s := setupTestStore(t)
	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := s.AddSource(context.Background(), "empty", text)
		assert.ErrorIs(t, err, trigram.ErrInvalidArgument)
	}
	stats, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Sources)
}

func TestRemoveAndClear(t *testing.T) {
	_, s := setupTestStore(t)
	ctx := context.Background()

	a, err := s.AddSource(ctx, "a", "one two three")
	require.NoError(t, err)
	_, err = s.AddSource(ctx, "b", "four five six")
	require.NoError(t, err)

	require.NoError(t, s.RemoveSource(ctx, a.ID))
	assert.ErrorIs(t, s.RemoveSource(ctx, a.ID), ErrSourceNotFound)
	_, err = s.Source(ctx, a.ID)
	assert.ErrorIs(t, err, ErrSourceNotFound)

	sources, err := s.Sources(ctx)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "b", sources[0].Label)

	require.NoError(t, s.Clear(ctx))
	sources, err = s.Sources(ctx)
	require.NoError(t, err)
	assert.Empty(t, sources)
}

func TestBuild(t *testing.T) {
	_, s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.AddSource(ctx, "", "I wish I may I wish I might")
	require.NoError(t, err)
	_, err = s.AddSource(ctx, "", "I wish I could")
	require.NoError(t, err)

	g, err := s.Build(ctx, trigram.WithSeed(2))
	require.NoError(t, err)
	assert.False(t, g.Finalized())

	transitions := g.Transitions()
	require.Len(t, transitions, 4)
	assert.Equal(t, [2]string{"wish", "I"}, transitions[1].Pair)
	assert.Equal(t, []string{"may", "might", "could"}, transitions[1].NextTokens)

	g.Finalize()
	output, err := g.Generate(trigram.WithMaxTokens(100))
	require.NoError(t, err)
	assert.Equal(t, "I may I wish I may I wish I might", output)
}

func TestBuild_Empty(t *testing.T) {
	_, s := setupTestStore(t)
	g, err := s.Build(context.Background())
	require.NoError(t, err)
	g.Finalize()

	output, err := g.Generate()
	require.NoError(t, err)
	assert.Empty(t, output)
}

func TestStats(t *testing.T) {
	_, s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.AddSource(ctx, "", "mökki on järven rannalla")
	require.NoError(t, err)
	_, err = s.AddSource(ctx, "", "abc def ghi")
	require.NoError(t, err)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Sources)
	assert.Equal(t, int64(len("mökki on järven rannalla")+len("abc def ghi")), stats.TotalBytes)
}

func TestExportImport(t *testing.T) {
	_, src := setupTestStore(t)
	ctx := context.Background()

	_, err := src.AddSource(ctx, "first", "I wish I may I wish I might")
	require.NoError(t, err)
	_, err = src.AddSource(ctx, "second", "I wish I could")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, src.Export(ctx, &buf))
	assert.Contains(t, buf.String(), `"label": "first"`)

	_, dst := setupTestStore(t)
	_, err = dst.AddSource(ctx, "existing", "already here before import")
	require.NoError(t, err)

	n, err := dst.Import(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	sources, err := dst.Sources(ctx)
	require.NoError(t, err)
	require.Len(t, sources, 3)
	assert.Equal(t, []string{"existing", "first", "second"}, []string{sources[0].Label, sources[1].Label, sources[2].Label})
}

func TestImport_Atomic(t *testing.T) {
	_, s := setupTestStore(t)
	ctx := context.Background()

	// The second source is empty, so nothing may be imported.
	payload := `{"sources":[{"label":"ok","text":"one two three"},{"label":"bad","text":"  "}]}`
	_, err := s.Import(ctx, strings.NewReader(payload))
	require.ErrorIs(t, err, trigram.ErrInvalidArgument)

	sources, err := s.Sources(ctx)
	require.NoError(t, err)
	assert.Empty(t, sources)

	_, err = s.Import(ctx, strings.NewReader("{not json"))
	assert.ErrorIs(t, err, trigram.ErrInvalidArgument)
}

func TestImport_LogsOnlyAfterCommit(t *testing.T) {
	_, s := setupTestStore(t)
	ctx := context.Background()
	var logs bytes.Buffer
	s.SetLogger(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))

	payload := `{"sources":[{"label":"ok","text":"one two three"},{"label":"bad","text":""}]}`
	_, err := s.Import(ctx, strings.NewReader(payload))
	require.Error(t, err)
	assert.Empty(t, logs.String(), "a rolled back import must not log")

	payload = `{"sources":[{"label":"a","text":"one two three"},{"label":"b","text":"four five six"}]}`
	n, err := s.Import(ctx, strings.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NotContains(t, logs.String(), "Source added")
	assert.Equal(t, 1, strings.Count(logs.String(), "Sources imported"))

	logs.Reset()
	_, err = s.AddSource(ctx, "c", "seven eight nine")
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "Source added")
}

func TestExamples(t *testing.T) {
	_, s := setupTestStore(t)
	ctx := context.Background()

	examples := Examples()
	require.Len(t, examples, 3)
	for _, ex := range examples {
		assert.NotEmpty(t, ex.Label)
		assert.NotEmpty(t, ex.Text)
	}

	src, err := s.AddExample(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Multilingual sample", src.Label)

	_, err = s.AddExample(ctx, 3)
	assert.ErrorIs(t, err, trigram.ErrInvalidArgument)
	_, err = s.AddExample(ctx, -1)
	assert.ErrorIs(t, err, trigram.ErrInvalidArgument)

	// Every example produces a usable model.
	for i := range examples {
		_, err = s.AddExample(ctx, i)
		require.NoError(t, err)
	}
	g, err := s.Build(ctx, trigram.WithSeed(7))
	require.NoError(t, err)
	g.Finalize()
	output, err := g.Generate(trigram.WithMaxTokens(60))
	require.NoError(t, err)
	assert.NotEmpty(t, output)
}
