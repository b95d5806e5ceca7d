package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
)

const usageSchema = `
CREATE TABLE IF NOT EXISTS usage_client (
    client        TEXT    PRIMARY KEY,
    generations   INTEGER NOT NULL DEFAULT 1,
    output_bytes  INTEGER NOT NULL DEFAULT 0,
    first_seen    INTEGER NOT NULL,
    last_seen     INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS usage_user_agent (
    user_agent    TEXT    PRIMARY KEY,
    generations   INTEGER NOT NULL DEFAULT 1,
    output_bytes  INTEGER NOT NULL DEFAULT 0,
    first_seen    INTEGER NOT NULL,
    last_seen     INTEGER NOT NULL
);
`

const defaultUsageLimit = 100

// UsageSummary provides a high-level overview of all generations served.
type UsageSummary struct {
	TotalGenerations int64  `json:"total_generations"`
	TotalOutput      string `json:"total_output"`
	UniqueClients    int64  `json:"unique_clients"`
	UniqueUserAgents int64  `json:"unique_user_agents"`
}

// UsageEntry is one row of a top clients or top user agents listing.
type UsageEntry struct {
	Key         string    `json:"key"`
	Generations int64     `json:"generations"`
	OutputBytes int64     `json:"output_bytes"`
	FirstSeen   time.Time `json:"first_seen"`
	LastSeen    time.Time `json:"last_seen"`
	LastSeenAgo string    `json:"last_seen_ago"`
}

// UsageAPI records generation requests and serves the aggregated counts.
type UsageAPI struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

func setupUsageSchema(db *sql.DB) error {
	_, err := db.Exec(usageSchema)
	return err
}

// NewUsageAPI creates a new instance of the UsageAPI.
func NewUsageAPI(db *sql.DB, logger *slog.Logger) *UsageAPI {
	return &UsageAPI{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// RegisterRoutes sets up the routing for all /api/usage endpoints.
func (u *UsageAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/usage/summary", u.handleSummary)
	mux.HandleFunc("/api/usage/top_clients", u.handleTop("usage_client"))
	mux.HandleFunc("/api/usage/top_user_agents", u.handleTop("usage_user_agent"))
}

// Record counts one generation for the client and user agent in a single
// transaction.
func (u *UsageAPI) Record(ctx context.Context, client, userAgent string, outputBytes int) error {
	now := u.now().Unix()

	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	_, err = tx.ExecContext(ctx, `
        INSERT INTO usage_client (client, output_bytes, first_seen, last_seen) VALUES (?, ?, ?, ?)
        ON CONFLICT(client) DO UPDATE SET generations = generations + 1, output_bytes = output_bytes + excluded.output_bytes, last_seen = excluded.last_seen
    `, client, outputBytes, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert usage_client: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
        INSERT INTO usage_user_agent (user_agent, output_bytes, first_seen, last_seen) VALUES (?, ?, ?, ?)
        ON CONFLICT(user_agent) DO UPDATE SET generations = generations + 1, output_bytes = output_bytes + excluded.output_bytes, last_seen = excluded.last_seen
    `, userAgent, outputBytes, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert usage_user_agent: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit usage transaction: %w", err)
	}
	return nil
}

func (u *UsageAPI) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !requireScope(w, r, scopeUsageRead) {
		return
	}

	var summary UsageSummary
	var totalBytes int64
	err := u.db.QueryRowContext(r.Context(),
		"SELECT COALESCE(SUM(generations), 0), COALESCE(SUM(output_bytes), 0), COUNT(*) FROM usage_client").
		Scan(&summary.TotalGenerations, &totalBytes, &summary.UniqueClients)
	if err == nil {
		err = u.db.QueryRowContext(r.Context(), "SELECT COUNT(*) FROM usage_user_agent").Scan(&summary.UniqueUserAgents)
	}
	if err != nil {
		u.logger.Error("Failed to query usage summary", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Database error: %v", err))
		return
	}
	summary.TotalOutput = humanize.Bytes(uint64(totalBytes))
	respondWithJSON(w, http.StatusOK, summary)
}

// handleTop lists the busiest rows of table. table is always one of the two
// schema constants, never user input.
func (u *UsageAPI) handleTop(table string) http.HandlerFunc {
	keyColumn := "client"
	if table == "usage_user_agent" {
		keyColumn = "user_agent"
	}
	query := fmt.Sprintf(
		"SELECT %s, generations, output_bytes, first_seen, last_seen FROM %s ORDER BY generations DESC, %s ASC LIMIT ?",
		keyColumn, table, keyColumn)

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", "GET")
			respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		if !requireScope(w, r, scopeUsageRead) {
			return
		}

		limit := defaultUsageLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = n
		}

		rows, err := u.db.QueryContext(r.Context(), query, limit)
		if err != nil {
			u.logger.Error("Failed to query usage", "table", table, "error", err)
			respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Database error: %v", err))
			return
		}
		defer func(rows *sql.Rows) {
			_ = rows.Close()
		}(rows)

		now := u.now()
		results := []UsageEntry{}
		for rows.Next() {
			var entry UsageEntry
			var first, last int64
			if err = rows.Scan(&entry.Key, &entry.Generations, &entry.OutputBytes, &first, &last); err != nil {
				u.logger.Error("Failed to scan usage row", "table", table, "error", err)
				continue
			}
			entry.FirstSeen = time.Unix(first, 0).UTC()
			entry.LastSeen = time.Unix(last, 0).UTC()
			entry.LastSeenAgo = humanize.RelTime(entry.LastSeen, now, "ago", "from now")
			results = append(results, entry)
		}
		if err = rows.Err(); err != nil {
			u.logger.Error("Failed to iterate usage rows", "table", table, "error", err)
			respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Database error: %v", err))
			return
		}
		respondWithJSON(w, http.StatusOK, results)
	}
}
