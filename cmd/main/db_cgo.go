//go:build cgo_sqlite

package main

import (
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// initDB opens the cgo SQLite driver. The mattn driver does not understand
// modernc's _pragma parameters, so they are translated to its own names.
func initDB(dataSource string) (*sql.DB, error) {
	return sql.Open("sqlite3", translatePragmas(dataSource))
}

func translatePragmas(dataSource string) string {
	r := strings.NewReplacer(
		"_pragma=journal_mode(WAL)", "_journal_mode=WAL",
		"_pragma=busy_timeout(5000)", "_busy_timeout=5000",
	)
	return r.Replace(dataSource)
}
