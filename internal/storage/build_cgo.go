//go:build cgo_sqlite

package storage

// Compiled with the cgo_sqlite tag. FTS5 must be enabled in mattn/go-sqlite3:
//
//	CGO_ENABLED=1 go build -tags "cgo_sqlite,sqlite_fts5" ./...

import (
	"database/sql"

	"github.com/mattn/go-sqlite3"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite3_doccontext"

	// BuildMode describes the current build configuration
	BuildMode = "cgo"
)

func init() {
	sql.Register(DriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc(similarityFunc, func(a, b []byte) float64 {
				return cosineSimilarity(deserializeVector(a), deserializeVector(b))
			}, true)
		},
	})
}
