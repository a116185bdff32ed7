package sqrly

import (
	"database/sql"
)

// Sqlite3Client implements Client for SQLite and embeds BaseClient.
// Function import is not available; SQLite has no stored functions.
type Sqlite3Client struct {
	BaseClient
}

// NewSqlite3Client creates a new Sqlite3Client.
func NewSqlite3Client(db *sql.DB) *Sqlite3Client {
	return &Sqlite3Client{
		BaseClient: BaseClient{
			DB: db,
		},
	}
}
