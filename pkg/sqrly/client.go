package sqrly

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver
)

var (
	// ErrFunctionNotFound is returned when a function lookup matches nothing.
	ErrFunctionNotFound = errors.New("function not found")

	// ErrUnsupported is returned when a driver cannot serve an operation.
	ErrUnsupported = errors.New("operation not supported by driver")
)

// Client runs SQL against the development database.
type Client interface {
	// RunSqlScript executes script as a single multi-statement script.
	RunSqlScript(ctx context.Context, script string) error
	// FunctionDefinition returns the CREATE statement for the named function.
	FunctionDefinition(ctx context.Context, name string) (string, error)
	// Close releases the underlying connection.
	Close() error
}

// NewClient creates a new Client based on the driver name and database connection.
func NewClient(driver string, db *sql.DB) (Client, error) {
	switch strings.ToLower(driver) {
	case "pg":
		return NewPostgresClient(db), nil
	case "sqlite3":
		return NewSqlite3Client(db), nil
	default:
		return nil, fmt.Errorf("db driver '%s' not supported. Must be one of: sqlite3 or pg", driver)
	}
}

// Open opens a single shared connection for driver ("pg" or "sqlite3") and
// verifies it with a ping.
func Open(ctx context.Context, driver, dsn string) (Client, error) {
	var sqlDriver string
	switch strings.ToLower(driver) {
	case "pg":
		sqlDriver = "pgx"
	case "sqlite3":
		sqlDriver = "sqlite3"
	default:
		return nil, fmt.Errorf("db driver '%s' not supported. Must be one of: sqlite3 or pg", driver)
	}

	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Scripts may change session state (search_path, temp tables), so every
	// statement has to go through the same connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return NewClient(driver, db)
}

// BaseClient provides the common implementation.
type BaseClient struct {
	DB *sql.DB
}

// RunSqlScript executes a SQL script.
func (c *BaseClient) RunSqlScript(ctx context.Context, script string) error {
	_, err := c.DB.ExecContext(ctx, script)
	return err
}

// FunctionDefinition is not available for every driver.
func (c *BaseClient) FunctionDefinition(ctx context.Context, name string) (string, error) {
	return "", fmt.Errorf("function import: %w", ErrUnsupported)
}

// Close closes the database handle.
func (c *BaseClient) Close() error {
	return c.DB.Close()
}

// ApplyError describes a SQL file that failed to apply.
type ApplyError struct {
	Path string
	// Position is the 1-based character offset reported by the server, or 0.
	Position int
	// Code is the SQLSTATE, when the driver reports one.
	Code    string
	Message string
	Err     error
}

func (e *ApplyError) Error() string {
	if e.Position > 0 {
		return fmt.Sprintf("applying %s failed at position %d: %s", e.Path, e.Position, e.Message)
	}
	return fmt.Sprintf("applying %s failed: %s", e.Path, e.Message)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}

// ApplyFile reads path and runs it as one script.
func ApplyFile(ctx context.Context, c Client, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := c.RunSqlScript(ctx, string(data)); err != nil {
		return newApplyError(path, err)
	}
	return nil
}
