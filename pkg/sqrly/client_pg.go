package sqrly

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

const functionDefinitionSql = `select pg_get_functiondef(oid) from pg_proc where proname = $1`

// PostgresClient implements Client for PostgreSQL and embeds BaseClient.
type PostgresClient struct {
	BaseClient
}

// NewPostgresClient creates a new PostgresClient.
func NewPostgresClient(db *sql.DB) *PostgresClient {
	return &PostgresClient{
		BaseClient: BaseClient{
			DB: db,
		},
	}
}

// FunctionDefinition looks the function up in pg_proc. Overloaded functions
// share a name; the first row wins.
func (c *PostgresClient) FunctionDefinition(ctx context.Context, name string) (string, error) {
	var def string
	err := c.DB.QueryRowContext(ctx, functionDefinitionSql, name).Scan(&def)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", fmt.Errorf("%w: %s", ErrFunctionNotFound, name)
	case isWrongObjectType(err):
		return "", fmt.Errorf("%s is not a plain function (aggregates and window functions cannot be imported): %w", name, err)
	case err != nil:
		return "", fmt.Errorf("failed to query function %s: %w", name, err)
	}
	return def, nil
}

func isWrongObjectType(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.WrongObjectType
}

// newApplyError lifts position and SQLSTATE out of a Postgres error.
func newApplyError(path string, err error) *ApplyError {
	applyErr := &ApplyError{
		Path:    path,
		Message: err.Error(),
		Err:     err,
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		applyErr.Position = int(pgErr.Position)
		applyErr.Code = pgErr.Code
		applyErr.Message = pgErr.Message
	}
	return applyErr
}
