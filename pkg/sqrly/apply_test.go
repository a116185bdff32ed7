package sqrly

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedClient fails scripts listed in failures and records the rest.
type scriptedClient struct {
	BaseClient
	failures map[string]error
	ran      []string
}

func (c *scriptedClient) RunSqlScript(ctx context.Context, script string) error {
	if err, ok := c.failures[script]; ok {
		return err
	}
	c.ran = append(c.ran, script)
	return nil
}

func (c *scriptedClient) Close() error { return nil }

func TestApplierLogsPositionAndContinues(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.sql")
	good := filepath.Join(dir, "good.sql")
	touch(t, broken, "CREATE TABLE x (id SERAIL);")
	touch(t, good, "CREATE TABLE y (id serial);")

	client := &scriptedClient{failures: map[string]error{
		"CREATE TABLE x (id SERAIL);": &pgconn.PgError{
			Severity: "ERROR",
			Code:     pgerrcode.UndefinedObject,
			Message:  `type "serail" does not exist`,
			Position: 15,
		},
	}}

	var logs bytes.Buffer
	applier := &Applier{Client: client, Logger: zerolog.New(&logs)}

	applier.Apply(context.Background(), broken)
	applier.Apply(context.Background(), good)

	assert.Contains(t, logs.String(), `"position":15`)
	assert.Contains(t, logs.String(), `"code":"42704"`)
	assert.Contains(t, logs.String(), `type \"serail\" does not exist`)
	assert.Equal(t, []string{"CREATE TABLE y (id serial);"}, client.ran)
}

func TestApplierSqlite(t *testing.T) {
	db, client := openSqlite(t)
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.sql")
	good := filepath.Join(dir, "good.sql")
	touch(t, broken, "CREATE TABL oops;")
	touch(t, good, "CREATE TABLE widgets (id INTEGER);")

	var logs bytes.Buffer
	applier := &Applier{Client: client, Logger: zerolog.New(&logs)}
	applier.Apply(context.Background(), broken)
	applier.Apply(context.Background(), good)

	assert.Contains(t, logs.String(), "applying SQL file failed")
	assert.Contains(t, logs.String(), "file applied")
	assert.True(t, tableExists(t, db, "widgets"))
}

func TestApplierDryRun(t *testing.T) {
	client := &scriptedClient{}
	path := filepath.Join(t.TempDir(), "a.sql")
	touch(t, path, "select 1;")

	var logs bytes.Buffer
	applier := &Applier{Client: client, DryRun: true, Logger: zerolog.New(&logs)}
	applier.Apply(context.Background(), path)

	assert.Empty(t, client.ran)
	assert.Contains(t, logs.String(), "would apply file")
}

func TestApplierMissingFile(t *testing.T) {
	client := &scriptedClient{}
	var logs bytes.Buffer
	applier := &Applier{Client: client, Logger: zerolog.New(&logs)}

	require.NotPanics(t, func() {
		applier.Apply(context.Background(), filepath.Join(t.TempDir(), "gone.sql"))
	})
	assert.Contains(t, logs.String(), `"level":"error"`)
	assert.Empty(t, client.ran)
}
