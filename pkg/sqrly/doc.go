// SPDX-License-Identifier: MIT

// Package sqrly keeps a directory of hand-edited SQL source files in sync
// with a development database and with Hasura migrations.
//
// SQL functions, views and triggers are easiest to maintain as ordinary
// files. sqrly applies those files to a dev database as they change, and
// when the work is done it concatenates every changed file into one
// Hasura migration so the change ships through the normal pipeline.
//
// # Install
//
//	go install github.com/bcomnes/sqrly/cmd/sqrly@latest
//
// # Quick start
//
//	import (
//	    "context"
//
//	    "github.com/bcomnes/sqrly/pkg/sqrly"
//	    "github.com/rs/zerolog"
//	)
//
//	func main() {
//	    ctx := context.Background()
//	    client, _ := sqrly.Open(ctx, "pg", os.Getenv("DATABASE_URL"))
//	    defer client.Close()
//
//	    w, _ := sqrly.NewWatcher("sql/", zerolog.Nop())
//	    applier := &sqrly.Applier{Client: client, Logger: zerolog.Nop()}
//	    w.Run(ctx, applier.Apply)
//	}
//
// # Change detection
//
// A file counts as changed when git reports it as differing from a
// baseline commit (HEAD by default) or as untracked and not ignored.
// ModifiedSQLFiles keeps .sql files under the source directory that still
// exist and are not themselves migrations. MigrationFiles keeps every
// changed up.sql under a migrations/ directory anywhere in the repository.
//
// # Marker format
//
// An artifact opens with a header naming MarkerFormatVersion, and each
// file concatenated into it is preceded by a marker line holding its base
// name:
//
//	-- sqrly marker format: 1
//	-- create_users.sql
//	CREATE TABLE users (...);
//
// Lint rejects migrations whose header names a different version.
// Migrations without a header are read as the current format.
//
// Lint relies on the marker to prove a changed file made it into a
// migration. Two files with the same base name in different directories
// share a marker.
//
// # Programmatic API
//
//	ModifiedSQLFiles(ctx, vc, path, base)   → []string, error
//	MigrationFiles(ctx, vc, hasuraDir, base) → []string, error
//	(*Packager).CreateMigration(ctx, req)   → *MigrationResult, error
//	Lint(changed, migrations)               → *LintReport, error
//	ImportFunction(ctx, src, name, out)     → int, error
//	(*Watcher).Run(ctx, fn)                 → error
//
// All blocking operations take a context; cancel it to stop a watch.
//
// # CLI
//
// The sqrly command wraps these operations as watch, migrate, import and
// lint. Run `sqrly --help` for flags. Lint exits with status 1 when a
// changed file is missing from every changed migration.
package sqrly
