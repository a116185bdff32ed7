// cli_integration_test.go
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cliBinary string

// TestMain builds the CLI binary once for every test in the package.
func TestMain(m *testing.M) {
	binaryPath := filepath.Join(os.TempDir(), "sqrly-integration")
	buildCmd := exec.Command("go", "build", "-o", binaryPath, "../")
	buildCmd.Stdout = os.Stdout
	buildCmd.Stderr = os.Stderr
	if err := buildCmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to build sqrly CLI binary: %v\n", err)
		os.Exit(1)
	}
	cliBinary = binaryPath

	code := m.Run()

	os.Remove(cliBinary)
	os.Exit(code)
}

// helperRun runs the built CLI binary in dir with the provided arguments and extra environment variables.
func helperRun(dir string, args []string, extraEnv ...string) (string, error) {
	cmd := exec.Command(cliBinary, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "DATABASE_URL=", "SQRLY_DB=", "SQRLY_LOG_PRETTY=false")
	cmd.Env = append(cmd.Env, extraEnv...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// newRepo creates a git repository with one committed SQL file and a hasura project.
func newRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not installed")
	}
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	git(t, dir, "init", "-q")
	writeFile(t, filepath.Join(dir, "sql", "users.sql"), "CREATE TABLE users (id INTEGER);\n")
	writeFile(t, filepath.Join(dir, "hasura", "config.yaml"), "version: 3\n")
	git(t, dir, "add", "-A")
	git(t, dir, "commit", "-q", "-m", "initial")
	return dir
}

func git(t *testing.T, dir string, args ...string) {
	t.Helper()
	base := []string{"-C", dir, "-c", "user.email=test@example.com", "-c", "user.name=test", "-c", "commit.gpgsign=false"}
	out, err := exec.Command("git", append(base, args...)...).CombinedOutput()
	require.NoError(t, err, string(out))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// TestCLINoChanges tests "migrate" on a clean checkout.
func TestCLINoChanges(t *testing.T) {
	dir := newRepo(t)
	out, err := helperRun(dir, []string{"migrate", "--path", "sql", "--hasura-dir", "hasura"})
	if err != nil {
		t.Fatalf("migrate on a clean repo failed: %v; output: %s", err, out)
	}
	assert.Contains(t, out, "No modified SQL files found. Exiting.")
}

// TestCLIMigrateDryRun tests that "migrate --dry-run" prints the same command twice.
func TestCLIMigrateDryRun(t *testing.T) {
	dir := newRepo(t)
	writeFile(t, filepath.Join(dir, "sql", "users.sql"), "CREATE TABLE users (id INTEGER, name TEXT);\n")
	writeFile(t, filepath.Join(dir, "sql", "posts.sql"), "CREATE TABLE posts (id INTEGER);\n")

	args := []string{"migrate", "--dry-run", "--path", "sql", "--hasura-dir", "hasura", "--log-level", "error"}
	first, err := helperRun(dir, args)
	require.NoError(t, err, first)
	second, err := helperRun(dir, args)
	require.NoError(t, err, second)

	assert.Equal(t, first, second)
	assert.Contains(t, first, filepath.Join(dir, "sql", "users.sql"))
	assert.Contains(t, first, filepath.Join(dir, "sql", "posts.sql"))
	assert.Contains(t, first, "hasura migrate create sqrly --sql-from-file '<concatenated-sql>' --database-name default")
}

// TestCLILint tests that "lint" fails until the change is recorded in a migration.
func TestCLILint(t *testing.T) {
	dir := newRepo(t)
	writeFile(t, filepath.Join(dir, "sql", "users.sql"), "CREATE TABLE users (id INTEGER, name TEXT);\n")

	args := []string{"lint", "--path", "sql", "--hasura-dir", "hasura", "--log-level", "error"}
	out, err := helperRun(dir, args)
	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr, out)
	assert.Equal(t, 1, exitErr.ExitCode())
	assert.Contains(t, out, "Found modified files not referenced in migrations:")

	writeFile(t, filepath.Join(dir, "hasura", "migrations", "default", "1700000000000_sqrly", "up.sql"),
		"-- users.sql\nCREATE TABLE users (id INTEGER, name TEXT);\n\n\n")
	out, err = helperRun(dir, args)
	require.NoError(t, err, out)
	assert.Contains(t, out, "All modified files are referenced in migrations.")
}

// TestCLIMissingDB tests that "watch" refuses to start without a connection string.
func TestCLIMissingDB(t *testing.T) {
	dir := newRepo(t)
	out, err := helperRun(dir, []string{"watch", "--path", "sql"})
	require.Error(t, err)
	assert.Contains(t, out, "connection URL must be provided")
}

// TestCLIWatchSqlite tests that "watch" applies a changed file to a SQLite database.
func TestCLIWatchSqlite(t *testing.T) {
	dir := newRepo(t)
	dbFile := filepath.Join(t.TempDir(), "dev.db")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cmd := exec.CommandContext(ctx, cliBinary, "watch", "--path", "sql", "--driver", "sqlite3", "--db", dbFile)
	cmd.Dir = dir
	var output strings.Builder
	cmd.Stdout = &output
	cmd.Stderr = &output
	require.NoError(t, cmd.Start())
	defer func() {
		cancel()
		_ = cmd.Wait()
	}()

	db, err := sql.Open("sqlite3", dbFile)
	require.NoError(t, err)
	defer db.Close()

	// The watcher may not be registered yet; keep touching the file until it is applied.
	require.Eventually(t, func() bool {
		writeFile(t, filepath.Join(dir, "sql", "widgets.sql"), "CREATE TABLE IF NOT EXISTS widgets (id INTEGER);\n")
		var count int
		err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='widgets'`).Scan(&count)
		return err == nil && count == 1
	}, 10*time.Second, 100*time.Millisecond, "output: %s", &output)
}
