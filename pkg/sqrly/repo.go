package sqrly

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MigrationsSegment marks a path as Hasura migration output. Any path
// containing it is a migration change, never a source change.
const MigrationsSegment = "migrations/"

// UpMigrationSuffix is the suffix of the apply half of a Hasura migration pair.
const UpMigrationSuffix = "/up.sql"

// ModifiedSQLFiles returns the absolute paths of .sql files under sourcePath
// that differ from baseline, including untracked files. Migration output,
// files outside sourcePath, and files no longer on disk are left out.
//
// Paths come back in discovery order: diff entries first, then untracked
// entries.
func ModifiedSQLFiles(ctx context.Context, vc VersionControl, sourcePath, baseline string) ([]string, error) {
	root, changed, err := changedFiles(ctx, vc, sourcePath, baseline, isSQLFile)
	if err != nil {
		return nil, err
	}

	scope, err := normalizeDir(sourcePath)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, rel := range changed {
		if isMigrationPath(rel) {
			continue
		}
		abs := filepath.Join(root, filepath.FromSlash(rel))
		if !within(scope, abs) {
			continue
		}
		if !exists(abs) {
			continue
		}
		files = append(files, abs)
	}
	return files, nil
}

// MigrationFiles returns the absolute paths of changed Hasura up.sql
// migrations in the repository containing hasuraDir. Unlike
// ModifiedSQLFiles the result is not restricted to hasuraDir.
func MigrationFiles(ctx context.Context, vc VersionControl, hasuraDir, baseline string) ([]string, error) {
	root, changed, err := changedFiles(ctx, vc, hasuraDir, baseline, isUpMigration)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, rel := range changed {
		if !isMigrationPath(rel) {
			continue
		}
		files = append(files, filepath.Join(root, filepath.FromSlash(rel)))
	}
	return files, nil
}

// changedFiles resolves the repository root for dir and returns the
// de-duplicated union of diff and untracked paths accepted by keep.
func changedFiles(ctx context.Context, vc VersionControl, dir, baseline string, keep func(string) bool) (string, []string, error) {
	root, err := vc.Root(ctx, dir)
	if err != nil {
		return "", nil, fmt.Errorf("failed to resolve repository root for %s: %w", dir, err)
	}

	diff, err := vc.Diff(ctx, root, baseline)
	if err != nil {
		return "", nil, fmt.Errorf("failed to diff against %s: %w", baseline, err)
	}

	untracked, err := vc.Untracked(ctx, root)
	if err != nil {
		return "", nil, fmt.Errorf("failed to list untracked files: %w", err)
	}

	seen := make(map[string]struct{})
	var changed []string
	for _, group := range [][]string{diff, untracked} {
		for _, p := range group {
			if !keep(p) {
				continue
			}
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			changed = append(changed, p)
		}
	}
	return root, changed, nil
}

func isSQLFile(p string) bool {
	return strings.HasSuffix(strings.ToLower(p), ".sql")
}

func isUpMigration(p string) bool {
	return strings.HasSuffix(p, UpMigrationSuffix)
}

func isMigrationPath(p string) bool {
	return strings.Contains(filepath.ToSlash(p), MigrationsSegment)
}

// normalizeDir returns the absolute, symlink-free form of dir so it compares
// cleanly against the root git reports.
func normalizeDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return filepath.Clean(abs), nil
}

// within reports whether path is dir or lies beneath it.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
