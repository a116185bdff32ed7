package sqrly

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// MigrationRecord is a generated migration file read from disk.
type MigrationRecord struct {
	// Filename is the path to the up.sql file.
	Filename string
	// Content is the file's text.
	Content string
}

// SourceNames returns the base names of the source files whose marker lines
// appear in the record, in file order.
func (m MigrationRecord) SourceNames() []string {
	var names []string
	for _, line := range strings.Split(m.Content, "\n") {
		name, ok := strings.CutPrefix(strings.TrimRight(line, "\r"), MarkerPrefix)
		if ok && isSQLFile(name) && !strings.ContainsAny(name, " \t/") {
			names = append(names, name)
		}
	}
	return names
}

// LoadMigrationRecords reads each migration file. Files deleted since the
// diff was taken are skipped; they cannot reference anything.
func LoadMigrationRecords(files []string) ([]MigrationRecord, error) {
	records := make([]MigrationRecord, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", f, err)
		}
		version, err := FormatVersion(string(data))
		if err != nil {
			return nil, fmt.Errorf("migration %s: %w", f, err)
		}
		if version != MarkerFormatVersion {
			return nil, fmt.Errorf("migration %s uses marker format %d, expected %d: %w",
				f, version, MarkerFormatVersion, ErrMarkerFormat)
		}
		records = append(records, MigrationRecord{Filename: f, Content: string(data)})
	}
	return records, nil
}

// LintReport is the outcome of reconciling changed source files against
// changed migrations.
type LintReport struct {
	Changed    []string
	Migrations []MigrationRecord
	// Violations lists changed files whose marker appears in no migration.
	Violations []string
}

// Passed reports whether every changed file was found in a migration.
func (r *LintReport) Passed() bool {
	return len(r.Violations) == 0
}

// Lint checks that every changed source file is referenced by a marker line
// in at least one of the migration files.
func Lint(changed, migrations []string) (*LintReport, error) {
	report := &LintReport{Changed: changed}
	if len(changed) == 0 {
		return report, nil
	}

	records, err := LoadMigrationRecords(migrations)
	if err != nil {
		return nil, err
	}
	report.Migrations = records

	var all strings.Builder
	for _, r := range records {
		all.WriteString(r.Content)
	}
	text := all.String()

	for _, f := range changed {
		if !ContainsMarker(text, f) {
			report.Violations = append(report.Violations, f)
		}
	}
	return report, nil
}
