package sqrly

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// ArtifactPlaceholder stands in for the concatenated SQL file in dry-run
// output. The real artifact is removed before CreateMigration returns.
const ArtifactPlaceholder = "<concatenated-sql>"

// ErrNoFiles is returned when a migration is requested without source files.
var ErrNoFiles = errors.New("no files to package")

// MigrationRequest describes one migration to generate.
type MigrationRequest struct {
	// Name is the migration label handed to Hasura.
	Name string
	// Files are concatenated in this order.
	Files []string
	// DatabaseName is passed as --database-name.
	DatabaseName string
	// HasuraDir is the working directory for the Hasura CLI.
	HasuraDir string
	DryRun    bool
}

// MigrationResult reports what CreateMigration ran, or would have run.
type MigrationResult struct {
	Command string
	Stdout  string
	Stderr  string
	DryRun  bool
}

// Packager concatenates source files into a migration artifact and hands it
// to the Hasura CLI.
type Packager struct {
	Runner    Runner
	HasuraBin string
	// TempDir holds artifacts. Empty means os.TempDir().
	TempDir string
	Logger  zerolog.Logger
}

// NewPackager returns a Packager that runs the real Hasura CLI.
func NewPackager(logger zerolog.Logger) *Packager {
	return &Packager{
		Runner:    ExecRunner{},
		HasuraBin: DefaultHasuraBin,
		Logger:    logger,
	}
}

// CreateMigration writes the artifact, then runs (or, in dry-run mode,
// reports) `hasura migrate create`. The artifact is deleted on return.
func (p *Packager) CreateMigration(ctx context.Context, req MigrationRequest) (*MigrationResult, error) {
	if len(req.Files) == 0 {
		return nil, ErrNoFiles
	}

	artifact, err := os.CreateTemp(p.TempDir, "sql-*.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration artifact: %w", err)
	}
	defer os.Remove(artifact.Name())

	writeErr := WriteArtifact(artifact, req.Files)
	closeErr := artifact.Close()
	if writeErr != nil {
		return nil, writeErr
	}
	if closeErr != nil {
		return nil, fmt.Errorf("failed to write migration artifact: %w", closeErr)
	}

	p.Logger.Info().
		Str("artifact", artifact.Name()).
		Int("files", len(req.Files)).
		Msg("concatenated modified files")

	cmd := HasuraCmd{
		Bin:          p.HasuraBin,
		Name:         req.Name,
		SQLFile:      artifact.Name(),
		DatabaseName: req.DatabaseName,
	}

	if req.DryRun {
		cmd.SQLFile = ArtifactPlaceholder
		result := &MigrationResult{Command: cmd.String(), DryRun: true}
		p.Logger.Info().
			Str("command", result.Command).
			Msg("running in dry run mode, would execute this command")
		return result, nil
	}

	result := &MigrationResult{Command: cmd.String()}
	p.Logger.Info().
		Str("command", result.Command).
		Str("dir", req.HasuraDir).
		Msg("running hasura command")

	runner := p.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	result.Stdout, result.Stderr, err = runner.Run(ctx, req.HasuraDir, cmd.Executable(), cmd.Args()...)
	if err != nil {
		var execErr *ExecError
		if !errors.As(err, &execErr) {
			err = &ExecError{Stdout: result.Stdout, Stderr: result.Stderr, Err: err}
		}
		return result, fmt.Errorf("hasura migrate create failed: %w", err)
	}

	p.Logger.Info().
		Str("stdout", result.Stdout).
		Str("stderr", result.Stderr).
		Msg("hasura migrate completed")

	return result, nil
}

// WriteArtifact writes the format header, then each file as a marker line,
// its raw contents and a blank separator, in the given order.
func WriteArtifact(w io.Writer, files []string) error {
	if _, err := io.WriteString(w, FormatHeader()); err != nil {
		return fmt.Errorf("failed to write migration artifact: %w", err)
	}
	for _, path := range files {
		contents, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		if _, err := io.WriteString(w, MarkerLine(path)); err != nil {
			return fmt.Errorf("failed to write migration artifact: %w", err)
		}
		if _, err := w.Write(contents); err != nil {
			return fmt.Errorf("failed to write migration artifact: %w", err)
		}
		if _, err := io.WriteString(w, "\n\n"); err != nil {
			return fmt.Errorf("failed to write migration artifact: %w", err)
		}
	}
	return nil
}
