package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bcomnes/sqrly/pkg/sqrly"
)

func (a *app) watchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "watch",
		Aliases: []string{"w"},
		Short:   "Watch and apply changes in SQL files",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.ValidateWatch(); err != nil {
				return err
			}
			return a.runWatch(cmd)
		},
	}
	f := cmd.Flags()
	f.String("db", "", "DSN-style URL to access the database (falls back to $DATABASE_URL)")
	f.String("driver", "pg", "Database driver: pg or sqlite3")
	return cmd
}

func (a *app) runWatch(cmd *cobra.Command) error {
	ctx := cmd.Context()

	client, err := a.open(ctx, a.cfg.Driver, a.cfg.DB)
	if err != nil {
		return err
	}
	defer a.closeClient(client)

	watcher, err := sqrly.NewWatcher(a.cfg.Path, a.logger)
	if err != nil {
		return err
	}
	a.console.Step("Monitoring changes to %s", watcher.Pattern())

	applier := &sqrly.Applier{
		Client: client,
		DryRun: a.cfg.DryRun,
		Logger: a.logger,
	}
	return watcher.Run(ctx, applier.Apply)
}

func (a *app) migrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "migrate",
		Aliases: []string{"m"},
		Short:   "Generate Hasura migrations for changed SQL files",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.ValidateMigrate(); err != nil {
				return err
			}
			return a.runMigrate(cmd)
		},
	}
	f := cmd.Flags()
	f.String("name", "sqrly", "Name for the Hasura migration")
	f.String("hasura-dir", "", "Path to hasura schema directory")
	f.String("hasura-database-name", "default", "Argument to --database-name")
	f.String("hasura-bin", sqrly.DefaultHasuraBin, "Hasura CLI executable")
	f.String("diff-base", "HEAD", "The git commit to diff against to find changed .sql files")
	return cmd
}

func (a *app) runMigrate(cmd *cobra.Command) error {
	ctx := cmd.Context()
	a.console.Step("Generating migration: %s", a.cfg.Name)

	changed, err := sqrly.ModifiedSQLFiles(ctx, a.vc, a.cfg.Path, a.cfg.DiffBase)
	if err != nil {
		return err
	}
	if len(changed) == 0 {
		a.console.Step("No modified SQL files found. Exiting.")
		return nil
	}
	a.console.Step("Found modified files:")
	a.console.List(changed)

	packager := sqrly.NewPackager(a.logger)
	packager.Runner = a.runner
	if a.cfg.HasuraBin != "" {
		packager.HasuraBin = a.cfg.HasuraBin
	}
	result, err := packager.CreateMigration(ctx, sqrly.MigrationRequest{
		Name:         a.cfg.Name,
		Files:        changed,
		DatabaseName: a.cfg.HasuraDatabaseName,
		HasuraDir:    a.cfg.HasuraDir,
		DryRun:       a.cfg.DryRun,
	})
	if err != nil {
		return err
	}

	if result.DryRun {
		a.console.Step("Running in dry run mode. Would execute this command:")
		a.console.Command(result.Command)
		return nil
	}
	a.console.Step("Ran hasura command:")
	a.console.Command(result.Command)
	a.console.Step("hasura migrate completed with output:")
	a.console.Raw(result.Stdout)
	a.console.Raw(result.Stderr)
	return nil
}

func (a *app) importCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "import",
		Aliases: []string{"i"},
		Short:   "Import a SQL function into a file",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.ValidateImport(); err != nil {
				return err
			}
			return a.runImport(cmd)
		},
	}
	f := cmd.Flags()
	f.String("db", "", "DSN-style URL to access the database (falls back to $DATABASE_URL)")
	f.String("driver", "pg", "Database driver: pg or sqlite3")
	f.String("function-name", "", "SQL function to import to file")
	f.String("out", "", "Output file, relative to --path")
	return cmd
}

func (a *app) runImport(cmd *cobra.Command) error {
	ctx := cmd.Context()
	a.console.Step("Importing function: %s", a.cfg.FunctionName)

	client, err := a.open(ctx, a.cfg.Driver, a.cfg.DB)
	if err != nil {
		return err
	}
	defer a.closeClient(client)

	outPath := filepath.Join(a.cfg.Path, a.cfg.Out)
	lines, err := sqrly.ImportFunction(ctx, client, a.cfg.FunctionName, outPath)
	if err != nil {
		a.console.Fail("Function not imported: %s", a.cfg.FunctionName)
		return err
	}
	a.console.Step("Wrote: %d lines to %s", lines, outPath)
	return nil
}

func (a *app) lintCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "lint",
		Aliases: []string{"l"},
		Short:   "Verify that changed .sql files appear in hasura migrations",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.ValidateLint(); err != nil {
				return err
			}
			return a.runLint(cmd)
		},
	}
	f := cmd.Flags()
	f.String("hasura-dir", "", "Path to hasura schema directory")
	f.String("diff-base", "HEAD", "The git commit to diff against to find changed .sql files")
	return cmd
}

func (a *app) runLint(cmd *cobra.Command) error {
	ctx := cmd.Context()
	a.console.Step("Linting changed files under %s against migrations in %s", a.cfg.Path, a.cfg.HasuraDir)

	changed, err := sqrly.ModifiedSQLFiles(ctx, a.vc, a.cfg.Path, a.cfg.DiffBase)
	if err != nil {
		return err
	}
	migrations, err := sqrly.MigrationFiles(ctx, a.vc, a.cfg.HasuraDir, a.cfg.DiffBase)
	if err != nil {
		return err
	}

	if len(changed) == 0 {
		a.console.Step("No modified SQL files found. Exiting.")
		return nil
	}
	a.console.Step("Found modified files:")
	a.console.List(changed)
	a.console.Step("Found migrations:")
	a.console.List(migrations)

	report, err := sqrly.Lint(changed, migrations)
	if err != nil {
		return err
	}
	for _, m := range report.Migrations {
		a.logger.Debug().
			Str("migration", m.Filename).
			Strs("sources", m.SourceNames()).
			Msg("migration references")
	}

	if !report.Passed() {
		a.console.Fail("Found modified files not referenced in migrations:")
		a.console.List(report.Violations)
		return errLintFailed
	}
	a.console.Step("All modified files are referenced in migrations.")
	return nil
}
