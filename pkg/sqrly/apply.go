package sqrly

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// Applier runs changed SQL files against the development database. Failures
// are logged and swallowed so a watch session keeps going.
type Applier struct {
	Client Client
	DryRun bool
	Logger zerolog.Logger
}

// Apply runs the file at path. It has the ChangeFunc signature so it can be
// handed straight to Watcher.Run.
func (a *Applier) Apply(ctx context.Context, path string) {
	if a.DryRun {
		a.Logger.Info().Str("file", path).Msg("running in dry run mode, would apply file")
		return
	}

	a.Logger.Info().Str("file", path).Msg("applying file")
	err := ApplyFile(ctx, a.Client, path)
	if err == nil {
		a.Logger.Info().Str("file", path).Msg("file applied")
		return
	}

	var applyErr *ApplyError
	if errors.As(err, &applyErr) {
		a.Logger.Error().
			Str("file", path).
			Int("position", applyErr.Position).
			Str("code", applyErr.Code).
			Str("message", applyErr.Message).
			Msg("applying SQL file failed")
		return
	}
	a.Logger.Error().Err(err).Str("file", path).Msg("applying SQL file failed")
}
