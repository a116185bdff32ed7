package sqrly

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FunctionSource looks up stored function definitions.
type FunctionSource interface {
	FunctionDefinition(ctx context.Context, name string) (string, error)
}

// ImportFunction writes the definition of the named database function to
// outPath and returns the number of lines written. Nothing is written when
// the lookup fails.
func ImportFunction(ctx context.Context, src FunctionSource, name, outPath string) (int, error) {
	def, err := src.FunctionDefinition(ctx, name)
	if err != nil {
		return 0, err
	}

	if dir := filepath.Dir(outPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(outPath, []byte(def), 0644); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	return strings.Count(def, "\n") + 1, nil
}
