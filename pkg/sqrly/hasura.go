package sqrly

import (
	"strings"

	"al.essio.dev/pkg/shellescape"
)

// DefaultHasuraBin is the Hasura CLI executable used when none is configured.
const DefaultHasuraBin = "hasura"

// HasuraCmd is a `hasura migrate create` invocation.
type HasuraCmd struct {
	Bin          string
	Name         string
	SQLFile      string
	DatabaseName string
}

// Args returns the arguments that follow the executable.
func (c HasuraCmd) Args() []string {
	return []string{
		"migrate",
		"create",
		c.Name,
		"--sql-from-file", c.SQLFile,
		"--database-name", c.DatabaseName,
	}
}

// Executable returns the configured binary or DefaultHasuraBin.
func (c HasuraCmd) Executable() string {
	if c.Bin != "" {
		return c.Bin
	}
	return DefaultHasuraBin
}

// StringSlice returns the executable and arguments, each quoted for a shell.
func (c HasuraCmd) StringSlice() []string {
	args := c.Args()
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, shellescape.Quote(c.Executable()))
	for _, arg := range args {
		parts = append(parts, shellescape.Quote(arg))
	}
	return parts
}

// String renders the command the way it would be typed into a shell.
func (c HasuraCmd) String() string {
	return strings.Join(c.StringSlice(), " ")
}
