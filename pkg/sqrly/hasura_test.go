package sqrly

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasuraCmd(t *testing.T) {
	tests := []struct {
		name     string
		cmd      HasuraCmd
		expected string
	}{
		{
			name:     "defaults",
			cmd:      HasuraCmd{Name: "sqrly", SQLFile: "/tmp/sql-1.sql", DatabaseName: "default"},
			expected: "hasura migrate create sqrly --sql-from-file /tmp/sql-1.sql --database-name default",
		},
		{
			name:     "custom binary",
			cmd:      HasuraCmd{Bin: "/opt/bin/hasura", Name: "add_users", SQLFile: "f.sql", DatabaseName: "main"},
			expected: "/opt/bin/hasura migrate create add_users --sql-from-file f.sql --database-name main",
		},
		{
			name:     "quotes spaces",
			cmd:      HasuraCmd{Name: "my migration", SQLFile: "/tmp/a b.sql", DatabaseName: "default"},
			expected: "hasura migrate create 'my migration' --sql-from-file '/tmp/a b.sql' --database-name default",
		},
		{
			name:     "placeholder",
			cmd:      HasuraCmd{Name: "sqrly", SQLFile: ArtifactPlaceholder, DatabaseName: "default"},
			expected: "hasura migrate create sqrly --sql-from-file '<concatenated-sql>' --database-name default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.cmd.String())
		})
	}
}

func TestHasuraCmdArgs(t *testing.T) {
	cmd := HasuraCmd{Name: "n", SQLFile: "f", DatabaseName: "d"}
	assert.Equal(t, "hasura", cmd.Executable())
	assert.Equal(t, []string{"migrate", "create", "n", "--sql-from-file", "f", "--database-name", "d"}, cmd.Args())
}

func TestHasuraCmdStringSlice(t *testing.T) {
	cmd := HasuraCmd{Name: "my migration", SQLFile: "f.sql", DatabaseName: "default"}
	assert.Equal(t, []string{
		"hasura", "migrate", "create", "'my migration'",
		"--sql-from-file", "f.sql", "--database-name", "default",
	}, cmd.StringSlice())
}
