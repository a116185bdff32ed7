package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable sqrly reads.
const EnvPrefix = "SQRLY"

// Config holds the merged flag, environment and config-file settings for
// every command. Each command validates only the fields it uses.
type Config struct {
	Path   string
	DryRun bool

	DB     string
	Driver string

	Name               string
	HasuraDir          string
	HasuraDatabaseName string
	HasuraBin          string
	DiffBase           string

	FunctionName string
	Out          string

	Logging Logging
}

// Logging configures the zerolog logger.
type Logging struct {
	Level  string
	Pretty bool
}

// New returns a viper instance bound to flags, SQRLY_* environment variables
// and, when configFile is set, a config file. An explicitly set flag wins over
// the environment, which wins over the file, which wins over flag defaults.
//
// The connection string additionally falls back to DATABASE_URL.
func New(flags *pflag.FlagSet, configFile string) (*viper.Viper, error) {
	v := viper.New()
	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	// Flag names use hyphens; env vars use underscores (SQRLY_HASURA_DIR).
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("db", EnvPrefix+"_DB", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}
	return v, nil
}

// Load reads a Config out of v.
func Load(v *viper.Viper) Config {
	return Config{
		Path:               v.GetString("path"),
		DryRun:             v.GetBool("dry-run"),
		DB:                 v.GetString("db"),
		Driver:             v.GetString("driver"),
		Name:               v.GetString("name"),
		HasuraDir:          v.GetString("hasura-dir"),
		HasuraDatabaseName: v.GetString("hasura-database-name"),
		HasuraBin:          v.GetString("hasura-bin"),
		DiffBase:           v.GetString("diff-base"),
		FunctionName:       v.GetString("function-name"),
		Out:                v.GetString("out"),
		Logging: Logging{
			Level:  v.GetString("log-level"),
			Pretty: v.GetBool("log-pretty"),
		},
	}
}

// ErrMissingDB is returned when no connection string was supplied anywhere.
var ErrMissingDB = errors.New("connection URL must be provided via --db, SQRLY_DB or DATABASE_URL, or \"db\" in the config file")

// ValidateWatch checks the settings the watch command needs.
func (c Config) ValidateWatch() error {
	if c.DB == "" {
		return ErrMissingDB
	}
	return validateDir("path", c.Path)
}

// ValidateMigrate checks the settings the migrate command needs.
func (c Config) ValidateMigrate() error {
	if c.Name == "" {
		return errors.New("--name must not be empty")
	}
	if err := validateDiffBase(c.DiffBase); err != nil {
		return err
	}
	if err := validateDir("path", c.Path); err != nil {
		return err
	}
	return validateDir("hasura-dir", c.HasuraDir)
}

// ValidateImport checks the settings the import command needs.
func (c Config) ValidateImport() error {
	if c.DB == "" {
		return ErrMissingDB
	}
	if c.FunctionName == "" {
		return errors.New("--function-name is required")
	}
	if c.Out == "" {
		return errors.New("--out is required")
	}
	return validateDir("path", c.Path)
}

// ValidateLint checks the settings the lint command needs.
func (c Config) ValidateLint() error {
	if err := validateDiffBase(c.DiffBase); err != nil {
		return err
	}
	if err := validateDir("path", c.Path); err != nil {
		return err
	}
	return validateDir("hasura-dir", c.HasuraDir)
}

// validateDiffBase rejects values git would read as an option.
func validateDiffBase(base string) error {
	if base == "" {
		return errors.New("--diff-base must not be empty")
	}
	if strings.HasPrefix(base, "-") {
		return fmt.Errorf("invalid --diff-base %q: must be a revision, not an option", base)
	}
	return nil
}

func validateDir(flag, dir string) error {
	if dir == "" {
		return fmt.Errorf("--%s is required", flag)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("invalid --%s %q: %w", flag, dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("invalid --%s %q: not a directory", flag, dir)
	}
	return nil
}
