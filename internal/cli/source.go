package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hostdb/hostdb/internal/inventory"
	"github.com/hostdb/hostdb/internal/store"
)

// SourceConfig is the inventory source file handed to the automation tool.
// It names this plugin and points at the database:
//
//	plugin: hostdb
//	db_path: ./inventory.db
//
// A relative db_path is resolved against the config file's directory, so a
// source file can travel with its database.
type SourceConfig struct {
	Plugin string `yaml:"plugin"`
	DBPath string `yaml:"db_path"`
}

// SourcePluginName is the plugin identifier a source config must carry.
const SourcePluginName = "hostdb"

// LoadSource parses a source config and returns the resolved database path.
func LoadSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read source config: %w", err)
	}

	var cfg SourceConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return "", fmt.Errorf("parse source config: %w", err)
	}

	if cfg.Plugin != SourcePluginName {
		return "", fmt.Errorf("source config %q: plugin is %q, want %q", path, cfg.Plugin, SourcePluginName)
	}
	if cfg.DBPath == "" {
		return "", fmt.Errorf("source config %q: db_path is required", path)
	}

	dbPath := cfg.DBPath
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(filepath.Dir(path), dbPath)
	}
	return dbPath, nil
}

// databasePath resolves the database location from --db or --source.
func databasePath(opts *RootOptions) (string, error) {
	switch {
	case opts.Database != "" && opts.Source != "":
		return "", NewExitError(ExitCommandError, "--db and --source are mutually exclusive")
	case opts.Database != "":
		return opts.Database, nil
	case opts.Source != "":
		path, err := LoadSource(opts.Source)
		if err != nil {
			return "", WrapExitError(ExitCommandError, "invalid source config", err)
		}
		return path, nil
	default:
		return "", NewExitError(ExitCommandError, "one of --db or --source is required")
	}
}

// openEngine opens the store named by the global flags and returns an engine
// plus a close function.
func openEngine(opts *RootOptions) (*inventory.Engine, func() error, error) {
	path, err := databasePath(opts)
	if err != nil {
		return nil, nil, err
	}

	st, err := store.Open(path)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return inventory.New(st), st.Close, nil
}

// formatter builds the output formatter for a command invocation.
func formatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
