package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Veraticus/carbon-audit/internal/advisory"
	"github.com/Veraticus/carbon-audit/internal/common"
	"github.com/Veraticus/carbon-audit/internal/config"
	"github.com/Veraticus/carbon-audit/internal/engine"
	"github.com/Veraticus/carbon-audit/internal/storage"
)

const defaultDatabasePath = "$HOME/.local/share/carbon/carbon.db"

// Output formats accepted by --output.
const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

func setDefaults() {
	viper.SetDefault("database.path", defaultDatabasePath)
	viper.SetDefault("advisory.base_url", advisory.DefaultBaseURL)
	viper.SetDefault("advisory.timeout", advisory.DefaultTimeout)
	viper.SetDefault("audit.concurrency", engine.DefaultAuditOptions().Concurrency)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")
}

// initStorage opens the configured database and brings its schema up to date.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = defaultDatabasePath
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initEngine opens storage and builds an engine. With remote set, the engine
// refines suggestions through the configured advisory service.
func initEngine(ctx context.Context, remote bool) (*engine.AuditEngine, func(), error) {
	store, err := initStorage(ctx)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = store.Close() }

	cfg := engine.DefaultConfig()
	if remote {
		client, err := newAdvisoryClient()
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		cfg.Advisory = client
		cfg.AdvisoryTimeout = client.Timeout()
	}

	return engine.NewWithConfig(store, cfg), cleanup, nil
}

func newAdvisoryClient() (*advisory.HTTPClient, error) {
	return advisory.NewClient(advisory.Config{
		BaseURL: viper.GetString("advisory.base_url"),
		Timeout: viper.GetDuration("advisory.timeout"),
	})
}

func addOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", outputTable, "output format (table, json, yaml)")
}

func outputFormat(cmd *cobra.Command) (string, error) {
	format, _ := cmd.Flags().GetString("output")
	switch format {
	case outputTable, outputJSON, outputYAML:
		return format, nil
	default:
		return "", common.NewValidationError("output", fmt.Sprintf("unknown format %q", format))
	}
}

// writeOutput encodes v as JSON or YAML, or calls table for the default format.
func writeOutput(w io.Writer, format string, v any, table func() error) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return table()
	}
}

func parseID(raw, what string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, common.NewUserError(fmt.Sprintf("invalid %s id %q", what, raw), common.ErrValidation)
	}
	return id, nil
}
