// Package cmd implements the pipeql CLI: a thin Cobra wrapper around the
// root Engine for interactive use, explicitly kept outside the core
// packages (spec.md places "public embedding API…example scripts"
// collaborators outside the engine's own contract).
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/queryflow/pipeql"
	"github.com/queryflow/pipeql/config"
)

var (
	rootCmd = &cobra.Command{
		Use:          "pipeql",
		Short:        "pipeql",
		SilenceUsage: true,
		Long:         `pipeql runs Splunk-style pipeline queries against in-memory tables registered from CSV files.`,
	}

	registerFlags []string
	configPath    string
)

// Execute runs the CLI's root command.
func Execute() error {
	rootCmd.PersistentFlags().StringArrayVar(&registerFlags, "register", nil, "name=path.csv source to register before running (repeatable)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML engine config")
	return rootCmd.Execute()
}

// buildEngine loads the configured EngineConfig (if any) and registers
// every --register name=path.csv source onto a fresh Engine.
func buildEngine() (*pipeql.Engine, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	engine := pipeql.New(cfg)
	for _, spec := range registerFlags {
		name, path, err := splitRegisterFlag(spec)
		if err != nil {
			return nil, err
		}
		t, err := loadCSV(path)
		if err != nil {
			return nil, err
		}
		engine.Register(name, t)
	}
	return engine, nil
}
