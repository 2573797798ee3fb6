package main

import (
	"context"
	"fmt"
	"os"

	"github.com/caffeineduck/gorc/clvalue"
	"github.com/caffeineduck/gorc/executor"
	"github.com/caffeineduck/gorc/internal/config"
	"github.com/caffeineduck/gorc/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "gorc",
	Short: "Sandboxed WebAssembly contract runtime",
	Long: `gorc - Load WebAssembly contracts and invoke their registered functions.

A contract exports call(), which registers entry points with the host. Each
entry point is addressed by a key derived from its name and argument tags.
Contracts get no filesystem, network or clock access beyond what the
host primitives provide.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (TOML)")
	rootCmd.PersistentFlags().Uint32("memory", 0, "Guest memory limit in MB (default: config or 4GB)")
	rootCmd.PersistentFlags().Bool("no-cache", false, "Disable compilation cache")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
}

// loadConfig reads --config and applies the persistent flags on top.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Root().PersistentFlags()
	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if flags.Changed("memory") {
		cfg.Executor.MemoryMB, _ = flags.GetUint32("memory")
	}
	if noCache, _ := flags.GetBool("no-cache"); noCache {
		cfg.Executor.DiskCache = false
	}
	if level, _ := flags.GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	return cfg, cfg.Validate()
}

// setup builds the logger and executor shared by the one-shot commands.
func setup(cmd *cobra.Command) (config.Config, *zap.Logger, *executor.Executor, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return cfg, nil, nil, err
	}
	flags := cmd.Root().PersistentFlags()
	if !flags.Changed("log-level") && !flags.Changed("config") {
		cfg.Log.Level = "warn"
	}
	cfg.Log.Format = "console"
	logger, err := logging.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return cfg, nil, nil, err
	}
	exec, err := executor.New(cfg.Executor.Options(logger)...)
	if err != nil {
		return cfg, nil, nil, err
	}
	return cfg, logger, exec, nil
}

func loadFile(ctx context.Context, exec *executor.Executor, path string) (*executor.Instance, error) {
	src, err := executor.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return exec.Load(ctx, src)
}

func parseArgs(specs []string) ([]clvalue.Value, error) {
	values := make([]clvalue.Value, len(specs))
	for i, s := range specs {
		v, err := clvalue.ParseTyped(s)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		values[i] = v
	}
	return values, nil
}
