package main

import (
	"github.com/caffeineduck/gorc/internal/logging"
	"github.com/caffeineduck/gorc/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start an HTTP server for loading contracts and invoking entry points.

Endpoints:
  POST   /contracts?name=NAME       Load a contract (body: wasm binary)
  GET    /contracts                 List loaded instances
  GET    /contracts/{id}/functions  List entry points of an instance
  POST   /contracts/{id}/invoke     Invoke an entry point
  DELETE /contracts/{id}            Close an instance
  GET    /keys?name=NAME&shape=TAGS Derive an entry point key
  GET    /health                    Health check
  GET    /metrics                   Prometheus metrics

Invoke request:
  {"name": "add", "args": [{"type": "u32", "value": "3"}, {"type": "u32", "value": "4"}]}

Idle instances are closed after the configured instance_ttl.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("listen", "", "Listen address (default: config or :8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		cfg.Server.Listen = listen
	}

	logger, err := logging.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer logger.Sync()

	app := fx.New(server.Module(cfg, logger))
	if err := app.Err(); err != nil {
		return err
	}
	app.Run()
	return nil
}
