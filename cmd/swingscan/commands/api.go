package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/swingscan/swingscan/internal/api"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Serve scan results over HTTP and websocket",
	Long: `Starts the API server.

Endpoints:
  GET  /health            - liveness and websocket client count
  GET  /api/v1/scan/last  - most recent scan result
  POST /api/v1/scan       - trigger a scan and return its result
  GET  /api/v1/universes  - built-in universe lists
  GET  /ws                - websocket feed of completed scans
  GET  /metrics           - Prometheus metrics

Example:
  swingscan api --port 8089`,
	RunE: runAPI,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)
	apiCmd.Flags().StringVar(&apiPort, "port", "", "listen port (default from PORT)")
}

func runAPI(cmd *cobra.Command, args []string) error {
	a, err := buildApp(nil, 0)
	if err != nil {
		return err
	}
	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	server := api.New(a.cfg, a.runner, a.log)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		a.log.WithField("signal", sig.String()).Info("Shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
