package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/swingscan/swingscan/internal/api"
	"github.com/swingscan/swingscan/internal/scheduler"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run scheduled scans (and the API) until stopped",
	Long: `Starts the cron worker. By default it scans every weekday at
16:30 US Eastern, half an hour after the close, and serves the API
alongside so results stay queryable.

Examples:
  swingscan worker
  swingscan worker --cron "0 17 * * 1-5"
  swingscan worker --no-api`,
	RunE: runWorker,
}

var (
	workerCron  string
	workerNoAPI bool
)

func init() {
	rootCmd.AddCommand(workerCmd)
	workerCmd.Flags().StringVar(&workerCron, "cron", scheduler.DefaultSpec, "cron schedule (US Eastern)")
	workerCmd.Flags().BoolVar(&workerNoAPI, "no-api", false, "run the schedule without the API server")
}

func runWorker(cmd *cobra.Command, args []string) error {
	a, err := buildApp(nil, 0)
	if err != nil {
		return err
	}

	sched := scheduler.New(a.log)
	job := scheduler.NewScanJob(a.preset.Name, a.runner)
	if err := sched.Register(workerCron, job); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	var server *api.Server
	errCh := make(chan error, 1)
	if !workerNoAPI {
		server = api.New(a.cfg, a.runner, a.log)
		go func() { errCh <- server.Start() }()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		a.log.WithField("signal", sig.String()).Info("Shutting down")
	}

	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(ctx)
	}
	return nil
}
