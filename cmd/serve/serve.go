// Package serve implements the long-running serve command: scheduled jobs
// plus the health and metrics endpoint.
package serve

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/restock/cmd/common"
	"github.com/jonesrussell/north-cloud/restock/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/restock/internal/api"
	"github.com/jonesrussell/north-cloud/restock/internal/metrics"
	"github.com/jonesrussell/north-cloud/restock/internal/monitor"
)

// job is anything the scheduler can run.
type job interface {
	Run(ctx context.Context) (monitor.Report, error)
}

// Command creates the serve command.
func Command(version func() string) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run discover, refresh and prune on their cron schedules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return err
			}
			defer func() { _ = deps.Logger.Sync() }()

			return run(cmd.Context(), deps, version(), dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "log notifications instead of sending them")
	return cmd
}

func run(ctx context.Context, deps *common.CommandDeps, version string, dryRun bool) error {
	cfg := deps.Config
	log := deps.Logger

	s, db, closeDB, err := deps.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	redisClient, closeRedis, err := deps.OpenRedis(ctx)
	if err != nil {
		return err
	}
	defer closeRedis()

	notifier, err := deps.NewNotifier(dryRun, redisClient)
	if err != nil {
		return err
	}

	c, err := deps.NewCrawler()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	scheduler := cron.New(
		cron.WithLogger(newCronLogger(log)),
		cron.WithChain(cron.Recover(newCronLogger(log)), cron.SkipIfStillRunning(newCronLogger(log))),
	)

	schedule := []struct {
		spec string
		job  job
		name string
	}{
		{cfg.Schedule.Discover, monitor.NewDiscovery(c, s, []string{cfg.Catalog.SeedURL}, m, log), monitor.JobDiscover},
		{cfg.Schedule.Refresh, monitor.NewRefresh(c, s, notifier, time.Now, m, log), monitor.JobRefresh},
		{cfg.Schedule.Prune, monitor.NewPrune(s, cfg.Retention.MaxAge, time.Now, m, log), monitor.JobPrune},
	}
	for _, entry := range schedule {
		if entry.spec == "" {
			log.Info("Job disabled", logger.Job(entry.name))
			continue
		}
		j := entry.job
		if _, addErr := scheduler.AddFunc(entry.spec, func() { _, _ = j.Run(ctx) }); addErr != nil {
			return fmt.Errorf("schedule %s: %w", entry.name, addErr)
		}
		log.Info("Job scheduled", logger.Job(entry.name), logger.String("schedule", entry.spec))
	}

	checks := []api.Check{
		{Name: "database", Critical: true, Ping: db.PingContext},
	}
	if redisClient != nil {
		checks = append(checks, api.Check{
			Name: "redis",
			Ping: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}

	gin.SetMode(gin.ReleaseMode)
	server := api.New(api.Options{
		Address:      cfg.Server.Address,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Version:      version,
		Gatherer:     reg,
		Registerer:   reg,
		Checks:       checks,
	}, log)

	scheduler.Start()
	log.Info("Scheduler started")

	serveErr := server.Run(ctx)

	log.Info("Waiting for running jobs to finish")
	<-scheduler.Stop().Done()

	return serveErr
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	log logger.Logger
}

func newCronLogger(log logger.Logger) cron.Logger {
	return cronLogger{log: log.With(logger.String("component", "cron"))}
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, fields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append(fields(keysAndValues), logger.Error(err))...)
}

func fields(keysAndValues []any) []logger.Field {
	out := make([]logger.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		out = append(out, logger.Any(key, keysAndValues[i+1]))
	}
	return out
}
