// Package jobs implements the one-shot job commands: discover, refresh,
// evaluate and prune.
package jobs

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/restock/cmd/common"
	"github.com/jonesrussell/north-cloud/restock/internal/monitor"
	"github.com/jonesrussell/north-cloud/restock/internal/store"
)

const flagDryRun = "dry-run"

// DiscoverCommand creates the discover command.
func DiscoverCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Crawl the catalog from the seed URL and store new products",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return err
			}
			defer func() { _ = deps.Logger.Sync() }()

			c, err := deps.NewCrawler()
			if err != nil {
				return err
			}

			var (
				s      store.Store
				memory *store.Memory
			)
			if dryRun {
				memory = store.NewMemory()
				s = memory
			} else {
				pg, _, closeDB, openErr := deps.OpenStore(cmd.Context())
				if openErr != nil {
					return openErr
				}
				defer closeDB()
				s = pg
			}

			job := monitor.NewDiscovery(c, s, []string{deps.Config.Catalog.SeedURL}, nil, deps.Logger)
			report, runErr := job.Run(cmd.Context())
			common.RenderReport(cmd.OutOrStdout(), report)

			if memory != nil {
				found, listErr := memory.ListProducts(cmd.Context())
				if listErr != nil {
					return listErr
				}
				common.RenderProducts(cmd.OutOrStdout(), found)
			}
			return runErr
		},
	}

	cmd.Flags().BoolVar(&dryRun, flagDryRun, false, "keep discovered products in memory and print them")
	return cmd
}

// RefreshCommand creates the refresh command.
func RefreshCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Re-fetch every stored product and notify on restocks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withNotifier(cmd, dryRun, func(ctx context.Context, env *jobEnv) (monitor.Report, error) {
				c, err := env.deps.NewCrawler()
				if err != nil {
					return monitor.Report{}, err
				}
				return monitor.NewRefresh(c, env.store, env.notifier, time.Now, nil, env.deps.Logger).Run(ctx)
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, flagDryRun, false, "log notifications instead of sending them")
	return cmd
}

// EvaluateCommand creates the evaluate command.
func EvaluateCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Run change detection over stored histories and notify",
		Long: `evaluate re-runs change detection over the stored availability history of
every product without crawling. Use it to re-send notifications lost while
Telegram was unreachable; with Redis enabled, recently sent messages are not
repeated.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withNotifier(cmd, dryRun, func(ctx context.Context, env *jobEnv) (monitor.Report, error) {
				return monitor.NewEvaluate(env.store, env.notifier, nil, env.deps.Logger).Run(ctx)
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, flagDryRun, false, "log notifications instead of sending them")
	return cmd
}

// PruneCommand creates the prune command.
func PruneCommand() *cobra.Command {
	var maxAge time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete availability records older than the retention window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return err
			}
			defer func() { _ = deps.Logger.Sync() }()

			if maxAge == 0 {
				maxAge = deps.Config.Retention.MaxAge
			}

			s, _, closeDB, err := deps.OpenStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			report, runErr := monitor.NewPrune(s, maxAge, time.Now, nil, deps.Logger).Run(cmd.Context())
			common.RenderReport(cmd.OutOrStdout(), report)
			return runErr
		},
	}

	cmd.Flags().DurationVar(&maxAge, "max-age", 0, "retention window (default retention.max_age)")
	return cmd
}

// jobEnv carries what the notifying jobs share.
type jobEnv struct {
	deps     *common.CommandDeps
	store    store.Store
	notifier monitor.Notifier
}

func withNotifier(
	cmd *cobra.Command,
	dryRun bool,
	run func(ctx context.Context, env *jobEnv) (monitor.Report, error),
) error {
	deps, err := common.NewCommandDeps()
	if err != nil {
		return err
	}
	defer func() { _ = deps.Logger.Sync() }()

	ctx := cmd.Context()

	s, _, closeDB, err := deps.OpenStore(ctx)
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

	report, runErr := run(ctx, &jobEnv{deps: deps, store: s, notifier: notifier})
	if report.RunID != "" {
		common.RenderReport(cmd.OutOrStdout(), report)
	}
	return runErr
}
