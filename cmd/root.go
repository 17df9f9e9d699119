// Package cmd implements the restock command-line interface.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonesrussell/north-cloud/restock/cmd/common"
	"github.com/jonesrussell/north-cloud/restock/cmd/jobs"
	"github.com/jonesrussell/north-cloud/restock/cmd/migrate"
	"github.com/jonesrussell/north-cloud/restock/cmd/products"
	"github.com/jonesrussell/north-cloud/restock/cmd/serve"
)

// envPrefix namespaces the flag environment variables, e.g. RESTOCK_CONFIG.
const envPrefix = "RESTOCK"

// Version is set at build time with -ldflags "-X .../cmd.Version=...".
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "restock",
	Short: "Catalog availability monitor",
	Long: `restock crawls an online catalog, records the availability of every
product over time and sends a Telegram message when a product becomes
available or orderable again.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command
// context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String(common.KeyConfig, "", "config file (default is ./config.yml or /etc/restock/config.yml)")
	flags.Bool(common.KeyDebug, false, "enable debug logging")
	flags.String("log-level", "", "log level (debug, info, warn, error)")

	cobra.CheckErr(viper.BindPFlag(common.KeyConfig, flags.Lookup(common.KeyConfig)))
	cobra.CheckErr(viper.BindPFlag(common.KeyDebug, flags.Lookup(common.KeyDebug)))
	cobra.CheckErr(viper.BindPFlag(common.KeyLogLevel, flags.Lookup("log-level")))

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(
		migrate.Command(),
		jobs.DiscoverCommand(),
		jobs.RefreshCommand(),
		jobs.EvaluateCommand(),
		jobs.PruneCommand(),
		products.ListCommand(),
		products.HistoryCommand(),
		serve.Command(resolvedVersion),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "restock version %s\n", resolvedVersion())
			},
		},
	)
}

// resolvedVersion falls back to the module version for `go install` builds.
func resolvedVersion() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}
