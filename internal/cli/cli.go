// Package cli is the command-line front-end spec.md §1 explicitly treats
// as an external collaborator: it wires flags to the core's Driver and
// Catalog, but contains none of the planning/composition/execution logic
// itself.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/accented-ai/spellstore/internal/config"
	"github.com/accented-ai/spellstore/internal/telemetry"
	"github.com/accented-ai/spellstore/internal/util"
)

// BuildInfo carries the version metadata main.go stamps in at link time.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// Execute layers configuration (flags > SPELLSTORE_ env vars > defaults)
// through viper, builds the logger that setting implies, and runs the
// command tree against ctx. Every subcommand shares the one logger and
// config-derived defaults (catalog path, chunk size).
func Execute(ctx context.Context, info BuildInfo) error {
	v := viper.New()

	cfg, err := config.Load(v)
	if err != nil {
		return util.WrapError("load config", err)
	}

	logger := telemetry.New(os.Stderr, cfg.LogLevel)

	rootCmd := newRootCommand()
	rootCmd.AddCommand(
		newExportCommand(ctx, cfg, logger),
		newJoinCommand(ctx, cfg, logger),
		newCatalogCommand(ctx, cfg),
		newVersionCommand(info),
	)

	return util.WrapError("execute command", rootCmd.ExecuteContext(ctx))
}

func newRootCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "spellstore",
		Short: "Point-in-time feature store query planner and execution driver",
		Long: `spellstore materializes historical feature vectors for machine-learning
training and batch scoring from a declarative catalog of entities, feature
groups, and their backing tables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func newVersionCommand(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("spellstore %s\n", info.Version)
			fmt.Printf("  commit: %s\n", info.Commit)
			fmt.Printf("  built:  %s\n", info.BuildTime)
		},
	}
}
