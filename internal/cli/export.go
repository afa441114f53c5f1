package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/accented-ai/spellstore/internal/config"
	"github.com/accented-ai/spellstore/internal/driver"
	"github.com/accented-ai/spellstore/internal/render"
	"github.com/accented-ai/spellstore/internal/sink"
	"github.com/accented-ai/spellstore/internal/util"
)

type exportConfig struct {
	catalogPath   string
	features      string
	snapshot      string
	output        string
	chunkSize     int
	limit         int
	forceFetchAll bool
	forceAppend   bool
	fullJoin      bool
}

func newExportCommand(ctx context.Context, appCfg *config.Config, logger zerolog.Logger) *cobra.Command {
	cfg := &exportConfig{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Materialize a point-in-time feature vector to CSV",
		Long: `export resolves a comma-separated "group.column" feature list against the
catalog, plans and executes the composed query as of a snapshot moment,
and streams the result to an optional CSV sink, printing a markdown
preview of the first batch.`,
		Example: `  spellstore export --catalog catalog.yaml --features "user.age,user.country" \
    --snapshot 2026-01-01T00:00:00Z --output features.csv`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runExport(ctx, cfg, logger)
		},
	}

	cmd.Flags().StringVar(&cfg.catalogPath, "catalog", appCfg.CatalogPath, "path to the catalog YAML file")
	cmd.Flags().StringVar(&cfg.features, "features", "", `comma-separated "group.column" list`)
	cmd.Flags().StringVar(&cfg.snapshot, "snapshot", "", "RFC3339 snapshot moment (default: now)")
	cmd.Flags().StringVarP(&cfg.output, "output", "o", "", "CSV output path (omit for preview only)")
	cmd.Flags().IntVar(&cfg.chunkSize, "chunk-size", appCfg.ChunkSize, "rows fetched per batch")
	cmd.Flags().IntVar(&cfg.limit, "limit", 0, "cap the number of rows the backend returns (0: unlimited)")
	cmd.Flags().BoolVar(&cfg.forceFetchAll, "force-fetch-all", false, "fetch and preview every row, not just the first batch")
	cmd.Flags().BoolVar(&cfg.forceAppend, "force-append", false, "append to an existing output file without writing a header")
	cmd.Flags().BoolVar(&cfg.fullJoin, "full-join", true, "use FULL OUTER JOIN across feature groups where the dialect supports it")

	cmd.MarkFlagRequired("catalog")  //nolint:errcheck
	cmd.MarkFlagRequired("features") //nolint:errcheck

	return cmd
}

func runExport(ctx context.Context, cfg *exportConfig, logger zerolog.Logger) error {
	d, closeFn, err := buildDriver(ctx, cfg.catalogPath, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	d.FullJoin = cfg.fullJoin

	opts := driver.ExportOptions{
		Features:      cfg.features,
		ChunkSize:     cfg.chunkSize,
		ForceFetchAll: cfg.forceFetchAll,
		ForceAppend:   cfg.forceAppend,
	}

	if cfg.snapshot != "" {
		snapshot, err := time.Parse(time.RFC3339, cfg.snapshot)
		if err != nil {
			return util.WrapError("parse snapshot", err)
		}

		opts.Snapshot = &snapshot
	}

	if cfg.limit > 0 {
		opts.Limit = &cfg.limit
	}

	if cfg.output != "" {
		opts.Sink = sink.NewCSVFile(cfg.output)
	}

	result, err := d.Export(ctx, opts)
	if err != nil {
		return util.WrapError("export", err)
	}

	fmt.Fprintf(os.Stderr, "exported %d row(s)\n", result.RowCount)
	fmt.Println(render.Pretty(result.PreviewMarkdown))

	return nil
}
