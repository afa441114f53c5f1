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
	"github.com/accented-ai/spellstore/internal/sink"
	"github.com/accented-ai/spellstore/internal/util"
)

type joinConfig struct {
	catalogPath          string
	entityDataset        string
	entityColumn         string
	eventTimestampColumn string
	features             string
	snapshot             string
	output               string
	chunkSize            int
	limit                int
	forceFetchAll        bool
	fullJoin             bool
}

func newJoinCommand(ctx context.Context, appCfg *config.Config, logger zerolog.Logger) *cobra.Command {
	cfg := &joinConfig{}

	cmd := &cobra.Command{
		Use:   "join",
		Short: "Left-join an entity dataset against point-in-time features",
		Long: `join reads an entity dataset from CSV and merges it with feature values
resolved either at one pinned snapshot (Mode A) or, when each row carries
its own event-timestamp column, at each row's own moment (Mode B).`,
		Example: `  spellstore join --catalog catalog.yaml --entity-dataset users.csv \
    --entity-column user_id --features "orders.total,orders.count" \
    --snapshot 2026-01-01T00:00:00Z`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runJoin(ctx, cfg, logger)
		},
	}

	cmd.Flags().StringVar(&cfg.catalogPath, "catalog", appCfg.CatalogPath, "path to the catalog YAML file")
	cmd.Flags().StringVar(&cfg.entityDataset, "entity-dataset", "", "CSV file of entity keys (and, for Mode B, a timestamp column)")
	cmd.Flags().StringVar(&cfg.entityColumn, "entity-column", "", "entity key column name, shared by the dataset and the feature groups")
	cmd.Flags().StringVar(&cfg.eventTimestampColumn, "event-timestamp-column", "", "per-row snapshot column (enables Mode B when --snapshot is not set)")
	cmd.Flags().StringVar(&cfg.features, "features", "", `comma-separated "group.column" list`)
	cmd.Flags().StringVar(&cfg.snapshot, "snapshot", "", "RFC3339 snapshot moment; forces Mode A when set")
	cmd.Flags().StringVarP(&cfg.output, "output", "o", "", "CSV output path (omit to require the joined result fit in one batch)")
	cmd.Flags().IntVar(&cfg.chunkSize, "chunk-size", appCfg.ChunkSize, "rows per batch")
	cmd.Flags().IntVar(&cfg.limit, "limit", 0, "cap rows returned per backend query (0: unlimited)")
	cmd.Flags().BoolVar(&cfg.forceFetchAll, "force-fetch-all", false, "return the full joined result even without an output sink")
	cmd.Flags().BoolVar(&cfg.fullJoin, "full-join", true, "use FULL OUTER JOIN across feature groups where the dialect supports it")

	cmd.MarkFlagRequired("catalog")        //nolint:errcheck
	cmd.MarkFlagRequired("entity-dataset") //nolint:errcheck
	cmd.MarkFlagRequired("entity-column")  //nolint:errcheck
	cmd.MarkFlagRequired("features")       //nolint:errcheck

	return cmd
}

func runJoin(ctx context.Context, cfg *joinConfig, logger zerolog.Logger) error {
	d, closeFn, err := buildDriver(ctx, cfg.catalogPath, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	d.FullJoin = cfg.fullJoin

	entityDataset, err := loadEntityDataset(cfg.entityDataset, cfg.eventTimestampColumn)
	if err != nil {
		return err
	}

	opts := driver.JoinOptions{
		EntityDataset:        entityDataset,
		EntityColumn:         cfg.entityColumn,
		EventTimestampColumn: cfg.eventTimestampColumn,
		Features:             cfg.features,
		ChunkSize:            cfg.chunkSize,
		ForceFetchAll:        cfg.forceFetchAll,
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

	result, err := d.Join(ctx, opts)
	if err != nil {
		return util.WrapError("join", err)
	}

	fmt.Fprintf(os.Stderr, "joined %d row(s)\n", result.RowCount)

	if cfg.output == "" {
		for _, row := range result.Dataset.Rows {
			fmt.Println(row)
		}
	}

	return nil
}
