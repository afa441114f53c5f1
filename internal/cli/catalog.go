package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/accented-ai/spellstore/internal/catalog"
	"github.com/accented-ai/spellstore/internal/config"
	"github.com/accented-ai/spellstore/internal/util"
)

type catalogConfig struct {
	catalogPath string
	subset      string
}

// newCatalogCommand reimplements spellbook/base.py's print_entity /
// print_group / print_feature / print_meta as one subcommand with a
// --subset flag, per SPEC_FULL.md's supplemented-features section. There is
// no table-formatting library anywhere in the retrieval pack, so this uses
// text/tabwriter (see DESIGN.md).
func newCatalogCommand(ctx context.Context, appCfg *config.Config) *cobra.Command {
	cfg := &catalogConfig{}

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print the declared entities, feature groups, or features",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runCatalog(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.catalogPath, "catalog", appCfg.CatalogPath, "path to the catalog YAML file")
	cmd.Flags().StringVar(&cfg.subset, "subset", "meta", "entity | group | feature | meta")

	cmd.MarkFlagRequired("catalog") //nolint:errcheck

	return cmd
}

func runCatalog(_ context.Context, cfg *catalogConfig) error {
	loaded, err := loadCatalog(cfg.catalogPath)
	if err != nil {
		return err
	}

	cat := loaded.Catalog

	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	defer w.Flush()

	switch cfg.subset {
	case "entity":
		printEntities(w, cat.Entities())
	case "group":
		printGroups(w, cat.Groups())
	case "feature":
		printFeatures(w, cat.Groups())
	case "meta":
		printEntities(w, cat.Entities())
		fmt.Fprintln(w)
		printGroups(w, cat.Groups())
		fmt.Fprintln(w)
		printFeatures(w, cat.Groups())
	default:
		return util.WrapError("print catalog", fmt.Errorf("unknown --subset %q", cfg.subset))
	}

	return nil
}

func printEntities(w *tabwriter.Writer, entities []catalog.EntitySpec) {
	fmt.Fprintln(w, "ENTITY\tVALUE TYPE")

	for _, e := range entities {
		fmt.Fprintf(w, "%s\t%s\n", e.Name, e.ValueType)
	}
}

func printGroups(w *tabwriter.Writer, groups []catalog.FeatureGroupSpec) {
	fmt.Fprintln(w, "GROUP\tENTITY\tEVENT TIMESTAMP\tCREATE TIMESTAMP\tFEATURES")

	for _, g := range groups {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", g.Name, g.Entity, orDash(g.EventTimestampColumn), orDash(g.CreateTimestampColumn), len(g.Features))
	}
}

func printFeatures(w *tabwriter.Writer, groups []catalog.FeatureGroupSpec) {
	fmt.Fprintln(w, "GROUP\tFEATURE\tVALUE TYPE\tDESCRIPTION")

	for _, g := range groups {
		for _, f := range g.Features {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", g.Name, f.Name, f.ValueType, f.Description)
		}
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}
