package driver

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/accented-ai/spellstore/internal/catalog"
	"github.com/accented-ai/spellstore/internal/composer"
	"github.com/accented-ai/spellstore/internal/planner"
	"github.com/accented-ai/spellstore/internal/queryast"
	"github.com/accented-ai/spellstore/internal/util"
)

// Driver is the Execution Driver of spec.md §4.5: it owns a Backend and a
// Catalog View and exposes the two caller-facing operations, Export and
// Join.
type Driver struct {
	Backend Backend
	Catalog catalog.View

	// FullJoin is the default join mode a request gets when it does not
	// override it, mirroring FeatureStore.__init__'s full_join=True default
	// (SPEC_FULL.md §4, item 4).
	FullJoin bool

	// ChunkSize is the default batch size for both Export and Join.
	ChunkSize int

	Logger zerolog.Logger
}

// New returns a Driver with the teacher's usual defaults: full outer joins
// where the dialect allows them, 1000-row batches, and a no-op logger until
// the caller attaches one.
func New(backend Backend, cat catalog.View) *Driver {
	return &Driver{
		Backend:   backend,
		Catalog:   cat,
		FullJoin:  true,
		ChunkSize: 1000,
		Logger:    zerolog.Nop(),
	}
}

// ParseFeatureRefs splits a comma-separated "group.column" token list per
// spec.md §6: group is everything before the final '.', column everything
// after. A token with no '.', or an empty group/column, is
// ErrInvalidFeatureToken.
func ParseFeatureRefs(tokens string) ([]catalog.FeatureRef, error) {
	parts := strings.Split(tokens, ",")
	refs := make([]catalog.FeatureRef, 0, len(parts))

	for _, raw := range parts {
		tok := strings.TrimSpace(raw)
		if tok == "" {
			continue
		}

		idx := strings.LastIndex(tok, ".")
		if idx <= 0 || idx == len(tok)-1 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidFeatureToken, tok)
		}

		refs = append(refs, catalog.FeatureRef{
			GroupName:  tok[:idx],
			ColumnName: tok[idx+1:],
		})
	}

	if len(refs) == 0 {
		return nil, fmt.Errorf("%w: empty feature list", ErrInvalidFeatureToken)
	}

	return refs, nil
}

// groupColumns folds a flat FeatureRef list into per-group column lists,
// preserving first-occurrence order of both groups and columns within a
// group. The first group named becomes the anchor (base) view.
func groupColumns(refs []catalog.FeatureRef) (order []string, columns map[string][]string) {
	columns = make(map[string][]string)

	for _, r := range refs {
		if _, seen := columns[r.GroupName]; !seen {
			order = append(order, r.GroupName)
		}

		columns[r.GroupName] = append(columns[r.GroupName], r.ColumnName)
	}

	return order, columns
}

// planRequest resolves a feature token list against the catalog and plans
// one PlannedView per distinct group, in first-mention order, restricted to
// entityKeys (nil means unrestricted) and snapshot.
func (d *Driver) planRequest(
	featureTokens string,
	args *queryast.Args,
	snapshot time.Time,
	entityKeys []any,
) ([]*planner.PlannedView, error) {
	refs, err := ParseFeatureRefs(featureTokens)
	if err != nil {
		return nil, err
	}

	for _, r := range refs {
		if r.ColumnName == catalog.RankSentinel {
			return nil, fmt.Errorf("%w: %q.%q", catalog.ErrRankColumnCollision, r.GroupName, r.ColumnName)
		}
	}

	order, columns := groupColumns(refs)

	views := make([]*planner.PlannedView, 0, len(order))

	for i, groupName := range order {
		meta, err := d.Catalog.GetGroup(groupName)
		if err != nil {
			return nil, err
		}

		spec := planner.FromCatalog(groupName, columns[groupName], meta)

		alias := "s" + strconv.Itoa(i+1)

		view, err := planner.Plan(spec, d.Backend.Dialect(), args, alias, snapshot, entityKeys)
		if err != nil {
			return nil, util.WrapError(fmt.Sprintf("plan feature group %q", groupName), err)
		}

		views = append(views, view)
	}

	return views, nil
}

// compose plans every requested group and combines the resulting views into
// one query, returning the rendered SQL and its bound argument values.
func (d *Driver) compose(
	featureTokens string,
	snapshot time.Time,
	entityKeys []any,
	fullJoin bool,
	limit *int,
) (string, []any, error) {
	args := queryast.NewArgs(d.Backend.Dialect())

	views, err := d.planRequest(featureTokens, args, snapshot, entityKeys)
	if err != nil {
		return "", nil, err
	}

	sel, err := composer.Compose(views, d.Backend.Dialect(), composer.Options{FullJoin: fullJoin, Limit: limit})
	if err != nil {
		return "", nil, util.WrapError("compose feature views", err)
	}

	if fullJoin && !d.Backend.Dialect().SupportsFullOuterJoin() {
		d.Logger.Debug().Str("dialect", d.Backend.Dialect().Name()).Msg("full_join requested; falling back to LEFT OUTER JOIN")
	}

	return sel.Render(), args.Values(), nil
}
