package catalog

import "fmt"

// RankSentinel is the base name the planner starts from when it needs a
// synthetic rank column (spec.md §4.3). A feature request naming this
// column directly is rejected by the driver with ErrRankColumnCollision;
// the planner itself picks a non-colliding rank name ("rrnk", ...) when an
// exposed column is already called "rnk".
const RankSentinel = "rnk"

// GroupMeta is the metadata the planner needs about one feature group:
// its entity column and, optionally, its event/create timestamp columns.
type GroupMeta struct {
	EntityColumn          string
	EventTimestampColumn  string
	CreateTimestampColumn string
}

// View is the read-only lookup the planner consults. It is pure and
// side-effect-free and safe to share across concurrent requests.
type View interface {
	GetGroup(name string) (GroupMeta, error)
}

// Catalog is the in-memory View implementation built by Load/ParseYAML.
type Catalog struct {
	entities map[string]EntitySpec
	groups   map[string]FeatureGroupSpec
	order    []string // group names, insertion order, for catalog listing commands
}

// New validates entities and groups and builds a Catalog, mirroring the
// invariants of spellbook's RepoConfig: entity/group/feature names unique,
// every group's entity must exist, and create_timestamp_column requires
// event_timestamp_column.
func New(entities []EntitySpec, groups []FeatureGroupSpec) (*Catalog, error) {
	c := &Catalog{
		entities: make(map[string]EntitySpec, len(entities)),
		groups:   make(map[string]FeatureGroupSpec, len(groups)),
	}

	for _, e := range entities {
		if _, exists := c.entities[e.Name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateEntityName, e.Name)
		}

		c.entities[e.Name] = e
	}

	for _, g := range groups {
		if _, exists := c.groups[g.Name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateGroupName, g.Name)
		}

		if _, ok := c.entities[g.Entity]; !ok {
			return nil, fmt.Errorf("%w: group %q references entity %q", ErrUnknownEntity, g.Name, g.Entity)
		}

		if g.CreateTimestampColumn != "" && g.EventTimestampColumn == "" {
			return nil, fmt.Errorf("%w: group %q", ErrCreateNeedsEventColumn, g.Name)
		}

		seen := make(map[string]struct{}, len(g.Features))
		for _, f := range g.Features {
			if _, exists := seen[f.Name]; exists {
				return nil, fmt.Errorf("%w: %q in group %q", ErrDuplicateFeatureName, f.Name, g.Name)
			}

			seen[f.Name] = struct{}{}
		}

		c.groups[g.Name] = g
		c.order = append(c.order, g.Name)
	}

	return c, nil
}

// GetGroup implements View.
func (c *Catalog) GetGroup(name string) (GroupMeta, error) {
	g, ok := c.groups[name]
	if !ok {
		return GroupMeta{}, fmt.Errorf("%w: %q", ErrUnknownGroup, name)
	}

	return GroupMeta{
		EntityColumn:          g.Entity,
		EventTimestampColumn:  g.EventTimestampColumn,
		CreateTimestampColumn: g.CreateTimestampColumn,
	}, nil
}

// Group returns the full declared spec for name, used by the catalog CLI
// commands (feature listing, descriptions) rather than by the planner.
func (c *Catalog) Group(name string) (FeatureGroupSpec, bool) {
	g, ok := c.groups[name]
	return g, ok
}

// Entities returns the declared entities in no particular order.
func (c *Catalog) Entities() []EntitySpec {
	out := make([]EntitySpec, 0, len(c.entities))
	for _, e := range c.entities {
		out = append(out, e)
	}

	return out
}

// Groups returns the declared groups in catalog-file order.
func (c *Catalog) Groups() []FeatureGroupSpec {
	out := make([]FeatureGroupSpec, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.groups[name])
	}

	return out
}
