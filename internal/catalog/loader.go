package catalog

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/accented-ai/spellstore/internal/util"
)

var envPlaceholder = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// document is the on-disk shape of one catalog file: a top-level engine
// block plus entity and group declarations, following spellbook/base.py's
// "kind: entity|group|engine" YAML documents collapsed into one file.
type document struct {
	ConnectionURL string      `yaml:"connection_url"`
	Entities      []entityDoc `yaml:"entities"`
	Groups        []groupDoc  `yaml:"groups"`
}

type entityDoc struct {
	Name        string `yaml:"name"`
	ValueType   string `yaml:"value_type"`
	Description string `yaml:"description"`
}

type featureDoc struct {
	Name        string `yaml:"name"`
	ValueType   string `yaml:"value_type"`
	Description string `yaml:"description"`
}

type groupDoc struct {
	Name                  string       `yaml:"name"`
	Entity                string       `yaml:"entity"`
	Description           string       `yaml:"description"`
	EventTimestampColumn  string       `yaml:"event_timestamp_column"`
	CreateTimestampColumn string       `yaml:"create_timestamp_column"`
	Features              []featureDoc `yaml:"features"`
}

// LoadedCatalog bundles the parsed Catalog with the connection URL declared
// alongside it, ${NAME} placeholders already resolved against the
// environment (spellbook/base.py's EngineConfig._fix_envvars).
type LoadedCatalog struct {
	Catalog       *Catalog
	ConnectionURL string
}

// ParseYAML parses one catalog document and resolves its connection URL.
func ParseYAML(data []byte) (*LoadedCatalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, util.WrapError("parse catalog yaml", err)
	}

	entities := make([]EntitySpec, 0, len(doc.Entities))

	for _, e := range doc.Entities {
		vt, err := ParseValueType(e.ValueType)
		if err != nil {
			return nil, util.WrapError(fmt.Sprintf("entity %q", e.Name), err)
		}

		entities = append(entities, EntitySpec{Name: e.Name, ValueType: vt})
	}

	groups := make([]FeatureGroupSpec, 0, len(doc.Groups))

	for _, g := range doc.Groups {
		features := make([]FeatureSpec, 0, len(g.Features))

		for _, f := range g.Features {
			vt, err := ParseValueType(f.ValueType)
			if err != nil {
				return nil, util.WrapError(fmt.Sprintf("group %q feature %q", g.Name, f.Name), err)
			}

			features = append(features, FeatureSpec{Name: f.Name, ValueType: vt, Description: f.Description})
		}

		groups = append(groups, FeatureGroupSpec{
			Name:                  g.Name,
			Entity:                g.Entity,
			Features:              features,
			Description:           g.Description,
			EventTimestampColumn:  g.EventTimestampColumn,
			CreateTimestampColumn: g.CreateTimestampColumn,
		})
	}

	cat, err := New(entities, groups)
	if err != nil {
		return nil, err
	}

	return &LoadedCatalog{
		Catalog:       cat,
		ConnectionURL: ResolveEnvPlaceholders(doc.ConnectionURL, os.Environ()),
	}, nil
}

// LoadFile reads path and parses it as a catalog document.
func LoadFile(path string) (*LoadedCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, util.WrapError("read catalog file", err)
	}

	return ParseYAML(data)
}

// ResolveEnvPlaceholders substitutes ${NAME} tokens in raw against the
// given environment (as returned by os.Environ), the same substitution
// spellbook/base.py's EngineConfig._fix_envvars performs before an engine
// is constructed. An unresolved name is left untouched rather than
// erroring, since the original substitutes only when a matching variable
// exists in scope.
func ResolveEnvPlaceholders(raw string, environ []string) string {
	lookup := make(map[string]string, len(environ))

	for _, kv := range environ {
		if name, value, ok := strings.Cut(kv, "="); ok {
			lookup[name] = value
		}
	}

	return envPlaceholder.ReplaceAllStringFunc(raw, func(token string) string {
		name := envPlaceholder.FindStringSubmatch(token)[1]
		if value, ok := lookup[name]; ok {
			return value
		}

		return token
	})
}
