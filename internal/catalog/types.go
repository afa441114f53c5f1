// Package catalog is the read-only lookup of feature-group metadata the
// planner consults: entity key column, event-timestamp column, and
// create-timestamp column per feature group. It also loads that metadata
// from a YAML catalog file, mirroring spellbook/base.py's RepoConfig, and
// resolves ${NAME}-style placeholders in connection URLs against the
// environment.
package catalog

import "fmt"

// ValueType is the tagged variant spec.md §9 asks for in place of the
// original's runtime-resolved Python type.
type ValueType int

const (
	ValueTypeUnknown ValueType = iota
	ValueTypeString
	ValueTypeInt
	ValueTypeFloat
	ValueTypeTimestamp
)

func (v ValueType) String() string {
	switch v {
	case ValueTypeString:
		return "string"
	case ValueTypeInt:
		return "int"
	case ValueTypeFloat:
		return "float"
	case ValueTypeTimestamp:
		return "timestamp"
	default:
		return "unknown"
	}
}

// ParseValueType maps the catalog file's string spelling onto a ValueType,
// the same vocabulary as spellbook/base.py's type_mapper (str, int, float,
// datetime).
func ParseValueType(s string) (ValueType, error) {
	switch s {
	case "str", "string":
		return ValueTypeString, nil
	case "int":
		return ValueTypeInt, nil
	case "float":
		return ValueTypeFloat, nil
	case "datetime", "timestamp":
		return ValueTypeTimestamp, nil
	default:
		return ValueTypeUnknown, fmt.Errorf("%w: %q", ErrUnknownValueType, s)
	}
}

// EntitySpec is a logical key space, e.g. "user" or "device".
type EntitySpec struct {
	Name      string
	ValueType ValueType
}

// FeatureSpec is one declared column exposed by a FeatureGroupSpec.
type FeatureSpec struct {
	Name        string
	ValueType   ValueType
	Description string
}

// FeatureGroupSpec is a named table-like collection of features sharing an
// entity key and, optionally, an event-time axis.
type FeatureGroupSpec struct {
	Name                  string
	Entity                string
	Features              []FeatureSpec
	Description           string
	EventTimestampColumn  string // "" means no event-time axis
	CreateTimestampColumn string // "" means no tie-break column; requires EventTimestampColumn
}

// HasEventTimestamp reports whether g carries an event-time axis.
func (g FeatureGroupSpec) HasEventTimestamp() bool {
	return g.EventTimestampColumn != ""
}

// HasCreateTimestamp reports whether g carries a tie-break column.
func (g FeatureGroupSpec) HasCreateTimestamp() bool {
	return g.CreateTimestampColumn != ""
}

// FeatureRef is one "group.column" token from a feature request.
type FeatureRef struct {
	GroupName  string
	ColumnName string
}
