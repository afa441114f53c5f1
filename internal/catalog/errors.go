package catalog

import "errors"

var (
	// ErrUnknownGroup is returned by View.GetGroup for a name absent from
	// the catalog. It is one of the error codes spec.md §6 promises callers.
	ErrUnknownGroup = errors.New("unknown feature group")

	ErrUnknownEntity          = errors.New("unknown entity")
	ErrUnknownValueType       = errors.New("unknown value type")
	ErrDuplicateEntityName    = errors.New("duplicate entity name")
	ErrDuplicateGroupName     = errors.New("duplicate group name")
	ErrDuplicateFeatureName   = errors.New("duplicate feature name")
	ErrCreateNeedsEventColumn = errors.New("create_timestamp_column set without event_timestamp_column")
	ErrRankColumnCollision    = errors.New("column name collides with the reserved rank sentinel")
)
