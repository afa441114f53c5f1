package dataframe

import "fmt"

// Group is one group produced by GroupBy: the shared key values and the
// rows (restricted to the original column set) that share them.
type Group struct {
	Key  []any
	Rows *DataFrame
}

// GroupBy partitions df by the given columns, preserving first-occurrence
// order of each distinct key — used by the execution driver's per-row
// point-in-time join mode, which treats each (entity, event_timestamp)
// group as one batch.
func (df *DataFrame) GroupBy(columns ...string) ([]Group, error) {
	indices := make([]int, len(columns))

	for i, c := range columns {
		idx, ok := df.ColumnIndex(c)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, c)
		}

		indices[i] = idx
	}

	order := make([]string, 0)
	byKey := make(map[string][]int)
	keyValues := make(map[string][]any)

	for rowIdx, row := range df.Rows {
		key := make([]any, len(indices))
		for i, idx := range indices {
			key[i] = row[idx]
		}

		keyStr := fmt.Sprint(key)
		if _, seen := byKey[keyStr]; !seen {
			order = append(order, keyStr)
			keyValues[keyStr] = key
		}

		byKey[keyStr] = append(byKey[keyStr], rowIdx)
	}

	groups := make([]Group, 0, len(order))
	for _, k := range order {
		groups = append(groups, Group{
			Key:  keyValues[k],
			Rows: df.SelectRows(byKey[k]),
		})
	}

	return groups, nil
}
