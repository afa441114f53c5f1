package dataframe

import "strings"

// ChooseSuffix picks the shortest "_y", "_y_y", ... suffix that is not a
// suffix of any name in existing, following spec.md §9's re-architecture of
// the original's ad hoc "while colliding, append another _y" loop into "the
// shortest suffix not appearing as the tail of any existing name". LeftJoin
// does not call it: a right column with the same bare name as a left column
// would be suffixed and then dropped whichever suffix is chosen, so LeftJoin
// drops such columns directly. ChooseSuffix keeps the disambiguation rule
// visible and testable on its own.
func ChooseSuffix(existing []string) string {
	suffix := "_y"

	for {
		collides := false

		for _, name := range existing {
			if strings.HasSuffix(name, suffix) {
				collides = true
				break
			}
		}

		if !collides {
			return suffix
		}

		suffix += "_y"
	}
}

// LeftJoin joins df (left) to right on leftCol == rightCol, keeping every
// left row exactly once. Right-hand columns whose name collides with a
// left-hand column are dropped, so the left (entity-dataframe) value wins
// for any overlapping name — matching
// the original's merge-then-drop-suffixed-columns behavior in
// spellbook/feature_store.py's join(). Right has at most one row per key;
// if it has more, the first is used.
func (df *DataFrame) LeftJoin(right *DataFrame, leftCol, rightCol string) (*DataFrame, error) {
	leftIdx, ok := df.ColumnIndex(leftCol)
	if !ok {
		return nil, ErrUnknownColumn
	}

	rightIdx, ok := right.ColumnIndex(rightCol)
	if !ok {
		return nil, ErrUnknownColumn
	}

	leftNames := make(map[string]struct{}, len(df.Columns))
	for _, c := range df.Columns {
		leftNames[c] = struct{}{}
	}

	keptRightIdx := make([]int, 0, len(right.Columns))
	keptRightNames := make([]string, 0, len(right.Columns))

	for i, c := range right.Columns {
		if _, collides := leftNames[c]; collides {
			continue
		}

		keptRightIdx = append(keptRightIdx, i)
		keptRightNames = append(keptRightNames, c)
	}

	// Integer keys are compared as int64, so a CSV-parsed int64 matches a
	// driver-scanned int16/int32 of the same value.
	norm := func(v any) any {
		switch n := v.(type) {
		case int:
			return int64(n)
		case int16:
			return int64(n)
		case int32:
			return int64(n)
		}

		return v
	}

	byKey := make(map[any][]any, right.NumRows())

	for _, row := range right.Rows {
		key := norm(row[rightIdx])
		if _, exists := byKey[key]; !exists {
			byKey[key] = row
		}
	}

	out := New(append(append([]string{}, df.Columns...), keptRightNames...))

	for _, lrow := range df.Rows {
		rrow, matched := byKey[norm(lrow[leftIdx])]

		newRow := make([]any, 0, len(out.Columns))
		newRow = append(newRow, lrow...)

		for _, idx := range keptRightIdx {
			if matched {
				newRow = append(newRow, rrow[idx])
			} else {
				newRow = append(newRow, nil)
			}
		}

		if err := out.AddRow(newRow); err != nil {
			return nil, err
		}
	}

	return out, nil
}
