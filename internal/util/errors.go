// Package util provides small cross-cutting helpers shared by every
// spellstore package.
package util

import "fmt"

// WrapError annotates err with op, following the "op: cause" convention used
// throughout the codebase. It returns nil when err is nil so call sites can
// write "return util.WrapError(op, err)" unconditionally.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%s: %w", op, err)
}
