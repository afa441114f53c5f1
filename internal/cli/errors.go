package cli

import "errors"

// ErrUnsupportedConnectionScheme is returned when a catalog's connection
// URL names a scheme no backend in this build understands.
var ErrUnsupportedConnectionScheme = errors.New("cli: unsupported connection URL scheme")
