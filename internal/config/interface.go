package config

import (
	"context"
)

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads configuration from the given files or directories, evaluates
	// every expression, and returns the format-agnostic model. Stages are
	// ordered by their position in the lexically sorted file list.
	Load(ctx context.Context, paths ...string) (*Model, error)
}
