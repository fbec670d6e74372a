package store

import "github.com/readshelfapp/readshelf-server/internal/errors"

// Sentinel errors returned by store operations. They are the engine's shared
// domain errors so callers match with errors.Is regardless of which layer
// produced them.
var (
	ErrNotFound      = errors.ErrNotFound
	ErrAlreadyExists = errors.ErrAlreadyExists
)
