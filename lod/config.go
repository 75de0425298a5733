package lod

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
)

const (
	ErrTypeInvalidConfig = "invalid_config"

	DefaultHeight = 10
	DefaultDetail = 1

	// MaxRootRadius bounds the (2r+1)^3 roots filled per cycle.
	MaxRootRadius = 8
)

// Config holds the construction constants of a Manager. It is not meant to be
// changed once the manager is running.
type Config struct {
	// The number of levels of the octree. The root level is Height-1.
	Height int

	// The extra finest-level cells of margin kept refined around the focus.
	Detail int32

	// How many root cells around the root containing the focus get filled
	// on each axis. 0 only fills the root that contains the focus.
	RootRadius int32

	// The number of roots filled concurrently. 1 fills them sequentially.
	Workers int
}

func DefaultConfig() Config {
	return Config{
		Height:  DefaultHeight,
		Detail:  DefaultDetail,
		Workers: 1,
	}
}

// Validate checks the config fields owned by the update cycle. The height is
// checked when the octree is created.
func (c Config) Validate() error {
	if c.Detail < 0 {
		return errors.New("detail cannot be negative").
			WithType(ErrTypeInvalidConfig).
			WithTag("detail", c.Detail)
	}

	if c.RootRadius < 0 || c.RootRadius > MaxRootRadius {
		return errors.New("root radius out of range").
			WithType(ErrTypeInvalidConfig).
			WithTag("root_radius", c.RootRadius).
			WithTag("max_root_radius", MaxRootRadius)
	}

	if c.Workers < 1 {
		return errors.New("at least one worker is required").
			WithType(ErrTypeInvalidConfig).
			WithTag("workers", c.Workers)
	}
	return nil
}
