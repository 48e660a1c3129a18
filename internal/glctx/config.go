// Package glctx acquires GL contexts and window surfaces from a
// window.Display: it picks a framebuffer configuration, walks a fallback
// chain of context strategies, and tracks which context is current.
package glctx

import (
	"errors"

	"github.com/tinyrange/glspin/internal/window"
)

var (
	ErrNoConfigAvailable     = errors.New("no framebuffer config available")
	ErrContextCreationFailed = errors.New("context creation failed")
	ErrSurfaceCreationFailed = errors.New("surface creation failed")
	ErrMakeCurrentFailed     = errors.New("make current failed")
)

// SelectConfig picks one of candidates. A candidate replaces the running
// best when it is transparent and the best is not, or when it has strictly
// more samples. Ties keep the earlier candidate.
func SelectConfig(candidates []window.Config) (window.Config, error) {
	if len(candidates) == 0 {
		return window.Config{}, ErrNoConfigAvailable
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if (c.Transparent && !best.Transparent) || c.Samples > best.Samples {
			best = c
		}
	}
	return best, nil
}
