//go:build !linux

package window

import "fmt"

func openX11() (Display, error) {
	return nil, fmt.Errorf("%w: x11 is only built on linux", ErrBackendUnavailable)
}
