//go:build !cgo

package window

import "fmt"

func openGLFW() (Display, error) {
	return nil, fmt.Errorf("%w: glfw needs cgo", ErrBackendUnavailable)
}
