package render

import (
	"github.com/cockroachdb/errors"
)

// Fatal error kinds. A backend marks native failures with one of these
// using errors.Mark so callers can classify them with errors.Is.
// None of them is retried; the application is expected to tear down and exit.
var (
	ErrDeviceLost    = errors.New("render: device lost")
	ErrSurfaceLost   = errors.New("render: surface lost")
	ErrOutOfMemory   = errors.New("render: out of memory")
	ErrUnsupported   = errors.New("render: no supported format")
	ErrInvalidExtent = errors.New("render: extent must be positive in both dimensions")

	// ErrIncompatibleFormat is returned when a recreated swapchain picked
	// different color or depth formats than the one it replaced. Pipelines
	// built against the old render pass are no longer valid.
	ErrIncompatibleFormat = errors.New("render: swapchain image/depth format has changed")
)

// IsContractViolation reports whether err comes from calling the renderer
// out of order (for example BeginFrame twice without EndFrame).
func IsContractViolation(err error) bool {
	return errors.IsAssertionFailure(err)
}
