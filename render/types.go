package render

import (
	"math"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// MaxFramesInFlight is the number of frame slots. Each slot owns its own
// semaphores and fence, independent of the swapchain image count.
const MaxFramesInFlight = 2

// NoTimeout makes fence waits and image acquisition block until they complete.
const NoTimeout = time.Duration(math.MaxInt64)

// UndefinedExtent is the sentinel a surface reports when the swapchain
// extent is decided by the window instead of the surface.
const UndefinedExtent = -1

type Extent struct {
	Width  int
	Height int
}

// Valid reports whether both dimensions are positive.
func (e Extent) Valid() bool {
	return e.Width > 0 && e.Height > 0
}

func (e Extent) AspectRatio() float32 {
	if e.Height == 0 {
		return 0
	}
	return float32(e.Width) / float32(e.Height)
}

// Format is a pixel format. Values match the native graphics API enumeration
// so a backend can convert them with a plain cast.
type Format int

const (
	FormatUndefined                          Format = 0
	FormatR8G8B8A8UnsignedNormalized         Format = 37
	FormatR8G8B8A8SRGB                       Format = 43
	FormatB8G8R8A8UnsignedNormalized         Format = 44
	FormatB8G8R8A8SRGB                       Format = 50
	FormatR32G32SignedFloat                  Format = 103
	FormatR32G32B32SignedFloat               Format = 106
	FormatD32SignedFloat                     Format = 126
	FormatD24UnsignedNormalizedS8UnsignedInt Format = 129
	FormatD32SignedFloatS8UnsignedInt        Format = 130
)

// HasStencil reports whether a depth format carries a stencil component.
func (f Format) HasStencil() bool {
	return f == FormatD32SignedFloatS8UnsignedInt || f == FormatD24UnsignedNormalizedS8UnsignedInt
}

type ColorSpace int

const (
	ColorSpaceSRGBNonlinear ColorSpace = 0
)

type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

type PresentMode int

const (
	PresentImmediate   PresentMode = 0
	PresentMailbox     PresentMode = 1
	PresentFIFO        PresentMode = 2
	PresentFIFORelaxed PresentMode = 3
)

func (m PresentMode) String() string {
	switch m {
	case PresentImmediate:
		return "Immediate"
	case PresentMailbox:
		return "Mailbox"
	case PresentFIFO:
		return "V-Sync"
	case PresentFIFORelaxed:
		return "V-Sync (relaxed)"
	}
	return "Unknown"
}

// ParsePresentMode accepts "immediate", "mailbox", "fifo" and
// "fifo-relaxed".
func ParsePresentMode(s string) (PresentMode, error) {
	switch strings.ToLower(s) {
	case "immediate":
		return PresentImmediate, nil
	case "mailbox":
		return PresentMailbox, nil
	case "fifo", "vsync":
		return PresentFIFO, nil
	case "fifo-relaxed":
		return PresentFIFORelaxed, nil
	}
	return 0, errors.Newf("unknown present mode %q", s)
}

// SurfaceCapabilities mirrors what the driver reports for a surface.
// MaxImageCount of zero means the image count is unbounded.
type SurfaceCapabilities struct {
	MinImageCount  int
	MaxImageCount  int
	CurrentExtent  Extent
	MinImageExtent Extent
	MaxImageExtent Extent
}

type SwapchainSupport struct {
	Capabilities SurfaceCapabilities
	Formats      []SurfaceFormat
	PresentModes []PresentMode
}

// Status is the non-error outcome of acquiring or presenting an image.
type Status int

const (
	StatusSuccess Status = iota
	StatusSuboptimal
	StatusOutOfDate
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusSuboptimal:
		return "Suboptimal"
	case StatusOutOfDate:
		return "OutOfDate"
	}
	return "Unknown"
}

// Stale reports whether the swapchain should be rebuilt.
func (s Status) Stale() bool {
	return s == StatusSuboptimal || s == StatusOutOfDate
}

type LoadOp int

const (
	LoadOpLoad     LoadOp = 0
	LoadOpClear    LoadOp = 1
	LoadOpDontCare LoadOp = 2
)

type StoreOp int

const (
	StoreOpStore    StoreOp = 0
	StoreOpDontCare StoreOp = 1
)

type ImageLayout int

const (
	ImageLayoutUndefined                     ImageLayout = 0
	ImageLayoutColorAttachmentOptimal        ImageLayout = 2
	ImageLayoutDepthStencilAttachmentOptimal ImageLayout = 3
	ImageLayoutPresentSrc                    ImageLayout = 1000001002
)

type PipelineStages uint32

const (
	PipelineStageEarlyFragmentTests    PipelineStages = 0x00000100
	PipelineStageColorAttachmentOutput PipelineStages = 0x00000400
)

type AccessFlags uint32

const (
	AccessColorAttachmentWrite        AccessFlags = 0x00000100
	AccessDepthStencilAttachmentWrite AccessFlags = 0x00000400
)

type ImageAspect uint32

const (
	AspectColor ImageAspect = 0x1
	AspectDepth ImageAspect = 0x2
)

// VertexBinding describes one per-vertex input buffer.
type VertexBinding struct {
	Binding int
	Stride  int
}

// VertexAttribute locates one shader input inside a VertexBinding.
type VertexAttribute struct {
	Location int
	Binding  int
	Format   Format
	Offset   int
}

type ShaderStages uint32

const (
	StageVertex   ShaderStages = 0x1
	StageFragment ShaderStages = 0x10
)

type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

type Rect struct {
	X, Y   int
	Extent Extent
}

type ClearColor [4]float32

type ClearDepthStencil struct {
	Depth   float32
	Stencil uint32
}
