package render

import "github.com/cockroachdb/errors"

// SwapchainConfig holds the selection preferences used when a swapchain is
// created. Selection is deterministic for a given capability list.
type SwapchainConfig struct {
	PreferredFormat SurfaceFormat

	// PreferredPresentMode is used when the surface supports it. FIFO is
	// always supported and is the fallback.
	PreferredPresentMode PresentMode

	// DepthFormats are probed in order; the first supported one is used.
	DepthFormats []Format
}

func DefaultSwapchainConfig() SwapchainConfig {
	return SwapchainConfig{
		PreferredFormat: SurfaceFormat{
			Format:     FormatB8G8R8A8SRGB,
			ColorSpace: ColorSpaceSRGBNonlinear,
		},
		// Mailbox renders far faster than the display refresh; stick to vsync.
		PreferredPresentMode: PresentFIFO,
		DepthFormats: []Format{
			FormatD32SignedFloat,
			FormatD32SignedFloatS8UnsignedInt,
			FormatD24UnsignedNormalizedS8UnsignedInt,
		},
	}
}

func chooseSwapSurfaceFormat(preferred SurfaceFormat, availableFormats []SurfaceFormat) (SurfaceFormat, error) {
	if len(availableFormats) == 0 {
		return SurfaceFormat{}, errors.Wrap(ErrUnsupported, "surface reports no formats")
	}

	for _, format := range availableFormats {
		if format == preferred {
			return format, nil
		}
	}

	return availableFormats[0], nil
}

func chooseSwapPresentMode(preferred PresentMode, availablePresentModes []PresentMode) PresentMode {
	for _, presentMode := range availablePresentModes {
		if presentMode == preferred {
			return presentMode
		}
	}

	return PresentFIFO
}

// chooseSwapExtent uses the surface's current extent when it defines one,
// otherwise it clamps the window size to the surface limits.
func chooseSwapExtent(capabilities SurfaceCapabilities, window Extent) Extent {
	if capabilities.CurrentExtent.Width != UndefinedExtent {
		return capabilities.CurrentExtent
	}

	width := window.Width
	height := window.Height

	if width < capabilities.MinImageExtent.Width {
		width = capabilities.MinImageExtent.Width
	}
	if width > capabilities.MaxImageExtent.Width {
		width = capabilities.MaxImageExtent.Width
	}
	if height < capabilities.MinImageExtent.Height {
		height = capabilities.MinImageExtent.Height
	}
	if height > capabilities.MaxImageExtent.Height {
		height = capabilities.MaxImageExtent.Height
	}

	return Extent{Width: width, Height: height}
}

func chooseImageCount(capabilities SurfaceCapabilities) int {
	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && capabilities.MaxImageCount < imageCount {
		imageCount = capabilities.MaxImageCount
	}
	return imageCount
}
