package vulkan

import (
	"testing"

	"github.com/vermicelli-engine/vermicelli/render"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/extensions/khr_swapchain"
)

func TestEnumsMatchVulkan(t *testing.T) {
	tests := []struct {
		name        string
		got, native int
	}{
		{"B8G8R8A8 sRGB", int(render.FormatB8G8R8A8SRGB), int(core1_0.FormatB8G8R8A8SRGB)},
		{"R8G8B8A8 sRGB", int(render.FormatR8G8B8A8SRGB), int(core1_0.FormatR8G8B8A8SRGB)},
		{"R32G32 float", int(render.FormatR32G32SignedFloat), int(core1_0.FormatR32G32SignedFloat)},
		{"R32G32B32 float", int(render.FormatR32G32B32SignedFloat), int(core1_0.FormatR32G32B32SignedFloat)},
		{"D32", int(render.FormatD32SignedFloat), int(core1_0.FormatD32SignedFloat)},
		{"D32S8", int(render.FormatD32SignedFloatS8UnsignedInt), int(core1_0.FormatD32SignedFloatS8UnsignedInt)},
		{"D24S8", int(render.FormatD24UnsignedNormalizedS8UnsignedInt), int(core1_0.FormatD24UnsignedNormalizedS8UnsignedInt)},
		{"sRGB nonlinear", int(render.ColorSpaceSRGBNonlinear), int(khr_surface.ColorSpaceSRGBNonlinear)},
		{"FIFO", int(render.PresentFIFO), int(khr_surface.PresentModeFIFO)},
		{"mailbox", int(render.PresentMailbox), int(khr_surface.PresentModeMailbox)},
		{"layout undefined", int(render.ImageLayoutUndefined), int(core1_0.ImageLayoutUndefined)},
		{"layout color", int(render.ImageLayoutColorAttachmentOptimal), int(core1_0.ImageLayoutColorAttachmentOptimal)},
		{"layout depth", int(render.ImageLayoutDepthStencilAttachmentOptimal), int(core1_0.ImageLayoutDepthStencilAttachmentOptimal)},
		{"layout present", int(render.ImageLayoutPresentSrc), int(khr_swapchain.ImageLayoutPresentSrc)},
		{"stage color output", int(render.PipelineStageColorAttachmentOutput), int(core1_0.PipelineStageColorAttachmentOutput)},
		{"stage early fragment", int(render.PipelineStageEarlyFragmentTests), int(core1_0.PipelineStageEarlyFragmentTests)},
		{"access color write", int(render.AccessColorAttachmentWrite), int(core1_0.AccessColorAttachmentWrite)},
		{"access depth write", int(render.AccessDepthStencilAttachmentWrite), int(core1_0.AccessDepthStencilAttachmentWrite)},
		{"aspect color", int(render.AspectColor), int(core1_0.ImageAspectColor)},
		{"aspect depth", int(render.AspectDepth), int(core1_0.ImageAspectDepth)},
		{"stage vertex", int(render.StageVertex), int(core1_0.StageVertex)},
		{"stage fragment", int(render.StageFragment), int(core1_0.StageFragment)},
	}

	for _, tt := range tests {
		if tt.got != tt.native {
			t.Errorf("%s: render value %d, Vulkan value %d", tt.name, tt.got, tt.native)
		}
	}
}

func TestAttachmentDescription(t *testing.T) {
	desc := attachmentDescription(render.AttachmentDescription{
		Format:         render.FormatD32SignedFloat,
		LoadOp:         render.LoadOpClear,
		StoreOp:        render.StoreOpDontCare,
		StencilLoadOp:  render.LoadOpDontCare,
		StencilStoreOp: render.StoreOpDontCare,
		InitialLayout:  render.ImageLayoutUndefined,
		FinalLayout:    render.ImageLayoutDepthStencilAttachmentOptimal,
	})

	if desc.Format != core1_0.FormatD32SignedFloat {
		t.Errorf("format: %v", desc.Format)
	}
	if desc.LoadOp != core1_0.AttachmentLoadOpClear || desc.StoreOp != core1_0.AttachmentStoreOpDontCare {
		t.Errorf("ops: %v %v", desc.LoadOp, desc.StoreOp)
	}
	if desc.StencilLoadOp != core1_0.AttachmentLoadOpDontCare || desc.StencilStoreOp != core1_0.AttachmentStoreOpDontCare {
		t.Errorf("stencil ops: %v %v", desc.StencilLoadOp, desc.StencilStoreOp)
	}
	if desc.FinalLayout != core1_0.ImageLayoutDepthStencilAttachmentOptimal {
		t.Errorf("final layout: %v", desc.FinalLayout)
	}
}

func TestCapabilitiesKeepUndefinedExtent(t *testing.T) {
	caps := toCapabilities(&khr_surface.SurfaceCapabilities{
		MinImageCount:  2,
		MaxImageCount:  0,
		CurrentExtent:  core1_0.Extent2D{Width: -1, Height: -1},
		MinImageExtent: core1_0.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: core1_0.Extent2D{Width: 4096, Height: 4096},
	})

	if caps.CurrentExtent.Width != render.UndefinedExtent {
		t.Errorf("current extent: %+v", caps.CurrentExtent)
	}
	if caps.MinImageCount != 2 || caps.MaxImageCount != 0 {
		t.Errorf("image counts: %+v", caps)
	}
}
