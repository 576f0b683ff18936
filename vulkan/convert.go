package vulkan

import (
	"github.com/vermicelli-engine/vermicelli/render"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
)

// The render enumerations share their numeric values with Vulkan, so most
// conversions are plain casts.

func extent2D(e render.Extent) core1_0.Extent2D {
	return core1_0.Extent2D{Width: e.Width, Height: e.Height}
}

func toExtent(e core1_0.Extent2D) render.Extent {
	return render.Extent{Width: e.Width, Height: e.Height}
}

func rect2D(r render.Rect) core1_0.Rect2D {
	return core1_0.Rect2D{
		Offset: core1_0.Offset2D{X: r.X, Y: r.Y},
		Extent: extent2D(r.Extent),
	}
}

func toCapabilities(c *khr_surface.SurfaceCapabilities) render.SurfaceCapabilities {
	return render.SurfaceCapabilities{
		MinImageCount:  c.MinImageCount,
		MaxImageCount:  c.MaxImageCount,
		CurrentExtent:  toExtent(c.CurrentExtent),
		MinImageExtent: toExtent(c.MinImageExtent),
		MaxImageExtent: toExtent(c.MaxImageExtent),
	}
}

func toSurfaceFormats(formats []khr_surface.SurfaceFormat) []render.SurfaceFormat {
	var out []render.SurfaceFormat
	for _, format := range formats {
		out = append(out, render.SurfaceFormat{
			Format:     render.Format(format.Format),
			ColorSpace: render.ColorSpace(format.ColorSpace),
		})
	}
	return out
}

func toPresentModes(modes []khr_surface.PresentMode) []render.PresentMode {
	var out []render.PresentMode
	for _, mode := range modes {
		out = append(out, render.PresentMode(mode))
	}
	return out
}

func attachmentDescription(a render.AttachmentDescription) core1_0.AttachmentDescription {
	desc := core1_0.AttachmentDescription{
		Format:        core1_0.Format(a.Format),
		Samples:       core1_0.Samples1,
		InitialLayout: core1_0.ImageLayout(a.InitialLayout),
		FinalLayout:   core1_0.ImageLayout(a.FinalLayout),
	}

	switch a.LoadOp {
	case render.LoadOpLoad:
		desc.LoadOp = core1_0.AttachmentLoadOpLoad
	case render.LoadOpClear:
		desc.LoadOp = core1_0.AttachmentLoadOpClear
	default:
		desc.LoadOp = core1_0.AttachmentLoadOpDontCare
	}
	switch a.StencilLoadOp {
	case render.LoadOpLoad:
		desc.StencilLoadOp = core1_0.AttachmentLoadOpLoad
	case render.LoadOpClear:
		desc.StencilLoadOp = core1_0.AttachmentLoadOpClear
	default:
		desc.StencilLoadOp = core1_0.AttachmentLoadOpDontCare
	}
	if a.StoreOp == render.StoreOpStore {
		desc.StoreOp = core1_0.AttachmentStoreOpStore
	} else {
		desc.StoreOp = core1_0.AttachmentStoreOpDontCare
	}
	if a.StencilStoreOp == render.StoreOpStore {
		desc.StencilStoreOp = core1_0.AttachmentStoreOpStore
	} else {
		desc.StencilStoreOp = core1_0.AttachmentStoreOpDontCare
	}

	return desc
}

func vertexBindings(bindings []render.VertexBinding) []core1_0.VertexInputBindingDescription {
	var out []core1_0.VertexInputBindingDescription
	for _, binding := range bindings {
		out = append(out, core1_0.VertexInputBindingDescription{
			Binding:   binding.Binding,
			Stride:    binding.Stride,
			InputRate: core1_0.VertexInputRateVertex,
		})
	}
	return out
}

func vertexAttributes(attributes []render.VertexAttribute) []core1_0.VertexInputAttributeDescription {
	var out []core1_0.VertexInputAttributeDescription
	for _, attribute := range attributes {
		out = append(out, core1_0.VertexInputAttributeDescription{
			Binding:  attribute.Binding,
			Location: attribute.Location,
			Format:   core1_0.Format(attribute.Format),
			Offset:   attribute.Offset,
		})
	}
	return out
}
