package render

import "time"

// Destroyer is implemented by every native object the swapchain owns.
type Destroyer interface {
	Destroy()
}

// Image is a presentable image owned by the driver. The swapchain never
// destroys it; it only builds views on top of it.
type Image interface{}

type ImageView interface {
	Destroyer
}

// DepthImage bundles a depth image, its device memory and its view.
type DepthImage interface {
	Destroyer
	View() ImageView
}

type RenderPass interface {
	Destroyer
}

type Framebuffer interface {
	Destroyer
}

// Semaphore orders work between GPU queues. The CPU never waits on it.
type Semaphore interface {
	Destroyer
}

// Fence is signaled by the GPU when a submission completes.
type Fence interface {
	Destroyer
	Wait(timeout time.Duration) error
	Reset() error
	// Signaled polls the fence without blocking.
	Signaled() (bool, error)
}

// PresentChain is the driver's ring of presentable images.
type PresentChain interface {
	Destroyer
	Images() ([]Image, error)
	// AcquireNextImage returns the index of the next image to render into.
	// signal is signaled on the GPU once the image can be written.
	AcquireNextImage(timeout time.Duration, signal Semaphore) (int, Status, error)
}

type SubmitInfo struct {
	WaitSemaphores   []Semaphore
	WaitStages       []PipelineStages
	CommandBuffers   []CommandBuffer
	SignalSemaphores []Semaphore
}

type PresentInfo struct {
	WaitSemaphores []Semaphore
	Chain          PresentChain
	ImageIndex     int
}

type Queue interface {
	// Submit queues work; fence, if not nil, is signaled when it completes.
	Submit(fence Fence, info SubmitInfo) error
	Present(info PresentInfo) (Status, error)
}

type PresentChainOptions struct {
	Format        SurfaceFormat
	PresentMode   PresentMode
	Extent        Extent
	MinImageCount int

	// Old is the chain being replaced, if any. The driver may reuse its
	// resources; it stays owned by the caller.
	Old PresentChain
}

type AttachmentDescription struct {
	Format         Format
	LoadOp         LoadOp
	StoreOp        StoreOp
	StencilLoadOp  LoadOp
	StencilStoreOp StoreOp
	InitialLayout  ImageLayout
	FinalLayout    ImageLayout
	// Layout is the layout the attachment is in during the subpass.
	Layout ImageLayout
}

// SubpassDependency orders the single subpass against work submitted
// before the render pass began.
type SubpassDependency struct {
	SrcStages PipelineStages
	SrcAccess AccessFlags
	DstStages PipelineStages
	DstAccess AccessFlags
}

// RenderPassOptions describes a single-subpass pass with one color and
// one depth attachment.
type RenderPassOptions struct {
	Color      AttachmentDescription
	Depth      AttachmentDescription
	Dependency SubpassDependency
}

type FramebufferOptions struct {
	RenderPass  RenderPass
	Attachments []ImageView
	Extent      Extent
}

// Device is the graphics device the swapchain is built on. It owns the
// physical and logical device, the queues and the command pool.
type Device interface {
	SwapchainSupport() (SwapchainSupport, error)
	// FindSupportedDepthFormat returns the first candidate usable as an
	// optimally tiled depth-stencil attachment.
	FindSupportedDepthFormat(candidates []Format) (Format, error)

	GraphicsQueue() Queue
	PresentQueue() Queue

	CreatePresentChain(opts PresentChainOptions) (PresentChain, error)
	CreateImageView(image Image, format Format, aspect ImageAspect) (ImageView, error)
	CreateDepthImage(extent Extent, format Format) (DepthImage, error)
	CreateRenderPass(opts RenderPassOptions) (RenderPass, error)
	CreateFramebuffer(opts FramebufferOptions) (Framebuffer, error)
	CreateSemaphore() (Semaphore, error)
	CreateFence(signaled bool) (Fence, error)

	AllocateCommandBuffers(count int) ([]CommandBuffer, error)
	FreeCommandBuffers(buffers []CommandBuffer)

	WaitIdle() error
}

// Pipeline, PipelineLayout, DescriptorSet, DescriptorSetLayout and Buffer
// are backend handles. Render systems get them from the backend and hand
// them back to it unchanged.
type (
	Pipeline            interface{}
	PipelineLayout      interface{}
	DescriptorSet       interface{}
	DescriptorSetLayout interface{}
	Buffer              interface{}
)

// PipelineSpec describes a graphics pipeline for the swapchain render pass.
// Shaders are SPIR-V files; viewport and scissor are always dynamic.
type PipelineSpec struct {
	VertexShader   string
	FragmentShader string

	VertexBindings   []VertexBinding
	VertexAttributes []VertexAttribute

	SetLayouts         []DescriptorSetLayout
	PushConstantStages ShaderStages
	PushConstantSize   int

	// AlphaBlend blends the color attachment by source alpha.
	AlphaBlend bool

	RenderPass RenderPass
}

type RenderPassBegin struct {
	RenderPass   RenderPass
	Framebuffer  Framebuffer
	Area         Rect
	Color        ClearColor
	DepthStencil ClearDepthStencil
}

// CommandBuffer is a primary command buffer. Render systems record into
// it between Renderer.BeginRenderPass and Renderer.EndRenderPass.
type CommandBuffer interface {
	Begin() error
	End() error
	BeginRenderPass(begin RenderPassBegin) error
	EndRenderPass()
	SetViewport(viewport Viewport)
	SetScissor(scissor Rect)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance int)
	DrawIndexed(indexCount, instanceCount, firstIndex, vertexOffset, firstInstance int)

	BindPipeline(pipeline Pipeline)
	BindDescriptorSets(layout PipelineLayout, sets []DescriptorSet)
	PushConstants(layout PipelineLayout, stages ShaderStages, offset int, data []byte)
	BindVertexBuffers(buffers []Buffer, offsets []int)
	BindIndexBuffer(buffer Buffer, offset int)
}

// Window is the presentation surface the swapchain draws to.
type Window interface {
	// Extent is the current drawable size in pixels. It is zero in either
	// dimension while the window is minimized.
	Extent() Extent
	// ConsumeResizeFlag reports whether the window was resized since the
	// last call and clears the flag.
	ConsumeResizeFlag() bool
	// WaitEvents blocks until the window system delivers an event.
	WaitEvents()
}
