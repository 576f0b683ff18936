package render

import (
	"github.com/cockroachdb/errors"
)

// Renderer drives the per-frame loop on top of a Swapchain. It allows at
// most one frame in progress and hides image acquisition and swapchain
// recreation from the render systems recording into its command buffers.
//
// A typical frame:
//
//	if cmd, err := r.BeginFrame(); err != nil {
//		return err
//	} else if cmd != nil {
//		r.BeginRenderPass(cmd)
//		// record draws
//		r.EndRenderPass(cmd)
//		err = r.EndFrame()
//	}
type Renderer struct {
	window Window
	device Device
	config SwapchainConfig

	swapchain      *Swapchain
	commandBuffers []CommandBuffer

	currentImageIndex int
	isFrameStarted    bool
	recreatePending   bool

	// ClearColor is the color the swapchain render pass clears to.
	ClearColor ClearColor
}

func NewRenderer(window Window, device Device, config SwapchainConfig) (*Renderer, error) {
	r := &Renderer{
		window:     window,
		device:     device,
		config:     config,
		ClearColor: ClearColor{0.01, 0.01, 0.01, 1},
	}

	err := r.recreateSwapchain()
	if err != nil {
		r.Close()
		return nil, err
	}

	return r, nil
}

// Close frees the command buffers and destroys the swapchain.
func (r *Renderer) Close() error {
	r.freeCommandBuffers()

	if r.swapchain == nil {
		return nil
	}
	err := r.swapchain.Destroy()
	r.swapchain = nil
	return err
}

// recreateSwapchain replaces the swapchain for the window's current extent.
// While the window has no area (minimized) it blocks on the window's event
// queue.
func (r *Renderer) recreateSwapchain() error {
	extent := r.window.Extent()
	for !extent.Valid() {
		r.window.WaitEvents()
		extent = r.window.Extent()
	}

	err := r.device.WaitIdle()
	if err != nil {
		return errors.Wrap(err, "wait for device idle")
	}

	old := r.swapchain
	if old != nil {
		old.state = StateRecreating
	}

	swapchain, err := NewSwapchain(r.device, extent, r.config, old)
	if err != nil {
		return err
	}
	r.swapchain = swapchain
	r.recreatePending = false

	if old != nil {
		compatible := old.FormatsCompatibleWith(swapchain)
		err = old.Destroy()
		if err != nil {
			return err
		}

		// TODO: notify the application so it can rebuild pipelines against
		// the new render pass instead of failing.
		if !compatible {
			return errors.Wrapf(ErrIncompatibleFormat, "color %d -> %d, depth %d -> %d",
				old.imageFormat, swapchain.imageFormat, old.depthFormat, swapchain.depthFormat)
		}
	}

	return r.createCommandBuffers()
}

// createCommandBuffers keeps one command buffer per swapchain image. They
// are recorded per frame slot, so there are never fewer than
// MaxFramesInFlight of them.
func (r *Renderer) createCommandBuffers() error {
	count := r.swapchain.ImageCount()
	if count < MaxFramesInFlight {
		count = MaxFramesInFlight
	}
	if len(r.commandBuffers) == count {
		return nil
	}

	r.freeCommandBuffers()

	buffers, err := r.device.AllocateCommandBuffers(count)
	if err != nil {
		return errors.Wrap(err, "allocate command buffers")
	}
	r.commandBuffers = buffers

	return nil
}

func (r *Renderer) freeCommandBuffers() {
	if len(r.commandBuffers) > 0 {
		r.device.FreeCommandBuffers(r.commandBuffers)
		r.commandBuffers = nil
	}
}

// BeginFrame acquires the next image and starts recording the current frame
// slot's command buffer. It returns a nil command buffer and a nil error when
// the frame has to be skipped because the swapchain was out of date.
func (r *Renderer) BeginFrame() (CommandBuffer, error) {
	if r.isFrameStarted {
		return nil, errors.AssertionFailedf("cannot call BeginFrame while a frame is already in progress")
	}

	if r.recreatePending {
		err := r.recreateSwapchain()
		if err != nil {
			return nil, err
		}
	}

	imageIndex, status, err := r.swapchain.AcquireNextImage()
	if err != nil {
		return nil, err
	}

	switch status {
	case StatusOutOfDate:
		Logger().Warn("skipping frame: swapchain out of date")
		return nil, r.recreateSwapchain()
	case StatusSuccess, StatusSuboptimal:
	default:
		return nil, errors.Newf("failed to acquire swapchain image: %s", status)
	}

	r.currentImageIndex = imageIndex
	r.isFrameStarted = true

	commandBuffer := r.commandBuffers[r.swapchain.CurrentFrame()]
	err = commandBuffer.Begin()
	if err != nil {
		return nil, errors.Wrap(err, "begin recording command buffer")
	}

	return commandBuffer, nil
}

// EndFrame stops recording, submits and presents. A stale swapchain or a
// pending window resize is handled by recreating the swapchain at the start
// of the next BeginFrame.
func (r *Renderer) EndFrame() error {
	if !r.isFrameStarted {
		return errors.AssertionFailedf("cannot call EndFrame while no frame is in progress")
	}
	defer func() { r.isFrameStarted = false }()

	commandBuffer := r.commandBuffers[r.swapchain.CurrentFrame()]
	err := commandBuffer.End()
	if err != nil {
		return errors.Wrap(err, "record command buffer")
	}

	status, err := r.swapchain.SubmitAndPresent(commandBuffer, r.currentImageIndex)
	if err != nil {
		return err
	}

	resized := r.window.ConsumeResizeFlag()
	if status.Stale() || resized || r.swapchain.State() == StateStaleDetected {
		Logger().Debug("swapchain recreation scheduled", "status", status.String(), "resized", resized)
		r.recreatePending = true
	}

	return nil
}

func (r *Renderer) checkCommandBuffer(commandBuffer CommandBuffer, op string) error {
	if !r.isFrameStarted {
		return errors.AssertionFailedf("cannot call %s while no frame is in progress", op)
	}
	if commandBuffer != r.commandBuffers[r.swapchain.CurrentFrame()] {
		return errors.AssertionFailedf("cannot call %s on a command buffer from a different frame", op)
	}
	return nil
}

// BeginRenderPass begins the swapchain render pass on the current image and
// sets a viewport and scissor covering the whole swapchain extent. Pipelines
// keep viewport and scissor dynamic, so a resize never rebuilds them.
func (r *Renderer) BeginRenderPass(commandBuffer CommandBuffer) error {
	err := r.checkCommandBuffer(commandBuffer, "BeginRenderPass")
	if err != nil {
		return err
	}

	extent := r.swapchain.Extent()
	err = commandBuffer.BeginRenderPass(RenderPassBegin{
		RenderPass:   r.swapchain.RenderPass(),
		Framebuffer:  r.swapchain.Framebuffer(r.currentImageIndex),
		Area:         Rect{Extent: extent},
		Color:        r.ClearColor,
		DepthStencil: ClearDepthStencil{Depth: 1, Stencil: 0},
	})
	if err != nil {
		return errors.Wrap(err, "begin render pass")
	}

	commandBuffer.SetViewport(Viewport{
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	})
	commandBuffer.SetScissor(Rect{Extent: extent})

	return nil
}

func (r *Renderer) EndRenderPass(commandBuffer CommandBuffer) error {
	err := r.checkCommandBuffer(commandBuffer, "EndRenderPass")
	if err != nil {
		return err
	}

	commandBuffer.EndRenderPass()
	return nil
}

func (r *Renderer) IsFrameInProgress() bool { return r.isFrameStarted }

// CommandBuffer returns the command buffer being recorded, or nil when no
// frame is in progress.
func (r *Renderer) CommandBuffer() CommandBuffer {
	if !r.isFrameStarted {
		return nil
	}
	return r.commandBuffers[r.swapchain.CurrentFrame()]
}

// FrameIndex is the current frame slot, in [0, MaxFramesInFlight).
func (r *Renderer) FrameIndex() int { return r.swapchain.CurrentFrame() }

func (r *Renderer) ImageIndex() int { return r.currentImageIndex }

func (r *Renderer) RenderPass() RenderPass { return r.swapchain.RenderPass() }

func (r *Renderer) AspectRatio() float32 { return r.swapchain.AspectRatio() }

func (r *Renderer) Swapchain() *Swapchain { return r.swapchain }
