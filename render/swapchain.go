package render

import (
	"github.com/cockroachdb/errors"
)

type SwapchainState int

const (
	StateUninitialized SwapchainState = iota
	StateReady
	// StateStaleDetected means the driver reported the chain as suboptimal
	// or out of date. It keeps working until it is replaced.
	StateStaleDetected
	StateRecreating
	StateDestroyed
)

func (s SwapchainState) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateReady:
		return "Ready"
	case StateStaleDetected:
		return "StaleDetected"
	case StateRecreating:
		return "Recreating"
	case StateDestroyed:
		return "Destroyed"
	}
	return "Unknown"
}

// Swapchain owns the presentable images of one surface configuration along
// with everything derived from them: color views, per-image depth buffers,
// the render pass, framebuffers and the per-frame-slot synchronization
// objects.
//
// Frame slots and images are different things. Semaphores and fences are
// indexed by the current frame slot (0..MaxFramesInFlight-1), framebuffers
// by image index. imagesInFlight ties the two together.
type Swapchain struct {
	device Device
	config SwapchainConfig
	state  SwapchainState

	chain        PresentChain
	windowExtent Extent
	extent       Extent
	imageFormat  Format
	depthFormat  Format
	colorSpace   ColorSpace
	presentMode  PresentMode

	images       []Image
	imageViews   []ImageView
	depthImages  []DepthImage
	renderPass   RenderPass
	framebuffers []Framebuffer

	imageAvailable []Semaphore
	renderFinished []Semaphore
	inFlight       []Fence
	imagesInFlight []Fence
	currentFrame   int
}

// NewSwapchain builds a swapchain for windowExtent.
//
// previous, if not nil, is only borrowed: its present chain is handed to the
// driver as a recreation hint and its frame-slot counter is carried over so
// slot rotation continues across recreations. The caller destroys previous
// after NewSwapchain returns.
func NewSwapchain(device Device, windowExtent Extent, config SwapchainConfig, previous *Swapchain) (*Swapchain, error) {
	if !windowExtent.Valid() {
		return nil, errors.Wrapf(ErrInvalidExtent, "window extent %dx%d", windowExtent.Width, windowExtent.Height)
	}

	s := &Swapchain{
		device:       device,
		config:       config,
		windowExtent: windowExtent,
	}
	if previous != nil {
		s.currentFrame = previous.currentFrame
	}

	err := s.init(previous)
	if err != nil {
		s.release()
		return nil, err
	}

	s.state = StateReady
	Logger().Info("swapchain created",
		"extent", s.extent,
		"images", len(s.images),
		"presentMode", s.presentMode.String(),
		"recreated", previous != nil)
	Logger().Debug("swapchain formats",
		"color", int(s.imageFormat),
		"colorSpace", int(s.colorSpace),
		"depth", int(s.depthFormat))

	return s, nil
}

func (s *Swapchain) init(previous *Swapchain) error {
	var old PresentChain
	if previous != nil {
		old = previous.chain
	}

	err := s.createSwapchain(old)
	if err != nil {
		return err
	}

	err = s.createImageViews()
	if err != nil {
		return err
	}

	err = s.createRenderPass()
	if err != nil {
		return err
	}

	err = s.createDepthResources()
	if err != nil {
		return err
	}

	err = s.createFramebuffers()
	if err != nil {
		return err
	}

	return s.createSyncObjects()
}

func (s *Swapchain) createSwapchain(old PresentChain) error {
	support, err := s.device.SwapchainSupport()
	if err != nil {
		return errors.Wrap(err, "query swapchain support")
	}

	surfaceFormat, err := chooseSwapSurfaceFormat(s.config.PreferredFormat, support.Formats)
	if err != nil {
		return err
	}
	presentMode := chooseSwapPresentMode(s.config.PreferredPresentMode, support.PresentModes)
	extent := chooseSwapExtent(support.Capabilities, s.windowExtent)

	chain, err := s.device.CreatePresentChain(PresentChainOptions{
		Format:        surfaceFormat,
		PresentMode:   presentMode,
		Extent:        extent,
		MinImageCount: chooseImageCount(support.Capabilities),
		Old:           old,
	})
	if err != nil {
		return errors.Wrap(err, "create swapchain")
	}
	s.chain = chain

	// The driver may create more images than requested.
	images, err := chain.Images()
	if err != nil {
		return errors.Wrap(err, "get swapchain images")
	}
	if len(images) == 0 {
		return errors.New("swapchain has no images")
	}

	s.images = images
	s.imageFormat = surfaceFormat.Format
	s.colorSpace = surfaceFormat.ColorSpace
	s.presentMode = presentMode
	s.extent = extent

	return nil
}

func (s *Swapchain) createImageViews() error {
	for _, image := range s.images {
		view, err := s.device.CreateImageView(image, s.imageFormat, AspectColor)
		if err != nil {
			return errors.Wrap(err, "create swapchain image view")
		}

		s.imageViews = append(s.imageViews, view)
	}

	return nil
}

func (s *Swapchain) createRenderPass() error {
	depthFormat, err := s.device.FindSupportedDepthFormat(s.config.DepthFormats)
	if err != nil {
		return errors.Wrap(err, "find depth format")
	}
	s.depthFormat = depthFormat

	renderPass, err := s.device.CreateRenderPass(swapchainRenderPass(s.imageFormat, depthFormat))
	if err != nil {
		return errors.Wrap(err, "create render pass")
	}
	s.renderPass = renderPass

	return nil
}

// swapchainRenderPass clears color and depth, keeps color for presentation
// and discards depth. The external dependency makes the subpass wait for the
// previous frame's color output and depth tests on the same attachments.
func swapchainRenderPass(colorFormat, depthFormat Format) RenderPassOptions {
	return RenderPassOptions{
		Color: AttachmentDescription{
			Format:         colorFormat,
			LoadOp:         LoadOpClear,
			StoreOp:        StoreOpStore,
			StencilLoadOp:  LoadOpDontCare,
			StencilStoreOp: StoreOpDontCare,
			InitialLayout:  ImageLayoutUndefined,
			FinalLayout:    ImageLayoutPresentSrc,
			Layout:         ImageLayoutColorAttachmentOptimal,
		},
		Depth: AttachmentDescription{
			Format:         depthFormat,
			LoadOp:         LoadOpClear,
			StoreOp:        StoreOpDontCare,
			StencilLoadOp:  LoadOpDontCare,
			StencilStoreOp: StoreOpDontCare,
			InitialLayout:  ImageLayoutUndefined,
			FinalLayout:    ImageLayoutDepthStencilAttachmentOptimal,
			Layout:         ImageLayoutDepthStencilAttachmentOptimal,
		},
		Dependency: SubpassDependency{
			SrcStages: PipelineStageColorAttachmentOutput | PipelineStageEarlyFragmentTests,
			SrcAccess: 0,
			DstStages: PipelineStageColorAttachmentOutput | PipelineStageEarlyFragmentTests,
			DstAccess: AccessColorAttachmentWrite | AccessDepthStencilAttachmentWrite,
		},
	}
}

func (s *Swapchain) createDepthResources() error {
	for range s.images {
		depthImage, err := s.device.CreateDepthImage(s.extent, s.depthFormat)
		if err != nil {
			return errors.Wrap(err, "create depth image")
		}

		s.depthImages = append(s.depthImages, depthImage)
	}

	return nil
}

func (s *Swapchain) createFramebuffers() error {
	for i, imageView := range s.imageViews {
		framebuffer, err := s.device.CreateFramebuffer(FramebufferOptions{
			RenderPass: s.renderPass,
			Attachments: []ImageView{
				imageView,
				s.depthImages[i].View(),
			},
			Extent: s.extent,
		})
		if err != nil {
			return errors.Wrap(err, "create framebuffer")
		}

		s.framebuffers = append(s.framebuffers, framebuffer)
	}

	return nil
}

func (s *Swapchain) createSyncObjects() error {
	for i := 0; i < MaxFramesInFlight; i++ {
		semaphore, err := s.device.CreateSemaphore()
		if err != nil {
			return errors.Wrap(err, "create image available semaphore")
		}
		s.imageAvailable = append(s.imageAvailable, semaphore)

		semaphore, err = s.device.CreateSemaphore()
		if err != nil {
			return errors.Wrap(err, "create render finished semaphore")
		}
		s.renderFinished = append(s.renderFinished, semaphore)

		// Signaled so the first wait on each slot returns immediately.
		fence, err := s.device.CreateFence(true)
		if err != nil {
			return errors.Wrap(err, "create in-flight fence")
		}
		s.inFlight = append(s.inFlight, fence)
	}

	s.imagesInFlight = make([]Fence, len(s.images))

	return nil
}

// AcquireNextImage waits until the current frame slot is free on the CPU
// side and asks the driver for the next image. The slot's image available
// semaphore is signaled on the GPU and consumed by SubmitAndPresent.
func (s *Swapchain) AcquireNextImage() (int, Status, error) {
	err := s.inFlight[s.currentFrame].Wait(NoTimeout)
	if err != nil {
		return 0, StatusSuccess, errors.Wrap(err, "wait for in-flight fence")
	}

	imageIndex, status, err := s.chain.AcquireNextImage(NoTimeout, s.imageAvailable[s.currentFrame])
	if err != nil {
		return 0, status, errors.Wrap(err, "acquire next image")
	}

	if status.Stale() {
		s.markStale(status)
	}

	return imageIndex, status, nil
}

// SubmitAndPresent submits commandBuffer for imageIndex and presents the
// image. The frame slot advances whatever the present status is.
func (s *Swapchain) SubmitAndPresent(commandBuffer CommandBuffer, imageIndex int) (Status, error) {
	if imageIndex < 0 || imageIndex >= len(s.images) {
		return StatusSuccess, errors.AssertionFailedf("image index %d out of range [0,%d)", imageIndex, len(s.images))
	}

	err := s.releaseCompletedImages()
	if err != nil {
		return StatusSuccess, err
	}

	fence := s.inFlight[s.currentFrame]

	// Another slot may still be rendering into this image.
	if previous := s.imagesInFlight[imageIndex]; previous != nil && previous != fence {
		err = previous.Wait(NoTimeout)
		if err != nil {
			return StatusSuccess, errors.Wrap(err, "wait for image in flight")
		}
	}
	s.imagesInFlight[imageIndex] = fence

	err = fence.Reset()
	if err != nil {
		return StatusSuccess, errors.Wrap(err, "reset in-flight fence")
	}

	err = s.device.GraphicsQueue().Submit(fence, SubmitInfo{
		WaitSemaphores:   []Semaphore{s.imageAvailable[s.currentFrame]},
		WaitStages:       []PipelineStages{PipelineStageColorAttachmentOutput},
		CommandBuffers:   []CommandBuffer{commandBuffer},
		SignalSemaphores: []Semaphore{s.renderFinished[s.currentFrame]},
	})
	if err != nil {
		return StatusSuccess, errors.Wrap(err, "submit draw command buffer")
	}

	status, err := s.device.PresentQueue().Present(PresentInfo{
		WaitSemaphores: []Semaphore{s.renderFinished[s.currentFrame]},
		Chain:          s.chain,
		ImageIndex:     imageIndex,
	})

	s.currentFrame = (s.currentFrame + 1) % MaxFramesInFlight

	if err != nil {
		return status, errors.Wrap(err, "present swapchain image")
	}
	if status.Stale() {
		s.markStale(status)
	}

	return status, nil
}

// releaseCompletedImages forgets images whose last submission has finished.
func (s *Swapchain) releaseCompletedImages() error {
	for i, fence := range s.imagesInFlight {
		if fence == nil {
			continue
		}

		signaled, err := fence.Signaled()
		if err != nil {
			return errors.Wrap(err, "query fence status")
		}
		if signaled {
			s.imagesInFlight[i] = nil
		}
	}

	return nil
}

func (s *Swapchain) markStale(status Status) {
	if s.state == StateReady {
		Logger().Warn("swapchain is stale", "status", status.String())
		s.state = StateStaleDetected
	}
}

// Destroy waits for the device to go idle and releases everything the
// swapchain created. It is safe to call more than once.
func (s *Swapchain) Destroy() error {
	if s.state == StateDestroyed {
		return nil
	}

	err := s.device.WaitIdle()
	s.release()
	s.state = StateDestroyed

	return errors.Wrap(err, "wait for device idle")
}

func (s *Swapchain) release() {
	for _, imageView := range s.imageViews {
		imageView.Destroy()
	}
	s.imageViews = nil

	if s.chain != nil {
		s.chain.Destroy()
		s.chain = nil
	}
	s.images = nil

	for _, depthImage := range s.depthImages {
		depthImage.Destroy()
	}
	s.depthImages = nil

	for _, framebuffer := range s.framebuffers {
		framebuffer.Destroy()
	}
	s.framebuffers = nil

	if s.renderPass != nil {
		s.renderPass.Destroy()
		s.renderPass = nil
	}

	for _, semaphore := range s.renderFinished {
		semaphore.Destroy()
	}
	s.renderFinished = nil

	for _, semaphore := range s.imageAvailable {
		semaphore.Destroy()
	}
	s.imageAvailable = nil

	for _, fence := range s.inFlight {
		fence.Destroy()
	}
	s.inFlight = nil
	s.imagesInFlight = nil
}

// FormatsCompatibleWith reports whether other uses the same color and depth
// formats, meaning pipelines built for one render pass work with the other.
func (s *Swapchain) FormatsCompatibleWith(other *Swapchain) bool {
	return s.imageFormat == other.imageFormat && s.depthFormat == other.depthFormat
}

func (s *Swapchain) State() SwapchainState { return s.state }

func (s *Swapchain) ImageCount() int { return len(s.images) }

func (s *Swapchain) Extent() Extent { return s.extent }

func (s *Swapchain) AspectRatio() float32 { return s.extent.AspectRatio() }

func (s *Swapchain) ImageFormat() Format { return s.imageFormat }

func (s *Swapchain) DepthFormat() Format { return s.depthFormat }

func (s *Swapchain) PresentMode() PresentMode { return s.presentMode }

func (s *Swapchain) RenderPass() RenderPass { return s.renderPass }

func (s *Swapchain) Framebuffer(imageIndex int) Framebuffer { return s.framebuffers[imageIndex] }

// CurrentFrame is the frame slot the next acquire will use.
func (s *Swapchain) CurrentFrame() int { return s.currentFrame }
