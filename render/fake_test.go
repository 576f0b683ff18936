package render

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
)

// fakeDevice simulates a driver and a GPU. Submissions complete after
// latency further presents; a negative latency keeps them pending until a
// CPU wait on their fence.
type fakeDevice struct {
	support      SwapchainSupport
	depthSupport map[Format]bool
	latency      int

	acquireStatuses []Status
	presentStatuses []Status
	acquireSequence []int
	acquireErr      error
	nextImage       int

	calls    []string
	pending  []*pendingSubmit
	submits  []fakeSubmit
	acquired []int

	chainsCreated  int
	lastChainOpts  PresentChainOptions
	lastRenderPass RenderPassOptions
	waitIdles      int
	allocations    []int
	freed          int
	live           map[string]int
	blockedWaits   int
	nextID         int
	graphics       *fakeQueue
	present        *fakeQueue
}

type pendingSubmit struct {
	fence     *fakeFence
	remaining int
}

type fakeSubmit struct {
	fence           *fakeFence
	commandBuffer   CommandBuffer
	waitSemaphore   Semaphore
	signalSemaphore Semaphore
}

func newFakeDevice(minImages, maxImages int) *fakeDevice {
	d := &fakeDevice{
		support: SwapchainSupport{
			Capabilities: SurfaceCapabilities{
				MinImageCount:  minImages,
				MaxImageCount:  maxImages,
				CurrentExtent:  Extent{Width: UndefinedExtent, Height: UndefinedExtent},
				MinImageExtent: Extent{Width: 1, Height: 1},
				MaxImageExtent: Extent{Width: 4096, Height: 4096},
			},
			Formats: []SurfaceFormat{
				{Format: FormatB8G8R8A8UnsignedNormalized, ColorSpace: ColorSpaceSRGBNonlinear},
				{Format: FormatB8G8R8A8SRGB, ColorSpace: ColorSpaceSRGBNonlinear},
			},
			PresentModes: []PresentMode{PresentImmediate, PresentMailbox, PresentFIFO},
		},
		depthSupport: map[Format]bool{
			FormatD32SignedFloat: true,
		},
		live: map[string]int{},
	}
	d.graphics = &fakeQueue{device: d}
	d.present = &fakeQueue{device: d}
	return d
}

func (d *fakeDevice) record(format string, args ...interface{}) {
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
}

func (d *fakeDevice) id() int {
	d.nextID++
	return d.nextID
}

func (d *fakeDevice) SwapchainSupport() (SwapchainSupport, error) {
	return d.support, nil
}

func (d *fakeDevice) FindSupportedDepthFormat(candidates []Format) (Format, error) {
	for _, format := range candidates {
		if d.depthSupport[format] {
			return format, nil
		}
	}
	return FormatUndefined, errors.Wrap(ErrUnsupported, "no depth format")
}

func (d *fakeDevice) GraphicsQueue() Queue { return d.graphics }

func (d *fakeDevice) PresentQueue() Queue { return d.present }

func (d *fakeDevice) CreatePresentChain(opts PresentChainOptions) (PresentChain, error) {
	d.chainsCreated++
	d.lastChainOpts = opts
	d.live["chain"]++
	d.record("create chain")

	count := opts.MinImageCount
	chain := &fakeChain{device: d, id: d.id()}
	for i := 0; i < count; i++ {
		chain.images = append(chain.images, fmt.Sprintf("image-%d-%d", chain.id, i))
	}
	return chain, nil
}

func (d *fakeDevice) CreateImageView(image Image, format Format, aspect ImageAspect) (ImageView, error) {
	return d.newObject("view"), nil
}

func (d *fakeDevice) CreateDepthImage(extent Extent, format Format) (DepthImage, error) {
	return &fakeDepthImage{fakeObject: d.newObject("depth"), view: d.newObject("depth view")}, nil
}

func (d *fakeDevice) CreateRenderPass(opts RenderPassOptions) (RenderPass, error) {
	d.lastRenderPass = opts
	return d.newObject("render pass"), nil
}

func (d *fakeDevice) CreateFramebuffer(opts FramebufferOptions) (Framebuffer, error) {
	return d.newObject("framebuffer"), nil
}

func (d *fakeDevice) CreateSemaphore() (Semaphore, error) {
	return d.newObject("semaphore"), nil
}

func (d *fakeDevice) CreateFence(signaled bool) (Fence, error) {
	d.live["fence"]++
	return &fakeFence{device: d, id: d.id(), signaled: signaled}, nil
}

func (d *fakeDevice) AllocateCommandBuffers(count int) ([]CommandBuffer, error) {
	d.allocations = append(d.allocations, count)
	var buffers []CommandBuffer
	for i := 0; i < count; i++ {
		buffers = append(buffers, &fakeCommandBuffer{id: d.id()})
	}
	return buffers, nil
}

func (d *fakeDevice) FreeCommandBuffers(buffers []CommandBuffer) {
	d.freed += len(buffers)
}

func (d *fakeDevice) WaitIdle() error {
	d.waitIdles++
	for _, p := range d.pending {
		p.fence.signaled = true
	}
	d.pending = nil
	return nil
}

func (d *fakeDevice) newObject(kind string) *fakeObject {
	d.live[kind]++
	return &fakeObject{device: d, kind: kind}
}

type fakeObject struct {
	device    *fakeDevice
	kind      string
	destroyed bool
}

func (o *fakeObject) Destroy() {
	if o.destroyed {
		panic("double destroy of " + o.kind)
	}
	o.destroyed = true
	o.device.live[o.kind]--
	o.device.record("destroy %s", o.kind)
}

type fakeDepthImage struct {
	*fakeObject
	view *fakeObject
}

func (d *fakeDepthImage) View() ImageView { return d.view }

func (d *fakeDepthImage) Destroy() {
	d.view.Destroy()
	d.fakeObject.Destroy()
}

type fakeFence struct {
	device    *fakeDevice
	id        int
	signaled  bool
	waits     int
	blocked   int
	destroyed bool
}

func (f *fakeFence) Wait(timeout time.Duration) error {
	f.waits++
	if !f.signaled {
		f.blocked++
		f.device.blockedWaits++
		f.signaled = true
		f.device.dropPending(f)
	}
	return nil
}

func (f *fakeFence) Reset() error {
	f.signaled = false
	return nil
}

func (f *fakeFence) Signaled() (bool, error) {
	return f.signaled, nil
}

func (f *fakeFence) Destroy() {
	if f.destroyed {
		panic("double destroy of fence")
	}
	f.destroyed = true
	f.device.live["fence"]--
	f.device.record("destroy fence")
}

func (d *fakeDevice) dropPending(fence *fakeFence) {
	kept := d.pending[:0]
	for _, p := range d.pending {
		if p.fence != fence {
			kept = append(kept, p)
		}
	}
	d.pending = kept
}

type fakeChain struct {
	device    *fakeDevice
	id        int
	images    []string
	destroyed bool
}

func (c *fakeChain) Images() ([]Image, error) {
	var images []Image
	for _, image := range c.images {
		images = append(images, image)
	}
	return images, nil
}

func (c *fakeChain) AcquireNextImage(timeout time.Duration, signal Semaphore) (int, Status, error) {
	d := c.device
	if d.acquireErr != nil {
		return 0, StatusSuccess, d.acquireErr
	}

	status := StatusSuccess
	if len(d.acquireStatuses) > 0 {
		status = d.acquireStatuses[0]
		d.acquireStatuses = d.acquireStatuses[1:]
	}
	if status == StatusOutOfDate {
		return 0, status, nil
	}

	index := d.nextImage % len(c.images)
	if len(d.acquireSequence) > 0 {
		index = d.acquireSequence[0]
		d.acquireSequence = d.acquireSequence[1:]
	} else {
		d.nextImage++
	}
	d.acquired = append(d.acquired, index)
	return index, status, nil
}

func (c *fakeChain) Destroy() {
	if c.destroyed {
		panic("double destroy of chain")
	}
	c.destroyed = true
	c.device.live["chain"]--
	c.device.record("destroy chain")
}

type fakeQueue struct {
	device *fakeDevice
}

func (q *fakeQueue) Submit(fence Fence, info SubmitInfo) error {
	d := q.device
	f := fence.(*fakeFence)
	if f.signaled {
		return errors.New("fake: submitted with a signaled fence")
	}
	d.submits = append(d.submits, fakeSubmit{
		fence:           f,
		commandBuffer:   info.CommandBuffers[0],
		waitSemaphore:   info.WaitSemaphores[0],
		signalSemaphore: info.SignalSemaphores[0],
	})
	d.pending = append(d.pending, &pendingSubmit{fence: f, remaining: d.latency})
	return nil
}

func (q *fakeQueue) Present(info PresentInfo) (Status, error) {
	d := q.device

	if d.latency >= 0 {
		kept := d.pending[:0]
		for _, p := range d.pending {
			if p.remaining == 0 {
				p.fence.signaled = true
				continue
			}
			p.remaining--
			kept = append(kept, p)
		}
		d.pending = kept
	}

	status := StatusSuccess
	if len(d.presentStatuses) > 0 {
		status = d.presentStatuses[0]
		d.presentStatuses = d.presentStatuses[1:]
	}
	return status, nil
}

type fakeCommandBuffer struct {
	id        int
	recording bool
	inPass    bool
	begins    int
	viewport  Viewport
	scissor   Rect
	pass      RenderPassBegin
	draws     int
	pushes    int
}

func (c *fakeCommandBuffer) Begin() error {
	if c.recording {
		return errors.New("fake: command buffer already recording")
	}
	c.recording = true
	c.begins++
	return nil
}

func (c *fakeCommandBuffer) End() error {
	if !c.recording {
		return errors.New("fake: command buffer not recording")
	}
	if c.inPass {
		return errors.New("fake: render pass still open")
	}
	c.recording = false
	return nil
}

func (c *fakeCommandBuffer) BeginRenderPass(begin RenderPassBegin) error {
	c.inPass = true
	c.pass = begin
	return nil
}

func (c *fakeCommandBuffer) EndRenderPass() { c.inPass = false }

func (c *fakeCommandBuffer) SetViewport(viewport Viewport) { c.viewport = viewport }

func (c *fakeCommandBuffer) SetScissor(scissor Rect) { c.scissor = scissor }

func (c *fakeCommandBuffer) Draw(vertexCount, instanceCount, firstVertex, firstInstance int) {
	c.draws++
}

func (c *fakeCommandBuffer) DrawIndexed(indexCount, instanceCount, firstIndex, vertexOffset, firstInstance int) {
	c.draws++
}

func (c *fakeCommandBuffer) BindPipeline(pipeline Pipeline) {}

func (c *fakeCommandBuffer) BindDescriptorSets(layout PipelineLayout, sets []DescriptorSet) {}

func (c *fakeCommandBuffer) PushConstants(layout PipelineLayout, stages ShaderStages, offset int, data []byte) {
	c.pushes++
}

func (c *fakeCommandBuffer) BindVertexBuffers(buffers []Buffer, offsets []int) {}

func (c *fakeCommandBuffer) BindIndexBuffer(buffer Buffer, offset int) {}

// fakeWindow reports extents in order; WaitEvents moves to the next one.
type fakeWindow struct {
	extents []Extent
	resized bool
	waits   int
}

func newFakeWindow(extents ...Extent) *fakeWindow {
	return &fakeWindow{extents: extents}
}

func (w *fakeWindow) Extent() Extent { return w.extents[0] }

func (w *fakeWindow) ConsumeResizeFlag() bool {
	resized := w.resized
	w.resized = false
	return resized
}

func (w *fakeWindow) WaitEvents() {
	w.waits++
	if len(w.extents) > 1 {
		w.extents = w.extents[1:]
	}
}

func (w *fakeWindow) resize(extent Extent) {
	w.extents = []Extent{extent}
	w.resized = true
}
