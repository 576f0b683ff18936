package vulkan

import (
	"time"

	"github.com/vermicelli-engine/vermicelli/render"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_swapchain"
)

type imageView struct {
	view core1_0.ImageView
}

func (v *imageView) Destroy() { v.view.Destroy(nil) }

type depthImage struct {
	image  core1_0.Image
	memory core1_0.DeviceMemory
	view   *imageView
}

func (i *depthImage) View() render.ImageView { return i.view }

func (i *depthImage) Destroy() {
	i.view.Destroy()
	i.image.Destroy(nil)
	i.memory.Free(nil)
}

type renderPass struct {
	renderPass core1_0.RenderPass
}

func (p *renderPass) Destroy() { p.renderPass.Destroy(nil) }

type framebuffer struct {
	framebuffer core1_0.Framebuffer
}

func (f *framebuffer) Destroy() { f.framebuffer.Destroy(nil) }

type semaphore struct {
	semaphore core1_0.Semaphore
}

func (s *semaphore) Destroy() { s.semaphore.Destroy(nil) }

type fence struct {
	device core1_0.Device
	fence  core1_0.Fence
}

func (f *fence) Destroy() { f.fence.Destroy(nil) }

func (f *fence) Wait(timeout time.Duration) error {
	res, err := f.device.WaitForFences(true, timeout, []core1_0.Fence{f.fence})
	return check(res, err, "wait for fence")
}

func (f *fence) Reset() error {
	res, err := f.device.ResetFences([]core1_0.Fence{f.fence})
	return check(res, err, "reset fence")
}

// Signaled waits with a zero timeout, which reports a timeout for an
// unsignaled fence instead of blocking.
func (f *fence) Signaled() (bool, error) {
	res, err := f.device.WaitForFences(true, 0, []core1_0.Fence{f.fence})
	if res == core1_0.VKTimeout {
		return false, nil
	}
	if err != nil {
		return false, check(res, err, "poll fence")
	}
	return res == core1_0.VKSuccess, nil
}

type presentChain struct {
	swapchain khr_swapchain.Swapchain
}

func (c *presentChain) Destroy() { c.swapchain.Destroy(nil) }

func (c *presentChain) Images() ([]render.Image, error) {
	images, res, err := c.swapchain.SwapchainImages()
	if err != nil {
		return nil, check(res, err, "get swapchain images")
	}

	out := make([]render.Image, 0, len(images))
	for _, image := range images {
		out = append(out, image)
	}
	return out, nil
}

func (c *presentChain) AcquireNextImage(timeout time.Duration, signal render.Semaphore) (int, render.Status, error) {
	imageIndex, res, err := c.swapchain.AcquireNextImage(timeout, signal.(*semaphore).semaphore, nil)
	switch {
	case res == khr_swapchain.VKErrorOutOfDate:
		return 0, render.StatusOutOfDate, nil
	case err != nil:
		return 0, render.StatusSuccess, check(res, err, "acquire swapchain image")
	case res == khr_swapchain.VKSuboptimal:
		return imageIndex, render.StatusSuboptimal, nil
	}
	return imageIndex, render.StatusSuccess, nil
}

// Queue submits work and presents images on one device queue.
type Queue struct {
	queue              core1_0.Queue
	swapchainExtension khr_swapchain.Extension
}

func (q *Queue) Submit(f render.Fence, info render.SubmitInfo) error {
	var nativeFence core1_0.Fence
	if f != nil {
		nativeFence = f.(*fence).fence
	}

	submit := core1_0.SubmitInfo{}
	for _, s := range info.WaitSemaphores {
		submit.WaitSemaphores = append(submit.WaitSemaphores, s.(*semaphore).semaphore)
	}
	for _, stages := range info.WaitStages {
		submit.WaitDstStageMask = append(submit.WaitDstStageMask, core1_0.PipelineStageFlags(stages))
	}
	for _, buffer := range info.CommandBuffers {
		submit.CommandBuffers = append(submit.CommandBuffers, buffer.(*CommandBuffer).buffer)
	}
	for _, s := range info.SignalSemaphores {
		submit.SignalSemaphores = append(submit.SignalSemaphores, s.(*semaphore).semaphore)
	}

	res, err := q.queue.Submit(nativeFence, []core1_0.SubmitInfo{submit})
	return check(res, err, "submit to queue")
}

// Present maps out-of-date and suboptimal results to a Status, never to an
// error.
func (q *Queue) Present(info render.PresentInfo) (render.Status, error) {
	var waitSemaphores []core1_0.Semaphore
	for _, s := range info.WaitSemaphores {
		waitSemaphores = append(waitSemaphores, s.(*semaphore).semaphore)
	}

	res, err := q.swapchainExtension.QueuePresent(q.queue, khr_swapchain.PresentInfo{
		WaitSemaphores: waitSemaphores,
		Swapchains:     []khr_swapchain.Swapchain{info.Chain.(*presentChain).swapchain},
		ImageIndices:   []int{info.ImageIndex},
	})
	switch {
	case res == khr_swapchain.VKErrorOutOfDate:
		return render.StatusOutOfDate, nil
	case err != nil:
		return render.StatusSuccess, check(res, err, "present")
	case res == khr_swapchain.VKSuboptimal:
		return render.StatusSuboptimal, nil
	}
	return render.StatusSuccess, nil
}

func (q *Queue) WaitIdle() error {
	res, err := q.queue.WaitIdle()
	if err != nil {
		return check(res, err, "wait for queue idle")
	}
	return nil
}
