// Package window provides the SDL2 window the renderer presents to.
package window

import (
	"github.com/cockroachdb/errors"
	"github.com/vermicelli-engine/vermicelli/render"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2"
)

type Window struct {
	window *sdl.Window

	resized     bool
	shouldClose bool
}

var _ render.Window = (*Window)(nil)

// New initializes SDL video and opens a resizable Vulkan window.
func New(title string, width, height int) (*Window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, errors.Wrap(err, "init SDL")
	}

	window, err := sdl.CreateWindow(title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, int32(width), int32(height), sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "create window")
	}

	return &Window{window: window}, nil
}

func (w *Window) Destroy() {
	if w.window != nil {
		w.window.Destroy()
		w.window = nil
	}
	sdl.Quit()
}

// Loader resolves Vulkan entry points through SDL.
func (w *Window) Loader() (core.Loader, error) {
	loader, err := core.CreateLoaderFromProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	if err != nil {
		return nil, errors.Wrap(err, "create vulkan loader")
	}
	return loader, nil
}

func (w *Window) InstanceExtensions() []string {
	return w.window.VulkanGetInstanceExtensions()
}

func (w *Window) CreateSurface(instance core1_0.Instance, extension khr_surface.Extension) (khr_surface.Surface, error) {
	surface, err := vkng_sdl2.CreateSurface(instance, extension, w.window)
	if err != nil {
		return nil, errors.Wrap(err, "create window surface")
	}
	return surface, nil
}

func (w *Window) Extent() render.Extent {
	if w.window.GetFlags()&sdl.WINDOW_MINIMIZED != 0 {
		return render.Extent{}
	}
	width, height := w.window.VulkanGetDrawableSize()
	return render.Extent{Width: int(width), Height: int(height)}
}

func (w *Window) ConsumeResizeFlag() bool {
	resized := w.resized
	w.resized = false
	return resized
}

func (w *Window) ShouldClose() bool { return w.shouldClose }

func (w *Window) WaitEvents() {
	event := sdl.WaitEvent()
	for ; event != nil; event = sdl.PollEvent() {
		w.handleEvent(event)
	}
}

func (w *Window) PollEvents() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		w.handleEvent(event)
	}
}

func (w *Window) handleEvent(event sdl.Event) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		w.shouldClose = true
	case *sdl.KeyboardEvent:
		if e.State == sdl.PRESSED && e.Keysym.Sym == sdl.K_ESCAPE {
			w.shouldClose = true
		}
	case *sdl.WindowEvent:
		switch e.Event {
		case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED, sdl.WINDOWEVENT_RESTORED:
			render.Logger().Debug("window resized", "width", e.Data1, "height", e.Data2)
			w.resized = true
		}
	}
}

// Keyboard reads the SDL keyboard state. Events must be pumped for it to
// change.
type Keyboard struct{}

func (Keyboard) Pressed(key sdl.Scancode) bool {
	state := sdl.GetKeyboardState()
	return int(key) < len(state) && state[key] != 0
}
