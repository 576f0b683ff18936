package main

import (
	"math"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/loov/hrtime"
	"github.com/vermicelli-engine/vermicelli/camera"
	"github.com/vermicelli-engine/vermicelli/input"
	"github.com/vermicelli-engine/vermicelli/mesh"
	"github.com/vermicelli-engine/vermicelli/render"
	"github.com/vermicelli-engine/vermicelli/scene"
	"github.com/vermicelli-engine/vermicelli/systems"
	"github.com/vermicelli-engine/vermicelli/vulkan"
	"github.com/vermicelli-engine/vermicelli/window"
	"github.com/vkngwrapper/core/core1_0"
)

type Options struct {
	Width, Height int
	Title         string
	Verbose       bool
	PresentMode   render.PresentMode
	ShaderDir     string
	ModelDir      string
	Validation    bool
}

type Application struct {
	opts Options

	window   *window.Window
	device   *vulkan.Device
	renderer *render.Renderer

	globalPool      *vulkan.DescriptorPool
	globalSetLayout *vulkan.DescriptorSetLayout
	globalSets      []render.DescriptorSet
	uboBuffers      []*vulkan.Buffer

	models []*vulkan.Model
	world  *scene.World

	simpleSystem     *systems.SimpleRenderSystem
	pointLightSystem *systems.PointLightSystem
}

func (app *Application) Run() error {
	err := app.initWindow()
	if err != nil {
		return err
	}
	defer app.cleanup()

	err = app.initVulkan()
	if err != nil {
		return err
	}

	err = app.loadScene()
	if err != nil {
		return err
	}

	return app.mainLoop()
}

func (app *Application) initWindow() error {
	var err error
	app.window, err = window.New(app.opts.Title, app.opts.Width, app.opts.Height)
	return err
}

func (app *Application) initVulkan() error {
	loader, err := app.window.Loader()
	if err != nil {
		return err
	}

	config := vulkan.DefaultConfig()
	config.ApplicationName = app.opts.Title
	config.EnableValidation = app.opts.Validation

	app.device, err = vulkan.NewDevice(loader, app.window, config)
	if err != nil {
		return err
	}

	swapchainConfig := render.DefaultSwapchainConfig()
	swapchainConfig.PreferredPresentMode = app.opts.PresentMode

	app.renderer, err = render.NewRenderer(app.window, app.device, swapchainConfig)
	if err != nil {
		return err
	}

	err = app.createGlobalDescriptors()
	if err != nil {
		return err
	}

	return app.createSystems()
}

// createGlobalDescriptors gives every frame slot its own uniform buffer
// and descriptor set, so a slot never writes data the GPU may still read.
func (app *Application) createGlobalDescriptors() error {
	var err error
	app.globalPool, err = vulkan.NewDescriptorPoolBuilder().
		SetMaxSets(render.MaxFramesInFlight).
		AddPoolSize(core1_0.DescriptorTypeUniformBuffer, render.MaxFramesInFlight).
		Build(app.device)
	if err != nil {
		return err
	}

	app.globalSetLayout, err = vulkan.NewDescriptorSetLayoutBuilder().
		AddBinding(0, core1_0.DescriptorTypeUniformBuffer, render.StageVertex|render.StageFragment, 1).
		Build(app.device)
	if err != nil {
		return err
	}

	for i := 0; i < render.MaxFramesInFlight; i++ {
		buffer, err := vulkan.NewUniformBuffer(app.device, systems.GlobalUboSize)
		if err != nil {
			return err
		}
		app.uboBuffers = append(app.uboBuffers, buffer)

		err = buffer.Map()
		if err != nil {
			return err
		}

		set, err := vulkan.NewDescriptorWriter(app.globalSetLayout, app.globalPool).
			WriteBuffer(0, buffer.DescriptorInfo(0)).
			Build()
		if err != nil {
			return err
		}
		app.globalSets = append(app.globalSets, set)
	}

	return nil
}

func (app *Application) createSystems() error {
	createPipeline := func(spec render.PipelineSpec) (systems.Pipeline, error) {
		pipeline, err := app.device.CreatePipeline(spec)
		if err != nil {
			return nil, err
		}
		return pipeline, nil
	}

	var err error
	app.simpleSystem, err = systems.NewSimpleRenderSystem(createPipeline, app.renderer.RenderPass(), app.globalSetLayout, app.opts.ShaderDir)
	if err != nil {
		return err
	}

	app.pointLightSystem, err = systems.NewPointLightSystem(createPipeline, app.renderer.RenderPass(), app.globalSetLayout, app.opts.ShaderDir)
	return err
}

func (app *Application) loadModel(name string) (*vulkan.Model, error) {
	path := filepath.Join(app.opts.ModelDir, name)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		render.Logger().Warn("model not found, skipping", "path", path)
		return nil, nil
	}

	builder, err := mesh.LoadOBJFile(path)
	if err != nil {
		return nil, err
	}

	model, err := vulkan.NewModel(app.device, builder)
	if err != nil {
		return nil, errors.Wrapf(err, "model %s", path)
	}
	app.models = append(app.models, model)
	return model, nil
}

func (app *Application) loadScene() error {
	app.world = scene.NewWorld()

	placements := []struct {
		model string
		place func(t *scene.Transform)
	}{
		{"new_kirb.obj", func(t *scene.Transform) {
			t.Translation = mgl32.Vec3{-0.15, 0, 0.075}
			t.Scale = mgl32.Vec3{0.005, 0.005, 0.005}
			t.Rotation = mgl32.Vec3{0, math.Pi, 0}
		}},
		{"icosahedron.obj", func(t *scene.Transform) {
			t.Translation = mgl32.Vec3{0, -5, 0}
			t.Scale = mgl32.Vec3{0.1, 0.1, 0.1}
		}},
		{"quad.obj", func(t *scene.Transform) {
			t.Scale = mgl32.Vec3{15, 1, 15}
		}},
	}

	for _, p := range placements {
		model, err := app.loadModel(p.model)
		if err != nil {
			return err
		}
		if model == nil {
			continue
		}

		obj := app.world.NewObject()
		obj.Model = model
		p.place(&obj.Transform)
	}

	addLights(app.world)
	return nil
}

// addLights puts a white light overhead and a ring of colored lights
// around the origin.
func addLights(world *scene.World) {
	overhead := world.NewPointLight(2, 1, scene.White)
	overhead.Transform.Translation = mgl32.Vec3{0, -10, 0}

	for i, color := range scene.Rainbow {
		light := world.NewPointLight(1, 0.1, color)
		angle := float32(i) * 2 * math.Pi / float32(len(scene.Rainbow))
		rotate := mgl32.HomogRotate3D(angle, mgl32.Vec3{0, -1, 0})
		light.Transform.Translation = rotate.Mul4x1(mgl32.Vec4{-2.5, -4.5, -2.5, 1}).Vec3()
	}
}

func (app *Application) mainLoop() error {
	cam := camera.New()
	controller := input.NewKeyboardController()

	viewer := app.world.NewObject()
	viewer.Transform.Translation = mgl32.Vec3{0, -2, -5.5}

	renderSystems := []systems.System{app.simpleSystem, app.pointLightSystem}

	currentTime := hrtime.Now()
	for !app.window.ShouldClose() {
		app.window.PollEvents()

		newTime := hrtime.Now()
		frameTime := float32((newTime - currentTime).Seconds())
		currentTime = newTime

		controller.MoveInPlaneXZ(window.Keyboard{}, frameTime, viewer)
		cam.SetViewYXZ(viewer.Transform.Translation, viewer.Transform.Rotation)

		cmd, err := app.renderer.BeginFrame()
		if err != nil {
			return err
		}
		if cmd == nil {
			continue
		}

		err = cam.SetPerspectiveProjection(mgl32.DegToRad(50), app.renderer.AspectRatio(), 0.01, 100)
		if err != nil {
			return err
		}

		frameIndex := app.renderer.FrameIndex()
		frame := &systems.FrameInfo{
			FrameIndex:          frameIndex,
			FrameTime:           frameTime,
			CommandBuffer:       cmd,
			Camera:              cam,
			GlobalDescriptorSet: app.globalSets[frameIndex],
			World:               app.world,
		}

		err = app.updateGlobalUbo(frame)
		if err != nil {
			return err
		}

		err = app.renderer.BeginRenderPass(cmd)
		if err != nil {
			return err
		}
		for _, system := range renderSystems {
			err = system.Render(frame)
			if err != nil {
				return err
			}
		}
		err = app.renderer.EndRenderPass(cmd)
		if err != nil {
			return err
		}

		err = app.renderer.EndFrame()
		if err != nil {
			return err
		}
	}

	return app.device.WaitIdle()
}

func (app *Application) updateGlobalUbo(frame *systems.FrameInfo) error {
	ubo := systems.NewGlobalUbo()
	ubo.Projection = frame.Camera.Projection()
	ubo.View = frame.Camera.View()
	ubo.InverseView = frame.Camera.InverseView()

	err := app.pointLightSystem.Update(frame, &ubo)
	if err != nil {
		return err
	}

	data, err := ubo.Bytes()
	if err != nil {
		return err
	}

	buffer := app.uboBuffers[frame.FrameIndex]
	err = buffer.WriteToBuffer(data, 0)
	if err != nil {
		return err
	}
	return buffer.Flush()
}

func (app *Application) cleanup() {
	if app.device != nil {
		// Errors here mean the device is gone; teardown proceeds anyway.
		_ = app.device.WaitIdle()
	}

	if app.pointLightSystem != nil {
		app.pointLightSystem.Destroy()
	}
	if app.simpleSystem != nil {
		app.simpleSystem.Destroy()
	}

	for _, model := range app.models {
		model.Destroy()
	}

	for _, buffer := range app.uboBuffers {
		buffer.Destroy()
	}
	if app.globalSetLayout != nil {
		app.globalSetLayout.Destroy()
	}
	if app.globalPool != nil {
		app.globalPool.Destroy()
	}

	if app.renderer != nil {
		_ = app.renderer.Close()
	}
	if app.device != nil {
		app.device.Destroy()
	}

	app.window.Destroy()
}
