package vulkan

import (
	"log"

	"github.com/cockroachdb/errors"
	"github.com/vermicelli-engine/vermicelli/render"
	"github.com/vkngwrapper/core"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/ext_debug_utils"
	"github.com/vkngwrapper/extensions/khr_portability_enumeration"
	"github.com/vkngwrapper/extensions/khr_portability_subset"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/extensions/khr_swapchain"
)

// SurfaceSource is the window a Device presents to.
type SurfaceSource interface {
	// InstanceExtensions lists the instance extensions the window system
	// needs to create a surface.
	InstanceExtensions() []string
	CreateSurface(instance core1_0.Instance, extension khr_surface.Extension) (khr_surface.Surface, error)
}

type QueueFamilyIndices struct {
	GraphicsFamily *int
	PresentFamily  *int
}

func (i *QueueFamilyIndices) IsComplete() bool {
	return i.GraphicsFamily != nil && i.PresentFamily != nil
}

// Device owns the instance, the surface, the logical device, its queues
// and the command pool every command buffer is allocated from.
type Device struct {
	config Config
	loader core.Loader

	instance       core1_0.Instance
	debugMessenger ext_debug_utils.DebugUtilsMessenger
	surface        khr_surface.Surface

	physicalDevice core1_0.PhysicalDevice
	properties     *core1_0.PhysicalDeviceProperties
	device         core1_0.Device
	indices        QueueFamilyIndices

	swapchainExtension khr_swapchain.Extension
	graphicsQueue      *Queue
	presentQueue       *Queue

	commandPool core1_0.CommandPool
}

var _ render.Device = (*Device)(nil)

// NewDevice brings up Vulkan on the first physical device that can render
// to source's surface.
func NewDevice(loader core.Loader, source SurfaceSource, config Config) (*Device, error) {
	d := &Device{
		config: config,
		loader: loader,
	}

	err := d.createInstance(source)
	if err != nil {
		d.Destroy()
		return nil, err
	}

	err = d.setupDebugMessenger()
	if err != nil {
		d.Destroy()
		return nil, err
	}

	d.surface, err = source.CreateSurface(d.instance, khr_surface.CreateExtensionFromInstance(d.instance))
	if err != nil {
		d.Destroy()
		return nil, errors.Wrap(err, "create surface")
	}

	err = d.pickPhysicalDevice()
	if err != nil {
		d.Destroy()
		return nil, err
	}

	err = d.createLogicalDevice()
	if err != nil {
		d.Destroy()
		return nil, err
	}

	err = d.createCommandPool()
	if err != nil {
		d.Destroy()
		return nil, err
	}

	render.Logger().Info("device created",
		"name", d.properties.DeviceName,
		"graphicsFamily", *d.indices.GraphicsFamily,
		"presentFamily", *d.indices.PresentFamily)

	return d, nil
}

// Destroy releases everything NewDevice created, in reverse order. All
// objects created from the device must be destroyed first.
func (d *Device) Destroy() {
	if d.commandPool != nil {
		d.commandPool.Destroy(nil)
		d.commandPool = nil
	}

	if d.device != nil {
		d.device.Destroy(nil)
		d.device = nil
	}

	if d.debugMessenger != nil {
		d.debugMessenger.Destroy(nil)
		d.debugMessenger = nil
	}

	if d.surface != nil {
		d.surface.Destroy(nil)
		d.surface = nil
	}

	if d.instance != nil {
		d.instance.Destroy(nil)
		d.instance = nil
	}
}

func (d *Device) createInstance(source SurfaceSource) error {
	instanceOptions := core1_0.InstanceCreateInfo{
		ApplicationName:    d.config.ApplicationName,
		ApplicationVersion: common.CreateVersion(1, 0, 0),
		EngineName:         "Vermicelli",
		EngineVersion:      common.CreateVersion(1, 0, 0),
		APIVersion:         common.Vulkan1_2,
	}

	extensions, _, err := d.loader.AvailableExtensions()
	if err != nil {
		return errors.Wrap(err, "enumerate instance extensions")
	}

	for _, ext := range source.InstanceExtensions() {
		_, hasExt := extensions[ext]
		if !hasExt {
			return errors.Mark(errors.Newf("missing instance extension %s", ext), render.ErrUnsupported)
		}
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext)
	}

	if d.config.EnableValidation {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext_debug_utils.ExtensionName)
	}

	_, enumerationSupported := extensions[khr_portability_enumeration.ExtensionName]
	if enumerationSupported {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, khr_portability_enumeration.ExtensionName)
		instanceOptions.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}

	if d.config.EnableValidation {
		layers, _, err := d.loader.AvailableLayers()
		if err != nil {
			return errors.Wrap(err, "enumerate instance layers")
		}

		for _, layer := range d.config.ValidationLayers {
			_, hasValidation := layers[layer]
			if !hasValidation {
				return errors.Mark(errors.Newf("validation layer %s not available, install the Vulkan SDK or set %s=0", layer, validationEnv), render.ErrUnsupported)
			}
			instanceOptions.EnabledLayerNames = append(instanceOptions.EnabledLayerNames, layer)
		}

		// Covers instance creation and destruction.
		instanceOptions.Next = debugMessengerOptions()
	}

	var res common.VkResult
	d.instance, res, err = d.loader.CreateInstance(nil, instanceOptions)
	return check(res, err, "create instance")
}

func debugMessengerOptions() ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback:    logDebug,
	}
}

func (d *Device) setupDebugMessenger() error {
	if !d.config.EnableValidation {
		return nil
	}

	var err error
	debugLoader := ext_debug_utils.CreateExtensionFromInstance(d.instance)
	d.debugMessenger, _, err = debugLoader.CreateDebugUtilsMessenger(d.instance, nil, debugMessengerOptions())
	if err != nil {
		return errors.Wrap(err, "create debug messenger")
	}

	return nil
}

func logDebug(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
	log.Printf("[%s %s] - %s", severity, msgType, data.Message)
	return false
}

func (d *Device) pickPhysicalDevice() error {
	physicalDevices, _, err := d.instance.EnumeratePhysicalDevices()
	if err != nil {
		return errors.Wrap(err, "enumerate physical devices")
	}

	for _, device := range physicalDevices {
		if d.isDeviceSuitable(device) {
			d.physicalDevice = device
			break
		}
	}

	if d.physicalDevice == nil {
		return errors.Mark(errors.New("failed to find a suitable GPU"), render.ErrUnsupported)
	}

	d.indices, err = d.findQueueFamilies(d.physicalDevice)
	if err != nil {
		return err
	}

	d.properties, err = d.physicalDevice.Properties()
	return errors.Wrap(err, "query device properties")
}

func (d *Device) isDeviceSuitable(device core1_0.PhysicalDevice) bool {
	indices, err := d.findQueueFamilies(device)
	if err != nil {
		return false
	}

	extensionsSupported := d.checkDeviceExtensionSupport(device)

	var swapChainAdequate bool
	if extensionsSupported {
		support, err := d.querySwapchainSupport(device)
		if err != nil {
			return false
		}

		swapChainAdequate = len(support.Formats) > 0 && len(support.PresentModes) > 0
	}

	return indices.IsComplete() && extensionsSupported && swapChainAdequate
}

func (d *Device) checkDeviceExtensionSupport(device core1_0.PhysicalDevice) bool {
	extensions, _, err := device.EnumerateDeviceExtensionProperties()
	if err != nil {
		return false
	}

	for _, extension := range d.config.DeviceExtensions {
		_, hasExtension := extensions[extension]
		if !hasExtension {
			return false
		}
	}

	return true
}

func (d *Device) findQueueFamilies(device core1_0.PhysicalDevice) (QueueFamilyIndices, error) {
	indices := QueueFamilyIndices{}
	queueFamilies := device.QueueFamilyProperties()

	for queueFamilyIdx, queueFamily := range queueFamilies {
		if (queueFamily.QueueFlags & core1_0.QueueGraphics) != 0 {
			indices.GraphicsFamily = new(int)
			*indices.GraphicsFamily = queueFamilyIdx
		}

		supported, _, err := d.surface.PhysicalDeviceSurfaceSupport(device, queueFamilyIdx)
		if err != nil {
			return indices, errors.Wrap(err, "query surface support")
		}

		if supported {
			indices.PresentFamily = new(int)
			*indices.PresentFamily = queueFamilyIdx
		}

		if indices.IsComplete() {
			break
		}
	}

	return indices, nil
}

func (d *Device) createLogicalDevice() error {
	uniqueQueueFamilies := []int{*d.indices.GraphicsFamily}
	if uniqueQueueFamilies[0] != *d.indices.PresentFamily {
		uniqueQueueFamilies = append(uniqueQueueFamilies, *d.indices.PresentFamily)
	}

	var queueFamilyOptions []core1_0.DeviceQueueCreateInfo
	queuePriority := float32(1.0)
	for _, queueFamily := range uniqueQueueFamilies {
		queueFamilyOptions = append(queueFamilyOptions, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: queueFamily,
			QueuePriorities:  []float32{queuePriority},
		})
	}

	var extensionNames []string
	extensionNames = append(extensionNames, d.config.DeviceExtensions...)

	extensions, _, err := d.physicalDevice.EnumerateDeviceExtensionProperties()
	if err != nil {
		return errors.Wrap(err, "enumerate device extensions")
	}

	_, supported := extensions[khr_portability_subset.ExtensionName]
	if supported {
		extensionNames = append(extensionNames, khr_portability_subset.ExtensionName)
	}

	var res common.VkResult
	d.device, res, err = d.physicalDevice.CreateDevice(nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos:      queueFamilyOptions,
		EnabledFeatures:       &core1_0.PhysicalDeviceFeatures{},
		EnabledExtensionNames: extensionNames,
	})
	if err != nil {
		return check(res, err, "create logical device")
	}

	d.swapchainExtension = khr_swapchain.CreateExtensionFromDevice(d.device)
	d.graphicsQueue = &Queue{
		queue:              d.device.GetQueue(*d.indices.GraphicsFamily, 0),
		swapchainExtension: d.swapchainExtension,
	}
	d.presentQueue = &Queue{
		queue:              d.device.GetQueue(*d.indices.PresentFamily, 0),
		swapchainExtension: d.swapchainExtension,
	}
	return nil
}

func (d *Device) createCommandPool() error {
	pool, res, err := d.device.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		Flags:            core1_0.CommandPoolCreateResetBuffer | core1_0.CommandPoolCreateTransient,
		QueueFamilyIndex: *d.indices.GraphicsFamily,
	})
	if err != nil {
		return check(res, err, "create command pool")
	}
	d.commandPool = pool

	return nil
}

func (d *Device) querySwapchainSupport(device core1_0.PhysicalDevice) (render.SwapchainSupport, error) {
	var support render.SwapchainSupport

	capabilities, res, err := d.surface.PhysicalDeviceSurfaceCapabilities(device)
	if err != nil {
		return support, check(res, err, "query surface capabilities")
	}
	support.Capabilities = toCapabilities(capabilities)

	formats, res, err := d.surface.PhysicalDeviceSurfaceFormats(device)
	if err != nil {
		return support, check(res, err, "query surface formats")
	}
	support.Formats = toSurfaceFormats(formats)

	presentModes, res, err := d.surface.PhysicalDeviceSurfacePresentModes(device)
	if err != nil {
		return support, check(res, err, "query surface present modes")
	}
	support.PresentModes = toPresentModes(presentModes)

	return support, nil
}

func (d *Device) SwapchainSupport() (render.SwapchainSupport, error) {
	return d.querySwapchainSupport(d.physicalDevice)
}

func (d *Device) FindSupportedDepthFormat(candidates []render.Format) (render.Format, error) {
	for _, format := range candidates {
		props := d.physicalDevice.FormatProperties(core1_0.Format(format))

		if (props.OptimalTilingFeatures & core1_0.FormatFeatureDepthStencilAttachment) == core1_0.FormatFeatureDepthStencilAttachment {
			return format, nil
		}
	}

	return render.FormatUndefined, errors.Mark(errors.Newf("no depth format among %v supports optimal tiling", candidates), render.ErrUnsupported)
}

func (d *Device) findMemoryType(typeFilter uint32, properties core1_0.MemoryPropertyFlags) (int, error) {
	memProperties := d.physicalDevice.MemoryProperties()
	for i, memoryType := range memProperties.MemoryTypes {
		typeBit := uint32(1 << i)

		if (typeFilter&typeBit) != 0 && (memoryType.PropertyFlags&properties) == properties {
			return i, nil
		}
	}

	return 0, errors.Mark(errors.Newf("no memory type with properties %s", properties), render.ErrUnsupported)
}

func (d *Device) GraphicsQueue() render.Queue { return d.graphicsQueue }

func (d *Device) PresentQueue() render.Queue { return d.presentQueue }

func (d *Device) CreatePresentChain(opts render.PresentChainOptions) (render.PresentChain, error) {
	capabilities, _, err := d.surface.PhysicalDeviceSurfaceCapabilities(d.physicalDevice)
	if err != nil {
		return nil, errors.Wrap(err, "query surface transform")
	}

	sharingMode := core1_0.SharingModeExclusive
	var queueFamilyIndices []int
	if *d.indices.GraphicsFamily != *d.indices.PresentFamily {
		sharingMode = core1_0.SharingModeConcurrent
		queueFamilyIndices = append(queueFamilyIndices, *d.indices.GraphicsFamily, *d.indices.PresentFamily)
	}

	var oldSwapchain khr_swapchain.Swapchain
	if old, ok := opts.Old.(*presentChain); ok && old != nil {
		oldSwapchain = old.swapchain
	}

	swapchain, res, err := d.swapchainExtension.CreateSwapchain(d.device, nil, khr_swapchain.SwapchainCreateInfo{
		Surface: d.surface,

		MinImageCount:    opts.MinImageCount,
		ImageFormat:      core1_0.Format(opts.Format.Format),
		ImageColorSpace:  khr_surface.ColorSpace(opts.Format.ColorSpace),
		ImageExtent:      extent2D(opts.Extent),
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode:   sharingMode,
		QueueFamilyIndices: queueFamilyIndices,

		PreTransform:   capabilities.CurrentTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    khr_surface.PresentMode(opts.PresentMode),
		Clipped:        true,
		OldSwapchain:   oldSwapchain,
	})
	if err != nil {
		return nil, check(res, err, "create swapchain")
	}

	render.Logger().Debug("native swapchain created",
		"minImageCount", opts.MinImageCount,
		"recycled", oldSwapchain != nil)

	return &presentChain{swapchain: swapchain}, nil
}

func (d *Device) CreateImageView(image render.Image, format render.Format, aspect render.ImageAspect) (render.ImageView, error) {
	view, err := d.createImageView(image.(core1_0.Image), core1_0.Format(format), core1_0.ImageAspectFlags(aspect))
	if err != nil {
		return nil, err
	}
	return &imageView{view: view}, nil
}

func (d *Device) createImageView(image core1_0.Image, format core1_0.Format, aspect core1_0.ImageAspectFlags) (core1_0.ImageView, error) {
	view, res, err := d.device.CreateImageView(nil, core1_0.ImageViewCreateInfo{
		Image:    image,
		ViewType: core1_0.ImageViewType2D,
		Format:   format,
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	})
	return view, check(res, err, "create image view")
}

func (d *Device) CreateDepthImage(extent render.Extent, format render.Format) (render.DepthImage, error) {
	image, memory, err := d.createImage(extent.Width, extent.Height,
		core1_0.Format(format),
		core1_0.ImageTilingOptimal,
		core1_0.ImageUsageDepthStencilAttachment,
		core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		return nil, err
	}

	view, err := d.createImageView(image, core1_0.Format(format), core1_0.ImageAspectDepth)
	if err != nil {
		image.Destroy(nil)
		memory.Free(nil)
		return nil, err
	}

	return &depthImage{
		image:  image,
		memory: memory,
		view:   &imageView{view: view},
	}, nil
}

func (d *Device) createImage(width, height int, format core1_0.Format, tiling core1_0.ImageTiling, usage core1_0.ImageUsageFlags, memoryProperties core1_0.MemoryPropertyFlags) (core1_0.Image, core1_0.DeviceMemory, error) {
	image, res, err := d.device.CreateImage(nil, core1_0.ImageCreateInfo{
		ImageType: core1_0.ImageType2D,
		Extent: core1_0.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        format,
		Tiling:        tiling,
		InitialLayout: core1_0.ImageLayoutUndefined,
		Usage:         usage,
		SharingMode:   core1_0.SharingModeExclusive,
		Samples:       core1_0.Samples1,
	})
	if err != nil {
		return nil, nil, check(res, err, "create image")
	}

	memReqs := image.MemoryRequirements()
	memoryIndex, err := d.findMemoryType(memReqs.MemoryTypeBits, memoryProperties)
	if err != nil {
		image.Destroy(nil)
		return nil, nil, err
	}

	imageMemory, res, err := d.device.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memoryIndex,
	})
	if err != nil {
		image.Destroy(nil)
		return nil, nil, check(res, err, "allocate image memory")
	}

	res, err = image.BindImageMemory(imageMemory, 0)
	if err != nil {
		image.Destroy(nil)
		imageMemory.Free(nil)
		return nil, nil, check(res, err, "bind image memory")
	}

	return image, imageMemory, nil
}

func (d *Device) CreateRenderPass(opts render.RenderPassOptions) (render.RenderPass, error) {
	pass, res, err := d.device.CreateRenderPass(nil, core1_0.RenderPassCreateInfo{
		Attachments: []core1_0.AttachmentDescription{
			attachmentDescription(opts.Color),
			attachmentDescription(opts.Depth),
		},
		Subpasses: []core1_0.SubpassDescription{
			{
				PipelineBindPoint: core1_0.PipelineBindPointGraphics,
				ColorAttachments: []core1_0.AttachmentReference{
					{
						Attachment: 0,
						Layout:     core1_0.ImageLayout(opts.Color.Layout),
					},
				},
				DepthStencilAttachment: &core1_0.AttachmentReference{
					Attachment: 1,
					Layout:     core1_0.ImageLayout(opts.Depth.Layout),
				},
			},
		},
		SubpassDependencies: []core1_0.SubpassDependency{
			{
				SrcSubpass: core1_0.SubpassExternal,
				DstSubpass: 0,

				SrcStageMask:  core1_0.PipelineStageFlags(opts.Dependency.SrcStages),
				SrcAccessMask: core1_0.AccessFlags(opts.Dependency.SrcAccess),

				DstStageMask:  core1_0.PipelineStageFlags(opts.Dependency.DstStages),
				DstAccessMask: core1_0.AccessFlags(opts.Dependency.DstAccess),
			},
		},
	})
	if err != nil {
		return nil, check(res, err, "create render pass")
	}

	return &renderPass{renderPass: pass}, nil
}

func (d *Device) CreateFramebuffer(opts render.FramebufferOptions) (render.Framebuffer, error) {
	var attachments []core1_0.ImageView
	for _, attachment := range opts.Attachments {
		attachments = append(attachments, attachment.(*imageView).view)
	}

	fb, res, err := d.device.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
		RenderPass:  opts.RenderPass.(*renderPass).renderPass,
		Layers:      1,
		Attachments: attachments,
		Width:       opts.Extent.Width,
		Height:      opts.Extent.Height,
	})
	if err != nil {
		return nil, check(res, err, "create framebuffer")
	}

	return &framebuffer{framebuffer: fb}, nil
}

func (d *Device) CreateSemaphore() (render.Semaphore, error) {
	sem, res, err := d.device.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
	if err != nil {
		return nil, check(res, err, "create semaphore")
	}
	return &semaphore{semaphore: sem}, nil
}

func (d *Device) CreateFence(signaled bool) (render.Fence, error) {
	var options core1_0.FenceCreateInfo
	if signaled {
		options.Flags = core1_0.FenceCreateSignaled
	}

	native, res, err := d.device.CreateFence(nil, options)
	if err != nil {
		return nil, check(res, err, "create fence")
	}
	return &fence{device: d.device, fence: native}, nil
}

func (d *Device) AllocateCommandBuffers(count int) ([]render.CommandBuffer, error) {
	buffers, res, err := d.device.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        d.commandPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	})
	if err != nil {
		return nil, check(res, err, "allocate command buffers")
	}

	out := make([]render.CommandBuffer, 0, len(buffers))
	for _, buffer := range buffers {
		out = append(out, &CommandBuffer{buffer: buffer})
	}
	return out, nil
}

func (d *Device) FreeCommandBuffers(buffers []render.CommandBuffer) {
	var native []core1_0.CommandBuffer
	for _, buffer := range buffers {
		native = append(native, buffer.(*CommandBuffer).buffer)
	}
	d.device.FreeCommandBuffers(native)
}

func (d *Device) WaitIdle() error {
	res, err := d.device.WaitIdle()
	return check(res, err, "wait for device idle")
}

// UniformBufferAlignment is the offset alignment uniform buffer instances
// must respect.
func (d *Device) UniformBufferAlignment() int {
	return d.properties.Limits.MinUniformBufferOffsetAlignment
}
