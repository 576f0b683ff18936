package vulkan

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/vermicelli-engine/vermicelli/render"
	"github.com/vkngwrapper/core/core1_0"
)

// Pipeline is a graphics pipeline together with the layout it owns.
type Pipeline struct {
	pipeline core1_0.Pipeline
	layout   core1_0.PipelineLayout
}

func bytesToBytecode(b []byte) []uint32 {
	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] = 0
		byteCode[i] |= uint32(b[byteIndex])
		byteCode[i] |= uint32(b[byteIndex+1]) << 8
		byteCode[i] |= uint32(b[byteIndex+2]) << 16
		byteCode[i] |= uint32(b[byteIndex+3]) << 24
	}

	return byteCode
}

func (d *Device) createShaderModule(path string) (core1_0.ShaderModule, error) {
	shaderBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read shader %s", path)
	}
	if len(shaderBytes) == 0 || len(shaderBytes)%4 != 0 {
		return nil, errors.Newf("shader %s is not SPIR-V: %d bytes", path, len(shaderBytes))
	}

	shader, res, err := d.device.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: bytesToBytecode(shaderBytes),
	})
	if err != nil {
		return nil, check(res, err, "create shader module "+path)
	}
	return shader, nil
}

// CreatePipeline builds spec's layout and pipeline: triangle lists, filled
// polygons without culling, depth tested with less-than and written.
// Blending is off unless spec.AlphaBlend is set.
func (d *Device) CreatePipeline(spec render.PipelineSpec) (*Pipeline, error) {
	vertShader, err := d.createShaderModule(spec.VertexShader)
	if err != nil {
		return nil, err
	}
	defer vertShader.Destroy(nil)

	fragShader, err := d.createShaderModule(spec.FragmentShader)
	if err != nil {
		return nil, err
	}
	defer fragShader.Destroy(nil)

	var setLayouts []core1_0.DescriptorSetLayout
	for _, layout := range spec.SetLayouts {
		setLayouts = append(setLayouts, layout.(*DescriptorSetLayout).layout)
	}

	layoutOptions := core1_0.PipelineLayoutCreateInfo{
		SetLayouts: setLayouts,
	}
	if spec.PushConstantSize > 0 {
		layoutOptions.PushConstantRanges = []core1_0.PushConstantRange{
			{
				StageFlags: core1_0.ShaderStageFlags(spec.PushConstantStages),
				Offset:     0,
				Size:       spec.PushConstantSize,
			},
		}
	}

	pipelineLayout, res, err := d.device.CreatePipelineLayout(nil, layoutOptions)
	if err != nil {
		return nil, check(res, err, "create pipeline layout")
	}

	vertexInput := &core1_0.PipelineVertexInputStateCreateInfo{
		VertexBindingDescriptions:   vertexBindings(spec.VertexBindings),
		VertexAttributeDescriptions: vertexAttributes(spec.VertexAttributes),
	}

	inputAssembly := &core1_0.PipelineInputAssemblyStateCreateInfo{
		Topology:               core1_0.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: false,
	}

	vertStage := core1_0.PipelineShaderStageCreateInfo{
		Stage:  core1_0.StageVertex,
		Module: vertShader,
		Name:   "main",
	}

	fragStage := core1_0.PipelineShaderStageCreateInfo{
		Stage:  core1_0.StageFragment,
		Module: fragShader,
		Name:   "main",
	}

	// Placeholders; both are set per frame.
	viewport := &core1_0.PipelineViewportStateCreateInfo{
		Viewports: []core1_0.Viewport{{Width: 1, Height: 1, MaxDepth: 1}},
		Scissors:  []core1_0.Rect2D{{Extent: core1_0.Extent2D{Width: 1, Height: 1}}},
	}

	dynamicState := &core1_0.PipelineDynamicStateCreateInfo{
		DynamicStates: []core1_0.DynamicState{
			core1_0.DynamicStateViewport,
			core1_0.DynamicStateScissor,
		},
	}

	rasterization := &core1_0.PipelineRasterizationStateCreateInfo{
		DepthClampEnable:        false,
		RasterizerDiscardEnable: false,

		PolygonMode: core1_0.PolygonModeFill,
		CullMode:    core1_0.CullModeNone,
		FrontFace:   core1_0.FrontFaceClockwise,

		DepthBiasEnable: false,

		LineWidth: 1.0,
	}

	multisample := &core1_0.PipelineMultisampleStateCreateInfo{
		SampleShadingEnable:  false,
		RasterizationSamples: core1_0.Samples1,
		MinSampleShading:     1.0,
	}

	depthStencil := &core1_0.PipelineDepthStencilStateCreateInfo{
		DepthTestEnable:  true,
		DepthWriteEnable: true,
		DepthCompareOp:   core1_0.CompareOpLess,
	}

	blendAttachment := core1_0.PipelineColorBlendAttachmentState{
		BlendEnabled:   false,
		ColorWriteMask: core1_0.ColorComponentRed | core1_0.ColorComponentGreen | core1_0.ColorComponentBlue | core1_0.ColorComponentAlpha,
	}
	if spec.AlphaBlend {
		blendAttachment.BlendEnabled = true
		blendAttachment.SrcColorBlendFactor = core1_0.BlendFactorSrcAlpha
		blendAttachment.DstColorBlendFactor = core1_0.BlendFactorOneMinusSrcAlpha
		blendAttachment.ColorBlendOp = core1_0.BlendOpAdd
		blendAttachment.SrcAlphaBlendFactor = core1_0.BlendFactorOne
		blendAttachment.DstAlphaBlendFactor = core1_0.BlendFactorZero
		blendAttachment.AlphaBlendOp = core1_0.BlendOpAdd
	}

	colorBlend := &core1_0.PipelineColorBlendStateCreateInfo{
		LogicOpEnabled: false,
		LogicOp:        core1_0.LogicOpCopy,

		BlendConstants: [4]float32{0, 0, 0, 0},
		Attachments:    []core1_0.PipelineColorBlendAttachmentState{blendAttachment},
	}

	pipelines, res, err := d.device.CreateGraphicsPipelines(nil, nil, []core1_0.GraphicsPipelineCreateInfo{
		{
			Stages: []core1_0.PipelineShaderStageCreateInfo{
				vertStage,
				fragStage,
			},
			VertexInputState:   vertexInput,
			InputAssemblyState: inputAssembly,
			ViewportState:      viewport,
			RasterizationState: rasterization,
			MultisampleState:   multisample,
			DepthStencilState:  depthStencil,
			ColorBlendState:    colorBlend,
			DynamicState:       dynamicState,
			Layout:             pipelineLayout,
			RenderPass:         spec.RenderPass.(*renderPass).renderPass,
			Subpass:            0,
			BasePipelineIndex:  -1,
		},
	})
	if err != nil {
		pipelineLayout.Destroy(nil)
		return nil, check(res, err, "create graphics pipeline")
	}

	return &Pipeline{pipeline: pipelines[0], layout: pipelineLayout}, nil
}

func (p *Pipeline) Bind(cmd render.CommandBuffer) {
	cmd.BindPipeline(p.pipeline)
}

func (p *Pipeline) Layout() render.PipelineLayout { return p.layout }

func (p *Pipeline) Destroy() {
	p.pipeline.Destroy(nil)
	p.layout.Destroy(nil)
}
