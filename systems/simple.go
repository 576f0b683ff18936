package systems

import (
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vermicelli-engine/vermicelli/mesh"
	"github.com/vermicelli-engine/vermicelli/render"
)

type simplePushConstants struct {
	ModelMatrix  mgl32.Mat4
	NormalMatrix mgl32.Mat4
}

const simplePushConstantsSize = 128

// SimpleRenderSystem draws every object that has a model with the lit
// mesh shaders.
type SimpleRenderSystem struct {
	pipeline Pipeline
}

var _ System = (*SimpleRenderSystem)(nil)

func NewSimpleRenderSystem(create PipelineFactory, renderPass render.RenderPass, globalSetLayout render.DescriptorSetLayout, shaderDir string) (*SimpleRenderSystem, error) {
	pipeline, err := create(render.PipelineSpec{
		VertexShader:       filepath.Join(shaderDir, "simple_shader.vert.spv"),
		FragmentShader:     filepath.Join(shaderDir, "simple_shader.frag.spv"),
		VertexBindings:     mesh.BindingDescriptions(),
		VertexAttributes:   mesh.AttributeDescriptions(),
		SetLayouts:         []render.DescriptorSetLayout{globalSetLayout},
		PushConstantStages: render.StageVertex | render.StageFragment,
		PushConstantSize:   simplePushConstantsSize,
		RenderPass:         renderPass,
	})
	if err != nil {
		return nil, errors.Wrap(err, "simple render pipeline")
	}

	return &SimpleRenderSystem{pipeline: pipeline}, nil
}

func (s *SimpleRenderSystem) Render(frame *FrameInfo) error {
	bindGlobalSet(frame, s.pipeline)

	cmd := frame.CommandBuffer
	for _, obj := range frame.World.Objects() {
		if obj.Model == nil {
			continue
		}

		push, err := encode(simplePushConstants{
			ModelMatrix:  obj.Transform.Mat4(),
			NormalMatrix: obj.Transform.NormalMatrix().Mat4(),
		})
		if err != nil {
			return err
		}

		cmd.PushConstants(s.pipeline.Layout(), render.StageVertex|render.StageFragment, 0, push)
		obj.Model.Bind(cmd)
		obj.Model.Draw(cmd)
	}

	return nil
}

func (s *SimpleRenderSystem) Destroy() {
	s.pipeline.Destroy()
}
