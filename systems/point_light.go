package systems

import (
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vermicelli-engine/vermicelli/render"
)

var ErrTooManyLights = errors.New("too many point lights")

type pointLightPushConstants struct {
	Position mgl32.Vec4
	Color    mgl32.Vec4
	Radius   float32
}

const pointLightPushConstantsSize = 36

// PointLightSystem animates the point lights, feeds them to the global
// uniform block and draws each one as a camera-facing billboard.
type PointLightSystem struct {
	pipeline Pipeline
}

var _ System = (*PointLightSystem)(nil)

func NewPointLightSystem(create PipelineFactory, renderPass render.RenderPass, globalSetLayout render.DescriptorSetLayout, shaderDir string) (*PointLightSystem, error) {
	// The billboard quad is generated in the vertex shader.
	pipeline, err := create(render.PipelineSpec{
		VertexShader:       filepath.Join(shaderDir, "point_light.vert.spv"),
		FragmentShader:     filepath.Join(shaderDir, "point_light.frag.spv"),
		SetLayouts:         []render.DescriptorSetLayout{globalSetLayout},
		PushConstantStages: render.StageVertex | render.StageFragment,
		PushConstantSize:   pointLightPushConstantsSize,
		AlphaBlend:         true,
		RenderPass:         renderPass,
	})
	if err != nil {
		return nil, errors.Wrap(err, "point light pipeline")
	}

	return &PointLightSystem{pipeline: pipeline}, nil
}

// Update turns every light about -Y by the frame time and copies the
// lights into ubo.
func (s *PointLightSystem) Update(frame *FrameInfo, ubo *GlobalUbo) error {
	rotate := mgl32.HomogRotate3D(frame.FrameTime, mgl32.Vec3{0, -1, 0})

	lightIndex := 0
	for _, obj := range frame.World.Objects() {
		if obj.PointLight == nil {
			continue
		}
		if lightIndex >= MaxLights {
			return errors.Wrapf(ErrTooManyLights, "at most %d supported", MaxLights)
		}

		obj.Transform.Translation = rotate.Mul4x1(obj.Transform.Translation.Vec4(1)).Vec3()

		ubo.PointLights[lightIndex] = PointLightData{
			Position: obj.Transform.Translation.Vec4(1),
			Color:    obj.Color.Vec4(obj.PointLight.Intensity),
		}
		lightIndex++
	}
	ubo.NumLights = int32(lightIndex)

	return nil
}

func (s *PointLightSystem) Render(frame *FrameInfo) error {
	bindGlobalSet(frame, s.pipeline)

	cmd := frame.CommandBuffer
	for _, obj := range frame.World.Objects() {
		if obj.PointLight == nil {
			continue
		}

		push, err := encode(pointLightPushConstants{
			Position: obj.Transform.Translation.Vec4(1),
			Color:    obj.Color.Vec4(obj.PointLight.Intensity),
			Radius:   obj.Transform.Scale.X(),
		})
		if err != nil {
			return err
		}

		cmd.PushConstants(s.pipeline.Layout(), render.StageVertex|render.StageFragment, 0, push)
		cmd.Draw(6, 1, 0, 0)
	}

	return nil
}

func (s *PointLightSystem) Destroy() {
	s.pipeline.Destroy()
}
