package systems

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vermicelli-engine/vermicelli/camera"
	"github.com/vermicelli-engine/vermicelli/render"
	"github.com/vermicelli-engine/vermicelli/scene"
)

const epsilon = 1e-4

type fakePipeline struct {
	spec      render.PipelineSpec
	bound     int
	destroyed bool
}

func (p *fakePipeline) Bind(cmd render.CommandBuffer) {
	p.bound++
	cmd.BindPipeline(p)
}

func (p *fakePipeline) Layout() render.PipelineLayout { return "layout" }
func (p *fakePipeline) Destroy()                      { p.destroyed = true }

type push struct {
	stages render.ShaderStages
	data   []byte
}

type draw struct {
	vertexCount, instanceCount, firstVertex, firstInstance int
}

// recorder implements the parts of render.CommandBuffer the systems use.
type recorder struct {
	render.CommandBuffer

	pipelines []render.Pipeline
	sets      [][]render.DescriptorSet
	pushes    []push
	draws     []draw
}

func (r *recorder) BindPipeline(p render.Pipeline) { r.pipelines = append(r.pipelines, p) }

func (r *recorder) BindDescriptorSets(layout render.PipelineLayout, sets []render.DescriptorSet) {
	r.sets = append(r.sets, sets)
}

func (r *recorder) PushConstants(layout render.PipelineLayout, stages render.ShaderStages, offset int, data []byte) {
	r.pushes = append(r.pushes, push{stages, data})
}

func (r *recorder) Draw(vertexCount, instanceCount, firstVertex, firstInstance int) {
	r.draws = append(r.draws, draw{vertexCount, instanceCount, firstVertex, firstInstance})
}

type fakeRenderPass struct{}

func (fakeRenderPass) Destroy() {}

var pass = fakeRenderPass{}

type fakeModel struct {
	binds, draws int
}

func (m *fakeModel) Bind(render.CommandBuffer) { m.binds++ }
func (m *fakeModel) Draw(render.CommandBuffer) { m.draws++ }

func factory(created *[]*fakePipeline) PipelineFactory {
	return func(spec render.PipelineSpec) (Pipeline, error) {
		p := &fakePipeline{spec: spec}
		*created = append(*created, p)
		return p, nil
	}
}

func newFrame(world *scene.World) (*FrameInfo, *recorder) {
	cmd := &recorder{}
	return &FrameInfo{
		FrameIndex:          1,
		FrameTime:           0.016,
		CommandBuffer:       cmd,
		Camera:              camera.New(),
		GlobalDescriptorSet: "global",
		World:               world,
	}, cmd
}

func TestGlobalUboLayout(t *testing.T) {
	ubo := NewGlobalUbo()
	ubo.PointLights[19].Color = mgl32.Vec4{1, 2, 3, 4}
	ubo.NumLights = 7

	b, err := ubo.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != GlobalUboSize || GlobalUboSize != 864 {
		t.Fatalf("len = %d, GlobalUboSize = %d, want 864", len(b), GlobalUboSize)
	}

	float := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
	}
	if got := float(0); got != 1 {
		t.Errorf("projection[0][0] = %v, want 1", got)
	}
	if got := [4]float32{float(192), float(196), float(200), float(204)}; got != [4]float32{1, 1, 1, 0.02} {
		t.Errorf("ambient = %v, want white at 0.02", got)
	}
	lastColor := 208 + 19*32 + 16
	if got := float(lastColor + 12); got != 4 {
		t.Errorf("last light intensity = %v, want 4", got)
	}
	if got := int32(binary.LittleEndian.Uint32(b[848:])); got != 7 {
		t.Errorf("numLights = %d, want 7", got)
	}
	if !bytes.Equal(b[852:], make([]byte, 12)) {
		t.Errorf("padding = %v, want zeros", b[852:])
	}
}

func TestSimpleRenderSystemPipeline(t *testing.T) {
	var created []*fakePipeline
	s, err := NewSimpleRenderSystem(factory(&created), pass, "set layout", "shaders")
	if err != nil {
		t.Fatal(err)
	}

	spec := created[0].spec
	if spec.PushConstantSize != 128 || spec.PushConstantStages != render.StageVertex|render.StageFragment {
		t.Errorf("push constants = %d bytes for stages %#x", spec.PushConstantSize, spec.PushConstantStages)
	}
	if len(spec.VertexBindings) != 1 || len(spec.VertexAttributes) != 4 {
		t.Errorf("vertex input = %d bindings, %d attributes", len(spec.VertexBindings), len(spec.VertexAttributes))
	}
	if spec.VertexShader != "shaders/simple_shader.vert.spv" || spec.RenderPass != pass {
		t.Errorf("spec = %+v", spec)
	}

	s.Destroy()
	if !created[0].destroyed {
		t.Error("Destroy did not destroy the pipeline")
	}
}

func TestSimpleRenderSystemDrawsModels(t *testing.T) {
	var created []*fakePipeline
	s, err := NewSimpleRenderSystem(factory(&created), pass, "set layout", "shaders")
	if err != nil {
		t.Fatal(err)
	}

	world := scene.NewWorld()
	model := &fakeModel{}
	for i := 0; i < 3; i++ {
		obj := world.NewObject()
		obj.Model = model
		obj.Transform.Translation = mgl32.Vec3{float32(i), 0, 0}
	}
	world.NewDefaultPointLight()

	frame, cmd := newFrame(world)
	if err := s.Render(frame); err != nil {
		t.Fatal(err)
	}

	if len(cmd.pipelines) != 1 || len(cmd.sets) != 1 || cmd.sets[0][0] != "global" {
		t.Errorf("bound %d pipelines and sets %v", len(cmd.pipelines), cmd.sets)
	}
	if model.binds != 3 || model.draws != 3 {
		t.Errorf("model bound %d times, drawn %d times, want 3", model.binds, model.draws)
	}
	if len(cmd.pushes) != 3 {
		t.Fatalf("got %d pushes, want 3", len(cmd.pushes))
	}
	last := cmd.pushes[2].data
	if len(last) != 128 {
		t.Fatalf("push size = %d, want 128", len(last))
	}
	// column 3 of the model matrix holds the translation
	if got := math.Float32frombits(binary.LittleEndian.Uint32(last[48:])); got != 2 {
		t.Errorf("translation x = %v, want 2", got)
	}
}

func newLightSystem(t *testing.T) (*PointLightSystem, *fakePipeline) {
	var created []*fakePipeline
	s, err := NewPointLightSystem(factory(&created), pass, "set layout", "shaders")
	if err != nil {
		t.Fatal(err)
	}
	return s, created[0]
}

func TestPointLightSystemPipeline(t *testing.T) {
	_, pipeline := newLightSystem(t)

	spec := pipeline.spec
	if len(spec.VertexBindings) != 0 || len(spec.VertexAttributes) != 0 {
		t.Errorf("point light pipeline has vertex input: %+v", spec)
	}
	if spec.PushConstantSize != 36 {
		t.Errorf("push constant size = %d, want 36", spec.PushConstantSize)
	}
	if !spec.AlphaBlend {
		t.Error("point light pipeline does not blend")
	}
}

func TestPointLightUpdateRotatesLights(t *testing.T) {
	s, _ := newLightSystem(t)

	world := scene.NewWorld()
	world.NewObject()
	light := world.NewPointLight(2, 0.5, scene.Red)
	light.Transform.Translation = mgl32.Vec3{1, -3, 0}

	frame, _ := newFrame(world)
	frame.FrameTime = math.Pi / 2

	ubo := NewGlobalUbo()
	if err := s.Update(frame, &ubo); err != nil {
		t.Fatal(err)
	}

	want := mgl32.Vec3{0, -3, 1}
	if !light.Transform.Translation.ApproxEqualThreshold(want, epsilon) {
		t.Errorf("light moved to %v, want %v", light.Transform.Translation, want)
	}
	if ubo.NumLights != 1 {
		t.Fatalf("NumLights = %d, want 1", ubo.NumLights)
	}
	if got := ubo.PointLights[0].Position; !got.ApproxEqualThreshold(want.Vec4(1), epsilon) {
		t.Errorf("ubo position = %v, want %v", got, want.Vec4(1))
	}
	if got := ubo.PointLights[0].Color; got != (mgl32.Vec4{1, 0, 0, 2}) {
		t.Errorf("ubo color = %v, want red at intensity 2", got)
	}
}

func TestPointLightUpdateLimit(t *testing.T) {
	s, _ := newLightSystem(t)

	world := scene.NewWorld()
	for i := 0; i < MaxLights; i++ {
		world.NewDefaultPointLight()
	}
	frame, _ := newFrame(world)
	ubo := NewGlobalUbo()
	if err := s.Update(frame, &ubo); err != nil {
		t.Fatalf("%d lights: %v", MaxLights, err)
	}
	if ubo.NumLights != MaxLights {
		t.Errorf("NumLights = %d, want %d", ubo.NumLights, MaxLights)
	}

	world.NewDefaultPointLight()
	if err := s.Update(frame, &ubo); !errors.Is(err, ErrTooManyLights) {
		t.Errorf("expected ErrTooManyLights, got %v", err)
	}
}

func TestPointLightRender(t *testing.T) {
	s, _ := newLightSystem(t)

	world := scene.NewWorld()
	world.NewObject().Model = &fakeModel{}
	world.NewPointLight(1, 0.1, scene.Blue)
	world.NewPointLight(1, 0.25, scene.Green)

	frame, cmd := newFrame(world)
	if err := s.Render(frame); err != nil {
		t.Fatal(err)
	}

	if len(cmd.draws) != 2 {
		t.Fatalf("got %d draws, want 2", len(cmd.draws))
	}
	for _, d := range cmd.draws {
		if d != (draw{6, 1, 0, 0}) {
			t.Errorf("draw = %+v, want 6 vertices", d)
		}
	}

	last := cmd.pushes[1]
	if len(last.data) != 36 || last.stages != render.StageVertex|render.StageFragment {
		t.Fatalf("push = %d bytes for stages %#x", len(last.data), last.stages)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(last.data[32:])); got != 0.25 {
		t.Errorf("radius = %v, want 0.25", got)
	}
}
