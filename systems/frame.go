// Package systems records the draw calls of a frame. Each system owns a
// pipeline and renders one kind of object from the world.
package systems

import (
	"bytes"
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vermicelli-engine/vermicelli/camera"
	"github.com/vermicelli-engine/vermicelli/render"
	"github.com/vermicelli-engine/vermicelli/scene"
	"github.com/vkngwrapper/core/common"
)

// MaxLights must match the array size in the shaders.
const MaxLights = 20

// FrameInfo is what a system needs to record one frame.
type FrameInfo struct {
	FrameIndex          int
	FrameTime           float32
	CommandBuffer       render.CommandBuffer
	Camera              *camera.Camera
	GlobalDescriptorSet render.DescriptorSet
	World               *scene.World
}

// System records draws for the frame into frame.CommandBuffer, inside the
// swapchain render pass.
type System interface {
	Render(frame *FrameInfo) error
}

type PointLightData struct {
	Position mgl32.Vec4 // w ignored
	Color    mgl32.Vec4 // w is intensity
}

// GlobalUbo is the per-frame uniform block shared by every shader. Its
// field order and padding follow std140.
type GlobalUbo struct {
	Projection   mgl32.Mat4
	View         mgl32.Mat4
	InverseView  mgl32.Mat4
	AmbientColor mgl32.Vec4
	PointLights  [MaxLights]PointLightData
	NumLights    int32
	_            [3]int32
}

// GlobalUboSize is the size of the encoded GlobalUbo.
const GlobalUboSize = 3*64 + 16 + MaxLights*32 + 16

func NewGlobalUbo() GlobalUbo {
	return GlobalUbo{
		Projection:   mgl32.Ident4(),
		View:         mgl32.Ident4(),
		InverseView:  mgl32.Ident4(),
		AmbientColor: scene.White.Vec4(0.02),
	}
}

// Bytes encodes the block as the shaders read it.
func (u *GlobalUbo) Bytes() ([]byte, error) {
	return encode(u)
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	err := binary.Write(&buf, common.ByteOrder, v)
	if err != nil {
		return nil, errors.Wrap(err, "encode")
	}
	return buf.Bytes(), nil
}
