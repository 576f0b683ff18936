package mesh

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/vermicelli-engine/vermicelli/render"
)

// Vertex is the per-vertex input of the lit mesh shaders. Its memory layout
// is what the vertex buffer holds.
type Vertex struct {
	Position mgl32.Vec3
	Color    mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
}

func BindingDescriptions() []render.VertexBinding {
	v := Vertex{}
	return []render.VertexBinding{
		{
			Binding: 0,
			Stride:  int(unsafe.Sizeof(v)),
		},
	}
}

func AttributeDescriptions() []render.VertexAttribute {
	v := Vertex{}
	return []render.VertexAttribute{
		{
			Binding:  0,
			Location: 0,
			Format:   render.FormatR32G32B32SignedFloat,
			Offset:   int(unsafe.Offsetof(v.Position)),
		},
		{
			Binding:  0,
			Location: 1,
			Format:   render.FormatR32G32B32SignedFloat,
			Offset:   int(unsafe.Offsetof(v.Color)),
		},
		{
			Binding:  0,
			Location: 2,
			Format:   render.FormatR32G32B32SignedFloat,
			Offset:   int(unsafe.Offsetof(v.Normal)),
		},
		{
			Binding:  0,
			Location: 3,
			Format:   render.FormatR32G32SignedFloat,
			Offset:   int(unsafe.Offsetof(v.UV)),
		},
	}
}
