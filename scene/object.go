package scene

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/vermicelli-engine/vermicelli/render"
)

type ID uint32

// Model is GPU mesh data an object can be drawn with.
type Model interface {
	Bind(cmd render.CommandBuffer)
	Draw(cmd render.CommandBuffer)
}

type PointLight struct {
	Intensity float32
}

// Object is anything placed in the world. Model and PointLight are
// optional components.
type Object struct {
	id        ID
	Color     mgl32.Vec3
	Transform Transform

	Model      Model
	PointLight *PointLight
}

func (o *Object) ID() ID { return o.id }

// IDAllocator hands out object IDs in increasing order.
type IDAllocator struct {
	next ID
}

func (a *IDAllocator) Next() ID {
	id := a.next
	a.next++
	return id
}

// World owns the objects of a scene and the allocator their IDs come from.
type World struct {
	ids     IDAllocator
	objects map[ID]*Object
}

func NewWorld() *World {
	return &World{objects: make(map[ID]*Object)}
}

// NewObject adds an empty object at the origin with unit scale.
func (w *World) NewObject() *Object {
	obj := &Object{
		id:        w.ids.Next(),
		Transform: NewTransform(),
	}
	w.objects[obj.id] = obj
	return obj
}

// NewPointLight adds a light object. The radius of its billboard is kept in
// Transform.Scale.X.
func (w *World) NewPointLight(intensity, radius float32, color mgl32.Vec3) *Object {
	obj := w.NewObject()
	obj.Color = color
	obj.Transform.Scale[0] = radius
	obj.PointLight = &PointLight{Intensity: intensity}
	return obj
}

// NewDefaultPointLight adds a white light of intensity 5 and radius 1.
func (w *World) NewDefaultPointLight() *Object {
	return w.NewPointLight(5, 1, White)
}

func (w *World) Get(id ID) (*Object, bool) {
	obj, ok := w.objects[id]
	return obj, ok
}

func (w *World) Remove(id ID) {
	delete(w.objects, id)
}

func (w *World) Len() int { return len(w.objects) }

// Objects returns every object ordered by ID.
func (w *World) Objects() []*Object {
	objects := make([]*Object, 0, len(w.objects))
	for _, obj := range w.objects {
		objects = append(objects, obj)
	}
	sort.Slice(objects, func(i, j int) bool {
		return objects[i].id < objects[j].id
	})
	return objects
}
