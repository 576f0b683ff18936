package main

import (
	"math"
	"testing"

	"github.com/vermicelli-engine/vermicelli/scene"
	"github.com/vermicelli-engine/vermicelli/systems"
)

func TestAddLights(t *testing.T) {
	world := scene.NewWorld()
	addLights(world)

	objects := world.Objects()
	if len(objects) != len(scene.Rainbow)+1 {
		t.Fatalf("got %d lights, want %d", len(objects), len(scene.Rainbow)+1)
	}
	if len(objects) > systems.MaxLights {
		t.Fatalf("%d lights exceed MaxLights %d", len(objects), systems.MaxLights)
	}

	overhead := objects[0]
	if overhead.Transform.Translation.Y() != -10 || overhead.PointLight.Intensity != 2 {
		t.Errorf("overhead light = %v intensity %v", overhead.Transform.Translation, overhead.PointLight.Intensity)
	}

	radius := math.Hypot(2.5, 2.5)
	for _, light := range objects[1:] {
		pos := light.Transform.Translation
		if got := math.Hypot(float64(pos.X()), float64(pos.Z())); math.Abs(got-radius) > 1e-4 {
			t.Errorf("ring light at %v is %v from the axis, want %v", pos, got, radius)
		}
		if math.Abs(float64(pos.Y())+4.5) > 1e-4 {
			t.Errorf("ring light height = %v, want -4.5", pos.Y())
		}
		if light.Transform.Scale.X() != 0.1 {
			t.Errorf("ring light radius = %v, want 0.1", light.Transform.Scale.X())
		}
	}
}
