package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestHex(t *testing.T) {
	tests := []struct {
		in   string
		want mgl32.Vec3
	}{
		{"#ff0000", Red},
		{"00ff00", Lime},
		{"#fff", White},
		{"00f", Blue},
		{"#4B0082", Indigo},
	}

	for _, tt := range tests {
		got, err := Hex(tt.in)
		if err != nil {
			t.Errorf("Hex(%q): %v", tt.in, err)
			continue
		}
		if !got.ApproxEqual(tt.want) {
			t.Errorf("Hex(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestHexInvalid(t *testing.T) {
	for _, in := range []string{"", "#", "#ff00", "gg0000", "#ff00ff00"} {
		if _, err := Hex(in); err == nil {
			t.Errorf("Hex(%q) succeeded", in)
		}
	}
}

func TestRGB(t *testing.T) {
	got := RGB(255, 0, 51)
	want := mgl32.Vec3{1, 0, 0.2}
	if !got.ApproxEqual(want) {
		t.Errorf("RGB = %v, want %v", got, want)
	}
}

func TestCMYK(t *testing.T) {
	tests := []struct {
		c, m, y, k float32
		want       mgl32.Vec3
	}{
		{0, 0, 0, 0, White},
		{0, 0, 0, 1, Black},
		{0, 1, 1, 0, Red},
		{1, 0, 1, 0.5, mgl32.Vec3{0, 0.5, 0}},
	}

	for _, tt := range tests {
		if got := CMYK(tt.c, tt.m, tt.y, tt.k); !got.ApproxEqual(tt.want) {
			t.Errorf("CMYK(%v, %v, %v, %v) = %v, want %v", tt.c, tt.m, tt.y, tt.k, got, tt.want)
		}
	}
}

func TestRainbow(t *testing.T) {
	if len(Rainbow) != 15 {
		t.Errorf("len(Rainbow) = %d, want 15", len(Rainbow))
	}
}
