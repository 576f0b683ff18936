package mesh

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

const quadOBJ = `o quad
v -1 0 -1
v 1 0 -1
v 1 0 1
v -1 0 1
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 -1 0
f 1/1/1 2/2/1 3/3/1 4/4/1
`

func TestLoadOBJTriangulatesFans(t *testing.T) {
	b, err := LoadOBJ(strings.NewReader(quadOBJ), nil)
	if err != nil {
		t.Fatalf("LoadOBJ: %+v", err)
	}

	if len(b.Vertices) != 4 {
		t.Errorf("got %d vertices, want 4", len(b.Vertices))
	}
	want := []uint32{0, 1, 2, 0, 2, 3}
	if len(b.Indices) != len(want) {
		t.Fatalf("got indices %v, want %v", b.Indices, want)
	}
	for i := range want {
		if b.Indices[i] != want[i] {
			t.Fatalf("got indices %v, want %v", b.Indices, want)
		}
	}
}

func TestLoadOBJAttributes(t *testing.T) {
	b, err := LoadOBJ(strings.NewReader(quadOBJ), nil)
	if err != nil {
		t.Fatalf("LoadOBJ: %+v", err)
	}

	v := b.Vertices[2]
	if v.Position != (mgl32.Vec3{1, 0, 1}) {
		t.Errorf("position: %v", v.Position)
	}
	if v.Color != (mgl32.Vec3{1, 1, 1}) {
		t.Errorf("default color: %v", v.Color)
	}
	if v.Normal != (mgl32.Vec3{0, -1, 0}) {
		t.Errorf("normal: %v", v.Normal)
	}
	if v.UV != (mgl32.Vec2{1, 0}) {
		t.Errorf("uv not flipped: %v", v.UV)
	}
}

func TestLoadOBJSplitsSeams(t *testing.T) {
	// Same position with two different UVs must yield two vertices.
	const seam = `o seam
v 0 0 0
v 1 0 0
v 0 1 0
vt 0 0
vt 1 1
f 1/1 2/1 3/1
f 1/2 3/1 2/1
`
	b, err := LoadOBJ(strings.NewReader(seam), nil)
	if err != nil {
		t.Fatalf("LoadOBJ: %+v", err)
	}
	if len(b.Vertices) != 4 {
		t.Errorf("got %d vertices, want 4", len(b.Vertices))
	}
	if len(b.Indices) != 6 {
		t.Errorf("got %d indices, want 6", len(b.Indices))
	}
}

func TestLoadOBJTooSmall(t *testing.T) {
	_, err := LoadOBJ(strings.NewReader("o empty\nv 0 0 0\n"), nil)
	if err == nil {
		t.Fatal("expected an error for a mesh without faces")
	}
}

func TestLoadOBJFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quad.obj")
	err := os.WriteFile(path, []byte(quadOBJ), 0o600)
	if err != nil {
		t.Fatal(err)
	}

	b, err := LoadOBJFile(path)
	if err != nil {
		t.Fatalf("LoadOBJFile: %+v", err)
	}
	if len(b.Indices) != 6 {
		t.Errorf("got %d indices, want 6", len(b.Indices))
	}

	_, err = LoadOBJFile(filepath.Join(dir, "missing.obj"))
	if err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestVertexLayout(t *testing.T) {
	bindings := BindingDescriptions()
	if len(bindings) != 1 || bindings[0].Stride != 44 {
		t.Fatalf("bindings: %+v", bindings)
	}

	attributes := AttributeDescriptions()
	wantOffsets := []int{0, 12, 24, 36}
	if len(attributes) != len(wantOffsets) {
		t.Fatalf("got %d attributes", len(attributes))
	}
	for i, attribute := range attributes {
		if attribute.Location != i || attribute.Offset != wantOffsets[i] {
			t.Errorf("attribute %d: %+v", i, attribute)
		}
	}
}
