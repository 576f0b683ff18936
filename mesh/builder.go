package mesh

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/g3n/engine/loader/obj"
	"github.com/go-gl/mathgl/mgl32"
)

// Builder holds mesh data on the CPU until it is uploaded. Indices may be
// empty, in which case Vertices is drawn as a plain triangle list.
type Builder struct {
	Vertices []Vertex
	Indices  []uint32
}

type vertexKey struct {
	position, uv, normal int
}

// LoadOBJ reads a Wavefront OBJ mesh. Polygons are split into triangle
// fans and vertices sharing the same position, UV and normal are merged.
// mtl may be nil.
func LoadOBJ(mesh, mtl io.Reader) (*Builder, error) {
	if mtl == nil {
		mtl = strings.NewReader("")
	}

	decoder, err := obj.DecodeReader(mesh, mtl)
	if err != nil {
		return nil, errors.Wrap(err, "decode obj")
	}

	b := &Builder{}
	uniqueVertices := make(map[vertexKey]uint32)

	for _, decodedObj := range decoder.Objects {
		for _, face := range decodedObj.Faces {
			for i := 2; i < len(face.Vertices); i++ {
				b.addVertex(decoder, uniqueVertices, face, 0)
				b.addVertex(decoder, uniqueVertices, face, i-1)
				b.addVertex(decoder, uniqueVertices, face, i)
			}
		}
	}

	if len(b.Vertices) < 3 {
		return nil, errors.Newf("mesh has %d vertices, need at least 3", len(b.Vertices))
	}

	return b, nil
}

func attributeIndex(indices []int, faceIndex int) int {
	if faceIndex < len(indices) {
		return indices[faceIndex]
	}
	return -1
}

func (b *Builder) addVertex(decoder *obj.Decoder, uniqueVertices map[vertexKey]uint32, face obj.Face, faceIndex int) {
	key := vertexKey{
		position: face.Vertices[faceIndex],
		uv:       attributeIndex(face.Uvs, faceIndex),
		normal:   attributeIndex(face.Normals, faceIndex),
	}

	index, vertexExists := uniqueVertices[key]
	if !vertexExists {
		vert := Vertex{Position: mgl32.Vec3{
			decoder.Vertices[key.position*3],
			decoder.Vertices[key.position*3+1],
			decoder.Vertices[key.position*3+2],
		}, Color: mgl32.Vec3{1, 1, 1}}

		if key.normal >= 0 && key.normal*3+2 < len(decoder.Normals) {
			vert.Normal = mgl32.Vec3{
				decoder.Normals[key.normal*3],
				decoder.Normals[key.normal*3+1],
				decoder.Normals[key.normal*3+2],
			}
		}

		if key.uv >= 0 && key.uv*2+1 < len(decoder.Uvs) {
			vert.UV = mgl32.Vec2{
				decoder.Uvs[key.uv*2],
				1.0 - decoder.Uvs[key.uv*2+1],
			}
		}

		index = uint32(len(b.Vertices))
		b.Vertices = append(b.Vertices, vert)
		uniqueVertices[key] = index
	}

	b.Indices = append(b.Indices, index)
}

// LoadOBJFile loads path, with the material library next to it when one
// exists.
func LoadOBJFile(path string) (*Builder, error) {
	meshFile, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open mesh")
	}
	defer meshFile.Close()

	var mtl io.Reader
	matFile, err := os.Open(strings.TrimSuffix(path, filepath.Ext(path)) + ".mtl")
	if err == nil {
		defer matFile.Close()
		mtl = matFile
	}

	b, err := LoadOBJ(meshFile, mtl)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", filepath.Base(path))
	}
	return b, nil
}
