package vulkan

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/vermicelli-engine/vermicelli/mesh"
	"github.com/vermicelli-engine/vermicelli/render"
	"github.com/vkngwrapper/core/core1_0"
)

// Model is mesh data in device-local vertex and index buffers.
type Model struct {
	vertexBuffer *Buffer
	vertexCount  int

	indexBuffer *Buffer
	indexCount  int
}

func NewModel(device *Device, builder *mesh.Builder) (*Model, error) {
	if len(builder.Vertices) < 3 {
		return nil, errors.AssertionFailedf("vertex count must be at least 3, got %d", len(builder.Vertices))
	}

	m := &Model{}

	var err error
	m.vertexBuffer, err = device.uploadBuffer(builder.Vertices, len(builder.Vertices), core1_0.BufferUsageVertexBuffer)
	if err != nil {
		return nil, errors.Wrap(err, "upload vertices")
	}
	m.vertexCount = len(builder.Vertices)

	if len(builder.Indices) > 0 {
		m.indexBuffer, err = device.uploadBuffer(builder.Indices, len(builder.Indices), core1_0.BufferUsageIndexBuffer)
		if err != nil {
			m.vertexBuffer.Destroy()
			return nil, errors.Wrap(err, "upload indices")
		}
		m.indexCount = len(builder.Indices)
	}

	render.Logger().Debug("model uploaded", "vertices", m.vertexCount, "indices", m.indexCount)
	return m, nil
}

// uploadBuffer copies data into a new device-local buffer through a
// host-visible staging buffer.
func (d *Device) uploadBuffer(data any, count int, usage core1_0.BufferUsageFlags) (*Buffer, error) {
	bufferSize := binary.Size(data)
	instanceSize := bufferSize / count

	staging, err := NewBuffer(d, instanceSize, count,
		core1_0.BufferUsageTransferSrc,
		core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent, 0)
	if err != nil {
		return nil, err
	}
	defer staging.Destroy()

	err = staging.Map()
	if err != nil {
		return nil, err
	}
	err = staging.WriteValue(data, 0)
	if err != nil {
		return nil, err
	}
	staging.Unmap()

	buffer, err := NewBuffer(d, instanceSize, count,
		usage|core1_0.BufferUsageTransferDst,
		core1_0.MemoryPropertyDeviceLocal, 0)
	if err != nil {
		return nil, err
	}

	err = d.copyBuffer(staging.buffer, buffer.buffer, bufferSize)
	if err != nil {
		buffer.Destroy()
		return nil, err
	}
	return buffer, nil
}

func (m *Model) Bind(cmd render.CommandBuffer) {
	cmd.BindVertexBuffers([]render.Buffer{m.vertexBuffer.Handle()}, []int{0})

	if m.indexBuffer != nil {
		cmd.BindIndexBuffer(m.indexBuffer.Handle(), 0)
	}
}

func (m *Model) Draw(cmd render.CommandBuffer) {
	if m.indexBuffer != nil {
		cmd.DrawIndexed(m.indexCount, 1, 0, 0, 0)
	} else {
		cmd.Draw(m.vertexCount, 1, 0, 0)
	}
}

func (m *Model) Destroy() {
	if m.indexBuffer != nil {
		m.indexBuffer.Destroy()
	}
	m.vertexBuffer.Destroy()
}
