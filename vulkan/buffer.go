package vulkan

import (
	"bytes"
	"encoding/binary"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
)

// Buffer is a device buffer of InstanceCount equally sized instances. Each
// instance starts on a multiple of the alignment it was created with, so
// one buffer can back several descriptors.
type Buffer struct {
	device *Device
	buffer core1_0.Buffer
	memory core1_0.DeviceMemory
	mapped unsafe.Pointer

	instanceSize  int
	instanceCount int
	alignmentSize int
	bufferSize    int
}

// alignment rounds instanceSize up to the next multiple of minOffsetAlignment.
// minOffsetAlignment is a power of two as reported by the driver; zero
// leaves the size unchanged.
func alignment(instanceSize, minOffsetAlignment int) int {
	if minOffsetAlignment > 0 {
		return (instanceSize + minOffsetAlignment - 1) &^ (minOffsetAlignment - 1)
	}
	return instanceSize
}

func NewBuffer(device *Device, instanceSize, instanceCount int, usage core1_0.BufferUsageFlags, properties core1_0.MemoryPropertyFlags, minOffsetAlignment int) (*Buffer, error) {
	alignmentSize := alignment(instanceSize, minOffsetAlignment)
	b := &Buffer{
		device:        device,
		instanceSize:  instanceSize,
		instanceCount: instanceCount,
		alignmentSize: alignmentSize,
		bufferSize:    alignmentSize * instanceCount,
	}

	var err error
	b.buffer, b.memory, err = device.createBuffer(b.bufferSize, usage, properties)
	if err != nil {
		return nil, err
	}

	return b, nil
}

// NewUniformBuffer creates a host-visible buffer for one uniform block.
func NewUniformBuffer(device *Device, size int) (*Buffer, error) {
	return NewBuffer(device, size, 1,
		core1_0.BufferUsageUniformBuffer,
		core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent,
		device.UniformBufferAlignment())
}

func (d *Device) createBuffer(size int, usage core1_0.BufferUsageFlags, properties core1_0.MemoryPropertyFlags) (core1_0.Buffer, core1_0.DeviceMemory, error) {
	buffer, res, err := d.device.CreateBuffer(nil, core1_0.BufferCreateInfo{
		Size:        size,
		Usage:       usage,
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return nil, nil, check(res, err, "create buffer")
	}

	memRequirements := buffer.MemoryRequirements()
	memoryTypeIndex, err := d.findMemoryType(memRequirements.MemoryTypeBits, properties)
	if err != nil {
		buffer.Destroy(nil)
		return nil, nil, err
	}

	memory, res, err := d.device.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  memRequirements.Size,
		MemoryTypeIndex: memoryTypeIndex,
	})
	if err != nil {
		buffer.Destroy(nil)
		return nil, nil, check(res, err, "allocate buffer memory")
	}

	res, err = buffer.BindBufferMemory(memory, 0)
	if err != nil {
		buffer.Destroy(nil)
		memory.Free(nil)
		return nil, nil, check(res, err, "bind buffer memory")
	}

	return buffer, memory, nil
}

// Destroy unmaps the buffer if needed and releases it with its memory.
func (b *Buffer) Destroy() {
	b.Unmap()
	b.buffer.Destroy(nil)
	b.memory.Free(nil)
}

// Map maps the whole buffer. The memory must be host visible.
func (b *Buffer) Map() error {
	if b.mapped != nil {
		return nil
	}

	ptr, res, err := b.memory.Map(0, b.bufferSize, 0)
	if err != nil {
		return check(res, err, "map buffer memory")
	}
	b.mapped = ptr
	return nil
}

func (b *Buffer) Unmap() {
	if b.mapped != nil {
		b.memory.Unmap()
		b.mapped = nil
	}
}

// WriteToBuffer copies data into the mapped buffer at offset.
func (b *Buffer) WriteToBuffer(data []byte, offset int) error {
	if b.mapped == nil {
		return errors.AssertionFailedf("cannot write to an unmapped buffer")
	}
	if offset < 0 || offset+len(data) > b.bufferSize {
		return errors.AssertionFailedf("write of %d bytes at %d overflows buffer of %d bytes", len(data), offset, b.bufferSize)
	}

	dst := unsafe.Slice((*byte)(unsafe.Add(b.mapped, offset)), len(data))
	copy(dst, data)
	return nil
}

// WriteToIndex writes one instance.
func (b *Buffer) WriteToIndex(data []byte, index int) error {
	if len(data) > b.instanceSize {
		return errors.AssertionFailedf("instance data of %d bytes exceeds instance size %d", len(data), b.instanceSize)
	}
	return b.WriteToBuffer(data, index*b.alignmentSize)
}

// WriteValue encodes a fixed-size value in the device byte order and
// writes it at offset.
func (b *Buffer) WriteValue(value any, offset int) error {
	buf := &bytes.Buffer{}
	err := binary.Write(buf, common.ByteOrder, value)
	if err != nil {
		return errors.Wrap(err, "encode buffer data")
	}
	return b.WriteToBuffer(buf.Bytes(), offset)
}

// Flush makes host writes visible to the device. Host-coherent memory
// does not need it.
func (b *Buffer) Flush() error {
	res, err := b.memory.FlushAll()
	return check(res, err, "flush buffer memory")
}

// Handle is the native buffer, for CommandBuffer.BindVertexBuffers and
// BindIndexBuffer.
func (b *Buffer) Handle() core1_0.Buffer { return b.buffer }

// DescriptorInfo describes instance index for a descriptor write.
func (b *Buffer) DescriptorInfo(index int) core1_0.DescriptorBufferInfo {
	return core1_0.DescriptorBufferInfo{
		Buffer: b.buffer,
		Offset: index * b.alignmentSize,
		Range:  b.instanceSize,
	}
}

func (b *Buffer) Size() int          { return b.bufferSize }
func (b *Buffer) InstanceSize() int  { return b.instanceSize }
func (b *Buffer) InstanceCount() int { return b.instanceCount }
func (b *Buffer) AlignmentSize() int { return b.alignmentSize }
