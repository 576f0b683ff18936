package vulkan

import (
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/vermicelli-engine/vermicelli/render"
	"github.com/vkngwrapper/core/core1_0"
)

// DescriptorSetLayoutBuilder collects bindings for a DescriptorSetLayout.
// A misuse is recorded and reported by Build.
type DescriptorSetLayoutBuilder struct {
	bindings map[int]core1_0.DescriptorSetLayoutBinding
	err      error
}

func NewDescriptorSetLayoutBuilder() *DescriptorSetLayoutBuilder {
	return &DescriptorSetLayoutBuilder{bindings: make(map[int]core1_0.DescriptorSetLayoutBinding)}
}

func (b *DescriptorSetLayoutBuilder) AddBinding(binding int, descriptorType core1_0.DescriptorType, stages render.ShaderStages, count int) *DescriptorSetLayoutBuilder {
	if _, used := b.bindings[binding]; used {
		b.err = errors.CombineErrors(b.err, errors.AssertionFailedf("binding %d already in use", binding))
		return b
	}

	b.bindings[binding] = core1_0.DescriptorSetLayoutBinding{
		Binding:         binding,
		DescriptorType:  descriptorType,
		DescriptorCount: count,
		StageFlags:      core1_0.ShaderStageFlags(stages),
	}
	return b
}

func (b *DescriptorSetLayoutBuilder) sortedBindings() []core1_0.DescriptorSetLayoutBinding {
	var out []core1_0.DescriptorSetLayoutBinding
	for _, binding := range b.bindings {
		out = append(out, binding)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Binding < out[j].Binding })
	return out
}

func (b *DescriptorSetLayoutBuilder) Build(device *Device) (*DescriptorSetLayout, error) {
	if b.err != nil {
		return nil, b.err
	}

	layout, res, err := device.device.CreateDescriptorSetLayout(nil, core1_0.DescriptorSetLayoutCreateInfo{
		Bindings: b.sortedBindings(),
	})
	if err != nil {
		return nil, check(res, err, "create descriptor set layout")
	}

	bindings := make(map[int]core1_0.DescriptorSetLayoutBinding, len(b.bindings))
	for k, v := range b.bindings {
		bindings[k] = v
	}
	return &DescriptorSetLayout{layout: layout, bindings: bindings}, nil
}

type DescriptorSetLayout struct {
	layout   core1_0.DescriptorSetLayout
	bindings map[int]core1_0.DescriptorSetLayoutBinding
}

func (l *DescriptorSetLayout) Destroy() { l.layout.Destroy(nil) }

func (l *DescriptorSetLayout) Handle() core1_0.DescriptorSetLayout { return l.layout }

type DescriptorPoolBuilder struct {
	poolSizes []core1_0.DescriptorPoolSize
	flags     core1_0.DescriptorPoolCreateFlags
	maxSets   int
}

func NewDescriptorPoolBuilder() *DescriptorPoolBuilder {
	return &DescriptorPoolBuilder{maxSets: 1000}
}

func (b *DescriptorPoolBuilder) AddPoolSize(descriptorType core1_0.DescriptorType, count int) *DescriptorPoolBuilder {
	b.poolSizes = append(b.poolSizes, core1_0.DescriptorPoolSize{Type: descriptorType, DescriptorCount: count})
	return b
}

func (b *DescriptorPoolBuilder) SetPoolFlags(flags core1_0.DescriptorPoolCreateFlags) *DescriptorPoolBuilder {
	b.flags = flags
	return b
}

func (b *DescriptorPoolBuilder) SetMaxSets(count int) *DescriptorPoolBuilder {
	b.maxSets = count
	return b
}

func (b *DescriptorPoolBuilder) Build(device *Device) (*DescriptorPool, error) {
	pool, res, err := device.device.CreateDescriptorPool(nil, core1_0.DescriptorPoolCreateInfo{
		Flags:     b.flags,
		MaxSets:   b.maxSets,
		PoolSizes: b.poolSizes,
	})
	if err != nil {
		return nil, check(res, err, "create descriptor pool")
	}
	return &DescriptorPool{device: device, pool: pool}, nil
}

type DescriptorPool struct {
	device *Device
	pool   core1_0.DescriptorPool
}

func (p *DescriptorPool) Destroy() { p.pool.Destroy(nil) }

// Allocate allocates one set. A full pool is reported as an error; the
// pool is never grown.
func (p *DescriptorPool) Allocate(layout *DescriptorSetLayout) (core1_0.DescriptorSet, error) {
	sets, res, err := p.device.device.AllocateDescriptorSets(core1_0.DescriptorSetAllocateInfo{
		DescriptorPool: p.pool,
		SetLayouts:     []core1_0.DescriptorSetLayout{layout.layout},
	})
	if err != nil {
		return nil, check(res, err, "allocate descriptor set")
	}
	return sets[0], nil
}

// Free returns sets to a pool built with DescriptorPoolCreateFreeDescriptorSet.
func (p *DescriptorPool) Free(sets []core1_0.DescriptorSet) error {
	res, err := p.device.device.FreeDescriptorSets(sets)
	return check(res, err, "free descriptor sets")
}

// DescriptorWriter accumulates buffer writes against a layout and applies
// them to a newly allocated or an existing set.
type DescriptorWriter struct {
	layout *DescriptorSetLayout
	pool   *DescriptorPool
	writes []core1_0.WriteDescriptorSet
	err    error
}

func NewDescriptorWriter(layout *DescriptorSetLayout, pool *DescriptorPool) *DescriptorWriter {
	return &DescriptorWriter{layout: layout, pool: pool}
}

func (w *DescriptorWriter) WriteBuffer(binding int, info core1_0.DescriptorBufferInfo) *DescriptorWriter {
	description, ok := w.layout.bindings[binding]
	if !ok {
		w.err = errors.CombineErrors(w.err, errors.AssertionFailedf("layout does not contain binding %d", binding))
		return w
	}
	if description.DescriptorCount != 1 {
		w.err = errors.CombineErrors(w.err, errors.AssertionFailedf("binding %d expects %d descriptors, got one", binding, description.DescriptorCount))
		return w
	}

	w.writes = append(w.writes, core1_0.WriteDescriptorSet{
		DstBinding:     binding,
		DescriptorType: description.DescriptorType,
		BufferInfo:     []core1_0.DescriptorBufferInfo{info},
	})
	return w
}

// Build allocates a set from the pool and writes into it.
func (w *DescriptorWriter) Build() (core1_0.DescriptorSet, error) {
	if w.err != nil {
		return nil, w.err
	}

	set, err := w.pool.Allocate(w.layout)
	if err != nil {
		return nil, err
	}
	return set, w.Overwrite(set)
}

func (w *DescriptorWriter) Overwrite(set core1_0.DescriptorSet) error {
	if w.err != nil {
		return w.err
	}

	for i := range w.writes {
		w.writes[i].DstSet = set
	}
	return errors.Wrap(w.pool.device.device.UpdateDescriptorSets(w.writes, nil), "update descriptor sets")
}
