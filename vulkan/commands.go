package vulkan

import (
	"github.com/vermicelli-engine/vermicelli/render"
	"github.com/vkngwrapper/core/core1_0"
)

// CommandBuffer records into a primary command buffer allocated from the
// device's pool. Handles passed to the Bind methods must come from this
// package.
type CommandBuffer struct {
	buffer core1_0.CommandBuffer
}

var _ render.CommandBuffer = (*CommandBuffer)(nil)

func (c *CommandBuffer) Begin() error {
	res, err := c.buffer.Begin(core1_0.CommandBufferBeginInfo{})
	return check(res, err, "begin command buffer")
}

func (c *CommandBuffer) End() error {
	res, err := c.buffer.End()
	return check(res, err, "end command buffer")
}

func (c *CommandBuffer) BeginRenderPass(begin render.RenderPassBegin) error {
	return c.buffer.CmdBeginRenderPass(core1_0.SubpassContentsInline,
		core1_0.RenderPassBeginInfo{
			RenderPass:  begin.RenderPass.(*renderPass).renderPass,
			Framebuffer: begin.Framebuffer.(*framebuffer).framebuffer,
			RenderArea:  rect2D(begin.Area),
			ClearValues: []core1_0.ClearValue{
				core1_0.ClearValueFloat(begin.Color),
				core1_0.ClearValueDepthStencil{Depth: begin.DepthStencil.Depth, Stencil: begin.DepthStencil.Stencil},
			},
		})
}

func (c *CommandBuffer) EndRenderPass() {
	c.buffer.CmdEndRenderPass()
}

func (c *CommandBuffer) SetViewport(viewport render.Viewport) {
	c.buffer.CmdSetViewport([]core1_0.Viewport{
		{
			X:        viewport.X,
			Y:        viewport.Y,
			Width:    viewport.Width,
			Height:   viewport.Height,
			MinDepth: viewport.MinDepth,
			MaxDepth: viewport.MaxDepth,
		},
	})
}

func (c *CommandBuffer) SetScissor(scissor render.Rect) {
	c.buffer.CmdSetScissor([]core1_0.Rect2D{rect2D(scissor)})
}

func (c *CommandBuffer) Draw(vertexCount, instanceCount, firstVertex, firstInstance int) {
	c.buffer.CmdDraw(vertexCount, instanceCount, uint32(firstVertex), uint32(firstInstance))
}

func (c *CommandBuffer) DrawIndexed(indexCount, instanceCount, firstIndex, vertexOffset, firstInstance int) {
	c.buffer.CmdDrawIndexed(indexCount, instanceCount, uint32(firstIndex), vertexOffset, uint32(firstInstance))
}

func (c *CommandBuffer) BindPipeline(pipeline render.Pipeline) {
	c.buffer.CmdBindPipeline(core1_0.PipelineBindPointGraphics, pipeline.(core1_0.Pipeline))
}

func (c *CommandBuffer) BindDescriptorSets(layout render.PipelineLayout, sets []render.DescriptorSet) {
	native := make([]core1_0.DescriptorSet, 0, len(sets))
	for _, set := range sets {
		native = append(native, set.(core1_0.DescriptorSet))
	}
	c.buffer.CmdBindDescriptorSets(core1_0.PipelineBindPointGraphics, layout.(core1_0.PipelineLayout), native, nil)
}

func (c *CommandBuffer) PushConstants(layout render.PipelineLayout, stages render.ShaderStages, offset int, data []byte) {
	c.buffer.CmdPushConstants(layout.(core1_0.PipelineLayout), core1_0.ShaderStageFlags(stages), offset, data)
}

func (c *CommandBuffer) BindVertexBuffers(buffers []render.Buffer, offsets []int) {
	native := make([]core1_0.Buffer, 0, len(buffers))
	for _, buffer := range buffers {
		native = append(native, buffer.(core1_0.Buffer))
	}
	c.buffer.CmdBindVertexBuffers(0, native, offsets)
}

func (c *CommandBuffer) BindIndexBuffer(buffer render.Buffer, offset int) {
	c.buffer.CmdBindIndexBuffer(buffer.(core1_0.Buffer), offset, core1_0.IndexTypeUInt32)
}

func (d *Device) beginSingleTimeCommands() (core1_0.CommandBuffer, error) {
	buffers, res, err := d.device.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        d.commandPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	})
	if err != nil {
		return nil, check(res, err, "allocate single-time command buffer")
	}

	buffer := buffers[0]
	res, err = buffer.Begin(core1_0.CommandBufferBeginInfo{
		Flags: core1_0.CommandBufferUsageOneTimeSubmit,
	})
	if err != nil {
		d.device.FreeCommandBuffers(buffers)
		return nil, check(res, err, "begin single-time command buffer")
	}
	return buffer, nil
}

// endSingleTimeCommands submits buffer to the graphics queue, blocks until
// it has executed and frees it.
func (d *Device) endSingleTimeCommands(buffer core1_0.CommandBuffer) error {
	defer d.device.FreeCommandBuffers([]core1_0.CommandBuffer{buffer})

	res, err := buffer.End()
	if err != nil {
		return check(res, err, "end single-time command buffer")
	}

	res, err = d.graphicsQueue.queue.Submit(nil, []core1_0.SubmitInfo{
		{
			CommandBuffers: []core1_0.CommandBuffer{buffer},
		},
	})
	if err != nil {
		return check(res, err, "submit single-time command buffer")
	}

	return d.graphicsQueue.WaitIdle()
}

func (d *Device) copyBuffer(srcBuffer core1_0.Buffer, dstBuffer core1_0.Buffer, size int) error {
	buffer, err := d.beginSingleTimeCommands()
	if err != nil {
		return err
	}

	err = buffer.CmdCopyBuffer(srcBuffer, dstBuffer, []core1_0.BufferCopy{
		{
			SrcOffset: 0,
			DstOffset: 0,
			Size:      size,
		},
	})
	if err != nil {
		d.device.FreeCommandBuffers([]core1_0.CommandBuffer{buffer})
		return err
	}

	return d.endSingleTimeCommands(buffer)
}
