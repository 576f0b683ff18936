package systems

import (
	"github.com/vermicelli-engine/vermicelli/render"
)

// Pipeline is a graphics pipeline built by the backend.
type Pipeline interface {
	Bind(cmd render.CommandBuffer)
	Layout() render.PipelineLayout
	Destroy()
}

// PipelineFactory builds pipelines for the systems.
type PipelineFactory func(spec render.PipelineSpec) (Pipeline, error)

func bindGlobalSet(frame *FrameInfo, pipeline Pipeline) {
	pipeline.Bind(frame.CommandBuffer)
	frame.CommandBuffer.BindDescriptorSets(pipeline.Layout(), []render.DescriptorSet{frame.GlobalDescriptorSet})
}
