package partition

import (
	"github.com/vk/pipegrid/internal/node"
	"github.com/vk/pipegrid/internal/pipeline"
)

// barrierState is the set of event levels guarding one segment boundary.
type barrierState int

const (
	barrierNone barrierState = iota
	barrierDataOnly
	barrierPipelineOnly
	barrierDataAndPipeline
)

func (s barrierState) String() string {
	switch s {
	case barrierNone:
		return "none"
	case barrierDataOnly:
		return "data-only"
	case barrierPipelineOnly:
		return "pipeline-only"
	case barrierDataAndPipeline:
		return "data-and-pipeline"
	default:
		return "unknown"
	}
}

func (s barrierState) hasData() bool {
	return s == barrierDataOnly || s == barrierDataAndPipeline
}

func (s barrierState) hasPipeline() bool {
	return s == barrierPipelineOnly || s == barrierDataAndPipeline
}

// barrier is the synchronization at the entry or exit of one segment.
type barrier struct {
	stage int
	dir   pipeline.Direction
	state barrierState
}

// entryBarrier classifies the wait side of a segment. A segment without an
// upstream stage (stage 0 forward, the last stage backward) has no data to
// wait for.
func entryBarrier(stage, stages int, dir pipeline.Direction, seg Segment) barrier {
	b := barrier{stage: stage, dir: dir}
	switch {
	case !seg.needsEntry():
		b.state = barrierNone
	case pipeline.HasUpstream(stage, stages, dir):
		b.state = barrierDataAndPipeline
	default:
		b.state = barrierPipelineOnly
	}
	return b
}

// exitBarrier classifies the record side of a segment. A segment without a
// downstream stage (the last stage forward, stage 0 backward) has no one to
// hand data to.
func exitBarrier(stage, stages int, dir pipeline.Direction, seg Segment) barrier {
	b := barrier{stage: stage, dir: dir}
	switch {
	case !seg.needsExit():
		b.state = barrierNone
	case pipeline.HasDownstream(stage, stages, dir):
		b.state = barrierDataAndPipeline
	default:
		b.state = barrierPipelineOnly
	}
	return b
}

// waitEvents returns the event inputs of the wait chain in execution order.
func (b barrier) waitEvents() []string {
	var events []string
	if b.state.hasData() {
		events = append(events, pipeline.WaitDataInput(b.stage, b.dir))
	}
	if b.state.hasPipeline() {
		events = append(events, pipeline.WaitPipelineInput(b.stage, b.dir))
	}
	return events
}

// recordEvents returns the event inputs of the record chain in execution order.
func (b barrier) recordEvents() []string {
	var events []string
	if b.state.hasPipeline() {
		events = append(events, pipeline.RecordPipelineInput(b.stage, b.dir))
	}
	if b.state.hasData() {
		events = append(events, pipeline.RecordDataInput(b.stage, b.dir))
	}
	return events
}

// twoLevel reports whether values pass through an intermediate name.
func (b barrier) twoLevel() bool {
	return b.state == barrierDataAndPipeline
}

// waitNodes builds the WaitEvent chain. Each node is named after its event
// input. Dependencies are attached to the first node only.
func (b barrier) waitNodes(syncInputs, depends []string) []*node.Node {
	events := b.waitEvents()
	nodes := make([]*node.Node, len(events))
	for i, event := range events {
		n := syncNode(pipeline.OpWaitEvent, event)
		for _, v := range syncInputs {
			in, out := pipeline.SyncName(v), v
			if i > 0 {
				in = pipeline.RecvName(v)
			}
			if i < len(events)-1 {
				out = pipeline.RecvName(v)
			}
			n.Inputs = append(n.Inputs, in)
			n.Outputs = append(n.Outputs, out)
		}
		nodes[i] = n
	}
	if len(nodes) > 0 {
		nodes[0].Inputs = append(nodes[0].Inputs, depends...)
	}
	return nodes
}

// recordNodes builds the RecordEvent chain, mirroring waitNodes.
func (b barrier) recordNodes(syncOutputs, depends []string) []*node.Node {
	events := b.recordEvents()
	nodes := make([]*node.Node, len(events))
	for i, event := range events {
		n := syncNode(pipeline.OpRecordEvent, event)
		for _, v := range syncOutputs {
			in, out := v, pipeline.SyncName(v)
			if i > 0 {
				in = pipeline.SendName(v)
			}
			if i < len(events)-1 {
				out = pipeline.SendName(v)
			}
			n.Inputs = append(n.Inputs, in)
			n.Outputs = append(n.Outputs, out)
		}
		nodes[i] = n
	}
	if len(nodes) > 0 {
		nodes[0].Inputs = append(nodes[0].Inputs, depends...)
	}
	return nodes
}

func syncNode(op, event string) *node.Node {
	return &node.Node{
		Name:   event,
		OpType: op,
		Domain: pipeline.SyncDomain,
		Inputs: []string{event},
	}
}
