package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/pipegrid/internal/config"
	"github.com/vk/pipegrid/internal/ctxlog"
	"github.com/vk/pipegrid/internal/fsutil"
	"github.com/vk/pipegrid/internal/hclutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// pendingStage is a decoded stage whose expressions are not evaluated yet.
type pendingStage struct {
	name  string
	block *hcl.Block
	body  stageBlock
}

// Load parses every .hcl file under paths and builds the model.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.FindFilesByExtension(".hcl", paths...)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	var blocks hcl.Blocks
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		content, diags := hclFile.Body.Content(rootSchema)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}
		blocks = append(blocks, content.Blocks...)
	}

	model := &config.Model{}
	pb, diags := hclutil.FindUniqueBlock(blocks, "pipeline")
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid pipeline configuration: %w", diags)
	}
	if pb != nil {
		var p pipelineBlock
		if diags := gohcl.DecodeBody(pb.Body, nil, &p); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode pipeline block: %w", diags)
		}
		model.Pipeline = translatePipeline(&p)
	}

	var stages []pendingStage
	for _, b := range blocks.OfType("stage") {
		ps := pendingStage{name: b.Labels[0], block: b}
		if diags := gohcl.DecodeBody(b.Body, nil, &ps.body); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode stage %q: %w", ps.name, diags)
		}
		stages = append(stages, ps)
	}

	for i, ps := range stages {
		st, err := l.translateStage(ctx, ps, i, len(stages), model.Pipeline)
		if err != nil {
			return nil, err
		}
		model.Stages = append(model.Stages, st)
	}

	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline configuration: %w", err)
	}
	logger.Debug("HCL loading complete.", "stages", len(model.Stages), "batches", model.Pipeline.Batches)
	return model, nil
}

func translatePipeline(p *pipelineBlock) config.Pipeline {
	var out config.Pipeline
	if p.Batches != nil {
		out.Batches = *p.Batches
	}
	if p.EventPoolSize != nil {
		out.EventPoolSize = *p.EventPoolSize
	}
	if p.DataEventBase != nil {
		out.DataEventBase = *p.DataEventBase
	}
	return out
}

// translateStage converts a decoded stage into the agnostic model.
func (l *Loader) translateStage(ctx context.Context, ps pendingStage, index, total int, p config.Pipeline) (*config.Stage, error) {
	st := &config.Stage{
		Name:     ps.name,
		Index:    index,
		Forward:  translateSegment(ps.body.Forward),
		Backward: translateSegment(ps.body.Backward),
	}

	id, err := evalStartEventID(ctx, ps.body.StartEventID, stageEvalContext(ps.name, index, total, p))
	if err != nil {
		return nil, fmt.Errorf("stage %q at %s: %w", ps.name, ps.block.DefRange, err)
	}
	st.StartEventID = id
	return st, nil
}

func translateSegment(s *segmentBlock) config.Segment {
	if s == nil {
		return config.Segment{}
	}
	return config.Segment{
		Nodes:         s.Nodes,
		SyncInputs:    s.SyncInputs,
		SyncOutputs:   s.SyncOutputs,
		WaitDepends:   s.WaitDepends,
		RecordDepends: s.RecordDepends,
	}
}
