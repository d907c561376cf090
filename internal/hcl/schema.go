package hcl

import (
	"github.com/hashicorp/hcl/v2"
)

// rootSchema lists the top-level blocks of a configuration file.
var rootSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "pipeline"},
		{Type: "stage", LabelNames: []string{"name"}},
	},
}

// pipelineBlock is the gohcl schema of the `pipeline` block.
type pipelineBlock struct {
	Batches       *int   `hcl:"batches,optional"`
	EventPoolSize *int64 `hcl:"event_pool_size,optional"`
	DataEventBase *int64 `hcl:"data_event_base,optional"`
}

// stageBlock is the gohcl schema of the body of a `stage` block.
// StartEventID is kept as an expression; it can only be evaluated once every
// stage is known.
type stageBlock struct {
	StartEventID hcl.Expression `hcl:"start_event_id,optional"`
	Forward      *segmentBlock  `hcl:"forward,block"`
	Backward     *segmentBlock  `hcl:"backward,block"`
}

type segmentBlock struct {
	Nodes         []string `hcl:"nodes"`
	SyncInputs    []string `hcl:"sync_inputs,optional"`
	SyncOutputs   []string `hcl:"sync_outputs,optional"`
	WaitDepends   []string `hcl:"wait_depends,optional"`
	RecordDepends []string `hcl:"record_depends,optional"`
}
