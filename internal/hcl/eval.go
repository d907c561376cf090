package hcl

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/pipegrid/internal/config"
	"github.com/vk/pipegrid/internal/ctxlog"
	"github.com/vk/pipegrid/internal/hclutil"
)

// stageEvalContext exposes the position of a stage and the pipeline settings
// to its expressions.
func stageEvalContext(name string, index, total int, p config.Pipeline) *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"stage": cty.ObjectVal(map[string]cty.Value{
				"index": cty.NumberIntVal(int64(index)),
				"name":  cty.StringVal(name),
			}),
			"pipeline": cty.ObjectVal(map[string]cty.Value{
				"stages":  cty.NumberIntVal(int64(total)),
				"batches": cty.NumberIntVal(int64(p.Batches)),
			}),
		},
		Functions: map[string]function.Function{
			"min": stdlib.MinFunc,
			"max": stdlib.MaxFunc,
		},
	}
}

// evalStartEventID evaluates a start_event_id expression. A missing or null
// attribute yields nil.
func evalStartEventID(ctx context.Context, expr hcl.Expression, evalCtx *hcl.EvalContext) (*int64, error) {
	if expr == nil {
		return nil, nil
	}

	known := make(map[string]bool, len(evalCtx.Variables))
	for k := range evalCtx.Variables {
		known[k] = true
	}
	if unknown := hclutil.UnknownReferences(expr, known); len(unknown) > 0 {
		return nil, fmt.Errorf("start_event_id references %s; only stage and pipeline are available", strings.Join(unknown, ", "))
	}

	var unsupported []string
	for _, f := range hclutil.CalledFunctions(expr) {
		if _, ok := evalCtx.Functions[f]; !ok {
			unsupported = append(unsupported, f)
		}
	}
	if len(unsupported) > 0 {
		return nil, fmt.Errorf("start_event_id calls %s; only min and max are available", strings.Join(unsupported, ", "))
	}

	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return nil, fmt.Errorf("evaluating start_event_id: %w", diags)
	}
	if val.IsNull() {
		return nil, nil
	}

	var id int64
	if err := gocty.FromCtyValue(val, &id); err != nil {
		return nil, fmt.Errorf("start_event_id must be a whole number: %w", err)
	}
	if id < 0 {
		return nil, fmt.Errorf("start_event_id must not be negative, got %d", id)
	}
	ctxlog.FromContext(ctx).Debug("Start event id evaluated.", "value", id)
	return &id, nil
}
