package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/vk/pipegrid/internal/ctxlog"
	"github.com/vk/pipegrid/internal/graph"
	"github.com/vk/pipegrid/internal/graphfile"
	"github.com/vk/pipegrid/internal/pipeline"
)

// PlanFileName is the name of the exported plan inside the output directory.
const PlanFileName = "plan.json"

// StageFileName returns the file name of a stage's sub-graph.
func StageFileName(stage int) string {
	return fmt.Sprintf("stage_%d.yaml", stage)
}

// PlanDocument is the JSON form of a pipeline plan.
type PlanDocument struct {
	Graph         string               `json:"graph"`
	Stages        []StageDocument      `json:"stages"`
	NumBatches    int                  `json:"num_batches"`
	EventPoolSize int64                `json:"event_pool_size"`
	DataEvents    DataEventsDocument   `json:"data_events"`
	TimelineSlots int                  `json:"timeline_slots"`
	Plan          []pipeline.BatchInfo `json:"batches"`
}

// StageDocument describes one stage of the plan.
type StageDocument struct {
	Name         string `json:"name"`
	File         string `json:"file"`
	StartEventID int64  `json:"start_event_id"`
	EndEventID   int64  `json:"end_event_id"`
}

// DataEventsDocument describes the data event range.
type DataEventsDocument struct {
	Base     int64 `json:"base"`
	PerBatch int64 `json:"per_batch"`
	End      int64 `json:"end"`
}

// writeSubGraphs saves every sub-graph to the output directory.
func (a *App) writeSubGraphs(ctx context.Context, subs []*graph.Graph) error {
	if err := os.MkdirAll(a.config.OutDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	for i, sub := range subs {
		path := filepath.Join(a.config.OutDir, StageFileName(i))
		if err := graphfile.Save(ctx, path, sub); err != nil {
			return err
		}
		ctxlog.FromContext(ctx).Debug("Sub-graph written.", "stage", i, "path", path)
	}
	return nil
}

// writePlan exports the plan as indented JSON.
func (a *App) writePlan(ctx context.Context, doc *PlanDocument) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding plan: %w", err)
	}
	path := filepath.Join(a.config.OutDir, PlanFileName)
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing plan: %w", err)
	}
	ctxlog.FromContext(ctx).Info("Plan written.", "path", path, "batches", len(doc.Plan))
	return nil
}

// ReadPlan loads a plan exported by Run.
func ReadPlan(path string) (*PlanDocument, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc PlanDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decoding plan %s: %w", path, err)
	}
	return &doc, nil
}
