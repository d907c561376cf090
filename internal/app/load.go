package app

import (
	"context"
	"fmt"

	"github.com/vk/pipegrid/internal/config"
	"github.com/vk/pipegrid/internal/ctxlog"
	"github.com/vk/pipegrid/internal/eventpool"
	"github.com/vk/pipegrid/internal/graph"
	"github.com/vk/pipegrid/internal/graphfile"
	"github.com/vk/pipegrid/internal/partition"
)

// settings are the pipeline parameters after CLI overrides and defaults.
type settings struct {
	batches       int
	eventPoolSize int64
	dataEventBase int64
}

// loadGraph reads and validates the graph to partition.
func (a *App) loadGraph(ctx context.Context) (*graph.Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading graph...", "path", a.config.GraphPath)

	g, err := graphfile.Load(ctx, a.config.GraphPath)
	if err != nil {
		return nil, err
	}
	if err := g.Validate(ctx); err != nil {
		return nil, fmt.Errorf("graph %q: %w", g.Name, err)
	}
	logger.Info("Graph loaded.", "name", g.Name, "nodes", g.NodeCount(ctx),
		"inputs", g.Inputs.Len(), "outputs", g.Outputs.Len())
	return g, nil
}

// loadSpec reads the pipeline specification and resolves the settings.
func (a *App) loadSpec(ctx context.Context) (*config.Model, settings, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading pipeline specification...", "paths", a.config.SpecPaths)

	model, err := a.loader.Load(ctx, a.config.SpecPaths...)
	if err != nil {
		return nil, settings{}, fmt.Errorf("failed to load pipeline specification: %w", err)
	}
	if err := model.Validate(); err != nil {
		return nil, settings{}, fmt.Errorf("invalid pipeline specification: %w", err)
	}

	s := settings{
		batches:       model.Pipeline.Batches,
		eventPoolSize: model.Pipeline.EventPoolSize,
		dataEventBase: model.Pipeline.DataEventBase,
	}
	if a.config.Batches > 0 {
		s.batches = a.config.Batches
	}
	if a.config.EventPoolSize > 0 {
		s.eventPoolSize = a.config.EventPoolSize
	}
	if s.eventPoolSize == 0 {
		s.eventPoolSize = eventpool.DefaultCapacity
	}
	if s.batches < 1 {
		return nil, settings{}, fmt.Errorf("batch count is not configured: set pipeline.batches or pass -batches")
	}

	logger.Info("Pipeline specification loaded.", "stages", len(model.Stages),
		"batches", s.batches, "event_pool_size", s.eventPoolSize)
	return model, s, nil
}

// cutsFromModel converts the configured stages into partition cuts.
func cutsFromModel(m *config.Model) []partition.CutInfo {
	cuts := make([]partition.CutInfo, len(m.Stages))
	for i, st := range m.Stages {
		cuts[i] = partition.CutInfo{
			Forward:  segmentFromModel(st.Forward),
			Backward: segmentFromModel(st.Backward),
		}
	}
	return cuts
}

func segmentFromModel(s config.Segment) partition.Segment {
	return partition.Segment{
		Nodes:         s.Nodes,
		SyncInputs:    s.SyncInputs,
		SyncOutputs:   s.SyncOutputs,
		WaitDepends:   s.WaitDepends,
		RecordDepends: s.RecordDepends,
	}
}
