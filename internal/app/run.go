package app

import (
	"context"
	"fmt"

	"github.com/vk/pipegrid/internal/config"
	"github.com/vk/pipegrid/internal/ctxlog"
	"github.com/vk/pipegrid/internal/driver"
	"github.com/vk/pipegrid/internal/eventpool"
	"github.com/vk/pipegrid/internal/graph"
	"github.com/vk/pipegrid/internal/localsession"
	"github.com/vk/pipegrid/internal/partition"
	"github.com/vk/pipegrid/internal/pipeline"
	"github.com/vk/pipegrid/internal/scheduler"
)

// Run loads the graph and the pipeline specification, splits the graph,
// plans the 1F1B schedule and writes every artifact to the output directory.
// With Simulate set, the plan is then executed symbolically.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	g, err := a.loadGraph(ctx)
	if err != nil {
		return err
	}
	model, s, err := a.loadSpec(ctx)
	if err != nil {
		return err
	}

	subs, err := partition.Split(ctx, g, cutsFromModel(model))
	if err != nil {
		return fmt.Errorf("failed to split graph: %w", err)
	}
	if err := a.writeSubGraphs(ctx, subs); err != nil {
		return err
	}

	data := pipeline.DataEvents{Base: s.dataEventBase, Stages: len(subs)}
	starts, ok := model.StartEventIDs()
	if !ok {
		starts = scheduler.DefaultStartEventIDs(s.batches, data)
		a.logger.Debug("Using default start event ids.", "starts", starts)
	}
	if err := scheduler.ValidateRanges(starts, s.batches, data); err != nil {
		return err
	}
	if end := data.End(s.batches); end > s.eventPoolSize {
		return fmt.Errorf("%w: data events need ids up to %d, capacity is %d",
			scheduler.ErrEventPoolExhausted, end-1, s.eventPoolSize)
	}

	pool := eventpool.New(s.eventPoolSize)
	planner := scheduler.New(pool)
	plan, ends, err := planner.Plan(s.batches, starts)
	if err != nil {
		return fmt.Errorf("failed to plan schedule: %w", err)
	}
	a.logger.Info("Schedule planned.", "stages", len(subs), "batches", s.batches,
		"slots", planner.Timeline().NumSlots())

	doc := planDocument(g, model, s, data, starts, ends, planner.Timeline().NumSlots(), plan)
	if err := a.writePlan(ctx, doc); err != nil {
		return err
	}

	if a.config.Timeline {
		if err := planner.Timeline().Render(a.outW, !a.config.NoColor); err != nil {
			return fmt.Errorf("rendering timeline: %w", err)
		}
	}

	if a.config.Simulate {
		if err := a.simulate(ctx, g, subs, plan, data, pool); err != nil {
			return fmt.Errorf("simulation failed: %w", err)
		}
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

func planDocument(
	g *graph.Graph,
	model *config.Model,
	s settings,
	data pipeline.DataEvents,
	starts, ends []int64,
	slots int,
	plan []pipeline.BatchInfo,
) *PlanDocument {
	doc := &PlanDocument{
		Graph:         g.Name,
		NumBatches:    s.batches,
		EventPoolSize: s.eventPoolSize,
		DataEvents: DataEventsDocument{
			Base:     data.Base,
			PerBatch: data.PerBatch(),
			End:      data.End(s.batches),
		},
		TimelineSlots: slots,
		Plan:          plan,
	}
	for i, st := range model.Stages {
		doc.Stages = append(doc.Stages, StageDocument{
			Name:         st.Name,
			File:         StageFileName(i),
			StartEventID: starts[i],
			EndEventID:   ends[i],
		})
	}
	return doc
}

// simulate runs the plan with symbolic sessions and reports the contexts it
// needed.
func (a *App) simulate(
	ctx context.Context,
	g *graph.Graph,
	subs []*graph.Graph,
	plan []pipeline.BatchInfo,
	data pipeline.DataEvents,
	pool *eventpool.Pool,
) error {
	ctx, cancel := context.WithTimeoutCause(ctx, a.config.SimulateTimeout,
		fmt.Errorf("simulation exceeded %s, a wait is probably never released", a.config.SimulateTimeout))
	defer cancel()

	f := &localsession.SessionFactory{Events: pool}
	stages := make([]driver.Stage, len(subs))
	for i, sub := range subs {
		sess, err := f.NewSession(ctx, sub)
		if err != nil {
			return err
		}
		stages[i] = driver.Stage{Session: sess, Fetches: sub.Outputs.Names()}
	}

	d, err := driver.New(driver.Config{
		Stages: stages,
		Plan:   plan,
		Data:   data,
		Inputs: g.Inputs.Names(),
	})
	if err != nil {
		return err
	}
	res, err := d.Run(ctx)
	if err != nil {
		return err
	}

	for b, out := range res.Outputs {
		for _, name := range g.Outputs.Names() {
			if _, ok := out[name]; !ok {
				return fmt.Errorf("batch %d did not produce graph output %q", b, name)
			}
		}
	}
	a.logger.Info("Simulation finished.", "batches", len(res.Outputs),
		"contexts", res.Contexts, "reused", res.Reused)
	return nil
}
