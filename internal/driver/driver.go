package driver

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vk/pipegrid/internal/ctxlog"
	"github.com/vk/pipegrid/internal/inmemorystore"
	"github.com/vk/pipegrid/internal/pipeline"
	"github.com/vk/pipegrid/internal/session"
	"github.com/vk/pipegrid/internal/valuestore"
)

// ErrNoStages is returned by New when no session is given.
var ErrNoStages = errors.New("driver: no stages")

// Stage is one partition of the graph.
type Stage struct {
	Session session.Session
	// Fetches are read back after the stage's sub-graph completes.
	Fetches []string
}

// Config describes one run.
type Config struct {
	Stages []Stage
	Plan   []pipeline.BatchInfo
	Data   pipeline.DataEvents
	// Inputs are the names of the original graph inputs. Each batch seeds
	// them, and their sync names, with InputValue.
	Inputs []string
	// InputValue produces the value of a graph input for a batch. It defaults
	// to the token "<name>@<batch>".
	InputValue func(name string, batch int) any
	// NewStore creates batch contexts. It defaults to inmemorystore.New.
	NewStore func() valuestore.Store
}

// Result is the outcome of a run.
type Result struct {
	// Outputs holds, per batch, the fetched values of all stages.
	Outputs []map[string]any
	// Contexts is the number of batch contexts that were created.
	Contexts int
	// Reused counts batches that started on a recycled context.
	Reused int
}

// Driver runs a plan. It is not safe for concurrent use; Run may be called
// again once it returns.
type Driver struct {
	cfg Config
}

// New validates cfg and returns a driver.
func New(cfg Config) (*Driver, error) {
	if len(cfg.Stages) == 0 {
		return nil, ErrNoStages
	}
	if cfg.Data.Stages != len(cfg.Stages) {
		return nil, fmt.Errorf("driver: data events laid out for %d stages, have %d", cfg.Data.Stages, len(cfg.Stages))
	}
	for i, s := range cfg.Stages {
		if s.Session == nil {
			return nil, fmt.Errorf("driver: stage %d has no session", i)
		}
	}
	if cfg.InputValue == nil {
		cfg.InputValue = func(name string, batch int) any {
			return fmt.Sprintf("%s@%d", name, batch)
		}
	}
	if cfg.NewStore == nil {
		cfg.NewStore = inmemorystore.New
	}
	return &Driver{cfg: cfg}, nil
}

type batchContext struct {
	id    int
	store valuestore.Store
}

// Run executes every batch of the plan and blocks until all workers have
// returned. The first worker error cancels the others; it is returned
// wrapped with its stage and batch.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	numBatches := len(d.cfg.Plan)
	res := &Result{Outputs: make([]map[string]any, numBatches)}
	var mu sync.Mutex

	workers := make([]*errgroup.Group, numBatches)
	owned := make(map[int]*batchContext)
	var free []*batchContext

	// joinAll waits for every batch still holding a context.
	joinAll := func() error {
		var first error
		for b := range workers {
			if _, live := owned[b]; !live {
				continue
			}
			if err := workers[b].Wait(); err != nil && first == nil {
				first = err
			}
			delete(owned, b)
		}
		return first
	}

	for b, info := range d.cfg.Plan {
		for _, r := range info.RetiredBatches {
			bc, ok := owned[r]
			if !ok {
				cancel(nil)
				_ = joinAll()
				return nil, fmt.Errorf("driver: batch %d retires batch %d, which holds no context", b, r)
			}
			if err := workers[r].Wait(); err != nil {
				_ = joinAll()
				return nil, err
			}
			delete(owned, r)
			bc.store.Reset(ctx)
			free = append(free, bc)
			logger.Debug("Batch retired.", "batch", r, "context", bc.id)
		}

		var bc *batchContext
		if n := len(free); n > 0 {
			bc, free = free[n-1], free[:n-1]
			res.Reused++
		} else {
			bc = &batchContext{id: res.Contexts, store: d.cfg.NewStore()}
			res.Contexts++
		}
		owned[b] = bc

		if err := d.seed(ctx, bc.store, info, b); err != nil {
			cancel(err)
			_ = joinAll()
			return nil, err
		}
		logger.Debug("Batch started.", "batch", b, "context", bc.id)

		out := make(map[string]any)
		res.Outputs[b] = out
		g := &errgroup.Group{}
		for s, st := range d.cfg.Stages {
			g.Go(func() error {
				vals, err := st.Session.Run(ctx, bc.store, st.Fetches)
				if err != nil {
					err = fmt.Errorf("stage %d batch %d: %w", s, b, err)
					cancel(err)
					return err
				}
				mu.Lock()
				for k, v := range vals {
					out[k] = v
				}
				mu.Unlock()
				return nil
			})
		}
		workers[b] = g
	}

	if err := joinAll(); err != nil {
		return nil, err
	}
	logger.Info("Pipeline run finished.", "batches", numBatches, "contexts", res.Contexts, "reused", res.Reused)
	return res, nil
}

// seed writes a batch's graph inputs and the event ids of every stage into its
// store. Event input names carry the stage index, so stages never collide.
func (d *Driver) seed(ctx context.Context, store valuestore.Store, info pipeline.BatchInfo, batch int) error {
	for _, name := range d.cfg.Inputs {
		v := d.cfg.InputValue(name, batch)
		if err := store.Put(ctx, name, v); err != nil {
			return err
		}
		if err := store.Put(ctx, pipeline.SyncName(name), v); err != nil {
			return err
		}
	}
	for s := range d.cfg.Stages {
		feeds, err := d.cfg.Data.Feeds(info, batch, s)
		if err != nil {
			return fmt.Errorf("driver: %w", err)
		}
		for name, id := range feeds {
			if err := store.Put(ctx, name, id); err != nil {
				return err
			}
		}
	}
	return nil
}
