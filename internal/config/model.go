package config

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// Model is the unified, format-agnostic representation of a pipeline
// configuration.
type Model struct {
	Pipeline Pipeline
	Stages   []*Stage
}

// Pipeline holds the settings shared by every stage. Zero values mean "not
// configured"; callers apply their own defaults.
type Pipeline struct {
	Batches       int
	EventPoolSize int64
	DataEventBase int64
}

// Stage is one partition of the graph.
type Stage struct {
	Name  string
	Index int
	// StartEventID is the first pipeline event id of the stage. Nil selects
	// the default layout.
	StartEventID *int64
	Forward      Segment
	Backward     Segment
}

// Segment lists what one direction of a stage owns and exchanges.
type Segment struct {
	Nodes         []string
	SyncInputs    []string
	SyncOutputs   []string
	WaitDepends   []string
	RecordDepends []string
}

// StartEventIDs returns the configured start ids of all stages. It reports
// false unless every stage sets one.
func (m *Model) StartEventIDs() ([]int64, bool) {
	ids := make([]int64, len(m.Stages))
	for i, s := range m.Stages {
		if s.StartEventID == nil {
			return nil, false
		}
		ids[i] = *s.StartEventID
	}
	return ids, true
}

// Validate checks the model for problems a loader cannot see in a single
// file.
func (m *Model) Validate() error {
	var err error
	if len(m.Stages) == 0 {
		err = multierr.Append(err, errors.New("no stage defined"))
	}
	if m.Pipeline.Batches < 0 {
		err = multierr.Append(err, fmt.Errorf("negative batch count %d", m.Pipeline.Batches))
	}
	if m.Pipeline.EventPoolSize < 0 {
		err = multierr.Append(err, fmt.Errorf("negative event pool size %d", m.Pipeline.EventPoolSize))
	}
	if m.Pipeline.DataEventBase < 0 {
		err = multierr.Append(err, fmt.Errorf("negative data event base %d", m.Pipeline.DataEventBase))
	}

	names := make(map[string]int, len(m.Stages))
	set := 0
	for i, s := range m.Stages {
		if prev, dup := names[s.Name]; dup {
			err = multierr.Append(err, fmt.Errorf("stage %q declared twice (positions %d and %d)", s.Name, prev, i))
		}
		names[s.Name] = i
		if s.Index != i {
			err = multierr.Append(err, fmt.Errorf("stage %q has index %d at position %d", s.Name, s.Index, i))
		}
		if len(s.Forward.Nodes)+len(s.Backward.Nodes) == 0 {
			err = multierr.Append(err, fmt.Errorf("stage %q owns no nodes", s.Name))
		}
		if s.StartEventID != nil {
			set++
		}
	}
	if set != 0 && set != len(m.Stages) {
		err = multierr.Append(err, fmt.Errorf("start_event_id set on %d of %d stages, set it on all or none", set, len(m.Stages)))
	}
	return err
}
