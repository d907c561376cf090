package scheduler

import "errors"

var (
	// ErrEventPoolExhausted is returned when a stage would need an event id
	// at or beyond the pool capacity.
	ErrEventPoolExhausted = errors.New("event pool exhausted")

	// ErrNoTimeline is returned by CreatePlan before a timeline is generated.
	ErrNoTimeline = errors.New("timeline has not been generated")

	// ErrInvalidShape is returned for non-positive stage or batch counts, out
	// of range stages, and plans shorter than the batch count.
	ErrInvalidShape = errors.New("invalid pipeline shape")

	// ErrOverlappingRanges is returned when event id ranges of stages, or of
	// a stage and the data events, intersect.
	ErrOverlappingRanges = errors.New("event id ranges overlap")
)
