// Package scheduler builds the one-forward-one-backward pipeline schedule and
// turns it into per-batch event plans.
package scheduler
