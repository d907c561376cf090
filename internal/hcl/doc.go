// Package hcl provides the HCL implementation of config.Loader. It is
// responsible for file discovery, parsing, block decoding with gohcl, and
// evaluating stage expressions with go-cty.
//
// A configuration is a set of .hcl files holding at most one pipeline block
// and any number of stage blocks:
//
//	pipeline {
//	  batches         = 6
//	  event_pool_size = 4096
//	  data_event_base = 0
//	}
//
//	stage "embed" {
//	  start_event_id = 100 * (stage.index + 1)
//	  forward {
//	    nodes        = ["T1", "T2", "T3"]
//	    sync_inputs  = ["X"]
//	    sync_outputs = ["T3"]
//	  }
//	}
//
// Stages are numbered in declaration order across the lexically sorted file
// list. start_event_id may reference stage.index, stage.name,
// pipeline.stages and pipeline.batches, and call min and max.
package hcl
