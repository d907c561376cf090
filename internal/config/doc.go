// Package config defines the format-agnostic model of a pipeline
// configuration: the pipeline settings and the cut of every stage. It also
// defines the Loader interface that turns configuration files into that
// model.
//
// The `config.Model` is the single source of truth for the `partition` and
// `scheduler` packages. Concrete loaders, such as the one for HCL, are
// provided in separate packages.
package config
