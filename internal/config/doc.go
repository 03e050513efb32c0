// Package config defines the format-agnostic model of task files together
// with the Loader interface that produces it.
//
// The model is what the app wires into the registry. Concrete file formats
// live in their own packages (see hcl_adapter) and are the only code that
// knows about syntax.
package config
