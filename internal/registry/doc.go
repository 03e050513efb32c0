// Package registry holds the named task definitions of one process.
//
// The registry is populated during an explicit initialization phase: Go
// modules call Register for the tasks they provide, and tasks declared in
// task files are registered after them. Once initialization is over the
// registry is frozen and only read.
package registry
