// Package app contains the core application logic. It wires task files,
// task modules, the registry and the runner together, decoupled from any
// specific entrypoint like a CLI.
package app
