// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. Every
// registered task becomes a subcommand and every task option a flag of that
// subcommand.
package cli
