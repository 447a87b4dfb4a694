// Package model defines the domain types and value objects for the
// mfbundle CLI.
//
// This package contains pure data structures with no external dependencies.
// Sub-application specs, copy results, and build outcomes are transient:
// every run rebuilds the output directory from scratch, so nothing here is
// ever persisted.
//
// The package also defines exit codes (ExitCode), the error taxonomy of the
// aggregation pass, and a custom error type (CLIError) that carries exit
// codes for proper OS process exit handling.
package model
