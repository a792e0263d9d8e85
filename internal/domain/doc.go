// Package domain contains the core domain values and errors for cfghist.
//
// This package has no dependencies on infrastructure concerns (file system,
// logging, metrics) and is shared by the public packages under pkg/.
//
// # Values
//
//   - [Slot]: a fixed-purpose history snapshot (boot, last, initial)
//   - [PersistError]: a failed step of a configuration persist operation
//
// # Errors
//
// All errors returned by the public API can be checked with errors.Is
// against the sentinels in errors.go.
package domain
