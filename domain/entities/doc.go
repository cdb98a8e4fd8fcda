// Package entities provides the core domain types of the enforcement prober:
// capability version ranges, call descriptors with their typed arguments,
// invocation results and the verdicts produced for each probe.
package entities
