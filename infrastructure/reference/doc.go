// Package reference provides an in-memory device: a service registry whose
// services decode raw call payloads exactly as a platform stub would and
// enforce a capability per method. It backs tests and the agent command.
package reference
