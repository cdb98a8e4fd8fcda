// Package ports defines interfaces for the platform collaborators the prober
// depends on. Domain logic depends on these abstractions; transports and
// file-backed stores in infrastructure implement them.
package ports
