// Package grpcbinder reaches services on a remote device through an agent
// speaking gRPC.
//
// The agent exposes four unary methods over protobuf wrapper types so no
// code generation is needed. Describe and Transact carry the same identity
// and parcel payloads a local transport would, so the prober's encoding and
// reply decoding are unchanged whether the device is local or remote.
package grpcbinder
