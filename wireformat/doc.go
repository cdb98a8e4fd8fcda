// Package wireformat implements the binary call payload layout spoken by the
// platform's privileged services: a little-endian, 4-byte aligned parcel.
//
// There is no schema negotiation. The remote stub reads fields positionally,
// so the writer must produce exactly the sequence the stub expects and any
// mismatch between an argument's tag and its Go value is a caller defect,
// reported as a *errors.WireFormatError.
package wireformat
