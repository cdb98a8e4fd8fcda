package grpcbinder

import (
	"fmt"

	"github.com/reglet-dev/permprobe/wireformat"
)

// envelope is one Transact request: the target service, the transaction
// code and flags, and the encoded call payload.
type envelope struct {
	service string
	data    []byte
	code    uint32
	flags   uint32
}

func (e envelope) encode() []byte {
	w := wireformat.NewWriter()
	w.WriteString16(e.service)
	w.WriteUint32(e.code)
	w.WriteUint32(e.flags)
	w.WriteBlob(e.data)
	return w.Bytes()
}

func decodeEnvelope(b []byte) (envelope, error) {
	r := wireformat.NewReader(b)
	var (
		e   envelope
		ok  bool
		err error
	)
	if e.service, ok, err = r.ReadString16(); err != nil {
		return e, err
	} else if !ok {
		return e, fmt.Errorf("null service name")
	}
	if e.code, err = r.ReadUint32(); err != nil {
		return e, err
	}
	if e.flags, err = r.ReadUint32(); err != nil {
		return e, err
	}
	if e.data, err = r.ReadBlob(); err != nil {
		return e, err
	}
	if r.Remaining() != 0 {
		return e, fmt.Errorf("%d trailing bytes", r.Remaining())
	}
	return e, nil
}

type platformInfo struct {
	sdk int
	uid int
}

func (p platformInfo) SDKVersion() int { return p.sdk }
func (p platformInfo) CallerUID() int  { return p.uid }

func (p platformInfo) encode() []byte {
	w := wireformat.NewWriter()
	w.WriteInt32(int32(p.sdk))
	w.WriteInt32(int32(p.uid))
	return w.Bytes()
}

func decodePlatform(b []byte) (platformInfo, error) {
	r := wireformat.NewReader(b)
	sdk, err := r.ReadInt32()
	if err != nil {
		return platformInfo{}, err
	}
	uid, err := r.ReadInt32()
	if err != nil {
		return platformInfo{}, err
	}
	return platformInfo{sdk: int(sdk), uid: int(uid)}, nil
}
