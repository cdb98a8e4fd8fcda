package wireformat

import "fmt"

const (
	// StrictModePenaltyGather is the strict-mode policy bit every caller sets.
	StrictModePenaltyGather uint32 = 1 << 31

	// SystemHeader is the 'SYST' marker identifying a system partition caller.
	SystemHeader uint32 = 0x53595354

	// UnsetWorkSource is the work-source uid written when none is propagated.
	UnsetWorkSource int32 = -1
)

// TokenFormat describes the interface-token prologue layout, which grew
// fields across platform versions.
type TokenFormat struct {
	StrictModePolicy uint32
	WorkSource       bool
	Header           bool
}

// TokenFormatFor returns the prologue layout used by platform version sdk.
func TokenFormatFor(sdk int) TokenFormat {
	return TokenFormat{
		StrictModePolicy: StrictModePenaltyGather,
		WorkSource:       sdk >= 29,
		Header:           sdk >= 30,
	}
}

// WriteInterfaceToken writes the prologue followed by the interface descriptor.
func (w *Writer) WriteInterfaceToken(descriptor string, f TokenFormat) {
	w.WriteUint32(f.StrictModePolicy)
	if f.WorkSource {
		w.WriteInt32(UnsetWorkSource)
	}
	if f.Header {
		w.WriteUint32(SystemHeader)
	}
	w.WriteString16(descriptor)
}

// ReadInterfaceToken consumes a prologue written in format f and returns the
// interface descriptor.
func (r *Reader) ReadInterfaceToken(f TokenFormat) (string, error) {
	if _, err := r.ReadUint32(); err != nil {
		return "", fmt.Errorf("strict mode policy: %w", err)
	}
	if f.WorkSource {
		if _, err := r.ReadInt32(); err != nil {
			return "", fmt.Errorf("work source: %w", err)
		}
	}
	if f.Header {
		h, err := r.ReadUint32()
		if err != nil {
			return "", fmt.Errorf("header: %w", err)
		}
		if h != SystemHeader {
			return "", fmt.Errorf("unexpected header 0x%08x", h)
		}
	}
	desc, ok, err := r.ReadString16()
	if err != nil {
		return "", fmt.Errorf("descriptor: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("descriptor is null")
	}
	return desc, nil
}
