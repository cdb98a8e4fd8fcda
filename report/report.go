// Package report renders a probe session as a self-verifying JSON document.
//
// The digest is a CIDv1 (raw codec, sha2-256) over the canonical JSON of the
// entries with timings removed, so two sessions with the same outcomes share
// a digest.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"github.com/reglet-dev/permprobe/domain/entities"
	"github.com/reglet-dev/permprobe/domain/errors"
	"github.com/reglet-dev/permprobe/probe"
)

// Entry is the outcome of one probe.
type Entry struct {
	Capability string                `json:"capability"`
	Label      string                `json:"label,omitempty"`
	Verdict    entities.Verdict      `json:"verdict"`
	Reason     string                `json:"reason,omitempty"`
	Cause      entities.FailureKind  `json:"cause,omitempty"`
	Detail     string                `json:"detail,omitempty"`
	Error      *entities.ErrorDetail `json:"error,omitempty"`
	Granted    bool                  `json:"granted"`
	Finding    bool                  `json:"finding,omitempty"`
	Defect     bool                  `json:"defect,omitempty"`
	DurationMS int64                 `json:"duration_ms"`
}

// Report is one session.
type Report struct {
	Started    time.Time     `json:"started"`
	Digest     string        `json:"digest"`
	Entries    []Entry       `json:"entries"`
	Summary    probe.Summary `json:"summary"`
	Session    uuid.UUID     `json:"session"`
	SDKVersion int           `json:"sdk_version"`
	// TableSDK is the version of the transaction table used, when it differs
	// from SDKVersion.
	TableSDK int `json:"table_sdk,omitempty"`
}

// NewEntry converts a runner result.
func NewEntry(r probe.Result) Entry {
	o := r.Outcome
	return Entry{
		Capability: r.Spec.Capability,
		Label:      r.Spec.Label,
		Verdict:    o.Verdict,
		Reason:     o.Reason,
		Cause:      o.Cause,
		Detail:     o.Detail,
		Error:      errors.ToErrorDetail(r.Err),
		Granted:    o.Granted,
		Finding:    o.Finding(),
		Defect:     o.Defect,
		DurationMS: r.Duration.Milliseconds(),
	}
}

// Build assembles a report from results in catalog order.
func Build(session uuid.UUID, version int, started time.Time, results []probe.Result) (*Report, error) {
	entries := make([]Entry, 0, len(results))
	for _, r := range results {
		entries = append(entries, NewEntry(r))
	}

	digest, err := Digest(entries)
	if err != nil {
		return nil, err
	}
	return &Report{
		Session:    session,
		SDKVersion: version,
		Started:    started.UTC(),
		Summary:    probe.Summarize(results),
		Entries:    entries,
		Digest:     digest.String(),
	}, nil
}

// Digest computes the content identifier of entries.
func Digest(entries []Entry) (cid.Cid, error) {
	stripped := make([]Entry, len(entries))
	for i, e := range entries {
		e.DurationMS = 0
		stripped[i] = e
	}
	data, err := json.Marshal(stripped)
	if err != nil {
		return cid.Undef, fmt.Errorf("failed to encode entries: %w", err)
	}
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// Verify recomputes the digest and compares it with the recorded one.
func (r *Report) Verify() error {
	recorded, err := cid.Decode(r.Digest)
	if err != nil {
		return fmt.Errorf("invalid digest %q: %w", r.Digest, err)
	}
	actual, err := Digest(r.Entries)
	if err != nil {
		return err
	}
	if !recorded.Equals(actual) {
		return fmt.Errorf("digest mismatch: recorded %s, computed %s", recorded, actual)
	}
	return nil
}

// Write encodes r as indented JSON.
func Write(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteFile writes r to path, creating parent directories.
func WriteFile(path string, r *Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := Write(f, r); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	return f.Close()
}

// Read decodes a report.
func Read(rd io.Reader) (*Report, error) {
	var r Report
	if err := json.NewDecoder(rd).Decode(&r); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &r, nil
}
