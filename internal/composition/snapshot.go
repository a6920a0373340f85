package composition

import (
	"encoding/json"
	"fmt"
	"time"
)

// snapshotVersion guards against restoring drafts written by an incompatible
// schema. Bump when Composition's serialized shape changes.
const snapshotVersion = 1

// Snapshot is the serialized draft form written to local persistence.
type Snapshot struct {
	Version     int          `json:"version"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Composition *Composition `json:"composition"`
}

// EncodeSnapshot serializes the composition with the current timestamp.
func EncodeSnapshot(c *Composition, now time.Time) ([]byte, error) {
	snap := Snapshot{
		Version:     snapshotVersion,
		UpdatedAt:   now.UTC(),
		Composition: c,
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode draft snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot deserializes a stored draft. Snapshots written by other
// schema versions are rejected so a stale draft never half-populates the
// editor.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode draft snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("draft snapshot version %d is not supported", snap.Version)
	}
	if snap.Composition == nil {
		return nil, fmt.Errorf("draft snapshot has no composition")
	}
	return &snap, nil
}

// Age returns how long ago the snapshot was written.
func (s *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.UpdatedAt)
}
