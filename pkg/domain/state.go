package domain

import "time"

// SnapshotVersion is the version marker written by this release. A snapshot
// carrying any other marker is discarded on restore.
const SnapshotVersion = "1.1.0"

// Snapshot is the persisted form of the selection state.
type Snapshot struct {
	Version        string                       `json:"version"`
	StepSelections map[string][]string          `json:"stepSelections"`
	FieldValues    map[string]map[string]string `json:"fieldValues"`
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Version:        s.Version,
		StepSelections: make(map[string][]string, len(s.StepSelections)),
		FieldValues:    make(map[string]map[string]string, len(s.FieldValues)),
	}
	for step, ids := range s.StepSelections {
		out.StepSelections[step] = append([]string(nil), ids...)
	}
	for step, fields := range s.FieldValues {
		copied := make(map[string]string, len(fields))
		for k, v := range fields {
			copied[k] = v
		}
		out.FieldValues[step] = copied
	}
	return out
}

// Session is everything needed to resume a wizard: the selection snapshot
// plus orchestration data (channel, active step, form error visibility and
// the confirmation of a completed submission).
type Session struct {
	ID           string        `json:"id"`
	Snapshot     Snapshot      `json:"snapshot"`
	Channel      string        `json:"channel,omitempty"`
	ActiveStepID string        `json:"activeStepId,omitempty"`
	Touched      []string      `json:"touched,omitempty"`
	ShowErrors   bool          `json:"showErrors,omitempty"`
	Submitted    *Confirmation `json:"submitted,omitempty"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// NewSession creates an empty session record.
func NewSession(id string) *Session {
	return &Session{
		ID: id,
		Snapshot: Snapshot{
			Version:        SnapshotVersion,
			StepSelections: make(map[string][]string),
			FieldValues:    make(map[string]map[string]string),
		},
	}
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Snapshot = s.Snapshot.Clone()
	if s.Touched != nil {
		out.Touched = append([]string(nil), s.Touched...)
	}
	if s.Submitted != nil {
		c := *s.Submitted
		out.Submitted = &c
	}
	return &out
}
