package domain

import (
	"reflect"
	"sort"
)

// SessionDiff represents the changes between two session records.
// It is designed to be serialized to JSON for partial updates on the client.
type SessionDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"sessionId"`

	ActiveStepID *string `json:"activeStepId,omitempty"`
	Channel      *string `json:"channel,omitempty"`

	// Selections contains only changed, added or deleted steps.
	// For deletions, the step is present with a nil value.
	Selections map[string][]string `json:"selections,omitempty"`

	// Fields contains only the form steps whose values changed.
	Fields map[string]map[string]string `json:"fields,omitempty"`
}

// Diff calculates the difference between oldSession and newSession.
// If oldSession is nil, it returns a diff representing the entire newSession (initial load).
func Diff(oldSession, newSession *Session) *SessionDiff {
	if newSession == nil {
		return nil
	}

	diff := &SessionDiff{SessionID: newSession.ID}

	if oldSession == nil || oldSession.ActiveStepID != newSession.ActiveStepID {
		diff.ActiveStepID = &newSession.ActiveStepID
	}
	if oldSession == nil || oldSession.Channel != newSession.Channel {
		diff.Channel = &newSession.Channel
	}

	diff.Selections = diffSelections(oldSession, newSession)
	diff.Fields = diffFields(oldSession, newSession)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffSelections(old, new *Session) map[string][]string {
	delta := make(map[string][]string)

	var prev map[string][]string
	if old != nil {
		prev = old.Snapshot.StepSelections
	}

	// An empty entry and a missing one are the same selection.
	for step, ids := range new.Snapshot.StepSelections {
		if len(ids) == 0 && len(prev[step]) == 0 {
			continue
		}
		if !reflect.DeepEqual(prev[step], ids) {
			delta[step] = append([]string(nil), ids...)
		}
	}
	for step, ids := range prev {
		if len(ids) > 0 && len(new.Snapshot.StepSelections[step]) == 0 {
			delta[step] = nil
		}
	}
	return nilIfEmpty(delta)
}

func diffFields(old, new *Session) map[string]map[string]string {
	delta := make(map[string]map[string]string)

	var prev map[string]map[string]string
	if old != nil {
		prev = old.Snapshot.FieldValues
	}

	for step, values := range new.Snapshot.FieldValues {
		if len(values) == 0 && len(prev[step]) == 0 {
			continue
		}
		if !reflect.DeepEqual(prev[step], values) {
			copied := make(map[string]string, len(values))
			for k, v := range values {
				copied[k] = v
			}
			delta[step] = copied
		}
	}
	for step, values := range prev {
		if len(values) > 0 && len(new.Snapshot.FieldValues[step]) == 0 {
			delta[step] = map[string]string{}
		}
	}
	if len(delta) == 0 {
		return nil
	}
	return delta
}

func nilIfEmpty(m map[string][]string) map[string][]string {
	if len(m) == 0 {
		return nil
	}
	return m
}

// ChangedSteps lists the step ids touched by the diff, sorted.
func (d *SessionDiff) ChangedSteps() []string {
	if d == nil {
		return nil
	}
	seen := make(map[string]struct{})
	for step := range d.Selections {
		seen[step] = struct{}{}
	}
	for step := range d.Fields {
		seen[step] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for step := range seen {
		out = append(out, step)
	}
	sort.Strings(out)
	return out
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SessionDiff) IsEmpty() bool {
	return d.ActiveStepID == nil &&
		d.Channel == nil &&
		len(d.Selections) == 0 &&
		len(d.Fields) == 0
}
