package domain

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestDiff(t *testing.T) {
	parts := "parts"
	review := "review"
	retail := "retail"

	tests := []struct {
		name     string
		old      *Session
		new      *Session
		wantDiff *SessionDiff // nil means we expect no diff
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new: &Session{
				ID:           "sess-1",
				ActiveStepID: "parts",
				Channel:      "retail",
				Snapshot: Snapshot{
					StepSelections: map[string][]string{"vehicle": {"v1"}},
				},
			},
			wantDiff: &SessionDiff{
				SessionID:    "sess-1",
				ActiveStepID: &parts,
				Channel:      &retail,
				Selections:   map[string][]string{"vehicle": {"v1"}},
			},
		},
		{
			name: "No Changes",
			old: &Session{
				ID:           "sess-1",
				ActiveStepID: "parts",
				Snapshot:     Snapshot{StepSelections: map[string][]string{"vehicle": {"v1"}}},
			},
			new: &Session{
				ID:           "sess-1",
				ActiveStepID: "parts",
				Snapshot:     Snapshot{StepSelections: map[string][]string{"vehicle": {"v1"}}},
			},
			wantDiff: nil,
		},
		{
			name: "Active Step Change",
			old:  &Session{ID: "sess-1", ActiveStepID: "parts"},
			new:  &Session{ID: "sess-1", ActiveStepID: "review"},
			wantDiff: &SessionDiff{
				SessionID:    "sess-1",
				ActiveStepID: &review,
			},
		},
		{
			name: "Selection Added & Modified",
			old: &Session{
				ID:       "sess-1",
				Snapshot: Snapshot{StepSelections: map[string][]string{"vehicle": {"v1"}, "parts": {"p1"}}},
			},
			new: &Session{
				ID:       "sess-1",
				Snapshot: Snapshot{StepSelections: map[string][]string{"vehicle": {"v1"}, "parts": {"p1", "p2"}, "extras": {"x1"}}},
			},
			wantDiff: &SessionDiff{
				SessionID:  "sess-1",
				Selections: map[string][]string{"parts": {"p1", "p2"}, "extras": {"x1"}},
			},
		},
		{
			name: "Selection Deletion",
			old: &Session{
				Snapshot: Snapshot{StepSelections: map[string][]string{"vehicle": {"v1"}, "parts": {"p1"}}},
			},
			new: &Session{
				Snapshot: Snapshot{StepSelections: map[string][]string{"vehicle": {"v1"}}},
			},
			wantDiff: &SessionDiff{
				Selections: map[string][]string{"parts": nil},
			},
		},
		{
			name: "Empty Entry Equals Missing",
			old: &Session{
				Snapshot: Snapshot{StepSelections: map[string][]string{"vehicle": {"v1"}, "parts": {}}},
			},
			new: &Session{
				Snapshot: Snapshot{
					StepSelections: map[string][]string{"vehicle": {"v1"}, "extras": nil},
					FieldValues:    map[string]map[string]string{"contact": {}},
				},
			},
			wantDiff: nil,
		},
		{
			name: "Field Change",
			old: &Session{
				Snapshot: Snapshot{FieldValues: map[string]map[string]string{"contact": {"email": "a@b"}}},
			},
			new: &Session{
				Snapshot: Snapshot{FieldValues: map[string]map[string]string{"contact": {"email": "a@b.co"}}},
			},
			wantDiff: &SessionDiff{
				Fields: map[string]map[string]string{"contact": {"email": "a@b.co"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			if tt.wantDiff == nil {
				if got != nil {
					t.Errorf("Diff() = %v, want nil", got)
				}
				return
			}

			if got == nil {
				t.Fatalf("Diff() = nil, want %v", tt.wantDiff)
			}

			if got.SessionID != tt.wantDiff.SessionID {
				t.Errorf("Diff().SessionID = %v, want %v", got.SessionID, tt.wantDiff.SessionID)
			}
			if !reflect.DeepEqual(got.Selections, tt.wantDiff.Selections) {
				t.Errorf("Diff().Selections = %v, want %v", got.Selections, tt.wantDiff.Selections)
			}
			if !reflect.DeepEqual(got.Fields, tt.wantDiff.Fields) {
				t.Errorf("Diff().Fields = %v, want %v", got.Fields, tt.wantDiff.Fields)
			}
			if !equalPtr(got.ActiveStepID, tt.wantDiff.ActiveStepID) {
				t.Errorf("Diff().ActiveStepID = %v, want %v", got.ActiveStepID, tt.wantDiff.ActiveStepID)
			}
		})
	}
}

func TestDiffChangedSteps(t *testing.T) {
	old := &Session{Snapshot: Snapshot{StepSelections: map[string][]string{"parts": {"p1"}}}}
	new := &Session{Snapshot: Snapshot{
		StepSelections: map[string][]string{"vehicle": {"v1"}},
		FieldValues:    map[string]map[string]string{"contact": {"state": "WA"}},
	}}

	got := Diff(old, new).ChangedSteps()
	want := []string{"contact", "parts", "vehicle"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ChangedSteps() = %v, want %v", got, want)
	}
}

func TestDiffJSONSerialization(t *testing.T) {
	t.Run("Empty Selections Omitted", func(t *testing.T) {
		s1 := &Session{ActiveStepID: "a", Snapshot: Snapshot{StepSelections: map[string][]string{"a": {"x"}}}}
		s2 := &Session{ActiveStepID: "b", Snapshot: Snapshot{StepSelections: map[string][]string{"a": {"x"}}}}
		diff := Diff(s1, s2)
		if diff == nil {
			t.Fatal("Expected diff, got nil")
		}

		bytes, _ := json.Marshal(diff)
		if strings.Contains(string(bytes), `"selections"`) {
			t.Errorf("JSON should not contain 'selections' when empty, got: %s", string(bytes))
		}
	})

	t.Run("Deletions as Null", func(t *testing.T) {
		s1 := &Session{Snapshot: Snapshot{StepSelections: map[string][]string{"a": {"x"}, "b": {"y"}}}}
		s2 := &Session{Snapshot: Snapshot{StepSelections: map[string][]string{"a": {"x"}}}}
		diff := Diff(s1, s2)
		if diff == nil {
			t.Fatal("Expected diff, got nil")
		}

		bytes, _ := json.Marshal(diff)
		if !strings.Contains(string(bytes), `"b":null`) {
			t.Errorf("JSON should contain 'b':null for deletion, got: %s", string(bytes))
		}
	})
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
