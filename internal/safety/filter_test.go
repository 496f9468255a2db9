package safety

import (
	"testing"
)

func Test_Filter_IsAllowed_Cases(t *testing.T) {
	tests := []struct {
		name      string
		allowlist []string
		denylist  []string
		action    string
		want      bool
	}{
		{
			name:   "empty lists allow everything",
			action: "Addtask",
			want:   true,
		},
		{
			name:      "in allowlist is allowed",
			allowlist: []string{"Addtask", "Editchange"},
			action:    "Editchange",
			want:      true,
		},
		{
			name:      "not in allowlist is denied",
			allowlist: []string{"Addtask", "Editchange"},
			action:    "Deletechange",
			want:      false,
		},
		{
			name:     "in denylist is denied",
			denylist: []string{"Deletechange"},
			action:   "Deletechange",
			want:     false,
		},
		{
			name:      "denylist wins over allowlist",
			allowlist: []string{"Addtask", "Deletechange"},
			denylist:  []string{"Deletechange"},
			action:    "Deletechange",
			want:      false,
		},
		{
			name:      "glob allowlist matches comment actions",
			allowlist: []string{"Addcommentfor*"},
			action:    "Addcommentfordocumentreview",
			want:      true,
		},
		{
			name:     "glob denylist matches",
			denylist: []string{"Delete*"},
			action:   "Deleteincident",
			want:     false,
		},
		{
			name:      "matching is case-sensitive",
			allowlist: []string{"addtask"},
			action:    "Addtask",
			want:      false,
		},
		{
			name:      "malformed pattern never matches",
			allowlist: []string{"Add[task"},
			action:    "Add[task",
			want:      false,
		},
		{
			name:      "wildcard allowlist allows non-denied",
			allowlist: []string{"*"},
			denylist:  []string{"Purgeall"},
			action:    "Addtask",
			want:      true,
		},
		{
			name:      "empty action not in allowlist",
			allowlist: []string{"Addtask"},
			action:    "",
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFilter(tt.allowlist, tt.denylist)
			if f == nil {
				t.Fatal("NewFilter() returned nil")
			}

			got := f.IsAllowed(tt.action)
			if got != tt.want {
				t.Errorf("IsAllowed(%q) = %v, want %v (allowlist=%v, denylist=%v)",
					tt.action, got, tt.want, tt.allowlist, tt.denylist)
			}
		})
	}
}

func Test_Filter_NilAllowsEverything(t *testing.T) {
	var f *Filter
	if !f.IsAllowed("Addtask") {
		t.Error("nil Filter should allow every action")
	}
}

func Test_NewFilter_CopiesPatterns(t *testing.T) {
	deny := []string{"Deletechange"}
	f := NewFilter(nil, deny)
	deny[0] = "Other"
	if f.IsAllowed("Deletechange") {
		t.Error("changing the caller's slice should not change the filter")
	}
}
