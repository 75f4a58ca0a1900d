package policy

import "testing"

func TestHasStaleLabel(t *testing.T) {
	s := Defaults(true)
	s.StaleLabel = "stale"

	tests := []struct {
		labels []string
		want   bool
	}{
		{nil, false},
		{[]string{}, false},
		{[]string{"bug"}, false},
		{[]string{"bug", "stale"}, true},
	}
	for _, tt := range tests {
		if got := s.HasStaleLabel(tt.labels); got != tt.want {
			t.Errorf("HasStaleLabel(%v) = %v, want %v", tt.labels, got, tt.want)
		}
	}
}

func TestHasExemptLabel(t *testing.T) {
	s := Defaults(true)

	tests := []struct {
		labels []string
		want   bool
	}{
		{nil, false},
		{[]string{"bug"}, false},
		{[]string{"pinned"}, true},
		{[]string{"bug", "security", "wontfix"}, true},
	}
	for _, tt := range tests {
		if got := s.HasExemptLabel(tt.labels); got != tt.want {
			t.Errorf("HasExemptLabel(%v) = %v, want %v", tt.labels, got, tt.want)
		}
	}

	s.ExemptLabels = nil
	if s.HasExemptLabel([]string{"pinned"}) {
		t.Error("empty exempt set should never match")
	}
}

func TestMarkCommentBody(t *testing.T) {
	s := Defaults(true)
	if got := s.MarkCommentBody(); got != DefaultMarkComment {
		t.Errorf("body without placeholder changed: %q", got)
	}

	s.MarkComment = CommentText("Stale. Add one of %EXEMPT_LABELS% to keep it open.")
	want := "Stale. Add one of `pinned`, `security` to keep it open."
	if got := s.MarkCommentBody(); got != want {
		t.Errorf("MarkCommentBody() = %q, want %q", got, want)
	}
}
