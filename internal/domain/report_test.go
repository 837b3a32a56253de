package domain

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from ReportStatus
		to   ReportStatus
		want bool
	}{
		{ReportStatusOpen, ReportStatusInProgress, true},
		{ReportStatusOpen, ReportStatusCompleted, true},
		{ReportStatusInProgress, ReportStatusCompleted, true},
		{ReportStatusInProgress, ReportStatusOpen, false},
		{ReportStatusCompleted, ReportStatusInProgress, false},
		{ReportStatusCompleted, ReportStatusOpen, false},
		{ReportStatusArchived, ReportStatusOpen, false},
		{ReportStatusArchived, ReportStatusCompleted, false},
		{ReportStatusOpen, ReportStatusOpen, false},
		{ReportStatusOpen, ReportStatusArchived, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestValidStatusAndPriority(t *testing.T) {
	for _, s := range []ReportStatus{ReportStatusOpen, ReportStatusInProgress, ReportStatusCompleted, ReportStatusArchived} {
		if !ValidStatus(s) {
			t.Errorf("ValidStatus(%s) = false", s)
		}
	}
	if ValidStatus(ReportStatus("closed")) {
		t.Error("ValidStatus(closed) = true")
	}
	if !ValidPriority(ReportPriorityUrgent) {
		t.Error("ValidPriority(urgent) = false")
	}
	if ValidPriority(ReportPriority("asap")) {
		t.Error("ValidPriority(asap) = true")
	}
}

func TestMessageVisibility(t *testing.T) {
	admin := &User{ID: "admin-1", Role: RoleAdmin}
	author := &User{ID: "user-1", Role: RoleUser}
	other := &User{ID: "user-2", Role: RoleUser}

	external := ReportMessage{AuthorID: author.ID}
	internal := ReportMessage{AuthorID: admin.ID, IsInternal: true}

	if !external.VisibleTo(other) {
		t.Error("external message hidden from non-author")
	}
	if !internal.VisibleTo(admin) {
		t.Error("internal note hidden from admin")
	}
	if internal.VisibleTo(other) {
		t.Error("internal note visible to non-admin")
	}

	ownNote := ReportMessage{AuthorID: author.ID, IsInternal: true}
	if !ownNote.VisibleTo(author) {
		t.Error("internal note hidden from its author")
	}
}
