package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func notif(id, typ string, related *string, read bool) Notification {
	return Notification{
		ID:        id,
		Type:      typ,
		Message:   "original message " + id,
		RelatedID: related,
		IsRead:    read,
		CreatedAt: time.Now(),
	}
}

func strPtr(s string) *string { return &s }

func TestGroupThreadsCollapsesByRelatedID(t *testing.T) {
	reportA := strPtr("report-a")
	reportB := strPtr("report-b")
	items := []Notification{
		notif("n1", NotificationProblemReport, reportA, true),
		notif("n2", NotificationProblemReport, reportB, true),
		notif("n3", NotificationProblemReport, reportA, true),
		notif("n4", NotificationProblemReport, reportA, true),
	}

	grouped := GroupThreads(items, RoleUser)
	require.Len(t, grouped, 2)
	require.Equal(t, "n1", grouped[0].ID)
	require.Equal(t, *reportA, *grouped[0].RelatedID)
	require.Equal(t, "n2", grouped[1].ID)
	require.Equal(t, *reportB, *grouped[1].RelatedID)
}

func TestGroupThreadsUnreadPropagates(t *testing.T) {
	related := strPtr("report-a")
	items := []Notification{
		notif("n1", NotificationProblemReport, related, true),
		notif("n2", NotificationProblemReport, related, false),
	}

	grouped := GroupThreads(items, RoleUser)
	require.Len(t, grouped, 1)
	require.False(t, grouped[0].IsRead)

	allRead := GroupThreads([]Notification{
		notif("n1", NotificationProblemReport, related, true),
		notif("n2", NotificationProblemReport, related, true),
	}, RoleUser)
	require.True(t, allRead[0].IsRead)
}

func TestGroupThreadsMessageByRole(t *testing.T) {
	related := strPtr("report-a")
	items := []Notification{notif("n1", NotificationProblemReport, related, false)}

	asUser := GroupThreads(items, RoleUser)
	require.Equal(t, "View conversation and reply", asUser[0].Message)

	asAdmin := GroupThreads(items, RoleAdmin)
	require.Equal(t, "View conversation and manage ticket", asAdmin[0].Message)
}

func TestGroupThreadsOtherTypesPassThrough(t *testing.T) {
	related := strPtr("report-a")
	items := []Notification{
		notif("w1", "warranty", nil, false),
		notif("n1", NotificationProblemReport, related, false),
		notif("m1", "maintenance", nil, true),
		notif("n2", NotificationProblemReport, related, false),
	}

	grouped := GroupThreads(items, RoleUser)
	require.Len(t, grouped, 3)
	// threads come first, other types keep their order after them
	require.Equal(t, "n1", grouped[0].ID)
	require.Equal(t, "w1", grouped[1].ID)
	require.Equal(t, "original message w1", grouped[1].Message)
	require.Equal(t, "m1", grouped[2].ID)
}

func TestGroupThreadsNilRelatedPassesThrough(t *testing.T) {
	items := []Notification{notif("n1", NotificationProblemReport, nil, false)}
	grouped := GroupThreads(items, RoleUser)
	require.Len(t, grouped, 1)
	require.Equal(t, "original message n1", grouped[0].Message)
}

func TestGroupThreadsIsPure(t *testing.T) {
	related := strPtr("report-a")
	items := []Notification{
		notif("n1", NotificationProblemReport, related, false),
		notif("n2", NotificationProblemReport, related, false),
	}

	first := GroupThreads(items, RoleUser)
	second := GroupThreads(items, RoleUser)
	require.Equal(t, first, second)
	// the input is never mutated
	require.Equal(t, "original message n1", items[0].Message)
}
