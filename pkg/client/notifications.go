package client

// Thread messages shown on grouped problem-report notifications.
const (
	threadMessageAdmin = "View conversation and manage ticket"
	threadMessageUser  = "View conversation and reply"
)

// GroupThreads collapses problem-report notifications that share a relatedId
// into one synthetic thread entry each. The first occurrence seeds the
// thread; any unread occurrence forces the thread unread. Entries of every
// other type pass through unmodified, after the threads. The transform is
// pure: it recomputes from the input on every call and holds no state.
func GroupThreads(items []Notification, role Role) []Notification {
	threadMessage := threadMessageUser
	if role == RoleAdmin {
		threadMessage = threadMessageAdmin
	}

	var order []string
	threads := make(map[string]*Notification)
	var rest []Notification

	for _, item := range items {
		if item.Type != NotificationProblemReport || item.RelatedID == nil {
			rest = append(rest, item)
			continue
		}
		key := *item.RelatedID
		if thread, ok := threads[key]; ok {
			if !item.IsRead {
				thread.IsRead = false
			}
			continue
		}
		seeded := item
		seeded.Message = threadMessage
		threads[key] = &seeded
		order = append(order, key)
	}

	result := make([]Notification, 0, len(order)+len(rest))
	for _, key := range order {
		result = append(result, *threads[key])
	}
	result = append(result, rest...)
	return result
}
