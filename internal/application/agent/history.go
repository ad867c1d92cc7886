package agent

// TrimHistory enforces the §4.1 adaptive-history rule: if history
// exceeds limit messages, the oldest are dropped such that the retained
// tail still starts with a user-role message. If no such tail exists
// (e.g. the limit truncates into a run of non-user messages), an empty
// user message is prepended so the provider's last-message-must-be-user
// invariant is not violated upstream of the new user_prompt message
// Run appends itself.
func TrimHistory(history []Message, limit HistoryLimit) []Message {
	n := int(limit)
	if n <= 0 || len(history) <= n {
		return history
	}

	tail := history[len(history)-n:]

	start := 0
	for start < len(tail) && tail[start].Role != RoleUser {
		start++
	}

	if start == len(tail) {
		// No user message survived truncation; synthesize one so the
		// rolling conversation still opens on a user turn.
		return append([]Message{{Role: RoleUser, Content: ""}}, tail...)
	}

	return tail[start:]
}
