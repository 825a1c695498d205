package domain

// QuickAction is a preset button that inserts a canned query into the chat
// as if typed by the user.
type QuickAction struct {
	Label string
	Icon  string
	Query string
}

var quickActions = []QuickAction{
	{Label: "Class Schedules", Icon: "clock", Query: "What are the class schedules?"},
	{Label: "Campus Map", Icon: "map-pin", Query: "Show me campus facilities"},
	{Label: "Dining Hours", Icon: "utensils", Query: "When are dining halls open?"},
	{Label: "Library Services", Icon: "book-open", Query: "Tell me about library services"},
	{Label: "Admin Procedures", Icon: "file-text", Query: "How do I register for classes?"},
}

// QuickActions returns the presets in display order.
func QuickActions() []QuickAction {
	out := make([]QuickAction, len(quickActions))
	copy(out, quickActions)
	return out
}

// QuickActionAt returns the preset at the given zero-based index.
func QuickActionAt(index int) (QuickAction, bool) {
	if index < 0 || index >= len(quickActions) {
		return QuickAction{}, false
	}
	return quickActions[index], true
}
