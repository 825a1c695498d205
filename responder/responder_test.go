package responder

import (
	"campus-assistant/domain"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResponder_Respond(t *testing.T) {
	req := require.New(t)
	responder, err := NewCampusResponder()
	req.NoError(err)
	rules := CampusRules()

	tests := []struct {
		name     string
		input    string
		expected domain.Category
	}{
		{name: "Schedule keyword", input: "What are the class schedules?", expected: domain.CategorySchedules},
		{name: "Upper case input", input: "SCHEDULE PLEASE", expected: domain.CategorySchedules},
		{name: "Substring of a longer word", input: "Where is the timetable", expected: domain.CategorySchedules},
		{name: "Facilities prefix keyword", input: "Show me campus facilities", expected: domain.CategoryFacilities},
		{name: "Map keyword", input: "Is there a map?", expected: domain.CategoryFacilities},
		{name: "Dining keyword", input: "When are dining halls open?", expected: domain.CategoryDining},
		{name: "Food keyword", input: "Any food nearby", expected: domain.CategoryDining},
		{name: "Library keyword", input: "Tell me about library services", expected: domain.CategoryLibrary},
		{name: "Book keyword", input: "Can I borrow a book", expected: domain.CategoryLibrary},
		{name: "Transcript keyword", input: "I need my transcript", expected: domain.CategoryAdmin},
		{name: "Admin keyword", input: "Who runs admin?", expected: domain.CategoryAdmin},
		{name: "Uniform keyword", input: "What is the uniform policy?", expected: domain.CategoryUniform},
		{name: "Dress code phrase", input: "Is there a DRESS CODE", expected: domain.CategoryUniform},
		{name: "Earlier rule wins over uniform", input: "uniform for the library", expected: domain.CategoryLibrary},
		{name: "First rule wins over a later one", input: "library schedule", expected: domain.CategorySchedules},
		{name: "Register for classes hits schedules first", input: "How do I register for classes?", expected: domain.CategorySchedules},
		{name: "Accents around a keyword", input: "Où est la library ?", expected: domain.CategoryLibrary},
		{name: "No keyword", input: "hello there", expected: domain.CategoryGeneral},
		{name: "Empty input", input: "", expected: domain.CategoryGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := responder.Respond(tt.input)
			req.Equal(tt.expected, reply.Category, "input=%s", tt.input)
			if tt.expected == domain.CategoryGeneral {
				req.Equal(Fallback, reply.Content)
				return
			}
			for _, rule := range rules {
				if rule.Category == tt.expected {
					req.Equal(rule.Reply, reply.Content)
				}
			}
		})
	}
}

func TestResponder_QuickActionsAlwaysAnswer(t *testing.T) {
	req := require.New(t)
	responder, err := NewCampusResponder()
	req.NoError(err)

	expected := []domain.Category{
		domain.CategorySchedules,
		domain.CategoryFacilities,
		domain.CategoryDining,
		domain.CategoryLibrary,
		domain.CategorySchedules,
	}
	for i, action := range domain.QuickActions() {
		req.Equal(expected[i], responder.Respond(action.Query).Category, "action=%s", action.Label)
	}
}

func TestResponder_CustomRules(t *testing.T) {
	req := require.New(t)

	// Given a keyword declared by two rules
	rules := []Rule{
		{Category: "parking", Keywords: []string{"Parking", "car"}, Reply: "parking reply"},
		{Category: "shuttle", Keywords: []string{"bus", "car", ""}, Reply: "shuttle reply"},
	}
	responder, err := NewResponder(rules, "fallback")
	req.NoError(err)

	// Then the shared keyword belongs to the first rule
	req.Equal(Reply{Category: "parking", Content: "parking reply"}, responder.Respond("my car broke"))
	req.Equal(Reply{Category: "shuttle", Content: "shuttle reply"}, responder.Respond("where is the BUS"))
	req.Equal(Reply{Category: domain.CategoryGeneral, Content: "fallback"}, responder.Respond("nothing"))
	req.Equal([]string{"parking"}, responder.Keywords("PARKING lot"))
}

func TestResponder_EmptyCatalogue(t *testing.T) {
	req := require.New(t)
	responder, err := NewResponder(nil, Fallback)
	req.NoError(err)

	req.Equal(domain.CategoryGeneral, responder.Respond("schedule").Category)
	req.Nil(responder.Keywords("schedule"))
}
