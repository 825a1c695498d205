package responder

import "campus-assistant/domain"

const (
	Greeting = "Hi! I'm your Campus AI Assistant. I can help you with schedules, facilities, dining, library services, and administrative procedures. What would you like to know?"
	Fallback = "I can help you with information about class schedules, campus facilities, dining services, library resources, and administrative procedures. Could you be more specific about what you're looking for?"
)

// Rule maps a keyword set to a fixed reply. Rules are evaluated in order.
type Rule struct {
	Category domain.Category
	Keywords []string
	Reply    string
}

// CampusRules returns the default catalogue, highest priority first.
func CampusRules() []Rule {
	return []Rule{
		{
			Category: domain.CategorySchedules,
			Keywords: []string{"schedule", "class", "time"},
			Reply:    "📅 Class schedules vary by semester. Fall 2024 classes run Monday-Friday, 8:00 AM - 10:00 PM. You can find your specific schedule in the student portal or visit the Registrar's Office in the Admin Building.",
		},
		{
			Category: domain.CategoryFacilities,
			Keywords: []string{"facilit", "building", "map"},
			Reply:    "🏢 Our campus features: Main Library (24/7 during finals), Student Center, Fitness Center, Computer Labs, Study Rooms, and the new Science Building. All buildings are accessible and WiFi-enabled.",
		},
		{
			Category: domain.CategoryDining,
			Keywords: []string{"dining", "food", "eat"},
			Reply:    "🍽️ Dining options include: Main Cafeteria (7 AM - 9 PM), Coffee Shop (6 AM - 11 PM), Food Trucks (11 AM - 3 PM), and the Late Night Diner (9 PM - 2 AM). Meal plans available!",
		},
		{
			Category: domain.CategoryLibrary,
			Keywords: []string{"library", "book", "study"},
			Reply:    "📚 Library services: 24/7 study spaces, research assistance, computer labs, printing services, group study rooms (reservable online), and extensive digital resources. Librarians available for research help.",
		},
		{
			Category: domain.CategoryAdmin,
			Keywords: []string{"register", "admin", "transcript"},
			Reply:    "📋 Key procedures: Course registration opens each semester via student portal, add/drop deadline is 2 weeks into semester, transcripts available online, and financial aid office hours are 9 AM - 5 PM weekdays.",
		},
		{
			Category: domain.CategoryUniform,
			Keywords: []string{"uniform", "dress code"},
			Reply:    "👔 Uniform policy: formal attire with the college ID card is required Monday-Friday on campus. Lab coats are mandatory in laboratories and safety shoes in workshops. Casual wear is allowed on Saturdays and during fests.",
		},
	}
}
