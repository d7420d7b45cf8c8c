package store

import "github.com/DavidOgunsola17/CoachResearchAgent/internal/model"

// Placeholder tokens substituted when a message is composed.
const (
	TokenCoachName  = "{Coach Name}"
	TokenSchool     = "{School}"
	TokenSport      = "{Sport}"
	TokenGPA        = "{GPA}"
	TokenHighlights = "{HIGHLIGHTS}"
)

// Placeholders lists every token a template body may contain.
func Placeholders() []string {
	return []string{TokenCoachName, TokenSchool, TokenSport, TokenGPA, TokenHighlights}
}

// DefaultTemplates returns the templates seeded for a new user, in order.
func DefaultTemplates() []model.Template {
	ts := []model.Template{
		{
			Name:    "Initial Outreach",
			Subject: "Prospective Student-Athlete: {Sport} at {School}",
			Body: "Hi Coach {Coach Name},\n\n" +
				"My name is [Your Name] and I am very interested in the {Sport} program at {School}. " +
				"I currently hold a {GPA} GPA and would love the chance to compete for your team.\n\n" +
				"You can watch my highlights here: {HIGHLIGHTS}\n\n" +
				"Thank you for your time. I look forward to hearing from you.",
		},
		{
			Name:    "Follow Up",
			Subject: "Following up: {Sport} recruit interested in {School}",
			Body: "Hi Coach {Coach Name},\n\n" +
				"I wanted to follow up on my earlier message about joining the {Sport} program at {School}. " +
				"I have kept my GPA at {GPA} and added new film: {HIGHLIGHTS}\n\n" +
				"Please let me know if there is anything else you need from me.",
		},
		{
			Name:    "Scholarship Inquiry",
			Subject: "Scholarship opportunities in {Sport} at {School}",
			Body: "Hi Coach {Coach Name},\n\n" +
				"I am reaching out to ask about scholarship opportunities with the {Sport} team at {School}. " +
				"Academically I carry a {GPA} GPA, and my latest highlights are here: {HIGHLIGHTS}\n\n" +
				"I would appreciate any information about your recruiting timeline.",
		},
		{
			Name:    "Visit Request",
			Subject: "Campus visit request: {Sport} at {School}",
			Body: "Hi Coach {Coach Name},\n\n" +
				"I would love to visit {School} and see the {Sport} program in person. " +
				"I have a {GPA} GPA and have shared my highlights below.\n\n" +
				"{HIGHLIGHTS}\n\n" +
				"Are there dates this season that would work for an unofficial visit?",
		},
		{
			Name:    "Post-Camp Note",
			Subject: "Thank you from your {School} {Sport} camp",
			Body: "Hi Coach {Coach Name},\n\n" +
				"Thank you for running the {Sport} camp at {School}. I learned a lot and enjoyed competing. " +
				"As a reminder, I have a {GPA} GPA and my highlights are here: {HIGHLIGHTS}\n\n" +
				"I hope to stay in touch as you build next year's roster.",
		},
	}
	for i := range ts {
		ts[i].Channel = model.ChannelEmail
		ts[i].IsDefault = true
	}
	return ts
}
