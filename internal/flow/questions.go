package flow

import (
	"fmt"
	"math"
	"strings"

	"github.com/trendella/trendella/internal/models"
)

// Scripted conversation texts shared with the chat controller.
const (
	// WelcomeContent opens every new conversation.
	WelcomeContent = "Hi! I'm Trendella. Let's curate the perfect gift together."
	// FinalizeContent is emitted when the last question is answered.
	FinalizeContent = "Amazing — we have a full profile. Add more details for higher specificity like delivery windows, aesthetics, or must-have categories while I pull curated ideas."
	// RefineAckContent acknowledges a refine-mode instruction.
	RefineAckContent = "Refining the list with that detail..."
)

// Question is one step of the profile-collection script. Parse returns nil
// when the answer cannot be understood; the step then repeats with Reprompt.
type Question struct {
	Key      string
	Prompt   string
	Reprompt string
	Options  []string // optional quick-reply options
	Parse    func(input string, profile models.RecipientProfile) *models.ProfileUpdate
	Confirm  func(profile models.RecipientProfile, parsed models.ProfileUpdate) string
}

// Questions is the ordered profile-collection script. Step indices run
// 0..len(Questions); reaching the end finalizes the profile and switches the
// conversation to refine mode.
var Questions = []Question{
	{
		Key:      "age",
		Prompt:   "First up, how old is the recipient?",
		Reprompt: "Could you share their age with a number?",
		Parse: func(input string, _ models.RecipientProfile) *models.ProfileUpdate {
			age, ok := parseNumber(input)
			if !ok {
				return nil
			}
			return &models.ProfileUpdate{Age: &age}
		},
		Confirm: func(_ models.RecipientProfile, parsed models.ProfileUpdate) string {
			return fmt.Sprintf("Got it — %d years young.", *parsed.Age)
		},
	},
	{
		Key:      "gender",
		Prompt:   "What gender do they identify with?",
		Reprompt: "Please select Male or Female.",
		Options:  []string{"Male", "Female"},
		Parse: func(input string, _ models.RecipientProfile) *models.ProfileUpdate {
			gender := strings.TrimSpace(input)
			if gender == "" {
				return nil
			}
			// Accept both "male" and "Male" formats
			switch strings.ToLower(gender) {
			case "male":
				gender = "Male"
			case "female":
				gender = "Female"
			}
			return &models.ProfileUpdate{Gender: &gender}
		},
		Confirm: func(_ models.RecipientProfile, parsed models.ProfileUpdate) string {
			if parsed.Gender == nil || *parsed.Gender == "" {
				return "Skipping gender preference."
			}
			return fmt.Sprintf("Noted — %s vibes.", *parsed.Gender)
		},
	},
	{
		Key:      "relationship",
		Prompt:   "What's your relationship to them?",
		Reprompt: "Let me know how you're connected so I can match the tone.",
		Options:  []string{"Partner", "Sibling", "Parent", "Friend", "Coworker", "Other"},
		Parse: func(input string, _ models.RecipientProfile) *models.ProfileUpdate {
			value := strings.TrimSpace(input)
			if value == "" {
				return nil
			}
			return &models.ProfileUpdate{Relationship: &value}
		},
		Confirm: func(_ models.RecipientProfile, parsed models.ProfileUpdate) string {
			return fmt.Sprintf("Perfect — relationship set to %s.", *parsed.Relationship)
		},
	},
	{
		Key:      "occasion",
		Prompt:   "What are you celebrating?",
		Reprompt: "Any special occasion details to share?",
		Options:  []string{"Birthday", "Anniversary", "Graduation", "Wedding", "Baby Shower", "Holiday", "Thank You", "Other"},
		Parse: func(input string, _ models.RecipientProfile) *models.ProfileUpdate {
			value := strings.TrimSpace(input)
			if value == "" {
				return nil
			}
			return &models.ProfileUpdate{Occasion: &value}
		},
		Confirm: func(_ models.RecipientProfile, parsed models.ProfileUpdate) string {
			return fmt.Sprintf("Occasion logged: %s.", *parsed.Occasion)
		},
	},
	{
		Key:      "budget",
		Prompt:   "What's your budget range in USD? (e.g., 40-80 or up to 120)",
		Reprompt: "Try sharing a range like 30-60 USD so I can match price points.",
		Parse: func(input string, profile models.RecipientProfile) *models.ProfileUpdate {
			budget := extractBudget(input, profile.Budget)
			if budget == nil {
				return nil
			}
			return &models.ProfileUpdate{Budget: budget}
		},
		Confirm: func(_ models.RecipientProfile, parsed models.ProfileUpdate) string {
			return fmt.Sprintf("Budget locked: $%d to $%d.",
				int(math.Round(parsed.Budget.Min)), int(math.Round(parsed.Budget.Max)))
		},
	},
	{
		Key:      "interests",
		Prompt:   "List a few of their core interests or hobbies (comma separated works!).",
		Reprompt: "Drop a few interests separated by commas.",
		Parse: func(input string, _ models.RecipientProfile) *models.ProfileUpdate {
			values := parseCommaSeparated(strings.ToLower(input))
			if len(values) == 0 {
				return nil
			}
			return &models.ProfileUpdate{Interests: values}
		},
		Confirm: func(_ models.RecipientProfile, parsed models.ProfileUpdate) string {
			return fmt.Sprintf("Love it — focusing on %s.", strings.Join(parsed.Interests, ", "))
		},
	},
	{
		Key:      "favorite_color",
		Prompt:   "Any favorite colors they gravitate toward?",
		Reprompt: "Mention a color family so I can match the palette.",
		Parse: func(input string, _ models.RecipientProfile) *models.ProfileUpdate {
			value := strings.TrimSpace(input)
			if value == "" {
				return nil
			}
			return &models.ProfileUpdate{FavoriteColor: &value}
		},
		Confirm: func(_ models.RecipientProfile, parsed models.ProfileUpdate) string {
			return fmt.Sprintf("Color preference saved: %s.", *parsed.FavoriteColor)
		},
	},
	{
		Key:      "favorite_brands",
		Prompt:   "Finally, any must-include brands or labels they adore?",
		Reprompt: "Name any brands they love (comma separated works).",
		Parse: func(input string, _ models.RecipientProfile) *models.ProfileUpdate {
			values := parseCommaSeparated(input)
			if len(values) == 0 {
				return nil
			}
			return &models.ProfileUpdate{FavoriteBrands: values}
		},
		Confirm: func(_ models.RecipientProfile, parsed models.ProfileUpdate) string {
			return fmt.Sprintf("Brand affinity noted: %s.", strings.Join(parsed.FavoriteBrands, ", "))
		},
	},
}

// Completed reports whether the step index is past the final question.
func Completed(step int) bool {
	return step >= len(Questions)
}

// QuestionAt returns the question for a step index.
func QuestionAt(step int) (Question, bool) {
	if step < 0 || step >= len(Questions) {
		return Question{}, false
	}
	return Questions[step], true
}
