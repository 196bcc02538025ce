// Package models defines the core data structures for Trendella.
//
// It includes the recipient profile, chat messages, and the shared API
// response types used across modules.
package models

import (
	"errors"

	"github.com/google/uuid"
)

// Error variables for better error handling and testability
var (
	ErrNotAuthenticated = errors.New("user not authenticated")
	ErrSessionNotFound  = errors.New("chat session not found")
	ErrEmptyProductID   = errors.New("product id cannot be empty")
	ErrEmptyStore       = errors.New("product store cannot be empty")
)

// Sender identifies the author of a chat message.
type Sender string

const (
	// SenderAssistant marks messages written by the gift assistant.
	SenderAssistant Sender = "assistant"
	// SenderUser marks messages written by the shopper.
	SenderUser Sender = "user"
	// SenderSystem marks internal notices.
	SenderSystem Sender = "system"
)

// Variant controls how a message is rendered by clients.
type Variant string

const (
	// VariantDefault is a plain chat bubble.
	VariantDefault Variant = "default"
	// VariantInfo is a confirmation or reprompt notice.
	VariantInfo Variant = "info"
	// VariantError is a failure surfaced inside the conversation.
	VariantError Variant = "error"
)

// ChatMessage is one turn of the conversation. Messages are never mutated
// after creation; ordering is insertion order.
type ChatMessage struct {
	ID      string   `json:"id"`
	Sender  Sender   `json:"sender"`
	Content string   `json:"content"`
	Variant Variant  `json:"variant,omitempty"`
	Options []string `json:"options,omitempty"` // quick-reply options
}

// NewChatMessage creates a message with a fresh unique id.
func NewChatMessage(sender Sender, content string) ChatMessage {
	return ChatMessage{ID: uuid.NewString(), Sender: sender, Content: content}
}

// Budget is the price range for recommendations. Min <= Max holds once both
// are set from a range; a single value v expands to [0.8*v, v].
type Budget struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency"`
}

// Constraints are recommendation filters derived during refine mode.
type Constraints struct {
	CategoryIncludes []string `json:"category_includes"`
	CategoryExcludes []string `json:"category_excludes"`
	ShippingDaysMax  *int     `json:"shipping_days_max,omitempty"`
}

// RecipientProfile is the structured recipient description collected by the
// question flow and sent to the recommendation service.
type RecipientProfile struct {
	Age            *int        `json:"age"`
	Gender         *string     `json:"gender"`
	Relationship   *string     `json:"relationship"`
	Occasion       *string     `json:"occasion"`
	Budget         Budget      `json:"budget"`
	Interests      []string    `json:"interests"`
	FavoriteColor  *string     `json:"favorite_color"`
	FavoriteBrands []string    `json:"favorite_brands"`
	Constraints    Constraints `json:"constraints"`
}

// DefaultProfile returns the empty profile a new conversation starts with.
func DefaultProfile() RecipientProfile {
	return RecipientProfile{
		Budget:         Budget{Min: 0, Max: 0, Currency: "USD"},
		Interests:      []string{},
		FavoriteBrands: []string{},
		Constraints: Constraints{
			CategoryIncludes: []string{},
			CategoryExcludes: []string{},
		},
	}
}

// ProfileUpdate is a partial profile produced by a single parsed answer.
// Nil fields leave the profile untouched.
type ProfileUpdate struct {
	Age            *int
	Gender         *string
	Relationship   *string
	Occasion       *string
	Budget         *Budget
	Interests      []string
	FavoriteColor  *string
	FavoriteBrands []string
	Constraints    *Constraints
}

// Apply merges a parsed update into the profile.
func (p *RecipientProfile) Apply(u ProfileUpdate) {
	if u.Age != nil {
		p.Age = u.Age
	}
	if u.Gender != nil {
		p.Gender = u.Gender
	}
	if u.Relationship != nil {
		p.Relationship = u.Relationship
	}
	if u.Occasion != nil {
		p.Occasion = u.Occasion
	}
	if u.Budget != nil {
		p.Budget = *u.Budget
	}
	if u.Interests != nil {
		p.Interests = u.Interests
	}
	if u.FavoriteColor != nil {
		p.FavoriteColor = u.FavoriteColor
	}
	if u.FavoriteBrands != nil {
		p.FavoriteBrands = u.FavoriteBrands
	}
	if u.Constraints != nil {
		p.Constraints = *u.Constraints
	}
}

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`            // status of the API response
	Message string      `json:"message,omitempty"` // optional message for error responses or additional info
	Result  interface{} `json:"result,omitempty"`  // optional result data for successful responses
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// SuccessWithMessage creates a successful API response with a message and optional result data.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Message: message, Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}

// ChatResponse is the payload returned by the chat and session endpoints.
// For a chat turn Messages carries only the newly appended messages; for
// session selection it carries the full reconstructed thread.
type ChatResponse struct {
	SessionID       string             `json:"session_id"`
	Messages        []ChatMessage      `json:"messages"`
	CurrentStep     int                `json:"current_step"`
	ProfileComplete bool               `json:"profile_complete"`
	Recommendation  *RecommendResponse `json:"recommendation,omitempty"`
	Profile         *RecipientProfile  `json:"profile,omitempty"`
}
