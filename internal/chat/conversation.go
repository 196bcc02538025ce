// Package chat runs live gift conversations: the question flow over each
// session's in-memory state, recommendation requests, and the per-user
// session lifecycle.
package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/trendella/trendella/internal/flow"
	"github.com/trendella/trendella/internal/models"
	"github.com/trendella/trendella/internal/util"
)

// Recommender requests gift recommendations for a profile.
type Recommender interface {
	Recommend(ctx context.Context, profile models.RecipientProfile) (*models.RecommendResponse, error)
}

// Conversation is the in-memory state of one active chat. It is not safe for
// concurrent use; the Manager serializes access.
type Conversation struct {
	SessionID      string
	Messages       []models.ChatMessage
	Profile        models.RecipientProfile
	Step           int
	Recommendation *models.RecommendResponse

	timestamps map[string]models.Timestamp
}

// NewConversation seeds a fresh chat: the welcome line followed by the first
// question.
func NewConversation() *Conversation {
	c := &Conversation{
		SessionID:  util.GenerateSessionID(),
		Profile:    models.DefaultProfile(),
		timestamps: make(map[string]models.Timestamp),
	}
	c.append(models.NewChatMessage(models.SenderAssistant, flow.WelcomeContent))
	if q, ok := flow.QuestionAt(0); ok {
		prompt := models.NewChatMessage(models.SenderAssistant, q.Prompt)
		prompt.Options = q.Options
		c.append(prompt)
	}
	return c
}

// Restore rebuilds a conversation from a stored session state.
func Restore(state *models.ChatSessionState) *Conversation {
	c := &Conversation{
		SessionID:      state.SessionID,
		Profile:        state.Profile,
		Step:           state.CurrentStep,
		Recommendation: state.Recommendation,
		timestamps:     make(map[string]models.Timestamp, len(state.Messages)),
	}
	for _, m := range state.Messages {
		c.Messages = append(c.Messages, m.ChatMessage())
		c.timestamps[m.ID] = m.Timestamp
	}
	return c
}

// append records a message with the current time.
func (c *Conversation) append(m models.ChatMessage) models.ChatMessage {
	c.Messages = append(c.Messages, m)
	c.timestamps[m.ID] = models.Now()
	return m
}

// Complete reports whether every question has been answered.
func (c *Conversation) Complete() bool {
	return flow.Completed(c.Step)
}

// State snapshots the conversation into its persisted form.
func (c *Conversation) State() models.ChatSessionState {
	stored := make([]models.StoredMessage, 0, len(c.Messages))
	for _, m := range c.Messages {
		stored = append(stored, models.StoreMessage(m, c.timestamps[m.ID]))
	}
	return models.ChatSessionState{
		SessionID:      c.SessionID,
		Messages:       stored,
		Recommendation: c.Recommendation,
		Profile:        c.Profile,
		CurrentStep:    c.Step,
		LastUpdated:    models.Now(),
	}
}

// HandleInput processes one shopper message and returns the messages the
// assistant appended in response (the user message itself excluded).
//
// While questions remain the input feeds the current question's parser: an
// unparseable answer gets the reprompt and the step does not advance; a parsed
// answer gets a confirmation and moves on. Answering the last question
// finalizes the profile and requests recommendations. After that every input
// is a refinement: constraints are derived from it and the recommendation is
// requested again. A failed recommendation request becomes an error-variant
// message in the thread, never a dropped turn.
func (c *Conversation) HandleInput(ctx context.Context, recommender Recommender, input string) []models.ChatMessage {
	c.append(models.NewChatMessage(models.SenderUser, input))
	before := len(c.Messages)

	if !c.Complete() {
		c.answerQuestion(ctx, recommender, input)
	} else {
		c.refine(ctx, recommender, input)
	}
	return c.Messages[before:]
}

func (c *Conversation) answerQuestion(ctx context.Context, recommender Recommender, input string) {
	q, ok := flow.QuestionAt(c.Step)
	if !ok {
		return
	}

	parsed := q.Parse(input, c.Profile)
	if parsed == nil {
		reprompt := models.NewChatMessage(models.SenderAssistant, q.Reprompt)
		reprompt.Variant = models.VariantInfo
		reprompt.Options = q.Options
		c.append(reprompt)
		slog.Debug("Conversation.HandleInput reprompt", "sessionID", c.SessionID, "question", q.Key)
		return
	}

	c.Profile.Apply(*parsed)
	confirmation := models.NewChatMessage(models.SenderAssistant, q.Confirm(c.Profile, *parsed))
	confirmation.Variant = models.VariantInfo
	c.append(confirmation)
	c.Step++
	slog.Debug("Conversation.HandleInput answered", "sessionID", c.SessionID, "question", q.Key, "step", c.Step)

	if c.Complete() {
		c.append(models.NewChatMessage(models.SenderAssistant, flow.FinalizeContent))
		c.requestRecommendation(ctx, recommender)
		return
	}
	if next, ok := flow.QuestionAt(c.Step); ok {
		prompt := models.NewChatMessage(models.SenderAssistant, next.Prompt)
		prompt.Options = next.Options
		c.append(prompt)
	}
}

func (c *Conversation) refine(ctx context.Context, recommender Recommender, input string) {
	c.Profile.Constraints = flow.DeriveConstraints(input, c.Profile.Constraints)
	ack := models.NewChatMessage(models.SenderAssistant, flow.RefineAckContent)
	ack.Variant = models.VariantInfo
	c.append(ack)
	slog.Debug("Conversation.HandleInput refining", "sessionID", c.SessionID)
	c.requestRecommendation(ctx, recommender)
}

func (c *Conversation) requestRecommendation(ctx context.Context, recommender Recommender) {
	recommendation, err := recommender.Recommend(ctx, c.Profile)
	if err != nil {
		slog.Error("Conversation recommendation request failed", "error", err, "sessionID", c.SessionID)
		failure := models.NewChatMessage(models.SenderAssistant,
			fmt.Sprintf("Something went wrong fetching products: %s", err.Error()))
		failure.Variant = models.VariantError
		c.append(failure)
		return
	}
	c.Recommendation = recommendation
	slog.Debug("Conversation recommendation updated", "sessionID", c.SessionID, "products", len(recommendation.Products))
}
