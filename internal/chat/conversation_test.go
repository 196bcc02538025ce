package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/trendella/trendella/internal/flow"
	"github.com/trendella/trendella/internal/models"
)

type stubRecommender struct {
	response    *models.RecommendResponse
	err         error
	calls       int
	lastProfile models.RecipientProfile
}

func (s *stubRecommender) Recommend(_ context.Context, profile models.RecipientProfile) (*models.RecommendResponse, error) {
	s.calls++
	s.lastProfile = profile
	if s.err != nil {
		return nil, s.err
	}
	if s.response != nil {
		return s.response, nil
	}
	response := &models.RecommendResponse{}
	response.Normalize()
	return response, nil
}

var fullProfileAnswers = []string{
	"27", "female", "Partner", "Birthday", "40-80",
	"hiking, coffee", "green", "Patagonia",
}

func completeConversation(t *testing.T, rec Recommender) *Conversation {
	t.Helper()
	conv := NewConversation()
	for _, answer := range fullProfileAnswers {
		conv.HandleInput(context.Background(), rec, answer)
	}
	if !conv.Complete() {
		t.Fatalf("conversation should be complete after %d answers, step = %d", len(fullProfileAnswers), conv.Step)
	}
	return conv
}

func TestNewConversationSeed(t *testing.T) {
	conv := NewConversation()
	if len(conv.Messages) != 2 {
		t.Fatalf("seed message count = %d, want 2", len(conv.Messages))
	}
	if conv.Messages[0].Content != flow.WelcomeContent {
		t.Errorf("first message = %q", conv.Messages[0].Content)
	}
	if conv.Messages[1].Content != flow.Questions[0].Prompt {
		t.Errorf("second message = %q", conv.Messages[1].Content)
	}
	if conv.Step != 0 || conv.Complete() {
		t.Errorf("fresh conversation step = %d, complete = %v", conv.Step, conv.Complete())
	}
	if !strings.HasPrefix(conv.SessionID, "session_") {
		t.Errorf("session id = %q", conv.SessionID)
	}
}

func TestHandleInputAdvancesFlow(t *testing.T) {
	rec := &stubRecommender{}
	conv := NewConversation()

	appended := conv.HandleInput(context.Background(), rec, "27")
	if conv.Step != 1 {
		t.Fatalf("step = %d after valid answer, want 1", conv.Step)
	}
	if len(appended) != 2 {
		t.Fatalf("appended %d messages, want confirmation + next prompt", len(appended))
	}
	if appended[0].Content != "Got it — 27 years young." || appended[0].Variant != models.VariantInfo {
		t.Errorf("confirmation = %+v", appended[0])
	}
	if appended[1].Content != flow.Questions[1].Prompt {
		t.Errorf("next prompt = %q", appended[1].Content)
	}
	if len(appended[1].Options) != 2 {
		t.Errorf("gender prompt options = %v", appended[1].Options)
	}
	if rec.calls != 0 {
		t.Errorf("recommender called %d times mid-flow", rec.calls)
	}
}

func TestHandleInputReprompts(t *testing.T) {
	rec := &stubRecommender{}
	conv := NewConversation()

	appended := conv.HandleInput(context.Background(), rec, "no idea honestly")
	if conv.Step != 0 {
		t.Fatalf("step advanced on unparseable answer, step = %d", conv.Step)
	}
	if len(appended) != 1 {
		t.Fatalf("appended %d messages, want reprompt only", len(appended))
	}
	if appended[0].Content != flow.Questions[0].Reprompt || appended[0].Variant != models.VariantInfo {
		t.Errorf("reprompt = %+v", appended[0])
	}
}

func TestHandleInputFinalizes(t *testing.T) {
	rec := &stubRecommender{response: &models.RecommendResponse{
		Products: []models.Product{{ID: "p1", Store: "etsy", Title: "Print"}},
	}}
	conv := completeConversation(t, rec)

	if rec.calls != 1 {
		t.Fatalf("recommender calls = %d, want 1 at finalize", rec.calls)
	}
	if conv.Recommendation == nil || len(conv.Recommendation.Products) != 1 {
		t.Errorf("recommendation = %+v", conv.Recommendation)
	}

	var sawFinalize bool
	for _, m := range conv.Messages {
		if m.Content == flow.FinalizeContent {
			sawFinalize = true
		}
	}
	if !sawFinalize {
		t.Error("finalize message missing from thread")
	}

	p := rec.lastProfile
	if p.Age == nil || *p.Age != 27 {
		t.Errorf("profile age = %v", p.Age)
	}
	if p.Budget.Min != 40 || p.Budget.Max != 80 {
		t.Errorf("profile budget = %+v", p.Budget)
	}
	if len(p.Interests) != 2 || p.Interests[0] != "hiking" {
		t.Errorf("profile interests = %v", p.Interests)
	}
}

func TestRefineDerivesConstraints(t *testing.T) {
	rec := &stubRecommender{}
	conv := completeConversation(t, rec)
	rec.calls = 0

	appended := conv.HandleInput(context.Background(), rec, "no jewelry, eco friendly, within 2 days")
	if len(appended) != 1 || appended[0].Content != flow.RefineAckContent {
		t.Fatalf("refine appended = %+v", appended)
	}
	if rec.calls != 1 {
		t.Fatalf("recommender calls = %d, want 1 per refinement", rec.calls)
	}

	c := rec.lastProfile.Constraints
	if c.ShippingDaysMax == nil || *c.ShippingDaysMax != 2 {
		t.Errorf("shipping constraint = %v", c.ShippingDaysMax)
	}
	if len(c.CategoryExcludes) != 1 || c.CategoryExcludes[0] != "accessories" {
		t.Errorf("excludes = %v", c.CategoryExcludes)
	}
}

func TestRecommendationFailureSurfacesInThread(t *testing.T) {
	rec := &stubRecommender{err: errors.New("service unavailable")}
	conv := completeConversation(t, rec)

	last := conv.Messages[len(conv.Messages)-1]
	if last.Variant != models.VariantError {
		t.Fatalf("last message variant = %q, want error", last.Variant)
	}
	if last.Content != "Something went wrong fetching products: service unavailable" {
		t.Errorf("error message = %q", last.Content)
	}
	if conv.Recommendation != nil {
		t.Errorf("failed request should leave recommendation nil, got %+v", conv.Recommendation)
	}
}

func TestStateRestoreRoundTrip(t *testing.T) {
	rec := &stubRecommender{}
	conv := NewConversation()
	conv.HandleInput(context.Background(), rec, "27")
	conv.HandleInput(context.Background(), rec, "female")

	state := conv.State()
	if state.SessionID != conv.SessionID || state.CurrentStep != 2 {
		t.Fatalf("state = %+v", state)
	}
	if len(state.Messages) != len(conv.Messages) {
		t.Fatalf("stored %d messages, live %d", len(state.Messages), len(conv.Messages))
	}
	for _, m := range state.Messages {
		if m.Timestamp == 0 {
			t.Errorf("message %s has no timestamp", m.ID)
		}
	}

	restored := Restore(&state)
	if restored.Step != conv.Step || restored.SessionID != conv.SessionID {
		t.Errorf("restored step/session = %d/%s", restored.Step, restored.SessionID)
	}
	if len(restored.Messages) != len(conv.Messages) {
		t.Errorf("restored %d messages", len(restored.Messages))
	}
	if restored.Profile.Age == nil || *restored.Profile.Age != 27 {
		t.Errorf("restored profile age = %v", restored.Profile.Age)
	}
	// A restored conversation keeps answering where it left off.
	restored.HandleInput(context.Background(), rec, "Friend")
	if restored.Step != 3 {
		t.Errorf("restored conversation step = %d after answer, want 3", restored.Step)
	}
}
