package genai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/trendella/trendella/internal/models"
)

// mockChatService implements chatService for testing.
type mockChatService struct {
	resp   *openai.ChatCompletion
	err    error
	params openai.ChatCompletionNewParams
}

func (m *mockChatService) New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	m.params = params
	return m.resp, m.err
}

func userMessages(contents ...string) []models.StoredMessage {
	messages := []models.StoredMessage{
		{ID: "a1", Sender: models.SenderAssistant, Content: "Hi!"},
	}
	for i, content := range contents {
		messages = append(messages, models.StoredMessage{
			ID: "u" + string(rune('a'+i)), Sender: models.SenderUser, Content: content,
		})
	}
	return messages
}

func TestSessionName_Success(t *testing.T) {
	mockResp := &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: "  Hiking Gifts for Partner \n"}},
		},
	}
	mock := &mockChatService{resp: mockResp}
	client := &Client{chat: mock}

	name, err := client.SessionName(context.Background(), userMessages("27", "she loves hiking"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if name != "Hiking Gifts for Partner" {
		t.Errorf("expected trimmed name, got %q", name)
	}
	if len(mock.params.Messages) != 2 {
		t.Errorf("expected system + user message, got %d", len(mock.params.Messages))
	}
}

func TestSessionName_ServiceError(t *testing.T) {
	client := &Client{chat: &mockChatService{err: errors.New("service failure")}}
	_, err := client.SessionName(context.Background(), userMessages("hello"))
	if err == nil || !strings.Contains(err.Error(), "service failure") {
		t.Errorf("expected service failure error, got %v", err)
	}
}

func TestSessionName_NoChoices(t *testing.T) {
	mockResp := &openai.ChatCompletion{Choices: []openai.ChatCompletionChoice{}}
	client := &Client{chat: &mockChatService{resp: mockResp}}
	_, err := client.SessionName(context.Background(), userMessages("hello"))
	if !errors.Is(err, ErrNoChoicesReturned) {
		t.Errorf("expected no choices returned error, got %v", err)
	}
}

func TestSessionName_NoUserMessages(t *testing.T) {
	client := &Client{chat: &mockChatService{}}
	_, err := client.SessionName(context.Background(), userMessages())
	if err == nil {
		t.Error("expected error when session has no user messages")
	}
}

func TestNewClient_NoKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewClient()
	if err == nil {
		t.Error("expected error when API key not provided, got nil")
	}
}

func TestNewClient_WithKey(t *testing.T) {
	cli, err := NewClient(WithAPIKey("test-key"))
	if err != nil {
		t.Fatalf("expected no error with API key, got %v", err)
	}
	if cli == nil {
		t.Error("expected client instance, got nil")
	}
}
