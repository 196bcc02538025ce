package chat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/trendella/trendella/internal/history"
	"github.com/trendella/trendella/internal/models"
)

// Opts holds configuration options for the Manager.
type Opts struct {
	SaveDelay time.Duration
}

// Option defines a configuration option for the Manager.
type Option func(*Opts)

// WithSaveDelay overrides the debounce delay for session saves.
func WithSaveDelay(delay time.Duration) Option {
	return func(o *Opts) { o.SaveDelay = delay }
}

// managedChat pairs an active conversation with its debounced saver. The
// entry mutex serializes turns within one conversation so the Manager lock is
// never held across recommendation requests.
type managedChat struct {
	mu    sync.Mutex
	conv  *Conversation
	saver *history.Saver
}

// Manager owns the active conversations: one per signed-in user, one per
// guest session. Every mutation schedules a debounced save of the latest
// snapshot.
type Manager struct {
	history     *history.Service
	recommender Recommender
	saveDelay   time.Duration

	mu     sync.Mutex
	active map[string]*managedChat
}

// NewManager creates a conversation manager.
func NewManager(historyService *history.Service, recommender Recommender, opts ...Option) *Manager {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	delay := cfg.SaveDelay
	if delay <= 0 {
		delay = history.DefaultSaveDelay
	}
	return &Manager{
		history:     historyService,
		recommender: recommender,
		saveDelay:   delay,
		active:      make(map[string]*managedChat),
	}
}

// conversationKey scopes active conversations: signed-in users get one active
// chat each, guests one per session id.
func conversationKey(userID, sessionID string) string {
	if userID != "" {
		return userID
	}
	return "guest:" + sessionID
}

// HandleMessage routes one shopper message into the right conversation and
// returns the assistant's reply. The response carries only the messages this
// turn appended.
func (m *Manager) HandleMessage(ctx context.Context, userID, sessionID, input string) (*models.ChatResponse, error) {
	entry, err := m.resolve(userID, sessionID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	appended := entry.conv.HandleInput(ctx, m.recommender, input)
	m.scheduleSave(userID, entry)
	slog.Debug("Manager.HandleMessage handled", "userID", userID, "sessionID", entry.conv.SessionID, "appended", len(appended))
	return turnResponse(entry.conv, appended), nil
}

// resolve finds or creates the conversation a message belongs to. A session
// id that does not match the active conversation is loaded from history; ids
// with no stored state (all guest ids included) start a fresh chat.
func (m *Manager) resolve(userID, sessionID string) (*managedChat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := conversationKey(userID, sessionID)
	if entry, ok := m.active[key]; ok && (userID == "" || sessionID == "" || entry.conv.SessionID == sessionID) {
		return entry, nil
	}

	if entry, ok := m.active[key]; ok {
		entry.saver.Flush()
	}

	var conv *Conversation
	if sessionID != "" && userID != "" {
		state, err := m.history.LoadChatSession(userID, sessionID)
		if err != nil {
			return nil, err
		}
		if state != nil {
			conv = Restore(state)
		}
	}
	if conv == nil {
		conv = NewConversation()
	}

	entry := &managedChat{conv: conv, saver: history.NewSaver(m.saveDelay)}
	// Guests are keyed by the session id actually in use, so a guest turn
	// with no session id lands in its own fresh conversation.
	m.active[conversationKey(userID, conv.SessionID)] = entry
	slog.Debug("Manager.resolve conversation ready", "userID", userID, "sessionID", conv.SessionID)
	return entry, nil
}

// scheduleSave snapshots the conversation and queues the write. The snapshot
// is taken now so a later flush persists exactly this state or newer.
func (m *Manager) scheduleSave(userID string, entry *managedChat) {
	state := entry.conv.State()
	entry.saver.Schedule(func() {
		if err := m.history.Save(userID, state); err != nil {
			slog.Error("Manager session save failed", "error", err, "userID", userID, "sessionID", state.SessionID)
		}
	})
}

// SelectSession switches the user's active conversation. An empty session id
// starts a new chat, unless the current one has no shopper messages yet, in
// which case the current chat is kept. Pending saves are flushed before any
// switch. The response carries the full thread of the selected session.
func (m *Manager) SelectSession(userID, sessionID string) (*models.ChatResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := conversationKey(userID, sessionID)
	entry, ok := m.active[key]

	if sessionID == "" {
		if ok {
			state := entry.conv.State()
			if state.UserMessageCount() == 0 {
				slog.Debug("Manager.SelectSession keeping pristine chat", "userID", userID, "sessionID", entry.conv.SessionID)
				return fullResponse(entry.conv), nil
			}
			entry.saver.Flush()
		}
		conv := NewConversation()
		m.active[conversationKey(userID, conv.SessionID)] = &managedChat{conv: conv, saver: history.NewSaver(m.saveDelay)}
		slog.Debug("Manager.SelectSession started new chat", "userID", userID, "sessionID", conv.SessionID)
		return fullResponse(conv), nil
	}

	if ok {
		if entry.conv.SessionID == sessionID {
			return fullResponse(entry.conv), nil
		}
		entry.saver.Flush()
	}

	state, err := m.history.LoadChatSession(userID, sessionID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, models.ErrSessionNotFound
	}
	conv := Restore(state)
	m.active[key] = &managedChat{conv: conv, saver: history.NewSaver(m.saveDelay)}
	slog.Debug("Manager.SelectSession restored session", "userID", userID, "sessionID", sessionID)
	return fullResponse(conv), nil
}

// DeleteSession removes a stored session. Deleting the session the user is
// currently in resets them to a fresh chat.
func (m *Manager) DeleteSession(userID, sessionID string) error {
	if err := m.history.Delete(userID, sessionID); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	key := conversationKey(userID, sessionID)
	if entry, ok := m.active[key]; ok && entry.conv.SessionID == sessionID {
		entry.saver.Stop()
		m.active[key] = &managedChat{conv: NewConversation(), saver: history.NewSaver(m.saveDelay)}
		slog.Debug("Manager.DeleteSession reset active chat", "userID", userID, "sessionID", sessionID)
	}
	return nil
}

// RenameSession sets a session's custom name, flushing any pending save first
// so a just-created session exists in the store.
func (m *Manager) RenameSession(userID, sessionID, name string) error {
	m.flushUser(userID, sessionID)
	return m.history.Rename(userID, sessionID, name)
}

// Sessions lists the user's saved sessions, flushing pending writes so the
// listing reflects the live conversation.
func (m *Manager) Sessions(userID string) []models.ChatSession {
	m.flushUser(userID, "")
	return m.history.ListChatSessions(userID)
}

// History returns the message history the user should resume with.
func (m *Manager) History(userID string) []models.StoredMessage {
	m.flushUser(userID, "")
	return m.history.LoadChatHistory(userID)
}

// flushUser flushes the pending save of the user's active conversation.
func (m *Manager) flushUser(userID, sessionID string) {
	m.mu.Lock()
	entry, ok := m.active[conversationKey(userID, sessionID)]
	m.mu.Unlock()
	if ok {
		entry.saver.Flush()
	}
}

// Flush persists every pending save. Used at shutdown.
func (m *Manager) Flush() {
	m.mu.Lock()
	entries := make([]*managedChat, 0, len(m.active))
	for _, entry := range m.active {
		entries = append(entries, entry)
	}
	m.mu.Unlock()

	for _, entry := range entries {
		entry.saver.Flush()
	}
	slog.Debug("Manager.Flush completed", "conversations", len(entries))
}

// turnResponse builds the reply for one chat turn.
func turnResponse(conv *Conversation, appended []models.ChatMessage) *models.ChatResponse {
	profile := conv.Profile
	return &models.ChatResponse{
		SessionID:       conv.SessionID,
		Messages:        appended,
		CurrentStep:     conv.Step,
		ProfileComplete: conv.Complete(),
		Recommendation:  conv.Recommendation,
		Profile:         &profile,
	}
}

// fullResponse builds the complete thread snapshot used by session selection.
func fullResponse(conv *Conversation) *models.ChatResponse {
	profile := conv.Profile
	return &models.ChatResponse{
		SessionID:       conv.SessionID,
		Messages:        conv.Messages,
		CurrentStep:     conv.Step,
		ProfileComplete: conv.Complete(),
		Recommendation:  conv.Recommendation,
		Profile:         &profile,
	}
}
