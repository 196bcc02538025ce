// Package history manages persisted chat sessions: merging message history
// into the store, listing saved sessions, and debouncing writes.
package history

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/trendella/trendella/internal/models"
	"github.com/trendella/trendella/internal/store"
	"github.com/trendella/trendella/internal/util"
)

const (
	// MaxStoredMessages caps a session document; older messages are dropped
	// first.
	MaxStoredMessages = 1000
	// PreviewRuneLimit is how much of a message the session list shows.
	PreviewRuneLimit = 50
)

// Service implements chat session persistence on top of a store backend.
type Service struct {
	store store.Store
}

// NewService creates a history service.
func NewService(s store.Store) *Service {
	return &Service{store: s}
}

// Save merges the session state into the store. Saving is silently skipped
// for guests and for sessions the shopper has not written to yet, so a welcome
// message alone never creates a document.
func (s *Service) Save(userID string, state models.ChatSessionState) error {
	if userID == "" {
		slog.Debug("History.Save skipped: not authenticated", "sessionID", state.SessionID)
		return nil
	}
	if state.UserMessageCount() == 0 {
		slog.Debug("History.Save skipped: no user messages", "userID", userID, "sessionID", state.SessionID)
		return nil
	}

	existing, err := s.store.GetSession(userID, state.SessionID)
	if err != nil {
		slog.Error("History.Save load for merge failed", "error", err, "userID", userID, "sessionID", state.SessionID)
		return fmt.Errorf("failed to load session for merge: %w", err)
	}

	if existing != nil {
		state.Messages = mergeMessages(existing.Messages, state.Messages)
	} else {
		state.Messages = mergeMessages(nil, state.Messages)
	}
	if state.Recommendation != nil {
		state.Recommendation.Normalize()
	}
	state.LastUpdated = models.Now()

	if err := s.store.UpsertSession(userID, state); err != nil {
		slog.Error("History.Save upsert failed", "error", err, "userID", userID, "sessionID", state.SessionID)
		return fmt.Errorf("failed to save session: %w", err)
	}
	slog.Debug("History.Save succeeded", "userID", userID, "sessionID", state.SessionID, "messages", len(state.Messages))
	return nil
}

// mergeMessages combines stored and incoming messages by id. A stored message
// always wins over an incoming one with the same id, keeping history
// append-only. The result is ordered by timestamp and capped at
// MaxStoredMessages, dropping the oldest overflow.
func mergeMessages(existing, incoming []models.StoredMessage) []models.StoredMessage {
	merged := make([]models.StoredMessage, 0, len(existing)+len(incoming))
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	for _, m := range existing {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		merged = append(merged, m)
	}
	for _, m := range incoming {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		merged = append(merged, m)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})

	if len(merged) > MaxStoredMessages {
		merged = merged[len(merged)-MaxStoredMessages:]
	}
	return merged
}

// LoadChatSession retrieves one stored session. Returns nil for guests, for
// unknown ids, and for sessions with no messages.
func (s *Service) LoadChatSession(userID, sessionID string) (*models.ChatSessionState, error) {
	if userID == "" {
		return nil, nil
	}
	state, err := s.store.GetSession(userID, sessionID)
	if err != nil {
		slog.Error("History.LoadChatSession failed", "error", err, "userID", userID, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	if state == nil || len(state.Messages) == 0 {
		return nil, nil
	}
	slog.Debug("History.LoadChatSession succeeded", "userID", userID, "sessionID", sessionID, "messages", len(state.Messages))
	return state, nil
}

// LoadChatHistory returns the message history the shopper should resume with:
// today's legacy per-day session when one exists, otherwise the most recently
// updated session. Errors degrade to an empty history.
func (s *Service) LoadChatHistory(userID string) []models.StoredMessage {
	if userID == "" {
		return []models.StoredMessage{}
	}

	todayID := util.LegacySessionID(time.Now())
	state, err := s.store.GetSession(userID, todayID)
	if err != nil {
		slog.Error("History.LoadChatHistory legacy lookup failed", "error", err, "userID", userID)
		return []models.StoredMessage{}
	}
	if state != nil && len(state.Messages) > 0 {
		return state.Messages
	}

	states, err := s.store.ListSessions(userID)
	if err != nil {
		slog.Error("History.LoadChatHistory list failed", "error", err, "userID", userID)
		return []models.StoredMessage{}
	}
	for _, state := range states {
		if len(state.Messages) > 0 {
			return state.Messages
		}
	}
	return []models.StoredMessage{}
}

// ListChatSessions returns list-view summaries of the user's sessions, most
// recently updated first. Sessions without messages are hidden. Errors degrade
// to an empty list so the session drawer still renders.
func (s *Service) ListChatSessions(userID string) []models.ChatSession {
	if userID == "" {
		return []models.ChatSession{}
	}

	states, err := s.store.ListSessions(userID)
	if err != nil {
		slog.Error("History.ListChatSessions failed", "error", err, "userID", userID)
		return []models.ChatSession{}
	}

	sessions := make([]models.ChatSession, 0, len(states))
	for _, state := range states {
		if len(state.Messages) == 0 {
			continue
		}
		sessions = append(sessions, models.ChatSession{
			ID:           state.SessionID,
			Date:         sessionDate(state),
			MessageCount: len(state.Messages),
			Preview:      sessionPreview(state.Messages),
			LastUpdated:  state.LastUpdated.Time(),
			CustomName:   state.CustomName,
		})
	}
	slog.Debug("History.ListChatSessions succeeded", "userID", userID, "count", len(sessions))
	return sessions
}

// Delete removes a stored session.
func (s *Service) Delete(userID, sessionID string) error {
	if userID == "" {
		return models.ErrNotAuthenticated
	}
	if err := s.store.DeleteSession(userID, sessionID); err != nil {
		slog.Error("History.Delete failed", "error", err, "userID", userID, "sessionID", sessionID)
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	slog.Debug("History.Delete succeeded", "userID", userID, "sessionID", sessionID)
	return nil
}

// Rename sets a session's custom name. The name is trimmed; an empty result
// clears the custom name.
func (s *Service) Rename(userID, sessionID, name string) error {
	if userID == "" {
		return models.ErrNotAuthenticated
	}
	if err := s.store.SetSessionName(userID, sessionID, strings.TrimSpace(name)); err != nil {
		slog.Error("History.Rename failed", "error", err, "userID", userID, "sessionID", sessionID)
		return fmt.Errorf("failed to rename session %s: %w", sessionID, err)
	}
	slog.Debug("History.Rename succeeded", "userID", userID, "sessionID", sessionID)
	return nil
}

// sessionDate derives the session's calendar date from its id: new ids embed
// an epoch-millis timestamp, legacy ids are the date itself. Unrecognized ids
// fall back to the last-updated time.
func sessionDate(state models.ChatSessionState) time.Time {
	id := state.SessionID
	if strings.HasPrefix(id, "session_") {
		parts := strings.Split(id, "_")
		if len(parts) >= 2 {
			if millis, err := strconv.ParseInt(parts[1], 10, 64); err == nil {
				return models.Timestamp(millis).Time()
			}
		}
	}
	if date, err := time.ParseInLocation("2006-01-02", id, time.UTC); err == nil {
		return date
	}
	return state.LastUpdated.Time()
}

// sessionPreview takes the tail of the shopper's last message, falling back
// to the last message of any sender.
func sessionPreview(messages []models.StoredMessage) string {
	var content string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Sender == models.SenderUser {
			content = messages[i].Content
			break
		}
	}
	if content == "" && len(messages) > 0 {
		content = messages[len(messages)-1].Content
	}

	runes := []rune(content)
	if len(runes) > PreviewRuneLimit {
		runes = runes[len(runes)-PreviewRuneLimit:]
	}
	return string(runes)
}
