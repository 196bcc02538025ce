// Package models defines session persistence structures for Trendella.
package models

import "time"

// StoredMessage is the persisted form of a ChatMessage. Quick-reply options
// are a live-conversation concern and are not stored.
type StoredMessage struct {
	ID        string    `json:"id"`
	Sender    Sender    `json:"sender"`
	Content   string    `json:"content"`
	Variant   Variant   `json:"variant,omitempty"`
	Timestamp Timestamp `json:"timestamp"`
}

// ChatMessage converts the stored form back to a live message.
func (m StoredMessage) ChatMessage() ChatMessage {
	return ChatMessage{
		ID:      m.ID,
		Sender:  m.Sender,
		Content: m.Content,
		Variant: m.Variant,
	}
}

// StoreMessage converts a live message to its persisted form with the given
// timestamp.
func StoreMessage(m ChatMessage, ts Timestamp) StoredMessage {
	return StoredMessage{
		ID:        m.ID,
		Sender:    m.Sender,
		Content:   m.Content,
		Variant:   m.Variant,
		Timestamp: ts,
	}
}

// ChatSessionState is one persisted conversation: its message history, the
// profile snapshot, the last recommendation, and the question-flow position.
type ChatSessionState struct {
	SessionID      string             `json:"session_id"`
	Messages       []StoredMessage    `json:"messages"`
	Recommendation *RecommendResponse `json:"recommendation"`
	Profile        RecipientProfile   `json:"profile"`
	CurrentStep    int                `json:"current_step"`
	LastUpdated    Timestamp          `json:"last_updated"`
	CustomName     string             `json:"custom_name,omitempty"`
}

// UserMessageCount reports how many messages in the state were written by the
// shopper.
func (s *ChatSessionState) UserMessageCount() int {
	count := 0
	for _, m := range s.Messages {
		if m.Sender == SenderUser {
			count++
		}
	}
	return count
}

// ChatSession is the read-only list-view summary of a session document.
// It is recomputed on every list query and never stored.
type ChatSession struct {
	ID           string    `json:"id"`
	Date         time.Time `json:"date"`
	MessageCount int       `json:"message_count"`
	Preview      string    `json:"preview"`
	LastUpdated  time.Time `json:"last_updated"`
	CustomName   string    `json:"custom_name,omitempty"`
}
