package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/trendella/trendella/internal/history"
	"github.com/trendella/trendella/internal/models"
	"github.com/trendella/trendella/internal/store"
)

func newTestManager(t *testing.T) (*Manager, store.Store) {
	t.Helper()
	backing := store.NewInMemoryStore()
	manager := NewManager(history.NewService(backing), &stubRecommender{}, WithSaveDelay(10*time.Millisecond))
	t.Cleanup(manager.Flush)
	return manager, backing
}

func TestHandleMessagePersistsDebounced(t *testing.T) {
	manager, backing := newTestManager(t)

	resp, err := manager.HandleMessage(context.Background(), "alice", "", "27")
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	if resp.SessionID == "" || resp.CurrentStep != 1 {
		t.Fatalf("response = %+v", resp)
	}

	// Debounce means nothing is stored immediately.
	if state, _ := backing.GetSession("alice", resp.SessionID); state != nil {
		t.Error("session persisted before debounce delay")
	}
	time.Sleep(50 * time.Millisecond)
	state, err := backing.GetSession("alice", resp.SessionID)
	if err != nil || state == nil {
		t.Fatalf("session not persisted after delay: (%v, %v)", state, err)
	}
	if state.CurrentStep != 1 {
		t.Errorf("persisted step = %d", state.CurrentStep)
	}
}

func TestHandleMessageContinuesSameConversation(t *testing.T) {
	manager, _ := newTestManager(t)

	first, err := manager.HandleMessage(context.Background(), "alice", "", "27")
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	second, err := manager.HandleMessage(context.Background(), "alice", "", "female")
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	if second.SessionID != first.SessionID {
		t.Errorf("session changed between turns: %s then %s", first.SessionID, second.SessionID)
	}
	if second.CurrentStep != 2 {
		t.Errorf("step = %d, want 2", second.CurrentStep)
	}
}

func TestGuestsGetSeparateConversations(t *testing.T) {
	manager, backing := newTestManager(t)

	first, err := manager.HandleMessage(context.Background(), "", "", "27")
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	second, err := manager.HandleMessage(context.Background(), "", "", "30")
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	if first.SessionID == second.SessionID {
		t.Error("two fresh guest turns share a session")
	}

	// Guest turns with an explicit session id stay in that conversation.
	followUp, err := manager.HandleMessage(context.Background(), "", first.SessionID, "female")
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	if followUp.SessionID != first.SessionID || followUp.CurrentStep != 2 {
		t.Errorf("guest follow-up = %+v", followUp)
	}

	// Guest sessions never reach the store.
	time.Sleep(50 * time.Millisecond)
	if state, _ := backing.GetSession("", first.SessionID); state != nil {
		t.Error("guest session was persisted")
	}
}

func TestSelectSessionNewChat(t *testing.T) {
	manager, backing := newTestManager(t)

	pristine, err := manager.SelectSession("alice", "")
	if err != nil {
		t.Fatalf("SelectSession failed: %v", err)
	}
	// Selecting new again without any user message keeps the same chat.
	again, err := manager.SelectSession("alice", "")
	if err != nil {
		t.Fatalf("SelectSession failed: %v", err)
	}
	if again.SessionID != pristine.SessionID {
		t.Errorf("pristine chat was replaced: %s then %s", pristine.SessionID, again.SessionID)
	}

	if _, err := manager.HandleMessage(context.Background(), "alice", "", "27"); err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	fresh, err := manager.SelectSession("alice", "")
	if err != nil {
		t.Fatalf("SelectSession failed: %v", err)
	}
	if fresh.SessionID == pristine.SessionID {
		t.Error("new chat should have a new session id")
	}
	if len(fresh.Messages) != 2 || fresh.CurrentStep != 0 {
		t.Errorf("fresh chat = %+v", fresh)
	}

	// Switching away flushed the pending save immediately.
	state, err := backing.GetSession("alice", pristine.SessionID)
	if err != nil || state == nil {
		t.Errorf("previous session not flushed on switch: (%v, %v)", state, err)
	}
}

func TestSelectSessionRestores(t *testing.T) {
	manager, _ := newTestManager(t)

	started, err := manager.HandleMessage(context.Background(), "alice", "", "27")
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	if _, err := manager.SelectSession("alice", ""); err != nil {
		t.Fatalf("SelectSession(new) failed: %v", err)
	}

	restored, err := manager.SelectSession("alice", started.SessionID)
	if err != nil {
		t.Fatalf("SelectSession(restore) failed: %v", err)
	}
	if restored.SessionID != started.SessionID {
		t.Errorf("restored id = %s", restored.SessionID)
	}
	if restored.CurrentStep != 1 {
		t.Errorf("restored step = %d, want 1", restored.CurrentStep)
	}
	if len(restored.Messages) < 4 {
		t.Errorf("restored thread has %d messages", len(restored.Messages))
	}

	if _, err := manager.SelectSession("alice", "session_000_missing"); !errors.Is(err, models.ErrSessionNotFound) {
		t.Errorf("missing session select = %v, want ErrSessionNotFound", err)
	}
}

func TestDeleteActiveSessionResets(t *testing.T) {
	manager, backing := newTestManager(t)

	started, err := manager.HandleMessage(context.Background(), "alice", "", "27")
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	manager.Flush()

	if err := manager.DeleteSession("alice", started.SessionID); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if state, _ := backing.GetSession("alice", started.SessionID); state != nil {
		t.Error("session still stored after delete")
	}

	next, err := manager.SelectSession("alice", "")
	if err != nil {
		t.Fatalf("SelectSession failed: %v", err)
	}
	if next.SessionID == started.SessionID {
		t.Error("active conversation was not reset after delete")
	}

	if err := manager.DeleteSession("", "whatever"); !errors.Is(err, models.ErrNotAuthenticated) {
		t.Errorf("guest delete = %v, want ErrNotAuthenticated", err)
	}
}

func TestRenameSessionFlushesFirst(t *testing.T) {
	manager, backing := newTestManager(t)

	started, err := manager.HandleMessage(context.Background(), "alice", "", "27")
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	// Rename right away: the pending save must land before the rename.
	if err := manager.RenameSession("alice", started.SessionID, "Gift hunt"); err != nil {
		t.Fatalf("RenameSession failed: %v", err)
	}
	state, _ := backing.GetSession("alice", started.SessionID)
	if state == nil || state.CustomName != "Gift hunt" {
		t.Errorf("renamed state = %+v", state)
	}
}

func TestSessionsAndHistory(t *testing.T) {
	manager, _ := newTestManager(t)

	started, err := manager.HandleMessage(context.Background(), "alice", "", "27")
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}

	sessions := manager.Sessions("alice")
	if len(sessions) != 1 || sessions[0].ID != started.SessionID {
		t.Errorf("sessions = %+v", sessions)
	}

	messages := manager.History("alice")
	if len(messages) == 0 {
		t.Error("history should include the flushed conversation")
	}

	if got := manager.Sessions(""); len(got) != 0 {
		t.Errorf("guest sessions = %+v", got)
	}
}
