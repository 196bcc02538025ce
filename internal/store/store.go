// Package store provides storage backends for Trendella chat sessions and
// wishlists.
//
// It includes an in-memory store for tests and single-process setups, plus
// SQLite and PostgreSQL backed stores for persistent deployments.
package store

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/trendella/trendella/internal/models"
)

// Store is the persistence surface for per-user chat sessions and wishlists.
// Lookups for absent rows return nil without an error.
type Store interface {
	GetSession(userID, sessionID string) (*models.ChatSessionState, error)
	UpsertSession(userID string, state models.ChatSessionState) error
	ListSessions(userID string) ([]models.ChatSessionState, error)
	DeleteSession(userID, sessionID string) error
	SetSessionName(userID, sessionID, name string) error

	AddWishlistItem(userID string, product models.Product) error
	RemoveWishlistItem(userID, productStore, productID string) error
	ListWishlist(userID string) ([]models.Product, error)

	Close() error
}

// Opts holds configuration options for store implementations.
type Opts struct {
	DSN string
}

// Option defines a configuration option for store implementations.
type Option func(*Opts)

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DSN type constants returned by DetectDSNType.
const (
	DSNTypePostgres = "postgres"
	DSNTypeSQLite   = "sqlite"
)

// DetectDSNType classifies a DSN as PostgreSQL or SQLite. Anything that does
// not look like a Postgres URL or key/value connection string is treated as a
// SQLite file path.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return DSNTypePostgres
	}
	if strings.Contains(dsn, "host=") || strings.Contains(dsn, "dbname=") {
		return DSNTypePostgres
	}
	return DSNTypeSQLite
}

// InMemoryStore keeps sessions and wishlists in process memory. Safe for
// concurrent use.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]map[string]models.ChatSessionState
	wishlist map[string][]models.Product
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]map[string]models.ChatSessionState),
		wishlist: make(map[string][]models.Product),
	}
}

func (s *InMemoryStore) GetSession(userID, sessionID string) (*models.ChatSessionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.sessions[userID][sessionID]
	if !ok {
		return nil, nil
	}
	return &state, nil
}

// UpsertSession saves session state. An existing custom name is never
// overwritten here; renames go through SetSessionName.
func (s *InMemoryStore) UpsertSession(userID string, state models.ChatSessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID, ok := s.sessions[userID]
	if !ok {
		byID = make(map[string]models.ChatSessionState)
		s.sessions[userID] = byID
	}
	if existing, ok := byID[state.SessionID]; ok {
		state.CustomName = existing.CustomName
	}
	byID[state.SessionID] = state
	slog.Debug("InMemoryStore UpsertSession succeeded", "userID", userID, "sessionID", state.SessionID)
	return nil
}

func (s *InMemoryStore) ListSessions(userID string) ([]models.ChatSessionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	states := make([]models.ChatSessionState, 0, len(s.sessions[userID]))
	for _, state := range s.sessions[userID] {
		states = append(states, state)
	}
	sort.Slice(states, func(i, j int) bool {
		return states[i].LastUpdated > states[j].LastUpdated
	})
	return states, nil
}

func (s *InMemoryStore) DeleteSession(userID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions[userID], sessionID)
	return nil
}

// SetSessionName renames a session. An empty name clears the custom name.
func (s *InMemoryStore) SetSessionName(userID, sessionID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.sessions[userID][sessionID]
	if !ok {
		return models.ErrSessionNotFound
	}
	state.CustomName = name
	s.sessions[userID][sessionID] = state
	return nil
}

// AddWishlistItem saves a product, replacing any prior entry with the same
// store and product id.
func (s *InMemoryStore) AddWishlistItem(userID string, product models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.wishlist[userID]
	for i, item := range items {
		if item.Key() == product.Key() {
			items[i] = product
			return nil
		}
	}
	s.wishlist[userID] = append(items, product)
	return nil
}

func (s *InMemoryStore) RemoveWishlistItem(userID, productStore, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.wishlist[userID]
	key := productStore + "|" + productID
	for i, item := range items {
		if item.Key() == key {
			s.wishlist[userID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *InMemoryStore) ListWishlist(userID string) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]models.Product, len(s.wishlist[userID]))
	copy(items, s.wishlist[userID])
	return items, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
