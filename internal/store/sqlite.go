// Package store provides storage backends for Trendella chat sessions and
// wishlists.
//
// This file implements the SQLite-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	"github.com/trendella/trendella/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	slog.Debug("Opening SQLite database connection")
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

// GetSession retrieves one session document. Returns nil when the session
// does not exist.
func (s *SQLiteStore) GetSession(userID, sessionID string) (*models.ChatSessionState, error) {
	query := `SELECT session_id, messages, recommendation, profile, current_step, custom_name, last_updated
			  FROM chat_sessions WHERE user_id = ? AND session_id = ?`

	row := s.db.QueryRow(query, userID, sessionID)
	state, err := scanSessionRow(row.Scan)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore GetSession not found", "userID", userID, "sessionID", sessionID)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetSession failed", "error", err, "userID", userID, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to get session %s: %w", sessionID, err)
	}
	slog.Debug("SQLiteStore GetSession found", "userID", userID, "sessionID", sessionID)
	return state, nil
}

// UpsertSession stores or updates a session document. The custom name column
// is deliberately left out of the update so a rename survives later saves.
func (s *SQLiteStore) UpsertSession(userID string, state models.ChatSessionState) error {
	query := `
		INSERT INTO chat_sessions (user_id, session_id, messages, recommendation, profile, current_step, custom_name, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, session_id)
		DO UPDATE SET
			messages = excluded.messages,
			recommendation = excluded.recommendation,
			profile = excluded.profile,
			current_step = excluded.current_step,
			last_updated = excluded.last_updated`

	messagesJSON, recommendationJSON, profileJSON, err := encodeSessionColumns(state)
	if err != nil {
		slog.Error("SQLiteStore UpsertSession encode failed", "error", err, "userID", userID, "sessionID", state.SessionID)
		return err
	}

	_, err = s.db.Exec(query, userID, state.SessionID, messagesJSON, recommendationJSON,
		profileJSON, state.CurrentStep, nullableString(state.CustomName), int64(state.LastUpdated))
	if err != nil {
		slog.Error("SQLiteStore UpsertSession failed", "error", err, "userID", userID, "sessionID", state.SessionID)
		return fmt.Errorf("failed to upsert session %s: %w", state.SessionID, err)
	}
	slog.Debug("SQLiteStore UpsertSession succeeded", "userID", userID, "sessionID", state.SessionID, "messages", len(state.Messages))
	return nil
}

// ListSessions retrieves every session document for a user, most recently
// updated first.
func (s *SQLiteStore) ListSessions(userID string) ([]models.ChatSessionState, error) {
	query := `SELECT session_id, messages, recommendation, profile, current_step, custom_name, last_updated
			  FROM chat_sessions WHERE user_id = ? ORDER BY last_updated DESC`

	rows, err := s.db.Query(query, userID)
	if err != nil {
		slog.Error("SQLiteStore ListSessions query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var states []models.ChatSessionState
	for rows.Next() {
		state, err := scanSessionRow(rows.Scan)
		if err != nil {
			slog.Error("SQLiteStore ListSessions scan failed", "error", err, "userID", userID)
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		states = append(states, *state)
	}
	if err := rows.Err(); err != nil {
		slog.Error("SQLiteStore ListSessions rows iteration failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to iterate session rows: %w", err)
	}
	slog.Debug("SQLiteStore ListSessions succeeded", "userID", userID, "count", len(states))
	return states, nil
}

// DeleteSession removes a session document.
func (s *SQLiteStore) DeleteSession(userID, sessionID string) error {
	_, err := s.db.Exec(`DELETE FROM chat_sessions WHERE user_id = ? AND session_id = ?`, userID, sessionID)
	if err != nil {
		slog.Error("SQLiteStore DeleteSession failed", "error", err, "userID", userID, "sessionID", sessionID)
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	slog.Debug("SQLiteStore DeleteSession succeeded", "userID", userID, "sessionID", sessionID)
	return nil
}

// SetSessionName renames a session. An empty name clears the custom name.
func (s *SQLiteStore) SetSessionName(userID, sessionID, name string) error {
	result, err := s.db.Exec(`UPDATE chat_sessions SET custom_name = ? WHERE user_id = ? AND session_id = ?`,
		nullableString(name), userID, sessionID)
	if err != nil {
		slog.Error("SQLiteStore SetSessionName failed", "error", err, "userID", userID, "sessionID", sessionID)
		return fmt.Errorf("failed to rename session %s: %w", sessionID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		slog.Debug("SQLiteStore SetSessionName session not found", "userID", userID, "sessionID", sessionID)
		return models.ErrSessionNotFound
	}
	slog.Debug("SQLiteStore SetSessionName succeeded", "userID", userID, "sessionID", sessionID)
	return nil
}

// AddWishlistItem stores a product, replacing any prior entry with the same
// store and product id.
func (s *SQLiteStore) AddWishlistItem(userID string, product models.Product) error {
	payload, err := encodeProduct(product)
	if err != nil {
		slog.Error("SQLiteStore AddWishlistItem encode failed", "error", err, "userID", userID, "key", product.Key())
		return err
	}

	query := `
		INSERT INTO wishlist_items (user_id, store, product_id, payload, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, store, product_id)
		DO UPDATE SET payload = excluded.payload`

	_, err = s.db.Exec(query, userID, product.Store, product.ID, payload, int64(models.Now()))
	if err != nil {
		slog.Error("SQLiteStore AddWishlistItem failed", "error", err, "userID", userID, "key", product.Key())
		return fmt.Errorf("failed to insert wishlist item %s: %w", product.Key(), err)
	}
	slog.Debug("SQLiteStore AddWishlistItem succeeded", "userID", userID, "key", product.Key())
	return nil
}

// RemoveWishlistItem deletes a product from the wishlist.
func (s *SQLiteStore) RemoveWishlistItem(userID, productStore, productID string) error {
	_, err := s.db.Exec(`DELETE FROM wishlist_items WHERE user_id = ? AND store = ? AND product_id = ?`,
		userID, productStore, productID)
	if err != nil {
		slog.Error("SQLiteStore RemoveWishlistItem failed", "error", err, "userID", userID, "store", productStore, "productID", productID)
		return fmt.Errorf("failed to delete wishlist item %s|%s: %w", productStore, productID, err)
	}
	slog.Debug("SQLiteStore RemoveWishlistItem succeeded", "userID", userID, "store", productStore, "productID", productID)
	return nil
}

// ListWishlist retrieves all wishlist products for a user, oldest first.
func (s *SQLiteStore) ListWishlist(userID string) ([]models.Product, error) {
	rows, err := s.db.Query(`SELECT payload FROM wishlist_items WHERE user_id = ? ORDER BY created_at ASC`, userID)
	if err != nil {
		slog.Error("SQLiteStore ListWishlist query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query wishlist: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			slog.Error("SQLiteStore ListWishlist scan failed", "error", err, "userID", userID)
			return nil, fmt.Errorf("failed to scan wishlist row: %w", err)
		}
		product, err := decodeProduct([]byte(payload))
		if err != nil {
			slog.Error("SQLiteStore ListWishlist decode failed", "error", err, "userID", userID)
			return nil, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		slog.Error("SQLiteStore ListWishlist rows iteration failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to iterate wishlist rows: %w", err)
	}
	slog.Debug("SQLiteStore ListWishlist succeeded", "userID", userID, "count", len(products))
	return products, nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close SQLite database", "error", err)
	}
	return err
}
