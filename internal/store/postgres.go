// Package store provides storage backends for Trendella chat sessions and
// wishlists.
//
// This file implements the PostgreSQL-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/trendella/trendella/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	slog.Debug("Opening Postgres database connection")
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")
	return &PostgresStore{db: db}, nil
}

// GetSession retrieves one session document. Returns nil when the session
// does not exist.
func (s *PostgresStore) GetSession(userID, sessionID string) (*models.ChatSessionState, error) {
	query := `SELECT session_id, messages, recommendation, profile, current_step, custom_name, last_updated
			  FROM chat_sessions WHERE user_id = $1 AND session_id = $2`

	row := s.db.QueryRow(query, userID, sessionID)
	state, err := scanSessionRow(row.Scan)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore GetSession not found", "userID", userID, "sessionID", sessionID)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetSession failed", "error", err, "userID", userID, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to get session %s: %w", sessionID, err)
	}
	slog.Debug("PostgresStore GetSession found", "userID", userID, "sessionID", sessionID)
	return state, nil
}

// UpsertSession stores or updates a session document. The custom name column
// is deliberately left out of the update so a rename survives later saves.
func (s *PostgresStore) UpsertSession(userID string, state models.ChatSessionState) error {
	query := `
		INSERT INTO chat_sessions (user_id, session_id, messages, recommendation, profile, current_step, custom_name, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, session_id)
		DO UPDATE SET
			messages = EXCLUDED.messages,
			recommendation = EXCLUDED.recommendation,
			profile = EXCLUDED.profile,
			current_step = EXCLUDED.current_step,
			last_updated = EXCLUDED.last_updated`

	messagesJSON, recommendationJSON, profileJSON, err := encodeSessionColumns(state)
	if err != nil {
		slog.Error("PostgresStore UpsertSession encode failed", "error", err, "userID", userID, "sessionID", state.SessionID)
		return err
	}

	_, err = s.db.Exec(query, userID, state.SessionID, messagesJSON, recommendationJSON,
		profileJSON, state.CurrentStep, nullableString(state.CustomName), int64(state.LastUpdated))
	if err != nil {
		slog.Error("PostgresStore UpsertSession failed", "error", err, "userID", userID, "sessionID", state.SessionID)
		return fmt.Errorf("failed to upsert session %s: %w", state.SessionID, err)
	}
	slog.Debug("PostgresStore UpsertSession succeeded", "userID", userID, "sessionID", state.SessionID, "messages", len(state.Messages))
	return nil
}

// ListSessions retrieves every session document for a user, most recently
// updated first.
func (s *PostgresStore) ListSessions(userID string) ([]models.ChatSessionState, error) {
	query := `SELECT session_id, messages, recommendation, profile, current_step, custom_name, last_updated
			  FROM chat_sessions WHERE user_id = $1 ORDER BY last_updated DESC`

	rows, err := s.db.Query(query, userID)
	if err != nil {
		slog.Error("PostgresStore ListSessions query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var states []models.ChatSessionState
	for rows.Next() {
		state, err := scanSessionRow(rows.Scan)
		if err != nil {
			slog.Error("PostgresStore ListSessions scan failed", "error", err, "userID", userID)
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		states = append(states, *state)
	}
	if err := rows.Err(); err != nil {
		slog.Error("PostgresStore ListSessions rows iteration failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to iterate session rows: %w", err)
	}
	slog.Debug("PostgresStore ListSessions succeeded", "userID", userID, "count", len(states))
	return states, nil
}

// DeleteSession removes a session document.
func (s *PostgresStore) DeleteSession(userID, sessionID string) error {
	_, err := s.db.Exec(`DELETE FROM chat_sessions WHERE user_id = $1 AND session_id = $2`, userID, sessionID)
	if err != nil {
		slog.Error("PostgresStore DeleteSession failed", "error", err, "userID", userID, "sessionID", sessionID)
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	slog.Debug("PostgresStore DeleteSession succeeded", "userID", userID, "sessionID", sessionID)
	return nil
}

// SetSessionName renames a session. An empty name clears the custom name.
func (s *PostgresStore) SetSessionName(userID, sessionID, name string) error {
	result, err := s.db.Exec(`UPDATE chat_sessions SET custom_name = $1 WHERE user_id = $2 AND session_id = $3`,
		nullableString(name), userID, sessionID)
	if err != nil {
		slog.Error("PostgresStore SetSessionName failed", "error", err, "userID", userID, "sessionID", sessionID)
		return fmt.Errorf("failed to rename session %s: %w", sessionID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		slog.Debug("PostgresStore SetSessionName session not found", "userID", userID, "sessionID", sessionID)
		return models.ErrSessionNotFound
	}
	slog.Debug("PostgresStore SetSessionName succeeded", "userID", userID, "sessionID", sessionID)
	return nil
}

// AddWishlistItem stores a product, replacing any prior entry with the same
// store and product id.
func (s *PostgresStore) AddWishlistItem(userID string, product models.Product) error {
	payload, err := encodeProduct(product)
	if err != nil {
		slog.Error("PostgresStore AddWishlistItem encode failed", "error", err, "userID", userID, "key", product.Key())
		return err
	}

	query := `
		INSERT INTO wishlist_items (user_id, store, product_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, store, product_id)
		DO UPDATE SET payload = EXCLUDED.payload`

	_, err = s.db.Exec(query, userID, product.Store, product.ID, payload, int64(models.Now()))
	if err != nil {
		slog.Error("PostgresStore AddWishlistItem failed", "error", err, "userID", userID, "key", product.Key())
		return fmt.Errorf("failed to insert wishlist item %s: %w", product.Key(), err)
	}
	slog.Debug("PostgresStore AddWishlistItem succeeded", "userID", userID, "key", product.Key())
	return nil
}

// RemoveWishlistItem deletes a product from the wishlist.
func (s *PostgresStore) RemoveWishlistItem(userID, productStore, productID string) error {
	_, err := s.db.Exec(`DELETE FROM wishlist_items WHERE user_id = $1 AND store = $2 AND product_id = $3`,
		userID, productStore, productID)
	if err != nil {
		slog.Error("PostgresStore RemoveWishlistItem failed", "error", err, "userID", userID, "store", productStore, "productID", productID)
		return fmt.Errorf("failed to delete wishlist item %s|%s: %w", productStore, productID, err)
	}
	slog.Debug("PostgresStore RemoveWishlistItem succeeded", "userID", userID, "store", productStore, "productID", productID)
	return nil
}

// ListWishlist retrieves all wishlist products for a user, oldest first.
func (s *PostgresStore) ListWishlist(userID string) ([]models.Product, error) {
	rows, err := s.db.Query(`SELECT payload FROM wishlist_items WHERE user_id = $1 ORDER BY created_at ASC`, userID)
	if err != nil {
		slog.Error("PostgresStore ListWishlist query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query wishlist: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			slog.Error("PostgresStore ListWishlist scan failed", "error", err, "userID", userID)
			return nil, fmt.Errorf("failed to scan wishlist row: %w", err)
		}
		product, err := decodeProduct(payload)
		if err != nil {
			slog.Error("PostgresStore ListWishlist decode failed", "error", err, "userID", userID)
			return nil, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		slog.Error("PostgresStore ListWishlist rows iteration failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to iterate wishlist rows: %w", err)
	}
	slog.Debug("PostgresStore ListWishlist succeeded", "userID", userID, "count", len(products))
	return products, nil
}

// Close closes the PostgreSQL database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing PostgreSQL database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close PostgreSQL database", "error", err)
	}
	return err
}
