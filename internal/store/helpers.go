// Package store provides storage backends for Trendella chat sessions and
// wishlists.
//
// This file holds row encoding and decoding shared by the SQL backends.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/trendella/trendella/internal/models"
)

// scanSessionRow decodes one chat_sessions row. The scan argument is either
// sql.Row.Scan or sql.Rows.Scan; column order must match the session SELECTs.
func scanSessionRow(scan func(dest ...any) error) (*models.ChatSessionState, error) {
	var (
		state              models.ChatSessionState
		messagesJSON       string
		recommendationJSON sql.NullString
		profileJSON        string
		customName         sql.NullString
		lastUpdated        int64
	)

	err := scan(&state.SessionID, &messagesJSON, &recommendationJSON, &profileJSON,
		&state.CurrentStep, &customName, &lastUpdated)
	if err != nil {
		return nil, err
	}

	state.Messages = []models.StoredMessage{}
	if messagesJSON != "" {
		if err := json.Unmarshal([]byte(messagesJSON), &state.Messages); err != nil {
			return nil, fmt.Errorf("failed to decode session messages: %w", err)
		}
	}

	if recommendationJSON.Valid && recommendationJSON.String != "" {
		var recommendation models.RecommendResponse
		if err := json.Unmarshal([]byte(recommendationJSON.String), &recommendation); err != nil {
			return nil, fmt.Errorf("failed to decode session recommendation: %w", err)
		}
		recommendation.Normalize()
		state.Recommendation = &recommendation
	}

	state.Profile = models.DefaultProfile()
	if profileJSON != "" {
		if err := json.Unmarshal([]byte(profileJSON), &state.Profile); err != nil {
			return nil, fmt.Errorf("failed to decode session profile: %w", err)
		}
	}

	state.CustomName = customName.String
	state.LastUpdated = models.Timestamp(lastUpdated)
	return &state, nil
}

// encodeSessionColumns serializes the JSON document columns of a session row.
// The recommendation column is nil when the session has no recommendation yet.
func encodeSessionColumns(state models.ChatSessionState) (messages string, recommendation any, profile string, err error) {
	if state.Messages == nil {
		state.Messages = []models.StoredMessage{}
	}
	messagesBytes, err := json.Marshal(state.Messages)
	if err != nil {
		return "", nil, "", fmt.Errorf("failed to encode session messages: %w", err)
	}

	if state.Recommendation != nil {
		recommendationBytes, err := json.Marshal(state.Recommendation)
		if err != nil {
			return "", nil, "", fmt.Errorf("failed to encode session recommendation: %w", err)
		}
		recommendation = string(recommendationBytes)
	}

	profileBytes, err := json.Marshal(state.Profile)
	if err != nil {
		return "", nil, "", fmt.Errorf("failed to encode session profile: %w", err)
	}

	return string(messagesBytes), recommendation, string(profileBytes), nil
}

// nullableString maps an empty string onto SQL NULL.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func encodeProduct(product models.Product) (string, error) {
	payload, err := json.Marshal(product)
	if err != nil {
		return "", fmt.Errorf("failed to encode wishlist product: %w", err)
	}
	return string(payload), nil
}

func decodeProduct(payload []byte) (models.Product, error) {
	var product models.Product
	if err := json.Unmarshal(payload, &product); err != nil {
		return models.Product{}, fmt.Errorf("failed to decode wishlist product: %w", err)
	}
	return product, nil
}
