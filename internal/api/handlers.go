// Package api provides HTTP handlers for Trendella endpoints.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/trendella/trendella/internal/auth"
	"github.com/trendella/trendella/internal/models"
)

// chatRequest is the body of POST /chat.
type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	userID := auth.UserID(r.Context())
	slog.Debug("Server.chatHandler: processing chat request", "userID", userID)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.chatHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing required field: message"))
		return
	}

	resp, err := s.manager.HandleMessage(r.Context(), userID, req.SessionID, req.Message)
	if err != nil {
		slog.Error("Server.chatHandler: failed to handle message", "error", err, "userID", userID)
		writeErrorResponse(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(resp))
}

func (s *Server) listSessionsHandler(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	sessions := s.manager.Sessions(userID)
	writeJSONResponse(w, http.StatusOK, models.Success(sessions))
}

func (s *Server) getSessionHandler(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	sessionID := r.PathValue("id")

	state, err := s.historySvc.LoadChatSession(userID, sessionID)
	if err != nil {
		slog.Error("Server.getSessionHandler: load failed", "error", err, "userID", userID, "sessionID", sessionID)
		writeErrorResponse(w, err)
		return
	}
	if state == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Session not found"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(state))
}

func (s *Server) deleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	sessionID := r.PathValue("id")

	if err := s.manager.DeleteSession(userID, sessionID); err != nil {
		slog.Warn("Server.deleteSessionHandler: delete failed", "error", err, "userID", userID, "sessionID", sessionID)
		writeErrorResponse(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Session deleted", nil))
}

// renameRequest is the body of POST /sessions/{id}/rename.
type renameRequest struct {
	Name string `json:"name"`
}

func (s *Server) renameSessionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	userID := auth.UserID(r.Context())
	sessionID := r.PathValue("id")

	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.renameSessionHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	if err := s.manager.RenameSession(userID, sessionID, req.Name); err != nil {
		slog.Warn("Server.renameSessionHandler: rename failed", "error", err, "userID", userID, "sessionID", sessionID)
		writeErrorResponse(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Session renamed", nil))
}

func (s *Server) autonameSessionHandler(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	sessionID := r.PathValue("id")

	if s.gaClient == nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, models.Error("Session auto-naming not configured"))
		return
	}
	if userID == "" {
		writeJSONResponse(w, http.StatusUnauthorized, models.Error(models.ErrNotAuthenticated.Error()))
		return
	}

	state, err := s.historySvc.LoadChatSession(userID, sessionID)
	if err != nil {
		writeErrorResponse(w, err)
		return
	}
	if state == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Session not found"))
		return
	}

	name, err := s.gaClient.SessionName(r.Context(), state.Messages)
	if err != nil {
		slog.Error("Server.autonameSessionHandler: naming failed", "error", err, "userID", userID, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to generate session name"))
		return
	}

	if err := s.manager.RenameSession(userID, sessionID, name); err != nil {
		writeErrorResponse(w, err)
		return
	}
	slog.Info("Server.autonameSessionHandler: session named", "userID", userID, "sessionID", sessionID, "name", name)
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]string{"name": name}))
}

func (s *Server) selectSessionHandler(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	sessionID := r.PathValue("id")

	resp, err := s.manager.SelectSession(userID, sessionID)
	if err != nil {
		slog.Warn("Server.selectSessionHandler: select failed", "error", err, "userID", userID, "sessionID", sessionID)
		writeErrorResponse(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(resp))
}

func (s *Server) newSessionHandler(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	resp, err := s.manager.SelectSession(userID, "")
	if err != nil {
		slog.Error("Server.newSessionHandler: failed", "error", err, "userID", userID)
		writeErrorResponse(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(resp))
}

func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	messages := s.manager.History(userID)
	writeJSONResponse(w, http.StatusOK, models.Success(messages))
}

func (s *Server) listWishlistHandler(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	items, err := s.wishlistSvc.List(userID)
	if err != nil {
		slog.Error("Server.listWishlistHandler: failed", "error", err, "userID", userID)
		writeErrorResponse(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(items))
}

func (s *Server) addWishlistHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	userID := auth.UserID(r.Context())

	var product models.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		slog.Warn("Server.addWishlistHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	if err := s.wishlistSvc.Add(userID, product); err != nil {
		slog.Warn("Server.addWishlistHandler: add failed", "error", err, "userID", userID, "key", product.Key())
		writeErrorResponse(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Product saved to wishlist", nil))
}

func (s *Server) removeWishlistHandler(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	productStore := r.PathValue("store")
	productID := r.PathValue("id")

	if err := s.wishlistSvc.Remove(userID, productStore, productID); err != nil {
		slog.Warn("Server.removeWishlistHandler: remove failed", "error", err, "userID", userID, "store", productStore, "productID", productID)
		writeErrorResponse(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Product removed from wishlist", nil))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]string{"service": "trendella"}))
}
