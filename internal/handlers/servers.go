package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Xreatlabs/Helium-sub000/internal/database"
	"github.com/Xreatlabs/Helium-sub000/internal/middleware"
	"github.com/Xreatlabs/Helium-sub000/internal/models"
	"github.com/Xreatlabs/Helium-sub000/internal/renewal"
	"github.com/Xreatlabs/Helium-sub000/internal/services"
)

// ServerPanel is the part of the panel client used by user routes.
type ServerPanel interface {
	CreateServer(ctx context.Context, req models.CreateServerRequest) (*models.Server, error)
	DeleteServer(ctx context.Context, id string, force bool) error
}

type RenewalManager interface {
	Track(ctx context.Context, resourceID, ownerID string) (*models.TrackedResource, error)
	Renew(ctx context.Context, userID, resourceID string) (*models.TrackedResource, error)
	SetAutoRenew(ctx context.Context, userID, resourceID string, enabled bool) error
	Status(ctx context.Context, userID, resourceID string) (*renewal.Status, error)
	Untrack(ctx context.Context, userID, resourceID string) error
}

type EventTrigger interface {
	TriggerEvent(ctx context.Context, eventType models.EventType, meta models.EventMetadata) models.DispatchReport
}

type ServerHandler struct {
	panel    ServerPanel
	renewals RenewalManager
	events   EventTrigger
	validate *validator.Validate
	logger   *zap.Logger
}

// NewServerHandler builds the user routes. events should not block, e.g. a notifier.Detached.
func NewServerHandler(panel ServerPanel, renewals RenewalManager, events EventTrigger, logger *zap.Logger) *ServerHandler {
	return &ServerHandler{
		panel:    panel,
		renewals: renewals,
		events:   events,
		validate: NewValidator(),
		logger:   logger,
	}
}

type createServerResponse struct {
	Server  *models.Server          `json:"server"`
	Renewal *models.TrackedResource `json:"renewal,omitempty"`
}

// CreateServer provisions a server for the session's panel user and starts tracking it.
func (h *ServerHandler) CreateServer(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())

	var req models.CreateServerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}
	req.User = session.PteroID
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	server, err := h.panel.CreateServer(r.Context(), req)
	if err != nil {
		h.logger.Error("failed to create server", zap.String("user_id", session.UserID()), zap.Error(err))
		http.Error(w, `{"error":"Failed to create server. Please try again later."}`, http.StatusBadGateway)
		return
	}

	resourceID := strconv.Itoa(server.ID)
	tracked, err := h.renewals.Track(r.Context(), resourceID, session.UserID())
	if err != nil {
		// the server exists on the panel; report it and let an admin reconcile tracking
		h.logger.Error("created server is not tracked", zap.String("resource_id", resourceID), zap.Error(err))
	}

	ram, disk, cpu := server.Limits.Memory, server.Limits.Disk, server.Limits.CPU
	h.events.TriggerEvent(r.Context(), models.EventResourceCreated, models.EventMetadata{
		UserID:       session.UserID(),
		Username:     session.Username,
		ResourceID:   resourceID,
		ResourceName: server.Name,
		RAM:          &ram,
		Disk:         &disk,
		CPU:          &cpu,
	})

	h.logger.Info("server created", zap.String("resource_id", resourceID), zap.String("user_id", session.UserID()))
	writeJSON(w, http.StatusCreated, createServerResponse{Server: server, Renewal: tracked})
}

func (h *ServerHandler) RenewalStatus(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())

	status, err := h.renewals.Status(r.Context(), session.UserID(), mux.Vars(r)["id"])
	if err != nil {
		h.writeRenewalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *ServerHandler) Renew(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())
	id := mux.Vars(r)["id"]

	tracked, err := h.renewals.Renew(r.Context(), session.UserID(), id)
	if err != nil {
		h.logger.Warn("renewal failed", zap.String("resource_id", id), zap.String("user_id", session.UserID()), zap.Error(err))
		h.writeRenewalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tracked)
}

type autoRenewRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

func (h *ServerHandler) SetAutoRenew(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())

	var req autoRenewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	if err := h.renewals.SetAutoRenew(r.Context(), session.UserID(), mux.Vars(r)["id"], *req.Enabled); err != nil {
		h.writeRenewalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"auto_renew": *req.Enabled})
}

// DeleteServer removes one of the caller's servers from the panel and stops tracking it.
func (h *ServerHandler) DeleteServer(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())
	id := mux.Vars(r)["id"]

	if _, err := h.renewals.Status(r.Context(), session.UserID(), id); err != nil {
		h.writeRenewalError(w, err)
		return
	}

	if err := h.panel.DeleteServer(r.Context(), id, false); err != nil && !services.IsNotFound(err) {
		h.logger.Error("failed to delete server", zap.String("resource_id", id), zap.Error(err))
		http.Error(w, `{"error":"Failed to delete server. Please try again later."}`, http.StatusBadGateway)
		return
	}

	if err := h.renewals.Untrack(r.Context(), session.UserID(), id); err != nil {
		h.logger.Error("deleted server is still tracked", zap.String("resource_id", id), zap.Error(err))
	}

	h.events.TriggerEvent(r.Context(), models.EventResourceDeleted, models.EventMetadata{
		UserID:     session.UserID(),
		Username:   session.Username,
		ResourceID: id,
	})
	w.WriteHeader(http.StatusNoContent)
}

// writeRenewalError maps lifecycle errors to responses. Anything unexpected gets
// the generic message so retry and panel details never reach the user.
func (h *ServerHandler) writeRenewalError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		http.Error(w, `{"error":"Server not found"}`, http.StatusNotFound)
	case errors.Is(err, renewal.ErrNotOwner):
		http.Error(w, `{"error":"You do not own this server"}`, http.StatusForbidden)
	case errors.Is(err, renewal.ErrRenewalDisabled):
		http.Error(w, `{"error":"Server renewals are disabled"}`, http.StatusBadRequest)
	case errors.Is(err, database.ErrInsufficientCoins):
		http.Error(w, `{"error":"You don't have enough coins to renew this server"}`, http.StatusPaymentRequired)
	default:
		h.logger.Error("renewal request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, renewal.FailedMessage)
	}
}
