package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Xreatlabs/Helium-sub000/internal/database"
	"github.com/Xreatlabs/Helium-sub000/internal/models"
	"github.com/Xreatlabs/Helium-sub000/internal/sweeper"
)

type AdminStore interface {
	ListSubscriptions(ctx context.Context) ([]models.WebhookSubscription, error)
	GetSubscription(ctx context.Context, id uuid.UUID) (*models.WebhookSubscription, error)
	CreateSubscription(ctx context.Context, s *models.WebhookSubscription) error
	UpdateSubscription(ctx context.Context, s *models.WebhookSubscription) error
	DeleteSubscription(ctx context.Context, id uuid.UUID) error
	ToggleSubscription(ctx context.Context, id uuid.UUID) error
	AdjustCoins(ctx context.Context, userID string, delta int64) (int64, error)
}

type PanelAdmin interface {
	ClearCache(ctx context.Context) error
	RateLimitInfo() models.RateLimitInfo
}

type SweepRunner interface {
	RunNow(ctx context.Context) (sweeper.Summary, error)
}

type AdminHandler struct {
	store    AdminStore
	panel    PanelAdmin
	sweeps   SweepRunner
	events   EventTrigger
	validate *validator.Validate
	logger   *zap.Logger
}

func NewAdminHandler(store AdminStore, panel PanelAdmin, sweeps SweepRunner, events EventTrigger, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		store:    store,
		panel:    panel,
		sweeps:   sweeps,
		events:   events,
		validate: NewValidator(),
		logger:   logger,
	}
}

type webhookRequest struct {
	Name       string   `json:"name"`
	TargetURL  string   `json:"target_url"`
	EventTypes []string `json:"event_types"`
	Enabled    *bool    `json:"enabled"`
}

func (req webhookRequest) apply(s *models.WebhookSubscription) {
	s.Name = req.Name
	s.TargetURL = req.TargetURL
	s.EventTypes = req.EventTypes
	s.Enabled = req.Enabled == nil || *req.Enabled
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, `{"error":"Invalid webhook ID"}`, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func (h *AdminHandler) ListWebhooks(w http.ResponseWriter, r *http.Request) {
	subs, err := h.store.ListSubscriptions(r.Context())
	if err != nil {
		h.logger.Error("failed to list webhooks", zap.Error(err))
		http.Error(w, `{"error":"Failed to list webhooks"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (h *AdminHandler) CreateWebhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}

	sub := &models.WebhookSubscription{}
	req.apply(sub)
	if err := h.validate.Struct(sub); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	if err := h.store.CreateSubscription(r.Context(), sub); err != nil {
		h.logger.Error("failed to create webhook", zap.Error(err))
		http.Error(w, `{"error":"Failed to create webhook"}`, http.StatusInternalServerError)
		return
	}

	h.logger.Info("created webhook", zap.String("webhook_id", sub.ID.String()), zap.String("name", sub.Name))
	writeJSON(w, http.StatusCreated, sub)
}

func (h *AdminHandler) UpdateWebhook(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}

	sub, err := h.store.GetSubscription(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		http.Error(w, `{"error":"Webhook not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to load webhook", zap.String("webhook_id", id.String()), zap.Error(err))
		http.Error(w, `{"error":"Failed to update webhook"}`, http.StatusInternalServerError)
		return
	}

	if req.Enabled == nil {
		enabled := sub.Enabled
		req.Enabled = &enabled
	}
	req.apply(sub)
	if err := h.validate.Struct(sub); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	if err := h.store.UpdateSubscription(r.Context(), sub); err != nil {
		h.logger.Error("failed to update webhook", zap.String("webhook_id", id.String()), zap.Error(err))
		http.Error(w, `{"error":"Failed to update webhook"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (h *AdminHandler) DeleteWebhook(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteSubscription(r.Context(), id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			http.Error(w, `{"error":"Webhook not found"}`, http.StatusNotFound)
			return
		}
		h.logger.Error("failed to delete webhook", zap.String("webhook_id", id.String()), zap.Error(err))
		http.Error(w, `{"error":"Failed to delete webhook"}`, http.StatusInternalServerError)
		return
	}

	h.logger.Info("deleted webhook", zap.String("webhook_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) ToggleWebhook(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.store.ToggleSubscription(r.Context(), id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			http.Error(w, `{"error":"Webhook not found"}`, http.StatusNotFound)
			return
		}
		h.logger.Error("failed to toggle webhook", zap.String("webhook_id", id.String()), zap.Error(err))
		http.Error(w, `{"error":"Failed to toggle webhook"}`, http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type testWebhookRequest struct {
	EventType string `json:"event_type" validate:"required,event_type"`
}

// TestWebhook fires a sample event synchronously and reports how delivery went.
func (h *AdminHandler) TestWebhook(w http.ResponseWriter, r *http.Request) {
	var req testWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	report := h.events.TriggerEvent(r.Context(), models.EventType(req.EventType), models.EventMetadata{
		Fields: []models.EventField{{Name: "Test", Value: "This is a test notification."}},
	})
	writeJSON(w, http.StatusOK, report)
}

type adjustCoinsRequest struct {
	Amount int64 `json:"amount" validate:"ne=0"`
}

func (h *AdminHandler) AdjustCoins(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]

	var req adjustCoinsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	balance, err := h.store.AdjustCoins(r.Context(), userID, req.Amount)
	if errors.Is(err, database.ErrInsufficientCoins) {
		http.Error(w, `{"error":"User does not have enough coins"}`, http.StatusConflict)
		return
	}
	if err != nil {
		h.logger.Error("failed to adjust coins", zap.String("user_id", userID), zap.Error(err))
		http.Error(w, `{"error":"Failed to adjust coins"}`, http.StatusInternalServerError)
		return
	}

	eventType, amount := models.EventCoinsAdded, req.Amount
	if amount < 0 {
		eventType, amount = models.EventCoinsRemoved, -amount
	}
	h.events.TriggerEvent(context.WithoutCancel(r.Context()), eventType, models.EventMetadata{UserID: userID, Coins: &amount})

	writeJSON(w, http.StatusOK, map[string]any{"user_id": userID, "coins": balance})
}

func (h *AdminHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.panel.ClearCache(r.Context()); err != nil {
		h.logger.Error("failed to clear panel cache", zap.Error(err))
		http.Error(w, `{"error":"Failed to clear cache"}`, http.StatusInternalServerError)
		return
	}
	h.logger.Info("panel cache cleared")
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) RateLimit(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.panel.RateLimitInfo())
}

// Sweep runs an expiration sweep now. It refuses while another sweep is running.
func (h *AdminHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	summary, err := h.sweeps.RunNow(r.Context())
	if errors.Is(err, sweeper.ErrSweepInProgress) {
		http.Error(w, `{"error":"A sweep is already running"}`, http.StatusConflict)
		return
	}
	if err != nil {
		h.logger.Error("manual sweep failed", zap.Error(err))
		http.Error(w, `{"error":"Sweep failed"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
