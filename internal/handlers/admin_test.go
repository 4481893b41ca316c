package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Xreatlabs/Helium-sub000/internal/database"
	"github.com/Xreatlabs/Helium-sub000/internal/models"
	"github.com/Xreatlabs/Helium-sub000/internal/sweeper"
)

type fakeAdminStore struct {
	subs     map[uuid.UUID]models.WebhookSubscription
	balances map[string]int64
	listErr  error
}

func newFakeAdminStore() *fakeAdminStore {
	return &fakeAdminStore{subs: map[uuid.UUID]models.WebhookSubscription{}, balances: map[string]int64{}}
}

func (s *fakeAdminStore) ListSubscriptions(context.Context) ([]models.WebhookSubscription, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]models.WebhookSubscription, 0, len(s.subs))
	for _, sub := range s.subs {
		out = append(out, sub)
	}
	return out, nil
}

func (s *fakeAdminStore) GetSubscription(_ context.Context, id uuid.UUID) (*models.WebhookSubscription, error) {
	sub, ok := s.subs[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &sub, nil
}

func (s *fakeAdminStore) CreateSubscription(_ context.Context, sub *models.WebhookSubscription) error {
	sub.ID = uuid.New()
	s.subs[sub.ID] = *sub
	return nil
}

func (s *fakeAdminStore) UpdateSubscription(_ context.Context, sub *models.WebhookSubscription) error {
	if _, ok := s.subs[sub.ID]; !ok {
		return database.ErrNotFound
	}
	s.subs[sub.ID] = *sub
	return nil
}

func (s *fakeAdminStore) DeleteSubscription(_ context.Context, id uuid.UUID) error {
	if _, ok := s.subs[id]; !ok {
		return database.ErrNotFound
	}
	delete(s.subs, id)
	return nil
}

func (s *fakeAdminStore) ToggleSubscription(_ context.Context, id uuid.UUID) error {
	sub, ok := s.subs[id]
	if !ok {
		return database.ErrNotFound
	}
	sub.Enabled = !sub.Enabled
	s.subs[id] = sub
	return nil
}

func (s *fakeAdminStore) AdjustCoins(_ context.Context, userID string, delta int64) (int64, error) {
	next := s.balances[userID] + delta
	if next < 0 {
		return 0, database.ErrInsufficientCoins
	}
	s.balances[userID] = next
	return next, nil
}

type fakePanelAdmin struct {
	cleared int
	info    models.RateLimitInfo
}

func (p *fakePanelAdmin) ClearCache(context.Context) error {
	p.cleared++
	return nil
}

func (p *fakePanelAdmin) RateLimitInfo() models.RateLimitInfo { return p.info }

type fakeSweeps struct {
	summary sweeper.Summary
	err     error
}

func (s *fakeSweeps) RunNow(context.Context) (sweeper.Summary, error) {
	return s.summary, s.err
}

func newAdminHandler() (*AdminHandler, *fakeAdminStore, *fakePanelAdmin, *fakeSweeps, *recordingEvents) {
	store := newFakeAdminStore()
	panel := &fakePanelAdmin{}
	sweeps := &fakeSweeps{}
	events := &recordingEvents{}
	return NewAdminHandler(store, panel, sweeps, events, zap.NewNop()), store, panel, sweeps, events
}

func adminRequest(method, target, body string, vars map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	return req
}

func TestCreateWebhook(t *testing.T) {
	h, store, _, _, _ := newAdminHandler()

	body := `{"name":"ops","target_url":"https://discord.com/api/webhooks/1/abc","event_types":["resource.suspended","*"]}`
	rec := httptest.NewRecorder()
	h.CreateWebhook(rec, adminRequest(http.MethodPost, "/admin/webhooks", body, nil))

	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.WebhookSubscription
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.True(t, created.Enabled, "new webhooks are enabled unless stated otherwise")
	assert.Contains(t, store.subs, created.ID)
}

func TestCreateWebhookValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "unknown event", body: `{"name":"ops","target_url":"https://x.test/h","event_types":["server.exploded"]}`, want: "event_type"},
		{name: "no events", body: `{"name":"ops","target_url":"https://x.test/h","event_types":[]}`, want: "event_types failed min validation"},
		{name: "bad url", body: `{"name":"ops","target_url":"not a url","event_types":["*"]}`, want: "target_url failed url validation"},
		{name: "missing name", body: `{"target_url":"https://x.test/h","event_types":["*"]}`, want: "name failed required validation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, store, _, _, _ := newAdminHandler()
			rec := httptest.NewRecorder()
			h.CreateWebhook(rec, adminRequest(http.MethodPost, "/admin/webhooks", tt.body, nil))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
			assert.Empty(t, store.subs)
		})
	}
}

func TestUpdateWebhookKeepsEnabledWhenOmitted(t *testing.T) {
	h, store, _, _, _ := newAdminHandler()
	id := uuid.New()
	store.subs[id] = models.WebhookSubscription{ID: id, Name: "ops", TargetURL: "https://x.test/h", EventTypes: []string{"*"}, Enabled: false}

	body := `{"name":"ops-renamed","target_url":"https://x.test/h2","event_types":["coins.added"]}`
	rec := httptest.NewRecorder()
	h.UpdateWebhook(rec, adminRequest(http.MethodPut, "/admin/webhooks/"+id.String(), body, map[string]string{"id": id.String()}))

	require.Equal(t, http.StatusOK, rec.Code)
	got := store.subs[id]
	assert.Equal(t, "ops-renamed", got.Name)
	assert.Equal(t, []string{"coins.added"}, got.EventTypes)
	assert.False(t, got.Enabled)
}

func TestWebhookByIDErrors(t *testing.T) {
	h, _, _, _, _ := newAdminHandler()
	missing := uuid.New().String()

	rec := httptest.NewRecorder()
	h.DeleteWebhook(rec, adminRequest(http.MethodDelete, "/admin/webhooks/nope", "", map[string]string{"id": "nope"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.DeleteWebhook(rec, adminRequest(http.MethodDelete, "/admin/webhooks/"+missing, "", map[string]string{"id": missing}))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ToggleWebhook(rec, adminRequest(http.MethodPut, "/admin/webhooks/"+missing+"/toggle", "", map[string]string{"id": missing}))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.UpdateWebhook(rec, adminRequest(http.MethodPut, "/admin/webhooks/"+missing, `{"name":"x"}`, map[string]string{"id": missing}))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestToggleAndDeleteWebhook(t *testing.T) {
	h, store, _, _, _ := newAdminHandler()
	id := uuid.New()
	store.subs[id] = models.WebhookSubscription{ID: id, Name: "ops", Enabled: true}
	vars := map[string]string{"id": id.String()}

	rec := httptest.NewRecorder()
	h.ToggleWebhook(rec, adminRequest(http.MethodPut, "/admin/webhooks/x/toggle", "", vars))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, store.subs[id].Enabled)

	rec = httptest.NewRecorder()
	h.DeleteWebhook(rec, adminRequest(http.MethodDelete, "/admin/webhooks/x", "", vars))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, store.subs)
}

func TestListWebhooksFailure(t *testing.T) {
	h, store, _, _, _ := newAdminHandler()
	store.listErr = errors.New("connection refused")

	rec := httptest.NewRecorder()
	h.ListWebhooks(rec, adminRequest(http.MethodGet, "/admin/webhooks", "", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestTestWebhookReturnsReport(t *testing.T) {
	h, _, _, _, events := newAdminHandler()
	events.report = models.DispatchReport{Matched: 2, Delivered: 1, Failed: 1}

	rec := httptest.NewRecorder()
	h.TestWebhook(rec, adminRequest(http.MethodPost, "/admin/webhooks/test", `{"event_type":"resource.renewed"}`, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var report models.DispatchReport
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.Equal(t, events.report, report)
	assert.Equal(t, []models.EventType{models.EventResourceRenewed}, events.types())

	rec = httptest.NewRecorder()
	h.TestWebhook(rec, adminRequest(http.MethodPost, "/admin/webhooks/test", `{"event_type":"bogus"}`, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdjustCoins(t *testing.T) {
	h, store, _, _, events := newAdminHandler()
	vars := map[string]string{"id": "user-1"}

	rec := httptest.NewRecorder()
	h.AdjustCoins(rec, adminRequest(http.MethodPost, "/admin/users/user-1/coins", `{"amount":250}`, vars))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":"user-1","coins":250}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.AdjustCoins(rec, adminRequest(http.MethodPost, "/admin/users/user-1/coins", `{"amount":-50}`, vars))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(200), store.balances["user-1"])

	rec = httptest.NewRecorder()
	h.AdjustCoins(rec, adminRequest(http.MethodPost, "/admin/users/user-1/coins", `{"amount":-500}`, vars))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, int64(200), store.balances["user-1"])

	rec = httptest.NewRecorder()
	h.AdjustCoins(rec, adminRequest(http.MethodPost, "/admin/users/user-1/coins", `{"amount":0}`, vars))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	require.Len(t, events.events, 2)
	assert.Equal(t, models.EventCoinsAdded, events.events[0].Type)
	assert.Equal(t, int64(250), *events.events[0].Meta.Coins)
	assert.Equal(t, models.EventCoinsRemoved, events.events[1].Type)
	assert.Equal(t, int64(50), *events.events[1].Meta.Coins)
}

func TestPanelAdminRoutes(t *testing.T) {
	h, _, panel, _, _ := newAdminHandler()
	remaining := 12
	reset := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	panel.info = models.RateLimitInfo{Remaining: &remaining, ResetAt: &reset}

	rec := httptest.NewRecorder()
	h.ClearCache(rec, adminRequest(http.MethodPost, "/admin/cache/clear", "", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1, panel.cleared)

	rec = httptest.NewRecorder()
	h.RateLimit(rec, adminRequest(http.MethodGet, "/admin/ptero/ratelimit", "", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"remaining":12,"reset_at":"2026-03-01T12:00:00Z"}`, rec.Body.String())
}

func TestSweep(t *testing.T) {
	h, _, _, sweeps, _ := newAdminHandler()
	sweeps.summary = sweeper.Summary{Scanned: 3, Suspended: 1}

	rec := httptest.NewRecorder()
	h.Sweep(rec, adminRequest(http.MethodPost, "/admin/sweep", "", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var summary sweeper.Summary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&summary))
	assert.Equal(t, 3, summary.Scanned)
	assert.Equal(t, 1, summary.Suspended)

	sweeps.err = sweeper.ErrSweepInProgress
	rec = httptest.NewRecorder()
	h.Sweep(rec, adminRequest(http.MethodPost, "/admin/sweep", "", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)

	sweeps.err = errors.New("list tracked: boom")
	rec = httptest.NewRecorder()
	h.Sweep(rec, adminRequest(http.MethodPost, "/admin/sweep", "", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
