// UsalamaGuard - Security Camera Event Ingestion and Realtime Alert Backend
// Copyright 2026 UsalamaGuard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/usalamaguard/server

package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/usalamaguard/server/internal/auth"
	"github.com/usalamaguard/server/internal/config"
	"github.com/usalamaguard/server/internal/logging"
	"github.com/usalamaguard/server/internal/models"
	"github.com/usalamaguard/server/internal/store"
)

//nolint:gochecknoinits // silence logs during tests
func init() {
	logging.Init(logging.Config{Level: "disabled", Output: io.Discard})
}

// fakeEventStore is an in-memory EventStore for handler tests.
type fakeEventStore struct {
	events  map[string]*models.Event
	order   []string
	nextSeq int64
	ready   bool
	failAll bool
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{events: map[string]*models.Event{}, ready: true}
}

func (f *fakeEventStore) CreateEvent(_ context.Context, req *models.CreateEventRequest, _ string) (*models.Event, error) {
	if f.failAll {
		return nil, store.ErrUnavailable
	}
	if req.AccountID == "" {
		return nil, store.ErrValidation
	}
	status := models.StatusActive
	if req.Status != "" {
		if !req.Status.Valid() {
			return nil, store.ErrValidation
		}
		status = req.Status
	}
	f.nextSeq++
	ts := time.Now().UTC()
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}
	ev := &models.Event{
		ID:        fmt.Sprintf("ev-%d", f.nextSeq),
		AccountID: req.AccountID,
		Seq:       f.nextSeq,
		Timestamp: ts,
		Image:     req.Image,
		Type:      req.Type,
		Location:  req.Location,
		Severity:  req.Severity,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
	f.events[ev.ID] = ev
	f.order = append(f.order, ev.ID)
	return ev, nil
}

func (f *fakeEventStore) ListEvents(_ context.Context, accountID string) ([]models.Event, error) {
	if f.failAll {
		return nil, store.ErrUnavailable
	}
	var out []models.Event
	for i := len(f.order) - 1; i >= 0; i-- {
		ev := f.events[f.order[i]]
		if ev.AccountID == accountID {
			out = append(out, *ev)
		}
	}
	return out, nil
}

func (f *fakeEventStore) UpdateStatus(_ context.Context, eventID string, status models.EventStatus) (*models.Event, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", store.ErrValidation, status)
	}
	if f.failAll {
		return nil, store.ErrUnavailable
	}
	ev, ok := f.events[eventID]
	if !ok {
		return nil, store.ErrNotFound
	}
	ev.Status = status
	return ev, nil
}

func (f *fakeEventStore) Ready() bool { return f.ready }

// fakeDirectory is an in-memory AccountDirectory.
type fakeDirectory struct {
	accounts map[string]*models.Account // keyed by email
	byID     map[string]*models.Account
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{accounts: map[string]*models.Account{}, byID: map[string]*models.Account{}}
}

func (f *fakeDirectory) CreateAccount(_ context.Context, req *models.SignupRequest) (*models.Account, error) {
	if _, exists := f.accounts[req.Email]; exists {
		return nil, store.ErrConflict
	}
	acc := &models.Account{
		ID:                fmt.Sprintf("acc-%d", len(f.accounts)+1),
		Email:             req.Email,
		PasswordHash:      "hashed:" + req.Password,
		NotificationEmail: req.NotificationEmail,
		DisplayName:       req.DisplayName,
		CreatedAt:         time.Now().UTC(),
	}
	if acc.NotificationEmail == "" {
		acc.NotificationEmail = acc.Email
	}
	f.accounts[acc.Email] = acc
	f.byID[acc.ID] = acc
	return acc, nil
}

func (f *fakeDirectory) Authenticate(_ context.Context, email, password string) (*models.Account, error) {
	acc, ok := f.accounts[email]
	if !ok || acc.PasswordHash != "hashed:"+password {
		return nil, store.ErrInvalidCredentials
	}
	return acc, nil
}

func (f *fakeDirectory) GetAccount(_ context.Context, id string) (*models.Account, error) {
	acc, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return acc, nil
}

func (f *fakeDirectory) UpdateProfile(_ context.Context, id string, req *models.ProfileUpdateRequest) (*models.Account, error) {
	if req.NotificationEmail == nil && req.DisplayName == nil {
		return nil, store.ErrValidation
	}
	acc, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if req.NotificationEmail != nil {
		acc.NotificationEmail = *req.NotificationEmail
	}
	if req.DisplayName != nil {
		acc.DisplayName = *req.DisplayName
	}
	return acc, nil
}

func (f *fakeDirectory) GetCameraLocation(_ context.Context, id string) (string, error) {
	acc, ok := f.byID[id]
	if !ok {
		return "", store.ErrNotFound
	}
	return acc.CameraLocation, nil
}

func (f *fakeDirectory) UpdateCameraLocation(_ context.Context, id, location string) error {
	acc, ok := f.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	acc.CameraLocation = location
	return nil
}

// fakePublisher records announcements.
type fakePublisher struct {
	created []*models.Event
	updated []*models.Event
	err     error
}

func (f *fakePublisher) PublishEventCreated(_ context.Context, ev *models.Event) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, ev)
	return nil
}

func (f *fakePublisher) PublishEventUpdated(_ context.Context, ev *models.Event) error {
	if f.err != nil {
		return f.err
	}
	f.updated = append(f.updated, ev)
	return nil
}

type testEnv struct {
	events    *fakeEventStore
	accounts  *fakeDirectory
	publisher *fakePublisher
	router    http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	jwt, err := auth.NewJWTManager(&config.SecurityConfig{
		JWTSecret:      "test-secret-at-least-32-characters",
		SessionTimeout: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	env := &testEnv{
		events:    newFakeEventStore(),
		accounts:  newFakeDirectory(),
		publisher: &fakePublisher{},
	}
	h := NewHandlers(env.events, env.accounts, env.publisher, jwt, nil, nil)
	env.router = NewRouter(h, &config.SecurityConfig{
		RateLimitDisabled: true,
		CORSOrigins:       []string{"*"},
	})
	return env
}

// envelope mirrors models.APIResponse with raw data for re-decoding.
type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error,omitempty"`
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}, headers map[string]string) (*httptest.ResponseRecorder, *envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode envelope: %v (body %q)", err, rec.Body.String())
		}
	}
	return rec, &env
}

func signup(t *testing.T, env *testEnv, email string) *models.Account {
	t.Helper()
	rec, resp := doJSON(t, env.router, http.MethodPost, "/auth/signup", models.SignupRequest{
		Email:    email,
		Password: "longenough",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d, body %s", rec.Code, rec.Body.String())
	}
	var acc models.Account
	if err := json.Unmarshal(resp.Data, &acc); err != nil {
		t.Fatalf("decode account: %v", err)
	}
	return &acc
}

func TestSignup(t *testing.T) {
	env := newTestEnv(t)

	acc := signup(t, env, "owner@example.com")
	if acc.ID == "" || acc.Email != "owner@example.com" {
		t.Errorf("account = %+v", acc)
	}
	if acc.NotificationEmail != "owner@example.com" {
		t.Errorf("notification email should default to email, got %q", acc.NotificationEmail)
	}

	// Duplicate email conflicts.
	rec, resp := doJSON(t, env.router, http.MethodPost, "/auth/signup", models.SignupRequest{
		Email:    "owner@example.com",
		Password: "longenough",
	}, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate signup status = %d, want 409", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != "CONFLICT" {
		t.Errorf("error = %+v, want CONFLICT", resp.Error)
	}
}

func TestSignupValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		req  models.SignupRequest
	}{
		{"missing email", models.SignupRequest{Password: "longenough"}},
		{"bad email", models.SignupRequest{Email: "not-an-email", Password: "longenough"}},
		{"short password", models.SignupRequest{Email: "a@b.com", Password: "short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := doJSON(t, env.router, http.MethodPost, "/auth/signup", tt.req, nil)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if resp.Error == nil || resp.Error.Code != "VALIDATION_ERROR" {
				t.Errorf("error = %+v, want VALIDATION_ERROR", resp.Error)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	acc := signup(t, env, "owner@example.com")

	rec, resp := doJSON(t, env.router, http.MethodPost, "/auth/login", models.LoginRequest{
		Email:    "owner@example.com",
		Password: "longenough",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
	var login models.LoginResponse
	if err := json.Unmarshal(resp.Data, &login); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if login.ID != acc.ID || login.Token == "" {
		t.Errorf("login response = %+v", login)
	}
	if !login.ExpiresAt.After(time.Now()) {
		t.Errorf("token expiry %v is not in the future", login.ExpiresAt)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	signup(t, env, "owner@example.com")

	tests := []struct {
		name string
		req  models.LoginRequest
	}{
		{"wrong password", models.LoginRequest{Email: "owner@example.com", Password: "wrongwrong"}},
		{"unknown email", models.LoginRequest{Email: "nobody@example.com", Password: "longenough"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := doJSON(t, env.router, http.MethodPost, "/auth/login", tt.req, nil)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
			if resp.Error == nil || resp.Error.Code != "AUTHENTICATION_ERROR" {
				t.Errorf("error = %+v, want AUTHENTICATION_ERROR", resp.Error)
			}
		})
	}
}

func TestCameraLocation(t *testing.T) {
	env := newTestEnv(t)
	acc := signup(t, env, "owner@example.com")

	rec, _ := doJSON(t, env.router, http.MethodPatch, "/users/"+acc.ID+"/camera-location",
		models.CameraLocationRequest{CameraLocation: "Front Gate"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec, resp := doJSON(t, env.router, http.MethodGet, "/users/"+acc.ID+"/camera-location", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var loc models.CameraLocationResponse
	if err := json.Unmarshal(resp.Data, &loc); err != nil {
		t.Fatalf("decode location: %v", err)
	}
	if loc.CameraLocation != "Front Gate" {
		t.Errorf("camera location = %q, want Front Gate", loc.CameraLocation)
	}
}

func TestCameraLocationUnknownAccount(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := doJSON(t, env.router, http.MethodGet, "/users/missing/camera-location", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get status = %d, want 404", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != "NOT_FOUND" {
		t.Errorf("error = %+v, want NOT_FOUND", resp.Error)
	}

	rec, _ = doJSON(t, env.router, http.MethodPatch, "/users/missing/camera-location",
		models.CameraLocationRequest{CameraLocation: "Anywhere"}, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("patch status = %d, want 404", rec.Code)
	}
}

func TestCameraLocationValidation(t *testing.T) {
	env := newTestEnv(t)
	acc := signup(t, env, "owner@example.com")

	rec, _ := doJSON(t, env.router, http.MethodPatch, "/users/"+acc.ID+"/camera-location",
		models.CameraLocationRequest{}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty location status = %d, want 400", rec.Code)
	}
}

func TestProfile(t *testing.T) {
	env := newTestEnv(t)
	acc := signup(t, env, "owner@example.com")

	name := "Front Desk"
	notify := "alerts@example.com"
	rec, resp := doJSON(t, env.router, http.MethodPatch, "/users/"+acc.ID+"/profile",
		models.ProfileUpdateRequest{DisplayName: &name, NotificationEmail: &notify}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body %s", rec.Code, rec.Body.String())
	}
	var updated models.Account
	if err := json.Unmarshal(resp.Data, &updated); err != nil {
		t.Fatalf("decode account: %v", err)
	}
	if updated.DisplayName != name || updated.NotificationEmail != notify {
		t.Errorf("updated account = %+v", updated)
	}

	rec, resp = doJSON(t, env.router, http.MethodGet, "/users/"+acc.ID+"/profile", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	if bytes.Contains(resp.Data, []byte("passwordHash")) || bytes.Contains(resp.Data, []byte("hashed:")) {
		t.Error("profile response leaks the password hash")
	}
}

func TestProfileEmptyUpdateRejected(t *testing.T) {
	env := newTestEnv(t)
	acc := signup(t, env, "owner@example.com")

	rec, _ := doJSON(t, env.router, http.MethodPatch, "/users/"+acc.ID+"/profile",
		models.ProfileUpdateRequest{}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty update status = %d, want 400", rec.Code)
	}
}

func TestProfileUnknownAccount(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := doJSON(t, env.router, http.MethodGet, "/users/missing/profile", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get status = %d, want 404", rec.Code)
	}
}

func TestCreateEvent(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := doJSON(t, env.router, http.MethodPost, "/events", models.CreateEventRequest{
		AccountID: "U1",
		Type:      "motion",
		Severity:  "high",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var ev models.Event
	if err := json.Unmarshal(resp.Data, &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if ev.ID == "" || ev.AccountID != "U1" || ev.Status != models.StatusActive {
		t.Errorf("event = %+v", ev)
	}

	if len(env.publisher.created) != 1 || env.publisher.created[0].ID != ev.ID {
		t.Errorf("expected one created announcement, got %+v", env.publisher.created)
	}
}

// Camera agents in the field send vocabularies the server has never
// seen; only the owning account is mandatory.
func TestCreateEventPermissiveSchema(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		req  models.CreateEventRequest
	}{
		{"account only", models.CreateEventRequest{AccountID: "U1"}},
		{"free-text severity", models.CreateEventRequest{AccountID: "U1", Type: "motion", Severity: "urgent"}},
		{"free-text type", models.CreateEventRequest{AccountID: "U1", Type: "perimeter breach zone 4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := doJSON(t, env.router, http.MethodPost, "/events", tt.req, nil)
			if rec.Code != http.StatusCreated {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			var ev models.Event
			if err := json.Unmarshal(resp.Data, &ev); err != nil {
				t.Fatalf("decode event: %v", err)
			}
			if ev.Severity != tt.req.Severity || ev.Type != tt.req.Type {
				t.Errorf("event = %+v, want fields stored verbatim", ev)
			}
			if ev.Status != models.StatusActive {
				t.Errorf("status = %q, want active", ev.Status)
			}
		})
	}
}

func TestCreateEventInitialStatus(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := doJSON(t, env.router, http.MethodPost, "/events", models.CreateEventRequest{
		AccountID: "U1",
		Type:      "motion",
		Status:    models.StatusResolved,
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var ev models.Event
	if err := json.Unmarshal(resp.Data, &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if ev.Status != models.StatusResolved {
		t.Errorf("status = %q, want resolved", ev.Status)
	}

	rec, resp = doJSON(t, env.router, http.MethodPost, "/events", models.CreateEventRequest{
		AccountID: "U1",
		Status:    "archived",
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d for status outside the enum, want 400", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("error = %+v, want VALIDATION_ERROR", resp.Error)
	}
}

func TestCreateEventMissingAccount(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := doJSON(t, env.router, http.MethodPost, "/events", models.CreateEventRequest{
		Type: "motion",
	}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != "AUTHENTICATION_ERROR" {
		t.Errorf("error = %+v, want AUTHENTICATION_ERROR", resp.Error)
	}
	if len(env.publisher.created) != 0 {
		t.Error("nothing should be announced for a rejected event")
	}
}

func TestCreateEventStoreDown(t *testing.T) {
	env := newTestEnv(t)
	env.events.failAll = true

	rec, resp := doJSON(t, env.router, http.MethodPost, "/events", models.CreateEventRequest{
		AccountID: "U1",
		Type:      "motion",
	}, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != "STORE_ERROR" {
		t.Errorf("error = %+v, want STORE_ERROR", resp.Error)
	}
}

func TestCreateEventPublishFailureStillSucceeds(t *testing.T) {
	env := newTestEnv(t)
	env.publisher.err = fmt.Errorf("broker down")

	rec, _ := doJSON(t, env.router, http.MethodPost, "/events", models.CreateEventRequest{
		AccountID: "U1",
		Type:      "motion",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201 despite publish failure", rec.Code)
	}
}

func TestListEvents(t *testing.T) {
	env := newTestEnv(t)

	for _, accountID := range []string{"U1", "U2", "U1"} {
		rec, _ := doJSON(t, env.router, http.MethodPost, "/events", models.CreateEventRequest{
			AccountID: accountID,
			Type:      "motion",
		}, nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("seed event status = %d", rec.Code)
		}
	}

	rec, resp := doJSON(t, env.router, http.MethodGet, "/events?userId=U1", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var events []models.Event
	if err := json.Unmarshal(resp.Data, &events); err != nil {
		t.Fatalf("decode events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	for _, ev := range events {
		if ev.AccountID != "U1" {
			t.Errorf("event %s belongs to %s, want U1 only", ev.ID, ev.AccountID)
		}
	}
}

func TestListEventsMissingAccount(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := doJSON(t, env.router, http.MethodGet, "/events", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != "AUTHENTICATION_ERROR" {
		t.Errorf("error = %+v", resp.Error)
	}
}

func TestListEventsStoreDown(t *testing.T) {
	env := newTestEnv(t)
	env.events.failAll = true

	rec, resp := doJSON(t, env.router, http.MethodGet, "/events?userId=U1", nil, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != "SERVICE_UNAVAILABLE" {
		t.Errorf("error = %+v, want SERVICE_UNAVAILABLE", resp.Error)
	}
}

func TestUpdateEventStatus(t *testing.T) {
	env := newTestEnv(t)

	_, resp := doJSON(t, env.router, http.MethodPost, "/events", models.CreateEventRequest{
		AccountID: "U1",
		Type:      "motion",
	}, nil)
	var ev models.Event
	if err := json.Unmarshal(resp.Data, &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}

	rec, resp := doJSON(t, env.router, http.MethodPatch, "/events/"+ev.ID,
		models.UpdateEventStatusRequest{Status: models.StatusResolved}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var updated models.Event
	if err := json.Unmarshal(resp.Data, &updated); err != nil {
		t.Fatalf("decode updated event: %v", err)
	}
	if updated.Status != models.StatusResolved {
		t.Errorf("status = %q, want resolved", updated.Status)
	}
	if len(env.publisher.updated) != 1 {
		t.Errorf("expected one updated announcement, got %d", len(env.publisher.updated))
	}
}

func TestUpdateEventStatusInvalidValue(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := doJSON(t, env.router, http.MethodPatch, "/events/whatever",
		models.UpdateEventStatusRequest{Status: "archived"}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("error = %+v, want VALIDATION_ERROR", resp.Error)
	}
	if len(env.publisher.updated) != 0 {
		t.Error("invalid transition must not be announced")
	}
}

func TestUpdateEventStatusUnknownEvent(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := doJSON(t, env.router, http.MethodPatch, "/events/missing",
		models.UpdateEventStatusRequest{Status: models.StatusDismissed}, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != "NOT_FOUND" {
		t.Errorf("error = %+v, want NOT_FOUND", resp.Error)
	}
	if len(env.publisher.updated) != 0 {
		t.Error("missing event must not be announced")
	}
}

func TestMalformedBody(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewBufferString("{{{"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := doJSON(t, env.router, http.MethodGet, "/api/v1/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}
	rec, _ = doJSON(t, env.router, http.MethodGet, "/api/v1/live", nil, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("live status = %d, want 200", rec.Code)
	}
	rec, _ = doJSON(t, env.router, http.MethodGet, "/api/v1/ready", nil, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("ready status = %d, want 200", rec.Code)
	}
}

func TestReadyReflectsStoreOutage(t *testing.T) {
	env := newTestEnv(t)
	env.events.ready = false

	rec, resp := doJSON(t, env.router, http.MethodGet, "/api/v1/ready", nil, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ready status = %d, want 503 during outage", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != "SERVICE_UNAVAILABLE" {
		t.Errorf("error = %+v", resp.Error)
	}

	// Health stays 200 but reports degraded.
	rec, hresp := doJSON(t, env.router, http.MethodGet, "/api/v1/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}
	var status healthStatus
	if err := json.Unmarshal(hresp.Data, &status); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if status.Status != "degraded" {
		t.Errorf("health status = %q, want degraded", status.Status)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("metrics status = %d, want 200", rec.Code)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := doJSON(t, env.router, http.MethodGet, "/api/v1/live", nil, map[string]string{
		"X-Request-ID": "trace-123",
	})
	if got := rec.Header().Get("X-Request-ID"); got != "trace-123" {
		t.Errorf("X-Request-ID = %q, want trace-123", got)
	}
}
