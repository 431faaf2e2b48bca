package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"runtime"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/arcadefolio/arcadefolio/internal/config"
	"github.com/arcadefolio/arcadefolio/internal/domain"
	"github.com/arcadefolio/arcadefolio/internal/infra/cache"
	"github.com/arcadefolio/arcadefolio/internal/present/rest/middleware"
	"github.com/arcadefolio/arcadefolio/internal/service"
	"github.com/arcadefolio/arcadefolio/internal/usecase"
)

// --- mocks ---

// memRepo mimics the store's contract: server-generated ids, created_at
// defaults, fetch-back after writes, created_at DESC / id ASC ordering.
type memRepo struct {
	tables map[string]map[string]domain.Record
	clock  time.Time
}

func newMemRepo() *memRepo {
	return &memRepo{
		tables: map[string]map[string]domain.Record{},
		clock:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (m *memRepo) table(rt domain.ResourceType) map[string]domain.Record {
	if m.tables[rt.Table] == nil {
		m.tables[rt.Table] = map[string]domain.Record{}
	}
	return m.tables[rt.Table]
}

func clone(r domain.Record) domain.Record {
	out := domain.Record{}
	for k, v := range r {
		out[k] = v
	}
	return out
}

func (m *memRepo) List(ctx context.Context, rt domain.ResourceType) ([]domain.Record, error) {
	var records []domain.Record
	for _, r := range m.table(rt) {
		records = append(records, clone(r))
	}
	sort.Slice(records, func(i, j int) bool {
		ti := records[i]["created_at"].(time.Time)
		tj := records[j]["created_at"].(time.Time)
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return records[i].ID() < records[j].ID()
	})
	return records, nil
}

func (m *memRepo) Create(ctx context.Context, rt domain.ResourceType, fields map[string]any) (domain.Record, error) {
	m.clock = m.clock.Add(time.Second)
	record := domain.Record{
		"id":         uuid.NewString(),
		"created_at": m.clock,
	}
	for k, v := range fields {
		record[k] = v
	}
	m.table(rt)[record.ID()] = record
	return clone(record), nil
}

func (m *memRepo) Update(ctx context.Context, rt domain.ResourceType, id string, fields map[string]any) (domain.Record, error) {
	record, ok := m.table(rt)[id]
	if !ok {
		return nil, domain.NotFoundError{Resource: rt.Singular}
	}
	for k, v := range fields {
		record[k] = v
	}
	return clone(record), nil
}

func (m *memRepo) Delete(ctx context.Context, rt domain.ResourceType, id string) error {
	if _, ok := m.table(rt)[id]; !ok {
		return domain.NotFoundError{Resource: rt.Singular}
	}
	delete(m.table(rt), id)
	return nil
}

// failingRepo simulates a store outage on every operation.
type failingRepo struct{}

var errStoreDown = errors.New("pq: connection refused")

func (failingRepo) List(ctx context.Context, rt domain.ResourceType) ([]domain.Record, error) {
	return nil, errStoreDown
}

func (failingRepo) Create(ctx context.Context, rt domain.ResourceType, fields map[string]any) (domain.Record, error) {
	return nil, errStoreDown
}

func (failingRepo) Update(ctx context.Context, rt domain.ResourceType, id string, fields map[string]any) (domain.Record, error) {
	return nil, errStoreDown
}

func (failingRepo) Delete(ctx context.Context, rt domain.ResourceType, id string) error {
	return errStoreDown
}

type nopPublisher struct{}

func (nopPublisher) Publish(ctx context.Context, event domain.Event) error { return nil }

// tickingSource emits events continuously until the context is done.
type tickingSource struct{}

func (tickingSource) Listen(ctx context.Context, out chan<- domain.Event) {
	ticker := time.NewTicker(2 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			select {
			case out <- domain.Event{Resource: "reviews", Action: domain.ActionUpdated, ID: "tick"}:
			case <-ctx.Done():
				return
			}
		}
	}
}

type stubLimiter struct {
	allowed bool
}

func (l stubLimiter) Allow(ctx context.Context, key string) (middleware.RateResult, error) {
	if l.allowed {
		return middleware.RateResult{Allowed: true}, nil
	}
	return middleware.RateResult{Allowed: false, RetryAfter: 30 * time.Second}, nil
}

// --- fixture ---

const (
	testUsername = "admin"
	testPassword = "correct horse"
	testSecret   = "test-secret"
)

type fixture struct {
	e    *echo.Echo
	repo *memRepo
	auth *service.AuthService
}

func newFixture(t *testing.T, limiter middleware.RateLimiter) *fixture {
	t.Helper()
	repo := newMemRepo()
	f := newFixtureWithRepo(t, limiter, repo)
	f.repo = repo
	return f
}

func newFixtureWithRepo(t *testing.T, limiter middleware.RateLimiter, repo usecase.ResourceRepository) *fixture {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	adminConf := config.Admin{
		Username:        testUsername,
		PasswordHash:    string(hash),
		JWTSecret:       testSecret,
		TokenTTLMinutes: 5,
	}

	auth := service.NewAuthService(adminConf)
	resource := usecase.NewResourceUsecase(repo, cache.NewMemory(time.Minute), nopPublisher{}, time.Minute)

	e := echo.New()
	h := NewHandler(nil, resource, auth, nil)
	h.RegisterRoutes(e, middleware.NewAuthMiddleware(auth), middleware.NewThrottleMiddleware(limiter))

	return &fixture{e: e, auth: auth}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res := httptest.NewRecorder()

	f.e.ServeHTTP(res, req)

	var env envelope
	if err := json.Unmarshal(res.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode envelope from %q: %v", res.Body.String(), err)
	}
	return res.Code, env
}

func (f *fixture) login(t *testing.T) string {
	t.Helper()
	code, env := f.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"username": testUsername,
		"password": testPassword,
	})
	if code != http.StatusOK {
		t.Fatalf("login expected 200, got %d (%s)", code, env.Error)
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Token == "" {
		t.Fatalf("expected a token in login response")
	}
	return data.Token
}

type reviewRecord struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	Text      string `json:"text"`
	Rating    int    `json:"rating"`
	CreatedAt string `json:"created_at"`
}

// --- tests ---

func TestPublicListRequiresNoAuth(t *testing.T) {
	f := newFixture(t, stubLimiter{allowed: true})

	code, env := f.do(t, http.MethodGet, "/api/reviews", "", nil)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if !env.Success {
		t.Fatalf("expected success envelope")
	}
	var records []reviewRecord
	if err := json.Unmarshal(env.Data, &records); err != nil {
		t.Fatalf("expected a record array, got %s", env.Data)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty collection")
	}
}

func TestAdminCRUDScenario(t *testing.T) {
	f := newFixture(t, stubLimiter{allowed: true})
	token := f.login(t)

	// create
	code, env := f.do(t, http.MethodPost, "/api/reviews", token, map[string]any{
		"name": "Ada", "role": "Engineer", "text": "Great!", "rating": 5,
	})
	if code != http.StatusCreated {
		t.Fatalf("create expected 201, got %d (%s)", code, env.Error)
	}
	var created reviewRecord
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("failed to decode created record: %v", err)
	}
	if _, err := uuid.Parse(created.ID); err != nil {
		t.Fatalf("expected a generated uuid, got %q", created.ID)
	}
	if created.CreatedAt == "" {
		t.Fatalf("expected created_at to be set")
	}
	if created.Rating != 5 {
		t.Fatalf("expected rating 5, got %d", created.Rating)
	}

	// partial update touches only the present field
	code, env = f.do(t, http.MethodPut, "/api/reviews/"+created.ID, token, map[string]any{"rating": 4})
	if code != http.StatusOK {
		t.Fatalf("update expected 200, got %d (%s)", code, env.Error)
	}
	var updated reviewRecord
	if err := json.Unmarshal(env.Data, &updated); err != nil {
		t.Fatalf("failed to decode updated record: %v", err)
	}
	if updated.Rating != 4 {
		t.Fatalf("expected rating 4, got %d", updated.Rating)
	}
	if updated.Name != "Ada" {
		t.Fatalf("expected name to be untouched, got %q", updated.Name)
	}
	if updated.ID != created.ID || updated.CreatedAt != created.CreatedAt {
		t.Fatalf("expected id and created_at to be immutable")
	}

	// empty partial payload is rejected
	code, env = f.do(t, http.MethodPut, "/api/reviews/"+created.ID, token, map[string]any{})
	if code != http.StatusBadRequest {
		t.Fatalf("empty update expected 400, got %d", code)
	}
	if env.Error != "no updates provided" {
		t.Fatalf("expected 'no updates provided', got %q", env.Error)
	}

	// delete, then delete again
	code, env = f.do(t, http.MethodDelete, "/api/reviews/"+created.ID, token, nil)
	if code != http.StatusOK {
		t.Fatalf("delete expected 200, got %d (%s)", code, env.Error)
	}
	if env.Message == "" {
		t.Fatalf("expected a confirmation message")
	}
	code, _ = f.do(t, http.MethodDelete, "/api/reviews/"+created.ID, token, nil)
	if code != http.StatusNotFound {
		t.Fatalf("second delete expected 404, got %d", code)
	}

	// the collection no longer contains the record
	code, env = f.do(t, http.MethodGet, "/api/reviews", "", nil)
	if code != http.StatusOK {
		t.Fatalf("list expected 200, got %d", code)
	}
	var records []reviewRecord
	if err := json.Unmarshal(env.Data, &records); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	for _, r := range records {
		if r.ID == created.ID {
			t.Fatalf("expected record to be gone from the collection")
		}
	}
}

func TestWritesRequireAuth(t *testing.T) {
	f := newFixture(t, stubLimiter{allowed: true})

	payload := map[string]any{"name": "Ada", "role": "Engineer", "text": "Great!", "rating": 5}

	code, env := f.do(t, http.MethodPost, "/api/reviews", "", payload)
	if code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", code)
	}
	if env.Success {
		t.Fatalf("expected failure envelope")
	}

	code, _ = f.do(t, http.MethodPost, "/api/reviews", "not-a-token", payload)
	if code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with garbage token, got %d", code)
	}
}

func TestNonAdminTokenIsForbidden(t *testing.T) {
	f := newFixture(t, stubLimiter{allowed: true})

	claims := service.AdminClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "viewer",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: "viewer",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing failed: %v", err)
	}

	code, _ := f.do(t, http.MethodPost, "/api/reviews", token, map[string]any{
		"name": "Ada", "role": "Engineer", "text": "Great!", "rating": 5,
	})
	if code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin role, got %d", code)
	}
}

func TestUpdateRejectsDisallowedFields(t *testing.T) {
	f := newFixture(t, stubLimiter{allowed: true})
	token := f.login(t)

	code, env := f.do(t, http.MethodPost, "/api/reviews", token, map[string]any{
		"name": "Ada", "role": "Engineer", "text": "Great!", "rating": 5,
	})
	if code != http.StatusCreated {
		t.Fatalf("create expected 201, got %d (%s)", code, env.Error)
	}
	var created reviewRecord
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("failed to decode created record: %v", err)
	}

	for _, payload := range []map[string]any{
		{"id": uuid.NewString()},
		{"created_at": "2030-01-01T00:00:00Z"},
		{"hack": true},
	} {
		code, _ := f.do(t, http.MethodPut, "/api/reviews/"+created.ID, token, payload)
		if code != http.StatusBadRequest {
			t.Fatalf("expected 400 for payload %v, got %d", payload, code)
		}
	}

	// nothing was mutated
	stored := f.repo.table(domain.Reviews)[created.ID]
	if stored.ID() != created.ID || stored["name"] != "Ada" {
		t.Fatalf("expected record to be unchanged, got %v", stored)
	}
}

func TestUpdateRejectsMalformedID(t *testing.T) {
	f := newFixture(t, stubLimiter{allowed: true})
	token := f.login(t)

	code, _ := f.do(t, http.MethodPut, "/api/reviews/not-a-uuid", token, map[string]any{"rating": 3})
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", code)
	}

	code, _ = f.do(t, http.MethodDelete, "/api/reviews/not-a-uuid", token, nil)
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", code)
	}
}

func TestUpdateAppliesZeroValues(t *testing.T) {
	f := newFixture(t, stubLimiter{allowed: true})
	token := f.login(t)

	code, env := f.do(t, http.MethodPost, "/api/socials", token, map[string]any{
		"platform": "github", "url": "https://github.com/ada", "icon": "github",
	})
	if code != http.StatusCreated {
		t.Fatalf("create expected 201, got %d (%s)", code, env.Error)
	}
	var created struct {
		ID   string `json:"id"`
		Icon string `json:"icon"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("failed to decode created record: %v", err)
	}

	// explicitly clearing a field is an intended update, not an omission
	code, env = f.do(t, http.MethodPut, "/api/socials/"+created.ID, token, map[string]any{"icon": ""})
	if code != http.StatusOK {
		t.Fatalf("update expected 200, got %d (%s)", code, env.Error)
	}
	var updated struct {
		Icon string `json:"icon"`
		URL  string `json:"url"`
	}
	if err := json.Unmarshal(env.Data, &updated); err != nil {
		t.Fatalf("failed to decode updated record: %v", err)
	}
	if updated.Icon != "" {
		t.Fatalf("expected icon to be cleared, got %q", updated.Icon)
	}
	if updated.URL != "https://github.com/ada" {
		t.Fatalf("expected url to be untouched, got %q", updated.URL)
	}
}

func TestListOrdering(t *testing.T) {
	f := newFixture(t, stubLimiter{allowed: true})
	token := f.login(t)

	var ids []string
	for i := 0; i < 3; i++ {
		code, env := f.do(t, http.MethodPost, "/api/reviews", token, map[string]any{
			"name": fmt.Sprintf("author-%d", i), "role": "Engineer", "text": "Great!", "rating": 5,
		})
		if code != http.StatusCreated {
			t.Fatalf("create expected 201, got %d", code)
		}
		var created reviewRecord
		if err := json.Unmarshal(env.Data, &created); err != nil {
			t.Fatalf("failed to decode created record: %v", err)
		}
		ids = append(ids, created.ID)
	}

	listIDs := func() []string {
		_, env := f.do(t, http.MethodGet, "/api/reviews", "", nil)
		var records []reviewRecord
		if err := json.Unmarshal(env.Data, &records); err != nil {
			t.Fatalf("failed to decode list: %v", err)
		}
		var out []string
		for _, r := range records {
			out = append(out, r.ID)
		}
		return out
	}

	first := listIDs()
	if len(first) != 3 {
		t.Fatalf("expected 3 records, got %d", len(first))
	}
	// newest first
	for i := 0; i < 3; i++ {
		if first[i] != ids[2-i] {
			t.Fatalf("expected descending creation order, got %v (created %v)", first, ids)
		}
	}

	// stable across repeated calls with no intervening writes
	second := listIDs()
	for i := range first {
		if second[i] != first[i] {
			t.Fatalf("expected stable ordering, got %v then %v", first, second)
		}
	}
}

func TestWriteThrottle(t *testing.T) {
	f := newFixture(t, stubLimiter{allowed: false})
	token := f.login(t)

	req := httptest.NewRequest(http.MethodPost, "/api/reviews", bytes.NewReader([]byte(`{"name":"Ada","role":"Engineer","text":"Great!","rating":5}`)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()

	f.e.ServeHTTP(res, req)

	if res.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", res.Code)
	}
	if res.Header().Get("Retry-After") == "" {
		t.Fatalf("expected a Retry-After header")
	}

	// reads are never throttled
	code, _ := f.do(t, http.MethodGet, "/api/reviews", "", nil)
	if code != http.StatusOK {
		t.Fatalf("expected list to pass, got %d", code)
	}
}

func TestStoreFailuresStayGeneric(t *testing.T) {
	f := newFixtureWithRepo(t, stubLimiter{allowed: true}, failingRepo{})
	token := f.login(t)

	checks := []struct {
		method string
		path   string
		token  string
		body   any
		want   string
	}{
		{http.MethodGet, "/api/reviews", "", nil, "failed to fetch reviews"},
		{http.MethodPost, "/api/reviews", token, map[string]any{
			"name": "Ada", "role": "Engineer", "text": "Great!", "rating": 5,
		}, "failed to create review"},
		{http.MethodPut, "/api/reviews/0d1fb4a0-6d5c-4c5a-9b5e-1f0c9a2b3c4d", token, map[string]any{"rating": 4}, "failed to update review"},
		{http.MethodDelete, "/api/reviews/0d1fb4a0-6d5c-4c5a-9b5e-1f0c9a2b3c4d", token, nil, "failed to delete review"},
	}

	for _, check := range checks {
		code, env := f.do(t, check.method, check.path, check.token, check.body)
		if code != http.StatusInternalServerError {
			t.Fatalf("%s %s: expected 500, got %d", check.method, check.path, code)
		}
		if env.Success {
			t.Fatalf("%s %s: expected failure envelope", check.method, check.path)
		}
		if env.Error != check.want {
			t.Fatalf("%s %s: expected %q, got %q", check.method, check.path, check.want, env.Error)
		}
		// store detail must never leak to the caller
		if strings.Contains(env.Error, "pq:") || strings.Contains(env.Error, "connection refused") {
			t.Fatalf("%s %s: store error leaked: %q", check.method, check.path, env.Error)
		}
	}
}

func TestRealtimeReleasesConnectionGoroutines(t *testing.T) {
	e := echo.New()
	h := NewHandler(nil, nil, nil, tickingSource{})
	e.GET("/api/realtime", h.handleRealtime)

	srv := httptest.NewServer(e)
	defer srv.Close()

	base := runtime.NumGoroutine()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/realtime"

	for i := 0; i < 5; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		if err != nil {
			t.Fatalf("dial failed: %v", err)
		}
		var event domain.Event
		if err := conn.ReadJSON(&event); err != nil {
			t.Fatalf("expected a streamed event: %v", err)
		}
		// drop the connection without a close handshake so the server side
		// discovers the peer is gone via a failed read or write
		conn.UnderlyingConn().Close()
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if runtime.NumGoroutine() <= base+2 {
			return
		}
		time.Sleep(25 * time.Millisecond)
	}
	t.Fatalf("goroutines did not settle after disconnects: started with %d, now %d", base, runtime.NumGoroutine())
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newFixture(t, stubLimiter{allowed: true})

	code, env := f.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"username": testUsername,
		"password": "wrong",
	})
	if code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
	if env.Error != "invalid credentials" {
		t.Fatalf("expected a generic credentials error, got %q", env.Error)
	}
}
