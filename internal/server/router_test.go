package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/steadylab/caffeine-tracker/internal/auth"
	"github.com/steadylab/caffeine-tracker/internal/intake"
	"github.com/steadylab/caffeine-tracker/internal/metrics"
	"github.com/steadylab/caffeine-tracker/internal/storage"
	"github.com/steadylab/caffeine-tracker/internal/storage/memstore"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testClock = func() time.Time {
	return time.Date(2026, time.August, 28, 14, 0, 0, 0, time.Local)
}

const testDate = "2026-08-28"

func newTestHandler(t *testing.T, tokens *auth.TokenManager) http.Handler {
	t.Helper()

	service, err := intake.NewService(intake.ServiceConfig{
		Store: memstore.New(),
		Clock: testClock,
	})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	handler, err := NewHTTPHandler(Dependencies{
		Intake:      service,
		BackendType: storage.BackendMemory,
		Tokens:      tokens,
		Metrics:     metrics.New(),
		Version:     "test",
		CORSOrigin:  "http://localhost:5173",
	})
	if err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}
	return handler
}

func doRequest(handler http.Handler, method, target string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	var request *http.Request
	if body != nil {
		request = httptest.NewRequest(method, target, bytes.NewReader(body))
		request.Header.Set("Content-Type", "application/json")
	} else {
		request = httptest.NewRequest(method, target, nil)
	}
	for key, value := range headers {
		request.Header.Set(key, value)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func TestNewHTTPHandlerRequiresService(t *testing.T) {
	if _, err := NewHTTPHandler(Dependencies{}); err == nil {
		t.Fatalf("expected an error without an intake service")
	}
}

func TestHealthReportsBackend(t *testing.T) {
	handler := newTestHandler(t, nil)

	recorder := doRequest(handler, http.MethodGet, "/api/health", nil, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body["status"] != "ok" || body["db_type"] != "memory" {
		t.Fatalf("unexpected health body: %v", body)
	}
}

func TestVersionEndpoint(t *testing.T) {
	handler := newTestHandler(t, nil)

	recorder := doRequest(handler, http.MethodGet, "/api/version", nil, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body["version"] != "test" {
		t.Fatalf("unexpected version body: %v", body)
	}
}

func TestPresetsEndpoint(t *testing.T) {
	handler := newTestHandler(t, nil)

	recorder := doRequest(handler, http.MethodGet, "/api/presets", nil, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}

	var body struct {
		Drinks     []intake.PresetDrink `json:"drinks"`
		Sizes      []int                `json:"sizes"`
		DailyLimit int                  `json:"daily_limit_mg"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(body.Drinks) != 8 {
		t.Fatalf("expected 8 preset drinks, got %d", len(body.Drinks))
	}
	if len(body.Sizes) != 3 || body.Sizes[0] != 250 {
		t.Fatalf("unexpected sizes: %v", body.Sizes)
	}
	if body.DailyLimit != 400 {
		t.Fatalf("expected daily limit 400, got %d", body.DailyLimit)
	}
}

func TestListLogsRequiresDate(t *testing.T) {
	handler := newTestHandler(t, nil)

	recorder := doRequest(handler, http.MethodGet, "/api/logs", nil, nil)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
	want := `{"error":"date is required (YYYY-MM-DD)"}`
	if recorder.Body.String() != want {
		t.Fatalf("unexpected body %q", recorder.Body.String())
	}
}

func TestCreateLogRejectsMissingFields(t *testing.T) {
	handler := newTestHandler(t, nil)
	want := `{"error":"name, size, caffeine are required"}`

	for _, payload := range []string{
		`{}`,
		`{"name":"Espresso","size":30}`,
		`{"name":"Espresso","caffeine":63}`,
		`{"size":30,"caffeine":63}`,
		`not json`,
	} {
		recorder := doRequest(handler, http.MethodPost, "/api/logs", []byte(payload), nil)
		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("payload %q: expected 400, got %d", payload, recorder.Code)
		}
		if recorder.Body.String() != want {
			t.Fatalf("payload %q: unexpected body %q", payload, recorder.Body.String())
		}
	}

	recorder := doRequest(handler, http.MethodGet, "/api/logs?date="+testDate, nil, nil)
	var entries []intake.LogEntry
	if err := json.Unmarshal(recorder.Body.Bytes(), &entries); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("rejected payloads must not be persisted, got %d entries", len(entries))
	}
}

func TestCreateLogAcceptsZeroCaffeine(t *testing.T) {
	handler := newTestHandler(t, nil)

	recorder := doRequest(handler, http.MethodPost, "/api/logs",
		[]byte(`{"name":"Decaf","size":200,"caffeine":0}`), nil)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201 for zero caffeine, got %d: %s", recorder.Code, recorder.Body.String())
	}
}

func TestLogLifecycle(t *testing.T) {
	handler := newTestHandler(t, nil)

	recorder := doRequest(handler, http.MethodPost, "/api/logs",
		[]byte(`{"name":"Espresso","size":30,"caffeine":63,"isPreset":true}`), nil)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var created intake.LogEntry
	if err := json.Unmarshal(recorder.Body.Bytes(), &created); err != nil {
		t.Fatalf("invalid create body: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected an assigned id")
	}
	if created.Date != testDate {
		t.Fatalf("expected the server-local date %q, got %q", testDate, created.Date)
	}

	recorder = doRequest(handler, http.MethodGet, "/api/logs?date="+testDate, nil, nil)
	var entries []intake.LogEntry
	if err := json.Unmarshal(recorder.Body.Bytes(), &entries); err != nil {
		t.Fatalf("invalid list body: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != created.ID {
		t.Fatalf("expected the created entry in the listing, got %+v", entries)
	}

	recorder = doRequest(handler, http.MethodDelete, "/api/logs/"+created.ID, nil, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	if recorder.Body.String() != `{"success":true}` {
		t.Fatalf("unexpected delete body %q", recorder.Body.String())
	}

	recorder = doRequest(handler, http.MethodDelete, "/api/logs/"+created.ID, nil, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("repeated delete must succeed, got %d", recorder.Code)
	}

	recorder = doRequest(handler, http.MethodGet, "/api/logs?date="+testDate, nil, nil)
	if err := json.Unmarshal(recorder.Body.Bytes(), &entries); err != nil {
		t.Fatalf("invalid list body: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected an empty listing after delete, got %+v", entries)
	}
}

func TestSummaryEndpoint(t *testing.T) {
	handler := newTestHandler(t, nil)

	for _, caffeine := range []int{80, 160} {
		payload := []byte(fmt.Sprintf(`{"name":"Energy","size":500,"caffeine":%d}`, caffeine))
		if recorder := doRequest(handler, http.MethodPost, "/api/logs", payload, nil); recorder.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", recorder.Code)
		}
	}

	recorder := doRequest(handler, http.MethodGet, "/api/summary?date="+testDate, nil, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}

	var summary intake.Summary
	if err := json.Unmarshal(recorder.Body.Bytes(), &summary); err != nil {
		t.Fatalf("invalid summary body: %v", err)
	}
	if summary.TotalMg != 240 || summary.LimitMg != 400 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.Percent != 60 {
		t.Fatalf("expected 60 percent, got %v", summary.Percent)
	}

	if recorder := doRequest(handler, http.MethodGet, "/api/summary", nil, nil); recorder.Code != http.StatusBadRequest {
		t.Fatalf("summary without date must fail, got %d", recorder.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	handler := newTestHandler(t, nil)

	recorder := doRequest(handler, http.MethodGet, "/metrics", nil, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
}

func TestScopedAccessRequiresToken(t *testing.T) {
	tokens := auth.NewTokenManager(auth.TokenManagerConfig{
		SigningSecret: []byte("test-secret"),
		Issuer:        "caffeine-api",
		Audience:      "caffeine-client",
	})
	handler := newTestHandler(t, tokens)

	recorder := doRequest(handler, http.MethodGet, "/api/logs?date="+testDate, nil, nil)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", recorder.Code)
	}

	recorder = doRequest(handler, http.MethodGet, "/api/logs?date="+testDate, nil,
		map[string]string{"Authorization": "Bearer bogus"})
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a bogus token, got %d", recorder.Code)
	}

	// Unauthenticated endpoints stay open.
	if recorder := doRequest(handler, http.MethodGet, "/api/health", nil, nil); recorder.Code != http.StatusOK {
		t.Fatalf("health must not require a token, got %d", recorder.Code)
	}
}

func TestScopedAccessIsolatesSubjects(t *testing.T) {
	tokens := auth.NewTokenManager(auth.TokenManagerConfig{
		SigningSecret: []byte("test-secret"),
		Issuer:        "caffeine-api",
		Audience:      "caffeine-client",
	})
	handler := newTestHandler(t, tokens)

	issueToken := func(subject string) map[string]string {
		recorder := doRequest(handler, http.MethodPost, "/api/auth/token",
			[]byte(fmt.Sprintf(`{"subject":%q}`, subject)), nil)
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200 issuing a token, got %d: %s", recorder.Code, recorder.Body.String())
		}
		var body struct {
			AccessToken string `json:"access_token"`
			TokenType   string `json:"token_type"`
		}
		if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid token body: %v", err)
		}
		if body.TokenType != "Bearer" || body.AccessToken == "" {
			t.Fatalf("unexpected token body: %+v", body)
		}
		return map[string]string{"Authorization": "Bearer " + body.AccessToken}
	}

	headersA := issueToken("user-a")
	headersB := issueToken("user-b")

	recorder := doRequest(handler, http.MethodPost, "/api/logs",
		[]byte(`{"name":"Espresso","size":30,"caffeine":63}`), headersA)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}

	recorder = doRequest(handler, http.MethodGet, "/api/logs?date="+testDate, nil, headersB)
	var entries []intake.LogEntry
	if err := json.Unmarshal(recorder.Body.Bytes(), &entries); err != nil {
		t.Fatalf("invalid list body: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("user-b must not see user-a entries, got %d", len(entries))
	}

	recorder = doRequest(handler, http.MethodGet, "/api/logs?date="+testDate, nil, headersA)
	if err := json.Unmarshal(recorder.Body.Bytes(), &entries); err != nil {
		t.Fatalf("invalid list body: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("user-a must see their entry, got %d", len(entries))
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := newTestHandler(t, nil)

	request := httptest.NewRequest(http.MethodOptions, "/api/logs", nil)
	request.Header.Set("Origin", "http://localhost:5173")
	request.Header.Set("Access-Control-Request-Method", http.MethodPost)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", recorder.Code)
	}
	if got := recorder.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("unexpected allow-origin %q", got)
	}
}
