package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	commonerrors "github.com/AlibekovAA/relay-hub/internal/common/errors"
	"github.com/AlibekovAA/relay-hub/internal/common/logger"
)

func newTestLogger() *logger.Logger {
	return logger.NewWithWriter(&bytes.Buffer{}, "test", "debug")
}

func TestHandleError_DomainErrorEnvelope(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/notify", nil)
	rec := httptest.NewRecorder()

	handler := TraceIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		HandleError(w, r, commonerrors.ErrInvalidPayload.WithCause(errors.New("recipientId missing")), newTestLogger())
	}))
	req.Header.Set("X-Trace-ID", "trace-123")
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var env ErrorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.Code != "INVALID_PAYLOAD" {
		t.Errorf("expected code INVALID_PAYLOAD, got %s", env.Code)
	}
	if env.TraceID != "trace-123" {
		t.Errorf("expected trace id trace-123, got %q", env.TraceID)
	}
	if rec.Header().Get("X-Trace-ID") != "trace-123" {
		t.Errorf("expected trace header to be echoed")
	}
}

func TestHandleError_UnhandledIsInternal(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/online-users", nil)
	rec := httptest.NewRecorder()

	HandleError(rec, req, errors.New("boom"), newTestLogger())

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "boom") {
		t.Errorf("internal error detail leaked: %s", rec.Body.String())
	}
}

func TestDecodeAndValidate(t *testing.T) {
	type body struct {
		RecipientID string `json:"recipientId" validate:"required"`
	}

	tests := []struct {
		name    string
		payload string
		wantErr commonerrors.DomainError
	}{
		{"valid", `{"recipientId":"bob"}`, nil},
		{"empty body", ``, commonerrors.ErrInvalidJSON},
		{"not json", `recipientId=bob`, commonerrors.ErrInvalidJSON},
		{"missing field", `{}`, commonerrors.ErrInvalidPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/notify", strings.NewReader(tt.payload))
			var b body
			err := DecodeAndValidate(req, &b)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRateLimiter_BlocksAfterBurst(t *testing.T) {
	rl := NewRateLimiter(0.0001, 2)
	defer rl.Stop()

	handler := rl.Middleware("notify")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/notify", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Fatalf("expected first two requests to pass, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("expected third request to be limited, got %d", codes[2])
	}

	other := httptest.NewRequest(http.MethodPost, "/api/notify", nil)
	other.RemoteAddr = "10.0.0.2:5000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	if rec.Code != http.StatusOK {
		t.Errorf("expected a different client to pass, got %d", rec.Code)
	}
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.5:4321"
	if ip := GetClientIP(req); ip != "192.168.1.5" {
		t.Errorf("expected remote host, got %s", ip)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if ip := GetClientIP(req); ip != "203.0.113.7" {
		t.Errorf("expected first forwarded ip, got %s", ip)
	}

	req.Header.Set("X-Real-IP", "198.51.100.2")
	if ip := GetClientIP(req); ip != "198.51.100.2" {
		t.Errorf("expected real ip header, got %s", ip)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware(newTestLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("handler exploded")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestMaxRequestSizeMiddleware(t *testing.T) {
	handler := MaxRequestSizeMiddleware(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/notify", strings.NewReader("0123456789")))

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}

func TestHealthHandler_MergesStats(t *testing.T) {
	handler := HealthHandler(newTestLogger(), func() map[string]any {
		return map[string]any{"connections": 3}
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body["status"])
	}
	if body["connections"] != float64(3) {
		t.Errorf("expected connections 3, got %v", body["connections"])
	}
}
