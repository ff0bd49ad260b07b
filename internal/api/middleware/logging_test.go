package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// logLine разбирает последнюю JSON-строку журнала.
func logLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &entry); err != nil {
		t.Fatalf("некорректный JSON в журнале: %v, строка: %s", err, lines[len(lines)-1])
	}
	return entry
}

func newLoggedHandler(buf *bytes.Buffer, level slog.Level, status int) http.Handler {
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: level}))

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte("ok"))
	})

	return chimiddleware.RequestID(RequestLogger(logger)(inner))
}

func TestRequestLogger_LevelsByStatus(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{"успех — INFO", http.StatusOK, "INFO"},
		{"клиентская ошибка — WARN", http.StatusNotFound, "WARN"},
		{"серверная ошибка — ERROR", http.StatusInternalServerError, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handler := newLoggedHandler(&buf, slog.LevelDebug, tt.status)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
			handler.ServeHTTP(httptest.NewRecorder(), req)

			entry := logLine(t, &buf)
			if entry["level"] != tt.wantLevel {
				t.Errorf("хотели уровень %s, получили %v", tt.wantLevel, entry["level"])
			}
			if entry["status"] != float64(tt.status) {
				t.Errorf("хотели статус %d, получили %v", tt.status, entry["status"])
			}
		})
	}
}

func TestRequestLogger_RequestID(t *testing.T) {
	var buf bytes.Buffer
	handler := newLoggedHandler(&buf, slog.LevelDebug, http.StatusOK)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	entry := logLine(t, &buf)
	reqID, ok := entry["request_id"].(string)
	if !ok || reqID == "" {
		t.Errorf("в записи журнала должен присутствовать непустой request_id, получили %v", entry["request_id"])
	}
}

func TestRequestLogger_ProbePathsAtDebug(t *testing.T) {
	// На уровне INFO успешные запросы к probe-маршрутам в журнал не попадают
	var buf bytes.Buffer
	handler := newLoggedHandler(&buf, slog.LevelInfo, http.StatusOK)

	for _, path := range []string{"/health/live", "/health/ready", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	if buf.Len() != 0 {
		t.Errorf("probe-маршруты не должны логироваться на уровне INFO, журнал: %s", buf.String())
	}

	// Обычный запрос логируется
	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if buf.Len() == 0 {
		t.Error("обычный запрос должен попадать в журнал на уровне INFO")
	}

	// Ошибка на probe-маршруте остаётся видимой
	buf.Reset()
	failing := newLoggedHandler(&buf, slog.LevelInfo, http.StatusServiceUnavailable)
	req = httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	failing.ServeHTTP(httptest.NewRecorder(), req)

	entry := logLine(t, &buf)
	if entry["level"] != "ERROR" {
		t.Errorf("ошибка readiness должна логироваться на уровне ERROR, получили %v", entry["level"])
	}
}
