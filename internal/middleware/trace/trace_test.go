package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	applog "payroll/internal/log"
)

func TestMiddlewareAssignsRequestIDAndLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := applog.New(applog.Config{Level: slog.LevelInfo, Output: &buf})

	var seen string
	h := NewMiddleware(logger, func(*http.Request) string { return "10.1.1.1" }).Middleware(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r.Context())
			w.WriteHeader(http.StatusCreated)
		}),
	)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/employees", nil))

	if !strings.HasPrefix(seen, "req_") {
		t.Fatalf("request id = %q", seen)
	}
	if rec.Header().Get(HeaderRequestID) != seen {
		t.Errorf("response header = %q, want %q", rec.Header().Get(HeaderRequestID), seen)
	}
	line := buf.String()
	for _, want := range []string{"status_code=201", "client_ip=10.1.1.1", "request_id=" + seen, "path=/api/employees"} {
		if !strings.Contains(line, want) {
			t.Errorf("missing %q in %s", want, line)
		}
	}
}

func TestMiddlewareReusesIncomingRequestID(t *testing.T) {
	tests := []struct {
		incoming string
		reused   bool
	}{
		{"abc-123_X", true},
		{"bad id with spaces", false},
		{strings.Repeat("a", 65), false},
		{"", false},
	}
	for _, tt := range tests {
		logger := applog.New(applog.Config{Output: &bytes.Buffer{}})
		var seen string
		h := NewMiddleware(logger, nil).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r.Context())
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.incoming != "" {
			req.Header.Set(HeaderRequestID, tt.incoming)
		}
		h.ServeHTTP(httptest.NewRecorder(), req)
		if (seen == tt.incoming) != tt.reused {
			t.Errorf("incoming %q: got %q, reused want %v", tt.incoming, seen, tt.reused)
		}
	}
}

func TestGenerateRequestIDUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := GenerateRequestID()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}
