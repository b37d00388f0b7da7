package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentCascade, Output: &buf})

	logger.InfoContext(context.Background(), "Monthly plan created", FieldPlanID, 7)
	out := buf.String()
	if !strings.Contains(out, "component=cascade") || !strings.Contains(out, "plan_id=7") {
		t.Fatalf("unexpected output %q", out)
	}

	buf.Reset()
	logger.WithComponent(ComponentDaily).WarnContext(context.Background(), "x")
	if !strings.Contains(buf.String(), "component=daily") || strings.Contains(buf.String(), "component=cascade") {
		t.Fatalf("component not replaced: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"DEBUG", slog.LevelDebug, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().
		WithPlan(3, "2025-08", 31).
		WithOperation(OpCreate).
		WithError(errors.New("boom")).
		WithError(nil)

	if f[FieldPlanID] != int64(3) || f[FieldPeriod] != "2025-08" || f[FieldDailyCount] != 31 {
		t.Fatalf("plan fields = %v", f)
	}
	if f[FieldError] != "boom" {
		t.Fatalf("error field = %v", f[FieldError])
	}
	if len(f.ToSlice()) != 2*len(f) {
		t.Fatalf("ToSlice length mismatch")
	}
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentApp, Output: &buf})

	handler := Middleware(logger)(
		RequestIDMiddleware(func(*http.Request) string { return "req-1" })(
			AccessLog(func(*http.Request) string { return "10.0.0.1" })(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusNotFound)
				}))))

	req := httptest.NewRequest(http.MethodGet, "/api/plans/9", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	for _, want := range []string{"level=WARN", "status_code=404", "request_id=req-1", "client_ip=10.0.0.1", "component=http"} {
		if !strings.Contains(out, want) {
			t.Errorf("access log missing %q: %s", want, out)
		}
	}
}

func TestFromContextDefault(t *testing.T) {
	if FromContext(context.Background()).Component() != "unknown" {
		t.Fatal("expected fallback logger")
	}
}
