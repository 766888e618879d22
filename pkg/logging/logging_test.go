package logging

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func captureOutput(t *testing.T, level slog.Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(level)
	t.Cleanup(func() {
		SetOutput(nopWriter{})
		SetLevel(slog.LevelInfo)
	})
	return &buf
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestCompactHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCompactHandler(&buf, &slog.HandlerOptions{Level: LevelTrace}))

	log.Log(context.Background(), LevelTrace, "weights", "switch", 3, "weight", 5)
	log.Info("round done", "mode", "bootstrap", "note", "two words")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "[TRACE] ") || !strings.HasSuffix(lines[0], "weights | switch=3 weight=5") {
		t.Errorf("Unexpected trace line: %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], `round done | mode=bootstrap note="two words"`) {
		t.Errorf("Unexpected info line: %q", lines[1])
	}
}

func TestCompactHandlerWithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCompactHandler(&buf, nil)).
		With("component", "scheduler").
		WithGroup("solver").
		With("sweeps", 2)

	log.Info("solved", "score", 5)

	got := strings.TrimSpace(buf.String())
	want := "solved | component=scheduler solver.sweeps=2 solver.score=5"
	if !strings.HasSuffix(got, want) {
		t.Errorf("Expected suffix %q, got %q", want, got)
	}
}

func TestCompactHandlerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCompactHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	log.Info("hidden")
	log.Warn("shown")

	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("Level filter not applied: %q", buf.String())
	}
}

func TestContextIDsAreShortened(t *testing.T) {
	buf := captureOutput(t, slog.LevelDebug)

	ctx := WithRoundID(context.Background(), "0123456789abcdef")
	ctx = WithRequestID(ctx, "fedcba9876543210")
	InfoContext(ctx, "probe sent", "switch", 2)

	got := buf.String()
	if !strings.Contains(got, "req=fedcba98 round=01234567 switch=2") {
		t.Errorf("Unexpected output: %q", got)
	}
}

func TestLevelForVerbosity(t *testing.T) {
	tests := []struct {
		verbosity int
		want      slog.Level
	}{
		{0, slog.LevelInfo},
		{1, slog.LevelDebug},
		{2, LevelTrace},
		{5, LevelTrace},
	}
	for _, tt := range tests {
		if got := LevelForVerbosity(tt.verbosity); got != tt.want {
			t.Errorf("LevelForVerbosity(%d) = %v, want %v", tt.verbosity, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	for input, want := range map[string]slog.Level{
		"trace": LevelTrace,
		"DEBUG": slog.LevelDebug,
		"warn":  slog.LevelWarn,
	} {
		got, err := ParseLevel(input)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", input, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("ParseLevel should reject unknown levels")
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	_ = captureOutput(t, slog.LevelInfo)

	var (
		seenID     string
		seenStatus int
	)
	handler := RequestIDMiddleware(func(r *http.Request, status int, _ time.Duration) {
		seenStatus = status
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = GetRequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/schedule", nil))

	if seenID == "" || rec.Header().Get("X-Request-ID") != seenID {
		t.Errorf("Request id not propagated: ctx=%q header=%q", seenID, rec.Header().Get("X-Request-ID"))
	}
	if seenStatus != http.StatusTeapot {
		t.Errorf("Observer saw status %d", seenStatus)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "given")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if seenID != "given" {
		t.Errorf("Expected incoming request id to be kept, got %q", seenID)
	}
}
