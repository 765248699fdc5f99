package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggerErrorIncludesContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf, Format: FormatJSON})

	ctx := context.Background()
	ctx = log.WithRequestID(ctx, "req-123")
	ctx = log.WithOrderID(ctx, "order-1")

	log.Error(ctx, "boom", errors.New("boom"))

	for _, field := range []string{"\"request_id\"", "\"order_id\"", "\"stack\"", "\"error\""} {
		if !bytes.Contains(buf.Bytes(), []byte(field)) {
			t.Fatalf("expected %s in entry=%s", field, buf.String())
		}
	}
}

func TestLoggerWarnStackToggle(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Output: buf, Format: FormatJSON})
	log.Warn(context.Background(), "quiet")
	if bytes.Contains(buf.Bytes(), []byte("\"stack\"")) {
		t.Fatalf("did not expect stack when warn stack disabled")
	}

	buf.Reset()
	log = New(Options{ServiceName: "test", Output: buf, WarnStack: true, Format: FormatJSON})
	log.Warn(context.Background(), "loud")
	if !bytes.Contains(buf.Bytes(), []byte("\"stack\"")) {
		t.Fatalf("expected stack when warn stack enabled")
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: zerolog.WarnLevel, Output: buf, Format: FormatJSON})
	log.Info(context.Background(), "dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered, got %s", buf.String())
	}
}

func TestParseLevelDefaults(t *testing.T) {
	if lvl := ParseLevel(""); lvl != zerolog.InfoLevel {
		t.Fatalf("expected default info level, got %v", lvl)
	}
	if lvl := ParseLevel("invalid"); lvl != zerolog.InfoLevel {
		t.Fatalf("invalid level should fallback to info, got %v", lvl)
	}
	if lvl := ParseLevel(" WARN "); lvl != zerolog.WarnLevel {
		t.Fatalf("expected warn level, got %v", lvl)
	}
}

func TestLoggerStaticAndOrderedFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{
		ServiceName: "api",
		Output:      buf,
		Format:      FormatJSON,
		Fields:      map[string]string{"instance": "pod-7", "env": "test"},
	})

	ctx := log.WithFields(context.Background(), map[string]any{"vendor_id": "v-1", "order_id": "o-1"})
	log.Info(ctx, "claimed")

	entry := buf.String()
	for _, field := range []string{`"instance":"pod-7"`, `"env":"test"`, `"service":"api"`} {
		if !strings.Contains(entry, field) {
			t.Fatalf("expected %s in entry=%s", field, entry)
		}
	}
	if strings.Index(entry, `"order_id"`) > strings.Index(entry, `"vendor_id"`) {
		t.Fatalf("expected fields in key order, got %s", entry)
	}
}

func TestLoggerContextFieldsDoNotLeak(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Output: buf, Format: FormatJSON})

	scoped := log.WithVendorID(context.Background(), "v-9")
	log.Info(scoped, "scoped")
	log.Info(context.Background(), "plain")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two entries, got %d", len(lines))
	}
	if !strings.Contains(lines[0], `"vendor_id":"v-9"`) || strings.Contains(lines[1], "vendor_id") {
		t.Fatalf("vendor field leaked or missing: %v", lines)
	}
}
