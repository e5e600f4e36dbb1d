package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

// TestNewLogger_DevEnvironment проверяет создание логгера для dev окружения
func TestNewLogger_DevEnvironment(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLoggerTo(&buf, "dev", "debug", "nexus-console")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	log.Debug("debug message")
	log.With(String("component", "session")).Info("message with field")

	if !strings.Contains(buf.String(), "message with field") {
		t.Errorf("Expected output to contain message, got %q", buf.String())
	}
}

// TestNewLogger_ProdEnvironmentWritesJSON проверяет JSON формат вне dev окружения
func TestNewLogger_ProdEnvironmentWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLoggerTo(&buf, "prod", "info", "nexus-console")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	log.Info("poll tick", Int("unread", 3))

	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("Expected JSON line, got %q: %v", buf.String(), err)
	}
	if entry["service"] != "nexus-console" {
		t.Errorf("Expected service field, got %v", entry["service"])
	}
	if entry["environment"] != "prod" {
		t.Errorf("Expected environment field, got %v", entry["environment"])
	}
	if entry["unread"] != float64(3) {
		t.Errorf("Expected unread=3, got %v", entry["unread"])
	}
}

// TestNewLogger_LevelFilter проверяет, что сообщения ниже уровня отбрасываются
func TestNewLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log, _ := NewLoggerTo(&buf, "prod", "warn", "nexus-console")

	log.Info("hidden")
	log.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Expected info message to be filtered, got %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("Expected warn message, got %q", out)
	}
}

// TestNewLogger_InvalidLevel проверяет уровень по умолчанию
func TestNewLogger_InvalidLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLoggerTo(&buf, "prod", "invalid", "nexus-console")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	log.Debug("debug hidden")
	log.Info("info visible")

	if strings.Contains(buf.String(), "debug hidden") {
		t.Error("Expected info to be the default level")
	}
}

func TestNewNop(t *testing.T) {
	log := NewNop()
	log.Error("nothing happens", Error(nil))
	if err := log.With(String("k", "v")).Sync(); err != nil {
		t.Errorf("Expected nil error from nop sync, got %v", err)
	}
}

// TestLogger_CtxField проверяет создание поля request_id из контекста
func TestLogger_CtxField(t *testing.T) {
	ctx := ContextWithRequestID(context.Background(), "req-123")

	field := CtxField(ctx)
	if field.Field.Key != "request_id" {
		t.Errorf("Expected field key 'request_id', got %s", field.Field.Key)
	}
	if field.Field.String != "req-123" {
		t.Errorf("Expected 'req-123', got %s", field.Field.String)
	}

	if CtxField(context.Background()).Field.String != "unknown" {
		t.Error("Expected 'unknown' without request id")
	}
}

// TestLogger_Fields проверяет создание различных типов полей
func TestLogger_Fields(t *testing.T) {
	cases := map[string]Field{
		"name":    String("name", "test"),
		"roles":   Strings("roles", []string{"ADMINISTRADOR"}),
		"count":   Int("count", 42),
		"id":      Int64("id", 7),
		"active":  Bool("active", true),
		"elapsed": Duration("elapsed", time.Second),
		"error":   Error(nil),
		"data":    Any("data", map[string]interface{}{"key": "value"}),
	}
	for key, field := range cases {
		if field.Field.Key != key {
			t.Errorf("Expected field key %q, got %q", key, field.Field.Key)
		}
	}
}
