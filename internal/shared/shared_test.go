package shared

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	t.Run("With Writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		logger.Info("hello")

		if !strings.Contains(buf.String(), "hello") {
			t.Errorf("expected log output to contain message, got %q", buf.String())
		}
	})

	t.Run("With Nil Writer", func(t *testing.T) {
		logger := NewLogger(nil)
		if logger == nil {
			t.Fatal("expected logger, got nil")
		}
	})
}

func TestGenerateTempID(t *testing.T) {
	id := GenerateTempID()

	if !strings.HasPrefix(id, "temp_") {
		t.Errorf("expected temp_ prefix, got %q", id)
	}
	if !IsTempID(id) {
		t.Error("expected generated id to be recognized as placeholder")
	}
	if IsTempID("1874158536") {
		t.Error("numeric provider id misclassified as placeholder")
	}
	if id == GenerateTempID() {
		t.Error("expected distinct placeholder ids")
	}
}
