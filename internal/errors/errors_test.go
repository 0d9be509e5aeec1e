package errors

import (
	stdErrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNewUsesRegisteredMessage(t *testing.T) {
	err := New(CodeTimeout, "")
	if !strings.Contains(err.Error(), "operation timed out") {
		t.Fatalf("expected default message, got %v", err)
	}
	if err.Code() != CodeTimeout {
		t.Fatalf("unexpected code: %v", err.Code())
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("dial tcp: connection refused")
	err := Wrap(CodeStorageFailure, cause, "保存会话记录失败")

	if !stdErrors.Is(err, cause) {
		t.Fatalf("wrapped cause must be reachable via errors.Is")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("cause missing from message: %v", err)
	}
	if CodeOf(err) != CodeStorageFailure {
		t.Fatalf("unexpected code: %v", CodeOf(err))
	}
}

func TestCodeOfThroughWrapping(t *testing.T) {
	inner := New(CodeConfigInvalid, "缺少必需的环境变量: OPENAI_API_KEY")
	outer := fmt.Errorf("startup: %w", inner)

	if CodeOf(outer) != CodeConfigInvalid {
		t.Fatalf("code should survive fmt wrapping, got %v", CodeOf(outer))
	}
	if CodeOf(stdErrors.New("plain")) != CodeUnknown {
		t.Fatalf("plain errors should map to UNKNOWN")
	}
}

func TestAttributeOverrides(t *testing.T) {
	err := New(CodeExplorerFailure, "", WithRetryable(false), WithSeverity(SeverityCritical), WithAlert(true))

	if err.Retryable() {
		t.Fatalf("override should disable retry")
	}
	if err.Severity() != SeverityCritical {
		t.Fatalf("unexpected severity: %v", err.Severity())
	}
	if !ShouldAlert(err) {
		t.Fatalf("override should enable alert")
	}
}

func TestMetadataIsCopied(t *testing.T) {
	err := New(CodeToolFailure, "", WithMetadata("tool", "transfer_native"))

	meta := err.Metadata()
	if meta["tool"] != "transfer_native" {
		t.Fatalf("unexpected metadata: %v", meta)
	}
	meta["tool"] = "mutated"
	if err.Metadata()["tool"] != "transfer_native" {
		t.Fatalf("metadata must not be mutable from outside")
	}
}

func TestIsMatchesByCode(t *testing.T) {
	a := New(CodeLLMFailure, "first")
	b := New(CodeLLMFailure, "second")
	c := New(CodeTimeout, "third")

	if !stdErrors.Is(a, b) {
		t.Fatalf("errors with the same code should match")
	}
	if stdErrors.Is(a, c) {
		t.Fatalf("errors with different codes should not match")
	}
}
