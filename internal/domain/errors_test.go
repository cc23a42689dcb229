package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Message(t *testing.T) {
	err := NewError(ErrInvalidParams, "content is required")
	if err.Error() != "content is required" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestError_WrappedCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapError(ErrDelivery, cause, "post webhook")
	if err.Error() != "post webhook: connection refused" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Fatal("wrapped cause should be reachable via errors.Is")
	}
}

func TestKindOf_Direct(t *testing.T) {
	kind, ok := KindOf(NewError(ErrUnknownTool, "unknown tool: ping"))
	if !ok || kind != ErrUnknownTool {
		t.Fatalf("expected ErrUnknownTool, got %v (ok=%v)", kind, ok)
	}
}

func TestKindOf_AfterRewrapping(t *testing.T) {
	inner := NewError(ErrConfiguration, "webhook URL is required")
	outer := fmt.Errorf("startup: %w", inner)

	kind, ok := KindOf(outer)
	if !ok || kind != ErrConfiguration {
		t.Fatalf("expected ErrConfiguration through wrapping, got %v (ok=%v)", kind, ok)
	}
}

func TestKindOf_PlainError(t *testing.T) {
	if _, ok := KindOf(errors.New("plain")); ok {
		t.Fatal("plain error should not carry a kind")
	}
}

func TestIsKind(t *testing.T) {
	err := NewError(ErrDelivery, "status 500")
	if !IsKind(err, ErrDelivery) {
		t.Fatal("expected ErrDelivery")
	}
	if IsKind(err, ErrInvalidParams) {
		t.Fatal("kind should not match ErrInvalidParams")
	}
}

func TestValidMsgType(t *testing.T) {
	for _, valid := range []string{MsgTypeText, MsgTypeMarkdown} {
		if !ValidMsgType(valid) {
			t.Errorf("%q should be valid", valid)
		}
	}
	for _, invalid := range []string{"", "html", "TEXT", "md"} {
		if ValidMsgType(invalid) {
			t.Errorf("%q should be invalid", invalid)
		}
	}
}
