package roamerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf_Tagged(t *testing.T) {
	err := New(KindTransient, "write/create-block", errors.New("graph not ready"))
	if KindOf(err) != KindTransient {
		t.Errorf("KindOf = %v, want KindTransient", KindOf(err))
	}
	if !IsTransient(err) {
		t.Error("IsTransient = false, want true")
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	inner := New(KindAuth, "q", errors.New("bad token"))
	wrapped := fmt.Errorf("resolve page uid: %w", inner)
	if KindOf(wrapped) != KindAuth {
		t.Errorf("KindOf(wrapped) = %v, want KindAuth", KindOf(wrapped))
	}
	if !IsAuth(wrapped) {
		t.Error("IsAuth(wrapped) = false, want true")
	}
}

func TestKindOf_Untagged(t *testing.T) {
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Error("untagged error should map to KindUnknown")
	}
	if IsTransient(nil) {
		t.Error("IsTransient(nil) = true, want false")
	}
}

func TestError_Message(t *testing.T) {
	err := New(KindExhausted, "write/create-block", errors.New("10 attempts"))
	got := err.Error()
	want := "roam: write/create-block: retries exhausted: 10 attempts"
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
