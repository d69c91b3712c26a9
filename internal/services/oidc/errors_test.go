package oidc

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_WrapsAndFormats(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	err := newError(ErrCodeExpired, cause)

	if err.Error() != "Token expired: boom" {
		t.Errorf("Unexpected message %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("Expected error to unwrap to cause")
	}
	if CodeOf(fmt.Errorf("outer: %w", err)) != ErrCodeExpired {
		t.Error("Expected CodeOf to see through wrapping")
	}
	if CodeOf(cause) != "" {
		t.Error("Expected empty code for plain error")
	}
	if (&Error{Code: "custom"}).Error() != "custom" {
		t.Error("Expected code to be used when message is empty")
	}
}
