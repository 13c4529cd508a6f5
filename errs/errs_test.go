package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidatorCollectsFirstMessagePerField(t *testing.T) {
	var v Validator
	v.Check(false, "title", "required")
	v.Check(false, "title", "too_long")
	v.Check(true, "content", "required")

	err := v.Err()
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	fields := Fields(fmt.Errorf("wrapped: %w", err))
	if len(fields) != 1 || fields["title"] != "required" {
		t.Fatalf("unexpected fields: %v", fields)
	}
}

func TestValidatorNoErrors(t *testing.T) {
	var v Validator
	v.Check(true, "x", "y")
	if err := v.Err(); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if Fields(errors.New("other")) != nil {
		t.Fatal("expected nil fields for non-validation error")
	}
}
