package validate

import (
	"testing"

	perr "github.com/harry-gibson/DHS-To-Database/internal/platform/errors"
)

type sample struct {
	Name string `validate:"required"`
	Len  int    `validate:"gte=1"`
}

func TestStruct_ValidPasses(t *testing.T) {
	err := Struct(sample{Name: "V001", Len: 2})
	if err != nil {
		t.Fatalf("Struct returned error for valid input: %v", err)
	}
}

func TestStruct_InvalidMapsToValidationError(t *testing.T) {
	err := Struct(sample{Name: "", Len: 0})
	if err == nil {
		t.Fatalf("expected error for invalid input")
	}
	if !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("expected ErrorCodeValidation, got %v", perr.CodeOf(err))
	}
}

func TestFieldAndMessage_ReturnsFirstFailure(t *testing.T) {
	err := Get().Validator.Struct(sample{Name: "", Len: 0})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	field, msg := FieldAndMessage(err)
	if field != "Name" {
		t.Fatalf("field = %q, want Name", field)
	}
	if msg == "" {
		t.Fatalf("expected non-empty message")
	}
}
