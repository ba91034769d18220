package failure_test

import (
	"errors"
	"net/http"
	"testing"

	"berth/shared/failure"
)

func TestFailure_Error(t *testing.T) {
	f := &failure.Failure{
		Code:    http.StatusBadRequest,
		Message: "test error message",
	}

	if f.Error() != "test error message" {
		t.Errorf("expected error message to be 'test error message', got %s", f.Error())
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{name: "BadRequestFromString", err: failure.BadRequestFromString("bad"), code: http.StatusBadRequest},
		{name: "NotFound", err: failure.NotFound("reservation not found"), code: http.StatusNotFound},
		{name: "Forbidden", err: failure.Forbidden("not yours"), code: http.StatusForbidden},
		{name: "InvalidState", err: failure.InvalidState("already accepted"), code: http.StatusConflict},
		{name: "Conflict", err: failure.Conflict("no free seats"), code: http.StatusConflict},
		{name: "Unprocessable", err: failure.Unprocessable("slot is not linked"), code: http.StatusUnprocessableEntity},
		{name: "Upstream", err: failure.Upstream("provider timed out"), code: http.StatusBadGateway},
		{name: "Unauthorized", err: failure.Unauthorized("missing identity"), code: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := failure.GetCode(tt.err); got != tt.code {
				t.Errorf("expected code %d, got %d", tt.code, got)
			}
		})
	}
}

func TestGetCode_UnknownError(t *testing.T) {
	if got := failure.GetCode(errors.New("plain")); got != http.StatusInternalServerError {
		t.Errorf("expected %d for plain errors, got %d", http.StatusInternalServerError, got)
	}
}

func TestNilConstructors(t *testing.T) {
	if failure.BadRequest(nil) != nil {
		t.Error("BadRequest(nil) should be nil")
	}

	if failure.InternalError(nil) != nil {
		t.Error("InternalError(nil) should be nil")
	}
}
