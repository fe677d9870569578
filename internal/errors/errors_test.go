package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "error without cause",
			err:  &AppError{Code: ErrCodeNotFound, Message: "resource not found"},
			want: "resource not found",
		},
		{
			name: "error with cause",
			err: &AppError{
				Code:    ErrCodeInternal,
				Message: "failed to process",
				Cause:   errors.New("underlying error"),
			},
			want: "failed to process: underlying error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(cause, ErrCodeInternal, "wrapped error")

	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(wrapped, cause) = false, want true")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code ErrorCode
	}{
		{"NotFound", NotFound("x"), ErrCodeNotFound},
		{"NotFoundf", NotFoundf("user %s", "1"), ErrCodeNotFound},
		{"Conflict", Conflict("x"), ErrCodeConflict},
		{"Conflictf", Conflictf("email %s", "a"), ErrCodeConflict},
		{"Validation", Validation("x"), ErrCodeValidation},
		{"ValidationField", ValidationField("email", "x"), ErrCodeValidation},
		{"Unauthorized", Unauthorized("x"), ErrCodeUnauthorized},
		{"Forbidden", Forbidden("x"), ErrCodeForbidden},
		{"Internal", Internal("x"), ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("%s().Code = %v, want %v", tt.name, tt.err.Code, tt.code)
			}
		})
	}

	if got := NotFoundf("user %s", "7").Message; got != "user 7" {
		t.Errorf("NotFoundf message = %q", got)
	}
	if got := ValidationField("email", "bad").Field; got != "email" {
		t.Errorf("ValidationField field = %q", got)
	}
}

func TestWrap_NilError(t *testing.T) {
	if err := Wrap(nil, ErrCodeInternal, "x"); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
	if err := Wrapf(nil, ErrCodeInternal, "x %d", 1); err != nil {
		t.Errorf("Wrapf(nil) = %v, want nil", err)
	}
}

func TestIsHelpers_ThroughWrapping(t *testing.T) {
	base := NotFound("missing")
	wrapped := fmt.Errorf("lookup: %w", base)

	if !IsNotFound(wrapped) {
		t.Error("IsNotFound(wrapped) = false")
	}
	if IsConflict(wrapped) || IsValidation(wrapped) || IsTimeout(wrapped) || IsCanceled(wrapped) {
		t.Error("unexpected code match")
	}
	if GetCode(errors.New("plain")) != "" {
		t.Error("GetCode(plain) should be empty")
	}
	if GetField(errors.New("plain")) != "" {
		t.Error("GetField(plain) should be empty")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NotFound("x"), http.StatusNotFound},
		{Conflict("x"), http.StatusConflict},
		{Validation("x"), http.StatusUnprocessableEntity},
		{Unauthorized("x"), http.StatusUnauthorized},
		{Forbidden("x"), http.StatusForbidden},
		{Wrap(errors.New("x"), ErrCodeTimeout, "t"), http.StatusGatewayTimeout},
		{Wrap(errors.New("x"), ErrCodeCanceled, "c"), 499},
		{errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
