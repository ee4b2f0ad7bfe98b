package taskexec

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"
)

type businessErr struct{ msg string }

func (e *businessErr) Error() string { return e.msg }
func (e *businessErr) Business() bool { return true }

type validationErr struct{ field string }

func (e *validationErr) Error() string            { return "invalid: " + e.field }
func (e *validationErr) ValidationField() string { return e.field }

type authErr struct{}

func (e *authErr) Error() string     { return "denied" }
func (e *authErr) AuthDenied() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, KindUnknown},
		{"business tag wins", &businessErr{"quota exceeded"}, KindBusiness},
		{"deadline exceeded", context.DeadlineExceeded, KindTimeout},
		{"canceled", context.Canceled, KindTimeout},
		{"panic wrapper", &panicError{value: "boom"}, KindSystem},
		{"net timeout error", &net.DNSError{IsTimeout: true}, KindTimeout},
		{"net non-timeout error", &net.DNSError{}, KindNetwork},
		{"net op error", &net.OpError{Op: "dial", Err: errors.New("refused")}, KindNetwork},
		{"auth sentinel", &authErr{}, KindAuth},
		{"validation tag", &validationErr{field: "email"}, KindValidation},
		{"plain unknown error", errors.New("whatever"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(context.Background(), tt.err)
			if got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestClassify_DeadlineExceededContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	got := Classify(ctx, errors.New("some transport error"))
	// A generic error classifies Unknown; it's the caller's job (dispatchOne)
	// to override to Timeout when ctx.Err() == DeadlineExceeded.
	if got != KindUnknown {
		t.Errorf("Classify() = %v, want %v", got, KindUnknown)
	}
}

func TestErrorKind_Retryable(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want bool
	}{
		{KindNetwork, true},
		{KindTimeout, true},
		{KindSystem, true},
		{KindUnknown, true},
		{KindAuth, false},
		{KindValidation, false},
		{KindBusiness, false},
	}
	for _, tt := range tests {
		if got := tt.kind.Retryable(); got != tt.want {
			t.Errorf("%v.Retryable() = %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestErrorKind_String(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{KindTimeout, "Timeout"},
		{KindNetwork, "Network"},
		{KindAuth, "Auth"},
		{KindValidation, "Validation"},
		{KindSystem, "System"},
		{KindBusiness, "Business"},
		{KindUnknown, "Unknown"},
		{ErrorKind(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("ErrorKind(%d).String() = %v, want %v", tt.kind, got, tt.want)
		}
	}
}
