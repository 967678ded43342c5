package booking

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func errorsIs(err, target error) bool { return errors.Is(err, target) }

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{ErrSessionFull, KindCapacityExceeded},
		{fmt.Errorf("wrapped: %w", ErrCodeMismatch), KindUnauthorized},
		{&RateLimitedError{RetryAfter: time.Minute}, KindRateLimited},
		{Invalidf("name is required"), KindInvalid},
		{errors.New("db down"), KindInternal},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Fatalf("KindOf(%v): expected %q, got %q", tc.err, tc.want, got)
		}
	}
}

func TestInvalidfMatchesErrInvalidInput(t *testing.T) {
	err := Invalidf("bad %s", "thing")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatal("expected Invalidf error to match ErrInvalidInput")
	}
	if errors.Is(err, ErrSessionFull) {
		t.Fatal("expected Invalidf error not to match ErrSessionFull")
	}
	if err.Error() != "bad thing" {
		t.Fatalf("expected message %q, got %q", "bad thing", err.Error())
	}
}

func TestRateLimitedErrorUnwraps(t *testing.T) {
	var err error = &RateLimitedError{RetryAfter: 90 * time.Second}
	if !errors.Is(err, ErrRateLimited) {
		t.Fatal("expected RateLimitedError to unwrap to ErrRateLimited")
	}
	var rl *RateLimitedError
	if !errors.As(err, &rl) || rl.RetryAfter != 90*time.Second {
		t.Fatalf("expected retry after 90s, got %+v", rl)
	}
}
