package validator

import (
	"context"
	"strings"
	"testing"
)

type redeemReq struct {
	Code string `json:"code" validate:"required,otp"`
}

type sessionReq struct {
	Title string `json:"title" validate:"required,max=200"`
	Date  string `json:"date" validate:"required,isodate"`
	Start string `json:"start_time" validate:"required,hhmm"`
	Email string `json:"email" validate:"omitempty,email"`
	Cap   int    `json:"confirmed_capacity" validate:"gte=1"`
}

func TestValidate(t *testing.T) {
	ctx := context.Background()
	good := sessionReq{Title: "T", Date: "2026-10-20", Start: "18:00", Cap: 3}
	cases := []struct {
		name    string
		in      any
		wantErr string
	}{
		{"valid otp", redeemReq{Code: "012345"}, ""},
		{"short otp", redeemReq{Code: "1234"}, "Code must be six digits: code"},
		{"letters otp", redeemReq{Code: "12a456"}, "Code must be six digits"},
		{"missing code", redeemReq{}, "Field is required: code"},
		{"valid session", good, ""},
		{"bad date", func() sessionReq { s := good; s.Date = "20-10-2026"; return s }(), "Date must be YYYY-MM-DD: date"},
		{"bad clock", func() sessionReq { s := good; s.Start = "25:00"; return s }(), "Time must be HH:MM: start_time"},
		{"bad email", func() sessionReq { s := good; s.Email = "nope"; return s }(), ErrInvalidEmail},
		{"zero capacity", func() sessionReq { s := good; s.Cap = 0; return s }(), ErrFieldBelowMinVal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(ctx, tc.in)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected %q, got %v", tc.wantErr, err)
			}
		})
	}
}
