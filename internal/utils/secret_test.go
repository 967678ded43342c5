package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestRandomDigits(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := RandomDigits(6)
		if err != nil {
			t.Fatalf("random digits: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("expected only digits, got %q", code)
			}
		}
	}
}

func TestRandomStringUsesAlphabet(t *testing.T) {
	code, err := RandomString(8, TicketAlphabet)
	if err != nil {
		t.Fatalf("random string: %v", err)
	}
	for _, r := range code {
		if !strings.ContainsRune(TicketAlphabet, r) {
			t.Fatalf("unexpected rune %q in %q", r, code)
		}
	}
}

func TestHashEqual(t *testing.T) {
	h := HashCode("123456")
	if !HashEqual(h, HashCode("123456")) {
		t.Fatal("expected equal hashes to match")
	}
	if HashEqual(h, HashCode("123457")) {
		t.Fatal("expected different codes not to match")
	}
}

func TestNewStaffTokenRoundTrip(t *testing.T) {
	now := time.Now()
	tok, err := NewStaffToken("s3cret", "door-1", RoleStaff, time.Hour, now)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	claims := &StaffClaims{}
	parsed, err := jwt.ParseWithClaims(tok.Token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("s3cret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("expected valid token, got %v", err)
	}
	if claims.Subject != "door-1" || claims.Role != RoleStaff {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestNewStaffTokenRejectsUnknownRole(t *testing.T) {
	if _, err := NewStaffToken("s", "x", "OWNER", time.Hour, time.Now()); err != ErrBadRole {
		t.Fatalf("expected ErrBadRole, got %v", err)
	}
}
