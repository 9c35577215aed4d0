package utils

import (
	"encoding/base64"
	"regexp"
	"testing"
)

func TestGenerateConfirmationToken(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		tok, err := GenerateConfirmationToken()
		if err != nil {
			t.Fatalf("GenerateConfirmationToken: %v", err)
		}
		raw, err := base64.RawURLEncoding.DecodeString(tok)
		if err != nil {
			t.Fatalf("token %q is not url-safe base64: %v", tok, err)
		}
		if len(raw)*8 < 128 {
			t.Fatalf("token carries %d bits, want >= 128", len(raw)*8)
		}
		if seen[tok] {
			t.Fatalf("duplicate token %q", tok)
		}
		seen[tok] = true
	}
}

func TestGenerateBookingID(t *testing.T) {
	pattern := regexp.MustCompile(`^BKG_[0-9A-F]{8}$`)
	id, err := GenerateBookingID()
	if err != nil {
		t.Fatal(err)
	}
	if !pattern.MatchString(id) {
		t.Fatalf("booking id %q does not match %s", id, pattern)
	}
}

func TestGenerateUniqueBookingID(t *testing.T) {
	calls := 0
	id, err := GenerateUniqueBookingID(func(string) bool {
		calls++
		return calls < 3
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 3 || id == "" {
		t.Fatalf("expected third candidate to be accepted, calls=%d id=%q", calls, id)
	}

	if _, err := GenerateUniqueBookingID(func(string) bool { return true }); err == nil {
		t.Fatal("expected error when every id is taken")
	}
}
