package services

import (
	"testing"

	"github.com/memoralabs/memora/memora"
)

func testSessionService() *SessionService {
	return NewSessionService(&memora.Config{
		Session: memora.SessionConfig{Secret: "test-secret", TTLHours: 1},
	})
}

func TestSignData_RoundTrip(t *testing.T) {
	s := testSessionService()

	signed, err := s.signData([]byte(`{"uid":"u-1"}`))
	if err != nil {
		t.Fatalf("signData: %v", err)
	}

	data, err := s.verifyAndDecodeData(signed)
	if err != nil {
		t.Fatalf("verifyAndDecodeData: %v", err)
	}
	if string(data) != `{"uid":"u-1"}` {
		t.Errorf("decoded = %q", data)
	}
}

func TestVerifyAndDecodeData_Tampered(t *testing.T) {
	s := testSessionService()

	signed, err := s.signData([]byte("payload"))
	if err != nil {
		t.Fatalf("signData: %v", err)
	}

	b := []byte(signed)
	mid := len(b) / 2
	if b[mid] == 'A' {
		b[mid] = 'B'
	} else {
		b[mid] = 'A'
	}
	if _, err := s.verifyAndDecodeData(string(b)); err == nil {
		t.Error("tampered data should fail verification")
	}
}

func TestVerifyAccessCode(t *testing.T) {
	s := testSessionService()

	code := s.AccessCodeFor("staff-1")
	if !s.VerifyAccessCode("staff-1", code) {
		t.Error("access code should verify for its own uid")
	}
	if s.VerifyAccessCode("staff-2", code) {
		t.Error("access code must not verify for another uid")
	}
	if s.VerifyAccessCode("staff-1", "bogus") {
		t.Error("bogus code must not verify")
	}
}

func TestVerifyAccessCode_NoSecret(t *testing.T) {
	s := NewSessionService(&memora.Config{})
	if s.VerifyAccessCode("staff-1", s.AccessCodeFor("staff-1")) {
		t.Error("logins must be impossible without a configured secret")
	}
}
