package claims

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func encodeToken(t *testing.T, payload map[string]any) string {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	body := base64.RawURLEncoding.EncodeToString(raw)
	return header + "." + body + ".signature"
}

func fixedClock(ts int64) func() time.Time {
	return func() time.Time { return time.Unix(ts, 0) }
}

func TestDecodeToken_RoundTrip(t *testing.T) {
	now := int64(1700000000)
	token := encodeToken(t, map[string]any{
		"subjectId": "req-123",
		"email":     "anna@example.com",
		"tenant":    "evermark",
		"channelId": "lp-7",
		"issuedAt":  now - 60,
		"expiresAt": now + 3600,
	})

	got, err := DecodeToken(token, CodecOptions{Now: fixedClock(now)})
	if err != nil {
		t.Fatalf("DecodeToken() error = %v", err)
	}
	if got.SubjectID != "req-123" || got.Email != "anna@example.com" ||
		got.Tenant != "evermark" || got.ChannelID != "lp-7" {
		t.Errorf("DecodeToken() = %+v, fields do not match input", got)
	}
	if got.IssuedAt != now-60 || got.ExpiresAt != now+3600 {
		t.Errorf("DecodeToken() timestamps = %d/%d, want %d/%d",
			got.IssuedAt, got.ExpiresAt, now-60, now+3600)
	}
}

func TestDecodeToken_RequestIDSynonym(t *testing.T) {
	now := int64(1700000000)
	token := encodeToken(t, map[string]any{
		"requestId": "req-syn",
		"tenant":    "evermark",
		"lpId":      "lp-1",
		"issuedAt":  now - 1,
		"expiresAt": now + 1,
	})

	got, err := DecodeToken(token, CodecOptions{Now: fixedClock(now)})
	if err != nil {
		t.Fatalf("DecodeToken() error = %v", err)
	}
	if got.SubjectID != "req-syn" {
		t.Errorf("SubjectID = %q, want %q", got.SubjectID, "req-syn")
	}
	if got.ChannelID != "lp-1" {
		t.Errorf("ChannelID = %q, want %q", got.ChannelID, "lp-1")
	}
}

func TestDecodeToken_Malformed(t *testing.T) {
	now := int64(1700000000)
	tests := []struct {
		name  string
		token string
	}{
		{"two segments", "aaaa.bbbb"},
		{"four segments", "a.b.c.d"},
		{"payload not base64url", "header.!!!not-base64!!!.sig"},
		{"payload not json", "h." + base64.RawURLEncoding.EncodeToString([]byte("not json")) + ".s"},
		{"empty string", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeToken(tt.token, CodecOptions{Now: fixedClock(now)})
			if !errors.Is(err, ErrMalformedToken) {
				t.Errorf("DecodeToken() error = %v, want ErrMalformedToken", err)
			}
		})
	}
}

func TestDecodeToken_MissingField(t *testing.T) {
	now := int64(1700000000)
	base := map[string]any{
		"subjectId": "req-123",
		"tenant":    "evermark",
		"channelId": "lp-7",
		"issuedAt":  now - 60,
		"expiresAt": now + 3600,
	}

	for _, missing := range []string{"subjectId", "tenant", "channelId", "issuedAt", "expiresAt"} {
		t.Run(missing, func(t *testing.T) {
			payload := make(map[string]any, len(base))
			for k, v := range base {
				if k != missing {
					payload[k] = v
				}
			}

			_, err := DecodeToken(encodeToken(t, payload), CodecOptions{Now: fixedClock(now)})
			if !errors.Is(err, ErrMissingField) {
				t.Errorf("DecodeToken() error = %v, want ErrMissingField", err)
			}
		})
	}
}

func TestDecodeToken_ExpiryBoundary(t *testing.T) {
	now := int64(1700000000)
	tests := []struct {
		name      string
		expiresAt int64
		wantErr   error
	}{
		{"expired one second ago", now - 1, ErrTokenExpired},
		{"expires exactly now", now, nil},
		{"expires in the future", now + 1, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := encodeToken(t, map[string]any{
				"subjectId": "req-123",
				"tenant":    "evermark",
				"channelId": "lp-7",
				"issuedAt":  now - 3600,
				"expiresAt": tt.expiresAt,
			})

			_, err := DecodeToken(token, CodecOptions{Now: fixedClock(now)})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("DecodeToken() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeToken_NotYetValid(t *testing.T) {
	now := int64(1700000000)
	token := encodeToken(t, map[string]any{
		"subjectId": "req-123",
		"tenant":    "evermark",
		"channelId": "lp-7",
		"issuedAt":  now + 60,
		"expiresAt": now + 3600,
	})

	if _, err := DecodeToken(token, CodecOptions{Now: fixedClock(now)}); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("DecodeToken() error = %v, want ErrTokenExpired", err)
	}
}

func TestEncodeToken_RoundTrip(t *testing.T) {
	now := int64(1700000000)
	issued := &ClaimToken{
		SubjectID: "req-456",
		Email:     "lena@example.com",
		Tenant:    "partnerco",
		ChannelID: "lp-9",
		IssuedAt:  now - 10,
		ExpiresAt: now + 3600,
	}

	token, err := EncodeToken(issued, "test-secret")
	if err != nil {
		t.Fatalf("EncodeToken() error = %v", err)
	}

	got, err := DecodeToken(token, CodecOptions{Now: fixedClock(now)})
	if err != nil {
		t.Fatalf("DecodeToken() error = %v", err)
	}
	if *got != *issued {
		t.Errorf("round trip = %+v, want %+v", got, issued)
	}
}

func TestDecodeToken_SkipExpiryCheck(t *testing.T) {
	now := int64(1700000000)
	token := encodeToken(t, map[string]any{
		"subjectId": "req-123",
		"tenant":    "evermark",
		"channelId": "lp-7",
		"issuedAt":  now - 7200,
		"expiresAt": now - 3600,
	})

	got, err := DecodeToken(token, CodecOptions{SkipExpiryCheck: true, Now: fixedClock(now)})
	if err != nil {
		t.Fatalf("DecodeToken() with SkipExpiryCheck error = %v", err)
	}
	if got.SubjectID != "req-123" {
		t.Errorf("SubjectID = %q, want %q", got.SubjectID, "req-123")
	}
}
