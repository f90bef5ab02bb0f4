package claims

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	ErrMalformedToken = errors.New("malformed claim token")
	ErrMissingField   = errors.New("claim token missing required field")
	ErrTokenExpired   = errors.New("claim token expired")
)

// ClaimToken is the decoded form of an opaque claim link token. It is
// transient: produced once per decode, never persisted.
type ClaimToken struct {
	SubjectID string // claim request key
	Email     string
	Tenant    string
	ChannelID string
	IssuedAt  int64 // Unix seconds
	ExpiresAt int64 // Unix seconds
}

// CodecOptions configures token decoding. SkipExpiryCheck is a
// development-mode escape hatch only; Now is injectable for tests and
// defaults to time.Now.
type CodecOptions struct {
	SkipExpiryCheck bool
	Now             func() time.Time
}

// DecodeToken decodes a three-segment dot-delimited token
// (header.payload.signature) by base64url-decoding the middle segment into
// a flat JSON map. The signature is NOT verified here: the token routes to
// a claim request record, and that record is what authorizes redemption.
//
// Field synonyms tolerated: "requestId" for the subject, "lpId" for the
// channel, "iat"/"exp" for the timestamps.
func DecodeToken(token string, opts CodecOptions) (*ClaimToken, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	segments := strings.Split(token, ".")
	if len(segments) != 3 {
		return nil, ErrMalformedToken
	}

	payload, err := base64.RawURLEncoding.DecodeString(segments[1])
	if err != nil {
		// Some issuers pad; retry with standard url encoding.
		payload, err = base64.URLEncoding.DecodeString(segments[1])
		if err != nil {
			return nil, ErrMalformedToken
		}
	}

	dec := json.NewDecoder(strings.NewReader(string(payload)))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, ErrMalformedToken
	}

	ct := &ClaimToken{
		SubjectID: stringField(fields, "subjectId", "requestId"),
		Email:     stringField(fields, "email"),
		Tenant:    stringField(fields, "tenant"),
		ChannelID: stringField(fields, "channelId", "lpId"),
		IssuedAt:  intField(fields, "issuedAt", "iat"),
		ExpiresAt: intField(fields, "expiresAt", "exp"),
	}

	if ct.SubjectID == "" || ct.Tenant == "" || ct.ChannelID == "" || ct.IssuedAt == 0 || ct.ExpiresAt == 0 {
		return nil, ErrMissingField
	}

	if !opts.SkipExpiryCheck {
		// The window is inclusive on both ends.
		ts := now().Unix()
		if ts < ct.IssuedAt || ts > ct.ExpiresAt {
			return nil, ErrTokenExpired
		}
	}

	return ct, nil
}

// EncodeToken builds the token embedded in a claim link. The payload uses
// the canonical field names; DecodeToken additionally accepts the legacy
// synonyms. The signature segment is HMAC-SHA256 over header.payload.
func EncodeToken(ct *ClaimToken, secret string) (string, error) {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"CLM"}`))

	payload, err := json.Marshal(map[string]any{
		"subjectId": ct.SubjectID,
		"email":     ct.Email,
		"tenant":    ct.Tenant,
		"channelId": ct.ChannelID,
		"issuedAt":  ct.IssuedAt,
		"expiresAt": ct.ExpiresAt,
	})
	if err != nil {
		return "", err
	}

	body := header + "." + base64.RawURLEncoding.EncodeToString(payload)

	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(body))
	signature := base64.RawURLEncoding.EncodeToString(h.Sum(nil))

	return body + "." + signature, nil
}

func stringField(fields map[string]any, names ...string) string {
	for _, name := range names {
		if v, ok := fields[name].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func intField(fields map[string]any, names ...string) int64 {
	for _, name := range names {
		switch v := fields[name].(type) {
		case json.Number:
			if n, err := v.Int64(); err == nil {
				return n
			}
		case string:
			// Tolerate issuers that stringify timestamps.
			var n json.Number = json.Number(v)
			if parsed, err := n.Int64(); err == nil {
				return parsed
			}
		}
	}
	return 0
}
