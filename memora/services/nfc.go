package services

import (
	"fmt"
	"strings"
)

// NDEF URI abbreviation codes from the NFC Forum URI Record Type
// Definition. Only the schemes we actually emit are listed; anything
// else falls through to code 0x00 (no abbreviation).
var ndefURIPrefixes = []struct {
	code   byte
	prefix string
}{
	{0x01, "http://www."},
	{0x02, "https://www."},
	{0x03, "http://"},
	{0x04, "https://"},
}

// NFCService builds the NDEF payloads engraved onto product tags. A tag
// carries a single well-known URI record pointing at the memory's
// public page.
type NFCService struct {
	publicBaseURL string
}

func NewNFCService(publicBaseURL string) *NFCService {
	return &NFCService{
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
	}
}

// PageURL is the public address a tag resolves to.
func (s *NFCService) PageURL(publicPageID string) string {
	return fmt.Sprintf("%s/m/%s", s.publicBaseURL, publicPageID)
}

// EncodeURIRecord packs a URI into a single short NDEF record:
// header MB|ME|SR|TNF=well-known, type 'U', then the abbreviation code
// followed by the remaining URI bytes.
func EncodeURIRecord(uri string) ([]byte, error) {
	code := byte(0x00)
	rest := uri
	for _, p := range ndefURIPrefixes {
		if strings.HasPrefix(uri, p.prefix) {
			code = p.code
			rest = uri[len(p.prefix):]
			break
		}
	}

	// Short records cap the payload length at one byte.
	payloadLen := 1 + len(rest)
	if payloadLen > 255 {
		return nil, fmt.Errorf("uri too long for short NDEF record: %d bytes", payloadLen)
	}

	record := make([]byte, 0, 4+len(rest))
	record = append(record,
		0xD1,             // MB=1 ME=1 SR=1 TNF=0x01 (well-known)
		0x01,             // type length
		byte(payloadLen), // payload length
		'U',              // type: URI
		code,
	)
	record = append(record, rest...)
	return record, nil
}

// TagPayload builds the complete NDEF message to write onto a tag for
// the given page.
func (s *NFCService) TagPayload(publicPageID string) ([]byte, error) {
	return EncodeURIRecord(s.PageURL(publicPageID))
}
