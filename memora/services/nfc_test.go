package services

import (
	"bytes"
	"strings"
	"testing"
)

func TestPageURL(t *testing.T) {
	s := NewNFCService("https://pages.evermark.app/")

	got := s.PageURL("page-abc")
	want := "https://pages.evermark.app/m/page-abc"
	if got != want {
		t.Errorf("PageURL = %q, want %q", got, want)
	}
}

func TestEncodeURIRecord_HTTPSAbbreviation(t *testing.T) {
	record, err := EncodeURIRecord("https://pages.evermark.app/m/p1")
	if err != nil {
		t.Fatalf("EncodeURIRecord: %v", err)
	}

	if record[0] != 0xD1 {
		t.Errorf("header = %#x, want 0xD1", record[0])
	}
	if record[1] != 0x01 {
		t.Errorf("type length = %d, want 1", record[1])
	}
	if record[3] != 'U' {
		t.Errorf("type = %c, want U", record[3])
	}
	if record[4] != 0x04 {
		t.Errorf("prefix code = %#x, want 0x04 (https://)", record[4])
	}

	rest := "pages.evermark.app/m/p1"
	if !bytes.Equal(record[5:], []byte(rest)) {
		t.Errorf("payload tail = %q, want %q", record[5:], rest)
	}
	if int(record[2]) != 1+len(rest) {
		t.Errorf("payload length = %d, want %d", record[2], 1+len(rest))
	}
}

func TestEncodeURIRecord_NoAbbreviation(t *testing.T) {
	record, err := EncodeURIRecord("tel:+4912345")
	if err != nil {
		t.Fatalf("EncodeURIRecord: %v", err)
	}
	if record[4] != 0x00 {
		t.Errorf("prefix code = %#x, want 0x00", record[4])
	}
	if !bytes.Equal(record[5:], []byte("tel:+4912345")) {
		t.Errorf("payload tail = %q", record[5:])
	}
}

func TestEncodeURIRecord_TooLong(t *testing.T) {
	uri := "https://" + strings.Repeat("a", 300)
	if _, err := EncodeURIRecord(uri); err == nil {
		t.Error("expected error for oversized uri")
	}
}
