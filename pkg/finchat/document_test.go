package finchat

import (
	"bytes"
	"strings"
	"testing"
)

func TestExtractPDFTextCorruptInput(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"not a pdf", []byte("plain text pretending to be a pdf")},
		{"truncated header", []byte("%PDF-1.7\n")},
		{"empty", nil},
		{"binary garbage", bytes.Repeat([]byte{0xff, 0x00, 0x13}, 64)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Must classify, never panic.
			doc, err := ExtractPDFText("upload.pdf", bytes.NewReader(tt.data), int64(len(tt.data)))
			if !IsErrorCode(err, ErrCodeDocument) {
				t.Fatalf("expected DOCUMENT_ERROR, got doc=%v err=%v", doc, err)
			}
		})
	}
}

func TestDocumentExcerpt(t *testing.T) {
	short := &Document{Text: "small document"}
	if got := short.Excerpt(); got != "small document" {
		t.Errorf("short excerpt = %q", got)
	}

	long := &Document{Text: strings.Repeat("a", 3000)}
	if got := long.Excerpt(); len(got) != documentExcerptLimit {
		t.Errorf("excerpt length = %d", len(got))
	}

	// A multi-byte rune straddling the limit is dropped whole.
	straddled := &Document{Text: strings.Repeat("a", 1999) + "₹₹"}
	got := straddled.Excerpt()
	if len(got) != 1999 {
		t.Errorf("excerpt length = %d", len(got))
	}
	if strings.ContainsRune(got, '₹') {
		t.Errorf("excerpt carries a split rune region: %q", got[1990:])
	}
}
