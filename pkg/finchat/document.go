package finchat

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// documentExcerptLimit bounds how much document text is embedded in a
// grounding prompt.
const documentExcerptLimit = 2000

// Document is the ephemeral text extracted from an uploaded PDF. It lives on
// a session until the next upload replaces it; nothing is persisted.
type Document struct {
	Name       string    `json:"name"`
	Text       string    `json:"-"`
	Pages      int       `json:"pages"`
	Chars      int       `json:"chars"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// ExtractPDFText pulls plain text from a PDF, page by page, joined with
// newlines. Pages that yield no text contribute an empty string. Corrupt or
// non-PDF input returns a DOCUMENT_ERROR instead of faulting the session.
func ExtractPDFText(name string, r io.ReaderAt, size int64) (doc *Document, err error) {
	// The pdf parser panics on some malformed inputs; a corrupt upload must
	// not take the session down with it.
	defer func() {
		if rec := recover(); rec != nil {
			doc = nil
			err = NewError(ErrCodeDocument, fmt.Sprintf("malformed pdf: %v", rec))
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, WrapError(ErrCodeDocument, "open pdf", err)
	}

	pageCount := reader.NumPage()
	pages := make([]string, 0, pageCount)
	for i := 1; i <= pageCount; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			text = ""
		}
		pages = append(pages, text)
	}

	full := strings.Join(pages, "\n")
	return &Document{
		Name:       name,
		Text:       full,
		Pages:      pageCount,
		Chars:      len(full),
		UploadedAt: time.Now().UTC(),
	}, nil
}

// Excerpt returns the document text truncated to documentExcerptLimit bytes,
// backing off to a rune boundary so the prompt never carries a split rune.
func (d *Document) Excerpt() string {
	if len(d.Text) <= documentExcerptLimit {
		return d.Text
	}
	cut := documentExcerptLimit
	for cut > 0 && !utf8.RuneStart(d.Text[cut]) {
		cut--
	}
	return d.Text[:cut]
}
