// Package extract turns uploaded resume documents into plain text.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	MimePDF   = "application/pdf"
	MimePlain = "text/plain"
)

// ErrUnsupportedFormat is returned for any declared MIME type other than
// PDF or plain text, before any parsing is attempted.
var ErrUnsupportedFormat = errors.New("unsupported file type: upload a PDF or plain text file")

// ExtractionError wraps the underlying cause when a supported document
// cannot be parsed (corrupt, encrypted, unexpected structure).
type ExtractionError struct {
	cause error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extracting resume text: %v", e.cause)
}

func (e *ExtractionError) Unwrap() error { return e.cause }

// Extract returns the flattened text content of the uploaded document.
// Dispatch is on the declared MIME type only; the content is never
// sniffed.
func Extract(mimeType string, data []byte) (string, error) {
	switch mimeType {
	case MimePlain:
		return string(data), nil
	case MimePDF:
		return pdfText(data)
	default:
		return "", ErrUnsupportedFormat
	}
}

// pdfText walks every page in order, joining text fragments within a
// page with a single space and pages with a newline.
func pdfText(data []byte) (text string, err error) {
	// The pdf library panics on some malformed documents.
	defer func() {
		if r := recover(); r != nil {
			err = &ExtractionError{cause: fmt.Errorf("pdf parse panic: %v", r)}
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &ExtractionError{cause: err}
	}

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()
		fragments := make([]string, 0, len(content.Text))
		for _, t := range content.Text {
			fragments = append(fragments, t.S)
		}
		pages = append(pages, strings.Join(fragments, " "))
	}
	return strings.Join(pages, "\n"), nil
}
