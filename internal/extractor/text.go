package extractor

import (
	"bytes"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// TextFromPDF pulls plain text from PDF bytes. Scanned images inside
// PDFs yield empty text; callers fall back to provider OCR.
func TextFromPDF(data []byte) (string, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// IsPDF reports whether the mime type denotes a PDF.
func IsPDF(mimeType string) bool {
	return strings.EqualFold(strings.TrimSpace(mimeType), "application/pdf")
}
