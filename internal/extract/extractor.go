package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
)

// SourceKind identifies a document format handled by ExtractText.
type SourceKind string

const (
	KindText SourceKind = "text"
	KindHTML SourceKind = "html"
	KindPDF  SourceKind = "pdf"
)

// UnsupportedFormatError reports a document that none of the extractors can
// handle.
type UnsupportedFormatError struct {
	Kind string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported document format: %s", e.Kind)
}

// ExtractText converts a raw document into plain text suitable for analysis.
func ExtractText(data []byte, kind SourceKind) (string, error) {
	switch kind {
	case KindText:
		return strings.TrimSpace(string(data)), nil
	case KindHTML:
		return extractHTML(data)
	case KindPDF:
		return extractPDF(data)
	default:
		return "", &UnsupportedFormatError{Kind: string(kind)}
	}
}

// extractHTML strips chrome elements and returns the visible text. Block
// elements are separated by newlines so paragraph structure survives.
func extractHTML(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}

	doc.Find("script, style, nav, header, footer, noscript, iframe").Remove()

	var parts []string
	doc.Find("p, h1, h2, h3, h4, h5, h6, li, td, th, div").Each(func(_ int, s *goquery.Selection) {
		if s.Children().Filter("p, div, li, table").Length() > 0 {
			return
		}
		text := strings.TrimSpace(s.Text())
		if text != "" {
			parts = append(parts, text)
		}
	})

	if len(parts) == 0 {
		text := strings.TrimSpace(doc.Find("body").Text())
		if text == "" {
			return "", fmt.Errorf("no text content found in html document")
		}
		return normalizeWhitespace(text), nil
	}

	return normalizeWhitespace(strings.Join(parts, "\n")), nil
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	var b strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("no text content found in pdf document")
	}
	return normalizeWhitespace(text), nil
}

// normalizeWhitespace collapses runs of blank lines and trims each line.
func normalizeWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	pending := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			pending = true
			continue
		}
		if pending && len(out) > 0 {
			out = append(out, "")
		}
		pending = false
		out = append(out, trimmed)
	}
	return strings.Join(out, "\n")
}
