package extract

import (
	"errors"
	"strings"
	"testing"
)

func TestExtractTextPlain(t *testing.T) {
	got, err := ExtractText([]byte("  Q3 revenue was $4.2B.  \n"), KindText)
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	if got != "Q3 revenue was $4.2B." {
		t.Errorf("got %q", got)
	}
}

func TestExtractTextHTML(t *testing.T) {
	html := `<html><head><style>body{color:red}</style></head><body>
		<nav>Home | About</nav>
		<h1>Acme Corp Q3 2025 Results</h1>
		<p>Revenue grew 12% year over year.</p>
		<script>track()</script>
		<footer>Copyright Acme</footer>
	</body></html>`

	got, err := ExtractText([]byte(html), KindHTML)
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}

	if !strings.Contains(got, "Acme Corp Q3 2025 Results") {
		t.Errorf("headline missing from %q", got)
	}
	if !strings.Contains(got, "Revenue grew 12% year over year.") {
		t.Errorf("paragraph missing from %q", got)
	}
	for _, dropped := range []string{"track()", "color:red", "Home | About", "Copyright Acme"} {
		if strings.Contains(got, dropped) {
			t.Errorf("chrome content %q should be stripped, got %q", dropped, got)
		}
	}
}

func TestExtractTextUnsupported(t *testing.T) {
	_, err := ExtractText([]byte("data"), SourceKind("docx"))
	if err == nil {
		t.Fatal("expected error for unsupported kind")
	}

	var formatErr *UnsupportedFormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("error type = %T, want *UnsupportedFormatError", err)
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	in := "  line one  \n\n\n\n  line two \n\n"
	want := "line one\n\nline two"
	if got := normalizeWhitespace(in); got != want {
		t.Errorf("normalizeWhitespace() = %q, want %q", got, want)
	}
}

func TestSniffKind(t *testing.T) {
	cases := []struct {
		contentType string
		url         string
		want        SourceKind
	}{
		{"application/pdf", "https://example.com/report", KindPDF},
		{"text/html; charset=utf-8", "https://example.com/report", KindHTML},
		{"text/plain", "https://example.com/report.html", KindText},
		{"", "https://example.com/q3.pdf", KindPDF},
		{"", "https://example.com/q3.htm", KindHTML},
		{"", "https://example.com/q3", KindText},
	}

	for _, tc := range cases {
		if got := sniffKind(tc.contentType, tc.url); got != tc.want {
			t.Errorf("sniffKind(%q, %q) = %v, want %v", tc.contentType, tc.url, got, tc.want)
		}
	}
}

func TestFocusEarningsSectionPassthrough(t *testing.T) {
	text := "Revenue grew 12% this quarter. The weather was nice."
	if got := FocusEarningsSection(text); got != text {
		t.Errorf("short documents must pass through unchanged")
	}
}

func TestFocusEarningsSectionTrimsLargeDocuments(t *testing.T) {
	filler := strings.Repeat("The annual company picnic was well attended by staff. ", 2500)
	relevant := "Quarterly revenue reached a record while operating margin expanded."
	text := filler + relevant + " " + filler

	got := FocusEarningsSection(text)
	if len(got) > focusThreshold {
		t.Errorf("focused text length %d exceeds threshold %d", len(got), focusThreshold)
	}
	if !strings.Contains(got, "Quarterly revenue reached a record") {
		t.Error("keyword-bearing sentence should survive focusing")
	}
}
