package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/m1dnxt404/finalyze/pkg/logger"
	"github.com/m1dnxt404/finalyze/pkg/retry"
)

const (
	maxDocumentBytes = 20 << 20
	userAgent        = "finalyze/1.0 (earnings report analyzer)"
)

// FetchError reports a document download failure after retries.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher downloads report documents and extracts their text. Downloads are
// retried with backoff; this is the only layer that retries network calls.
type Fetcher struct {
	httpc       *http.Client
	retryConfig retry.Config
}

func NewFetcher(httpc *http.Client) *Fetcher {
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	cfg := retry.DefaultConfig()
	cfg.Logger = logger.GetLogger()
	return &Fetcher{
		httpc:       httpc,
		retryConfig: cfg,
	}
}

// FetchURL downloads a document and returns its extracted plain text. The
// format is sniffed from the Content-Type header, falling back to the URL
// extension.
func (f *Fetcher) FetchURL(ctx context.Context, url string) (string, error) {
	var (
		body        []byte
		contentType string
	)

	err := retry.Do(ctx, f.retryConfig, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := f.httpc.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			return &FetchError{URL: url, StatusCode: resp.StatusCode}
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
		if err != nil {
			return err
		}
		contentType = resp.Header.Get("Content-Type")
		return nil
	})
	if err != nil {
		if _, ok := err.(*FetchError); ok {
			return "", err
		}
		return "", &FetchError{URL: url, Err: err}
	}

	kind := sniffKind(contentType, url)

	logger.Debug("document fetched",
		zap.String("url", url),
		zap.String("kind", string(kind)),
		zap.Int("bytes", len(body)),
	)

	return ExtractText(body, kind)
}

func sniffKind(contentType, url string) SourceKind {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "application/pdf"):
		return KindPDF
	case strings.Contains(ct, "text/html"), strings.Contains(ct, "application/xhtml"):
		return KindHTML
	case strings.Contains(ct, "text/plain"):
		return KindText
	}

	lower := strings.ToLower(url)
	switch {
	case strings.HasSuffix(lower, ".pdf"):
		return KindPDF
	case strings.HasSuffix(lower, ".htm"), strings.HasSuffix(lower, ".html"):
		return KindHTML
	default:
		return KindText
	}
}
