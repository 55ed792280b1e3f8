package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/m1dnxt404/finalyze/pkg/logger"
)

const edgarBrowseURL = "https://www.sec.gov/cgi-bin/browse-edgar"

// Filing is one row from an EDGAR company filing listing.
type Filing struct {
	FormType    string `json:"form_type"`
	Description string `json:"description"`
	FilingDate  string `json:"filing_date"`
	DocumentURL string `json:"document_url"`
}

// SearchFilings lists recent filings for a ticker from SEC EDGAR. formType
// narrows the listing ("8-K", "10-Q", "10-K"); empty lists everything.
func (f *Fetcher) SearchFilings(ctx context.Context, ticker, formType string, limit int) ([]Filing, error) {
	if limit <= 0 {
		limit = 10
	}

	params := url.Values{}
	params.Set("action", "getcompany")
	params.Set("CIK", ticker)
	params.Set("type", formType)
	params.Set("dateb", "")
	params.Set("owner", "include")
	params.Set("count", fmt.Sprintf("%d", limit))

	reqURL := edgarBrowseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpc.Do(req)
	if err != nil {
		return nil, &FetchError{URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{URL: reqURL, StatusCode: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse filing listing: %w", err)
	}

	filings := make([]Filing, 0, limit)
	doc.Find("table.tableFile2 tr").Each(func(_ int, row *goquery.Selection) {
		if len(filings) >= limit {
			return
		}
		cells := row.Find("td")
		if cells.Length() < 4 {
			return
		}

		filing := Filing{
			FormType:    strings.TrimSpace(cells.Eq(0).Text()),
			Description: strings.TrimSpace(cells.Eq(2).Text()),
			FilingDate:  strings.TrimSpace(cells.Eq(3).Text()),
		}
		if href, ok := cells.Eq(1).Find("a").First().Attr("href"); ok {
			filing.DocumentURL = absoluteSECURL(href)
		}
		if filing.FormType != "" {
			filings = append(filings, filing)
		}
	})

	logger.Debug("filings listed",
		zap.String("ticker", ticker),
		zap.String("form_type", formType),
		zap.Int("count", len(filings)),
	)

	return filings, nil
}

func absoluteSECURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return "https://www.sec.gov" + href
}
