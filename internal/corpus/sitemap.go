// Package corpus produces the record corpus: it walks a site's sitemap,
// extracts page content, summarizes long pages, and appends the results to
// storage in a stable order.
package corpus

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc string `xml:"loc"`
}

// FetchSitemapURLs downloads the sitemap and returns its page URLs in
// document order. Only directory-style URLs (trailing slash) are kept; asset
// and file entries are skipped.
func FetchSitemapURLs(ctx context.Context, client *http.Client, sitemapURL, userAgent string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sitemapURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build sitemap request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sitemap: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sitemap fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read sitemap: %w", err)
	}

	var set sitemapURLSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("failed to parse sitemap: %w", err)
	}

	urls := make([]string, 0, len(set.URLs))
	for _, u := range set.URLs {
		loc := strings.TrimSpace(u.Loc)
		if strings.HasSuffix(loc, "/") {
			urls = append(urls, loc)
		}
	}
	return urls, nil
}
