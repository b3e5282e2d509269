package parser

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/velharta/subweave/internal/config"
	"github.com/velharta/subweave/internal/models"
)

// SearchParser extracts ranked subtitle candidates from the provider's
// HTML search results listing.
type SearchParser struct {
	baseURL string
}

// NewSearchParser creates a new search results parser instance
func NewSearchParser(baseURL string) *SearchParser {
	return &SearchParser{
		baseURL: baseURL,
	}
}

// ParseHtml implements the Parser[models.Candidate] interface.
//
// The listing is a table where each result row carries at least four cells:
// | Language | Release (with download link) | Uploader | Downloads |
// Rows with fewer cells, no language, or no download link are skipped.
func (p *SearchParser) ParseHtml(body io.Reader) ([]models.Candidate, error) {
	logger := config.GetLogger()

	utf8Body, err := NewUTF8Reader(body)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare search page reader: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(utf8Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search results HTML: %w", err)
	}

	var candidates []models.Candidate

	doc.Find("tr").Each(func(i int, row *goquery.Selection) {
		tds := row.Find("td")
		if tds.Length() < 4 {
			return // Header or layout row
		}

		candidate := p.extractCandidateFromRow(row, tds)
		if candidate != nil {
			candidates = append(candidates, *candidate)
			logger.Debug().
				Str("id", candidate.ID).
				Str("language", candidate.Language).
				Str("release", candidate.Release).
				Int("downloads", candidate.Downloads).
				Msg("Extracted subtitle candidate")
		}
	})

	logger.Info().Int("candidates", len(candidates)).Msg("Parsed provider search results")

	return candidates, nil
}

// extractCandidateFromRow extracts one candidate from a result row.
func (p *SearchParser) extractCandidateFromRow(row *goquery.Selection, tds *goquery.Selection) *models.Candidate {
	language := strings.TrimSpace(tds.Eq(0).Text())
	if language == "" {
		return nil
	}

	releaseTd := tds.Eq(1)
	release := strings.TrimSpace(releaseTd.Text())
	if release == "" {
		return nil
	}

	downloadLink, exists := releaseTd.Find("a").Attr("href")
	if !exists {
		return nil
	}

	downloadURL := p.resolveDownloadURL(downloadLink)
	if downloadURL == "" {
		return nil
	}

	uploader := strings.TrimSpace(tds.Eq(2).Text())

	downloads := 0
	if n, err := strconv.Atoi(strings.TrimSpace(tds.Eq(3).Text())); err == nil {
		downloads = n
	}

	isSeasonPack := row.AttrOr("data-season-pack", "0") == "1"

	return &models.Candidate{
		ID:           candidateIDFromLink(downloadLink),
		Language:     strings.ToLower(language),
		Release:      release,
		DownloadURL:  downloadURL,
		Downloads:    downloads,
		Uploader:     uploader,
		IsSeasonPack: isSeasonPack,
	}
}

// resolveDownloadURL turns a relative download link into an absolute URL
// anchored on the provider domain. Absolute links pass through unchanged.
func (p *SearchParser) resolveDownloadURL(link string) string {
	parsed, err := url.Parse(link)
	if err != nil {
		return ""
	}
	if parsed.IsAbs() {
		return parsed.String()
	}

	base, err := url.Parse(p.baseURL)
	if err != nil {
		return ""
	}
	return base.ResolveReference(parsed).String()
}

// candidateIDFromLink derives a stable candidate id from the download link:
// the "id" query parameter when present, otherwise the last path segment.
func candidateIDFromLink(link string) string {
	parsed, err := url.Parse(link)
	if err != nil {
		return link
	}
	if id := parsed.Query().Get("id"); id != "" {
		return id
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	return segments[len(segments)-1]
}
