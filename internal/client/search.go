package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/velharta/subweave/internal/config"
	"github.com/velharta/subweave/internal/models"
)

// SearchSubtitles queries the provider's search listing for one language and
// returns the candidates ranked by download count descending, so the caller
// can try them in order of popularity.
func (c *client) SearchSubtitles(ctx context.Context, query models.TrackQuery) ([]models.Candidate, error) {
	logger := config.GetLogger()

	endpoint, err := c.buildSearchURL(query)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("imdb", query.ImdbID).
		Int("season", query.Season).
		Int("episode", query.Episode).
		Str("language", query.Language).
		Msg("Searching provider for subtitle candidates")

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("User-Agent", config.GetUserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	candidates, err := c.searchParser.ParseHtml(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}

	// The listing can mix languages; keep only the requested one.
	if query.Language != "" {
		filtered := candidates[:0]
		for _, candidate := range candidates {
			if strings.EqualFold(candidate.Language, query.Language) {
				filtered = append(filtered, candidate)
			}
		}
		candidates = filtered
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Downloads > candidates[j].Downloads
	})

	logger.Info().
		Int("candidates", len(candidates)).
		Str("language", query.Language).
		Msg("Ranked subtitle candidates")

	return candidates, nil
}

func (c *client) buildSearchURL(query models.TrackQuery) (string, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid provider base URL: %w", err)
	}

	base.Path = strings.TrimRight(base.Path, "/") + "/search"
	q := base.Query()
	q.Set("imdb", query.ImdbID)
	if query.Season > 0 {
		q.Set("season", strconv.Itoa(query.Season))
	}
	if query.Episode > 0 {
		q.Set("episode", strconv.Itoa(query.Episode))
	}
	if query.Language != "" {
		q.Set("lang", query.Language)
	}
	base.RawQuery = q.Encode()

	return base.String(), nil
}
