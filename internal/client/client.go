package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/velharta/subweave/internal/config"
	"github.com/velharta/subweave/internal/models"
	"github.com/velharta/subweave/internal/parser"
	"github.com/velharta/subweave/internal/services"
)

// Client defines the interface for querying the subtitle provider
type Client interface {
	// SearchSubtitles returns candidates for the query, ranked by download
	// count descending.
	SearchSubtitles(ctx context.Context, query models.TrackQuery) ([]models.Candidate, error)

	// DownloadCandidate fetches one candidate's payload, extracting the
	// query's episode when the candidate is a season pack.
	DownloadCandidate(ctx context.Context, candidate models.Candidate, query models.TrackQuery) (*models.DownloadResult, error)

	// Close releases any resources held by the client.
	Close() error
}

// client implements the Client interface
type client struct {
	httpClient      *http.Client
	baseURL         string
	searchParser    parser.Parser[models.Candidate]
	trackDownloader services.TrackDownloader
}

// NewClient creates a provider client. The HTTP transport stack layers,
// from the wire up: optional proxy, transparent response decompression,
// and the failsafe policies (rate limiter plus bounded retry) that every
// outbound provider request must pass through.
func NewClient(cfg *config.Config) Client {
	timeout := cfg.ClientTimeoutOrDefault()

	// Clone DefaultTransport to preserve its settings (timeouts, connection
	// pooling, HTTP/2) and override only what we need.
	baseTransport := http.DefaultTransport.(*http.Transport).Clone()

	if cfg.ProxyConnectionString != "" {
		proxyURL, err := url.Parse(cfg.ProxyConnectionString)
		if err != nil {
			logger := config.GetLogger()
			logger.Warn().Err(err).Str("proxy", cfg.ProxyConnectionString).Msg("Invalid proxy URL, continuing without proxy")
		} else {
			baseTransport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	var transport http.RoundTripper = newDecompressionTransport(baseTransport)
	transport = newResilientTransport(transport, cfg.RateLimit.PerMinute, cfg.RateLimitMaxWait())

	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}

	return &client{
		httpClient:      httpClient,
		baseURL:         cfg.ProviderDomain,
		searchParser:    parser.NewSearchParser(cfg.ProviderDomain),
		trackDownloader: services.NewTrackDownloader(httpClient),
	}
}

// Close releases any resources held by the client.
func (c *client) Close() error {
	return c.trackDownloader.Close()
}
