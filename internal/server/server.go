package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/velharta/subweave/internal/apperrors"
	"github.com/velharta/subweave/internal/cache"
	"github.com/velharta/subweave/internal/config"
	"github.com/velharta/subweave/internal/models"
	"github.com/velharta/subweave/internal/parser"
)

// TrackMerger produces the merged tracks for one bilingual request.
type TrackMerger interface {
	Merge(ctx context.Context, req models.MergeRequest) ([]models.MergedTrack, error)
}

// Handler serves the subtitle endpoint. Composed output is cached under the
// merge request's key so repeated requests for the same episode and language
// pair skip the provider entirely.
type Handler struct {
	merger      TrackMerger
	outputCache cache.Cache
	serializer  *parser.SRTParser
}

// NewHandler creates the request handler. outputCache may be nil, which
// disables output caching.
func NewHandler(merger TrackMerger, outputCache cache.Cache) *Handler {
	return &Handler{
		merger:      merger,
		outputCache: outputCache,
		serializer:  parser.NewSRTParser(),
	}
}

// Routes returns the handler's route table.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/subtitles", h.handleSubtitles)
	mux.HandleFunc("/health", h.handleHealth)
	return mux
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleSubtitles serves GET /subtitles?imdb=&season=&episode=&primary=&secondary=
// with the best merged track as an SRT payload.
func (h *Handler) handleSubtitles(w http.ResponseWriter, r *http.Request) {
	logger := config.GetLogger()

	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, err := parseMergeRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cacheKey := req.CacheKey()
	if h.outputCache != nil {
		if payload, ok := h.outputCache.Get(cacheKey); ok {
			w.Header().Set("Content-Type", "application/x-subrip")
			w.Header().Set("X-Cache", "HIT")
			_, _ = w.Write(payload)
			return
		}
	}

	tracks, err := h.merger.Merge(r.Context(), req)
	if err != nil {
		var noViable *apperrors.NoViableCandidateError
		if errors.As(err, &noViable) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		logger.Error().Err(err).Str("imdb", req.Primary.ImdbID).Msg("Merge request failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	// Merge never returns zero tracks without an error, but guard anyway.
	if len(tracks) == 0 {
		http.Error(w, "no tracks produced", http.StatusNotFound)
		return
	}

	payload := []byte(h.serializer.Serialize(tracks[0].Records))
	if h.outputCache != nil {
		h.outputCache.Set(cacheKey, payload)
	}

	w.Header().Set("Content-Type", "application/x-subrip")
	w.Header().Set("X-Cache", "MISS")
	_, _ = w.Write(payload)
}

// parseMergeRequest validates the query parameters of a subtitle request.
func parseMergeRequest(r *http.Request) (models.MergeRequest, error) {
	q := r.URL.Query()

	imdb := q.Get("imdb")
	if imdb == "" {
		return models.MergeRequest{}, fmt.Errorf("missing required parameter: imdb")
	}
	primary := q.Get("primary")
	if primary == "" {
		return models.MergeRequest{}, fmt.Errorf("missing required parameter: primary")
	}
	secondary := q.Get("secondary")
	if secondary == "" {
		return models.MergeRequest{}, fmt.Errorf("missing required parameter: secondary")
	}

	season, err := parseOptionalInt(q.Get("season"))
	if err != nil {
		return models.MergeRequest{}, fmt.Errorf("invalid season: %w", err)
	}
	episode, err := parseOptionalInt(q.Get("episode"))
	if err != nil {
		return models.MergeRequest{}, fmt.Errorf("invalid episode: %w", err)
	}

	return models.MergeRequest{
		Primary:   models.TrackQuery{ImdbID: imdb, Season: season, Episode: episode, Language: primary},
		Secondary: models.TrackQuery{ImdbID: imdb, Season: season, Episode: episode, Language: secondary},
	}, nil
}

func parseOptionalInt(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	return n, nil
}

// NewHTTPServer builds the service's HTTP server from config.
func NewHTTPServer(cfg *config.Config, handler *Handler) *http.Server {
	address := cfg.Server.Address
	port := cfg.Server.Port
	if port == 0 {
		port = 7590
	}

	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", address, port),
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
