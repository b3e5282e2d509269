package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/abadojack/whatlanggo"
	"github.com/getsentry/sentry-go"
	"golang.org/x/sync/errgroup"

	"github.com/velharta/subweave/internal/apperrors"
	"github.com/velharta/subweave/internal/client"
	"github.com/velharta/subweave/internal/config"
	"github.com/velharta/subweave/internal/metrics"
	"github.com/velharta/subweave/internal/models"
	"github.com/velharta/subweave/internal/parser"
	"github.com/velharta/subweave/internal/services"
)

// Orchestrator runs the full bilingual merge: search both languages, walk the
// ranked candidates until a viable sequence is found per language, align the
// two timelines, and emit merged tracks. Primary timing is authoritative;
// every viable secondary candidate yields its own track.
type Orchestrator struct {
	client           client.Client
	resolver         *parser.CharsetResolver
	srtParser        *parser.SRTParser
	aligner          services.SubtitleAligner
	primaryAttempts  int
	secondaryOutputs int
}

// New builds an orchestrator from config, wiring the composer and aligner
// with the configured styling and tolerance window.
func New(c client.Client, cfg *config.Config) *Orchestrator {
	composer := services.NewCaptionComposer(cfg.Alignment.SecondaryColor, cfg.Alignment.SecondaryItalic)

	primaryAttempts := cfg.Candidates.PrimaryAttempts
	if primaryAttempts <= 0 {
		primaryAttempts = 4
	}
	secondaryOutputs := cfg.Candidates.SecondaryOutputs
	if secondaryOutputs <= 0 {
		secondaryOutputs = 4
	}

	return &Orchestrator{
		client:           c,
		resolver:         parser.NewCharsetResolver(),
		srtParser:        parser.NewSRTParser(),
		aligner:          services.NewSubtitleAligner(cfg.AlignThreshold(), composer),
		primaryAttempts:  primaryAttempts,
		secondaryOutputs: secondaryOutputs,
	}
}

// viableTrack is one candidate that survived download, decoding, and parsing.
type viableTrack struct {
	candidate models.Candidate
	sequence  models.CaptionSequence
}

// Merge produces the bilingual tracks for one request. Both language searches
// run in parallel. The first viable primary candidate anchors the output;
// each viable secondary candidate (capped by config) produces one merged
// track. When no secondary is viable the result is a single pass-through
// track of the primary alone.
//
// A request with no viable primary candidate fails with
// NoViableCandidateError.
func (o *Orchestrator) Merge(ctx context.Context, req models.MergeRequest) ([]models.MergedTrack, error) {
	logger := config.GetLogger()

	var primaryCandidates, secondaryCandidates []models.Candidate

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		primaryCandidates, err = o.client.SearchSubtitles(gctx, req.Primary)
		if err != nil {
			return fmt.Errorf("primary search failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		secondaryCandidates, err = o.client.SearchSubtitles(gctx, req.Secondary)
		if err != nil {
			// A failed secondary search degrades to a pass-through track
			// instead of failing the request.
			logger.Warn().Err(err).Str("language", req.Secondary.Language).Msg("Secondary search failed, continuing without secondary candidates")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		metrics.MergeRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	primary, attempted := o.firstViable(ctx, primaryCandidates, req.Primary, o.primaryAttempts)
	if primary == nil {
		err := &apperrors.NoViableCandidateError{
			Language:  req.Primary.Language,
			Attempted: attempted,
		}
		metrics.MergeRequestsTotal.WithLabelValues("no_candidates").Inc()
		sentry.CaptureException(err)
		return nil, err
	}

	o.verifyLanguage(primary.sequence, req.Primary.Language)

	secondaries := o.collectViable(ctx, secondaryCandidates, req.Secondary, o.secondaryOutputs)

	tracks := make([]models.MergedTrack, 0, len(secondaries))
	for _, secondary := range secondaries {
		o.verifyLanguage(secondary.sequence, req.Secondary.Language)

		track := models.MergedTrack{
			Primary:   primary.candidate,
			Secondary: &secondary.candidate,
			Records:   o.aligner.Align(primary.sequence, secondary.sequence),
		}
		metrics.AlignmentMatchRatio.Observe(track.MatchRatio())
		tracks = append(tracks, track)
	}

	if len(tracks) == 0 {
		logger.Info().
			Str("imdb", req.Primary.ImdbID).
			Str("secondary_language", req.Secondary.Language).
			Msg("No viable secondary candidate, emitting pass-through track")
		tracks = append(tracks, models.MergedTrack{
			Primary: primary.candidate,
			Records: o.aligner.Align(primary.sequence, nil),
		})
	}

	metrics.MergeRequestsTotal.WithLabelValues("success").Inc()

	logger.Info().
		Str("imdb", req.Primary.ImdbID).
		Int("season", req.Primary.Season).
		Int("episode", req.Primary.Episode).
		Int("tracks", len(tracks)).
		Msg("Merged bilingual tracks")

	return tracks, nil
}

// firstViable walks candidates in rank order and returns the first one whose
// payload downloads, decodes, and parses, along with the number of candidates
// tried.
func (o *Orchestrator) firstViable(ctx context.Context, candidates []models.Candidate, query models.TrackQuery, maxAttempts int) (*viableTrack, int) {
	attempted := 0
	for _, candidate := range candidates {
		if attempted >= maxAttempts {
			break
		}
		attempted++

		sequence, err := o.fetchSequence(ctx, candidate, query)
		if err != nil {
			continue
		}
		return &viableTrack{candidate: candidate, sequence: sequence}, attempted
	}
	return nil, attempted
}

// collectViable gathers up to limit viable candidates in rank order.
func (o *Orchestrator) collectViable(ctx context.Context, candidates []models.Candidate, query models.TrackQuery, limit int) []viableTrack {
	viable := make([]viableTrack, 0, limit)
	for _, candidate := range candidates {
		if len(viable) >= limit {
			break
		}
		sequence, err := o.fetchSequence(ctx, candidate, query)
		if err != nil {
			continue
		}
		viable = append(viable, viableTrack{candidate: candidate, sequence: sequence})
	}
	return viable
}

// fetchSequence runs one candidate through the fallback chain: download the
// payload, resolve its encoding, and parse the captions. Each failure is
// counted against the stage that rejected the candidate.
func (o *Orchestrator) fetchSequence(ctx context.Context, candidate models.Candidate, query models.TrackQuery) (models.CaptionSequence, error) {
	logger := config.GetLogger()

	result, err := o.client.DownloadCandidate(ctx, candidate, query)
	if err != nil {
		metrics.CandidateFailuresTotal.WithLabelValues("download").Inc()
		logger.Warn().Err(err).Str("candidate", candidate.ID).Msg("Candidate download failed")
		return nil, err
	}

	guess, err := o.resolver.Resolve(result.Content, result.SourceURL)
	if err != nil {
		metrics.CandidateFailuresTotal.WithLabelValues("encoding").Inc()
		logger.Warn().Err(err).Str("candidate", candidate.ID).Msg("Candidate encoding resolution failed")
		return nil, err
	}

	sequence, err := o.srtParser.Parse(guess.Text)
	if err != nil {
		metrics.CandidateFailuresTotal.WithLabelValues("parse").Inc()
		logger.Warn().Err(err).Str("candidate", candidate.ID).Str("codec", guess.Codec).Msg("Candidate parse failed")
		return nil, err
	}

	metrics.EncodingResolutionsTotal.WithLabelValues(guess.Codec).Inc()
	return sequence, nil
}

// languageSampleRecords bounds the text sample fed to language detection.
const languageSampleRecords = 40

// verifyLanguage runs statistical language detection over a sample of the
// parsed captions and warns when the detected language contradicts the
// requested one. Detection is advisory only: short tracks and close language
// pairs misdetect too often to reject a candidate over it.
func (o *Orchestrator) verifyLanguage(sequence models.CaptionSequence, expected string) {
	if expected == "" || len(sequence) == 0 {
		return
	}

	var sb strings.Builder
	for i, record := range sequence {
		if i >= languageSampleRecords {
			break
		}
		sb.WriteString(record.Text)
		sb.WriteByte('\n')
	}

	info := whatlanggo.Detect(sb.String())
	if !info.IsReliable() {
		return
	}

	detected := whatlanggo.Langs[info.Lang]
	if !strings.EqualFold(detected, expected) {
		logger := config.GetLogger()
		logger.Warn().
			Str("expected", expected).
			Str("detected", detected).
			Msg("Detected caption language differs from requested language")
	}
}
