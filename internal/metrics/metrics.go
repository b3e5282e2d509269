package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// MergeRequestsTotal counts bilingual track requests by outcome
	// ("success", "no_candidates", "error").
	MergeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "merge_requests_total",
			Help: "Total number of bilingual merge requests.",
		},
		[]string{"outcome"},
	)

	// SubtitleDownloadsTotal counts candidate downloads by status.
	SubtitleDownloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subtitle_downloads_total",
			Help: "Total number of subtitle downloads.",
		},
		[]string{"status"},
	)

	// CandidateFailuresTotal counts candidates discarded by the pipeline,
	// labeled with the stage that rejected them.
	CandidateFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "candidate_failures_total",
			Help: "Total number of subtitle candidates discarded, by pipeline stage.",
		},
		[]string{"stage"},
	)

	// EncodingResolutionsTotal counts encoding resolutions by the codec
	// that ultimately decoded the payload.
	EncodingResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "encoding_resolutions_total",
			Help: "Total number of payload encoding resolutions, by resolved codec.",
		},
		[]string{"codec"},
	)

	// AlignmentMatchRatio observes, per merged track, the fraction of
	// primary records that received a secondary match.
	AlignmentMatchRatio = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "alignment_match_ratio",
			Help:    "Fraction of primary captions matched with a secondary caption per merged track.",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)
)

func init() {
	prometheus.MustRegister(
		MergeRequestsTotal,
		SubtitleDownloadsTotal,
		CandidateFailuresTotal,
		EncodingResolutionsTotal,
		AlignmentMatchRatio,
	)
}
