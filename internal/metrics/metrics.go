package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the mira client
type Metrics struct {
	// Frame pipeline metrics
	FramesRead       prometheus.Counter
	FramesDropped    prometheus.Counter
	SpeechFrames     prometheus.Counter
	ClassifierErrors prometheus.Counter

	// Sentence metrics
	SentencesCompleted prometheus.Counter
	SentenceBytes      prometheus.Histogram
	SentenceDuration   prometheus.Histogram

	// Server collaborator metrics
	StatusPolls         prometheus.Counter
	InteractionsPosted  prometheus.Counter
	InteractionFailures prometheus.Counter

	// Observer lifecycle
	ObserverStarts prometheus.Counter
	ObserverStops  prometheus.Counter
}

// New creates all metrics and registers them with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		FramesRead: factory.NewCounter(prometheus.CounterOpts{
			Name: "mira_frames_read_total",
			Help: "Total number of audio frames read from the input device",
		}),
		FramesDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "mira_frames_dropped_total",
			Help: "Total number of frames discarded due to short or failed reads",
		}),
		SpeechFrames: factory.NewCounter(prometheus.CounterOpts{
			Name: "mira_speech_frames_total",
			Help: "Total number of frames classified as speech",
		}),
		ClassifierErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "mira_classifier_errors_total",
			Help: "Total number of voice activity classification errors",
		}),
		SentencesCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "mira_sentences_completed_total",
			Help: "Total number of sentence boundaries declared",
		}),
		SentenceBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mira_sentence_bytes",
			Help:    "Size of completed sentence buffers in bytes",
			Buckets: prometheus.ExponentialBuckets(960, 2, 12),
		}),
		SentenceDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mira_sentence_duration_seconds",
			Help:    "Audio duration of completed sentences in seconds",
			Buckets: prometheus.ExponentialBuckets(0.03, 2, 12),
		}),
		StatusPolls: factory.NewCounter(prometheus.CounterOpts{
			Name: "mira_status_polls_total",
			Help: "Total number of enablement status polls",
		}),
		InteractionsPosted: factory.NewCounter(prometheus.CounterOpts{
			Name: "mira_interactions_posted_total",
			Help: "Total number of sentences successfully uploaded",
		}),
		InteractionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "mira_interaction_failures_total",
			Help: "Total number of failed sentence uploads",
		}),
		ObserverStarts: factory.NewCounter(prometheus.CounterOpts{
			Name: "mira_observer_starts_total",
			Help: "Total number of observer start operations",
		}),
		ObserverStops: factory.NewCounter(prometheus.CounterOpts{
			Name: "mira_observer_stops_total",
			Help: "Total number of observer stop operations",
		}),
	}
}
