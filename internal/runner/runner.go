package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/user/mira-client/internal/audio"
	"github.com/user/mira-client/internal/metrics"
)

// State of the orchestration loop.
type State int

const (
	// StateDisabled means the remote flag is off and no device is held.
	StateDisabled State = iota
	// StateRunning means the observer is started and frames are flowing.
	StateRunning
)

// Collaborator is the server-side counterpart the loop polls and uploads to.
type Collaborator interface {
	Status(ctx context.Context) (bool, error)
	RegisterInteraction(ctx context.Context, sentence []byte) (json.RawMessage, error)
}

// SentenceObserver is the microphone observer driven by the loop.
type SentenceObserver interface {
	Start() error
	Stop() error
	IsRunning() bool
	Step(buf []byte) ([]byte, bool)
}

// Runner drives the observer from the remotely polled enable flag and
// hands completed sentences to the server. The enable flag is polled once
// per iteration with no backoff; while running, each iteration also blocks
// for one frame read, so the loop advances at roughly the frame rate.
type Runner struct {
	client   Collaborator
	observer SentenceObserver
	metrics  *metrics.Metrics

	// state is atomic so the monitoring endpoint can read it while the
	// loop runs; only the loop writes it.
	state atomic.Int32
	buf   []byte
}

func New(client Collaborator, observer SentenceObserver, m *metrics.Metrics) *Runner {
	return &Runner{
		client:   client,
		observer: observer,
		metrics:  m,
	}
}

// Run loops until ctx is cancelled. A status-poll failure or a failed
// observer start is fatal and returned; everything else is recovered.
func (r *Runner) Run(ctx context.Context) error {
	defer r.teardown()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		enabled, err := r.client.Status(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("status poll failed: %w", err)
		}
		r.metrics.StatusPolls.Inc()

		if !enabled {
			r.disable()
			continue
		}

		if !r.observer.IsRunning() {
			if err := r.enable(); err != nil {
				return err
			}
		}

		var complete bool
		r.buf, complete = r.observer.Step(r.buf)
		if !complete {
			continue
		}

		r.handleSentence(ctx)
	}
}

// enable transitions Disabled -> Running with a fresh sentence buffer.
func (r *Runner) enable() error {
	if err := r.observer.Start(); err != nil {
		return fmt.Errorf("failed to start observer: %w", err)
	}

	r.buf = nil
	r.state.Store(int32(StateRunning))
	log.Info().Msg("Observer enabled by server")
	return nil
}

// disable transitions Running -> Disabled, discarding any partial sentence.
func (r *Runner) disable() {
	if !r.observer.IsRunning() {
		return
	}

	if err := r.observer.Stop(); err != nil {
		log.Error().Err(err).Msg("Failed to stop observer")
	}

	r.buf = nil
	r.state.Store(int32(StateDisabled))
	log.Info().Msg("Observer disabled by server")
}

// handleSentence uploads the completed buffer. Upload failures are logged
// and ignored; either way the next sentence starts from an empty buffer.
func (r *Runner) handleSentence(ctx context.Context) {
	sentenceID := uuid.New()
	seconds := float64(len(r.buf)/audio.BytesPerSample) / float64(audio.SampleRate)

	log.Info().
		Str("sentence_id", sentenceID.String()).
		Int("bytes", len(r.buf)).
		Float64("seconds", seconds).
		Msg("Sentence boundary reached")

	result, err := r.client.RegisterInteraction(ctx, r.buf)
	if err != nil {
		r.metrics.InteractionFailures.Inc()
		log.Error().
			Err(err).
			Str("sentence_id", sentenceID.String()).
			Msg("Failed to register interaction")
	} else {
		r.metrics.InteractionsPosted.Inc()
		log.Debug().
			Str("sentence_id", sentenceID.String()).
			RawJSON("result", nonEmptyJSON(result)).
			Msg("Interaction registered")
	}

	r.buf = nil
}

// teardown releases the device if the loop exits while running.
func (r *Runner) teardown() {
	if !r.observer.IsRunning() {
		return
	}
	if err := r.observer.Stop(); err != nil {
		log.Error().Err(err).Msg("Failed to stop observer during teardown")
	}
	r.state.Store(int32(StateDisabled))
	r.buf = nil
}

func nonEmptyJSON(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	return raw
}

// CurrentState is exposed for monitoring.
func (r *Runner) CurrentState() State {
	return State(r.state.Load())
}
