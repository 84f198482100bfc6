package observer

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/user/mira-client/internal/audio"
	"github.com/user/mira-client/internal/metrics"
)

// DefaultSilenceThreshold is the continuous non-speech duration, after
// prior speech, that closes a sentence.
const DefaultSilenceThreshold = 600 * time.Millisecond

// frameDuration is the wall time covered by one frame read.
const frameDuration = audio.FrameMS * time.Millisecond

// ErrNotRunning is returned by Stop when the observer was never started or
// was already stopped. Call sites are expected to guard with IsRunning.
var ErrNotRunning = errors.New("observer is not running")

// Observer owns the microphone frame source and the voice activity
// classifier as a unit, and runs the silence-boundary segmentation state
// machine over the frames it reads.
//
// It is single-writer: Step, Start and Stop must not be called
// concurrently, and Stop is only safe between Step calls.
type Observer struct {
	silenceThreshold time.Duration
	aggressiveness   int
	metrics          *metrics.Metrics

	// Overridable for tests
	newSource func() (audio.FrameSource, error)
	newVAD    func() (audio.VAD, error)
	now       func() time.Time

	source audio.FrameSource
	vad    audio.VAD

	enabled      bool
	didSpeak     bool
	silenceStart time.Time // zero means no silence run in progress
}

func New(silenceThreshold time.Duration, vadAggressiveness int, m *metrics.Metrics) *Observer {
	return &Observer{
		silenceThreshold: silenceThreshold,
		aggressiveness:   vadAggressiveness,
		metrics:          m,
		newSource: func() (audio.FrameSource, error) {
			return audio.NewPortAudioSource()
		},
		newVAD: func() (audio.VAD, error) {
			return audio.NewWebRTCVAD(vadAggressiveness)
		},
		now: time.Now,
	}
}

// Start acquires the input device and the classifier and arms the
// segmentation state machine. On failure nothing is left acquired and the
// caller must not call Step.
func (o *Observer) Start() error {
	source, err := o.newSource()
	if err != nil {
		return fmt.Errorf("failed to acquire frame source: %w", err)
	}

	vad, err := o.newVAD()
	if err != nil {
		source.Close()
		return fmt.Errorf("failed to create voice activity detector: %w", err)
	}

	o.source = source
	o.vad = vad
	o.Reset()
	o.enabled = true
	o.metrics.ObserverStarts.Inc()

	log.Info().
		Dur("silence_threshold", o.silenceThreshold).
		Int("vad_aggressiveness", o.aggressiveness).
		Msg("Observer started")

	return nil
}

// IsRunning reports whether the observer is currently started.
func (o *Observer) IsRunning() bool {
	return o.enabled
}

// Stop releases the classifier and the input device. Calling Stop while
// not running is a precondition violation and returns ErrNotRunning.
func (o *Observer) Stop() error {
	if !o.enabled {
		return ErrNotRunning
	}

	if o.vad != nil {
		o.vad.Close()
		o.vad = nil
	}
	if o.source != nil {
		o.source.Close()
		o.source = nil
	}

	o.enabled = false
	o.metrics.ObserverStops.Inc()

	log.Info().Msg("Observer stopped")
	return nil
}

// Reset clears the segmentation timing state, as if no speech had been
// heard since Start.
func (o *Observer) Reset() {
	o.silenceStart = time.Time{}
	o.didSpeak = false
}

// Step performs exactly one blocking frame read, classifies the frame,
// appends it to buf, and reports whether a sentence boundary was reached.
// Read and classification faults are recovered locally: the frame is
// dropped, buf and timing state are untouched, and the loop goes on.
func (o *Observer) Step(buf []byte) ([]byte, bool) {
	frame, err := o.source.ReadFrame()
	if err != nil {
		o.metrics.FramesDropped.Inc()
		log.Warn().Err(err).Msg("Frame read failed, dropping frame")
		return buf, false
	}

	if len(frame) != audio.FrameBytes {
		// Incomplete frame; skip
		o.metrics.FramesDropped.Inc()
		log.Debug().Int("bytes", len(frame)).Msg("Short frame read, dropping frame")
		return buf, false
	}

	isSpeech, err := o.vad.IsSpeech(frame, audio.SampleRate)
	if err != nil {
		o.metrics.ClassifierErrors.Inc()
		log.Warn().Err(err).Msg("VAD error, dropping frame")
		return buf, false
	}

	o.metrics.FramesRead.Inc()
	buf = append(buf, frame...)
	now := o.now()

	if isSpeech {
		o.metrics.SpeechFrames.Inc()
		log.Debug().Msg("speaking")
		o.silenceStart = time.Time{}
		o.didSpeak = true
		return buf, false
	}

	if !o.didSpeak {
		log.Debug().Msg("waiting for speech")
		return buf, false
	}

	if o.silenceStart.IsZero() {
		// The silence run begins at the start of this frame, so the frame's
		// own 30ms counts toward the threshold.
		o.silenceStart = now.Add(-frameDuration)
		return buf, false
	}

	silence := now.Sub(o.silenceStart)
	log.Debug().Dur("silence", silence).Msg("silence")

	if silence >= o.silenceThreshold {
		o.Reset()
		o.metrics.SentencesCompleted.Inc()
		o.metrics.SentenceBytes.Observe(float64(len(buf)))
		o.metrics.SentenceDuration.Observe(bufferSeconds(len(buf)))
		return buf, true
	}

	return buf, false
}

// bufferSeconds converts an accumulated buffer length to audio duration.
func bufferSeconds(n int) float64 {
	return float64(n/audio.BytesPerSample) / float64(audio.SampleRate)
}
