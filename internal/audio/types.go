package audio

import "errors"

const (
	SampleRate     = 16000
	Channels       = 1 // Mono
	BytesPerSample = 2 // 16-bit PCM
	FrameMS        = 30

	// FrameSamples is the sample count of one frame: 480 at 16kHz/30ms
	FrameSamples = SampleRate * FrameMS / 1000

	// FrameBytes is the byte length of one valid frame (960)
	FrameBytes = FrameSamples * BytesPerSample
)

// ErrDeviceUnavailable indicates the audio input device could not be opened
// or started.
var ErrDeviceUnavailable = errors.New("audio input device unavailable")

// FrameSource produces fixed-duration frames from an audio input device.
// ReadFrame blocks for one frame duration and returns raw little-endian
// PCM16 bytes.
type FrameSource interface {
	ReadFrame() ([]byte, error)
	Close() error
}

// VAD interface for Voice Activity Detection
type VAD interface {
	IsSpeech(frame []byte, sampleRate int) (bool, error)
	Close() error
}
