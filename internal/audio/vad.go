package audio

import (
	"fmt"

	"github.com/maxhawkins/go-webrtcvad"
)

type WebRTCVAD struct {
	vad *webrtcvad.VAD
}

// NewWebRTCVAD creates a WebRTC voice activity detector at the given
// aggressiveness (0-3, where 3 filters non-speech most aggressively).
func NewWebRTCVAD(aggressiveness int) (*WebRTCVAD, error) {
	vad, err := webrtcvad.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create webrtc vad: %w", err)
	}

	if err := vad.SetMode(aggressiveness); err != nil {
		return nil, fmt.Errorf("failed to set vad mode %d: %w", aggressiveness, err)
	}

	return &WebRTCVAD{vad: vad}, nil
}

// IsSpeech classifies one frame of little-endian PCM16 audio. WebRTC VAD
// only accepts 10/20/30ms frames at supported sample rates; anything else
// comes back as an error for the caller to handle.
func (v *WebRTCVAD) IsSpeech(frame []byte, sampleRate int) (bool, error) {
	return v.vad.Process(sampleRate, frame)
}

func (v *WebRTCVAD) Close() error {
	if v.vad != nil {
		v.vad.Close()
	}
	return nil
}
