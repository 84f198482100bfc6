package audio

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gordonklaus/portaudio"
	"github.com/rs/zerolog/log"
)

// PortAudioSource captures microphone input through the default PortAudio
// input device as 16kHz mono PCM16, one 30ms frame per read.
type PortAudioSource struct {
	stream *portaudio.Stream
	in     []int16
}

func NewPortAudioSource() (*PortAudioSource, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: failed to initialize portaudio: %v", ErrDeviceUnavailable, err)
	}

	in := make([]int16, FrameSamples)
	stream, err := portaudio.OpenDefaultStream(Channels, 0, float64(SampleRate), FrameSamples, in)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("%w: failed to open input stream: %v", ErrDeviceUnavailable, err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("%w: failed to start input stream: %v", ErrDeviceUnavailable, err)
	}

	log.Info().
		Int("sample_rate", SampleRate).
		Int("channels", Channels).
		Int("frame_ms", FrameMS).
		Int("frame_bytes", FrameBytes).
		Msg("Microphone stream opened")

	return &PortAudioSource{
		stream: stream,
		in:     in,
	}, nil
}

// ReadFrame performs one blocking read of exactly one frame duration. An
// input overflow is tolerated: the frame that was read is still returned,
// matching a capture loop that prefers stale audio over gaps.
func (s *PortAudioSource) ReadFrame() ([]byte, error) {
	if err := s.stream.Read(); err != nil {
		if !errors.Is(err, portaudio.InputOverflowed) {
			return nil, err
		}
		log.Debug().Msg("Input overflow on frame read")
	}

	return int16SliceToBytes(s.in), nil
}

// Close releases the input device: stop, close, then tear down the
// PortAudio subsystem.
func (s *PortAudioSource) Close() error {
	if s.stream != nil {
		s.stream.Stop()
		s.stream.Close()
		s.stream = nil
	}
	portaudio.Terminate()
	return nil
}

// int16SliceToBytes converts samples to little-endian PCM16 bytes. A fresh
// slice is returned each call so appended frames never alias the read buffer.
func int16SliceToBytes(samples []int16) []byte {
	bytes := make([]byte, len(samples)*2)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(bytes[i*2:], uint16(sample))
	}
	return bytes
}
