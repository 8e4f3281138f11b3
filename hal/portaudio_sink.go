package hal

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// PortAudioSink plays the sidetone's PCM stream out the default audio
// device using a blocking-mode stream. Grounded on the teacher's
// src/audio.go, which opens the same library's default stream for its
// soundcard TX/RX path; this sink only ever writes, since the keyer core
// has no audio-in concern.
type PortAudioSink struct {
	stream *portaudio.Stream
	buf    []int16
}

// NewPortAudioSink opens the default output device at sampleRate with one
// channel, buffered framesPerBuffer samples at a time.
func NewPortAudioSink(sampleRate float64, framesPerBuffer int) (*PortAudioSink, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("hal: portaudio init: %w", err)
	}
	buf := make([]int16, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(0, 1, sampleRate, framesPerBuffer, &buf)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("hal: portaudio open stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("hal: portaudio start stream: %w", err)
	}
	return &PortAudioSink{stream: stream, buf: buf}, nil
}

// WriteSamples blocks until pcm has been written to the device, splitting
// it into buf-sized chunks (zero-padding the final partial chunk).
func (s *PortAudioSink) WriteSamples(pcm []int16) error {
	for off := 0; off < len(pcm); off += len(s.buf) {
		n := copy(s.buf, pcm[off:])
		for i := n; i < len(s.buf); i++ {
			s.buf[i] = 0
		}
		if err := s.stream.Write(); err != nil {
			return fmt.Errorf("hal: portaudio write: %w", err)
		}
	}
	return nil
}

// Close stops the stream and releases the portaudio runtime.
func (s *PortAudioSink) Close() error {
	err := s.stream.Close()
	portaudio.Terminate()
	return err
}
