package stream

import (
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// output is the sound device the engine mixes into.
// Lock must be held while touching anything the device goroutine reads.
type output interface {
	Init(sampleRate beep.SampleRate, bufferSize int) error
	Play(s beep.Streamer)
	Lock()
	Unlock()
	Close()
}

// speakerOutput plays through the system audio device.
type speakerOutput struct{}

func (speakerOutput) Init(sampleRate beep.SampleRate, bufferSize int) error {
	return speaker.Init(sampleRate, bufferSize)
}

func (speakerOutput) Play(s beep.Streamer) { speaker.Play(s) }
func (speakerOutput) Lock()                { speaker.Lock() }
func (speakerOutput) Unlock()              { speaker.Unlock() }
func (speakerOutput) Close()               { speaker.Close() }

// gate ends the wrapped streamer early once closed, so the device drops it.
type gate struct {
	s      beep.Streamer
	closed bool
}

func (g *gate) Stream(samples [][2]float64) (int, bool) {
	if g.closed {
		return 0, false
	}
	return g.s.Stream(samples)
}

func (g *gate) Err() error { return g.s.Err() }
