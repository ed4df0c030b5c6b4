package cli

import (
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const (
	sampleRate = beep.SampleRate(44100)
	noteLength = 120 * time.Millisecond
)

// Sounder plays the end-of-round tones
type Sounder interface {
	Win()
	Loss()
	Close()
}

// newSounds opens the speaker. Without audio the game plays silently.
func newSounds(mute bool) Sounder {
	if mute {
		return silentSounds{}
	}
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return silentSounds{}
	}
	return speakerSounds{}
}

type speakerSounds struct{}

// Win plays a rising C major arpeggio
func (speakerSounds) Win() { speaker.Play(melody(523.25, 659.25, 783.99)) }

// Loss plays a falling minor figure
func (speakerSounds) Loss() { speaker.Play(melody(392.00, 311.13, 261.63)) }

func (speakerSounds) Close() { speaker.Close() }

type silentSounds struct{}

func (silentSounds) Win()   {}
func (silentSounds) Loss()  {}
func (silentSounds) Close() {}

// melody strings sine notes of noteLength together at a comfortable volume
func melody(freqs ...float64) beep.Streamer {
	notes := make([]beep.Streamer, 0, len(freqs))
	for _, f := range freqs {
		tone, err := generators.SineTone(sampleRate, f)
		if err != nil {
			continue
		}
		notes = append(notes, beep.Take(sampleRate.N(noteLength), tone))
	}
	return &effects.Volume{Streamer: beep.Seq(notes...), Base: 2, Volume: -2}
}
