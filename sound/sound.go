// Package sound plays the sandbox's effects through the system speaker.
package sound

import (
	"log"
	"os"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"github.com/pkg/errors"
)

const (
	blipFreq   = 660.0
	blipLength = 90 * time.Millisecond
	blipVolume = -1.5 // log2 gain
)

var logger = log.New(os.Stderr, "sound: ", log.LstdFlags|log.Lmsgprefix)

// Blip returns the shoot sound: a short sine tone fading out linearly.
func Blip(sr beep.SampleRate) (beep.Streamer, error) {
	tone, err := generators.SineTone(sr, blipFreq)
	if err != nil {
		return nil, errors.Wrap(err, "sine tone")
	}
	n := sr.N(blipLength)
	return &fadeOut{
		Streamer: &effects.Volume{Streamer: beep.Take(n, tone), Base: 2, Volume: blipVolume},
		total:    n,
	}, nil
}

type fadeOut struct {
	beep.Streamer
	total, pos int
}

func (f *fadeOut) Stream(samples [][2]float64) (int, bool) {
	n, ok := f.Streamer.Stream(samples)
	for i := 0; i < n; i++ {
		g := 1 - float64(f.pos)/float64(f.total)
		samples[i][0] *= g
		samples[i][1] *= g
		f.pos++
	}
	return n, ok
}

// Player mixes effects into the speaker.
type Player struct {
	sr    beep.SampleRate
	mixer *beep.Mixer
}

// NewPlayer opens the speaker at sampleRate Hz.
func NewPlayer(sampleRate int) (*Player, error) {
	sr := beep.SampleRate(sampleRate)
	if err := speaker.Init(sr, sr.N(50*time.Millisecond)); err != nil {
		return nil, errors.Wrap(err, "init speaker")
	}
	p := &Player{sr: sr, mixer: &beep.Mixer{}}
	speaker.Play(p.mixer)
	return p, nil
}

// Shoot plays the shoot blip.
func (p *Player) Shoot() {
	s, err := Blip(p.sr)
	if err != nil {
		logger.Printf("shoot: %v", err)
		return
	}
	speaker.Lock()
	p.mixer.Add(s)
	speaker.Unlock()
}

// Close stops playback and releases the audio device.
func (p *Player) Close() {
	speaker.Clear()
	speaker.Close()
}
