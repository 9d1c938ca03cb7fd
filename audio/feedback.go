// Package audio plays short interaction cues through the system speaker.
package audio

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/lixenwraith/gravfield/clock"
)

const (
	sampleRate = beep.SampleRate(48000)

	chirpDuration = 60 * time.Millisecond
	chirpHigh     = 880.0
	chirpLow      = 440.0
	chirpGain     = 0.2

	// DefaultMinInterval spaces cues while the attractor is dragged
	DefaultMinInterval = 80 * time.Millisecond
)

// Feedback plays a chirp when the attractor moves
// Without a working speaker every method is a no-op
type Feedback struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	log         *zap.Logger
	source      clock.TimeSource
	minInterval time.Duration
	lastPlay    time.Time
	initialized bool
	speakerLive bool
}

// NewFeedback creates an uninitialized feedback player
func NewFeedback(log *zap.Logger, source clock.TimeSource) *Feedback {
	if log == nil {
		log = zap.NewNop()
	}
	if source == nil {
		source = clock.SystemTimeSource{}
	}
	return &Feedback{
		mixer:       &beep.Mixer{},
		log:         log,
		source:      source,
		minInterval: DefaultMinInterval,
	}
}

// Initialize opens the speaker and starts the mixer
func (f *Feedback) Initialize() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.initialized {
		return nil
	}

	if err := speaker.Init(sampleRate, sampleRate.N(50*time.Millisecond)); err != nil {
		return errors.Wrap(err, "audio: speaker init")
	}

	speaker.Play(f.mixer)
	f.initialized = true
	f.speakerLive = true
	f.log.Info("audio initialized", zap.Int("sample_rate", int(sampleRate)))
	return nil
}

// Enabled reports whether cues are audible
func (f *Feedback) Enabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.initialized
}

// PlayMove queues a descending chirp, rate limited to one per minInterval
// Returns true when a chirp was queued
func (f *Feedback) PlayMove() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.initialized {
		return false
	}

	now := f.source.Now()
	if !f.lastPlay.IsZero() && now.Sub(f.lastPlay) < f.minInterval {
		return false
	}
	f.lastPlay = now

	chirp := NewChirpGenerator(sampleRate, chirpHigh, chirpLow, chirpDuration, chirpGain)
	if f.speakerLive {
		speaker.Lock()
		defer speaker.Unlock()
	}
	f.mixer.Add(chirp)
	return true
}

// Cleanup stops all cues and closes the speaker
func (f *Feedback) Cleanup() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.initialized {
		return
	}

	if f.speakerLive {
		speaker.Clear()
		speaker.Close()
	}
	f.mixer.Clear()
	f.initialized = false
	f.speakerLive = false
}
