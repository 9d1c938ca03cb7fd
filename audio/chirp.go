package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep"
)

// ChirpGenerator is a sine sweep from a start to an end frequency with a
// short attack and a linear release to silence
type ChirpGenerator struct {
	sr       beep.SampleRate
	from, to float64
	gain     float64
	total    int
	attack   int
	pos      int
	phase    float64
}

// NewChirpGenerator creates a sweep lasting d
func NewChirpGenerator(sr beep.SampleRate, from, to float64, d time.Duration, gain float64) *ChirpGenerator {
	total := sr.N(d)
	return &ChirpGenerator{
		sr:     sr,
		from:   from,
		to:     to,
		gain:   gain,
		total:  total,
		attack: min(sr.N(5*time.Millisecond), total/4),
	}
}

// Len returns the total number of samples
func (g *ChirpGenerator) Len() int { return g.total }

// Remaining returns samples not yet streamed
func (g *ChirpGenerator) Remaining() int { return g.total - g.pos }

func (g *ChirpGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	if g.pos >= g.total {
		return 0, false
	}
	for i := range samples {
		if g.pos >= g.total {
			return i, true
		}
		progress := float64(g.pos) / float64(g.total)
		freq := g.from + (g.to-g.from)*progress

		env := 1 - progress
		if g.pos < g.attack {
			env *= float64(g.pos) / float64(g.attack)
		}

		v := g.gain * env * math.Sin(2*math.Pi*g.phase)
		samples[i][0], samples[i][1] = v, v

		g.phase += freq / float64(g.sr)
		if g.phase >= 1 {
			g.phase -= 1
		}
		g.pos++
	}
	return len(samples), true
}

func (g *ChirpGenerator) Err() error { return nil }
