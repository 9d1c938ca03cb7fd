package audio

import (
	"math"
	"testing"
	"time"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/gravfield/clock"
)

func TestChirpLengthAndBounds(t *testing.T) {
	sr := beep.SampleRate(1000)
	g := NewChirpGenerator(sr, 200, 100, 100*time.Millisecond, 0.5)
	if g.Len() != 100 {
		t.Fatalf("Expected 100 samples, got %d", g.Len())
	}

	buf := make([][2]float64, 64)
	total := 0
	var last float64
	for {
		n, ok := g.Stream(buf)
		if !ok {
			break
		}
		for i := 0; i < n; i++ {
			if math.Abs(buf[i][0]) > 0.5 {
				t.Fatalf("Sample %d exceeds gain: %f", total+i, buf[i][0])
			}
			if buf[i][0] != buf[i][1] {
				t.Fatalf("Sample %d: channels differ", total+i)
			}
			last = buf[i][0]
		}
		total += n
	}
	if total != 100 {
		t.Errorf("Expected 100 streamed samples, got %d", total)
	}
	if g.Remaining() != 0 {
		t.Errorf("Expected nothing remaining, got %d", g.Remaining())
	}
	// Release envelope ends near silence
	if math.Abs(last) > 0.01 {
		t.Errorf("Expected final sample near zero, got %f", last)
	}
	if g.Err() != nil {
		t.Errorf("Unexpected error: %v", g.Err())
	}
}

func TestChirpStartsSilent(t *testing.T) {
	g := NewChirpGenerator(sampleRate, chirpHigh, chirpLow, chirpDuration, chirpGain)
	buf := make([][2]float64, 1)
	g.Stream(buf)
	if buf[0][0] != 0 {
		t.Errorf("Expected attack to start at zero, got %f", buf[0][0])
	}
}

func TestFeedbackDisabledIsNoop(t *testing.T) {
	f := NewFeedback(nil, nil)
	if f.Enabled() {
		t.Error("Expected feedback disabled before Initialize")
	}
	if f.PlayMove() {
		t.Error("Expected PlayMove to do nothing while disabled")
	}
	f.Cleanup()
}

func TestFeedbackRateLimit(t *testing.T) {
	src := clock.NewMockTimeSource(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	f := NewFeedback(nil, src)
	// Mixer only, no speaker
	f.initialized = true

	if !f.PlayMove() {
		t.Fatal("Expected first chirp to play")
	}
	src.Advance(DefaultMinInterval / 2)
	if f.PlayMove() {
		t.Error("Expected chirp inside min interval to be dropped")
	}
	src.Advance(DefaultMinInterval)
	if !f.PlayMove() {
		t.Error("Expected chirp after min interval to play")
	}
	if f.mixer.Len() != 2 {
		t.Errorf("Expected 2 queued chirps, got %d", f.mixer.Len())
	}

	f.Cleanup()
	if f.Enabled() || f.mixer.Len() != 0 {
		t.Error("Expected Cleanup to disable and clear the mixer")
	}
}
