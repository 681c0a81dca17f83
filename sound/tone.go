package sound

import (
	"encoding/binary"
	"math"
)

// Tone describes a decaying sine beep.
type Tone struct {
	Frequency  float64
	Duration   float64
	Volume     float64
	Decay      float64
	SampleRate int
}

// DefaultTone is a short 880 Hz alert beep.
var DefaultTone = Tone{
	Frequency:  880,
	Duration:   0.25,
	Volume:     0.5,
	Decay:      12,
	SampleRate: 44100,
}

// Generate renders the tone as a clip. The envelope decays exponentially
// from Volume at rate Decay per second.
func (t Tone) Generate() Clip {
	n := int(t.Duration * float64(t.SampleRate))
	pcm := make([]byte, n*2)

	for i := 0; i < n; i++ {
		tm := float64(i) / float64(t.SampleRate)
		env := t.Volume * math.Exp(-t.Decay*tm)
		v := env * math.Sin(2*math.Pi*t.Frequency*tm)
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(v*math.MaxInt16)))
	}

	return Clip{SampleRate: t.SampleRate, PCM: pcm}
}
