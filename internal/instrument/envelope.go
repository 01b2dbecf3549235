package instrument

const (
	DefaultAttack  = 0.05
	DefaultRelease = 0.05
)

// Envelope is a linear attack/release amplitude shape over a note of
// Duration seconds. All times are in seconds of note-local time.
type Envelope struct {
	Attack   float64
	Release  float64
	Duration float64
}

func NewEnvelope(duration float64) Envelope {
	return Envelope{Attack: DefaultAttack, Release: DefaultRelease, Duration: duration}
}

// Gain returns the amplitude multiplier at time t: a ramp from 0 to 1 over
// [0, Attack), 1 through Duration-Release, then a ramp down reaching 0 at
// Duration. Zero-length ramps are steps. The result is clamped to [0, 1].
func (e Envelope) Gain(t float64) float64 {
	g := 1.0
	switch {
	case t < e.Attack:
		if e.Attack > 0 {
			g = t / e.Attack
		} else {
			g = 0
		}
	case t > e.Duration-e.Release:
		if e.Release > 0 {
			g = (e.Duration - t) / e.Release
		} else {
			g = 0
		}
	}
	if g < 0 {
		return 0
	}
	if g > 1 {
		return 1
	}
	return g
}
