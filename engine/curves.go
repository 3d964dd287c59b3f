package engine

import "math"

// normalize rounds to the nearest integer and clamps into 0-127
func normalize(v float64) int {
	r := int(math.Round(v))
	if r < 0 {
		return 0
	}
	if r > 127 {
		return 127
	}
	return r
}

// scaleCC maps a 0-127 input linearly onto [minOut, maxOut]
func scaleCC(value float64, minOut, maxOut int) int {
	return normalize(value/127*float64(maxOut-minOut) + float64(minOut))
}

// blend is the weighted, capped combination of the three vibrato inputs
func blend(w Weights, breath, pedal, note float64) float64 {
	total := w.total()
	f := (w.Breath*breath + w.Pedal*pedal + w.Note*note) / total
	return math.Min(1.0, f)
}

// vibratoFor computes rate and depth from breath, pedal and pitch.
//
// The pedal has three regions: off at the bottom, a fixed fast vibrato at
// the top (bowed only) and an adaptive region in between that follows
// breath, pedal and register. A fast-vibrato toggle overrides the pedal.
func vibratoFor(s State, p Profile) (rate, depth int) {
	v := p.Vibrato
	switch {
	case s.FastVibratoEnabled:
		return normalize(float64(v.FastRate)), normalize(float64(v.FastDepth))
	case s.LastPedal < v.MinPedal || s.HarmonicActive():
		return 0, 0
	case v.FastPedal > 0 && s.LastPedal > v.FastPedal:
		return normalize(float64(v.FastRate)), normalize(float64(v.FastDepth))
	}

	top := 127
	if v.FastPedal > 0 {
		top = v.FastPedal
	}
	breathFrac := math.Max(0, float64(s.LastBreath-v.SmallBreath)) / 127
	pedalFrac := float64(s.LastPedal-v.MinPedal) / float64(top-v.MinPedal)
	noteFrac := math.Max(0, float64(s.LastPitch-v.MinNote)) / float64(v.MaxNote-v.MinNote)

	depthFrac := blend(v.Depth, breathFrac, pedalFrac, noteFrac)
	rateFrac := blend(v.Rate, breathFrac, pedalFrac, noteFrac)

	depth = normalize(float64(v.SlowDepth) + depthFrac*float64(v.MaxDepth-v.SlowDepth))
	rate = normalize(float64(v.SlowRate) + rateFrac*float64(v.MaxRate-v.SlowRate))
	return rate, depth
}

// bowFor derives bow pressure and position from breath, flautando and harmonic
func bowFor(s State, p Profile) (pressure, position int) {
	b := p.Bow
	breath := float64(s.LastBreath)
	if s.FlautandoEnabled {
		return scaleCC(breath, b.MinFlautandoPressure, b.MaxFlautandoPressure), normalize(float64(b.FlautandoPosition))
	}
	pressure = scaleCC(breath, b.MinPressure, b.MaxPressure)
	if s.HarmonicActive() {
		return pressure, normalize(float64(b.HarmonicPosition))
	}
	return pressure, scaleCC(breath, b.MinPosition, b.MaxPosition)
}

// breathNoiseFor is flat up to the elbow, then falls linearly to the
// max-breath value.
func breathNoiseFor(breath int, c BreathNoiseCurve) int {
	if breath <= c.Elbow {
		return normalize(float64(c.AtLowBreath))
	}
	slope := float64(c.AtMaxBreath-c.AtLowBreath) / float64(127-c.Elbow)
	return normalize(float64(c.AtLowBreath) + slope*float64(breath-c.Elbow))
}

// slew moves current toward target by at most step
func slew(current float64, target int, step float64) float64 {
	t := float64(target)
	if t > current {
		return math.Min(current+step, t)
	}
	return math.Max(current-step, t)
}

// portamentoFor returns the value to send on the portamento controller for
// a NoteOn at pitch, and whether the hand should move to the bridge first.
// The upward and downward jump thresholds are asymmetric.
func portamentoFor(s State, p Profile, pitch int) (value int, toBridge bool) {
	if !s.PortamentoEnabled {
		return 0, false
	}
	c := p.Portamento
	delta := pitch - s.LastPitch
	dist := max(1, abs(delta))

	switch {
	case delta > 0 && dist >= c.BigJumpUp:
		toBridge = s.NotesOn > 1 || pitch > c.BridgePitch
		if pitch > c.HarmonicPitch {
			return normalize(float64(127 - c.MaxTime)), toBridge
		}
		return normalize(float64(127 - c.BigJumpTime)), toBridge
	case s.Hand.Pending():
		return normalize(float64(127 - c.MaxTime)), false
	case pitch < s.LastPitch-c.BigJumpDown:
		return normalize(float64(127 - c.BigJumpTime)), false
	}
	return normalize(float64(127 - min(c.MinTime*dist, c.MaxTime))), false
}

// velocityFor rescales NoteOn velocity; harmonics always get the minimum
func velocityFor(s State, p Profile, velocity int) int {
	if s.HarmonicActive() {
		return normalize(float64(p.MinVelocity))
	}
	return scaleCC(float64(velocity), p.MinVelocity, p.MaxVelocity)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
