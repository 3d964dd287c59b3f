package engine

import "testing"

func TestBowPressureStaysInRange(t *testing.T) {
	p := Bowed()
	for b := 0; b <= 127; b++ {
		s := DefaultState()
		s.LastBreath = b
		pressure, position := bowFor(s, p)
		if pressure < p.Bow.MinPressure || pressure > p.Bow.MaxPressure {
			t.Fatalf("breath %d: pressure %d outside [%d,%d]", b, pressure, p.Bow.MinPressure, p.Bow.MaxPressure)
		}
		if position != 60 {
			t.Fatalf("breath %d: expected bow position 60, got %d", b, position)
		}

		s.FlautandoEnabled = true
		pressure, position = bowFor(s, p)
		if pressure < p.Bow.MinFlautandoPressure || pressure > p.Bow.MaxFlautandoPressure {
			t.Fatalf("breath %d: flautando pressure %d outside [%d,%d]", b, pressure,
				p.Bow.MinFlautandoPressure, p.Bow.MaxFlautandoPressure)
		}
		if position != p.Bow.FlautandoPosition {
			t.Fatalf("breath %d: expected flautando position, got %d", b, position)
		}
	}
}

func TestVibratoOffBelowPedalThreshold(t *testing.T) {
	for _, p := range []Profile{Bowed(), Wind()} {
		for pedal := 0; pedal < p.Vibrato.MinPedal; pedal++ {
			for breath := 0; breath <= 127; breath += 7 {
				s := DefaultState()
				s.LastPedal = pedal
				s.LastBreath = breath
				s.LastPitch = 90
				if rate, depth := vibratoFor(s, p); rate != 0 || depth != 0 {
					t.Fatalf("%s pedal %d breath %d: expected no vibrato, got rate=%d depth=%d",
						p.Name, pedal, breath, rate, depth)
				}
			}
		}
	}
}

func TestAdaptiveVibratoWithinBounds(t *testing.T) {
	for _, p := range []Profile{Bowed(), Wind()} {
		v := p.Vibrato
		top := 127
		if v.FastPedal > 0 {
			top = v.FastPedal
		}
		for pedal := v.MinPedal; pedal <= top; pedal++ {
			for breath := 0; breath <= 127; breath += 9 {
				for pitch := 30; pitch <= 110; pitch += 20 {
					s := State{LastPedal: pedal, LastBreath: breath, LastPitch: pitch}
					rate, depth := vibratoFor(s, p)
					if depth < v.SlowDepth || depth > v.MaxDepth {
						t.Fatalf("%s: depth %d outside [%d,%d]", p.Name, depth, v.SlowDepth, v.MaxDepth)
					}
					lo, hi := min(v.SlowRate, v.MaxRate), max(v.SlowRate, v.MaxRate)
					if rate < lo || rate > hi {
						t.Fatalf("%s: rate %d outside [%d,%d]", p.Name, rate, lo, hi)
					}
				}
			}
		}
	}
}

func TestVibratoRisesWithBreath(t *testing.T) {
	p := Wind()
	s := State{LastPedal: 60, LastPitch: 70}
	prevRate, prevDepth := vibratoFor(s, p)
	for breath := 1; breath <= 127; breath++ {
		s.LastBreath = breath
		rate, depth := vibratoFor(s, p)
		if rate < prevRate || depth < prevDepth {
			t.Fatalf("breath %d: vibrato fell (rate %d->%d, depth %d->%d)", breath, prevRate, rate, prevDepth, depth)
		}
		prevRate, prevDepth = rate, depth
	}
}

func TestBreathNoiseCurve(t *testing.T) {
	c := Wind().BreathNoise
	for b := 0; b <= c.Elbow; b++ {
		if got := breathNoiseFor(b, c); got != c.AtLowBreath {
			t.Fatalf("breath %d: expected flat noise %d, got %d", b, c.AtLowBreath, got)
		}
	}
	prev := c.AtLowBreath
	for b := c.Elbow + 1; b <= 127; b++ {
		got := breathNoiseFor(b, c)
		if got > prev {
			t.Fatalf("breath %d: noise rose from %d to %d", b, prev, got)
		}
		prev = got
	}
	if prev != c.AtMaxBreath {
		t.Fatalf("expected noise %d at full breath, got %d", c.AtMaxBreath, prev)
	}
}

func TestSlewLimitsStepBothWays(t *testing.T) {
	if got := slew(10, 100, 0.5); got != 10.5 {
		t.Fatalf("rising: expected 10.5, got %v", got)
	}
	if got := slew(10, 0, 0.5); got != 9.5 {
		t.Fatalf("falling: expected 9.5, got %v", got)
	}
	if got := slew(10, 11, 5); got != 11 {
		t.Fatalf("rising overshoot: expected 11, got %v", got)
	}
	if got := slew(10, 8, 5); got != 8 {
		t.Fatalf("falling overshoot: expected 8, got %v", got)
	}
}

func TestPortamentoPolicy(t *testing.T) {
	p := Bowed()
	cases := []struct {
		name     string
		last     int
		pitch    int
		notesOn  int
		hand     HandPosition
		want     int
		toBridge bool
	}{
		{"semitone", 50, 51, 1, HandMid, 121, false},
		{"whole step", 50, 52, 1, HandMid, 115, false},
		{"repeated note", 50, 50, 1, HandMid, 121, false},
		{"fifth capped", 50, 57, 1, HandMid, 103, false},
		{"down fourth", 50, 46, 1, HandMid, 103, false},
		{"down fifth", 50, 45, 1, HandMid, 89, false},
		{"pending restore", 50, 52, 1, HandMoved, 103, false},
		{"octave up low", 50, 62, 1, HandMid, 89, false},
		{"octave up chord", 50, 62, 2, HandMid, 89, true},
		{"octave up high", 58, 70, 1, HandMid, 89, true},
		{"leap to harmonic", 60, 76, 1, HandMid, 103, true},
		{"big jump beats pending", 50, 62, 1, HandMoved, 89, false},
	}
	for _, tc := range cases {
		s := DefaultState()
		s.PortamentoEnabled = true
		s.LastPitch = tc.last
		s.NotesOn = tc.notesOn
		s.Hand = tc.hand
		got, toBridge := portamentoFor(s, p, tc.pitch)
		if got != tc.want || toBridge != tc.toBridge {
			t.Errorf("%s: got (%d,%v), want (%d,%v)", tc.name, got, toBridge, tc.want, tc.toBridge)
		}
	}

	s := DefaultState()
	if got, toBridge := portamentoFor(s, p, 80); got != 0 || toBridge {
		t.Fatalf("portamento off: expected (0,false), got (%d,%v)", got, toBridge)
	}
}

func TestVelocityScaling(t *testing.T) {
	p := Bowed()
	s := DefaultState()
	if got := velocityFor(s, p, 127); got != 92 {
		t.Fatalf("expected 92 at full velocity, got %d", got)
	}
	if got := velocityFor(s, p, 0); got != 1 {
		t.Fatalf("expected 1 at zero velocity, got %d", got)
	}
	s.HarmonicLevel = 1
	if got := velocityFor(s, p, 127); got != 1 {
		t.Fatalf("expected harmonic velocity 1, got %d", got)
	}

	w := Wind()
	for v := 0; v <= 127; v++ {
		if got := velocityFor(DefaultState(), w, v); got != v {
			t.Fatalf("wind velocity %d changed to %d", v, got)
		}
	}
}

func TestNormalizeClampsAndRounds(t *testing.T) {
	for in, want := range map[float64]int{-3: 0, 0.49: 0, 0.5: 1, 85.7: 86, 127.4: 127, 300: 127} {
		if got := normalize(in); got != want {
			t.Errorf("normalize(%v) = %d, want %d", in, got, want)
		}
	}
}
