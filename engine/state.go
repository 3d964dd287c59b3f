package engine

// State is the memory carried across events for one performance session.
// It is owned by one Engine and only mutated from Engine.Handle.
type State struct {
	LastBreath int `json:"lastBreath"`
	LastPitch  int `json:"lastPitch"`
	LastPedal  int `json:"lastPedal"`

	PortamentoEnabled  bool `json:"portamentoEnabled"`
	FlautandoEnabled   bool `json:"flautandoEnabled"`
	HarmonicLevel      int  `json:"harmonicLevel"`
	FastVibratoEnabled bool `json:"fastVibratoEnabled"`

	NotesOn int          `json:"notesOn"`
	Hand    HandPosition `json:"hand"`

	LastHarmonicSent int `json:"lastHarmonicSent"`

	// Wind brightness slew limiter
	BrightnessTarget   int     `json:"brightnessTarget"`
	SmoothedBrightness float64 `json:"smoothedBrightness"`
}

// DefaultState is the state at construction and after every reset
func DefaultState() State {
	return State{
		LastPitch: 50,
	}
}

// HarmonicActive reports whether a harmonic is selected
func (s State) HarmonicActive() bool {
	return s.HarmonicLevel > 0
}
