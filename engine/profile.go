package engine

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Family selects which branch of the mapping logic a profile drives
type Family string

const (
	FamilyBowed Family = "bowed"
	FamilyWind  Family = "wind"
)

// NoCC marks a controller slot the profile does not use
const NoCC = -1

// Hand position values sent on the alt-fingering controller
const (
	HandValueMid    = 0
	HandValueBridge = 63
	HandValueNut    = 127
)

// Param describes the single host-adjustable parameter of a profile
type Param struct {
	Name    string  `yaml:"name"`
	Min     float64 `yaml:"min"`
	Max     float64 `yaml:"max"`
	Default float64 `yaml:"default"`
	Step    float64 `yaml:"step"`
}

// Weights are the relative contributions of breath, pedal and note to a
// vibrato fraction. They are normalised by their sum.
type Weights struct {
	Breath float64 `yaml:"breath"`
	Pedal  float64 `yaml:"pedal"`
	Note   float64 `yaml:"note"`
}

func (w Weights) total() float64 { return w.Breath + w.Pedal + w.Note }

// VibratoCurve holds the constants of the three-region vibrato blend
type VibratoCurve struct {
	SlowRate  int `yaml:"slowRate"`
	FastRate  int `yaml:"fastRate"`
	MaxRate   int `yaml:"maxRate"`
	SlowDepth int `yaml:"slowDepth"`
	FastDepth int `yaml:"fastDepth"`
	MaxDepth  int `yaml:"maxDepth"`

	MinPedal int `yaml:"minPedal"`
	// FastPedal is the pedal value above which the fixed fast vibrato is
	// used. Zero disables the top region and the adaptive span runs to 127.
	FastPedal int `yaml:"fastPedal"`

	SmallBreath int `yaml:"smallBreath"`
	MinNote     int `yaml:"minNote"`
	MaxNote     int `yaml:"maxNote"`

	Depth Weights `yaml:"depthWeights"`
	Rate  Weights `yaml:"rateWeights"`
}

// BowCurve maps breath to bow pressure and position (bowed family)
type BowCurve struct {
	MinPressure          int `yaml:"minPressure"`
	MaxPressure          int `yaml:"maxPressure"`
	MinPosition          int `yaml:"minPosition"`
	MaxPosition          int `yaml:"maxPosition"`
	MinFlautandoPressure int `yaml:"minFlautandoPressure"`
	MaxFlautandoPressure int `yaml:"maxFlautandoPressure"`
	FlautandoPosition    int `yaml:"flautandoPosition"`
	HarmonicPosition     int `yaml:"harmonicPosition"`
}

// PortamentoCurve holds the portamento time constants (bowed family).
// Times are in the "slow is large" domain and are inverted on send.
type PortamentoCurve struct {
	MinTime     int `yaml:"minTime"`
	MaxTime     int `yaml:"maxTime"`
	BigJumpTime int `yaml:"bigJumpTime"`

	// On/off threshold for the portamento and single-string controllers
	OnThreshold int `yaml:"onThreshold"`
	// Upward jump, in semitones, that counts as a big jump
	BigJumpUp int `yaml:"bigJumpUp"`
	// Downward jump, in semitones, beyond which BigJumpTime is used
	BigJumpDown int `yaml:"bigJumpDown"`
	// Destination above which a big upward jump moves the hand to the bridge
	BridgePitch int `yaml:"bridgePitch"`
	// Destination above which a big upward jump is a harmonic-register leap
	HarmonicPitch int `yaml:"harmonicPitch"`
}

// BreathNoiseCurve is the piecewise-linear breath to noise map (wind family)
type BreathNoiseCurve struct {
	Elbow       int `yaml:"elbow"`
	AtLowBreath int `yaml:"atLowBreath"`
	AtMaxBreath int `yaml:"atMaxBreath"`
}

// Keyswitch maps a reserved NoteOn pitch to a controller value
type Keyswitch struct {
	Pitch int `yaml:"pitch"`
	Value int `yaml:"value"`
}

// Profile is the immutable configuration of one instrument family:
// controller numbers and every curve constant.
type Profile struct {
	Name   string `yaml:"name"`
	Family Family `yaml:"family"`

	// Inputs
	BreathCC                 int `yaml:"breathCC"`
	VibratoPedalCC           int `yaml:"vibratoPedalCC"`
	FlautandoCC              int `yaml:"flautandoCC"`
	HarmonicCC               int `yaml:"harmonicCC"`
	PortamentoCC             int `yaml:"portamentoCC"`
	SingleStringPortamentoCC int `yaml:"singleStringPortamentoCC"`
	FastVibratoCC            int `yaml:"fastVibratoCC"`
	BrightnessCC             int `yaml:"brightnessCC"`

	// Outputs. Breath, harmonic, portamento and brightness go out on the
	// same number they come in on.
	VibratoRateCC  int `yaml:"vibratoRateCC"`
	VibratoDepthCC int `yaml:"vibratoDepthCC"`
	BowPressureCC  int `yaml:"bowPressureCC"`
	BowPositionCC  int `yaml:"bowPositionCC"`
	BreathNoiseCC  int `yaml:"breathNoiseCC"`
	AltFingeringCC int `yaml:"altFingeringCC"`
	PipeSplitCC    int `yaml:"pipeSplitCC"`

	// Breath forwarded downstream is multiplied by this (headroom)
	BreathScale float64 `yaml:"breathScale"`

	MinVelocity int `yaml:"minVelocity"`
	MaxVelocity int `yaml:"maxVelocity"`

	// NoteOff at or below this pitch is the panic gesture
	PanicPitch int `yaml:"panicPitch"`

	Vibrato     VibratoCurve     `yaml:"vibrato"`
	Bow         BowCurve         `yaml:"bow"`
	Portamento  PortamentoCurve  `yaml:"portamento"`
	BreathNoise BreathNoiseCurve `yaml:"breathNoise"`
	PipeSplit   []Keyswitch      `yaml:"pipeSplit"`

	Param Param `yaml:"param"`
}

// Bowed returns the bowed-string (cello) profile
func Bowed() Profile {
	return Profile{
		Name:   "cello",
		Family: FamilyBowed,

		BreathCC:                 2,
		VibratoPedalCC:           4,
		FlautandoCC:              70,
		HarmonicCC:               71,
		PortamentoCC:             65,
		SingleStringPortamentoCC: 84,
		FastVibratoCC:            NoCC,
		BrightnessCC:             NoCC,

		VibratoRateCC:  6,
		VibratoDepthCC: 7,
		BowPressureCC:  3,
		BowPositionCC:  28,
		BreathNoiseCC:  NoCC,
		AltFingeringCC: 26,
		PipeSplitCC:    NoCC,

		BreathScale: 1,
		MinVelocity: 1,
		MaxVelocity: 92,
		PanicPitch:  36,

		Vibrato: VibratoCurve{
			SlowRate:    48,
			FastRate:    70,
			MaxRate:     70,
			SlowDepth:   24,
			FastDepth:   80,
			MaxDepth:    110,
			MinPedal:    20,
			FastPedal:   120,
			SmallBreath: 20,
			MinNote:     48,
			MaxNote:     80,
			Depth:       Weights{Breath: 45, Pedal: 25},
			Rate:        Weights{Breath: 45, Pedal: 25, Note: 25},
		},
		Bow: BowCurve{
			MinPressure:          70,
			MaxPressure:          90,
			MinPosition:          60,
			MaxPosition:          60,
			MinFlautandoPressure: 15,
			MaxFlautandoPressure: 40,
			FlautandoPosition:    24,
			HarmonicPosition:     44,
		},
		Portamento: PortamentoCurve{
			MinTime:       6,
			MaxTime:       24,
			BigJumpTime:   38,
			OnThreshold:   32,
			BigJumpUp:     8,
			BigJumpDown:   4,
			BridgePitch:   65,
			HarmonicPitch: 72,
		},

		Param: Param{Name: "Sample parameter", Min: 0, Max: 127, Default: 20, Step: 1},
	}
}

// Wind returns the wind (flute) profile
func Wind() Profile {
	return Profile{
		Name:   "flute",
		Family: FamilyWind,

		BreathCC:                 2,
		VibratoPedalCC:           4,
		FlautandoCC:              NoCC,
		HarmonicCC:               NoCC,
		PortamentoCC:             NoCC,
		SingleStringPortamentoCC: NoCC,
		FastVibratoCC:            20,
		BrightnessCC:             84,

		VibratoRateCC:  8,
		VibratoDepthCC: 9,
		BowPressureCC:  NoCC,
		BowPositionCC:  NoCC,
		BreathNoiseCC:  6,
		AltFingeringCC: NoCC,
		PipeSplitCC:    40,

		BreathScale: 0.88,
		MinVelocity: 0,
		MaxVelocity: 127,
		PanicPitch:  24,

		Vibrato: VibratoCurve{
			SlowRate:    48,
			FastRate:    68,
			MaxRate:     64,
			SlowDepth:   1,
			FastDepth:   105,
			MaxDepth:    125,
			MinPedal:    8,
			SmallBreath: 10,
			MinNote:     58,
			MaxNote:     90,
			Depth:       Weights{Breath: 40, Pedal: 60},
			Rate:        Weights{Breath: 60, Pedal: 20, Note: 20},
		},
		BreathNoise: BreathNoiseCurve{
			Elbow:       64,
			AtLowBreath: 127,
			AtMaxBreath: 10,
		},
		PipeSplit: []Keyswitch{
			{Pitch: 26, Value: 0},  // lowest EWI D: pipe split auto
			{Pitch: 28, Value: 48}, // lowest EWI E: pipe split -1
		},

		Param: Param{Name: "SlewStep", Min: 0.01, Max: 2.0, Default: 0.15, Step: 0.01},
	}
}

// Profiles lists the built-in profiles by name and family alias
func Profiles() map[string]Profile {
	b, w := Bowed(), Wind()
	return map[string]Profile{
		b.Name:           b,
		string(b.Family): b,
		w.Name:           w,
		string(w.Family): w,
	}
}

// ProfileByName resolves a built-in profile ("cello", "bowed", "flute", "wind")
func ProfileByName(name string) (Profile, error) {
	p, ok := Profiles()[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile %q", name)
	}
	return p, nil
}

// LoadProfile reads a YAML override file. The file names a built-in
// profile under "base" and may override any profile field.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile: %w", err)
	}
	return ParseProfile(data)
}

// ParseProfile is LoadProfile on an in-memory document
func ParseProfile(data []byte) (Profile, error) {
	var head struct {
		Base string `yaml:"base"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return Profile{}, fmt.Errorf("parse profile: %w", err)
	}
	if head.Base == "" {
		return Profile{}, errors.New("parse profile: missing base")
	}
	p, err := ProfileByName(head.Base)
	if err != nil {
		return Profile{}, err
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("parse profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Validate rejects profiles whose constants would divide by zero, fall
// outside the 7-bit data range, or map two inputs to the same controller
// number. It runs once, at engine construction.
func (p Profile) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if p.Family != FamilyBowed && p.Family != FamilyWind {
		bad("family %q is not %q or %q", p.Family, FamilyBowed, FamilyWind)
	}
	if !validCC(p.BreathCC) || p.BreathCC == NoCC {
		bad("breathCC %d out of range", p.BreathCC)
	}
	inputs := []namedCC{
		{"breathCC", p.BreathCC},
		{"vibratoPedalCC", p.VibratoPedalCC},
		{"flautandoCC", p.FlautandoCC},
		{"harmonicCC", p.HarmonicCC},
		{"portamentoCC", p.PortamentoCC},
		{"singleStringPortamentoCC", p.SingleStringPortamentoCC},
		{"fastVibratoCC", p.FastVibratoCC},
		{"brightnessCC", p.BrightnessCC},
	}
	outputs := []namedCC{
		{"vibratoRateCC", p.VibratoRateCC},
		{"vibratoDepthCC", p.VibratoDepthCC},
		{"bowPressureCC", p.BowPressureCC},
		{"bowPositionCC", p.BowPositionCC},
		{"breathNoiseCC", p.BreathNoiseCC},
		{"altFingeringCC", p.AltFingeringCC},
		{"pipeSplitCC", p.PipeSplitCC},
	}
	for _, c := range slices.Concat(inputs[1:], outputs) {
		if !validCC(c.cc) {
			bad("%s %d out of range", c.name, c.cc)
		}
	}
	// Each input number selects one branch of the controller dispatch.
	seen := make(map[int]string)
	for _, c := range inputs {
		if c.cc == NoCC {
			continue
		}
		if other, ok := seen[c.cc]; ok {
			bad("%s %d is already used by %s", c.name, c.cc, other)
			continue
		}
		seen[c.cc] = c.name
	}

	v := p.Vibrato
	if v.MaxNote <= v.MinNote {
		bad("vibrato note range [%d,%d] is empty", v.MinNote, v.MaxNote)
	}
	if v.FastPedal != 0 && v.FastPedal <= v.MinPedal {
		bad("vibrato fastPedal %d must exceed minPedal %d", v.FastPedal, v.MinPedal)
	}
	if v.FastPedal == 0 && v.MinPedal >= 127 {
		bad("vibrato minPedal %d leaves no adaptive region", v.MinPedal)
	}
	if v.Depth.total() <= 0 || v.Rate.total() <= 0 {
		bad("vibrato weights must have a positive total")
	}

	if p.Family == FamilyWind && p.BreathNoise.Elbow >= 127 {
		bad("breath noise elbow %d must be below 127", p.BreathNoise.Elbow)
	}
	if p.BreathScale <= 0 {
		bad("breathScale %v must be positive", p.BreathScale)
	}
	if p.Param.Max < p.Param.Min {
		bad("param range [%v,%v] is inverted", p.Param.Min, p.Param.Max)
	} else if p.Param.Default < p.Param.Min || p.Param.Default > p.Param.Max {
		bad("param default %v outside [%v,%v]", p.Param.Default, p.Param.Min, p.Param.Max)
	}
	if len(errs) > 0 {
		return fmt.Errorf("profile %s: %w", p.Name, errors.Join(errs...))
	}
	return nil
}

type namedCC struct {
	name string
	cc   int
}

func validCC(cc int) bool {
	return cc == NoCC || (cc >= 0 && cc <= 127)
}
