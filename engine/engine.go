// Package engine maps wind-controller performance data onto the
// articulation controllers of a physically modelled instrument.
//
// An Engine is fed one inbound event at a time and returns the ordered
// events to send downstream. It is not safe for concurrent use; callers
// serialise events in arrival order.
package engine

import (
	"swam-ewi/debug"
	"swam-ewi/midi"
)

// Engine is the stateful event mapper for one performer
type Engine struct {
	profile Profile
	param   float64
	state   State
}

// New validates the profile and returns an engine in the default state
func New(p Profile) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		profile: p,
		param:   p.Param.Default,
	}
	e.Reset()
	return e, nil
}

// Profile returns the engine's profile
func (e *Engine) Profile() Profile {
	return e.profile
}

// State returns a copy of the session state
func (e *Engine) State() State {
	return e.state
}

// Parameter returns the current value of the adjustable parameter
func (e *Engine) Parameter() float64 {
	return e.param
}

// SetParameter clamps v into the profile's parameter range, stores it and
// resets the session.
func (e *Engine) SetParameter(v float64) {
	pr := e.profile.Param
	if v < pr.Min {
		v = pr.Min
	}
	if v > pr.Max {
		v = pr.Max
	}
	debug.Log("engine", "parameter %s changed to %v", pr.Name, v)
	e.param = v
	e.Reset()
}

// Reset restores the default session state
func (e *Engine) Reset() {
	debug.Log("engine", "reset")
	e.state = DefaultState()
}

// Handle processes one inbound event and returns the events to send, in order
func (e *Engine) Handle(ev midi.Event) []midi.Event {
	out := &emitter{channel: ev.Channel}
	switch ev.Kind {
	case midi.KindControlChange:
		e.handleCC(ev, out)
	case midi.KindNoteOn:
		e.handleNoteOn(ev, out)
	case midi.KindNoteOff:
		e.handleNoteOff(ev, out)
	default:
		out.forward(ev)
	}
	return out.events
}

func (e *Engine) handleCC(ev midi.Event, out *emitter) {
	p := &e.profile
	s := &e.state
	num, val := int(ev.Controller), int(ev.Value)

	switch num {
	case p.BreathCC:
		s.LastBreath = val
		out.cc(p.BreathCC, normalize(float64(val)*p.BreathScale))
		e.sendBreathDerived(out)
		e.sendVibrato(out)
		e.sendBrightness(out)

	case p.VibratoPedalCC:
		s.LastPedal = val
		e.sendVibrato(out)
		e.sendBrightness(out)

	case p.FlautandoCC:
		s.FlautandoEnabled = val > 0
		e.sendBreathDerived(out)

	case p.FastVibratoCC:
		s.FastVibratoEnabled = val > 0
		e.sendVibrato(out)

	case p.SingleStringPortamentoCC:
		// Moves the hand and also sets the portamento flag.
		if val >= p.Portamento.OnThreshold {
			e.moveTowardNut(out)
		}
		e.setPortamento(val)

	case p.PortamentoCC:
		e.setPortamento(val)

	case p.HarmonicCC:
		// Sent on with the next NoteOn.
		s.HarmonicLevel = val

	case p.BrightnessCC:
		s.BrightnessTarget = val
		e.sendBrightness(out)

	default:
		out.forward(ev)
	}
}

func (e *Engine) handleNoteOn(ev midi.Event, out *emitter) {
	p := &e.profile
	s := &e.state
	pitch := int(ev.Note)

	if ks, ok := e.keyswitch(pitch); ok {
		out.cc(p.PipeSplitCC, ks.Value)
		return
	}

	s.NotesOn++
	ev.Velocity = uint8(velocityFor(*s, *p, int(ev.Velocity)))
	if s.HarmonicActive() {
		out.cc(p.BowPositionCC, p.Bow.HarmonicPosition)
	}
	if p.HarmonicCC != NoCC && s.HarmonicLevel != s.LastHarmonicSent {
		out.cc(p.HarmonicCC, s.HarmonicLevel)
		s.LastHarmonicSent = s.HarmonicLevel
	}
	if p.Family == FamilyBowed {
		value, toBridge := portamentoFor(*s, *p, pitch)
		if toBridge {
			e.moveToBridge(out)
		}
		out.cc(p.PortamentoCC, value)
	}
	s.LastPitch = pitch
	out.forward(ev)
}

func (e *Engine) handleNoteOff(ev midi.Event, out *emitter) {
	s := &e.state
	pitch := int(ev.Note)

	if pitch <= e.profile.PanicPitch {
		out.forward(ev)
		debug.Log("engine", "panic keyswitch (note %d)", pitch)
		e.allNotesOff(out)
		return
	}

	if _, ok := e.keyswitch(pitch); !ok && s.NotesOn > 0 {
		s.NotesOn--
	}
	e.restoreHand(out)
	out.forward(ev)
}

// Panic silences the channel downstream and resets the session. A pending
// hand move is restored first so the synth is not left on an assist fingering.
func (e *Engine) Panic(channel uint8) []midi.Event {
	out := &emitter{channel: channel}
	e.allNotesOff(out)
	return out.events
}

func (e *Engine) allNotesOff(out *emitter) {
	out.add(midi.AllNotesOff(out.channel))
	// Reset forgets the hand, so the synth must be put back to mid here or
	// the next move would find it already displaced.
	if e.state.Hand.Pending() {
		out.cc(e.profile.AltFingeringCC, HandValueMid)
	}
	e.Reset()
}

func (e *Engine) keyswitch(pitch int) (Keyswitch, bool) {
	for _, ks := range e.profile.PipeSplit {
		if ks.Pitch == pitch {
			return ks, true
		}
	}
	return Keyswitch{}, false
}

func (e *Engine) setPortamento(val int) {
	e.state.PortamentoEnabled = val >= e.profile.Portamento.OnThreshold
}

// sendBreathDerived sends bow pressure/position (bowed) or breath noise (wind)
func (e *Engine) sendBreathDerived(out *emitter) {
	p := &e.profile
	switch p.Family {
	case FamilyBowed:
		pressure, position := bowFor(e.state, *p)
		out.cc(p.BowPressureCC, pressure)
		out.cc(p.BowPositionCC, position)
	case FamilyWind:
		out.cc(p.BreathNoiseCC, breathNoiseFor(e.state.LastBreath, p.BreathNoise))
	}
}

func (e *Engine) sendVibrato(out *emitter) {
	rate, depth := vibratoFor(e.state, e.profile)
	out.cc(e.profile.VibratoRateCC, rate)
	out.cc(e.profile.VibratoDepthCC, depth)
}

func (e *Engine) sendBrightness(out *emitter) {
	if e.profile.BrightnessCC == NoCC {
		return
	}
	s := &e.state
	s.SmoothedBrightness = slew(s.SmoothedBrightness, s.BrightnessTarget, e.param)
	out.cc(e.profile.BrightnessCC, normalize(s.SmoothedBrightness))
}

// emitter collects the outbound events of one Handle call
type emitter struct {
	channel uint8
	events  []midi.Event
}

func (o *emitter) cc(number, value int) {
	if number == NoCC {
		return
	}
	o.events = append(o.events, midi.CC(o.channel, number, value))
}

func (o *emitter) add(ev midi.Event) {
	o.events = append(o.events, ev)
}

func (o *emitter) forward(ev midi.Event) {
	o.events = append(o.events, ev)
}
