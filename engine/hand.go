package engine

// HandPosition is the state of the fingering-assist machine. It models the
// player's hand sliding along the neck to make a large portamento possible.
type HandPosition uint8

const (
	// HandMid is the resting position; nothing to restore
	HandMid HandPosition = iota
	// HandMoved means an assist value was sent and the next NoteOff restores it
	HandMoved
	// HandHeldAtBridge defers the restore by one extra NoteOff
	HandHeldAtBridge
)

func (h HandPosition) String() string {
	switch h {
	case HandMid:
		return "mid"
	case HandMoved:
		return "moved"
	case HandHeldAtBridge:
		return "bridge"
	}
	return "unknown"
}

// Pending reports whether a restore is still owed
func (h HandPosition) Pending() bool {
	return h != HandMid
}

// moveToBridge is triggered by a big upward jump on NoteOn.
// A hand that already left mid is not moved again.
func (e *Engine) moveToBridge(out *emitter) {
	if e.state.Hand != HandMid {
		return
	}
	e.state.Hand = HandHeldAtBridge
	out.cc(e.profile.AltFingeringCC, HandValueBridge)
}

// moveTowardNut is triggered by the single-string portamento controller
func (e *Engine) moveTowardNut(out *emitter) {
	if e.state.Hand != HandMid {
		return
	}
	e.state.Hand = HandMoved
	out.cc(e.profile.AltFingeringCC, HandValueNut)
}

// restoreHand runs on every NoteOff
func (e *Engine) restoreHand(out *emitter) {
	switch e.state.Hand {
	case HandHeldAtBridge:
		// Wait for one more NoteOff before restoring.
		e.state.Hand = HandMoved
	case HandMoved:
		e.state.Hand = HandMid
		out.cc(e.profile.AltFingeringCC, HandValueMid)
	}
}
