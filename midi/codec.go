package midi

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

// FromMessage decodes a wire message. NoteOn with velocity 0 is reported
// as NoteOff; anything that is not a note or controller becomes KindOther
// and keeps its bytes.
func FromMessage(msg gomidi.Message) Event {
	var ch, key, vel, cc, val uint8
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		return Event{Kind: KindNoteOn, Channel: ch, Note: key, Velocity: vel}
	case msg.GetNoteEnd(&ch, &key):
		return Event{Kind: KindNoteOff, Channel: ch, Note: key}
	case msg.GetControlChange(&ch, &cc, &val):
		return Event{Kind: KindControlChange, Channel: ch, Controller: cc, Value: val}
	}
	raw := make([]byte, len(msg))
	copy(raw, msg)
	return Event{Kind: KindOther, Raw: raw}
}

// Message encodes the event for sending
func (e Event) Message() gomidi.Message {
	switch e.Kind {
	case KindControlChange:
		return gomidi.ControlChange(e.Channel, e.Controller, e.Value)
	case KindNoteOn:
		return gomidi.NoteOn(e.Channel, e.Note, e.Velocity)
	case KindNoteOff:
		return gomidi.NoteOff(e.Channel, e.Note)
	}
	return gomidi.Message(e.Raw)
}
