package midi

import "fmt"

// Kind identifies the variant of an Event
type Kind uint8

const (
	KindOther Kind = iota
	KindControlChange
	KindNoteOn
	KindNoteOff
)

// Channel-mode controller numbers
const (
	CCAllNotesOff uint8 = 123
)

// Event is a single MIDI message as seen by the mapping engine.
// Inbound and outbound messages share this representation.
type Event struct {
	Kind       Kind
	Channel    uint8 // 0-15
	Note       uint8 // NoteOn, NoteOff
	Velocity   uint8 // NoteOn
	Controller uint8 // ControlChange
	Value      uint8 // ControlChange
	Raw        []byte
}

// CC builds a ControlChange event. Out-of-range values are clamped.
func CC(channel uint8, controller, value int) Event {
	return Event{
		Kind:       KindControlChange,
		Channel:    channel & 0x0F,
		Controller: Clamp(controller),
		Value:      Clamp(value),
	}
}

// NoteOn builds a NoteOn event
func NoteOn(channel uint8, note, velocity int) Event {
	return Event{
		Kind:     KindNoteOn,
		Channel:  channel & 0x0F,
		Note:     Clamp(note),
		Velocity: Clamp(velocity),
	}
}

// NoteOff builds a NoteOff event
func NoteOff(channel uint8, note int) Event {
	return Event{
		Kind:    KindNoteOff,
		Channel: channel & 0x0F,
		Note:    Clamp(note),
	}
}

// AllNotesOff builds the channel-mode "all notes off" message
func AllNotesOff(channel uint8) Event {
	return CC(channel, int(CCAllNotesOff), 0)
}

// Clamp limits v to the 7-bit data range 0-127
func Clamp(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 127 {
		return 127
	}
	return uint8(v)
}

func (e Event) String() string {
	switch e.Kind {
	case KindControlChange:
		return fmt.Sprintf("cc ch=%d num=%d val=%d", e.Channel+1, e.Controller, e.Value)
	case KindNoteOn:
		return fmt.Sprintf("on ch=%d note=%s vel=%d", e.Channel+1, NoteName(e.Note), e.Velocity)
	case KindNoteOff:
		return fmt.Sprintf("off ch=%d note=%s", e.Channel+1, NoteName(e.Note))
	}
	return fmt.Sprintf("other % X", e.Raw)
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName renders a MIDI pitch as scientific pitch notation (60 = C4)
func NoteName(pitch uint8) string {
	return fmt.Sprintf("%s%d", noteNames[pitch%12], int(pitch/12)-1)
}
