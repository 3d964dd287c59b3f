package engine

import (
	"reflect"
	"strings"
	"testing"

	"swam-ewi/midi"
)

func newBowed(t *testing.T) *Engine {
	t.Helper()
	e, err := New(Bowed())
	if err != nil {
		t.Fatalf("New(Bowed()): %v", err)
	}
	return e
}

func newWind(t *testing.T) *Engine {
	t.Helper()
	e, err := New(Wind())
	if err != nil {
		t.Fatalf("New(Wind()): %v", err)
	}
	return e
}

func cc(number, value int) midi.Event { return midi.CC(0, number, value) }
func on(pitch, vel int) midi.Event    { return midi.NoteOn(0, pitch, vel) }
func off(pitch int) midi.Event        { return midi.NoteOff(0, pitch) }

func expectEvents(t *testing.T, got []midi.Event, want ...midi.Event) {
	t.Helper()
	if len(want) == 0 && len(got) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected output\n got: %s\nwant: %s", render(got), render(want))
	}
}

func render(evs []midi.Event) string {
	parts := make([]string, len(evs))
	for i, ev := range evs {
		parts[i] = ev.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ccValue returns the last value sent on number, or -1
func ccValue(evs []midi.Event, number int) int {
	v := -1
	for _, ev := range evs {
		if ev.Kind == midi.KindControlChange && int(ev.Controller) == number {
			v = int(ev.Value)
		}
	}
	return v
}
