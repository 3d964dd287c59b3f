package router

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"swam-ewi/debug"
	"swam-ewi/engine"
	"swam-ewi/midi"
)

type fakeOutput struct {
	name string
	mu   sync.Mutex
	sent []midi.Event
	fail bool
}

func (f *fakeOutput) Name() string { return f.name }

func (f *fakeOutput) Send(ev midi.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("port gone")
	}
	f.sent = append(f.sent, ev)
	return nil
}

func (f *fakeOutput) Close() error { return nil }

func (f *fakeOutput) events() []midi.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]midi.Event(nil), f.sent...)
}

func startManager(t *testing.T, p engine.Profile, out midi.Output) *Manager {
	t.Helper()
	e, err := engine.New(p)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	m := NewManager(e, out)
	ctx, cancel := context.WithCancel(context.Background())
	go m.Run(ctx)
	t.Cleanup(cancel)
	return m
}

func TestEventsAreSentInOrder(t *testing.T) {
	out := &fakeOutput{name: "synth"}
	m := startManager(t, engine.Bowed(), out)

	m.Submit(midi.CC(0, 2, 100))
	m.Submit(midi.NoteOn(0, 60, 90))
	m.Sync()

	got := out.events()
	want := []midi.Event{
		midi.CC(0, 2, 100),
		midi.CC(0, 3, 86),
		midi.CC(0, 28, 60),
		midi.CC(0, 6, 0),
		midi.CC(0, 7, 0),
	}
	if len(got) < len(want) || !reflect.DeepEqual(got[:len(want)], want) {
		t.Fatalf("unexpected breath output %v", got)
	}
	last := got[len(got)-1]
	if last.Kind != midi.KindNoteOn || last.Note != 60 {
		t.Fatalf("expected the note to go out last, got %v", last)
	}

	snap := m.Snapshot()
	if snap.Received != 2 || snap.Sent != len(got) {
		t.Fatalf("unexpected counters %+v", snap)
	}
	if snap.CC[3] != 86 || snap.CC[28] != 60 {
		t.Fatalf("unexpected CC table %v", snap.CC)
	}
	if !snap.HasLastIn || snap.LastIn.Note != 60 {
		t.Fatalf("unexpected last inbound %v", snap.LastIn)
	}
	if snap.State.NotesOn != 1 || snap.State.LastBreath != 100 {
		t.Fatalf("unexpected state %+v", snap.State)
	}
}

func TestPanicUsesLastChannel(t *testing.T) {
	out := &fakeOutput{name: "synth"}
	m := startManager(t, engine.Bowed(), out)

	m.Submit(midi.NoteOn(4, 60, 90))
	m.Panic()

	got := out.events()
	last := got[len(got)-1]
	if !reflect.DeepEqual(last, midi.AllNotesOff(4)) {
		t.Fatalf("expected all-notes-off on channel 5, got %v", last)
	}
	if m.Snapshot().State != engine.DefaultState() {
		t.Fatalf("expected state reset after panic")
	}
}

func TestSetParameterResetsSession(t *testing.T) {
	m := startManager(t, engine.Wind(), &fakeOutput{name: "synth"})

	m.Submit(midi.CC(0, 2, 90))
	m.SetParameter(0.5)

	snap := m.Snapshot()
	if snap.Param != 0.5 {
		t.Fatalf("expected param 0.5, got %v", snap.Param)
	}
	if snap.State != engine.DefaultState() {
		t.Fatalf("expected state reset, got %+v", snap.State)
	}

	m.Nudge(-100)
	if got := m.Snapshot().Param; got != engine.Wind().Param.Min {
		t.Fatalf("expected clamp to min, got %v", got)
	}
}

func TestNoOutputDropsEvents(t *testing.T) {
	m := startManager(t, engine.Bowed(), nil)
	m.Submit(midi.CC(0, 2, 100))
	m.Sync()

	snap := m.Snapshot()
	if snap.Sent != 0 || snap.Received != 1 {
		t.Fatalf("unexpected counters %+v", snap)
	}

	out := &fakeOutput{name: "late"}
	m.SetOutput(out)
	m.Submit(midi.CC(0, 64, 127))
	m.Sync()
	if got := out.events(); len(got) != 1 || got[0].Controller != 64 {
		t.Fatalf("expected forwarded sustain, got %v", got)
	}
	if m.Snapshot().Output != "late" {
		t.Fatalf("expected output name in snapshot")
	}
}

func TestSendErrorsAreCountedAndLogged(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "debug.log")
	if err := debug.EnableAt(logPath); err != nil {
		t.Fatalf("EnableAt: %v", err)
	}
	defer debug.Disable()

	m := startManager(t, engine.Bowed(), &fakeOutput{name: "synth", fail: true})
	m.Submit(midi.CC(0, 64, 127))
	m.Sync()
	if got := m.Snapshot().Errors; got != 1 {
		t.Fatalf("expected 1 send error, got %d", got)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "send failed") || !strings.Contains(text, "output=synth") || !strings.Contains(text, "port gone") {
		t.Fatalf("expected structured send error in log, got:\n%s", text)
	}
}

func TestInputLossPanics(t *testing.T) {
	out := &fakeOutput{name: "synth"}
	m := startManager(t, engine.Bowed(), out)

	events := make(chan midi.DeviceEvent, 4)
	events <- midi.DeviceEvent{Type: midi.DeviceConnected, Dir: midi.DirInput, Name: "EWI USB"}
	events <- midi.DeviceEvent{Type: midi.DeviceDisconnected, Dir: midi.DirInput, Name: "EWI USB"}
	events <- midi.DeviceEvent{Type: midi.DeviceDisconnected, Dir: midi.DirOutput, Name: "synth"}
	close(events)

	m.Submit(midi.NoteOn(0, 60, 90))
	m.WatchDevices(context.Background(), events)
	m.Sync()

	var sawPanic bool
	for _, ev := range out.events() {
		if reflect.DeepEqual(ev, midi.AllNotesOff(0)) {
			sawPanic = true
		}
	}
	if !sawPanic {
		t.Fatalf("expected all-notes-off after input loss, got %v", out.events())
	}
	snap := m.Snapshot()
	if snap.Input != "" || snap.Output != "" {
		t.Fatalf("expected both ports cleared, got in=%q out=%q", snap.Input, snap.Output)
	}
}

func TestSubmitAfterStopDoesNotBlock(t *testing.T) {
	e, err := engine.New(engine.Bowed())
	if err != nil {
		t.Fatal(err)
	}
	m := NewManager(e, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	for i := 0; i < 1000; i++ {
		m.Submit(midi.CC(0, 2, i%128))
	}
	m.Sync()
}
