package engine

import (
	"math/rand"
	"testing"

	"swam-ewi/midi"
)

func TestMoveTowardNutAndRestore(t *testing.T) {
	e := newBowed(t)
	expectEvents(t, e.Handle(cc(84, 127)), cc(26, HandValueNut))
	if s := e.State(); s.Hand != HandMoved || !s.PortamentoEnabled {
		t.Fatalf("expected moved hand with portamento on, got %+v", s)
	}

	// Already moved: no second move.
	expectEvents(t, e.Handle(cc(84, 127)))

	expectEvents(t, e.Handle(off(60)), cc(26, HandValueMid), off(60))
	if e.State().Hand != HandMid {
		t.Fatalf("expected hand back at mid, got %s", e.State().Hand)
	}

	// Nothing pending: NoteOff is plain.
	expectEvents(t, e.Handle(off(60)), off(60))
}

func TestSingleStringBelowThresholdOnlyClearsPortamento(t *testing.T) {
	e := newBowed(t)
	e.Handle(cc(65, 127))
	expectEvents(t, e.Handle(cc(84, 31)))
	if s := e.State(); s.Hand != HandMid || s.PortamentoEnabled {
		t.Fatalf("expected no move and portamento off, got %+v", s)
	}
}

func TestBridgeRestoreIsDeferredOneNoteOff(t *testing.T) {
	e := newBowed(t)
	e.Handle(cc(65, 127))

	expectEvents(t, e.Handle(on(67, 127)),
		cc(26, HandValueBridge),
		cc(65, 89),
		on(67, 92),
	)
	if e.State().Hand != HandHeldAtBridge {
		t.Fatalf("expected hand held at bridge, got %s", e.State().Hand)
	}

	// A nut move while at the bridge is ignored.
	expectEvents(t, e.Handle(cc(84, 127)))

	expectEvents(t, e.Handle(off(67)), off(67))
	if e.State().Hand != HandMoved {
		t.Fatalf("expected moved after first NoteOff, got %s", e.State().Hand)
	}
	expectEvents(t, e.Handle(off(67)), cc(26, HandValueMid), off(67))
	if e.State().Hand != HandMid {
		t.Fatalf("expected mid after second NoteOff, got %s", e.State().Hand)
	}
}

func TestRepeatedBigJumpsDoNotRetrigger(t *testing.T) {
	e := newBowed(t)
	e.Handle(cc(65, 127))
	e.Handle(on(67, 100))
	got := e.Handle(on(80, 100))
	if v := ccValue(got, 26); v != -1 {
		t.Fatalf("expected no second bridge move, got %s", render(got))
	}
}

func TestHandMovesAlternateWithRestores(t *testing.T) {
	e := newBowed(t)
	rng := rand.New(rand.NewSource(3))

	moved := false
	for i := 0; i < 5000; i++ {
		var got []midi.Event
		switch rng.Intn(5) {
		case 0, 1:
			got = e.Handle(on(40+rng.Intn(50), 1+rng.Intn(127)))
		case 2:
			got = e.Handle(off(30 + rng.Intn(60)))
		case 3:
			got = e.Handle(cc(84, rng.Intn(128)))
		case 4:
			got = e.Handle(cc(65, rng.Intn(128)))
		}
		for _, ev := range got {
			if ev.Kind != midi.KindControlChange || ev.Controller != 26 {
				continue
			}
			isMove := ev.Value != HandValueMid
			if isMove && moved {
				t.Fatalf("two moves without a restore at step %d", i)
			}
			if !isMove && !moved {
				t.Fatalf("restore without a move at step %d", i)
			}
			moved = isMove
		}
		if moved != e.State().Hand.Pending() {
			t.Fatalf("emitted hand state and session state disagree at step %d", i)
		}
	}
}
