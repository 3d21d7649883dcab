package effects

import (
	"reflect"
	"testing"

	"go-morp/box"
	"go-morp/midi"
)

// rig wires in -> [loop of stages] -> out, like a live setup
func rig(stages ...box.Effect) (in *box.Node, out *box.Node, mon *box.Monitor) {
	in = box.NewNode("in", nil)
	out, mon = box.NewMonitor("out", 0)
	in.SetOutputs(out)
	nodes := make([]*box.Node, len(stages))
	for i, s := range stages {
		nodes[i] = box.NewNode("fx", s)
	}
	in.AssignLoop(box.NewLoop(nodes...))
	return in, out, mon
}

// direct wires a single stage straight to a monitor
func direct(stage box.Effect) (*box.Node, *box.Monitor) {
	n := box.NewNode("fx", stage)
	out, mon := box.NewMonitor("out", 0)
	n.SetOutputs(out)
	return n, mon
}

func on(note, vel uint8) midi.Event { return midi.NewNoteOn(note, vel) }
func off(note uint8) midi.Event     { return midi.NewNoteOff(note) }

func TestHarmonizerVoices(t *testing.T) {
	n, mon := direct(NewHarmonizer(7, 12))
	n.OnMessage(on(60, 60))

	want := []midi.Event{on(60, 60), on(67, 60), on(72, 60)}
	if got := mon.Events(); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestHarmonizerInLoop(t *testing.T) {
	in, out, mon := rig(NewHarmonizer(7, 12))

	in.OnMessage(on(60, 60))
	if got := len(mon.Events()); got != 3 {
		t.Fatalf("expected 3 events, got %d", got)
	}
	if out.ActiveCount() != 3 {
		t.Fatalf("expected 3 active notes at the output, got %v", out.ActiveNotes())
	}

	in.OnMessage(off(60))
	if got := len(mon.Events()); got != 6 {
		t.Fatalf("expected 6 events, got %d", got)
	}
	if out.ActiveCount() != 0 {
		t.Fatalf("harmonized notes left on: %v", out.ActiveNotes())
	}
}

func TestHarmonizerDropsOutOfRangeVoices(t *testing.T) {
	n, mon := direct(NewHarmonizer(12, -130))
	n.OnMessage(on(120, 50))
	if got := mon.Events(); !reflect.DeepEqual(got, []midi.Event{on(120, 50)}) {
		t.Fatalf("expected only the original, got %v", got)
	}
}

func TestShadowEchoes(t *testing.T) {
	s := NewShadow(3, 2, 0.3)
	n, mon := direct(s)

	for i := 1; i <= 7; i++ {
		mon.Reset()
		n.OnMessage(on(uint8(60+i), uint8(10*i)))
	}

	// 7th input: itself, input 4 (3 back) and input 1 (6 back), both at 0.7
	want := []midi.Event{on(67, 70), on(64, 28), on(61, 7)}
	if got := mon.Events(); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestShadowEarlyInputs(t *testing.T) {
	n, mon := direct(NewShadow(3, 2, 0.3))
	for i := 1; i <= 3; i++ {
		n.OnMessage(on(uint8(60+i), 100))
	}
	// nothing is 3 back until the 4th input
	if got := len(mon.Events()); got != 3 {
		t.Fatalf("expected no echoes yet, got %v", mon.Events())
	}
	n.OnMessage(on(64, 100))
	if got := mon.Events(); got[len(got)-1] != on(61, 70) {
		t.Fatalf("expected echo of the first input, got %v", got)
	}
}

func TestShadowHistoryBounded(t *testing.T) {
	s := NewShadow(3, 2, 0.3)
	n := box.NewNode("shadow", s)
	for i := 0; i < 50; i++ {
		n.OnMessage(on(uint8(i), 100))
		if s.HistoryLen() > 6 {
			t.Fatalf("history grew to %d", s.HistoryLen())
		}
	}
	if s.HistoryLen() != 6 {
		t.Fatalf("expected full history of 6, got %d", s.HistoryLen())
	}
}

func TestShadowDecayClamped(t *testing.T) {
	s := NewShadow(0, 0, 1.5)
	if s.Period() != 1 || s.Repeat() != 1 || s.Decay() != 1 {
		t.Fatalf("parameters not clamped: %d %d %v", s.Period(), s.Repeat(), s.Decay())
	}
	n, mon := direct(s)
	n.OnMessage(on(60, 100))
	n.OnMessage(on(62, 100))
	// full decay turns the echo into a release
	if got := mon.Events(); got[len(got)-1].Type != midi.NoteOff {
		t.Fatalf("expected zero-velocity echo to route as note off, got %v", got)
	}
}

func TestFreeze(t *testing.T) {
	in, out, mon := rig(NewFreeze())

	in.OnMessage(on(60, 60))
	if got := len(mon.Events()); got != 1 {
		t.Fatalf("expected 1 event, got %d", got)
	}

	in.OnMessage(off(60))
	if got := len(mon.Events()); got != 1 {
		t.Fatalf("note off should be held, got %v", mon.Events())
	}
	if out.ActiveCount() != 1 {
		t.Fatalf("output should still hold 60, got %v", out.ActiveNotes())
	}

	in.OnMessage(on(64, 60))
	want := []midi.Event{on(60, 60), off(60), on(64, 60)}
	if got := mon.Events(); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if !reflect.DeepEqual(out.ActiveNotes(), []uint8{64}) {
		t.Fatalf("expected only 64 active, got %v", out.ActiveNotes())
	}
}

func TestFreezeChord(t *testing.T) {
	f := NewFreeze()
	n, mon := direct(f)

	n.OnMessage(on(60, 90))
	n.OnMessage(on(64, 90))
	n.OnMessage(off(60))
	if f.Frozen() {
		t.Fatal("should not freeze while 64 is held")
	}
	n.OnMessage(off(64))
	if !f.Frozen() || !reflect.DeepEqual(f.Pending(), []uint8{60, 64}) {
		t.Fatalf("expected frozen with 60,64 pending: %v %v", f.Frozen(), f.Pending())
	}

	n.OnMessage(on(67, 90))
	want := []midi.Event{on(60, 90), on(64, 90), off(60), off(64), on(67, 90)}
	if got := mon.Events(); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if f.Frozen() || len(f.Pending()) != 0 {
		t.Fatal("freeze should be cancelled")
	}
}

func TestPedal(t *testing.T) {
	p := NewPedal()
	n, mon := direct(p)

	n.OnMessage(on(60, 90))
	n.OnMessage(on(64, 90))
	n.OnMessage(off(60)) // not the last note: passes
	n.OnMessage(off(64)) // last note: pedal goes down
	if !p.Pedaling() || !n.IsActive(64) {
		t.Fatalf("expected pedaling with 64 held, got %v %v", p.Pedaling(), n.ActiveNotes())
	}
	n.OnMessage(off(70)) // buffered while pedaling

	n.OnMessage(on(67, 90))
	want := []midi.Event{on(60, 90), on(64, 90), off(60), off(64), off(70), on(67, 90)}
	if got := mon.Events(); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if p.Pedaling() || !reflect.DeepEqual(n.ActiveNotes(), []uint8{67}) {
		t.Fatalf("pedal should be lifted with 67 active, got %v", n.ActiveNotes())
	}
}

func TestAutotune(t *testing.T) {
	major := []int{0, 2, 4, 5, 7, 9, 11}
	tests := []struct {
		name        string
		scale       []int
		autocorrect bool
		note        uint8
		want        []midi.Event
	}{
		{"in scale", major, true, 64, []midi.Event{on(64, 80)}},
		{"tie goes to first scanned class", major, true, 61, []midi.Event{on(60, 80)}},
		{"tie order follows scale order", []int{2, 0}, true, 61, []midi.Event{on(62, 80)}},
		{"wraps across the octave", []int{0}, true, 71, []midi.Event{on(72, 80)}},
		{"stays inside 0-127", []int{8}, true, 127, []midi.Event{on(116, 80)}},
		{"no autocorrect drops", major, false, 61, nil},
		{"empty scale drops", nil, true, 61, nil},
		{"classes reduced mod 12", []int{13}, true, 60, []midi.Event{on(61, 80)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, mon := direct(NewAutotune(tt.scale, tt.autocorrect))
			n.OnMessage(on(tt.note, 80))
			if got := mon.Events(); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAutotuneReleasesCorrectedNote(t *testing.T) {
	n, mon := direct(NewAutotune([]int{0, 2, 4, 5, 7, 9, 11}, true))
	n.OnMessage(on(66, 80))
	n.OnMessage(off(66))

	want := []midi.Event{on(65, 80), off(65)}
	if got := mon.Events(); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if n.ActiveCount() != 0 {
		t.Fatalf("corrected note left active: %v", n.ActiveNotes())
	}
}

// Chopper is a placeholder with no working behavior: it discards everything.
func TestChopperDiscards(t *testing.T) {
	n, mon := direct(Chopper{})
	n.OnMessage(on(60, 60))
	n.OnMessage(off(60))
	if got := mon.Events(); len(got) != 0 {
		t.Fatalf("chopper forwarded %v", got)
	}
	if n.ActiveCount() != 0 {
		t.Fatal("chopper should not track notes")
	}
}

func TestClonesAreIndependent(t *testing.T) {
	s := NewShadow(1, 1, 0)
	s.Modify(on(1, 1))
	c := s.Clone().(*Shadow)
	c.Modify(on(2, 2))
	if s.HistoryLen() != 1 || s.history[0].Note != 1 {
		t.Fatalf("clone shares history with original: %v", s.history)
	}

	f := NewFreeze()
	f.pending[60] = struct{}{}
	fc := f.Clone().(*Freeze)
	delete(fc.pending, 60)
	if len(f.Pending()) != 1 {
		t.Fatal("clone shares pending set with original")
	}
}
