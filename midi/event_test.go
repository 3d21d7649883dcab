package midi

import (
	"reflect"
	"testing"

	gomidi "gitlab.com/gomidi/midi/v2"
)

func TestEventKinds(t *testing.T) {
	tests := []struct {
		e        Event
		on, off  bool
		isClock  bool
		asString string
	}{
		{NewNoteOn(60, 100), true, false, false, "on:C4/100"},
		{NewNoteOn(60, 0), false, true, false, "off:C4"},
		{NewNoteOff(61), false, true, false, "off:C#4"},
		{ClockTick(), false, false, true, "clock"},
	}
	for _, tt := range tests {
		if tt.e.IsNoteOn() != tt.on || tt.e.IsNoteOff() != tt.off || tt.e.IsClock() != tt.isClock {
			t.Errorf("%v: kind flags wrong", tt.e)
		}
		if got := tt.e.String(); got != tt.asString {
			t.Errorf("String() = %q, want %q", got, tt.asString)
		}
	}
}

func TestCopiesDoNotAlias(t *testing.T) {
	orig := NewNoteOn(60, 90)
	shifted := orig.WithNote(67).WithVelocity(10)
	if orig.Note != 60 || orig.Velocity != 90 {
		t.Fatalf("original changed: %v", orig)
	}
	if shifted.Note != 67 || shifted.Velocity != 10 {
		t.Fatalf("copy wrong: %v", shifted)
	}
}

func TestOutOfRange(t *testing.T) {
	bad := Event{Type: NoteOn, Note: 200, Velocity: 255}
	if bad.Valid() {
		t.Fatal("expected invalid event")
	}
	clamped := bad.Clamp()
	if clamped.Note != 127 || clamped.Velocity != 127 || !clamped.Valid() {
		t.Fatalf("clamp saturates to 127, got %v/%v", clamped.Note, clamped.Velocity)
	}
	if !ClockTick().Valid() {
		t.Fatal("clock is always valid")
	}

	if _, ok := NewNoteOn(120, 1).Transpose(12); ok {
		t.Error("transpose past 127 should be rejected")
	}
	if _, ok := NewNoteOn(5, 1).Transpose(-6); ok {
		t.Error("transpose below 0 should be rejected")
	}
	if e, ok := NewNoteOn(60, 1).Transpose(-12); !ok || e.Note != 48 {
		t.Errorf("transpose -12 = %v, %v", e, ok)
	}
}

func TestMessageRoundTrip(t *testing.T) {
	for _, e := range []Event{
		{Type: NoteOn, Channel: 3, Note: 64, Velocity: 99},
		{Type: NoteOff, Channel: 0, Note: 10, Velocity: 0},
		ClockTick(),
	} {
		got, ok := FromMessage(e.Message())
		if !ok || !reflect.DeepEqual(got, e) {
			t.Errorf("round trip %v -> %v (%v)", e, got, ok)
		}
	}
	if _, ok := FromMessage(gomidi.ControlChange(0, 64, 127)); ok {
		t.Error("control change should not convert")
	}
}
