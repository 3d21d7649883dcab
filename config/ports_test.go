package config

import (
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
)

func TestChoosePorts(t *testing.T) {
	inputs := []string{"Keystep", "IAC Bus 1"}
	outputs := []string{"Synth A", "Synth B"}

	var prompt strings.Builder
	in, out, err := ChoosePorts(strings.NewReader("2\nnine\n3\n1\n"), &prompt, inputs, outputs)
	if err != nil {
		t.Fatalf("ChoosePorts: %v", err)
	}
	if in != "IAC Bus 1" || out != "Synth A" {
		t.Fatalf("got %q, %q", in, out)
	}
	if got := strings.Count(prompt.String(), "pick 1-2"); got != 2 {
		t.Errorf("expected 2 re-prompts, got %d:\n%s", got, prompt.String())
	}
	if !strings.Contains(prompt.String(), "1: Keystep\n2: IAC Bus 1\n") {
		t.Errorf("inputs not listed:\n%s", prompt.String())
	}
}

func TestChoosePortsFailures(t *testing.T) {
	tests := []struct {
		name            string
		input           string
		inputs, outputs []string
		want            error
	}{
		{"no inputs", "1\n1\n", nil, []string{"Synth"}, ErrNoPorts},
		{"no outputs", "1\n1\n", []string{"Keys"}, nil, ErrNoPorts},
		{"input ends early", "", []string{"Keys"}, []string{"Synth"}, io.ErrUnexpectedEOF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ChoosePorts(strings.NewReader(tt.input), io.Discard, tt.inputs, tt.outputs)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestApplyPortSelection(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.NeedsPorts() {
		t.Fatal("default config should need ports")
	}
	if cfg.Apply(PortSelection{}) || !(PortSelection{}).Empty() {
		t.Fatal("empty selection should change nothing")
	}

	changed := cfg.Apply(PortSelection{Input: "Keystep", Add: []string{"Synth A", "Synth B", "Synth A"}})
	if !changed || cfg.Input != "Keystep" || !reflect.DeepEqual(cfg.Outputs, []string{"Synth A", "Synth B"}) {
		t.Fatalf("selection not applied: %v %+v", changed, cfg)
	}

	if cfg.NeedsPorts() {
		t.Fatal("ports were chosen")
	}

	changed = cfg.Apply(PortSelection{ClockInput: "Clock", Drop: []string{"Synth A", "missing"}})
	if !changed || cfg.ClockInput != "Clock" || !reflect.DeepEqual(cfg.Outputs, []string{"Synth B"}) {
		t.Fatalf("drop not applied: %+v", cfg)
	}

	if cfg.Apply(PortSelection{Input: "Keystep", Add: []string{"Synth B"}}) {
		t.Fatal("reapplying the same ports should report no change")
	}
}
