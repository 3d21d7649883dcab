package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const yamlConfig = `
input: Keystep
clockInput: Keystep
outputs: [Synth A, Synth B]
chain:
  - kind: harmonizer
    voices: [7, 12]
  - kind: shadow
    period: 4
    decay: 0.5
loop:
  - kind: autotune
    scale: [0, 2, 4, 5, 7, 9, 11]
    autocorrect: true
sequencer:
  enabled: true
  count: 3
  countIn: 0
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	cfg, err := LoadFile(writeFile(t, "rig.yaml", yamlConfig))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Input != "Keystep" || !reflect.DeepEqual(cfg.Outputs, []string{"Synth A", "Synth B"}) {
		t.Errorf("ports not read: %+v", cfg)
	}
	if len(cfg.Chain) != 2 || !reflect.DeepEqual(cfg.Chain[0].Voices, []int{7, 12}) {
		t.Errorf("chain not read: %+v", cfg.Chain)
	}
	if d := cfg.Chain[1].Decay; d == nil || *d != 0.5 {
		t.Errorf("shadow decay not read: %v", d)
	}
	if !cfg.Loop[0].Autocorrect || len(cfg.Loop[0].Scale) != 7 {
		t.Errorf("loop not read: %+v", cfg.Loop)
	}

	seq := cfg.Sequencer
	if seq.Count != 3 || seq.Subdivision != 4 || seq.Resolution != 6 {
		t.Errorf("sequencer defaults not applied: %+v", seq)
	}
	if seq.CountInMeasures() != 0 {
		t.Errorf("explicit zero count-in lost: %d", seq.CountInMeasures())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestSaveFileRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Input = "Keys"
	cfg.AddOutput("Synth")
	cfg.Chain = []EffectConfig{{Kind: EffectPedal}}

	for _, name := range []string{"rig.json", "rig.yml"} {
		path := filepath.Join(t.TempDir(), name)
		if err := cfg.SaveFile(path); err != nil {
			t.Fatalf("%s: save: %v", name, err)
		}
		got, err := LoadFile(path)
		if err != nil {
			t.Fatalf("%s: load: %v", name, err)
		}
		if !reflect.DeepEqual(got, cfg) {
			t.Errorf("%s: got %+v, want %+v", name, got, cfg)
		}
	}
}

func TestLoadMissingUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("expected defaults, got %+v", cfg)
	}

	cfg.Input = "Keys"
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	again, err := Load()
	if err != nil || again.Input != "Keys" {
		t.Fatalf("saved config not loaded: %+v %v", again, err)
	}
}

func TestLoadBadFile(t *testing.T) {
	if _, err := LoadFile(writeFile(t, "bad.json", "{")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidateUnknownEffect(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Loop = []EffectConfig{{Kind: EffectFreeze}, {Kind: "reverb"}}
	err := cfg.Validate()
	if !errors.Is(err, ErrUnknownEffect) {
		t.Fatalf("expected ErrUnknownEffect, got %v", err)
	}
}

func TestOutputHelpers(t *testing.T) {
	cfg := &Config{Input: "Keys", ClockInput: "Clock"}
	cfg.AddOutput("A")
	cfg.AddOutput("B")
	cfg.AddOutput("A")
	if !reflect.DeepEqual(cfg.Outputs, []string{"A", "B"}) {
		t.Fatalf("outputs %v", cfg.Outputs)
	}
	cfg.RemoveOutput("A")
	if cfg.HasOutput("A") || !cfg.HasOutput("B") {
		t.Fatalf("outputs %v", cfg.Outputs)
	}
	if !cfg.WantsInput("Clock") || !cfg.WantsInput("Keys") || cfg.WantsInput("") {
		t.Fatal("WantsInput wrong")
	}
}
