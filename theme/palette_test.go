package theme

import (
	"strings"
	"testing"
)

const gpl = `GIMP Palette
Name: mono
Columns: 2
# black to white
  0   0   0	Black
255 255 255	White
`

func TestParseGPL(t *testing.T) {
	p, err := ParseGPL(strings.NewReader(gpl))
	if err != nil {
		t.Fatalf("ParseGPL: %v", err)
	}
	if p.Name != "mono" || len(p.Colors) != 2 {
		t.Fatalf("got %+v", p)
	}
	if _, err := ParseGPL(strings.NewReader("GIMP Palette\n")); err == nil {
		t.Fatal("expected error for empty palette")
	}
}

func TestLookup(t *testing.T) {
	p, _ := ParseGPL(strings.NewReader(gpl))
	if got := p.Lookup(-1); got != (RGB{0, 0, 0}) {
		t.Errorf("Lookup(-1) = %v", got)
	}
	if got := p.Lookup(2); got != (RGB{255, 255, 255}) {
		t.Errorf("Lookup(2) = %v", got)
	}
	mid := p.Lookup(0.5)
	if mid[0] != mid[1] || mid[1] != mid[2] || mid[0] == 0 || mid[0] == 255 {
		t.Errorf("Lookup(0.5) should be a gray, got %v", mid)
	}
	if got := (RGB{255, 0, 16}).Hex(); got != "#ff0010" {
		t.Errorf("Hex = %q", got)
	}
}

func TestLoadOrDefault(t *testing.T) {
	if p := LoadOrDefault(""); p.Name != "plasma" {
		t.Errorf("empty path gave %q", p.Name)
	}
	if p := LoadOrDefault("/does/not/exist.gpl"); p.Name != "plasma" {
		t.Errorf("missing file gave %q", p.Name)
	}
}
