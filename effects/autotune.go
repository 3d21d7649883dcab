package effects

import (
	"go-morp/box"
	"go-morp/midi"
)

// Autotune restricts notes to a set of pitch classes. Out-of-scale notes are
// moved to the nearest allowed pitch class when autocorrect is on, and
// dropped otherwise.
type Autotune struct {
	scale       []int
	autocorrect bool
}

// NewAutotune creates a scale filter. Pitch classes are reduced mod 12 and
// deduplicated; their order decides ties when correcting.
func NewAutotune(scale []int, autocorrect bool) *Autotune {
	a := &Autotune{autocorrect: autocorrect}
	a.SetScale(scale)
	return a
}

// Scale returns the allowed pitch classes in scan order
func (a *Autotune) Scale() []int {
	return append([]int(nil), a.scale...)
}

// SetScale replaces the allowed pitch classes
func (a *Autotune) SetScale(scale []int) {
	a.scale = nil
	seen := make(map[int]bool)
	for _, pc := range scale {
		pc = ((pc % 12) + 12) % 12
		if !seen[pc] {
			seen[pc] = true
			a.scale = append(a.scale, pc)
		}
	}
}

func (a *Autotune) Autocorrect() bool {
	return a.autocorrect
}

func (a *Autotune) SetAutocorrect(autocorrect bool) {
	a.autocorrect = autocorrect
}

func (a *Autotune) Modify(e midi.Event) []midi.Event {
	return []midi.Event{e}
}

func (a *Autotune) HandleNote(n *box.Node, e midi.Event) {
	if a.inScale(int(e.Note) % 12) {
		n.Note(e)
		return
	}
	if !a.autocorrect {
		return
	}
	if offset, ok := a.correction(e.Note); ok {
		shifted, _ := e.Transpose(offset)
		n.Note(shifted)
	}
}

func (a *Autotune) inScale(pc int) bool {
	for _, s := range a.scale {
		if s == pc {
			return true
		}
	}
	return false
}

// correction finds the smallest offset moving note onto an allowed pitch
// class inside 0-127. For each class the upward offset is tried before the
// downward one; the first strictly smallest wins.
func (a *Autotune) correction(note uint8) (int, bool) {
	pc := int(note) % 12
	best, found := 0, false
	for _, s := range a.scale {
		up := (s - pc + 12) % 12
		for _, offset := range []int{up, up - 12} {
			target := int(note) + offset
			if target < 0 || target > midi.MaxValue {
				continue
			}
			if !found || abs(offset) < abs(best) {
				best, found = offset, true
			}
		}
	}
	return best, found
}

func (a *Autotune) Clone() box.Effect {
	return NewAutotune(a.scale, a.autocorrect)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
