package sequencer

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"go-morp/debug"
	"go-morp/midi"
)

// Meter is a time signature
type Meter struct {
	Count       int
	Subdivision int
}

// Meter returns the sequencer's time signature
func (s *Sequencer) Meter() Meter {
	return Meter{Count: s.count, Subdivision: s.subdivision}
}

// SetMeter sets count and subdivision together
func (s *Sequencer) SetMeter(m Meter) {
	s.SetCount(m.Count)
	s.SetSubdivision(m.Subdivision)
}

// WritePatternFile writes p as a single track standard MIDI file, one tick
// per clock. Ticks before the downbeat are not written.
func WritePatternFile(path string, p Pattern, m Meter) error {
	if p.Empty() {
		return ErrEmptyPattern
	}

	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(ClocksPerBeat)

	var track smf.Track
	track.Add(0, smf.MetaMeter(uint8(max(m.Count, 1)), uint8(max(m.Subdivision, 1))))

	last, skipped := 0, 0
	for _, tick := range p.Ticks() {
		if tick < 0 {
			skipped += len(p.At(tick))
			continue
		}
		for i, e := range p.At(tick) {
			delta := uint32(0)
			if i == 0 {
				delta = uint32(tick - last)
			}
			track.Add(delta, e.Message())
		}
		last = tick
	}
	if skipped > 0 {
		debug.Log("pattern", "%s: %d events before the downbeat not written", path, skipped)
	}

	length := max(p.MeasureCount, 1) * ClocksPerBeat * max(m.Count, 1)
	track.Close(uint32(max(length-last, 0)))
	if err := sm.Add(track); err != nil {
		return fmt.Errorf("adding pattern track: %w", err)
	}
	if err := sm.WriteFile(path); err != nil {
		return fmt.Errorf("writing pattern %s: %w", path, err)
	}
	return nil
}

// ReadPatternFile reads a standard MIDI file into a Pattern. Notes from every
// track are merged and ticks are rescaled to 24 per quarter note. Files
// without a time signature are read as 4/4.
func ReadPatternFile(path string) (Pattern, Meter, error) {
	rd, err := smf.ReadFile(path)
	if err != nil {
		return Pattern{}, Meter{}, fmt.Errorf("reading pattern %s: %w", path, err)
	}

	resolution := uint64(ClocksPerBeat)
	if ticks, ok := rd.TimeFormat.(smf.MetricTicks); ok && ticks.Resolution() > 0 {
		resolution = uint64(ticks.Resolution())
	}

	m := Meter{Count: 4, Subdivision: 4}
	notes := map[int][]midi.Event{}
	end := 0
	for _, tr := range rd.Tracks {
		var abs uint64
		for _, ev := range tr {
			abs += uint64(ev.Delta)
			tick := rescale(abs, resolution)
			end = max(end, tick)

			var num, denom uint8
			if ev.Message.GetMetaMeter(&num, &denom) {
				m = Meter{Count: int(max(num, 1)), Subdivision: int(max(denom, 1))}
				continue
			}
			if e, ok := midi.FromMessage(gomidi.Message(ev.Message)); ok && !e.IsClock() {
				notes[tick] = append(notes[tick], e)
			}
		}
	}
	if len(notes) == 0 {
		return Pattern{}, m, fmt.Errorf("reading pattern %s: %w", path, ErrEmptyPattern)
	}

	cpm := ClocksPerBeat * m.Count
	p := NewPattern(notes, cpm)
	// trailing silence up to the end of track belongs to the pattern
	p.MeasureCount = max(p.MeasureCount, (end+cpm-1)/cpm)
	return p, m, nil
}

// rescale converts a file tick to clocks, rounding to the nearest clock
func rescale(tick, resolution uint64) int {
	return int((tick*ClocksPerBeat + resolution/2) / resolution)
}
