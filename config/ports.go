package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrNoPorts is returned by ChoosePorts when there is nothing to pick from
var ErrNoPorts = errors.New("no MIDI ports available")

// PortSelection changes which ports a config uses. Empty fields leave the
// config alone.
type PortSelection struct {
	Input      string
	ClockInput string
	Add        []string // outputs to add
	Drop       []string // outputs to remove
}

// Empty reports whether s changes nothing
func (s PortSelection) Empty() bool {
	return s.Input == "" && s.ClockInput == "" && len(s.Add) == 0 && len(s.Drop) == 0
}

// Apply updates c with s and reports whether anything changed
func (c *Config) Apply(s PortSelection) bool {
	changed := false
	if s.Input != "" && s.Input != c.Input {
		c.Input = s.Input
		changed = true
	}
	if s.ClockInput != "" && s.ClockInput != c.ClockInput {
		c.ClockInput = s.ClockInput
		changed = true
	}
	for _, name := range s.Drop {
		if c.HasOutput(name) {
			c.RemoveOutput(name)
			changed = true
		}
	}
	for _, name := range s.Add {
		if name != "" && !c.HasOutput(name) {
			c.AddOutput(name)
			changed = true
		}
	}
	return changed
}

// ChoosePorts prints the numbered inputs and outputs to w and reads one
// choice for each from r
func ChoosePorts(r io.Reader, w io.Writer, inputs, outputs []string) (input, output string, err error) {
	scanner := bufio.NewScanner(r)
	if input, err = choose(scanner, w, "input", inputs); err != nil {
		return "", "", err
	}
	if output, err = choose(scanner, w, "output", outputs); err != nil {
		return "", "", err
	}
	return input, output, nil
}

// choose asks until it reads a number in range
func choose(scanner *bufio.Scanner, w io.Writer, kind string, names []string) (string, error) {
	if len(names) == 0 {
		return "", fmt.Errorf("%s: %w", kind, ErrNoPorts)
	}
	for i, name := range names {
		fmt.Fprintf(w, "%d: %s\n", i+1, name)
	}
	for {
		fmt.Fprintf(w, "Enter %s port number: ", kind)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", fmt.Errorf("choosing %s: %w", kind, io.ErrUnexpectedEOF)
		}
		n, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
		if err == nil && n >= 1 && n <= len(names) {
			return names[n-1], nil
		}
		fmt.Fprintf(w, "pick 1-%d\n", len(names))
	}
}

// NeedsPorts reports whether no input or output has been chosen yet
func (c *Config) NeedsPorts() bool {
	return c.Input == "" && c.ClockInput == "" && len(c.Outputs) == 0
}
