package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"go-morp/config"
	"go-morp/debug"
	"go-morp/midi"
	"go-morp/rig"
	"go-morp/theme"
	"go-morp/tui"
)

// names collects a repeatable flag
type names []string

func (n *names) String() string { return strings.Join(*n, ",") }

func (n *names) Set(v string) error {
	*n = append(*n, v)
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var sel config.PortSelection
	var add, drop names
	configPath := flag.String("config", "", "config file (.json, .yaml); default ~/.config/go-morp/config.json")
	debugLog := flag.Bool("debug", false, "write a debug log to ~/.config/go-morp/debug.log")
	pattern := flag.String("pattern", "", "pattern file to load at startup")
	setup := flag.Bool("setup", false, "pick the input and output from a list")
	save := flag.Bool("save", false, "save port changes to the config file")
	flag.StringVar(&sel.Input, "input", "", "note input port")
	flag.StringVar(&sel.ClockInput, "clock-input", "", "clock input port, if not the note input")
	flag.Var(&add, "output", "output port to add (repeatable)")
	flag.Var(&drop, "drop-output", "output port to remove (repeatable)")
	flag.Parse()
	sel.Add, sel.Drop = add, drop

	if *debugLog {
		if err := debug.Enable(debug.DefaultPath()); err != nil {
			return err
		}
		defer debug.Disable()
	}

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// MIDI device manager (handles hot-plug)
	deviceMgr := midi.NewDeviceManager()

	// First run: pick ports from a list
	if *setup || (cfg.NeedsPorts() && sel.Empty()) {
		in, out, err := config.ChoosePorts(os.Stdin, os.Stdout, deviceMgr.InputNames(), deviceMgr.OutputNames())
		switch {
		case errors.Is(err, config.ErrNoPorts) && !*setup:
			fmt.Println("No MIDI ports found; starting without any")
		case err != nil:
			return err
		default:
			sel.Input = in
			sel.Add = append(sel.Add, out)
			*save = true
		}
	}
	if cfg.Apply(sel) && *save {
		if *configPath != "" {
			err = cfg.SaveFile(*configPath)
		} else {
			err = cfg.Save()
		}
		if err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
	}

	// Load theme
	th := theme.New(theme.LoadOrDefault(cfg.UI.Palette))

	manager := rig.NewManager(deviceMgr)
	if err := manager.Build(cfg); err != nil {
		return err
	}
	if *pattern != "" {
		if err := manager.LoadPattern(*pattern); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := manager.Start(ctx); err != nil {
		return err
	}
	defer manager.Stop()

	// Create and run TUI
	m := tui.NewModel(manager, th)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
