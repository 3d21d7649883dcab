package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"go-morp/midi"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	dm := midi.NewDeviceManager()
	var err error
	switch os.Args[1] {
	case "list":
		listPorts(dm)
	case "monitor":
		if len(os.Args) < 3 {
			usage()
			os.Exit(2)
		}
		err = monitor(dm, os.Args[2])
	case "ping":
		if len(os.Args) < 3 {
			usage()
			os.Exit(2)
		}
		err = ping(dm, os.Args[2])
	case "poll":
		pollDevices(dm)
	default:
		usage()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("MIDI port tools")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list             - List all MIDI ports")
	fmt.Println("  monitor <input>  - Print note and clock events from an input")
	fmt.Println("  ping <output>    - Play a short arpeggio on an output")
	fmt.Println("  poll             - Watch for ports coming and going")
}

func listPorts(dm *midi.DeviceManager) {
	fmt.Println("=== MIDI Input Ports ===")
	for i, name := range dm.InputNames() {
		fmt.Printf("  %d: %s\n", i, name)
	}
	fmt.Println("\n=== MIDI Output Ports ===")
	for i, name := range dm.OutputNames() {
		fmt.Printf("  %d: %s\n", i, name)
	}
}

func monitor(dm *midi.DeviceManager, name string) error {
	in, err := dm.OpenInput(name)
	if err != nil {
		return err
	}
	defer in.Close()

	clocks := 0
	start := time.Now()
	stop, err := in.Listen(func(e midi.Event) {
		if e.IsClock() {
			clocks++
			// one line per quarter note
			if clocks%24 == 0 {
				bpm := float64(clocks) / 24 / time.Since(start).Minutes()
				fmt.Printf("clock %6d  ~%.1f bpm\n", clocks, bpm)
			}
			return
		}
		fmt.Printf("[%s] ch%-2d %s\n", time.Now().Format("15:04:05.000"), e.Channel+1, e)
	})
	if err != nil {
		return err
	}
	defer stop()

	fmt.Printf("Listening on %s (ctrl+c to stop)\n", name)
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig
	return nil
}

func ping(dm *midi.DeviceManager, name string) error {
	out, err := dm.OpenOutput(name)
	if err != nil {
		return err
	}
	defer out.Close()

	for _, note := range []uint8{60, 64, 67, 72} {
		if err := out.Send(midi.NewNoteOn(note, 100)); err != nil {
			return err
		}
		time.Sleep(150 * time.Millisecond)
		if err := out.Send(midi.NewNoteOff(note)); err != nil {
			return err
		}
	}
	return nil
}

func pollDevices(dm *midi.DeviceManager) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	go dm.Run(ctx)

	fmt.Println("Watching for port changes (ctrl+c to stop)")
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-dm.Events():
			kind := "output"
			if ev.Input {
				kind = "input"
			}
			change := "connected"
			if ev.Type == midi.DeviceDisconnected {
				change = "disconnected"
			}
			fmt.Printf("[%s] %s %s: %s\n", time.Now().Format("15:04:05"), kind, change, ev.Name)
		}
	}
}
