package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"go-morp/debug"
)

func TestRunErrorClosesDebugLog(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	args := os.Args
	t.Cleanup(func() {
		os.Args = args
		flag.CommandLine = flag.NewFlagSet(args[0], flag.ExitOnError)
	})
	flag.CommandLine = flag.NewFlagSet("go-morp", flag.ContinueOnError)
	os.Args = []string{"go-morp", "--debug", "--config", filepath.Join(home, "missing.yaml")}

	if err := run(); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
	if debug.Enabled() {
		t.Fatal("debug log left open after run returned")
	}
	if _, err := os.Stat(debug.DefaultPath()); err != nil {
		t.Fatalf("debug log not written: %v", err)
	}
}
