package cli

import (
	"bytes"
	"strings"
	"testing"
)

// executeCommand runs a command with the given args and captures output.
func executeCommand(args ...string) (string, error) {
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestRootHelp(t *testing.T) {
	out, err := executeCommand("--help")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, sub := range []string{"serve", "migrate", "seed", "catalog", "version"} {
		if !strings.Contains(out, sub) {
			t.Errorf("help missing %q", sub)
		}
	}
}

func TestGlobalFlags(t *testing.T) {
	root := NewRootCmd()

	formatFlag := root.PersistentFlags().Lookup("format")
	if formatFlag == nil {
		t.Fatal("expected --format flag to exist")
	}
	if formatFlag.DefValue != "text" {
		t.Errorf("expected --format default 'text', got %q", formatFlag.DefValue)
	}

	if root.PersistentFlags().Lookup("db") == nil {
		t.Fatal("expected --db flag to exist")
	}
}

func TestDBPath(t *testing.T) {
	flagDB = ""
	t.Cleanup(func() { flagDB = "" })

	t.Setenv("BR_DB", "")
	if got := dbPath(); got != "./data/bienesraices.db" {
		t.Errorf("default = %q", got)
	}

	t.Setenv("BR_DB", "/tmp/env.db")
	if got := dbPath(); got != "/tmp/env.db" {
		t.Errorf("env = %q", got)
	}

	flagDB = "/tmp/flag.db"
	if got := dbPath(); got != "/tmp/flag.db" {
		t.Errorf("flag = %q", got)
	}
}

func TestVersion(t *testing.T) {
	out, err := executeCommand("version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if strings.TrimSpace(out) != Version {
		t.Errorf("output = %q, want %q", out, Version)
	}
}
