package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	if versionCmd == nil {
		t.Fatal("versionCmd is nil")
	}

	if versionCmd.Use != "version" {
		t.Errorf("Unexpected Use: %s", versionCmd.Use)
	}

	if versionCmd.Short != "Print version information" {
		t.Errorf("Unexpected Short: %s", versionCmd.Short)
	}
}

func TestVersionOutput(t *testing.T) {
	var buf bytes.Buffer
	originalStdout := versionCmd.OutOrStdout()
	versionCmd.SetOut(&buf)
	defer versionCmd.SetOut(originalStdout)

	if err := versionCmd.RunE(versionCmd, nil); err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "revload version") {
		t.Errorf("version output missing header: %q", out)
	}
	if !strings.Contains(out, "commit:") {
		t.Errorf("version output missing commit line: %q", out)
	}
}

func TestRootCommandSubcommands(t *testing.T) {
	expected := []string{"load", "schema", "verify", "health", "credentials", "version"}

	names := map[string]bool{}
	for _, sub := range rootCmd.Commands() {
		names[strings.Fields(sub.Use)[0]] = true
	}

	for _, name := range expected {
		if !names[name] {
			t.Errorf("root command missing %q subcommand", name)
		}
	}
}
