package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bft-labs/cfghist/internal/cliconfig"
)

// run executes the CLI against dir with no user config file.
func run(t *testing.T, dir, stdin string, args ...string) (string, error) {
	t.Helper()
	a := &app{cfg: cliconfig.DefaultConfig(), log: cliconfig.Logger("error")}
	root := newRootCmd(a)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	base := []string{
		"--config", filepath.Join(dir, "absent.toml"),
		"--config-dir", dir,
		"--log-level", "error",
	}
	root.SetArgs(append(base, args...))
	err := root.Execute()
	a.writeMetrics()
	return out.String(), err
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(b)
}

func TestCLI_StoreAndReset(t *testing.T) {
	dir := t.TempDir()
	mainFile := filepath.Join(dir, "standard.xml")
	if err := os.WriteFile(mainFile, []byte("std"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, dir, "", "boot")
	if err != nil {
		t.Fatalf("boot: %v", err)
	}
	if !strings.Contains(out, "boot file: "+mainFile) {
		t.Errorf("boot output = %q", out)
	}

	if _, err := run(t, dir, "One", "store", "-"); err != nil {
		t.Fatalf("store: %v", err)
	}
	input := filepath.Join(t.TempDir(), "two.xml")
	if err := os.WriteFile(input, []byte("Two"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, dir, "", "store", input); err != nil {
		t.Fatalf("store file: %v", err)
	}
	if got := readFile(t, mainFile); got != "Two" {
		t.Errorf("main = %q, want Two", got)
	}

	out, err = run(t, dir, "", "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "versions (2):") {
		t.Errorf("history output = %q", out)
	}

	if _, err := run(t, dir, "", "reset", "--name", "v2"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if got := readFile(t, mainFile); got != "One" {
		t.Errorf("main after reset = %q, want One", got)
	}

	if _, err := run(t, dir, "", "reset"); err == nil {
		t.Error("reset without a source should fail")
	}
}

func TestCLI_ReadOnlyStore(t *testing.T) {
	dir := t.TempDir()
	mainFile := filepath.Join(dir, "standard.xml")
	if err := os.WriteFile(mainFile, []byte("std"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := run(t, dir, "One", "--read-only", "store"); err != nil {
		t.Fatalf("store: %v", err)
	}
	if got := readFile(t, mainFile); got != "std" {
		t.Errorf("main = %q, want std", got)
	}
	last := filepath.Join(dir, "standard_xml_history", "standard.last.xml")
	if got := readFile(t, last); got != "One" {
		t.Errorf("last = %q, want One", got)
	}
}

func TestCLI_Snapshots(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "standard.xml"), []byte("std"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := run(t, dir, "", "snapshot", "take", "release"); err != nil {
		t.Fatalf("take: %v", err)
	}
	out, err := run(t, dir, "", "snapshot", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if strings.TrimSpace(out) != "release.xml" {
		t.Errorf("list output = %q", out)
	}

	out, err = run(t, dir, "", "--server-config", "rel", "boot")
	if err != nil {
		t.Fatalf("boot from snapshot: %v", err)
	}
	if !strings.Contains(out, "(snapshot)") {
		t.Errorf("boot output = %q", out)
	}

	if _, err := run(t, dir, "", "snapshot", "delete", "all"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := run(t, dir, "", "snapshot", "delete", "all"); err == nil {
		t.Error("deleting from an empty snapshot dir should fail")
	}
}

func TestCLI_BadServerConfig(t *testing.T) {
	dir := t.TempDir()
	if _, err := run(t, dir, "", "--server-config", "crap.xml", "boot"); err == nil {
		t.Error("boot with an unknown file should fail")
	}
}

func TestCLI_MetricsFile(t *testing.T) {
	dir := t.TempDir()
	metricsFile := filepath.Join(t.TempDir(), "cfghist.prom")

	if _, err := run(t, dir, "One", "--metrics-file", metricsFile, "store"); err != nil {
		t.Fatalf("store: %v", err)
	}
	if got := readFile(t, metricsFile); !strings.Contains(got, `cfghist_store_total{status="ok"} 1`) {
		t.Errorf("metrics file = %q", got)
	}
}
