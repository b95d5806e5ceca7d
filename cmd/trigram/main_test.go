package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunSeededFromStdin(t *testing.T) {
	code, out, errOut := runCLI(t, "I wish I may I wish I might", "-seed", "2")
	if code != exitOK {
		t.Fatalf("exit code = %d, stderr: %s", code, errOut)
	}
	if want := "I may I wish I may I wish I might\n"; out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestRunFilesInOrder(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.txt")
	second := filepath.Join(dir, "b.txt")
	if err := os.WriteFile(first, []byte("I wish I may I wish I might"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(second, []byte("I wish I could"), 0o644); err != nil {
		t.Fatal(err)
	}

	code, out, errOut := runCLI(t, "", "-seed", "2", first, second)
	if code != exitOK {
		t.Fatalf("exit code = %d, stderr: %s", code, errOut)
	}
	if want := "I may I wish I may I wish I might\n"; out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestRunMaxTokens(t *testing.T) {
	code, out, _ := runCLI(t, "I wish I may I wish I might", "-seed", "0", "-max-tokens", "3")
	if code != exitOK {
		t.Fatalf("exit code = %d", code)
	}
	if want := "I wish I\n"; out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestRunTransitions(t *testing.T) {
	code, out, _ := runCLI(t, "I wish I may I wish I might", "-transitions", "-limit", "2")
	if code != exitOK {
		t.Fatalf("exit code = %d", code)
	}
	want := "I wish -> I, I\nwish I -> may, might\nShowing 2 of 4 transition pairs.\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}

	_, out, _ = runCLI(t, "one two", "-transitions")
	if want := "No transition pairs available.\n"; out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestRunExamples(t *testing.T) {
	code, out, errOut := runCLI(t, "", "-example", "0", "-example", "1", "-seed", "5")
	if code != exitOK {
		t.Fatalf("exit code = %d, stderr: %s", code, errOut)
	}
	if strings.TrimSpace(out) == "" {
		t.Error("expected generated text from example sources")
	}

	code, _, _ = runCLI(t, "", "-example", "7")
	if code != exitUsage {
		t.Errorf("exit code for unknown example = %d, want %d", code, exitUsage)
	}
}

func TestRunUsageErrors(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
	}{
		{"fractional seed", "a b c", []string{"-seed", "1.5"}},
		{"zero max tokens", "a b c", []string{"-max-tokens", "0"}},
		{"text max tokens", "a b c", []string{"-max-tokens", "many"}},
		{"negative limit", "a b c", []string{"-limit", "-1"}},
		{"unknown flag", "a b c", []string{"-nope"}},
		{"empty input", "  \n ", nil},
		{"stdin twice", "a b c", []string{"-", "-"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := runCLI(t, tt.stdin, tt.args...)
			if code != exitUsage {
				t.Errorf("exit code = %d, want %d", code, exitUsage)
			}
		})
	}
}

func TestRunMissingFile(t *testing.T) {
	code, _, errOut := runCLI(t, "", filepath.Join(t.TempDir(), "missing.txt"))
	if code != exitError {
		t.Errorf("exit code = %d, want %d", code, exitError)
	}
	if !strings.Contains(errOut, "could not read source") {
		t.Errorf("stderr = %q, want read error", errOut)
	}
}

func TestRunVersion(t *testing.T) {
	code, out, _ := runCLI(t, "", "-version")
	if code != exitOK {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.HasPrefix(out, "trigram dev") {
		t.Errorf("output = %q", out)
	}
}

func TestExampleListFlag(t *testing.T) {
	var l exampleList
	if err := l.Set("2"); err != nil {
		t.Fatal(err)
	}
	if err := l.Set("0"); err != nil {
		t.Fatal(err)
	}
	if err := l.Set("x"); err == nil {
		t.Error("expected error for non-integer index")
	}
	if got := l.String(); got != "2,0" {
		t.Errorf("String() = %q, want %q", got, "2,0")
	}
}
