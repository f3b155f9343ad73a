package cli

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestExecRunner_CapturesStdout(t *testing.T) {
	res, err := ExecRunner{}.Run(context.Background(), Command{
		Name: "/bin/sh",
		Args: []string{"-c", "echo hello"},
	})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := strings.TrimSpace(string(res.Stdout)); got != "hello" {
		t.Errorf("expected stdout %q, got %q", "hello", got)
	}
}

func TestExecRunner_NonZeroExit(t *testing.T) {
	res, err := ExecRunner{}.Run(context.Background(), Command{
		Name: "/bin/sh",
		Args: []string{"-c", "echo oops >&2; exit 3"},
	})

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *ExitError, got %v", err)
	}
	if exitErr.Code != 3 {
		t.Errorf("expected exit code 3, got %d", exitErr.Code)
	}
	if exitErr.Stderr != "oops" {
		t.Errorf("expected stderr %q, got %q", "oops", exitErr.Stderr)
	}
	if got := strings.TrimSpace(string(res.Stderr)); got != "oops" {
		t.Errorf("expected captured stderr %q, got %q", "oops", got)
	}
}

func TestExecRunner_MissingBinary(t *testing.T) {
	_, err := ExecRunner{}.Run(context.Background(), Command{Name: "definitely-not-a-binary-xyz"})

	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		t.Errorf("expected spawn failure, got *ExitError %v", exitErr)
	}
}

func TestExecRunner_ExtendsEnvironment(t *testing.T) {
	res, err := ExecRunner{}.Run(context.Background(), Command{
		Name: "/bin/sh",
		Args: []string{"-c", "echo $UPGRADE_TEST_VAR:$PATH"},
		Env:  []string{"UPGRADE_TEST_VAR=set"},
	})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	out := strings.TrimSpace(string(res.Stdout))
	if !strings.HasPrefix(out, "set:") {
		t.Errorf("expected custom variable in environment, got %q", out)
	}
	if out == "set:" {
		t.Error("expected inherited PATH to survive, got empty")
	}
}

func TestFake_RecordsAndMatchesLongestPrefix(t *testing.T) {
	fake := NewFake()
	fake.Respond("helm ls", Response{Stdout: []byte("short\n")})
	fake.Respond("helm ls -n mayastor", Response{Stdout: []byte("long\n")})

	res, err := fake.Run(context.Background(), Command{
		Name: "helm",
		Args: []string{"ls", "-n", "mayastor", "--short"},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if string(res.Stdout) != "long\n" {
		t.Errorf("expected longest prefix match, got %q", res.Stdout)
	}

	lines := fake.CallLines()
	if len(lines) != 1 || lines[0] != "helm ls -n mayastor --short" {
		t.Errorf("unexpected recorded calls: %v", lines)
	}
}

func TestCommand_String(t *testing.T) {
	cmd := Command{Name: "helm", Args: []string{"repo", "ls", "-o", "json"}}
	if cmd.String() != "helm repo ls -o json" {
		t.Errorf("unexpected command line %q", cmd.String())
	}

	bare := Command{Name: "helm"}
	if bare.String() != "helm" {
		t.Errorf("unexpected command line %q", bare.String())
	}
}
