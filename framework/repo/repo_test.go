package repo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/openebs/upgrade-tests-mayastor/test/framework/cli"
)

func TestRootDir(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "tests", "upgrade")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := RootDir(nested)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != root {
		t.Errorf("expected root %q, got %q", root, got)
	}
}

func TestRootDir_NotFound(t *testing.T) {
	_, err := RootDir(t.TempDir())
	if !errors.Is(err, ErrRootNotFound) {
		t.Fatalf("expected ErrRootNotFound, got %v", err)
	}
}

func TestLatestTag(t *testing.T) {
	fake := cli.NewFake()
	fake.Respond("git tag --sort=creatordate", cli.Response{
		Stdout: []byte("v2.5.0\nv2.6.0\nv2.7.0\n"),
	})

	tag, err := LatestTag(context.Background(), fake, "/src/extensions")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if tag != "v2.7.0" {
		t.Errorf("expected v2.7.0, got %q", tag)
	}

	calls := fake.Calls()
	if calls[0].Dir != "/src/extensions" {
		t.Errorf("expected working directory to be the source tree, got %q", calls[0].Dir)
	}
}

func TestLatestTag_NoTags(t *testing.T) {
	fake := cli.NewFake()

	if _, err := LatestTag(context.Background(), fake, "/src/extensions"); err == nil {
		t.Fatal("expected error, got nil")
	}
}
