// Package repo locates the product source tree used for local chart
// installs and queries its git metadata.
package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/openebs/upgrade-tests-mayastor/test/framework/cli"
)

// ErrRootNotFound indicates no enclosing git work tree was found.
var ErrRootNotFound = errors.New("source tree root not found")

// RootDir walks up from start until it finds a directory containing a .git
// entry and returns it.
func RootDir(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: starting from %s", ErrRootNotFound, start)
		}
		dir = parent
	}
}

// Root locates the source tree root enclosing the current working
// directory.
func Root() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return RootDir(wd)
}

// LatestTag returns the most recently created tag of the work tree at dir,
// which names the version a local chart install produces.
func LatestTag(ctx context.Context, runner cli.Runner, dir string) (string, error) {
	res, err := runner.Run(ctx, cli.Command{
		Name: "git",
		Args: []string{"tag", "--sort=creatordate"},
		Dir:  dir,
	})
	if err != nil {
		return "", fmt.Errorf("failed to list git tags: %w", err)
	}

	tags := strings.Fields(strings.TrimSpace(string(res.Stdout)))
	if len(tags) == 0 {
		return "", fmt.Errorf("no tags found in %s", dir)
	}
	return tags[len(tags)-1], nil
}
