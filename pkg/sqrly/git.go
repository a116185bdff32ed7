package sqrly

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// VersionControl answers the repository questions change detection needs.
// Paths returned by Diff and Untracked are relative to the repository root.
type VersionControl interface {
	// Root returns the absolute top-level directory of the repository containing dir.
	Root(ctx context.Context, dir string) (string, error)
	// Diff lists files whose working tree content differs from baseline.
	Diff(ctx context.Context, root, baseline string) ([]string, error)
	// Untracked lists files present in the working tree but not tracked.
	Untracked(ctx context.Context, root string) ([]string, error)
}

// Compile-time interface conformance check.
var _ VersionControl = (*Git)(nil)

// Git implements VersionControl. Repository discovery and the untracked
// listing read the repository with go-git; Diff runs the git executable,
// since go-git cannot compare the working tree against an arbitrary revision.
type Git struct {
	// Bin is the git executable. Defaults to "git".
	Bin string
}

// GitError is returned when a git invocation fails.
type GitError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *GitError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("git %s: %v", strings.Join(e.Args, " "), e.Err)
	}
	return fmt.Sprintf("git %s: %v: %s", strings.Join(e.Args, " "), e.Err, msg)
}

func (e *GitError) Unwrap() error {
	return e.Err
}

func (g *Git) bin() string {
	if g == nil || g.Bin == "" {
		return "git"
	}
	return g.Bin
}

func (g *Git) run(ctx context.Context, dir string, args ...string) (string, error) {
	full := append([]string{"-C", dir}, args...)
	cmd := exec.CommandContext(ctx, g.bin(), full...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", &GitError{Args: args, Stderr: stderr.String(), Err: err}
	}
	return stdout.String(), nil
}

// Root finds the repository containing dir, walking up to the nearest .git.
func (g *Git) Root(ctx context.Context, dir string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	wt, err := openWorktree(dir)
	if err != nil {
		return "", err
	}
	root, err := filepath.EvalSymlinks(wt.Filesystem.Root())
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", wt.Filesystem.Root(), err)
	}
	return root, nil
}

// Diff runs `git diff --name-only` against baseline. Deleted files are
// listed too; callers filter them by checking the disk.
func (g *Git) Diff(ctx context.Context, root, baseline string) ([]string, error) {
	out, err := g.run(ctx, root, "diff", "--name-only", "-z", "--end-of-options", baseline, "--")
	if err != nil {
		return nil, err
	}
	return splitNul(out), nil
}

// Untracked lists untracked files that are not ignored by .gitignore files,
// .git/info/exclude or the user's core.excludesFile.
func (g *Git) Untracked(ctx context.Context, root string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	wt, err := openWorktree(root)
	if err != nil {
		return nil, err
	}
	global, err := gitignore.LoadGlobalPatterns(osfs.New("/"))
	if err != nil {
		return nil, fmt.Errorf("failed to load global excludes: %w", err)
	}
	wt.Excludes = append(wt.Excludes, global...)

	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to read status of %s: %w", root, err)
	}
	var paths []string
	for path, st := range status {
		if st.Worktree == gogit.Untracked {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func openWorktree(dir string) (*gogit.Worktree, error) {
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", dir, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to open worktree at %s: %w", dir, err)
	}
	return wt, nil
}

func splitNul(s string) []string {
	var paths []string
	for _, p := range strings.Split(s, "\x00") {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}
