// Package git (repo.go) provides repository discovery and ref helpers.
package git

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrNotARepository indicates the working directory is not inside a git
// repository. Mapped to git's exit code 128 by the CLI.
var ErrNotARepository = errors.New("not a git repository (or any of the parent directories): .git")

// output runs a git command with Dir=dir and returns its stdout.
func output(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = minimalEnv()
	out, err := cmd.Output()
	return string(out), err
}

// outputOK runs a git command and returns trimmed stdout, or "" on any failure.
func outputOK(dir string, args ...string) string {
	out, err := output(dir, args...)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

// GitDir returns the absolute path of the .git directory for the repository
// containing dir. Returns ErrNotARepository if dir is not inside one.
func GitDir(dir string) (string, error) {
	out, err := output(dir, "rev-parse", "--git-dir")
	if err != nil {
		return "", ErrNotARepository
	}
	gitDir := strings.TrimSpace(out)
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(dir, gitDir)
	}
	return filepath.Abs(gitDir)
}

// Root returns the absolute path of the git repository root containing dir.
// Runs "git rev-parse --show-toplevel" with Dir=dir.
func Root(dir string) (string, error) {
	out, err := output(dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", ErrNotARepository
	}
	return filepath.Abs(strings.TrimSpace(out))
}

// CurrentBranch returns the current branch name, the short SHA when HEAD is
// detached, or "unknown" when neither can be determined.
func CurrentBranch(dir string) string {
	branch, err := output(dir, "branch", "--show-current")
	if err != nil {
		return "unknown"
	}
	if b := strings.TrimSpace(branch); b != "" {
		return b
	}
	if sha := outputOK(dir, "rev-parse", "--short", "HEAD"); sha != "" {
		return sha
	}
	return "unknown"
}

// HasCommit reports whether the repository has at least one commit.
func HasCommit(dir string) bool {
	_, err := output(dir, "rev-parse", "HEAD")
	return err == nil
}

// ConfigGet returns the value of a git config key, or "" if unset.
func ConfigGet(dir, key string) string {
	return outputOK(dir, "config", "--get", key)
}

func minimalEnv() []string {
	env := []string{
		"PATH=" + os.Getenv("PATH"),
		"GIT_TERMINAL_PROMPT=0",
		"GIT_PAGER=cat", // prevent pager; subprocess output is captured
	}
	if home := os.Getenv("HOME"); home != "" {
		env = append(env, "HOME="+home)
	} else if runtime.GOOS == "windows" {
		if profile := os.Getenv("USERPROFILE"); profile != "" {
			env = append(env, "HOME="+profile)
		}
	}
	return env
}

// MinimalEnv returns the environment used for git subprocesses. Exported for tests
// so callers can assert HOME is included when set (e.g. to avoid "Author identity unknown").
func MinimalEnv() []string {
	return minimalEnv()
}
