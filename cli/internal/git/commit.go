// Package git (commit.go) executes the final git commit, passing the exit
// code through so git-commitai behaves like git commit for hooks and errors.
package git

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
)

// ExitError carries a git exit code that the CLI should exit with verbatim
// (e.g. a failing pre-commit hook).
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("git exited with code %d", e.Code)
}

// CommitOptions selects the flags passed to git commit.
type CommitOptions struct {
	Amend      bool
	NoVerify   bool
	AllowEmpty bool
	Verbose    bool
	Author     string
	Date       string
}

func (o CommitOptions) args() []string {
	var args []string
	if o.Amend {
		args = append(args, "--amend")
	}
	if o.NoVerify {
		args = append(args, "--no-verify")
	}
	if o.AllowEmpty {
		args = append(args, "--allow-empty")
	}
	if o.Author != "" {
		args = append(args, "--author", o.Author)
	}
	if o.Date != "" {
		args = append(args, "--date", o.Date)
	}
	return args
}

// Commit runs git commit with the message file at msgFile. Git's output goes
// to stdout/stderr. A non-zero git exit returns *ExitError with that code.
func Commit(dir, msgFile string, opts CommitOptions, stdout, stderr io.Writer) error {
	args := append([]string{"commit"}, opts.args()...)
	args = append(args, "-F", msgFile)
	return runCommit(dir, args, stdout, stderr)
}

// CommitDryRun runs git commit --dry-run with the given options, letting git
// produce all output. hasMessage adds a placeholder -m so git does not
// complain about a missing message.
func CommitDryRun(dir string, opts CommitOptions, hasMessage bool, stdout, stderr io.Writer) error {
	args := append([]string{"commit", "--dry-run"}, opts.args()...)
	if opts.Verbose {
		args = append(args, "--verbose")
	}
	if hasMessage {
		args = append(args, "-m", "placeholder")
	}
	return runCommit(dir, args, stdout, stderr)
}

func runCommit(dir string, args []string, stdout, stderr io.Writer) error {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = minimalEnv()
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Code: exitErr.ExitCode()}
		}
		return fmt.Errorf("git commit: %w", err)
	}
	return nil
}
