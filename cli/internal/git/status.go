// Package git (status.go) provides staging checks and git-like status output.
package git

import (
	"fmt"
	"io"
	"os/exec"
	"sort"
	"strings"
)

// HasStagedChanges reports whether the index differs from HEAD.
// Runs "git diff --cached --quiet"; exit code 1 means there are staged changes.
func HasStagedChanges(dir string) (bool, error) {
	return quietDiff(dir, "diff", "--cached", "--quiet")
}

// HasUnstagedChanges reports whether tracked files have unstaged modifications.
func HasUnstagedChanges(dir string) (bool, error) {
	return quietDiff(dir, "diff", "--quiet")
}

func quietDiff(dir string, args ...string) (bool, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = minimalEnv()
	err := cmd.Run()
	if err == nil {
		return false, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
		return true, nil
	}
	return false, fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
}

// StageTracked stages all tracked, modified files (git add -u). Untracked
// files are not added.
func StageTracked(dir string) error {
	cmd := exec.Command("git", "add", "-u")
	cmd.Dir = dir
	cmd.Env = minimalEnv()
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git add -u: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// NameStatus returns the staged changes as "STATUS\tfile" lines.
func NameStatus(dir string) []string {
	return statusLines(outputOK(dir, "diff", "--cached", "--name-status"))
}

// AmendNameStatus returns the files of the HEAD commit as "STATUS\tfile" lines.
func AmendNameStatus(dir string) []string {
	return statusLines(outputOK(dir, "diff-tree", "--no-commit-id", "--name-status", "-r", "HEAD"))
}

func statusLines(out string) []string {
	if out == "" {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// ShowStatus writes output similar to what "git commit" prints when nothing
// is staged: branch, unstaged changes, untracked files, and the closing hint.
func ShowStatus(dir string, w io.Writer) {
	branch, err := output(dir, "branch", "--show-current")
	if err != nil {
		fmt.Fprintln(w, "On branch master")
	} else if b := strings.TrimSpace(branch); b == "" {
		fmt.Fprintf(w, "HEAD detached at %s\n", outputOK(dir, "rev-parse", "--short", "HEAD"))
	} else {
		fmt.Fprintf(w, "On branch %s\n", b)
	}

	if !HasCommit(dir) {
		fmt.Fprintln(w, "\nInitial commit")
		fmt.Fprintln(w)
	}

	porcelain, err := output(dir, "status", "--porcelain")
	if err != nil {
		fmt.Fprintln(w, "No changes staged for commit")
		return
	}

	var untracked, modified, deleted []string
	for _, line := range strings.Split(strings.TrimRight(porcelain, "\n"), "\n") {
		if len(line) < 3 {
			continue
		}
		staged, working, name := line[0], line[1], line[3:]
		if name == "" {
			continue
		}
		switch {
		case staged == '?' && working == '?':
			untracked = append(untracked, name)
		case working == 'M':
			modified = append(modified, name)
		case working == 'D':
			deleted = append(deleted, name)
		}
	}
	sort.Strings(untracked)
	sort.Strings(modified)
	sort.Strings(deleted)

	changesShown := false
	if len(modified) > 0 || len(deleted) > 0 {
		fmt.Fprintln(w, "Changes not staged for commit:")
		fmt.Fprintln(w, `  (use "git add <file>..." to update what will be committed)`)
		fmt.Fprintln(w, `  (use "git restore <file>..." to discard changes in working directory)`)
		for _, f := range modified {
			fmt.Fprintf(w, "\tmodified:   %s\n", f)
		}
		for _, f := range deleted {
			fmt.Fprintf(w, "\tdeleted:    %s\n", f)
		}
		changesShown = true
	}
	if len(untracked) > 0 {
		if changesShown {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, "Untracked files:")
		fmt.Fprintln(w, `  (use "git add <file>..." to include in what will be committed)`)
		for _, f := range untracked {
			fmt.Fprintf(w, "\t%s\n", f)
		}
		changesShown = true
	}

	if !changesShown {
		fmt.Fprintln(w, "nothing to commit, working tree clean")
		return
	}
	fmt.Fprintln(w)
	if len(untracked) > 0 && len(modified) == 0 && len(deleted) == 0 {
		fmt.Fprintln(w, `nothing added to commit but untracked files present (use "git add" to track)`)
	} else {
		fmt.Fprintln(w, `no changes added to commit (use "git add" and/or "git commit -a")`)
	}
}
