// Package commitfile implements the COMMIT_EDITMSG protocol: composing the
// generated message plus git-style comments into the pending-commit file,
// stripping comments after the user's editor closes, and detecting an
// effectively empty message.
//
// A line is a comment iff its first non-whitespace character is '#'. A '#'
// later in a line (e.g. "Fix issue #123") never makes it a comment.
package commitfile

import (
	"os"
	"path/filepath"
	"strings"

	"git-commitai/cli/internal/erruser"
)

// Filename is the conventional pending-commit-message file inside the git dir.
const Filename = "COMMIT_EDITMSG"

// Warning-block markers emitted by the model per the prompt's issue-detection
// instructions. Any '#' line following one of these, while the block is still
// open, belongs to the block too.
const (
	warnMarker    = "# ⚠️  WARNING:"
	warnFoundIn   = "# Found in:"
	warnDetails   = "# Details:"
)

// Context carries the pre-computed repository state written into the comment
// region. Status and diff text are opaque strings the orchestrator already
// formatted; this package only prefixes them.
type Context struct {
	Branch     string
	Amend      bool
	AutoStaged bool
	NoVerify   bool
	AllowEmpty bool
	Author     string
	Date       string

	// StatusLines are "X\tpath" name-status lines for a normal commit.
	StatusLines []string
	// AmendStatusLines are the previous commit's name-status lines (amend only).
	AmendStatusLines []string
	// ExtraStagedLines are newly staged name-status lines on top of an amend.
	ExtraStagedLines []string

	// Verbose embeds the full diff below a scissors line.
	Verbose bool
	Diff    string
}

// Path returns the commit message file path inside gitDir.
func Path(gitDir string) string {
	return filepath.Join(gitDir, Filename)
}

// splitWarnings separates a generated message into body lines and a trailing
// warning block. The classifier has two states: in the body, a line enters
// the warning block only via one of the literal markers; inside the block,
// any further '#' line stays in the block and blank lines are kept as
// separators. Any other line closes the block and returns to the body.
func splitWarnings(message string) (body, warnings []string) {
	inWarnings := false
	for _, line := range strings.Split(message, "\n") {
		switch {
		case strings.HasPrefix(line, warnMarker),
			strings.HasPrefix(line, warnFoundIn),
			strings.HasPrefix(line, warnDetails),
			inWarnings && strings.HasPrefix(line, "#"):
			warnings = append(warnings, line)
			inWarnings = true
		case strings.TrimSpace(line) == "" && inWarnings:
			warnings = append(warnings, line)
		case strings.TrimSpace(line) == "":
			body = append(body, line)
			inWarnings = false
		default:
			inWarnings = false
			body = append(body, line)
		}
	}
	return body, warnings
}

// Compose renders the full commit message file contents: the clean message
// body, a blank separator, any model-emitted warning comments, git's standard
// instructional comments, one comment per active flag, the branch line, the
// changed-files summary, and (when ctx.Verbose) the diff below a scissors
// line. Every comment-region line starts with '#'.
func Compose(message string, ctx Context) string {
	body, warnings := splitWarnings(message)
	clean := strings.TrimRight(strings.Join(body, "\n"), " \t\r\n")

	var b strings.Builder
	b.WriteString(clean)
	b.WriteString("\n\n")

	if len(warnings) > 0 {
		for i, line := range warnings {
			if strings.TrimSpace(line) != "" {
				b.WriteString(line)
				b.WriteString("\n")
			} else if i < len(warnings)-1 {
				b.WriteString("#\n")
			}
		}
		b.WriteString("#\n")
	}

	b.WriteString("# Please enter the commit message for your changes. Lines starting\n")
	b.WriteString("# with '#' will be ignored, and an empty message aborts the commit.\n")
	b.WriteString("#\n")
	if ctx.Amend {
		b.WriteString("# You are amending the previous commit.\n#\n")
	}
	if ctx.AutoStaged {
		b.WriteString("# Files were automatically staged using -a flag.\n#\n")
	}
	if ctx.NoVerify {
		b.WriteString("# Git hooks will be skipped (--no-verify).\n#\n")
	}
	if ctx.AllowEmpty {
		b.WriteString("# This will be an empty commit (--allow-empty).\n#\n")
	}
	if ctx.Author != "" {
		b.WriteString("# Using custom author: " + ctx.Author + "\n#\n")
	}
	if ctx.Date != "" {
		b.WriteString("# Using custom date: " + ctx.Date + "\n#\n")
	}
	b.WriteString("# On branch " + ctx.Branch + "\n#\n")

	switch {
	case ctx.Amend:
		b.WriteString("# Changes to be committed (including previous commit):\n")
		for _, line := range ctx.AmendStatusLines {
			if line != "" {
				b.WriteString("# " + line + "\n")
			}
		}
		if len(ctx.ExtraStagedLines) > 0 {
			b.WriteString("# \n# Additional staged changes:\n")
			for _, line := range ctx.ExtraStagedLines {
				if line != "" {
					b.WriteString("# " + line + "\n")
				}
			}
		}
	case ctx.AllowEmpty:
		b.WriteString("# No changes to be committed (empty commit)\n")
	default:
		b.WriteString("# Changes to be committed:\n")
		for _, line := range ctx.StatusLines {
			if line != "" {
				b.WriteString("# " + line + "\n")
			}
		}
	}
	b.WriteString("#\n")

	if ctx.Verbose {
		b.WriteString("# ------------------------ >8 ------------------------\n")
		b.WriteString("# Do not modify or remove the line above.\n")
		b.WriteString("# Everything below it will be ignored.\n")
		b.WriteString("#\n")
		b.WriteString("# Diff of changes to be committed:\n")
		b.WriteString("#\n")
		if ctx.Diff != "" {
			for _, line := range strings.Split(ctx.Diff, "\n") {
				b.WriteString("# " + line + "\n")
			}
		} else if ctx.AllowEmpty {
			b.WriteString("# No changes (empty commit)\n")
		}
	}
	return b.String()
}

// Create writes the composed file to path. The file is created fresh for
// every commit attempt, replacing any previous contents.
func Create(path, message string, ctx Context) error {
	if err := os.WriteFile(path, []byte(Compose(message, ctx)), 0o644); err != nil {
		return erruser.New("Could not write commit message file.", err)
	}
	return nil
}

// Strip removes every comment line from the file at path and writes the
// cleaned message back in place. Kept lines are preserved verbatim; the
// result is right-trimmed and, when non-empty, ends with exactly one
// newline. Stripping an already-stripped file is a no-op beyond that
// whitespace normalization.
func Strip(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return erruser.New("Could not read commit message file.", err)
	}
	lines := strings.Split(string(data), "\n")
	var kept []string
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		kept = append(kept, line)
	}
	content := strings.TrimRight(strings.Join(kept, "\n"), " \t\r\n")
	if content != "" {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return erruser.New("Could not write commit message file.", err)
	}
	return nil
}

// IsEmpty reports whether the file at path reduces to nothing: every line is
// blank or a comment. A read failure also reports empty — failing toward an
// aborted commit rather than committing garbage.
func IsEmpty(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return true
	}
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, "#") {
			return false
		}
	}
	return true
}
