// Package git (editor.go) resolves and launches the user's commit editor.
package git

import (
	"os"
	"os/exec"

	"github.com/mattn/go-shellwords"

	"git-commitai/cli/internal/erruser"
)

// Editor returns the editor command, checking GIT_EDITOR, EDITOR, the
// core.editor git config, then falling back to vi. The returned string may
// contain arguments (e.g. "code --wait").
func Editor(dir string) string {
	if editor := os.Getenv("GIT_EDITOR"); editor != "" {
		return editor
	}
	if editor := os.Getenv("EDITOR"); editor != "" {
		return editor
	}
	if editor := ConfigGet(dir, "core.editor"); editor != "" {
		return editor
	}
	return "vi"
}

// OpenEditor opens path in the given editor command and waits for it to
// close. The editor runs attached to the terminal with the full environment.
func OpenEditor(path, editor string) error {
	args, err := shellwords.Parse(editor)
	if err != nil || len(args) == 0 {
		return erruser.New("Failed to open editor: "+editor, err)
	}
	cmd := exec.Command(args[0], append(args[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		// A non-zero editor exit is not fatal; the saved-file check decides.
		if _, ok := err.(*exec.ExitError); ok {
			return nil
		}
		return erruser.New("Failed to open editor: "+editor, err)
	}
	return nil
}
