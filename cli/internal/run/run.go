// Package run implements the commit flow: staging checks, prompt assembly,
// the model request, the editor round-trip over COMMIT_EDITMSG, and finally
// git commit. Used by the CLI and by tests.
package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"git-commitai/cli/internal/commitfile"
	"git-commitai/cli/internal/config"
	"git-commitai/cli/internal/erruser"
	"git-commitai/cli/internal/git"
	"git-commitai/cli/internal/prompt"
	"git-commitai/cli/internal/trace"
)

// ErrNothingStaged indicates there are no staged changes to commit. The
// git-style status explaining what is unstaged has already been printed.
var ErrNothingStaged = errors.New("no changes added to commit")

// ErrNothingToAmend indicates --amend was used in a repository with no commits.
var ErrNothingToAmend = errors.New("nothing to amend")

// ErrEmptyMessage indicates the user aborted the commit by leaving the
// editor without saving, or by emptying the message.
var ErrEmptyMessage = errors.New("empty commit message")

// Client sends a prompt to the chat-completion API and returns the generated
// commit message. Satisfied by *api.Client.
type Client interface {
	Send(ctx context.Context, prompt string) (string, error)
}

// Options configures Commit. Out and Err receive git-style user output;
// defaulted to os.Stdout/os.Stderr when nil.
type Options struct {
	// Dir is the working directory; must be inside a git repository.
	Dir string
	// Message is additional user context for the model (-m flag).
	Message    string
	Amend      bool
	All        bool
	NoVerify   bool
	Verbose    bool
	AllowEmpty bool
	DryRun     bool
	Author     string
	Date       string
	// EditorCmd overrides editor resolution when non-empty (used by tests).
	EditorCmd string

	Config *config.Config
	Client Client
	Log    *trace.Logger
	Out    io.Writer
	Err    io.Writer
}

// Commit runs the full commit flow. It returns git.ErrNotARepository outside
// a repository, config.ErrNoAPIKey without credentials, ErrNothingStaged /
// ErrNothingToAmend / ErrEmptyMessage for the git-like abort paths, and
// *git.ExitError when git commit itself fails.
func Commit(ctx context.Context, opts Options) error {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	if opts.Config == nil || opts.Client == nil {
		return erruser.New("Commit failed: configuration and API client are required.", nil)
	}

	gitDir, err := git.GitDir(opts.Dir)
	if err != nil {
		return err
	}
	opts.Log.Printf("git directory: %s", gitDir)

	if opts.All && opts.Amend {
		return erruser.New("Cannot use -a/--all with --amend. The --amend flag modifies the previous commit and doesn't auto-stage new changes.", nil)
	}

	if err := ensureStaged(opts); err != nil {
		return err
	}

	if opts.Config.APIKey == "" {
		return config.ErrNoAPIKey
	}

	message, err := generateMessage(ctx, opts)
	if err != nil {
		return err
	}

	commitOpts := git.CommitOptions{
		Amend:      opts.Amend,
		NoVerify:   opts.NoVerify,
		AllowEmpty: opts.AllowEmpty,
		Verbose:    opts.Verbose,
		Author:     opts.Author,
		Date:       opts.Date,
	}

	if opts.DryRun {
		opts.Log.Printf("dry-run: delegating to git commit --dry-run")
		return git.CommitDryRun(opts.Dir, commitOpts, opts.Message != "", opts.Out, opts.Err)
	}

	msgFile, err := editMessage(opts, gitDir, message)
	if err != nil {
		return err
	}

	return git.Commit(opts.Dir, msgFile, commitOpts, opts.Out, opts.Err)
}

// ensureStaged applies -a staging and verifies there is something to commit,
// mirroring git commit's own checks and output.
func ensureStaged(opts Options) error {
	if opts.All && !opts.Amend {
		unstaged, err := git.HasUnstagedChanges(opts.Dir)
		if err != nil {
			return err
		}
		if unstaged {
			opts.Log.Printf("auto-staging tracked files (git add -u)")
			if err := git.StageTracked(opts.Dir); err != nil {
				return erruser.New("Failed to stage tracked files.", err)
			}
		}
	}

	if opts.Amend {
		if !git.HasCommit(opts.Dir) {
			fmt.Fprintln(opts.Out, "fatal: You have nothing to amend.")
			return ErrNothingToAmend
		}
		return nil
	}

	if opts.AllowEmpty {
		return nil
	}

	staged, err := git.HasStagedChanges(opts.Dir)
	if err != nil {
		return err
	}
	if !staged {
		git.ShowStatus(opts.Dir, opts.Out)
		return ErrNothingStaged
	}
	return nil
}

// generateMessage assembles the prompt from the diff, file contents and
// templates, then asks the model for a commit message.
func generateMessage(ctx context.Context, opts Options) (string, error) {
	root, err := git.Root(opts.Dir)
	if err != nil {
		return "", err
	}

	diff := git.StagedDiff(opts.Dir, opts.Amend, opts.AllowEmpty)
	files := git.StagedFiles(opts.Dir, opts.Amend, opts.AllowEmpty)
	gitMessage := prompt.GitMessage(root, git.ConfigGet(opts.Dir, "commit.template"))

	p := prompt.Build(prompt.Input{
		Template:   opts.Config.PromptTemplate,
		Context:    opts.Message,
		Amend:      opts.Amend,
		GitMessage: gitMessage,
		Diff:       diff,
		Files:      files,
	})
	opts.Log.Printf("prompt length: %d characters", len(p))

	message, err := opts.Client.Send(ctx, p)
	if err != nil {
		return "", err
	}
	opts.Log.Printf("model response length: %d characters", len(message))
	return message, nil
}

// editMessage writes the commit file, opens the editor, and applies the
// abort rules: an unsaved file or an empty message cancels the commit.
func editMessage(opts Options, gitDir, message string) (string, error) {
	fileCtx := commitfile.Context{
		Branch:           git.CurrentBranch(opts.Dir),
		Amend:            opts.Amend,
		AutoStaged:       opts.All,
		NoVerify:         opts.NoVerify,
		AllowEmpty:       opts.AllowEmpty,
		Author:           opts.Author,
		Date:             opts.Date,
		StatusLines:      git.NameStatus(opts.Dir),
		AmendStatusLines: git.AmendNameStatus(opts.Dir),
		Verbose:          opts.Verbose,
	}
	if opts.Amend {
		fileCtx.ExtraStagedLines = git.NameStatus(opts.Dir)
	}
	if opts.Verbose {
		fileCtx.Diff = git.VerboseDiff(opts.Dir, opts.Amend)
	}

	msgFile := commitfile.Path(gitDir)
	if err := commitfile.Create(msgFile, message, fileCtx); err != nil {
		return "", err
	}
	opts.Log.Printf("commit message file created: %s", msgFile)

	before, err := os.Stat(msgFile)
	if err != nil {
		return "", erruser.New("Could not read commit message file.", err)
	}

	editor := opts.EditorCmd
	if editor == "" {
		editor = git.Editor(opts.Dir)
	}
	opts.Log.Printf("opening editor: %s", editor)
	if err := git.OpenEditor(msgFile, editor); err != nil {
		return "", err
	}

	after, err := os.Stat(msgFile)
	if err != nil {
		return "", erruser.New("Could not read commit message file.", err)
	}
	if before.ModTime().Equal(after.ModTime()) {
		// Not saved (e.g. :q!).
		fmt.Fprintln(opts.Out, "Aborting commit due to empty commit message.")
		return "", ErrEmptyMessage
	}
	if commitfile.IsEmpty(msgFile) {
		fmt.Fprintln(opts.Out, "Aborting commit due to empty commit message.")
		return "", ErrEmptyMessage
	}
	if err := commitfile.Strip(msgFile); err != nil {
		return "", err
	}
	return msgFile, nil
}
