package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"git-commitai/cli/internal/api"
	"git-commitai/cli/internal/config"
	"git-commitai/cli/internal/git"
	"git-commitai/cli/internal/run"
	"git-commitai/cli/internal/trace"
	"git-commitai/cli/internal/version"
)

// errExit is an error that carries an exit code for the CLI. Use errors.As to detect it.
type errExit int

func (e errExit) Error() string {
	return "exit " + strconv.Itoa(int(e))
}

func main() {
	os.Exit(Run())
}

// Run is the entry point for the CLI. It is exported for testing so that
// main.go can meet per-file coverage requirements.
func Run() int {
	return runCLI(os.Args[1:])
}

func runCLI(args []string) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return exitCode(err)
	}
	return 0
}

// exitCode maps an error from the commit flow to the process exit code,
// printing any message the flow has not already printed. Git-style aborts
// (nothing staged, empty message) print inside run and exit 1 quietly here.
func exitCode(err error) int {
	var exitErr errExit
	if errors.As(err, &exitErr) {
		return int(exitErr)
	}
	var gitExit *git.ExitError
	if errors.As(err, &gitExit) {
		return gitExit.Code
	}
	switch {
	case errors.Is(err, git.ErrNotARepository):
		fmt.Fprintln(os.Stdout, "fatal: not a git repository (or any of the parent directories): .git")
		return 128
	case errors.Is(err, config.ErrNoAPIKey):
		printAPIKeyHelp(os.Stdout)
		return 1
	case errors.Is(err, run.ErrNothingStaged),
		errors.Is(err, run.ErrNothingToAmend),
		errors.Is(err, run.ErrEmptyMessage):
		return 1
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	if u := errors.Unwrap(err); u != nil {
		fmt.Fprintf(os.Stderr, "Details: %v\n", u)
	}
	return 1
}

func printAPIKeyHelp(w io.Writer) {
	fmt.Fprintln(w, "Error: GIT_COMMIT_AI_KEY environment variable is not set")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Please set up your API credentials:")
	fmt.Fprintln(w, "  export GIT_COMMIT_AI_KEY='your-api-key'")
	fmt.Fprintln(w, "  export GIT_COMMIT_AI_URL='https://openrouter.ai/api/v1/chat/completions' # or your provider's URL")
	fmt.Fprintln(w, "  export GIT_COMMIT_AI_MODEL='qwen/qwen3-coder' # or your preferred model")
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "git-commitai",
		Short: "Generate AI-powered git commit messages",
		Long:  `git-commitai generates a commit message for your staged changes with an
AI model, opens it in your editor like git commit, and commits on save.

Configuration:
  Create a .gitcommitai file in your repository root to customize the AI
  prompt, optionally starting with a "model: <name>" line. The template may
  use the placeholders {CONTEXT}, {DIFF}, {FILES}, {GITMESSAGE} and
  {AMEND_NOTE}.

Environment variables:
  GIT_COMMIT_AI_KEY     Your API key (required)
  GIT_COMMIT_AI_URL     API endpoint URL (default: OpenRouter)
  GIT_COMMIT_AI_MODEL   Model to use (default: qwen/qwen3-coder)`,
		Version: version.String(),
		RunE:    runCommit,
	}
	cmd.Flags().StringP("message", "m", "", "Additional context about the commit")
	cmd.Flags().Bool("amend", false, "Amend the previous commit")
	cmd.Flags().BoolP("all", "a", false, "Automatically stage all tracked, modified files")
	cmd.Flags().BoolP("no-verify", "n", false, "Skip pre-commit and commit-msg hooks")
	cmd.Flags().BoolP("verbose", "v", false, "Show diff of changes in the editor")
	cmd.Flags().Bool("allow-empty", false, "Allow creating an empty commit")
	cmd.Flags().Bool("dry-run", false, "Don't actually commit, just show what would be committed")
	cmd.Flags().String("author", "", "Override author information (format: 'Name <email@example.com>')")
	cmd.Flags().String("date", "", "Override author date (format: 'YYYY-MM-DD HH:MM:SS' or ISO 8601)")
	cmd.Flags().Bool("debug", false, "Enable debug logging to stderr")
	cmd.Flags().String("api-key", "", "Override API key")
	cmd.Flags().String("api-url", "", "Override API URL")
	cmd.Flags().String("model", "", "Override model name")
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd
}

func runCommit(cmd *cobra.Command, args []string) error {
	message, _ := cmd.Flags().GetString("message")
	amend, _ := cmd.Flags().GetBool("amend")
	all, _ := cmd.Flags().GetBool("all")
	noVerify, _ := cmd.Flags().GetBool("no-verify")
	verbose, _ := cmd.Flags().GetBool("verbose")
	allowEmpty, _ := cmd.Flags().GetBool("allow-empty")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	author, _ := cmd.Flags().GetString("author")
	date, _ := cmd.Flags().GetString("date")
	debug, _ := cmd.Flags().GetBool("debug")
	apiKey, _ := cmd.Flags().GetString("api-key")
	apiURL, _ := cmd.Flags().GetString("api-url")
	model, _ := cmd.Flags().GetString("model")

	var log *trace.Logger
	if debug {
		log = trace.New(os.Stderr)
		log.Printf("git-commitai %s started with --debug flag", version.String())
	}

	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	root, err := git.Root(wd)
	if err != nil {
		return err
	}

	cfg, err := config.Load(config.LoadOptions{
		RepoRoot: root,
		Overrides: &config.Overrides{
			APIKey: &apiKey,
			APIURL: &apiURL,
			Model:  &model,
		},
	})
	if err != nil {
		return err
	}
	log.Printf("config loaded - URL: %s, model: %s, key present: %t", cfg.APIURL, cfg.Model, cfg.APIKey != "")

	client := api.NewClient(
		api.RequestConfig{URL: cfg.APIURL, APIKey: cfg.APIKey, Model: cfg.Model},
		&http.Client{Timeout: cfg.Timeout},
		api.RetryPolicy{
			MaxAttempts:  cfg.MaxAttempts,
			InitialDelay: cfg.RetryDelay,
			Multiplier:   cfg.RetryBackoff,
		},
		log,
	)

	return run.Commit(cmd.Context(), run.Options{
		Dir:        wd,
		Message:    message,
		Amend:      amend,
		All:        all,
		NoVerify:   noVerify,
		Verbose:    verbose,
		AllowEmpty: allowEmpty,
		DryRun:     dryRun,
		Author:     author,
		Date:       date,
		Config:     cfg,
		Client:     client,
		Log:        log,
		Out:        os.Stdout,
		Err:        os.Stderr,
	})
}
