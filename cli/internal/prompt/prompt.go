// Package prompt builds the model prompt for commit message generation from
// the default instructions or a repository-specific template, plus the staged
// diff, file contents, and optional user context.
package prompt

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultPrompt instructs the model to generate a Git-formatted commit message
// and append code-issue warnings as Git-style comment lines. Used when the
// repository has no custom template.
const DefaultPrompt = `You are a git commit message generator that follows Git best practices strictly.

CRITICAL RULES YOU MUST FOLLOW:

1. STRUCTURE:
   - If the change is simple and clear, use ONLY a subject line (single line commit)
   - For complex changes that need explanation, use subject + blank line + body
   - Never add a body unless it provides valuable context about WHY the change was made

2. SUBJECT LINE (FIRST LINE):
   - Maximum 50 characters (aim for less when possible)
   - Start with a capital letter
   - NO period at the end
   - Use imperative mood (e.g., "Add", "Fix", "Update", not "Added", "Fixes", "Updated")
   - Be concise but descriptive
   - Think: "If applied, this commit will [your subject line]"

3. BODY (ONLY if needed):
   - Leave one blank line after the subject
   - Wrap lines at 72 characters maximum
   - Explain WHAT changed and WHY, not HOW (the code shows how)
   - Focus on the motivation and context for the change
   - Use bullet points with "-" for multiple items if needed

4. GOOD SUBJECT LINE EXAMPLES:
   - "Add user authentication module"
   - "Fix memory leak in data processor"
   - "Update dependencies to latest versions"
   - "Refactor database connection logic"
   - "Remove deprecated API endpoints"

5. CODE ISSUE DETECTION:
   After generating the message, check the code changes for potential issues.
   If you detect any obvious problems, add warnings as Git-style comments after the commit message.
   These warnings help the developer catch bugs before committing.

   Look for these types of severe or critical issues:
   - Hardcoded secrets
   - Syntax errors or typos in variable names
   - null/undefined reference errors
   - Missing imports that will cause runtime errors

   Format warnings like this:
   # ⚠️  WARNING: [Brief description of issue]
   # Found in: [filename]
   # Details: [Specific concern]

6. OUTPUT FORMAT:
   - Generate the commit message following ALL formatting rules correctly
   - Add a blank line after the message
   - If code issues detected, add warning comments
   - NO explanations outside of warning comments
   - NO markdown formatting
   - NEVER warn about commit message formatting (you should generate it correctly)

Remember:
- Most commits only need a clear subject line
- You are responsible for generating a properly formatted message - don't warn about your own formatting
- Only warn about actual code issues that could cause problems`

// Input carries everything Build needs to assemble the final prompt.
type Input struct {
	// Template is the repository prompt template from .gitcommitai; empty
	// means DefaultPrompt is used. Templates may contain the placeholders
	// {CONTEXT}, {GITMESSAGE}, {AMEND_NOTE}, {DIFF} and {FILES}.
	Template string
	// Context is the user-provided context from the -m flag.
	Context string
	// Amend reports whether the previous commit is being amended.
	Amend bool
	// GitMessage is the project commit template content (see GitMessage).
	GitMessage string
	// Diff is the staged (or amend) diff.
	Diff string
	// Files is the staged files with their content.
	Files string
}

var blankRuns = regexp.MustCompile(`\n{3,}`)

// Build assembles the complete prompt. With a custom template, placeholders
// are substituted and the diff, files and closing instruction are appended
// only where the template did not already place them. With the default
// prompt, the project template, user context, diff and files are appended in
// a fixed layout.
func Build(in Input) string {
	if in.Template != "" {
		return buildFromTemplate(in)
	}

	prompt := DefaultPrompt
	if in.GitMessage != "" {
		prompt += `

PROJECT-SPECIFIC COMMIT TEMPLATE/GUIDELINES:
The following template or guidelines are configured for this project. Use this as additional context
to understand the project's commit message conventions, but still follow the Git best practices above:

` + in.GitMessage + "\n"
	}
	if in.Context != "" {
		prompt += "\n\nAdditional context from user: " + in.Context
	}
	prompt += "\n\nHere is the git diff of changes:\n\n" + in.Diff
	prompt += "\n\nHere are all the modified files with their content for context:\n\n" + in.Files
	prompt += "\n\nGenerate the commit message following the rules above:"
	return prompt
}

func buildFromTemplate(in Input) string {
	contextNote := ""
	if in.Context != "" {
		contextNote = "Additional context from user: " + in.Context
	}
	amendNote := ""
	if in.Amend {
		amendNote = "Note: You are amending the previous commit."
	}

	prompt := in.Template
	prompt = strings.ReplaceAll(prompt, "{CONTEXT}", contextNote)
	prompt = strings.ReplaceAll(prompt, "{GITMESSAGE}", in.GitMessage)
	prompt = strings.ReplaceAll(prompt, "{AMEND_NOTE}", amendNote)

	// Empty replacements leave runs of blank lines behind.
	prompt = strings.Trim(blankRuns.ReplaceAllString(prompt, "\n\n"), "\n")

	if strings.Contains(prompt, "{DIFF}") {
		prompt = strings.ReplaceAll(prompt, "{DIFF}", in.Diff)
	} else {
		prompt += "\n\nHere is the git diff of changes:\n\n" + in.Diff
	}
	if strings.Contains(prompt, "{FILES}") {
		prompt = strings.ReplaceAll(prompt, "{FILES}", in.Files)
	} else {
		prompt += "\n\nHere are all the modified files with their content for context:\n\n" + in.Files
	}
	if !strings.Contains(strings.ToLower(prompt), "generate the commit message") {
		prompt += "\n\nGenerate the commit message following the rules above:"
	}
	return prompt
}

// GitMessage returns the project commit template content, checking in order:
// repoRoot/.gitmessage, the configured commit.template path (with ~ expansion;
// relative paths resolve against repoRoot), and ~/.gitmessage. Returns ""
// when no template exists.
func GitMessage(repoRoot, configuredTemplate string) string {
	if repoRoot != "" {
		if content, err := os.ReadFile(filepath.Join(repoRoot, ".gitmessage")); err == nil {
			return string(content)
		}
	}

	if path := strings.TrimSpace(configuredTemplate); path != "" {
		if strings.HasPrefix(path, "~") {
			if home, err := os.UserHomeDir(); err == nil {
				path = filepath.Join(home, strings.TrimPrefix(path[1:], string(filepath.Separator)))
			}
		} else if !filepath.IsAbs(path) && repoRoot != "" {
			path = filepath.Join(repoRoot, path)
		}
		if content, err := os.ReadFile(path); err == nil {
			return string(content)
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		if content, err := os.ReadFile(filepath.Join(home, ".gitmessage")); err == nil {
			return string(content)
		}
	}
	return ""
}
