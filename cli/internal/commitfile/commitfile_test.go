package commitfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), Filename)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestCompose_plainMessage(t *testing.T) {
	t.Parallel()
	got := Compose("Add feature", Context{Branch: "main", StatusLines: []string{"M\tmain.go"}})
	if !strings.HasPrefix(got, "Add feature\n\n") {
		t.Errorf("body not followed by blank separator:\n%s", got)
	}
	if !strings.Contains(got, "# Please enter the commit message for your changes. Lines starting\n") {
		t.Errorf("missing instructional header:\n%s", got)
	}
	if !strings.Contains(got, "# On branch main\n") {
		t.Errorf("missing branch line:\n%s", got)
	}
	if !strings.Contains(got, "# Changes to be committed:\n# M\tmain.go\n") {
		t.Errorf("missing status section:\n%s", got)
	}
}

func TestCompose_commentRegionInvariant(t *testing.T) {
	t.Parallel()
	got := Compose("Fix bug\n\nLonger explanation.", Context{
		Branch:           "main",
		Amend:            true,
		NoVerify:         true,
		Author:           "A U Thor <author@example.com>",
		AmendStatusLines: []string{"M\ta.go"},
	})
	// Everything after the body separator must be a comment or blank.
	_, after, found := strings.Cut(got, "Longer explanation.\n\n")
	if !found {
		t.Fatalf("body separator missing:\n%s", got)
	}
	for _, line := range strings.Split(after, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
			t.Errorf("non-comment line in comment region: %q", line)
		}
	}
}

func TestCompose_warningBlock_precedesHeader(t *testing.T) {
	t.Parallel()
	message := "Fix bug\n\n# ⚠️  WARNING: issue\n# Found in: x.py\n# Details: d"
	got := Compose(message, Context{Branch: "main"})

	if !strings.HasPrefix(got, "Fix bug\n\n") {
		t.Errorf("body should be first, without '#':\n%s", got)
	}
	warnIdx := strings.Index(got, "# ⚠️  WARNING: issue\n# Found in: x.py\n# Details: d\n")
	headerIdx := strings.Index(got, "# Please enter the commit message")
	if warnIdx < 0 {
		t.Fatalf("warning lines missing or reordered:\n%s", got)
	}
	if headerIdx < 0 || warnIdx > headerIdx {
		t.Errorf("warnings must precede the instructional header (warn=%d header=%d)", warnIdx, headerIdx)
	}
	if strings.Contains(got[:warnIdx], "WARNING") {
		t.Errorf("warning text leaked into the body:\n%s", got)
	}
}

func TestCompose_warningBlock_internalBlankBecomesSeparator(t *testing.T) {
	t.Parallel()
	message := "Do thing\n\n# ⚠️  WARNING: one\n\n# ⚠️  WARNING: two"
	got := Compose(message, Context{Branch: "b"})
	if !strings.Contains(got, "# ⚠️  WARNING: one\n#\n# ⚠️  WARNING: two\n#\n") {
		t.Errorf("blank line inside warning block should become '#' separator:\n%s", got)
	}
}

func TestCompose_flagComments(t *testing.T) {
	t.Parallel()
	got := Compose("msg", Context{
		Branch:     "dev",
		AutoStaged: true,
		NoVerify:   true,
		AllowEmpty: true,
		Author:     "Jo <jo@example.com>",
		Date:       "2024-01-01T12:00:00",
	})
	wantLines := []string{
		"# Files were automatically staged using -a flag.",
		"# Git hooks will be skipped (--no-verify).",
		"# This will be an empty commit (--allow-empty).",
		"# Using custom author: Jo <jo@example.com>",
		"# Using custom date: 2024-01-01T12:00:00",
		"# No changes to be committed (empty commit)",
	}
	idx := -1
	for _, want := range wantLines {
		next := strings.Index(got, want)
		if next < 0 {
			t.Fatalf("missing flag comment %q:\n%s", want, got)
		}
		if next < idx {
			t.Errorf("flag comment %q out of order", want)
		}
		idx = next
	}
}

func TestCompose_amendSections(t *testing.T) {
	t.Parallel()
	got := Compose("msg", Context{
		Branch:           "main",
		Amend:            true,
		AmendStatusLines: []string{"M\told.go", "A\tnew.go"},
		ExtraStagedLines: []string{"M\textra.go"},
	})
	if !strings.Contains(got, "# Changes to be committed (including previous commit):\n# M\told.go\n# A\tnew.go\n") {
		t.Errorf("missing amend status section:\n%s", got)
	}
	if !strings.Contains(got, "# Additional staged changes:\n# M\textra.go\n") {
		t.Errorf("missing additional staged section:\n%s", got)
	}
}

func TestCompose_verboseScissorsBlock(t *testing.T) {
	t.Parallel()
	got := Compose("msg", Context{
		Branch:      "main",
		Verbose:     true,
		StatusLines: []string{"M\ta.go"},
		Diff:        "diff --git a/a.go b/a.go\n+new line",
	})
	scissors := "# ------------------------ >8 ------------------------\n" +
		"# Do not modify or remove the line above.\n" +
		"# Everything below it will be ignored.\n"
	if !strings.Contains(got, scissors) {
		t.Errorf("missing scissors block:\n%s", got)
	}
	if !strings.Contains(got, "# diff --git a/a.go b/a.go\n# +new line\n") {
		t.Errorf("diff lines not comment-prefixed:\n%s", got)
	}
}

func TestStrip_removesCommentsKeepsContent(t *testing.T) {
	t.Parallel()
	path := writeTemp(t, "Add feature\n    - detail one\n# comment\n")
	if err := Strip(path); err != nil {
		t.Fatalf("Strip: %v", err)
	}
	got := readFile(t, path)
	want := "Add feature\n    - detail one\n"
	if got != want {
		t.Errorf("stripped = %q, want %q", got, want)
	}
}

func TestStrip_indentedCommentRemoved(t *testing.T) {
	t.Parallel()
	path := writeTemp(t, "Subject\n   # indented comment\nBody\n")
	if err := Strip(path); err != nil {
		t.Fatalf("Strip: %v", err)
	}
	got := readFile(t, path)
	want := "Subject\nBody\n"
	if got != want {
		t.Errorf("stripped = %q, want %q", got, want)
	}
}

func TestStrip_midLineHashKept(t *testing.T) {
	t.Parallel()
	path := writeTemp(t, "Fix issue #123\n\n# real comment\n")
	if err := Strip(path); err != nil {
		t.Fatalf("Strip: %v", err)
	}
	got := readFile(t, path)
	want := "Fix issue #123\n"
	if got != want {
		t.Errorf("stripped = %q, want %q", got, want)
	}
}

func TestStrip_allCommentsYieldsEmptyFile(t *testing.T) {
	t.Parallel()
	path := writeTemp(t, "# one\n# two\n#\n")
	if err := Strip(path); err != nil {
		t.Fatalf("Strip: %v", err)
	}
	if got := readFile(t, path); got != "" {
		t.Errorf("stripped = %q, want empty", got)
	}
}

func TestStrip_idempotent(t *testing.T) {
	t.Parallel()
	path := writeTemp(t, "Subject line\n\nBody with  internal   spaces\n# comment\n")
	if err := Strip(path); err != nil {
		t.Fatalf("first Strip: %v", err)
	}
	first := readFile(t, path)
	if err := Strip(path); err != nil {
		t.Fatalf("second Strip: %v", err)
	}
	second := readFile(t, path)
	if first != second {
		t.Errorf("Strip not idempotent: first %q, second %q", first, second)
	}
}

func TestStrip_missingFile_returnsError(t *testing.T) {
	t.Parallel()
	err := Strip(filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatal("Strip on missing file: want error")
	}
}

func TestIsEmpty(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"empty_file", "", true},
		{"whitespace_only", "   \n\t\n", true},
		{"whitespace_and_comment", "   \n\t\n# c1\n", true},
		{"comments_only", "# one\n# two\n", true},
		{"indented_comments", "   # one\n\t# two\n", true},
		{"single_content_line", "Add feature\n    - detail one\n# comment\n", false},
		{"content_after_comments", "# comment\ncontent\n", false},
		{"mid_line_hash_is_content", "Fix issue #123\n\n# real comment\n", false},
		{"no_trailing_newline", "word", false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := writeTemp(t, tt.content)
			if got := IsEmpty(path); got != tt.want {
				t.Errorf("IsEmpty(%q) = %v, want %v", tt.content, got, tt.want)
			}
		})
	}
}

func TestIsEmpty_missingFile_reportsEmpty(t *testing.T) {
	t.Parallel()
	if !IsEmpty(filepath.Join(t.TempDir(), "nope")) {
		t.Error("IsEmpty on unreadable file must report true (abort-safe)")
	}
}

// Composing then stripping must round-trip the body exactly.
func TestComposeStrip_roundTrip(t *testing.T) {
	t.Parallel()
	message := "Fix bug\n\nExplain why.\n\n# ⚠️  WARNING: issue\n# Found in: x.py\n# Details: d"
	path := filepath.Join(t.TempDir(), Filename)
	if err := Create(path, message, Context{Branch: "main", Verbose: true, Diff: "+x", StatusLines: []string{"M\ta"}}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if IsEmpty(path) {
		t.Fatal("freshly composed file must not be empty")
	}
	if err := Strip(path); err != nil {
		t.Fatalf("Strip: %v", err)
	}
	got := readFile(t, path)
	want := "Fix bug\n\nExplain why.\n"
	if got != want {
		t.Errorf("round-trip body = %q, want %q", got, want)
	}
}
