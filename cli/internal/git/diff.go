// Package git (diff.go) collects the staged diff and file contents that feed
// the model prompt, with extra annotation for binary files.
package git

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// StagedDiff returns the staged diff wrapped in a fenced block. With amend it
// covers the HEAD commit plus newly staged changes. Binary file entries get
// comment lines describing type, size and status.
func StagedDiff(dir string, amend, allowEmpty bool) string {
	var diff string
	if amend {
		if parent := outputOK(dir, "rev-parse", "HEAD^"); parent != "" {
			diff = outputOK(dir, "diff", parent+"..HEAD")
			if staged := outputOK(dir, "diff", "--cached"); staged != "" {
				if diff != "" {
					diff += "\n\n# Additional staged changes:\n" + staged
				} else {
					diff = staged
				}
			}
		} else {
			// Amending the first commit.
			diff = outputOK(dir, "diff", "--cached")
		}
	} else {
		diff = outputOK(dir, "diff", "--cached")
	}

	if diff == "" && allowEmpty {
		return "```\n# No changes (empty commit)\n```"
	}

	var processed []string
	for _, line := range strings.Split(diff, "\n") {
		processed = append(processed, line)
		if !strings.HasPrefix(line, "Binary files") {
			continue
		}
		// "Binary files a/path and b/path differ"
		parts := strings.Split(line, " ")
		if len(parts) < 5 {
			continue
		}
		fileA := strings.TrimPrefix(parts[2], "a/")
		fileB := strings.TrimPrefix(parts[4], "b/")
		name := fileB
		if name == "/dev/null" {
			name = fileA
		}
		processed = append(processed, "# Binary file: "+name)
		for _, info := range strings.Split(binaryFileInfo(dir, name, amend), "\n") {
			processed = append(processed, "# "+info)
		}
	}
	return "```\n" + strings.Join(processed, "\n") + "\n```"
}

// VerboseDiff returns the raw diff shown in the editor's scissors section:
// staged changes, or with amend the HEAD commit plus newly staged changes.
func VerboseDiff(dir string, amend bool) string {
	if !amend {
		return outputOK(dir, "diff", "--cached")
	}
	parent := outputOK(dir, "rev-parse", "HEAD^")
	if parent == "" {
		return outputOK(dir, "diff", "--cached")
	}
	diff := outputOK(dir, "diff", parent+"..HEAD")
	if staged := outputOK(dir, "diff", "--cached"); staged != "" {
		diff += "\n# Additional staged changes:\n" + staged
	}
	return diff
}

// StagedFiles returns the staged files with their staged contents, each as a
// "name\n```\ncontent\n```" block. Binary files get a description block
// instead of content. With amend the HEAD commit's files are included.
func StagedFiles(dir string, amend, allowEmpty bool) string {
	var names []string
	if amend {
		seen := make(map[string]struct{})
		for _, out := range []string{
			outputOK(dir, "diff-tree", "--no-commit-id", "--name-only", "-r", "HEAD"),
			outputOK(dir, "diff", "--cached", "--name-only"),
		} {
			for _, name := range strings.Split(out, "\n") {
				if name != "" {
					seen[name] = struct{}{}
				}
			}
		}
		for name := range seen {
			names = append(names, name)
		}
		sort.Strings(names)
	} else {
		for _, name := range strings.Split(outputOK(dir, "diff", "--cached", "--name-only"), "\n") {
			if name != "" {
				names = append(names, name)
			}
		}
	}

	if len(names) == 0 {
		if allowEmpty {
			return "# No files changed (empty commit)"
		}
		return ""
	}

	var blocks []string
	for _, name := range names {
		if isBinaryStaged(dir, name, amend) {
			info := binaryFileInfo(dir, name, amend)
			blocks = append(blocks, fmt.Sprintf("%s (binary file)\n```\n%s\n```\n", name, info))
			continue
		}
		content := outputOK(dir, "show", ":"+name)
		if amend && content == "" {
			content = outputOK(dir, "show", "HEAD:"+name)
		}
		blocks = append(blocks, fmt.Sprintf("%s\n```\n%s\n```\n", name, content))
	}
	if len(blocks) == 0 {
		return "# No files changed (empty commit)"
	}
	return strings.Join(blocks, "\n")
}

// isBinaryStaged reports whether git numstat marks the file as binary ("-"
// counts instead of line counts).
func isBinaryStaged(dir, name string, amend bool) bool {
	numstat := outputOK(dir, "diff", "--cached", "--numstat", "--", name)
	if amend && numstat == "" {
		numstat = outputOK(dir, "diff", "HEAD^", "HEAD", "--numstat", "--", name)
	}
	return strings.HasPrefix(strings.TrimSpace(numstat), "-")
}

var binaryDescriptions = map[string]string{
	".jpg":    "JPEG image",
	".jpeg":   "JPEG image",
	".png":    "PNG image",
	".gif":    "GIF image",
	".webp":   "WebP image",
	".svg":    "SVG vector image",
	".ico":    "Icon file",
	".pdf":    "PDF document",
	".zip":    "ZIP archive",
	".tar":    "TAR archive",
	".gz":     "Gzip compressed file",
	".exe":    "Windows executable",
	".dll":    "Dynamic link library",
	".so":     "Shared object library",
	".dylib":  "Dynamic library (macOS)",
	".mp3":    "MP3 audio",
	".mp4":    "MP4 video",
	".avi":    "AVI video",
	".mov":    "QuickTime video",
	".ttf":    "TrueType font",
	".woff":   "Web font",
	".woff2":  "Web font 2.0",
	".db":     "Database file",
	".sqlite": "SQLite database",
}

// binaryFileInfo describes a binary file for the prompt: extension, size from
// the index (or HEAD when amending), a known-type description, and whether
// the file is new or modified.
func binaryFileInfo(dir, name string, amend bool) string {
	var parts []string

	ext := filepath.Ext(name)
	if ext != "" {
		parts = append(parts, "File type: "+ext)
	}

	size := outputOK(dir, "cat-file", "-s", ":"+name)
	if amend && size == "" {
		size = outputOK(dir, "cat-file", "-s", "HEAD:"+name)
	}
	if size != "" {
		if bytes, err := strconv.ParseInt(size, 10, 64); err == nil {
			parts = append(parts, "Size: "+formatSize(bytes))
		}
	}

	if desc, ok := binaryDescriptions[strings.ToLower(ext)]; ok {
		parts = append(parts, "Description: "+desc)
	}

	ref := "HEAD:"
	if amend {
		ref = "HEAD^:"
	}
	if _, err := output(dir, "cat-file", "-e", ref+name); err == nil {
		parts = append(parts, "Status: Modified")
	} else {
		parts = append(parts, "Status: New file")
	}

	if len(parts) == 0 {
		return "Binary file (no additional information available)"
	}
	return strings.Join(parts, "\n")
}

func formatSize(bytes int64) string {
	switch {
	case bytes < 1024:
		return fmt.Sprintf("%d bytes", bytes)
	case bytes < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	}
}
