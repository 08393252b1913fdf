package tools

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	agent "github.com/armatrix/taskagent"
)

const (
	maxGrepMatches  = 200
	maxGrepFileSize = 4 << 20
)

// GrepInput defines the input for the grep tool.
type GrepInput struct {
	Pattern string `json:"pattern" jsonschema:"required,description=Regular expression to search for (Go RE2 syntax)"`
	Path    string `json:"path,omitempty" jsonschema:"description=Directory to search in (default: workspace root)"`
	Include string `json:"include,omitempty" jsonschema:"description=Glob pattern that file paths must match, e.g. **/*.go"`
}

// GrepTool searches file contents line by line.
type GrepTool struct{}

var _ agent.Tool[GrepInput] = (*GrepTool)(nil)

func (t *GrepTool) Name() string { return "grep" }
func (t *GrepTool) Description() string {
	return "Search file contents with a regular expression. Output lines are file:line:text."
}

func (t *GrepTool) Execute(ctx context.Context, input GrepInput) (*agent.ToolResult, error) {
	if input.Pattern == "" {
		return agent.ErrorResult("pattern is required"), nil
	}
	re, err := regexp.Compile(input.Pattern)
	if err != nil {
		return agent.ErrorResult(fmt.Sprintf("invalid pattern: %s", err.Error())), nil
	}
	if input.Include != "" && !doublestar.ValidatePattern(input.Include) {
		return agent.ErrorResult(fmt.Sprintf("invalid include pattern: %s", input.Include)), nil
	}
	base, err := searchRoot(ctx, input.Path)
	if err != nil {
		return agent.ErrorResult(err.Error()), nil
	}

	var b strings.Builder
	count := 0
	truncated := false
	walkErr := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if path != base && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, _ := filepath.Rel(base, path)
		if input.Include != "" {
			relSlash := filepath.ToSlash(rel)
			if ok, _ := doublestar.Match(input.Include, relSlash); !ok {
				if ok, _ := doublestar.Match(input.Include, d.Name()); !ok {
					return nil
				}
			}
		}
		if info, err := d.Info(); err != nil || info.Size() > maxGrepFileSize {
			return nil
		}
		n, stop := grepFile(path, displayPath(ctx, path), re, &b, maxGrepMatches-count)
		count += n
		if stop {
			truncated = true
			return fs.SkipAll
		}
		return nil
	})
	if walkErr != nil {
		return agent.ErrorResult(fmt.Sprintf("search failed: %s", walkErr.Error())), nil
	}
	if count == 0 {
		return agent.TextResult("No matches found"), nil
	}
	if truncated {
		fmt.Fprintf(&b, "... (stopped after %d matches)\n", maxGrepMatches)
	}
	return agent.TextResult(b.String()), nil
}

// grepFile appends up to limit matches from one file. It reports whether the
// limit was reached with more lines left to scan.
func grepFile(path, name string, re *regexp.Regexp, b *strings.Builder, limit int) (int, bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n, lineNum := 0, 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if strings.IndexByte(line, 0) >= 0 {
			return n, false // binary
		}
		if !re.MatchString(line) {
			continue
		}
		if n == limit {
			return n, true
		}
		if len(line) > maxLineLength {
			line = line[:maxLineLength-len(truncationSuffix)] + truncationSuffix
		}
		fmt.Fprintf(b, "%s:%d:%s\n", name, lineNum, line)
		n++
	}
	return n, false
}
