package markdown

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var includeRe = regexp.MustCompile(`^\.\.include[ ]*"([^"]+)"[ ]*$`)

// maxIncludeDepth bounds recursive expansion so an include cycle fails
// instead of recursing forever.
const maxIncludeDepth = 64

// expandIncludes replaces every line of the form `..include "rel/path"`
// with the referenced file's content, recursively. Paths resolve against
// includeRoot. An unreadable include file is an error; the caller treats it
// like any unreadable source.
func expandIncludes(source []byte, includeRoot string, depth int) ([]byte, error) {
	if depth > maxIncludeDepth {
		return nil, fmt.Errorf("%w: depth %d", ErrIncludeDepth, depth)
	}
	if !bytes.Contains(source, []byte("..include")) {
		return source, nil
	}

	var out bytes.Buffer
	lines := strings.Split(string(source), "\n")
	for i, line := range lines {
		m := includeRe.FindStringSubmatch(line)
		if m == nil {
			out.WriteString(line)
			if i < len(lines)-1 {
				out.WriteByte('\n')
			}
			continue
		}
		data, err := os.ReadFile(filepath.Join(includeRoot, filepath.FromSlash(m[1])))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrIncludeFailed, m[1], err)
		}
		sub, err := expandIncludes(normalizeNewlines(data), includeRoot, depth+1)
		if err != nil {
			return nil, err
		}
		// Splice by lines: the file's own trailing newline and the include
		// line's separator must not stack into a blank line.
		out.Write(bytes.TrimSuffix(sub, []byte("\n")))
		if i < len(lines)-1 {
			out.WriteByte('\n')
		}
	}
	return out.Bytes(), nil
}

func normalizeNewlines(data []byte) []byte {
	return bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
}
