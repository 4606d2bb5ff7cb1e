package markdown

import (
	"fmt"
	"regexp"
	"strings"
)

var fragmentOpenRe = regexp.MustCompile(`^(%+)fragment[ ]*\([ ]*name=("[^"]*"|[A-Za-z0-9_.-]+)[ ]*\)[ ]*$`)

// extractFragments pulls fragment blocks out of the body. A block opens
// with `%fragment(name=X)` — the run of leading percent signs forms the
// delimiter — and closes on a line holding exactly that delimiter. Block
// lines are removed from the body and returned as independent sources keyed
// by name.
func extractFragments(body []byte) ([]byte, map[string][]byte, error) {
	lines := strings.Split(string(body), "\n")
	var kept []string
	frags := make(map[string][]byte)

	for i := 0; i < len(lines); i++ {
		m := fragmentOpenRe.FindStringSubmatch(lines[i])
		if m == nil {
			kept = append(kept, lines[i])
			continue
		}
		delim, name := m[1], strings.Trim(m[2], `"`)

		var content []string
		closed := false
		for i++; i < len(lines); i++ {
			if strings.TrimRight(lines[i], " ") == delim {
				closed = true
				break
			}
			content = append(content, lines[i])
		}
		if !closed {
			return nil, nil, fmt.Errorf("%w: %q", ErrUnterminatedFragment, name)
		}
		frags[name] = []byte(strings.Join(content, "\n"))
	}
	return []byte(strings.Join(kept, "\n")), frags, nil
}
