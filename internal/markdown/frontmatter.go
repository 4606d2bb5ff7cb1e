package markdown

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// splitFrontMatter separates a leading YAML metadata block (`---`
// delimited) from the body. Input newlines are already normalized to "\n".
// Without an opening delimiter the whole input is body.
func splitFrontMatter(content []byte) (fm, body []byte, had bool, err error) {
	open := []byte("---\n")
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	rest := content[len(open):]
	if bytes.HasPrefix(rest, open) {
		return []byte{}, rest[len(open):], true, nil
	}

	if idx := bytes.Index(rest, []byte("\n---\n")); idx >= 0 {
		return rest[:idx+1], rest[idx+len("\n---\n"):], true, nil
	}
	if bytes.HasSuffix(rest, []byte("\n---")) {
		return rest[:len(rest)-len("---")], nil, true, nil
	}
	return nil, nil, false, ErrMissingClosingDelimiter
}

// parseMetadata decodes the metadata block into key to list-of-values form:
// scalars become one-element lists, explicit nulls stay empty.
func parseMetadata(fm []byte) (Metadata, error) {
	meta := Metadata{}
	if len(bytes.TrimSpace(fm)) == 0 {
		return meta, nil
	}

	var raw map[string]any
	if err := yaml.Unmarshal(fm, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMetadataDecode, err)
	}
	for k, v := range raw {
		switch t := v.(type) {
		case nil:
			meta[k] = nil
		case []any:
			vals := make([]string, 0, len(t))
			for _, e := range t {
				vals = append(vals, fmt.Sprint(e))
			}
			meta[k] = vals
		default:
			meta[k] = []string{fmt.Sprint(t)}
		}
	}
	return meta, nil
}
