package markdown

import (
	"sort"

	"golang.org/x/net/html"
)

// Metadata is the document metadata block: key to list of values. Scalars
// are normalized to one-element lists when the block is decoded.
type Metadata map[string][]string

// Document is the product of parsing one source file: the content tree,
// named fragments, and the metadata block. Trees are patched in place by
// the cross-reference pass and serialized at render time.
type Document struct {
	Root      *html.Node
	Fragments map[string]*html.Node
	Meta      Metadata

	// Anchors lists the anchor names defined in the content ("@=name"),
	// body first in source order, then fragments in name order.
	Anchors []string
}

// FragmentNames returns the fragment names, sorted.
func (d *Document) FragmentNames() []string {
	names := make([]string, 0, len(d.Fragments))
	for name := range d.Fragments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Trees returns the body tree followed by every fragment tree in name
// order, for passes that patch all of them uniformly.
func (d *Document) Trees() []*html.Node {
	out := []*html.Node{d.Root}
	for _, name := range d.FragmentNames() {
		out = append(out, d.Fragments[name])
	}
	return out
}
