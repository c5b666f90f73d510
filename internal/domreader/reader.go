// Package domreader models the interface consumed from the in-browser DOM
// reader (§6.2). The real reader is an external collaborator that runs
// inside the host browser tab; this package only describes its contract
// and provides a small fixture-backed implementation used by tests and by
// the CLI demo in cmd/bdlawcorpus.
package domreader

import (
	"strings"

	"golang.org/x/net/html"
)

// RequestType enumerates the three request messages sent to the DOM
// reader (§6.2).
type RequestType string

const (
	RequestExtractVolume RequestType = "extractVolume"
	RequestExtractIndex  RequestType = "extractIndex"
	RequestExtractAct    RequestType = "extractAct"
)

// Request is sent to the DOM reader collaborator.
type Request struct {
	Type              RequestType
	IndexType         string
	UseBroaderSelectors bool
	BroaderSelectors  []string
}

// Response is the reply shape from the DOM reader (§6.2). Only the fields
// listed here are consumed; any other fields present on the wire
// are ignored by callers.
type Response struct {
	Success              bool
	Title                string
	Content              string
	Sections             []SectionPair
	Tables               [][][]string
	StructuredSections   interface{} // present on the wire, never consumed
	Amendments           interface{} // present on the wire, never consumed
	Acts                 []ActRow
	SelectorStrategyUsed string
	Error                string
}

// SectionPair is a heading/body row as reported by the DOM reader.
type SectionPair struct {
	Heading  string
	Body     string
	HasTable bool
}

// ActRow is a catalog row as reported by the DOM reader.
type ActRow struct {
	Title string
	URL   string
	Year  string
}

// Document wraps a parsed HTML tree so C2/C3 can operate DOM-structurally
// (traversing tags/attributes) rather than regex-over-text, per §4.2/§4.3.
type Document struct {
	Root *html.Node
}

// Parse parses raw HTML into a Document for structural extraction.
func Parse(source string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(source))
	if err != nil {
		return nil, err
	}
	return &Document{Root: root}, nil
}

// FindAll returns every node in document order matching tag.
func (d *Document) FindAll(tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.Root)
	return out
}

// Attr returns the value of attribute key on n, or "".
func Attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// TextContent concatenates the text of n and all its descendants, the way
// a DOM reader's textContent would, with no HTML reintroduced (§4.3).
func TextContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
