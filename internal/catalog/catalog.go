// Package catalog implements the Catalog Extractor (C2): given a parsed
// volume or index page DOM, it returns the ordered list of acts. The
// algorithm is DOM-structural (table rows), never regex-over-text.
package catalog

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/codermillat/BDLawCorpus-sub002/internal/domain"
	"github.com/codermillat/BDLawCorpus-sub002/internal/domreader"
	"github.com/codermillat/BDLawCorpus-sub002/internal/pageclassifier"
)

// Warning describes a row that was skipped because it was malformed.
type Warning struct {
	RowIndex int
	Reason   string
}

// ExtractEntries walks the catalog table of doc and returns the ordered
// sequence of CatalogEntry values plus any row-level warnings. An empty
// table yields an empty (not failed) sequence (§4.2).
func ExtractEntries(doc *domreader.Document) ([]domain.CatalogEntry, []Warning) {
	var entries []domain.CatalogEntry
	var warnings []Warning

	rows := doc.FindAll("tr")
	rowIndex := 0
	for _, row := range rows {
		cells := childElements(row, "td")
		if len(cells) == 0 {
			// header row or non-data row; not a failure, just skip
			// (it still occupies a row position, so row_index counts it)
			rowIndex++
			continue
		}

		anchor := firstDescendant(row, "a")
		if anchor == nil {
			warnings = append(warnings, Warning{RowIndex: rowIndex, Reason: "no anchor in row"})
			rowIndex++
			continue
		}

		title := strings.TrimSpace(domreader.TextContent(anchor))
		href := domreader.Attr(anchor, "href")
		if title == "" || href == "" {
			warnings = append(warnings, Warning{RowIndex: rowIndex, Reason: "missing title or href"})
			rowIndex++
			continue
		}

		absoluteURL := pageclassifier.NormalizeURL(href)
		internalID := pageclassifier.ExtractInternalID(absoluteURL)
		if internalID == "" {
			warnings = append(warnings, Warning{RowIndex: rowIndex, Reason: "url did not match act id pattern"})
			rowIndex++
			continue
		}

		year := adjacentCellText(cells, anchor)

		entries = append(entries, domain.CatalogEntry{
			InternalID: internalID,
			Title:      title,
			Year:       year,
			URL:        absoluteURL,
			RowIndex:   rowIndex,
		})
		rowIndex++
	}

	return entries, warnings
}

// childElements returns the direct <td> children of a row.
func childElements(row *html.Node, tag string) []*html.Node {
	var out []*html.Node
	for c := row.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			out = append(out, c)
		}
	}
	return out
}

func firstDescendant(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := firstDescendant(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// adjacentCellText returns the text of the cell adjacent to the one
// containing anchor — the act number / year column per §4.2.
func adjacentCellText(cells []*html.Node, anchor *html.Node) string {
	anchorCellIdx := -1
	for i, cell := range cells {
		if containsNode(cell, anchor) {
			anchorCellIdx = i
			break
		}
	}
	if anchorCellIdx == -1 || anchorCellIdx+1 >= len(cells) {
		return ""
	}
	return strings.TrimSpace(domreader.TextContent(cells[anchorCellIdx+1]))
}

func containsNode(root, target *html.Node) bool {
	if root == target {
		return true
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if containsNode(c, target) {
			return true
		}
	}
	return false
}
