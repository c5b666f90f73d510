// Package actextract implements the Act Extractor (C3): given an
// act-details DOM, it returns title, text body, structured section rows,
// matrix-preserving tables, and legal marker frequencies. All text fields
// come from DOM textContent only; no HTML is reintroduced except into the
// schedules.html_content export field (§6.1), which this package does not
// itself serialize — that happens in internal/export.
package actextract

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/codermillat/BDLawCorpus-sub002/internal/domain"
	"github.com/codermillat/BDLawCorpus-sub002/internal/domreader"
)

// Options controls where content is read from. Broader-selector retries
// (requested by the Queue Processor, §4.6/§4.7) only change the "where";
// the "how" (text-only, whitespace-normalized, no inference) never varies.
type Options struct {
	UseBroaderSelectors bool
	SelectorStrategy    string // recorded alongside the attempt, e.g. "standard" | "broader_selectors"
}

// StandardSelectorStrategy and BroaderSelectorStrategy label attempts for
// the failure tracker's attempt history (§4.7).
const (
	StandardSelectorStrategy = "standard"
	BroaderSelectorStrategy  = "broader_selectors"
)

// Extraction is the C3 output.
type Extraction struct {
	Title           string
	ContentText     string
	SectionRows     []domain.SectionRow
	Tables          [][][]string
	MarkerFrequency map[string]domain.MarkerCount
}

var whitespaceRunRe = regexp.MustCompile(`[ \t\f\v]+`)

// markerPatterns maps a marker key to its Bengali/English raw string
// patterns. Counts are string frequencies, never structural section
// counts (§4.3, forbidden-fields list of §6.1).
var markerPatterns = map[string][]string{
	"section":  {"Section", "section", "ধারা"},
	"chapter":  {"Chapter", "chapter", "অধ্যায়"},
	"schedule": {"Schedule", "schedule", "তফসিল", "তফশিল"},
}

// standardTitleTags/broaderTitleTags and standardBodyClasses/broaderBodyTags
// mirror the
// "standard selectors followed by generic semantic containers and finally
// body" fallback chain described in §4.7 step 3.
var (
	standardTitleTags = []string{"h1", "h2"}
	broaderTitleTags  = []string{"h1", "h2", "h3", "title"}

	standardBodyClasses = []string{"act-content", "content", "act-body"}
	broaderBodyTags     = []string{"article", "main", "section", "body"}
)

// ExtractAct runs the structural extraction described in §4.3.
func ExtractAct(doc *domreader.Document, opts Options) (*Extraction, error) {
	title := findTitle(doc, opts)
	body := findBody(doc, opts)

	contentText := normalizeWhitespace(domreader.TextContent(body))
	sectionRows := extractSectionRows(body)
	tables := extractAllTables(body)
	markerFreq := countMarkers(contentText)

	return &Extraction{
		Title:           normalizeWhitespace(title),
		ContentText:     contentText,
		SectionRows:     sectionRows,
		Tables:          tables,
		MarkerFrequency: markerFreq,
	}, nil
}

func findTitle(doc *domreader.Document, opts Options) string {
	tags := standardTitleTags
	if opts.UseBroaderSelectors {
		tags = broaderTitleTags
	}
	for _, tag := range tags {
		if nodes := doc.FindAll(tag); len(nodes) > 0 {
			return domreader.TextContent(nodes[0])
		}
	}
	return ""
}

func findBody(doc *domreader.Document, opts Options) *html.Node {
	for _, class := range standardBodyClasses {
		if n := findByClass(doc.Root, class); n != nil {
			return n
		}
	}
	if opts.UseBroaderSelectors {
		for _, tag := range broaderBodyTags {
			if nodes := doc.FindAll(tag); len(nodes) > 0 {
				return nodes[0]
			}
		}
	}
	return doc.Root
}

func findByClass(n *html.Node, class string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == "class" && strings.Contains(" "+a.Val+" ", " "+class+" ") {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByClass(c, class); found != nil {
			return found
		}
	}
	return nil
}

// normalizeWhitespace converts NBSP to a regular space, collapses runs of
// non-newline whitespace to a single space, trims each line, and keeps
// line breaks, reducing three or more consecutive newlines to one blank
// line, per §4.3.
func normalizeWhitespace(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	s = whitespaceRunRe.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	joined := strings.Join(lines, "\n")
	for strings.Contains(joined, "\n\n\n") {
		joined = strings.ReplaceAll(joined, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(joined)
}

// extractSectionRows walks table rows with a heading cell and a body cell,
// preserving both verbatim, flagging has_table when the body contains a
// nested table (§4.3).
func extractSectionRows(body *html.Node) []domain.SectionRow {
	var rows []domain.SectionRow
	var walkRows func(*html.Node)
	walkRows = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			cells := directChildren(n, "td")
			if len(cells) >= 2 {
				heading := normalizeWhitespace(domreader.TextContent(cells[0]))
				bodyCell := cells[1]
				hasTable := containsTag(bodyCell, "table")
				rows = append(rows, domain.SectionRow{
					Heading:  heading,
					Body:     normalizeWhitespace(domreader.TextContent(bodyCell)),
					HasTable: hasTable,
				})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walkRows(c)
		}
	}
	walkRows(body)
	return rows
}

func directChildren(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			out = append(out, c)
		}
	}
	return out
}

func containsTag(n *html.Node, tag string) bool {
	if n.Type == html.ElementNode && n.Data == tag {
		return true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if containsTag(c, tag) {
			return true
		}
	}
	return false
}

func extractAllTables(body *html.Node) [][][]string {
	var tables [][][]string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "table" {
			tables = append(tables, ParseTable(n))
			return // don't descend into nested tables twice
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(body)
	return tables
}

// ParseTable implements the matrix algorithm of §4.3/§8 property 12: a
// row/col cursor accounts for rowspan/colspan, cells are never shifted,
// spanned positions are empty strings, and whitespace inside cells is
// normalized.
func ParseTable(table *html.Node) [][]string {
	trs := directChildrenDeep(table, "tr")

	// occupied[r][c] = true once a cell (or a span from an earlier row)
	// has claimed that matrix position.
	occupied := make(map[int]map[int]bool)
	claim := func(r, c int) {
		if occupied[r] == nil {
			occupied[r] = make(map[int]bool)
		}
		occupied[r][c] = true
	}
	isOccupied := func(r, c int) bool {
		return occupied[r] != nil && occupied[r][c]
	}

	// First pass: determine column count from the widest row after
	// accounting for spans, so later rows' spanned-over cells read as "".
	grid := make([][]string, len(trs))

	maxCol := 0
	for r, tr := range trs {
		cells := directChildrenAny(tr, "td", "th")
		col := 0
		rowCells := map[int]string{}
		for _, cell := range cells {
			for isOccupied(r, col) {
				col++
			}
			rowspan := parseSpan(domreader.Attr(cell, "rowspan"))
			colspan := parseSpan(domreader.Attr(cell, "colspan"))
			// Cell text is one line: every whitespace run, newlines
			// included, becomes a single space.
			text := strings.Join(strings.Fields(normalizeWhitespace(domreader.TextContent(cell))), " ")
			rowCells[col] = text
			for dr := 0; dr < rowspan; dr++ {
				for dc := 0; dc < colspan; dc++ {
					claim(r+dr, col+dc)
				}
			}
			col += colspan
			if col > maxCol {
				maxCol = col
			}
		}
		grid[r] = rowCellsToSlice(rowCells, col)
	}

	// Second pass: pad every row to maxCol width with "" for spanned
	// positions that belong to earlier rows but fall within this row's
	// span, and for trailing columns shorter rows never reached.
	for r := range grid {
		if len(grid[r]) < maxCol {
			padded := make([]string, maxCol)
			copy(padded, grid[r])
			grid[r] = padded
		}
	}

	return grid
}

func rowCellsToSlice(cells map[int]string, width int) []string {
	maxIdx := width
	for idx := range cells {
		if idx+1 > maxIdx {
			maxIdx = idx + 1
		}
	}
	out := make([]string, maxIdx)
	for idx, text := range cells {
		out[idx] = text
	}
	return out
}

func parseSpan(val string) int {
	if val == "" {
		return 1
	}
	n := 0
	for _, r := range val {
		if r < '0' || r > '9' {
			return 1
		}
		n = n*10 + int(r-'0')
	}
	if n <= 0 {
		return 1
	}
	return n
}

func directChildrenDeep(table *html.Node, tag string) []*html.Node {
	// tr elements may be nested one level inside thead/tbody/tfoot.
	var out []*html.Node
	var walk func(*html.Node, int)
	walk = func(n *html.Node, depth int) {
		if depth > 2 {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.Data == tag {
				out = append(out, c)
				continue
			}
			if c.Type == html.ElementNode && (c.Data == "thead" || c.Data == "tbody" || c.Data == "tfoot") {
				walk(c, depth+1)
			}
		}
	}
	walk(table, 0)
	return out
}

func directChildrenAny(n *html.Node, tags ...string) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		for _, tag := range tags {
			if c.Data == tag {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// countMarkers counts raw string occurrences of the legal markers in both
// Bengali and English. This is a string-frequency count, not a count of
// structural sections (§4.3).
func countMarkers(text string) map[string]domain.MarkerCount {
	result := make(map[string]domain.MarkerCount, len(markerPatterns))
	for marker, patterns := range markerPatterns {
		total := 0
		for _, p := range patterns {
			total += strings.Count(text, p)
		}
		result[marker] = domain.MarkerCount{Count: total, Method: "string_frequency"}
	}
	return result
}
