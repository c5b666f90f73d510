package actextract

import (
	"testing"

	"github.com/codermillat/BDLawCorpus-sub002/internal/domreader"
)

func parseFirstTable(t *testing.T, htmlSrc string) [][]string {
	t.Helper()
	doc, err := domreader.Parse(htmlSrc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	tables := doc.FindAll("table")
	if len(tables) == 0 {
		t.Fatal("no table found")
	}
	return ParseTable(tables[0])
}

func TestParseTableRowspanColspan(t *testing.T) {
	// 2x3 logical grid where the first cell spans two rows and the
	// second row's first cell spans two columns.
	src := `
<table>
<tr><td rowspan="2">A</td><td>B</td><td>C</td></tr>
<tr><td colspan="2">D</td></tr>
</table>`
	grid := parseFirstTable(t, src)

	if len(grid) != 2 {
		t.Fatalf("expected 2 rows, got %d: %+v", len(grid), grid)
	}
	if len(grid[0]) != 3 || len(grid[1]) != 3 {
		t.Fatalf("expected 3 columns per row, got %v", grid)
	}
	if grid[0][0] != "A" || grid[0][1] != "B" || grid[0][2] != "C" {
		t.Errorf("row 0 mismatch: %+v", grid[0])
	}
	// row 1 col 0 is covered by A's rowspan, so it must be empty, and D
	// must not shift left into that position.
	if grid[1][0] != "" {
		t.Errorf("expected empty string at spanned position, got %q", grid[1][0])
	}
	if grid[1][1] != "D" {
		t.Errorf("expected D at col 1, got %q", grid[1][1])
	}
}

func TestParseTableNoSpans(t *testing.T) {
	src := `<table><tr><td>1</td><td>2</td></tr><tr><td>3</td><td>4</td></tr></table>`
	grid := parseFirstTable(t, src)
	want := [][]string{{"1", "2"}, {"3", "4"}}
	for r := range want {
		for c := range want[r] {
			if grid[r][c] != want[r][c] {
				t.Errorf("grid[%d][%d] = %q, want %q", r, c, grid[r][c], want[r][c])
			}
		}
	}
}

func TestCountMarkersBilingual(t *testing.T) {
	text := "Section 1. This Act has one Chapter. তফসিল ১। ধারা ২।"
	freq := countMarkers(text)
	if freq["section"].Count != 2 {
		t.Errorf("expected 2 section occurrences, got %d", freq["section"].Count)
	}
	if freq["chapter"].Count != 1 {
		t.Errorf("expected 1 chapter occurrence, got %d", freq["chapter"].Count)
	}
	if freq["schedule"].Count != 1 {
		t.Errorf("expected 1 schedule occurrence, got %d", freq["schedule"].Count)
	}
	for _, m := range freq {
		if m.Method != "string_frequency" {
			t.Errorf("expected method string_frequency, got %q", m.Method)
		}
	}
}

func TestExtractActTextOnly(t *testing.T) {
	src := `<html><body><h1>The Test Act, 1973</h1><div class="act-content">Section  1.   Short title.</div></body></html>`
	doc, err := domreader.Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	extraction, err := ExtractAct(doc, Options{})
	if err != nil {
		t.Fatalf("ExtractAct: %v", err)
	}
	if extraction.Title != "The Test Act, 1973" {
		t.Errorf("unexpected title: %q", extraction.Title)
	}
	if extraction.ContentText != "Section 1. Short title." {
		t.Errorf("unexpected normalized content: %q", extraction.ContentText)
	}
}
