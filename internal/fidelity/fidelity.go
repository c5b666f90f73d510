// Package fidelity implements the Text Fidelity Engine (C4): it builds the
// three parallel content versions (raw/normalized/corrected), detects
// protected and numeric-sensitive regions, and produces the append-only
// transformation audit log with per-entry risk tagging.
package fidelity

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/codermillat/BDLawCorpus-sub002/internal/domain"
)

// VersionSet holds the three parallel content versions of §4.4.
type VersionSet struct {
	Raw        string
	Normalized string
	Corrected  string
}

// Result bundles everything the fidelity engine produces from a single
// raw text.
type Result struct {
	Versions           VersionSet
	TransformationLog  []domain.TransformationEntry
	ProtectedSections  []domain.ProtectedRegion
	NumericRegions     []domain.NumericRegion
	LexicalReferences  []domain.LexicalReference
	ContentLanguage    domain.ContentLanguage
	LanguageRatio       LanguageRatio
	EditorialContent    bool
	ContentRawSHA256    string
}

// LanguageRatio reports the Bengali/English character-ratio split used for
// ContentLanguage tagging, exposed for downstream diagnostics.
type LanguageRatio struct {
	BengaliRatio float64
	EnglishRatio float64
}

var definitionMarkers = []string{"means", "definition", "সংজ্ঞা"}
var provisoMarkers = []string{"Provided that", "provided that", "তবে শর্ত"}
var explanationMarkers = []string{"Explanation", "explanation", "ব্যাখ্যা"}

var currencyRe = regexp.MustCompile(`(?:Tk\.?|টাকা|৳|\$|Rs\.?)\s?[0-9,]+(?:\.[0-9]+)?`)
var percentRe = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)?\s?%`)
var rateRe = regexp.MustCompile(`(?i)[0-9]+(?:\.[0-9]+)?\s?(?:per\s?cent|percent|rate)`)
var numericListRe = regexp.MustCompile(`(?:[0-9]+[,.]){2,}[0-9]+`)

var editorialMarkers = []string{"[Editorial", "(Editorial", "সম্পাদকীয়"}

// crossReferenceRe matches "section N of the X Act, YYYY"-shaped citations
// in both scripts, loosely, for auxiliary detection only — never an
// assertion of legal meaning (§4.4 Auxiliary detections).
var crossReferenceRe = regexp.MustCompile(`(?i)(section|ধারা)\s+\d+[A-Za-z]?\s+of\s+the\s+[A-Za-z ,]+?Act,?\s*\d{4}`)

var negationWords = []string{"not", "without prejudice to", "notwithstanding", "no ", "নয়", "ব্যতীত"}

// Build runs the complete C4 pipeline over a single act's raw text.
func Build(raw string) *Result {
	normalized := norm.NFC.String(raw)

	protected := detectProtectedRegions(raw)
	numeric := detectNumericRegions(raw)

	corrected, log := applyCorrections(raw, normalized, protected, numeric)

	bengaliRatio, englishRatio := languageRatio(raw)
	language := domain.LanguageEnglish
	if bengaliRatio >= englishRatio {
		language = domain.LanguageBengali
	}

	sum := sha256.Sum256([]byte(raw))

	return &Result{
		Versions: VersionSet{
			Raw:        raw,
			Normalized: normalized,
			Corrected:  corrected,
		},
		TransformationLog: log,
		ProtectedSections: protected,
		NumericRegions:    numeric,
		LexicalReferences: detectLexicalReferences(raw),
		ContentLanguage:   language,
		LanguageRatio:     LanguageRatio{BengaliRatio: bengaliRatio, EnglishRatio: englishRatio},
		EditorialContent:  containsAny(raw, editorialMarkers),
		ContentRawSHA256:  hex.EncodeToString(sum[:]),
	}
}

// ContentHash returns sha256(content_raw) hex-encoded — the corpus's
// single integrity anchor (§4.4, §9 design notes).
func ContentHash(contentRaw string) string {
	sum := sha256.Sum256([]byte(contentRaw))
	return hex.EncodeToString(sum[:])
}

func detectProtectedRegions(raw string) []domain.ProtectedRegion {
	var regions []domain.ProtectedRegion
	regions = append(regions, findMarkerRegions(raw, definitionMarkers, domain.ProtectedDefinitions)...)
	regions = append(regions, findMarkerRegions(raw, provisoMarkers, domain.ProtectedProviso)...)
	regions = append(regions, findMarkerRegions(raw, explanationMarkers, domain.ProtectedExplanation)...)
	return mergeOverlapping(regions)
}

func findMarkerRegions(raw string, markers []string, kind domain.ProtectedRegionType) []domain.ProtectedRegion {
	var regions []domain.ProtectedRegion
	for _, marker := range markers {
		start := 0
		for {
			idx := indexFold(raw[start:], marker)
			if idx == -1 {
				break
			}
			pos := start + idx
			// A protected region extends to the end of the sentence
			// containing the marker (next '.', '।', or newline).
			end := sentenceEnd(raw, pos+len(marker))
			regions = append(regions, domain.ProtectedRegion{
				Start:  pos,
				End:    end,
				Type:   kind,
				Marker: marker,
			})
			start = pos + len(marker)
			if start >= len(raw) {
				break
			}
		}
	}
	return regions
}

func indexFold(haystack, needle string) int {
	return strings.Index(strings.ToLower(haystack), strings.ToLower(needle))
}

func sentenceEnd(raw string, from int) int {
	for i, r := range raw[from:] {
		if r == '.' || r == '।' || r == '\n' {
			return from + i + len(string(r))
		}
	}
	return len(raw)
}

// mergeOverlapping merges regions of the same coarse span so a later pass
// doesn't double count overlapping marker hits.
func mergeOverlapping(regions []domain.ProtectedRegion) []domain.ProtectedRegion {
	if len(regions) == 0 {
		return regions
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i].Start < regions[j].Start })
	merged := []domain.ProtectedRegion{regions[0]}
	for _, r := range regions[1:] {
		last := &merged[len(merged)-1]
		if r.Start <= last.End {
			if r.End > last.End {
				last.End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

func detectNumericRegions(raw string) []domain.NumericRegion {
	var regions []domain.NumericRegion
	for _, m := range currencyRe.FindAllStringIndex(raw, -1) {
		regions = append(regions, domain.NumericRegion{Start: m[0], End: m[1], Type: "currency"})
	}
	for _, m := range percentRe.FindAllStringIndex(raw, -1) {
		regions = append(regions, domain.NumericRegion{Start: m[0], End: m[1], Type: "percentage"})
	}
	for _, m := range rateRe.FindAllStringIndex(raw, -1) {
		regions = append(regions, domain.NumericRegion{Start: m[0], End: m[1], Type: "rate"})
	}
	for _, m := range numericListRe.FindAllStringIndex(raw, -1) {
		regions = append(regions, domain.NumericRegion{Start: m[0], End: m[1], Type: "tabular_numeric_list"})
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i].Start < regions[j].Start })
	return regions
}

// correctionCandidate is a would-be correction found by the (simplified,
// rule-based) correction scanners below, before protected/numeric
// enforcement is applied.
type correctionCandidate struct {
	transformationType string
	original           string
	corrected          string
	position           int
	riskLevel          domain.RiskLevel
}

// entityReplacements is the encoding-fix class (non-semantic, always
// applied per the class table of §4.4).
var entityReplacements = map[string]string{
	"&nbsp;": " ",
	"&amp;":  "&",
	"&quot;": "\"",
	"&#39;":  "'",
}

// ocrReplacements is a small illustrative OCR/spelling-fix table —
// potential-semantic, applied only outside protected/numeric regions.
var ocrReplacements = map[string]string{
	"Govemment": "Government",
	"Goverment": "Government",
	"shaII":     "shall",
}

func applyCorrections(raw, normalized string, protected []domain.ProtectedRegion, numeric []domain.NumericRegion) (string, []domain.TransformationEntry) {
	var candidates []correctionCandidate

	for literal, replacement := range entityReplacements {
		candidates = append(candidates, findOccurrences(normalized, literal, replacement, "encoding_fix", domain.RiskNonSemantic)...)
	}
	for literal, replacement := range ocrReplacements {
		candidates = append(candidates, findOccurrences(normalized, literal, replacement, "ocr_word_correction", domain.RiskPotentialSemantic)...)
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].position < candidates[j].position })

	corrected := normalized
	var log []domain.TransformationEntry
	offset := 0
	now := time.Now()

	for _, c := range candidates {
		inProtected := inAnyRegion(c.position, protected)
		inNumeric := inAnyNumericRegion(c.position, numeric)

		applied := true
		reason := ""
		if c.riskLevel == domain.RiskPotentialSemantic && (inProtected || inNumeric) {
			applied = false
			if inProtected {
				reason = "protected_section_enforcement"
			} else {
				reason = "numeric_region_enforcement"
			}
		}

		if applied {
			adjustedPos := c.position + offset
			if adjustedPos >= 0 && adjustedPos+len(c.original) <= len(corrected) {
				corrected = corrected[:adjustedPos] + c.corrected + corrected[adjustedPos+len(c.original):]
				offset += len(c.corrected) - len(c.original)
			} else {
				applied = false
				reason = "position_out_of_range"
			}
		}

		log = append(log, domain.TransformationEntry{
			TransformationType: c.transformationType,
			Original:           c.original,
			Corrected:          c.corrected,
			Position:           c.position,
			RiskLevel:          c.riskLevel,
			Applied:            applied,
			Timestamp:          now,
			Reason:             reason,
		})
	}

	if raw != normalized {
		log = append([]domain.TransformationEntry{{
			TransformationType: "unicode_normalization",
			Original:           raw,
			Corrected:          normalized,
			Position:           0,
			RiskLevel:          domain.RiskNonSemantic,
			Applied:            true,
			Timestamp:          now,
		}}, log...)
	}

	return corrected, log
}

func findOccurrences(text, literal, replacement, transformationType string, risk domain.RiskLevel) []correctionCandidate {
	var out []correctionCandidate
	start := 0
	for {
		idx := strings.Index(text[start:], literal)
		if idx == -1 {
			break
		}
		pos := start + idx
		out = append(out, correctionCandidate{
			transformationType: transformationType,
			original:           literal,
			corrected:          replacement,
			position:           pos,
			riskLevel:          risk,
		})
		start = pos + len(literal)
	}
	return out
}

func inAnyRegion(pos int, regions []domain.ProtectedRegion) bool {
	for _, r := range regions {
		if pos >= r.Start && pos < r.End {
			return true
		}
	}
	return false
}

func inAnyNumericRegion(pos int, regions []domain.NumericRegion) bool {
	for _, r := range regions {
		if pos >= r.Start && pos < r.End {
			return true
		}
	}
	return false
}

func languageRatio(raw string) (bengali, english float64) {
	var bengaliCount, englishCount, total int
	for _, r := range raw {
		switch {
		case unicode.Is(unicode.Bengali, r):
			bengaliCount++
			total++
		case unicode.IsLetter(r) && r <= unicode.MaxASCII:
			englishCount++
			total++
		}
	}
	if total == 0 {
		return 0, 0
	}
	return float64(bengaliCount) / float64(total), float64(englishCount) / float64(total)
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// detectLexicalReferences finds cross-reference citations via regex over
// content_raw, with negation-aware confidence classification. It never
// asserts legal meaning — only detection plus a confidence tag (§4.4, §9
// open question).
func detectLexicalReferences(raw string) []domain.LexicalReference {
	var refs []domain.LexicalReference
	for _, m := range crossReferenceRe.FindAllStringIndex(raw, -1) {
		citation := raw[m[0]:m[1]]
		windowStart := m[0] - 40
		if windowStart < 0 {
			windowStart = 0
		}
		window := raw[windowStart:m[0]]
		negated := containsAny(window, negationWords)

		confidence := "medium"
		if negated {
			confidence = "low"
		} else if len(citation) > 20 {
			confidence = "high"
		}

		refs = append(refs, domain.LexicalReference{
			CitationText:    strings.TrimSpace(citation),
			RelationType:    "cross_reference",
			Confidence:      confidence,
			NegationPresent: negated,
		})
	}
	return refs
}
