package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/codermillat/BDLawCorpus-sub002/internal/domain"
	"github.com/codermillat/BDLawCorpus-sub002/internal/manifest"
)

// CorpusManifest is the aggregate export describing the whole corpus at
// export time (§6.4).
type CorpusManifest struct {
	GeneratedAt     time.Time                `json:"generated_at"`
	TotalActs       int                      `json:"total_acts"`
	TotalFailed     int                      `json:"total_failed"`
	Languages       map[string]int           `json:"languages"`
	CrossReference  manifest.CoverageStats   `json:"cross_reference_coverage"`
	Entries         []manifest.Entry         `json:"entries"`
}

// BuildCorpusManifest aggregates act and failure lists into the corpus
// manifest; coverage is descriptive metadata, not a legal judgment (§4.9).
func BuildCorpusManifest(acts []*domain.ActRecord, failed []*domain.FailedExtraction, at time.Time) *CorpusManifest {
	languages := make(map[string]int)
	entries := make([]manifest.Entry, 0, len(acts))
	for _, a := range acts {
		languages[string(a.ContentLanguage)]++
		entries = append(entries, manifest.Entry{InternalID: a.InternalID, ContentLanguage: a.ContentLanguage, ContentHash: a.ContentRawSHA256})
	}

	return &CorpusManifest{
		GeneratedAt:    at,
		TotalActs:      len(acts),
		TotalFailed:    len(failed),
		Languages:      languages,
		CrossReference: manifest.ComputeCoverage(acts),
		Entries:        entries,
	}
}

// WriteCorpusManifest writes the aggregate manifest file.
func (w *Writer) WriteCorpusManifest(acts []*domain.ActRecord, failed []*domain.FailedExtraction, at time.Time) error {
	return w.writeJSON(filepath.Join(w.OutDir, ManifestFilename(at)), BuildCorpusManifest(acts, failed, at))
}

// WriteResearchDocs emits the three fixed research documents (README,
// CITATION, DATA_DICTIONARY) derived from the corpus manifest (§6.4).
func (w *Writer) WriteResearchDocs(cm *CorpusManifest) error {
	if err := os.MkdirAll(w.OutDir, 0o755); err != nil {
		return err
	}

	readme := fmt.Sprintf(`# BDLawCorpus export

Generated: %s
Total acts: %d
Total failed extractions: %d

This corpus is an archival text capture. It is not a restatement of legal
effect or currency of the underlying law. See trust_boundary in each
per-act file for what can and cannot be trusted about this export.
`, cm.GeneratedAt.Format(time.RFC3339), cm.TotalActs, cm.TotalFailed)

	citation := fmt.Sprintf(`BDLawCorpus (archival export), generated %s.
Source: %s.
Cite the per-act internal_id and content_raw_sha256 alongside this export's
generation timestamp, not a legal citation — internal_id is a catalog
identifier, not a statutory citation.
`, cm.GeneratedAt.Format(time.RFC3339), sourceAuthority)

	dictionary := `# Data dictionary

- identifiers.internal_id: catalog identifier, not a legal citation.
- content_raw: verbatim capture; the sole basis for content_raw_sha256.
- content_normalized: Unicode NFC normalization of content_raw.
- content_corrected: content_normalized with non-semantic and permitted
  potential-semantic corrections applied; see transformation_log for
  provenance of every change considered.
- marker_frequency: raw string-frequency counts, never a structural
  section count.
- protected_sections: region *types* only, never the underlying text.
- numeric_regions: spans excluded from potential-semantic correction.
- ml_risk_factors / ml_usage_warning: replaces any "safe for ML" claim;
  never a boolean safety guarantee.
`

	if err := os.WriteFile(filepath.Join(w.OutDir, "README.md"), []byte(readme), 0o644); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(w.OutDir, "CITATION.md"), []byte(citation), 0o644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(w.OutDir, "DATA_DICTIONARY.md"), []byte(dictionary), 0o644)
}
