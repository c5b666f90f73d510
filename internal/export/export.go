// Package export implements the Export Writer (C10): per-act JSON export,
// failed-act export, volume/corpus manifests, and the research documents,
// all written to fixed filename patterns (§6.5).
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codermillat/BDLawCorpus-sub002/internal/domain"
)

const sourceAuthority = "Bangladesh Laws and Regulations Portal (archival mirror)"

// Identifiers disambiguates the internal catalog id from a legal citation.
type Identifiers struct {
	InternalID string `json:"internal_id"`
	Note       string `json:"note"`
}

// LexicalReferenceBlock wraps the reference list with its count.
type LexicalReferenceBlock struct {
	Count int                       `json:"count"`
	Items []domain.LexicalReference `json:"items"`
}

// Schedules reports how any tabular schedule content was handled.
type Schedules struct {
	Representation   string `json:"representation"`
	ExtractionMethod string `json:"extraction_method"`
	Processed        bool   `json:"processed"`
	HTMLContent      string `json:"html_content,omitempty"`
}

// ExtractionRisk flags a possibly truncated extraction and the reason.
type ExtractionRisk struct {
	PossibleTruncation bool   `json:"possible_truncation"`
	Reason             string `json:"reason,omitempty"`
}

// TrustBoundary states what a downstream consumer can and cannot trust
// about this export (§6.1, §9 "safe-for-ML is forbidden language").
type TrustBoundary struct {
	CanTrust     []string `json:"can_trust"`
	MustNotTrust []string `json:"must_not_trust"`
}

func defaultTrustBoundary() TrustBoundary {
	return TrustBoundary{
		CanTrust: []string{
			"content_raw is a verbatim capture of the source page at extraction time",
			"content_raw_sha256 is a valid integrity anchor for content_raw",
			"transformation_log records every correction considered, applied or not",
		},
		MustNotTrust: []string{
			"marker_frequency as a structural section count — it is a raw string frequency",
			"this export as a restatement of legal effect or currency of the law",
			"ml_risk_factors / ml_usage_warning as a safety guarantee for ML training",
		},
	}
}

// ActExport is the per-act success export (§6.1). ActExport and
// FailedExport are kept as a tagged-variant pair: a given file is exactly
// one of the two, never a mix of content and failure metadata.
type ActExport struct {
	Identifiers             Identifiers                   `json:"identifiers"`
	TitleRaw                string                        `json:"title_raw"`
	TitleNormalized         string                        `json:"title_normalized"`
	ContentRaw              string                        `json:"content_raw"`
	ContentNormalized       string                        `json:"content_normalized"`
	ContentCorrected        string                        `json:"content_corrected"`
	ContentRawSHA256        string                        `json:"content_raw_sha256"`
	URL                     string                        `json:"url"`
	VolumeNumber            string                        `json:"volume_number"`
	LegalStatus             string                        `json:"legal_status"`
	TemporalStatus          string                        `json:"temporal_status"`
	TemporalDisclaimer      string                        `json:"temporal_disclaimer"`
	LexicalReferences       LexicalReferenceBlock         `json:"lexical_references"`
	Schedules               Schedules                     `json:"schedules"`
	TransformationLog       []domain.TransformationEntry  `json:"transformation_log"`
	ProtectedSections       []domain.ProtectedRegionType  `json:"protected_sections"`
	NumericRegions          []numericRegionExport         `json:"numeric_regions"`
	DataQuality             domain.DataQuality            `json:"data_quality"`
	ExtractionRisk          ExtractionRisk                `json:"extraction_risk"`
	NumericRepresentation   []string                      `json:"numeric_representation"`
	LanguageDistribution    map[string]float64            `json:"language_distribution"`
	EditorialContentPresent bool                          `json:"editorial_content_present"`
	SourceAuthority         string                        `json:"source_authority"`
	AuthorityRank           int                           `json:"authority_rank"`
	MarkerFrequency         map[string]domain.MarkerCount `json:"marker_frequency"`
	TrustBoundary           TrustBoundary                 `json:"trust_boundary"`
}

type numericRegionExport struct {
	Start                     int    `json:"start"`
	End                       int    `json:"end"`
	Type                      string `json:"type"`
	NumericIntegritySensitive bool   `json:"numeric_integrity_sensitive"`
}

// FailedExport is the failed-act export (§6.3): all three content
// versions are null and the full attempt history is retained.
type FailedExport struct {
	Identifiers       Identifiers          `json:"identifiers"`
	ExtractionStatus  string               `json:"extraction_status"`
	FailureReason     domain.FailureReason `json:"failure_reason"`
	Attempts          int                  `json:"attempts"`
	AttemptHistory    []domain.Attempt     `json:"attempt_history"`
	ContentRaw        *string              `json:"content_raw"`
	ContentNormalized *string              `json:"content_normalized"`
	ContentCorrected  *string              `json:"content_corrected"`
	Metadata          failedMetadata       `json:"_metadata"`
	TrustBoundary     TrustBoundary        `json:"trust_boundary"`
}

type failedMetadata struct {
	FirstAttemptAt         time.Time `json:"first_attempt_at"`
	LastAttemptAt          time.Time `json:"last_attempt_at"`
	MaxRetriesReached      bool      `json:"max_retries_reached"`
	SelectorStrategiesUsed []string  `json:"selector_strategies_used"`
}

// BuildActExport assembles the export wire format for a successfully
// captured act.
func BuildActExport(act *domain.ActRecord) *ActExport {
	protectedTypes := make([]domain.ProtectedRegionType, 0, len(act.ProtectedSections))
	seen := make(map[domain.ProtectedRegionType]bool)
	for _, r := range act.ProtectedSections {
		if !seen[r.Type] {
			seen[r.Type] = true
			protectedTypes = append(protectedTypes, r.Type)
		}
	}

	numeric := make([]numericRegionExport, 0, len(act.NumericRegions))
	for _, r := range act.NumericRegions {
		numeric = append(numeric, numericRegionExport{Start: r.Start, End: r.End, Type: r.Type, NumericIntegritySensitive: true})
	}

	volumeNumber := act.VolumeNumber
	if volumeNumber == "" {
		volumeNumber = "unknown"
	}

	return &ActExport{
		Identifiers:             Identifiers{InternalID: act.InternalID, Note: "internal catalog identifier; not a legal citation"},
		TitleRaw:                act.TitleRaw,
		TitleNormalized:         act.TitleNormalized,
		ContentRaw:              act.ContentRaw,
		ContentNormalized:       act.ContentNormalized,
		ContentCorrected:        act.ContentCorrected,
		ContentRawSHA256:        act.ContentRawSHA256,
		URL:                     act.URL,
		VolumeNumber:            volumeNumber,
		LegalStatus:             "archival capture; not a determination of current legal force",
		TemporalStatus:          "as-captured",
		TemporalDisclaimer:      "this text reflects the source page at capture time and may not reflect subsequent amendment or repeal",
		LexicalReferences:       LexicalReferenceBlock{Count: len(act.LexicalReferences), Items: act.LexicalReferences},
		Schedules:               Schedules{Representation: "none", ExtractionMethod: "text_extraction", Processed: len(act.SectionRows) > 0},
		TransformationLog:       act.TransformationLog,
		ProtectedSections:       protectedTypes,
		NumericRegions:          numeric,
		DataQuality:             act.DataQuality,
		ExtractionRisk:          ExtractionRisk{PossibleTruncation: act.DataQuality.Completeness < 1.0, Reason: firstOrEmpty(act.DataQuality.Flags)},
		NumericRepresentation:   []string{"original_script"},
		LanguageDistribution:    map[string]float64{string(act.ContentLanguage): 1.0},
		EditorialContentPresent: act.EditorialContent,
		SourceAuthority:         sourceAuthority,
		AuthorityRank:           1,
		MarkerFrequency:         act.MarkerFrequency,
		TrustBoundary:           defaultTrustBoundary(),
	}
}

func firstOrEmpty(flags []string) string {
	if len(flags) == 0 {
		return ""
	}
	return flags[0]
}

// BuildFailedExport assembles the export wire format for a permanently
// failed extraction (§6.3).
func BuildFailedExport(f *domain.FailedExtraction) *FailedExport {
	strategies := make(map[string]bool)
	var order []string
	var first, last time.Time
	for i, a := range f.Attempts {
		if i == 0 || a.Timestamp.Before(first) {
			first = a.Timestamp
		}
		if a.Timestamp.After(last) {
			last = a.Timestamp
		}
		if !strategies[a.SelectorStrategy] {
			strategies[a.SelectorStrategy] = true
			order = append(order, a.SelectorStrategy)
		}
	}

	return &FailedExport{
		Identifiers:       Identifiers{InternalID: f.InternalID, Note: "internal catalog identifier; not a legal citation"},
		ExtractionStatus:  "failed",
		FailureReason:     f.FailureReason,
		Attempts:          len(f.Attempts),
		AttemptHistory:    f.Attempts,
		ContentRaw:        nil,
		ContentNormalized: nil,
		ContentCorrected:  nil,
		Metadata: failedMetadata{
			FirstAttemptAt:         first,
			LastAttemptAt:          last,
			MaxRetriesReached:      f.RetryCount >= f.MaxRetries,
			SelectorStrategiesUsed: order,
		},
		TrustBoundary: defaultTrustBoundary(),
	}
}

// Timestamp formats t as ISO-8601 with ':' and '.' replaced by '-',
// truncated to seconds, per §6.5's filename convention.
func Timestamp(t time.Time) string {
	s := t.UTC().Truncate(time.Second).Format(time.RFC3339)
	s = strings.ReplaceAll(s, ":", "-")
	s = strings.ReplaceAll(s, ".", "-")
	return s
}

// ActFilename returns the fixed filename pattern for a successful act export.
func ActFilename(internalID string, t time.Time) string {
	return fmt.Sprintf("bdlaw_act_%s_%s.json", internalID, Timestamp(t))
}

// FailedActFilename returns the fixed filename pattern for a failed-act export.
func FailedActFilename(internalID string, t time.Time) string {
	return fmt.Sprintf("bdlaw_act_%s_FAILED_%s.json", internalID, Timestamp(t))
}

// VolumeFilename returns the fixed filename pattern for a volume catalog export.
func VolumeFilename(volumeNumber string, t time.Time) string {
	return fmt.Sprintf("bdlaw_volume_%s_%s.json", volumeNumber, Timestamp(t))
}

// VolumeExport is the volume catalog export (§6.4/§6.5): the ordered list
// of acts the Catalog Extractor (C2) found on one volume or index page,
// kept as its own file separate from any individual act export.
type VolumeExport struct {
	VolumeNumber string                `json:"volume_number"`
	EntryCount   int                   `json:"entry_count"`
	Entries      []domain.CatalogEntry `json:"entries"`
}

// BuildVolumeExport assembles the export wire format for one volume or
// index page's catalog entries.
func BuildVolumeExport(volumeNumber string, entries []domain.CatalogEntry) *VolumeExport {
	return &VolumeExport{VolumeNumber: volumeNumber, EntryCount: len(entries), Entries: entries}
}

// ManifestFilename returns the fixed filename pattern for the corpus manifest.
func ManifestFilename(t time.Time) string {
	return fmt.Sprintf("bdlaw_corpus_manifest_%s.json", Timestamp(t))
}

// Writer writes export files to a directory on disk.
type Writer struct {
	OutDir string
	// PaceDelay is the short delay between batch writes (§4.10).
	PaceDelay time.Duration
	// Concurrency bounds how many files are written in flight at once.
	Concurrency int
}

// NewWriter constructs a Writer with sane batch-export pacing defaults.
func NewWriter(outDir string) *Writer {
	return &Writer{OutDir: outDir, PaceDelay: 50 * time.Millisecond, Concurrency: 4}
}

func (w *Writer) writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir for %s: %w", path, err)
	}
	return os.WriteFile(path, data, 0o644)
}

// WriteAct writes one successful act export.
func (w *Writer) WriteAct(act *domain.ActRecord, at time.Time) error {
	return w.writeJSON(filepath.Join(w.OutDir, ActFilename(act.InternalID, at)), BuildActExport(act))
}

// WriteFailedAct writes one failed-act export.
func (w *Writer) WriteFailedAct(f *domain.FailedExtraction, at time.Time) error {
	return w.writeJSON(filepath.Join(w.OutDir, FailedActFilename(f.InternalID, at)), BuildFailedExport(f))
}

// WriteVolume writes one volume catalog export (C10, §6.4/§6.5).
func (w *Writer) WriteVolume(volumeNumber string, entries []domain.CatalogEntry, at time.Time) error {
	return w.writeJSON(filepath.Join(w.OutDir, VolumeFilename(volumeNumber, at)), BuildVolumeExport(volumeNumber, entries))
}

// WriteBatch exports every successful act and failed extraction as
// separate files, pacing writes with a short delay per §4.10. A bounded
// worker pool (golang.org/x/sync/errgroup) keeps disk contention low
// while honoring the pacing delay between dispatches.
func (w *Writer) WriteBatch(ctx context.Context, acts []*domain.ActRecord, failed []*domain.FailedExtraction, at time.Time) error {
	g, ctx := errgroup.WithContext(ctx)
	if w.Concurrency > 0 {
		g.SetLimit(w.Concurrency)
	}

	for _, act := range acts {
		act := act
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.PaceDelay):
			}
			return w.WriteAct(act, at)
		})
	}
	for _, f := range failed {
		f := f
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.PaceDelay):
			}
			return w.WriteFailedAct(f, at)
		})
	}

	return g.Wait()
}
