// Package domain holds the shared data-model types described in the
// corpus specification: catalog entries, queue items, act records, and
// their supporting value types. Keeping these in one package avoids import
// cycles between the pipeline stages that all need to speak the same
// vocabulary (classifier, extractor, fidelity engine, queue, storage).
package domain

import "time"

// PageType is the result of classifying a URL (C1).
type PageType string

const (
	PageRangeIndex         PageType = "range-index"
	PageVolume             PageType = "volume"
	PageChronologicalIndex PageType = "chronological-index"
	PageAlphabeticalIndex  PageType = "alphabetical-index"
	PageActDetails         PageType = "act-details"
	PageActSummary         PageType = "act-summary"
	PageInvalid            PageType = "invalid"
)

// CatalogEntry is a single row extracted from a volume or index page (C2).
type CatalogEntry struct {
	InternalID string `json:"internal_id"`
	Title      string `json:"title"`
	Year       string `json:"year"`
	URL        string `json:"url"`
	RowIndex   int    `json:"row_index"`
}

// QueueStatus enumerates the lifecycle states a QueueItem can be in.
type QueueStatus string

const (
	StatusPending    QueueStatus = "pending"
	StatusProcessing QueueStatus = "processing"
	StatusCompleted  QueueStatus = "completed"
	StatusError      QueueStatus = "error"
	StatusRetrying   QueueStatus = "retrying"
)

// QueueItem represents one act queued for extraction (C6).
type QueueItem struct {
	ID            string      `json:"id"`
	InternalID    string      `json:"internal_id"`
	Title         string      `json:"title"`
	URL           string      `json:"url"`
	VolumeNumber  string      `json:"volume_number,omitempty"`
	Status        QueueStatus `json:"status"`
	AddedAt       time.Time   `json:"added_at"`
}

// FailureReason is the closed taxonomy of §7.
type FailureReason string

const (
	ReasonContainerNotFound       FailureReason = "container_not_found"
	ReasonContentEmpty            FailureReason = "content_empty"
	ReasonContentBelowThreshold   FailureReason = "content_below_threshold"
	ReasonContentSelectorMismatch FailureReason = "content_selector_mismatch"
	ReasonDOMNotReady             FailureReason = "dom_not_ready"
	ReasonDOMTimeout              FailureReason = "dom_timeout" // legacy alias
	ReasonNetworkError            FailureReason = "network_error"
	ReasonNavigationError         FailureReason = "navigation_error"
	ReasonExtractionError         FailureReason = "extraction_error"
	ReasonUnknownError            FailureReason = "unknown_error"
)

// Attempt records a single retry attempt against a failed extraction.
type Attempt struct {
	AttemptNumber     int       `json:"attempt_number"`
	Timestamp         time.Time `json:"timestamp"`
	Reason            FailureReason `json:"reason"`
	Outcome           string    `json:"outcome"` // "success" | "failure"
	SelectorStrategy  string    `json:"selector_strategy"`
}

// FailedExtraction is the persisted record of an act that did not make it
// into the corpus (C7).
type FailedExtraction struct {
	ActID        string        `json:"act_id"`
	InternalID   string        `json:"internal_id"`
	URL          string        `json:"url"`
	Title        string        `json:"title"`
	FailureReason FailureReason `json:"failure_reason"`
	RetryCount   int           `json:"retry_count"`
	MaxRetries   int           `json:"max_retries"`
	FailedAt     time.Time     `json:"failed_at"`
	Attempts     []Attempt     `json:"attempts"`
}

// ContentLanguage is the detected dominant language of an act's text.
type ContentLanguage string

const (
	LanguageBengali ContentLanguage = "bengali"
	LanguageEnglish ContentLanguage = "english"
)

// RiskLevel classifies a transformation's semantic risk (§4.4).
type RiskLevel string

const (
	RiskNonSemantic       RiskLevel = "non-semantic"
	RiskPotentialSemantic RiskLevel = "potential-semantic"
)

// TransformationEntry is one append-only provenance record in the
// transformation log.
type TransformationEntry struct {
	TransformationType string    `json:"transformation_type"`
	Original           string    `json:"original"`
	Corrected          string    `json:"corrected"`
	Position           int       `json:"position"`
	RiskLevel          RiskLevel `json:"risk_level"`
	Applied            bool      `json:"applied"`
	Timestamp          time.Time `json:"timestamp"`
	Reason             string    `json:"reason,omitempty"`
}

// ProtectedRegionType enumerates the kinds of protected spans.
type ProtectedRegionType string

const (
	ProtectedDefinitions ProtectedRegionType = "definitions"
	ProtectedProviso     ProtectedRegionType = "proviso"
	ProtectedExplanation ProtectedRegionType = "explanation"
)

// ProtectedRegion is a span whose exact wording must not be corrected.
type ProtectedRegion struct {
	Start  int                 `json:"start"`
	End    int                 `json:"end"`
	Type   ProtectedRegionType `json:"type"`
	Marker string              `json:"marker"`
}

// NumericRegion is a span containing currency/percentage/rate/tabular
// numeric content that must not be corrected.
type NumericRegion struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Type  string `json:"type"`
}

// LexicalReference is a detected cross-reference to another act.
type LexicalReference struct {
	CitationText     string `json:"citation_text"`
	RelationType     string `json:"relation_type"`
	Confidence       string `json:"confidence"` // low | medium | high
	NegationPresent  bool   `json:"negation_present"`
}

// SectionRow is a heading/body pair extracted from the act body (C3).
type SectionRow struct {
	Heading  string `json:"heading"`
	Body     string `json:"body"`
	HasTable bool   `json:"has_table"`
}

// DataQuality captures the act's completeness and risk disclosures.
type DataQuality struct {
	Completeness             float64  `json:"completeness"`
	CompletenessDisclaimer   string   `json:"completeness_disclaimer"`
	Flags                    []string `json:"flags"`
	MLRiskFactors            []string `json:"ml_risk_factors"`
	KnownLimitations         []string `json:"known_limitations"`
	MLUsageWarning           string   `json:"ml_usage_warning"`
}

// ActRecord is the captured, durable representation of a successfully
// extracted act (§3.1; serialized per §6.1).
type ActRecord struct {
	InternalID         string                 `json:"internal_id"`
	TitleRaw           string                 `json:"title_raw"`
	TitleNormalized    string                 `json:"title_normalized"`
	ContentRaw         string                 `json:"content_raw"`
	ContentNormalized  string                 `json:"content_normalized"`
	ContentCorrected   string                 `json:"content_corrected"`
	ContentRawSHA256   string                 `json:"content_raw_sha256"`
	URL                string                 `json:"url"`
	VolumeNumber       string                 `json:"volume_number"`
	ContentLanguage    ContentLanguage        `json:"content_language"`
	TransformationLog  []TransformationEntry  `json:"transformation_log"`
	ProtectedSections  []ProtectedRegion      `json:"protected_sections"`
	NumericRegions     []NumericRegion        `json:"numeric_regions"`
	LexicalReferences  []LexicalReference     `json:"lexical_references"`
	DataQuality        DataQuality            `json:"data_quality"`
	SectionRows        []SectionRow           `json:"section_rows,omitempty"`
	MarkerFrequency    map[string]MarkerCount `json:"marker_frequency"`
	EditorialContent   bool                   `json:"editorial_content_present"`
	CapturedAt         time.Time              `json:"captured_at"`
}

// MarkerCount records a raw string-frequency count and the method used to
// produce it (always "string_frequency" — never a structural section
// count, per §4.3 and the forbidden-fields list of §6.1).
type MarkerCount struct {
	Count  int    `json:"count"`
	Method string `json:"method"`
}
