package export

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/codermillat/BDLawCorpus-sub002/internal/domain"
)

func sampleAct() *domain.ActRecord {
	return &domain.ActRecord{
		InternalID:        "act-1",
		TitleRaw:          "Some Act, 1980",
		TitleNormalized:   "Some Act, 1980",
		ContentRaw:        "raw",
		ContentNormalized: "raw",
		ContentCorrected:  "raw",
		ContentRawSHA256:  "deadbeef",
		ContentLanguage:   domain.LanguageBengali,
		MarkerFrequency:   map[string]domain.MarkerCount{"section": {Count: 3, Method: "string_frequency"}},
		DataQuality:       domain.DataQuality{Completeness: 1.0},
	}
}

func TestBuildActExportVolumeNumberDefaultsToUnknown(t *testing.T) {
	act := sampleAct()
	exp := BuildActExport(act)
	if exp.VolumeNumber != "unknown" {
		t.Errorf("expected volume_number 'unknown' when absent, got %q", exp.VolumeNumber)
	}
}

func TestBuildActExportForbiddenFieldsAbsent(t *testing.T) {
	exp := BuildActExport(sampleAct())
	data, err := json.Marshal(exp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var generic map[string]interface{}
	json.Unmarshal(data, &generic)

	for _, forbidden := range []string{"structured_sections", "tables", "amendments", "sections_detected"} {
		if _, present := generic[forbidden]; present {
			t.Errorf("forbidden field %q present in export", forbidden)
		}
	}
}

func TestBuildActExportMarkerFrequencyIsObject(t *testing.T) {
	exp := BuildActExport(sampleAct())
	if exp.MarkerFrequency == nil {
		t.Fatal("expected marker_frequency to be present")
	}
	if exp.MarkerFrequency["section"].Method != "string_frequency" {
		t.Errorf("expected string_frequency method, got %q", exp.MarkerFrequency["section"].Method)
	}
}

func TestBuildFailedExportAllContentVersionsNull(t *testing.T) {
	f := &domain.FailedExtraction{
		InternalID:    "act-2",
		FailureReason: domain.ReasonContentSelectorMismatch,
		RetryCount:    3,
		MaxRetries:    3,
		Attempts: []domain.Attempt{
			{AttemptNumber: 1, Timestamp: time.Now(), SelectorStrategy: "standard_selectors", Outcome: "failure"},
			{AttemptNumber: 2, Timestamp: time.Now(), SelectorStrategy: "broader_selectors", Outcome: "failure"},
		},
	}
	exp := BuildFailedExport(f)
	if exp.ContentRaw != nil || exp.ContentNormalized != nil || exp.ContentCorrected != nil {
		t.Error("expected all three content fields null in a failed export")
	}
	if !exp.Metadata.MaxRetriesReached {
		t.Error("expected max_retries_reached true")
	}
}

func TestFilenamePatterns(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if got := ActFilename("act-1", ts); got != "bdlaw_act_act-1_2026-01-02T03-04-05Z.json" {
		t.Errorf("unexpected act filename: %s", got)
	}
	if got := FailedActFilename("act-1", ts); got != "bdlaw_act_act-1_FAILED_2026-01-02T03-04-05Z.json" {
		t.Errorf("unexpected failed act filename: %s", got)
	}
	if got := ManifestFilename(ts); got != "bdlaw_corpus_manifest_2026-01-02T03-04-05Z.json" {
		t.Errorf("unexpected manifest filename: %s", got)
	}
}

func TestTimestampReplacesColonsAndDots(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 500000000, time.UTC)
	got := Timestamp(ts)
	for _, c := range got {
		if c == ':' || c == '.' {
			t.Fatalf("expected no ':' or '.' in timestamp, got %q", got)
		}
	}
}
