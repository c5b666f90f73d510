package fidelity

import (
	"strings"
	"testing"

	"github.com/codermillat/BDLawCorpus-sub002/internal/domain"
)

func TestBuildAlwaysProducesThreeVersions(t *testing.T) {
	r := Build("The Government shaII act.")
	if r.Versions.Raw == "" || r.Versions.Normalized == "" || r.Versions.Corrected == "" {
		t.Fatalf("expected all three versions to be non-empty: %+v", r.Versions)
	}
}

func TestProtectedRegionBlocksCorrection(t *testing.T) {
	// "shaII" inside a sentence with "means" (a definitions marker) must
	// not be corrected in content_corrected.
	raw := "\"officer\" means a person who shaII perform duties."
	r := Build(raw)

	if len(r.ProtectedSections) == 0 {
		t.Fatal("expected at least one protected region")
	}

	foundFlagged := false
	for _, entry := range r.TransformationLog {
		if entry.TransformationType == "ocr_word_correction" && entry.Original == "shaII" {
			if entry.Applied {
				t.Errorf("expected correction inside protected region to NOT be applied")
			}
			if entry.Reason != "protected_section_enforcement" {
				t.Errorf("expected protected_section_enforcement reason, got %q", entry.Reason)
			}
			foundFlagged = true
		}
	}
	if !foundFlagged {
		t.Fatal("expected a flagged (but unapplied) transformation log entry for the protected-region correction")
	}

	if !strings.Contains(r.Versions.Corrected, "shaII") {
		t.Error("content_corrected must preserve original text inside the protected region")
	}
}

func TestCorrectionAppliedOutsideProtectedRegion(t *testing.T) {
	raw := "The Govemment issued the order."
	r := Build(raw)
	if strings.Contains(r.Versions.Corrected, "Govemment") {
		t.Error("expected misspelling to be corrected outside any protected/numeric region")
	}
	if !strings.Contains(r.Versions.Corrected, "Government") {
		t.Error("expected corrected spelling to be present")
	}
}

func TestNumericRegionDetection(t *testing.T) {
	raw := "A fee of Tk. 500 and a rate of 10 percent shall apply."
	regions := detectNumericRegions(raw)
	if len(regions) < 2 {
		t.Fatalf("expected currency and rate regions, got %+v", regions)
	}
}

func TestNumericRegionEnforcementBlocksOverlappingCorrection(t *testing.T) {
	raw := "shaII"
	normalized := raw
	numeric := []domain.NumericRegion{{Start: 0, End: len(raw), Type: "currency"}}

	_, log := applyCorrections(raw, normalized, nil, numeric)

	found := false
	for _, e := range log {
		if e.TransformationType == "ocr_word_correction" {
			found = true
			if e.Applied {
				t.Error("expected correction inside a numeric region to NOT be applied")
			}
			if e.Reason != "numeric_region_enforcement" {
				t.Errorf("expected numeric_region_enforcement reason, got %q", e.Reason)
			}
		}
	}
	if !found {
		t.Fatal("expected an ocr_word_correction candidate to be logged")
	}
}

func TestTransformationLogEntriesHaveAllFields(t *testing.T) {
	r := Build("The Govemment shall pay Tk. 100.")
	for _, e := range r.TransformationLog {
		if e.TransformationType == "" || e.RiskLevel == "" || e.Timestamp.IsZero() {
			t.Errorf("transformation log entry missing required fields: %+v", e)
		}
		if e.RiskLevel != domain.RiskNonSemantic && e.RiskLevel != domain.RiskPotentialSemantic {
			t.Errorf("unexpected risk level: %v", e.RiskLevel)
		}
	}
}

func TestContentHashIsOverRawOnly(t *testing.T) {
	raw := "Some  text."
	r := Build(raw)
	if r.ContentRawSHA256 != ContentHash(raw) {
		t.Errorf("content hash mismatch: %s vs %s", r.ContentRawSHA256, ContentHash(raw))
	}
	if r.ContentRawSHA256 == ContentHash(r.Versions.Normalized) && r.Versions.Normalized != raw {
		t.Errorf("hash must not be computed over normalized content")
	}
}

func TestLanguageTagging(t *testing.T) {
	bengali := Build("এই আইনের সংজ্ঞা অনুযায়ী ধারা প্রযোজ্য হইবে।")
	if bengali.ContentLanguage != domain.LanguageBengali {
		t.Errorf("expected bengali tag, got %v", bengali.ContentLanguage)
	}

	english := Build("This Act shall apply according to the definition in this section.")
	if english.ContentLanguage != domain.LanguageEnglish {
		t.Errorf("expected english tag, got %v", english.ContentLanguage)
	}
}
