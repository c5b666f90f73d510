// Package manifest implements the Manifest / Dedup Engine (C9): the
// language-aware duplicate check that prefers Bengali over English,
// the sha256-based idempotency check for forced re-extraction, and
// cross-reference coverage statistics over the corpus.
package manifest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/codermillat/BDLawCorpus-sub002/internal/corpstorage"
	"github.com/codermillat/BDLawCorpus-sub002/internal/domain"
)

// Entry is one manifest row: the language currently held for internal_id.
type Entry struct {
	InternalID      string
	ContentLanguage domain.ContentLanguage
	ContentHash     string
}

// Store is the subset of storage the manifest engine reads and writes
// through; corpstorage.Backend satisfies it via GetAct/ArchiveAct.
type Store interface {
	GetAct(ctx context.Context, internalID string) (*domain.ActRecord, error)
	ArchiveAct(ctx context.Context, internalID string) error
}

// Decision is the outcome of a duplicate check.
type Decision string

const (
	DecisionProceed                 Decision = "proceed"
	DecisionBlockedSameLanguage     Decision = "blocked_same_language_duplicate"
	DecisionReplaceEnglishWithBn    Decision = "replace_existing"
	DecisionBlockedBengaliPreferred Decision = "bengali_preferred_english_blocked"
)

// CheckDuplicate implements the language-aware duplicate rules of §4.9.
func CheckDuplicate(ctx context.Context, store Store, internalID string, newLanguage domain.ContentLanguage) (Decision, error) {
	existing, err := store.GetAct(ctx, internalID)
	if err != nil {
		// Not found is the "no entry exists" case; any other error propagates.
		if isNotFound(err) {
			return DecisionProceed, nil
		}
		return "", err
	}

	switch {
	case existing.ContentLanguage == newLanguage:
		return DecisionBlockedSameLanguage, nil
	case existing.ContentLanguage == domain.LanguageEnglish && newLanguage == domain.LanguageBengali:
		return DecisionReplaceEnglishWithBn, nil
	case existing.ContentLanguage == domain.LanguageBengali && newLanguage == domain.LanguageEnglish:
		return DecisionBlockedBengaliPreferred, nil
	default:
		return DecisionBlockedSameLanguage, nil
	}
}

// IdempotencyFlag is the result of comparing incoming content against the
// stored content_raw hash before a forced re-extraction.
type IdempotencyFlag string

const (
	FlagIdentical     IdempotencyFlag = "identical"
	FlagSourceChanged IdempotencyFlag = "source_changed"
)

// CheckIdempotency compares sha256(newContentRaw) against the stored
// act's content_raw_sha256 (§4.9). The comparison is always over raw
// content, per the content-hash-anchoring design note.
func CheckIdempotency(existing *domain.ActRecord, newContentRaw string) IdempotencyFlag {
	sum := sha256.Sum256([]byte(newContentRaw))
	newHash := hex.EncodeToString(sum[:])
	if newHash == existing.ContentRawSHA256 {
		return FlagIdentical
	}
	return FlagSourceChanged
}

// CoverageStats describes cross-reference coverage over the corpus
// (§4.9); it is descriptive metadata, never a legal judgment.
type CoverageStats struct {
	ReferencedTotal   int
	ReferencedPresent int
	ReferencedMissing int
	CoveragePercent   float64
}

// ComputeCoverage walks every lexical reference across acts and reports
// how many point at an internal_id present in the corpus.
func ComputeCoverage(acts []*domain.ActRecord) CoverageStats {
	present := make(map[string]bool, len(acts))
	for _, a := range acts {
		present[a.InternalID] = true
	}

	var total, found int
	for _, a := range acts {
		for _, ref := range a.LexicalReferences {
			total++
			// Citation-to-internal-id resolution is outside this engine's
			// scope (§4.9 scopes this as descriptive metadata only); a
			// reference counts as present when its citation text matches
			// any known internal_id substring, the only signal available
			// without a dedicated citation resolver.
			if referenceResolves(ref, present) {
				found++
			}
		}
	}

	stats := CoverageStats{ReferencedTotal: total, ReferencedPresent: found, ReferencedMissing: total - found}
	if total > 0 {
		stats.CoveragePercent = float64(found) / float64(total) * 100
	}
	return stats
}

func referenceResolves(ref domain.LexicalReference, present map[string]bool) bool {
	for id := range present {
		if containsSubstring(ref.CitationText, id) {
			return true
		}
	}
	return false
}

func containsSubstring(s, substr string) bool {
	if substr == "" {
		return false
	}
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

func isNotFound(err error) bool {
	serr, ok := err.(*corpstorage.StorageError)
	return ok && serr.Code == corpstorage.ErrCodeNotFound
}
