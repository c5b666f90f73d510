// Package failure implements the Failure Tracker (C7): classification of
// extraction results into the closed failure taxonomy, the static
// retryability table, and exponential backoff computation.
package failure

import (
	"time"

	"github.com/codermillat/BDLawCorpus-sub002/internal/domain"
)

// ExtractionResult is the minimal shape the classifier needs from an
// attempted extraction.
type ExtractionResult struct {
	Success          bool
	HasContentField  bool
	Content          string
}

// Classification is the outcome of Classify.
type Classification struct {
	Valid  bool
	Reason domain.FailureReason // zero value when Valid
}

// retryable is the static table from DESIGN NOTE §9 ("Retry policy encoded
// as a table"): only content_selector_mismatch and the legacy
// container_not_found alias are retryable.
var retryable = map[domain.FailureReason]bool{
	domain.ReasonContentSelectorMismatch: true,
	domain.ReasonContainerNotFound:       true,
}

// Classify implements the decision order of §4.7.
func Classify(result ExtractionResult, readinessReason domain.FailureReason, minContentThreshold int) Classification {
	if !result.Success {
		return Classification{Valid: false, Reason: domain.ReasonExtractionError}
	}
	if !result.HasContentField {
		if readinessReason == domain.ReasonContentSelectorMismatch {
			return Classification{Valid: false, Reason: domain.ReasonContentSelectorMismatch}
		}
		return Classification{Valid: false, Reason: domain.ReasonContainerNotFound}
	}
	if len(result.Content) == 0 {
		return Classification{Valid: false, Reason: domain.ReasonContentEmpty}
	}
	if len(result.Content) < minContentThreshold {
		return Classification{Valid: false, Reason: domain.ReasonContentBelowThreshold}
	}
	return Classification{Valid: true}
}

// ShouldRetry reports whether a failed extraction is eligible for another
// attempt: the failure reason must be retryable AND retry_count must still
// be below max_retries (§4.7, §8 property 6).
func ShouldRetry(f domain.FailedExtraction) bool {
	return retryable[f.FailureReason] && f.RetryCount < f.MaxRetries
}

// Backoff computes base * 2^(attempt-1) for the retry sub-loop (§4.7
// step 1, §8 property 6).
func Backoff(base time.Duration, attemptNumber int) time.Duration {
	if attemptNumber < 1 {
		attemptNumber = 1
	}
	d := base
	for i := 1; i < attemptNumber; i++ {
		d *= 2
	}
	return d
}
