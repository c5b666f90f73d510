package failure

import (
	"testing"
	"time"

	"github.com/codermillat/BDLawCorpus-sub002/internal/domain"
)

func TestClassifyDecisionOrder(t *testing.T) {
	tests := []struct {
		name      string
		result    ExtractionResult
		readiness domain.FailureReason
		threshold int
		want      domain.FailureReason
		wantValid bool
	}{
		{"unsuccessful", ExtractionResult{Success: false}, "", 100, domain.ReasonExtractionError, false},
		{"no content field, selector mismatch readiness", ExtractionResult{Success: true, HasContentField: false}, domain.ReasonContentSelectorMismatch, 100, domain.ReasonContentSelectorMismatch, false},
		{"no content field, other readiness", ExtractionResult{Success: true, HasContentField: false}, domain.ReasonDOMNotReady, 100, domain.ReasonContainerNotFound, false},
		{"empty content", ExtractionResult{Success: true, HasContentField: true, Content: ""}, "", 100, domain.ReasonContentEmpty, false},
		{"below threshold", ExtractionResult{Success: true, HasContentField: true, Content: "short"}, "", 100, domain.ReasonContentBelowThreshold, false},
		{"valid", ExtractionResult{Success: true, HasContentField: true, Content: string(make([]byte, 200))}, "", 100, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.result, tt.readiness, tt.threshold)
			if got.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v", got.Valid, tt.wantValid)
			}
			if !tt.wantValid && got.Reason != tt.want {
				t.Errorf("Reason = %v, want %v", got.Reason, tt.want)
			}
		})
	}
}

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name string
		f    domain.FailedExtraction
		want bool
	}{
		{"retryable and under limit", domain.FailedExtraction{FailureReason: domain.ReasonContentSelectorMismatch, RetryCount: 1, MaxRetries: 3}, true},
		{"retryable legacy alias", domain.FailedExtraction{FailureReason: domain.ReasonContainerNotFound, RetryCount: 0, MaxRetries: 3}, true},
		{"retryable but exhausted", domain.FailedExtraction{FailureReason: domain.ReasonContentSelectorMismatch, RetryCount: 3, MaxRetries: 3}, false},
		{"dom_not_ready never retryable", domain.FailedExtraction{FailureReason: domain.ReasonDOMNotReady, RetryCount: 0, MaxRetries: 3}, false},
		{"network_error never retryable", domain.FailedExtraction{FailureReason: domain.ReasonNetworkError, RetryCount: 0, MaxRetries: 3}, false},
		{"content_empty never retryable", domain.FailedExtraction{FailureReason: domain.ReasonContentEmpty, RetryCount: 0, MaxRetries: 3}, false},
		{"content_below_threshold never retryable", domain.FailedExtraction{FailureReason: domain.ReasonContentBelowThreshold, RetryCount: 0, MaxRetries: 3}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldRetry(tt.f); got != tt.want {
				t.Errorf("ShouldRetry() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBackoffExponential(t *testing.T) {
	base := 5 * time.Second
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 5 * time.Second},
		{2, 10 * time.Second},
		{3, 20 * time.Second},
		{4, 40 * time.Second},
	}
	for _, tt := range tests {
		if got := Backoff(base, tt.attempt); got != tt.want {
			t.Errorf("Backoff(%v, %d) = %v, want %v", base, tt.attempt, got, tt.want)
		}
	}
}
