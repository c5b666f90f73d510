package queue

import (
	"context"
	"sort"
	"time"

	"github.com/codermillat/BDLawCorpus-sub002/internal/actextract"
	"github.com/codermillat/BDLawCorpus-sub002/internal/domain"
	"github.com/codermillat/BDLawCorpus-sub002/internal/failure"
	"github.com/codermillat/BDLawCorpus-sub002/internal/fidelity"
	"github.com/codermillat/BDLawCorpus-sub002/internal/readiness"
)

// RunRetrySubLoop drives every retryable failed extraction through one
// more attempt each, in the order they first failed (§5 ordering
// guarantee). Retries differ from the main loop only in selector breadth
// and backoff timing (§4.7's invariant) — extraction mode, filtering, and
// pattern detection are identical.
func (p *Processor) RunRetrySubLoop(ctx context.Context) error {
	failed, err := p.backend.ListFailedExtractions(ctx)
	if err != nil {
		return err
	}
	sort.SliceStable(failed, func(i, j int) bool { return failed[i].FailedAt.Before(failed[j].FailedAt) })

	for _, f := range failed {
		if p.abort || ctx.Err() != nil {
			return ctx.Err()
		}
		if !failure.ShouldRetry(*f) {
			continue
		}
		if err := p.retryOne(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

func (p *Processor) retryOne(ctx context.Context, f *domain.FailedExtraction) error {
	attemptNumber := f.RetryCount + 1
	backoff := failure.Backoff(p.cfg.RetryBase(), attemptNumber)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(backoff):
	}

	if p.abort || ctx.Err() != nil {
		return ctx.Err()
	}

	p.metrics.Retried.Inc()

	if err := p.source.Navigate(ctx, f.URL); err != nil {
		return p.appendRetryAttempt(ctx, f, attemptNumber, domain.ReasonNavigationError, "broader_selectors")
	}

	readinessResult, err := readiness.WaitUntilReady(ctx, p.source.Probe(), p.cfg.ReadinessTimeout())
	if err != nil {
		return err
	}
	if !readinessResult.Ready {
		return p.appendRetryAttempt(ctx, f, attemptNumber, readinessResult.Reason, "broader_selectors")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.cfg.ExtractionDelay()):
	}

	opts := actextract.Options{UseBroaderSelectors: true, SelectorStrategy: actextract.BroaderSelectorStrategy}
	extraction, err := p.source.ExtractAct(ctx, opts)

	result := failure.ExtractionResult{Success: err == nil}
	if err == nil && extraction != nil {
		result.HasContentField = true
		result.Content = extraction.ContentText
	}
	classification := failure.Classify(result, "", p.cfg.Queue.MinContentThreshold)

	if !classification.Valid {
		return p.appendRetryAttempt(ctx, f, attemptNumber, classification.Reason, "broader_selectors")
	}

	// Success: build the ActRecord from the fidelity engine over the freshly
	// retrieved content, with the same fields the main loop fills except
	// VolumeNumber, which a FailedExtraction does not carry. Unlike the
	// main loop, this path runs no manifest duplicate check and does not
	// advance the checkpoint counter.
	fidelityResult := fidelity.Build(extraction.ContentText)
	act := &domain.ActRecord{
		InternalID:        f.InternalID,
		TitleRaw:          extraction.Title,
		TitleNormalized:   extraction.Title,
		ContentRaw:        fidelityResult.Versions.Raw,
		ContentNormalized: fidelityResult.Versions.Normalized,
		ContentCorrected:  fidelityResult.Versions.Corrected,
		ContentRawSHA256:  fidelityResult.ContentRawSHA256,
		URL:               f.URL,
		ContentLanguage:   fidelityResult.ContentLanguage,
		TransformationLog: fidelityResult.TransformationLog,
		ProtectedSections: fidelityResult.ProtectedSections,
		NumericRegions:    fidelityResult.NumericRegions,
		LexicalReferences: fidelityResult.LexicalReferences,
		SectionRows:       extraction.SectionRows,
		MarkerFrequency:   extraction.MarkerFrequency,
		EditorialContent:  fidelityResult.EditorialContent,
		CapturedAt:        time.Now(),
	}

	if err := p.backend.WriteIntent(ctx, f.InternalID, p.sessionID); err != nil {
		return err
	}
	if err := p.backend.PutAct(ctx, act); err != nil {
		return err
	}
	if err := p.backend.WriteComplete(ctx, f.InternalID, p.sessionID, act.ContentRawSHA256); err != nil {
		return err
	}
	if err := p.backend.RemoveFailedExtraction(ctx, f.InternalID); err != nil {
		return err
	}

	p.metrics.Succeeded.Inc()
	p.log.Info("retry succeeded", map[string]interface{}{"internal_id": f.InternalID, "attempt": attemptNumber})
	return nil
}

// appendRetryAttempt records a retry attempt and, if max_retries has now
// been reached, leaves the entry ready for permanent-failure export
// (§4.7 step 4).
func (p *Processor) appendRetryAttempt(ctx context.Context, f *domain.FailedExtraction, attemptNumber int, reason domain.FailureReason, strategy string) error {
	f.RetryCount = attemptNumber
	f.Attempts = append(f.Attempts, domain.Attempt{
		AttemptNumber:    attemptNumber,
		Timestamp:        time.Now(),
		Reason:           reason,
		Outcome:          "failure",
		SelectorStrategy: strategy,
	})

	if err := p.backend.PutFailedExtraction(ctx, f); err != nil {
		return err
	}

	if f.RetryCount >= f.MaxRetries {
		p.log.Warn("retries exhausted, failure is now permanent", map[string]interface{}{"internal_id": f.InternalID})
	}
	return nil
}
