// Package queue implements the Queue Processor (C6): the single-threaded
// cooperative state machine that drives every queued act through
// navigation, the Readiness Gate, Act Extraction, the Fidelity Engine, and
// persistence, with a retry sub-loop for recoverable failures (§4.6, §4.7).
package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/codermillat/BDLawCorpus-sub002/internal/actextract"
	"github.com/codermillat/BDLawCorpus-sub002/internal/corpstorage"
	"github.com/codermillat/BDLawCorpus-sub002/internal/domain"
	"github.com/codermillat/BDLawCorpus-sub002/internal/failure"
	"github.com/codermillat/BDLawCorpus-sub002/internal/fidelity"
	"github.com/codermillat/BDLawCorpus-sub002/internal/manifest"
	"github.com/codermillat/BDLawCorpus-sub002/internal/readiness"
	"github.com/codermillat/BDLawCorpus-sub002/pkg/config"
	"github.com/codermillat/BDLawCorpus-sub002/pkg/corplog"
)

// PageSource is the single shared navigation resource (§5): the Queue
// Processor never dispatches two navigations concurrently. It abstracts
// the host browser tab so the processor can be driven against a real
// collaborator or a fixture in tests.
type PageSource interface {
	// Navigate loads url and blocks until the page-load event fires or
	// the 30s hard timeout elapses (§5 "Timeouts").
	Navigate(ctx context.Context, url string) error
	// Probe returns a readiness probe bound to the currently loaded page.
	Probe() readiness.Probe
	// ExtractAct runs the Act Extractor's DOM read against the currently
	// loaded page with the given options.
	ExtractAct(ctx context.Context, opts actextract.Options) (*actextract.Extraction, error)
}

// Metrics holds the Prometheus collectors the processor updates as it runs.
type Metrics struct {
	Processed prometheus.Counter
	Succeeded prometheus.Counter
	Failed    prometheus.Counter
	Retried   prometheus.Counter
	QueueSize prometheus.Gauge
}

// NewMetrics registers and returns the processor's collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Processed: prometheus.NewCounter(prometheus.CounterOpts{Name: "bdlaw_queue_items_processed_total", Help: "Total queue items processed."}),
		Succeeded: prometheus.NewCounter(prometheus.CounterOpts{Name: "bdlaw_queue_items_succeeded_total", Help: "Total queue items successfully captured."}),
		Failed:    prometheus.NewCounter(prometheus.CounterOpts{Name: "bdlaw_queue_items_failed_total", Help: "Total queue items whose main-loop attempt failed."}),
		Retried:   prometheus.NewCounter(prometheus.CounterOpts{Name: "bdlaw_queue_items_retried_total", Help: "Total retry attempts made."}),
		QueueSize: prometheus.NewGauge(prometheus.GaugeOpts{Name: "bdlaw_queue_pending_items", Help: "Pending items currently in the queue."}),
	}
	if reg != nil {
		reg.MustRegister(m.Processed, m.Succeeded, m.Failed, m.Retried, m.QueueSize)
	}
	return m
}

// Processor drives the FIFO main loop and retry sub-loop against a
// Backend and a PageSource.
type Processor struct {
	backend    corpstorage.Backend
	source     PageSource
	cfg        *config.Config
	log        *corplog.Logger
	metrics    *Metrics
	sessionID  string
	checkpoint *corpstorage.CheckpointManager

	abort bool
}

// New constructs a Processor with a fresh session id that identifies this
// run for WAL intent/complete correlation (§4.8).
func New(backend corpstorage.Backend, source PageSource, cfg *config.Config, log *corplog.Logger, metrics *Metrics) *Processor {
	if log == nil {
		log = corplog.Global()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	checkpoint := corpstorage.NewCheckpointManager(backend, cfg.Checkpoint.IntervalItems)
	return &Processor{backend: backend, source: source, cfg: cfg, log: log.WithComponent("queue"), metrics: metrics, sessionID: uuid.NewString(), checkpoint: checkpoint}
}

// Abort requests cooperative cancellation: the main loop checks the flag
// between items, and the retry sub-loop checks it between retry attempts
// and after each backoff wait (§5). The flag is not checked inside an
// item's navigate/readiness/extract steps, so an item already started
// runs to the end of its attempt.
func (p *Processor) Abort() { p.abort = true }

// enqueueOutcome reports which of the three queue-uniqueness cases (§8
// property 3, §4.2 scenario S1) an enqueue attempt landed in.
type enqueueOutcome string

const (
	enqueueAdded           enqueueOutcome = "added"
	enqueueSkippedInQueue  enqueueOutcome = "skipped_in_queue"
	enqueueSkippedCaptured enqueueOutcome = "skipped_captured"
)

// Enqueue adds an item to the queue, rejecting it if its internal_id
// already exists in the queue or among captured acts (§8 property 3).
// forceReextract overrides the captured-set rejection so an already
// captured internal_id can be re-queued; the language-aware decision
// over whether that re-extraction actually replaces anything is then
// made by the Manifest/Dedup Engine once the new content is in hand
// (§4.9), not here.
func (p *Processor) Enqueue(ctx context.Context, internalID, title, url, volumeNumber string, forceReextract bool) (added bool, err error) {
	outcome, err := p.enqueueOne(ctx, internalID, title, url, volumeNumber, forceReextract)
	if err != nil {
		return false, err
	}
	return outcome == enqueueAdded, nil
}

// enqueueOne is Enqueue's shared implementation, also used by
// EnqueueFromCatalog to tally the three-way result a catalog ingest needs.
func (p *Processor) enqueueOne(ctx context.Context, internalID, title, url, volumeNumber string, forceReextract bool) (enqueueOutcome, error) {
	existingQueue, err := p.backend.ListQueueItems(ctx)
	if err != nil {
		return "", err
	}
	for _, q := range existingQueue {
		if q.InternalID == internalID {
			return enqueueSkippedInQueue, nil
		}
	}
	if !forceReextract {
		if _, err := p.backend.GetAct(ctx, internalID); err == nil {
			return enqueueSkippedCaptured, nil
		}
	}

	item := &domain.QueueItem{
		ID:           uuid.NewString(),
		InternalID:   internalID,
		Title:        title,
		URL:          url,
		VolumeNumber: volumeNumber,
		Status:       domain.StatusPending,
		AddedAt:      time.Now(),
	}
	if err := p.backend.EnqueueItem(ctx, item); err != nil {
		return "", err
	}
	return enqueueAdded, nil
}

// Run drives the FIFO main loop until the queue is empty or Abort is
// called. Interrupted items remain "processing" until ResumeIncomplete
// returns them to "pending" (§4.6).
func (p *Processor) Run(ctx context.Context) error {
	for {
		if p.abort || ctx.Err() != nil {
			return ctx.Err()
		}

		item, err := p.backend.DequeueNextPending(ctx)
		if err != nil {
			return err
		}
		if item == nil {
			return nil
		}

		if err := p.processItem(ctx, item, actextract.Options{SelectorStrategy: actextract.StandardSelectorStrategy}); err != nil {
			return err
		}

		if p.abort || ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// processItem runs one item through navigate → readiness → extraction
// delay → extract → validate → persist, transitioning its status
// throughout (§4.6).
func (p *Processor) processItem(ctx context.Context, item *domain.QueueItem, opts actextract.Options) error {
	item.Status = domain.StatusProcessing
	if err := p.backend.UpdateQueueItem(ctx, item); err != nil {
		return err
	}
	p.metrics.Processed.Inc()

	if err := p.source.Navigate(ctx, item.URL); err != nil {
		return p.recordFailure(ctx, item, domain.ReasonNavigationError, nil)
	}

	readinessResult, err := readiness.WaitUntilReady(ctx, p.source.Probe(), p.cfg.ReadinessTimeout())
	if err != nil {
		return err
	}
	if !readinessResult.Ready {
		return p.recordFailure(ctx, item, readinessResult.Reason, nil)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.cfg.ExtractionDelay()):
	}

	extraction, err := p.source.ExtractAct(ctx, opts)
	hasContent := err == nil && extraction != nil

	result := failure.ExtractionResult{Success: err == nil}
	if hasContent {
		result.HasContentField = true
		result.Content = extraction.ContentText
	}
	classification := failure.Classify(result, "", p.cfg.Queue.MinContentThreshold)

	if !classification.Valid {
		return p.recordFailure(ctx, item, classification.Reason, extraction)
	}

	return p.persistSuccess(ctx, item, extraction)
}

// persistSuccess routes a successful extraction through the Manifest/Dedup
// Engine (C9) before writing it, per the C8+C9 success branch of the data
// flow (§4.9): no existing entry proceeds as a fresh capture; a same-
// language duplicate is skipped unless its content actually changed; an
// existing English entry is archived in favor of new Bengali text; an
// existing Bengali entry blocks a new English capture unconditionally.
func (p *Processor) persistSuccess(ctx context.Context, item *domain.QueueItem, extraction *actextract.Extraction) error {
	fidelityResult := fidelity.Build(extraction.ContentText)

	decision, err := manifest.CheckDuplicate(ctx, p.backend, item.InternalID, fidelityResult.ContentLanguage)
	if err != nil {
		return err
	}

	switch decision {
	case manifest.DecisionBlockedBengaliPreferred:
		return p.completeWithoutWrite(ctx, item, "duplicate blocked: existing Bengali entry is preferred over new English capture")

	case manifest.DecisionBlockedSameLanguage:
		existing, err := p.backend.GetAct(ctx, item.InternalID)
		if err != nil {
			return err
		}
		if manifest.CheckIdempotency(existing, fidelityResult.Versions.Raw) == manifest.FlagIdentical {
			return p.completeWithoutWrite(ctx, item, "duplicate capture is identical to the stored act; skipping re-persist")
		}
		// source_changed: the stored act is stale under an unchanged
		// language, so archive it and fall through to a fresh write.
		if err := p.backend.ArchiveAct(ctx, item.InternalID); err != nil {
			return err
		}

	case manifest.DecisionReplaceEnglishWithBn:
		if err := p.backend.ArchiveAct(ctx, item.InternalID); err != nil {
			return err
		}
		p.log.Info("archiving existing English entry in favor of newly captured Bengali text", map[string]interface{}{"internal_id": item.InternalID})

	case manifest.DecisionProceed:
		// no existing entry; proceed normally.
	}

	if err := p.backend.WriteIntent(ctx, item.InternalID, p.sessionID); err != nil {
		return err
	}

	act := &domain.ActRecord{
		InternalID:        item.InternalID,
		TitleRaw:          extraction.Title,
		TitleNormalized:   extraction.Title,
		ContentRaw:        fidelityResult.Versions.Raw,
		ContentNormalized: fidelityResult.Versions.Normalized,
		ContentCorrected:  fidelityResult.Versions.Corrected,
		ContentRawSHA256:  fidelityResult.ContentRawSHA256,
		URL:               item.URL,
		VolumeNumber:      item.VolumeNumber,
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

	if err := p.backend.PutAct(ctx, act); err != nil {
		return err
	}
	if err := p.backend.WriteComplete(ctx, item.InternalID, p.sessionID, act.ContentRawSHA256); err != nil {
		return err
	}

	item.Status = domain.StatusCompleted
	if err := p.backend.UpdateQueueItem(ctx, item); err != nil {
		return err
	}

	shouldExport, total, err := p.checkpoint.RecordPersisted(ctx, 1)
	if err != nil {
		return err
	}
	if shouldExport {
		p.log.Info("checkpoint threshold reached; export recommended", map[string]interface{}{"persisted_since_checkpoint": total})
	}

	p.metrics.Succeeded.Inc()
	p.log.Info("act captured", map[string]interface{}{"internal_id": item.InternalID})
	return nil
}

// completeWithoutWrite marks item completed without touching the acts
// store, for a dedup decision that blocks or skips the write entirely.
func (p *Processor) completeWithoutWrite(ctx context.Context, item *domain.QueueItem, logMessage string) error {
	item.Status = domain.StatusCompleted
	if err := p.backend.UpdateQueueItem(ctx, item); err != nil {
		return err
	}
	p.metrics.Succeeded.Inc()
	p.log.Info(logMessage, map[string]interface{}{"internal_id": item.InternalID})
	return nil
}

func (p *Processor) recordFailure(ctx context.Context, item *domain.QueueItem, reason domain.FailureReason, extraction *actextract.Extraction) error {
	item.Status = domain.StatusError
	if err := p.backend.UpdateQueueItem(ctx, item); err != nil {
		return err
	}

	strategy := actextract.StandardSelectorStrategy
	if extraction != nil {
		strategy = ""
	}

	f := &domain.FailedExtraction{
		ActID:         item.ID,
		InternalID:    item.InternalID,
		URL:           item.URL,
		Title:         item.Title,
		FailureReason: reason,
		// The failure that built this record is itself attempt 1, so
		// retry_count starts equal to len(attempts), not zero (§3.1).
		RetryCount: 1,
		MaxRetries: p.cfg.Queue.MaxRetries,
		FailedAt:   time.Now(),
		Attempts: []domain.Attempt{{
			AttemptNumber:    1,
			Timestamp:        time.Now(),
			Reason:           reason,
			Outcome:          "failure",
			SelectorStrategy: strategy,
		}},
	}

	if err := p.backend.PutFailedExtraction(ctx, f); err != nil {
		return err
	}
	p.metrics.Failed.Inc()
	p.log.Warn("extraction failed", map[string]interface{}{"internal_id": item.InternalID, "reason": string(reason)})
	return nil
}

// ResumeIncomplete returns queue items left "processing" by an interrupted
// run to "pending" and reports acts left in an intent-only state from a
// prior session, per §4.8 contract 2 and the interruption/resumption model
// of §4.6.
func (p *Processor) ResumeIncomplete(ctx context.Context, priorSessionID string) ([]string, error) {
	items, err := p.backend.ListQueueItems(ctx)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if item.Status == domain.StatusProcessing {
			item.Status = domain.StatusPending
			if err := p.backend.UpdateQueueItem(ctx, item); err != nil {
				return nil, err
			}
		}
	}
	return p.backend.GetIncompleteExtractions(ctx, priorSessionID)
}
