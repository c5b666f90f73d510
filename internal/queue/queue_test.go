package queue

import (
	"context"
	"testing"
	"time"

	"github.com/codermillat/BDLawCorpus-sub002/internal/actextract"
	"github.com/codermillat/BDLawCorpus-sub002/internal/corpstorage"
	"github.com/codermillat/BDLawCorpus-sub002/internal/domain"
	"github.com/codermillat/BDLawCorpus-sub002/internal/readiness"
	"github.com/codermillat/BDLawCorpus-sub002/pkg/config"
)

type fakeProbe struct {
	ready  bool
	signal bool
}

func (p *fakeProbe) DocumentState(ctx context.Context) (readiness.DocumentState, error) {
	return readiness.StateComplete, nil
}
func (p *fakeProbe) HasLegalContentSignal(ctx context.Context) (bool, error) { return p.signal, nil }
func (p *fakeProbe) HostError(ctx context.Context) (bool, error)             { return false, nil }

type fakeSource struct {
	probe      *fakeProbe
	extraction *actextract.Extraction
	extractErr error
	navErr     error
}

func (s *fakeSource) Navigate(ctx context.Context, url string) error { return s.navErr }
func (s *fakeSource) Probe() readiness.Probe                         { return s.probe }
func (s *fakeSource) ExtractAct(ctx context.Context, opts actextract.Options) (*actextract.Extraction, error) {
	return s.extraction, s.extractErr
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Queue.ReadinessTimeoutSeconds = 5
	cfg.Queue.ExtractionDelayMillis = 1
	cfg.clamp()
	return cfg
}

func TestProcessorRunSucceedsAndPersistsAct(t *testing.T) {
	backend := corpstorage.NewMemoryBackend()
	source := &fakeSource{
		probe:      &fakeProbe{signal: true},
		extraction: &actextract.Extraction{Title: "Test Act", ContentText: string(make([]byte, 200))},
	}
	p := New(backend, source, testConfig(), nil, nil)

	added, err := p.Enqueue(context.Background(), "act-1", "Test Act", "http://example.com/act-1", "", false)
	if err != nil || !added {
		t.Fatalf("enqueue failed: added=%v err=%v", added, err)
	}

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	act, err := backend.GetAct(context.Background(), "act-1")
	if err != nil {
		t.Fatalf("expected act persisted, got error: %v", err)
	}
	if act.ContentRawSHA256 == "" {
		t.Error("expected non-empty content_raw_sha256")
	}

	items, _ := backend.ListQueueItems(context.Background())
	if len(items) != 1 || items[0].Status != "completed" {
		t.Errorf("expected queue item completed, got %+v", items)
	}
}

func TestProcessorRunRecordsSelectorMismatchFailure(t *testing.T) {
	backend := corpstorage.NewMemoryBackend()
	source := &fakeSource{probe: &fakeProbe{signal: false}}
	p := New(backend, source, testConfig(), nil, nil)

	p.Enqueue(context.Background(), "act-2", "Test Act", "http://example.com/act-2", "", false)
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	f, err := backend.GetFailedExtraction(context.Background(), "act-2")
	if err != nil {
		t.Fatalf("expected failed extraction recorded: %v", err)
	}
	if f.FailureReason != "content_selector_mismatch" {
		t.Errorf("expected content_selector_mismatch, got %v", f.FailureReason)
	}
}

func TestEnqueueRejectsDuplicateInternalID(t *testing.T) {
	backend := corpstorage.NewMemoryBackend()
	p := New(backend, &fakeSource{probe: &fakeProbe{}}, testConfig(), nil, nil)

	added1, _ := p.Enqueue(context.Background(), "act-3", "Test", "http://x", "", false)
	added2, _ := p.Enqueue(context.Background(), "act-3", "Test", "http://x", "", false)

	if !added1 || added2 {
		t.Errorf("expected first enqueue to succeed and second to be rejected, got %v %v", added1, added2)
	}
}

func TestEnqueueRejectsAlreadyCapturedUnlessForced(t *testing.T) {
	backend := corpstorage.NewMemoryBackend()
	ctx := context.Background()
	if err := backend.PutAct(ctx, &domain.ActRecord{InternalID: "act-5", ContentLanguage: domain.LanguageEnglish}); err != nil {
		t.Fatalf("seed act: %v", err)
	}
	p := New(backend, &fakeSource{probe: &fakeProbe{}}, testConfig(), nil, nil)

	added, err := p.Enqueue(ctx, "act-5", "Test", "http://x", "", false)
	if err != nil || added {
		t.Fatalf("expected already-captured act-5 to be rejected without force, got added=%v err=%v", added, err)
	}

	added, err = p.Enqueue(ctx, "act-5", "Test", "http://x", "", true)
	if err != nil || !added {
		t.Fatalf("expected forceReextract to re-queue act-5, got added=%v err=%v", added, err)
	}
}

// TestPersistSuccessReplacesEnglishWithBengali exercises the C9 dedup
// engine's replace_existing branch through the full capture path: a
// forced re-extraction that comes back in Bengali archives the existing
// English act rather than being rejected outright.
func TestPersistSuccessReplacesEnglishWithBengali(t *testing.T) {
	backend := corpstorage.NewMemoryBackend()
	ctx := context.Background()
	if err := backend.PutAct(ctx, &domain.ActRecord{
		InternalID:       "act-6",
		ContentLanguage:  domain.LanguageEnglish,
		ContentRawSHA256: "stale",
	}); err != nil {
		t.Fatalf("seed act: %v", err)
	}

	bengaliContent := "ধারা ১। এই আইন তাৎক্ষণিকভাবে কার্যকর হইবে। ধারা ২। এই আইনের উদ্দেশ্য জনস্বার্থ রক্ষা করা।"
	source := &fakeSource{
		probe:      &fakeProbe{signal: true},
		extraction: &actextract.Extraction{Title: "Replacement Act", ContentText: bengaliContent},
	}
	p := New(backend, source, testConfig(), nil, nil)

	added, err := p.Enqueue(ctx, "act-6", "Replacement Act", "http://example.com/act-6", "", true)
	if err != nil || !added {
		t.Fatalf("expected forced enqueue to succeed, got added=%v err=%v", added, err)
	}

	if err := p.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	act, err := backend.GetAct(ctx, "act-6")
	if err != nil {
		t.Fatalf("expected act-6 persisted, got error: %v", err)
	}
	if act.ContentLanguage != domain.LanguageBengali {
		t.Errorf("expected replacement act to be stored as Bengali, got %v", act.ContentLanguage)
	}
	if act.ContentRawSHA256 == "stale" {
		t.Error("expected content hash to be recomputed for the replacement act")
	}
}

func TestRetrySubLoopEscalatesToBroaderSelectors(t *testing.T) {
	backend := corpstorage.NewMemoryBackend()
	source := &fakeSource{
		probe:      &fakeProbe{signal: true},
		extraction: &actextract.Extraction{Title: "Retried Act", ContentText: string(make([]byte, 200))},
	}
	cfg := testConfig()
	cfg.Queue.RetryBaseSeconds = 1
	cfg.clamp()
	p := New(backend, source, cfg, nil, nil)

	// Seed directly via the same path Run would have used for a failure.
	failingSource := &fakeSource{probe: &fakeProbe{signal: false}}
	p.source = failingSource
	p.Enqueue(context.Background(), "act-4", "Test", "http://example.com/act-4", "", false)
	p.Run(context.Background())

	p.source = source // next attempt succeeds with broader selectors
	cfg.Queue.RetryBaseSeconds = 0
	cfg.clamp()

	done := make(chan error, 1)
	go func() { done <- p.RunRetrySubLoop(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RunRetrySubLoop: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("retry sub-loop did not complete in time")
	}

	if _, err := backend.GetAct(context.Background(), "act-4"); err != nil {
		t.Errorf("expected act-4 captured after retry, got error: %v", err)
	}
}
