package readiness

import (
	"context"
	"testing"
	"time"

	"github.com/codermillat/BDLawCorpus-sub002/internal/domain"
)

type scriptedProbe struct {
	states     []DocumentState
	i          int
	hasSignal  bool
	hostError  bool
}

func (p *scriptedProbe) DocumentState(ctx context.Context) (DocumentState, error) {
	if p.i >= len(p.states) {
		return p.states[len(p.states)-1], nil
	}
	s := p.states[p.i]
	p.i++
	return s, nil
}

func (p *scriptedProbe) HasLegalContentSignal(ctx context.Context) (bool, error) {
	return p.hasSignal, nil
}

func (p *scriptedProbe) HostError(ctx context.Context) (bool, error) {
	return p.hostError, nil
}

func TestWaitUntilReady_ReadyWithSignal(t *testing.T) {
	probe := &scriptedProbe{states: []DocumentState{StateInteractive}, hasSignal: true}
	res, err := WaitUntilReady(context.Background(), probe, 2*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Ready {
		t.Fatalf("expected ready, got %+v", res)
	}
}

func TestWaitUntilReady_SelectorMismatch(t *testing.T) {
	probe := &scriptedProbe{states: []DocumentState{StateComplete}, hasSignal: false}
	res, err := WaitUntilReady(context.Background(), probe, 600*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Ready {
		t.Fatal("expected not ready")
	}
	if res.Reason != domain.ReasonContentSelectorMismatch {
		t.Errorf("expected content_selector_mismatch (page rendered but no legal signal), got %v", res.Reason)
	}
}

func TestWaitUntilReady_DomNotReady(t *testing.T) {
	probe := &scriptedProbe{states: []DocumentState{StateLoading}, hasSignal: false}
	res, err := WaitUntilReady(context.Background(), probe, 600*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Ready {
		t.Fatal("expected not ready")
	}
	if res.Reason != domain.ReasonDOMNotReady {
		t.Errorf("expected dom_not_ready, got %v", res.Reason)
	}
}

func TestWaitUntilReady_NetworkError(t *testing.T) {
	probe := &scriptedProbe{states: []DocumentState{StateComplete}, hostError: true}
	res, err := WaitUntilReady(context.Background(), probe, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Ready || res.Reason != domain.ReasonNetworkError {
		t.Errorf("expected network_error, got %+v", res)
	}
}
