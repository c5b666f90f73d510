// Package readiness implements the Readiness Gate (C5): it waits for the
// active page to become extractable and classifies non-readiness with the
// precision the Failure Tracker depends on (§4.5).
package readiness

import (
	"context"
	"time"

	"github.com/codermillat/BDLawCorpus-sub002/internal/domain"
)

// DocumentState mirrors the host page's readyState.
type DocumentState string

const (
	StateLoading     DocumentState = "loading"
	StateInteractive DocumentState = "interactive"
	StateComplete    DocumentState = "complete"
)

// Probe is polled by WaitUntilReady. It models the in-browser collaborator
// the Queue Processor talks to: document state, presence of a legal-content
// signal, and whether the host reports a navigation-level error (error
// page, unreachable host) ahead of any script injection.
type Probe interface {
	// DocumentState returns the current readyState of the active page.
	DocumentState(ctx context.Context) (DocumentState, error)
	// HasLegalContentSignal reports whether at least one legal-content
	// signal is present: act-title element, enactment clause, first
	// numbered section, or body-length-plus-marker.
	HasLegalContentSignal(ctx context.Context) (bool, error)
	// HostError reports a host-level navigation error (error page,
	// unreachable), detected without any script injection.
	HostError(ctx context.Context) (bool, error)
}

// Result is the outcome of the readiness gate.
type Result struct {
	Ready  bool
	Reason domain.FailureReason // populated only when Ready == false
}

const pollInterval = 500 * time.Millisecond

// WaitUntilReady polls probe at ~500ms intervals up to timeout. It accepts
// as soon as the document is interactive or complete AND a legal-content
// signal is present; completion is never required on its own (§4.5).
func WaitUntilReady(ctx context.Context, probe Probe, timeout time.Duration) (*Result, error) {
	deadline := time.Now().Add(timeout)

	reachedInteractiveOrComplete := false

	for {
		if hostErr, err := probe.HostError(ctx); err == nil && hostErr {
			return &Result{Ready: false, Reason: domain.ReasonNetworkError}, nil
		}

		state, err := probe.DocumentState(ctx)
		if err != nil {
			return nil, err
		}

		if state == StateInteractive || state == StateComplete {
			reachedInteractiveOrComplete = true

			signal, err := probe.HasLegalContentSignal(ctx)
			if err != nil {
				return nil, err
			}
			if signal {
				return &Result{Ready: true}, nil
			}
		}

		if time.Now().After(deadline) {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}

	if reachedInteractiveOrComplete {
		return &Result{Ready: false, Reason: domain.ReasonContentSelectorMismatch}, nil
	}
	return &Result{Ready: false, Reason: domain.ReasonDOMNotReady}, nil
}
