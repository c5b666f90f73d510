package main

import (
	"context"
	"fmt"

	"github.com/codermillat/BDLawCorpus-sub002/internal/actextract"
	"github.com/codermillat/BDLawCorpus-sub002/internal/domreader"
	"github.com/codermillat/BDLawCorpus-sub002/internal/readiness"
)

// fixturePage is one canned page the demo source can navigate to, standing
// in for what the real DOM reader collaborator would return over the wire.
type fixturePage struct {
	html  string
	ready bool
}

// fixtureSource is a queue.PageSource backed by a fixed set of pages rather
// than a live browser tab. It exists so `bdlawcorpus run --demo` exercises
// the full navigate/readiness/extract/persist loop without a real host.
type fixtureSource struct {
	pages   map[string]fixturePage
	current *fixturePage
}

func newFixtureSource(pages map[string]fixturePage) *fixtureSource {
	return &fixtureSource{pages: pages}
}

func (s *fixtureSource) Navigate(ctx context.Context, url string) error {
	page, ok := s.pages[url]
	if !ok {
		return fmt.Errorf("no fixture page registered for %s", url)
	}
	s.current = &page
	return nil
}

func (s *fixtureSource) Probe() readiness.Probe {
	return &fixtureProbe{page: s.current}
}

func (s *fixtureSource) ExtractAct(ctx context.Context, opts actextract.Options) (*actextract.Extraction, error) {
	doc, err := domreader.Parse(s.current.html)
	if err != nil {
		return nil, err
	}
	return actextract.ExtractAct(doc, opts)
}

type fixtureProbe struct {
	page *fixturePage
}

func (p *fixtureProbe) DocumentState(ctx context.Context) (readiness.DocumentState, error) {
	return readiness.StateComplete, nil
}

func (p *fixtureProbe) HasLegalContentSignal(ctx context.Context) (bool, error) {
	return p.page != nil && p.page.ready, nil
}

func (p *fixtureProbe) HostError(ctx context.Context) (bool, error) {
	return false, nil
}

// demoFixtures is the small, hand-written corpus used by `run --demo`.
func demoFixtures() map[string]fixturePage {
	bengaliAct := `<html><body><div class="act-title">গণপ্রজাতন্ত্রী বাংলাদেশের একটি আইন</div>
<div class="act-content"><p>ধারা ১। এই আইন তাৎক্ষণিকভাবে কার্যকর হইবে।</p>
<p>ধারা ২। এই আইনের উদ্দেশ্য জনস্বার্থ রক্ষা করা।</p></div></body></html>`

	englishAct := `<html><body><div class="act-title">The Sample Act, 1980</div>
<div class="act-content"><p>Section 1. This Act may be cited as the Sample Act, 1980.</p>
<p>Section 2. It extends to the whole of Bangladesh.</p></div></body></html>`

	return map[string]fixturePage{
		"http://bdlaws.minlaw.gov.bd/act-details-9001.html": {html: bengaliAct, ready: true},
		"http://bdlaws.minlaw.gov.bd/act-details-9002.html": {html: englishAct, ready: true},
		"http://bdlaws.minlaw.gov.bd/act-details-9003.html": {html: "<html><body><div class=\"unrelated\">nothing legal here</div></body></html>", ready: false},
	}
}
