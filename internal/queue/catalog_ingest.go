package queue

import (
	"context"

	"github.com/codermillat/BDLawCorpus-sub002/internal/catalog"
	"github.com/codermillat/BDLawCorpus-sub002/internal/domain"
	"github.com/codermillat/BDLawCorpus-sub002/internal/domreader"
	"github.com/codermillat/BDLawCorpus-sub002/internal/pageclassifier"
)

// CatalogIngestResult tallies the outcome of enqueuing every act the
// Catalog Extractor (C2) found on one volume or index page, mirroring the
// addActsToQueue scenario of §4.2 (S1: a 3-row catalog yields
// added/skippedInQueue/skippedCaptured counts). Entries and VolumeNumber
// are carried through so a caller can pair this ingest with an
// export.Writer.WriteVolume call over the same catalog read (§6.4/§6.5).
type CatalogIngestResult struct {
	Added           int
	SkippedInQueue  int
	SkippedCaptured int
	VolumeNumber    string
	Entries         []domain.CatalogEntry
	Warnings        []catalog.Warning
}

// EnqueueFromCatalog runs the Catalog Extractor (C2) over doc — a parsed
// volume or index page — and enqueues every act it finds, tallying how
// many were newly added versus rejected by the queue-uniqueness and
// captured-set checks (§8 property 3). pageURL is the volume/index page
// itself, used only to derive the volume number each entry is tagged
// with; entries never carry their own volume number.
func (p *Processor) EnqueueFromCatalog(ctx context.Context, pageURL string, doc *domreader.Document) (CatalogIngestResult, error) {
	entries, warnings := catalog.ExtractEntries(doc)
	volumeNumber := pageclassifier.ExtractVolumeNumber(pageURL)

	result := CatalogIngestResult{VolumeNumber: volumeNumber, Entries: entries, Warnings: warnings}
	for _, entry := range entries {
		outcome, err := p.enqueueOne(ctx, entry.InternalID, entry.Title, entry.URL, volumeNumber, false)
		if err != nil {
			return result, err
		}
		switch outcome {
		case enqueueAdded:
			result.Added++
		case enqueueSkippedInQueue:
			result.SkippedInQueue++
		case enqueueSkippedCaptured:
			result.SkippedCaptured++
		}
	}
	return result, nil
}
