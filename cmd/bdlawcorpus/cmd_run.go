package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/codermillat/BDLawCorpus-sub002/internal/pageclassifier"
	"github.com/codermillat/BDLawCorpus-sub002/internal/queue"
	"github.com/codermillat/BDLawCorpus-sub002/pkg/corplog"
)

var (
	demoMode bool
	httpAddr string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the queue processor's main loop, then its retry sub-loop",
	Long: `run drives every pending queue item through navigate, readiness,
extraction, fidelity, and persistence, then gives every recoverable
failure one more attempt with broader selectors.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&demoMode, "demo", false, "queue a small built-in fixture corpus (run has no other page source and fails without this flag)")
	runCmd.Flags().StringVar(&httpAddr, "http", "", "address to serve /metrics, /healthz, and the /api/queue, /api/acts, /api/failed, and /api/catalog endpoints on while running (e.g. :8090)")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open storage backend: %w", err)
	}
	defer backend.Close(ctx)

	log := corplog.Global().WithComponent("cmd-run")
	metrics := queue.NewMetrics(prometheus.DefaultRegisterer)

	var source queue.PageSource
	var seed map[string]fixturePage
	if demoMode {
		seed = demoFixtures()
		source = newFixtureSource(seed)
	} else {
		return fmt.Errorf("run without --demo requires a live browser-extension host; no PageSource wired")
	}

	proc := queue.New(backend, source, cfg, log, metrics)

	if httpAddr != "" {
		srv := newAdminServer(httpAddr, backend, proc, cfg.ExportDir)
		go func() {
			if err := srv.ListenAndServe(); err != nil {
				log.Warn("admin http server stopped", map[string]interface{}{"error": err.Error()})
			}
		}()
	}

	for url := range seed {
		internalID := pageclassifier.ExtractInternalID(url)
		volumeNumber := pageclassifier.ExtractVolumeNumber(url)
		added, err := proc.Enqueue(ctx, internalID, internalID, url, volumeNumber, false)
		if err != nil {
			return fmt.Errorf("failed to enqueue %s: %w", url, err)
		}
		if added {
			log.Info("enqueued act", map[string]interface{}{"internal_id": internalID, "url": url})
		}
	}

	if err := proc.Run(ctx); err != nil {
		return fmt.Errorf("main loop stopped early: %w", err)
	}
	log.Info("main loop drained queue", nil)

	if err := proc.RunRetrySubLoop(ctx); err != nil {
		return fmt.Errorf("retry sub-loop stopped early: %w", err)
	}
	log.Info("retry sub-loop finished", nil)

	acts, err := backend.ListActs(ctx)
	if err != nil {
		return err
	}
	failed, err := backend.ListFailedExtractions(ctx)
	if err != nil {
		return err
	}
	log.Info("run complete", map[string]interface{}{"captured": len(acts), "failed": len(failed)})
	return nil
}
