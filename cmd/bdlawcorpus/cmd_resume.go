package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codermillat/BDLawCorpus-sub002/pkg/corplog"
)

var priorSessionID string

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Report acts left in an intent-only state by an interrupted session",
	Long: `resume reads the write-ahead log for the given session id and lists
every act that has an intent entry with no matching complete entry — the
set a crashed or killed run left half-written (§4.8).`,
	RunE: runResume,
}

func init() {
	resumeCmd.Flags().StringVar(&priorSessionID, "session", "", "session id of the interrupted run (required)")
	resumeCmd.MarkFlagRequired("session")
}

func runResume(cmd *cobra.Command, args []string) error {
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

	incomplete, err := backend.GetIncompleteExtractions(ctx, priorSessionID)
	if err != nil {
		return err
	}

	log := corplog.Global().WithComponent("cmd-resume")
	if len(incomplete) == 0 {
		log.Info("no incomplete extractions found for session", map[string]interface{}{"session_id": priorSessionID})
		return nil
	}

	log.Warn("found acts left incomplete by an interrupted session", map[string]interface{}{
		"session_id": priorSessionID,
		"count":      len(incomplete),
	})
	for _, internalID := range incomplete {
		fmt.Println(internalID)
	}
	return nil
}
