package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sqlint/triagebot/internal/events"
)

const cleanupBatchSize = 500

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Prune old audit events",
	Long: `Prune the local audit store: delete events older than the
configured retention window, then cap each issue at the configured
per-issue limit (oldest events go first). The cleanup itself is
recorded as an audit event.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		byAge, err := store.CleanupByAge(ctx, cfg.Audit.RetentionDays, cleanupBatchSize)
		if err != nil {
			return fmt.Errorf("failed to prune by age: %w", err)
		}
		byLimit, err := store.CleanupByIssueLimit(ctx, cfg.Audit.PerIssueLimit, cleanupBatchSize)
		if err != nil {
			return fmt.Errorf("failed to prune by issue limit: %w", err)
		}

		event := events.New(events.EventTypeCleanupCompleted, "", "", cfg.Actor,
			events.SeverityInfo,
			fmt.Sprintf("audit cleanup removed %d events", byAge+byLimit),
			map[string]interface{}{
				"deleted_by_age":   byAge,
				"deleted_by_limit": byLimit,
				"retention_days":   cfg.Audit.RetentionDays,
				"per_issue_limit":  cfg.Audit.PerIssueLimit,
			})
		if err := store.StoreEvent(ctx, event); err != nil {
			return fmt.Errorf("failed to record cleanup: %w", err)
		}

		fmt.Printf("Removed %d events (%d by age, %d by per-issue limit)\n",
			byAge+byLimit, byAge, byLimit)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}
