package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sqlint/triagebot/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration and bootstrap the databases",
	Long: `Write a commented default configuration to .triagebot/config.yaml
under the project root and create the tracker and audit databases.
Refuses to overwrite an existing config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.Save(projectRoot)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		tr, err := openTracker(context.Background(), cfg)
		if err != nil {
			return fmt.Errorf("failed to bootstrap tracker database: %w", err)
		}
		tr.Close()
		store, err := openStore(cfg)
		if err != nil {
			return fmt.Errorf("failed to bootstrap audit database: %w", err)
		}
		store.Close()

		fmt.Printf("Created %s and %s\n", cfg.TrackerDBPath, cfg.Audit.Path)
		fmt.Println("Edit the config to restrict capabilities, change triggers, or enable the LLM scorer.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
