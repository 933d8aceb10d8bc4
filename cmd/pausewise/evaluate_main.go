package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pausewise/pausewise/internal/domain"
	"github.com/pausewise/pausewise/internal/engine"
)

// runEvaluate runs the rule set against a snapshot file and prints the
// interventions as JSON. Useful for tuning thresholds without a server.
func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	snapshotPath, _ := cmd.Flags().GetString("snapshot")
	tierName, _ := cmd.Flags().GetString("tier")

	data, err := os.ReadFile(snapshotPath)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parse snapshot: %w", err)
	}
	if snap.CapturedAt.IsZero() {
		snap.CapturedAt = time.Now().UTC()
	}

	ruleEngine := engine.New(engine.NewDefaultRegistry(cfg.Engine), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tier := domain.ParseTier(tierName)
	results, err := ruleEngine.Evaluate(ctx, &snap, tier)
	if err != nil {
		return fmt.Errorf("evaluate snapshot: %w", err)
	}

	out, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("render results: %w", err)
	}
	fmt.Println(string(out))

	if len(results) == 0 {
		fmt.Printf("No interventions for tier %s\n", tier)
	} else {
		fmt.Printf("%d intervention(s) for tier %s, highest risk %s\n",
			len(results), tier, domain.HighestRisk(results))
	}
	return nil
}
