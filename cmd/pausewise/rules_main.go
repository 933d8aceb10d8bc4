package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pausewise/pausewise/internal/engine"
)

// runRules prints the registered rule set in evaluation order
func runRules(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	registry := engine.NewDefaultRegistry(cfg.Engine)

	fmt.Printf("%-24s %-8s %8s\n", "RULE", "TIER", "PRIORITY")
	for _, rule := range registry.Rules() {
		fmt.Printf("%-24s %-8s %8d\n", rule.ID, rule.MinTier, rule.Priority)
	}
	fmt.Printf("\n%d rules registered\n", registry.Len())
	return nil
}
