package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KirkDiggler/pf2e-sheet/internal/config"
	"github.com/KirkDiggler/pf2e-sheet/internal/domain/character"
	"github.com/KirkDiggler/pf2e-sheet/internal/engine"
	"github.com/KirkDiggler/pf2e-sheet/internal/rulebook"
)

var recalcCmd = &cobra.Command{
	Use:   "recalc <character.json>",
	Short: "Recalculate a character document offline",
	Long: `recalc reads a character document, rebuilds every derived field against
the configured rulebook content, and writes the result to stdout. Legacy
choice formats are migrated in the process.`,
	Args: cobra.ExactArgs(1),
	RunE: runRecalc,
}

func runRecalc(cmd *cobra.Command, args []string) error {
	log, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, err := rulebook.LoadDir(context.Background(), cfg.Content.Dir)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	chr, err := character.Unmarshal(data)
	if err != nil {
		return err
	}

	e := engine.New(store, log)
	e.AdoptLegacyChoices(chr)
	resolved := e.Recalculate(chr)

	out, err := json.MarshalIndent(resolved, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
