// Package main is the entry point for the character sheet server and
// its offline tooling.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sheet",
	Short: "Pathfinder 2e character sheet engine",
	Long:  `sheet serves and recalculates Pathfinder 2e Remastered characters from declarative rulebook content.`,
}

func main() {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded .env file")
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(recalcCmd)
}
