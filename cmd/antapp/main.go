package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Optional local overrides; absence is not an error.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "antapp",
		Short: "Realtime collaboration server for diagram projects",
		Long: `antapp serves collaborative diagram projects.

It exposes a REST API for projects and their entities (actors,
relations, groups, comments, stars), and a WebSocket relay that
broadcasts cursor movement and entity mutations to every editor
connected to the same project.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
