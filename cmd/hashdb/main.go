package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dfir-forensics/hashdb/pkg/log"
)

var (
	// Version information (set via ldflags during build)
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "hashdb",
	Short:   "Content-addressed block-hash database for digital-forensics triage",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("hashdb version %s (%s)\n", Version, Commit))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging, loadDefaults)

	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(rebuildBloomCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(duplicatesCmd)
	rootCmd.AddCommand(settingsCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

// commandString reconstructs the invoked command line for audit-log
// attribution (spec §6: create_hashdb/rebuild_bloom take a
// command_string argument).
func commandString(cmd *cobra.Command, args []string) string {
	s := cmd.CommandPath()
	for _, a := range args {
		s += " " + a
	}
	return s
}
