package main

import (
	"os"

	"github.com/pacsea-project/pacsea/internal/plog"
	"github.com/spf13/cobra"
)

var Version = "dev"

func init() {
	exportCmd.Flags().Bool("dry-run", false, "Report how many names would be exported and to which directory, without writing")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			plog.SetDebug()
		}
	}

	rootCmd.AddCommand(versionCmd, exportCmd, updatesCmd)
}

func main() {
	if os.Geteuid() == 0 {
		plog.Error("pacsea should not be run as root; it asks for sudo when needed. Exiting.")
		os.Exit(1)
	}

	if err := rootCmd.Execute(); err != nil {
		plog.Errorf("%v", err)
		os.Exit(1)
	}
}
