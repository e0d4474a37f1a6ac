// Command relayd runs the relay supervisor daemon, or sends a control
// operation to a running instance's admin API.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "relayd",
	Short: "Relay supervisor: mirrors upstream audio mountpoints and maintains the slave-host redirect table",
}

var adminAddr string

func init() {
	rootCmd.PersistentFlags().StringVar(&adminAddr, "admin-addr", "http://localhost:8010", "admin API base address, for control subcommands")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reloadCmd)
	rootCmd.AddCommand(rescanCmd)
	rootCmd.AddCommand(rebuildCmd)
	rootCmd.AddCommand(statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("relayd exited with error", "error", err)
		os.Exit(1)
	}
}
