package main

import (
	"fmt"
	"os"
	"unicode"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// formatVersion adds 'v' prefix if version starts with a digit
func formatVersion(ver string) string {
	if len(ver) > 0 && unicode.IsDigit(rune(ver[0])) {
		return "v" + ver
	}
	return ver
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bgatt",
	Short: "GATT client for BLED112 serial dongles",
	Long: `GATT client driver for BlueGiga BLED112 USB dongles speaking BGAPI:

- Scan for nearby BLE devices
- Connect to a peripheral, reviving connections the dongle kept alive
- Enumerate characteristics into a UUID-to-handle directory
- Read and write attribute values by handle
- Stream unsolicited notifications

The dongle enumerates as a serial port (/dev/ttyACM0 by default); point
--port elsewhere or drop the setting into a YAML config file.`,
	Version: formatVersion(version),
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		os.Exit(1)
	}
}

func init() {
	// Silence Cobra's "Error:" prefix - main() prints clean errors
	rootCmd.SilenceErrors = true

	// Add subcommands
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(characteristicsCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(writeCmd)
	rootCmd.AddCommand(listenCmd)
	rootCmd.AddCommand(disconnectCmd)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().String("port", "", "Serial port of the BLED112 dongle")
	rootCmd.PersistentFlags().Int("baud", 0, "Serial baud rate")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")

	// Add -v as a short flag for --version
	rootCmd.Flags().BoolP("version", "v", false, "Show version information")
}
