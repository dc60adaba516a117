package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var characteristicsCmd = &cobra.Command{
	Use:   "characteristics <address>",
	Short: "List the characteristics of a device",
	Long: fmt.Sprintf(`Connect to a device and enumerate its attributes into a
UUID-to-handle table.

Examples:
  %s characteristics 00:07:80:ab:cd:ef`, rootCmd.Use),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.client.ConnectString(args[0]); err != nil {
			return fmt.Errorf("failed to connect to %q: %w", args[0], err)
		}
		defer s.client.DisconnectActive()

		dir, err := s.client.Characteristics()
		if err != nil {
			return fmt.Errorf("failed to enumerate characteristics: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "UUID\tHANDLE")
		dir.Each(func(uuid string, handle uint16) {
			fmt.Fprintf(w, "%s\t0x%04x\n", color.CyanString(uuid), handle)
		})
		return w.Flush()
	},
}
