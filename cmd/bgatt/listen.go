package main

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var listenCount int

var listenCmd = &cobra.Command{
	Use:   "listen <address>",
	Short: "Stream notifications from a device",
	Long: fmt.Sprintf(`Connect to a device and print incoming attribute notifications as
they arrive. Stops after --count notifications, or runs until
interrupted when --count is 0.

Examples:
  %s listen 00:07:80:ab:cd:ef
  %s listen 00:07:80:ab:cd:ef --count 5`, rootCmd.Use, rootCmd.Use),
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

		received := 0
		for listenCount == 0 || received < listenCount {
			err := s.client.Listen(func(handle uint16, payload []byte) {
				received++
				fmt.Printf("%s  %s  %s\n",
					time.Now().Format(time.RFC3339),
					color.CyanString("0x%04x", handle),
					hex.EncodeToString(payload))
			})
			if err != nil {
				return fmt.Errorf("listen failed: %w", err)
			}
		}
		return nil
	},
}

func init() {
	listenCmd.Flags().IntVarP(&listenCount, "count", "c", 0, "Stop after this many notifications (0 = forever)")
}
