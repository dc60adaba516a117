package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var writeCmd = &cobra.Command{
	Use:   "write <address> <handle|uuid> <hex-payload>",
	Short: "Write an attribute value",
	Long: fmt.Sprintf(`Connect to a device and write a value to one attribute. The payload
is hex encoded; a leading 0x is accepted.

Examples:
  %s write 00:07:80:ab:cd:ef 0x0021 01ff
  %s write 00:07:80:ab:cd:ef 2a39 0x16`, rootCmd.Use, rootCmd.Use),
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := hex.DecodeString(strings.TrimPrefix(args[2], "0x"))
		if err != nil {
			return fmt.Errorf("invalid hex payload %q: %w", args[2], err)
		}

		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.client.ConnectString(args[0]); err != nil {
			return fmt.Errorf("failed to connect to %q: %w", args[0], err)
		}
		defer s.client.DisconnectActive()

		handle, err := resolveHandle(s.client, args[1])
		if err != nil {
			return err
		}

		if err := s.client.WriteAttribute(handle, payload); err != nil {
			return fmt.Errorf("failed to write 0x%04x: %w", handle, err)
		}

		fmt.Printf("wrote %d byte(s) to 0x%04x\n", len(payload), handle)
		return nil
	},
}
