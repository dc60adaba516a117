package main

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/srg/bgatt/pkg/gatt"
)

// resolveHandle turns a handle literal ("0x0021", "33") or a characteristic
// UUID into an attribute handle, enumerating the device when needed.
func resolveHandle(client *gatt.Client, arg string) (uint16, error) {
	if h, err := strconv.ParseUint(arg, 0, 16); err == nil {
		return uint16(h), nil
	}

	dir, err := client.Characteristics()
	if err != nil {
		return 0, fmt.Errorf("failed to enumerate characteristics: %w", err)
	}
	h, ok := dir.Handle(arg)
	if !ok {
		return 0, fmt.Errorf("characteristic %q not found", arg)
	}
	return h, nil
}

var readCmd = &cobra.Command{
	Use:   "read <address> <handle|uuid>",
	Short: "Read an attribute value",
	Long: fmt.Sprintf(`Connect to a device and read one attribute, addressed either by
its handle or by a characteristic UUID.

Examples:
  %s read 00:07:80:ab:cd:ef 0x0021
  %s read 00:07:80:ab:cd:ef 2a00`, rootCmd.Use, rootCmd.Use),
	Args: cobra.ExactArgs(2),
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

		handle, err := resolveHandle(s.client, args[1])
		if err != nil {
			return err
		}

		value, err := s.client.ReadAttribute(handle)
		if err != nil {
			return fmt.Errorf("failed to read 0x%04x: %w", handle, err)
		}

		fmt.Println(hex.EncodeToString(value))
		return nil
	},
}
