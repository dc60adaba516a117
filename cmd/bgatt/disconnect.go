package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var disconnectAll bool

var disconnectCmd = &cobra.Command{
	Use:   "disconnect [slot]",
	Short: "Tear down dongle connection slots",
	Long: fmt.Sprintf(`Disconnect a connection slot the dongle is holding open. The BLED112
keeps up to three connections alive across client restarts; this frees
them without connecting first.

Examples:
  %s disconnect 0
  %s disconnect --all`, rootCmd.Use, rootCmd.Use),
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if disconnectAll == (len(args) == 1) {
			return fmt.Errorf("specify either a slot or --all")
		}

		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if disconnectAll {
			return s.client.DisconnectAll()
		}

		slot, err := strconv.ParseUint(args[0], 10, 8)
		if err != nil {
			return fmt.Errorf("invalid slot %q: %w", args[0], err)
		}
		return s.client.Disconnect(uint8(slot))
	},
}

func init() {
	disconnectCmd.Flags().BoolVar(&disconnectAll, "all", false, "Disconnect every slot")
}
