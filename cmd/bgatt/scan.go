package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/cornelk/hashmap"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/srg/bgatt/pkg/gatt"
)

var (
	scanDuration time.Duration
	scanFormat   string
	scanAll      bool
)

// scanResult is one deduplicated advertiser.
type scanResult struct {
	Address string `json:"address"`
	RSSI    int8   `json:"rssi"`
	Data    string `json:"data,omitempty"`
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for nearby BLE devices",
	Long: fmt.Sprintf(`Scan for nearby BLE devices and print each advertiser once.

Examples:
  %s scan
  %s scan --duration 30s --format json
  %s scan --all`, rootCmd.Use, rootCmd.Use, rootCmd.Use),
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		format := effectiveFormat(cmd.Flags().Changed("format"), scanFormat, s.cfg.OutputFormat)

		seen := hashmap.New[string, *scanResult]()
		var order []string
		deadline := time.Now().Add(scanDuration)

		err = s.client.Discover(func(rssi int8, addr gatt.Address, data []byte) bool {
			key := addr.String()
			r := &scanResult{Address: key, RSSI: rssi, Data: hex.EncodeToString(data)}
			if _, loaded := seen.GetOrInsert(key, r); !loaded {
				order = append(order, key)
			} else if !scanAll {
				return time.Now().Before(deadline)
			}
			seen.Set(key, r)
			if scanAll {
				printResult(r)
			}
			return time.Now().Before(deadline)
		})
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}

		if scanAll {
			return nil
		}

		results := make([]*scanResult, 0, len(order))
		for _, key := range order {
			if r, ok := seen.Get(key); ok {
				results = append(results, r)
			}
		}
		return printResults(format, results)
	},
}

// effectiveFormat prefers an explicit --format flag over the configured
// output format.
func effectiveFormat(flagSet bool, flag, configured string) string {
	if flagSet || configured == "" {
		return flag
	}
	return configured
}

func printResult(r *scanResult) {
	fmt.Printf("%s\t%d\t%s\n", color.CyanString(r.Address), r.RSSI, r.Data)
}

func printResults(format string, results []*scanResult) error {
	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case "table":
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ADDRESS\tRSSI\tDATA")
		for _, r := range results {
			fmt.Fprintf(w, "%s\t%d\t%s\n", color.CyanString(r.Address), r.RSSI, r.Data)
		}
		return w.Flush()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func init() {
	scanCmd.Flags().DurationVarP(&scanDuration, "duration", "d", 10*time.Second, "How long to scan")
	scanCmd.Flags().StringVarP(&scanFormat, "format", "f", "table", "Output format (table, json)")
	scanCmd.Flags().BoolVar(&scanAll, "all", false, "Print every advertisement instead of deduplicating")
}
