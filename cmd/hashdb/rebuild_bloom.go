package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dfir-forensics/hashdb/pkg/hashdb"
)

var rebuildBloomCmd = &cobra.Command{
	Use:   "rebuild-bloom <dir>",
	Short: "Rebuild the Bloom filter from the hash-data store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		h, err := hashdb.Open(dir)
		if err != nil {
			return err
		}
		defer h.Close()

		used, _ := cmd.Flags().GetBool("bloom-used")
		m, _ := cmd.Flags().GetUint64("bloom-m")
		k, _ := cmd.Flags().GetInt("bloom-k")
		if m == 0 {
			m = h.Settings().BloomM
		}
		if k == 0 {
			k = h.Settings().BloomK
		}

		if err := h.RebuildBloom(used, m, k, commandString(cmd, args)); err != nil {
			return err
		}
		fmt.Println("bloom filter rebuilt")
		return nil
	},
}

func init() {
	rebuildBloomCmd.Flags().Bool("bloom-used", true, "enable the Bloom prefilter")
	rebuildBloomCmd.Flags().Uint64("bloom-m", 0, "Bloom filter size as a power-of-two exponent (0 keeps the current value)")
	rebuildBloomCmd.Flags().Int("bloom-k", 0, "Bloom hash function count (0 keeps the current value)")
}
