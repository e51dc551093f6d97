package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dfir-forensics/hashdb/pkg/hashdb"
	"github.com/dfir-forensics/hashdb/pkg/types"
)

var createCmd = &cobra.Command{
	Use:   "create <dir>",
	Short: "Create a new hashdb directory with a fresh settings.json",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		s := types.DefaultSettings()

		if v, _ := cmd.Flags().GetInt("sector-size"); v != 0 {
			s.SectorSize = v
		}
		if v, _ := cmd.Flags().GetInt("block-size"); v != 0 {
			s.BlockSize = v
		}
		if v, _ := cmd.Flags().GetInt("max-id-offset-pairs"); v != 0 {
			s.MaxIDOffsetPairs = v
		}
		if v, _ := cmd.Flags().GetInt("hash-prefix-bits"); v != 0 {
			s.HashPrefixBits = v
		}
		if v, _ := cmd.Flags().GetInt("hash-suffix-bytes"); v != 0 {
			s.HashSuffixBytes = v
		}
		if cmd.Flags().Changed("bloom-used") {
			s.BloomUsed, _ = cmd.Flags().GetBool("bloom-used")
		}
		if v, _ := cmd.Flags().GetUint64("bloom-m"); v != 0 {
			s.BloomM = v
		}
		if v, _ := cmd.Flags().GetInt("bloom-k"); v != 0 {
			s.BloomK = v
		}

		ok, msg := hashdb.CreateHashdb(dir, s, commandString(cmd, args))
		if !ok {
			return fmt.Errorf("%s", msg)
		}
		fmt.Printf("created hashdb at %s\n", dir)
		return nil
	},
}

func init() {
	createCmd.Flags().Int("sector-size", 0, "override sector_size")
	createCmd.Flags().Int("block-size", 0, "override block_size")
	createCmd.Flags().Int("max-id-offset-pairs", 0, "override max_id_offset_pairs")
	createCmd.Flags().Int("hash-prefix-bits", 0, "override hash_prefix_bits")
	createCmd.Flags().Int("hash-suffix-bytes", 0, "override hash_suffix_bytes")
	createCmd.Flags().Bool("bloom-used", true, "enable the Bloom prefilter")
	createCmd.Flags().Uint64("bloom-m", 0, "override Bloom filter size (bits, as a power of two exponent)")
	createCmd.Flags().Int("bloom-k", 0, "override Bloom hash function count")
}
