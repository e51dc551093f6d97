package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dfir-forensics/hashdb/pkg/hashdb"
)

var settingsCmd = &cobra.Command{
	Use:   "settings <dir>",
	Short: "Print a hashdb's settings.json",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		s, ok, msg := hashdb.ReadSettings(dir)
		if !ok {
			return fmt.Errorf("%s", msg)
		}

		fmt.Printf("settings_version:       %d\n", s.SettingsVersion)
		fmt.Printf("sector_size:            %d\n", s.SectorSize)
		fmt.Printf("block_size:             %d\n", s.BlockSize)
		fmt.Printf("max_id_offset_pairs:    %d\n", s.MaxIDOffsetPairs)
		fmt.Printf("hash_prefix_bits:       %d\n", s.HashPrefixBits)
		fmt.Printf("hash_suffix_bytes:      %d\n", s.HashSuffixBytes)
		fmt.Printf("bloom_used:             %t\n", s.BloomUsed)
		fmt.Printf("bloom_m_hash_size:      %d\n", s.BloomM)
		fmt.Printf("bloom_k_hash_functions: %d\n", s.BloomK)
		return nil
	},
}
