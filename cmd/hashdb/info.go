package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dfir-forensics/hashdb/pkg/hashdb"
)

var infoCmd = &cobra.Command{
	Use:   "info <dir>",
	Short: "Print a hashdb's settings and store sizes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		h, err := hashdb.Open(dir)
		if err != nil {
			return err
		}
		defer h.Close()

		s := h.Settings()
		fmt.Printf("settings_version:     %d\n", s.SettingsVersion)
		fmt.Printf("sector_size:          %d\n", s.SectorSize)
		fmt.Printf("block_size:           %d\n", s.BlockSize)
		fmt.Printf("max_id_offset_pairs:  %d\n", s.MaxIDOffsetPairs)
		fmt.Printf("hash_prefix_bits:     %d\n", s.HashPrefixBits)
		fmt.Printf("hash_suffix_bytes:    %d\n", s.HashSuffixBytes)
		fmt.Printf("bloom_used:           %t\n", s.BloomUsed)
		if s.BloomUsed {
			fmt.Printf("bloom_m_hash_size:    %d\n", s.BloomM)
			fmt.Printf("bloom_k_hash_functions: %d\n", s.BloomK)
		}

		sizes, err := h.Sizes()
		if err != nil {
			return err
		}
		fmt.Println("store sizes:")
		for name, n := range sizes {
			fmt.Printf("  %-20s %d\n", name, n)
		}
		return nil
	},
}
