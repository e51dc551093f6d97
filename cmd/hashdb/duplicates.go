package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dfir-forensics/hashdb/pkg/hashdb"
)

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates <dir>",
	Short: "List block hashes whose posting list spans at least --min-sources sources",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		minSources, _ := cmd.Flags().GetInt("min-sources")
		if minSources < 1 {
			minSources = 2
		}

		h, err := hashdb.Open(dir)
		if err != nil {
			return err
		}
		defer h.Close()

		hash, ok, err := h.HashBegin()
		for ok && err == nil {
			rec, found, ferr := h.FindHash(hash)
			if ferr != nil {
				return ferr
			}
			if found && len(rec.Postings) >= minSources {
				fmt.Printf("%s\t%d\n", hash.Hex(), len(rec.Postings))
			}
			hash, ok, err = h.HashNext(hash)
		}
		return err
	},
}

func init() {
	duplicatesCmd.Flags().Int("min-sources", 2, "only report hashes present in at least this many sources")
}
