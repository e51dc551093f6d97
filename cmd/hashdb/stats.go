package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dfir-forensics/hashdb/pkg/hashdb"
	"github.com/dfir-forensics/hashdb/pkg/types"
)

var statsCmd = &cobra.Command{
	Use:   "stats <dir>",
	Short: "Print a distribution histogram of posting-list sizes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		h, err := hashdb.Open(dir)
		if err != nil {
			return err
		}
		defer h.Close()

		histogram := map[int]int{}
		hash, ok, err := h.HashBegin()
		for ok && err == nil {
			rec, found, ferr := h.FindHash(hash)
			if ferr != nil {
				return ferr
			}
			if found {
				histogram[len(rec.Postings)]++
			}
			hash, ok, err = h.HashNext(hash)
		}
		if err != nil {
			return err
		}

		buckets := make([]int, 0, len(histogram))
		for b := range histogram {
			buckets = append(buckets, b)
		}
		sort.Ints(buckets)

		fmt.Println("sources_per_hash\tcount")
		for _, b := range buckets {
			fmt.Printf("%d\t%d\n", b, histogram[b])
		}
		return nil
	},
}

var _ = types.BlockHash(nil)
