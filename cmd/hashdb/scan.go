package main

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dfir-forensics/hashdb/pkg/hashdb"
	"github.com/dfir-forensics/hashdb/pkg/types"
)

var scanCmd = &cobra.Command{
	Use:   "scan <dir> <file>",
	Short: "Scan a file's blocks against a hashdb, printing matches as JSON",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, path := args[0], args[1]
		expand, _ := cmd.Flags().GetBool("expand")

		h, err := hashdb.Open(dir)
		if err != nil {
			return err
		}
		defer h.Close()

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		blockSize := h.Settings().BlockSize
		buf := make([]byte, blockSize)
		offset := int64(0)
		for {
			n, rerr := io.ReadFull(f, buf)
			if n == 0 {
				break
			}
			sum := sha256.Sum256(buf[:n])
			blockHash := types.BlockHash(sum[:])

			if h.BloomPossible(blockHash) {
				if count, _ := h.FindApproximateHashCount(blockHash); count > 0 {
					if expand {
						if data, found, err := h.FindExpandedHash(blockHash); err == nil && found {
							fmt.Printf("%d\t%s\t%s\n", offset, blockHash.Hex(), data)
						}
					} else if rec, found, err := h.FindHash(blockHash); err == nil && found {
						line, _ := json.Marshal(rec)
						fmt.Printf("%d\t%s\t%s\n", offset, blockHash.Hex(), line)
					}
				}
			}

			offset += int64(n)
			if rerr == io.ErrUnexpectedEOF || rerr == io.EOF {
				break
			}
			if rerr != nil {
				return rerr
			}
		}
		return nil
	},
}

func init() {
	scanCmd.Flags().Bool("expand", false, "emit the full expanded scan JSON instead of the raw hash record")
}
