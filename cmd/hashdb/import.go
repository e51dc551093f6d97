package main

import (
	"crypto/sha256"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dfir-forensics/hashdb/pkg/hashdb"
	"github.com/dfir-forensics/hashdb/pkg/log"
	"github.com/dfir-forensics/hashdb/pkg/types"
)

var importCmd = &cobra.Command{
	Use:   "import <dir> <file>...",
	Short: "Import one or more source files into a hashdb",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		repo, _ := cmd.Flags().GetString("repo")
		if repo == "" {
			repo = defaults.DefaultRepo
		}

		h, err := hashdb.Open(dir)
		if err != nil {
			return err
		}
		defer h.Close()

		sess := h.NewImportSession(commandString(cmd, args))
		defer func() {
			if err := sess.Close(); err != nil {
				log.Logger.Warn().Err(err).Msg("closing import session")
			}
		}()

		// Files are imported one at a time through the shared session.
		// sess.changes and the Bloom filter (pkg/bloom.Filter.Add has no
		// internal lock) are both mutated across store boundaries by
		// every insert, so spec §5's single-writer, program-order model
		// applies across the whole import, not just within one store.
		for _, path := range args[1:] {
			if err := importFile(h, sess, repo, path); err != nil {
				return fmt.Errorf("importing %s: %w", path, err)
			}
		}
		return nil
	},
}

func init() {
	importCmd.Flags().String("repo", "", "repository name recorded with each imported source")
}

func importFile(h *hashdb.Hashdb, sess *hashdb.ImportSession, repo, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	fullHash := sha256.New()
	if _, err := io.Copy(fullHash, f); err != nil {
		return err
	}
	fileHash := types.FileHash(fullHash.Sum(nil))

	_, sourceID, err := sess.InsertSourceID(fileHash)
	if err != nil {
		return err
	}
	if err := sess.InsertSourceName(sourceID, repo, filepath.Base(path)); err != nil {
		return err
	}
	if err := sess.InsertSourceData(sourceID, types.SourceData{
		FileHash: fileHash,
		FileSize: uint64(info.Size()),
		FileType: filepath.Ext(path),
	}); err != nil {
		return err
	}

	blockSize := h.Settings().BlockSize
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	buf := make([]byte, blockSize)
	for {
		n, err := io.ReadFull(f, buf)
		if n == 0 {
			break
		}
		kEntropy := shannonEntropyScaled(buf[:n])
		blockHash := sha256.Sum256(buf[:n])
		if _, err := sess.InsertHash(types.BlockHash(blockHash[:]), kEntropy, "", sourceID); err != nil {
			return err
		}
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// shannonEntropyScaled computes a scaled integer entropy estimate for a
// block, matching the hash-data store's k_entropy attribute.
func shannonEntropyScaled(block []byte) uint64 {
	var freq [256]int
	for _, b := range block {
		freq[b]++
	}
	var entropy float64
	n := float64(len(block))
	for _, c := range freq {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		entropy -= p * math.Log2(p)
	}
	return uint64(entropy * 1000)
}
