// Command hashdb-rebuild merges every hash and source record from a
// source hashdb into a destination hashdb, the way a forensics team
// consolidates several case databases into one reference set. It
// mirrors the shape of a single-purpose database migration tool: flag
// parsing, an optional backup, a dry-run mode, and a straight walk over
// the source store.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/dfir-forensics/hashdb/pkg/hashdb"
	"github.com/dfir-forensics/hashdb/pkg/types"
)

var (
	srcDir  = flag.String("src", "", "source hashdb directory (read-only)")
	dstDir  = flag.String("dst", "", "destination hashdb directory (read-write)")
	dryRun  = flag.Bool("dry-run", false, "report what would be merged without writing to dst")
	backup  = flag.String("backup", "", "copy dst's settings.json to this path before merging (default: <dst>/settings.json.backup)")
	command = flag.String("command", "", "command string recorded in dst's audit log (default: the invoked command line)")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if *srcDir == "" || *dstDir == "" {
		log.Fatal("both -src and -dst are required")
	}

	log.Printf("hashdb-rebuild: merging %s into %s", *srcDir, *dstDir)
	log.Printf("dry run: %v", *dryRun)

	if !*dryRun {
		backupFile := *backup
		if backupFile == "" {
			backupFile = filepath.Join(*dstDir, "settings.json.backup")
		}
		if err := copySettings(*dstDir, backupFile); err != nil {
			log.Fatalf("failed to back up destination settings: %v", err)
		}
		log.Printf("backed up destination settings to %s", backupFile)
	}

	src, err := hashdb.Open(*srcDir)
	if err != nil {
		log.Fatalf("opening source: %v", err)
	}
	defer src.Close()

	dst, err := hashdb.Open(*dstDir)
	if err != nil {
		log.Fatalf("opening destination: %v", err)
	}
	defer dst.Close()

	cmdString := *command
	if cmdString == "" {
		cmdString = fmt.Sprintf("hashdb-rebuild -src=%s -dst=%s", *srcDir, *dstDir)
	}

	if *dryRun {
		n, err := countSources(src)
		if err != nil {
			log.Fatalf("counting source records: %v", err)
		}
		log.Printf("would merge %d sources and their posting lists; no changes made", n)
		return
	}

	sess := dst.NewImportSession(cmdString)
	defer func() {
		if err := sess.Close(); err != nil {
			log.Printf("warning: closing rebuild session: %v", err)
		}
	}()

	sourceIDMap, sourcesMerged, err := mergeSources(src, sess)
	if err != nil {
		log.Fatalf("merging sources: %v", err)
	}
	log.Printf("merged %d sources", sourcesMerged)

	hashesMerged, err := mergeHashes(src, sess, sourceIDMap)
	if err != nil {
		log.Fatalf("merging hashes: %v", err)
	}
	log.Printf("merged %d hashes", hashesMerged)

	report := sess.Changes()
	log.Printf("changes report: %+v", report)
}

// mergeSources walks src's source-id store and, for each source,
// reinserts its file hash, names, and metadata into dst, returning a map
// from src's SourceID to dst's SourceID so mergeHashes can translate
// posting lists between the two id spaces.
func mergeSources(src *hashdb.Hashdb, sess *hashdb.ImportSession) (map[types.SourceID]types.SourceID, int, error) {
	idMap := map[types.SourceID]types.SourceID{}
	count := 0

	fileHash, ok, err := src.SourceBegin()
	for ok && err == nil {
		srcID, found, ferr := src.FindSourceID(fileHash)
		if ferr != nil {
			return nil, 0, ferr
		}
		if !found {
			fileHash, ok, err = src.SourceNext(fileHash)
			continue
		}

		_, dstID, ierr := sess.InsertSourceID(fileHash)
		if ierr != nil {
			return nil, 0, ierr
		}
		idMap[srcID] = dstID

		if data, found, derr := src.FindSourceData(srcID); derr != nil {
			return nil, 0, derr
		} else if found {
			if ierr := sess.InsertSourceData(dstID, data); ierr != nil {
				return nil, 0, ierr
			}
		}

		names, nerr := src.FindSourceNames(srcID)
		if nerr != nil {
			return nil, 0, nerr
		}
		for _, n := range names {
			if ierr := sess.InsertSourceName(dstID, n.RepositoryName, n.Filename); ierr != nil {
				return nil, 0, ierr
			}
		}

		count++
		fileHash, ok, err = src.SourceNext(fileHash)
	}
	return idMap, count, err
}

// mergeHashes walks src's hash-data store and merges every posting into
// dst, translating source ids through idMap. Postings for a source id
// absent from idMap (should not happen if mergeSources ran first) are
// skipped.
func mergeHashes(src *hashdb.Hashdb, sess *hashdb.ImportSession, idMap map[types.SourceID]types.SourceID) (int, error) {
	count := 0
	hash, ok, err := src.HashBegin()
	for ok && err == nil {
		rec, found, ferr := src.FindHash(hash)
		if ferr != nil {
			return 0, ferr
		}
		if found {
			for _, p := range rec.Postings {
				dstID, present := idMap[p.SourceID]
				if !present {
					continue
				}
				if _, merr := sess.MergeHash(hash, rec.KEntropy, rec.BlockLabel, dstID, uint64(p.SubCount)); merr != nil {
					return 0, merr
				}
			}
			count++
		}
		hash, ok, err = src.HashNext(hash)
	}
	return count, err
}

func countSources(src *hashdb.Hashdb) (int, error) {
	count := 0
	fileHash, ok, err := src.SourceBegin()
	for ok && err == nil {
		count++
		fileHash, ok, err = src.SourceNext(fileHash)
	}
	return count, err
}

func copySettings(dstDir, backupPath string) error {
	in, err := os.Open(filepath.Join(dstDir, "settings.json"))
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(backupPath)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
