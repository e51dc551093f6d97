// Package hashdb is the facade binding the hash-data, prefilter,
// source-id, source-data, and source-name stores, the Bloom filter, the
// audit log, and settings into the library surface spec.md §6 names:
// create_hashdb, read_settings, rebuild_bloom, import_manager,
// scan_manager.
package hashdb

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/dfir-forensics/hashdb/pkg/auditlog"
	"github.com/dfir-forensics/hashdb/pkg/bloom"
	"github.com/dfir-forensics/hashdb/pkg/hashdata"
	"github.com/dfir-forensics/hashdb/pkg/log"
	"github.com/dfir-forensics/hashdb/pkg/prefilter"
	"github.com/dfir-forensics/hashdb/pkg/settings"
	"github.com/dfir-forensics/hashdb/pkg/sourcedata"
	"github.com/dfir-forensics/hashdb/pkg/sourceid"
	"github.com/dfir-forensics/hashdb/pkg/sourcename"
	"github.com/dfir-forensics/hashdb/pkg/store"
	"github.com/dfir-forensics/hashdb/pkg/types"
)

const bloomFileName = "bloom_filter"

// These constants give the five substrate directories their spec §6 names,
// in the fixed mutex-acquisition order §5 mandates: hash-data →
// prefilter → source-id → source-data → source-name.
const (
	hashDataStoreName   = "hash_data_store"
	prefilterStoreName  = "hash_store"
	sourceIDStoreName   = "source_id_store"
	sourceDataStoreName = "source_data_store"
	sourceNameStoreName = "source_name_store"
)

// Hashdb is an open handle on one hashdb directory.
type Hashdb struct {
	dir      string
	settings types.Settings
	logger   zerolog.Logger

	hashData   *hashdata.Store
	prefilter  *prefilter.Store
	sourceID   *sourceid.Store
	sourceData *sourcedata.Store
	sourceName *sourcename.Store
	bloomFilt  *bloom.Filter

	rawStores []*store.Store // for Close, in open order
}

// CreateHashdb creates a new hashdb directory at dir with s, recording
// commandString in the audit log. Fails with a configuration error
// (ok=false) if dir already holds a settings.json.
func CreateHashdb(dir string, s types.Settings, commandString string) (ok bool, message string) {
	if _, err := os.Stat(filepath.Join(dir, "settings.json")); err == nil {
		return false, fmt.Sprintf("create_hashdb: %s already contains a settings.json", dir)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return false, fmt.Sprintf("create_hashdb: mkdir: %v", err)
	}

	if ok, msg := settings.Write(dir, s); !ok {
		return false, msg
	}

	h, err := Open(dir)
	if err != nil {
		return false, fmt.Sprintf("create_hashdb: %v", err)
	}
	defer h.Close()

	if err := auditlog.Append(dir, auditlog.Session{Command: commandString}); err != nil {
		h.logger.Warn().Err(err).Msg("failed to append audit log entry for create_hashdb")
	}
	return true, ""
}

// ReadSettings reads dir/settings.json (spec §6 read_settings).
func ReadSettings(dir string) (types.Settings, bool, string) {
	return settings.Read(dir)
}

// Open opens an existing hashdb directory, wiring every store together.
func Open(dir string) (*Hashdb, error) {
	s, ok, msg := settings.Read(dir)
	if !ok {
		return nil, fmt.Errorf("%s", msg)
	}

	logger := log.WithHashdbDir(dir)
	h := &Hashdb{dir: dir, settings: s, logger: logger}

	hashDataSt, err := store.Open(dir, hashDataStoreName, logger)
	if err != nil {
		return nil, err
	}
	h.rawStores = append(h.rawStores, hashDataSt)
	h.hashData = hashdata.New(hashDataSt)

	prefilterSt, err := store.Open(dir, prefilterStoreName, logger)
	if err != nil {
		h.Close()
		return nil, err
	}
	h.rawStores = append(h.rawStores, prefilterSt)
	h.prefilter = prefilter.New(prefilterSt, s.HashPrefixBits, s.HashSuffixBytes)

	sourceIDSt, err := store.Open(dir, sourceIDStoreName, logger)
	if err != nil {
		h.Close()
		return nil, err
	}
	h.rawStores = append(h.rawStores, sourceIDSt)
	h.sourceID = sourceid.New(sourceIDSt)

	sourceDataSt, err := store.Open(dir, sourceDataStoreName, logger)
	if err != nil {
		h.Close()
		return nil, err
	}
	h.rawStores = append(h.rawStores, sourceDataSt)
	h.sourceData = sourcedata.New(sourceDataSt)

	sourceNameSt, err := store.Open(dir, sourceNameStoreName, logger)
	if err != nil {
		h.Close()
		return nil, err
	}
	h.rawStores = append(h.rawStores, sourceNameSt)
	h.sourceName = sourcename.New(sourceNameSt)

	bloomFilt, err := bloom.Open(filepath.Join(dir, bloomFileName), s.BloomUsed, s.BloomM, s.BloomK)
	if err != nil {
		h.Close()
		return nil, err
	}
	h.bloomFilt = bloomFilt

	return h, nil
}

// Close releases every underlying store and the Bloom filter mapping.
func (h *Hashdb) Close() error {
	var firstErr error
	if h.bloomFilt != nil {
		if err := h.bloomFilt.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, st := range h.rawStores {
		if err := st.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// RebuildBloom rebuilds the Bloom filter from scratch by walking every
// hash currently in the hash-data store, optionally changing bloom_used,
// M, and k. The new filter replaces the old one atomically via a
// temp-file rename.
func (h *Hashdb) RebuildBloom(bloomUsed bool, m uint64, k int, commandString string) error {
	tmpPath := filepath.Join(h.dir, bloomFileName+".rebuild")
	_ = os.Remove(tmpPath)

	newFilt, err := bloom.Open(tmpPath, bloomUsed, m, k)
	if err != nil {
		return fmt.Errorf("rebuild_bloom: %w", err)
	}

	hash, ok, err := h.hashData.FirstHash()
	for ok && err == nil {
		newFilt.Add(hash)
		hash, ok, err = h.hashData.NextHash(hash)
	}
	if err != nil {
		_ = newFilt.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rebuild_bloom: walking hash-data store: %w", err)
	}
	if err := newFilt.Sync(); err != nil {
		_ = newFilt.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rebuild_bloom: %w", err)
	}
	if err := newFilt.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rebuild_bloom: %w", err)
	}

	if err := h.bloomFilt.Close(); err != nil {
		h.logger.Warn().Err(err).Msg("closing previous bloom filter before rebuild swap")
	}
	finalPath := filepath.Join(h.dir, bloomFileName)
	// A disabled filter never creates its temp file, so there is nothing
	// to swap in.
	if bloomUsed {
		if err := os.Rename(tmpPath, finalPath); err != nil {
			return fmt.Errorf("rebuild_bloom: swap: %w", err)
		}
	}

	h.settings.BloomUsed = bloomUsed
	h.settings.BloomM = m
	h.settings.BloomK = k
	if ok, msg := settings.Write(h.dir, h.settings); !ok {
		return fmt.Errorf("rebuild_bloom: %s", msg)
	}

	reopened, err := bloom.Open(finalPath, bloomUsed, m, k)
	if err != nil {
		return fmt.Errorf("rebuild_bloom: reopening rebuilt filter: %w", err)
	}
	h.bloomFilt = reopened

	return auditlog.Append(h.dir, auditlog.Session{Command: commandString})
}

// Sizes returns the number of distinct keys currently held by each
// store, keyed by store name (SPEC_FULL §4.9 sizes()/size()
// introspection).
func (h *Hashdb) Sizes() (map[string]int, error) {
	out := make(map[string]int, 5)
	for name, s := range map[string]*store.Store{
		hashDataStoreName:   h.rawStores[0],
		prefilterStoreName:  h.rawStores[1],
		sourceDataStoreName: h.rawStores[3],
		sourceNameStoreName: h.rawStores[4],
	} {
		n, err := s.Count()
		if err != nil {
			return nil, err
		}
		out[name] = n
	}

	// source_id_store's raw key count includes the sentinel key that
	// tracks the largest id issued; exclude it here.
	n, err := h.sourceID.Count()
	if err != nil {
		return nil, err
	}
	out[sourceIDStoreName] = n

	return out, nil
}

// Size returns the number of distinct block hashes in the hash-data
// store, the engine's canonical "how big is this hashdb" figure.
func (h *Hashdb) Size() (int, error) {
	return h.hashData.Count()
}

// Settings returns the settings this handle was opened with.
func (h *Hashdb) Settings() types.Settings { return h.settings }
