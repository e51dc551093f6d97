package hashdb

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"hash/crc32"

	"github.com/dfir-forensics/hashdb/pkg/types"
)

// FindHash is the cheap membership/attribute lookup: scan callers should
// check the Bloom filter and prefilter first and only fall through to
// this when both answer "possible".
func (h *Hashdb) FindHash(blockHash types.BlockHash) (types.HashRecord, bool, error) {
	return h.hashData.Find(blockHash)
}

// FindApproximateHashCount answers the prefilter's cheap, approximate
// "how many sources, roughly" question without touching the
// authoritative store.
func (h *Hashdb) FindApproximateHashCount(blockHash types.BlockHash) (uint64, error) {
	return h.prefilter.Find(blockHash)
}

// BloomPossible answers the Bloom filter's fast negative check.
func (h *Hashdb) BloomPossible(blockHash types.BlockHash) bool {
	return h.bloomFilt.Test(blockHash)
}

// FindSourceData returns the metadata tuple for sourceID.
func (h *Hashdb) FindSourceData(sourceID types.SourceID) (types.SourceData, bool, error) {
	return h.sourceData.Find(sourceID)
}

// FindSourceNames returns the (repository_name, filename) set for
// sourceID.
func (h *Hashdb) FindSourceNames(sourceID types.SourceID) ([]types.SourceName, error) {
	return h.sourceName.Find(sourceID)
}

// FindSourceID returns the source id assigned to fileHash, if any.
func (h *Hashdb) FindSourceID(fileHash types.FileHash) (types.SourceID, bool, error) {
	return h.sourceID.Find(fileHash)
}

// HashBegin returns the first block hash in substrate order.
func (h *Hashdb) HashBegin() (types.BlockHash, bool, error) {
	return h.hashData.FirstHash()
}

// HashNext returns the block hash following prev.
func (h *Hashdb) HashNext(prev types.BlockHash) (types.BlockHash, bool, error) {
	return h.hashData.NextHash(prev)
}

// SourceBegin returns the first file hash in substrate order.
func (h *Hashdb) SourceBegin() (types.FileHash, bool, error) {
	return h.sourceID.FirstSource()
}

// SourceNext returns the file hash following prev.
func (h *Hashdb) SourceNext(prev types.FileHash) (types.FileHash, bool, error) {
	return h.sourceID.NextSource(prev)
}

// expandedSource is one entry of the scan JSON's "sources" array.
type expandedSource struct {
	SourceID        types.SourceID     `json:"source_id"`
	FileHashHex     string             `json:"file_hash_hex"`
	Filesize        uint64             `json:"filesize"`
	FileType        string             `json:"file_type"`
	LowEntropyCount uint64             `json:"low_entropy_count"`
	Names           []expandedNamePair `json:"names"`
}

type expandedNamePair struct {
	RepositoryName string `json:"repository_name"`
	Filename       string `json:"filename"`
}

// FindExpandedHash resolves blockHash's full posting list, including
// per-source metadata and names, into the three-element scan JSON array
// spec §6 describes: a source_list_id fingerprint, the resolved source
// metadata, and the (source_id, sub_count) pairs backing total_count.
// The original library surface's id_offset_pairs tracks individual
// file-offsets; this engine's hash-data store aggregates offsets into
// sub_count only, so the third element here carries (source_id,
// sub_count) pairs rather than raw offsets.
func (h *Hashdb) FindExpandedHash(blockHash types.BlockHash) ([]byte, bool, error) {
	rec, ok, err := h.hashData.Find(blockHash)
	if err != nil || !ok {
		return nil, ok, err
	}

	sourceIDs := make([]byte, 0, 8*len(rec.Postings))
	sources := make([]expandedSource, 0, len(rec.Postings))
	idOffsetPairs := make([]uint64, 0, 2*len(rec.Postings))

	for _, p := range rec.Postings {
		var idBuf [8]byte
		binary.BigEndian.PutUint64(idBuf[:], uint64(p.SourceID))
		sourceIDs = append(sourceIDs, idBuf[:]...)

		data, _, err := h.sourceData.Find(p.SourceID)
		if err != nil {
			return nil, false, err
		}
		names, err := h.sourceName.Find(p.SourceID)
		if err != nil {
			return nil, false, err
		}
		namePairs := make([]expandedNamePair, 0, len(names))
		for _, n := range names {
			namePairs = append(namePairs, expandedNamePair{RepositoryName: n.RepositoryName, Filename: n.Filename})
		}

		sources = append(sources, expandedSource{
			SourceID:        p.SourceID,
			FileHashHex:     hex.EncodeToString(data.FileHash),
			Filesize:        data.FileSize,
			FileType:        data.FileType,
			LowEntropyCount: data.ZeroCount + data.NonprobativeCount,
			Names:           namePairs,
		})

		idOffsetPairs = append(idOffsetPairs, uint64(p.SourceID), uint64(p.SubCount))
	}

	doc := []any{
		map[string]uint32{"source_list_id": crc32.ChecksumIEEE(sourceIDs)},
		map[string][]expandedSource{"sources": sources},
		map[string][]uint64{"id_offset_pairs": idOffsetPairs},
	}
	data, err := json.Marshal(doc)
	return data, true, err
}
