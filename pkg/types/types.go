package types

import "encoding/hex"

// BlockHash is an opaque cryptographic digest of one fixed-size block.
// It is never assumed to carry structure beyond byte-equality and
// lexicographic order; the stores do not check its length.
type BlockHash []byte

// Hex returns the lowercase hex encoding used throughout the scan JSON
// format (spec §6).
func (h BlockHash) Hex() string { return hex.EncodeToString(h) }

// FileHash identifies a source file by its own digest. Two FileHash values
// are assumed equal only if byte-identical; collisions are assumed absent.
type FileHash []byte

func (h FileHash) Hex() string { return hex.EncodeToString(h) }

// SourceID is a dense, monotonically increasing, non-zero identifier
// assigned to a FileHash on first sighting. SourceID 0 is never issued;
// the source-id store keeps the largest id issued so far under its own
// reserved sentinel key.
type SourceID uint64

// Posting is one entry in a block hash's posting list: the source that
// contains the block, and how many distinct offsets it occurs at within
// that source.
type Posting struct {
	SourceID SourceID
	SubCount uint32 // logical count; on-disk clamped to 16 bits for Type-3 records
}

// HashRecord is the decoded, authoritative view of one block hash's entry
// in the hash-data store (spec §4.1).
type HashRecord struct {
	KEntropy   uint64
	BlockLabel string
	TotalCount uint64
	Postings   []Posting // ordered by SourceID ascending
}

// MaxBlockLabelLen is the hard cap on block_label length (spec §4.1).
const MaxBlockLabelLen = 10

// MaxSubCount is the 16-bit clamp applied to a Type-3 follower's sub_count.
const MaxSubCount = 0xFFFF

// MaxTotalCount is the 32-bit clamp applied to a Type-2 header's total_count.
const MaxTotalCount = 0xFFFFFFFF

// SourceData is the metadata the source-data store holds per SourceID
// (spec §4.4).
type SourceData struct {
	FileHash          FileHash
	FileSize          uint64
	FileType          string
	ZeroCount         uint64
	NonprobativeCount uint64
}

// SourceName is one (repository_name, filename) pair held by the
// source-name store (spec §4.5). The store keeps a deduplicated set of
// these per SourceID, in insertion order.
type SourceName struct {
	RepositoryName string
	Filename       string
}

// Settings is the on-disk settings.json document (spec §4.8/§6).
type Settings struct {
	SettingsVersion  int `json:"settings_version"`
	SectorSize       int `json:"sector_size"`
	BlockSize        int `json:"block_size"`
	MaxIDOffsetPairs int `json:"max_id_offset_pairs"`
	HashPrefixBits   int `json:"hash_prefix_bits"`
	HashSuffixBytes  int `json:"hash_suffix_bytes"`

	// HashLength is not part of the canonical settings.json key set in
	// spec §6. It is read and written with settings.json (omitted while
	// zero), but nothing in this module sets it or checks block hashes
	// against it.
	HashLength int `json:"hash_length,omitempty"`

	// BloomUsed/BloomM/BloomK configure the Bloom prefilter (spec §4.6).
	BloomUsed bool   `json:"bloom_used"`
	BloomM    uint64 `json:"bloom_m_hash_size,omitempty"`
	BloomK    int    `json:"bloom_k_hash_functions,omitempty"`
}

// ExpectedSettingsVersion is the minimum settings_version read_settings
// will accept (spec §3 invariant I6, §7 "incompatible settings_version").
const ExpectedSettingsVersion = 3

// DefaultSettings returns the canonical defaults shown in spec §6.
func DefaultSettings() Settings {
	return Settings{
		SettingsVersion:  ExpectedSettingsVersion,
		SectorSize:       512,
		BlockSize:        512,
		MaxIDOffsetPairs: 100000,
		HashPrefixBits:   28,
		HashSuffixBytes:  3,
		BloomUsed:        true,
		BloomM:           28,
		BloomK:           3,
	}
}

// Validate checks the Bloom constraints from spec §4.6:
// 3 <= M_hash_size <= 8*sizeof(size_t)-1 and 1 <= k_hash_functions <= 5.
func (s Settings) Validate() error {
	const maxBloomM = 8*8 - 1 // 8*sizeof(size_t)-1 for a 64-bit size_t
	if s.BloomUsed {
		if s.BloomM < 3 || s.BloomM > maxBloomM {
			return errInvalidBloomM
		}
		if s.BloomK < 1 || s.BloomK > 5 {
			return errInvalidBloomK
		}
	}
	if s.SettingsVersion < ExpectedSettingsVersion {
		return errIncompatibleVersion
	}
	return nil
}
