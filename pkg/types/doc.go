/*
Package types defines the core data structures shared across hashdb's
stores, facades, and CLI.

It holds the domain model described in spec.md §3: block hashes, source
ids, posting lists, source metadata, and the on-disk settings document.
Every other package imports types rather than redeclaring these shapes.

# Core Types

Identity:
  - BlockHash: opaque digest of one fixed-size block
  - FileHash: opaque digest identifying a source file
  - SourceID: dense, monotonic, non-zero alias for a FileHash

Posting Lists:
  - Posting: one (source_id, sub_count) pair
  - HashRecord: the full decoded view of one block hash's entry —
    entropy, label, total_count, and its posting list

Source Metadata:
  - SourceData: per-source file_hash/filesize/file_type/zero_count/
    nonprobative_count
  - SourceName: one (repository_name, filename) pair

Configuration:
  - Settings: the settings.json document (spec §4.8/§6)

These types carry no behavior beyond small helpers (Hex encoding,
Settings.Validate); the stores in pkg/hashdata, pkg/sourceid, etc. own
the encode/decode and invariant-enforcement logic.
*/
package types
